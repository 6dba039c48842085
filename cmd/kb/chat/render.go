package chatcmder

import (
	"fmt"
	"io"

	"github.com/papercomputeco/kbconsole/pkg/chat"
	"github.com/papercomputeco/kbconsole/pkg/cliui"
	"github.com/papercomputeco/kbconsole/pkg/stream"
)

// answerView prints a streaming answer. Plain views echo text as it
// arrives; markdown views show a progress line and render the full answer
// with glamour once it is complete.
type answerView struct {
	out      io.Writer
	markdown bool
	printed  int
	frame    int
}

func newAnswerView(out io.Writer, markdown bool) *answerView {
	return &answerView{out: out, markdown: markdown}
}

func (v *answerView) start() {
	if !v.markdown {
		fmt.Fprint(v.out, assistantPrompt)
	}
}

func (v *answerView) update(m *chat.Message) {
	if v.markdown {
		v.frame++
		fmt.Fprintf(v.out, "\r  %s %s",
			cliui.SpinnerFrame(v.frame),
			cliui.DimStyle.Render(fmt.Sprintf("answering… %d chars, %d sources", len(m.Content), len(m.Sources))),
		)
		return
	}

	// The fallback text replaces, rather than extends, empty content.
	if len(m.Content) < v.printed {
		v.printed = 0
	}
	fmt.Fprint(v.out, m.Content[v.printed:])
	v.printed = len(m.Content)
}

func (v *answerView) finish(m *chat.Message) {
	if v.markdown {
		// Clear the progress line.
		fmt.Fprint(v.out, "\r\033[K")
		rendered, err := cliui.RenderMarkdown(m.Content, cliui.Width(v.out, 80)-4)
		if err != nil {
			rendered = m.Content + "\n"
		}
		fmt.Fprint(v.out, rendered)
	} else {
		fmt.Fprint(v.out, "\n\n")
	}

	if m.Failed() {
		fmt.Fprintf(v.out, "  %s %s\n\n", cliui.FailMark, cliui.ErrorStyle.Render(m.Error))
		return
	}
	cliui.Sources(v.out, m.Sources)
}

// streamError converts a failure to open the stream into an error event.
func streamError(err error) stream.Event {
	return stream.Event{Kind: stream.KindError, Message: err.Error()}
}
