package uploadcmder

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	bubbletea "github.com/charmbracelet/bubbletea"

	"github.com/papercomputeco/kbconsole/pkg/cliui"
	"github.com/papercomputeco/kbconsole/pkg/upload"
)

const (
	barMaxWidth = 48
	barMinWidth = 10
)

// uploadFunc performs an upload, reporting through tracker.
type uploadFunc func(ctx context.Context, tracker *upload.Tracker) error

type stateMsg upload.State

type doneMsg struct {
	err error
}

type progressKeyMap struct {
	Cancel key.Binding
}

func (k progressKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Cancel}
}

func (k progressKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

func defaultProgressKeyMap() progressKeyMap {
	return progressKeyMap{
		Cancel: key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "cancel upload")),
	}
}

type progressModel struct {
	label      string
	bar        progress.Model
	state      upload.State
	keys       progressKeyMap
	help       help.Model
	cancel     context.CancelFunc
	cancelling bool
	done       bool
}

func newProgressModel(label string, cancel context.CancelFunc) progressModel {
	return progressModel{
		label:  label,
		bar:    cliui.NewProgressBar(barMaxWidth),
		state:  upload.State{Stage: upload.StageIdle},
		keys:   defaultProgressKeyMap(),
		help:   help.New(),
		cancel: cancel,
	}
}

func (m progressModel) Init() bubbletea.Cmd {
	return nil
}

func (m progressModel) Update(msg bubbletea.Msg) (bubbletea.Model, bubbletea.Cmd) {
	switch msg := msg.(type) {
	case bubbletea.WindowSizeMsg:
		m.bar.Width = min(barMaxWidth, max(barMinWidth, msg.Width-40))
		return m, nil

	case bubbletea.KeyMsg:
		if key.Matches(msg, m.keys.Cancel) && !m.cancelling {
			m.cancelling = true
			m.cancel()
		}
		return m, nil

	case stateMsg:
		m.state = upload.State(msg)
		return m, nil

	case doneMsg:
		m.done = true
		return m, bubbletea.Quit
	}

	return m, nil
}

func (m progressModel) View() string {
	s := fmt.Sprintf("  %s\n  %s\n", cliui.NameStyle.Render(m.label), cliui.ProgressLine(m.bar, m.state))
	if m.done {
		return s
	}
	if m.cancelling {
		return s + "  " + cliui.DimStyle.Render("cancelling…") + "\n"
	}
	return s + "  " + m.help.View(m.keys) + "\n"
}

// runWithProgress runs fn while showing its tracker. On a terminal the
// progress is an interactive bar that can cancel the upload; otherwise
// stage changes and every tenth percent are printed as lines.
func runWithProgress(ctx context.Context, w io.Writer, interactive bool, label string, fn uploadFunc) error {
	tracker := upload.NewTracker()
	if !interactive {
		return runPlain(ctx, w, label, tracker, fn)
	}

	uploadCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	program := bubbletea.NewProgram(
		newProgressModel(label, cancel),
		bubbletea.WithContext(ctx),
		bubbletea.WithOutput(w),
	)
	tracker.OnChange = func(s upload.State) {
		program.Send(stateMsg(s))
	}

	errCh := make(chan error, 1)
	go func() {
		err := fn(uploadCtx, tracker)
		errCh <- err
		program.Send(doneMsg{err: err})
	}()

	if _, err := program.Run(); err != nil {
		cancel()
		<-errCh
		return fmt.Errorf("running progress display: %w", err)
	}
	return <-errCh
}

func runPlain(ctx context.Context, w io.Writer, label string, tracker *upload.Tracker, fn uploadFunc) error {
	var (
		mu        sync.Mutex
		lastStage upload.Stage
		lastTenth = -1
	)
	tracker.OnChange = func(s upload.State) {
		mu.Lock()
		defer mu.Unlock()

		tenth := s.Percent / 10
		if s.Stage == lastStage && tenth == lastTenth {
			return
		}
		lastStage, lastTenth = s.Stage, tenth

		line := fmt.Sprintf("  %s %3d%%  %s / %s",
			cliui.StageLabel(s.Stage), s.Percent, cliui.FormatBytes(s.Sent), cliui.FormatBytes(s.Total))
		if s.Err != nil {
			line += "  " + cliui.ErrorStyle.Render(s.Err.Error())
		}
		fmt.Fprintln(w, line)
	}

	fmt.Fprintf(w, "  %s\n", cliui.NameStyle.Render(label))
	return fn(ctx, tracker)
}
