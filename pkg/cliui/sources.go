package cliui

import (
	"fmt"
	"io"
	"strings"

	"github.com/papercomputeco/kbconsole/pkg/stream"
)

// Sources prints a numbered citation list.
func Sources(w io.Writer, sources []stream.Source) {
	if len(sources) == 0 {
		return
	}

	fmt.Fprintf(w, "  %s\n", KeyStyle.Render("Sources:"))
	for i, src := range sources {
		line := fmt.Sprintf("  %s %s",
			DimStyle.Render(fmt.Sprintf("[%d]", i+1)),
			NameStyle.Render(src.Name()),
		)
		if src.Filename != "" && src.Filename != src.Name() {
			line += " " + DimStyle.Render(src.Filename)
		}
		if src.RelevanceScore > 0 {
			line += " " + IDStyle.Render(fmt.Sprintf("%.0f%%", src.RelevanceScore*100))
		}
		if src.Page > 0 {
			line += " " + DimStyle.Render(fmt.Sprintf("p.%d", src.Page))
		}
		fmt.Fprintln(w, line)

		if src.IsVideo() && len(src.Timestamps) > 0 {
			segments := make([]string, 0, len(src.Timestamps))
			for _, ts := range src.Timestamps {
				segments = append(segments, ts.String())
			}
			fmt.Fprintf(w, "      %s %s\n", KeyStyle.Render("at"), ValueStyle.Render(strings.Join(segments, ", ")))
		}
		if src.Summary != "" {
			fmt.Fprintf(w, "      %s\n", PreviewStyle.Render(Truncate(src.Summary, 100)))
		}
	}
	fmt.Fprintln(w)
}
