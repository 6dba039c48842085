package cliui

import (
	"sync"

	"github.com/charmbracelet/glamour"
)

const defaultMarkdownWidth = 80

var (
	renderersMu sync.Mutex
	renderers   = map[int]*glamour.TermRenderer{}
)

// RenderMarkdown renders markdown for the terminal, wrapped at width. On
// failure it returns content unchanged along with the error.
func RenderMarkdown(content string, width int) (string, error) {
	if width <= 0 {
		width = defaultMarkdownWidth
	}

	renderersMu.Lock()
	defer renderersMu.Unlock()

	r, ok := renderers[width]
	if !ok {
		var err error
		r, err = glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(width))
		if err != nil {
			return content, err
		}
		renderers[width] = r
	}

	out, err := r.Render(content)
	if err != nil {
		return content, err
	}
	return out, nil
}
