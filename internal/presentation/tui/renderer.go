package tui

import (
	"github.com/charmbracelet/glamour"

	"github.com/aretw0/stepper/pkg/runner"
)

// NewRenderer returns a runner.ContentRenderer that renders markdown with glamour.
// An empty style detects light or dark backgrounds. If glamour cannot be
// initialized the content is passed through unchanged.
func NewRenderer(style string, width int) runner.ContentRenderer {
	opts := []glamour.TermRendererOption{glamour.WithAutoStyle()}
	if style != "" {
		opts = []glamour.TermRendererOption{glamour.WithStandardStyle(style)}
	}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}

	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}
	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}
