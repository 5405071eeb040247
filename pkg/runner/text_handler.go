package runner

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/stepper/pkg/render"
)

// Format selects how TextHandler prints a view.
type Format string

const (
	FormatPlain    Format = "plain"
	FormatMarkdown Format = "markdown"
)

// ParseFormat maps a flag value to a Format. Unknown values fall back to plain.
func ParseFormat(s string) Format {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatMarkdown, "md":
		return FormatMarkdown
	}
	return FormatPlain
}

// TextHandler implements the standard text-based interface.
type TextHandler struct {
	Writer   io.Writer
	Format   Format
	Renderer ContentRenderer

	mu sync.Mutex
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithFormat selects plain or markdown output.
func WithFormat(f Format) TextHandlerOption {
	return func(h *TextHandler) {
		h.Format = f
	}
}

// WithTextHandlerRenderer configures the content renderer.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// NewTextHandler creates a handler for standard text IO.
func NewTextHandler(w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		Writer: w,
		Format: FormatPlain,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *TextHandler) Output(ctx context.Context, view render.View) error {
	var msg string
	if h.Format == FormatMarkdown {
		msg = render.Markdown(view)
	} else {
		msg = render.Text(view)
	}

	output := msg
	if h.Renderer != nil {
		rendered, err := h.Renderer(msg)
		if err == nil {
			output = rendered
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := fmt.Fprintln(h.Writer, strings.TrimRight(output, "\n"))
	return err
}

func (h *TextHandler) SystemOutput(ctx context.Context, msg string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := fmt.Fprintf(h.Writer, "[System] %s\n", msg)
	return err
}
