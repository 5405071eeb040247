package runner

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"

	"github.com/aretw0/stepper/pkg/render"
)

// JSONHandler implements the IOHandler interface for structured JSON-Lines output.
// Every view is one line; system messages are {"system": "..."} lines.
type JSONHandler struct {
	Writer  io.Writer
	Encoder *json.Encoder

	mu sync.Mutex
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(w io.Writer) *JSONHandler {
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Writer:  w,
		Encoder: json.NewEncoder(w),
	}
}

func (h *JSONHandler) Output(ctx context.Context, view render.View) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.Encoder.Encode(view)
}

// SystemMessage is the line JSONHandler writes for meta-messages.
type SystemMessage struct {
	System string `json:"system"`
}

func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.Encoder.Encode(SystemMessage{System: msg})
}
