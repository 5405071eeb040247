package runner

import (
	"context"

	"github.com/aretw0/stepper/pkg/render"
)

// IOHandler defines the strategy for presenting playback to the user.
// This allows switching between Text (CLI/TUI) and JSON (Structured) modes.
type IOHandler interface {
	// Output presents one rendered step.
	Output(ctx context.Context, view render.View) error

	// SystemOutput presents a meta-message to the user (e.g. completion, interruption).
	// This is distinct from content rendering.
	SystemOutput(ctx context.Context, msg string) error
}

// ContentRenderer is a function that transforms the content before outputting it.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)
