package runner

import (
	"log/slog"

	"github.com/aretw0/stepper/pkg/render"
)

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.Logger = logger
		}
	}
}

// WithInputHandler configures a custom IOHandler.
func WithInputHandler(handler IOHandler) Option {
	return func(r *Runner) {
		r.Handler = handler
	}
}

// WithRenderOptions configures which panels the rendered views carry.
func WithRenderOptions(opts render.Options) Option {
	return func(r *Runner) {
		r.RenderOptions = opts
	}
}

// WithSignals makes Run stop on SIGINT/SIGTERM as well as on context cancellation.
func WithSignals(enabled bool) Option {
	return func(r *Runner) {
		r.Signals = enabled
	}
}
