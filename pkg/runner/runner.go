package runner

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/stepper/internal/logging"
	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/playback"
	"github.com/aretw0/stepper/pkg/render"
)

// Runner plays a controller to its last step and writes every frame to Handler.
type Runner struct {
	// Handler is the strategy for IO. If nil, plain text on stdout is used.
	Handler IOHandler

	// Logger is used for internal debug logging.
	// If nil, a no-op logger is used.
	Logger *slog.Logger

	RenderOptions render.Options

	// Signals enables SIGINT/SIGTERM handling for the duration of Run.
	Signals bool
}

// NewRunner creates a Runner writing plain text to stdout.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		Logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run plays ctrl from its current position until the timer stops at the last step.
// Each step reached is written exactly once and in order, including the starting one.
// The controller's hooks are replaced while Run is active, so a controller owned by
// a session.Hub must not be passed here.
//
// When ctx is cancelled playback is paused and ctx.Err() is returned.
func (r *Runner) Run(ctx context.Context, ctrl *playback.Controller) error {
	handler := r.resolveHandler()
	logger := r.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	if r.Signals {
		signals := NewSignalManager(ctx)
		defer signals.Stop()
		ctx = signals.Context()
	}

	steps := ctrl.Steps()
	if len(steps) == 0 {
		return nil
	}

	updates := make(chan domain.Playback)
	done := make(chan struct{})
	defer close(done)

	prev := ctrl.SetHooks(domain.PlaybackHooks{
		OnTick: func(pb domain.Playback) {
			select {
			case updates <- pb:
			case <-done:
			}
		},
	})
	defer ctrl.SetHooks(prev)

	state := ctrl.State()
	emitted := state.Index
	if err := handler.Output(ctx, render.Render(steps[emitted], state, r.RenderOptions)); err != nil {
		return fmt.Errorf("output error: %w", err)
	}
	if state.Index == state.Last() {
		// Nothing left to play; Play would restart from the first step.
		return handler.SystemOutput(ctx, completeMessage(len(steps)))
	}

	ctrl.Play()
	logger.Debug("runner started", "index", state.Index, "total", state.Total)

	for {
		select {
		case <-ctx.Done():
			ctrl.Pause()
			logger.Debug("runner interrupted", "index", emitted)
			_ = handler.SystemOutput(context.Background(), "interrupted")
			return ctx.Err()

		case pb := <-updates:
			// Timer callbacks may be delivered out of order at very short intervals,
			// so every index up to the reported one is written in sequence.
			for emitted < pb.Index {
				emitted++
				view := render.Render(steps[emitted], pb, r.RenderOptions)
				if emitted < pb.Index {
					view.Controls = render.RenderControls(domain.Playback{
						Index:   emitted,
						Total:   pb.Total,
						Speed:   pb.Speed,
						Playing: true,
						Status:  domain.StatusPlaying,
					})
				}
				if err := handler.Output(ctx, view); err != nil {
					ctrl.Pause()
					return fmt.Errorf("output error: %w", err)
				}
			}
			if pb.Status == domain.StatusComplete && !pb.Playing {
				logger.Debug("runner complete", "steps", len(steps))
				return handler.SystemOutput(ctx, completeMessage(len(steps)))
			}
		}
	}
}

func completeMessage(n int) string {
	if n == 1 {
		return "complete: 1 step"
	}
	return fmt.Sprintf("complete: %d steps", n)
}

// resolveHandler ensures a valid IOHandler is set.
func (r *Runner) resolveHandler() IOHandler {
	if r.Handler != nil {
		return r.Handler
	}
	r.Handler = NewTextHandler(os.Stdout)
	return r.Handler
}
