package stepper

import (
	"fmt"
	"log/slog"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/stepper/internal/logging"
	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/playback"
	"github.com/aretw0/stepper/pkg/render"
	"github.com/aretw0/stepper/pkg/runner"
	"github.com/aretw0/stepper/pkg/scenario"
)

// Engine is the high-level entry point for the Stepper library.
// It ties the step generator, the playback controller and the renderer together
// behind one configuration.
type Engine struct {
	logger    *slog.Logger
	scheduler playback.Scheduler
	interval  time.Duration
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithScheduler sets the timer source used by players (tests use playback.ManualScheduler).
func WithScheduler(s playback.Scheduler) Option {
	return func(e *Engine) {
		e.scheduler = s
	}
}

// WithInterval sets the base tick interval used by players.
func WithInterval(d time.Duration) Option {
	return func(e *Engine) {
		e.interval = d
	}
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger:    logging.NewNop(),
		scheduler: playback.RealScheduler{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Kinds lists the supported scenario kinds with their default parameters.
func (e *Engine) Kinds() []scenario.Info {
	return scenario.Kinds()
}

// Generate returns the step sequence for spec. Malformed parameters fall back to
// their defaults and unknown kinds yield a single unsupported step.
func (e *Engine) Generate(spec domain.ScenarioSpec) []domain.Step {
	steps := scenario.Parse(spec, e.logger)
	e.logger.Debug("steps generated", "kind", spec.Kind, "steps", len(steps))
	return steps
}

// Player generates the steps for spec and returns a controller over them.
// Extra options are applied after the engine defaults.
func (e *Engine) Player(spec domain.ScenarioSpec, opts ...playback.Option) *playback.Controller {
	base := []playback.Option{
		playback.WithScheduler(e.scheduler),
		playback.WithLogger(e.logger),
	}
	if e.interval > 0 {
		base = append(base, playback.WithInterval(e.interval))
	}
	return playback.New(e.Generate(spec), append(base, opts...)...)
}

// Render returns the view of the controller's current step.
func (e *Engine) Render(ctrl *playback.Controller, opts render.Options) render.View {
	step, pb := ctrl.Snapshot()
	return render.Render(step, pb, opts)
}

// Trace renders every step of spec in order, as if it were played to completion.
func (e *Engine) Trace(spec domain.ScenarioSpec, opts render.Options) []render.View {
	steps := e.Generate(spec)
	views := make([]render.View, len(steps))
	for i, step := range steps {
		pb := domain.Playback{
			Index:  i,
			Total:  len(steps),
			Speed:  domain.SpeedNormal,
			Status: domain.StatusPaused,
		}
		if i == len(steps)-1 {
			pb.Status = domain.StatusComplete
		}
		views[i] = render.Render(step, pb, opts)
	}
	return views
}

// ParseSpec reads a scenario from YAML (or JSON, which YAML accepts) and sanitizes
// every string in it.
//
//	kind: if-else
//	params:
//	  value: 75
func ParseSpec(data []byte) (domain.ScenarioSpec, error) {
	var spec domain.ScenarioSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return domain.ScenarioSpec{}, fmt.Errorf("invalid scenario: %w", err)
	}
	if spec.Kind == "" {
		return domain.ScenarioSpec{}, fmt.Errorf("invalid scenario: %w", domain.ErrMissingKind)
	}
	return runner.SanitizeSpec(spec)
}
