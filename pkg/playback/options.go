package playback

import (
	"log/slog"
	"time"

	"github.com/aretw0/stepper/pkg/domain"
)

// DefaultInterval is the base tick interval at 1x speed.
const DefaultInterval = time.Second

// Option configures a Controller.
type Option func(*Controller)

// WithScheduler replaces the wall-clock scheduler.
func WithScheduler(s Scheduler) Option {
	return func(c *Controller) {
		if s != nil {
			c.sched = s
		}
	}
}

// WithInterval sets the base tick interval. Non-positive values are ignored.
func WithInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithSpeed sets the initial speed, snapped to the nearest supported multiplier.
func WithSpeed(m float64) Option {
	return func(c *Controller) {
		c.state.Speed = domain.NearestSpeed(m)
	}
}

// WithHooks registers callbacks for timer-driven changes.
func WithHooks(h domain.PlaybackHooks) Option {
	return func(c *Controller) {
		c.hooks = h
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithAutoPlay starts playback as soon as the controller is created.
func WithAutoPlay(enabled bool) Option {
	return func(c *Controller) {
		c.autoPlay = enabled
	}
}
