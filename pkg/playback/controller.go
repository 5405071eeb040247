package playback

import (
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/stepper/internal/logging"
	"github.com/aretw0/stepper/pkg/domain"
)

// Controller plays back one step sequence. It is safe for concurrent use by the
// timer goroutine and any number of callers.
type Controller struct {
	mu       sync.Mutex
	steps    []domain.Step
	state    domain.Playback
	interval time.Duration
	sched    Scheduler
	timer    Timer
	// gen identifies the currently scheduled tick; any transition that releases
	// the timer bumps it so a tick already in flight becomes a no-op.
	gen      uint64
	hooks    domain.PlaybackHooks
	logger   *slog.Logger
	autoPlay bool
	closed   bool
}

// New creates a controller positioned at the first step.
func New(steps []domain.Step, opts ...Option) *Controller {
	c := &Controller{
		steps:    domain.CloneSteps(steps),
		interval: DefaultInterval,
		sched:    RealScheduler{},
		logger:   logging.NewNop(),
		state: domain.Playback{
			Total:  len(steps),
			Speed:  domain.SpeedNormal,
			Status: domain.StatusIdle,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.autoPlay {
		c.Play()
	}
	return c
}

// Play starts or resumes playback. At the last step it restarts from the first.
func (c *Controller) Play() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.state.Total == 0 || c.state.Playing {
		return
	}
	if c.state.Index == c.state.Last() {
		c.state.Index = 0
	}
	c.state.Playing = true
	c.state.Status = domain.StatusPlaying
	c.schedule()
	c.logger.Debug("playback started", "index", c.state.Index, "speed", c.state.Speed)
}

// Pause stops the timer and keeps the index.
func (c *Controller) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || !c.state.Playing {
		return
	}
	c.stop()
	c.state.Status = domain.StatusPaused
	c.logger.Debug("playback paused", "index", c.state.Index)
}

// StepForward stops playback and advances one step, clamped to the last.
func (c *Controller) StepForward() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.state.Total == 0 {
		return
	}
	c.stop()
	c.moveTo(c.state.Index + 1)
}

// StepBackward stops playback and moves back one step, clamped to the first.
func (c *Controller) StepBackward() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.state.Total == 0 {
		return
	}
	c.stop()
	c.moveTo(c.state.Index - 1)
}

// JumpTo stops playback and moves to index i, clamped to the valid range.
func (c *Controller) JumpTo(i int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.state.Total == 0 {
		return
	}
	c.stop()
	c.moveTo(i)
}

// Reset stops playback and returns to the first step.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.stop()
	c.state.Index = 0
	c.state.Status = domain.StatusIdle
}

// SetSpeed changes the multiplier used for the next scheduled tick. A tick that is
// already pending keeps its original delay. It returns the speed actually applied.
func (c *Controller) SetSpeed(m float64) domain.Speed {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := domain.NearestSpeed(m)
	if float64(s) != m {
		c.logger.Debug("unsupported speed, snapped", "requested", m, "speed", s)
	}
	if !c.closed {
		c.state.Speed = s
	}
	return c.state.Speed
}

// Load replaces the step sequence (a scenario change). Playback stops and the
// index returns to 0; speed is kept.
func (c *Controller) Load(steps []domain.Step) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.stop()
	c.steps = domain.CloneSteps(steps)
	c.state.Total = len(steps)
	c.state.Index = 0
	c.state.Status = domain.StatusIdle
}

// Restore positions a stopped controller at a previously persisted index and speed.
func (c *Controller) Restore(index int, speed domain.Speed) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.stop()
	c.state.Speed = domain.NearestSpeed(float64(speed))
	if c.state.Total == 0 {
		return
	}
	c.moveTo(index)
	if c.state.Index == 0 {
		c.state.Status = domain.StatusIdle
	}
}

// State returns a copy of the playback state.
func (c *Controller) State() domain.Playback {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Current returns a copy of the step at the current index.
func (c *Controller) Current() domain.Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Total == 0 {
		return domain.Step{}
	}
	return c.steps[c.state.Index].Clone()
}

// Snapshot returns the current step and the playback state read under one lock,
// so both describe the same index.
func (c *Controller) Snapshot() (domain.Step, domain.Playback) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Total == 0 {
		return domain.Step{}, c.state
	}
	return c.steps[c.state.Index].Clone(), c.state
}

// Steps returns a copy of the whole sequence.
func (c *Controller) Steps() []domain.Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.CloneSteps(c.steps)
}

// Close releases the timer. Every later operation is a no-op.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.stop()
	if c.state.Status == domain.StatusPlaying {
		c.state.Status = domain.StatusPaused
	}
	c.closed = true
}

// SetHooks replaces the timer callbacks and returns the previous ones.
func (c *Controller) SetHooks(h domain.PlaybackHooks) domain.PlaybackHooks {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.hooks
	c.hooks = h
	return prev
}

// Interval returns the delay the next tick would be scheduled with.
func (c *Controller) Interval() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.delay()
}

func (c *Controller) delay() time.Duration {
	return time.Duration(float64(c.interval) / float64(c.state.Speed))
}

// schedule acquires the timer for the next tick. Caller holds mu.
func (c *Controller) schedule() {
	c.gen++
	gen := c.gen
	c.timer = c.sched.AfterFunc(c.delay(), func() { c.tick(gen) })
}

// stop releases the timer and clears the playing flag. Caller holds mu.
func (c *Controller) stop() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.gen++
	c.state.Playing = false
}

// moveTo sets a clamped index on a stopped controller. Caller holds mu.
func (c *Controller) moveTo(i int) {
	if i < 0 {
		i = 0
	}
	if last := c.state.Last(); i > last {
		i = last
	}
	c.state.Index = i
	if i == c.state.Last() {
		c.state.Status = domain.StatusComplete
	} else {
		c.state.Status = domain.StatusPaused
	}
}

func (c *Controller) tick(gen uint64) {
	c.mu.Lock()
	if c.closed || gen != c.gen || !c.state.Playing {
		c.mu.Unlock()
		return
	}
	c.timer = nil

	completed := false
	if c.state.Index < c.state.Last() {
		c.state.Index++
		c.schedule()
	} else {
		c.state.Playing = false
		c.state.Status = domain.StatusComplete
		c.gen++
		completed = true
	}
	snap := c.state
	hooks := c.hooks
	c.mu.Unlock()

	if completed {
		c.logger.Debug("playback complete", "index", snap.Index)
	}
	if hooks.OnTick != nil {
		hooks.OnTick(snap)
	}
	if completed && hooks.OnComplete != nil {
		hooks.OnComplete(snap)
	}
}
