package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/playback"
	"github.com/aretw0/stepper/pkg/render"
	"github.com/aretw0/stepper/pkg/scenario"
	"github.com/google/uuid"
)

// ErrSessionExists is returned by Create when the requested ID is taken.
var ErrSessionExists = errors.New("session already exists")

// CreateOptions tune a new session.
type CreateOptions struct {
	// ID is generated when empty.
	ID       string
	Speed    float64
	AutoPlay bool
	Hidden   []string
}

// liveSession is one session with a running controller in this process.
type liveSession struct {
	ctrl *playback.Controller

	mu   sync.Mutex // guards sess
	sess domain.Session
}

// Hub owns the live controllers of this process.
type Hub struct {
	mgr *Manager

	mu       sync.Mutex
	sessions map[string]*liveSession
	closed   bool

	listenersMu     sync.RWMutex
	listeners       map[int]Listener
	deleteListeners map[int]func(id string)
	nextID          int

	observer Observer
	sched    playback.Scheduler
	interval time.Duration
	now      func() time.Time
	newID    func() string
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithScheduler sets the timer source of every controller.
func WithScheduler(s playback.Scheduler) HubOption {
	return func(h *Hub) { h.sched = s }
}

// WithInterval sets the base tick interval of every controller.
func WithInterval(d time.Duration) HubOption {
	return func(h *Hub) { h.interval = d }
}

// WithObserver registers lifecycle callbacks (metrics).
func WithObserver(o Observer) HubOption {
	return func(h *Hub) {
		if o != nil {
			h.observer = o
		}
	}
}

// WithClock replaces time.Now for CreatedAt/UpdatedAt.
func WithClock(now func() time.Time) HubOption {
	return func(h *Hub) { h.now = now }
}

// WithIDGenerator replaces the UUID generator for new session IDs.
func WithIDGenerator(gen func() string) HubOption {
	return func(h *Hub) { h.newID = gen }
}

// NewHub creates a Hub persisting through mgr.
func NewHub(mgr *Manager, opts ...HubOption) *Hub {
	h := &Hub{
		mgr:       mgr,
		sessions:  make(map[string]*liveSession),
		listeners:       make(map[int]Listener),
		deleteListeners: make(map[int]func(string)),
		observer:        nopObserver{},
		sched:           playback.RealScheduler{},
		interval:        playback.DefaultInterval,
		now:             time.Now,
		newID:           uuid.NewString,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscribe registers l and returns a function that removes it.
func (h *Hub) Subscribe(l Listener) (unsubscribe func()) {
	h.listenersMu.Lock()
	defer h.listenersMu.Unlock()
	id := h.nextID
	h.nextID++
	h.listeners[id] = l
	return func() {
		h.listenersMu.Lock()
		defer h.listenersMu.Unlock()
		delete(h.listeners, id)
	}
}

// OnDelete registers fn to run with the ID of every deleted session and returns a
// function that removes it.
func (h *Hub) OnDelete(fn func(id string)) (unsubscribe func()) {
	h.listenersMu.Lock()
	defer h.listenersMu.Unlock()
	id := h.nextID
	h.nextID++
	h.deleteListeners[id] = fn
	return func() {
		h.listenersMu.Lock()
		defer h.listenersMu.Unlock()
		delete(h.deleteListeners, id)
	}
}

func (h *Hub) notifyDelete(id string) {
	h.listenersMu.RLock()
	defer h.listenersMu.RUnlock()
	for _, fn := range h.deleteListeners {
		fn(id)
	}
}

func (h *Hub) notify(sess domain.Session) {
	h.listenersMu.RLock()
	defer h.listenersMu.RUnlock()
	for _, l := range h.listeners {
		l(sess)
	}
}

// generate decodes a spec, builds its steps and returns the normalized spec with them.
func (h *Hub) generate(spec domain.ScenarioSpec) (domain.ScenarioSpec, []domain.Step) {
	sc := scenario.Decode(spec, h.mgr.logger)
	steps := scenario.Generate(sc)
	h.observer.Generated(sc.Kind(), len(steps))
	return scenario.Encode(sc), steps
}

func (h *Hub) newController(id string, steps []domain.Step, speed float64) *playback.Controller {
	return playback.New(steps,
		playback.WithScheduler(h.sched),
		playback.WithInterval(h.interval),
		playback.WithSpeed(speed),
		playback.WithLogger(h.mgr.logger.With("session_id", id)),
		playback.WithHooks(domain.PlaybackHooks{
			OnTick: func(p domain.Playback) { h.onTick(id, p.Status == domain.StatusComplete) },
		}),
	)
}

// snapshot returns the current session with the controller's playback state.
func (l *liveSession) snapshot() domain.Session {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := *l.sess.Clone()
	s.Playback = l.ctrl.State()
	return s
}

// view returns the current step and a session snapshot taken together.
func (l *liveSession) view() (domain.Step, domain.Session) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := *l.sess.Clone()
	var step domain.Step
	step, s.Playback = l.ctrl.Snapshot()
	return step, s
}

func (l *liveSession) touch(now time.Time) {
	l.mu.Lock()
	l.sess.UpdatedAt = now
	l.mu.Unlock()
}

// Create starts a new session.
func (h *Hub) Create(ctx context.Context, spec domain.ScenarioSpec, opts CreateOptions) (domain.Session, error) {
	id := opts.ID
	if id == "" {
		id = h.newID()
	}
	speed := opts.Speed
	if speed == 0 {
		speed = float64(domain.SpeedNormal)
	}

	normalized, steps := h.generate(spec)
	now := h.now()
	l := &liveSession{
		ctrl: h.newController(id, steps, speed),
		sess: domain.Session{
			ID:        id,
			Scenario:  normalized,
			Hidden:    render.ParseHidden(opts.Hidden).Hidden(),
			CreatedAt: now,
			UpdatedAt: now,
		},
	}

	_, created, err := h.mgr.LoadOrCreate(ctx, id, func() *domain.Session {
		s := l.snapshot()
		return &s
	})
	if err != nil {
		l.ctrl.Close()
		return domain.Session{}, err
	}
	if !created {
		l.ctrl.Close()
		return domain.Session{}, fmt.Errorf("%w: %s", ErrSessionExists, id)
	}

	if err := h.register(id, l); err != nil {
		return domain.Session{}, err
	}
	h.observer.SessionOpened(normalized.Kind)
	h.mgr.logger.Info("session created", "session_id", id, "kind", normalized.Kind, "steps", len(steps))

	if opts.AutoPlay {
		return h.Apply(ctx, id, Command{Name: CmdPlay})
	}
	sess := l.snapshot()
	h.notify(sess)
	return sess, nil
}

func (h *Hub) register(id string, l *liveSession) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		l.ctrl.Close()
		return errors.New("session hub is closed")
	}
	if _, ok := h.sessions[id]; ok {
		l.ctrl.Close()
		return fmt.Errorf("%w: %s", ErrSessionExists, id)
	}
	h.sessions[id] = l
	return nil
}

// resolve returns the in-memory session, reviving it from the store when needed.
func (h *Hub) resolve(ctx context.Context, id string) (*liveSession, error) {
	h.mu.Lock()
	l, ok := h.sessions[id]
	closed := h.closed
	h.mu.Unlock()
	if ok {
		return l, nil
	}
	if closed {
		return nil, errors.New("session hub is closed")
	}

	// Revive under the session lock so a concurrent Delete either finishes
	// first (Load fails) or waits until the session is registered.
	var revived *liveSession
	err := h.mgr.WithLock(ctx, id, func(ctx context.Context) error {
		stored, err := h.mgr.store.Load(ctx, id)
		if err != nil {
			return err
		}
		speed := stored.Playback.Speed
		if speed == 0 {
			speed = domain.SpeedNormal
		}
		normalized, steps := h.generate(stored.Scenario)
		l := &liveSession{
			ctrl: h.newController(id, steps, float64(speed)),
			sess: *stored.Clone(),
		}
		l.sess.Scenario = normalized
		l.ctrl.Restore(stored.Playback.Index, speed)

		h.mu.Lock()
		defer h.mu.Unlock()
		if existing, ok := h.sessions[id]; ok {
			// Another goroutine revived it first.
			l.ctrl.Close()
			revived = existing
			return nil
		}
		if h.closed {
			l.ctrl.Close()
			return errors.New("session hub is closed")
		}
		h.sessions[id] = l
		revived = l
		h.observer.SessionOpened(normalized.Kind)
		h.mgr.logger.Debug("session revived", "session_id", id, "index", stored.Playback.Index)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return revived, nil
}

// live reports whether l is still the registered session for id. Callers hold
// the manager lock for id, so a Delete cannot complete in between.
func (h *Hub) live(id string, l *liveSession) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sessions[id] == l
}

// Get returns the current state of a session.
func (h *Hub) Get(ctx context.Context, id string) (domain.Session, error) {
	l, err := h.resolve(ctx, id)
	if err != nil {
		return domain.Session{}, err
	}
	return l.snapshot(), nil
}

// Apply runs a playback command and persists the result.
func (h *Hub) Apply(ctx context.Context, id string, cmd Command) (domain.Session, error) {
	name, err := ParseCommand(cmd.Name)
	if err != nil {
		return domain.Session{}, err
	}
	l, err := h.resolve(ctx, id)
	if err != nil {
		return domain.Session{}, err
	}
	return h.apply(ctx, id, l, name, cmd)
}

// apply runs a command against a resolved session. It fails with
// domain.ErrSessionNotFound when the session was deleted after resolve.
func (h *Hub) apply(ctx context.Context, id string, l *liveSession, name string, cmd Command) (domain.Session, error) {
	var sess domain.Session
	err := h.mgr.WithLock(ctx, id, func(ctx context.Context) error {
		if !h.live(id, l) {
			return domain.ErrSessionNotFound
		}
		switch name {
		case CmdPlay:
			l.ctrl.Play()
		case CmdPause:
			l.ctrl.Pause()
		case CmdStep:
			l.ctrl.StepForward()
		case CmdBack:
			l.ctrl.StepBackward()
		case CmdReset:
			l.ctrl.Reset()
		case CmdJump:
			l.ctrl.JumpTo(cmd.Index)
		case CmdSpeed:
			l.ctrl.SetSpeed(cmd.Speed)
		}
		l.touch(h.now())
		sess = l.snapshot()
		return h.mgr.store.Save(ctx, id, &sess)
	})
	if errors.Is(err, domain.ErrSessionNotFound) {
		return domain.Session{}, err
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("failed to persist %s: %w", name, err)
	}

	h.observer.Command(domain.CommandEvent{
		Timestamp: sess.UpdatedAt,
		SessionID: id,
		Command:   name,
		Kind:      sess.Scenario.Kind,
	})
	h.notify(sess)
	return sess, nil
}

// SetScenario replaces the scenario of a session. Playback resets to the first step.
func (h *Hub) SetScenario(ctx context.Context, id string, spec domain.ScenarioSpec) (domain.Session, error) {
	l, err := h.resolve(ctx, id)
	if err != nil {
		return domain.Session{}, err
	}
	normalized, steps := h.generate(spec)

	var sess domain.Session
	err = h.mgr.WithLock(ctx, id, func(ctx context.Context) error {
		if !h.live(id, l) {
			return domain.ErrSessionNotFound
		}
		l.ctrl.Load(steps)
		l.mu.Lock()
		l.sess.Scenario = normalized
		l.sess.UpdatedAt = h.now()
		l.mu.Unlock()
		sess = l.snapshot()
		return h.mgr.store.Save(ctx, id, &sess)
	})
	if errors.Is(err, domain.ErrSessionNotFound) {
		return domain.Session{}, err
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("failed to persist scenario: %w", err)
	}
	h.notify(sess)
	return sess, nil
}

// SetHidden replaces the hidden panel list of a session.
func (h *Hub) SetHidden(ctx context.Context, id string, hidden []string) (domain.Session, error) {
	l, err := h.resolve(ctx, id)
	if err != nil {
		return domain.Session{}, err
	}
	var sess domain.Session
	err = h.mgr.WithLock(ctx, id, func(ctx context.Context) error {
		if !h.live(id, l) {
			return domain.ErrSessionNotFound
		}
		l.mu.Lock()
		l.sess.Hidden = render.ParseHidden(hidden).Hidden()
		l.sess.UpdatedAt = h.now()
		l.mu.Unlock()
		sess = l.snapshot()
		return h.mgr.store.Save(ctx, id, &sess)
	})
	if err != nil {
		return domain.Session{}, err
	}
	h.notify(sess)
	return sess, nil
}

// View renders the current step of a session with its panel settings.
func (h *Hub) View(ctx context.Context, id string) (render.View, error) {
	l, err := h.resolve(ctx, id)
	if err != nil {
		return render.View{}, err
	}
	step, sess := l.view()
	return render.Render(step, sess.Playback, render.ParseHidden(sess.Hidden)), nil
}

// Steps returns the full step sequence of a session.
func (h *Hub) Steps(ctx context.Context, id string) ([]domain.Step, error) {
	l, err := h.resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	return l.ctrl.Steps(), nil
}

// Delete stops and removes a session. The map entry and the stored copy go
// under the session lock so an in-flight command or tick cannot save it back.
func (h *Hub) Delete(ctx context.Context, id string) error {
	var (
		l  *liveSession
		ok bool
	)
	err := h.mgr.WithLock(ctx, id, func(ctx context.Context) error {
		h.mu.Lock()
		l, ok = h.sessions[id]
		delete(h.sessions, id)
		h.mu.Unlock()
		if ok {
			l.ctrl.Close()
		}
		return h.mgr.store.Delete(ctx, id)
	})
	if ok {
		h.observer.SessionClosed(l.snapshot().Scenario.Kind)
	}
	if err != nil {
		return err
	}
	h.notifyDelete(id)
	h.mgr.logger.Info("session deleted", "session_id", id)
	return nil
}

// List returns the IDs of every stored session.
func (h *Hub) List(ctx context.Context) ([]string, error) {
	return h.mgr.List(ctx)
}

// Active returns the number of sessions live in this process.
func (h *Hub) Active() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// Close stops every live controller. Stored sessions are kept.
func (h *Hub) Close() {
	h.mu.Lock()
	sessions := h.sessions
	h.sessions = make(map[string]*liveSession)
	h.closed = true
	h.mu.Unlock()

	for _, l := range sessions {
		l.ctrl.Close()
		h.observer.SessionClosed(l.snapshot().Scenario.Kind)
	}
}

// onTick persists a timer-driven change. It runs on the timer goroutine after the
// controller has released its lock.
func (h *Hub) onTick(id string, completed bool) {
	h.mu.Lock()
	l, ok := h.sessions[id]
	h.mu.Unlock()
	if !ok {
		return
	}
	h.persistTick(id, l, completed)
}

func (h *Hub) persistTick(id string, l *liveSession, completed bool) {
	ctx := context.Background()
	var sess domain.Session
	err := h.mgr.WithLock(ctx, id, func(ctx context.Context) error {
		if !h.live(id, l) {
			return domain.ErrSessionNotFound
		}
		l.touch(h.now())
		// Save whatever the controller holds now; a command may have landed since the tick.
		sess = l.snapshot()
		return h.mgr.store.Save(ctx, id, &sess)
	})
	if errors.Is(err, domain.ErrSessionNotFound) {
		h.mgr.logger.Debug("tick after delete dropped", "session_id", id)
		return
	}
	if err != nil {
		h.mgr.logger.Error("failed to persist tick", "session_id", id, "err", err)
		return
	}

	h.observer.Tick(sess)
	if completed {
		h.observer.Completed(sess)
		h.mgr.logger.Debug("session playback complete", "session_id", id)
	}
	h.notify(sess)
}
