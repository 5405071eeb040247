package playback

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/stepper/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeSteps(n int) []domain.Step {
	steps := make([]domain.Step, n)
	for i := range steps {
		steps[i] = domain.Step{
			Index:       i,
			Description: fmt.Sprintf("step %d", i),
			Snapshot: domain.Snapshot{
				Variables: map[string]string{"i": fmt.Sprint(i)},
				Output:    []string{},
				Phase:     domain.PhaseInit,
			},
		}
	}
	return steps
}

func newManual(n int, opts ...Option) (*Controller, *ManualScheduler) {
	sched := NewManualScheduler()
	opts = append([]Option{WithScheduler(sched)}, opts...)
	return New(makeSteps(n), opts...), sched
}

func TestController_InitialState(t *testing.T) {
	c, sched := newManual(4)
	assert.Equal(t, domain.Playback{Index: 0, Total: 4, Speed: domain.SpeedNormal, Status: domain.StatusIdle}, c.State())
	assert.Equal(t, 0, sched.Pending())
	assert.Equal(t, "step 0", c.Current().Description)
}

func TestController_PlayAdvancesPerTick(t *testing.T) {
	c, sched := newManual(3)
	c.Play()
	assert.Equal(t, domain.StatusPlaying, c.State().Status)
	require.Equal(t, 1, sched.Pending())

	require.True(t, sched.Fire())
	assert.Equal(t, 1, c.State().Index)
	assert.True(t, c.State().Playing)

	require.True(t, sched.Fire())
	assert.Equal(t, 2, c.State().Index)
	assert.True(t, c.State().Playing, "reaching the last step does not stop until the next tick")
	assert.Equal(t, domain.StatusPlaying, c.State().Status)
}

func TestController_TerminalAutoStop(t *testing.T) {
	var completed []domain.Playback
	var ticks int
	c, sched := newManual(3, WithHooks(domain.PlaybackHooks{
		OnTick:     func(domain.Playback) { ticks++ },
		OnComplete: func(p domain.Playback) { completed = append(completed, p) },
	}))

	c.Play()
	sched.FireN(2)
	require.Equal(t, 2, c.State().Index)

	require.True(t, sched.Fire())
	st := c.State()
	assert.False(t, st.Playing)
	assert.Equal(t, domain.StatusComplete, st.Status)
	assert.Equal(t, 2, st.Index)
	assert.Equal(t, 0, sched.Pending(), "timer released on completion")
	assert.Equal(t, 3, ticks)
	require.Len(t, completed, 1)
	assert.Equal(t, domain.StatusComplete, completed[0].Status)

	assert.False(t, sched.Fire())
	assert.Equal(t, 2, c.State().Index)
}

func TestController_PlayAtEndRestarts(t *testing.T) {
	c, sched := newManual(3)
	c.JumpTo(2)
	require.Equal(t, domain.StatusComplete, c.State().Status)

	c.Play()
	assert.Equal(t, 0, c.State().Index)
	assert.True(t, c.State().Playing)
	sched.Fire()
	assert.Equal(t, 1, c.State().Index)
}

func TestController_PauseKeepsIndex(t *testing.T) {
	c, sched := newManual(5)
	c.Play()
	sched.FireN(2)
	c.Pause()

	st := c.State()
	assert.Equal(t, 2, st.Index)
	assert.False(t, st.Playing)
	assert.Equal(t, domain.StatusPaused, st.Status)
	assert.Equal(t, 0, sched.Pending())

	t.Run("Pause When Idle Is A No-op", func(t *testing.T) {
		c, _ := newManual(2)
		c.Pause()
		assert.Equal(t, domain.StatusIdle, c.State().Status)
	})
}

func TestController_Bounds(t *testing.T) {
	tests := []struct {
		name      string
		op        func(c *Controller)
		wantIndex int
		wantState domain.Status
	}{
		{"Jump Negative", func(c *Controller) { c.JumpTo(-5) }, 0, domain.StatusPaused},
		{"Jump Past End", func(c *Controller) { c.JumpTo(99) }, 3, domain.StatusComplete},
		{"Jump Middle", func(c *Controller) { c.JumpTo(2) }, 2, domain.StatusPaused},
		{"Back At Start", func(c *Controller) { c.StepBackward() }, 0, domain.StatusPaused},
		{"Forward Past End", func(c *Controller) {
			for i := 0; i < 10; i++ {
				c.StepForward()
			}
		}, 3, domain.StatusComplete},
		{"Forward Once", func(c *Controller) { c.StepForward() }, 1, domain.StatusPaused},
		{"Back From Middle", func(c *Controller) { c.JumpTo(2); c.StepBackward() }, 1, domain.StatusPaused},
		{"Reset", func(c *Controller) { c.JumpTo(3); c.Reset() }, 0, domain.StatusIdle},
		{"Restore", func(c *Controller) { c.Restore(7, domain.SpeedDouble) }, 3, domain.StatusComplete},
		{"Restore Start", func(c *Controller) { c.Restore(0, domain.SpeedNormal) }, 0, domain.StatusIdle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newManual(4)
			tt.op(c)
			st := c.State()
			assert.Equal(t, tt.wantIndex, st.Index)
			assert.Equal(t, tt.wantState, st.Status)
			assert.GreaterOrEqual(t, st.Index, 0)
			assert.Less(t, st.Index, st.Total)
			assert.False(t, st.Playing)
		})
	}
}

func TestController_ManualOpsStopTimer(t *testing.T) {
	ops := map[string]func(c *Controller){
		"StepForward":  func(c *Controller) { c.StepForward() },
		"StepBackward": func(c *Controller) { c.StepBackward() },
		"JumpTo":       func(c *Controller) { c.JumpTo(1) },
		"Reset":        func(c *Controller) { c.Reset() },
		"Load":         func(c *Controller) { c.Load(makeSteps(2)) },
		"Close":        func(c *Controller) { c.Close() },
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			c, sched := newManual(5)
			c.Play()
			sched.Fire()
			op(c)
			assert.False(t, c.State().Playing)
			assert.Equal(t, 0, sched.Pending())
		})
	}
}

func TestController_StaleTickIgnored(t *testing.T) {
	c, sched := newManual(5)
	c.Play()

	c.mu.Lock()
	stale := c.gen
	c.mu.Unlock()

	c.Pause()
	c.Play()
	before := c.State()

	// A tick that was already in flight when Pause ran.
	c.tick(stale)
	assert.Equal(t, before, c.State())

	require.True(t, sched.Fire())
	assert.Equal(t, 1, c.State().Index)
}

func TestController_SpeedAffectsNextTickOnly(t *testing.T) {
	c, sched := newManual(5, WithInterval(time.Second))
	c.Play()
	assert.Equal(t, []time.Duration{time.Second}, sched.Delays())

	applied := c.SetSpeed(2)
	assert.Equal(t, domain.SpeedDouble, applied)
	assert.Equal(t, 1, sched.Pending(), "pending tick is not rescheduled")
	assert.Len(t, sched.Delays(), 1)

	sched.Fire()
	assert.Equal(t, []time.Duration{time.Second, 500 * time.Millisecond}, sched.Delays())

	c.SetSpeed(0.5)
	sched.Fire()
	assert.Equal(t, 2*time.Second, sched.Delays()[2])
}

func TestController_SetSpeedSnaps(t *testing.T) {
	c, _ := newManual(2)
	assert.Equal(t, domain.SpeedDouble, c.SetSpeed(3))
	assert.Equal(t, domain.SpeedHalf, c.SetSpeed(0.1))
	assert.Equal(t, domain.SpeedNormal, c.SetSpeed(1.1))
	assert.Equal(t, domain.SpeedNormal, c.State().Speed)
}

func TestController_LoadResets(t *testing.T) {
	c, sched := newManual(5, WithSpeed(2))
	c.Play()
	sched.FireN(3)

	c.Load(makeSteps(2))
	st := c.State()
	assert.Equal(t, 0, st.Index)
	assert.Equal(t, 2, st.Total)
	assert.False(t, st.Playing)
	assert.Equal(t, domain.StatusIdle, st.Status)
	assert.Equal(t, domain.SpeedDouble, st.Speed)
	assert.Equal(t, 0, sched.Pending())
}

func TestController_ClosedIsInert(t *testing.T) {
	c, sched := newManual(3)
	c.Close()
	c.Play()
	c.StepForward()
	c.JumpTo(2)
	assert.Equal(t, 0, c.State().Index)
	assert.Equal(t, 0, sched.Pending())
}

func TestController_AutoPlay(t *testing.T) {
	c, sched := newManual(3, WithAutoPlay(true))
	assert.True(t, c.State().Playing)
	assert.Equal(t, 1, sched.Pending())
}

func TestController_Empty(t *testing.T) {
	c, sched := newManual(0)
	c.Play()
	c.StepForward()
	c.JumpTo(3)
	assert.Equal(t, domain.Playback{Speed: domain.SpeedNormal, Status: domain.StatusIdle}, c.State())
	assert.Equal(t, 0, sched.Pending())
	assert.Equal(t, domain.Step{}, c.Current())
}

func TestController_Snapshot(t *testing.T) {
	c, sched := newManual(3)
	c.Play()
	sched.Fire()

	step, pb := c.Snapshot()
	assert.Equal(t, 1, pb.Index)
	assert.Equal(t, pb.Index, step.Index)
	assert.True(t, pb.Playing)

	step.Snapshot.Variables["i"] = "changed"
	assert.Equal(t, "1", c.Current().Snapshot.Variables["i"])

	empty, _ := newManual(0)
	step, pb = empty.Snapshot()
	assert.Equal(t, domain.Step{}, step)
	assert.Equal(t, 0, pb.Total)
}

func TestController_ReturnsCopies(t *testing.T) {
	c, _ := newManual(2)
	cur := c.Current()
	cur.Snapshot.Variables["i"] = "changed"
	steps := c.Steps()
	steps[0].Description = "changed"

	assert.Equal(t, "0", c.Current().Snapshot.Variables["i"])
	assert.Equal(t, "step 0", c.Steps()[0].Description)
}

func TestController_HookMayCallBack(t *testing.T) {
	var c *Controller
	sched := NewManualScheduler()
	c = New(makeSteps(3), WithScheduler(sched), WithHooks(domain.PlaybackHooks{
		OnTick: func(p domain.Playback) {
			// Would deadlock if hooks ran under the controller lock.
			if p.Index == 1 {
				c.Pause()
			}
		},
	}))
	c.Play()
	sched.Fire()
	assert.Equal(t, domain.StatusPaused, c.State().Status)
	assert.Equal(t, 0, sched.Pending())
}

func TestController_RealScheduler(t *testing.T) {
	done := make(chan domain.Playback, 1)
	c := New(makeSteps(3), WithInterval(time.Millisecond), WithHooks(domain.PlaybackHooks{
		OnComplete: func(p domain.Playback) { done <- p },
	}))
	defer c.Close()
	c.Play()

	select {
	case p := <-done:
		assert.Equal(t, 2, p.Index)
		assert.Equal(t, domain.StatusComplete, p.Status)
	case <-time.After(2 * time.Second):
		t.Fatal("playback did not complete")
	}
}

func TestController_ConcurrentUse(t *testing.T) {
	c := New(makeSteps(20), WithInterval(time.Microsecond))
	defer c.Close()

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				switch (i + w) % 5 {
				case 0:
					c.Play()
				case 1:
					c.Pause()
				case 2:
					c.StepForward()
				case 3:
					c.JumpTo(i)
				case 4:
					c.SetSpeed(float64(i % 3))
				}
				st := c.State()
				assert.True(t, st.Index >= 0 && st.Index < st.Total)
			}
		}(w)
	}
	wg.Wait()
}
