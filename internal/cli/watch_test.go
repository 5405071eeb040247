package cli

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/stepper/internal/logging"
	"github.com/aretw0/stepper/pkg/domain"
)

type fakeSource struct {
	mu      sync.Mutex
	lessons map[string]domain.Lesson
	events  chan string
}

func (f *fakeSource) Get(ctx context.Context, id string) (domain.Lesson, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.lessons[id]
	if !ok {
		return domain.Lesson{}, fmt.Errorf("%w: %s", domain.ErrLessonNotFound, id)
	}
	return l, nil
}

func (f *fakeSource) Watch(ctx context.Context) (<-chan string, error) {
	return f.events, nil
}

func (f *fakeSource) set(l domain.Lesson) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lessons[l.ID] = l
}

func TestWatchLesson(t *testing.T) {
	src := &fakeSource{lessons: map[string]domain.Lesson{}, events: make(chan string)}
	shown := make(chan string, 4)
	var out bytes.Buffer

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- WatchLesson(ctx, src, "intro", func(l domain.Lesson) error {
			shown <- l.Title
			return nil
		}, &out, logging.NewNop())
	}()

	// Missing at first; an unrelated change is ignored.
	src.events <- "other"
	src.set(domain.Lesson{ID: "intro", Title: "Intro v1"})
	src.events <- "intro"
	assert.Equal(t, "Intro v1", receive(t, shown))

	src.set(domain.Lesson{ID: "intro", Title: "Intro v2"})
	src.events <- "intro"
	assert.Equal(t, "Intro v2", receive(t, shown))

	cancel()
	require.NoError(t, <-done)
	assert.Contains(t, out.String(), "Lesson 'intro' not found")
	assert.Contains(t, out.String(), "Change detected in 'intro'.")
}

func TestWatchLesson_ClosedEvents(t *testing.T) {
	src := &fakeSource{
		lessons: map[string]domain.Lesson{"intro": {ID: "intro", Title: "Intro"}},
		events:  make(chan string),
	}
	close(src.events)

	calls := 0
	err := WatchLesson(context.Background(), src, "intro", func(domain.Lesson) error {
		calls++
		return nil
	}, &bytes.Buffer{}, logging.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestShowLesson(t *testing.T) {
	var out bytes.Buffer
	lesson := domain.Lesson{ID: "x", Title: "Switch", Notes: "Cases fall through.", Scenario: domain.ScenarioSpec{Kind: domain.KindSwitch}}

	var traced domain.ScenarioSpec
	require.NoError(t, ShowLesson(lesson, func(s domain.ScenarioSpec) error {
		traced = s
		return nil
	}, &out))
	assert.Equal(t, "# Switch\n\nCases fall through.\n\n", out.String())
	assert.Equal(t, domain.KindSwitch, traced.Kind)
}

func receive(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for lesson")
		return ""
	}
}
