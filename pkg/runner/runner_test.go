package runner_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/playback"
	"github.com/aretw0/stepper/pkg/render"
	"github.com/aretw0/stepper/pkg/runner"
	"github.com/aretw0/stepper/pkg/scenario"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) (views []render.View, system []string) {
	t.Helper()
	sc := bufio.NewScanner(buf)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		var msg runner.SystemMessage
		if err := json.Unmarshal(line, &msg); err == nil && msg.System != "" {
			system = append(system, msg.System)
			continue
		}
		var v render.View
		require.NoError(t, json.Unmarshal(line, &v))
		views = append(views, v)
	}
	return views, system
}

func TestRunner_PlaysToCompletion(t *testing.T) {
	steps := scenario.Generate(scenario.Default(domain.KindIfElse))
	sched := playback.NewManualScheduler()
	ctrl := playback.New(steps, playback.WithScheduler(sched))

	buf := &bytes.Buffer{}
	r := runner.NewRunner(runner.WithInputHandler(runner.NewJSONHandler(buf)))

	errCh := make(chan error, 1)
	go func() { errCh <- r.Run(context.Background(), ctrl) }()

	require.Eventually(t, func() bool { return sched.Pending() > 0 }, time.Second, time.Millisecond)
	for sched.Fire() {
	}

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("runner did not return")
	}

	views, system := decodeLines(t, buf)
	require.Len(t, views, len(steps))
	for i, v := range views {
		assert.Equal(t, i, v.Frame.Index)
		assert.Equal(t, steps[i].Description, v.Frame.Description)
	}
	assert.Equal(t, []string{"complete: 6 steps"}, system)

	st := ctrl.State()
	assert.False(t, st.Playing)
	assert.Equal(t, domain.StatusComplete, st.Status)
}

func TestRunner_RealTimer(t *testing.T) {
	steps := scenario.Generate(scenario.Default(domain.KindEventLoop))
	ctrl := playback.New(steps, playback.WithInterval(time.Millisecond), playback.WithSpeed(2))
	defer ctrl.Close()

	buf := &bytes.Buffer{}
	r := runner.NewRunner(runner.WithInputHandler(runner.NewJSONHandler(buf)))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, r.Run(ctx, ctrl))

	views, _ := decodeLines(t, buf)
	require.Len(t, views, len(steps))
	for i, v := range views {
		assert.Equal(t, i, v.Frame.Index, "frames are written in order")
	}
}

func TestRunner_Cancel(t *testing.T) {
	steps := scenario.Generate(scenario.Default(domain.KindSequential))
	sched := playback.NewManualScheduler()
	ctrl := playback.New(steps, playback.WithScheduler(sched))

	buf := &bytes.Buffer{}
	r := runner.NewRunner(runner.WithInputHandler(runner.NewTextHandler(buf)))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- r.Run(ctx, ctrl) }()

	require.Eventually(t, func() bool { return sched.Pending() > 0 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("runner did not return")
	}

	assert.False(t, ctrl.State().Playing)
	assert.Equal(t, 0, sched.Pending(), "timer released on cancel")
	assert.Contains(t, buf.String(), "[System] interrupted")
}

func TestRunner_SingleStep(t *testing.T) {
	ctrl := playback.New(scenario.Generate(scenario.Unknown{Name: "regex"}))

	buf := &bytes.Buffer{}
	r := runner.NewRunner(runner.WithInputHandler(runner.NewJSONHandler(buf)))
	require.NoError(t, r.Run(context.Background(), ctrl))

	views, system := decodeLines(t, buf)
	require.Len(t, views, 1)
	assert.Equal(t, domain.PhaseComplete, views[0].Frame.Phase)
	assert.Equal(t, []string{"complete: 1 step"}, system)
	assert.False(t, ctrl.State().Playing)
}

func TestRunner_HidesPanels(t *testing.T) {
	ctrl := playback.New(scenario.Generate(scenario.Unknown{Name: "regex"}))

	buf := &bytes.Buffer{}
	r := runner.NewRunner(
		runner.WithInputHandler(runner.NewJSONHandler(buf)),
		runner.WithRenderOptions(render.Options{HideVariables: true, HideOutput: true}),
	)
	require.NoError(t, r.Run(context.Background(), ctrl))

	line := strings.SplitN(buf.String(), "\n", 2)[0]
	var v render.View
	require.NoError(t, json.Unmarshal([]byte(line), &v))
	assert.Empty(t, v.Frame.Variables)
	assert.Empty(t, v.Frame.Output)
}
