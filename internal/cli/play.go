package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aretw0/stepper"
	"github.com/aretw0/stepper/internal/config"
	"github.com/aretw0/stepper/internal/presentation/tui"
	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/playback"
	"github.com/aretw0/stepper/pkg/render"
	"github.com/aretw0/stepper/pkg/runner"
)

// PlayOptions contains all the configuration for the play command.
type PlayOptions struct {
	Spec     domain.ScenarioSpec
	Title    string
	Interval time.Duration
	Speed    float64
	Headless bool
	JSON     bool
	AutoPlay bool
	Format   runner.Format
	Hide     []string
	Style    string
	Debug    bool
	Log      config.LogConfig

	// Resume positions the player at a persisted index and speed before it starts.
	Resume *domain.Playback

	// Scheduler overrides the wall clock (tests).
	Scheduler playback.Scheduler
}

// Streams are the process IO handles.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// Play runs a scenario either headless (every frame written once, in order) or in
// the interactive terminal player. It returns the playback state at exit.
func Play(ctx context.Context, opts PlayOptions, streams Streams) (domain.Playback, error) {
	interactive := !opts.Headless && !opts.JSON
	logger := NewLogger(opts.Log, opts.Debug, interactive)

	engineOpts := []stepper.Option{
		stepper.WithLogger(logger),
		stepper.WithInterval(opts.Interval),
	}
	if opts.Scheduler != nil {
		engineOpts = append(engineOpts, stepper.WithScheduler(opts.Scheduler))
	}
	eng := stepper.New(engineOpts...)

	var ctrlOpts []playback.Option
	if opts.Speed > 0 {
		ctrlOpts = append(ctrlOpts, playback.WithSpeed(opts.Speed))
	}
	ctrl := eng.Player(opts.Spec, ctrlOpts...)
	defer ctrl.Close()

	if opts.Resume != nil {
		ctrl.Restore(opts.Resume.Index, opts.Resume.Speed)
		logger.Info("Session resumed", "index", opts.Resume.Index, "speed", opts.Resume.Speed)
	}

	renderOpts := render.ParseHidden(opts.Hide)

	var err error
	if interactive {
		tui.PrintBanner(streams.Out, stepper.Version)
		player := tui.NewPlayer(streams.In, streams.Out,
			tui.WithPlayerRenderer(tui.NewRenderer(opts.Style, 0)),
			tui.WithPlayerOptions(renderOpts),
			tui.WithTitle(opts.Title),
			tui.WithPlayerLogger(logger),
		)
		if opts.AutoPlay {
			ctrl.Play()
		}
		err = player.Run(ctx, ctrl)
	} else {
		var handler runner.IOHandler
		if opts.JSON {
			handler = runner.NewJSONHandler(streams.Out)
		} else {
			handler = runner.NewTextHandler(streams.Out, runner.WithFormat(opts.Format))
		}
		r := runner.NewRunner(
			runner.WithLogger(logger),
			runner.WithInputHandler(handler),
			runner.WithRenderOptions(renderOpts),
		)
		err = r.Run(ctx, ctrl)
	}

	pb := ctrl.State()
	if err != nil && !isInterrupted(err) {
		return pb, fmt.Errorf("playback failed: %w", err)
	}
	return pb, err
}

// Trace writes every frame of a scenario without timers, in the given format.
func Trace(eng *stepper.Engine, spec domain.ScenarioSpec, hide []string, format runner.Format, jsonMode bool, w io.Writer) error {
	views := eng.Trace(spec, render.ParseHidden(hide))

	var handler runner.IOHandler = runner.NewTextHandler(w, runner.WithFormat(format))
	if jsonMode {
		handler = runner.NewJSONHandler(w)
	}

	ctx := context.Background()
	for _, v := range views {
		if err := handler.Output(ctx, v); err != nil {
			return err
		}
	}
	if jsonMode {
		return nil
	}
	return handler.SystemOutput(ctx, fmt.Sprintf("%d steps", len(views)))
}
