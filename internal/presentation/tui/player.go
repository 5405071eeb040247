package tui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/aretw0/stepper/internal/logging"
	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/playback"
	"github.com/aretw0/stepper/pkg/render"
	"github.com/aretw0/stepper/pkg/runner"
)

// Player is the interactive terminal player. It redraws the current frame after
// every key press and every timer tick.
type Player struct {
	In       io.Reader
	Out      io.Writer
	Renderer runner.ContentRenderer
	Options  render.Options
	Title    string
	Logger   *slog.Logger

	output *termenv.Output
	raw    bool
}

// PlayerOption configures a Player.
type PlayerOption func(*Player)

// WithPlayerRenderer sets the markdown renderer (usually NewRenderer).
func WithPlayerRenderer(r runner.ContentRenderer) PlayerOption {
	return func(p *Player) { p.Renderer = r }
}

// WithPlayerOptions sets panel visibility.
func WithPlayerOptions(opts render.Options) PlayerOption {
	return func(p *Player) { p.Options = opts }
}

// WithTitle sets the heading shown above every frame.
func WithTitle(title string) PlayerOption {
	return func(p *Player) { p.Title = title }
}

// WithPlayerLogger sets the logger.
func WithPlayerLogger(logger *slog.Logger) PlayerOption {
	return func(p *Player) { p.Logger = logger }
}

// NewPlayer creates a player reading keys from in and drawing to out.
func NewPlayer(in io.Reader, out io.Writer, opts ...PlayerOption) *Player {
	p := &Player{
		In:     in,
		Out:    out,
		Logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.output = termenv.NewOutput(out)
	return p
}

// Run drives ctrl from the keyboard until q, end of input or ctx is done.
// When In is a terminal it is switched to raw mode and restored on return.
func (p *Player) Run(ctx context.Context, ctrl *playback.Controller) error {
	redraw := make(chan struct{}, 1)
	prev := ctrl.SetHooks(domain.PlaybackHooks{
		OnTick: func(domain.Playback) {
			select {
			case redraw <- struct{}{}:
			default:
			}
		},
	})
	defer ctrl.SetHooks(prev)
	defer ctrl.Pause()

	if f, ok := p.In.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd := int(f.Fd())
		state, err := term.MakeRaw(fd)
		if err != nil {
			return fmt.Errorf("failed to enter raw mode: %w", err)
		}
		p.raw = true
		defer func() {
			_ = term.Restore(fd, state)
			p.raw = false
		}()
	}

	done := make(chan struct{})
	defer close(done)
	keys := readKeys(p.In, done)

	if err := p.draw(ctrl); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-redraw:
		case k, ok := <-keys:
			if !ok {
				return nil
			}
			quit, handled := HandleKey(ctrl, k)
			if quit {
				return nil
			}
			if !handled {
				continue
			}
			p.Logger.Debug("key", "key", string(k), "index", ctrl.State().Index)
		}
		if err := p.draw(ctrl); err != nil {
			return err
		}
	}
}

// readKeys pumps single bytes from r. The goroutine may stay blocked in Read
// after done is closed; it exits on the next byte or EOF.
func readKeys(r io.Reader, done <-chan struct{}) <-chan byte {
	keys := make(chan byte)
	go func() {
		defer close(keys)
		buf := make([]byte, 1)
		for {
			n, err := r.Read(buf)
			if n > 0 {
				select {
				case keys <- buf[0]:
				case <-done:
					return
				}
			}
			if err != nil {
				return
			}
		}
	}()
	return keys
}

func (p *Player) draw(ctrl *playback.Controller) error {
	step, pb := ctrl.Snapshot()
	view := render.Render(step, pb, p.Options)

	var b strings.Builder
	if p.Title != "" {
		fmt.Fprintf(&b, "# %s\n\n", p.Title)
	}
	b.WriteString(render.Markdown(view))

	frame := b.String()
	if p.Renderer != nil {
		rendered, err := p.Renderer(frame)
		if err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
		frame = rendered
	}
	frame += "\n" + StatusLine(p.output, pb) + "\n" + HelpLine(p.output) + "\n"

	if p.raw {
		frame = strings.ReplaceAll(frame, "\n", "\r\n")
	}
	p.output.ClearScreen()
	_, err := io.WriteString(p.Out, frame)
	return err
}
