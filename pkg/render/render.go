// Package render turns the current step and playback state into a view.
//
// Render is pure. The Frame half of a View is derived from the step snapshot alone
// and the Controls half from the playback state alone, so a frame reached by jumping
// is identical to the same frame reached by playing.
package render

import (
	"fmt"
	"strings"

	"github.com/aretw0/stepper/pkg/domain"
)

// Panel names accepted by ParseHidden.
const (
	PanelVariables = "variables"
	PanelOutput    = "output"
	PanelLanes     = "lanes"
)

// Options holds the panel visibility toggles.
type Options struct {
	HideVariables bool `json:"hide_variables,omitempty"`
	HideOutput    bool `json:"hide_output,omitempty"`
	HideLanes     bool `json:"hide_lanes,omitempty"`
}

// ParseHidden builds Options from panel names ("variables", "output", "lanes").
// Unknown names are ignored.
func ParseHidden(panels []string) Options {
	var o Options
	for _, p := range panels {
		for _, name := range strings.Split(p, ",") {
			switch strings.ToLower(strings.TrimSpace(name)) {
			case PanelVariables:
				o.HideVariables = true
			case PanelOutput:
				o.HideOutput = true
			case PanelLanes:
				o.HideLanes = true
			}
		}
	}
	return o
}

// Hidden lists the hidden panels, the inverse of ParseHidden.
func (o Options) Hidden() []string {
	var out []string
	if o.HideVariables {
		out = append(out, PanelVariables)
	}
	if o.HideOutput {
		out = append(out, PanelOutput)
	}
	if o.HideLanes {
		out = append(out, PanelLanes)
	}
	return out
}

// Variable is one row of the variable table.
type Variable struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Frame is everything shown about the current step.
type Frame struct {
	Index       int           `json:"index"`
	Description string        `json:"description"`
	Phase       domain.Phase  `json:"phase"`
	Highlight   string        `json:"highlight,omitempty"`
	Variables   []Variable    `json:"variables"`
	Output      []string      `json:"output"`
	Lanes       []domain.Lane `json:"lanes"`
}

// Controls describes the transport bar.
type Controls struct {
	Status         domain.Status `json:"status"`
	Position       string        `json:"position"`
	Total          int           `json:"total"`
	Speed          domain.Speed  `json:"speed"`
	SpeedLabel     string        `json:"speed_label"`
	Playing        bool          `json:"playing"`
	Progress       int           `json:"progress"`
	PlayLabel      string        `json:"play_label"`
	CanStepForward bool          `json:"can_step_forward"`
	CanStepBack    bool          `json:"can_step_back"`
}

// View is the complete visual description of one moment of playback.
type View struct {
	Frame    Frame    `json:"frame"`
	Controls Controls `json:"controls"`
}

// Render derives a View. Neither input is modified.
func Render(step domain.Step, pb domain.Playback, opts Options) View {
	return View{
		Frame:    RenderFrame(step, opts),
		Controls: RenderControls(pb),
	}
}

// RenderFrame derives the step half of a view.
func RenderFrame(step domain.Step, opts Options) Frame {
	f := Frame{
		Index:       step.Index,
		Description: step.Description,
		Phase:       step.Snapshot.Phase,
		Highlight:   step.Highlight,
		Variables:   []Variable{},
		Output:      []string{},
		Lanes:       []domain.Lane{},
	}
	if !opts.HideVariables {
		for _, name := range step.Snapshot.VariableNames() {
			f.Variables = append(f.Variables, Variable{Name: name, Value: step.Snapshot.Variables[name]})
		}
	}
	if !opts.HideOutput {
		f.Output = append(f.Output, step.Snapshot.Output...)
	}
	if !opts.HideLanes {
		for _, l := range step.Snapshot.Lanes {
			f.Lanes = append(f.Lanes, domain.Lane{Name: l.Name, Items: append([]string{}, l.Items...)})
		}
	}
	return f
}

// RenderControls derives the playback half of a view.
func RenderControls(pb domain.Playback) Controls {
	c := Controls{
		Status:     pb.Status,
		Total:      pb.Total,
		Speed:      pb.Speed,
		SpeedLabel: SpeedLabel(pb.Speed),
		Playing:    pb.Playing,
	}
	if pb.Total == 0 {
		c.Position = "0/0"
		c.PlayLabel = "Play"
		return c
	}
	c.Position = fmt.Sprintf("%d/%d", pb.Index+1, pb.Total)
	if pb.Total == 1 {
		c.Progress = 100
	} else {
		c.Progress = pb.Index * 100 / (pb.Total - 1)
	}
	switch {
	case pb.Playing:
		c.PlayLabel = "Pause"
	case pb.Index == pb.Last():
		c.PlayLabel = "Replay"
	default:
		c.PlayLabel = "Play"
	}
	c.CanStepForward = pb.Index < pb.Last()
	c.CanStepBack = pb.Index > 0
	return c
}

// SpeedLabel formats a multiplier as "0.5x", "1x" or "2x".
func SpeedLabel(s domain.Speed) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", float64(s)), "0"), ".") + "x"
}
