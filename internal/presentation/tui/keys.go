package tui

import (
	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/playback"
)

const ctrlC = 3

// HandleKey applies one key press to the controller.
// It reports quit for q and Ctrl-C, and handled for any key it understood.
func HandleKey(ctrl *playback.Controller, key byte) (quit, handled bool) {
	switch key {
	case 'q', 'Q', ctrlC:
		return true, true
	case ' ', 'p':
		if ctrl.State().Playing {
			ctrl.Pause()
		} else {
			ctrl.Play()
		}
	case 'n', 'l':
		ctrl.StepForward()
	case 'b', 'h':
		ctrl.StepBackward()
	case 'r':
		ctrl.Reset()
	case '+', '=':
		ctrl.SetSpeed(float64(shiftSpeed(ctrl.State().Speed, 1)))
	case '-', '_':
		ctrl.SetSpeed(float64(shiftSpeed(ctrl.State().Speed, -1)))
	default:
		if key < '0' || key > '9' {
			return false, false
		}
		total := ctrl.State().Total
		ctrl.JumpTo(int(key-'0') * total / 10)
	}
	return false, true
}

// shiftSpeed moves dir positions through domain.Speeds, clamped at both ends.
func shiftSpeed(cur domain.Speed, dir int) domain.Speed {
	i := 0
	for j, s := range domain.Speeds {
		if s == cur {
			i = j
		}
	}
	i += dir
	if i < 0 {
		i = 0
	}
	if i >= len(domain.Speeds) {
		i = len(domain.Speeds) - 1
	}
	return domain.Speeds[i]
}
