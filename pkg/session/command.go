package session

import (
	"fmt"
	"strings"

	"github.com/aretw0/stepper/pkg/domain"
)

// Command names accepted by Hub.Apply.
const (
	CmdPlay  = "play"
	CmdPause = "pause"
	CmdStep  = "step"
	CmdBack  = "back"
	CmdReset = "reset"
	CmdJump  = "jump"
	CmdSpeed = "speed"
)

// Commands lists every command name.
var Commands = []string{CmdPlay, CmdPause, CmdStep, CmdBack, CmdReset, CmdJump, CmdSpeed}

// Command is one playback instruction. Index is used by jump, Speed by speed.
type Command struct {
	Name  string  `json:"name"`
	Index int     `json:"index,omitempty"`
	Speed float64 `json:"speed,omitempty"`
}

// ParseCommand normalizes a command name.
func ParseCommand(name string) (string, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, c := range Commands {
		if c == n {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", domain.ErrUnknownCommand, name)
}
