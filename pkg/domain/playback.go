package domain

import "time"

// Speed is a playback multiplier applied to the base tick interval.
type Speed float64

const (
	SpeedHalf   Speed = 0.5
	SpeedNormal Speed = 1
	SpeedDouble Speed = 2
)

// Speeds lists the supported multipliers in ascending order.
var Speeds = []Speed{SpeedHalf, SpeedNormal, SpeedDouble}

// NearestSpeed snaps an arbitrary multiplier to the closest supported one.
func NearestSpeed(m float64) Speed {
	best := SpeedNormal
	bestDist := -1.0
	for _, s := range Speeds {
		d := float64(s) - m
		if d < 0 {
			d = -d
		}
		if bestDist < 0 || d < bestDist {
			best, bestDist = s, d
		}
	}
	return best
}

// Status is the playback state machine position.
type Status string

const (
	StatusIdle     Status = "idle"
	StatusPlaying  Status = "playing"
	StatusPaused   Status = "paused"
	StatusComplete Status = "complete"
)

// Playback is the mutable state owned by a playback controller.
// Index always satisfies 0 <= Index < Total when Total > 0.
type Playback struct {
	Index   int    `json:"index"`
	Total   int    `json:"total"`
	Playing bool   `json:"playing"`
	Speed   Speed  `json:"speed"`
	Status  Status `json:"status"`
}

// Last returns the index of the terminal step.
func (p Playback) Last() int {
	if p.Total == 0 {
		return 0
	}
	return p.Total - 1
}

// Session is the persisted form of one playback session.
type Session struct {
	ID        string       `json:"id"`
	Scenario  ScenarioSpec `json:"scenario"`
	Playback  Playback     `json:"playback"`
	Hidden    []string     `json:"hidden,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Clone returns a copy that shares no slices or maps with s.
func (s *Session) Clone() *Session {
	out := *s
	out.Scenario = s.Scenario.Clone()
	out.Hidden = append([]string(nil), s.Hidden...)
	return &out
}
