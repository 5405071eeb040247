package domain

import (
	"reflect"
)

// SessionDiff represents the changes between two session snapshots.
// It is designed to be serialized to JSON for partial updates on the client.
type SessionDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	Index   *int    `json:"index,omitempty"`
	Total   *int    `json:"total,omitempty"`
	Playing *bool   `json:"playing,omitempty"`
	Speed   *Speed  `json:"speed,omitempty"`
	Status  *Status `json:"status,omitempty"`

	// Scenario is only set when the scenario itself was replaced.
	Scenario *ScenarioSpec `json:"scenario,omitempty"`
}

// Diff calculates the difference between oldSess and newSess.
// If oldSess is nil, it returns a diff representing the entire newSess (initial load).
func Diff(oldSess, newSess *Session) *SessionDiff {
	if newSess == nil {
		return nil
	}

	diff := &SessionDiff{SessionID: newSess.ID}
	np := newSess.Playback

	if oldSess == nil {
		diff.Index = &np.Index
		diff.Total = &np.Total
		diff.Playing = &np.Playing
		diff.Speed = &np.Speed
		diff.Status = &np.Status
		scenario := newSess.Scenario.Clone()
		diff.Scenario = &scenario
		return diff
	}

	op := oldSess.Playback
	if op.Index != np.Index {
		diff.Index = &np.Index
	}
	if op.Total != np.Total {
		diff.Total = &np.Total
	}
	if op.Playing != np.Playing {
		diff.Playing = &np.Playing
	}
	if op.Speed != np.Speed {
		diff.Speed = &np.Speed
	}
	if op.Status != np.Status {
		diff.Status = &np.Status
	}
	if oldSess.Scenario.Kind != newSess.Scenario.Kind ||
		!reflect.DeepEqual(oldSess.Scenario.Params, newSess.Scenario.Params) {
		scenario := newSess.Scenario.Clone()
		diff.Scenario = &scenario
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *SessionDiff) IsEmpty() bool {
	return d.Index == nil &&
		d.Total == nil &&
		d.Playing == nil &&
		d.Speed == nil &&
		d.Status == nil &&
		d.Scenario == nil
}
