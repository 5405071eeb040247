package domain

import "time"

// PlaybackHooks are invoked by a controller for timer-driven changes.
// API-driven transitions do not fire hooks; the caller already knows about them.
type PlaybackHooks struct {
	OnTick     func(Playback)
	OnComplete func(Playback)
}

// CommandEvent records a playback command applied to a session.
type CommandEvent struct {
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"session_id"`
	Command   string    `json:"command"`
	Kind      Kind      `json:"kind"`
}
