// Package playback drives a pre-generated step sequence over time.
//
// A Controller owns the index, the playing flag and the speed of one session, plus
// the single timer that advances it. Every operation is an immediate transition of
// the idle/playing/paused/complete state machine; the timer is acquired by Play and
// released by every other transition, by natural completion and by Close.
//
// Timers come from a Scheduler so tests can fire ticks deterministically with
// ManualScheduler instead of waiting on the wall clock.
package playback
