package session

import "github.com/aretw0/stepper/pkg/domain"

// Listener receives the session after every change, API or timer driven.
// It runs on the goroutine that made the change and must not block.
type Listener func(domain.Session)

// Observer receives lifecycle events, typically to feed metrics.
type Observer interface {
	SessionOpened(kind domain.Kind)
	SessionClosed(kind domain.Kind)
	Command(ev domain.CommandEvent)
	Tick(sess domain.Session)
	Completed(sess domain.Session)
	Generated(kind domain.Kind, steps int)
}

type nopObserver struct{}

func (nopObserver) SessionOpened(domain.Kind)   {}
func (nopObserver) SessionClosed(domain.Kind)   {}
func (nopObserver) Command(domain.CommandEvent) {}
func (nopObserver) Tick(domain.Session)         {}
func (nopObserver) Completed(domain.Session)    {}
func (nopObserver) Generated(domain.Kind, int)  {}
