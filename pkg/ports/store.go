package ports

import (
	"context"

	"github.com/aretw0/stepper/pkg/domain"
)

// SessionStore defines the interface for persisting playback sessions.
// It lets a session survive a restart and be resumed where it was paused.
type SessionStore interface {
	// Save persists the session under sessionID.
	Save(ctx context.Context, sessionID string, sess *domain.Session) error

	// Load retrieves the session for a given ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.Session, error)

	// Delete removes the session. Deleting a missing session is not an error.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of every stored session.
	List(ctx context.Context) ([]string, error)
}
