package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/stepper/pkg/domain"
)

// nullStore accepts everything and stores nothing.
type nullStore struct{}

func (nullStore) Save(ctx context.Context, sessionID string, sess *domain.Session) error {
	return nil
}
func (nullStore) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	return nil, domain.ErrSessionNotFound
}
func (nullStore) Delete(ctx context.Context, sessionID string) error { return nil }
func (nullStore) List(ctx context.Context) ([]string, error)         { return nil, nil }

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(nullStore{})
	ctx := context.Background()
	count := 10000

	for i := 0; i < count; i++ {
		sid := fmt.Sprintf("session-%d", i)
		_ = mgr.Save(ctx, sid, &domain.Session{})
		_ = mgr.Delete(ctx, sid)
	}

	if lockCount := len(mgr.locks); lockCount != 0 {
		t.Errorf("Memory Leak Detected: %d locks remaining in memory after Delete", lockCount)
	}
}
