package ports_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/ports"
)

// jsonStore round-trips every session through JSON, the way real backends do.
type jsonStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newJSONStore() *jsonStore {
	return &jsonStore{data: make(map[string][]byte)}
}

func (m *jsonStore) Save(ctx context.Context, sessionID string, sess *domain.Session) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[sessionID] = b
	return nil
}

func (m *jsonStore) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	m.mu.Lock()
	b, ok := m.data[sessionID]
	m.mu.Unlock()
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	var sess domain.Session
	if err := json.Unmarshal(b, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (m *jsonStore) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, sessionID)
	return nil
}

func (m *jsonStore) List(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.data))
	for id := range m.data {
		ids = append(ids, id)
	}
	return ids, nil
}

func TestSessionStoreContract(t *testing.T) {
	ports.RunSessionStoreContract(t, newJSONStore())
}
