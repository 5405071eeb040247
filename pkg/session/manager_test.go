package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/ports"
	"github.com/aretw0/stepper/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	data map[string]*domain.Session
	mu   sync.Mutex

	inFlight    int
	maxInFlight int
}

func (s *SlowStore) enter() {
	s.mu.Lock()
	s.inFlight++
	if s.inFlight > s.maxInFlight {
		s.maxInFlight = s.inFlight
	}
	s.mu.Unlock()
}

func (s *SlowStore) leave() {
	s.mu.Lock()
	s.inFlight--
	s.mu.Unlock()
}

func (s *SlowStore) Save(ctx context.Context, sessionID string, sess *domain.Session) error {
	s.enter()
	defer s.leave()
	time.Sleep(5 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		s.data = make(map[string]*domain.Session)
	}
	s.data[sessionID] = sess.Clone()
	return nil
}

func (s *SlowStore) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	s.enter()
	defer s.leave()
	time.Sleep(5 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.data[sessionID]; ok {
		return sess.Clone(), nil
	}
	return nil, domain.ErrSessionNotFound
}

func (s *SlowStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

func (s *SlowStore) List(ctx context.Context) ([]string, error) {
	return nil, nil
}

func TestManager_Locking(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()
	id := "race-test"

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(val int) {
			defer wg.Done()
			err := manager.Save(ctx, id, &domain.Session{ID: id, Playback: domain.Playback{Index: val}})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, store.maxInFlight, "writes to one session must be serialized")
}

func TestManager_LoadOrCreate(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(store)
	ctx := context.Background()
	id := "atomic-init"

	var mu sync.Mutex
	creations := 0

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sess, created, err := manager.LoadOrCreate(ctx, id, func() *domain.Session {
				return &domain.Session{ID: id, Scenario: domain.ScenarioSpec{Kind: domain.KindSwitch}}
			})
			assert.NoError(t, err)
			assert.NotNil(t, sess)
			if created {
				mu.Lock()
				creations++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, creations)
	sess, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.KindSwitch, sess.Scenario.Kind)
}

type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	args := m.Called(ctx, key, ttl)
	unlock, _ := args.Get(0).(ports.UnlockFunc)
	return unlock, args.Error(1)
}

func TestManager_DistributedLock(t *testing.T) {
	locker := new(MockLocker)
	unlocked := 0
	locker.On("Lock", mock.Anything, "s1", 5*time.Second).Return(ports.UnlockFunc(func(context.Context) error {
		unlocked++
		return nil
	}), nil)

	manager := session.NewManager(&SlowStore{}, session.WithLocker(locker), session.WithLockTTL(5*time.Second))
	require.NoError(t, manager.Save(context.Background(), "s1", &domain.Session{ID: "s1"}))

	locker.AssertExpectations(t)
	assert.Equal(t, 1, unlocked)
}

func TestManager_DistributedLockFailure(t *testing.T) {
	locker := new(MockLocker)
	locker.On("Lock", mock.Anything, "s1", session.DefaultLockTTL).Return(nil, errors.New("redis down"))

	store := &SlowStore{}
	manager := session.NewManager(store, session.WithLocker(locker))
	err := manager.Save(context.Background(), "s1", &domain.Session{ID: "s1"})
	assert.ErrorContains(t, err, "distributed lock")
	assert.Empty(t, store.data)
}
