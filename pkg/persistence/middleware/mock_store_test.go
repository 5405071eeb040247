package middleware_test

import (
	"context"

	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/ports"
	"github.com/stretchr/testify/mock"
)

// MockStore is a testify mock of SessionStore that also keeps what it was given.
type MockStore struct {
	mock.Mock
	data map[string]*domain.Session
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string]*domain.Session),
	}
}

// Passthrough makes every method behave like a plain map store.
func (s *MockStore) Passthrough() *MockStore {
	s.On("Save", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	s.On("Load", mock.Anything, mock.Anything).Return(nil)
	s.On("Delete", mock.Anything, mock.Anything).Return(nil)
	s.On("List", mock.Anything).Return(nil)
	return s
}

func (s *MockStore) Save(ctx context.Context, sessionID string, sess *domain.Session) error {
	args := s.Called(ctx, sessionID, sess)
	s.data[sessionID] = sess
	return args.Error(0)
}

func (s *MockStore) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	args := s.Called(ctx, sessionID)
	if err := args.Error(0); err != nil {
		return nil, err
	}
	sess, ok := s.data[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return sess, nil
}

func (s *MockStore) Delete(ctx context.Context, sessionID string) error {
	args := s.Called(ctx, sessionID)
	delete(s.data, sessionID)
	return args.Error(0)
}

func (s *MockStore) List(ctx context.Context) ([]string, error) {
	args := s.Called(ctx)
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys, args.Error(0)
}

var _ ports.SessionStore = (*MockStore)(nil)
