package testutil

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// ProfileStore records device tokens in memory. A set Err fails every write.
type ProfileStore struct {
	mu     sync.Mutex
	tokens map[uuid.UUID]*string
	Err    error
}

// NewProfileStore creates an empty store.
func NewProfileStore() *ProfileStore {
	return &ProfileStore{tokens: make(map[uuid.UUID]*string)}
}

func (s *ProfileStore) SetDeviceToken(_ context.Context, userID uuid.UUID, token *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.tokens[userID] = token
	return nil
}

// DeviceToken returns the stored token and whether the user has a profile row.
func (s *ProfileStore) DeviceToken(userID uuid.UUID) (*string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[userID]
	return t, ok
}
