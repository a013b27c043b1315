package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/meetmate/core/internal/models"
)

// MeetingStore is an in-memory meetings table. Each insert is one second newer than the last.
type MeetingStore struct {
	mu    sync.Mutex
	rows  map[uuid.UUID]models.Meeting
	clock time.Time
	// Err, when set, fails every call.
	Err error
}

// NewMeetingStore creates an empty store.
func NewMeetingStore() *MeetingStore {
	return &MeetingStore{
		rows:  make(map[uuid.UUID]models.Meeting),
		clock: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
	}
}

// Put stores m as is.
func (s *MeetingStore) Put(m models.Meeting) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[m.ID] = m
}

// Row returns the stored meeting regardless of owner.
func (s *MeetingStore) Row(id uuid.UUID) (models.Meeting, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.rows[id]
	return m, ok
}

func (s *MeetingStore) Insert(_ context.Context, m *models.Meeting) error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock = s.clock.Add(time.Second)
	m.ID = uuid.New()
	m.CreatedAt = s.clock
	s.rows[m.ID] = *m
	return nil
}

func (s *MeetingStore) ListByOwner(_ context.Context, owner uuid.UUID) ([]models.Meeting, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []models.Meeting
	for _, m := range s.rows {
		if m.Owner == owner {
			list = append(list, m)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

func (s *MeetingStore) GetByOwnerAndID(_ context.Context, owner, id uuid.UUID) (*models.Meeting, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.rows[id]
	if !ok || m.Owner != owner {
		return nil, nil
	}
	return &m, nil
}

func (s *MeetingStore) UpdateStatus(_ context.Context, owner, id uuid.UUID, status models.ProcessingStatus) (bool, error) {
	if s.Err != nil {
		return false, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.rows[id]
	if !ok || m.Owner != owner {
		return false, nil
	}
	m.Status = status
	s.rows[id] = m
	return true, nil
}
