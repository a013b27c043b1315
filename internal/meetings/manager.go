// Package meetings manages meeting records scoped to the authenticated owner.
package meetings

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meetmate/core/internal/apperr"
	"github.com/meetmate/core/internal/auth"
	"github.com/meetmate/core/internal/models"
)

// Store persists meeting rows. GetByOwnerAndID returns nil, nil when no row matches.
// UpdateStatus reports whether a row matched.
type Store interface {
	Insert(ctx context.Context, m *models.Meeting) error
	ListByOwner(ctx context.Context, owner uuid.UUID) ([]models.Meeting, error)
	GetByOwnerAndID(ctx context.Context, owner, id uuid.UUID) (*models.Meeting, error)
	UpdateStatus(ctx context.Context, owner, id uuid.UUID, status models.ProcessingStatus) (bool, error)
}

// Manager reads and writes meetings on behalf of the session user.
type Manager struct {
	store    Store
	sessions auth.Provider
	logger   *zap.Logger
}

// NewManager creates a record manager.
func NewManager(store Store, sessions auth.Provider, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{store: store, sessions: sessions, logger: logger}
}

// Create stores a new meeting for recordingRef. New meetings start in processing.
func (m *Manager) Create(ctx context.Context, recordingRef, name string) (*models.Meeting, error) {
	sess, err := m.sessions.Session(ctx)
	if err != nil {
		return nil, err
	}
	meeting := &models.Meeting{
		Owner:     sess.UserID,
		Name:      name,
		Recording: recordingRef,
		Status:    models.StatusProcessing,
	}
	if err := m.store.Insert(ctx, meeting); err != nil {
		return nil, apperr.Persistence("create meeting", err)
	}
	m.logger.Info("meeting created", zap.String("meeting_id", meeting.ID.String()), zap.String("owner", sess.UserID.String()))
	return meeting, nil
}

// List returns the caller's meetings, newest first.
func (m *Manager) List(ctx context.Context) ([]models.Meeting, error) {
	sess, err := m.sessions.Session(ctx)
	if err != nil {
		return nil, err
	}
	list, err := m.store.ListByOwner(ctx, sess.UserID)
	if err != nil {
		return nil, apperr.Persistence("list meetings", err)
	}
	if list == nil {
		list = []models.Meeting{}
	}
	return list, nil
}

// GetByID returns the caller's meeting with id.
func (m *Manager) GetByID(ctx context.Context, id uuid.UUID) (*models.Meeting, error) {
	sess, err := m.sessions.Session(ctx)
	if err != nil {
		return nil, err
	}
	meeting, err := m.store.GetByOwnerAndID(ctx, sess.UserID, id)
	if err != nil {
		return nil, apperr.Persistence("get meeting", err)
	}
	if meeting == nil {
		return nil, apperr.NotFound("meeting not found", nil)
	}
	return meeting, nil
}

// SetStatus changes the processing status of the caller's meeting.
func (m *Manager) SetStatus(ctx context.Context, id uuid.UUID, status models.ProcessingStatus) error {
	sess, err := m.sessions.Session(ctx)
	if err != nil {
		return err
	}
	ok, err := m.store.UpdateStatus(ctx, sess.UserID, id, status)
	if err != nil {
		return apperr.Persistence("update meeting status", err)
	}
	if !ok {
		return apperr.NotFound("meeting not found", nil)
	}
	return nil
}
