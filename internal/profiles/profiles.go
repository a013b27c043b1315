// Package profiles keeps per-user delivery details used by the processing backend.
package profiles

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meetmate/core/internal/apperr"
	"github.com/meetmate/core/internal/auth"
)

// Store persists profile columns. A nil token clears the stored value.
type Store interface {
	SetDeviceToken(ctx context.Context, userID uuid.UUID, token *string) error
}

// Manager updates the session user's profile.
type Manager struct {
	store    Store
	sessions auth.Provider
	logger   *zap.Logger
}

// NewManager creates a profile manager.
func NewManager(store Store, sessions auth.Provider, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{store: store, sessions: sessions, logger: logger}
}

// UpdateDeviceToken registers the push token the backend notifies on completion.
// An empty token unregisters the device.
func (m *Manager) UpdateDeviceToken(ctx context.Context, token string) error {
	sess, err := m.sessions.Session(ctx)
	if err != nil {
		return err
	}
	var value *string
	if t := strings.TrimSpace(token); t != "" {
		value = &t
	}
	if err := m.store.SetDeviceToken(ctx, sess.UserID, value); err != nil {
		return apperr.Persistence("update device token", err)
	}
	m.logger.Info("device token updated", zap.String("user_id", sess.UserID.String()), zap.Bool("cleared", value == nil))
	return nil
}
