package testutil

import (
	"context"

	"github.com/google/uuid"

	"github.com/meetmate/core/internal/apperr"
	"github.com/meetmate/core/internal/auth"
)

// Sessions is an auth.Provider returning a fixed session. A nil Current fails with ErrAuth.
type Sessions struct {
	Current *auth.Session
}

// NewSessions returns a provider for a fresh random user.
func NewSessions() *Sessions {
	return &Sessions{Current: &auth.Session{
		UserID:       uuid.New(),
		Email:        "ana@example.com",
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
	}}
}

func (s *Sessions) Session(context.Context) (*auth.Session, error) {
	if s.Current == nil {
		return nil, apperr.Auth("user not authenticated", nil)
	}
	cp := *s.Current
	return &cp, nil
}
