package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/meetmate/core/internal/apperr"
)

// Session is a snapshot of the authenticated user's tokens.
type Session struct {
	UserID       uuid.UUID
	Email        string
	AccessToken  string
	RefreshToken string
}

// Provider returns the current session. Implementations fail with an apperr.ErrAuth error
// when there is no valid session.
type Provider interface {
	Session(ctx context.Context) (*Session, error)
}

// StaticProvider serves a fixed token pair, verifying the access token on every call.
type StaticProvider struct {
	verifier     *Verifier
	accessToken  string
	refreshToken string
}

// NewStaticProvider creates a provider over configured tokens.
func NewStaticProvider(verifier *Verifier, accessToken, refreshToken string) *StaticProvider {
	return &StaticProvider{verifier: verifier, accessToken: accessToken, refreshToken: refreshToken}
}

// Session validates the stored access token and returns a fresh snapshot.
func (p *StaticProvider) Session(_ context.Context) (*Session, error) {
	if p.accessToken == "" {
		return nil, apperr.Auth("user not authenticated", nil)
	}
	return SessionFromToken(p.verifier, p.accessToken, p.refreshToken)
}

// SessionFromToken validates accessToken and builds a session.
func SessionFromToken(v *Verifier, accessToken, refreshToken string) (*Session, error) {
	claims, err := v.Validate(accessToken)
	if err != nil {
		return nil, apperr.Auth("user not authenticated", err)
	}
	userID, _ := claims.UserID()
	return &Session{
		UserID:       userID,
		Email:        claims.Email,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

type sessionKey struct{}

// WithSession returns a context carrying s.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// FromContext returns the session stored by WithSession, if any.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*Session)
	return s, ok && s != nil
}

// ContextProvider reads the session placed on the request context by the auth middleware.
type ContextProvider struct{}

// Session returns a copy of the context session.
func (ContextProvider) Session(ctx context.Context) (*Session, error) {
	s, ok := FromContext(ctx)
	if !ok {
		return nil, apperr.Auth("user not authenticated", nil)
	}
	cp := *s
	return &cp, nil
}
