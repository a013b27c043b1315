// Package playback turns stored recording references into short-lived signed URLs.
package playback

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/meetmate/core/internal/apperr"
	"github.com/meetmate/core/internal/auth"
)

// SignedURLTTL is how long a resolved URL stays valid.
const SignedURLTTL = 3600 * time.Second

// Signer checks objects and signs GET URLs. *storage.S3 implements it.
type Signer interface {
	Exists(ctx context.Context, bucket, key string) (bool, error)
	PresignGet(ctx context.Context, bucket, key string, expires time.Duration) (string, error)
}

// SignedURL is a resolved playback URL.
type SignedURL struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Resolver issues a new signed URL on every call.
type Resolver struct {
	signer   Signer
	sessions auth.Provider
	ttl      time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewResolver creates a resolver. ttl <= 0 uses SignedURLTTL.
func NewResolver(signer Signer, sessions auth.Provider, ttl time.Duration, logger *zap.Logger) *Resolver {
	if ttl <= 0 {
		ttl = SignedURLTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{signer: signer, sessions: sessions, ttl: ttl, logger: logger, now: time.Now}
}

// Resolve signs the object referenced by pathOrURL in bucket.
func (r *Resolver) Resolve(ctx context.Context, pathOrURL, bucket string) (*SignedURL, error) {
	if _, err := r.sessions.Session(ctx); err != nil {
		return nil, err
	}
	key, err := ObjectPath(pathOrURL, bucket)
	if err != nil {
		return nil, apperr.Storage("invalid recording reference", err)
	}
	ok, err := r.signer.Exists(ctx, bucket, key)
	if err != nil {
		return nil, apperr.Storage("look up recording", err)
	}
	if !ok {
		return nil, apperr.Storage(fmt.Sprintf("recording %s does not exist", key), nil)
	}
	issued := r.now()
	signed, err := r.signer.PresignGet(ctx, bucket, key, r.ttl)
	if err != nil {
		return nil, apperr.Storage("sign recording url", err)
	}
	r.logger.Debug("signed playback url", zap.String("bucket", bucket), zap.String("path", key))
	return &SignedURL{URL: signed, ExpiresAt: issued.Add(r.ttl)}, nil
}

// ObjectPath returns the bucket-relative path of a stored reference.
// Public URLs for bucket are reduced to their decoded path; anything else is taken as a path.
func ObjectPath(pathOrURL, bucket string) (string, error) {
	if strings.Contains(pathOrURL, "://") {
		if u, err := url.Parse(pathOrURL); err == nil {
			pathOrURL = u.EscapedPath()
		}
	}
	marker := "/public/" + bucket + "/"
	if i := strings.Index(pathOrURL, marker); i >= 0 && len(pathOrURL) > i+len(marker) {
		rest := pathOrURL[i+len(marker):]
		decoded, err := url.PathUnescape(rest)
		if err != nil {
			return "", fmt.Errorf("decode %q: %w", rest, err)
		}
		return decoded, nil
	}
	key := strings.TrimPrefix(pathOrURL, "/")
	if key == "" {
		return "", fmt.Errorf("empty recording reference")
	}
	return key, nil
}
