package upload

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/meetmate/core/internal/models"
)

// DefaultFingerprintTTL bounds how long an interrupted upload stays resumable.
const DefaultFingerprintTTL = 24 * time.Hour

// FingerprintStore keeps resume records of interrupted uploads.
// Find returns nil, nil when there is no record.
type FingerprintStore interface {
	Find(ctx context.Context, fingerprint string) (*models.UploadSession, error)
	Save(ctx context.Context, fingerprint string, s models.UploadSession) error
	Remove(ctx context.Context, fingerprint string) error
}

// Fingerprint identifies one local file uploaded by one owner into one bucket.
func Fingerprint(owner, bucket, absPath string, size int64, modTime time.Time) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s|%d|%d", owner, bucket, absPath, size, modTime.UnixNano())))
	return hex.EncodeToString(sum[:])
}

// RedisFingerprintStore keeps resume records in Redis with a TTL.
type RedisFingerprintStore struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewRedisFingerprintStore creates a Redis-backed store. ttl <= 0 uses DefaultFingerprintTTL.
func NewRedisFingerprintStore(client *redis.Client, ttl time.Duration) *RedisFingerprintStore {
	if ttl <= 0 {
		ttl = DefaultFingerprintTTL
	}
	return &RedisFingerprintStore{redis: client, ttl: ttl}
}

func fingerprintKey(fp string) string {
	return fmt.Sprintf("upload:fingerprint:%s", fp)
}

func (r *RedisFingerprintStore) Find(ctx context.Context, fp string) (*models.UploadSession, error) {
	raw, err := r.redis.Get(ctx, fingerprintKey(fp)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var s models.UploadSession
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode upload session: %w", err)
	}
	return &s, nil
}

func (r *RedisFingerprintStore) Save(ctx context.Context, fp string, s models.UploadSession) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.redis.Set(ctx, fingerprintKey(fp), raw, r.ttl).Err()
}

func (r *RedisFingerprintStore) Remove(ctx context.Context, fp string) error {
	return r.redis.Del(ctx, fingerprintKey(fp)).Err()
}

// MemoryFingerprintStore keeps resume records for the lifetime of the process.
type MemoryFingerprintStore struct {
	mu      sync.Mutex
	records map[string]models.UploadSession
}

// NewMemoryFingerprintStore creates an empty in-process store.
func NewMemoryFingerprintStore() *MemoryFingerprintStore {
	return &MemoryFingerprintStore{records: make(map[string]models.UploadSession)}
}

func (m *MemoryFingerprintStore) Find(_ context.Context, fp string) (*models.UploadSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.records[fp]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *MemoryFingerprintStore) Save(_ context.Context, fp string, s models.UploadSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[fp] = s
	return nil
}

func (m *MemoryFingerprintStore) Remove(_ context.Context, fp string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, fp)
	return nil
}

// Len returns the number of stored records.
func (m *MemoryFingerprintStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}
