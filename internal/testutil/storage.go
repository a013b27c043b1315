// Package testutil holds in-memory fakes shared by package tests.
package testutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/meetmate/core/pkg/storage"
)

type pendingUpload struct {
	bucket      string
	key         string
	contentType string
	metadata    map[string]string
	parts       map[int32][]byte
}

// ObjectStore is an in-memory multipart object store.
type ObjectStore struct {
	BaseURL string

	mu        sync.Mutex
	nextID    int
	uploads   map[string]*pendingUpload
	objects   map[string][]byte
	failParts map[int32]int
	// PartCalls lists every successful UploadPart part number in order.
	PartCalls []int32
	Creates   int
	Puts      int
	Aborts    int

	PresignErr error
}

// NewObjectStore creates an empty store serving public URLs under baseURL.
func NewObjectStore(baseURL string) *ObjectStore {
	return &ObjectStore{
		BaseURL:   baseURL,
		uploads:   make(map[string]*pendingUpload),
		objects:   make(map[string][]byte),
		failParts: make(map[int32]int),
	}
}

// FailPart makes the next n uploads of part number fail.
func (s *ObjectStore) FailPart(number int32, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failParts[number] = n
}

// DropUploads forgets every pending multipart upload.
func (s *ObjectStore) DropUploads() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads = make(map[string]*pendingUpload)
}

// PutObject stores an object directly.
func (s *ObjectStore) PutObject(bucket, key string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[bucket+"/"+key] = data
}

// Object returns a stored object.
func (s *ObjectStore) Object(bucket, key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[bucket+"/"+key]
	return data, ok
}

// Metadata returns the metadata of the pending upload with id.
func (s *ObjectStore) Metadata(uploadID string) map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if up, ok := s.uploads[uploadID]; ok {
		return up.metadata
	}
	return nil
}

func (s *ObjectStore) CreateMultipartUpload(_ context.Context, bucket, key, contentType string, metadata map[string]string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.Creates++
	id := fmt.Sprintf("upload-%d", s.nextID)
	s.uploads[id] = &pendingUpload{
		bucket:      bucket,
		key:         key,
		contentType: contentType,
		metadata:    metadata,
		parts:       make(map[int32][]byte),
	}
	return id, nil
}

func (s *ObjectStore) UploadPart(_ context.Context, bucket, key, uploadID string, number int32, body io.Reader, size int64) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := s.failParts[number]; n > 0 {
		s.failParts[number] = n - 1
		return "", errors.New("connection reset by peer")
	}
	up, ok := s.uploads[uploadID]
	if !ok || up.bucket != bucket || up.key != key {
		return "", storage.ErrUploadNotFound
	}
	if int64(len(data)) != size {
		return "", fmt.Errorf("part %d: got %d bytes, want %d", number, len(data), size)
	}
	up.parts[number] = data
	s.PartCalls = append(s.PartCalls, number)
	return fmt.Sprintf("\"etag-%d\"", number), nil
}

func (s *ObjectStore) ListParts(_ context.Context, bucket, key, uploadID string) ([]storage.Part, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	up, ok := s.uploads[uploadID]
	if !ok || up.bucket != bucket || up.key != key {
		return nil, storage.ErrUploadNotFound
	}
	parts := make([]storage.Part, 0, len(up.parts))
	for n, data := range up.parts {
		parts = append(parts, storage.Part{Number: n, ETag: fmt.Sprintf("\"etag-%d\"", n), Size: int64(len(data))})
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].Number < parts[j].Number })
	return parts, nil
}

func (s *ObjectStore) CompleteMultipartUpload(_ context.Context, bucket, key, uploadID string, parts []storage.Part) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	up, ok := s.uploads[uploadID]
	if !ok || up.bucket != bucket || up.key != key {
		return storage.ErrUploadNotFound
	}
	var buf bytes.Buffer
	for i, p := range parts {
		if p.Number != int32(i+1) {
			return fmt.Errorf("part %d out of order", p.Number)
		}
		data, ok := up.parts[p.Number]
		if !ok {
			return fmt.Errorf("part %d missing", p.Number)
		}
		buf.Write(data)
	}
	s.objects[bucket+"/"+key] = buf.Bytes()
	delete(s.uploads, uploadID)
	return nil
}

func (s *ObjectStore) AbortMultipartUpload(_ context.Context, bucket, key, uploadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	up, ok := s.uploads[uploadID]
	if !ok || up.bucket != bucket || up.key != key {
		return storage.ErrUploadNotFound
	}
	delete(s.uploads, uploadID)
	s.Aborts++
	return nil
}

func (s *ObjectStore) Upload(_ context.Context, bucket, key, _ string, body io.Reader, _ int64) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Puts++
	s.objects[bucket+"/"+key] = data
	return nil
}

func (s *ObjectStore) PublicObjectURL(bucket, key string) string {
	return storage.PublicURL(s.BaseURL, bucket, key)
}

func (s *ObjectStore) Exists(_ context.Context, bucket, key string) (bool, error) {
	_, ok := s.Object(bucket, key)
	return ok, nil
}

func (s *ObjectStore) PresignGet(_ context.Context, bucket, key string, expires time.Duration) (string, error) {
	if s.PresignErr != nil {
		return "", s.PresignErr
	}
	return fmt.Sprintf("%s/object/sign/%s/%s?expires=%d", s.BaseURL, bucket, key, int(expires.Seconds())), nil
}
