// Package upload transfers local recordings to object storage in resumable chunks.
package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/meetmate/core/internal/apperr"
	"github.com/meetmate/core/internal/auth"
	"github.com/meetmate/core/internal/fileinfo"
	"github.com/meetmate/core/internal/models"
	"github.com/meetmate/core/pkg/storage"
)

// DefaultChunkSize is the size of every part except the last.
const DefaultChunkSize int64 = 6 * 1024 * 1024

// DefaultRetryDelays is the backoff ladder applied to each storage request.
var DefaultRetryDelays = []time.Duration{0, 3 * time.Second, 5 * time.Second, 10 * time.Second, 20 * time.Second}

// ObjectStore is the storage backend used by the engine. *storage.S3 implements it.
type ObjectStore interface {
	CreateMultipartUpload(ctx context.Context, bucket, key, contentType string, metadata map[string]string) (string, error)
	UploadPart(ctx context.Context, bucket, key, uploadID string, number int32, body io.Reader, size int64) (string, error)
	ListParts(ctx context.Context, bucket, key, uploadID string) ([]storage.Part, error)
	CompleteMultipartUpload(ctx context.Context, bucket, key, uploadID string, parts []storage.Part) error
	AbortMultipartUpload(ctx context.Context, bucket, key, uploadID string) error
	Upload(ctx context.Context, bucket, key, contentType string, body io.Reader, contentLength int64) error
	PublicObjectURL(bucket, key string) string
}

// ProgressFunc receives progress after each acknowledged chunk.
type ProgressFunc func(models.UploadProgress)

// Config tunes the engine.
type Config struct {
	ChunkSize   int64
	RetryDelays []time.Duration
}

// Engine uploads files in sequential chunks and resumes interrupted transfers by fingerprint.
type Engine struct {
	store        ObjectStore
	fingerprints FingerprintStore
	sessions     auth.Provider
	cfg          Config
	logger       *zap.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewEngine creates an upload engine. Zero Config fields take the defaults.
func NewEngine(store ObjectStore, fingerprints FingerprintStore, sessions auth.Provider, cfg Config, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.RetryDelays == nil {
		cfg.RetryDelays = DefaultRetryDelays
	}
	return &Engine{
		store:        store,
		fingerprints: fingerprints,
		sessions:     sessions,
		cfg:          cfg,
		logger:       logger,
		now:          time.Now,
		sleep:        sleepContext,
	}
}

// Upload sends the file at localPath to bucket and returns its public URL.
// A previous interrupted transfer of the same file is resumed from its last acknowledged chunk.
func (e *Engine) Upload(ctx context.Context, localPath, bucket string, onProgress ProgressFunc) (*models.UploadResult, error) {
	sess, err := e.sessions.Session(ctx)
	if err != nil {
		return nil, err
	}
	info, err := fileinfo.Inspect(localPath)
	if err != nil {
		return nil, err
	}
	e.logger.Info("upload starting",
		zap.String("filename", info.Filename),
		zap.String("filetype", info.Filetype),
		zap.Int64("size", info.Size),
		zap.String("size_formatted", info.SizeFormatted),
	)

	f, err := os.Open(localPath)
	if err != nil {
		return nil, apperr.NotFound("file does not exist", err)
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", localPath, err)
	}
	abs, err := filepath.Abs(localPath)
	if err != nil {
		abs = localPath
	}
	fp := Fingerprint(sess.UserID.String(), bucket, abs, st.Size(), st.ModTime())

	if info.Size == 0 {
		return e.uploadEmpty(ctx, f, bucket, e.objectPath(sess, info), info, onProgress)
	}

	up, parts := e.findPrevious(ctx, fp, info.Size)
	if up == nil {
		up, err = e.create(ctx, fp, bucket, e.objectPath(sess, info), info)
		if err != nil {
			return nil, err
		}
	}

	var offset int64
	for _, p := range parts {
		offset += p.Size
	}
	if offset > 0 {
		e.logger.Info("resuming upload",
			zap.String("object_path", up.ObjectPath),
			zap.Int64("offset", offset),
			zap.Int("parts", len(parts)),
		)
	}

	for n := int32(len(parts) + 1); offset < info.Size; n++ {
		size := min(e.cfg.ChunkSize, info.Size-offset)
		var etag string
		err := e.withRetry(ctx, "upload part", func() error {
			var err error
			etag, err = e.store.UploadPart(ctx, up.Bucket, up.ObjectPath, up.UploadID, n, io.NewSectionReader(f, offset, size), size)
			return err
		})
		if err != nil {
			if errors.Is(err, storage.ErrUploadNotFound) {
				e.forget(ctx, fp)
			}
			return nil, apperr.Upload(fmt.Sprintf("upload chunk %d of %s", n, info.Filename), err)
		}
		parts = append(parts, storage.Part{Number: n, ETag: etag, Size: size})
		offset += size
		report(onProgress, offset, info.Size)
	}

	err = e.withRetry(ctx, "complete upload", func() error {
		return e.store.CompleteMultipartUpload(ctx, up.Bucket, up.ObjectPath, up.UploadID, parts)
	})
	if err != nil {
		if errors.Is(err, storage.ErrUploadNotFound) {
			e.forget(ctx, fp)
		}
		return nil, apperr.Upload("complete upload of "+info.Filename, err)
	}
	e.forget(ctx, fp)

	url := e.store.PublicObjectURL(up.Bucket, up.ObjectPath)
	e.logger.Info("upload complete", zap.String("url", url), zap.Int("parts", len(parts)))
	return &models.UploadResult{URL: url, ObjectPath: up.ObjectPath, FileInfo: info}, nil
}

// UploadSimple sends the file in one managed transfer without resume support.
func (e *Engine) UploadSimple(ctx context.Context, localPath, bucket string) (*models.UploadResult, error) {
	sess, err := e.sessions.Session(ctx)
	if err != nil {
		return nil, err
	}
	info, err := fileinfo.Inspect(localPath)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(localPath)
	if err != nil {
		return nil, apperr.NotFound("file does not exist", err)
	}
	defer f.Close()

	key := e.objectPath(sess, info)
	err = e.withRetry(ctx, "upload object", func() error {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return err
		}
		return e.store.Upload(ctx, bucket, key, info.Filetype, f, info.Size)
	})
	if err != nil {
		return nil, apperr.Upload("upload "+info.Filename, err)
	}
	return &models.UploadResult{URL: e.store.PublicObjectURL(bucket, key), ObjectPath: key, FileInfo: info}, nil
}

func (e *Engine) uploadEmpty(ctx context.Context, f *os.File, bucket, key string, info models.FileInfo, onProgress ProgressFunc) (*models.UploadResult, error) {
	err := e.withRetry(ctx, "upload object", func() error {
		return e.store.Upload(ctx, bucket, key, info.Filetype, bytes.NewReader(nil), 0)
	})
	if err != nil {
		return nil, apperr.Upload("upload "+info.Filename, err)
	}
	report(onProgress, 0, 0)
	return &models.UploadResult{URL: e.store.PublicObjectURL(bucket, key), ObjectPath: key, FileInfo: info}, nil
}

func (e *Engine) objectPath(sess *auth.Session, info models.FileInfo) string {
	return fmt.Sprintf("%s/%d_%s", sess.UserID, e.now().UnixMilli(), info.Filename)
}

// findPrevious returns the resume record for fp and its acknowledged parts, or nil to start over.
func (e *Engine) findPrevious(ctx context.Context, fp string, size int64) (*models.UploadSession, []storage.Part) {
	prev, err := e.fingerprints.Find(ctx, fp)
	if err != nil {
		e.logger.Warn("fingerprint lookup failed, starting new upload", zap.Error(err))
		return nil, nil
	}
	if prev == nil {
		return nil, nil
	}
	if prev.Size != size || prev.ChunkSize != e.cfg.ChunkSize {
		if err := e.store.AbortMultipartUpload(ctx, prev.Bucket, prev.ObjectPath, prev.UploadID); err != nil && !errors.Is(err, storage.ErrUploadNotFound) {
			e.logger.Warn("abort stale upload failed", zap.String("upload_id", prev.UploadID), zap.Error(err))
		}
		e.forget(ctx, fp)
		return nil, nil
	}
	var parts []storage.Part
	err = e.withRetry(ctx, "list parts", func() error {
		var err error
		parts, err = e.store.ListParts(ctx, prev.Bucket, prev.ObjectPath, prev.UploadID)
		return err
	})
	if err != nil {
		if errors.Is(err, storage.ErrUploadNotFound) {
			e.forget(ctx, fp)
		}
		e.logger.Warn("previous upload unavailable, starting new upload", zap.String("upload_id", prev.UploadID), zap.Error(err))
		return nil, nil
	}
	return prev, acknowledgedPrefix(parts, e.cfg.ChunkSize, size)
}

func (e *Engine) create(ctx context.Context, fp, bucket, key string, info models.FileInfo) (*models.UploadSession, error) {
	metadata := map[string]string{
		"bucketName":   bucket,
		"objectName":   key,
		"contentType":  info.Filetype,
		"cacheControl": strconv.Itoa(storage.CacheControlSeconds),
	}
	var uploadID string
	err := e.withRetry(ctx, "create upload", func() error {
		var err error
		uploadID, err = e.store.CreateMultipartUpload(ctx, bucket, key, info.Filetype, metadata)
		return err
	})
	if err != nil {
		return nil, apperr.Upload("create upload of "+info.Filename, err)
	}
	up := &models.UploadSession{
		UploadID:    uploadID,
		Bucket:      bucket,
		ObjectPath:  key,
		ContentType: info.Filetype,
		Size:        info.Size,
		ChunkSize:   e.cfg.ChunkSize,
		CreatedAt:   e.now(),
	}
	if err := e.fingerprints.Save(ctx, fp, *up); err != nil {
		e.logger.Warn("save fingerprint failed, upload will not be resumable", zap.Error(err))
	}
	return up, nil
}

func (e *Engine) forget(ctx context.Context, fp string) {
	if err := e.fingerprints.Remove(ctx, fp); err != nil {
		e.logger.Warn("remove fingerprint failed", zap.String("fingerprint", fp), zap.Error(err))
	}
}

// withRetry runs fn, retrying on the configured ladder. Unknown uploads and cancellation are not retried.
func (e *Engine) withRetry(ctx context.Context, op string, fn func() error) error {
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if errors.Is(err, storage.ErrUploadNotFound) || ctx.Err() != nil || attempt >= len(e.cfg.RetryDelays) {
			return err
		}
		delay := e.cfg.RetryDelays[attempt]
		e.logger.Warn("storage request failed, retrying",
			zap.String("op", op),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		if err := e.sleep(ctx, delay); err != nil {
			return err
		}
	}
}

// acknowledgedPrefix keeps the leading run of parts numbered 1..k whose sizes match the chunk layout.
func acknowledgedPrefix(parts []storage.Part, chunkSize, total int64) []storage.Part {
	var offset int64
	for i, p := range parts {
		want := min(chunkSize, total-offset)
		if p.Number != int32(i+1) || p.Size != want || want <= 0 {
			return parts[:i]
		}
		offset += p.Size
	}
	return parts
}

func report(onProgress ProgressFunc, uploaded, total int64) {
	if onProgress == nil {
		return
	}
	pct := 100
	if total > 0 {
		pct = int(math.Round(float64(uploaded) / float64(total) * 100))
	}
	onProgress(models.UploadProgress{BytesUploaded: uploaded, BytesTotal: total, Percentage: pct})
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
