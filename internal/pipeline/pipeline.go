// Package pipeline runs the recording-save flow: upload, record, dispatch.
package pipeline

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meetmate/core/internal/dispatch"
	"github.com/meetmate/core/internal/models"
	"github.com/meetmate/core/internal/playback"
	"github.com/meetmate/core/internal/upload"
)

// Uploader transfers a local recording. *upload.Engine implements it.
type Uploader interface {
	Upload(ctx context.Context, localPath, bucket string, onProgress upload.ProgressFunc) (*models.UploadResult, error)
	UploadSimple(ctx context.Context, localPath, bucket string) (*models.UploadResult, error)
}

// Records manages meeting rows. *meetings.Manager implements it.
type Records interface {
	Create(ctx context.Context, recordingRef, name string) (*models.Meeting, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Meeting, error)
	SetStatus(ctx context.Context, id uuid.UUID, status models.ProcessingStatus) error
}

// Dispatcher triggers transcription. *dispatch.Dispatcher implements it.
type Dispatcher interface {
	Dispatch(ctx context.Context, meetingID uuid.UUID, audioURL string) dispatch.Result
	DispatchByID(ctx context.Context, id uuid.UUID) dispatch.Result
}

// Resolver signs playback URLs. *playback.Resolver implements it.
type Resolver interface {
	Resolve(ctx context.Context, pathOrURL, bucket string) (*playback.SignedURL, error)
}

// SaveOptions tunes SaveRecording.
type SaveOptions struct {
	// Simple uploads in one managed transfer without resume support.
	Simple     bool
	OnProgress upload.ProgressFunc
}

// Pipeline wires the core components around one bucket.
type Pipeline struct {
	uploader   Uploader
	records    Records
	dispatcher Dispatcher
	resolver   Resolver
	bucket     string
	logger     *zap.Logger
}

// New creates a pipeline.
func New(uploader Uploader, records Records, dispatcher Dispatcher, resolver Resolver, bucket string, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		uploader:   uploader,
		records:    records,
		dispatcher: dispatcher,
		resolver:   resolver,
		bucket:     bucket,
		logger:     logger,
	}
}

// Bucket returns the bucket recordings are stored in.
func (p *Pipeline) Bucket() string { return p.bucket }

// SaveRecording uploads the file, creates its meeting and triggers processing.
// Upload and record failures are returned as errors. The dispatch outcome is always returned
// with the created meeting so callers can offer a processing retry.
func (p *Pipeline) SaveRecording(ctx context.Context, localPath, name string, opts SaveOptions) (*models.Meeting, dispatch.Result, error) {
	var (
		res *models.UploadResult
		err error
	)
	if opts.Simple {
		res, err = p.uploader.UploadSimple(ctx, localPath, p.bucket)
	} else {
		res, err = p.uploader.Upload(ctx, localPath, p.bucket, opts.OnProgress)
	}
	if err != nil {
		return nil, dispatch.Result{}, err
	}
	if name == "" {
		name = res.FileInfo.Filename
	}
	meeting, err := p.records.Create(ctx, res.URL, name)
	if err != nil {
		return nil, dispatch.Result{}, err
	}
	result := p.dispatcher.Dispatch(ctx, meeting.ID, res.URL)
	if !result.Success {
		p.logger.Warn("processing not started",
			zap.String("meeting_id", meeting.ID.String()),
			zap.String("message", result.Message),
			zap.Error(result.Err),
		)
	}
	return meeting, result, nil
}

// RetryProcessing re-arms the meeting and dispatches it again.
// When the dispatch fails the previous status is restored.
func (p *Pipeline) RetryProcessing(ctx context.Context, id uuid.UUID) (dispatch.Result, error) {
	meeting, err := p.records.GetByID(ctx, id)
	if err != nil {
		return dispatch.Result{}, err
	}
	prev := meeting.Status
	if err := p.records.SetStatus(ctx, id, models.StatusProcessing); err != nil {
		return dispatch.Result{}, err
	}
	result := p.dispatcher.DispatchByID(ctx, id)
	if !result.Success && prev != models.StatusProcessing {
		if err := p.records.SetStatus(ctx, id, prev); err != nil {
			p.logger.Error("restore meeting status failed", zap.String("meeting_id", id.String()), zap.Error(err))
		}
	}
	return result, nil
}

// Playback returns a fresh signed URL for the meeting's recording.
func (p *Pipeline) Playback(ctx context.Context, id uuid.UUID) (*playback.SignedURL, error) {
	meeting, err := p.records.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return p.resolver.Resolve(ctx, meeting.Recording, p.bucket)
}
