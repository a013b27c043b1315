// Package api exposes the meeting pipeline over HTTP.
package api

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meetmate/core/internal/dispatch"
	"github.com/meetmate/core/internal/fileinfo"
	"github.com/meetmate/core/internal/models"
	"github.com/meetmate/core/internal/pipeline"
	"github.com/meetmate/core/internal/playback"
	"github.com/meetmate/core/pkg/response"
)

// Service runs the recording flows. *pipeline.Pipeline implements it.
type Service interface {
	SaveRecording(ctx context.Context, localPath, name string, opts pipeline.SaveOptions) (*models.Meeting, dispatch.Result, error)
	RetryProcessing(ctx context.Context, id uuid.UUID) (dispatch.Result, error)
	Playback(ctx context.Context, id uuid.UUID) (*playback.SignedURL, error)
}

// Records reads the caller's meetings. *meetings.Manager implements it.
type Records interface {
	List(ctx context.Context) ([]models.Meeting, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Meeting, error)
}

// Handler serves the meeting endpoints.
type Handler struct {
	service  Service
	records  Records
	spoolDir string
	logger   *zap.Logger
}

// NewHandler creates a meetings handler. Uploaded recordings are spooled under spoolDir,
// or the system temp directory when it is empty.
func NewHandler(service Service, records Records, spoolDir string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, records: records, spoolDir: spoolDir, logger: logger}
}

// Form fields of POST /meetings.
const (
	FormFile   = "file"
	FormName   = "name"
	FormSimple = "simple"
)

// SavedMeeting is the final event of POST /meetings.
type SavedMeeting struct {
	Meeting  *models.Meeting `json:"meeting"`
	Dispatch dispatch.Result `json:"dispatch"`
}

// PlaybackURL is the body of GET /meetings/:id/playback-url.
type PlaybackURL struct {
	URL       string    `json:"url"`
	ExpiresIn int       `json:"expires_in"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Create handles POST /meetings. The recording arrives as a multipart file, is spooled to a
// private temp directory and saved from there. Upload progress streams as server-sent events,
// finishing with a "meeting" or "error" event.
func (h *Handler) Create(c *gin.Context) {
	fh, err := c.FormFile(FormFile)
	if err != nil {
		response.BadRequest(c, "recording file is required")
		return
	}
	filename := filepath.Base(fh.Filename)
	if !fileinfo.IsAudio(filename) {
		response.BadRequest(c, "unsupported recording type")
		return
	}
	simple, _ := strconv.ParseBool(c.PostForm(FormSimple))

	dir, err := os.MkdirTemp(h.spoolDir, "meeting-upload-*")
	if err != nil {
		h.logger.Error("create spool dir failed", zap.Error(err))
		response.Internal(c, "failed to receive recording")
		return
	}
	defer os.RemoveAll(dir)
	localPath := filepath.Join(dir, filename)
	if err := c.SaveUploadedFile(fh, localPath); err != nil {
		h.logger.Error("spool recording failed", zap.String("filename", filename), zap.Error(err))
		response.Internal(c, "failed to receive recording")
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	meeting, result, err := h.service.SaveRecording(c.Request.Context(), localPath, strings.TrimSpace(c.PostForm(FormName)), pipeline.SaveOptions{
		Simple: simple,
		OnProgress: func(p models.UploadProgress) {
			c.SSEvent("progress", p)
			c.Writer.Flush()
		},
	})
	if err != nil {
		h.logger.Warn("save recording failed", zap.String("filename", filename), zap.Error(err))
		_ = c.Error(err)
		c.SSEvent("error", gin.H{"error": response.Message(err), "status": response.Status(err)})
		c.Writer.Flush()
		return
	}
	c.SSEvent("meeting", SavedMeeting{Meeting: meeting, Dispatch: result})
	c.Writer.Flush()
}

// List handles GET /meetings.
func (h *Handler) List(c *gin.Context) {
	list, err := h.records.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list meetings failed", zap.Error(err))
		response.Error(c, err)
		return
	}
	response.OK(c, list)
}

// Get handles GET /meetings/:id.
func (h *Handler) Get(c *gin.Context) {
	id, ok := meetingID(c)
	if !ok {
		return
	}
	m, err := h.records.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, m)
}

// Process handles POST /meetings/:id/process, the processing retry action.
func (h *Handler) Process(c *gin.Context) {
	id, ok := meetingID(c)
	if !ok {
		return
	}
	result, err := h.service.RetryProcessing(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !result.Success {
		c.JSON(http.StatusBadGateway, response.Body{Success: false, Data: result, Error: result.Message})
		return
	}
	response.OK(c, result)
}

// PlaybackURL handles GET /meetings/:id/playback-url.
func (h *Handler) PlaybackURL(c *gin.Context) {
	id, ok := meetingID(c)
	if !ok {
		return
	}
	signed, err := h.service.Playback(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, PlaybackURL{
		URL:       signed.URL,
		ExpiresIn: int(playback.SignedURLTTL.Seconds()),
		ExpiresAt: signed.ExpiresAt,
	})
}

func meetingID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid meeting id")
		return uuid.Nil, false
	}
	return id, true
}
