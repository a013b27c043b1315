// Package dispatch asks the processing backend to transcribe an uploaded meeting.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meetmate/core/internal/apperr"
	"github.com/meetmate/core/internal/auth"
	"github.com/meetmate/core/internal/models"
)

// ProcessPath is the backend route that starts transcription.
const ProcessPath = "/process-meeting"

// maxBodyBytes caps how much of an error response is kept.
const maxBodyBytes = 64 << 10

// Result is the outcome of one dispatch. Expected failures are reported here, not as Go errors.
type Result struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code,omitempty"`
	Err        error  `json:"-"`
}

func failure(message string, err error) Result {
	return Result{Success: false, Message: message, Err: err}
}

// MeetingGetter looks up the caller's meeting. *meetings.Manager implements it.
type MeetingGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Meeting, error)
}

type processRequest struct {
	AudioURL  string         `json:"audio_url"`
	MeetingID string         `json:"meeting_id"`
	Session   sessionPayload `json:"session"`
}

type sessionPayload struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type processResponse struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
}

// Dispatcher posts process requests to the backend. Each call is a single attempt.
type Dispatcher struct {
	baseURL  string
	client   *http.Client
	sessions auth.Provider
	meetings MeetingGetter
	logger   *zap.Logger
}

// NewDispatcher creates a dispatcher for the backend at baseURL.
func NewDispatcher(baseURL string, timeout time.Duration, sessions auth.Provider, meetings MeetingGetter, logger *zap.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		sessions: sessions,
		meetings: meetings,
		logger:   logger,
	}
}

// Dispatch asks the backend to process audioURL for meetingID. It does not wait for transcription.
func (d *Dispatcher) Dispatch(ctx context.Context, meetingID uuid.UUID, audioURL string) Result {
	sess, err := d.sessions.Session(ctx)
	if err != nil {
		return failure("user not authenticated", err)
	}
	body, err := json.Marshal(processRequest{
		AudioURL:  audioURL,
		MeetingID: meetingID.String(),
		Session: sessionPayload{
			AccessToken:  sess.AccessToken,
			RefreshToken: sess.RefreshToken,
		},
	})
	if err != nil {
		return failure("encode request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+ProcessPath, bytes.NewReader(body))
	if err != nil {
		return failure("build request", apperr.Network("build request", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		d.logger.Warn("process request failed", zap.String("meeting_id", meetingID.String()), zap.Error(err))
		return failure(err.Error(), apperr.Network("backend unreachable", err))
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Result{Message: err.Error(), StatusCode: resp.StatusCode, Err: apperr.Network("read backend response", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text := strings.TrimSpace(string(raw))
		if text == "" {
			text = http.StatusText(resp.StatusCode)
		}
		d.logger.Warn("backend rejected process request",
			zap.String("meeting_id", meetingID.String()),
			zap.Int("status", resp.StatusCode),
			zap.String("body", text),
		)
		return Result{
			Message:    text,
			StatusCode: resp.StatusCode,
			Err:        apperr.Network(fmt.Sprintf("backend returned %d", resp.StatusCode), errors.New(text)),
		}
	}

	res := Result{Success: true, Message: "processing started", StatusCode: resp.StatusCode}
	var pr processResponse
	if err := json.Unmarshal(raw, &pr); err == nil {
		if pr.Message != "" {
			res.Message = pr.Message
		}
		if pr.Success != nil && !*pr.Success {
			res.Success = false
			res.Err = apperr.Network("backend refused processing", errors.New(res.Message))
		}
	}
	d.logger.Info("process request sent",
		zap.String("meeting_id", meetingID.String()),
		zap.Int("status", resp.StatusCode),
		zap.Bool("success", res.Success),
	)
	return res
}

// DispatchByID dispatches the stored recording of the caller's meeting id.
// A missing meeting or recording fails before any request is sent.
func (d *Dispatcher) DispatchByID(ctx context.Context, id uuid.UUID) Result {
	m, err := d.meetings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return failure("meeting not found", err)
		}
		return failure("look up meeting", err)
	}
	if strings.TrimSpace(m.Recording) == "" {
		return failure("meeting has no recording", apperr.NotFound("meeting has no recording", nil))
	}
	return d.Dispatch(ctx, m.ID, m.Recording)
}
