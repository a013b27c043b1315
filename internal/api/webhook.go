package api

import (
	"context"
	"crypto/subtle"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meetmate/core/pkg/response"
)

// HeaderWebhookSecret authenticates the processing backend's callbacks.
const HeaderWebhookSecret = "X-Webhook-Secret"

// Notifier relays completion notifications to clients. *notify.Publisher implements it.
type Notifier interface {
	PublishCompleted(ctx context.Context, ownerID, meetingID uuid.UUID) error
}

// MeetingCompletedPayload is sent by the processing backend after it stored the summary.
type MeetingCompletedPayload struct {
	MeetingID string `json:"meeting_id" binding:"required"`
	UserID    string `json:"user_id" binding:"required"`
}

// WebhookHandler receives processing backend callbacks.
type WebhookHandler struct {
	notifier Notifier
	secret   string
	logger   *zap.Logger
}

// NewWebhookHandler creates a webhook handler.
func NewWebhookHandler(notifier Notifier, secret string, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{notifier: notifier, secret: secret, logger: logger}
}

// MeetingCompleted handles POST /webhooks/meeting-completed by relaying {meeting_id} to the owner.
func (h *WebhookHandler) MeetingCompleted(c *gin.Context) {
	if subtle.ConstantTimeCompare([]byte(c.GetHeader(HeaderWebhookSecret)), []byte(h.secret)) != 1 {
		response.Unauthorized(c, "invalid webhook secret")
		return
	}
	var p MeetingCompletedPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		response.BadRequest(c, "meeting_id and user_id are required")
		return
	}
	meetingID, err := uuid.Parse(p.MeetingID)
	if err != nil {
		response.BadRequest(c, "invalid meeting_id")
		return
	}
	ownerID, err := uuid.Parse(p.UserID)
	if err != nil {
		response.BadRequest(c, "invalid user_id")
		return
	}
	if err := h.notifier.PublishCompleted(c.Request.Context(), ownerID, meetingID); err != nil {
		h.logger.Error("relay completion failed", zap.String("meeting_id", p.MeetingID), zap.Error(err))
		response.Internal(c, "failed to relay notification")
		return
	}
	response.OK(c, gin.H{"meeting_id": meetingID})
}
