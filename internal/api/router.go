package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/meetmate/core/internal/auth"
	"github.com/meetmate/core/internal/middleware"
	"github.com/meetmate/core/pkg/response"
)

// RouterConfig configures NewRouter. A nil Webhooks disables the callback route.
type RouterConfig struct {
	CORSAllowedOrigins string
	Verifier           *auth.Verifier
	Meetings           *Handler
	Webhooks           *WebhookHandler
}

// NewRouter builds the gin engine with all routes.
func NewRouter(cfg RouterConfig, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	if cfg.Webhooks != nil {
		router.POST("/webhooks/meeting-completed", cfg.Webhooks.MeetingCompleted)
	}

	api := router.Group("")
	api.Use(middleware.JWT(cfg.Verifier))
	{
		api.POST("/meetings", cfg.Meetings.Create)
		api.GET("/meetings", cfg.Meetings.List)
		api.GET("/meetings/:id", cfg.Meetings.Get)
		api.POST("/meetings/:id/process", cfg.Meetings.Process)
		api.GET("/meetings/:id/playback-url", cfg.Meetings.PlaybackURL)
	}
	return router
}
