package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/meetmate/core/internal/auth"
	"github.com/meetmate/core/pkg/response"
)

const (
	// ContextUserID is the key for the user ID in the gin context.
	ContextUserID = "user_id"
	// HeaderRefreshToken carries the refresh token forwarded to the processing backend.
	HeaderRefreshToken = "X-Refresh-Token"
)

// JWT validates the bearer access token and puts the session on the request context.
func JWT(verifier *auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}
		sess, err := auth.SessionFromToken(verifier, parts[1], c.GetHeader(HeaderRefreshToken))
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		c.Set(ContextUserID, sess.UserID)
		c.Request = c.Request.WithContext(auth.WithSession(c.Request.Context(), sess))
		c.Next()
	}
}
