package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// originPolicy is the set of browser origins allowed to call the API. Empty or "*" allows any.
type originPolicy map[string]bool

func newOriginPolicy(list string) originPolicy {
	p := make(originPolicy)
	for _, o := range strings.Split(list, ",") {
		if o = strings.TrimSpace(o); o != "" {
			p[o] = true
		}
	}
	return p
}

// allow returns the Access-Control-Allow-Origin value for origin, or "" to send none.
func (p originPolicy) allow(origin string) string {
	switch {
	case len(p) == 0 || p["*"]:
		return "*"
	case origin != "" && p[origin]:
		return origin
	}
	return ""
}

// CORS lets the web client call the meetings API and read the request id.
// Preflight requests end here with 204.
func CORS(allowedOrigins string) gin.HandlerFunc {
	policy := newOriginPolicy(allowedOrigins)
	allowHeaders := strings.Join([]string{"Content-Type", "Authorization", HeaderRefreshToken, HeaderRequestID}, ", ")
	return func(c *gin.Context) {
		if origin := policy.allow(c.GetHeader("Origin")); origin != "" {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", allowHeaders)
			h.Set("Access-Control-Expose-Headers", HeaderRequestID)
			h.Set("Access-Control-Max-Age", "86400")
			if origin != "*" {
				h.Add("Vary", "Origin")
			}
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
