package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func corsRouter(origins string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS(origins))
	r.GET("/meetings", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name, allowed, origin, want string
		vary                        bool
	}{
		{"any origin", "*", "https://web.meetmate.app", "*", false},
		{"unset allows any", "", "https://web.meetmate.app", "*", false},
		{"listed origin", "https://a.test, https://web.meetmate.app", "https://web.meetmate.app", "https://web.meetmate.app", true},
		{"unlisted origin", "https://a.test", "https://evil.test", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/meetings", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()
			corsRouter(tt.allowed).ServeHTTP(w, req)

			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
				t.Fatalf("allow origin = %q, want %q", got, tt.want)
			}
			if got := w.Header().Get("Vary") == "Origin"; got != tt.vary {
				t.Fatalf("vary origin = %v, want %v", got, tt.vary)
			}
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d", w.Code)
			}
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/meetings", nil)
	req.Header.Set("Origin", "https://web.meetmate.app")
	w := httptest.NewRecorder()
	corsRouter("*").ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d, want 204", w.Code)
	}
}
