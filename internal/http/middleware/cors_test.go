package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestCORSAllowedOrigins(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	tests := []struct {
		origin string
		want   string
	}{
		{"http://localhost:5173", "http://localhost:5173"},
		{"http://127.0.0.1:5174", "http://127.0.0.1:5174"},
		{"https://medsim.example.com", "https://medsim.example.com"},
		{"https://evil.example.com", ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.origin, func(t *testing.T) {
			t.Parallel()
			r := gin.New()
			r.Use(CORS(" https://medsim.example.com/ ,"))
			r.GET("/api/threads", func(c *gin.Context) {
				c.Status(http.StatusNoContent)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/threads", nil)
			req.Header.Set("Origin", tt.origin)

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
				t.Fatalf("unexpected allow-origin header: got=%q want=%q", got, tt.want)
			}
		})
	}
}
