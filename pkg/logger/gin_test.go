package logger

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestMiddlewarePropagatesRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	l := slog.New(slog.NewJSONHandler(&buf, nil))

	r := gin.New()
	r.Use(Middleware(l))

	var fromGin, fromCtx *slog.Logger
	r.GET("/inner", func(c *gin.Context) {
		fromGin = FromGin(c)
		fromCtx = From(c.Request.Context())
		fromCtx.Info("inner")
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/inner", nil))

	if w.Header().Get("X-Request-Id") == "" {
		t.Fatalf("missing request id header")
	}
	if fromCtx == slog.Default() {
		t.Fatalf("request context carries no request-scoped logger")
	}
	if fromGin != fromCtx {
		t.Fatalf("gin context and request context hold different loggers")
	}

	out := buf.String()
	if !strings.Contains(out, `"request_id"`) || !strings.Contains(out, `"inner"`) {
		t.Fatalf("inner log missing request_id: %s", out)
	}
}

func TestMiddlewareKeepsCallerRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	r := gin.New()
	r.Use(Middleware(slog.New(slog.NewJSONHandler(&buf, nil))))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-Id", "rid-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-Id"); got != "rid-123" {
		t.Fatalf("request id = %q, want rid-123", got)
	}
	if !strings.Contains(buf.String(), "rid-123") {
		t.Fatalf("request summary missing caller request id: %s", buf.String())
	}
}
