package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestMiddleware_PropagatesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	l := slog.New(slog.NewJSONHandler(&buf, nil))

	r := gin.New()
	r.Use(Middleware(l))
	r.GET("/x", func(c *gin.Context) {
		if From(c.Request.Context()) != FromGin(c) {
			t.Errorf("request and gin context loggers differ")
		}
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-Id", "rid-1")
	r.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-Id"); got != "rid-1" {
		t.Fatalf("expected echoed request id, got %q", got)
	}

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if line["request_id"] != "rid-1" || line["path"] != "/x" {
		t.Fatalf("unexpected log line: %v", line)
	}
}

func TestMiddleware_GeneratesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Middleware(slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	if w.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected generated request id")
	}
}

func TestNew_WritesRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api.log")
	l, closer := New("production", path)
	l.Info("hello")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected log file: %v", err)
	}
	if l.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatalf("production logger should not emit debug")
	}
}
