package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func guardedRouter(cfg CallbackGuardConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	l := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := gin.New()
	r.POST("/callback", CallbackGuard(l, cfg), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func TestCallbackGuard(t *testing.T) {
	post := func(r *gin.Engine, path string, header map[string]string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, path, nil)
		for k, v := range header {
			req.Header.Set(k, v)
		}
		r.ServeHTTP(w, req)
		return w
	}

	t.Run("no token configured passes through", func(t *testing.T) {
		r := guardedRouter(CallbackGuardConfig{})
		if w := post(r, "/callback", nil); w.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", w.Code)
		}
	})

	t.Run("missing token is rejected", func(t *testing.T) {
		r := guardedRouter(CallbackGuardConfig{Token: "s3cret"})
		if w := post(r, "/callback", nil); w.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", w.Code)
		}
	})

	t.Run("wrong token is rejected", func(t *testing.T) {
		r := guardedRouter(CallbackGuardConfig{Token: "s3cret"})
		if w := post(r, "/callback?token=wrong", nil); w.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", w.Code)
		}
	})

	t.Run("query token passes", func(t *testing.T) {
		r := guardedRouter(CallbackGuardConfig{Token: "s3cret"})
		if w := post(r, "/callback?token=s3cret", nil); w.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", w.Code)
		}
	})

	t.Run("bearer token passes", func(t *testing.T) {
		r := guardedRouter(CallbackGuardConfig{Token: "s3cret"})
		w := post(r, "/callback", map[string]string{"Authorization": "Bearer s3cret"})
		if w.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", w.Code)
		}
	})

	t.Run("bearer header wins over the query parameter", func(t *testing.T) {
		r := guardedRouter(CallbackGuardConfig{Token: "s3cret"})
		w := post(r, "/callback?token=s3cret", map[string]string{"Authorization": "Bearer wrong"})
		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", w.Code)
		}
	})

	t.Run("plaintext transport is rejected when HTTPS is required", func(t *testing.T) {
		r := guardedRouter(CallbackGuardConfig{Token: "s3cret", RequireHTTPS: true})
		w := post(r, "/callback?token=s3cret", nil)
		if w.Code != http.StatusForbidden {
			t.Errorf("expected 403, got %d", w.Code)
		}
	})

	t.Run("forwarded https satisfies the transport check", func(t *testing.T) {
		r := guardedRouter(CallbackGuardConfig{Token: "s3cret", RequireHTTPS: true})
		w := post(r, "/callback?token=s3cret", map[string]string{"X-Forwarded-Proto": "https"})
		if w.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", w.Code)
		}
	})
}
