package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GITAKAYA254/vendorhub-connect/internal/modules/payments"
)

func postCallback(t *testing.T, rec *fakeReconciler, body string) *httptest.ResponseRecorder {
	t.Helper()

	r := newTestRouter()
	h := NewCallbackHandler(discardLogger(), rec)
	r.POST("/api/payments/callback/mpesa", h.Mpesa)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/payments/callback/mpesa", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestCallbackHandler_Mpesa(t *testing.T) {
	t.Run("reconciled callback is acknowledged", func(t *testing.T) {
		rec := &fakeReconciler{Outcome: payments.OutcomeCompleted}
		w := postCallback(t, rec, `{"Body":{"stkCallback":{}}}`)

		require.Equal(t, http.StatusOK, w.Code)
		var resp map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, float64(0), resp["ResultCode"])
		assert.Equal(t, "Accepted", resp["ResultDesc"])
		assert.Equal(t, 1, rec.Calls)
		assert.JSONEq(t, `{"Body":{"stkCallback":{}}}`, string(rec.Last))
	})

	t.Run("no-match outcome still acknowledges", func(t *testing.T) {
		rec := &fakeReconciler{Outcome: payments.OutcomeNoMatch}
		w := postCallback(t, rec, `{"Body":{"stkCallback":{}}}`)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"Accepted"`)
	})

	t.Run("internal failure never leaks to the provider", func(t *testing.T) {
		rec := &fakeReconciler{Err: errBoom}
		w := postCallback(t, rec, `{"Body":{"stkCallback":{}}}`)

		require.Equal(t, http.StatusOK, w.Code)
		var resp map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, float64(0), resp["ResultCode"])
		assert.Equal(t, "Accepted with internal error", resp["ResultDesc"])
	})

	t.Run("malformed body is acknowledged, not rejected", func(t *testing.T) {
		rec := &fakeReconciler{Err: payments.ErrMalformedCallback}
		w := postCallback(t, rec, "not-json")

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Accepted with internal error")
	})
}
