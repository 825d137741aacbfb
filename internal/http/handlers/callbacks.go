package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GITAKAYA254/vendorhub-connect/internal/modules/payments"
)

// CallbackReconciler is what this handler needs from the reconciliation
// core. Implementation: payments.Reconciler.
type CallbackReconciler interface {
	Reconcile(ctx context.Context, body []byte) (payments.Outcome, error)
}

type CallbackHandler struct {
	Logger     *slog.Logger
	Reconciler CallbackReconciler
}

func NewCallbackHandler(logger *slog.Logger, rec CallbackReconciler) *CallbackHandler {
	return &CallbackHandler{Logger: logger, Reconciler: rec}
}

// POST /api/payments/callback/mpesa
// The provider retries the webhook on any non-200 response, so this
// endpoint acknowledges unconditionally. Internal outcome lands in the logs
// and the ledger, never in the response.
func (h *CallbackHandler) Mpesa(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.Logger.ErrorContext(c.Request.Context(), "mpesa callback: read body failed", "err", err)
		c.JSON(http.StatusOK, gin.H{"ResultCode": 0, "ResultDesc": "Accepted with internal error"})
		return
	}

	outcome, err := h.Reconciler.Reconcile(c.Request.Context(), body)
	if err != nil {
		h.Logger.ErrorContext(c.Request.Context(), "mpesa callback: reconcile failed", "err", err)
		c.JSON(http.StatusOK, gin.H{"ResultCode": 0, "ResultDesc": "Accepted with internal error"})
		return
	}

	h.Logger.InfoContext(c.Request.Context(), "mpesa callback processed", "outcome", string(outcome))
	c.JSON(http.StatusOK, gin.H{"ResultCode": 0, "ResultDesc": "Accepted"})
}
