package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GITAKAYA254/vendorhub-connect/internal/http/middleware"
	"github.com/GITAKAYA254/vendorhub-connect/internal/http/validation"
	"github.com/GITAKAYA254/vendorhub-connect/internal/modules/paymentmethods"
	"github.com/GITAKAYA254/vendorhub-connect/internal/shared/apperr"
)

// MethodsService is what this handler needs from the credential store.
// Implementation: paymentmethods.Service.
type MethodsService interface {
	ListActive(ctx context.Context, vendorID string) ([]paymentmethods.Method, error)
	Upsert(ctx context.Context, vendorID string, in paymentmethods.UpsertInput) (paymentmethods.Method, error)
	Delete(ctx context.Context, vendorID, methodType string) error
}

type PaymentMethodsHandler struct {
	Logger *slog.Logger
	Svc    MethodsService
}

func NewPaymentMethodsHandler(logger *slog.Logger, svc MethodsService) *PaymentMethodsHandler {
	return &PaymentMethodsHandler{Logger: logger, Svc: svc}
}

// GET /api/payment-methods
// Vendor self-service: full configs, secrets included.
func (h *PaymentMethodsHandler) ListMine(c *gin.Context) {
	vendorID, _, ok := middleware.CurrentUser(c)
	if !ok {
		middleware.Fail(c, apperr.UnauthorizedErr("Authentication required."))
		return
	}

	methods, err := h.Svc.ListActive(c.Request.Context(), vendorID)
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"methods": methods})
}

// GET /api/payment-methods/vendor/:vendorId
// Public checkout lookup: type and activation flag only, secrets never
// leave the boundary here.
func (h *PaymentMethodsHandler) PublicList(c *gin.Context) {
	methods, err := h.Svc.ListActive(c.Request.Context(), c.Param("vendorId"))
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"methods": paymentmethods.Sanitize(methods)})
}

type upsertMethodRequest struct {
	Type     string         `json:"type" binding:"required"`
	Config   map[string]any `json:"config" binding:"required"`
	IsActive *bool          `json:"isActive"`
}

// POST /api/payment-methods
func (h *PaymentMethodsHandler) Upsert(c *gin.Context) {
	vendorID, _, ok := middleware.CurrentUser(c)
	if !ok {
		middleware.Fail(c, apperr.UnauthorizedErr("Authentication required."))
		return
	}

	var req upsertMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Fail(c, apperr.InvalidErr(
			"Missing required fields: type, config",
			validation.FromBindError(err, &req),
		))
		return
	}

	method, err := h.Svc.Upsert(c.Request.Context(), vendorID, paymentmethods.UpsertInput{
		Type:     req.Type,
		Config:   req.Config,
		IsActive: req.IsActive,
	})
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"method": method})
}

// DELETE /api/payment-methods/:type
func (h *PaymentMethodsHandler) Remove(c *gin.Context) {
	vendorID, _, ok := middleware.CurrentUser(c)
	if !ok {
		middleware.Fail(c, apperr.UnauthorizedErr("Authentication required."))
		return
	}

	err := h.Svc.Delete(c.Request.Context(), vendorID, c.Param("type"))
	if err != nil {
		if errors.Is(err, paymentmethods.ErrNotFound) {
			middleware.Fail(c, apperr.NotFoundErr("Payment method not found."))
			return
		}
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Payment method removed"})
}
