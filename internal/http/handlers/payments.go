package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/GITAKAYA254/vendorhub-connect/internal/http/middleware"
	"github.com/GITAKAYA254/vendorhub-connect/internal/http/validation"
	"github.com/GITAKAYA254/vendorhub-connect/internal/modules/payments"
	"github.com/GITAKAYA254/vendorhub-connect/internal/mpesa"
	"github.com/GITAKAYA254/vendorhub-connect/internal/shared/apperr"
)

type PaymentsHandler struct {
	Logger *slog.Logger
	Svc    *payments.Service
}

func NewPaymentsHandler(logger *slog.Logger, svc *payments.Service) *PaymentsHandler {
	return &PaymentsHandler{Logger: logger, Svc: svc}
}

type initiateRequest struct {
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	PhoneNumber string          `json:"phoneNumber" binding:"required"`
	OrderID     string          `json:"orderId" binding:"required"`
	VendorID    string          `json:"vendorId"`
	Provider    string          `json:"provider"`
}

// POST /api/payments/initiate
func (h *PaymentsHandler) Initiate(c *gin.Context) {
	userID, _, ok := middleware.CurrentUser(c)
	if !ok {
		middleware.Fail(c, apperr.UnauthorizedErr("Authentication required."))
		return
	}

	var req initiateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Fail(c, apperr.InvalidErr(
			"Missing required fields: amount, phoneNumber, orderId",
			validation.FromBindError(err, &req),
		))
		return
	}

	result, err := h.Svc.Initiate(c.Request.Context(), userID, payments.InitiateInput{
		Amount:      req.Amount,
		PhoneNumber: req.PhoneNumber,
		OrderID:     req.OrderID,
		VendorID:    req.VendorID,
		Provider:    req.Provider,
	})
	if err != nil {
		middleware.Fail(c, mapPaymentError(err))
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"payment":          result.Payment,
		"providerResponse": result.ProviderResponse,
	})
}

// GET /api/payments/:id
func (h *PaymentsHandler) Status(c *gin.Context) {
	userID, role, ok := middleware.CurrentUser(c)
	if !ok {
		middleware.Fail(c, apperr.UnauthorizedErr("Authentication required."))
		return
	}

	p, link, err := h.Svc.GetStatus(c.Request.Context(), userID, role, c.Param("id"))
	if err != nil {
		middleware.Fail(c, mapPaymentError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"payment":          p,
		"orderPaymentLink": link,
	})
}

func mapPaymentError(err error) error {
	var authErr *mpesa.AuthError
	var reqErr *mpesa.RequestError

	switch {
	case errors.Is(err, payments.ErrMissingFields):
		return apperr.InvalidErr("Missing required fields: amount, phoneNumber, orderId", nil)
	case errors.Is(err, payments.ErrUnsupportedProvider):
		return apperr.InvalidErr("Payment provider not supported yet.", nil)
	case errors.Is(err, payments.ErrNotFound):
		return apperr.NotFoundErr("Payment not found.")
	case errors.Is(err, payments.ErrForbidden):
		return apperr.ForbiddenErr("You may not view this payment.")
	case errors.As(err, &authErr):
		return apperr.Gateway("Failed to get M-Pesa access token. Check credentials.", err)
	case errors.As(err, &reqErr):
		return apperr.Gateway(reqErr.Message, err)
	default:
		return apperr.Wrap(err)
	}
}
