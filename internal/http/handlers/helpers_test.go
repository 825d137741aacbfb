package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/GITAKAYA254/vendorhub-connect/internal/http/middleware"
	"github.com/GITAKAYA254/vendorhub-connect/internal/modules/paymentmethods"
	"github.com/GITAKAYA254/vendorhub-connect/internal/modules/payments"
	"github.com/GITAKAYA254/vendorhub-connect/internal/mpesa"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestRouter builds a bare engine with the error-rendering middleware, the
// same way the real router does, minus logging and recovery.
func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.ErrorHandler(discardLogger()))
	return r
}

// asUser injects an authenticated identity without going through the JWT
// middleware.
func asUser(userID, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.CtxKeyUserID, userID)
		c.Set(middleware.CtxKeyUserRole, role)
		c.Next()
	}
}

// fakeReconciler implements CallbackReconciler.
type fakeReconciler struct {
	Outcome payments.Outcome
	Err     error
	Calls   int
	Last    []byte
}

func (f *fakeReconciler) Reconcile(_ context.Context, body []byte) (payments.Outcome, error) {
	f.Calls++
	f.Last = body
	return f.Outcome, f.Err
}

// fakeMethods implements MethodsService.
type fakeMethods struct {
	Methods []paymentmethods.Method
	ListErr error
	DelErr  error

	mu       sync.Mutex
	Upserted []paymentmethods.UpsertInput
}

func (f *fakeMethods) ListActive(_ context.Context, _ string) ([]paymentmethods.Method, error) {
	return f.Methods, f.ListErr
}

func (f *fakeMethods) Upsert(_ context.Context, vendorID string, in paymentmethods.UpsertInput) (paymentmethods.Method, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Upserted = append(f.Upserted, in)
	return paymentmethods.Method{VendorID: vendorID, Type: in.Type, IsActive: true}, nil
}

func (f *fakeMethods) Delete(_ context.Context, _, _ string) error {
	return f.DelErr
}

// ledgerStub backs a real payments.Service in handler tests.
type ledgerStub struct {
	mu       sync.Mutex
	payments map[string]*payments.Payment
	links    map[string]*payments.OrderPaymentLink
}

func newLedgerStub() *ledgerStub {
	return &ledgerStub{
		payments: map[string]*payments.Payment{},
		links:    map[string]*payments.OrderPaymentLink{},
	}
}

func (l *ledgerStub) Create(_ context.Context, p *payments.Payment, orderID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	cp := *p
	l.payments[p.ID] = &cp
	l.links[p.ID] = &payments.OrderPaymentLink{OrderID: orderID, PaymentID: p.ID}
	return nil
}

func (l *ledgerStub) GetByID(_ context.Context, id string) (payments.Payment, *payments.OrderPaymentLink, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.payments[id]
	if !ok {
		return payments.Payment{}, nil, payments.ErrNotFound
	}
	return *p, l.links[id], nil
}

func (l *ledgerStub) AttachCheckoutRequest(_ context.Context, id, token string, _ map[string]any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.payments[id]
	if !ok {
		return payments.ErrNotFound
	}
	p.CheckoutRequestID = &token
	return nil
}

func (l *ledgerStub) MarkFailed(_ context.Context, id string, _ map[string]any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.payments[id]
	if !ok {
		return payments.ErrNotFound
	}
	p.Status = payments.StatusFailed
	return nil
}

type noOverrides struct{}

func (noOverrides) ActiveConfig(_ context.Context, _, _ string) (map[string]any, bool, error) {
	return nil, false, nil
}

type gatewayStub struct {
	Resp mpesa.StkPushResponse
	Err  error
}

func (g *gatewayStub) StkPush(_ context.Context, _ mpesa.StkPushRequest) (mpesa.StkPushResponse, error) {
	return g.Resp, g.Err
}

var errBoom = errors.New("boom")
