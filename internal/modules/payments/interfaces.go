package payments

import (
	"context"

	"github.com/GITAKAYA254/vendorhub-connect/internal/mpesa"
)

// Ledger is what the orchestrator needs from payment persistence.
// Implementation: Repo.
type Ledger interface {
	Create(ctx context.Context, p *Payment, orderID string) error
	GetByID(ctx context.Context, id string) (Payment, *OrderPaymentLink, error)
	AttachCheckoutRequest(ctx context.Context, id, checkoutRequestID string, fragment map[string]any) error
	MarkFailed(ctx context.Context, id string, fragment map[string]any) error
}

// ReconcilerLedger is the reconciliation-side view of the same store.
// Implementation: Repo.
type ReconcilerLedger interface {
	FindPendingByCheckoutRequestID(ctx context.Context, token string) (Payment, error)
	Complete(ctx context.Context, id, transactionID string, fragment map[string]any) error
	MarkFailed(ctx context.Context, id string, fragment map[string]any) error
	RecordCallbackEvent(ctx context.Context, ev *CallbackEvent) (created bool, err error)
}

// CredentialStore resolves a vendor's active provider config.
// Implementation: paymentmethods.Service.
type CredentialStore interface {
	ActiveConfig(ctx context.Context, vendorID, methodType string) (config map[string]any, found bool, err error)
}

// Gateway submits push payments to the provider.
// Implementation: mpesa.Client.
type Gateway interface {
	StkPush(ctx context.Context, in mpesa.StkPushRequest) (mpesa.StkPushResponse, error)
}
