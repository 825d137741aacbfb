package payments

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

const ProviderMpesa = "mpesa"

// Payment is one attempt to collect money for an order. Rows are created in
// pending state and mutated at most twice: once to attach the provider's
// checkout request id after submission, once to a terminal state. Never
// deleted.
type Payment struct {
	ID       string          `gorm:"type:char(36);primaryKey" json:"id"`
	UserID   string          `gorm:"type:char(36);not null;index:ix_payments_user_id" json:"userId"`
	Amount   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Provider string          `gorm:"type:varchar(32);not null" json:"provider"`
	Status   string          `gorm:"type:varchar(16);not null;index:ix_payments_status" json:"status"`

	// Reference is the human-traceable account reference sent to the
	// provider, derived from the order id.
	Reference string `gorm:"type:varchar(64);not null" json:"reference"`

	// CheckoutRequestID is the provider-issued correlation token, echoed
	// back in the asynchronous callback. Indexed so reconciliation is an
	// equality lookup, not a JSON scan. Nil until the push is accepted.
	CheckoutRequestID *string `gorm:"type:varchar(64);index:ix_payments_checkout_request_id" json:"checkoutRequestId"`

	// TransactionID is the provider receipt, set only on completion.
	TransactionID *string `gorm:"type:varchar(64)" json:"transactionId"`

	// Metadata collects provider request/response fragments, the owning
	// vendor id and failure diagnostics. Merged into, never replaced.
	Metadata datatypes.JSON `gorm:"type:json" json:"metadata"`

	CreatedAt time.Time `gorm:"type:datetime(3);not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"type:datetime(3);not null" json:"updatedAt"`
}

func (Payment) TableName() string { return "payments" }

// IsTerminal reports whether no further status transition is allowed.
func (p Payment) IsTerminal() bool {
	return p.Status == StatusCompleted || p.Status == StatusFailed
}

// OrderPaymentLink ties a payment to the order it pays for. Orders live in
// the order-management system; only the link is kept here.
type OrderPaymentLink struct {
	ID        string    `gorm:"type:char(36);primaryKey" json:"id"`
	OrderID   string    `gorm:"type:char(36);not null;index:ix_order_payment_links_order_id" json:"orderId"`
	PaymentID string    `gorm:"type:char(36);not null;uniqueIndex:ux_order_payment_links_payment_id" json:"paymentId"`
	CreatedAt time.Time `gorm:"type:datetime(3);not null" json:"createdAt"`
}

func (OrderPaymentLink) TableName() string { return "order_payment_links" }

// CallbackEvent is the audit row for every callback the provider delivers,
// matched or not. The unique index flags exact redeliveries.
type CallbackEvent struct {
	ID                string         `gorm:"type:char(36);primaryKey"`
	Provider          string         `gorm:"type:varchar(32);not null;uniqueIndex:ux_callback_events_dedupe,priority:1"`
	CheckoutRequestID string         `gorm:"type:varchar(64);not null;uniqueIndex:ux_callback_events_dedupe,priority:2"`
	ResultCode        int            `gorm:"not null;uniqueIndex:ux_callback_events_dedupe,priority:3"`
	ResultDesc        string         `gorm:"type:varchar(255);not null"`
	PayloadJSON       datatypes.JSON `gorm:"type:json;not null"`
	PaymentID         *string        `gorm:"type:char(36)"`
	ReceivedAt        time.Time      `gorm:"type:datetime(3);not null"`
}

func (CallbackEvent) TableName() string { return "callback_events" }
