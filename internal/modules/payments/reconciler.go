package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Daraja STK callback envelope. Everything the provider sends arrives under
// Body.stkCallback.
type callbackEnvelope struct {
	Body struct {
		StkCallback *StkCallback `json:"stkCallback"`
	} `json:"Body"`
}

type StkCallback struct {
	MerchantRequestID string            `json:"MerchantRequestID"`
	CheckoutRequestID string            `json:"CheckoutRequestID"`
	ResultCode        int               `json:"ResultCode"`
	ResultDesc        string            `json:"ResultDesc"`
	CallbackMetadata  *CallbackMetadata `json:"CallbackMetadata,omitempty"`
}

type CallbackMetadata struct {
	Item []CallbackItem `json:"Item"`
}

type CallbackItem struct {
	Name  string `json:"Name"`
	Value any    `json:"Value,omitempty"`
}

const receiptItemName = "MpesaReceiptNumber"

// ParseCallback validates the structural envelope. A missing stkCallback is
// a parse error, distinct from "no match found".
func ParseCallback(body []byte) (*StkCallback, error) {
	var env callbackEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCallback, err)
	}
	if env.Body.StkCallback == nil {
		return nil, ErrMalformedCallback
	}
	return env.Body.StkCallback, nil
}

// Outcome of one reconciliation run, for internal logging. The HTTP
// boundary acknowledges the provider identically in every case.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
	OutcomeNoMatch   Outcome = "no_match"
)

// Reconciler correlates asynchronous provider callbacks to pending ledger
// entries and applies their terminal outcome.
type Reconciler struct {
	ledger ReconcilerLedger
	logger *slog.Logger
}

func NewReconciler(ledger ReconcilerLedger) *Reconciler {
	return &Reconciler{ledger: ledger, logger: slog.Default()}
}

func (r *Reconciler) SetLogger(logger *slog.Logger) {
	r.logger = logger
}

// Reconcile processes one raw callback body. Only a structurally invalid
// payload returns an error; business-level mismatches (unknown token,
// already-terminal record, redelivery) resolve to OutcomeNoMatch. The
// match predicate is "token equals AND still pending", so running the same
// callback twice applies the transition exactly once.
func (r *Reconciler) Reconcile(ctx context.Context, body []byte) (Outcome, error) {
	cb, err := ParseCallback(body)
	if err != nil {
		return "", err
	}

	r.recordEvent(ctx, cb, body)

	p, err := r.ledger.FindPendingByCheckoutRequestID(ctx, cb.CheckoutRequestID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			r.logger.InfoContext(ctx, "callback matched no pending payment",
				"checkout_request_id", cb.CheckoutRequestID,
				"result_code", cb.ResultCode)
			return OutcomeNoMatch, nil
		}
		return "", err
	}

	if cb.ResultCode == 0 {
		receipt := receiptFromItems(cb.CallbackMetadata)
		if err := r.ledger.Complete(ctx, p.ID, receipt, map[string]any{"callback": cb}); err != nil {
			return "", err
		}
		r.logger.InfoContext(ctx, "payment completed",
			"payment_id", p.ID, "transaction_id", receipt,
			"checkout_request_id", cb.CheckoutRequestID)
		return OutcomeCompleted, nil
	}

	err = r.ledger.MarkFailed(ctx, p.ID, map[string]any{
		"callback":      cb,
		"failureReason": cb.ResultDesc,
	})
	if err != nil {
		return "", err
	}
	r.logger.InfoContext(ctx, "payment failed by provider",
		"payment_id", p.ID,
		"checkout_request_id", cb.CheckoutRequestID,
		"result_code", cb.ResultCode,
		"result_desc", cb.ResultDesc)
	return OutcomeFailed, nil
}

// recordEvent keeps the audit trail of every delivery. Failures here are
// logged and swallowed; the audit log must never block reconciliation.
func (r *Reconciler) recordEvent(ctx context.Context, cb *StkCallback, body []byte) {
	created, err := r.ledger.RecordCallbackEvent(ctx, &CallbackEvent{
		ID:                uuid.NewString(),
		Provider:          ProviderMpesa,
		CheckoutRequestID: cb.CheckoutRequestID,
		ResultCode:        cb.ResultCode,
		ResultDesc:        cb.ResultDesc,
		PayloadJSON:       datatypes.JSON(body),
		ReceivedAt:        time.Now(),
	})
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to persist callback event",
			"checkout_request_id", cb.CheckoutRequestID, "err", err)
		return
	}
	if !created {
		r.logger.InfoContext(ctx, "duplicate callback delivery",
			"checkout_request_id", cb.CheckoutRequestID,
			"result_code", cb.ResultCode)
	}
}

// receiptFromItems extracts the provider receipt from the nested item list.
// Values arrive as strings or numbers depending on the field.
func receiptFromItems(meta *CallbackMetadata) string {
	if meta == nil {
		return ""
	}
	for _, item := range meta.Item {
		if item.Name != receiptItemName {
			continue
		}
		switch v := item.Value.(type) {
		case string:
			return v
		case json.Number:
			return v.String()
		case float64:
			return fmt.Sprintf("%.0f", v)
		}
	}
	return ""
}
