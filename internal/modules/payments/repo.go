package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repo is the gorm-backed ledger. It is the single serialization point for
// payment state; all coordination between the orchestrator and the
// reconciler happens through these rows.
type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

// Create writes the pending payment and its order link in one transaction.
// This happens before the gateway call, so a crash mid-initiation still
// leaves an auditable pending record.
func (r *Repo) Create(ctx context.Context, p *Payment, orderID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			return err
		}
		link := OrderPaymentLink{
			ID:        uuid.NewString(),
			OrderID:   orderID,
			PaymentID: p.ID,
			CreatedAt: p.CreatedAt,
		}
		return tx.Create(&link).Error
	})
}

func (r *Repo) GetByID(ctx context.Context, id string) (Payment, *OrderPaymentLink, error) {
	var p Payment
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Payment{}, nil, ErrNotFound
		}
		return Payment{}, nil, err
	}

	var link OrderPaymentLink
	err := r.db.WithContext(ctx).First(&link, "payment_id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return p, nil, nil
		}
		return Payment{}, nil, err
	}
	return p, &link, nil
}

// FindPendingByCheckoutRequestID is the reconciliation lookup: an indexed
// equality match that only considers rows still in pending state. Terminal
// rows are invisible here, which is what makes duplicate callbacks a no-op.
func (r *Repo) FindPendingByCheckoutRequestID(ctx context.Context, token string) (Payment, error) {
	var p Payment
	err := r.db.WithContext(ctx).
		First(&p, "checkout_request_id = ? AND status = ?", token, StatusPending).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Payment{}, ErrNotFound
		}
		return Payment{}, err
	}
	return p, nil
}

// AttachCheckoutRequest stores the provider's correlation token on the row
// and merges the raw submission response into metadata. Status stays
// pending; only the callback finalizes it.
func (r *Repo) AttachCheckoutRequest(ctx context.Context, id, checkoutRequestID string, fragment map[string]any) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		merged, err := mergedMetadata(ctx, tx, id, fragment)
		if err != nil {
			return err
		}
		return tx.Model(&Payment{}).
			Where("id = ?", id).
			Updates(map[string]any{
				"checkout_request_id": checkoutRequestID,
				"metadata":            merged,
				"updated_at":          time.Now(),
			}).Error
	})
}

// MarkFailed transitions a pending row to failed and merges the failure
// diagnostics. Rows already terminal are left untouched.
func (r *Repo) MarkFailed(ctx context.Context, id string, fragment map[string]any) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		merged, err := mergedMetadata(ctx, tx, id, fragment)
		if err != nil {
			return err
		}
		return tx.Model(&Payment{}).
			Where("id = ? AND status = ?", id, StatusPending).
			Updates(map[string]any{
				"status":     StatusFailed,
				"metadata":   merged,
				"updated_at": time.Now(),
			}).Error
	})
}

// Complete transitions a pending row to completed with the provider receipt.
// The status predicate on the update makes a racing duplicate a zero-row
// write instead of a double transition.
func (r *Repo) Complete(ctx context.Context, id, transactionID string, fragment map[string]any) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		merged, err := mergedMetadata(ctx, tx, id, fragment)
		if err != nil {
			return err
		}
		return tx.Model(&Payment{}).
			Where("id = ? AND status = ?", id, StatusPending).
			Updates(map[string]any{
				"status":         StatusCompleted,
				"transaction_id": transactionID,
				"metadata":       merged,
				"updated_at":     time.Now(),
			}).Error
	})
}

// RecordCallbackEvent persists the raw callback for audit. Returns false
// when the exact same delivery was already recorded.
func (r *Repo) RecordCallbackEvent(ctx context.Context, ev *CallbackEvent) (bool, error) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.ReceivedAt.IsZero() {
		ev.ReceivedAt = time.Now()
	}
	if err := r.db.WithContext(ctx).Create(ev).Error; err != nil {
		if isDup(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// mergedMetadata loads the row under lock and overlays fragment onto the
// existing metadata bag. Existing keys not present in fragment survive.
func mergedMetadata(ctx context.Context, tx *gorm.DB, id string, fragment map[string]any) (datatypes.JSON, error) {
	var p Payment
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	merged := map[string]any{}
	if len(p.Metadata) > 0 {
		if err := json.Unmarshal(p.Metadata, &merged); err != nil {
			return nil, fmt.Errorf("decode metadata for payment %s: %w", id, err)
		}
	}
	for k, v := range fragment {
		merged[k] = v
	}

	out, err := json.Marshal(merged)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(out), nil
}

func isDup(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
