package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"gorm.io/datatypes"

	"github.com/GITAKAYA254/vendorhub-connect/internal/mpesa"
)

// Common test errors
var (
	errMockStore   = errors.New("mock store error")
	errMockGateway = errors.New("mock gateway error")
)

// fakeLedger implements Ledger and ReconcilerLedger in memory, mirroring the
// Repo's pending-guarded transitions and metadata merge.
type fakeLedger struct {
	mu       sync.Mutex
	payments map[string]*Payment
	orders   map[string]string // payment id -> order id
	events   map[string]*CallbackEvent

	CreateErr       error
	CreateCalls     int
	MarkFailedCalls int
	CompleteCalls   int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		payments: map[string]*Payment{},
		orders:   map[string]string{},
		events:   map[string]*CallbackEvent{},
	}
}

func (f *fakeLedger) Create(ctx context.Context, p *Payment, orderID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.CreateCalls++
	if f.CreateErr != nil {
		return f.CreateErr
	}
	cp := *p
	f.payments[p.ID] = &cp
	f.orders[p.ID] = orderID
	return nil
}

func (f *fakeLedger) GetByID(ctx context.Context, id string) (Payment, *OrderPaymentLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.payments[id]
	if !ok {
		return Payment{}, nil, ErrNotFound
	}
	link := &OrderPaymentLink{OrderID: f.orders[id], PaymentID: id}
	return *p, link, nil
}

func (f *fakeLedger) AttachCheckoutRequest(ctx context.Context, id, checkoutRequestID string, fragment map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.payments[id]
	if !ok {
		return ErrNotFound
	}
	p.CheckoutRequestID = &checkoutRequestID
	return mergeMeta(p, fragment)
}

func (f *fakeLedger) MarkFailed(ctx context.Context, id string, fragment map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.MarkFailedCalls++
	p, ok := f.payments[id]
	if !ok {
		return ErrNotFound
	}
	if p.Status != StatusPending {
		return nil
	}
	p.Status = StatusFailed
	return mergeMeta(p, fragment)
}

func (f *fakeLedger) Complete(ctx context.Context, id, transactionID string, fragment map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.CompleteCalls++
	p, ok := f.payments[id]
	if !ok {
		return ErrNotFound
	}
	if p.Status != StatusPending {
		return nil
	}
	p.Status = StatusCompleted
	p.TransactionID = &transactionID
	return mergeMeta(p, fragment)
}

func (f *fakeLedger) FindPendingByCheckoutRequestID(ctx context.Context, token string) (Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, p := range f.payments {
		if p.Status != StatusPending || p.CheckoutRequestID == nil {
			continue
		}
		if *p.CheckoutRequestID == token {
			return *p, nil
		}
	}
	return Payment{}, ErrNotFound
}

func (f *fakeLedger) RecordCallbackEvent(ctx context.Context, ev *CallbackEvent) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := fmt.Sprintf("%s|%s|%d", ev.Provider, ev.CheckoutRequestID, ev.ResultCode)
	if _, dup := f.events[key]; dup {
		return false, nil
	}
	f.events[key] = ev
	return true, nil
}

func (f *fakeLedger) get(id string) *Payment {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.payments[id]
}

func (f *fakeLedger) single() *Payment {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.payments {
		return p
	}
	return nil
}

func (f *fakeLedger) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.payments)
}

func mergeMeta(p *Payment, fragment map[string]any) error {
	merged := map[string]any{}
	if len(p.Metadata) > 0 {
		if err := json.Unmarshal(p.Metadata, &merged); err != nil {
			return err
		}
	}
	for k, v := range fragment {
		merged[k] = v
	}
	out, err := json.Marshal(merged)
	if err != nil {
		return err
	}
	p.Metadata = datatypes.JSON(out)
	return nil
}

func metaOf(p *Payment) map[string]any {
	out := map[string]any{}
	if p != nil && len(p.Metadata) > 0 {
		_ = json.Unmarshal(p.Metadata, &out)
	}
	return out
}

// fakeCredentialStore implements CredentialStore.
type fakeCredentialStore struct {
	Configs map[string]map[string]any // "vendorID|TYPE" -> config
	Err     error
	Calls   int
}

func (f *fakeCredentialStore) ActiveConfig(ctx context.Context, vendorID, methodType string) (map[string]any, bool, error) {
	f.Calls++
	if f.Err != nil {
		return nil, false, f.Err
	}
	cfg, ok := f.Configs[vendorID+"|"+methodType]
	return cfg, ok, nil
}

// fakeGateway implements Gateway.
type fakeGateway struct {
	Resp    mpesa.StkPushResponse
	Err     error
	Calls   int
	LastReq mpesa.StkPushRequest
}

func (f *fakeGateway) StkPush(ctx context.Context, in mpesa.StkPushRequest) (mpesa.StkPushResponse, error) {
	f.Calls++
	f.LastReq = in
	if f.Err != nil {
		return mpesa.StkPushResponse{}, f.Err
	}
	return f.Resp, nil
}
