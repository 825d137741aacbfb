package payments

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/GITAKAYA254/vendorhub-connect/internal/auth"
	"github.com/GITAKAYA254/vendorhub-connect/internal/mpesa"
)

var (
	ErrMissingFields = errors.New("missing required fields: amount, phoneNumber, orderId")
	ErrForbidden     = errors.New("forbidden")
)

const (
	credentialSourceVendor   = "vendor"
	credentialSourcePlatform = "platform"
)

// Service is the request-facing orchestrator: it resolves credentials,
// writes the pending ledger entry, calls the gateway and records the
// outcome.
type Service struct {
	ledger   Ledger
	creds    CredentialStore
	gateway  Gateway
	defaults mpesa.Credentials
	logger   *slog.Logger
}

func NewService(ledger Ledger, creds CredentialStore, gateway Gateway, defaults mpesa.Credentials) *Service {
	return &Service{
		ledger:   ledger,
		creds:    creds,
		gateway:  gateway,
		defaults: defaults,
		logger:   slog.Default(),
	}
}

func (s *Service) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

type InitiateInput struct {
	Amount      decimal.Decimal
	PhoneNumber string
	OrderID     string
	VendorID    string // optional; selects the vendor's credential override
	Provider    string // defaults to mpesa
}

type InitiateResult struct {
	Payment          Payment
	ProviderResponse map[string]any
}

// Initiate runs one payment attempt. The pending ledger entry is written
// before the gateway is called; a gateway failure flips it to failed and the
// error propagates to the caller. Success leaves the record pending with the
// correlation token attached — only the provider callback finalizes it.
func (s *Service) Initiate(ctx context.Context, userID string, in InitiateInput) (InitiateResult, error) {
	if !in.Amount.IsPositive() || in.PhoneNumber == "" || in.OrderID == "" {
		return InitiateResult{}, ErrMissingFields
	}

	provider := strings.ToLower(in.Provider)
	if provider == "" {
		provider = ProviderMpesa
	}
	if provider != ProviderMpesa {
		return InitiateResult{}, ErrUnsupportedProvider
	}

	creds, source, err := s.resolveCredentials(ctx, in.VendorID, provider)
	if err != nil {
		return InitiateResult{}, err
	}

	now := time.Now()
	meta := map[string]any{"credentialSource": source}
	if in.VendorID != "" {
		meta["vendorId"] = in.VendorID
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return InitiateResult{}, err
	}

	p := Payment{
		ID:        uuid.NewString(),
		UserID:    userID,
		Amount:    in.Amount,
		Provider:  provider,
		Status:    StatusPending,
		Reference: NewReference(in.OrderID),
		Metadata:  datatypes.JSON(metaJSON),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.ledger.Create(ctx, &p, in.OrderID); err != nil {
		return InitiateResult{}, err
	}

	resp, gwErr := s.gateway.StkPush(ctx, mpesa.StkPushRequest{
		PhoneNumber: in.PhoneNumber,
		Amount:      in.Amount,
		Reference:   p.Reference,
		Description: "Order " + in.OrderID,
		Credentials: creds,
	})
	if gwErr != nil {
		s.logger.ErrorContext(ctx, "stk push failed",
			"payment_id", p.ID, "order_id", in.OrderID, "err", gwErr)
		if err := s.ledger.MarkFailed(ctx, p.ID, map[string]any{"error": gwErr.Error()}); err != nil {
			s.logger.ErrorContext(ctx, "failed to record initiation failure",
				"payment_id", p.ID, "err", err)
		}
		return InitiateResult{}, gwErr
	}

	if err := s.ledger.AttachCheckoutRequest(ctx, p.ID, resp.CheckoutRequestID, resp.Raw); err != nil {
		return InitiateResult{}, err
	}

	s.logger.InfoContext(ctx, "stk push submitted",
		"payment_id", p.ID, "order_id", in.OrderID,
		"checkout_request_id", resp.CheckoutRequestID,
		"credential_source", source)

	p.CheckoutRequestID = &resp.CheckoutRequestID
	return InitiateResult{Payment: p, ProviderResponse: resp.Raw}, nil
}

// resolveCredentials reads the vendor's override once at the start of the
// attempt; in-flight payments keep this snapshot even if the vendor edits
// the row concurrently. Inactive or missing overrides fall back to the
// platform defaults per field, the way the provider configs are stored.
func (s *Service) resolveCredentials(ctx context.Context, vendorID, provider string) (mpesa.Credentials, string, error) {
	creds := s.defaults
	if vendorID == "" {
		return creds, credentialSourcePlatform, nil
	}

	cfg, found, err := s.creds.ActiveConfig(ctx, vendorID, strings.ToUpper(provider))
	if err != nil {
		return mpesa.Credentials{}, "", err
	}
	if !found {
		return creds, credentialSourcePlatform, nil
	}

	if v, ok := cfg["shortCode"].(string); ok && v != "" {
		creds.ShortCode = v
	}
	if v, ok := cfg["passkey"].(string); ok && v != "" {
		creds.Passkey = v
	}
	// API key pair only overrides as a pair; a shortcode-only config keeps
	// authenticating with the platform keys.
	key, _ := cfg["consumerKey"].(string)
	secret, _ := cfg["consumerSecret"].(string)
	if key != "" && secret != "" {
		creds.ConsumerKey = key
		creds.ConsumerSecret = secret
	}
	if v, ok := cfg["type"].(string); ok && v != "" {
		creds.AccountType = v
	}

	return creds, credentialSourceVendor, nil
}

// GetStatus returns one payment with its order link. Only the paying user
// and administrators may read it.
func (s *Service) GetStatus(ctx context.Context, actorUserID, actorRole, paymentID string) (Payment, *OrderPaymentLink, error) {
	p, link, err := s.ledger.GetByID(ctx, paymentID)
	if err != nil {
		return Payment{}, nil, err
	}
	if p.UserID != actorUserID && actorRole != auth.RoleAdmin {
		return Payment{}, nil, ErrForbidden
	}
	return p, link, nil
}
