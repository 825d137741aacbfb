package mpesa

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// Client talks to the Daraja (Lipa na M-Pesa Online) API. It exposes exactly
// two operations so the orchestrator stays provider-agnostic and tests can
// substitute a fake gateway without touching ledger logic.
type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
	}
}

func (c *Client) Defaults() Credentials { return c.cfg.Defaults }

type StkPushRequest struct {
	PhoneNumber string
	Amount      decimal.Decimal
	Reference   string
	Description string
	Credentials Credentials
}

type StkPushResponse struct {
	MerchantRequestID   string
	CheckoutRequestID   string
	ResponseCode        string
	ResponseDescription string
	CustomerMessage     string

	// Raw is the decoded provider response, kept for the ledger's metadata.
	Raw map[string]any
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

// GetAccessToken exchanges a consumer key/secret pair for a short-lived
// bearer token via the OAuth client-credentials endpoint.
func (c *Client) GetAccessToken(ctx context.Context, creds Credentials) (string, error) {
	if creds.ConsumerKey == "" || creds.ConsumerSecret == "" {
		return "", &AuthError{Err: errors.New("consumer key or secret missing")}
	}

	url := c.cfg.BaseURL + "/oauth/v1/generate?grant_type=client_credentials"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &AuthError{Err: err}
	}
	req.SetBasicAuth(creds.ConsumerKey, creds.ConsumerSecret)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &AuthError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &AuthError{Err: fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, bytes.TrimSpace(body))}
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", &AuthError{Err: fmt.Errorf("decode token response: %w", err)}
	}
	if tr.AccessToken == "" {
		return "", &AuthError{Err: errors.New("token response missing access_token")}
	}
	return tr.AccessToken, nil
}

// StkPush submits a push-payment request. The customer's phone is prompted
// for a PIN; the outcome arrives later on the callback URL.
func (c *Client) StkPush(ctx context.Context, in StkPushRequest) (StkPushResponse, error) {
	creds := in.Credentials

	token, err := c.GetAccessToken(ctx, creds)
	if err != nil {
		return StkPushResponse{}, err
	}

	timestamp := time.Now().Format("20060102150405")
	password := base64.StdEncoding.EncodeToString([]byte(creds.ShortCode + creds.Passkey + timestamp))

	transactionType := "CustomerBuyGoodsOnline"
	if creds.AccountType == "PB" {
		transactionType = "CustomerPayBillOnline"
	}

	description := in.Description
	if description == "" {
		description = "Payment for " + in.Reference
	}

	// Daraja requires integral amounts; always round up.
	payload := map[string]any{
		"BusinessShortCode": creds.ShortCode,
		"Password":          password,
		"Timestamp":         timestamp,
		"TransactionType":   transactionType,
		"Amount":            in.Amount.Ceil().IntPart(),
		"PartyA":            in.PhoneNumber,
		"PartyB":            creds.ShortCode,
		"PhoneNumber":       in.PhoneNumber,
		"CallBackURL":       c.cfg.CallbackURL,
		"AccountReference":  in.Reference,
		"TransactionDesc":   description,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return StkPushResponse{}, fmt.Errorf("mpesa: marshal stk payload: %w", err)
	}

	url := c.cfg.BaseURL + "/mpesa/stkpush/v1/processrequest"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return StkPushResponse{}, fmt.Errorf("mpesa: build stk request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return StkPushResponse{}, &RequestError{Message: err.Error()}
	}
	defer resp.Body.Close()

	raw := map[string]any{}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	decodeErr := dec.Decode(&raw)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := "STK Push failed"
		code := ""
		if decodeErr == nil {
			if m, ok := raw["errorMessage"].(string); ok && m != "" {
				msg = m
			}
			if cd, ok := raw["errorCode"].(string); ok {
				code = cd
			}
		}
		return StkPushResponse{}, &RequestError{Code: code, Message: msg}
	}
	if decodeErr != nil {
		return StkPushResponse{}, &RequestError{Message: "invalid provider response: " + decodeErr.Error()}
	}

	return StkPushResponse{
		MerchantRequestID:   stringField(raw, "MerchantRequestID"),
		CheckoutRequestID:   stringField(raw, "CheckoutRequestID"),
		ResponseCode:        stringField(raw, "ResponseCode"),
		ResponseDescription: stringField(raw, "ResponseDescription"),
		CustomerMessage:     stringField(raw, "CustomerMessage"),
		Raw:                 raw,
	}, nil
}

func stringField(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
