package main

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
)

// Fires a synthetic Daraja STK callback at a dev server, so the
// reconciliation path can be exercised without the real provider.

type stkCallback struct {
	MerchantRequestID string            `json:"MerchantRequestID"`
	CheckoutRequestID string            `json:"CheckoutRequestID"`
	ResultCode        int               `json:"ResultCode"`
	ResultDesc        string            `json:"ResultDesc"`
	CallbackMetadata  *callbackMetadata `json:"CallbackMetadata,omitempty"`
}

type callbackMetadata struct {
	Item []callbackItem `json:"Item"`
}

type callbackItem struct {
	Name  string `json:"Name"`
	Value any    `json:"Value,omitempty"`
}

func main() {
	url := flag.String("url", "http://localhost:8080/api/payments/callback/mpesa", "Callback URL")
	token := flag.String("token", os.Getenv("MPESA_CALLBACK_TOKEN"), "Shared callback token (empty to send none)")
	checkoutID := flag.String("checkout-id", "ws_CO_"+randomHex(8), "CheckoutRequestID to reconcile")
	resultCode := flag.Int("result-code", 0, "ResultCode (0 = success)")
	resultDesc := flag.String("result-desc", "The service request is processed successfully.", "ResultDesc")
	receipt := flag.String("receipt", "NLJ"+randomHex(4), "MpesaReceiptNumber (success only)")
	amount := flag.Float64("amount", 1001, "Amount item value (success only)")
	phone := flag.String("phone", "254712345678", "PhoneNumber item value (success only)")
	dryRun := flag.Bool("dry-run", false, "Only print the payload, don't send")

	flag.Parse()

	cb := stkCallback{
		MerchantRequestID: "mock-" + randomHex(6),
		CheckoutRequestID: *checkoutID,
		ResultCode:        *resultCode,
		ResultDesc:        *resultDesc,
	}
	if *resultCode == 0 {
		cb.CallbackMetadata = &callbackMetadata{Item: []callbackItem{
			{Name: "Amount", Value: *amount},
			{Name: "MpesaReceiptNumber", Value: *receipt},
			{Name: "PhoneNumber", Value: *phone},
		}}
	}

	payload := map[string]any{
		"Body": map[string]any{"stkCallback": cb},
	}

	body, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling payload: %v\n", err)
		os.Exit(1)
	}

	if *dryRun {
		fmt.Println(string(body))
		return
	}

	req, err := http.NewRequest(http.MethodPost, *url, bytes.NewReader(body))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building request: %v\n", err)
		os.Exit(1)
	}
	req.Header.Set("Content-Type", "application/json")
	if *token != "" {
		req.Header.Set("Authorization", "Bearer "+*token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error sending callback: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	fmt.Printf("%s\n%s\n", resp.Status, respBody)
}

func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "deadbeef"
	}
	return hex.EncodeToString(b)
}
