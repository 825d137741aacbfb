package mpesa

import (
	"os"
	"time"
)

const (
	sandboxBaseURL    = "https://sandbox.safaricom.co.ke"
	productionBaseURL = "https://api.safaricom.co.ke"
)

type Config struct {
	// BaseURL of the Daraja API. Derived from MPESA_ENV unless set
	// explicitly (tests point it at a local server).
	BaseURL     string
	CallbackURL string
	Timeout     time.Duration

	// Platform-default credentials, used when a vendor has no active
	// override of its own.
	Defaults Credentials
}

// Credentials are the fully resolved provider credentials for one request.
// Resolution (platform default vs vendor override) is the caller's job;
// the client only ever sees concrete values.
type Credentials struct {
	ConsumerKey    string
	ConsumerSecret string
	ShortCode      string
	Passkey        string
	// AccountType selects the transaction variant: "PB" for pay-bill
	// accounts, anything else is treated as buy-goods.
	AccountType string
}

func ConfigFromEnv() Config {
	base := sandboxBaseURL
	if os.Getenv("MPESA_ENV") == "production" {
		base = productionBaseURL
	}

	return Config{
		BaseURL:     base,
		CallbackURL: os.Getenv("MPESA_CALLBACK_URL"),
		Timeout:     30 * time.Second,
		Defaults: Credentials{
			ConsumerKey:    os.Getenv("MPESA_CONSUMER_KEY"),
			ConsumerSecret: os.Getenv("MPESA_CONSUMER_SECRET"),
			ShortCode:      os.Getenv("MPESA_SHORTCODE"),
			Passkey:        os.Getenv("MPESA_PASSKEY"),
		},
	}
}
