package payments

import "errors"

var (
	ErrNotFound            = errors.New("payment not found")
	ErrUnsupportedProvider = errors.New("payment provider not supported")
	ErrMalformedCallback   = errors.New("invalid callback body")
)
