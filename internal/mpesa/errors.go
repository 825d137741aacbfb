package mpesa

import "fmt"

// AuthError means the access-token exchange failed (bad credentials, network
// error, non-2xx). Callers must not retry; the initiation fails.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("mpesa: failed to get access token: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// RequestError carries the provider's rejection of a push request.
type RequestError struct {
	Code    string
	Message string
}

func (e *RequestError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("mpesa: stk push rejected (%s): %s", e.Code, e.Message)
	}
	return "mpesa: stk push rejected: " + e.Message
}
