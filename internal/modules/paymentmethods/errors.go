package paymentmethods

import "errors"

var ErrNotFound = errors.New("payment method not found")
