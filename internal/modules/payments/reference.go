package payments

import (
	"fmt"
	"time"
)

// NewReference derives the provider-facing account reference from the order
// id plus a short clock-derived suffix. The suffix disambiguates repeated
// attempts for the same order; uniqueness of the attempt itself comes from
// the payment's uuid, not from this string.
func NewReference(orderID string) string {
	millis := time.Now().UnixMilli()
	return fmt.Sprintf("ORD-%s-%04d", orderID, millis%10000)
}
