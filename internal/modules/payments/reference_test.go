package payments

import (
	"regexp"
	"strings"
	"testing"
)

func TestNewReference(t *testing.T) {
	ref := NewReference("order123")

	if !strings.HasPrefix(ref, "ORD-order123-") {
		t.Errorf("reference %q must be prefixed by the order id", ref)
	}
	if !regexp.MustCompile(`^ORD-order123-\d{4}$`).MatchString(ref) {
		t.Errorf("reference %q must end in a 4-digit suffix", ref)
	}
}
