package auth

import "testing"

func TestTokenRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := CreateToken("user123", RoleVendor)
	if err != nil {
		t.Fatalf("CreateToken failed: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.UserID != "user123" {
		t.Errorf("expected user123, got %q", claims.UserID)
	}
	if claims.Role != RoleVendor {
		t.Errorf("expected role %s, got %q", RoleVendor, claims.Role)
	}
}

func TestValidateToken_WrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	token, err := CreateToken("user123", RoleUser)
	if err != nil {
		t.Fatalf("CreateToken failed: %v", err)
	}

	t.Setenv("JWT_SECRET", "rotated")
	if _, err := ValidateToken(token); err == nil {
		t.Error("token signed with the old secret must not validate")
	}
}

func TestValidateToken_Garbage(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	if _, err := ValidateToken("not-a-jwt"); err == nil {
		t.Error("expected an error for a malformed token")
	}
}
