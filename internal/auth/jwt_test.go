package auth

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

func TestNewVerifierDisabledWithoutSecret(t *testing.T) {
	if v := NewVerifier(""); v != nil {
		t.Error("expected nil verifier for an empty secret")
	}
}

func TestVerify(t *testing.T) {
	v := NewVerifier("s3cret")
	good, err := v.Issue("Alice", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	expired, _ := v.Issue("Alice", -time.Minute)
	other, _ := NewVerifier("different").Issue("Alice", time.Minute)
	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "Alice"}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name     string
		token    string
		username string
		ok       bool
	}{
		{"valid", good, "Alice", true},
		{"wrong subject", good, "Bob", false},
		{"expired", expired, "Alice", false},
		{"wrong secret", other, "Alice", false},
		{"alg none", none, "Alice", false},
		{"missing", "", "Alice", false},
		{"garbage", "not.a.token", "Alice", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Verify(tt.token, tt.username)
			if tt.ok && err != nil {
				t.Errorf("expected success, got %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrUnauthorized) {
				t.Errorf("expected ErrUnauthorized, got %v", err)
			}
		})
	}
}

func TestTokenFromRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/v1/ws?token=abc", nil)
	if got := TokenFromRequest(r); got != "abc" {
		t.Errorf("query token: got %q", got)
	}

	r = httptest.NewRequest("GET", "/api/v1/ws", nil)
	r.Header.Set("Authorization", "Bearer xyz")
	if got := TokenFromRequest(r); got != "xyz" {
		t.Errorf("header token: got %q", got)
	}

	r = httptest.NewRequest("GET", "/api/v1/ws", nil)
	if got := TokenFromRequest(r); got != "" {
		t.Errorf("expected empty token, got %q", got)
	}
}
