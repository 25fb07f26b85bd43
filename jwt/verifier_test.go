package jwtkit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/connelaide/connelaide-api/authtest"
)

const testAudience = "https://api.connelaide.com"

func newTestVerifier(t *testing.T, iss *authtest.Issuer) *Verifier {
	t.Helper()
	v, err := NewVerifier(Options{
		JWKSURL:  iss.JWKSURL(),
		Issuer:   iss.URL(),
		Audience: iss.Audience(),
		Skew:     2 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewVerifier: %v", err)
	}
	return v
}

func TestVerifyValidToken(t *testing.T) {
	iss := authtest.NewIssuer(testAudience)
	defer iss.Close()
	v := newTestVerifier(t, iss)

	id, err := v.Verify(context.Background(), iss.CreateToken("auth0|user-123", "cole@connelaide.com"))
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if id.Subject != "auth0|user-123" {
		t.Errorf("subject = %q", id.Subject)
	}
	if id.Email != "cole@connelaide.com" {
		t.Errorf("email = %q", id.Email)
	}
	if id.Permissions == nil || len(id.Permissions) != 0 {
		t.Errorf("expected empty non-nil permissions, got %#v", id.Permissions)
	}
}

func TestVerifyPermissionsPassThrough(t *testing.T) {
	iss := authtest.NewIssuer(testAudience)
	defer iss.Close()
	v := newTestVerifier(t, iss)

	token := iss.CreateTokenWithPermissions("auth0|admin", "", []string{"read:transactions", "write:categories"})
	id, err := v.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if len(id.Permissions) != 2 || id.Permissions[0] != "read:transactions" {
		t.Errorf("permissions = %#v", id.Permissions)
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	iss := authtest.NewIssuer(testAudience)
	defer iss.Close()
	v := newTestVerifier(t, iss)

	_, err := v.Verify(context.Background(), iss.CreateExpiredToken("auth0|user-123", ""))
	var cve *ClaimValidationError
	if !errors.As(err, &cve) || cve.Claim != "exp" {
		t.Fatalf("expected ClaimValidationError(exp), got %v", err)
	}
}

func TestVerifyNotYetValidToken(t *testing.T) {
	iss := authtest.NewIssuer(testAudience)
	defer iss.Close()
	v := newTestVerifier(t, iss)

	token := iss.CreateTokenWithClaims("auth0|user-123", "", map[string]any{
		"nbf": time.Now().Add(time.Hour).Unix(),
	})
	_, err := v.Verify(context.Background(), token)
	var cve *ClaimValidationError
	if !errors.As(err, &cve) || cve.Claim != "nbf" {
		t.Fatalf("expected ClaimValidationError(nbf), got %v", err)
	}
}

func TestVerifyWrongAudience(t *testing.T) {
	iss := authtest.NewIssuer(testAudience)
	defer iss.Close()
	v := newTestVerifier(t, iss)

	token := iss.CreateTokenWithClaims("auth0|user-123", "", map[string]any{
		"aud": "https://wrong-audience.example",
	})
	_, err := v.Verify(context.Background(), token)
	var cve *ClaimValidationError
	if !errors.As(err, &cve) || cve.Claim != "aud" {
		t.Fatalf("expected ClaimValidationError(aud), got %v", err)
	}
}

func TestVerifyMissingAudience(t *testing.T) {
	iss := authtest.NewIssuer(testAudience)
	defer iss.Close()
	v := newTestVerifier(t, iss)

	token := iss.CreateTokenWithClaims("auth0|user-123", "", map[string]any{
		"aud": nil,
	})
	_, err := v.Verify(context.Background(), token)
	var cve *ClaimValidationError
	if !errors.As(err, &cve) || cve.Claim != "aud" {
		t.Fatalf("expected ClaimValidationError(aud), got %v", err)
	}
}

func TestVerifyMissingIssuer(t *testing.T) {
	iss := authtest.NewIssuer(testAudience)
	defer iss.Close()
	v := newTestVerifier(t, iss)

	token := iss.CreateTokenWithClaims("auth0|user-123", "", map[string]any{
		"iss": nil,
	})
	_, err := v.Verify(context.Background(), token)
	var cve *ClaimValidationError
	if !errors.As(err, &cve) || cve.Claim != "iss" {
		t.Fatalf("expected ClaimValidationError(iss), got %v", err)
	}
}

func TestVerifyMissingExpiry(t *testing.T) {
	iss := authtest.NewIssuer(testAudience)
	defer iss.Close()
	v := newTestVerifier(t, iss)

	token := iss.CreateTokenWithClaims("auth0|user-123", "", map[string]any{
		"exp": nil,
	})
	_, err := v.Verify(context.Background(), token)
	var cve *ClaimValidationError
	if !errors.As(err, &cve) || cve.Claim != "exp" {
		t.Fatalf("expected ClaimValidationError(exp), got %v", err)
	}
}

func TestVerifyWrongIssuer(t *testing.T) {
	iss := authtest.NewIssuer(testAudience)
	defer iss.Close()
	v := newTestVerifier(t, iss)

	token := iss.CreateTokenWithClaims("auth0|user-123", "", map[string]any{
		"iss": "https://evil.example/",
	})
	_, err := v.Verify(context.Background(), token)
	var cve *ClaimValidationError
	if !errors.As(err, &cve) || cve.Claim != "iss" {
		t.Fatalf("expected ClaimValidationError(iss), got %v", err)
	}
}

func TestVerifyUnknownKeyAfterForcedRefresh(t *testing.T) {
	iss := authtest.NewIssuer(testAudience)
	defer iss.Close()
	v := newTestVerifier(t, iss)

	_, err := v.Verify(context.Background(), iss.CreateForeignToken("auth0|user-123"))
	if !errors.Is(err, ErrUnknownKey) {
		t.Fatalf("expected ErrUnknownKey, got %v", err)
	}
	// Initial fetch plus exactly one forced refresh.
	if got := iss.Fetches(); got != 2 {
		t.Fatalf("expected 2 fetches, got %d", got)
	}
}

func TestVerifyRotatedKeyViaForcedRefresh(t *testing.T) {
	iss := authtest.NewIssuer(testAudience)
	defer iss.Close()
	v := newTestVerifier(t, iss)

	// Warm the cache with the pre-rotation key set.
	if _, err := v.Verify(context.Background(), iss.CreateToken("auth0|user-123", "")); err != nil {
		t.Fatalf("warm-up Verify: %v", err)
	}

	// Rotate: new tokens carry a kid the cached set has never seen.
	iss.Rotate(true)
	id, err := v.Verify(context.Background(), iss.CreateToken("auth0|user-456", ""))
	if err != nil {
		t.Fatalf("post-rotation Verify: %v", err)
	}
	if id.Subject != "auth0|user-456" {
		t.Errorf("subject = %q", id.Subject)
	}
	if got := iss.Fetches(); got != 2 {
		t.Fatalf("expected warm fetch + forced refresh, got %d fetches", got)
	}
}

func TestVerifyMalformedToken(t *testing.T) {
	iss := authtest.NewIssuer(testAudience)
	defer iss.Close()
	v := newTestVerifier(t, iss)

	for _, raw := range []string{"", "not-a-jwt", "a.b", "!!!.@@@.###"} {
		if _, err := v.Verify(context.Background(), raw); !errors.Is(err, ErrMalformedToken) {
			t.Errorf("token %q: expected ErrMalformedToken, got %v", raw, err)
		}
	}
	// Malformed tokens are rejected before any network traffic.
	if got := iss.Fetches(); got != 0 {
		t.Errorf("expected 0 fetches, got %d", got)
	}
}

func TestVerifySymmetricAlgorithmRejected(t *testing.T) {
	iss := authtest.NewIssuer(testAudience)
	defer iss.Close()
	v := newTestVerifier(t, iss)

	_, err := v.Verify(context.Background(), iss.CreateSymmetricToken("auth0|user-123"))
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
	// The allow-list check precedes the key lookup, so no fetch happens.
	if got := iss.Fetches(); got != 0 {
		t.Errorf("expected 0 fetches, got %d", got)
	}
}

func TestVerifyForgedSignature(t *testing.T) {
	iss := authtest.NewIssuer(testAudience)
	defer iss.Close()
	// A second tenant shares the default kid but not the private key.
	forger := authtest.NewIssuer(testAudience)
	defer forger.Close()
	v := newTestVerifier(t, iss)

	token := forger.CreateTokenWithClaims("auth0|user-123", "", map[string]any{"iss": iss.URL()})
	if _, err := v.Verify(context.Background(), token); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestVerifyKeyFetchFailure(t *testing.T) {
	iss := authtest.NewIssuer(testAudience)
	defer iss.Close()
	token := iss.CreateToken("auth0|user-123", "")
	iss.FailWith(500)
	v := newTestVerifier(t, iss)

	_, err := v.Verify(context.Background(), token)
	var kfe *KeyFetchError
	if !errors.As(err, &kfe) {
		t.Fatalf("expected KeyFetchError, got %v", err)
	}
}

func TestNewVerifierRejectsSymmetricAllowList(t *testing.T) {
	_, err := NewVerifier(Options{
		JWKSURL:    "https://tenant/.well-known/jwks.json",
		Issuer:     "https://tenant/",
		Audience:   testAudience,
		Algorithms: []string{"HS256"},
	})
	if err == nil {
		t.Fatal("expected construction to fail for symmetric allow-list")
	}
}
