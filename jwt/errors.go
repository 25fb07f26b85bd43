package jwtkit

import (
	"errors"
	"fmt"
)

// Verification failures are fail-closed: any ambiguity rejects the token.
// Every kind is distinct and inspectable so the HTTP layer can log the
// reason code without leaking it to the caller.
var (
	// ErrMalformedToken rejects tokens that are not a decodable three-part JWS.
	ErrMalformedToken = errors.New("jwtkit: malformed token")
	// ErrUnknownKey rejects tokens whose kid matches no published key, even
	// after one forced JWKS refresh.
	ErrUnknownKey = errors.New("jwtkit: no signing key matches token kid")
	// ErrInvalidSignature rejects bad signatures and disallowed algorithms.
	ErrInvalidSignature = errors.New("jwtkit: invalid signature")
)

// KeyFetchError reports that the JWKS endpoint was unreachable or returned an
// unusable payload. Stale keys are never substituted; the verification
// attempt fails outright and the caller may retry the request later.
type KeyFetchError struct {
	URL string
	Err error
}

func (e *KeyFetchError) Error() string {
	return fmt.Sprintf("jwtkit: fetch jwks %s: %v", e.URL, e.Err)
}

func (e *KeyFetchError) Unwrap() error { return e.Err }

// ClaimValidationError names the registered claim that failed validation.
type ClaimValidationError struct {
	Claim string // "exp", "nbf", "iat", "iss" or "aud"
	Err   error
}

func (e *ClaimValidationError) Error() string {
	return fmt.Sprintf("jwtkit: claim %q invalid: %v", e.Claim, e.Err)
}

func (e *ClaimValidationError) Unwrap() error { return e.Err }
