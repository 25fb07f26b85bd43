package jwtkit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/sirupsen/logrus"

	core "github.com/connelaide/connelaide-api/core"
)

// Options configures a Verifier. JWKSURL, Issuer and Audience are required;
// everything else has safe defaults.
type Options struct {
	JWKSURL  string
	Issuer   string
	Audience string
	// Algorithms is the allow-list of acceptable JWS algorithms. Asymmetric
	// only; symmetric entries are rejected at construction so a verification
	// key can never double as a signing secret. Defaults to RS256.
	Algorithms []string
	// CacheTTL bounds JWKS staleness (default 10m).
	CacheTTL time.Duration
	// Skew is the leeway applied to temporal claims (default 5s).
	Skew time.Duration
	// FetchTimeout bounds a single JWKS fetch (default 5s).
	FetchTimeout time.Duration
	// HTTPClient overrides the JWKS fetch client (tests).
	HTTPClient *http.Client
	Logger     logrus.FieldLogger
}

// symmetricAlgs are never acceptable for verify-only mode.
var symmetricAlgs = map[string]bool{"HS256": true, "HS384": true, "HS512": true}

// Verifier decides whether a bearer token was issued by the configured Auth0
// tenant to this API's audience and is temporally valid, and extracts the
// caller's identity claims on success. Verification is stateless per call;
// only the key cache is shared.
type Verifier struct {
	cache    *KeyCache
	issuer   string
	audience string
	algs     []string
	skew     time.Duration
	log      logrus.FieldLogger
}

// NewVerifier builds a Verifier with its own key cache.
func NewVerifier(opts Options) (*Verifier, error) {
	if opts.JWKSURL == "" || opts.Issuer == "" || opts.Audience == "" {
		return nil, errors.New("jwtkit: jwks url, issuer and audience are required")
	}
	algs := opts.Algorithms
	if len(algs) == 0 {
		algs = []string{"RS256"}
	}
	for _, a := range algs {
		if symmetricAlgs[a] {
			return nil, fmt.Errorf("jwtkit: symmetric algorithm %s is not allowed", a)
		}
	}
	skew := opts.Skew
	if skew <= 0 {
		skew = 5 * time.Second
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.FetchTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Verifier{
		cache:    NewKeyCache(opts.JWKSURL, opts.CacheTTL, client, log),
		issuer:   opts.Issuer,
		audience: opts.Audience,
		algs:     algs,
		skew:     skew,
		log:      log,
	}, nil
}

// KeyCache exposes the underlying cache (JWKS warm-up at startup).
func (v *Verifier) KeyCache() *KeyCache { return v.cache }

// Verify validates the raw bearer token and returns the caller's identity.
// Failures are typed (ErrMalformedToken, *KeyFetchError, ErrUnknownKey,
// ErrInvalidSignature, *ClaimValidationError); no default identity is ever
// substituted.
func (v *Verifier) Verify(ctx context.Context, raw string) (*core.Identity, error) {
	// The unverified header read selects a key and algorithm candidate only.
	// No claim is trusted before the signature check below completes.
	kid, alg, err := unverifiedHeader(raw)
	if err != nil {
		return nil, err
	}
	if !v.allowed(alg) {
		return nil, fmt.Errorf("%w: algorithm %q not allowed", ErrInvalidSignature, alg)
	}

	keys, err := v.cache.Keys(ctx)
	if err != nil {
		return nil, err
	}
	key, ok := keys.LookupKeyID(kid)
	if !ok {
		// One forced refresh covers a rotation that landed after the last
		// fetch but before TTL expiry. A second miss is permanent.
		keys, err = v.cache.ForceRefresh(ctx)
		if err != nil {
			return nil, err
		}
		if key, ok = keys.LookupKeyID(kid); !ok {
			v.log.WithFields(logrus.Fields{"component": "jwt", "kid": kid}).Warn("token kid not in key set")
			return nil, fmt.Errorf("%w: kid %q", ErrUnknownKey, kid)
		}
	}
	if key.KeyType() == jwa.OctetSeq {
		return nil, fmt.Errorf("%w: kid %q is a symmetric key", ErrInvalidSignature, kid)
	}
	var pub any
	if err := key.Raw(&pub); err != nil {
		return nil, fmt.Errorf("%w: kid %q", ErrUnknownKey, kid)
	}

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return pub, nil },
		jwt.WithValidMethods(v.algs),
		jwt.WithLeeway(v.skew),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
	)
	if err != nil {
		return nil, v.mapParseError(err, claims)
	}
	return identityFromClaims(claims), nil
}

func (v *Verifier) allowed(alg string) bool {
	for _, a := range v.algs {
		if a == alg {
			return true
		}
	}
	return false
}

// mapParseError translates golang-jwt sentinels into this package's taxonomy,
// naming the failing claim for diagnostics.
func (v *Verifier) mapParseError(err error, claims jwt.MapClaims) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return &ClaimValidationError{Claim: "exp", Err: err}
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return &ClaimValidationError{Claim: "nbf", Err: err}
	case errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return &ClaimValidationError{Claim: "iat", Err: err}
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return &ClaimValidationError{Claim: "iss", Err: err}
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return &ClaimValidationError{Claim: "aud", Err: err}
	case errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return &ClaimValidationError{Claim: missingRequiredClaim(claims), Err: err}
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrMalformedToken, err)
	default:
		// Signature mismatch, disallowed method, unverifiable token.
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
}

// missingRequiredClaim names which required claim is absent. exp is required
// unconditionally; aud and iss become required once expected values are
// configured. The claims map is fully populated before validation runs, so
// absence here is absence from the token.
func missingRequiredClaim(claims jwt.MapClaims) string {
	for _, name := range []string{"exp", "aud", "iss"} {
		if _, ok := claims[name]; !ok {
			return name
		}
	}
	return "exp"
}

func unverifiedHeader(raw string) (kid, alg string, err error) {
	token, _, err := jwt.NewParser().ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	kid, _ = token.Header["kid"].(string)
	alg, _ = token.Header["alg"].(string)
	if kid == "" || alg == "" {
		return "", "", fmt.Errorf("%w: missing kid or alg header", ErrMalformedToken)
	}
	return kid, alg, nil
}

func identityFromClaims(claims jwt.MapClaims) *core.Identity {
	id := &core.Identity{Permissions: []string{}}
	if sub, err := claims.GetSubject(); err == nil {
		id.Subject = sub
	}
	if raw, ok := claims["permissions"].([]any); ok {
		for _, p := range raw {
			if s, ok := p.(string); ok {
				id.Permissions = append(id.Permissions, s)
			}
		}
	}
	if email, ok := claims["email"].(string); ok {
		id.Email = email
	}
	return id
}
