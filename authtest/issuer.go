// Package authtest provides a mock Auth0 tenant for tests: an httptest server
// that serves a JWKS document and signs tokens that validate against it, so
// the verifier and middleware can be exercised without real network calls.
//
// Example:
//
//	issuer := authtest.NewIssuer("https://api.connelaide.com")
//	defer issuer.Close()
//	token := issuer.CreateToken("auth0|user-123", "test@example.com")
package authtest

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// JWK carries the minimal RSA public key fields Auth0 publishes.
type JWK struct {
	Kty string `json:"kty"`
	Use string `json:"use,omitempty"`
	Kid string `json:"kid,omitempty"`
	Alg string `json:"alg,omitempty"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// JWKS is the published key set document.
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// Issuer is a mock identity provider. It serves JWKS at
// /.well-known/jwks.json and mints RS256 tokens with its private key.
type Issuer struct {
	server   *httptest.Server
	audience string

	mu   sync.Mutex
	key  *rsa.PrivateKey
	kid  string
	prev []JWK // rotated-out public keys still published

	fetches    atomic.Int64
	failStatus atomic.Int64 // non-zero: JWKS endpoint returns this status
	delay      atomic.Int64 // per-request delay in nanoseconds
}

// NewIssuer creates a mock issuer minting tokens for the given audience.
// Call Close when done.
func NewIssuer(audience string) *Issuer {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		panic("authtest: generate rsa key: " + err.Error())
	}
	iss := &Issuer{audience: audience, key: key, kid: "test-key-1"}
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/jwks.json", iss.handleJWKS)
	iss.server = httptest.NewServer(mux)
	return iss
}

// URL returns the issuer base URL; use it as the configured issuer.
func (i *Issuer) URL() string { return i.server.URL }

// JWKSURL returns the well-known JWKS endpoint.
func (i *Issuer) JWKSURL() string { return i.server.URL + "/.well-known/jwks.json" }

// Audience returns the configured audience.
func (i *Issuer) Audience() string { return i.audience }

// Close shuts down the test server.
func (i *Issuer) Close() { i.server.Close() }

// Fetches reports how many JWKS requests the server has answered.
func (i *Issuer) Fetches() int { return int(i.fetches.Load()) }

// FailWith makes the JWKS endpoint answer with the given HTTP status until
// reset with FailWith(0).
func (i *Issuer) FailWith(status int) { i.failStatus.Store(int64(status)) }

// SetDelay makes every JWKS response wait before answering, widening the
// window for overlap in concurrency tests.
func (i *Issuer) SetDelay(d time.Duration) { i.delay.Store(int64(d)) }

// Rotate generates a new signing key under a new kid. When publishOld is
// true the previous public key stays in the JWKS (normal rotation); when
// false it disappears entirely (tokens signed with it become unknown-kid).
func (i *Issuer) Rotate(publishOld bool) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		panic("authtest: generate rsa key: " + err.Error())
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	if publishOld {
		i.prev = append(i.prev, rsaPublicToJWK(&i.key.PublicKey, i.kid))
	} else {
		i.prev = nil
	}
	i.key = key
	i.kid = "test-key-" + time.Now().Format("150405.000000000")
}

func (i *Issuer) handleJWKS(w http.ResponseWriter, r *http.Request) {
	i.fetches.Add(1)
	if d := i.delay.Load(); d > 0 {
		time.Sleep(time.Duration(d))
	}
	if st := i.failStatus.Load(); st != 0 {
		w.WriteHeader(int(st))
		return
	}
	i.mu.Lock()
	ks := JWKS{Keys: append([]JWK{rsaPublicToJWK(&i.key.PublicKey, i.kid)}, i.prev...)}
	i.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(ks)
}

// CreateToken mints a valid token with standard claims.
func (i *Issuer) CreateToken(sub, email string) string {
	return i.CreateTokenWithClaims(sub, email, nil)
}

// CreateTokenWithPermissions mints a token carrying a permissions claim.
func (i *Issuer) CreateTokenWithPermissions(sub, email string, perms []string) string {
	return i.CreateTokenWithClaims(sub, email, map[string]any{"permissions": perms})
}

// CreateExpiredToken mints a token whose exp is an hour in the past.
func (i *Issuer) CreateExpiredToken(sub, email string) string {
	return i.CreateTokenWithClaims(sub, email, map[string]any{
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
}

// CreateTokenWithClaims mints a token, merging extra claims over the
// standard set (sub, email, iss, aud, iat, exp). A nil value removes the
// claim entirely, for tokens that omit a registered claim.
func (i *Issuer) CreateTokenWithClaims(sub, email string, extra map[string]any) string {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": sub,
		"iss": i.URL(),
		"aud": i.audience,
		"iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
	}
	if email != "" {
		claims["email"] = email
	}
	for k, v := range extra {
		if v == nil {
			delete(claims, k)
			continue
		}
		claims[k] = v
	}
	i.mu.Lock()
	key, kid := i.key, i.kid
	i.mu.Unlock()
	return signRS256(key, kid, claims)
}

// CreateForeignToken mints a token signed by a key the JWKS never publishes.
func (i *Issuer) CreateForeignToken(sub string) string {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		panic("authtest: generate rsa key: " + err.Error())
	}
	now := time.Now()
	return signRS256(key, "foreign-key", jwt.MapClaims{
		"sub": sub,
		"iss": i.URL(),
		"aud": i.audience,
		"iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
	})
}

// CreateSymmetricToken mints an HS256 token reusing the current kid, the
// classic algorithm-confusion probe.
func (i *Issuer) CreateSymmetricToken(sub string) string {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"iss": i.URL(),
		"aud": i.audience,
		"iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
	})
	i.mu.Lock()
	token.Header["kid"] = i.kid
	i.mu.Unlock()
	signed, err := token.SignedString([]byte("shared-secret"))
	if err != nil {
		panic("authtest: sign token: " + err.Error())
	}
	return signed
}

func signRS256(key *rsa.PrivateKey, kid string, claims jwt.MapClaims) string {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	signed, err := token.SignedString(key)
	if err != nil {
		panic("authtest: sign token: " + err.Error())
	}
	return signed
}

func rsaPublicToJWK(pub *rsa.PublicKey, kid string) JWK {
	return JWK{
		Kty: "RSA",
		Use: "sig",
		Kid: kid,
		Alg: "RS256",
		N:   base64URLEncode(pub.N),
		E:   base64URLEncode(big.NewInt(int64(pub.E))),
	}
}

func base64URLEncode(i *big.Int) string {
	b := i.Bytes()
	for len(b) > 0 && b[0] == 0x00 {
		b = b[1:]
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
