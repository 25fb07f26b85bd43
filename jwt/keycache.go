package jwtkit

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const maxJWKSBody = 1 << 20 // 1 MiB

// KeyCache serves the identity provider's published signing keys, refreshing
// them on a TTL basis. The cached set is replaced wholesale on every fetch;
// a failed fetch is a hard failure and never falls back to a stale set, so a
// rotated-away key cannot keep validating tokens indefinitely.
type KeyCache struct {
	url    string
	ttl    time.Duration
	client *http.Client
	log    logrus.FieldLogger

	mu      sync.RWMutex
	keys    jwk.Set
	fetched time.Time

	// sf coalesces concurrent refreshes onto a single in-flight fetch.
	sf singleflight.Group
}

// NewKeyCache builds a cache for the given JWKS endpoint. A zero ttl defaults
// to 10 minutes; a nil client gets a bounded-timeout default so a hung fetch
// cannot hang the calling request.
func NewKeyCache(jwksURL string, ttl time.Duration, client *http.Client, log logrus.FieldLogger) *KeyCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &KeyCache{url: jwksURL, ttl: ttl, client: client, log: log}
}

// Keys returns the cached key set if fresh, fetching a replacement first when
// stale or empty. Fresh reads take only the read lock and never wait on each
// other.
func (c *KeyCache) Keys(ctx context.Context) (jwk.Set, error) {
	c.mu.RLock()
	keys, fetched := c.keys, c.fetched
	c.mu.RUnlock()
	if keys != nil && time.Since(fetched) < c.ttl {
		return keys, nil
	}
	return c.refresh(ctx)
}

// ForceRefresh bypasses the TTL and fetches a fresh key set. The verifier
// uses it exactly once when a token's kid is absent from the cached set,
// covering the window between a provider-side rotation and TTL expiry.
func (c *KeyCache) ForceRefresh(ctx context.Context) (jwk.Set, error) {
	return c.refresh(ctx)
}

func (c *KeyCache) refresh(ctx context.Context) (jwk.Set, error) {
	// The winning caller's fetch serves every coalesced waiter, so it must
	// not die with that one caller's context. The client timeout still
	// bounds the fetch.
	fetchCtx := context.WithoutCancel(ctx)
	v, err, _ := c.sf.Do("jwks", func() (any, error) {
		set, err := c.fetch(fetchCtx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.keys = set
		c.fetched = time.Now()
		c.mu.Unlock()
		c.log.WithFields(logrus.Fields{"component": "jwks", "keys": set.Len()}).Debug("key set refreshed")
		return set, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(jwk.Set), nil
}

func (c *KeyCache) fetch(ctx context.Context) (jwk.Set, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, &KeyFetchError{URL: c.url, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &KeyFetchError{URL: c.url, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &KeyFetchError{URL: c.url, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxJWKSBody))
	if err != nil {
		return nil, &KeyFetchError{URL: c.url, Err: err}
	}
	// Malformed individual entries are skipped rather than failing the whole
	// set; a payload with no usable keys is still a fetch failure.
	set, err := jwk.Parse(body, jwk.WithIgnoreParseError(true))
	if err != nil {
		return nil, &KeyFetchError{URL: c.url, Err: err}
	}
	if set.Len() == 0 {
		return nil, &KeyFetchError{URL: c.url, Err: fmt.Errorf("no usable keys in jwks")}
	}
	return set, nil
}
