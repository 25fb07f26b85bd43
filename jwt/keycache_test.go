package jwtkit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/connelaide/connelaide-api/authtest"
)

func TestKeysFreshWithinTTL(t *testing.T) {
	iss := authtest.NewIssuer("https://api.connelaide.com")
	defer iss.Close()

	cache := NewKeyCache(iss.JWKSURL(), 10*time.Minute, nil, nil)
	ctx := context.Background()

	if _, err := cache.Keys(ctx); err != nil {
		t.Fatalf("first Keys: %v", err)
	}
	if _, err := cache.Keys(ctx); err != nil {
		t.Fatalf("second Keys: %v", err)
	}
	if got := iss.Fetches(); got != 1 {
		t.Fatalf("expected 1 fetch within TTL, got %d", got)
	}
}

func TestKeysRefetchAfterTTL(t *testing.T) {
	iss := authtest.NewIssuer("https://api.connelaide.com")
	defer iss.Close()

	cache := NewKeyCache(iss.JWKSURL(), 30*time.Millisecond, nil, nil)
	ctx := context.Background()

	if _, err := cache.Keys(ctx); err != nil {
		t.Fatalf("first Keys: %v", err)
	}
	time.Sleep(60 * time.Millisecond)
	if _, err := cache.Keys(ctx); err != nil {
		t.Fatalf("stale Keys: %v", err)
	}
	if got := iss.Fetches(); got != 2 {
		t.Fatalf("expected refetch after TTL, got %d fetches", got)
	}
}

func TestConcurrentStaleReadersCoalesce(t *testing.T) {
	iss := authtest.NewIssuer("https://api.connelaide.com")
	defer iss.Close()
	iss.SetDelay(100 * time.Millisecond)

	cache := NewKeyCache(iss.JWKSURL(), 10*time.Minute, nil, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Keys(ctx); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent Keys: %v", err)
	}
	if got := iss.Fetches(); got != 1 {
		t.Fatalf("expected exactly 1 coalesced fetch, got %d", got)
	}
}

func TestRefreshSurvivesCallerCancellation(t *testing.T) {
	iss := authtest.NewIssuer("https://api.connelaide.com")
	defer iss.Close()
	iss.SetDelay(100 * time.Millisecond)

	cache := NewKeyCache(iss.JWKSURL(), 10*time.Minute, nil, nil)

	// The first caller wins the in-flight slot and then cancels while the
	// fetch is still underway. A second caller coalesced onto the same fetch
	// must not inherit that cancellation.
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	errs := make(chan error, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := cache.Keys(ctx); err != nil {
			errs <- err
		}
	}()
	time.Sleep(20 * time.Millisecond)
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := cache.Keys(context.Background()); err != nil {
			errs <- err
		}
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("Keys after caller cancellation: %v", err)
	}
	if got := iss.Fetches(); got != 1 {
		t.Fatalf("expected exactly 1 coalesced fetch, got %d", got)
	}
}

func TestFetchFailureIsHardAndRecoverable(t *testing.T) {
	iss := authtest.NewIssuer("https://api.connelaide.com")
	defer iss.Close()
	iss.FailWith(500)

	cache := NewKeyCache(iss.JWKSURL(), 10*time.Minute, nil, nil)
	ctx := context.Background()

	_, err := cache.Keys(ctx)
	var kfe *KeyFetchError
	if !errors.As(err, &kfe) {
		t.Fatalf("expected KeyFetchError, got %v", err)
	}

	// Nothing was cached: the next call hits the network again and succeeds.
	iss.FailWith(0)
	set, err := cache.Keys(ctx)
	if err != nil {
		t.Fatalf("recovery Keys: %v", err)
	}
	if set.Len() == 0 {
		t.Fatal("expected a populated key set after recovery")
	}
	if got := iss.Fetches(); got != 2 {
		t.Fatalf("expected 2 fetches (failed + recovered), got %d", got)
	}
}

func TestForceRefreshBypassesTTL(t *testing.T) {
	iss := authtest.NewIssuer("https://api.connelaide.com")
	defer iss.Close()

	cache := NewKeyCache(iss.JWKSURL(), 10*time.Minute, nil, nil)
	ctx := context.Background()

	if _, err := cache.Keys(ctx); err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if _, err := cache.ForceRefresh(ctx); err != nil {
		t.Fatalf("ForceRefresh: %v", err)
	}
	if got := iss.Fetches(); got != 2 {
		t.Fatalf("expected forced refresh to hit the network, got %d fetches", got)
	}
}
