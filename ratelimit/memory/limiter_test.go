package memorylimiter

import (
	"context"
	"testing"
	"time"

	"github.com/connelaide/connelaide-api/ratelimit"
)

func TestAllowWithinLimit(t *testing.T) {
	l := New(map[string]ratelimit.Limit{
		"refresh": {Limit: 2, Window: time.Minute},
	})
	ctx := context.Background()

	for i := range 2 {
		ok, err := l.Allow(ctx, "refresh", "auth0|user-123")
		if err != nil || !ok {
			t.Fatalf("request %d: ok=%v err=%v", i, ok, err)
		}
	}
	ok, err := l.Allow(ctx, "refresh", "auth0|user-123")
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if ok {
		t.Fatal("expected third request to be denied")
	}

	// A different caller has an independent bucket.
	if ok, _ := l.Allow(ctx, "refresh", "auth0|user-456"); !ok {
		t.Fatal("expected separate key to be allowed")
	}
}

func TestAllowWindowSlides(t *testing.T) {
	l := New(map[string]ratelimit.Limit{
		"refresh": {Limit: 1, Window: 50 * time.Millisecond},
	})
	ctx := context.Background()

	if ok, _ := l.Allow(ctx, "refresh", "k"); !ok {
		t.Fatal("first request denied")
	}
	if ok, _ := l.Allow(ctx, "refresh", "k"); ok {
		t.Fatal("second request allowed inside window")
	}
	time.Sleep(80 * time.Millisecond)
	if ok, _ := l.Allow(ctx, "refresh", "k"); !ok {
		t.Fatal("request denied after window slid")
	}
}

func TestAllowRequiresBucketAndKey(t *testing.T) {
	l := New(nil)
	if _, err := l.Allow(context.Background(), "", "k"); err == nil {
		t.Fatal("expected error for empty bucket")
	}
	if _, err := l.Allow(context.Background(), "refresh", ""); err == nil {
		t.Fatal("expected error for empty key")
	}
}
