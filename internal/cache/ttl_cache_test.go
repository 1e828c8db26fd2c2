package cache

import (
	"testing"
	"time"
)

func TestGetMissAndHit(t *testing.T) {
	c := NewTTL[string, int](time.Minute)
	if _, ok := c.Get("k"); ok {
		t.Fatalf("expected miss on empty cache")
	}
	c.Set("k", 42)
	got, ok := c.Get("k")
	if !ok || got != 42 {
		t.Fatalf("expected hit with 42, got %d ok=%v", got, ok)
	}
}

func TestEntriesExpire(t *testing.T) {
	c := NewTTL[string, int](10 * time.Millisecond)
	c.Set("k", 1)
	time.Sleep(25 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Fatalf("expected entry to expire")
	}
}

func TestInvalidate(t *testing.T) {
	c := NewTTL[string, int](time.Minute)
	c.Set("k", 1)
	c.Invalidate("k")
	if _, ok := c.Get("k"); ok {
		t.Fatalf("expected entry gone after invalidate")
	}
}

func TestNilCacheIsSafe(t *testing.T) {
	var c *TTL[string, int]
	c.Set("k", 1)
	c.Invalidate("k")
	if _, ok := c.Get("k"); ok {
		t.Fatalf("expected miss on nil cache")
	}
}
