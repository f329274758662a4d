package inkwell

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestPageCacheMissThenHit(t *testing.T) {
	cache := NewPageCache(NewMemoryCache(), time.Minute)
	ctx := context.Background()

	if _, hit, err := cache.Lookup(ctx, "/blog"); err != nil || hit {
		t.Fatalf("empty cache Lookup = (hit=%v, err=%v), want a clean miss", hit, err)
	}

	posts := []Post{{ID: "p1", Title: "Hello"}}
	if err := cache.Store(ctx, "/blog", posts); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	got, hit, err := cache.Lookup(ctx, "/blog")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if !hit {
		t.Fatal("expected a hit after Store")
	}
	if len(got) != 1 || got[0].ID != "p1" {
		t.Errorf("cached posts = %+v, want the stored list", got)
	}
}

func TestPageCacheShapeRepair(t *testing.T) {
	backend := NewMemoryCache()
	cache := NewPageCache(backend, time.Minute)
	ctx := context.Background()

	// A malformed earlier store left a single object instead of a list.
	single, err := json.Marshal(Post{ID: "p1", Title: "Lone"})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if err := backend.Set(ctx, "/blog", string(single), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, hit, err := cache.Lookup(ctx, "/blog")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if !hit || len(got) != 1 || got[0].ID != "p1" {
		t.Fatalf("Lookup = (%+v, hit=%v), want the single post promoted to a list", got, hit)
	}

	// The entry must have been rewritten in list shape.
	raw, ok, err := backend.Get(ctx, "/blog")
	if err != nil || !ok {
		t.Fatalf("backend Get = (ok=%v, err=%v), want the repaired entry", ok, err)
	}
	if !strings.HasPrefix(raw, "[") {
		t.Errorf("repaired entry = %q, want a JSON array", raw)
	}
}

func TestPageCacheUndecodableEntryIsAMiss(t *testing.T) {
	backend := NewMemoryCache()
	cache := NewPageCache(backend, time.Minute)
	ctx := context.Background()

	if err := backend.Set(ctx, "/blog", "not json at all", time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, hit, err := cache.Lookup(ctx, "/blog"); err != nil || hit {
		t.Errorf("undecodable entry Lookup = (hit=%v, err=%v), want a clean miss", hit, err)
	}
}

func TestPageCacheExpiry(t *testing.T) {
	cache := NewPageCache(NewMemoryCache(), 50*time.Millisecond)
	ctx := context.Background()

	if err := cache.Store(ctx, "/blog", []Post{{ID: "p1"}}); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if _, hit, _ := cache.Lookup(ctx, "/blog"); !hit {
		t.Fatal("expected a hit before expiry")
	}

	time.Sleep(100 * time.Millisecond)
	if _, hit, _ := cache.Lookup(ctx, "/blog"); hit {
		t.Fatal("expected a miss after the TTL elapsed")
	}
}

// failingBackend simulates an unreachable cache server.
type failingBackend struct{}

func (failingBackend) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("connection refused")
}

func (failingBackend) Set(context.Context, string, string, time.Duration) error {
	return errors.New("connection refused")
}

func TestPageCacheBackendFailureSurfacesAsError(t *testing.T) {
	cache := NewPageCache(failingBackend{}, time.Minute)
	ctx := context.Background()

	if _, hit, err := cache.Lookup(ctx, "/blog"); err == nil || hit {
		t.Errorf("Lookup on a dead backend = (hit=%v, err=%v), want an error miss", hit, err)
	}
	if err := cache.Store(ctx, "/blog", []Post{}); err == nil {
		t.Error("Store on a dead backend should report the error")
	}
}

func TestCacheKeyNormalization(t *testing.T) {
	tests := []struct {
		path, query string
		want        string
	}{
		{"/blog", "", "/blog"},
		{"/blog/", "", "/blog"},
		{"/", "", "/"},
		{"/blog", "tag=go&author=jane", "/blog?author=jane&tag=go"},
		{"/blog", "author=jane&tag=go", "/blog?author=jane&tag=go"},
		{"/blog", "page=0", "/blog?page=0"},
	}
	for _, tt := range tests {
		got := CacheKey(tt.path, tt.query)
		if got != tt.want {
			t.Errorf("CacheKey(%q, %q) = %q, want %q", tt.path, tt.query, got, tt.want)
		}
	}
	if CacheKey("/blog", "a=1&b=2") != CacheKey("/blog", "b=2&a=1") {
		t.Error("equivalent query strings should produce the same key")
	}
}
