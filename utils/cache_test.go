package utils

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestCacheKey(t *testing.T) {
	k := CacheKey("filter", false, "<b>x</b>")
	if !strings.HasPrefix(k, CachePrefix) {
		t.Fatalf("key %q lacks prefix %q", k, CachePrefix)
	}
	if !strings.HasSuffix(k, HashInput("<b>x</b>")) {
		t.Errorf("key %q does not end with the input hash", k)
	}
	if k == CacheKey("filter", true, "<b>x</b>") {
		t.Error("ugc and plain keys must differ")
	}
	if k == CacheKey("sanitize", false, "<b>x</b>") {
		t.Error("stage must be part of the key")
	}
	if k != CacheKey("filter", false, "<b>x</b>") {
		t.Error("key must be deterministic")
	}
}

func TestHashInput(t *testing.T) {
	// sha256("")
	const empty = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got := HashInput(""); got != empty {
		t.Errorf("HashInput(\"\") = %s", got)
	}
}

func TestResultCacheLocalOnly(t *testing.T) {
	c, err := NewResultCache(2, nil, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	type payload struct{ HTML string }
	if c.GetJSON(ctx, "a", &payload{}) {
		t.Fatal("empty cache reported a hit")
	}
	c.SetJSON(ctx, "a", payload{HTML: "<b>x</b>"})
	var got payload
	if !c.GetJSON(ctx, "a", &got) || got.HTML != "<b>x</b>" {
		t.Fatalf("GetJSON = %+v", got)
	}

	c.SetBytes(ctx, "b", []byte("1"))
	c.SetBytes(ctx, "c", []byte("2"))
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2 after eviction", c.Len())
	}
	if _, ok := c.GetBytes(ctx, "a"); ok {
		t.Error("oldest entry should have been evicted")
	}

	if n := c.Purge(ctx); n != 0 {
		t.Errorf("Purge without redis removed %d redis keys", n)
	}
	if c.Len() != 0 {
		t.Errorf("Len after purge = %d", c.Len())
	}
}

func TestNewResultCacheRejectsZeroSize(t *testing.T) {
	if _, err := NewResultCache(0, nil, 0); err == nil {
		t.Error("expected error for zero size")
	}
}
