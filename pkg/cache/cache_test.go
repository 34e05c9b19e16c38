package cache

import (
	"testing"
	"time"
)

func TestTTL_SetGet(t *testing.T) {
	c := NewTTL[string, int](time.Minute)

	c.Set("a", 1)
	got, ok := c.Get("a")
	if !ok {
		t.Fatalf("expected cache hit")
	}
	if got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
}

func TestTTL_MissingKey(t *testing.T) {
	c := NewTTL[string, int](time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Fatalf("expected cache miss")
	}
}

func TestTTL_Expiry(t *testing.T) {
	c := NewTTL[string, int](10 * time.Millisecond)

	c.Set("a", 1)
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected entry to expire")
	}
}

func TestTTL_Delete(t *testing.T) {
	c := NewTTL[string, int](time.Minute)

	c.Set("a", 1)
	c.Delete("a")

	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected entry to be deleted")
	}
}

func TestTTL_Purge(t *testing.T) {
	c := NewTTL[string, string](time.Minute)

	c.Set("a", "x")
	c.Set("b", "y")
	c.Purge()

	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected purge to drop a")
	}
	if _, ok := c.Get("b"); ok {
		t.Fatalf("expected purge to drop b")
	}
}
