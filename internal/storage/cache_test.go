package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/matsen/papermeta/internal/reference"
)

func openTestCache(t *testing.T) *LookupCache {
	t.Helper()
	c, err := OpenCache(filepath.Join(t.TempDir(), "lookups.db"), time.Hour)
	if err != nil {
		t.Fatalf("OpenCache() error = %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestLookupCache_PutGet(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()
	m := reference.Metadata{Title: "Resolved", DOI: "10.1/x", Year: 2020}

	if err := c.Put(ctx, LookupDOI, "10.1/X", m); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, ok, err := c.Get(ctx, LookupDOI, " 10.1/x ")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !ok {
		t.Fatal("Get() miss, want hit")
	}
	if got != m {
		t.Errorf("Get() = %+v, want %+v", got, m)
	}

	// Kinds are separate namespaces
	if _, ok, _ := c.Get(ctx, LookupTitle, "10.1/x"); ok {
		t.Error("Get(title) hit a DOI entry")
	}
}

func TestLookupCache_Expiry(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return start }

	if err := c.Put(ctx, LookupTitle, "Deep  Learning", reference.Metadata{Title: "Deep Learning"}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if _, ok, _ := c.Get(ctx, LookupTitle, "deep learning"); !ok {
		t.Fatal("Get() miss before expiry")
	}

	c.now = func() time.Time { return start.Add(2 * time.Hour) }
	if _, ok, _ := c.Get(ctx, LookupTitle, "deep learning"); ok {
		t.Error("Get() hit after expiry")
	}
}

func TestLookupCache_Clear(t *testing.T) {
	c := openTestCache(t)
	ctx := context.Background()

	for _, doi := range []string{"10.1/a", "10.1/b"} {
		if err := c.Put(ctx, LookupDOI, doi, reference.Metadata{DOI: doi}); err != nil {
			t.Fatal(err)
		}
	}

	n, err := c.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Clear() = %d, want 2", n)
	}
	if _, ok, _ := c.Get(ctx, LookupDOI, "10.1/a"); ok {
		t.Error("Get() hit after Clear")
	}
}
