package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/theoseek/theoseek/internal/searcher"
)

func result(query string) *searcher.Result {
	return &searcher.Result{
		Query: query,
		Items: []searcher.ResultItem{{Title: "t", Snippet: "s"}},
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	ctx := context.Background()

	if _, ok := store.Get(ctx, "missing"); ok {
		t.Error("unexpected hit on empty store")
	}
	store.Set(ctx, "k", result("q"), time.Minute)
	got, ok := store.Get(ctx, "k")
	if !ok || got.Query != "q" {
		t.Errorf("Get = %+v, %v", got, ok)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	ctx := context.Background()

	store.Set(ctx, "k", result("q"), 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	if _, ok := store.Get(ctx, "k"); ok {
		t.Error("expired entry still served")
	}
}

func TestMemoryStoreInvalidate(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	ctx := context.Background()

	store.Set(ctx, "a", result("1"), time.Minute)
	store.Set(ctx, "b", result("2"), time.Minute)
	if err := store.Invalidate(ctx); err != nil {
		t.Fatal(err)
	}
	if _, ok := store.Get(ctx, "a"); ok {
		t.Error("entry survived invalidation")
	}
}

func TestGetOrComputeCaches(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	c := New(store, time.Minute)
	ctx := context.Background()

	calls := 0
	compute := func() (*searcher.Result, error) {
		calls++
		return result("q"), nil
	}

	if _, hit, err := c.GetOrCompute(ctx, "live", "q", 10, compute); err != nil || hit {
		t.Fatalf("first call hit=%v err=%v", hit, err)
	}
	if _, hit, err := c.GetOrCompute(ctx, "live", "q", 10, compute); err != nil || !hit {
		t.Fatalf("second call hit=%v err=%v", hit, err)
	}
	if calls != 1 {
		t.Errorf("compute ran %d times, want 1", calls)
	}

	hits, misses := c.Stats()
	if hits != 1 || misses != 1 {
		t.Errorf("stats = %d hits, %d misses", hits, misses)
	}
}

func TestGetOrComputeKeySeparation(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	c := New(store, time.Minute)
	ctx := context.Background()

	calls := 0
	compute := func() (*searcher.Result, error) {
		calls++
		return result("q"), nil
	}

	c.GetOrCompute(ctx, "live", "q", 10, compute)
	c.GetOrCompute(ctx, "local", "q", 10, compute)
	c.GetOrCompute(ctx, "live", "q", 20, compute)
	if calls != 3 {
		t.Errorf("distinct keys shared an entry: %d computes, want 3", calls)
	}
}

func TestGetOrComputeNormalizesQuery(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	c := New(store, time.Minute)
	ctx := context.Background()

	calls := 0
	compute := func() (*searcher.Result, error) {
		calls++
		return result("q"), nil
	}

	c.GetOrCompute(ctx, "live", "Natural  Law", 10, compute)
	c.GetOrCompute(ctx, "live", "natural law", 10, compute)
	if calls != 1 {
		t.Errorf("normalized queries recomputed: %d computes, want 1", calls)
	}
}

func TestGetOrComputeErrorNotCached(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	c := New(store, time.Minute)
	ctx := context.Background()

	boom := errors.New("upstream failed")
	if _, _, err := c.GetOrCompute(ctx, "live", "q", 10, func() (*searcher.Result, error) {
		return nil, boom
	}); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	got, _, err := c.GetOrCompute(ctx, "live", "q", 10, func() (*searcher.Result, error) {
		return result("recovered"), nil
	})
	if err != nil || got.Query != "recovered" {
		t.Errorf("recovery compute = %+v, %v", got, err)
	}
}

func TestGetOrComputeCollapsesConcurrentCallers(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	c := New(store, time.Minute)
	ctx := context.Background()

	var calls atomic.Int32
	release := make(chan struct{})
	compute := func() (*searcher.Result, error) {
		calls.Add(1)
		<-release
		return result("q"), nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.GetOrCompute(ctx, "live", "q", 10, compute)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls.Load() != 1 {
		t.Errorf("compute ran %d times under concurrency, want 1", calls.Load())
	}
}

func TestNormalizeQuery(t *testing.T) {
	if got := NormalizeQuery("  Natural   LAW  "); got != "natural law" {
		t.Errorf("NormalizeQuery = %q", got)
	}
}
