package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/vsatops/linksight/internal/forest"
)

// fittedForest returns a minimal trained forest for cache entries.
func fittedForest(t *testing.T) *forest.Forest {
	t.Helper()
	x := make([][]float64, 0, 12)
	for i := 0; i < 12; i++ {
		x = append(x, []float64{float64(i), float64(i % 3)})
	}
	f := forest.New(forest.Options{Trees: 5})
	if err := f.Fit(x); err != nil {
		t.Fatalf("fit fixture forest: %v", err)
	}
	return f
}

// fakeClock lets tests advance cache time deterministically.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestCache(ttl time.Duration, maxEntries int) (*ModelCache, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)}
	c := New(ttl, maxEntries)
	c.now = clock.now
	return c, clock
}

func TestGet_MissOnEmpty(t *testing.T) {
	c, _ := newTestCache(time.Hour, 10)
	if _, ok := c.Get(Key{"network", 5, 16}); ok {
		t.Fatal("expected miss on empty cache")
	}
}

func TestSetGet_Hit(t *testing.T) {
	c, _ := newTestCache(time.Hour, 10)
	key := Key{"network", 5, 16}
	f := fittedForest(t)

	c.Set(key, f)
	got, ok := c.Get(key)
	if !ok {
		t.Fatal("expected hit")
	}
	if got != f {
		t.Fatal("expected the same forest instance back")
	}
}

func TestGet_ExpiredEntryEvicted(t *testing.T) {
	c, clock := newTestCache(time.Hour, 10)
	key := Key{"site", 6, 32}
	c.Set(key, fittedForest(t))

	clock.advance(time.Hour + time.Minute)

	if _, ok := c.Get(key); ok {
		t.Fatal("expected miss after TTL elapsed")
	}
	// Entry must be gone, not just hidden.
	if got := c.Stats().Size; got != 0 {
		t.Fatalf("expected expired entry removed, cache size %d", got)
	}
}

func TestSet_CapacityEvictsLeastUsed(t *testing.T) {
	c, clock := newTestCache(time.Hour, 3)
	f := fittedForest(t)

	keys := []Key{
		{"network", 5, 16},
		{"site", 6, 16},
		{"link", 4, 16},
	}
	for _, k := range keys {
		c.Set(k, f)
		clock.advance(time.Second)
	}

	// Touch all but keys[1]; it has the lowest hit count.
	c.Get(keys[0])
	c.Get(keys[2])

	c.Set(Key{"network", 5, 64}, f)

	if got := c.Stats().Size; got != 3 {
		t.Fatalf("expected capacity entries (3), got %d", got)
	}
	if _, ok := c.Get(keys[1]); ok {
		t.Error("expected lowest-hits entry to be evicted")
	}
	if _, ok := c.Get(keys[0]); !ok {
		t.Error("expected touched entry to survive eviction")
	}
}

func TestSet_TieBrokenByLastAccessed(t *testing.T) {
	c, clock := newTestCache(time.Hour, 2)
	f := fittedForest(t)

	older := Key{"network", 5, 16}
	newer := Key{"site", 6, 16}
	c.Set(older, f)
	clock.advance(time.Minute)
	c.Set(newer, f)
	clock.advance(time.Minute)

	// Both have zero hits; the older last-accessed loses.
	c.Set(Key{"link", 4, 16}, f)

	if _, ok := c.Get(older); ok {
		t.Error("expected oldest zero-hit entry to be evicted")
	}
	if _, ok := c.Get(newer); !ok {
		t.Error("expected newer zero-hit entry to survive")
	}
}

func TestSet_OverwriteSameKeyNoEviction(t *testing.T) {
	c, _ := newTestCache(time.Hour, 2)
	f := fittedForest(t)
	k1 := Key{"network", 5, 16}
	k2 := Key{"site", 6, 16}

	c.Set(k1, f)
	c.Set(k2, f)
	c.Set(k1, fittedForest(t)) // replace, not insert

	if got := c.Stats().Size; got != 2 {
		t.Fatalf("expected 2 entries after same-key overwrite, got %d", got)
	}
	if _, ok := c.Get(k2); !ok {
		t.Error("overwrite of an existing key must not evict others")
	}
}

func TestCleanupExpired(t *testing.T) {
	c, clock := newTestCache(time.Hour, 10)
	f := fittedForest(t)

	c.Set(Key{"network", 5, 16}, f)
	clock.advance(30 * time.Minute)
	c.Set(Key{"site", 6, 16}, f)
	clock.advance(45 * time.Minute) // first entry now past TTL

	removed := c.CleanupExpired()
	if removed != 1 {
		t.Fatalf("expected 1 expired entry removed, got %d", removed)
	}
	if got := c.Stats().Size; got != 1 {
		t.Fatalf("expected 1 entry left, got %d", got)
	}
}

func TestClear(t *testing.T) {
	c, _ := newTestCache(time.Hour, 10)
	for i := 0; i < 4; i++ {
		c.Set(Key{"network", 5, 1 << i}, fittedForest(t))
	}
	c.Clear()
	if got := c.Stats().Size; got != 0 {
		t.Fatalf("expected empty cache after Clear, got %d entries", got)
	}
}

func TestStats_CountsHits(t *testing.T) {
	c, _ := newTestCache(time.Hour, 10)
	key := Key{"link", 4, 8}
	c.Set(key, fittedForest(t))
	c.Get(key)
	c.Get(key)
	c.Get(key)

	s := c.Stats()
	if s.TotalHits != 3 {
		t.Errorf("expected 3 total hits, got %d", s.TotalHits)
	}
	if len(s.Entries) != 1 || s.Entries[0].Hits != 3 {
		t.Errorf("unexpected entry stats: %+v", s.Entries)
	}
}

func TestKeyString(t *testing.T) {
	k := Key{Domain: "network", FeatureCount: 5, BatchBucket: 128}
	if got, want := k.String(), "network_5_128"; got != want {
		t.Errorf("Key.String() = %q, want %q", got, want)
	}
}

func TestBatchBucket(t *testing.T) {
	tests := []struct {
		n, want int
	}{
		{0, 1}, {1, 1}, {2, 2}, {3, 4}, {10, 16}, {16, 16}, {100, 128}, {1000, 1024},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("n=%d", tt.n), func(t *testing.T) {
			if got := BatchBucket(tt.n); got != tt.want {
				t.Errorf("BatchBucket(%d) = %d, want %d", tt.n, got, tt.want)
			}
		})
	}
}
