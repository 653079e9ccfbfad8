package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newClockedLRU[T any](size int, ttl time.Duration) (*LRU[T], *clock) {
	clk := &clock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRU[T](size, ttl)
	c.now = clk.Now
	return c, clk
}

func TestLRUEviction(t *testing.T) {
	c := NewLRU[string](3, time.Hour)

	c.Set("key1", "value1")
	c.Set("key2", "value2")
	c.Set("key3", "value3")
	c.Get("key1") // key2 is now least recently used
	c.Set("key4", "value4")

	if _, found := c.Get("key2"); found {
		t.Error("key2 should have been evicted")
	}
	for _, k := range []string{"key1", "key3", "key4"} {
		if _, found := c.Get(k); !found {
			t.Errorf("%s should still be present", k)
		}
	}
	if c.Size() != 3 {
		t.Errorf("expected size 3, got %d", c.Size())
	}
}

func TestLRUExpiration(t *testing.T) {
	c, clk := newClockedLRU[string](100, time.Minute)

	c.Set("key1", "value1")
	if _, found := c.Get("key1"); !found {
		t.Fatal("key1 should be present before TTL")
	}

	clk.Advance(2 * time.Minute)
	if _, found := c.Get("key1"); found {
		t.Error("key1 should have expired")
	}
	if c.Size() != 0 {
		t.Errorf("expired entry should be removed on read, size=%d", c.Size())
	}
}

func TestLRUCleanExpired(t *testing.T) {
	c, clk := newClockedLRU[string](100, time.Minute)
	c.Set("key1", "value1")
	c.Set("key2", "value2")
	clk.Advance(30 * time.Second)
	c.Set("key3", "value3")
	clk.Advance(45 * time.Second)

	if removed := c.CleanExpired(); removed != 2 {
		t.Errorf("expected 2 expired entries, got %d", removed)
	}
	if _, found := c.Get("key3"); !found {
		t.Error("key3 should not have expired")
	}
}

func TestLRUOverwriteRefreshes(t *testing.T) {
	c, clk := newClockedLRU[int](2, time.Minute)
	c.Set("a", 1)
	clk.Advance(50 * time.Second)
	c.Set("a", 2)
	clk.Advance(50 * time.Second)

	v, found := c.Get("a")
	if !found || v != 2 {
		t.Errorf("Get(a) = %v, %v; want 2, true", v, found)
	}
}

func TestLRUGetOrComputeAndStats(t *testing.T) {
	c := NewLRU[int](10, time.Hour)
	calls := 0
	compute := func() int {
		calls++
		return 42
	}

	if v := c.GetOrCompute("k", compute); v != 42 {
		t.Fatalf("unexpected value %d", v)
	}
	if v := c.GetOrCompute("k", compute); v != 42 {
		t.Fatalf("unexpected value %d", v)
	}
	if calls != 1 {
		t.Errorf("compute called %d times, want 1", calls)
	}

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Size != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}

	c.Purge()
	if c.Size() != 0 {
		t.Error("Purge should empty the cache")
	}
}

func TestLRUConcurrentAccess(t *testing.T) {
	c := NewLRU[int](50, time.Hour)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("k%d", (g*200+i)%75)
				c.Set(key, i)
				c.Get(key)
			}
		}(g)
	}
	wg.Wait()
	if c.Size() > 50 {
		t.Errorf("size %d exceeds capacity", c.Size())
	}
}

func TestManagerClean(t *testing.T) {
	c, clk := newClockedLRU[string](10, time.Minute)
	c.Set("a", "x")
	clk.Advance(2 * time.Minute)

	m := NewManager()
	m.Register(c)
	if n := m.Clean(); n != 1 {
		t.Errorf("expected 1 removed entry, got %d", n)
	}

	m.Start(context.Background(), 10*time.Millisecond)
	m.Stop()
	m.Stop()
}
