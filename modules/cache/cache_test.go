package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func setupTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return New(client, "test:", time.Minute), mr
}

func TestCache_SetGetDelete(t *testing.T) {
	c, mr := setupTestCache(t)
	ctx := context.Background()

	var got payload
	found, err := c.Get(ctx, "k", &got)
	if err != nil || found {
		t.Fatalf("Get() on empty cache = %v, %v", found, err)
	}

	if err := c.Set(ctx, "k", payload{Name: "a", Count: 2}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if !mr.Exists("test:k") {
		t.Error("key should be stored under the prefix")
	}
	if ttl := mr.TTL("test:k"); ttl != time.Minute {
		t.Errorf("TTL = %v, want %v", ttl, time.Minute)
	}

	found, err = c.Get(ctx, "k", &got)
	if err != nil || !found {
		t.Fatalf("Get() = %v, %v", found, err)
	}
	if got != (payload{Name: "a", Count: 2}) {
		t.Errorf("Get() = %+v", got)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if mr.Exists("test:k") {
		t.Error("key should be deleted")
	}

	stats := c.GetStats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Sets != 1 || stats.Deletes != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if stats.HitRate != 50 {
		t.Errorf("HitRate = %v, want 50", stats.HitRate)
	}
}

func TestCache_Expiry(t *testing.T) {
	c, mr := setupTestCache(t)
	ctx := context.Background()

	if err := c.SetWithTTL(ctx, "short", payload{Name: "x"}, time.Second); err != nil {
		t.Fatalf("SetWithTTL() error = %v", err)
	}
	mr.FastForward(2 * time.Second)

	var got payload
	if found, _ := c.Get(ctx, "short", &got); found {
		t.Error("expired key should miss")
	}
}

func TestCache_DeletePattern(t *testing.T) {
	c, mr := setupTestCache(t)
	ctx := context.Background()

	for _, key := range []string{"stats:u1", "stats:u2", "other:u1"} {
		if err := c.Set(ctx, key, payload{Name: key}); err != nil {
			t.Fatalf("Set(%s) error = %v", key, err)
		}
	}

	if err := c.DeletePattern(ctx, "stats:*"); err != nil {
		t.Fatalf("DeletePattern() error = %v", err)
	}

	if mr.Exists("test:stats:u1") || mr.Exists("test:stats:u2") {
		t.Error("matching keys should be deleted")
	}
	if !mr.Exists("test:other:u1") {
		t.Error("non-matching key should survive")
	}
}

func TestCache_GetOrLoad(t *testing.T) {
	c, _ := setupTestCache(t)
	ctx := context.Background()

	var calls int
	load := func(context.Context) (any, error) {
		calls++
		return payload{Name: "loaded", Count: calls}, nil
	}

	var first payload
	hit, err := c.GetOrLoad(ctx, "agg", &first, load)
	if err != nil || hit {
		t.Fatalf("GetOrLoad() first = %v, %v", hit, err)
	}

	var second payload
	hit, err = c.GetOrLoad(ctx, "agg", &second, load)
	if err != nil || !hit {
		t.Fatalf("GetOrLoad() second = %v, %v", hit, err)
	}

	if calls != 1 {
		t.Errorf("load called %d times, want 1", calls)
	}
	if first != second {
		t.Errorf("cached value %+v differs from loaded %+v", second, first)
	}
}

func TestCache_GetOrLoadError(t *testing.T) {
	c, mr := setupTestCache(t)
	wantErr := errors.New("boom")

	var got payload
	_, err := c.GetOrLoad(context.Background(), "bad", &got, func(context.Context) (any, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("GetOrLoad() error = %v, want %v", err, wantErr)
	}
	if mr.Exists("test:bad") {
		t.Error("failed loads must not be cached")
	}
}

func TestCache_GetOrLoadSharesConcurrentMisses(t *testing.T) {
	c, _ := setupTestCache(t)
	ctx := context.Background()

	var calls atomic.Int32
	release := make(chan struct{})
	load := func(context.Context) (any, error) {
		calls.Add(1)
		<-release
		return payload{Name: "shared"}, nil
	}

	const callers = 8
	var started, wg sync.WaitGroup
	started.Add(callers)
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func() {
			defer wg.Done()
			started.Done()
			var got payload
			if _, err := c.GetOrLoad(ctx, "hot", &got, load); err != nil {
				t.Errorf("GetOrLoad() error = %v", err)
			}
		}()
	}
	started.Wait()
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	// Callers arriving after the first load finished read the cached value.
	if n := calls.Load(); n != 1 {
		t.Errorf("load called %d times, want 1", n)
	}
}

func TestCache_VersionBump(t *testing.T) {
	c, _ := setupTestCache(t)
	ctx := context.Background()

	v, err := c.Version(ctx, "ver:u1")
	if err != nil || v != 0 {
		t.Fatalf("Version() on missing key = %d, %v; want 0", v, err)
	}

	for want := int64(1); want <= 2; want++ {
		got, err := c.Bump(ctx, "ver:u1")
		if err != nil || got != want {
			t.Fatalf("Bump() = %d, %v; want %d", got, err, want)
		}
	}

	v, err = c.Version(ctx, "ver:u1")
	if err != nil || v != 2 {
		t.Errorf("Version() = %d, %v; want 2", v, err)
	}
	if v, _ := c.Version(ctx, "ver:u2"); v != 0 {
		t.Errorf("Version() of another key = %d, want 0", v)
	}
}

// A loader that finishes after an invalidation writes under the version it
// started with, so readers after the bump never see its result.
func TestCache_LateLoadAfterBump(t *testing.T) {
	c, _ := setupTestCache(t)
	ctx := context.Background()

	keyFor := func(v int64) string { return fmt.Sprintf("agg:v%d", v) }

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	v0, _ := c.Version(ctx, "ver")
	go func() {
		defer close(done)
		var got payload
		_, _ = c.GetOrLoad(ctx, keyFor(v0), &got, func(context.Context) (any, error) {
			close(started)
			<-release
			return payload{Name: "stale"}, nil
		})
	}()

	<-started
	if _, err := c.Bump(ctx, "ver"); err != nil {
		t.Fatalf("Bump() error = %v", err)
	}
	close(release)
	<-done

	v1, _ := c.Version(ctx, "ver")
	var got payload
	hit, err := c.GetOrLoad(ctx, keyFor(v1), &got, func(context.Context) (any, error) {
		return payload{Name: "fresh"}, nil
	})
	if err != nil {
		t.Fatalf("GetOrLoad() error = %v", err)
	}
	if hit || got.Name != "fresh" {
		t.Errorf("GetOrLoad() = %+v (hit %v), want a fresh load", got, hit)
	}
}

func TestCache_Ping(t *testing.T) {
	c, mr := setupTestCache(t)
	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	mr.Close()
	if err := c.Ping(context.Background()); err == nil {
		t.Error("Ping() should fail once Redis is gone")
	}
}
