package lodtree

import (
	"errors"
	"testing"
)

func fakeBitmap(w, h int) *Bitmap {
	return &Bitmap{width: w, height: h}
}

func TestCacheKey(t *testing.T) {
	if CacheKey("https://x/a.jpg", 120) != CacheKey("https://x/a.jpg", 120) {
		t.Error("CacheKey should be deterministic")
	}
	if CacheKey("a", 120) == CacheKey("a", 256) {
		t.Error("different buckets should produce different keys")
	}
	if got := CacheKey("a", 120); got != "a@120" {
		t.Errorf("CacheKey = %q, want %q", got, "a@120")
	}
}

func TestCacheAddGet(t *testing.T) {
	c := NewImageCache(1<<20, DefaultBuckets, nil)
	bmp := fakeBitmap(4, 4)
	c.Add("a", 40, bmp)
	if got := c.Get("a", 40); got != bmp {
		t.Errorf("Get = %p, want %p", got, bmp)
	}
	if c.Get("a", 60) != nil {
		t.Error("Get for another bucket should miss")
	}
	if c.Bytes() != 64 {
		t.Errorf("Bytes = %d, want 64", c.Bytes())
	}

	// Re-adding the same bitmap does not double count.
	c.Add("a", 40, bmp)
	if c.Bytes() != 64 || c.Len() != 1 {
		t.Errorf("after re-add: Bytes = %d, Len = %d, want 64, 1", c.Bytes(), c.Len())
	}
	// Replacing swaps the footprint.
	c.Add("a", 40, fakeBitmap(2, 2))
	if c.Bytes() != 16 {
		t.Errorf("after replace: Bytes = %d, want 16", c.Bytes())
	}
}

func TestCacheBudgetEvictsLRU(t *testing.T) {
	c := NewImageCache(150, DefaultBuckets, nil) // room for two 64-byte bitmaps
	c.Add("a", 40, fakeBitmap(4, 4))
	c.Add("b", 40, fakeBitmap(4, 4))
	c.Get("a", 40) // a is now most recent
	c.Add("c", 40, fakeBitmap(4, 4))

	if c.Contains("b", 40) {
		t.Error("least recently used entry should be evicted")
	}
	if !c.Contains("a", 40) || !c.Contains("c", 40) {
		t.Error("recent entries should survive")
	}
	if c.Bytes() > 150 {
		t.Errorf("Bytes = %d exceeds budget", c.Bytes())
	}
	if s := c.Stats(); s.Evictions != 1 {
		t.Errorf("Evictions = %d, want 1", s.Evictions)
	}
}

func TestCacheNewestNeverEvicted(t *testing.T) {
	c := NewImageCache(10, DefaultBuckets, nil)
	c.Add("a", 40, fakeBitmap(4, 4))
	c.Add("b", 40, fakeBitmap(4, 4))
	if !c.Contains("b", 40) {
		t.Error("newest entry should stay even over budget")
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func TestCacheBest(t *testing.T) {
	c := NewImageCache(1<<20, DefaultBuckets, nil)
	b60 := fakeBitmap(60, 60)
	b120 := fakeBitmap(120, 120)
	c.Add("a", 60, b60)
	c.Add("a", 120, b120)

	tests := []struct {
		atMost Bucket
		want   *Bitmap
		bucket Bucket
	}{
		{1024, b120, 120},
		{120, b120, 120},
		{80, b60, 60},
		{40, nil, 0},
	}
	for _, tt := range tests {
		got, b := c.Best("a", tt.atMost)
		if got != tt.want || b != tt.bucket {
			t.Errorf("Best(%d) = %p, %d, want %p, %d", tt.atMost, got, b, tt.want, tt.bucket)
		}
	}
	if got, _ := c.Best("other", 1024); got != nil {
		t.Error("Best for an unknown url should be nil")
	}
}

func TestCacheRemoveAndPurge(t *testing.T) {
	c := NewImageCache(1<<20, DefaultBuckets, nil)
	c.Add("a", 40, fakeBitmap(4, 4))
	c.Add("b", 40, fakeBitmap(4, 4))
	c.Remove("a", 40)
	if c.Contains("a", 40) || c.Bytes() != 64 {
		t.Errorf("after Remove: contains=%v bytes=%d", c.Contains("a", 40), c.Bytes())
	}
	c.Purge()
	if c.Len() != 0 || c.Bytes() != 0 {
		t.Errorf("after Purge: Len = %d, Bytes = %d", c.Len(), c.Bytes())
	}
}

func newLoadingCache(l ImageLoader) (*ImageCache, *LoadQueue) {
	cfg := DefaultConfig()
	q := NewLoadQueue(l, cfg)
	return NewImageCache(cfg.CacheBudgetBytes, cfg.Buckets, q), q
}

func TestCacheGetOrLoadSingleDecode(t *testing.T) {
	l := newFakeLoader()
	c, q := newLoadingCache(l)
	defer q.Close()

	var r1, r2 result
	c.GetOrLoad("a", 120, PriorityVisible, "n1", r1.fn)
	c.GetOrLoad("a", 120, PriorityVisible, "n2", r2.fn)
	pump(t, q, func() bool { return r1.n == 1 && r2.n == 1 })

	if n := l.callCount("a", 120); n != 1 {
		t.Errorf("loader calls = %d, want 1", n)
	}
	if r1.bmp == nil || r1.bmp != r2.bmp {
		t.Error("both callers should get the same bitmap")
	}
	if c.Get("a", 120) != r1.bmp {
		t.Error("loaded bitmap should be cached")
	}

	// A hit is synchronous.
	var r3 result
	c.GetOrLoad("a", 120, PriorityVisible, "n3", r3.fn)
	if r3.n != 1 || r3.bmp != r1.bmp {
		t.Error("cache hit should call back immediately with the cached bitmap")
	}
	if s := c.Stats(); s.Hits != 1 || s.Misses != 2 {
		t.Errorf("Hits = %d, Misses = %d, want 1, 2", s.Hits, s.Misses)
	}
}

func TestCacheReloadAfterEviction(t *testing.T) {
	l := newFakeLoader()
	c, q := newLoadingCache(l)
	defer q.Close()

	var r1, r2 result
	c.GetOrLoad("a", 40, PriorityVisible, "", r1.fn)
	pump(t, q, func() bool { return r1.n == 1 })
	c.Remove("a", 40)
	c.GetOrLoad("a", 40, PriorityVisible, "", r2.fn)
	pump(t, q, func() bool { return r2.n == 1 })

	if n := l.callCount("a", 40); n != 2 {
		t.Errorf("loader calls = %d, want 2", n)
	}
	if r2.bmp == nil || r2.err != nil {
		t.Errorf("reload = %v, %v", r2.bmp, r2.err)
	}
}

func TestCacheFailureIsNotCached(t *testing.T) {
	l := newFakeLoader()
	l.setFail("a", errors.New("offline"))
	c, q := newLoadingCache(l)
	defer q.Close()

	var r1, r2 result
	c.GetOrLoad("a", 40, PriorityVisible, "", r1.fn)
	pump(t, q, func() bool { return r1.n == 1 })
	if r1.err == nil || c.Contains("a", 40) {
		t.Fatalf("failed load: err = %v, cached = %v", r1.err, c.Contains("a", 40))
	}

	l.setFail("a", nil)
	c.GetOrLoad("a", 40, PriorityVisible, "", r2.fn)
	pump(t, q, func() bool { return r2.n == 1 })
	if r2.err != nil || r2.bmp == nil {
		t.Errorf("retry = %v, %v, want success", r2.bmp, r2.err)
	}
}

func TestCacheGetOrLoadEmptyURL(t *testing.T) {
	c, q := newLoadingCache(newFakeLoader())
	defer q.Close()
	var r result
	c.GetOrLoad("", 40, PriorityVisible, "", r.fn)
	if !errors.Is(r.err, ErrEmptyURL) {
		t.Errorf("err = %v, want ErrEmptyURL", r.err)
	}
}
