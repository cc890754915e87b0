package lodtree

import (
	"image"
	"math"
	"strconv"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// Bitmap is an immutable decoded image. The cache owns bitmaps; renderers
// only hold them for the duration of a draw.
type Bitmap struct {
	img    *ebiten.Image
	width  int
	height int
}

// NewBitmap uploads src into a GPU image. Must be called on the render
// goroutine.
func NewBitmap(src image.Image) *Bitmap {
	b := src.Bounds()
	return &Bitmap{
		img:    ebiten.NewImageFromImage(src),
		width:  b.Dx(),
		height: b.Dy(),
	}
}

// Image returns the underlying ebiten image.
func (b *Bitmap) Image() *ebiten.Image { return b.img }

// Width returns the bitmap width in pixels.
func (b *Bitmap) Width() int { return b.width }

// Height returns the bitmap height in pixels.
func (b *Bitmap) Height() int { return b.height }

// Bytes returns the decoded RGBA footprint of the bitmap.
func (b *Bitmap) Bytes() int64 {
	return int64(b.width) * int64(b.height) * 4
}

// CacheKey returns the canonical cache key for a source URL decoded at a
// bucket. The same pair always yields the same key.
func CacheKey(url string, b Bucket) string {
	return url + "@" + strconv.Itoa(int(b))
}

// CacheStats is a snapshot of cache counters.
type CacheStats struct {
	Entries   int
	Bytes     int64
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// ImageCache maps (url, bucket) to decoded bitmaps with LRU eviction under a
// byte budget. Misses are loaded through a LoadQueue, which guarantees at
// most one decode in flight per key. Eviction only affects stored entries;
// a load in flight for an evicted key completes and is stored again.
//
// Evicted bitmaps are not deallocated: a node still displaying one keeps it
// alive until it unmounts.
type ImageCache struct {
	lru    *simplelru.LRU[string, *Bitmap]
	table  []Bucket
	queue  *LoadQueue
	bytes  int64
	budget int64

	hits      uint64
	misses    uint64
	evictions uint64
}

// NewImageCache creates a cache with the given byte budget. Loads go through
// queue, whose completed bitmaps are stored here before any callback runs.
// table is the bucket table used by Best.
func NewImageCache(budget int64, table []Bucket, queue *LoadQueue) *ImageCache {
	c := &ImageCache{
		table:  table,
		queue:  queue,
		budget: budget,
	}
	// Count is unbounded in practice; the byte budget drives eviction.
	lru, err := simplelru.NewLRU[string, *Bitmap](math.MaxInt32, func(_ string, bmp *Bitmap) {
		c.bytes -= bmp.Bytes()
	})
	if err != nil {
		panic("lodtree: failed to create image cache: " + err.Error())
	}
	c.lru = lru
	if queue != nil {
		queue.store = c.Add
	}
	return c
}

// Get returns the cached bitmap for (url, b), or nil.
func (c *ImageCache) Get(url string, b Bucket) *Bitmap {
	bmp, ok := c.lru.Get(CacheKey(url, b))
	if !ok {
		return nil
	}
	return bmp
}

// Contains reports whether (url, b) is cached without touching recency.
func (c *ImageCache) Contains(url string, b Bucket) bool {
	return c.lru.Contains(CacheKey(url, b))
}

// Best returns the largest cached bitmap for url whose bucket is <= atMost.
// Returns (nil, 0) when nothing qualifies.
func (c *ImageCache) Best(url string, atMost Bucket) (*Bitmap, Bucket) {
	for i := len(c.table) - 1; i >= 0; i-- {
		b := c.table[i]
		if b > atMost {
			continue
		}
		if bmp, ok := c.lru.Get(CacheKey(url, b)); ok {
			return bmp, b
		}
	}
	return nil, 0
}

// GetOrLoad calls fn with the cached bitmap for (url, b). On a hit fn runs
// synchronously; on a miss the request is queued and fn runs from a later
// LoadQueue.Drain. owner identifies the requesting node for Release.
func (c *ImageCache) GetOrLoad(url string, b Bucket, pri Priority, owner string, fn LoadFunc) {
	if url == "" {
		fn(nil, ErrEmptyURL)
		return
	}
	if bmp := c.Get(url, b); bmp != nil {
		c.hits++
		fn(bmp, nil)
		return
	}
	c.misses++
	c.queue.Enqueue(url, b, pri, owner, fn)
}

// Add stores bmp under (url, b), evicting least recently used entries until
// the cache fits its budget. The newest entry is never evicted by its own
// insertion.
func (c *ImageCache) Add(url string, b Bucket, bmp *Bitmap) {
	if bmp == nil {
		return
	}
	key := CacheKey(url, b)
	if old, ok := c.lru.Peek(key); ok {
		if old == bmp {
			c.lru.Get(key)
			return
		}
		c.lru.Remove(key)
	}
	c.lru.Add(key, bmp)
	c.bytes += bmp.Bytes()
	for c.bytes > c.budget && c.lru.Len() > 1 {
		if _, _, ok := c.lru.RemoveOldest(); !ok {
			break
		}
		c.evictions++
	}
}

// Remove drops (url, b) from the cache.
func (c *ImageCache) Remove(url string, b Bucket) {
	c.lru.Remove(CacheKey(url, b))
}

// Purge drops every entry.
func (c *ImageCache) Purge() {
	c.lru.Purge()
	c.bytes = 0
}

// Len returns the number of cached bitmaps.
func (c *ImageCache) Len() int {
	return c.lru.Len()
}

// Bytes returns the total footprint of cached bitmaps.
func (c *ImageCache) Bytes() int64 {
	return c.bytes
}

// Stats returns a snapshot of the cache counters.
func (c *ImageCache) Stats() CacheStats {
	return CacheStats{
		Entries:   c.lru.Len(),
		Bytes:     c.bytes,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}
