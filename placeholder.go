package lodtree

import (
	"fmt"
	"image"

	"github.com/buckket/go-blurhash"
)

// DecodeBlurhash decodes a blurhash string into a width x height image.
// punch scales the contrast of the result; 1 leaves it unchanged.
func DecodeBlurhash(encoded string, width, height, punch int) (image.Image, error) {
	if encoded == "" {
		return nil, fmt.Errorf("%w: empty string", ErrInvalidBlurhash)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: size %dx%d", ErrInvalidBlurhash, width, height)
	}
	img, err := blurhash.Decode(encoded, width, height, max(punch, 1))
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidBlurhash, encoded, err)
	}
	return img, nil
}

// PlaceholderCache decodes each distinct blurhash once and shares the
// resulting bitmap across every node that carries it. Strings that fail to
// decode are remembered so they are not retried every frame.
type PlaceholderCache struct {
	size    int
	punch   int
	bitmaps map[string]*Bitmap
	failed  map[string]struct{}

	// decode is swapped in tests.
	decode func(encoded string, width, height, punch int) (image.Image, error)
}

// NewPlaceholderCache creates a cache decoding at cfg.PlaceholderSize.
func NewPlaceholderCache(cfg Config) *PlaceholderCache {
	return &PlaceholderCache{
		size:    max(cfg.PlaceholderSize, 1),
		punch:   max(cfg.PlaceholderPunch, 1),
		bitmaps: make(map[string]*Bitmap),
		failed:  make(map[string]struct{}),
		decode:  DecodeBlurhash,
	}
}

// Get returns the placeholder bitmap for encoded, decoding it on first use.
// Returns nil for an empty or undecodable string.
func (p *PlaceholderCache) Get(encoded string) *Bitmap {
	if encoded == "" {
		return nil
	}
	if bmp, ok := p.bitmaps[encoded]; ok {
		return bmp
	}
	if _, bad := p.failed[encoded]; bad {
		return nil
	}
	img, err := p.decode(encoded, p.size, p.size, p.punch)
	if err != nil {
		p.failed[encoded] = struct{}{}
		return nil
	}
	bmp := NewBitmap(img)
	p.bitmaps[encoded] = bmp
	return bmp
}

// Failed reports whether encoded has previously failed to decode.
func (p *PlaceholderCache) Failed(encoded string) bool {
	_, bad := p.failed[encoded]
	return bad
}

// Len returns the number of decoded placeholders.
func (p *PlaceholderCache) Len() int {
	return len(p.bitmaps)
}
