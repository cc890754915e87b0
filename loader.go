package lodtree

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
)

// A Fetcher returns the encoded bytes of a photo.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher fetches photos over HTTP. A nil Client uses
// http.DefaultClient.
type HTTPFetcher struct {
	Client *http.Client
	// MaxBytes caps the response body. Zero means 16 MiB.
	MaxBytes int64
}

// Fetch issues a GET for rawURL and returns the body.
func (f HTTPFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("lodtree: bad photo url %q: %w", rawURL, err)
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	res, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lodtree: fetch %s: %w", rawURL, err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("lodtree: fetch %s: photo server response is not ok: %d %s", rawURL, res.StatusCode, res.Status)
	}
	limit := f.MaxBytes
	if limit <= 0 {
		limit = 16 << 20
	}
	data, err := io.ReadAll(io.LimitReader(res.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("lodtree: fetch %s: %w", rawURL, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("lodtree: fetch %s: body exceeds %d bytes", rawURL, limit)
	}
	return data, nil
}

// FSFetcher reads photos from a file system. URLs are fs paths; a leading
// slash or "file://" prefix is stripped.
type FSFetcher struct {
	FS fs.FS
}

// Fetch reads the named file.
func (f FSFetcher) Fetch(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name = strings.TrimPrefix(name, "file://")
	name = strings.TrimPrefix(name, "/")
	data, err := fs.ReadFile(f.FS, name)
	if err != nil {
		return nil, fmt.Errorf("lodtree: read %s: %w", name, err)
	}
	return data, nil
}

// PhotoLoader is the default ImageLoader. It fetches through a Fetcher,
// decodes jpeg, png, gif and webp, and scales the result down so that its
// shorter edge matches the bucket. Images already smaller than the bucket
// are returned as decoded; they are never scaled up.
//
// Concurrent loads of the same URL at different buckets share one fetch.
// Decoding is bounded to MaxDecodes concurrent images.
type PhotoLoader struct {
	fetcher Fetcher
	group   singleflight.Group
	decodes *semaphore.Weighted

	// ResizeParam, when set, is added to the request URL as a width query
	// parameter so servers that resize on the fly can return a smaller
	// source. The fetched image is still scaled locally if needed.
	ResizeParam string
}

// NewPhotoLoader creates a loader over fetcher allowing maxDecodes
// concurrent decodes.
func NewPhotoLoader(fetcher Fetcher, maxDecodes int) *PhotoLoader {
	return &PhotoLoader{
		fetcher: fetcher,
		decodes: semaphore.NewWeighted(int64(max(maxDecodes, 1))),
	}
}

// Load implements ImageLoader.
func (l *PhotoLoader) Load(ctx context.Context, rawURL string, b Bucket) (image.Image, error) {
	if rawURL == "" {
		return nil, ErrEmptyURL
	}
	src := l.sourceURL(rawURL, b)
	v, err, _ := l.group.Do(src, func() (any, error) {
		return l.fetcher.Fetch(ctx, src)
	})
	if err != nil {
		return nil, err
	}
	data := v.([]byte)

	if err := l.decodes.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer l.decodes.Release(1)

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnsupportedImage, rawURL, err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: %s: empty %s image", ErrUnsupportedImage, rawURL, format)
	}
	return ScaleToBucket(img, b), nil
}

// sourceURL returns the URL actually fetched for (rawURL, b).
func (l *PhotoLoader) sourceURL(rawURL string, b Bucket) string {
	if l.ResizeParam == "" {
		return rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" {
		return rawURL
	}
	q := u.Query()
	q.Set(l.ResizeParam, strconv.Itoa(int(b)))
	u.RawQuery = q.Encode()
	return u.String()
}

// ScaleToBucket returns img scaled so its shorter edge equals b, keeping
// the aspect ratio. Images whose shorter edge is already <= b are returned
// unchanged. Small targets use bilinear filtering; larger ones Catmull-Rom.
func ScaleToBucket(img image.Image, b Bucket) image.Image {
	sb := img.Bounds()
	w, h := sb.Dx(), sb.Dy()
	short := min(w, h)
	if b <= 0 || short <= int(b) {
		return img
	}
	scale := float64(b) / float64(short)
	dw := max(int(float64(w)*scale+0.5), 1)
	dh := max(int(float64(h)*scale+0.5), 1)
	if w <= h {
		dw = int(b)
	} else {
		dh = int(b)
	}

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	var interpolator draw.Interpolator = draw.CatmullRom
	if b <= 120 {
		interpolator = draw.ApproxBiLinear
	}
	interpolator.Scale(dst, dst.Bounds(), img, sb, draw.Src, nil)
	return dst
}
