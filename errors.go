package lodtree

import "errors"

// Load errors
var (
	// ErrDropped is passed to a load callback when its request was evicted
	// from the pending queue before it started.
	ErrDropped = errors.New("lodtree: load request dropped")

	// ErrClosed is passed to load callbacks after the queue has been closed.
	ErrClosed = errors.New("lodtree: load queue closed")

	// ErrEmptyURL indicates a load was requested without a source URL.
	ErrEmptyURL = errors.New("lodtree: empty image url")

	// ErrUnsupportedImage indicates the fetched bytes could not be decoded.
	ErrUnsupportedImage = errors.New("lodtree: unsupported image data")
)

// Placeholder errors
var (
	// ErrInvalidBlurhash indicates a blurhash string could not be decoded.
	ErrInvalidBlurhash = errors.New("lodtree: invalid blurhash")
)

// Configuration errors
var (
	// ErrInvalidConfig indicates a Config failed validation.
	ErrInvalidConfig = errors.New("lodtree: invalid config")
)
