package lodtree

import (
	"fmt"
	"strconv"
)

// Bucket is a discrete decode size, in physical pixels, for a source photo.
type Bucket int

// String returns the bucket size as a decimal string.
func (b Bucket) String() string {
	return strconv.Itoa(int(b))
}

// DefaultBuckets is the stock ascending bucket table.
var DefaultBuckets = []Bucket{40, 60, 80, 120, 180, 256, 512, 1024}

// DefaultSafetyMargin is applied to the required pixel size before lookup.
// The required size already includes device pixel density, so a small
// margin is enough.
const DefaultSafetyMargin = 1.2

// ValidateBuckets reports an error unless table is non-empty, positive and
// strictly increasing.
func ValidateBuckets(table []Bucket) error {
	if len(table) == 0 {
		return fmt.Errorf("empty bucket table")
	}
	for i, b := range table {
		if b <= 0 {
			return fmt.Errorf("bucket[%d] = %d is not positive", i, b)
		}
		if i > 0 && b <= table[i-1] {
			return fmt.Errorf("bucket[%d] = %d is not greater than bucket[%d] = %d", i, b, i-1, table[i-1])
		}
	}
	return nil
}

// RequiredPixelSize returns the physical pixel size a photo is drawn at:
// displayWidth * devicePixelRatio * zoomScale.
func RequiredPixelSize(displayWidth, devicePixelRatio, zoomScale float64) float64 {
	return displayWidth * devicePixelRatio * zoomScale
}

// SelectBucket returns the smallest bucket >= required * DefaultSafetyMargin,
// or the largest bucket when none qualifies. Returns 0 for an empty table.
func SelectBucket(required float64, table []Bucket) Bucket {
	return SelectBucketMargin(required, DefaultSafetyMargin, table)
}

// SelectBucketMargin is SelectBucket with an explicit safety margin.
func SelectBucketMargin(required, margin float64, table []Bucket) Bucket {
	if len(table) == 0 {
		return 0
	}
	target := required * margin
	for _, b := range table {
		if float64(b) >= target {
			return b
		}
	}
	return table[len(table)-1]
}

// smallestBucket returns the first table entry, or 0 for an empty table.
func smallestBucket(table []Bucket) Bucket {
	if len(table) == 0 {
		return 0
	}
	return table[0]
}
