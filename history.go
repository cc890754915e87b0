package lodtree

// BucketHistory records, per node, the last bucket successfully displayed.
// It is only used to classify a newly arrived bucket as an upgrade, a
// repeat, or a downgrade.
type BucketHistory struct {
	last map[string]Bucket
}

// NewBucketHistory creates an empty history.
func NewBucketHistory() *BucketHistory {
	return &BucketHistory{last: make(map[string]Bucket)}
}

// Last returns the last displayed bucket for id.
func (h *BucketHistory) Last(id string) (Bucket, bool) {
	b, ok := h.last[id]
	return b, ok
}

// IsUpgrade reports whether b is strictly larger than the last displayed
// bucket for id. A node with no history has nothing to upgrade from.
func (h *BucketHistory) IsUpgrade(id string, b Bucket) bool {
	prev, ok := h.last[id]
	return ok && b > prev
}

// Supersedes reports whether b may replace what id currently shows: true
// when nothing was shown yet or b is strictly larger.
func (h *BucketHistory) Supersedes(id string, b Bucket) bool {
	prev, ok := h.last[id]
	return !ok || b > prev
}

// Record stores b as the last displayed bucket for id.
func (h *BucketHistory) Record(id string, b Bucket) {
	h.last[id] = b
}

// Forget drops the history for id.
func (h *BucketHistory) Forget(id string) {
	delete(h.last, id)
}
