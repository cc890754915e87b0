package lodtree

// BucketSelector is a per-node bucket selector with hysteresis. It remembers
// the bucket last chosen for each node and resists moving away from it, so a
// zoom level hovering near a bucket boundary does not trigger reloads every
// frame.
//
// Moving up requires the target to clear the current bucket by UpgradeMargin
// for UpgradeSamples consecutive evaluations. Moving down requires
// DowngradeSamples consecutive evaluations below the current bucket. Any
// evaluation that does not qualify resets the streak, so a single noisy
// sample never changes the selection.
type BucketSelector struct {
	table            []Bucket
	margin           float64
	upgradeMargin    float64
	upgradeSamples   int
	downgradeSamples int

	nodes map[string]*selectorState
}

type selectorState struct {
	current Bucket
	up      int // consecutive qualifying upgrade samples
	down    int // consecutive downgrade samples
}

// NewBucketSelector creates a selector from the bucket and hysteresis fields
// of cfg.
func NewBucketSelector(cfg Config) *BucketSelector {
	return &BucketSelector{
		table:            cfg.Buckets,
		margin:           cfg.SafetyMargin,
		upgradeMargin:    cfg.UpgradeMargin,
		upgradeSamples:   max(cfg.UpgradeSamples, 1),
		downgradeSamples: max(cfg.DowngradeSamples, 1),
		nodes:            make(map[string]*selectorState),
	}
}

// Select evaluates one sample of the required pixel size for node id and
// returns the bucket the node should use.
func (s *BucketSelector) Select(id string, required float64) Bucket {
	candidate := SelectBucketMargin(required, s.margin, s.table)
	st := s.nodes[id]
	if st == nil {
		s.nodes[id] = &selectorState{current: candidate}
		return candidate
	}

	switch {
	case candidate > st.current:
		st.down = 0
		if required*s.margin >= float64(st.current)*(1+s.upgradeMargin) {
			st.up++
			if st.up >= s.upgradeSamples {
				st.current = candidate
				st.up = 0
			}
		} else {
			st.up = 0
		}
	case candidate < st.current:
		st.up = 0
		st.down++
		if st.down >= s.downgradeSamples {
			st.current = candidate
			st.down = 0
		}
	default:
		st.up = 0
		st.down = 0
	}
	return st.current
}

// Current returns the bucket last selected for id.
func (s *BucketSelector) Current(id string) (Bucket, bool) {
	st, ok := s.nodes[id]
	if !ok {
		return 0, false
	}
	return st.current, true
}

// Forget drops the state for id. Called when the node unmounts.
func (s *BucketSelector) Forget(id string) {
	delete(s.nodes, id)
}

// Len returns the number of nodes with selector state.
func (s *BucketSelector) Len() int {
	return len(s.nodes)
}
