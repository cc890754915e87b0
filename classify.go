package lodtree

// TierClassifier assigns a level of detail to each node. Classifiers are
// supplied by the host; ViewportClassifier is a usable default.
type TierClassifier interface {
	Classify(n *LayoutNode, zoom float64) Tier
}

// TierFunc adapts a function to TierClassifier.
type TierFunc func(n *LayoutNode, zoom float64) Tier

// Classify implements TierClassifier.
func (f TierFunc) Classify(n *LayoutNode, zoom float64) Tier { return f(n, zoom) }

// ViewportClassifier hides nodes outside the padded visible bounds, reduces
// nodes below FullDetailZoom, and shows the rest at full detail.
type ViewportClassifier struct {
	// Visible is the world-space rectangle on screen.
	Visible Rect
	// Padding extends Visible on every side, in world units.
	Padding float64
	// FullDetailZoom is the zoom at which nodes reach tier 1.
	FullDetailZoom float64
	// NodeExtent is the half-size used to test a node against the bounds.
	NodeExtent float64
}

// Classify implements TierClassifier.
func (v ViewportClassifier) Classify(n *LayoutNode, zoom float64) Tier {
	area := v.Visible.Inset(-(v.Padding + v.NodeExtent))
	if !area.Contains(n.X, n.Y) {
		return TierHidden
	}
	if zoom < v.FullDetailZoom {
		return TierReduced
	}
	return TierFull
}

// ClassifyAll sets Tier and Scale on every node in place. Nodes belong to
// the caller, so this runs before the slice is handed to the engine.
func ClassifyAll(c TierClassifier, nodes []LayoutNode, zoom float64) {
	for i := range nodes {
		nodes[i].Tier = c.Classify(&nodes[i], zoom)
		nodes[i].Scale = zoom
	}
}
