package lodtree

import "strings"

// LayoutNode is one family-tree member as positioned by the layout engine.
// It is produced fresh every layout pass and is read-only here; renderers
// never mutate it.
type LayoutNode struct {
	// ID is stable across layout passes.
	ID   string
	Name string
	// Generation is the 1-based generation index; the root is generation 1.
	Generation int
	// ParentID is empty for the root.
	ParentID string
	// PhotoURL is empty when the member has no photo.
	PhotoURL string

	// X and Y locate the centre of the node's main shape in world units.
	X, Y float64
	// Width overrides the role's default shape width when > 0.
	Width float64

	// Tier is assigned by the tier classifier.
	Tier Tier
	// Scale is the zoom scale the tier was assigned at.
	Scale float64

	Deceased     bool
	SiblingOrder int
	// Blurhash is an optional compact preview of the photo.
	Blurhash string
	// Crop trims the source photo before it is fitted to the photo slot.
	Crop Crop
}

// IsRoot reports whether n has no parent.
func (n *LayoutNode) IsRoot() bool {
	return n.ParentID == ""
}

// HasPhoto reports whether n shows a photo slot when photos are enabled.
func (n *LayoutNode) HasPhoto(showPhotos bool) bool {
	return showPhotos && strings.TrimSpace(n.PhotoURL) != ""
}

// Crop holds normalised offsets trimmed from each edge of a source photo.
type Crop struct {
	Top, Right, Bottom, Left float64
}

// IsZero reports whether c trims nothing.
func (c Crop) IsZero() bool {
	return c == Crop{}
}

// Valid reports whether every edge is in [0, 1) and opposing edges leave a
// non-empty region.
func (c Crop) Valid() bool {
	for _, v := range [4]float64{c.Top, c.Right, c.Bottom, c.Left} {
		if v < 0 || v >= 1 {
			return false
		}
	}
	return c.Left+c.Right < 1 && c.Top+c.Bottom < 1
}

// effective returns c, or the zero crop when c is invalid.
func (c Crop) effective() Crop {
	if c.Valid() {
		return c
	}
	return Crop{}
}

// VisibleFraction returns the visible share of the source width and height.
// Invalid crops count as no crop.
func (c Crop) VisibleFraction() (fx, fy float64) {
	e := c.effective()
	return 1 - e.Left - e.Right, 1 - e.Top - e.Bottom
}

// SourceRect maps the crop onto a w x h source and returns the largest
// centred square inside the cropped region, in source pixels.
func (c Crop) SourceRect(w, h int) Rect {
	e := c.effective()
	x0 := e.Left * float64(w)
	y0 := e.Top * float64(h)
	cw := float64(w) - x0 - e.Right*float64(w)
	ch := float64(h) - y0 - e.Bottom*float64(h)
	side := min(cw, ch)
	return Rect{
		X:      x0 + (cw-side)/2,
		Y:      y0 + (ch-side)/2,
		Width:  side,
		Height: side,
	}
}
