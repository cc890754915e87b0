package lodtree

// RectRenderer draws rounded-rectangle cards: photo slot at the top, name
// below, glyph in the leading corner for root and parent cards.
type RectRenderer struct {
	Theme *Theme
}

const (
	cardBorderWidth = 1
	cardGlyphRadius = 10
	cardGlyphInset  = 14
)

// DrawNode implements NodeRenderer.
func (r *RectRenderer) DrawNode(s Surface, n *LayoutNode, d Dimensions, st *NodeDrawState) {
	t := r.Theme
	b := d.Bounds(n.X, n.Y)

	s.FillRoundRect(b, d.CornerRadius, t.Fill[d.Role])
	s.StrokeRoundRect(b, d.CornerRadius, cardBorderWidth, t.Border[d.Role])

	if st.Selected {
		t.drawSelection(s, n, d)
	}
	if d.HasPhoto {
		t.drawPhoto(s, n, d, st)
	}
	t.drawLabel(s, n, d, st.Font, d.LabelLines)

	// Arabic reads right to left, so the leading corner is top-right.
	t.drawGlyph(s, n, d, b.X+b.Width-cardGlyphInset, b.Y+cardGlyphInset, cardGlyphRadius)
}
