package lodtree

// CircleRenderer draws a circular node: bordered disc holding the photo,
// name centred below.
type CircleRenderer struct {
	Theme *Theme
}

// DrawNode implements NodeRenderer.
func (r *CircleRenderer) DrawNode(s Surface, n *LayoutNode, d Dimensions, st *NodeDrawState) {
	t := r.Theme
	radius := d.Width / 2

	s.FillCircle(n.X, n.Y, radius, t.Fill[d.Role])
	s.StrokeCircle(n.X, n.Y, radius, d.BorderWidth, t.Border[d.Role])

	if st.Selected {
		t.drawSelection(s, n, d)
	}
	if d.HasPhoto {
		t.drawPhoto(s, n, d, st)
	}
	t.drawLabel(s, n, d, st.Font, d.LabelLines)
	t.drawGlyph(s, n, d, n.X, n.Y, radius-d.BorderWidth)
}

// SimpleCircleRenderer draws reduced-tier circular nodes: disc, border and a
// one-line name. No photo is drawn.
type SimpleCircleRenderer struct {
	Theme *Theme
}

// DrawNode implements NodeRenderer.
func (r *SimpleCircleRenderer) DrawNode(s Surface, n *LayoutNode, d Dimensions, st *NodeDrawState) {
	t := r.Theme
	radius := d.Width / 2

	s.FillCircle(n.X, n.Y, radius, t.Fill[d.Role])
	s.StrokeCircle(n.X, n.Y, radius, d.BorderWidth, t.Border[d.Role])

	if st.Selected {
		t.drawSelection(s, n, d)
	}
	t.drawLabel(s, n, d, st.Font, min(d.LabelLines, 1))
	t.drawGlyph(s, n, d, n.X, n.Y, radius-d.BorderWidth)
}
