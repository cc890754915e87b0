package lodtree

// NodeRenderer draws one node from its finalized dimensions. Renderers read
// n and st and never modify either.
type NodeRenderer interface {
	DrawNode(s Surface, n *LayoutNode, d Dimensions, st *NodeDrawState)
}

// NodeDrawState is the per-frame image and selection state of one node.
type NodeDrawState struct {
	Selected bool
	// Photo is the bitmap currently displayed, nil until one arrives.
	Photo *Bitmap
	// Previous is the outgoing bitmap while Morph is animating.
	Previous *Bitmap
	Morph    MorphState
	// Placeholder is the decoded blurhash, nil when there is none.
	Placeholder *Bitmap
	Font        Font
}

// Theme holds the colours and opacities shared by the renderers.
type Theme struct {
	// Fill is the background per role, indexed by Role.
	Fill [3]Color
	// Border is the outline per role, indexed by Role.
	Border [3]Color

	Selection       Color
	Skeleton        Color
	SkeletonOutline Color
	Label           Color
	LabelDeceased   Color
	Glyph           Color

	PlaceholderOpacity float64
	GlyphOpacity       float64
	// DeceasedSaturation is the photo saturation of deceased members.
	DeceasedSaturation float64
}

// DefaultTheme returns the stock palette.
func DefaultTheme() Theme {
	return Theme{
		Fill: [3]Color{
			RoleStandard: {0.98, 0.97, 0.94, 1},
			RoleParent:   {0.95, 0.92, 0.85, 1},
			RoleRoot:     {0.91, 0.85, 0.72, 1},
		},
		Border: [3]Color{
			RoleStandard: {0.78, 0.74, 0.66, 1},
			RoleParent:   {0.69, 0.58, 0.38, 1},
			RoleRoot:     {0.60, 0.45, 0.18, 1},
		},
		Selection:          Color{0.13, 0.45, 0.36, 1},
		Skeleton:           Color{0.88, 0.87, 0.84, 1},
		SkeletonOutline:    Color{0.80, 0.79, 0.76, 1},
		Label:              Color{0.16, 0.14, 0.12, 1},
		LabelDeceased:      Color{0.42, 0.40, 0.38, 1},
		Glyph:              Color{0.55, 0.42, 0.16, 1},
		PlaceholderOpacity: 0.9,
		GlyphOpacity:       0.14,
		DeceasedSaturation: 0,
	}
}

const skeletonOutlineWidth = 1

// drawSelection strokes the selection ring concentric with the shape.
func (t *Theme) drawSelection(s Surface, n *LayoutNode, d Dimensions) {
	r := d.SelectionRect(n.X, n.Y)
	if d.Shape == ShapeCircle {
		s.StrokeCircle(n.X, n.Y, r.Width/2, d.SelectionWidth, t.Selection)
		return
	}
	s.StrokeRoundRect(r, d.SelectionRadius(), d.SelectionWidth, t.Selection)
}

// drawPhoto draws the photo slot: the photo (crossfading during a morph),
// else the blurhash preview, else the skeleton.
func (t *Theme) drawPhoto(s Surface, n *LayoutNode, d Dimensions, st *NodeDrawState) {
	slot := d.PhotoRect(n.X, n.Y)
	sat := 1.0
	if n.Deceased {
		sat = t.DeceasedSaturation
	}
	opts := ImageOptions{ClipRadius: d.PhotoRadius, Opacity: 1, Saturation: sat}

	switch {
	case st.Photo != nil:
		if st.Morph.Animating && st.Previous != nil {
			prev := opts
			prev.Src = n.Crop.SourceRect(st.Previous.Width(), st.Previous.Height())
			prev.Opacity = st.Morph.LowResOpacity
			s.DrawImage(st.Previous, slot, prev)
			opts.Opacity = st.Morph.HighResOpacity
			opts.Scale = st.Morph.HighResScale
		}
		opts.Src = n.Crop.SourceRect(st.Photo.Width(), st.Photo.Height())
		s.DrawImage(st.Photo, slot, opts)
	case st.Placeholder != nil:
		opts.Src = n.Crop.SourceRect(st.Placeholder.Width(), st.Placeholder.Height())
		opts.Opacity = t.PlaceholderOpacity
		s.DrawImage(st.Placeholder, slot, opts)
	default:
		t.drawSkeleton(s, slot, d)
	}
}

// drawSkeleton draws the flat fill and thin outline shown before any image
// data exists.
func (t *Theme) drawSkeleton(s Surface, slot Rect, d Dimensions) {
	if d.Shape == ShapeCircle {
		c := slot.Center()
		s.FillCircle(c.X, c.Y, slot.Width/2, t.Skeleton)
		s.StrokeCircle(c.X, c.Y, slot.Width/2, skeletonOutlineWidth, t.SkeletonOutline)
		return
	}
	s.FillRoundRect(slot, d.PhotoRadius, t.Skeleton)
	s.StrokeRoundRect(slot, d.PhotoRadius, skeletonOutlineWidth, t.SkeletonOutline)
}

// drawLabel fits the name into the label block and draws it centred. A
// name that cannot be measured is skipped.
func (t *Theme) drawLabel(s Surface, n *LayoutNode, d Dimensions, f Font, maxLines int) {
	lbl := FitLabel(f, n.Name, d.LabelWidth, maxLines)
	if lbl == nil {
		return
	}
	c := t.Label
	if n.Deceased {
		c = t.LabelDeceased
	}
	r := d.LabelRect(n.X, n.Y)
	for i, line := range lbl.Lines {
		s.DrawText(f, line, n.X, r.Y+float64(i)*d.LabelLineHeight, c)
	}
}

// drawGlyph overlays the node's decorative pattern. Only root and parent
// roles carry one.
func (t *Theme) drawGlyph(s Surface, n *LayoutNode, d Dimensions, cx, cy, radius float64) {
	if d.Role == RoleStandard || radius <= 0 {
		return
	}
	c := t.Glyph.WithAlpha(t.GlyphOpacity)
	for _, poly := range NodePattern(n).Polygons(cx, cy, radius) {
		s.FillPolygon(poly, c)
	}
}
