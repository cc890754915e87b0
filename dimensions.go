package lodtree

import "math"

// Dimensions is the geometry of one node relative to the centre of its main
// shape. Every length is a whole number of pixels and every shape length is
// even, so half-extents are whole too and the photo clip, selection ring
// and shape share one exact centre.
type Dimensions struct {
	Role  Role
	Shape Shape
	// Tidy is set for the compact circular variant.
	Tidy bool

	// Width and Height bound the main shape. For circles both equal the
	// diameter.
	Width, Height float64
	// CornerRadius is the rounding of a rectangular shape, or the radius of
	// a circle.
	CornerRadius float64
	// BorderWidth is the decorative border drawn around circles.
	BorderWidth float64

	// HasPhoto is set when the node shows a photo slot.
	HasPhoto bool
	// PhotoSize is the edge of the square photo slot, 0 without a photo.
	PhotoSize float64
	// PhotoOffsetY is the photo slot centre relative to the shape centre.
	PhotoOffsetY float64
	// PhotoRadius rounds the photo clip. Circles clip to a circle.
	PhotoRadius float64

	SelectionWidth float64
	SelectionGap   float64

	LabelWidth      float64
	LabelLines      int
	LabelLineHeight float64
	// LabelOffsetY is the top of the label block relative to the shape
	// centre.
	LabelOffsetY float64
}

// Diameter returns the circle diameter, or 0 for rectangles.
func (d Dimensions) Diameter() float64 {
	if d.Shape != ShapeCircle {
		return 0
	}
	return d.Width
}

// Bounds returns the main shape rectangle for a node centred at (cx, cy).
func (d Dimensions) Bounds(cx, cy float64) Rect {
	return Rect{X: cx - d.Width/2, Y: cy - d.Height/2, Width: d.Width, Height: d.Height}
}

// PhotoRect returns the photo slot for a node centred at (cx, cy).
func (d Dimensions) PhotoRect(cx, cy float64) Rect {
	s := d.PhotoSize
	return Rect{X: cx - s/2, Y: cy + d.PhotoOffsetY - s/2, Width: s, Height: s}
}

// SelectionRect returns the outer edge of the selection ring.
func (d Dimensions) SelectionRect(cx, cy float64) Rect {
	return d.Bounds(cx, cy).Inset(-(d.SelectionGap + d.SelectionWidth))
}

// SelectionRadius returns the corner radius of the selection ring's outer
// edge, concentric with the shape.
func (d Dimensions) SelectionRadius() float64 {
	return d.CornerRadius + d.SelectionGap + d.SelectionWidth
}

// LabelRect returns the label block for a node centred at (cx, cy).
func (d Dimensions) LabelRect(cx, cy float64) Rect {
	return Rect{
		X:      cx - d.LabelWidth/2,
		Y:      cy + d.LabelOffsetY,
		Width:  d.LabelWidth,
		Height: float64(d.LabelLines) * d.LabelLineHeight,
	}
}

// rectRole holds the per-role constants of the rectangular card.
type rectRole struct {
	width, photo, radius, selection float64
}

// circleRole holds the per-role constants of the circular node.
type circleRole struct {
	diameter, border float64
}

var (
	rectRoles = [...]rectRole{
		RoleStandard: {width: 100, photo: 56, radius: 8, selection: 2},
		RoleParent:   {width: 120, photo: 70, radius: 10, selection: 3},
		RoleRoot:     {width: 140, photo: 84, radius: 14, selection: 3},
	}
	circleRoles = [...]circleRole{
		RoleStandard: {diameter: 60, border: 2},
		RoleParent:   {diameter: 76, border: 3},
		RoleRoot:     {diameter: 96, border: 4},
	}
	tidyRoles = [...]circleRole{
		RoleStandard: {diameter: 48, border: 2},
		RoleParent:   {diameter: 60, border: 2},
		RoleRoot:     {diameter: 80, border: 3},
	}
)

const (
	cardPadding     = 8
	cardPhotoGap    = 6
	cardPhotoRadius = 6
	labelLineHeight = 16
	selectionGap    = 3

	circleLabelGap    = 6
	circleLabelExtra  = 40
	tidyLabelGap      = 4
	tidyLabelExtra    = 12
	circleSelectWidth = 2
)

// NodeRole classifies n. The root has no parent; a generation-2 node with
// children is a parent; everything else is standard.
func NodeRole(n *LayoutNode, hasChildren bool) Role {
	switch {
	case n.IsRoot():
		return RoleRoot
	case n.Generation == 2 && hasChildren:
		return RoleParent
	default:
		return RoleStandard
	}
}

// CalculateNodeDimensions computes a node's geometry. It is a pure function
// of its arguments; the renderers draw from its result and nothing else.
func CalculateNodeDimensions(n *LayoutNode, showPhotos, hasChildren bool, mode DisplayMode, style LineStyle) Dimensions {
	role := NodeRole(n, hasChildren)
	if mode == DisplayCircular {
		return circleDimensions(n, role, showPhotos, style == LineStyleTidy)
	}
	return rectDimensions(n, role, showPhotos)
}

func rectDimensions(n *LayoutNode, role Role, showPhotos bool) Dimensions {
	c := rectRoles[role]
	w := c.width
	if n.Width > 0 {
		w = max(evenPx(n.Width), 2*cardPadding+2)
	}
	d := Dimensions{
		Role:            role,
		Shape:           ShapeRect,
		Width:           w,
		CornerRadius:    c.radius,
		SelectionWidth:  c.selection,
		SelectionGap:    selectionGap,
		LabelWidth:      w - 2*cardPadding,
		LabelLines:      2,
		LabelLineHeight: labelLineHeight,
	}
	labelH := float64(d.LabelLines) * labelLineHeight
	if n.HasPhoto(showPhotos) {
		photo := min(c.photo, w-2*cardPadding)
		d.HasPhoto = true
		d.PhotoSize = photo
		d.PhotoRadius = cardPhotoRadius
		d.Height = 2*cardPadding + photo + cardPhotoGap + labelH
		d.PhotoOffsetY = -d.Height/2 + cardPadding + photo/2
		d.LabelOffsetY = -d.Height/2 + cardPadding + photo + cardPhotoGap
	} else {
		d.Height = 2*cardPadding + labelH
		d.LabelOffsetY = -d.Height/2 + cardPadding
	}
	return d
}

func circleDimensions(n *LayoutNode, role Role, showPhotos, tidy bool) Dimensions {
	c := circleRoles[role]
	gap, extra, lines := float64(circleLabelGap), float64(circleLabelExtra), 2
	if tidy {
		c = tidyRoles[role]
		gap, extra, lines = tidyLabelGap, tidyLabelExtra, 1
	}
	dia := c.diameter
	if n.Width > 0 {
		dia = max(evenPx(n.Width), 2*c.border+2)
	}
	d := Dimensions{
		Role:            role,
		Shape:           ShapeCircle,
		Tidy:            tidy,
		Width:           dia,
		Height:          dia,
		CornerRadius:    dia / 2,
		BorderWidth:     c.border,
		SelectionWidth:  circleSelectWidth,
		SelectionGap:    selectionGap,
		LabelWidth:      dia + extra,
		LabelLines:      lines,
		LabelLineHeight: labelLineHeight,
		LabelOffsetY:    dia/2 + gap,
	}
	if n.HasPhoto(showPhotos) {
		d.HasPhoto = true
		d.PhotoSize = dia - 2*c.border
		d.PhotoRadius = d.PhotoSize / 2
	}
	return d
}

// evenPx rounds v to the nearest even whole pixel.
func evenPx(v float64) float64 {
	return 2 * math.Round(v/2)
}
