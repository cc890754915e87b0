package lodtree

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
)

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
// Premultiplication occurs at draw submission time.
type Color struct {
	R, G, B, A float64
}

// ColorWhite is the default tint (no color modification).
var ColorWhite = Color{1, 1, 1, 1}

// WithAlpha returns c with its alpha multiplied by a.
func (c Color) WithAlpha(a float64) Color {
	c.A *= a
	return c
}

// premultiplied returns the color as float32 components with alpha baked in.
func (c Color) premultiplied() (r, g, b, a float32) {
	al := clamp01(c.A)
	return float32(clamp01(c.R) * al), float32(clamp01(c.G) * al), float32(clamp01(c.B) * al), float32(al)
}

// toRGBA converts the color to a premultiplied color.RGBA.
func (c Color) toRGBA() color.RGBA {
	return color.RGBA{
		R: uint8(clamp01(c.R*c.A) * 255),
		G: uint8(clamp01(c.G*c.A) * 255),
		B: uint8(clamp01(c.B*c.A) * 255),
		A: uint8(clamp01(c.A) * 255),
	}
}

// Vec2 is a 2D vector used for positions, offsets, and sizes.
type Vec2 struct {
	X, Y float64
}

// Rect is an axis-aligned rectangle. The coordinate system has its origin at
// the top-left, with Y increasing downward.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// Intersects reports whether r and other overlap.
// Adjacent rectangles (sharing only an edge) are considered intersecting.
func (r Rect) Intersects(other Rect) bool {
	return r.X <= other.X+other.Width &&
		r.X+r.Width >= other.X &&
		r.Y <= other.Y+other.Height &&
		r.Y+r.Height >= other.Y
}

// Center returns the midpoint of the rectangle.
func (r Rect) Center() Vec2 {
	return Vec2{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Translate returns r shifted by (dx, dy).
func (r Rect) Translate(dx, dy float64) Rect {
	r.X += dx
	r.Y += dy
	return r
}

// Inset returns r shrunk by d on every edge. Negative d grows the rectangle.
func (r Rect) Inset(d float64) Rect {
	return Rect{X: r.X + d, Y: r.Y + d, Width: r.Width - 2*d, Height: r.Height - 2*d}
}

// whitePixel is a 1x1 white image used as the source for solid fills.
// Created lazily; drawing happens on the render goroutine only.
var whitePixel *ebiten.Image

func ensureWhitePixel() *ebiten.Image {
	if whitePixel == nil {
		whitePixel = ebiten.NewImage(1, 1)
		whitePixel.Fill(ColorWhite.toRGBA())
	}
	return whitePixel
}

// Tier is the level of detail assigned to a node by the tier classifier.
type Tier uint8

const (
	TierFull    Tier = 1 // full detail including the photo
	TierReduced Tier = 2 // shape and label only
	TierHidden  Tier = 3 // not drawn
)

// Valid reports whether t is one of the three defined tiers.
func (t Tier) Valid() bool {
	return t >= TierFull && t <= TierHidden
}

// DisplayMode selects the node shape family.
type DisplayMode uint8

const (
	DisplayRectangular DisplayMode = iota // rounded-rectangle cards
	DisplayCircular                       // circular photo with label below
)

// LineStyle is the connector-line style of the tree. It only influences node
// geometry in circular mode, where LineStyleTidy selects the compact variant.
type LineStyle uint8

const (
	LineStyleCurved   LineStyle = iota // default bezier connectors
	LineStyleStraight                  // orthogonal connectors
	LineStyleTidy                      // compact tidy-tree connectors
)

// Role is the visual role class of a node.
type Role uint8

const (
	RoleStandard Role = iota // every node that is neither root nor parent
	RoleParent               // generation-2 node that has children
	RoleRoot                 // the single node without a parent
)

// String returns the role name.
func (r Role) String() string {
	switch r {
	case RoleRoot:
		return "root"
	case RoleParent:
		return "parent"
	default:
		return "standard"
	}
}

// Shape is the outline of a node's main body.
type Shape uint8

const (
	ShapeRect   Shape = iota // rounded rectangle
	ShapeCircle              // circle
)

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
