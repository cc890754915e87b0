package lodtree

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
)

// Surface is the 2D drawing target the renderers issue primitives against.
// Coordinates are world units; the surface owns the world-to-screen mapping.
// The host owns the surface's lifecycle.
type Surface interface {
	FillRoundRect(r Rect, radius float64, c Color)
	// StrokeRoundRect strokes inward from r, so r is the outer edge.
	StrokeRoundRect(r Rect, radius, width float64, c Color)
	FillCircle(cx, cy, radius float64, c Color)
	// StrokeCircle strokes inward from radius.
	StrokeCircle(cx, cy, radius, width float64, c Color)
	FillPolygon(points []Vec2, c Color)
	// DrawImage draws bmp into dst, clipped to dst rounded by opts.ClipRadius.
	DrawImage(bmp *Bitmap, dst Rect, opts ImageOptions)
	// DrawText draws one line of text horizontally centred on cx with its
	// line box starting at top.
	DrawText(f Font, s string, cx, top float64, c Color)
}

// ImageOptions controls a bitmap draw.
type ImageOptions struct {
	// Src is the source region in bitmap pixels. Zero means the whole bitmap.
	Src Rect
	// ClipRadius rounds the clip. Half of dst's size clips to a circle.
	ClipRadius float64
	// Opacity multiplies the image alpha.
	Opacity float64
	// Scale scales the image about dst's centre. Zero means 1. The clip is
	// not scaled.
	Scale float64
	// Saturation is 1 for full colour and 0 for greyscale.
	Saturation float64
}

// ImageSurface draws onto an Ebitengine image through a view transform.
// It keeps scratch vertex buffers, so one surface must not be shared between
// goroutines.
type ImageSurface struct {
	dst  *ebiten.Image
	view [6]float64
	zoom float64

	verts []ebiten.Vertex
	inds  []uint16
	path  []Vec2
	inner []Vec2
}

// NewImageSurface creates a surface drawing onto dst with the identity
// transform.
func NewImageSurface(dst *ebiten.Image) *ImageSurface {
	return &ImageSurface{dst: dst, view: identityTransform, zoom: 1}
}

// SetView sets the world-to-screen affine transform, usually
// Camera.ViewMatrix.
func (s *ImageSurface) SetView(m [6]float64) {
	s.view = m
	s.zoom = math.Sqrt(math.Abs(m[0]*m[3] - m[1]*m[2]))
	if s.zoom == 0 {
		s.zoom = 1
	}
}

// Target returns the destination image.
func (s *ImageSurface) Target() *ebiten.Image {
	return s.dst
}

// FillRoundRect implements Surface.
func (s *ImageSurface) FillRoundRect(r Rect, radius float64, c Color) {
	s.path = roundRectPath(s.path[:0], r, radius, s.arcSegments(radius))
	s.fan(s.path, c)
}

// StrokeRoundRect implements Surface.
func (s *ImageSurface) StrokeRoundRect(r Rect, radius, width float64, c Color) {
	if width <= 0 {
		return
	}
	segs := s.arcSegments(radius)
	s.path = roundRectPath(s.path[:0], r, radius, segs)
	s.inner = roundRectPath(s.inner[:0], r.Inset(width), max(radius-width, 0), segs)
	s.strokePaths(s.path, s.inner, c)
}

// FillCircle implements Surface.
func (s *ImageSurface) FillCircle(cx, cy, radius float64, c Color) {
	s.FillRoundRect(circleRect(cx, cy, radius), radius, c)
}

// StrokeCircle implements Surface.
func (s *ImageSurface) StrokeCircle(cx, cy, radius, width float64, c Color) {
	s.StrokeRoundRect(circleRect(cx, cy, radius), radius, width, c)
}

// FillPolygon implements Surface. Points must describe a polygon that is
// star-shaped around its centroid.
func (s *ImageSurface) FillPolygon(points []Vec2, c Color) {
	s.fan(points, c)
}

// DrawImage implements Surface.
func (s *ImageSurface) DrawImage(bmp *Bitmap, dst Rect, opts ImageOptions) {
	if bmp == nil || bmp.img == nil || opts.Opacity <= 0 || dst.Width <= 0 || dst.Height <= 0 {
		return
	}
	src := opts.Src
	if src.Width <= 0 || src.Height <= 0 {
		src = Rect{Width: float64(bmp.width), Height: float64(bmp.height)}
	}
	ib := bmp.img.Bounds()
	src = src.Translate(float64(ib.Min.X), float64(ib.Min.Y))

	scale := opts.Scale
	if scale == 0 {
		scale = 1
	}
	c := dst.Center()
	quad := Rect{
		X:      c.X - dst.Width*scale/2,
		Y:      c.Y - dst.Height*scale/2,
		Width:  dst.Width * scale,
		Height: dst.Height * scale,
	}

	o := clamp01(opts.Opacity)
	tint := Color{1, 1, 1, o}
	s.beginTriangles()
	s.addVertex(Vec2{X: quad.X, Y: quad.Y}, src.X, src.Y, tint)
	s.addVertex(Vec2{X: quad.X + quad.Width, Y: quad.Y}, src.X+src.Width, src.Y, tint)
	s.addVertex(Vec2{X: quad.X, Y: quad.Y + quad.Height}, src.X, src.Y+src.Height, tint)
	s.addVertex(Vec2{X: quad.X + quad.Width, Y: quad.Y + quad.Height}, src.X+src.Width, src.Y+src.Height, tint)
	s.inds = append(s.inds, 0, 1, 2, 1, 3, 2)

	x0, y0 := transformPoint(s.view, dst.X, dst.Y)
	clip := Rect{X: x0, Y: y0, Width: dst.Width * s.zoom, Height: dst.Height * s.zoom}

	var op ebiten.DrawTrianglesShaderOptions
	op.Uniforms = photoUniforms(opts.Saturation, clip, opts.ClipRadius*s.zoom)
	op.Images[0] = bmp.img
	s.dst.DrawTrianglesShader(s.verts, s.inds, ensurePhotoShader(), &op)
}

// DrawText implements Surface. Only *TTFFont faces can be drawn; other
// fonts are measured but skipped.
func (s *ImageSurface) DrawText(f Font, str string, cx, top float64, c Color) {
	ttf, ok := f.(*TTFFont)
	if !ok || str == "" {
		return
	}
	x, y := transformPoint(s.view, cx, top)
	op := &text.DrawOptions{}
	op.GeoM.Scale(s.zoom, s.zoom)
	op.GeoM.Translate(x, y)
	r, g, b, a := c.premultiplied()
	op.ColorScale.Scale(r, g, b, a)
	op.LineSpacing = ttf.lh
	op.PrimaryAlign = text.AlignCenter
	text.Draw(s.dst, str, ttf.face, op)
}

// --- triangle helpers ---

func (s *ImageSurface) beginTriangles() {
	s.verts = s.verts[:0]
	s.inds = s.inds[:0]
}

// addVertex appends a vertex at world point p with premultiplied colour c.
func (s *ImageSurface) addVertex(p Vec2, sx, sy float64, c Color) {
	x, y := transformPoint(s.view, p.X, p.Y)
	r, g, b, a := c.premultiplied()
	s.verts = append(s.verts, ebiten.Vertex{
		DstX: float32(x), DstY: float32(y),
		SrcX: float32(sx), SrcY: float32(sy),
		ColorR: r, ColorG: g, ColorB: b, ColorA: a,
	})
}

func (s *ImageSurface) flushSolid() {
	if len(s.inds) == 0 {
		return
	}
	var op ebiten.DrawTrianglesOptions
	op.ColorScaleMode = ebiten.ColorScaleModePremultipliedAlpha
	op.AntiAlias = true
	s.dst.DrawTriangles(s.verts, s.inds, ensureWhitePixel(), &op)
}

// fan fills points with a triangle fan around their centroid.
func (s *ImageSurface) fan(points []Vec2, c Color) {
	n := len(points)
	if n < 3 {
		return
	}
	var cx, cy float64
	for _, p := range points {
		cx += p.X
		cy += p.Y
	}
	s.beginTriangles()
	s.addVertex(Vec2{X: cx / float64(n), Y: cy / float64(n)}, 0.5, 0.5, c)
	for _, p := range points {
		s.addVertex(p, 0.5, 0.5, c)
	}
	for i := range n {
		s.inds = append(s.inds, 0, uint16(1+i), uint16(1+(i+1)%n))
	}
	s.flushSolid()
}

// strokePaths fills the band between outer and inner, which must have the
// same number of points.
func (s *ImageSurface) strokePaths(outer, inner []Vec2, c Color) {
	n := len(outer)
	if n < 3 || len(inner) != n {
		return
	}
	s.beginTriangles()
	for i := range n {
		s.addVertex(outer[i], 0.5, 0.5, c)
		s.addVertex(inner[i], 0.5, 0.5, c)
	}
	for i := range n {
		j := (i + 1) % n
		o0, i0 := uint16(2*i), uint16(2*i+1)
		o1, i1 := uint16(2*j), uint16(2*j+1)
		s.inds = append(s.inds, o0, o1, i0, i0, o1, i1)
	}
	s.flushSolid()
}

// arcSegments picks a per-corner segment count for a radius at the current
// zoom.
func (s *ImageSurface) arcSegments(radius float64) int {
	return arcSegments(radius * s.zoom)
}

func arcSegments(screenRadius float64) int {
	switch {
	case screenRadius <= 0:
		return 1
	case screenRadius < 4:
		return 2
	case screenRadius < 16:
		return 4
	case screenRadius < 64:
		return 8
	default:
		return 16
	}
}

// roundRectPath appends the clockwise outline of a rounded rectangle to
// dst. Each corner contributes segs+1 points, so two calls with equal segs
// produce paths of equal length.
func roundRectPath(dst []Vec2, r Rect, radius float64, segs int) []Vec2 {
	radius = max(0, min(radius, r.Width/2, r.Height/2))
	corners := [4]struct{ cx, cy, start float64 }{
		{r.X + r.Width - radius, r.Y + radius, -math.Pi / 2},
		{r.X + r.Width - radius, r.Y + r.Height - radius, 0},
		{r.X + radius, r.Y + r.Height - radius, math.Pi / 2},
		{r.X + radius, r.Y + radius, math.Pi},
	}
	for _, k := range corners {
		for i := 0; i <= segs; i++ {
			a := k.start + float64(i)/float64(segs)*math.Pi/2
			sin, cos := math.Sincos(a)
			dst = append(dst, Vec2{X: k.cx + cos*radius, Y: k.cy + sin*radius})
		}
	}
	return dst
}

func circleRect(cx, cy, radius float64) Rect {
	return Rect{X: cx - radius, Y: cy - radius, Width: 2 * radius, Height: 2 * radius}
}
