package lodtree

import (
	"hash/fnv"
	"math"
)

// Pattern is a decorative geometric glyph drawn at low opacity over root and
// parent nodes.
type Pattern uint8

const (
	PatternOctagram Pattern = iota // eight-pointed star
	PatternHexagram                // six-pointed star
	PatternRosette                 // ring of small diamonds
	PatternLattice                 // four diamonds in a cross

	patternCount
)

// String returns the pattern name.
func (p Pattern) String() string {
	switch p {
	case PatternOctagram:
		return "octagram"
	case PatternHexagram:
		return "hexagram"
	case PatternRosette:
		return "rosette"
	case PatternLattice:
		return "lattice"
	default:
		return "unknown"
	}
}

// PatternIndex deterministically maps a parent id and sibling order to an
// index in [0, count). Siblings under one parent get consecutive indices, so
// neighbours differ while every node keeps its pattern across frames.
func PatternIndex(parentID string, siblingOrder, count int) int {
	if count <= 0 {
		return 0
	}
	h := fnv.New32a()
	h.Write([]byte(parentID))
	i := (int(h.Sum32()%uint32(count)) + siblingOrder%count) % count
	if i < 0 {
		i += count
	}
	return i
}

// NodePattern returns the glyph for n.
func NodePattern(n *LayoutNode) Pattern {
	return Pattern(PatternIndex(n.ParentID, n.SiblingOrder, int(patternCount)))
}

// Polygons returns the filled polygons of p fitted inside a circle of
// radius r centred at (cx, cy).
func (p Pattern) Polygons(cx, cy, r float64) [][]Vec2 {
	switch p {
	case PatternOctagram:
		return [][]Vec2{star(cx, cy, r, r*0.72, 8, -math.Pi/2)}
	case PatternHexagram:
		return [][]Vec2{star(cx, cy, r, r*0.58, 6, -math.Pi/2)}
	case PatternRosette:
		polys := make([][]Vec2, 0, 6)
		for i := range 6 {
			a := float64(i)*math.Pi/3 - math.Pi/2
			px, py := cx+math.Cos(a)*r*0.62, cy+math.Sin(a)*r*0.62
			polys = append(polys, diamond(px, py, r*0.3, r*0.14, a))
		}
		return polys
	case PatternLattice:
		polys := make([][]Vec2, 0, 4)
		for i := range 4 {
			a := float64(i) * math.Pi / 2
			px, py := cx+math.Cos(a)*r*0.5, cy+math.Sin(a)*r*0.5
			polys = append(polys, diamond(px, py, r*0.45, r*0.22, a))
		}
		return polys
	default:
		return nil
	}
}

// star returns a star polygon alternating between the outer and inner radii.
func star(cx, cy, outer, inner float64, points int, rot float64) []Vec2 {
	out := make([]Vec2, 0, points*2)
	step := math.Pi / float64(points)
	for i := range points * 2 {
		rad := outer
		if i%2 == 1 {
			rad = inner
		}
		a := rot + float64(i)*step
		out = append(out, Vec2{X: cx + math.Cos(a)*rad, Y: cy + math.Sin(a)*rad})
	}
	return out
}

// diamond returns a rhombus with half-diagonals hl (along angle a) and hw.
func diamond(cx, cy, hl, hw, a float64) []Vec2 {
	sin, cos := math.Sincos(a)
	return []Vec2{
		{X: cx + cos*hl, Y: cy + sin*hl},
		{X: cx - sin*hw, Y: cy + cos*hw},
		{X: cx - cos*hl, Y: cy - sin*hl},
		{X: cx + sin*hw, Y: cy - cos*hw},
	}
}
