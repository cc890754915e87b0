package lodtree

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// MorphState is the per-node crossfade state read by the renderers.
type MorphState struct {
	LowResOpacity  float64
	HighResOpacity float64
	HighResScale   float64
	Animating      bool
}

// IdleMorph is the state of a node that is not animating.
var IdleMorph = MorphState{LowResOpacity: 0, HighResOpacity: 1, HighResScale: 1}

type morph struct {
	prev  *Bitmap
	low   *gween.Tween
	high  *gween.Tween
	scale *gween.Tween
	state MorphState
	// grace counts down after the tweens finish; prev is released at zero.
	grace float32
}

// MorphController animates low-res to high-res swaps. Only upgrades seen at
// or above the extreme zoom threshold animate; everything else swaps
// instantly and never allocates.
//
// There is no global animation clock; the owner calls Update(dt) each frame.
type MorphController struct {
	threshold  float64
	duration   float32
	grace      float32
	startScale float64
	ease       ease.TweenFunc

	morphs map[string]*morph
}

// NewMorphController creates a controller from the morph fields of cfg.
func NewMorphController(cfg Config) *MorphController {
	return &MorphController{
		threshold:  cfg.ExtremeZoom,
		duration:   cfg.MorphDuration,
		grace:      cfg.MorphGrace,
		startScale: cfg.MorphStartScale,
		ease:       ease.OutCubic,
		morphs:     make(map[string]*morph),
	}
}

// Begin is called when an upgrade for id has been detected. It starts a
// crossfade from prev when prev is available and zoom >= the extreme zoom
// threshold, and reports whether it did. Otherwise any morph left over for
// id is dropped so the swap is instant.
func (m *MorphController) Begin(id string, prev *Bitmap, zoom float64) bool {
	if prev == nil || zoom < m.threshold {
		delete(m.morphs, id)
		return false
	}
	s := float32(m.startScale)
	m.morphs[id] = &morph{
		prev:  prev,
		low:   gween.New(1, 0, m.duration, m.ease),
		high:  gween.New(0, 1, m.duration, m.ease),
		scale: gween.New(s, 1, m.duration, m.ease),
		state: MorphState{
			LowResOpacity:  1,
			HighResOpacity: 0,
			HighResScale:   m.startScale,
			Animating:      true,
		},
		grace: m.grace,
	}
	return true
}

// Update advances every morph by dt seconds. Finished morphs return to the
// idle state and are removed once their grace period has elapsed.
func (m *MorphController) Update(dt float32) {
	for id, mo := range m.morphs {
		if !mo.state.Animating {
			mo.grace -= dt
			if mo.grace <= 0 {
				delete(m.morphs, id)
			}
			continue
		}
		low, d1 := mo.low.Update(dt)
		high, d2 := mo.high.Update(dt)
		scale, d3 := mo.scale.Update(dt)
		mo.state.LowResOpacity = float64(low)
		mo.state.HighResOpacity = float64(high)
		mo.state.HighResScale = float64(scale)
		if d1 && d2 && d3 {
			mo.state = IdleMorph
			if mo.grace <= 0 {
				delete(m.morphs, id)
			}
		}
	}
}

// State returns the current morph state for id, IdleMorph when none.
func (m *MorphController) State(id string) MorphState {
	if mo, ok := m.morphs[id]; ok {
		return mo.state
	}
	return IdleMorph
}

// Previous returns the retained low-res bitmap for id while it is animating
// or within its grace period.
func (m *MorphController) Previous(id string) *Bitmap {
	if mo, ok := m.morphs[id]; ok {
		return mo.prev
	}
	return nil
}

// Forget drops any morph for id.
func (m *MorphController) Forget(id string) {
	delete(m.morphs, id)
}

// Active returns the number of morphs currently animating.
func (m *MorphController) Active() int {
	n := 0
	for _, mo := range m.morphs {
		if mo.state.Animating {
			n++
		}
	}
	return n
}

// Len returns the number of retained morphs, including those in grace.
func (m *MorphController) Len() int {
	return len(m.morphs)
}
