package lodtree

import (
	"math"
	"testing"
)

func TestMorphGatedByZoom(t *testing.T) {
	m := NewMorphController(DefaultConfig())
	prev := fakeBitmap(60, 60)

	if m.Begin("a", prev, 1.5) {
		t.Error("Begin at zoom 1.5 should not animate")
	}
	if st := m.State("a"); st != IdleMorph {
		t.Errorf("State = %+v, want idle", st)
	}
	if m.Len() != 0 {
		t.Errorf("Len = %d, want 0 (no allocation for instant swaps)", m.Len())
	}

	if !m.Begin("a", prev, 3.5) {
		t.Fatal("Begin at zoom 3.5 should animate")
	}
	st := m.State("a")
	if !st.Animating || st.LowResOpacity != 1 || st.HighResOpacity != 0 || st.HighResScale != 0.98 {
		t.Errorf("initial state = %+v", st)
	}
	if m.Previous("a") != prev {
		t.Error("Previous should return the retained bitmap")
	}
}

func TestMorphNeedsPrevious(t *testing.T) {
	m := NewMorphController(DefaultConfig())
	if m.Begin("a", nil, 10) {
		t.Error("Begin without a previous bitmap should not animate")
	}
}

func TestMorphProgress(t *testing.T) {
	m := NewMorphController(DefaultConfig())
	m.Begin("a", fakeBitmap(60, 60), 4)

	m.Update(0.125)
	st := m.State("a")
	if !st.Animating {
		t.Fatal("should still be animating halfway")
	}
	if st.HighResOpacity <= 0 || st.HighResOpacity >= 1 {
		t.Errorf("HighResOpacity = %v, want in (0, 1)", st.HighResOpacity)
	}
	if math.Abs(st.LowResOpacity+st.HighResOpacity-1) > 1e-5 {
		t.Errorf("opacities %v + %v should sum to 1", st.LowResOpacity, st.HighResOpacity)
	}
	if st.HighResScale <= 0.98 || st.HighResScale >= 1 {
		t.Errorf("HighResScale = %v, want in (0.98, 1)", st.HighResScale)
	}
	if m.Active() != 1 {
		t.Errorf("Active = %d, want 1", m.Active())
	}

	m.Update(0.2)
	if st := m.State("a"); st != IdleMorph {
		t.Errorf("after duration State = %+v, want idle", st)
	}
	if m.Active() != 0 {
		t.Errorf("Active = %d, want 0", m.Active())
	}
	// Previous is held for the grace period.
	if m.Previous("a") == nil {
		t.Error("previous bitmap should be retained during grace")
	}
	m.Update(0.2)
	if m.Previous("a") != nil || m.Len() != 0 {
		t.Error("previous bitmap should be released after grace")
	}
}

func TestMorphRestartAndForget(t *testing.T) {
	m := NewMorphController(DefaultConfig())
	m.Begin("a", fakeBitmap(40, 40), 4)
	m.Update(0.1)

	second := fakeBitmap(60, 60)
	m.Begin("a", second, 4)
	if st := m.State("a"); st.HighResOpacity != 0 {
		t.Errorf("restart should reset the crossfade, HighResOpacity = %v", st.HighResOpacity)
	}
	if m.Previous("a") != second {
		t.Error("restart should retain the new previous bitmap")
	}

	// An instant swap cancels the running morph.
	m.Begin("a", second, 1)
	if m.Len() != 0 {
		t.Error("non-animated upgrade should drop the running morph")
	}

	m.Begin("b", second, 4)
	m.Forget("b")
	if m.State("b") != IdleMorph {
		t.Error("Forget should drop the morph")
	}
}
