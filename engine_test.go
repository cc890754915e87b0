package lodtree

import (
	"errors"
	"image"
	"testing"
	"time"
)

type recordingSink struct {
	events []ImageEvent
}

func (s *recordingSink) EmitEvent(ev ImageEvent) {
	s.events = append(s.events, ev)
}

func (s *recordingSink) ofType(t EventType) []ImageEvent {
	var out []ImageEvent
	for _, ev := range s.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

func newTestEngine(l ImageLoader) (*Engine, *recordingSink) {
	e := NewEngine(l, DefaultConfig())
	sink := &recordingSink{}
	e.SetEventSink(sink)
	return e, sink
}

// pumpEngine runs Update until done reports true or two seconds pass.
func pumpEngine(t *testing.T, e *Engine, done func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !done() {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for engine loads")
		}
		e.Update(1.0 / 60)
		time.Sleep(time.Millisecond)
	}
}

func photoNode(id string, tier Tier) LayoutNode {
	return LayoutNode{
		ID:         id,
		Name:       "Member " + id,
		Generation: 3,
		ParentID:   "p",
		PhotoURL:   "https://photos.example/" + id + ".jpg",
		Tier:       tier,
	}
}

func viewAt(zoom float64) ViewState {
	return ViewState{Zoom: zoom, ShowPhotos: true, Mode: DisplayRectangular, DevicePixelRatio: 2}
}

func TestEngineLoadsRequiredBucket(t *testing.T) {
	l := newFakeLoader()
	e, sink := newTestEngine(l)
	defer e.Close()

	nodes := []LayoutNode{photoNode("a", TierFull)}
	e.SetFrame(nodes, viewAt(1))
	pumpEngine(t, e, func() bool { return len(sink.ofType(EventImageDisplayed)) == 1 })

	// 56px photo slot at 2x density and zoom 1 needs 112px; with the 1.2
	// margin that is 134.4, so 180.
	bmp, b := e.Displayed("a")
	if b != 180 || bmp == nil || bmp.Width() != 180 {
		t.Errorf("Displayed = %v, %d, want a 180px bitmap", bmp, b)
	}
	ev := sink.ofType(EventImageDisplayed)[0]
	if ev.NodeID != "a" || ev.Bucket != 180 || ev.URL != nodes[0].PhotoURL {
		t.Errorf("event = %+v", ev)
	}
	if l.callCount(nodes[0].PhotoURL, 180) != 1 {
		t.Error("expected exactly one load")
	}

	// Same zoom again: no new load.
	e.SetFrame(nodes, viewAt(1))
	e.Update(1.0 / 60)
	if e.Queue().Len() != 0 {
		t.Error("displayed bucket should not be requested again")
	}
}

func TestEngineDisplayIsMonotonic(t *testing.T) {
	l := newFakeLoader()
	l.gate = make(chan struct{})
	e, sink := newTestEngine(l)
	defer e.Close()

	nodes := []LayoutNode{photoNode("a", TierFull)}
	url := nodes[0].PhotoURL

	e.SetFrame(nodes, viewAt(0.8)) // 120
	e.Update(0)
	e.SetFrame(nodes, viewAt(2))
	e.SetFrame(nodes, viewAt(2)) // sustained: 512
	e.Update(0)
	if !e.Queue().Pending(url, 120) || !e.Queue().Pending(url, 512) {
		t.Fatal("expected both buckets in flight")
	}

	close(l.gate)
	pumpEngine(t, e, func() bool { return e.Queue().Len() == 0 })

	if _, b := e.Displayed("a"); b != 512 {
		t.Errorf("displayed bucket = %d, want 512", b)
	}
	for _, ev := range sink.ofType(EventImageDisplayed) {
		if ev.Bucket < ev.Previous {
			t.Errorf("display went from %d down to %d", ev.Previous, ev.Bucket)
		}
	}

	// A late smaller completion is ignored.
	st := e.nodes["a"]
	e.loaded("a", st.mount, url, 120, fakeBitmap(120, 120), nil)
	if _, b := e.Displayed("a"); b != 512 {
		t.Errorf("after late 120: displayed bucket = %d, want 512", b)
	}
}

func TestEngineMorphOnlyAtExtremeZoom(t *testing.T) {
	tests := []struct {
		zoom  float64
		morph bool
	}{
		{1.5, false},
		{3.5, true},
	}
	for _, tt := range tests {
		e, sink := newTestEngine(newFakeLoader())
		nodes := []LayoutNode{photoNode("a", TierFull)}

		e.SetFrame(nodes, viewAt(0.3))
		pumpEngine(t, e, func() bool { return len(sink.ofType(EventImageDisplayed)) == 1 })
		e.SetFrame(nodes, viewAt(tt.zoom))
		e.SetFrame(nodes, viewAt(tt.zoom))
		pumpEngine(t, e, func() bool { return len(sink.ofType(EventImageDisplayed)) == 2 })

		started := sink.ofType(EventMorphStarted)
		if got := len(started) == 1; got != tt.morph {
			t.Errorf("zoom %v: morph started = %v, want %v", tt.zoom, got, tt.morph)
		}
		if tt.morph {
			if !e.Morphs().State("a").Animating {
				t.Errorf("zoom %v: node should be animating", tt.zoom)
			}
			s := &recordingSurface{}
			e.SetFont(fixedFont{})
			e.Draw(s)
			if n := s.count(opImage); n != 2 {
				t.Errorf("zoom %v: drew %d images during morph, want 2", tt.zoom, n)
			}
			for range 60 {
				e.Update(1.0 / 60)
			}
			if e.Morphs().Len() != 0 {
				t.Errorf("zoom %v: morph should finish", tt.zoom)
			}
		} else if e.Morphs().Len() != 0 {
			t.Errorf("zoom %v: instant swap should not allocate a morph", tt.zoom)
		}
		e.Close()
	}
}

func TestEngineStaleCompletionAfterUnmount(t *testing.T) {
	l := newFakeLoader()
	l.gate = make(chan struct{})
	e, sink := newTestEngine(l)
	defer e.Close()

	nodes := []LayoutNode{photoNode("a", TierFull)}
	url := nodes[0].PhotoURL
	e.SetFrame(nodes, viewAt(1))
	e.Update(0)
	if e.Queue().InFlight() != 1 {
		t.Fatal("expected the load to be running")
	}

	e.SetFrame(nil, viewAt(1))
	if e.Mounted("a") {
		t.Fatal("node absent from the frame should unmount")
	}
	close(l.gate)
	pumpEngine(t, e, func() bool { return e.Queue().Len() == 0 })

	if len(sink.ofType(EventImageDisplayed)) != 0 {
		t.Error("unmounted node should not display")
	}
	if !e.Cache().Contains(url, 180) {
		t.Error("completed load should still warm the cache")
	}

	// A completion carrying an old mount is counted and ignored.
	e.SetFrame(nodes, viewAt(1))
	old := e.nodes["a"].mount - 1
	e.loaded("a", old, url, 1024, fakeBitmap(4, 4), nil)
	if e.Stats().Stale != 1 {
		t.Errorf("Stale = %d, want 1", e.Stats().Stale)
	}
	if _, b := e.Displayed("a"); b == 1024 {
		t.Error("stale completion should not display")
	}
}

func TestEngineRemountOnPhotoChange(t *testing.T) {
	e, sink := newTestEngine(newFakeLoader())
	defer e.Close()

	nodes := []LayoutNode{photoNode("a", TierFull)}
	e.SetFrame(nodes, viewAt(1))
	pumpEngine(t, e, func() bool { return len(sink.ofType(EventImageDisplayed)) == 1 })

	nodes[0].PhotoURL = "https://photos.example/new.jpg"
	e.SetFrame(nodes, viewAt(1))
	if bmp, _ := e.Displayed("a"); bmp != nil {
		t.Error("changing the photo url should drop the displayed bitmap")
	}
	pumpEngine(t, e, func() bool { return len(sink.ofType(EventImageDisplayed)) == 2 })
	if ev := sink.ofType(EventImageDisplayed)[1]; ev.URL != nodes[0].PhotoURL {
		t.Errorf("displayed %s, want the new url", ev.URL)
	}
}

func TestEngineReducedTierPrefetches(t *testing.T) {
	l := newFakeLoader()
	e, sink := newTestEngine(l)
	defer e.Close()

	nodes := []LayoutNode{photoNode("a", TierReduced)}
	url := nodes[0].PhotoURL
	e.SetFrame(nodes, viewAt(0.3))
	pumpEngine(t, e, func() bool { return e.Cache().Contains(url, 40) })

	if len(sink.ofType(EventImageDisplayed)) != 0 {
		t.Error("reduced node should not display its photo")
	}
	if bmp, _ := e.Displayed("a"); bmp != nil {
		t.Error("reduced node should have nothing displayed")
	}

	// Prefetch happens once.
	e.SetFrame(nodes, viewAt(0.3))
	e.Update(0)
	if l.callCount(url, 40) != 1 {
		t.Errorf("prefetch loads = %d, want 1", l.callCount(url, 40))
	}

	// Promoted to full detail, the prefetched bitmap shows at once.
	nodes[0].Tier = TierFull
	e.SetFrame(nodes, viewAt(0.3))
	disp := sink.ofType(EventImageDisplayed)
	if len(disp) != 1 || disp[0].Bucket != 40 {
		t.Errorf("displayed events = %+v, want the cached 40px bitmap", disp)
	}
}

func TestEngineHiddenTierNotMounted(t *testing.T) {
	e, _ := newTestEngine(newFakeLoader())
	defer e.Close()

	nodes := []LayoutNode{
		photoNode("a", TierFull),
		photoNode("b", TierReduced),
		photoNode("c", TierHidden),
		photoNode("d", 0),
	}
	e.SetFrame(nodes, viewAt(1))
	for _, tt := range []struct {
		id   string
		want bool
	}{{"a", true}, {"b", true}, {"c", false}, {"d", false}} {
		if got := e.Mounted(tt.id); got != tt.want {
			t.Errorf("Mounted(%s) = %v, want %v", tt.id, got, tt.want)
		}
	}

	s := &recordingSurface{}
	e.Draw(s)
	if st := e.Stats(); st.Drawn != 2 || st.Mounted != 2 {
		t.Errorf("Drawn = %d, Mounted = %d, want 2, 2", st.Drawn, st.Mounted)
	}

	// Hiding a mounted node unmounts it.
	nodes[0].Tier = TierHidden
	e.SetFrame(nodes, viewAt(1))
	if e.Mounted("a") {
		t.Error("hidden node should unmount")
	}
}

func TestEngineDrawStates(t *testing.T) {
	l := newFakeLoader()
	l.gate = make(chan struct{})
	e, _ := newTestEngine(l)
	defer func() {
		close(l.gate)
		e.Close()
	}()
	e.SetFont(fixedFont{})
	e.placeholders.decode = func(string, int, int, int) (image.Image, error) {
		return image.NewRGBA(image.Rect(0, 0, 32, 32)), nil
	}

	withHash := photoNode("a", TierFull)
	withHash.Blurhash = testBlurhash
	plain := photoNode("b", TierFull)
	view := viewAt(1)
	view.SelectedID = "b"
	e.SetFrame([]LayoutNode{withHash, plain}, view)

	s := &recordingSurface{}
	e.Draw(s)
	imgs := s.images()
	if len(imgs) != 1 || imgs[0].opts.Opacity != DefaultConfig().PlaceholderOpacity {
		t.Errorf("images = %d, want one placeholder at the configured opacity", len(imgs))
	}
	sel := 0
	for _, op := range s.ops {
		if op.color == e.theme.Selection {
			sel++
		}
	}
	if sel != 1 {
		t.Errorf("selection rings = %d, want 1", sel)
	}
	if e.Stats().Placeholders != 1 {
		t.Errorf("Placeholders = %d, want 1", e.Stats().Placeholders)
	}
}

func TestEngineLoadFailure(t *testing.T) {
	l := newFakeLoader()
	e, sink := newTestEngine(l)
	defer e.Close()

	nodes := []LayoutNode{photoNode("a", TierFull)}
	url := nodes[0].PhotoURL
	boom := errors.New("server down")
	l.setFail(url, boom)

	e.SetFrame(nodes, viewAt(1))
	pumpEngine(t, e, func() bool { return len(sink.ofType(EventImageFailed)) == 1 })
	if ev := sink.ofType(EventImageFailed)[0]; !errors.Is(ev.Err, boom) || ev.Bucket != 180 {
		t.Errorf("failed event = %+v", ev)
	}

	// The failed bucket backs off instead of retrying every frame.
	l.setFail(url, nil)
	for range 10 {
		e.SetFrame(nodes, viewAt(1))
		e.Update(1.0 / 60)
	}
	if n := l.callCount(url, 180); n != 1 {
		t.Errorf("loads during backoff = %d, want 1", n)
	}

	for range retryFrames {
		e.SetFrame(nodes, viewAt(1))
	}
	pumpEngine(t, e, func() bool { return len(sink.ofType(EventImageDisplayed)) == 1 })
}

func TestEngineNoPhotosMode(t *testing.T) {
	l := newFakeLoader()
	e, _ := newTestEngine(l)
	defer e.Close()

	view := viewAt(1)
	view.ShowPhotos = false
	e.SetFrame([]LayoutNode{photoNode("a", TierFull)}, view)
	e.Update(0)
	if e.Queue().Len() != 0 || e.nodes["a"].dims.HasPhoto {
		t.Error("photos off should reserve no slot and load nothing")
	}
}

func TestEngineCropRaisesRequiredBucket(t *testing.T) {
	l := newFakeLoader()
	e, sink := newTestEngine(l)
	defer e.Close()

	n := photoNode("a", TierFull)
	n.Crop = Crop{Left: 0.25, Right: 0.25}
	e.SetFrame([]LayoutNode{n}, viewAt(1))
	pumpEngine(t, e, func() bool { return len(sink.ofType(EventImageDisplayed)) == 1 })

	// Half the source width is visible, so 56px needs 112 source px per
	// slot px: 112 x 2 x 1.2 = 268.8, so 512 instead of 180.
	if _, b := e.Displayed("a"); b != 512 {
		t.Errorf("Displayed bucket = %d, want 512", b)
	}
	if c := l.callCount(n.PhotoURL, 180); c != 0 {
		t.Errorf("uncropped bucket loaded %d times", c)
	}
}

func TestEngineDroppedLoadRetriesNextFrame(t *testing.T) {
	l := newFakeLoader()
	cfg := DefaultConfig()
	cfg.MaxPending = 1
	cfg.MaxInFlight = 1
	e := NewEngine(l, cfg)
	sink := &recordingSink{}
	e.SetEventSink(sink)
	defer e.Close()

	nodes := []LayoutNode{photoNode("a", TierFull), photoNode("b", TierFull)}
	e.SetFrame(nodes, viewAt(1))
	failed := sink.ofType(EventImageFailed)
	if len(failed) != 1 || failed[0].NodeID != "a" || !errors.Is(failed[0].Err, ErrDropped) {
		t.Fatalf("failed events = %+v, want a dropped", failed)
	}

	// A drop is not a load failure: both nodes load well before the
	// failure backoff would end.
	for frame := 0; len(sink.ofType(EventImageDisplayed)) < 2; frame++ {
		if frame == retryFrames {
			t.Fatal("dropped node waited for the failure backoff")
		}
		e.SetFrame(nodes, viewAt(1))
		e.Update(1.0 / 60)
		time.Sleep(2 * time.Millisecond)
	}
}

func TestEngineSetThemeKeepsPlaceholderOpacity(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PlaceholderOpacity = 0.5
	e := NewEngine(newFakeLoader(), cfg)
	defer e.Close()

	th := DefaultTheme()
	th.PlaceholderOpacity = 1
	e.SetTheme(th)
	if got := e.theme.PlaceholderOpacity; got != 0.5 {
		t.Errorf("PlaceholderOpacity = %v, want 0.5", got)
	}
}

func TestEngineUnmountBeforeDraw(t *testing.T) {
	e, _ := newTestEngine(newFakeLoader())
	defer e.Close()

	view := viewAt(1)
	view.ShowPhotos = false
	e.SetFrame([]LayoutNode{photoNode("a", TierFull), photoNode("b", TierFull)}, view)
	e.Unmount("a")

	s := &recordingSurface{}
	e.Draw(s)
	if got := e.Stats().Drawn; got != 1 {
		t.Errorf("Drawn = %d, want 1", got)
	}
	if e.Mounted("a") {
		t.Error("a should be unmounted")
	}
}
