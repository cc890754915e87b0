package lodtree

import (
	"errors"
	"io"
	"os"
	"time"
)

// ViewState is the global per-frame view input from the host.
type ViewState struct {
	Zoom       float64
	ShowPhotos bool
	SelectedID string
	Mode       DisplayMode
	LineStyle  LineStyle
	// DevicePixelRatio overrides Config.DevicePixelRatio when > 0.
	DevicePixelRatio float64
}

// retryFrames is how many frames a failed (url, bucket) waits before it is
// requested again.
const retryFrames = 120

// nodeState is the engine's arena entry for one mounted node.
type nodeState struct {
	node        LayoutNode
	dims        Dimensions
	hasChildren bool
	// mount identifies this mount; completions carrying an older value are
	// stale.
	mount uint64
	// seen is the last frame the node was listed in.
	seen uint64

	displayed       *Bitmap
	displayedBucket Bucket
	// requested is the largest bucket with a load outstanding, 0 if none.
	requested Bucket
	prefetched bool

	failedBucket Bucket
	failedAt     uint64

	placeholder *Bitmap
}

// EngineStats is a snapshot of engine counters.
type EngineStats struct {
	Frame        uint64
	Mounted      int
	Drawn        int
	Queue        QueueStats
	Cache        CacheStats
	Placeholders int
	ActiveMorphs int
	// Stale counts completions discarded because their node had unmounted.
	Stale uint64
}

// Engine owns the render-thread state of the LOD pipeline: the node arena,
// the image cache and load queue, the hysteresis selector, bucket history,
// morphs and placeholders. Every method must be called from the render
// goroutine; loads run on workers and are delivered back through Update.
type Engine struct {
	cfg          Config
	cache        *ImageCache
	queue        *LoadQueue
	selector     *BucketSelector
	history      *BucketHistory
	morphs       *MorphController
	placeholders *PlaceholderCache

	nodes   map[string]*nodeState
	order   []*nodeState
	parents map[string]bool
	view    ViewState
	frame   uint64
	mounts  uint64
	stale   uint64
	drawn   int

	theme  Theme
	font   Font
	rect   RectRenderer
	circle CircleRenderer
	simple SimpleCircleRenderer
	state  NodeDrawState

	sink   EventSink
	debug  bool
	logOut io.Writer
}

// NewEngine creates an engine loading photos through loader. cfg is used as
// given; call Config.Validate or LoadConfig first for untrusted values.
func NewEngine(loader ImageLoader, cfg Config) *Engine {
	queue := NewLoadQueue(loader, cfg)
	e := &Engine{
		cfg:          cfg,
		queue:        queue,
		cache:        NewImageCache(cfg.CacheBudgetBytes, cfg.Buckets, queue),
		selector:     NewBucketSelector(cfg),
		history:      NewBucketHistory(),
		morphs:       NewMorphController(cfg),
		placeholders: NewPlaceholderCache(cfg),
		nodes:        make(map[string]*nodeState),
		parents:      make(map[string]bool),
		theme:        DefaultTheme(),
		logOut:       os.Stderr,
	}
	e.theme.PlaceholderOpacity = cfg.PlaceholderOpacity
	e.rect.Theme = &e.theme
	e.circle.Theme = &e.theme
	e.simple.Theme = &e.theme
	return e
}

// Cache returns the engine's image cache.
func (e *Engine) Cache() *ImageCache { return e.cache }

// Queue returns the engine's load queue.
func (e *Engine) Queue() *LoadQueue { return e.queue }

// Morphs returns the engine's morph controller.
func (e *Engine) Morphs() *MorphController { return e.morphs }

// SetFont sets the label font. Labels are skipped while it is nil.
func (e *Engine) SetFont(f Font) { e.font = f }

// SetTheme replaces the renderer palette. Placeholder opacity stays at the
// configured value.
func (e *Engine) SetTheme(t Theme) {
	e.theme = t
	e.theme.PlaceholderOpacity = e.cfg.PlaceholderOpacity
}

// SetEventSink sets the receiver of image events. Nil disables events.
func (e *Engine) SetEventSink(sink EventSink) { e.sink = sink }

// SetFrame hands the engine the nodes laid out for this frame. Nodes that
// were mounted and are absent or hidden now are unmounted. Tier 1 nodes
// with a photo request their bucket; tier 2 nodes prefetch the smallest
// bucket. nodes is copied and never modified.
func (e *Engine) SetFrame(nodes []LayoutNode, view ViewState) {
	e.frame++
	e.view = view

	clear(e.parents)
	for i := range nodes {
		if p := nodes[i].ParentID; p != "" {
			e.parents[p] = true
		}
	}

	e.order = e.order[:0]
	for i := range nodes {
		n := &nodes[i]
		if !n.Tier.Valid() || n.Tier == TierHidden {
			continue
		}
		st := e.mount(n)
		st.node = *n
		st.hasChildren = e.parents[n.ID]
		showPhotos := view.ShowPhotos && n.Tier == TierFull
		st.dims = CalculateNodeDimensions(&st.node, showPhotos, st.hasChildren, view.Mode, view.LineStyle)
		e.order = append(e.order, st)

		switch {
		case st.dims.HasPhoto:
			if st.placeholder == nil && st.displayed == nil {
				st.placeholder = e.placeholders.Get(n.Blurhash)
			}
			e.request(st)
		case n.Tier == TierReduced && n.HasPhoto(view.ShowPhotos):
			e.prefetch(st)
		}
	}

	for id, st := range e.nodes {
		if st.seen != e.frame {
			e.Unmount(id)
		}
	}
}

// mount returns the arena entry for n, creating it on first sight. A node
// whose photo URL changed is remounted so stale completions are dropped.
func (e *Engine) mount(n *LayoutNode) *nodeState {
	st := e.nodes[n.ID]
	if st != nil && st.node.PhotoURL != n.PhotoURL {
		e.Unmount(n.ID)
		st = nil
	}
	if st == nil {
		e.mounts++
		st = &nodeState{mount: e.mounts}
		e.nodes[n.ID] = st
	}
	st.seen = e.frame
	return st
}

// nodeScale returns the zoom a node was classified at.
func (e *Engine) nodeScale(n *LayoutNode) float64 {
	if n.Scale > 0 {
		return n.Scale
	}
	return e.view.Zoom
}

// request asks for the bucket a tier 1 node needs now, showing the best
// cached bitmap meanwhile.
func (e *Engine) request(st *nodeState) {
	n := &st.node
	dpr := e.view.DevicePixelRatio
	if dpr <= 0 {
		dpr = e.cfg.DevicePixelRatio
	}
	fx, _ := n.Crop.VisibleFraction()
	required := RequiredPixelSize(st.dims.PhotoSize/fx, dpr, e.nodeScale(n))
	want := e.selector.Select(n.ID, required)
	if want == 0 || (st.displayed != nil && st.displayedBucket >= want) {
		return
	}
	if st.displayed == nil {
		if bmp, b := e.cache.Best(n.PhotoURL, want); bmp != nil {
			e.offer(st, b, bmp)
			if b == want {
				return
			}
		}
	}
	if st.requested >= want {
		return
	}
	if st.failedBucket == want && e.frame-st.failedAt < retryFrames {
		return
	}
	e.load(st, want, PriorityVisible)
}

// prefetch warms the cache with the smallest bucket for a reduced node.
func (e *Engine) prefetch(st *nodeState) {
	if st.prefetched || st.displayed != nil {
		return
	}
	st.prefetched = true
	b := smallestBucket(e.cfg.Buckets)
	if b == 0 || e.cache.Contains(st.node.PhotoURL, b) {
		return
	}
	e.load(st, b, PriorityPrefetch)
}

func (e *Engine) load(st *nodeState, b Bucket, pri Priority) {
	id, url, mount := st.node.ID, st.node.PhotoURL, st.mount
	if b > st.requested {
		st.requested = b
	}
	e.cache.GetOrLoad(url, b, pri, id, func(bmp *Bitmap, err error) {
		e.loaded(id, mount, url, b, bmp, err)
	})
}

// loaded is the completion for every load. It runs on the render goroutine
// and is a no-op for nodes that have since unmounted or remounted.
func (e *Engine) loaded(id string, mount uint64, url string, b Bucket, bmp *Bitmap, err error) {
	st := e.nodes[id]
	if st == nil || st.mount != mount {
		e.stale++
		return
	}
	if st.requested == b {
		st.requested = 0
	}
	if err != nil {
		// A drop frees queue space; the node asks again next frame.
		if !errors.Is(err, ErrDropped) {
			st.failedBucket, st.failedAt = b, e.frame
		}
		e.logf("load %s@%d for %s failed: %v", url, b, id, err)
		e.emit(ImageEvent{Type: EventImageFailed, NodeID: id, URL: url, Bucket: b, Err: err})
		return
	}
	if st.node.Tier != TierFull {
		// Prefetched bitmaps stay in the cache until the node needs them.
		return
	}
	e.offer(st, b, bmp)
}

// offer displays bmp for st if b supersedes what is shown. Display is
// monotonic by bucket: a smaller bucket arriving late is ignored.
func (e *Engine) offer(st *nodeState, b Bucket, bmp *Bitmap) {
	id := st.node.ID
	if !e.history.Supersedes(id, b) {
		return
	}
	prevBucket := st.displayedBucket
	if e.history.IsUpgrade(id, b) && e.morphs.Begin(id, st.displayed, e.nodeScale(&st.node)) {
		e.emit(ImageEvent{Type: EventMorphStarted, NodeID: id, URL: st.node.PhotoURL, Bucket: b, Previous: prevBucket})
	}
	st.displayed = bmp
	st.displayedBucket = b
	st.placeholder = nil
	e.history.Record(id, b)
	e.emit(ImageEvent{Type: EventImageDisplayed, NodeID: id, URL: st.node.PhotoURL, Bucket: b, Previous: prevBucket})
}

// Update starts queued loads, delivers finished ones and advances morphs by
// dt seconds.
func (e *Engine) Update(dt float32) {
	var start time.Time
	if e.debug {
		start = time.Now()
	}
	started := e.queue.Tick()
	delivered := e.queue.Drain()
	e.morphs.Update(dt)
	if e.debug {
		e.debugLog(frameStats{
			started:   started,
			delivered: delivered,
			update:    time.Since(start),
		})
	}
}

// Draw renders every mounted node of the current frame in layout order.
func (e *Engine) Draw(s Surface) {
	e.drawn = 0
	for _, st := range e.order {
		n := &st.node
		if e.nodes[n.ID] != st {
			continue // unmounted since SetFrame
		}
		ds := &e.state
		*ds = NodeDrawState{
			Selected: n.ID == e.view.SelectedID,
			Font:     e.font,
		}
		if st.dims.HasPhoto {
			ds.Photo = st.displayed
			ds.Placeholder = st.placeholder
			ds.Morph = e.morphs.State(n.ID)
			if ds.Morph.Animating {
				ds.Previous = e.morphs.Previous(n.ID)
			}
		}
		e.renderer(n).DrawNode(s, n, st.dims, ds)
		e.drawn++
	}
}

func (e *Engine) renderer(n *LayoutNode) NodeRenderer {
	switch {
	case e.view.Mode == DisplayRectangular:
		return &e.rect
	case n.Tier == TierReduced:
		return &e.simple
	default:
		return &e.circle
	}
}

// Unmount drops id from the arena. Its queued loads are released; loads
// already running finish into the cache and their callbacks are no-ops.
func (e *Engine) Unmount(id string) {
	if _, ok := e.nodes[id]; !ok {
		return
	}
	delete(e.nodes, id)
	e.queue.Release(id)
	e.selector.Forget(id)
	e.history.Forget(id)
	e.morphs.Forget(id)
}

// Mounted reports whether id is in the arena.
func (e *Engine) Mounted(id string) bool {
	_, ok := e.nodes[id]
	return ok
}

// Displayed returns the bitmap and bucket id currently shows.
func (e *Engine) Displayed(id string) (*Bitmap, Bucket) {
	st := e.nodes[id]
	if st == nil {
		return nil, 0
	}
	return st.displayed, st.displayedBucket
}

// Stats returns a snapshot of the engine counters.
func (e *Engine) Stats() EngineStats {
	return EngineStats{
		Frame:        e.frame,
		Mounted:      len(e.nodes),
		Drawn:        e.drawn,
		Queue:        e.queue.Stats(),
		Cache:        e.cache.Stats(),
		Placeholders: e.placeholders.Len(),
		ActiveMorphs: e.morphs.Active(),
		Stale:        e.stale,
	}
}

// Close stops all loads and drops every cached bitmap. The engine must not
// be used afterwards.
func (e *Engine) Close() {
	e.queue.Close()
	e.cache.Purge()
	clear(e.nodes)
	e.order = e.order[:0]
}

func (e *Engine) emit(ev ImageEvent) {
	if e.sink != nil {
		e.sink.EmitEvent(ev)
	}
}
