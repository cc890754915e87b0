// Package lodtree renders the nodes of a large, zoomable family tree with
// level of detail, and streams each member's photo in at the resolution the
// current zoom needs. Drawing targets [Ebitengine].
//
// # Frame loop
//
// The host lays out the tree, classifies each node into a tier and hands
// the result to an [Engine] once per frame:
//
//	engine := lodtree.NewEngine(lodtree.NewPhotoLoader(lodtree.HTTPFetcher{}, 4), lodtree.DefaultConfig())
//
//	func (g *Game) Update() error {
//		lodtree.ClassifyAll(classifier, g.nodes, g.camera.Zoom)
//		g.engine.SetFrame(g.nodes, lodtree.ViewState{Zoom: g.camera.Zoom, ShowPhotos: true})
//		g.engine.Update(1.0 / 60)
//		return nil
//	}
//
//	func (g *Game) Draw(screen *ebiten.Image) {
//		s := lodtree.NewImageSurface(screen)
//		s.SetView(g.camera.ViewMatrix())
//		g.engine.Draw(s)
//	}
//
// Tier 1 nodes draw their photo, tier 2 nodes a reduced shape with the name,
// tier 3 nodes nothing.
//
// # Image pipeline
//
// A node's required pixel size (photo slot × device pixel ratio × zoom) is
// mapped to a discrete [Bucket] by a [BucketSelector] that resists flapping
// near bucket boundaries. Misses go through a [LoadQueue] that coalesces
// identical requests, starts visible loads before prefetches, and bounds
// both the work started and the results delivered per frame. Decoded
// bitmaps live in an [ImageCache] under a byte budget.
//
// While a photo loads, its blurhash preview is shown, or a flat skeleton
// when there is none. Display is monotonic by bucket: a smaller image that
// arrives late never replaces a larger one. Upgrades seen at extreme zoom
// crossfade through a [MorphController]; all others swap instantly.
//
// All state is owned by the goroutine that calls the Engine. Fetch and
// decode run on worker goroutines and their results are applied during
// [Engine.Update], so callbacks never race with drawing.
//
// ECS integration is available through the Donburi adapter in lodtree/ecs.
//
// [Ebitengine]: https://ebitengine.org
package lodtree
