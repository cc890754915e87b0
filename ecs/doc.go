// Package ecs provides ECS adapters for lodtree.
//
// The primary adapter is [NewDonburiSink], which bridges lodtree image
// events (photo displayed, load failed, morph started) into a [Donburi]
// world as typed events. Subscribe to [ImageEventType] in your ECS systems
// to receive them.
//
// Usage:
//
//	sink := ecs.NewDonburiSink(world)
//	engine.SetEventSink(sink)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
