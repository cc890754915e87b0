package ecs

import (
	"github.com/shajara/lodtree"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// ImageEventType is the Donburi event type for lodtree image events.
var ImageEventType = events.NewEventType[lodtree.ImageEvent]()

type donburiSink struct {
	world donburi.World
}

// NewDonburiSink creates an EventSink backed by a Donburi world. Events are
// published to ImageEventType and can be consumed with events.Subscribe and
// ProcessEvents.
func NewDonburiSink(world donburi.World) lodtree.EventSink {
	return &donburiSink{world: world}
}

func (s *donburiSink) EmitEvent(event lodtree.ImageEvent) {
	ImageEventType.Publish(s.world, event)
}
