package lodtree

// EventSink receives image pipeline events. When set on an Engine, every
// displayed photo, failed load and started morph is forwarded to it.
type EventSink interface {
	EmitEvent(event ImageEvent)
}

// EventType identifies an ImageEvent.
type EventType uint8

const (
	EventImageDisplayed EventType = iota // a bitmap became the node's photo
	EventImageFailed                     // a load for a mounted node failed
	EventMorphStarted                    // an upgrade began animating
)

// String returns the event name.
func (t EventType) String() string {
	switch t {
	case EventImageDisplayed:
		return "displayed"
	case EventImageFailed:
		return "failed"
	case EventMorphStarted:
		return "morph"
	default:
		return "unknown"
	}
}

// ImageEvent carries one pipeline event for a mounted node.
type ImageEvent struct {
	Type   EventType
	NodeID string
	URL    string
	Bucket Bucket
	// Previous is the bucket shown before, 0 when none.
	Previous Bucket
	// Err is set for EventImageFailed.
	Err error
}
