package plan

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// EventType names an input event delivered to the render loop
type EventType string

const (
	EventResize      EventType = "resize"
	EventDoubleClick EventType = "dblclick"
	EventRotate      EventType = "rotate"
	EventPan         EventType = "pan"
	EventZoom        EventType = "zoom"
)

// Gesture bounds per event. Rotate deltas are radians, pan deltas world units.
const (
	MaxGestureDelta = 1000
	MaxZoomScale    = 100
)

// ErrInvalidEvent is returned for events that cannot be applied
var ErrInvalidEvent = errors.New("invalid event")

// Event is a host input. Resize uses Width/Height, rotate uses DX/DY as
// radians, pan uses DX/DY as world units, zoom uses Scale.
type Event struct {
	Type   EventType `json:"type"`
	Width  int       `json:"width,omitempty"`
	Height int       `json:"height,omitempty"`
	DX     float64   `json:"dx,omitempty"`
	DY     float64   `json:"dy,omitempty"`
	Scale  float64   `json:"scale,omitempty"`
}

// Validate checks that the event carries what its type needs
func (e Event) Validate() error {
	switch e.Type {
	case EventResize:
		if !validViewport(e.Width, e.Height) {
			return fmt.Errorf("%w: resize to %dx%d", ErrInvalidEvent, e.Width, e.Height)
		}
	case EventDoubleClick:
	case EventRotate, EventPan:
		if !withinBound(e.DX, MaxGestureDelta) || !withinBound(e.DY, MaxGestureDelta) {
			return fmt.Errorf("%w: %s delta (%g, %g)", ErrInvalidEvent, e.Type, e.DX, e.DY)
		}
	case EventZoom:
		if !withinBound(e.Scale, MaxZoomScale) || e.Scale < 1.0/MaxZoomScale {
			return fmt.Errorf("%w: zoom scale %g", ErrInvalidEvent, e.Scale)
		}
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidEvent, e.Type)
	}
	return nil
}

// withinBound reports whether v is finite and |v| <= limit
func withinBound(v, limit float64) bool {
	return !math.IsNaN(v) && math.Abs(v) <= limit
}

// ParseEvent decodes and validates a JSON event
func ParseEvent(data []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if err := ev.Validate(); err != nil {
		return Event{}, err
	}
	return ev, nil
}
