package plan

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_Validate(t *testing.T) {
	tests := []struct {
		name    string
		ev      Event
		wantErr bool
	}{
		{"resize", Event{Type: EventResize, Width: 800, Height: 600}, false},
		{"resize zero width", Event{Type: EventResize, Width: 0, Height: 600}, true},
		{"resize negative height", Event{Type: EventResize, Width: 800, Height: -1}, true},
		{"resize at max", Event{Type: EventResize, Width: MaxViewport, Height: MaxViewport}, false},
		{"resize too wide", Event{Type: EventResize, Width: MaxViewport + 1, Height: 600}, true},
		{"resize huge", Event{Type: EventResize, Width: 100000, Height: 100000}, true},
		{"dblclick", Event{Type: EventDoubleClick}, false},
		{"rotate", Event{Type: EventRotate, DX: 0.1}, false},
		{"rotate overflowing float32", Event{Type: EventRotate, DX: 1e39}, true},
		{"rotate too large", Event{Type: EventRotate, DY: MaxGestureDelta + 1}, true},
		{"rotate NaN", Event{Type: EventRotate, DX: math.NaN()}, true},
		{"pan", Event{Type: EventPan, DX: 1, DY: -1}, false},
		{"pan infinite", Event{Type: EventPan, DX: math.Inf(-1)}, true},
		{"pan too large", Event{Type: EventPan, DY: -1e39}, true},
		{"zoom", Event{Type: EventZoom, Scale: 0.9}, false},
		{"zoom without scale", Event{Type: EventZoom}, true},
		{"zoom too far out", Event{Type: EventZoom, Scale: MaxZoomScale * 2}, true},
		{"zoom too far in", Event{Type: EventZoom, Scale: 1e-9}, true},
		{"zoom NaN", Event{Type: EventZoom, Scale: math.NaN()}, true},
		{"unknown", Event{Type: "keydown"}, true},
		{"empty", Event{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ev.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidEvent))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseEvent(t *testing.T) {
	ev, err := ParseEvent([]byte(`{"type":"resize","width":1024,"height":512}`))
	require.NoError(t, err)
	assert.Equal(t, Event{Type: EventResize, Width: 1024, Height: 512}, ev)

	ev, err = ParseEvent([]byte(`{"type":"rotate","dx":0.25,"dy":-0.1}`))
	require.NoError(t, err)
	assert.Equal(t, 0.25, ev.DX)
	assert.Equal(t, -0.1, ev.DY)

	_, err = ParseEvent([]byte(`{not json`))
	assert.ErrorIs(t, err, ErrInvalidEvent)

	_, err = ParseEvent([]byte(`{"type":"zoom","scale":-1}`))
	assert.ErrorIs(t, err, ErrInvalidEvent)

	_, err = ParseEvent([]byte(`{"type":"rotate","dx":1e39}`))
	assert.ErrorIs(t, err, ErrInvalidEvent)

	_, err = ParseEvent([]byte(`{"type":"resize","width":100000,"height":100000}`))
	assert.ErrorIs(t, err, ErrInvalidEvent)
}
