package plan

import (
	"encoding/json"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomRecord_Footprint(t *testing.T) {
	r := RoomRecord{Name: "Bedroom 2", X: 24, Z: 13.75, Width: 12, Depth: 13.5}
	poly := r.Footprint()
	require.Len(t, poly, 1)
	require.Len(t, poly[0], 5)
	assert.True(t, poly[0].Closed())
	assert.Equal(t, orb.CCW, poly[0].Orientation())

	b := poly.Bound()
	assert.Equal(t, orb.Point{18, 7}, b.Min)
	assert.Equal(t, orb.Point{30, 20.5}, b.Max)
}

func TestLayout_Bounds(t *testing.T) {
	l := SingleFloor()
	fp := l.FootprintBound()
	assert.Equal(t, orb.Point{-0.5, -0.5}, fp.Min)
	assert.Equal(t, orb.Point{30.5, 60.5}, fp.Max)

	rooms := l.RoomsBound()
	assert.Equal(t, orb.Point{0, 0}, rooms.Min)
	assert.Equal(t, orb.Point{30, 60}, rooms.Max)
}

func TestShadowCovers(t *testing.T) {
	l := SingleFloor()
	assert.True(t, ShadowCovers(l))

	l.Environment.Lights.Directional.ShadowExtent = 10
	assert.False(t, ShadowCovers(l))
}

func TestFloorArea(t *testing.T) {
	assert.InDelta(t, 1692, FloorArea(SingleFloor()), 1e-9)
	// structural records are excluded
	assert.InDelta(t, 3132, FloorArea(TwoFloor()), 1e-9)
}

func TestLayoutGeoJSON(t *testing.T) {
	l := TwoFloor()
	fc := LayoutGeoJSON(l)
	require.Len(t, fc.Features, len(l.Rooms)+1)

	outline := fc.Features[0]
	assert.Equal(t, "footprint", outline.Properties["kind"])
	assert.Equal(t, LayoutTwoFloor, outline.Properties["layout"])

	duct := fc.Features[6]
	assert.Equal(t, "room-5", duct.ID)
	assert.Equal(t, "Utility Duct", duct.Properties["name"])
	assert.Equal(t, true, duct.Properties["structural"])
	assert.Equal(t, "[FF]", duct.Properties["floor"])
	assert.Equal(t, "#999999", duct.Properties["color"])
	assert.Equal(t, 16, duct.Properties["area"])

	data, err := json.Marshal(fc)
	require.NoError(t, err)

	decoded, err := geojson.UnmarshalFeatureCollection(data)
	require.NoError(t, err)
	assert.Len(t, decoded.Features, len(fc.Features))
	_, ok := decoded.Features[1].Geometry.(orb.Polygon)
	assert.True(t, ok, "rooms export as polygons")
}

func TestLayoutGeoJSON_SingleFloorHasNoFloorProperty(t *testing.T) {
	fc := LayoutGeoJSON(SingleFloor())
	for _, f := range fc.Features[1:] {
		_, ok := f.Properties["floor"]
		assert.False(t, ok)
	}
}
