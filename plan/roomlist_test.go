package plan

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundedArea(t *testing.T) {
	tests := []struct {
		w, d float64
		want int
	}{
		{10, 10, 100},
		{10, 13, 130},
		{11, 14, 154},
		{12, 13.5, 162},
		{2.5, 1, 3},
		{10.2, 3.3, 34},
		{0.3, 0.4, 0},
	}
	for _, tt := range tests {
		if got := RoundedArea(tt.w, tt.d); got != tt.want {
			t.Errorf("RoundedArea(%g, %g) = %d, want %d", tt.w, tt.d, got, tt.want)
		}
	}
}

func TestBuildRoomList_SingleFloor(t *testing.T) {
	l := SingleFloor()
	entries := BuildRoomList(l)
	require.Len(t, entries, len(l.Rooms))

	for i, e := range entries {
		assert.Equal(t, l.Rooms[i].Name, e.Name)
		assert.Empty(t, e.FloorLabel, "single floor layouts carry no floor label")
		assert.Equal(t, e.Name, e.Title())
	}

	assert.Equal(t, "Corridor", entries[12].Name, "structural names only apply when listed")
	assert.Equal(t, "10' × 13' = 130 sq ft", entries[2].SizeText())
	assert.Equal(t, "12' × 13.5' = 162 sq ft", entries[10].SizeText())
}

func TestBuildRoomList_TwoFloorExcludesStructural(t *testing.T) {
	l := TwoFloor()
	entries := BuildRoomList(l)
	require.Len(t, entries, len(l.Rooms)-3)

	for _, e := range entries {
		assert.NotEqual(t, "Utility Duct", e.Name)
		assert.NotEqual(t, "Rear Setback", e.Name)
		assert.NotEqual(t, "Corridor", e.Name)
	}

	assert.Equal(t, "Main Hall (GF) [GF]", entries[0].Title())
	assert.Equal(t, "30' × 60' = 1800 sq ft", entries[0].SizeText())
	assert.Equal(t, "Terrace [FF]", entries[1].Title())
}

func TestBuildRoomList_StructuralFlag(t *testing.T) {
	l := SingleFloor()
	l.Rooms[12].Structural = true
	entries := BuildRoomList(l)
	assert.Len(t, entries, 12)
	for _, e := range entries {
		assert.NotEqual(t, "Corridor", e.Name)
	}
}

func TestPopulateRoomList(t *testing.T) {
	doc := NewViewerDocument()
	entries := BuildRoomList(TwoFloor())
	require.NoError(t, PopulateRoomList(doc, entries))

	items, err := doc.Children(IDRoomList)
	require.NoError(t, err)
	require.Len(t, items, len(entries))

	first := items[0]
	assert.Equal(t, "room-item", first.Class)
	require.Len(t, first.Children, 2)
	assert.Equal(t, "room-name", first.Children[0].Class)
	assert.Equal(t, "Main Hall (GF) [GF]", first.Children[0].Text)
	assert.Equal(t, "room-size", first.Children[1].Class)
	assert.Equal(t, "30' × 60' = 1800 sq ft", first.Children[1].Text)
}

func TestPopulateRoomList_MissingContainer(t *testing.T) {
	doc := NewViewerDocument()
	doc.unmount(IDRoomList)

	err := PopulateRoomList(doc, BuildRoomList(SingleFloor()))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingElement))
}
