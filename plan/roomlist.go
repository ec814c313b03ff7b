package plan

import (
	"fmt"
	"math"
	"strconv"
)

// RoomListEntry is one line of the sidebar room list
type RoomListEntry struct {
	Name       string  `json:"name"`
	FloorLabel string  `json:"floor,omitempty"`
	Width      float64 `json:"width"`
	Depth      float64 `json:"depth"`
	Area       int     `json:"area"`
}

// Title returns the entry heading, with the floor label on multi-floor layouts
func (e RoomListEntry) Title() string {
	if e.FloorLabel == "" {
		return e.Name
	}
	return e.Name + " " + e.FloorLabel
}

// SizeText returns the dimension line, e.g. "10' × 13' = 130 sq ft"
func (e RoomListEntry) SizeText() string {
	return fmt.Sprintf("%s' × %s' = %d sq ft", formatFeet(e.Width), formatFeet(e.Depth), e.Area)
}

func formatFeet(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// RoundedArea returns width × depth rounded to the nearest whole unit
func RoundedArea(width, depth float64) int {
	return int(math.Round(width * depth))
}

// BuildRoomList projects the layout's records into list entries, in layout
// order, skipping structural records.
func BuildRoomList(layout *Layout) []RoomListEntry {
	multi := layout.MultiFloor()
	entries := make([]RoomListEntry, 0, len(layout.Rooms))
	for _, r := range layout.Rooms {
		if r.Structural || layout.IsStructural(r.Name) {
			continue
		}
		entry := RoomListEntry{
			Name:  r.Name,
			Width: r.Width,
			Depth: r.Depth,
			Area:  RoundedArea(r.Width, r.Depth),
		}
		if multi {
			entry.FloorLabel = layout.FloorLabel(r.FloorOffset)
		}
		entries = append(entries, entry)
	}
	return entries
}

// PopulateRoomList appends one room-item element per entry to the room list
// container. It is called once at startup; the list is never cleared.
func PopulateRoomList(doc *Document, entries []RoomListEntry) error {
	if err := doc.Require(IDRoomList); err != nil {
		return fmt.Errorf("populating room list: %w", err)
	}
	for _, e := range entries {
		item := &Element{
			Tag:   "div",
			Class: "room-item",
			Children: []*Element{
				{Tag: "div", Class: "room-name", Text: e.Title()},
				{Tag: "div", Class: "room-size", Text: e.SizeText()},
			},
		}
		if err := doc.AppendChild(IDRoomList, item); err != nil {
			return fmt.Errorf("populating room list: %w", err)
		}
	}
	return nil
}
