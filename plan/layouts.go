package plan

import (
	"errors"
	"fmt"
	"sort"
)

// Built-in layout variant names
const (
	LayoutSingleFloor = "single-floor"
	LayoutTwoFloor    = "two-floor"
)

// ErrUnknownLayout is returned when a layout name has no built-in definition
var ErrUnknownLayout = errors.New("unknown layout")

var builtinLayouts = map[string]func() *Layout{
	LayoutSingleFloor: SingleFloor,
	LayoutTwoFloor:    TwoFloor,
}

// LayoutByName returns a fresh copy of the named built-in layout
func LayoutByName(name string) (*Layout, error) {
	build, ok := builtinLayouts[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownLayout, name, LayoutNames())
	}
	return build(), nil
}

// LayoutNames returns the built-in layout names in sorted order
func LayoutNames() []string {
	names := make([]string, 0, len(builtinLayouts))
	for name := range builtinLayouts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// defaultLights are shared by both variants apart from intensities
func defaultLights(ambient, directional, hemisphere float64) Lights {
	return Lights{
		Ambient: AmbientLight{Color: 0xFFFFFF, Intensity: ambient},
		Directional: DirectionalLight{
			Color:         0xFFFFFF,
			Intensity:     directional,
			Position:      Vec3{X: 100, Y: 150, Z: 50},
			ShadowExtent:  100,
			ShadowFar:     500,
			ShadowMapSize: 2048,
		},
		Hemisphere: HemisphereLight{SkyColor: 0xAABBFF, GroundColor: 0x806020, Intensity: hemisphere},
	}
}

// SingleFloor returns the one-story layout: 13 rooms on the ground floor.
func SingleFloor() *Layout {
	return &Layout{
		Name: LayoutSingleFloor,
		Rooms: []RoomRecord{
			{Name: "Parking/Terrace", X: 5, Z: 55, Width: 10, Depth: 10, Height: 3, Color: 0xD3D3D3},
			{Name: "Kitchen", X: 5, Z: 45, Width: 10, Depth: 10, Height: 10, Color: 0xFFFACD},
			{Name: "Store Room", X: 5, Z: 33.5, Width: 10, Depth: 13, Height: 10, Color: 0xF5F5F5},
			{Name: "Puja Room", X: 5, Z: 24.5, Width: 10, Depth: 5, Height: 10, Color: 0xFFFACD},
			{Name: "Master Bed 1", X: 5.5, Z: 14, Width: 11, Depth: 14, Height: 10, Color: 0xDEB887},
			{Name: "Bath 1", X: 5, Z: 5, Width: 10, Depth: 4, Height: 10, Color: 0xFFE4C4},
			{Name: "Living Hall", X: 21.5, Z: 51, Width: 17, Depth: 18, Height: 10, Color: 0xFFFFFE},
			{Name: "Bath 3", X: 25, Z: 39.5, Width: 10, Depth: 5, Height: 10, Color: 0xFFE4C4},
			{Name: "Staircase", X: 25, Z: 32, Width: 10, Depth: 10, Height: 10, Color: 0xFAFAF0},
			{Name: "Guest Room", X: 25, Z: 22, Width: 10, Depth: 10, Height: 10, Color: 0xDEB887},
			{Name: "Bedroom 2", X: 24, Z: 13.75, Width: 12, Depth: 13.5, Height: 10, Color: 0xDEB887},
			{Name: "Bath 2", X: 25, Z: 5, Width: 10, Depth: 4, Height: 10, Color: 0xFFE4C4},
			{Name: "Corridor", X: 15, Z: 30, Width: 6, Depth: 60, Height: 10, Color: 0xFFFFF0},
		},
		Floors: []Floor{{Elevation: 0, Label: "[GF]"}},
		Environment: Environment{
			Footprint:     Footprint{Width: 30, Depth: 60},
			WallHeight:    10,
			WallThickness: 0.5,
			WallColor:     0x888888,
			Ground:        Ground{Width: 40, Depth: 70, Elevation: -0.5, Color: 0x90EE90},
			Grid:          Grid{Size: 100, Divisions: 50, Elevation: -0.1},
			Lights:        defaultLights(0.6, 0.8, 0.5),
			Background:    0x333333,
			Fog:           Fog{Near: 200, Far: 400},
		},
		Camera: CameraPose{
			Position: Vec3{X: 60, Y: 50, Z: 80},
			Target:   Vec3{X: 15, Y: 0, Z: 30},
			// the controls start aimed mid-wall; double-click resets to ground level
			StartTarget: &Vec3{X: 15, Y: 5, Z: 30},
			FOV:         45,
			Near:        0.1,
			Far:         1000,
		},
	}
}

// TwoFloor returns the two-story layout: one ground floor hall and 14
// first floor volumes, separated by a slab at elevation 10.
func TwoFloor() *Layout {
	return &Layout{
		Name: LayoutTwoFloor,
		Rooms: []RoomRecord{
			{Name: "Main Hall (GF)", X: 15, Z: 30, Width: 30, Depth: 60, Height: 10, Color: 0xEEEEEE, FloorOffset: 0, Opacity: 0.25},

			{Name: "Terrace", X: 5, Z: 55, Width: 10, Depth: 10, Height: 10, Color: 0xCCCCCC, FloorOffset: 10},
			{Name: "Family Hall", X: 21.5, Z: 51, Width: 17, Depth: 18, Height: 10, Color: 0xFFF3B0, FloorOffset: 10},
			{Name: "Kitchen", X: 5, Z: 45, Width: 10, Depth: 10, Height: 10, Color: 0xFFCC99, FloorOffset: 10},
			{Name: "Store Room", X: 5, Z: 33.5, Width: 10, Depth: 13, Height: 10, Color: 0xDDDDDD, FloorOffset: 10},
			{Name: "Puja Room", X: 5, Z: 24.5, Width: 10, Depth: 5, Height: 10, Color: 0xFFFACD, FloorOffset: 10},
			{Name: "Utility Duct", X: 2, Z: 20, Width: 4, Depth: 4, Height: 10, Color: 0x999999, FloorOffset: 10, Opacity: 0.6},
			{Name: "Master Bed 1", X: 5.5, Z: 14, Width: 11, Depth: 14, Height: 10, Color: 0xB3E5FC, FloorOffset: 10},
			{Name: "Bathroom 1", X: 5, Z: 5, Width: 10, Depth: 4, Height: 10, Color: 0x90CAF9, FloorOffset: 10},
			{Name: "Corridor", X: 15, Z: 30, Width: 6, Depth: 60, Height: 0.3, Color: 0xFFFFF0, FloorOffset: 10, Opacity: 0.4},
			{Name: "Bathroom 3", X: 25, Z: 39.5, Width: 10, Depth: 5, Height: 10, Color: 0x90CAF9, FloorOffset: 10},
			{Name: "Staircase", X: 25, Z: 32, Width: 10, Depth: 10, Height: 10, Color: 0xE1BEE7, FloorOffset: 10},
			{Name: "Guest Room", X: 25, Z: 22, Width: 10, Depth: 10, Height: 10, Color: 0xB3E5FC, FloorOffset: 10},
			{Name: "Bedroom 2", X: 24, Z: 13.75, Width: 12, Depth: 13.5, Height: 10, Color: 0xB3E5FC, FloorOffset: 10},
			{Name: "Bathroom 2", X: 25, Z: 5, Width: 10, Depth: 4, Height: 10, Color: 0x90CAF9, FloorOffset: 10},
			{Name: "Rear Setback", X: 15, Z: 1.5, Width: 30, Depth: 3, Height: 0.2, Color: 0xA9A9A9, FloorOffset: 10, Opacity: 0.5},
		},
		Floors: []Floor{
			{Elevation: 0, Label: "[GF]"},
			{Elevation: 10, Label: "[FF]"},
		},
		StructuralNames: []string{"Utility Duct", "Rear Setback", "Corridor"},
		Environment: Environment{
			Footprint:     Footprint{Width: 30, Depth: 60},
			WallHeight:    20,
			WallThickness: 0.5,
			WallColor:     0x666666,
			Slab: &Slab{
				Center: Vec3{X: 15, Y: 9.75, Z: 30},
				Size:   Vec3{X: 30.5, Y: 0.5, Z: 60.5},
				Color:  0x444444,
			},
			Ground:     Ground{Width: 40, Depth: 70, Elevation: -0.5, Color: 0x6B8E23},
			Grid:       Grid{Size: 100, Divisions: 50, Elevation: -0.5},
			Lights:     defaultLights(0.5, 0.9, 0.6),
			Background: 0x1A1A2E,
			Fog:        Fog{Near: 200, Far: 400},
		},
		Camera: CameraPose{
			Position: Vec3{X: 80, Y: 60, Z: 100},
			Target:   Vec3{X: 15, Y: 10, Z: 30},
			FOV:      45,
			Near:     0.1,
			Far:      1000,
		},
	}
}
