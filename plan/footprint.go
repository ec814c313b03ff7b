package plan

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// Footprint returns the room's floor rectangle in the X/Z plane as a
// counter-clockwise polygon. Orb's Y axis carries the world Z coordinate.
func (r RoomRecord) Footprint() orb.Polygon {
	x0, x1 := r.X-r.Width/2, r.X+r.Width/2
	z0, z1 := r.Z-r.Depth/2, r.Z+r.Depth/2
	return orb.Polygon{orb.Ring{
		{x0, z0}, {x1, z0}, {x1, z1}, {x0, z1}, {x0, z0},
	}}
}

// FootprintBound returns the planar bound of the boundary walls, including
// their thickness.
func (l *Layout) FootprintBound() orb.Bound {
	env := l.Environment
	t := env.WallThickness
	return orb.Bound{
		Min: orb.Point{-t, -t},
		Max: orb.Point{env.Footprint.Width + t, env.Footprint.Depth + t},
	}
}

// RoomsBound returns the planar bound of every room footprint
func (l *Layout) RoomsBound() orb.Bound {
	var b orb.Bound
	for i, r := range l.Rooms {
		rb := r.Footprint().Bound()
		if i == 0 {
			b = rb
			continue
		}
		b = b.Union(rb)
	}
	return b
}

// ShadowBound returns the ground-plane square covered by the directional
// light's shadow frustum. The light aims at the world origin.
func (l *Layout) ShadowBound() orb.Bound {
	e := l.Environment.Lights.Directional.ShadowExtent
	return orb.Bound{Min: orb.Point{-e, -e}, Max: orb.Point{e, e}}
}

// ShadowCovers reports whether the shadow frustum encloses the whole footprint
func ShadowCovers(l *Layout) bool {
	shadow := l.ShadowBound()
	fp := l.FootprintBound()
	return shadow.Contains(fp.Min) && shadow.Contains(fp.Max)
}

// FloorArea returns the summed footprint area of the non-structural rooms
func FloorArea(l *Layout) float64 {
	total := 0.0
	for _, r := range l.Rooms {
		if r.Structural || l.IsStructural(r.Name) {
			continue
		}
		total += planar.Area(r.Footprint())
	}
	return total
}

// LayoutGeoJSON exports the building outline and every room footprint as a
// FeatureCollection. Coordinates are layout feet, [x, z].
func LayoutGeoJSON(l *Layout) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	outline := geojson.NewFeature(l.FootprintBound().ToPolygon())
	outline.Properties["kind"] = "footprint"
	outline.Properties["layout"] = l.Name
	outline.Properties["wallHeight"] = l.Environment.WallHeight
	fc.Append(outline)

	for i, r := range l.Rooms {
		f := geojson.NewFeature(r.Footprint())
		f.ID = fmt.Sprintf("room-%d", i)
		f.Properties["kind"] = "room"
		f.Properties["name"] = r.Name
		f.Properties["area"] = RoundedArea(r.Width, r.Depth)
		f.Properties["height"] = r.Height
		f.Properties["floorOffset"] = r.FloorOffset
		f.Properties["color"] = r.Color.Hex()
		f.Properties["opacity"] = r.Alpha()
		f.Properties["structural"] = r.Structural || l.IsStructural(r.Name)
		if l.MultiFloor() {
			f.Properties["floor"] = l.FloorLabel(r.FloorOffset)
		}
		fc.Append(f)
	}
	return fc
}
