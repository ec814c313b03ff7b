package plan

import (
	"cogentcore.org/core/math32"
)

// NodeKind identifies what a scene node represents
type NodeKind int

const (
	KindRoom NodeKind = iota
	KindOutline
	KindWall
	KindGround
	KindSlab
	KindLight
)

func (k NodeKind) String() string {
	switch k {
	case KindRoom:
		return "room"
	case KindOutline:
		return "outline"
	case KindWall:
		return "wall"
	case KindGround:
		return "ground"
	case KindSlab:
		return "slab"
	case KindLight:
		return "light"
	}
	return "unknown"
}

// LightKind selects the shading model of a light node
type LightKind int

const (
	LightAmbient LightKind = iota
	LightDirectional
	LightHemisphere
)

// OutlineColor is the edge color drawn around every room box
const OutlineColor Color = 0x444444

// Material is the surface description of a mesh node
type Material struct {
	Color       Color
	Opacity     float64
	Transparent bool
	Metalness   float64
	Roughness   float64
}

// LightSource carries the parameters of a KindLight node
type LightSource struct {
	Kind        LightKind
	Color       Color
	GroundColor Color // hemisphere only
	Intensity   float64
	Position    math32.Vector3
	CastShadow  bool
	// Square orthographic shadow frustum, directional only
	ShadowExtent  float32
	ShadowFar     float32
	ShadowMapSize int
}

// SceneNode is one renderable object. Boxes use Size as (width, height, depth);
// the ground is a horizontal plane with Size.Y == 0.
type SceneNode struct {
	Kind          NodeKind
	Name          string
	Center        math32.Vector3
	Size          math32.Vector3
	Material      Material
	CastShadow    bool
	ReceiveShadow bool
	Light         *LightSource
	Children      []*SceneNode
}

// Bounds returns the axis-aligned box occupied by the node
func (n *SceneNode) Bounds() math32.Box3 {
	var b math32.Box3
	b.SetFromCenterAndSize(n.Center, n.Size)
	return b
}

// Outline returns the outline child of a room node, or nil
func (n *SceneNode) Outline() *SceneNode {
	for _, c := range n.Children {
		if c.Kind == KindOutline {
			return c
		}
	}
	return nil
}

// Scene is the materialized node graph of one layout
type Scene struct {
	Layout     *Layout
	Nodes      []*SceneNode
	Background Color
	Fog        Fog
	Grid       Grid
}

// Materialize converts a layout into a scene: one shadowed box with an outline
// per record, in input order, then four boundary walls, the slab when present,
// the ground plane, and the three lights.
func Materialize(layout *Layout) *Scene {
	env := layout.Environment
	scene := &Scene{
		Layout:     layout,
		Nodes:      make([]*SceneNode, 0, len(layout.Rooms)+9),
		Background: env.Background,
		Fog:        env.Fog,
		Grid:       env.Grid,
	}

	for _, r := range layout.Rooms {
		scene.Nodes = append(scene.Nodes, roomNode(r))
	}
	scene.Nodes = append(scene.Nodes, boundaryWalls(env)...)

	if env.Slab != nil {
		scene.Nodes = append(scene.Nodes, &SceneNode{
			Kind:          KindSlab,
			Name:          "Floor Slab",
			Center:        vec3(env.Slab.Center),
			Size:          vec3(env.Slab.Size),
			Material:      Material{Color: env.Slab.Color, Opacity: 1, Roughness: 1},
			ReceiveShadow: true,
		})
	}

	// The ground sits centered under the footprint
	scene.Nodes = append(scene.Nodes, &SceneNode{
		Kind: KindGround,
		Name: "Ground",
		Center: math32.Vec3(
			float32(env.Footprint.Width/2),
			float32(env.Ground.Elevation),
			float32(env.Footprint.Depth/2),
		),
		Size:          math32.Vec3(float32(env.Ground.Width), 0, float32(env.Ground.Depth)),
		Material:      Material{Color: env.Ground.Color, Opacity: 1, Roughness: 0.9},
		ReceiveShadow: true,
	})

	scene.Nodes = append(scene.Nodes, lightNodes(env.Lights)...)
	return scene
}

func roomNode(r RoomRecord) *SceneNode {
	center := math32.Vec3(float32(r.X), float32(r.CenterY()), float32(r.Z))
	size := math32.Vec3(float32(r.Width), float32(r.Height), float32(r.Depth))
	return &SceneNode{
		Kind:   KindRoom,
		Name:   r.Name,
		Center: center,
		Size:   size,
		Material: Material{
			Color:       r.Color,
			Opacity:     r.Alpha(),
			Transparent: r.Transparent(),
			Metalness:   0.1,
			Roughness:   0.8,
		},
		CastShadow:    true,
		ReceiveShadow: true,
		Children: []*SceneNode{{
			Kind:     KindOutline,
			Name:     r.Name + " outline",
			Center:   center,
			Size:     size,
			Material: Material{Color: OutlineColor, Opacity: 1},
		}},
	}
}

func boundaryWalls(env Environment) []*SceneNode {
	w := float32(env.Footprint.Width)
	d := float32(env.Footprint.Depth)
	h := float32(env.WallHeight)
	t := float32(env.WallThickness)
	mat := Material{Color: env.WallColor, Opacity: 1, Metalness: 0.2, Roughness: 0.9}

	wall := func(name string, center, size math32.Vector3) *SceneNode {
		return &SceneNode{Kind: KindWall, Name: name, Center: center, Size: size, Material: mat}
	}
	return []*SceneNode{
		wall("North Wall", math32.Vec3(w/2, h/2, d+t/2), math32.Vec3(w, h, t)),
		wall("South Wall", math32.Vec3(w/2, h/2, -t/2), math32.Vec3(w, h, t)),
		wall("West Wall", math32.Vec3(-t/2, h/2, d/2), math32.Vec3(t, h, d)),
		wall("East Wall", math32.Vec3(w+t/2, h/2, d/2), math32.Vec3(t, h, d)),
	}
}

func lightNodes(l Lights) []*SceneNode {
	dir := l.Directional
	return []*SceneNode{
		{
			Kind:  KindLight,
			Name:  "Ambient Light",
			Light: &LightSource{Kind: LightAmbient, Color: l.Ambient.Color, Intensity: l.Ambient.Intensity},
		},
		{
			Kind:   KindLight,
			Name:   "Directional Light",
			Center: vec3(dir.Position),
			Light: &LightSource{
				Kind:          LightDirectional,
				Color:         dir.Color,
				Intensity:     dir.Intensity,
				Position:      vec3(dir.Position),
				CastShadow:    true,
				ShadowExtent:  float32(dir.ShadowExtent),
				ShadowFar:     float32(dir.ShadowFar),
				ShadowMapSize: dir.ShadowMapSize,
			},
		},
		{
			Kind: KindLight,
			Name: "Hemisphere Light",
			Light: &LightSource{
				Kind:        LightHemisphere,
				Color:       l.Hemisphere.SkyColor,
				GroundColor: l.Hemisphere.GroundColor,
				Intensity:   l.Hemisphere.Intensity,
			},
		},
	}
}

// nodesOfKind returns the top-level nodes of the given kind in scene order
func (s *Scene) nodesOfKind(kind NodeKind) []*SceneNode {
	var out []*SceneNode
	for _, n := range s.Nodes {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

// find returns the first top-level node with the given name
func (s *Scene) find(name string) (*SceneNode, bool) {
	for _, n := range s.Nodes {
		if n.Name == name {
			return n, true
		}
	}
	return nil, false
}

// Light returns the light node of the given kind, or nil
func (s *Scene) Light(kind LightKind) *LightSource {
	for _, n := range s.Nodes {
		if n.Light != nil && n.Light.Kind == kind {
			return n.Light
		}
	}
	return nil
}

// Bounds returns the box enclosing every room, wall and slab
func (s *Scene) Bounds() math32.Box3 {
	b := math32.B3Empty()
	for _, n := range s.Nodes {
		switch n.Kind {
		case KindRoom, KindWall, KindSlab:
			b.ExpandByBox(n.Bounds())
		}
	}
	return b
}

func vec3(v Vec3) math32.Vector3 {
	return math32.Vec3(float32(v.X), float32(v.Y), float32(v.Z))
}

func fromVec3(v math32.Vector3) Vec3 {
	return Vec3{X: float64(v.X), Y: float64(v.Y), Z: float64(v.Z)}
}
