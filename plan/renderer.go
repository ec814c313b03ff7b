package plan

import (
	"image/color"
	"sort"
	"sync"

	"cogentcore.org/core/math32"
)

// Renderer is the drawing collaborator driven by the render loop
type Renderer interface {
	Render(scene *Scene, camera *PerspectiveCamera)
	SetSize(width, height int)
	Element() *Element
}

// PrimitiveKind distinguishes filled faces from stroked lines
type PrimitiveKind int

const (
	PrimFace PrimitiveKind = iota
	PrimLine
)

// Grid helper colors
const (
	gridCenterColor Color = 0x444444
	gridLineColor   Color = 0x888888
)

// Primitive is one screen-space draw command. Points are in pixels with y
// growing downward.
type Primitive struct {
	Kind   PrimitiveKind
	Node   string
	Points []math32.Vector2
	Color  color.NRGBA
	Depth  float32
}

// Frame is the result of one Render call. Frames are immutable once published.
type Frame struct {
	Seq        uint64
	Width      int
	Height     int
	Background color.NRGBA
	Primitives []Primitive
	Camera     Vec3
}

// faces returns the face primitives in draw order
func (f *Frame) faces() []Primitive {
	var out []Primitive
	for _, p := range f.Primitives {
		if p.Kind == PrimFace {
			out = append(out, p)
		}
	}
	return out
}

// SceneRenderer projects scene boxes through a perspective camera into a
// painter-sorted list of shaded polygons, with a shadow test against every
// shadow-casting room and linear fog.
type SceneRenderer struct {
	ShowGrid bool

	mu      sync.RWMutex
	width   int
	height  int
	seq     uint64
	frame   *Frame
	element *Element
}

// NewSceneRenderer returns a renderer with the given output size
func NewSceneRenderer(width, height int) *SceneRenderer {
	return &SceneRenderer{
		ShowGrid: true,
		width:    width,
		height:   height,
		element:  &Element{ID: "viewport", Tag: "img", Class: "render-output"},
	}
}

// Element returns the output element to mount into the page
func (r *SceneRenderer) Element() *Element {
	return r.element
}

// SetSize changes the output size used by subsequent renders
func (r *SceneRenderer) SetSize(width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.width = width
	r.height = height
}

// Size returns the current output size
func (r *SceneRenderer) Size() (int, int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.width, r.height
}

// Frame returns the most recent frame, or nil before the first render
func (r *SceneRenderer) Frame() *Frame {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frame
}

// renderCount returns how many frames have been rendered
func (r *SceneRenderer) renderCount() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.seq
}

// Render draws the scene through the camera and publishes the frame
func (r *SceneRenderer) Render(scene *Scene, camera *PerspectiveCamera) {
	width, height := r.Size()
	frame := &Frame{
		Width:      width,
		Height:     height,
		Background: toNRGBA(scene.Background, 1),
		Camera:     fromVec3(camera.Position),
	}
	w, h := float32(width), float32(height)
	sh := newShader(scene)

	var underlay, sorted []Primitive
	var casters []*SceneNode
	for _, n := range scene.Nodes {
		if n.Kind == KindRoom && n.CastShadow {
			casters = append(casters, n)
		}
	}

	for _, n := range scene.Nodes {
		switch n.Kind {
		case KindGround:
			f := face{
				normal:  math32.Vec3(0, 1, 0),
				corners: planeCorners(n.Center, n.Size),
			}
			if p, ok := sh.shadeFace(n, f, casters, camera, w, h); ok {
				underlay = append(underlay, p)
			}
		case KindRoom, KindWall, KindSlab:
			for _, f := range boxFaces(n.Center, n.Size) {
				if p, ok := sh.shadeFace(n, f, casters, camera, w, h); ok {
					sorted = append(sorted, p)
				}
			}
			for _, child := range n.Children {
				if child.Kind == KindOutline {
					sorted = append(sorted, outlineLines(child, camera, w, h)...)
				}
			}
		}
	}

	if r.ShowGrid && scene.Grid.Divisions > 0 {
		underlay = append(underlay, gridLines(scene.Grid, camera, w, h)...)
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Depth > sorted[j].Depth
	})
	frame.Primitives = append(underlay, sorted...)

	r.mu.Lock()
	r.seq++
	frame.Seq = r.seq
	r.frame = frame
	r.mu.Unlock()
}

type face struct {
	normal  math32.Vector3
	corners [4]math32.Vector3
}

func (f face) center() math32.Vector3 {
	return f.corners[0].Add(f.corners[1]).Add(f.corners[2]).Add(f.corners[3]).MulScalar(0.25)
}

var quadUV = [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}

// boxFaces returns the six outward-facing quads of an axis-aligned box
func boxFaces(center, size math32.Vector3) []face {
	c := [3]float32{center.X, center.Y, center.Z}
	e := [3]float32{size.X / 2, size.Y / 2, size.Z / 2}
	faces := make([]face, 0, 6)
	for axis := 0; axis < 3; axis++ {
		u, v := (axis+1)%3, (axis+2)%3
		for _, sign := range []float32{-1, 1} {
			var n [3]float32
			n[axis] = sign
			f := face{normal: math32.Vec3(n[0], n[1], n[2])}
			for i, uv := range quadUV {
				p := c
				p[axis] += sign * e[axis]
				p[u] += uv[0] * e[u]
				p[v] += uv[1] * e[v]
				f.corners[i] = math32.Vec3(p[0], p[1], p[2])
			}
			faces = append(faces, f)
		}
	}
	return faces
}

func planeCorners(center, size math32.Vector3) [4]math32.Vector3 {
	var out [4]math32.Vector3
	for i, uv := range quadUV {
		out[i] = math32.Vec3(center.X+uv[0]*size.X/2, center.Y, center.Z+uv[1]*size.Z/2)
	}
	return out
}

// boxEdges returns the twelve edges of an axis-aligned box
func boxEdges(center, size math32.Vector3) [][2]math32.Vector3 {
	var corners [8]math32.Vector3
	for i := range corners {
		sx, sy, sz := float32(-1), float32(-1), float32(-1)
		if i&1 != 0 {
			sx = 1
		}
		if i&2 != 0 {
			sy = 1
		}
		if i&4 != 0 {
			sz = 1
		}
		corners[i] = math32.Vec3(center.X+sx*size.X/2, center.Y+sy*size.Y/2, center.Z+sz*size.Z/2)
	}
	edges := make([][2]math32.Vector3, 0, 12)
	for i := 0; i < 8; i++ {
		for _, bit := range []int{1, 2, 4} {
			if i&bit == 0 {
				edges = append(edges, [2]math32.Vector3{corners[i], corners[i|bit]})
			}
		}
	}
	return edges
}

func outlineLines(n *SceneNode, camera *PerspectiveCamera, w, h float32) []Primitive {
	stroke := toNRGBA(n.Material.Color, 1)
	var out []Primitive
	for _, e := range boxEdges(n.Center, n.Size) {
		if p, ok := projectLine(e[0], e[1], camera, w, h); ok {
			p.Node = n.Name
			p.Color = stroke
			// drawn just in front of the faces that share the edge
			p.Depth -= 0.05
			out = append(out, p)
		}
	}
	return out
}

func gridLines(g Grid, camera *PerspectiveCamera, w, h float32) []Primitive {
	half := float32(g.Size / 2)
	step := float32(g.Size) / float32(g.Divisions)
	y := float32(g.Elevation)
	var out []Primitive
	for i := 0; i <= g.Divisions; i++ {
		k := -half + float32(i)*step
		c := gridLineColor
		if i == g.Divisions/2 {
			c = gridCenterColor
		}
		for _, seg := range [][2]math32.Vector3{
			{math32.Vec3(k, y, -half), math32.Vec3(k, y, half)},
			{math32.Vec3(-half, y, k), math32.Vec3(half, y, k)},
		} {
			if p, ok := projectLine(seg[0], seg[1], camera, w, h); ok {
				p.Node = "Grid"
				p.Color = toNRGBA(c, 1)
				out = append(out, p)
			}
		}
	}
	return out
}

func projectLine(a, b math32.Vector3, camera *PerspectiveCamera, w, h float32) (Primitive, bool) {
	ax, ay, ad, okA := camera.Project(a, w, h)
	bx, by, bd, okB := camera.Project(b, w, h)
	if !okA || !okB {
		return Primitive{}, false
	}
	return Primitive{
		Kind:   PrimLine,
		Points: []math32.Vector2{math32.Vec2(ax, ay), math32.Vec2(bx, by)},
		Depth:  (ad + bd) / 2,
	}, true
}

// shader holds the per-frame lighting state
type shader struct {
	ambient    [3]float32
	sky        [3]float32
	ground     [3]float32
	sun        [3]float32
	sunDir     math32.Vector3
	hasSun     bool
	background [3]float32
	fogNear    float32
	fogFar     float32
}

func newShader(scene *Scene) *shader {
	s := &shader{
		background: channels(scene.Background, 1),
		fogNear:    float32(scene.Fog.Near),
		fogFar:     float32(scene.Fog.Far),
	}
	if l := scene.Light(LightAmbient); l != nil {
		s.ambient = channels(l.Color, float32(l.Intensity))
	}
	if l := scene.Light(LightHemisphere); l != nil {
		s.sky = channels(l.Color, float32(l.Intensity))
		s.ground = channels(l.GroundColor, float32(l.Intensity))
	}
	if l := scene.Light(LightDirectional); l != nil && l.Position.Length() > 0 {
		s.sun = channels(l.Color, float32(l.Intensity))
		s.sunDir = l.Position.Normal()
		s.hasSun = true
	}
	return s
}

func (s *shader) shadeFace(n *SceneNode, f face, casters []*SceneNode, camera *PerspectiveCamera, w, h float32) (Primitive, bool) {
	center := f.center()
	// back-face culling
	if f.normal.Dot(camera.Position.Sub(center)) <= 0 {
		return Primitive{}, false
	}

	pts := make([]math32.Vector2, 0, 4)
	for _, c := range f.corners {
		x, y, _, ok := camera.Project(c, w, h)
		if !ok {
			return Primitive{}, false
		}
		pts = append(pts, math32.Vec2(x, y))
	}
	depth := camera.ViewDepth(center)

	base := channels(n.Material.Color, 1)
	hemiMix := 0.5*f.normal.Y + 0.5
	var light [3]float32
	for i := range light {
		light[i] = s.ambient[i] + s.ground[i]*(1-hemiMix) + s.sky[i]*hemiMix
	}
	if s.hasSun {
		lambert := f.normal.Dot(s.sunDir)
		if lambert > 0 && !(n.ReceiveShadow && inShadow(center.Add(f.normal.MulScalar(0.01)), s.sunDir, n, casters)) {
			for i := range light {
				light[i] += s.sun[i] * lambert
			}
		}
	}

	fog := float32(0)
	if s.fogFar > s.fogNear {
		fog = math32.Clamp((depth-s.fogNear)/(s.fogFar-s.fogNear), 0, 1)
	}

	var out [3]float32
	for i := range out {
		lit := math32.Min(base[i]*light[i], 1)
		out[i] = lit*(1-fog) + s.background[i]*fog
	}

	return Primitive{
		Kind:   PrimFace,
		Node:   n.Name,
		Points: pts,
		Color: color.NRGBA{
			R: uint8(math32.Round(out[0] * 255)),
			G: uint8(math32.Round(out[1] * 255)),
			B: uint8(math32.Round(out[2] * 255)),
			A: uint8(math32.Round(float32(n.Material.Opacity) * 255)),
		},
		Depth: depth,
	}, true
}

// inShadow reports whether a ray from p toward the light hits another caster
func inShadow(p, dir math32.Vector3, self *SceneNode, casters []*SceneNode) bool {
	for _, c := range casters {
		if c == self || c.Material.Transparent {
			continue
		}
		if rayHitsBox(p, dir, c.Bounds()) {
			return true
		}
	}
	return false
}

// rayHitsBox is the slab test for a ray with t > 0
func rayHitsBox(origin, dir math32.Vector3, b math32.Box3) bool {
	o := [3]float32{origin.X, origin.Y, origin.Z}
	d := [3]float32{dir.X, dir.Y, dir.Z}
	lo := [3]float32{b.Min.X, b.Min.Y, b.Min.Z}
	hi := [3]float32{b.Max.X, b.Max.Y, b.Max.Z}

	tMin, tMax := float32(0), math32.Inf(1)
	for i := 0; i < 3; i++ {
		if d[i] == 0 {
			if o[i] < lo[i] || o[i] > hi[i] {
				return false
			}
			continue
		}
		t1 := (lo[i] - o[i]) / d[i]
		t2 := (hi[i] - o[i]) / d[i]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = math32.Max(tMin, t1)
		tMax = math32.Min(tMax, t2)
		if tMin > tMax {
			return false
		}
	}
	return tMax > 0
}

func channels(c Color, intensity float32) [3]float32 {
	rgba := c.RGBA()
	return [3]float32{
		float32(rgba.R) / 255 * intensity,
		float32(rgba.G) / 255 * intensity,
		float32(rgba.B) / 255 * intensity,
	}
}

func toNRGBA(c Color, alpha float64) color.NRGBA {
	rgba := c.RGBA()
	return color.NRGBA{R: rgba.R, G: rgba.G, B: rgba.B, A: uint8(alpha*255 + 0.5)}
}
