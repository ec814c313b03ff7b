package plan

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Color is a packed 0xRRGGBB value
type Color uint32

// RGBA returns the color as an opaque color.RGBA
func (c Color) RGBA() color.RGBA {
	return color.RGBA{R: uint8(c >> 16), G: uint8(c >> 8), B: uint8(c), A: 255}
}

// Hex returns the color formatted as #RRGGBB
func (c Color) Hex() string {
	return fmt.Sprintf("#%06X", uint32(c)&0xFFFFFF)
}

// ParseColor parses "#RRGGBB", "RRGGBB" or "0xRRGGBB"
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "#")
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s) != 6 {
		return 0, fmt.Errorf("invalid color %q: want 6 hex digits", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return Color(v), nil
}

// MarshalYAML writes colors as hex strings
func (c Color) MarshalYAML() (interface{}, error) {
	return c.Hex(), nil
}

// UnmarshalYAML accepts hex strings or plain integers
func (c *Color) UnmarshalYAML(node *yaml.Node) error {
	var n uint32
	if err := node.Decode(&n); err == nil {
		*c = Color(n)
		return nil
	}
	var s string
	if err := node.Decode(&s); err != nil {
		return fmt.Errorf("decoding color: %w", err)
	}
	parsed, err := ParseColor(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// RoomRecord describes one architectural volume of a layout.
// Positions and sizes are in feet; X/Z is the planar center.
type RoomRecord struct {
	Name        string  `yaml:"name" json:"name"`
	X           float64 `yaml:"x" json:"x"`
	Z           float64 `yaml:"z" json:"z"`
	Width       float64 `yaml:"width" json:"width"`
	Depth       float64 `yaml:"depth" json:"depth"`
	Height      float64 `yaml:"height" json:"height"`
	Color       Color   `yaml:"color" json:"color"`
	FloorOffset float64 `yaml:"floorOffset" json:"floorOffset"`
	Opacity     float64 `yaml:"opacity,omitempty" json:"opacity,omitempty"` // 0 means not set (opaque)
	Structural  bool    `yaml:"structural,omitempty" json:"structural,omitempty"`
}

// Alpha returns the effective opacity in (0,1]
func (r RoomRecord) Alpha() float64 {
	if r.Opacity <= 0 {
		return 1
	}
	return r.Opacity
}

// Transparent reports whether the record carries an explicit opacity
func (r RoomRecord) Transparent() bool {
	return r.Opacity > 0
}

// CenterY returns the vertical center of the room volume
func (r RoomRecord) CenterY() float64 {
	return r.FloorOffset + r.Height/2
}

// Floor is one story elevation with its list label
type Floor struct {
	Elevation float64 `yaml:"elevation" json:"elevation"`
	Label     string  `yaml:"label" json:"label"`
}

// Vec3 is a plain serializable 3D coordinate
type Vec3 struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
	Z float64 `yaml:"z" json:"z"`
}

// CameraPose is the fixed initial / reset camera placement. Target is the
// reset target; StartTarget, when set, is where the controls aim at startup.
type CameraPose struct {
	Position    Vec3    `yaml:"position" json:"position"`
	Target      Vec3    `yaml:"target" json:"target"`
	StartTarget *Vec3   `yaml:"startTarget,omitempty" json:"startTarget,omitempty"`
	FOV         float64 `yaml:"fov" json:"fov"`
	Near        float64 `yaml:"near" json:"near"`
	Far         float64 `yaml:"far" json:"far"`
}

// InitialTarget returns the startup target, falling back to the reset target
func (p CameraPose) InitialTarget() Vec3 {
	if p.StartTarget != nil {
		return *p.StartTarget
	}
	return p.Target
}

// Footprint is the rectangle [0,Width]x[0,Depth] enclosed by the boundary walls
type Footprint struct {
	Width float64 `yaml:"width" json:"width"`
	Depth float64 `yaml:"depth" json:"depth"`
}

// Slab is the divider between stories
type Slab struct {
	Center Vec3  `yaml:"center" json:"center"`
	Size   Vec3  `yaml:"size" json:"size"`
	Color  Color `yaml:"color" json:"color"`
}

// Ground is the plane beneath elevation zero
type Ground struct {
	Width     float64 `yaml:"width" json:"width"`
	Depth     float64 `yaml:"depth" json:"depth"`
	Elevation float64 `yaml:"elevation" json:"elevation"`
	Color     Color   `yaml:"color" json:"color"`
}

// Grid is the helper grid overlay drawn by the renderer
type Grid struct {
	Size      float64 `yaml:"size" json:"size"`
	Divisions int     `yaml:"divisions" json:"divisions"`
	Elevation float64 `yaml:"elevation" json:"elevation"`
}

// AmbientLight lights every face uniformly
type AmbientLight struct {
	Color     Color   `yaml:"color" json:"color"`
	Intensity float64 `yaml:"intensity" json:"intensity"`
}

// DirectionalLight is the shadow-casting sun
type DirectionalLight struct {
	Color         Color   `yaml:"color" json:"color"`
	Intensity     float64 `yaml:"intensity" json:"intensity"`
	Position      Vec3    `yaml:"position" json:"position"`
	ShadowExtent  float64 `yaml:"shadowExtent" json:"shadowExtent"` // half-size of the square shadow frustum
	ShadowFar     float64 `yaml:"shadowFar" json:"shadowFar"`
	ShadowMapSize int     `yaml:"shadowMapSize" json:"shadowMapSize"`
}

// HemisphereLight blends a sky and a ground color by face orientation
type HemisphereLight struct {
	SkyColor    Color   `yaml:"skyColor" json:"skyColor"`
	GroundColor Color   `yaml:"groundColor" json:"groundColor"`
	Intensity   float64 `yaml:"intensity" json:"intensity"`
}

// Lights holds the three fixed light sources
type Lights struct {
	Ambient     AmbientLight     `yaml:"ambient" json:"ambient"`
	Directional DirectionalLight `yaml:"directional" json:"directional"`
	Hemisphere  HemisphereLight  `yaml:"hemisphere" json:"hemisphere"`
}

// Fog fades distant geometry into the background
type Fog struct {
	Near float64 `yaml:"near" json:"near"`
	Far  float64 `yaml:"far" json:"far"`
}

// Environment is the fixed geometry that does not depend on the room list
type Environment struct {
	Footprint     Footprint `yaml:"footprint" json:"footprint"`
	WallHeight    float64   `yaml:"wallHeight" json:"wallHeight"`
	WallThickness float64   `yaml:"wallThickness" json:"wallThickness"`
	WallColor     Color     `yaml:"wallColor" json:"wallColor"`
	Slab          *Slab     `yaml:"slab,omitempty" json:"slab,omitempty"`
	Ground        Ground    `yaml:"ground" json:"ground"`
	Grid          Grid      `yaml:"grid" json:"grid"`
	Lights        Lights    `yaml:"lights" json:"lights"`
	Background    Color     `yaml:"background" json:"background"`
	Fog           Fog       `yaml:"fog" json:"fog"`
}

// Layout is the configuration value of one viewer pipeline
type Layout struct {
	Name            string       `yaml:"name" json:"name"`
	Rooms           []RoomRecord `yaml:"rooms" json:"rooms"`
	Floors          []Floor      `yaml:"floors" json:"floors"`
	StructuralNames []string     `yaml:"structural,omitempty" json:"structural,omitempty"`
	Environment     Environment  `yaml:"environment" json:"environment"`
	Camera          CameraPose   `yaml:"camera" json:"camera"`
}

// MultiFloor reports whether floor labels are shown in the room list
func (l *Layout) MultiFloor() bool {
	return len(l.Floors) > 1
}

// FloorLabel returns the label of the highest floor at or below the given elevation
func (l *Layout) FloorLabel(elevation float64) string {
	label := ""
	best := math.Inf(-1)
	for _, f := range l.Floors {
		if f.Elevation <= elevation && f.Elevation > best {
			best = f.Elevation
			label = f.Label
		}
	}
	return label
}

// IsStructural reports whether the named record is hidden from the room list,
// either through the layout's structural names or the record's own flag.
func (l *Layout) IsStructural(name string) bool {
	for _, s := range l.StructuralNames {
		if s == name {
			return true
		}
	}
	for _, r := range l.Rooms {
		if r.Name == name {
			return r.Structural
		}
	}
	return false
}

// Config represents the full configuration file
type Config struct {
	Layout     string       `yaml:"layout" json:"layout"`                             // built-in variant name
	LayoutFile string       `yaml:"layoutFile,omitempty" json:"layoutFile,omitempty"` // optional YAML layout, overrides Layout
	HTTP       HTTPConfig   `yaml:"http" json:"http"`
	MQTT       MQTTConfig   `yaml:"mqtt" json:"mqtt"`
	Render     RenderConfig `yaml:"render" json:"render"`
}

// HTTPConfig holds the web surface settings
type HTTPConfig struct {
	Port int `yaml:"port" json:"port"`
}

// MQTTConfig holds MQTT connection settings
type MQTTConfig struct {
	Broker        string `yaml:"broker,omitempty" json:"broker,omitempty"`
	PublishPrefix string `yaml:"publishPrefix" json:"publishPrefix"`
	ClientID      string `yaml:"clientId" json:"clientId"`
	Username      string `yaml:"username,omitempty" json:"username,omitempty"`
	Password      string `yaml:"password,omitempty" json:"password,omitempty"`
}

// RenderConfig holds viewport and frame pacing settings
type RenderConfig struct {
	Width     int `yaml:"width" json:"width"`
	Height    int `yaml:"height" json:"height"`
	FrameRate int `yaml:"frameRate" json:"frameRate"`
}
