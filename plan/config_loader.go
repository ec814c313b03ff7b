package plan

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalidLayout is wrapped by every layout validation failure
var ErrInvalidLayout = errors.New("invalid layout")

// Defaults applied when the config file leaves a value unset
const (
	DefaultHTTPPort      = 8080
	DefaultPublishPrefix = "floorview"
	DefaultClientID      = "floorview"
	DefaultRenderWidth   = 1280
	DefaultRenderHeight  = 720
	DefaultFrameRate     = 30
)

// DefaultConfig returns the configuration used when no file is present
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Layout == "" {
		c.Layout = LayoutSingleFloor
	}
	if c.HTTP.Port == 0 {
		c.HTTP.Port = DefaultHTTPPort
	}
	if c.MQTT.PublishPrefix == "" {
		c.MQTT.PublishPrefix = DefaultPublishPrefix
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = DefaultClientID
	}
	if c.Render.Width == 0 {
		c.Render.Width = DefaultRenderWidth
	}
	if c.Render.Height == 0 {
		c.Render.Height = DefaultRenderHeight
	}
	if c.Render.FrameRate == 0 {
		c.Render.FrameRate = DefaultFrameRate
	}
}

// LoadConfig loads the configuration from a YAML file and fills in defaults
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}
	config.applyDefaults()

	if config.HTTP.Port < 0 || config.HTTP.Port > 65535 {
		return nil, fmt.Errorf("http.port out of range: %d", config.HTTP.Port)
	}
	if !validViewport(config.Render.Width, config.Render.Height) {
		return nil, fmt.Errorf("%w: render size %dx%d (max %d per side)",
			ErrInvalidViewport, config.Render.Width, config.Render.Height, MaxViewport)
	}
	if config.Render.FrameRate < 0 || config.Render.FrameRate > 240 {
		return nil, fmt.Errorf("render.frameRate out of range: %d", config.Render.FrameRate)
	}
	if config.LayoutFile == "" {
		if _, ok := builtinLayouts[config.Layout]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownLayout, config.Layout)
		}
	}

	return &config, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(path string, config *Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("marshaling config YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// ResolveLayout returns the layout selected by the config: the layout file
// when set, otherwise the named built-in.
func ResolveLayout(config *Config) (*Layout, error) {
	if config.LayoutFile != "" {
		return LoadLayout(config.LayoutFile)
	}
	return LayoutByName(config.Layout)
}

// LoadLayout reads and validates a layout from a YAML file
func LoadLayout(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading layout file: %w", err)
	}

	var layout Layout
	if err := yaml.Unmarshal(data, &layout); err != nil {
		return nil, fmt.Errorf("parsing layout YAML: %w", err)
	}
	if err := ValidateLayout(&layout); err != nil {
		return nil, err
	}
	return &layout, nil
}

// SaveLayout writes a layout as YAML
func SaveLayout(path string, layout *Layout) error {
	data, err := yaml.Marshal(layout)
	if err != nil {
		return fmt.Errorf("marshaling layout YAML: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing layout file: %w", err)
	}
	return nil
}

// ValidateLayout checks the invariants the scene and room list rely on:
// at least one room, positive dimensions, unique names, opacity in (0,1],
// and a usable camera and footprint.
func ValidateLayout(l *Layout) error {
	if l.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidLayout)
	}
	if len(l.Rooms) == 0 {
		return fmt.Errorf("%w: %s has no rooms", ErrInvalidLayout, l.Name)
	}

	seen := make(map[string]int, len(l.Rooms))
	for i, r := range l.Rooms {
		if r.Name == "" {
			return fmt.Errorf("%w: rooms[%d].name is required", ErrInvalidLayout, i)
		}
		if prev, dup := seen[r.Name]; dup {
			return fmt.Errorf("%w: duplicate room name %q (rooms[%d] and rooms[%d])", ErrInvalidLayout, r.Name, prev, i)
		}
		seen[r.Name] = i

		if r.Width <= 0 || r.Depth <= 0 || r.Height <= 0 {
			return fmt.Errorf("%w: room %q has non-positive size %gx%gx%g", ErrInvalidLayout, r.Name, r.Width, r.Depth, r.Height)
		}
		if r.Opacity < 0 || r.Opacity > 1 {
			return fmt.Errorf("%w: room %q opacity %g outside (0,1]", ErrInvalidLayout, r.Name, r.Opacity)
		}
	}

	env := l.Environment
	if env.Footprint.Width <= 0 || env.Footprint.Depth <= 0 {
		return fmt.Errorf("%w: footprint must be positive", ErrInvalidLayout)
	}
	if env.WallHeight <= 0 || env.WallThickness <= 0 {
		return fmt.Errorf("%w: wall height and thickness must be positive", ErrInvalidLayout)
	}
	if l.Camera.FOV <= 0 || l.Camera.FOV >= 180 {
		return fmt.Errorf("%w: camera fov %g outside (0,180)", ErrInvalidLayout, l.Camera.FOV)
	}
	if l.Camera.Near <= 0 || l.Camera.Far <= l.Camera.Near {
		return fmt.Errorf("%w: camera near/far planes %g/%g", ErrInvalidLayout, l.Camera.Near, l.Camera.Far)
	}
	if l.Camera.Position == l.Camera.Target || l.Camera.Position == l.Camera.InitialTarget() {
		return fmt.Errorf("%w: camera position equals target", ErrInvalidLayout)
	}

	return nil
}
