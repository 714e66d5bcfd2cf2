package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all raycaster configuration values
type Config struct {
	Display    DisplayConfig    `yaml:"display"`
	World      WorldConfig      `yaml:"world"`
	Camera     CameraConfig     `yaml:"camera"`
	Raycasting RaycastingConfig `yaml:"raycasting"`
	Textures   TexturesConfig   `yaml:"textures"`
	Server     ServerConfig     `yaml:"server"`
}

type DisplayConfig struct {
	CanvasWidth  int    `yaml:"canvas_width"`
	CanvasHeight int    `yaml:"canvas_height"`
	WindowTitle  string `yaml:"window_title"`
	Resizable    bool   `yaml:"resizable"`
}

type WorldConfig struct {
	TileSize  int    `yaml:"tile_size"`
	MapFile   string `yaml:"map_file"`
	TilesFile string `yaml:"tiles_file"`
}

type CameraConfig struct {
	FieldOfView   float64 `yaml:"field_of_view"`
	StartAngle    float64 `yaml:"start_angle"`
	MoveSpeed     float64 `yaml:"move_speed"`
	RotationSpeed float64 `yaml:"rotation_speed"`
}

type RaycastingConfig struct {
	NumRays        int    `yaml:"num_rays"`
	MaxRayDepth    int    `yaml:"max_ray_depth"`
	Convention     string `yaml:"convention"`       // "world" or "tile"
	InvSqrt        string `yaml:"inv_sqrt"`         // "legacy", "fast32", "fast64" or "exact"
	FloorRowStride int    `yaml:"floor_row_stride"` // pixel rows between floor samples
	FloorRows      string `yaml:"floor_rows"`       // "incremental" or "direct"
	Workers        int    `yaml:"workers"`          // 0 means CPU count
}

type TexturesConfig struct {
	DefaultWall  string `yaml:"default_wall"`
	DefaultFloor string `yaml:"default_floor"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// TileConfig is the tile registry file layout (assets/tiles.yaml)
type TileConfig struct {
	TileData map[string]TileData `yaml:"tiles"`
}

// TileData describes one tile kind. Walls and floors have independent id
// spaces: a wall id is written into the tile layer, a floor id into the floor
// layer.
type TileData struct {
	Name        string `yaml:"name"`
	ID          int    `yaml:"id"`
	Kind        string `yaml:"kind"` // "wall", "floor" or "void"
	Texture     string `yaml:"texture"`
	Letter      string `yaml:"letter"`
	Transparent bool   `yaml:"transparent"`
	Color       [3]int `yaml:"color"`
}

// Tile kinds
const (
	KindWall  = "wall"
	KindFloor = "floor"
	KindVoid  = "void"
)

// Default returns the built-in configuration. Loaded files are layered on top
// of it, so a config file only needs the values it changes.
func Default() *Config {
	return &Config{
		Display: DisplayConfig{
			CanvasWidth:  800,
			CanvasHeight: 800,
			WindowTitle:  "Heavens Gate Raycaster",
			Resizable:    true,
		},
		World: WorldConfig{
			TileSize:  64,
			MapFile:   "assets/maps/courtyard.map",
			TilesFile: "assets/tiles.yaml",
		},
		Camera: CameraConfig{
			FieldOfView:   math.Pi / 6,
			StartAngle:    0,
			MoveSpeed:     4,
			RotationSpeed: 0.04,
		},
		Raycasting: RaycastingConfig{
			NumRays:        200,
			MaxRayDepth:    30,
			Convention:     "world",
			InvSqrt:        "legacy",
			FloorRowStride: 2,
			FloorRows:      "incremental",
			Workers:        0,
		},
		Textures: TexturesConfig{
			DefaultWall:  "wall_creamlol",
			DefaultFloor: "floor_concrete",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// LoadConfig loads the configuration from a yaml file on top of Default
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	config, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", filename, err)
	}

	return config, nil
}

// ParseConfig decodes yaml bytes on top of Default and validates the result
func ParseConfig(data []byte) (*Config, error) {
	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, err
	}
	applyEnv(config)
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadOrDefault loads filename like LoadConfig. When that fails it returns
// the defaults, with environment overrides applied, together with the load
// error so the caller can warn and carry on.
func LoadOrDefault(filename string) (*Config, error) {
	config, err := LoadConfig(filename)
	if err != nil {
		config = Default()
		applyEnv(config)
		return config, err
	}
	return config, nil
}

// applyEnv layers environment overrides on top of file values
func applyEnv(config *Config) {
	if addr := os.Getenv("SERVER_ADDR"); addr != "" {
		config.Server.Addr = addr
	}
}

// MustLoadConfig loads the configuration and panics on error
func MustLoadConfig(filename string) *Config {
	config, err := LoadConfig(filename)
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}
	return config
}

// Validate rejects values no frame could be cast with
func (c *Config) Validate() error {
	switch {
	case c.Display.CanvasWidth <= 0 || c.Display.CanvasHeight <= 0:
		return fmt.Errorf("canvas size must be positive, got %dx%d", c.Display.CanvasWidth, c.Display.CanvasHeight)
	case c.World.TileSize <= 0:
		return fmt.Errorf("tile_size must be positive, got %d", c.World.TileSize)
	case c.Raycasting.NumRays <= 0:
		return fmt.Errorf("num_rays must be positive, got %d", c.Raycasting.NumRays)
	case c.Raycasting.MaxRayDepth <= 0:
		return fmt.Errorf("max_ray_depth must be positive, got %d", c.Raycasting.MaxRayDepth)
	case c.Raycasting.FloorRowStride <= 0:
		return fmt.Errorf("floor_row_stride must be positive, got %d", c.Raycasting.FloorRowStride)
	case !(c.Camera.FieldOfView > 0 && c.Camera.FieldOfView < math.Pi):
		return fmt.Errorf("field_of_view must be in (0, pi), got %v", c.Camera.FieldOfView)
	}
	return nil
}

// Helper functions for easy access to commonly used values
func (c *Config) GetCanvasWidth() int {
	return c.Display.CanvasWidth
}

func (c *Config) GetCanvasHeight() int {
	return c.Display.CanvasHeight
}

func (c *Config) GetTileSize() float64 {
	return float64(c.World.TileSize)
}

func (c *Config) GetNumRays() int {
	return c.Raycasting.NumRays
}

func (c *Config) GetMaxRayDepth() int {
	return c.Raycasting.MaxRayDepth
}

func (c *Config) GetCameraFOV() float64 {
	return c.Camera.FieldOfView
}

func (c *Config) GetMoveSpeed() float64 {
	return c.Camera.MoveSpeed
}

func (c *Config) GetRotSpeed() float64 {
	return c.Camera.RotationSpeed
}
