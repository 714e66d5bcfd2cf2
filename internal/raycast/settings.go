package raycast

import (
	"fmt"
	"strings"

	"heavensgate/internal/config"
	"heavensgate/internal/world"
)

// NewCastConfig builds the per-frame configuration from loaded settings.
func NewCastConfig(c *config.Config) (CastConfig, error) {
	conv, err := ParseConvention(c.Raycasting.Convention)
	if err != nil {
		return CastConfig{}, err
	}
	mode, err := ParseSqrtMode(c.Raycasting.InvSqrt)
	if err != nil {
		return CastConfig{}, err
	}

	var direct bool
	switch strings.ToLower(c.Raycasting.FloorRows) {
	case "", "incremental":
	case "direct":
		direct = true
	default:
		return CastConfig{}, fmt.Errorf("%w: unknown floor_rows %q", ErrInvalidConfig, c.Raycasting.FloorRows)
	}

	return CastConfig{
		TileSize:        c.GetTileSize(),
		RayCount:        c.GetNumRays(),
		MaxDepth:        c.GetMaxRayDepth(),
		CanvasWidth:     c.GetCanvasWidth(),
		CanvasHeight:    c.GetCanvasHeight(),
		Convention:      conv,
		InvSqrt:         mode,
		FloorRowStride:  c.Raycasting.FloorRowStride,
		DirectFloorRows: direct,
	}, nil
}

// NewScene pairs a grid with the texture tables of a tile registry.
func NewScene(grid *world.Grid, tm *world.TileManager, textures config.TexturesConfig) Scene {
	return Scene{
		Grid:          grid,
		WallTextures:  tm.WallTextures(textures.DefaultWall),
		FloorTextures: tm.FloorTextures(textures.DefaultFloor),
		Transparent:   tm.TransparentTextures(),
	}
}

// LoadScene reads the tile registry and map named by the configuration.
func LoadScene(c *config.Config) (Scene, *world.MapData, error) {
	tm := world.NewTileManager()
	if err := tm.LoadTileConfig(c.World.TilesFile); err != nil {
		return Scene{}, nil, err
	}
	md, err := world.NewMapLoader(tm).LoadMap(c.World.MapFile)
	if err != nil {
		return Scene{}, nil, err
	}
	return NewScene(md.Grid, tm, c.Textures), md, nil
}
