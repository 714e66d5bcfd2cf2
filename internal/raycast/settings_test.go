package raycast

import (
	"errors"
	"testing"

	"heavensgate/internal/config"
	"heavensgate/internal/world"
)

func TestNewCastConfigFromDefaults(t *testing.T) {
	cfg, err := NewCastConfig(config.Default())
	if err != nil {
		t.Fatalf("NewCastConfig: %v", err)
	}
	if cfg.TileSize != 64 || cfg.RayCount != 200 || cfg.MaxDepth != 30 {
		t.Errorf("unexpected sizes: %+v", cfg)
	}
	if cfg.Convention != ConventionWorld || cfg.InvSqrt != SqrtLegacy || cfg.DirectFloorRows {
		t.Errorf("unexpected policies: %+v", cfg)
	}
}

func TestNewCastConfigPolicies(t *testing.T) {
	c := config.Default()
	c.Raycasting.Convention = "tile"
	c.Raycasting.InvSqrt = "exact"
	c.Raycasting.FloorRows = "direct"
	cfg, err := NewCastConfig(c)
	if err != nil {
		t.Fatalf("NewCastConfig: %v", err)
	}
	if cfg.Convention != ConventionTile || cfg.InvSqrt != SqrtExact || !cfg.DirectFloorRows {
		t.Errorf("policies not applied: %+v", cfg)
	}

	for _, mutate := range []func(*config.Config){
		func(c *config.Config) { c.Raycasting.Convention = "polar" },
		func(c *config.Config) { c.Raycasting.InvSqrt = "carmack" },
		func(c *config.Config) { c.Raycasting.FloorRows = "sometimes" },
	} {
		c := config.Default()
		mutate(c)
		if _, err := NewCastConfig(c); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	}
}

func TestLoadSceneFromAssets(t *testing.T) {
	c := config.Default()
	c.World.TilesFile = "../../assets/tiles.yaml"
	c.World.MapFile = "../../assets/maps/courtyard.map"

	scene, md, err := LoadScene(c)
	if err != nil {
		t.Fatalf("LoadScene: %v", err)
	}
	if md.StartX < 0 {
		t.Fatal("courtyard has no start marker")
	}
	if !scene.Transparent["wall_glass"] {
		t.Error("glass should be transparent")
	}

	cfg, _ := NewCastConfig(c)
	x, z := world.CellCenter(md.StartX, md.StartY, cfg.TileSize)
	hits, err := CastFrame(Pose{X: x, Z: z, FOV: c.GetCameraFOV()}, cfg, scene)
	if err != nil {
		t.Fatalf("CastFrame: %v", err)
	}
	for col, hit := range hits {
		if hit == nil {
			t.Fatalf("column %d escaped the walled courtyard", col)
		}
		if hit.TextureKey == "" || hit.FloorTextureKey == "" {
			t.Errorf("column %d missing texture keys: %+v", col, hit)
		}
	}
}

func TestLoadSceneMissingFiles(t *testing.T) {
	c := config.Default()
	c.World.TilesFile = t.TempDir() + "/missing.yaml"
	if _, _, err := LoadScene(c); err == nil {
		t.Error("missing tile registry should fail")
	}
}
