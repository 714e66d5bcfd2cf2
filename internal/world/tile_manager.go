package world

import (
	"fmt"
	"heavensgate/internal/config"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// TileManager holds the tile registry loaded from yaml and derives the lookup
// tables a cast needs from it.
type TileManager struct {
	tileData     map[string]*config.TileData
	letterToKey  map[rune]string
	wallByID     map[int]string // wall id -> tile key
	floorByID    map[int]string // floor id -> tile key
	defaultFloor int            // floor id written under walls and the start marker
}

// Placement is what a single map letter writes into the grid layers.
type Placement struct {
	Tile  int
	Floor int
}

// NewTileManager creates an empty tile manager
func NewTileManager() *TileManager {
	return &TileManager{
		tileData:    make(map[string]*config.TileData),
		letterToKey: make(map[rune]string),
		wallByID:    make(map[int]string),
		floorByID:   make(map[int]string),
	}
}

// LoadTileConfig loads tile configuration from a YAML file
func (tm *TileManager) LoadTileConfig(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read tile config file: %w", err)
	}
	return tm.LoadTileData(data)
}

// LoadTileData parses a tile registry and replaces the current one
func (tm *TileManager) LoadTileData(data []byte) error {
	var tileConfig config.TileConfig
	if err := yaml.Unmarshal(data, &tileConfig); err != nil {
		return fmt.Errorf("failed to parse tile config: %w", err)
	}

	fresh := NewTileManager()
	for key, tileData := range tileConfig.TileData {
		// Make a copy to avoid pointer issues
		tileCopy := tileData
		if err := fresh.register(key, &tileCopy); err != nil {
			return err
		}
	}
	fresh.pickDefaultFloor()
	*tm = *fresh
	return nil
}

func (tm *TileManager) register(key string, data *config.TileData) error {
	switch data.Kind {
	case config.KindWall:
		if data.ID <= 0 {
			return fmt.Errorf("wall tile %q needs a positive id, got %d", key, data.ID)
		}
		if other, dup := tm.wallByID[data.ID]; dup {
			return fmt.Errorf("wall tiles %q and %q share id %d", other, key, data.ID)
		}
		tm.wallByID[data.ID] = key
	case config.KindFloor:
		if data.ID < 0 {
			return fmt.Errorf("floor tile %q needs a non-negative id, got %d", key, data.ID)
		}
		if other, dup := tm.floorByID[data.ID]; dup {
			return fmt.Errorf("floor tiles %q and %q share id %d", other, key, data.ID)
		}
		tm.floorByID[data.ID] = key
	case config.KindVoid:
		if data.ID >= 0 {
			data.ID = TileVoid
		}
	default:
		return fmt.Errorf("tile %q has unknown kind %q", key, data.Kind)
	}

	if data.Letter != "" {
		runes := []rune(data.Letter)
		if len(runes) != 1 {
			return fmt.Errorf("tile %q letter must be a single character, got %q", key, data.Letter)
		}
		if other, dup := tm.letterToKey[runes[0]]; dup {
			return fmt.Errorf("tiles %q and %q share letter %q", other, key, data.Letter)
		}
		tm.letterToKey[runes[0]] = key
	}
	tm.tileData[key] = data
	return nil
}

// pickDefaultFloor uses floor id 0 when registered, otherwise the lowest id.
func (tm *TileManager) pickDefaultFloor() {
	tm.defaultFloor = 0
	if _, ok := tm.floorByID[0]; ok || len(tm.floorByID) == 0 {
		return
	}
	ids := make([]int, 0, len(tm.floorByID))
	for id := range tm.floorByID {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	tm.defaultFloor = ids[0]
}

// GetTileDataByKey returns the configuration data for a tile by its string key
func (tm *TileManager) GetTileDataByKey(key string) *config.TileData {
	return tm.tileData[key]
}

// GetAllTileKeys returns all tile keys in sorted order
func (tm *TileManager) GetAllTileKeys() []string {
	keys := make([]string, 0, len(tm.tileData))
	for key := range tm.tileData {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// HasTileKey checks if a tile key exists in the loaded configuration
func (tm *TileManager) HasTileKey(key string) bool {
	_, exists := tm.tileData[key]
	return exists
}

// PlacementForLetter resolves a map letter to the values written into the
// tile and floor layers.
func (tm *TileManager) PlacementForLetter(letter rune) (Placement, bool) {
	key, ok := tm.letterToKey[letter]
	if !ok {
		return Placement{}, false
	}
	data := tm.tileData[key]
	switch data.Kind {
	case config.KindWall:
		return Placement{Tile: data.ID, Floor: tm.defaultFloor}, true
	case config.KindFloor:
		return Placement{Tile: TileEmpty, Floor: data.ID}, true
	default:
		return Placement{Tile: data.ID, Floor: tm.defaultFloor}, true
	}
}

// DefaultFloorID is the floor id placed under walls and the start marker
func (tm *TileManager) DefaultFloorID() int {
	return tm.defaultFloor
}

// WallTextures builds the wall id -> texture key table
func (tm *TileManager) WallTextures(fallback string) TextureTable {
	keys := make(map[int]string, len(tm.wallByID))
	for id, key := range tm.wallByID {
		keys[id] = tm.textureOf(key)
	}
	return NewTextureTable(keys, fallback)
}

// FloorTextures builds the floor id -> texture key table
func (tm *TileManager) FloorTextures(fallback string) TextureTable {
	keys := make(map[int]string, len(tm.floorByID))
	for id, key := range tm.floorByID {
		keys[id] = tm.textureOf(key)
	}
	return NewTextureTable(keys, fallback)
}

// TransparentTextures returns the wall texture keys rays pass through
func (tm *TileManager) TransparentTextures() map[string]bool {
	out := make(map[string]bool)
	for _, key := range tm.wallByID {
		if data := tm.tileData[key]; data.Transparent {
			out[tm.textureOf(key)] = true
		}
	}
	return out
}

// TextureColors maps texture keys to their configured base colors
func (tm *TileManager) TextureColors() map[string][3]int {
	out := make(map[string][3]int, len(tm.tileData))
	for key, data := range tm.tileData {
		if data.Color != [3]int{} {
			out[tm.textureOf(key)] = data.Color
		}
	}
	return out
}

// textureOf falls back to the tile key when no texture is named
func (tm *TileManager) textureOf(key string) string {
	if data := tm.tileData[key]; data != nil && data.Texture != "" {
		return data.Texture
	}
	return key
}
