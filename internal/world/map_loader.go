package world

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// StartMarker places the player on a default floor cell
const StartMarker = '+'

// MapLoader reads text maps: one character per cell, resolved through the
// tile manager. Lines starting with '#' are comments.
type MapLoader struct {
	tiles *TileManager
}

// MapData contains the loaded map information
type MapData struct {
	Name   string
	Grid   *Grid
	StartX int // cell column of the start marker, -1 when absent
	StartY int
}

// NewMapLoader creates a new map loader
func NewMapLoader(tiles *TileManager) *MapLoader {
	return &MapLoader{tiles: tiles}
}

// LoadMap loads a map from the specified file path
func (ml *MapLoader) LoadMap(mapPath string) (*MapData, error) {
	file, err := os.Open(mapPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open map file %s: %w", mapPath, err)
	}
	defer file.Close()

	data, err := ml.ParseMap(file)
	if err != nil {
		return nil, fmt.Errorf("map %s: %w", mapPath, err)
	}
	data.Name = strings.TrimSuffix(filepath.Base(mapPath), filepath.Ext(mapPath))
	return data, nil
}

// ParseMap reads map rows from r
func (ml *MapLoader) ParseMap(r io.Reader) (*MapData, error) {
	var lines []string
	scanner := bufio.NewScanner(r)

	// Read all non-comment lines
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		// Skip empty lines and comment lines (lines starting with #)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading map file: %w", err)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: map file contains no valid map data", ErrInvalidMap)
	}

	// Validate all lines have the same width
	width := len([]rune(lines[0]))
	for i, line := range lines {
		if n := len([]rune(line)); n != width {
			return nil, fmt.Errorf("%w: line %d has inconsistent width: expected %d, got %d", ErrInvalidMap, i+1, width, n)
		}
	}

	tiles := make([][]int, len(lines))
	floor := make([][]int, len(lines))
	mapData := &MapData{StartX: -1, StartY: -1}

	for y, line := range lines {
		tiles[y] = make([]int, width)
		floor[y] = make([]int, width)
		for x, char := range []rune(line) {
			placement, isStart, err := ml.parseMapCharacter(char)
			if err != nil {
				return nil, fmt.Errorf("line %d column %d: %w", y+1, x+1, err)
			}
			tiles[y][x] = placement.Tile
			floor[y][x] = placement.Floor
			if isStart {
				mapData.StartX = x
				mapData.StartY = y
			}
		}
	}

	grid, err := NewGrid(tiles)
	if err != nil {
		return nil, err
	}
	if grid, err = grid.WithFloor(floor); err != nil {
		return nil, err
	}
	mapData.Grid = grid
	return mapData, nil
}

// parseMapCharacter converts a map character to its layer values. Digits are
// accepted as raw wall ids so maps work without a tile registry.
func (ml *MapLoader) parseMapCharacter(char rune) (Placement, bool, error) {
	defaultFloor := 0
	if ml.tiles != nil {
		defaultFloor = ml.tiles.DefaultFloorID()
	}

	if char == StartMarker {
		return Placement{Tile: TileEmpty, Floor: defaultFloor}, true, nil
	}

	if ml.tiles != nil {
		if placement, found := ml.tiles.PlacementForLetter(char); found {
			return placement, false, nil
		}
	}

	if char >= '0' && char <= '9' {
		return Placement{Tile: int(char - '0'), Floor: defaultFloor}, false, nil
	}

	return Placement{}, false, fmt.Errorf("%w: unknown map character %q", ErrInvalidMap, char)
}

// CellCenter returns the world position of the center of a cell
func CellCenter(cellX, cellY int, tileSize float64) (float64, float64) {
	return (float64(cellX) + 0.5) * tileSize, (float64(cellY) + 0.5) * tileSize
}
