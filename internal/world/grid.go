package world

import (
	"errors"
	"fmt"
)

// Tile values with special meaning. Positive values are walls whose value
// indexes the wall texture table.
const (
	TileEmpty = 0
	TileVoid  = -1 // any negative value stops a ray
)

// ErrInvalidMap is returned for grids that cannot be cast against.
var ErrInvalidMap = errors.New("invalid map")

// Grid is a rectangular tile map indexed as Tiles[y][x]. It is never mutated
// while a cast is in flight; several frames may read the same Grid at once.
type Grid struct {
	Width  int
	Height int
	Tiles  [][]int
	// Floor is an optional second layer of floor texture ids with the same
	// dimensions as Tiles. When nil the tile value of an empty cell is used.
	Floor [][]int
}

// NewGrid copies rows into a Grid after checking that they form a non-empty
// rectangle.
func NewGrid(rows [][]int) (*Grid, error) {
	g := &Grid{Tiles: cloneRows(rows)}
	g.Height = len(g.Tiles)
	if g.Height > 0 {
		g.Width = len(g.Tiles[0])
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// WithFloor returns a copy of g carrying the given floor layer.
func (g *Grid) WithFloor(floor [][]int) (*Grid, error) {
	out := &Grid{Width: g.Width, Height: g.Height, Tiles: g.Tiles, Floor: cloneRows(floor)}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// Validate checks that the grid is a non-empty rectangle and that the floor
// layer, when present, has matching dimensions.
func (g *Grid) Validate() error {
	if g == nil || len(g.Tiles) == 0 {
		return fmt.Errorf("%w: map has no rows", ErrInvalidMap)
	}
	if g.Height != len(g.Tiles) {
		return fmt.Errorf("%w: height %d does not match %d rows", ErrInvalidMap, g.Height, len(g.Tiles))
	}
	if g.Width == 0 {
		return fmt.Errorf("%w: map has no columns", ErrInvalidMap)
	}
	for y, row := range g.Tiles {
		if len(row) != g.Width {
			return fmt.Errorf("%w: row %d has inconsistent width: expected %d, got %d", ErrInvalidMap, y, g.Width, len(row))
		}
	}
	if g.Floor == nil {
		return nil
	}
	if len(g.Floor) != g.Height {
		return fmt.Errorf("%w: floor layer has %d rows, expected %d", ErrInvalidMap, len(g.Floor), g.Height)
	}
	for y, row := range g.Floor {
		if len(row) != g.Width {
			return fmt.Errorf("%w: floor row %d has inconsistent width: expected %d, got %d", ErrInvalidMap, y, g.Width, len(row))
		}
	}
	return nil
}

// InBounds reports whether the cell lies inside the grid.
func (g *Grid) InBounds(cellX, cellY int) bool {
	return cellX >= 0 && cellY >= 0 && cellX < g.Width && cellY < g.Height
}

// TileAt returns the tile value of a cell; ok is false outside the grid.
func (g *Grid) TileAt(cellX, cellY int) (tile int, ok bool) {
	if !g.InBounds(cellX, cellY) {
		return 0, false
	}
	return g.Tiles[cellY][cellX], true
}

// FloorAt returns the floor texture id of a cell. Without a floor layer it is
// the tile value itself.
func (g *Grid) FloorAt(cellX, cellY int) int {
	if g.Floor != nil {
		return g.Floor[cellY][cellX]
	}
	return g.Tiles[cellY][cellX]
}

// IsSolid reports whether a cell blocks movement. Cells outside the grid and
// void cells are solid.
func (g *Grid) IsSolid(cellX, cellY int) bool {
	tile, ok := g.TileAt(cellX, cellY)
	return !ok || tile != TileEmpty
}

func cloneRows(rows [][]int) [][]int {
	if rows == nil {
		return nil
	}
	out := make([][]int, len(rows))
	for i, row := range rows {
		out[i] = append([]int(nil), row...)
	}
	return out
}
