package main

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"heavensgate/internal/config"
	"heavensgate/internal/world"
)

// Prints the tile registry and the texture tables a cast would use.
func main() {
	cfg := config.Default()

	fmt.Println("Tile Registry")
	fmt.Println("=============")

	tm := world.NewTileManager()
	if err := tm.LoadTileConfig("../" + cfg.World.TilesFile); err != nil {
		log.Fatalf("Failed to load tile config: %v", err)
	}

	fmt.Println("\nAll Available Tiles:")
	for _, key := range tm.GetAllTileKeys() {
		data := tm.GetTileDataByKey(key)
		flags := ""
		if data.Transparent {
			flags = " (transparent)"
		}
		fmt.Printf("- %-16s %-5s id %-3d letter '%s' texture %s%s\n", key, data.Kind, data.ID, data.Letter, data.Texture, flags)
	}

	fmt.Println("\nLetter Mappings:")
	for _, key := range tm.GetAllTileKeys() {
		data := tm.GetTileDataByKey(key)
		if data.Letter == "" {
			continue
		}
		if p, ok := tm.PlacementForLetter([]rune(data.Letter)[0]); ok {
			fmt.Printf("'%s' -> tile %d floor %d\n", data.Letter, p.Tile, p.Floor)
		}
	}
	fmt.Printf("Default floor id: %d\n", tm.DefaultFloorID())

	walls := tm.WallTextures(cfg.Textures.DefaultWall)
	floors := tm.FloorTextures(cfg.Textures.DefaultFloor)
	fmt.Printf("\nWall textures: %d (fallback %s)\n", walls.Len(), walls.Fallback())
	fmt.Printf("Floor textures: %d (fallback %s)\n", floors.Len(), floors.Fallback())

	var glass []string
	for key := range tm.TransparentTextures() {
		glass = append(glass, key)
	}
	sort.Strings(glass)
	fmt.Printf("Transparent: %s\n", strings.Join(glass, ", "))
}
