package world

import "strconv"

// Texture keys used when a tile id has no entry in its table.
const (
	DefaultWallTexture  = "wall_creamlol"
	DefaultFloorTexture = "floor_concrete"
)

// TextureTable maps tile ids to texture keys. Wall and floor tables are
// independent. The zero value resolves every id to an empty key.
type TextureTable struct {
	keys     map[int]string
	fallback string
}

// NewTextureTable builds a table; ids missing from keys resolve to fallback.
func NewTextureTable(keys map[int]string, fallback string) TextureTable {
	copied := make(map[int]string, len(keys))
	for id, key := range keys {
		copied[id] = key
	}
	return TextureTable{keys: copied, fallback: fallback}
}

// ParseTextureTable builds a table from string-keyed ids as they arrive over
// the wire. Keys that are not integers are ignored.
func ParseTextureTable(keys map[string]string, fallback string) TextureTable {
	parsed := make(map[int]string, len(keys))
	for raw, key := range keys {
		id, err := strconv.Atoi(raw)
		if err != nil {
			continue
		}
		parsed[id] = key
	}
	return TextureTable{keys: parsed, fallback: fallback}
}

// Lookup returns the texture key for id.
func (t TextureTable) Lookup(id int) string {
	if key, ok := t.keys[id]; ok {
		return key
	}
	return t.fallback
}

// Fallback returns the key used for unknown ids.
func (t TextureTable) Fallback() string {
	return t.fallback
}

// Len returns the number of explicit entries.
func (t TextureTable) Len() int {
	return len(t.keys)
}
