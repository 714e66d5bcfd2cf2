package frame

import (
	"math"
	"strconv"
	"time"

	"heavensgate/internal/projection"
	"heavensgate/internal/raycast"
)

// Message types
const (
	TypeInit           = "init"
	TypeUpdateSettings = "updateSettings"
	TypeFrame          = "frame"
	TypeError          = "error"
)

// Fixed6 is a float written to JSON with exactly six decimals so golden
// output is stable across platforms. Non-finite values are written as null.
type Fixed6 float64

func (f Fixed6) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, v, 'f', 6, 64), nil
}

// Request is one message from the renderer. Fields left out of a frame
// request fall back to the session set up by init, then to the loaded
// configuration.
type Request struct {
	Type     string `json:"type,omitempty"`
	FrameID  int    `json:"frameId"`
	StartRay int    `json:"startRay"`
	EndRay   int    `json:"endRay"` // 0 means numCastRays

	PosX        float64 `json:"posX"`
	PosZ        float64 `json:"posZ"`
	PlayerAngle float64 `json:"playerAngle"`
	PlayerFOV   float64 `json:"playerFOV"`

	TileSectors  float64 `json:"tileSectors,omitempty"`
	CanvasWidth  int     `json:"CANVAS_WIDTH,omitempty"`
	CanvasHeight int     `json:"CANVAS_HEIGHT,omitempty"`
	NumCastRays  int     `json:"numCastRays,omitempty"`
	MaxRayDepth  int     `json:"maxRayDepth,omitempty"`

	Map                 [][]int           `json:"map,omitempty"`
	Map01               [][]int           `json:"map_01,omitempty"`
	FloorMap            [][]int           `json:"floorMap,omitempty"`
	TextureIDMap        map[string]string `json:"textureIdMap,omitempty"`
	FloorTextureIDMap   map[string]string `json:"floorTextureIdMap,omitempty"`
	TransparentTextures []string          `json:"transparentTextures,omitempty"`

	Convention string `json:"convention,omitempty"`
	InvSqrt    string `json:"invSqrt,omitempty"`
	Project    bool   `json:"project,omitempty"`
}

func (r *Request) grid() [][]int {
	if r.Map != nil {
		return r.Map
	}
	return r.Map01
}

// RayRecord is the wire form of one column's hit.
type RayRecord struct {
	Column          int          `json:"column"`
	Distance        Fixed6       `json:"distance"`
	WallType        string       `json:"wallType"`
	HitX            Fixed6       `json:"hitX"`
	HitY            Fixed6       `json:"hitY"`
	HitSide         string       `json:"hitSide"`
	TextureKey      string       `json:"textureKey"`
	FloorTextureKey string       `json:"floorTextureKey"`
	FloorX          Fixed6       `json:"floorX"`
	FloorY          Fixed6       `json:"floorY"`
	Layers          []*RayRecord `json:"layers,omitempty"`
}

// NewRayRecord converts a hit; an absent hit stays nil and encodes as null.
func NewRayRecord(hit *raycast.RayHit) *RayRecord {
	if hit == nil {
		return nil
	}
	rec := &RayRecord{
		Column:          hit.Column,
		Distance:        Fixed6(hit.Distance),
		WallType:        hit.WallType,
		HitX:            Fixed6(hit.HitX),
		HitY:            Fixed6(hit.HitY),
		HitSide:         hit.Side.String(),
		TextureKey:      hit.TextureKey,
		FloorTextureKey: hit.FloorTextureKey,
		FloorX:          Fixed6(hit.FloorX),
		FloorY:          Fixed6(hit.FloorY),
	}
	for i := range hit.Layers {
		rec.Layers = append(rec.Layers, NewRayRecord(&hit.Layers[i]))
	}
	return rec
}

// WallRecord is the wire form of a projected wall strip.
type WallRecord struct {
	Column     int    `json:"column"`
	Height     Fixed6 `json:"wallHeight"`
	Top        Fixed6 `json:"wallTop"`
	Bottom     Fixed6 `json:"wallBottom"`
	TextureX   Fixed6 `json:"textureX"`
	TextureKey string `json:"textureKey"`
}

// FloorRecord carries a column's floor samples flattened as row, texU, texV
// triples.
type FloorRecord struct {
	Column int      `json:"column"`
	TexKey string   `json:"texKey"`
	Data   []Fixed6 `json:"data"`
}

func newWallRecord(w *projection.WallSlice) *WallRecord {
	if w == nil {
		return nil
	}
	return &WallRecord{
		Column:     w.Column,
		Height:     Fixed6(w.Height),
		Top:        Fixed6(w.Top),
		Bottom:     Fixed6(w.Bottom),
		TextureX:   Fixed6(w.TexU),
		TextureKey: w.TextureKey,
	}
}

func newFloorRecord(f *projection.FloorColumn) *FloorRecord {
	if f == nil {
		return nil
	}
	data := make([]Fixed6, 0, len(f.Samples)*3)
	for _, s := range f.Samples {
		data = append(data, Fixed6(s.Row), Fixed6(s.TexU), Fixed6(s.TexV))
	}
	return &FloorRecord{Column: f.Column, TexKey: f.TextureKey, Data: data}
}

// FrameResponse answers a cast request.
type FrameResponse struct {
	Type       string         `json:"type"`
	StartRay   int            `json:"startRay"`
	FrameID    int            `json:"frameId"`
	RayData    []*RayRecord   `json:"rayData"`
	Walls      []*WallRecord  `json:"walls,omitempty"`
	Floors     []*FloorRecord `json:"floors,omitempty"`
	WorkerTime Fixed6         `json:"workerTime"`
}

// ErrorResponse replaces a whole frame that could not be cast.
type ErrorResponse struct {
	Type       string `json:"type"`
	FrameID    int    `json:"frameId"`
	Error      string `json:"error"`
	WorkerTime Fixed6 `json:"workerTime"`
}

// NewErrorResponse builds the error record for a frame whose handling began
// at start.
func NewErrorResponse(frameID int, err error, start time.Time) *ErrorResponse {
	return &ErrorResponse{
		Type:       TypeError,
		FrameID:    frameID,
		Error:      err.Error(),
		WorkerTime: sinceMillis(start),
	}
}

// AckResponse confirms init and updateSettings messages.
type AckResponse struct {
	Type    string `json:"type"`
	Success bool   `json:"success"`
}
