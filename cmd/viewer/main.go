package main

import (
	"context"
	"encoding/json"
	"fmt"
	"image/color"
	"log"

	"github.com/atotto/clipboard"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	ebitext "github.com/hajimehoshi/ebiten/v2/text"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"heavensgate/internal/config"
	"heavensgate/internal/frame"
	"heavensgate/internal/preview"
	"heavensgate/internal/projection"
	"heavensgate/internal/raycast"
	"heavensgate/internal/threading"
	"heavensgate/internal/world"
)

var (
	skyColor    = color.RGBA{38, 44, 66, 255}
	groundColor = color.RGBA{30, 30, 32, 255}
)

type viewer struct {
	cfg     *config.Config
	castCfg raycast.CastConfig
	scene   raycast.Scene
	mapData *world.MapData
	camera  *preview.Camera
	comps   *threading.Components
	palette *preview.Palette
	strips  *preview.StripCache[*ebiten.Image]
	face    font.Face
	hits    []*raycast.RayHit
	frame   *projection.Frame
	showMap bool
	dirty   bool
	status  string
}

func main() {
	cfg := config.MustLoadConfig("config.yaml")

	castCfg, err := raycast.NewCastConfig(cfg)
	if err != nil {
		log.Fatal(err)
	}

	tm := world.NewTileManager()
	if err := tm.LoadTileConfig(cfg.World.TilesFile); err != nil {
		log.Fatal(err)
	}
	md, err := world.NewMapLoader(tm).LoadMap(cfg.World.MapFile)
	if err != nil {
		log.Fatal(err)
	}

	comps := threading.NewComponents(cfg.Raycasting.Workers)
	defer comps.Shutdown()

	v := &viewer{
		cfg:     cfg,
		castCfg: castCfg,
		scene:   raycast.NewScene(md.Grid, tm, cfg.Textures),
		mapData: md,
		camera:  preview.NewCamera(cfg, md),
		comps:   comps,
		palette: preview.NewPalette(tm.TextureColors()),
		strips:  preview.NewStripCache[*ebiten.Image](),
		face:    basicfont.Face7x13,
		dirty:   true,
	}

	ebiten.SetWindowSize(cfg.GetCanvasWidth(), cfg.GetCanvasHeight())
	ebiten.SetWindowTitle(cfg.Display.WindowTitle)
	if cfg.Display.Resizable {
		ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	}

	if err := ebiten.RunGame(v); err != nil {
		log.Fatal(err)
	}
}

func (v *viewer) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyM) {
		v.showMap = !v.showMap
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		v.copyFrame()
	}

	speed := v.cfg.GetMoveSpeed()
	tile := v.castCfg.TileSize
	if ebiten.IsKeyPressed(ebiten.KeyW) || ebiten.IsKeyPressed(ebiten.KeyUp) {
		v.dirty = v.camera.Move(speed, 0, v.scene.Grid, tile) || v.dirty
	}
	if ebiten.IsKeyPressed(ebiten.KeyS) || ebiten.IsKeyPressed(ebiten.KeyDown) {
		v.dirty = v.camera.Move(-speed, 0, v.scene.Grid, tile) || v.dirty
	}
	if ebiten.IsKeyPressed(ebiten.KeyA) {
		v.dirty = v.camera.Move(0, -speed, v.scene.Grid, tile) || v.dirty
	}
	if ebiten.IsKeyPressed(ebiten.KeyD) {
		v.dirty = v.camera.Move(0, speed, v.scene.Grid, tile) || v.dirty
	}
	if ebiten.IsKeyPressed(ebiten.KeyLeft) || ebiten.IsKeyPressed(ebiten.KeyQ) {
		v.camera.Rotate(-v.cfg.GetRotSpeed())
		v.dirty = true
	}
	if ebiten.IsKeyPressed(ebiten.KeyRight) || ebiten.IsKeyPressed(ebiten.KeyE) {
		v.camera.Rotate(v.cfg.GetRotSpeed())
		v.dirty = true
	}

	if v.dirty {
		v.castFrame()
		v.dirty = false
	}
	return nil
}

// castFrame casts and projects the camera's current view
func (v *viewer) castFrame() {
	ctx := context.Background()
	pose := v.camera.Pose()

	timer := v.comps.Monitor.StartCast()
	hits, err := v.comps.Caster.CastFrame(ctx, pose, v.castCfg, v.scene)
	if err != nil {
		v.comps.Monitor.RecordError()
		v.status = fmt.Sprintf("cast failed: %v", err)
		return
	}
	timer.EndCast(len(hits))

	projected, err := projection.ProjectFrame(ctx, pose, v.castCfg, hits)
	if err != nil {
		v.status = fmt.Sprintf("projection failed: %v", err)
		return
	}
	v.hits = hits
	v.frame = projected
}

func (v *viewer) copyFrame() {
	records := make([]*frame.RayRecord, len(v.hits))
	for i, hit := range v.hits {
		records[i] = frame.NewRayRecord(hit)
	}
	data, err := json.Marshal(records)
	if err != nil {
		v.status = fmt.Sprintf("encode failed: %v", err)
		return
	}
	if err := clipboard.WriteAll(string(data)); err != nil {
		log.Printf("Warning: Failed to copy frame: %v", err)
		v.status = "clipboard unavailable"
		return
	}
	v.status = fmt.Sprintf("copied %d rays", len(records))
}

func (v *viewer) Draw(screen *ebiten.Image) {
	w, h := v.castCfg.CanvasWidth, v.castCfg.CanvasHeight
	vector.DrawFilledRect(screen, 0, 0, float32(w), float32(h/2), skyColor, false)
	vector.DrawFilledRect(screen, 0, float32(h/2), float32(w), float32(h-h/2), groundColor, false)

	if v.frame != nil {
		colW := float64(w) / float64(v.castCfg.RayCount)
		for i, wall := range v.frame.Walls {
			if wall == nil {
				continue
			}
			x := float64(wall.Column) * colW
			v.drawFloor(screen, v.frame.Floors[i], x, colW)
			v.drawStrip(screen, *wall, x, colW, 1)
			// Glass is drawn back to front over the wall behind it.
			for _, glass := range v.frame.Layers[i] {
				v.drawStrip(screen, glass, x, colW, 0.45)
			}
		}
	}

	if v.showMap {
		v.drawMinimap(screen)
	}
	v.drawHUD(screen)
}

func (v *viewer) drawStrip(screen *ebiten.Image, s projection.WallSlice, x, colW, alpha float64) {
	key := preview.StripKey{TextureKey: s.TextureKey, Side: s.Side, Height: int(s.Height), TexU: s.TexU}
	img := v.strips.GetOrCreate(key, v.buildStrip)

	shade := shadeFor(s.Distance, float64(v.castCfg.MaxDepth)*v.castCfg.TileSize)
	if s.Side == raycast.SideY {
		shade *= 0.8
	}

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(colW, s.Height/float64(img.Bounds().Dy()))
	op.GeoM.Translate(x, s.Top)
	op.ColorScale.Scale(float32(shade), float32(shade), float32(shade), 1)
	op.ColorScale.ScaleAlpha(float32(alpha))
	screen.DrawImage(img, op)
}

// buildStrip renders one texel column of a wall texture at the key's height
func (v *viewer) buildStrip(key preview.StripKey) *ebiten.Image {
	pix := make([]byte, 4*key.Height)
	for y := 0; y < key.Height; y++ {
		c := v.palette.Texel(key.TextureKey, key.TexU, float64(y)/float64(key.Height), 1)
		pix[4*y], pix[4*y+1], pix[4*y+2], pix[4*y+3] = c.R, c.G, c.B, c.A
	}
	img := ebiten.NewImage(1, key.Height)
	img.WritePixels(pix)
	return img
}

func (v *viewer) drawFloor(screen *ebiten.Image, fc *projection.FloorColumn, x, colW float64) {
	if fc == nil {
		return
	}
	stride := float32(v.castCfg.RowStride())
	half := float64(v.castCfg.CanvasHeight) / 2
	for _, s := range fc.Samples {
		shade := (float64(s.Row) - half) / half
		c := v.palette.Texel(fc.TextureKey, s.TexU, s.TexV, shade)
		vector.DrawFilledRect(screen, float32(x), float32(s.Row), float32(colW), stride, c, false)
	}
}

func (v *viewer) drawMinimap(screen *ebiten.Image) {
	g := v.scene.Grid
	cell := float32(6)
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			c := color.RGBA{20, 20, 28, 220}
			if tile, _ := g.TileAt(x, y); tile > 0 {
				c = v.palette.Base(v.scene.WallTextures.Lookup(tile))
			}
			vector.DrawFilledRect(screen, 8+float32(x)*cell, 24+float32(y)*cell, cell, cell, c, false)
		}
	}
	scale := float64(cell) / v.castCfg.TileSize
	px := 8 + float32(v.camera.X*scale)
	py := 24 + float32(v.camera.Z*scale)
	vector.DrawFilledCircle(screen, px, py, 2.5, color.RGBA{50, 200, 255, 255}, true)
	vector.StrokeLine(screen, px, py,
		px+float32(v.camera.GetForwardX()*8), py+float32(v.camera.GetForwardZ()*8),
		1, color.RGBA{255, 255, 255, 255}, true)
}

func (v *viewer) drawHUD(screen *ebiten.Image) {
	stats := v.comps.Stats()
	line := fmt.Sprintf("%s  cast %.2fms avg %.2fms  strips %d",
		v.mapData.Name, stats.LastCastMs, stats.AvgCastMs, v.strips.Len())
	ebitext.Draw(screen, line, v.face, 8, 14, color.White)
	if v.status != "" {
		ebitext.Draw(screen, v.status, v.face, 8, v.castCfg.CanvasHeight-8, color.RGBA{255, 220, 0, 255})
	}
	ebitenutil.DebugPrintAt(screen, "WASD move  Q/E turn  M map  C copy  Esc quit", 8, v.castCfg.CanvasHeight-40)
}

func (v *viewer) Layout(_, _ int) (int, int) {
	return v.castCfg.CanvasWidth, v.castCfg.CanvasHeight
}

func shadeFor(dist, maxDist float64) float64 {
	if maxDist <= 0 {
		return 1
	}
	s := 1 - dist/maxDist
	if s < 0.15 {
		return 0.15
	}
	if s > 1 {
		return 1
	}
	return s
}
