package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"

	"heavensgate/internal/config"
	"heavensgate/internal/preview"
	"heavensgate/internal/projection"
	"heavensgate/internal/raycast"
	"heavensgate/internal/threading"
	"heavensgate/internal/world"
)

// Terminal cells are about twice as tall as wide; each text row covers two
// canvas rows so the view keeps its proportions.
const rowsPerCell = 2

type termView struct {
	screen  tcell.Screen
	cfg     *config.Config
	castCfg raycast.CastConfig
	scene   raycast.Scene
	mapName string
	camera  *preview.Camera
	comps   *threading.Components
	palette *preview.Palette
	width   int
	height  int
	status  string
}

func newTermView(cfg *config.Config) (*termView, error) {
	castCfg, err := raycast.NewCastConfig(cfg)
	if err != nil {
		return nil, err
	}
	tm := world.NewTileManager()
	if err := tm.LoadTileConfig(cfg.World.TilesFile); err != nil {
		return nil, err
	}
	md, err := world.NewMapLoader(tm).LoadMap(cfg.World.MapFile)
	if err != nil {
		return nil, err
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}

	tv := &termView{
		screen:  screen,
		cfg:     cfg,
		castCfg: castCfg,
		scene:   raycast.NewScene(md.Grid, tm, cfg.Textures),
		mapName: md.Name,
		camera:  preview.NewCamera(cfg, md),
		comps:   threading.NewComponents(cfg.Raycasting.Workers),
		palette: preview.NewPalette(tm.TextureColors()),
	}
	tv.handleResize()
	return tv, nil
}

// handleResize sizes the cast to one ray per terminal column
func (tv *termView) handleResize() {
	tv.width, tv.height = tv.screen.Size()
	tv.castCfg.RayCount = max(1, tv.width)
	tv.castCfg.CanvasWidth = max(1, tv.width)
	tv.castCfg.CanvasHeight = max(2, (tv.height-1)*rowsPerCell)
	tv.screen.Clear()
}

func (tv *termView) handleInput(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return false
		}
		speed := tv.cfg.GetMoveSpeed() * 4
		turn := tv.cfg.GetRotSpeed() * 3
		tile := tv.castCfg.TileSize
		switch ev.Key() {
		case tcell.KeyUp:
			tv.camera.Move(speed, 0, tv.scene.Grid, tile)
		case tcell.KeyDown:
			tv.camera.Move(-speed, 0, tv.scene.Grid, tile)
		case tcell.KeyLeft:
			tv.camera.Rotate(-turn)
		case tcell.KeyRight:
			tv.camera.Rotate(turn)
		case tcell.KeyRune:
			switch ev.Rune() {
			case 'w':
				tv.camera.Move(speed, 0, tv.scene.Grid, tile)
			case 's':
				tv.camera.Move(-speed, 0, tv.scene.Grid, tile)
			case 'a':
				tv.camera.Move(0, -speed, tv.scene.Grid, tile)
			case 'd':
				tv.camera.Move(0, speed, tv.scene.Grid, tile)
			case 'q':
				return false
			}
		}

	case *tcell.EventResize:
		tv.handleResize()
	}
	return true
}

func (tv *termView) draw() {
	ctx := context.Background()
	pose := tv.camera.Pose()

	timer := tv.comps.Monitor.StartCast()
	hits, err := tv.comps.Caster.CastFrame(ctx, pose, tv.castCfg, tv.scene)
	if err != nil {
		tv.comps.Monitor.RecordError()
		tv.status = err.Error()
		return
	}
	timer.EndCast(len(hits))

	f, err := projection.ProjectFrame(ctx, pose, tv.castCfg, hits)
	if err != nil {
		tv.status = err.Error()
		return
	}

	tf := preview.RenderText(f, tv.castCfg, tv.width, tv.height-1)
	for y, row := range tf.Cells {
		for x, cell := range row {
			tv.screen.SetContent(x, y, cell.Rune, nil, tv.styleFor(cell))
		}
	}

	stats := tv.comps.Stats()
	line := fmt.Sprintf(" %s  (%.0f, %.0f)  %.2fms  %s", tv.mapName, tv.camera.X, tv.camera.Z, stats.LastCastMs, tv.status)
	style := tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorSilver)
	for x := 0; x < tv.width; x++ {
		r := ' '
		if x < len(line) {
			r = rune(line[x])
		}
		tv.screen.SetContent(x, tv.height-1, r, nil, style)
	}
	tv.screen.Show()
}

func (tv *termView) styleFor(cell preview.Cell) tcell.Style {
	switch cell.Kind {
	case preview.CellWall, preview.CellGlass, preview.CellFloor:
		c := tv.palette.Shaded(cell.TextureKey, 0.25+0.75*cell.Shade)
		return tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B)))
	default:
		return tcell.StyleDefault
	}
}

func (tv *termView) run() {
	ticker := time.NewTicker(33 * time.Millisecond)
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			eventChan <- tv.screen.PollEvent()
		}
	}()

	for {
		select {
		case ev := <-eventChan:
			if !tv.handleInput(ev) {
				return
			}
		case <-ticker.C:
			tv.draw()
		}
	}
}

func (tv *termView) cleanup() {
	tv.comps.Shutdown()
	tv.screen.Fini()
}

func main() {
	cfg, err := config.LoadOrDefault("config.yaml")
	if err != nil {
		log.Printf("Warning: Failed to load config, using defaults: %v", err)
	}

	tv, err := newTermView(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "termview: %v\n", err)
		os.Exit(1)
	}
	defer tv.cleanup()

	tv.run()
}
