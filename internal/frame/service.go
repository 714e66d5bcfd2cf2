// Package frame is the message boundary of the caster. It turns renderer
// requests into casts and casts into wire records.
package frame

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"heavensgate/internal/config"
	"heavensgate/internal/projection"
	"heavensgate/internal/raycast"
	"heavensgate/internal/threading"
	"heavensgate/internal/threading/monitoring"
	"heavensgate/internal/world"
)

// session is the static frame data a renderer sends once with init and then
// leaves out of every frame request.
type session struct {
	tileSize     float64
	canvasWidth  int
	canvasHeight int
	numRays      int
	maxDepth     int
	convention   raycast.Convention
	invSqrt      raycast.SqrtMode
	grid         *world.Grid
	walls        world.TextureTable
	floors       world.TextureTable
	transparent  map[string]bool
}

// Service casts frame requests. It is safe for concurrent use; frames from
// several goroutines share one worker pool and one sequencer.
type Service struct {
	textures config.TexturesConfig
	base     raycast.CastConfig
	caster   frameCaster
	monitor  *monitoring.FrameMonitor
	seq      *Sequencer

	mu   sync.RWMutex
	sess session
}

type frameCaster interface {
	CastRange(ctx context.Context, pose raycast.Pose, cfg raycast.CastConfig, scene raycast.Scene, start, end int) ([]*raycast.RayHit, error)
}

// sequentialCaster casts on the calling goroutine.
type sequentialCaster struct{}

func (sequentialCaster) CastRange(ctx context.Context, pose raycast.Pose, cfg raycast.CastConfig, scene raycast.Scene, start, end int) ([]*raycast.RayHit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return raycast.CastRange(pose, cfg, scene, start, end)
}

// NewService creates a service from loaded settings. scene may be nil, in
// which case every frame must carry its own map until an init message arrives.
// Without a parallel caster in comps, columns are cast on the caller's
// goroutine.
func NewService(c *config.Config, comps *threading.Components, scene *raycast.Scene) (*Service, error) {
	base, err := raycast.NewCastConfig(c)
	if err != nil {
		return nil, err
	}

	s := &Service{
		textures: c.Textures,
		base:     base,
		caster:   sequentialCaster{},
		monitor:  monitoring.NewFrameMonitor(),
		seq:      NewSequencer(),
	}
	if comps != nil && comps.Caster != nil {
		s.caster = comps.Caster
	}
	if comps != nil && comps.Monitor != nil {
		s.monitor = comps.Monitor
	}
	s.sess = session{
		tileSize:     base.TileSize,
		canvasWidth:  base.CanvasWidth,
		canvasHeight: base.CanvasHeight,
		numRays:      base.RayCount,
		maxDepth:     base.MaxDepth,
		convention:   base.Convention,
		invSqrt:      base.InvSqrt,
		walls:        world.NewTextureTable(nil, c.Textures.DefaultWall),
		floors:       world.NewTextureTable(nil, c.Textures.DefaultFloor),
	}
	if scene != nil {
		s.sess.grid = scene.Grid
		s.sess.walls = scene.WallTextures
		s.sess.floors = scene.FloorTextures
		s.sess.transparent = scene.Transparent
	}
	return s, nil
}

// overlay returns sess with every field the request carries replaced.
func (s *Service) overlay(sess session, req *Request) (session, error) {
	if req.TileSectors != 0 {
		sess.tileSize = req.TileSectors
	}
	if req.CanvasWidth != 0 {
		sess.canvasWidth = req.CanvasWidth
	}
	if req.CanvasHeight != 0 {
		sess.canvasHeight = req.CanvasHeight
	}
	if req.NumCastRays != 0 {
		sess.numRays = req.NumCastRays
	}
	if req.MaxRayDepth != 0 {
		sess.maxDepth = req.MaxRayDepth
	}
	if req.Convention != "" {
		conv, err := raycast.ParseConvention(req.Convention)
		if err != nil {
			return sess, err
		}
		sess.convention = conv
	}
	if req.InvSqrt != "" {
		mode, err := raycast.ParseSqrtMode(req.InvSqrt)
		if err != nil {
			return sess, err
		}
		sess.invSqrt = mode
	}

	if rows := req.grid(); rows != nil {
		grid, err := world.NewGrid(rows)
		if err != nil {
			return sess, err
		}
		sess.grid = grid
	}
	if req.FloorMap != nil {
		if sess.grid == nil {
			return sess, fmt.Errorf("%w: floor map without a tile map", world.ErrInvalidMap)
		}
		grid, err := sess.grid.WithFloor(req.FloorMap)
		if err != nil {
			return sess, err
		}
		sess.grid = grid
	}

	if req.TextureIDMap != nil {
		sess.walls = world.ParseTextureTable(req.TextureIDMap, s.textures.DefaultWall)
	}
	if req.FloorTextureIDMap != nil {
		sess.floors = world.ParseTextureTable(req.FloorTextureIDMap, s.textures.DefaultFloor)
	}
	if req.TransparentTextures != nil {
		sess.transparent = make(map[string]bool, len(req.TransparentTextures))
		for _, key := range req.TransparentTextures {
			sess.transparent[key] = true
		}
	}
	return sess, nil
}

// Init replaces the session's static data and forgets earlier frame ids.
func (s *Service) Init(req *Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.overlay(s.sess, req)
	if err != nil {
		return err
	}
	s.sess = sess
	s.seq.Reset()
	return nil
}

// UpdateSettings changes the ray count and depth used by later frames. Zero
// values keep the current setting.
func (s *Service) UpdateSettings(numCastRays, maxRayDepth int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if numCastRays > 0 {
		s.sess.numRays = numCastRays
	}
	if maxRayDepth > 0 {
		s.sess.maxDepth = maxRayDepth
	}
}

func (s *Service) inputs(req *Request) (raycast.Pose, raycast.CastConfig, raycast.Scene, error) {
	s.mu.RLock()
	sess, err := s.overlay(s.sess, req)
	s.mu.RUnlock()
	if err != nil {
		return raycast.Pose{}, raycast.CastConfig{}, raycast.Scene{}, err
	}

	cfg := s.base
	cfg.TileSize = sess.tileSize
	cfg.CanvasWidth = sess.canvasWidth
	cfg.CanvasHeight = sess.canvasHeight
	cfg.RayCount = sess.numRays
	cfg.MaxDepth = sess.maxDepth
	cfg.Convention = sess.convention
	cfg.InvSqrt = sess.invSqrt

	scene := raycast.Scene{
		Grid:          sess.grid,
		WallTextures:  sess.walls,
		FloorTextures: sess.floors,
		Transparent:   sess.transparent,
	}
	pose := raycast.Pose{X: req.PosX, Z: req.PosZ, Angle: req.PlayerAngle, FOV: req.PlayerFOV}
	return pose, cfg, scene, nil
}

// Cast runs one frame request. A frame older than the newest admitted one
// returns ErrStaleFrame; any other failure rejects the whole request.
func (s *Service) Cast(ctx context.Context, req *Request) (*FrameResponse, error) {
	start := time.Now()
	if err := s.seq.Admit(req.FrameID); err != nil {
		s.monitor.RecordStale()
		return nil, err
	}

	resp, err := s.cast(ctx, req, start)
	if err != nil {
		s.monitor.RecordError()
		return nil, err
	}
	return resp, nil
}

func (s *Service) cast(ctx context.Context, req *Request, start time.Time) (*FrameResponse, error) {
	pose, cfg, scene, err := s.inputs(req)
	if err != nil {
		return nil, err
	}
	end := req.EndRay
	if end == 0 {
		end = cfg.RayCount
	}

	timer := s.monitor.StartCast()
	hits, err := s.caster.CastRange(ctx, pose, cfg, scene, req.StartRay, end)
	if err != nil {
		return nil, err
	}
	timer.EndCast(len(hits))

	resp := &FrameResponse{
		Type:     TypeFrame,
		StartRay: req.StartRay,
		FrameID:  req.FrameID,
		RayData:  make([]*RayRecord, len(hits)),
	}
	for i, hit := range hits {
		resp.RayData[i] = NewRayRecord(hit)
	}

	if req.Project {
		projected, err := projection.ProjectFrame(ctx, pose, cfg, hits)
		if err != nil {
			return nil, err
		}
		resp.Walls = make([]*WallRecord, len(hits))
		resp.Floors = make([]*FloorRecord, len(hits))
		for i := range hits {
			resp.Walls[i] = newWallRecord(projected.Walls[i])
			resp.Floors[i] = newFloorRecord(projected.Floors[i])
		}
	}

	resp.WorkerTime = sinceMillis(start)
	return resp, nil
}

// HandleMessage decodes one JSON message and returns the reply to send. A
// stale frame returns a nil reply and ErrStaleFrame; every other failure is
// reported as an ErrorResponse.
func (s *Service) HandleMessage(ctx context.Context, data []byte) (interface{}, error) {
	start := time.Now()

	req := Request{FrameID: -1}
	if err := json.Unmarshal(data, &req); err != nil {
		s.monitor.RecordError()
		return s.errorResponse(-1, fmt.Errorf("malformed request: %w", err), start), nil
	}

	switch req.Type {
	case TypeInit:
		if err := s.Init(&req); err != nil {
			s.monitor.RecordError()
			return s.errorResponse(req.FrameID, err, start), nil
		}
		return &AckResponse{Type: TypeInit, Success: true}, nil

	case TypeUpdateSettings:
		s.UpdateSettings(req.NumCastRays, req.MaxRayDepth)
		return &AckResponse{Type: TypeUpdateSettings, Success: true}, nil

	case "", TypeFrame:
		resp, err := s.Cast(ctx, &req)
		if errors.Is(err, ErrStaleFrame) {
			return nil, err
		}
		if err != nil {
			return s.errorResponse(req.FrameID, err, start), nil
		}
		return resp, nil
	}

	s.monitor.RecordError()
	return s.errorResponse(req.FrameID, fmt.Errorf("unknown message type %q", req.Type), start), nil
}

func (s *Service) errorResponse(frameID int, err error, start time.Time) *ErrorResponse {
	log.Printf("Warning: frame %d rejected: %v", frameID, err)
	return NewErrorResponse(frameID, err, start)
}

// Stats returns the monitor snapshot.
func (s *Service) Stats() monitoring.FrameStats {
	return s.monitor.Snapshot()
}

// DetailedStats returns the frame statistics together with process
// statistics such as memory and goroutine counts.
func (s *Service) DetailedStats() map[string]interface{} {
	return s.monitor.GetDetailedStats()
}

// LatestFrame returns the newest admitted frame id.
func (s *Service) LatestFrame() int {
	return s.seq.Latest()
}

func sinceMillis(start time.Time) Fixed6 {
	return Fixed6(float64(time.Since(start).Nanoseconds()) / 1e6)
}
