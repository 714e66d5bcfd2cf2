package frame

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"heavensgate/internal/config"
	"heavensgate/internal/raycast"
	"heavensgate/internal/threading"
	"heavensgate/internal/world"
)

const ringInit = `{"type":"init","tileSectors":64,"map_01":[[1,1,1],[1,0,1],[1,1,1]],` +
	`"textureIdMap":{"1":"wall_brick"},"floorTextureIdMap":{"0":"floor_grass"},` +
	`"CANVAS_WIDTH":800,"CANVAS_HEIGHT":800,"numCastRays":16,"maxRayDepth":30}`

func ringFrame(id int) string {
	req := Request{FrameID: id, PosX: 96, PosZ: 96, PlayerFOV: 0.01}
	data, _ := json.Marshal(req)
	return string(data)
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	s, err := NewService(config.Default(), nil, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return s
}

func handle(t *testing.T, s *Service, msg string) interface{} {
	t.Helper()
	reply, err := s.HandleMessage(context.Background(), []byte(msg))
	if err != nil {
		t.Fatalf("HandleMessage(%s): %v", msg, err)
	}
	return reply
}

func TestServiceInitAndCast(t *testing.T) {
	s := newTestService(t)

	ack, ok := handle(t, s, ringInit).(*AckResponse)
	if !ok || ack.Type != TypeInit || !ack.Success {
		t.Fatalf("init reply = %#v", ack)
	}

	resp, ok := handle(t, s, ringFrame(1)).(*FrameResponse)
	if !ok {
		t.Fatalf("frame reply is not a FrameResponse")
	}
	if resp.Type != TypeFrame || resp.FrameID != 1 || resp.StartRay != 0 {
		t.Errorf("header = %+v", resp)
	}
	if len(resp.RayData) != 16 {
		t.Fatalf("got %d rays, want 16", len(resp.RayData))
	}
	for i, rec := range resp.RayData {
		if rec == nil {
			t.Fatalf("ray %d absent inside the ring", i)
		}
		if rec.HitSide != "y" || rec.HitX != 128 || rec.TextureKey != "wall_brick" {
			t.Errorf("ray %d = %+v", i, rec)
		}
		if rec.FloorTextureKey != world.DefaultFloorTexture {
			t.Errorf("ray %d floor key %q, want default", i, rec.FloorTextureKey)
		}
	}
	if resp.Walls != nil || resp.Floors != nil {
		t.Error("projection returned without being requested")
	}
}

func TestServiceDropsStaleFrames(t *testing.T) {
	s := newTestService(t)
	handle(t, s, ringInit)
	handle(t, s, ringFrame(7))

	reply, err := s.HandleMessage(context.Background(), []byte(ringFrame(6)))
	if !errors.Is(err, ErrStaleFrame) || reply != nil {
		t.Errorf("older frame should be dropped, got %v, %v", reply, err)
	}
	if s.Stats().StaleDrops != 1 {
		t.Errorf("stale drops = %d", s.Stats().StaleDrops)
	}
	if s.LatestFrame() != 7 {
		t.Errorf("latest frame = %d", s.LatestFrame())
	}

	// A new init starts a new sequence.
	handle(t, s, ringInit)
	if _, ok := handle(t, s, ringFrame(0)).(*FrameResponse); !ok {
		t.Error("frame 0 after init should be cast")
	}
}

func TestServiceErrorRecords(t *testing.T) {
	s := newTestService(t)

	// Frame ids increase so no case is dropped as stale.
	cases := []struct {
		msg string
		id  int
	}{
		{`{not json`, -1},
		{`{"frameId":3,"posX":96,"posZ":96}`, 3}, // no map and no fov
		{`{"type":"teleport","frameId":4}`, 4},
		{`{"frameId":5,"playerFOV":1,"map":[[1,1],[1]]}`, 5},
	}
	for _, c := range cases {
		reply, ok := handle(t, s, c.msg).(*ErrorResponse)
		if !ok {
			t.Errorf("%s: expected an error record", c.msg)
			continue
		}
		if reply.Type != TypeError || reply.FrameID != c.id || reply.Error == "" {
			t.Errorf("%s: error record = %+v", c.msg, reply)
		}
	}
	if s.Stats().Errors != uint64(len(cases)) {
		t.Errorf("errors = %d, want %d", s.Stats().Errors, len(cases))
	}
}

func TestServiceRejectsWholeFrame(t *testing.T) {
	s := newTestService(t)
	handle(t, s, ringInit)

	req := &Request{FrameID: 1, PosX: 96, PosZ: 96, PlayerFOV: 0.01, StartRay: 4, EndRay: 40}
	resp, err := s.Cast(context.Background(), req)
	if !errors.Is(err, raycast.ErrInvalidConfig) || resp != nil {
		t.Errorf("range past the ray count should fail the frame, got %v", err)
	}
}

func TestServiceUpdateSettings(t *testing.T) {
	s := newTestService(t)
	handle(t, s, ringInit)

	ack, ok := handle(t, s, `{"type":"updateSettings","numCastRays":5,"maxRayDepth":0}`).(*AckResponse)
	if !ok || ack.Type != TypeUpdateSettings {
		t.Fatalf("updateSettings reply = %#v", ack)
	}
	resp := handle(t, s, ringFrame(1)).(*FrameResponse)
	if len(resp.RayData) != 5 {
		t.Errorf("got %d rays after updateSettings, want 5", len(resp.RayData))
	}
	if s.sess.maxDepth != 30 {
		t.Errorf("zero max depth should keep the current value, got %d", s.sess.maxDepth)
	}
}

func TestServiceRangeAndProjection(t *testing.T) {
	s := newTestService(t)
	handle(t, s, ringInit)

	msg := `{"frameId":2,"startRay":4,"endRay":8,"posX":96,"posZ":96,"playerAngle":0,"playerFOV":0.01,"project":true}`
	resp := handle(t, s, msg).(*FrameResponse)
	if resp.StartRay != 4 || len(resp.RayData) != 4 {
		t.Fatalf("range reply start %d with %d rays", resp.StartRay, len(resp.RayData))
	}
	if resp.RayData[0].Column != 4 {
		t.Errorf("first column = %d, want 4", resp.RayData[0].Column)
	}
	if len(resp.Walls) != 4 || len(resp.Floors) != 4 {
		t.Fatalf("projection sizes %d/%d", len(resp.Walls), len(resp.Floors))
	}
	for i, w := range resp.Walls {
		if w == nil || w.Column != 4+i || w.TextureX < 0 || w.TextureX > 1 {
			t.Errorf("wall %d = %+v", i, w)
		}
		// The ring wall is close enough to fill the column, leaving no floor.
		if resp.Floors[i] != nil {
			t.Errorf("floor %d = %+v, want none", i, resp.Floors[i])
		}
	}
}

func TestServiceRequestOverridesSession(t *testing.T) {
	s := newTestService(t)
	handle(t, s, ringInit)

	msg := `{"frameId":1,"posX":32,"posZ":32,"playerAngle":0.005,"playerFOV":0.01,"numCastRays":1,` +
		`"map":[[0,2,0,1]],"floorMap":[[0,0,3,0]],"textureIdMap":{"1":"wall_metal","2":"wall_glass"},` +
		`"floorTextureIdMap":{"3":"floor_tiles"},"transparentTextures":["wall_glass"],"convention":"tile","invSqrt":"exact"}`
	resp := handle(t, s, msg).(*FrameResponse)
	rec := resp.RayData[0]
	if rec == nil {
		t.Fatal("expected a hit through the glass")
	}
	if rec.TextureKey != "wall_metal" || rec.FloorTextureKey != "floor_tiles" || len(rec.Layers) != 1 {
		t.Errorf("record = %+v", rec)
	}
	if rec.HitX != 192 {
		t.Errorf("hitX = %v, want 192", rec.HitX)
	}

	// The override does not leak into the session.
	if s.sess.grid.Width != 3 {
		t.Errorf("session grid replaced by a frame request")
	}
}

func TestServeLines(t *testing.T) {
	s := newTestService(t)
	input := strings.Join([]string{
		ringInit,
		"",
		ringFrame(3),
		ringFrame(2),
		`{"frameId":4}`,
	}, "\n")

	var out bytes.Buffer
	if err := s.Serve(context.Background(), strings.NewReader(input), &out); err != nil {
		t.Fatalf("Serve: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d reply lines, want 3 (stale frame dropped):\n%s", len(lines), out.String())
	}
	wantTypes := []string{TypeInit, TypeFrame, TypeError}
	for i, line := range lines {
		var head struct {
			Type    string `json:"type"`
			FrameID int    `json:"frameId"`
		}
		if err := json.Unmarshal([]byte(line), &head); err != nil {
			t.Fatalf("line %d is not JSON: %v", i, err)
		}
		if head.Type != wantTypes[i] {
			t.Errorf("line %d type = %q, want %q", i, head.Type, wantTypes[i])
		}
	}
	if !strings.Contains(lines[1], `"distance":31.`) {
		t.Errorf("frame line should carry six-decimal distances: %s", lines[1])
	}
}

func TestServiceWithAssetsAndWorkers(t *testing.T) {
	c := config.Default()
	c.World.TilesFile = "../../assets/tiles.yaml"
	c.World.MapFile = "../../assets/maps/courtyard.map"
	scene, md, err := raycast.LoadScene(c)
	if err != nil {
		t.Fatalf("LoadScene: %v", err)
	}

	comps := threading.NewComponents(2)
	defer comps.Shutdown()
	s, err := NewService(c, comps, &scene)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	x, z := world.CellCenter(md.StartX, md.StartY, c.GetTileSize())
	req := &Request{FrameID: 1, PosX: x, PosZ: z, PlayerAngle: 0.3, PlayerFOV: c.GetCameraFOV(), Project: true}
	resp, err := s.Cast(context.Background(), req)
	if err != nil {
		t.Fatalf("Cast: %v", err)
	}
	if len(resp.RayData) != c.GetNumRays() {
		t.Fatalf("got %d rays, want %d", len(resp.RayData), c.GetNumRays())
	}
	for i, rec := range resp.RayData {
		if rec == nil {
			t.Fatalf("ray %d escaped the courtyard", i)
		}
	}
	if comps.Stats().Frames != 1 || comps.Stats().Columns != uint64(c.GetNumRays()) {
		t.Errorf("monitor = %+v", comps.Stats())
	}
}
