package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"heavensgate/internal/frame"
)

// FrameHandler handles frame endpoints
type FrameHandler struct {
	svc *frame.Service
}

// NewFrameHandler creates a new FrameHandler
func NewFrameHandler(svc *frame.Service) *FrameHandler {
	return &FrameHandler{svc: svc}
}

func decodeRequest(r *http.Request) (*frame.Request, error) {
	req := &frame.Request{FrameID: -1}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		return nil, err
	}
	return req, nil
}

// Init handles POST /api/init
func (h *FrameHandler) Init(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.svc.Init(req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, frame.AckResponse{Type: frame.TypeInit, Success: true})
}

// UpdateSettings handles POST /api/settings
func (h *FrameHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	h.svc.UpdateSettings(req.NumCastRays, req.MaxRayDepth)
	respondJSON(w, http.StatusOK, frame.AckResponse{Type: frame.TypeUpdateSettings, Success: true})
}

// Cast handles POST /api/frame. A stale frame answers 409 so the client can
// discard it; a rejected frame answers 400 with an error record.
func (h *FrameHandler) Cast(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	start := time.Now()
	resp, err := h.svc.Cast(r.Context(), req)
	switch {
	case errors.Is(err, frame.ErrStaleFrame):
		respondError(w, http.StatusConflict, err.Error())
	case err != nil:
		respondJSON(w, http.StatusBadRequest, frame.NewErrorResponse(req.FrameID, err, start))
	default:
		respondJSON(w, http.StatusOK, resp)
	}
}

// Stats handles GET /api/stats. With ?detail=1 the reply also carries
// process statistics.
func (h *FrameHandler) Stats(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{
		"stats":       h.svc.Stats(),
		"latestFrame": h.svc.LatestFrame(),
	}
	if r.URL.Query().Get("detail") == "1" {
		body["detail"] = h.svc.DetailedStats()
	}
	respondJSON(w, http.StatusOK, body)
}
