package api

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/banshee-data/roommodes/internal/db"
	"github.com/banshee-data/roommodes/internal/httputil"
	"github.com/banshee-data/roommodes/internal/roommodes"
)

// presetRequest is the writable part of a RoomPreset. Unset optional
// fields take the session defaults.
type presetRequest struct {
	Name         string               `json:"name"`
	Dims         roommodes.Dimensions `json:"dims"`
	MaxFrequency *float64             `json:"max_frequency,omitempty"`
	SliceHeight  *float64             `json:"slice_height,omitempty"`
	Threshold    *float64             `json:"threshold,omitempty"`
	SelectedIDs  []string             `json:"selected_ids,omitempty"`
	Notes        *string              `json:"notes,omitempty"`
}

func (s *Server) presetFromRequest(req presetRequest) (*db.RoomPreset, error) {
	d := s.sessions.Defaults()
	p := &db.RoomPreset{
		Name:         strings.TrimSpace(req.Name),
		Dims:         req.Dims,
		MaxFrequency: d.MaxFrequency,
		SliceHeight:  math.Min(d.SliceHeight, req.Dims.Height),
		Threshold:    d.Threshold,
		SelectedIDs:  req.SelectedIDs,
		Notes:        req.Notes,
	}
	if req.MaxFrequency != nil {
		p.MaxFrequency = *req.MaxFrequency
	}
	if req.SliceHeight != nil {
		p.SliceHeight = *req.SliceHeight
	}
	if req.Threshold != nil {
		p.Threshold = *req.Threshold
	}
	if err := s.checkMaxFrequency(p.MaxFrequency); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	if !s.requireDB(w) {
		return
	}
	switch r.Method {
	case http.MethodGet:
		presets, err := s.db.ListPresets()
		if err != nil {
			writeError(w, err)
			return
		}
		httputil.WriteJSONOK(w, map[string]interface{}{
			"presets": presets,
			"count":   len(presets),
		})
	case http.MethodPost:
		var req presetRequest
		if err := httputil.DecodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
		p, err := s.presetFromRequest(req)
		if err != nil {
			writeError(w, err)
			return
		}
		if err := s.db.CreatePreset(p); err != nil {
			writeError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusCreated, p)
	default:
		httputil.MethodNotAllowed(w)
	}
}

func (s *Server) handlePresetByID(w http.ResponseWriter, r *http.Request) {
	if !s.requireDB(w) {
		return
	}
	presetID := strings.TrimSpace(strings.TrimPrefix(r.URL.Path, "/api/presets/"))
	if presetID == "" {
		httputil.BadRequest(w, "preset_id is required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		p, err := s.db.GetPreset(presetID)
		if err != nil {
			writeError(w, err)
			return
		}
		httputil.WriteJSONOK(w, p)
	case http.MethodPut:
		var req presetRequest
		if err := httputil.DecodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
		p, err := s.presetFromRequest(req)
		if err != nil {
			writeError(w, err)
			return
		}
		p.ID = presetID
		if err := s.db.UpdatePreset(p); err != nil {
			writeError(w, err)
			return
		}
		httputil.WriteJSONOK(w, p)
	case http.MethodDelete:
		if err := s.db.DeletePreset(presetID); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		httputil.MethodNotAllowed(w)
	}
}

// snapshotRequest records the mode table of a room. When PresetID is set
// and Dims is omitted, the preset's room and frequency ceiling are used.
type snapshotRequest struct {
	Label        string               `json:"label"`
	PresetID     *string              `json:"preset_id,omitempty"`
	Dims         roommodes.Dimensions `json:"dims"`
	MaxFrequency float64              `json:"max_frequency,omitempty"`
}

func (s *Server) handleSnapshots(w http.ResponseWriter, r *http.Request) {
	if !s.requireDB(w) {
		return
	}
	switch r.Method {
	case http.MethodGet:
		limit := db.DefaultSnapshotLimit
		if l := r.URL.Query().Get("limit"); l != "" {
			parsed, err := strconv.Atoi(l)
			if err != nil || parsed < 1 {
				httputil.BadRequest(w, "Invalid 'limit' parameter")
				return
			}
			limit = parsed
		}
		snaps, err := s.db.ListModeSnapshots(limit)
		if err != nil {
			writeError(w, err)
			return
		}
		httputil.WriteJSONOK(w, map[string]interface{}{
			"snapshots": snaps,
			"count":     len(snaps),
		})
	case http.MethodPost:
		s.recordSnapshot(w, r)
	default:
		httputil.MethodNotAllowed(w)
	}
}

func (s *Server) recordSnapshot(w http.ResponseWriter, r *http.Request) {
	var req snapshotRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.PresetID != nil {
		p, err := s.db.GetPreset(*req.PresetID)
		if err != nil {
			writeError(w, err)
			return
		}
		if req.Dims == (roommodes.Dimensions{}) {
			req.Dims = p.Dims
		}
		if req.MaxFrequency == 0 {
			req.MaxFrequency = p.MaxFrequency
		}
		if req.Label == "" {
			req.Label = p.Name
		}
	}
	if req.MaxFrequency == 0 {
		req.MaxFrequency = s.sessions.Defaults().MaxFrequency
	}
	if err := s.checkMaxFrequency(req.MaxFrequency); err != nil {
		writeError(w, err)
		return
	}
	if req.Label == "" {
		req.Label = fmt.Sprintf("%gx%gx%g m @ %g Hz", req.Dims.Length, req.Dims.Height, req.Dims.Width, req.MaxFrequency)
	}

	ctx, cancel := s.withTimeout(r)
	defer cancel()
	modes, err := s.engine.GenerateModesContext(ctx, req.Dims, req.MaxFrequency)
	if err != nil {
		writeError(w, err)
		return
	}

	snap := &db.ModeSnapshot{
		Label:        req.Label,
		PresetID:     req.PresetID,
		Dims:         req.Dims,
		MaxFrequency: req.MaxFrequency,
		SpeedOfSound: s.engine.Config().SpeedOfSound,
		Modes:        modes,
	}
	if err := s.db.RecordModeSnapshot(snap); err != nil {
		writeError(w, err)
		return
	}
	// The listing omits mode tables; so does the creation response.
	snap.Modes = nil
	httputil.WriteJSON(w, http.StatusCreated, snap)
}

func (s *Server) handleSnapshotByID(w http.ResponseWriter, r *http.Request) {
	if !s.requireDB(w) {
		return
	}
	snapshotID := strings.TrimSpace(strings.TrimPrefix(r.URL.Path, "/api/snapshots/"))
	if snapshotID == "" {
		httputil.BadRequest(w, "snapshot_id is required")
		return
	}
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	snap, err := s.db.GetModeSnapshot(snapshotID)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteJSONOK(w, snap)
}
