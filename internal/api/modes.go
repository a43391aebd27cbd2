package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/banshee-data/roommodes/internal/httputil"
	"github.com/banshee-data/roommodes/internal/roommodes"
	"github.com/banshee-data/roommodes/internal/units"
)

// roomQuery is the room description carried in GET query parameters.
type roomQuery struct {
	Dims         roommodes.Dimensions
	MaxFrequency float64
	Type         roommodes.ModeType
}

// parseRoomQuery reads length, height, width, max_frequency and type from
// q. Missing values take the session defaults. Lengths are given in the
// unit named by the units parameter (metres when absent).
func (s *Server) parseRoomQuery(q url.Values) (roomQuery, error) {
	d := s.sessions.Defaults()
	rq := roomQuery{Dims: d.Dims, MaxFrequency: d.MaxFrequency}

	unit := q.Get("units")
	if unit == "" {
		unit = units.Meters
	}
	if !units.IsValid(unit) {
		return rq, fmt.Errorf("%w: invalid units %q (want one of %s)", roommodes.ErrInvalidArgument, unit, units.GetValidUnitsString())
	}

	for _, p := range []struct {
		name string
		dst  *float64
	}{
		{"length", &rq.Dims.Length},
		{"height", &rq.Dims.Height},
		{"width", &rq.Dims.Width},
	} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return rq, fmt.Errorf("%w: invalid '%s' parameter %q", roommodes.ErrInvalidArgument, p.name, raw)
		}
		*p.dst = units.ToMeters(v, unit)
	}

	if raw := q.Get("max_frequency"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return rq, fmt.Errorf("%w: invalid 'max_frequency' parameter %q", roommodes.ErrInvalidArgument, raw)
		}
		rq.MaxFrequency = v
	}
	if err := s.checkMaxFrequency(rq.MaxFrequency); err != nil {
		return rq, err
	}

	t, err := roommodes.ParseModeType(q.Get("type"))
	if err != nil {
		return rq, err
	}
	rq.Type = t
	return rq, nil
}

func (s *Server) checkMaxFrequency(fmax float64) error {
	if limit := s.cfg.GetMaxFrequencyLimit(); fmax > limit {
		return fmt.Errorf("%w: max_frequency %v exceeds the limit of %v Hz", roommodes.ErrInvalidArgument, fmax, limit)
	}
	return nil
}

type modesResponse struct {
	Dims         roommodes.Dimensions  `json:"dims"`
	MaxFrequency float64               `json:"max_frequency"`
	SpeedOfSound float64               `json:"speed_of_sound"`
	Type         roommodes.ModeType    `json:"type"`
	Count        int                   `json:"count"`
	Modes        []roommodes.Mode      `json:"modes"`
	Summary      roommodes.ModeSummary `json:"summary"`
}

func (s *Server) handleModes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	rq, err := s.parseRoomQuery(r.URL.Query())
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := s.withTimeout(r)
	defer cancel()
	modes, err := s.engine.GenerateModesContext(ctx, rq.Dims, rq.MaxFrequency)
	if err != nil {
		writeError(w, err)
		return
	}

	visible := roommodes.FilterByType(modes, rq.Type)
	httputil.WriteJSONOK(w, modesResponse{
		Dims:         rq.Dims,
		MaxFrequency: rq.MaxFrequency,
		SpeedOfSound: s.engine.Config().SpeedOfSound,
		Type:         rq.Type,
		Count:        len(visible),
		Modes:        visible,
		Summary:      roommodes.SummarizeModes(modes),
	})
}

// fieldRequest is the body shared by /api/field, /api/slice and
// /api/hotspots. Height and Threshold fall back to the session defaults.
type fieldRequest struct {
	Dims          roommodes.Dimensions `json:"dims"`
	ModeIDs       []string             `json:"mode_ids"`
	IncludeValues bool                 `json:"include_values,omitempty"`
	Height        *float64             `json:"height,omitempty"`
	Threshold     *float64             `json:"threshold,omitempty"`
}

// synthesize decodes a fieldRequest and computes its field. It answers 204
// itself when the request selects no modes.
func (s *Server) synthesize(w http.ResponseWriter, r *http.Request) (*fieldRequest, *roommodes.PressureField, bool) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return nil, nil, false
	}
	var req fieldRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		writeError(w, err)
		return nil, nil, false
	}
	indices := make([]roommodes.Indices, 0, len(req.ModeIDs))
	for _, id := range req.ModeIDs {
		ix, err := roommodes.ParseModeID(id)
		if err != nil {
			writeError(w, err)
			return nil, nil, false
		}
		indices = append(indices, ix)
	}
	if err := req.Dims.Validate(); err != nil {
		writeError(w, err)
		return nil, nil, false
	}
	// An empty selection has no field at all, not an all-zero one.
	if len(indices) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return nil, nil, false
	}

	ctx, cancel := s.withTimeout(r)
	defer cancel()
	field, err := s.fields.SynthesizeIndices(ctx, req.Dims, indices)
	if err != nil {
		writeError(w, err)
		return nil, nil, false
	}
	return &req, field, true
}

type fieldResponse struct {
	Dims       roommodes.Dimensions   `json:"dims"`
	Resolution roommodes.Resolution   `json:"resolution"`
	ModeCount  int                    `json:"mode_count"`
	Stats      roommodes.FieldSummary `json:"stats"`
	Values     []float64              `json:"values,omitempty"`
}

func (s *Server) handleField(w http.ResponseWriter, r *http.Request) {
	req, field, ok := s.synthesize(w, r)
	if !ok {
		return
	}
	resp := fieldResponse{
		Dims:       field.Dims,
		Resolution: field.Resolution,
		ModeCount:  len(req.ModeIDs),
		Stats:      roommodes.FieldStats(field),
	}
	if req.IncludeValues {
		resp.Values = field.Values
	}
	httputil.WriteJSONOK(w, resp)
}

func (s *Server) handleSlice(w http.ResponseWriter, r *http.Request) {
	req, field, ok := s.synthesize(w, r)
	if !ok {
		return
	}
	h := s.sessions.Defaults().SliceHeight
	if req.Height != nil {
		h = *req.Height
	}
	slice, err := s.engine.Slice(field, h)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteJSONOK(w, slice)
}

func (s *Server) handleHotspots(w http.ResponseWriter, r *http.Request) {
	req, field, ok := s.synthesize(w, r)
	if !ok {
		return
	}
	t := s.sessions.Defaults().Threshold
	if req.Threshold != nil {
		t = *req.Threshold
	}
	set, err := s.engine.Hotspots(field, t)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteJSONOK(w, hotspotsResponse{Count: set.Len(), HotspotSet: set})
}

type hotspotsResponse struct {
	Count int `json:"count"`
	roommodes.HotspotSet
}
