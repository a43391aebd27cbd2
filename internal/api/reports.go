package api

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/banshee-data/roommodes/internal/httputil"
	"github.com/banshee-data/roommodes/internal/report"
	"github.com/banshee-data/roommodes/internal/roommodes"
)

const (
	defaultSpectrumWidth  = 800
	defaultSpectrumHeight = 400
	maxSpectrumPixels     = 4096
)

// reportModes generates the modes described by the request query, filtered
// by its type parameter.
func (s *Server) reportModes(w http.ResponseWriter, r *http.Request) (roomQuery, []roommodes.Mode, bool) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return roomQuery{}, nil, false
	}
	rq, err := s.parseRoomQuery(r.URL.Query())
	if err != nil {
		writeError(w, err)
		return rq, nil, false
	}
	ctx, cancel := s.withTimeout(r)
	defer cancel()
	modes, err := s.engine.GenerateModesContext(ctx, rq.Dims, rq.MaxFrequency)
	if err != nil {
		writeError(w, err)
		return rq, nil, false
	}
	return rq, roommodes.FilterByType(modes, rq.Type), true
}

func (s *Server) handleModesReport(w http.ResponseWriter, r *http.Request) {
	rq, modes, ok := s.reportModes(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := report.WriteModeChart(&buf, rq.Dims, modes); err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleSpectrumReport(w http.ResponseWriter, r *http.Request) {
	width, height := defaultSpectrumWidth, defaultSpectrumHeight
	for _, p := range []struct {
		name string
		dst  *int
	}{{"img_width", &width}, {"img_height", &height}} {
		raw := r.URL.Query().Get(p.name)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v > maxSpectrumPixels {
			httputil.BadRequest(w, "Invalid '"+p.name+"' parameter")
			return
		}
		*p.dst = v
	}

	_, modes, ok := s.reportModes(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := report.WriteSpectrumPNG(&buf, modes, width, height); err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = buf.WriteTo(w)
}
