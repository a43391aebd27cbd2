package api

import (
	"net/http"
	"strings"

	"github.com/banshee-data/roommodes/internal/httputil"
	"github.com/banshee-data/roommodes/internal/roommodes"
	"github.com/banshee-data/roommodes/internal/session"
)

// sessionView is a session together with what a client renders from it.
type sessionView struct {
	*session.Session
	VisibleModes []roommodes.Mode `json:"visible_modes"`
	ActiveIDs    []string         `json:"active_ids"`
}

func newSessionView(s *session.Session) sessionView {
	active := s.ActiveModes()
	ids := make([]string, len(active))
	for i, m := range active {
		ids[i] = m.ID
	}
	visible := s.VisibleModes()
	if visible == nil {
		visible = []roommodes.Mode{}
	}
	return sessionView{Session: s, VisibleModes: visible, ActiveIDs: ids}
}

type createSessionRequest struct {
	PresetID     *string              `json:"preset_id,omitempty"`
	Dims         roommodes.Dimensions `json:"dims"`
	MaxFrequency float64              `json:"max_frequency,omitempty"`
	Selected     []string             `json:"selected,omitempty"`
	SliceHeight  *float64             `json:"slice_height,omitempty"`
	Threshold    *float64             `json:"threshold,omitempty"`
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	var req createSessionRequest
	if r.ContentLength != 0 {
		if err := httputil.DecodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
	}

	params := session.Params{
		Dims:         req.Dims,
		MaxFrequency: req.MaxFrequency,
		Selected:     req.Selected,
		SliceHeight:  req.SliceHeight,
		Threshold:    req.Threshold,
	}
	if req.PresetID != nil {
		if !s.requireDB(w) {
			return
		}
		p, err := s.db.GetPreset(*req.PresetID)
		if err != nil {
			writeError(w, err)
			return
		}
		params = session.Params{
			Dims:         p.Dims,
			MaxFrequency: p.MaxFrequency,
			Selected:     p.SelectedIDs,
			SliceHeight:  &p.SliceHeight,
			Threshold:    &p.Threshold,
		}
	}
	if err := s.checkMaxFrequency(params.MaxFrequency); err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := s.withTimeout(r)
	defer cancel()
	sess, err := s.sessions.Create(ctx, params)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, newSessionView(sess))
}

// handleSessionByID serves /api/sessions/{id} and /api/sessions/{id}/{action}.
func (s *Server) handleSessionByID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	sessionID, action, _ := strings.Cut(path, "/")
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		httputil.BadRequest(w, "session_id is required")
		return
	}

	switch action {
	case "":
		switch r.Method {
		case http.MethodGet:
			sess, err := s.sessions.Get(sessionID)
			s.respondSession(w, sess, err)
		case http.MethodDelete:
			if err := s.sessions.Delete(sessionID); err != nil {
				writeError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		default:
			httputil.MethodNotAllowed(w)
		}
	case "slice":
		s.handleSessionSlice(w, r, sessionID)
	case "hotspots":
		s.handleSessionHotspots(w, r, sessionID)
	case "toggle", "isolate", "filter", "dimensions", "max-frequency", "slice-height", "threshold":
		if r.Method != http.MethodPost {
			httputil.MethodNotAllowed(w)
			return
		}
		s.handleSessionAction(w, r, sessionID, action)
	default:
		httputil.NotFound(w, "unknown session action")
	}
}

// sessionActionRequest carries the argument of one session action; each
// action reads only its own field.
type sessionActionRequest struct {
	ModeID       string                `json:"mode_id,omitempty"`
	Type         string                `json:"type,omitempty"`
	Dims         *roommodes.Dimensions `json:"dims,omitempty"`
	MaxFrequency *float64              `json:"max_frequency,omitempty"`
	Height       *float64              `json:"height,omitempty"`
	Threshold    *float64              `json:"threshold,omitempty"`
}

func (s *Server) handleSessionAction(w http.ResponseWriter, r *http.Request, sessionID, action string) {
	var req sessionActionRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := s.withTimeout(r)
	defer cancel()

	var (
		sess *session.Session
		err  error
	)
	switch action {
	case "toggle", "isolate":
		if req.ModeID == "" {
			httputil.BadRequest(w, "mode_id is required")
			return
		}
		if action == "toggle" {
			sess, err = s.sessions.Toggle(sessionID, req.ModeID)
		} else {
			sess, err = s.sessions.Isolate(sessionID, req.ModeID)
		}
	case "filter":
		sess, err = s.sessions.SetFilter(sessionID, req.Type)
	case "dimensions":
		if req.Dims == nil {
			httputil.BadRequest(w, "dims is required")
			return
		}
		sess, err = s.sessions.SetDimensions(ctx, sessionID, *req.Dims)
	case "max-frequency":
		if req.MaxFrequency == nil {
			httputil.BadRequest(w, "max_frequency is required")
			return
		}
		if err := s.checkMaxFrequency(*req.MaxFrequency); err != nil {
			writeError(w, err)
			return
		}
		sess, err = s.sessions.SetMaxFrequency(ctx, sessionID, *req.MaxFrequency)
	case "slice-height":
		if req.Height == nil {
			httputil.BadRequest(w, "height is required")
			return
		}
		sess, err = s.sessions.SetSliceHeight(sessionID, *req.Height)
	case "threshold":
		if req.Threshold == nil {
			httputil.BadRequest(w, "threshold is required")
			return
		}
		sess, err = s.sessions.SetThreshold(sessionID, *req.Threshold)
	}
	s.respondSession(w, sess, err)
}

func (s *Server) respondSession(w http.ResponseWriter, sess *session.Session, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteJSONOK(w, newSessionView(sess))
}

// sessionField synthesizes the active field of a session. It writes 204
// and returns ok=false when no mode is active.
func (s *Server) sessionField(w http.ResponseWriter, r *http.Request, sessionID string) (*roommodes.PressureField, *session.Session, bool) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return nil, nil, false
	}
	ctx, cancel := s.withTimeout(r)
	defer cancel()
	field, sess, ok, err := s.sessions.ActiveField(ctx, sessionID)
	if err != nil {
		writeError(w, err)
		return nil, nil, false
	}
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return nil, nil, false
	}
	return field, sess, true
}

func (s *Server) handleSessionSlice(w http.ResponseWriter, r *http.Request, sessionID string) {
	field, sess, ok := s.sessionField(w, r, sessionID)
	if !ok {
		return
	}
	slice, err := s.engine.Slice(field, sess.SliceHeight)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteJSONOK(w, slice)
}

func (s *Server) handleSessionHotspots(w http.ResponseWriter, r *http.Request, sessionID string) {
	field, sess, ok := s.sessionField(w, r, sessionID)
	if !ok {
		return
	}
	set, err := s.engine.Hotspots(field, sess.Threshold)
	if err != nil {
		writeError(w, err)
		return
	}
	httputil.WriteJSONOK(w, hotspotsResponse{Count: set.Len(), HotspotSet: set})
}
