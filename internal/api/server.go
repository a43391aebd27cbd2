package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/roommodes/internal/config"
	"github.com/banshee-data/roommodes/internal/db"
	"github.com/banshee-data/roommodes/internal/httputil"
	"github.com/banshee-data/roommodes/internal/monitoring"
	"github.com/banshee-data/roommodes/internal/roommodes"
	"github.com/banshee-data/roommodes/internal/session"
	"github.com/banshee-data/roommodes/internal/timeutil"
	"github.com/banshee-data/roommodes/internal/version"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// Options configures a Server. Config may be nil to use the built-in
// defaults; DB may be nil, in which case the preset and snapshot routes
// answer 503.
type Options struct {
	Engine *roommodes.Engine
	Config *config.EngineConfig
	DB     *db.DB
	Clock  timeutil.Clock
}

type Server struct {
	engine   *roommodes.Engine
	cfg      *config.EngineConfig
	db       *db.DB
	fields   *FieldCache
	sessions *session.Manager
	metrics  *metrics
	timeout  time.Duration
}

func NewServer(opts Options) *Server {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.EmptyEngineConfig()
	}
	engine := opts.Engine
	if engine == nil {
		engine = roommodes.MustNewEngine(cfg.ToCoreConfig())
	}

	fields := NewFieldCache(engine, cfg.GetFieldCacheSize())
	sessions := session.NewManager(engine, session.Options{
		Defaults: session.Defaults{
			Dims:           session.DefaultDefaults().Dims,
			MaxFrequency:   session.DefaultDefaults().MaxFrequency,
			SliceHeight:    cfg.GetDefaultSliceHeight(),
			Threshold:      cfg.GetDefaultHotspotThreshold(),
			SelectionCount: cfg.GetDefaultSelectionCount(),
		},
		TTL:    cfg.GetSessionTTL(),
		Clock:  opts.Clock,
		Fields: fields,
	})

	return &Server{
		engine:   engine,
		cfg:      cfg,
		db:       opts.DB,
		fields:   fields,
		sessions: sessions,
		metrics:  newMetrics(fields, sessions),
		timeout:  cfg.GetRequestTimeout(),
	}
}

// Sessions returns the session manager so the caller can run its sweeper.
func (s *Server) Sessions() *session.Manager {
	return s.sessions
}

// Fields returns the field cache shared by the HTTP handlers and sessions.
func (s *Server) Fields() *FieldCache {
	return s.fields
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Logf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	handle := func(route string, h http.HandlerFunc) {
		mux.HandleFunc(route, s.metrics.instrument(route, h))
	}

	handle("/api/modes", s.handleModes)
	handle("/api/field", s.handleField)
	handle("/api/slice", s.handleSlice)
	handle("/api/hotspots", s.handleHotspots)

	handle("/api/presets", s.handlePresets)
	handle("/api/presets/", s.handlePresetByID)
	handle("/api/snapshots", s.handleSnapshots)
	handle("/api/snapshots/", s.handleSnapshotByID)

	handle("/api/sessions", s.handleSessions)
	handle("/api/sessions/", s.handleSessionByID)

	handle("/api/report/modes.html", s.handleModesReport)
	handle("/api/report/spectrum.png", s.handleSpectrumReport)

	handle("/api/config", s.showConfig)
	handle("/api/version", s.showVersion)
	mux.Handle("/metrics", s.metrics.handler())

	if s.db != nil {
		if err := s.db.AttachAdminRoutes(mux); err != nil {
			monitoring.Logf("failed to attach admin routes: %v", err)
		}
	}
	return mux
}

// withTimeout bounds a compute call by the configured request timeout.
func (s *Server) withTimeout(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), s.timeout)
}

// requireDB writes 503 and returns false when no database is attached.
func (s *Server) requireDB(w http.ResponseWriter) bool {
	if s.db == nil {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "database not configured")
		return false
	}
	return true
}

func (s *Server) showConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	d := s.sessions.Defaults()
	core := s.engine.Config()
	httputil.WriteJSONOK(w, map[string]interface{}{
		"speed_of_sound":      core.SpeedOfSound,
		"grid_resolution":     core.Resolution,
		"frequency_tolerance": core.FrequencyTolerance,
		"max_enumeration":     core.MaxEnumeration,
		"max_frequency_limit": s.cfg.GetMaxFrequencyLimit(),
		"request_timeout":     s.timeout.String(),
		"field_cache_size":    s.cfg.GetFieldCacheSize(),
		"session_ttl":         s.cfg.GetSessionTTL().String(),
		"database":            s.db != nil,
		"defaults": map[string]interface{}{
			"dims":            d.Dims,
			"max_frequency":   d.MaxFrequency,
			"slice_height":    d.SliceHeight,
			"threshold":       d.Threshold,
			"selection_count": d.SelectionCount,
		},
	})
}

func (s *Server) showVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, version.Current())
}
