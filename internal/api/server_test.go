package api

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/roommodes/internal/config"
	"github.com/banshee-data/roommodes/internal/db"
	"github.com/banshee-data/roommodes/internal/monitoring"
	"github.com/banshee-data/roommodes/internal/roommodes"
	"github.com/banshee-data/roommodes/internal/testutil"
	"github.com/banshee-data/roommodes/internal/version"
)

// newTestServer builds a server on a coarse 9x9x9 grid. withDB attaches a
// migrated sqlite database in a temp directory.
func newTestServer(t *testing.T, withDB bool) (*Server, http.Handler) {
	t.Helper()
	opts := Options{
		Engine: roommodes.MustNewEngine(roommodes.DefaultConfig().WithResolution(9)),
		Config: config.EmptyEngineConfig(),
	}
	if withDB {
		database, err := db.NewDB(testutil.TempDBPath(t))
		require.NoError(t, err)
		t.Cleanup(func() { database.Close() })
		opts.DB = database
	}
	s := NewServer(opts)
	return s, s.ServeMux()
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestStatusCodeColor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code int
		want string
	}{
		{200, colorBoldGreen + "200" + colorReset},
		{304, colorYellow + "304" + colorReset},
		{404, colorBoldRed + "404" + colorReset},
		{503, colorBoldRed + "503" + colorReset},
		{101, "101"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusCodeColor(tt.code))
	}
}

func TestLoggingMiddleware(t *testing.T) {
	original := monitoring.Logf
	defer func() { monitoring.Logf = original }()

	var logged []string
	monitoring.SetLogger(func(format string, v ...interface{}) {
		logged = append(logged, fmt.Sprintf(format, v...))
	})

	h := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/modes?max_frequency=100", nil))

	testutil.AssertStatusCode(t, rec.Code, http.StatusTeapot)
	require.Len(t, logged, 1)
	assert.Contains(t, logged[0], "418")
	assert.Contains(t, logged[0], "GET")
	assert.Contains(t, logged[0], "/api/modes?max_frequency=100")
}

func TestLoggingResponseWriterFlush(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	lrw := &loggingResponseWriter{rec, http.StatusOK}
	lrw.Flush()
	assert.True(t, rec.Flushed)
}

func TestShowConfig(t *testing.T) {
	t.Parallel()
	_, h := newTestServer(t, false)

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/config", nil))
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

	var body struct {
		SpeedOfSound      float64              `json:"speed_of_sound"`
		GridResolution    roommodes.Resolution `json:"grid_resolution"`
		MaxFrequencyLimit float64              `json:"max_frequency_limit"`
		RequestTimeout    string               `json:"request_timeout"`
		Database          bool                 `json:"database"`
		Defaults          struct {
			Dims           roommodes.Dimensions `json:"dims"`
			MaxFrequency   float64              `json:"max_frequency"`
			SelectionCount int                  `json:"selection_count"`
		} `json:"defaults"`
	}
	testutil.DecodeResponse(t, rec, &body)

	assert.Equal(t, 343.0, body.SpeedOfSound)
	assert.Equal(t, roommodes.Resolution{X: 9, Y: 9, Z: 9}, body.GridResolution)
	assert.Equal(t, 2000.0, body.MaxFrequencyLimit)
	assert.Equal(t, "2s", body.RequestTimeout)
	assert.False(t, body.Database)
	assert.Equal(t, testutil.ReferenceRoom, body.Defaults.Dims)
	assert.Equal(t, 300.0, body.Defaults.MaxFrequency)
	assert.Equal(t, 6, body.Defaults.SelectionCount)

	rec = serve(h, httptest.NewRequest(http.MethodPost, "/api/config", nil))
	testutil.AssertStatusCode(t, rec.Code, http.StatusMethodNotAllowed)
}

func TestShowVersion(t *testing.T) {
	t.Parallel()
	_, h := newTestServer(t, false)

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/version", nil))
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

	var info version.Info
	testutil.DecodeResponse(t, rec, &info)
	assert.Equal(t, version.Current(), info)
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()
	_, h := newTestServer(t, false)

	serve(h, httptest.NewRequest(http.MethodGet, "/api/modes?max_frequency=60", nil))
	serve(h, httptest.NewRequest(http.MethodGet, "/api/modes?max_frequency=abc", nil))

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

	body := rec.Body.String()
	assert.Contains(t, body, `roommodes_http_requests_total{code="200",method="GET",route="/api/modes"} 1`)
	assert.Contains(t, body, `roommodes_http_requests_total{code="400",method="GET",route="/api/modes"} 1`)
	assert.Contains(t, body, "roommodes_http_request_duration_seconds_bucket")
	assert.Contains(t, body, "roommodes_field_cache_hits_total 0")
	assert.Contains(t, body, "roommodes_sessions 0")
}

func TestAdminRoutes(t *testing.T) {
	t.Parallel()

	_, h := newTestServer(t, false)
	rec := serve(h, httptest.NewRequest(http.MethodGet, "/debug/", nil))
	testutil.AssertStatusCode(t, rec.Code, http.StatusNotFound)

	_, h = newTestServer(t, true)
	rec = serve(h, httptest.NewRequest(http.MethodGet, "/debug/", nil))
	assert.NotEqual(t, http.StatusNotFound, rec.Code)
}

func TestModesReport(t *testing.T) {
	t.Parallel()
	_, h := newTestServer(t, false)

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/report/modes.html?max_frequency=120", nil))
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "echarts")

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/api/report/modes.html?type=diagonal", nil))
	testutil.AssertStatusCode(t, rec.Code, http.StatusBadRequest)
}

func TestSpectrumReport(t *testing.T) {
	t.Parallel()
	_, h := newTestServer(t, false)

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/report/spectrum.png?max_frequency=120&img_width=320&img_height=200", nil))
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))

	for _, q := range []string{"img_width=10", "img_height=abc", "img_width=100000"} {
		rec = serve(h, httptest.NewRequest(http.MethodGet, "/api/report/spectrum.png?"+q, nil))
		testutil.AssertStatusCode(t, rec.Code, http.StatusBadRequest)
		assert.True(t, strings.Contains(rec.Body.String(), "error"), q)
	}

	rec = serve(h, httptest.NewRequest(http.MethodPost, "/api/report/spectrum.png", nil))
	testutil.AssertStatusCode(t, rec.Code, http.StatusMethodNotAllowed)
}
