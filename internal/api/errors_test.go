package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/roommodes/internal/db"
	"github.com/banshee-data/roommodes/internal/httputil"
	"github.com/banshee-data/roommodes/internal/roommodes"
	"github.com/banshee-data/roommodes/internal/session"
	"github.com/banshee-data/roommodes/internal/testutil"
)

func TestStatusForError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("wrap: %w", roommodes.ErrInvalidArgument), http.StatusBadRequest},
		{roommodes.ErrSearchSpaceTooLarge, http.StatusBadRequest},
		{fmt.Errorf("%w: eof", httputil.ErrInvalidBody), http.StatusBadRequest},
		{db.ErrNotFound, http.StatusNotFound},
		{session.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("%w: \"studio\"", db.ErrDuplicateName), http.StatusConflict},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{context.Canceled, statusClientClosed},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusForError(tt.err), tt.err.Error())
	}
}

func TestWriteErrorHidesInternalDetail(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	writeError(rec, errors.New("sqlite: database is locked"))
	testutil.AssertStatusCode(t, rec.Code, http.StatusInternalServerError)
	var body map[string]string
	testutil.DecodeResponse(t, rec, &body)
	assert.Equal(t, "internal server error", body["error"])

	rec = httptest.NewRecorder()
	writeError(rec, fmt.Errorf("%w: length must be positive", roommodes.ErrInvalidArgument))
	testutil.AssertStatusCode(t, rec.Code, http.StatusBadRequest)
	body = nil
	testutil.DecodeResponse(t, rec, &body)
	assert.Contains(t, body["error"], "length must be positive")
}

func TestMalformedBodyIsBadRequest(t *testing.T) {
	t.Parallel()
	_, h := newTestServer(t, false)

	req := httptest.NewRequest(http.MethodPost, "/api/slice", strings.NewReader(`{"dims": `))
	rec := serve(h, req)
	testutil.AssertStatusCode(t, rec.Code, http.StatusBadRequest)
	var body map[string]string
	testutil.DecodeResponse(t, rec, &body)
	require.Contains(t, body, "error")
	assert.Contains(t, body["error"], httputil.ErrInvalidBody.Error())
}
