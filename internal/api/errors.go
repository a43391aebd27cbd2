package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/banshee-data/roommodes/internal/db"
	"github.com/banshee-data/roommodes/internal/httputil"
	"github.com/banshee-data/roommodes/internal/monitoring"
	"github.com/banshee-data/roommodes/internal/roommodes"
	"github.com/banshee-data/roommodes/internal/session"
)

// statusClientClosed is the nginx convention for a request the client
// abandoned.
const statusClientClosed = 499

// statusForError maps engine, storage and session errors onto HTTP codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, roommodes.ErrInvalidArgument), errors.Is(err, httputil.ErrInvalidBody):
		return http.StatusBadRequest
	case errors.Is(err, db.ErrNotFound), errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, db.ErrDuplicateName):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return statusClientClosed
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes err with the status from statusForError. Server-side
// failures are logged and their detail withheld from the client.
func writeError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		monitoring.Logf("internal error: %v", err)
		msg = "internal server error"
	}
	httputil.WriteJSONError(w, status, msg)
}
