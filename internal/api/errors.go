package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/autovid/autovid-editor/internal/credits"
	"github.com/autovid/autovid-editor/internal/project"
	"github.com/autovid/autovid-editor/internal/timeline"
)

const (
	maxBodyBytes     = 1 << 20
	maxDocumentBytes = 16 << 20
)

// writeServiceError maps service errors onto HTTP statuses and error codes.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var verr *project.ValidationError
	var spendErr *credits.SpendError

	switch {
	case errors.As(err, &verr):
		WriteJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error: "timeline is invalid", Code: "INVALID_TIMELINE", Details: verr.Errors,
		})
	case errors.Is(err, project.ErrProjectNotFound),
		errors.Is(err, project.ErrJobNotFound),
		errors.Is(err, project.ErrNotFound):
		WriteError(w, http.StatusNotFound, err.Error(), "NOT_FOUND")
	case errors.Is(err, project.ErrTrackLocked):
		WriteError(w, http.StatusLocked, err.Error(), "TRACK_LOCKED")
	case errors.Is(err, project.ErrConflict):
		WriteError(w, http.StatusConflict, err.Error(), "CONFLICT")
	case errors.Is(err, project.ErrInvalidTimeline):
		WriteError(w, http.StatusBadRequest, err.Error(), "INVALID_DOCUMENT")
	case errors.Is(err, project.ErrInvalidInput):
		WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
	case errors.Is(err, credits.ErrInsufficientCredits):
		WriteError(w, http.StatusPaymentRequired, "insufficient credits", "INSUFFICIENT_CREDITS")
	case errors.As(err, &spendErr) && spendErr.IsRetryable():
		logger.Warn("credit service unavailable", "error", err, "request_id", requestID(r))
		w.Header().Set("Retry-After", "30")
		WriteError(w, http.StatusServiceUnavailable, "credit service unavailable, try again later", "CREDITS_UNAVAILABLE")
	case errors.As(err, &spendErr):
		logger.Warn("credit service rejected charge", "error", err, "request_id", requestID(r))
		WriteError(w, http.StatusBadGateway, "credit service rejected the charge", "CREDITS_REJECTED")
	default:
		logger.Error("request failed", "error", err, "path", r.URL.Path, "request_id", requestID(r))
		WriteError(w, http.StatusInternalServerError, "internal error", "INTERNAL_ERROR")
	}
}

// decodeBody reads a JSON request body into v. An empty body leaves v as is.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err), "BAD_REQUEST")
		return false
	}
	return true
}

// writeTimeline writes t in its document form.
func writeTimeline(w http.ResponseWriter, r *http.Request, logger *slog.Logger, status int, t *timeline.Timeline) {
	doc, err := timeline.ToJSON(t)
	if err != nil {
		writeServiceError(w, r, logger, err)
		return
	}
	WriteJSON(w, status, json.RawMessage(doc))
}
