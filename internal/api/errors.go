package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/kalambet/grimoire/internal/crystal"
	"github.com/kalambet/grimoire/internal/storage"
	"github.com/kalambet/grimoire/internal/vision"
)

// writeError maps err onto a status code and the JSON error envelope.
// action prefixes the message of unexpected errors, e.g. "failed to save crystal".
func writeError(w http.ResponseWriter, err error, action string) {
	var (
		verr  *crystal.ValidationError
		uerr  *crystal.UpstreamError
		mberr *http.MaxBytesError
	)
	switch {
	case errors.As(err, &verr):
		httpError(w, http.StatusUnprocessableEntity, "invalid_request_error", "%s", verr.Error())
	case errors.As(err, &mberr):
		httpError(w, http.StatusRequestEntityTooLarge, "invalid_request_error", "request body exceeds %d bytes", mberr.Limit)
	case errors.Is(err, storage.ErrNotFound):
		httpError(w, http.StatusNotFound, "not_found", "crystal not found")
	case errors.Is(err, storage.ErrUnavailable):
		httpError(w, http.StatusServiceUnavailable, "unavailable", "storage unavailable")
	case errors.Is(err, vision.ErrNotConfigured):
		httpError(w, http.StatusServiceUnavailable, "unavailable", "vision model not configured")
	case errors.As(err, &uerr):
		slog.Warn("upstream model error", "status", uerr.Status, "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error": map[string]any{
				"message":         uerr.Error(),
				"type":            "upstream_error",
				"upstream_status": uerr.Status,
			},
		})
	case errors.Is(err, crystal.ErrMalformedResponse):
		slog.Warn("malformed model response", "error", err)
		httpError(w, http.StatusInternalServerError, "malformed_response", "%s", err.Error())
	default:
		slog.Error(action, "error", err)
		httpError(w, http.StatusInternalServerError, "api_error", "%s: %v", action, err)
	}
}

// decodeBody decodes a JSON request body of at most limit bytes into v.
func decodeBody(w http.ResponseWriter, r *http.Request, limit int64, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var mberr *http.MaxBytesError
		if errors.As(err, &mberr) {
			return err
		}
		return &crystal.ValidationError{Field: "body", Message: "invalid JSON: " + err.Error()}
	}
	return nil
}
