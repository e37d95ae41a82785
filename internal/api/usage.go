package api

import (
	"encoding/json"
	"net/http"

	"github.com/kalambet/grimoire/internal/crystal"
	"github.com/kalambet/grimoire/internal/storage"
)

type usageRequest struct {
	OwnerID  string          `json:"owner_id"`
	Feature  string          `json:"feature"`
	Metadata json.RawMessage `json:"metadata"`
}

func handleTrackUsage(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Store == nil {
			writeError(w, storage.ErrUnavailable, "")
			return
		}

		var req usageRequest
		if err := decodeBody(w, r, maxRequestBodySize, &req); err != nil {
			writeError(w, err, "")
			return
		}
		switch {
		case req.OwnerID == "":
			writeError(w, &crystal.ValidationError{Field: "owner_id", Message: "is required"}, "")
			return
		case req.Feature == "":
			writeError(w, &crystal.ValidationError{Field: "feature", Message: "is required"}, "")
			return
		case !isObject(req.Metadata):
			writeError(w, &crystal.ValidationError{Field: "metadata", Message: "must be a JSON object"}, "")
			return
		}

		err := deps.Store.SaveUsageEvent(r.Context(), storage.UsageEvent{
			OwnerID:  req.OwnerID,
			Feature:  req.Feature,
			Metadata: req.Metadata,
		})
		if err != nil {
			writeError(w, err, "failed to track usage")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "tracked"})
	}
}

func handleListUsage(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Store == nil {
			writeError(w, storage.ErrUnavailable, "")
			return
		}

		owner := r.URL.Query().Get("owner_id")
		if owner == "" {
			writeError(w, &crystal.ValidationError{Field: "owner_id", Message: "is required"}, "")
			return
		}

		events, err := deps.Store.ListUsageEvents(r.Context(), owner, parseIntParam(r, "limit", 50, 500))
		if err != nil {
			writeError(w, err, "failed to list usage")
			return
		}
		writeJSON(w, http.StatusOK, events)
	}
}

// isObject reports whether raw is absent, null or a JSON object.
func isObject(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return true
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	if v == nil {
		return true
	}
	_, ok := v.(map[string]any)
	return ok
}
