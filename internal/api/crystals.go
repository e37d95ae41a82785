package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kalambet/grimoire/internal/crystal"
	"github.com/kalambet/grimoire/internal/storage"
)

func handleCreateCrystal(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Store == nil {
			writeError(w, storage.ErrUnavailable, "")
			return
		}

		var rec crystal.Record
		if err := decodeBody(w, r, maxRequestBodySize, &rec); err != nil {
			writeError(w, err, "")
			return
		}

		rec.Core.ID = uuid.NewString()
		rec.Core.CreatedAt = time.Now().UTC()
		rec.FillDefaults()
		if err := rec.Validate(); err != nil {
			writeError(w, err, "")
			return
		}

		if err := deps.Store.PutRecord(r.Context(), rec); err != nil {
			writeError(w, err, "failed to save crystal")
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func handleListCrystals(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Store == nil {
			writeError(w, storage.ErrUnavailable, "")
			return
		}

		recs, err := deps.Store.ListRecords(r.Context(), storage.ListOptions{
			OwnerID: r.URL.Query().Get("owner_id"),
			Limit:   parseIntParam(r, "limit", 50, 500),
			Offset:  parseIntParam(r, "offset", 0, 0),
		})
		if err != nil {
			writeError(w, err, "failed to list crystals")
			return
		}
		writeJSON(w, http.StatusOK, recs)
	}
}

func handleGetCrystal(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Store == nil {
			writeError(w, storage.ErrUnavailable, "")
			return
		}

		rec, err := deps.Store.GetRecord(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err, "failed to get crystal")
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

// handleReplaceCrystal replaces a stored record wholesale. The id and
// creation time of the stored record are kept. An unknown id is a 404
// whatever the body says.
func handleReplaceCrystal(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Store == nil {
			writeError(w, storage.ErrUnavailable, "")
			return
		}
		id := chi.URLParam(r, "id")

		var rec crystal.Record
		if err := decodeBody(w, r, maxRequestBodySize, &rec); err != nil {
			writeError(w, err, "")
			return
		}

		existing, err := deps.Store.GetRecord(r.Context(), id)
		if err != nil {
			writeError(w, err, "failed to get crystal")
			return
		}
		if rec.Core.ID != "" && rec.Core.ID != id {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "body id %q does not match path id %q", rec.Core.ID, id)
			return
		}

		rec.Core.ID = id
		rec.Core.CreatedAt = existing.Core.CreatedAt
		rec.FillDefaults()
		if err := rec.Validate(); err != nil {
			writeError(w, err, "")
			return
		}

		if err := deps.Store.PutRecord(r.Context(), rec); err != nil {
			writeError(w, err, "failed to save crystal")
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func handleDeleteCrystal(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Store == nil {
			writeError(w, storage.ErrUnavailable, "")
			return
		}
		id := chi.URLParam(r, "id")

		if err := deps.Store.DeleteRecord(r.Context(), id); err != nil {
			writeError(w, err, "failed to delete crystal")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
	}
}
