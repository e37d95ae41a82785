// Package api exposes the crystal service over HTTP and MCP.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/kalambet/grimoire/internal/correlation"
	"github.com/kalambet/grimoire/internal/identify"
	"github.com/kalambet/grimoire/internal/storage"
)

const maxRequestBodySize = 1 << 20 // 1MB

// VisionStatus reports the state of the vision model collaborator.
type VisionStatus interface {
	Configured() bool
	Model() string
}

// Deps holds the collaborators of the HTTP handler. Store and Identify may
// be nil; the routes that need them answer 503.
type Deps struct {
	Store          *storage.Store
	Identify       *identify.Service
	Vision         VisionStatus
	Token          string
	AllowedOrigins []string
	Version        string
}

// NewHandler builds the HTTP router.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	origins := deps.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))
		r.Get("/api/status", handleStatus(deps))
		r.Post("/api/crystal/identify", handleIdentify(deps))
		r.Post("/api/crystals", handleCreateCrystal(deps))
		r.Get("/api/crystals", handleListCrystals(deps))
		r.Get("/api/crystals/{id}", handleGetCrystal(deps))
		r.Put("/api/crystals/{id}", handleReplaceCrystal(deps))
		r.Delete("/api/crystals/{id}", handleDeleteCrystal(deps))
		r.Post("/api/usage", handleTrackUsage(deps))
		r.Get("/api/usage", handleListUsage(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type statusResponse struct {
	Status  string        `json:"status"`
	Version string        `json:"version"`
	Vision  visionStatus  `json:"vision"`
	Storage storageStatus `json:"storage"`
	Colors  []string      `json:"colors"`
}

type visionStatus struct {
	Configured bool   `json:"configured"`
	Model      string `json:"model"`
}

type storageStatus struct {
	Reachable bool   `json:"reachable"`
	Crystals  int    `json:"crystals"`
	Error     string `json:"error,omitempty"`
}

func handleStatus(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := statusResponse{
			Status:  "ok",
			Version: deps.Version,
			Colors:  correlation.Colors(),
		}
		if deps.Vision != nil {
			resp.Vision = visionStatus{Configured: deps.Vision.Configured(), Model: deps.Vision.Model()}
		}

		if deps.Store == nil {
			resp.Storage.Error = "not configured"
		} else {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			err := deps.Store.Ping(ctx)
			if err == nil {
				resp.Storage.Crystals, err = deps.Store.CountRecords(ctx, "")
			}
			cancel()
			if err != nil {
				resp.Storage.Error = err.Error()
			} else {
				resp.Storage.Reachable = true
			}
		}
		if !resp.Vision.Configured || !resp.Storage.Reachable {
			resp.Status = "degraded"
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

// requestLogger logs one line per request once it has been served.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"message": fmt.Sprintf(format, args...),
			"type":    errType,
		},
	})
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}
