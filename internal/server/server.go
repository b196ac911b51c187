// Package server exposes the ingested dataset and the activity log to the
// dashboard over HTTP. It is a read surface: the only write is the activity
// append. Authentication happens upstream; the proxy forwards the caller's
// identity and role in headers.
package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/fieldops/territory-cli/internal/activity"
	"github.com/fieldops/territory-cli/internal/config"
	"github.com/fieldops/territory-cli/internal/ingest"
	"github.com/fieldops/territory-cli/internal/voc"
)

// Server serves one ingestion result set.
type Server struct {
	result *ingest.Result
	store  activity.Store
	voc    voc.Store
	cfg    *config.Config
}

// New wires a server over an ingestion result. Either store may be nil; the
// corresponding endpoints then answer 503.
func New(result *ingest.Result, store activity.Store, vocStore voc.Store, cfg *config.Config) *Server {
	return &Server{result: result, store: store, voc: vocStore, cfg: cfg}
}

// Handler builds the route tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-User", "X-Role"},
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/records", s.handleRecords)
		r.Get("/records/geojson", s.handleGeoJSON)
		r.Get("/managers", s.handleManagers)
		r.Get("/activity", s.handleActivityList)
		r.Post("/activity", s.handleActivityAppend)
		r.Get("/voc", s.handleVOCList)
		r.Post("/voc", s.handleVOCCreate)
		r.Patch("/voc/{id}", s.handleVOCUpdate)
		r.Delete("/voc/{id}", s.handleVOCDelete)
	})
	return r
}

// viewer is the upstream-authenticated caller.
type viewer struct {
	user string
	role string
}

func (v viewer) admin() bool { return v.role == "admin" }

func viewerFrom(r *http.Request) viewer {
	v := viewer{
		user: r.Header.Get("X-User"),
		role: r.Header.Get("X-Role"),
	}
	if v.role == "" {
		v.role = "viewer"
	}
	return v
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("server: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
