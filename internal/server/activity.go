package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/fieldops/territory-cli/internal/activity"
)

const defaultActivityLimit = 100

// handleActivityList serves activity entries newest first. Non-admins only
// see their own entries.
func (s *Server) handleActivityList(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "activity log not configured")
		return
	}
	v := viewerFrom(r)

	q := r.URL.Query()
	f := activity.Filter{
		User:   q.Get("user"),
		Action: q.Get("action"),
		Limit:  defaultActivityLimit,
	}
	if raw := q.Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			f.Limit = n
		}
	}
	if !v.admin() {
		f.User = v.user
	}

	entries, err := s.store.List(r.Context(), f)
	if err != nil {
		zap.L().Error("server: list activity", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "activity lookup failed")
		return
	}
	if entries == nil {
		entries = []activity.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// handleActivityAppend records one activity line for the calling viewer.
// Identity comes from the trusted headers, never from the body.
func (s *Server) handleActivityAppend(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "activity log not configured")
		return
	}
	v := viewerFrom(r)
	if v.user == "" {
		writeError(w, http.StatusBadRequest, "missing X-User header")
		return
	}

	var body struct {
		Action string `json:"action"`
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Action == "" {
		writeError(w, http.StatusBadRequest, "action is required")
		return
	}

	entry, err := s.store.Append(r.Context(), activity.Entry{
		User:   v.user,
		Role:   v.role,
		Action: body.Action,
		Detail: body.Detail,
	})
	if err != nil {
		zap.L().Error("server: append activity", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "activity append failed")
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}
