package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/fieldops/territory-cli/internal/voc"
)

// handleVOCList serves VOC requests newest first. Admins see everything and
// can filter by user and status; everyone else only sees their own.
func (s *Server) handleVOCList(w http.ResponseWriter, r *http.Request) {
	if s.voc == nil {
		writeError(w, http.StatusServiceUnavailable, "voc store not configured")
		return
	}
	v := viewerFrom(r)

	q := r.URL.Query()
	f := voc.Filter{
		User:   q.Get("user"),
		Status: voc.Status(q.Get("status")),
	}
	if !v.admin() {
		f.User = v.user
	}

	requests, err := s.voc.List(r.Context(), f)
	if err != nil {
		zap.L().Error("server: list voc", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "voc lookup failed")
		return
	}
	if requests == nil {
		requests = []voc.Request{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"requests": requests})
}

// handleVOCCreate files a new request for the calling viewer.
func (s *Server) handleVOCCreate(w http.ResponseWriter, r *http.Request) {
	if s.voc == nil {
		writeError(w, http.StatusServiceUnavailable, "voc store not configured")
		return
	}
	v := viewerFrom(r)
	if v.user == "" {
		writeError(w, http.StatusBadRequest, "missing X-User header")
		return
	}

	var body struct {
		Region   string `json:"region"`
		Subject  string `json:"subject"`
		Content  string `json:"content"`
		Priority string `json:"priority"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Subject == "" || body.Content == "" {
		writeError(w, http.StatusBadRequest, "subject and content are required")
		return
	}

	created, err := s.voc.Create(r.Context(), voc.Request{
		User:     v.user,
		Role:     v.role,
		Region:   body.Region,
		Subject:  body.Subject,
		Content:  body.Content,
		Priority: body.Priority,
	})
	if err != nil {
		zap.L().Error("server: create voc", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "voc create failed")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// handleVOCUpdate moves a request through the workflow. Admin only.
func (s *Server) handleVOCUpdate(w http.ResponseWriter, r *http.Request) {
	if s.voc == nil {
		writeError(w, http.StatusServiceUnavailable, "voc store not configured")
		return
	}
	if !viewerFrom(r).admin() {
		writeError(w, http.StatusForbidden, "admin role required")
		return
	}

	var body struct {
		Status       string `json:"status"`
		AdminComment string `json:"admin_comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	status := voc.Status(body.Status)
	if !status.Valid() {
		writeError(w, http.StatusBadRequest, "status must be new, in_progress or done")
		return
	}

	updated, err := s.voc.UpdateStatus(r.Context(), chi.URLParam(r, "id"), status, body.AdminComment)
	if errors.Is(err, voc.ErrNotFound) {
		writeError(w, http.StatusNotFound, "request not found")
		return
	}
	if err != nil {
		zap.L().Error("server: update voc", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "voc update failed")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// handleVOCDelete removes a request. Admin only.
func (s *Server) handleVOCDelete(w http.ResponseWriter, r *http.Request) {
	if s.voc == nil {
		writeError(w, http.StatusServiceUnavailable, "voc store not configured")
		return
	}
	if !viewerFrom(r).admin() {
		writeError(w, http.StatusForbidden, "admin role required")
		return
	}

	err := s.voc.Delete(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, voc.ErrNotFound) {
		writeError(w, http.StatusNotFound, "request not found")
		return
	}
	if err != nil {
		zap.L().Error("server: delete voc", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "voc delete failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
