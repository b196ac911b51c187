package server

import (
	"net/http"

	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/fieldops/territory-cli/internal/coord"
	"github.com/fieldops/territory-cli/internal/model"
)

// handleRecords serves the enriched record set with role scoping: admins see
// everything, managers only their own territory's records, and owner names
// are masked for everyone but admins.
func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	v := viewerFrom(r)
	records := s.scopedRecords(v, r)

	out := make([]model.EnrichedRecord, 0, len(records))
	for _, rec := range records {
		if !v.admin() {
			rec.Owner = maskOwner(rec.Owner, s.unassigned())
		}
		out = append(out, rec)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"records": out,
		"total":   len(out),
		"stats":   s.result.Stats,
	})
}

// scopedRecords applies the role scope and query filters in record order.
func (s *Server) scopedRecords(v viewer, r *http.Request) []model.EnrichedRecord {
	q := r.URL.Query()
	branch := q.Get("branch")
	status := q.Get("status")
	owner := q.Get("owner")
	if v.role == "manager" {
		// Managers are pinned to their own records regardless of the
		// owner filter they send.
		owner = v.user
	}

	var out []model.EnrichedRecord
	for _, rec := range s.result.Records {
		if branch != "" && rec.Branch != branch {
			continue
		}
		if status != "" && string(rec.Status) != status {
			continue
		}
		if owner != "" && rec.Owner != owner {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// handleGeoJSON serves coordinate-resolved records as a FeatureCollection
// for the map view. Records without resolved coordinates are excluded here
// and only here; they stay visible in the tabular endpoints.
func (s *Server) handleGeoJSON(w http.ResponseWriter, r *http.Request) {
	v := viewerFrom(r)
	records := s.scopedRecords(v, r)

	fc := &geojson.FeatureCollection{}
	for _, rec := range records {
		if rec.Lat == nil || rec.Lon == nil {
			continue
		}
		owner := rec.Owner
		if !v.admin() {
			owner = maskOwner(owner, s.unassigned())
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry: coord.Point(*rec.Lon, *rec.Lat),
			Properties: map[string]any{
				"name":   rec.Name,
				"branch": rec.Branch,
				"owner":  owner,
				"status": string(rec.Status),
			},
		})
	}
	writeJSON(w, http.StatusOK, fc)
}

// handleManagers serves the distinct territory lookup for selection UI.
func (s *Server) handleManagers(w http.ResponseWriter, r *http.Request) {
	v := viewerFrom(r)

	out := make([]model.TerritoryAssignment, 0, len(s.result.Managers))
	for _, m := range s.result.Managers {
		if !v.admin() {
			m.Owner = model.MaskName(m.Owner)
		}
		out = append(out, m)
	}
	writeJSON(w, http.StatusOK, map[string]any{"managers": out})
}

func (s *Server) unassigned() string {
	return s.cfg.Ingest.UnassignedSentinel
}

// maskOwner masks a person's name for non-admin viewers. The unassigned
// sentinel is a category, not a person, and passes through unmasked.
func maskOwner(owner, sentinel string) string {
	if owner == "" || owner == sentinel {
		return owner
	}
	return model.MaskName(owner)
}
