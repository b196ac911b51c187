// Package model defines the record types flowing through the ingestion pipeline.
package model

import (
	"strings"
	"time"
)

// BusinessStatus classifies the registry's trade-state field.
type BusinessStatus string

const (
	StatusOperating BusinessStatus = "operating"
	StatusClosed    BusinessStatus = "closed"
	StatusSuspended BusinessStatus = "suspended"
	StatusOther     BusinessStatus = "other"
)

// ParseStatus maps the registry's Korean trade-state names onto the enum.
func ParseStatus(raw string) BusinessStatus {
	s := strings.TrimSpace(raw)
	switch {
	case s == "":
		return StatusOther
	case strings.Contains(s, "폐업"):
		return StatusClosed
	case strings.Contains(s, "휴업"):
		return StatusSuspended
	case strings.Contains(s, "영업") || strings.Contains(s, "정상"):
		return StatusOperating
	default:
		return StatusOther
	}
}

// RawBusinessRecord is one row from a registry extract or the open-data API.
type RawBusinessRecord struct {
	Name        string         `json:"name"`
	Address     string         `json:"address"`
	RoadAddress string         `json:"road_address,omitempty"`
	Phone       string         `json:"phone,omitempty"`
	Category    string         `json:"category,omitempty"`
	StatusRaw   string         `json:"status_raw,omitempty"`
	Status      BusinessStatus `json:"status"`

	PermitDate   *time.Time `json:"permit_date,omitempty"`
	CloseDate    *time.Time `json:"close_date,omitempty"`
	ReopenDate   *time.Time `json:"reopen_date,omitempty"`
	LastModified *time.Time `json:"last_modified,omitempty"`

	SiteArea  *float64 `json:"site_area,omitempty"`
	TotalArea *float64 `json:"total_area,omitempty"`

	// Raw coordinate pair of unknown reference system.
	X *float64 `json:"x,omitempty"`
	Y *float64 `json:"y,omitempty"`
}

// DedupKey is the natural identity of a registry row: no two output records
// of one ingestion share the same (name, address) pair.
func (r RawBusinessRecord) DedupKey() string {
	return r.Name + "\x1f" + r.Address
}

// EnrichedRecord is a RawBusinessRecord after territory matching, coordinate
// resolution, and derived-field computation. Branch and Owner are never
// empty: unmatched records carry the configured unassigned sentinel.
type EnrichedRecord struct {
	RawBusinessRecord

	Branch        string  `json:"branch"`
	Owner         string  `json:"owner"`
	TerritoryCode string  `json:"territory_code,omitempty"`
	MatchScore    float64 `json:"match_score,omitempty"`

	Lat *float64 `json:"lat,omitempty"`
	Lon *float64 `json:"lon,omitempty"`

	// AreaPyeong is site area (falling back to total area) converted to
	// the local unit and rounded to one decimal.
	AreaPyeong float64 `json:"area_pyeong"`
}

// dateLayouts are tried in order when parsing registry date columns.
var dateLayouts = []string{
	"2006-01-02",
	"20060102",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"20060102150405",
	"2006/01/02",
	"2006.01.02",
}

// ParseDate parses a registry date value. Unparseable or empty input yields
// nil rather than an error: bad dates degrade the field, never the row.
func ParseDate(raw string) *time.Time {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
