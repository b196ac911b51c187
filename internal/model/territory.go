package model

import "strings"

// TerritoryAssignment is one row of the manager/territory assignment sheet.
// AddressNorm is unique within a loaded sheet; the loader de-duplicates
// keeping the first occurrence so matching has at most one target per key.
type TerritoryAssignment struct {
	Address       string `json:"address"`
	AddressNorm   string `json:"-"`
	Branch        string `json:"branch"`
	Owner         string `json:"owner"`
	TerritoryCode string `json:"territory_code,omitempty"`
}

// MatchResult associates a query with at most one territory row. It lives
// only for the duration of one ingestion run; the merge stage folds it into
// the enriched record and discards it.
type MatchResult struct {
	Assignment *TerritoryAssignment
	Score      float64
}

// MaskName masks a person's name for non-admin viewers: 홍길동 → 홍*동,
// 이철 → 이*. One-rune names are returned unchanged.
func MaskName(name string) string {
	runes := []rune(strings.TrimSpace(name))
	switch {
	case len(runes) <= 1:
		return string(runes)
	case len(runes) == 2:
		return string(runes[0]) + "*"
	default:
		masked := make([]rune, len(runes))
		masked[0] = runes[0]
		masked[len(runes)-1] = runes[len(runes)-1]
		for i := 1; i < len(runes)-1; i++ {
			masked[i] = '*'
		}
		return string(masked)
	}
}
