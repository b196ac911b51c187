package ingest

import (
	"strconv"
	"strings"

	"github.com/fieldops/territory-cli/internal/model"
)

// field names one slot of the internal record schema.
type field int

const (
	fieldName field = iota
	fieldAddress
	fieldRoadAddress
	fieldPhone
	fieldCategory
	fieldStatus
	fieldPermitDate
	fieldCloseDate
	fieldReopenDate
	fieldLastModified
	fieldSiteArea
	fieldTotalArea
	fieldX
	fieldY
)

// columnPatterns maps registry header names onto the internal schema by
// substring match. Extract vintages spell headers near-identically but not
// identically, so each field lists its patterns most-specific first and the
// list is tried in a fixed priority order: the first header containing a
// pattern wins the field, and a claimed header is never reused.
var columnPatterns = []struct {
	field   field
	pattern string
}{
	{fieldAddress, "소재지전체주소"},
	{fieldAddress, "소재지주소"},
	{fieldRoadAddress, "도로명전체주소"},
	{fieldRoadAddress, "도로명주소"},
	{fieldName, "사업장명"},
	{fieldCategory, "업태구분명"},
	{fieldStatus, "영업상태명"},
	{fieldPhone, "소재지전화"},
	{fieldSiteArea, "소재지면적"},
	{fieldTotalArea, "총면적"},
	{fieldPermitDate, "인허가일자"},
	{fieldCloseDate, "폐업일자"},
	{fieldReopenDate, "재개업일자"},
	{fieldLastModified, "최종수정"},
	{fieldX, "좌표정보(x)"},
	{fieldX, "좌표정보x"},
	{fieldY, "좌표정보(y)"},
	{fieldY, "좌표정보y"},
}

// resolveColumns binds header columns to internal fields. Unresolved fields
// are simply absent from the map; they degrade to empty/nil values per row.
func resolveColumns(header []string) map[field]int {
	cols := make(map[field]int)
	claimed := make(map[int]bool)

	for _, cp := range columnPatterns {
		if _, done := cols[cp.field]; done {
			continue
		}
		for i, h := range header {
			if claimed[i] {
				continue
			}
			if strings.Contains(strings.ToLower(strings.TrimSpace(h)), cp.pattern) {
				cols[cp.field] = i
				claimed[i] = true
				break
			}
		}
	}
	return cols
}

// hasAddressColumn reports whether a header row carries any address-bearing
// column. Files without one are skipped entirely.
func hasAddressColumn(header []string) bool {
	for _, h := range header {
		if strings.Contains(h, "주소") {
			return true
		}
	}
	return false
}

func cell(row []string, cols map[field]int, f field) string {
	i, ok := cols[f]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func cellFloat(row []string, cols map[field]int, f field) *float64 {
	raw := cell(row, cols, f)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil {
		return nil
	}
	return &v
}

// buildRecord maps one reconciled CSV row onto the internal record shape.
// Unparseable dates and numbers degrade to nil, never an error.
func buildRecord(row []string, cols map[field]int) model.RawBusinessRecord {
	statusRaw := cell(row, cols, fieldStatus)
	return model.RawBusinessRecord{
		Name:         cell(row, cols, fieldName),
		Address:      cell(row, cols, fieldAddress),
		RoadAddress:  cell(row, cols, fieldRoadAddress),
		Phone:        cell(row, cols, fieldPhone),
		Category:     cell(row, cols, fieldCategory),
		StatusRaw:    statusRaw,
		Status:       model.ParseStatus(statusRaw),
		PermitDate:   model.ParseDate(cell(row, cols, fieldPermitDate)),
		CloseDate:    model.ParseDate(cell(row, cols, fieldCloseDate)),
		ReopenDate:   model.ParseDate(cell(row, cols, fieldReopenDate)),
		LastModified: model.ParseDate(cell(row, cols, fieldLastModified)),
		SiteArea:     cellFloat(row, cols, fieldSiteArea),
		TotalArea:    cellFloat(row, cols, fieldTotalArea),
		X:            cellFloat(row, cols, fieldX),
		Y:            cellFloat(row, cols, fieldY),
	}
}
