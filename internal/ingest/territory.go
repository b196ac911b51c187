package ingest

import (
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/fieldops/territory-cli/internal/fetcher"
	"github.com/fieldops/territory-cli/internal/model"
	"github.com/fieldops/territory-cli/internal/normalize"
)

// territoryColumns locates the assignment sheet's columns. The sheet comes
// in two vintages: a three-part address (city/district/neighborhood) or a
// single address column.
type territoryColumns struct {
	city, district, dong int // three-part address, -1 when absent
	address              int // single address column, -1 when absent
	branch, owner, code  int
}

func findColumn(header []string, patterns ...string) int {
	for _, pattern := range patterns {
		for i, h := range header {
			if strings.Contains(strings.ToLower(strings.TrimSpace(h)), pattern) {
				return i
			}
		}
	}
	return -1
}

func resolveTerritoryColumns(header []string) (territoryColumns, error) {
	cols := territoryColumns{
		city:     findColumn(header, "주소시"),
		district: findColumn(header, "주소군구"),
		dong:     findColumn(header, "주소동"),
		branch:   findColumn(header, "관리지사", "지사"),
		owner:    findColumn(header, "sp담당", "담당"),
		code:     findColumn(header, "영업구역"),
		address:  -1,
	}

	if cols.city < 0 || cols.district < 0 || cols.dong < 0 {
		cols.city, cols.district, cols.dong = -1, -1, -1
		cols.address = findColumn(header, "주소")
		if cols.address < 0 {
			return cols, eris.New("ingest: assignment sheet has no address columns")
		}
	}
	if cols.branch < 0 {
		return cols, eris.New("ingest: assignment sheet has no branch column")
	}
	if cols.owner < 0 {
		return cols, eris.New("ingest: assignment sheet has no owner column")
	}
	return cols, nil
}

func (c territoryColumns) buildAddress(row []string) string {
	if c.address >= 0 {
		return sheetCell(row, c.address)
	}
	parts := make([]string, 0, 3)
	for _, i := range []int{c.city, c.district, c.dong} {
		if v := sheetCell(row, i); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

func sheetCell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// loadAssignments reads and normalizes the territory sheet. Rows whose
// address cannot be normalized are dropped; surviving rows are de-duplicated
// by normalized address keeping the first occurrence, so matching has at
// most one target per key.
func loadAssignments(path string) ([]model.TerritoryAssignment, error) {
	header, rows, err := fetcher.ReadXLSX(path, fetcher.XLSXOptions{})
	if err != nil {
		return nil, fail(SourceUnavailable, err)
	}

	cols, err := resolveTerritoryColumns(header)
	if err != nil {
		return nil, fail(NoUsableRows, err)
	}

	seen := make(map[string]bool, len(rows))
	var out []model.TerritoryAssignment
	var dropped int
	for _, row := range rows {
		addr := cols.buildAddress(row)
		norm := normalize.Address(addr)
		if norm == "" {
			dropped++
			continue
		}
		if seen[norm] {
			continue
		}
		seen[norm] = true
		out = append(out, model.TerritoryAssignment{
			Address:       addr,
			AddressNorm:   norm,
			Branch:        sheetCell(row, cols.branch),
			Owner:         sheetCell(row, cols.owner),
			TerritoryCode: sheetCell(row, cols.code),
		})
	}

	if len(out) == 0 {
		return nil, fail(NoUsableRows, eris.New("ingest: no usable territory rows"))
	}

	zap.L().Info("ingest: territory sheet loaded",
		zap.Int("rows", len(out)),
		zap.Int("dropped", dropped),
	)
	return out, nil
}
