// Package ingest fuses registry extracts and the territory assignment sheet
// into one enriched, de-duplicated dataset.
package ingest

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fieldops/territory-cli/internal/config"
	"github.com/fieldops/territory-cli/internal/coord"
	"github.com/fieldops/territory-cli/internal/fetcher"
	"github.com/fieldops/territory-cli/internal/match"
	"github.com/fieldops/territory-cli/internal/model"
	"github.com/fieldops/territory-cli/internal/normalize"
)

// Pipeline is the ingestion orchestrator. It is a pure function of its
// inputs given fixed configuration: identical inputs always produce an
// identical result, which is what makes caching by input identity sound.
type Pipeline struct {
	ingest   config.IngestConfig
	match    config.MatchConfig
	resolver *coord.Resolver
}

// Stats aggregates per-row degradations. Individual rows are never logged;
// these counts are the only trace they leave.
type Stats struct {
	FilesParsed      int `json:"files_parsed"`
	FilesSkipped     int `json:"files_skipped"`
	RowsParsed       int `json:"rows_parsed"`
	RowsOutOfRegion  int `json:"rows_out_of_region"`
	RowsDeduped      int `json:"rows_deduped"`
	CoordsResolved   int `json:"coords_resolved"`
	CoordsUnresolved int `json:"coords_unresolved"`
	Matched          int `json:"matched"`
	Unassigned       int `json:"unassigned"`
	TerritoryRows    int `json:"territory_rows"`
}

// Result is the terminal artifact of one ingestion run.
type Result struct {
	Records []model.EnrichedRecord `json:"records"`
	// Managers is the distinct territory lookup, for selection UI.
	Managers []model.TerritoryAssignment `json:"managers"`
	Stats    Stats                       `json:"stats"`
}

// New builds a Pipeline from configuration.
func New(cfg *config.Config) *Pipeline {
	return &Pipeline{
		ingest:   cfg.Ingest,
		match:    cfg.Match,
		resolver: coord.NewResolver(cfg.Coord),
	}
}

// Run ingests a registry archive against a territory sheet. On whole-batch
// failure it returns (nil, *Failure); per-row problems degrade fields and
// are reported only through Stats.
func (p *Pipeline) Run(ctx context.Context, archivePath, sheetPath string) (*Result, error) {
	raws, stats, err := p.parseArchive(ctx, archivePath)
	if err != nil {
		return nil, err
	}

	assignments, err := loadAssignments(sheetPath)
	if err != nil {
		return nil, err
	}

	return p.enrich(raws, assignments, stats, false), nil
}

// RunRecords ingests pre-mapped rows (the open-data API source) against a
// territory sheet, applying the single-record refinement matcher suited to
// low-volume live rows.
func (p *Pipeline) RunRecords(ctx context.Context, raws []model.RawBusinessRecord, sheetPath string) (*Result, error) {
	stats := Stats{RowsParsed: len(raws)}
	raws = p.prepare(raws, &stats)
	if len(raws) == 0 {
		return nil, fail(NoUsableRows, eris.New("ingest: no rows survived filtering"))
	}

	assignments, err := loadAssignments(sheetPath)
	if err != nil {
		return nil, err
	}

	return p.enrich(raws, assignments, stats, true), nil
}

// parseArchive runs stages 1-4: stage the archive, parse address-bearing
// files concurrently, reconcile columns, filter, sort, and de-duplicate.
func (p *Pipeline) parseArchive(ctx context.Context, archivePath string) ([]model.RawBusinessRecord, Stats, error) {
	var stats Stats

	paths, cleanup, err := fetcher.StageArchive(archivePath)
	if err != nil {
		return nil, stats, fail(SourceUnavailable, err)
	}
	defer cleanup()

	opts := fetcher.CSVOptions{Charset: "euc-kr", TrimSpace: true}

	// Only files whose header carries an address column are worth parsing.
	var candidates []string
	for _, path := range paths {
		header, err := fetcher.ReadCSVHeader(path, opts)
		if err != nil || !hasAddressColumn(header) {
			stats.FilesSkipped++
			continue
		}
		candidates = append(candidates, path)
	}
	if len(candidates) == 0 {
		return nil, stats, fail(NoUsableRows, eris.New("ingest: no file carries an address column"))
	}

	// Parse concurrently, but keep results in path order: input order is the
	// dedup authority order.
	perFile := make([][]model.RawBusinessRecord, len(candidates))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(max(p.ingest.ParseWorkers, 1))
	for i, path := range candidates {
		g.Go(func() error {
			header, rows, err := fetcher.ReadCSV(path, opts)
			if err != nil {
				return err
			}
			cols := resolveColumns(header)
			records := make([]model.RawBusinessRecord, 0, len(rows))
			for _, row := range rows {
				rec := buildRecord(row, cols)
				if rec.Address == "" {
					continue
				}
				records = append(records, rec)
			}
			perFile[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, stats, fail(SourceUnavailable, err)
	}
	stats.FilesParsed = len(candidates)

	var raws []model.RawBusinessRecord
	for _, records := range perFile {
		raws = append(raws, records...)
	}
	stats.RowsParsed = len(raws)

	raws = p.prepare(raws, &stats)
	if len(raws) == 0 {
		return nil, stats, fail(NoUsableRows, eris.New("ingest: no rows survived parsing"))
	}

	zap.L().Info("ingest: parse complete",
		zap.Int("files", stats.FilesParsed),
		zap.Int("files_skipped", stats.FilesSkipped),
		zap.Int("rows", len(raws)),
		zap.Int("out_of_region", stats.RowsOutOfRegion),
		zap.Int("deduped", stats.RowsDeduped),
	)
	return raws, stats, nil
}

// prepare applies the region prefilter, the newest-first sort, and the
// (name, address) de-duplication that makes output identity well-defined.
func (p *Pipeline) prepare(raws []model.RawBusinessRecord, stats *Stats) []model.RawBusinessRecord {
	filtered := raws[:0]
	for _, rec := range raws {
		if !p.inRegion(rec.Address) {
			stats.RowsOutOfRegion++
			continue
		}
		filtered = append(filtered, rec)
	}

	// Newest permit first, so dedup keeps the latest event for a business.
	// The sort is stable: rows without a permit date keep their input order
	// at the tail.
	sort.SliceStable(filtered, func(i, j int) bool {
		di, dj := filtered[i].PermitDate, filtered[j].PermitDate
		switch {
		case di == nil:
			return false
		case dj == nil:
			return true
		default:
			return di.After(*dj)
		}
	})

	seen := make(map[string]bool, len(filtered))
	out := filtered[:0]
	for _, rec := range filtered {
		key := rec.DedupKey()
		if seen[key] {
			stats.RowsDeduped++
			continue
		}
		seen[key] = true
		out = append(out, rec)
	}
	return out
}

func (p *Pipeline) inRegion(addr string) bool {
	if len(p.ingest.Regions) == 0 {
		return true
	}
	for _, region := range p.ingest.Regions {
		if strings.HasPrefix(addr, region) {
			return true
		}
	}
	return false
}

// enrich runs stages 5-10: resolve coordinates, match against the territory
// corpus, merge attributes, and compute derived fields. refine selects the
// single-record matching path used for live API rows.
func (p *Pipeline) enrich(raws []model.RawBusinessRecord, assignments []model.TerritoryAssignment, stats Stats, refine bool) *Result {
	stats.TerritoryRows = len(assignments)

	xs := make([]*float64, len(raws))
	ys := make([]*float64, len(raws))
	for i, rec := range raws {
		xs[i], ys[i] = rec.X, rec.Y
	}
	lats, lons := p.resolver.ResolveBatch(xs, ys)

	queries := make([]string, len(raws))
	for i, rec := range raws {
		queries[i] = normalize.Address(rec.Address)
	}

	ix := match.NewIndex(assignments, p.match.ChunkSize)
	matcher := match.NewMatcher(ix, p.match)

	var results []*model.MatchResult
	if refine {
		results = make([]*model.MatchResult, len(queries))
		for i, q := range queries {
			results[i] = matcher.MatchOne(q)
		}
	} else {
		results = matcher.MatchBatch(queries)
	}

	records := make([]model.EnrichedRecord, len(raws))
	for i, rec := range raws {
		enriched := model.EnrichedRecord{
			RawBusinessRecord: rec,
			Branch:            p.ingest.UnassignedSentinel,
			Owner:             p.ingest.UnassignedSentinel,
			Lat:               lats[i],
			Lon:               lons[i],
			AreaPyeong:        p.areaPyeong(rec),
		}
		if lats[i] != nil {
			stats.CoordsResolved++
		} else {
			stats.CoordsUnresolved++
		}

		if mr := results[i]; mr != nil {
			enriched.Branch = mr.Assignment.Branch
			enriched.Owner = mr.Assignment.Owner
			enriched.TerritoryCode = mr.Assignment.TerritoryCode
			enriched.MatchScore = mr.Score
			stats.Matched++
		} else {
			stats.Unassigned++
		}
		records[i] = enriched
	}

	zap.L().Info("ingest: enrich complete",
		zap.Int("records", len(records)),
		zap.Int("matched", stats.Matched),
		zap.Int("unassigned", stats.Unassigned),
		zap.Int("coords_resolved", stats.CoordsResolved),
	)

	return &Result{Records: records, Managers: assignments, Stats: stats}
}

// areaPyeong converts site area (falling back to total area) from square
// meters to pyeong, rounded to one decimal. Missing or non-positive inputs
// yield zero.
func (p *Pipeline) areaPyeong(rec model.RawBusinessRecord) float64 {
	area := rec.SiteArea
	if area == nil || *area <= 0 {
		area = rec.TotalArea
	}
	if area == nil || *area <= 0 {
		return 0
	}
	divisor := p.ingest.AreaDivisor
	if divisor == 0 {
		divisor = 3.3058
	}
	return math.Round(*area/divisor*10) / 10
}
