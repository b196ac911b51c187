package match

import (
	"github.com/agext/levenshtein"

	"github.com/fieldops/territory-cli/internal/config"
	"github.com/fieldops/territory-cli/internal/model"
	"github.com/fieldops/territory-cli/internal/normalize"
)

// Matcher resolves normalized registry addresses to at most one territory
// assignment each. It is deterministic given the same corpus and queries and
// has no side effects.
type Matcher struct {
	ix  *Index
	cfg config.MatchConfig
}

// NewMatcher wraps an index with the configured threshold policy.
func NewMatcher(ix *Index, cfg config.MatchConfig) *Matcher {
	return &Matcher{ix: ix, cfg: cfg}
}

// MatchBatch resolves a batch of normalized query addresses, one result per
// query in input order. A query below the batch cosine threshold, or whose
// candidate fails the geographic check, yields nil (unassigned).
func (m *Matcher) MatchBatch(queries []string) []*model.MatchResult {
	out := make([]*model.MatchResult, len(queries))
	if m.ix.Len() == 0 {
		return out
	}

	for i, cand := range m.ix.BestBatch(queries) {
		if cand.Pos < 0 || cand.Score < m.cfg.BatchThreshold {
			continue
		}
		out[i] = m.accept(queries[i], cand)
	}
	return out
}

// MatchOne resolves a single address, the path used for low-volume live API
// rows. Beyond the batch logic it rescores the top-N cosine candidates with
// an edit-distance ratio and accepts on max(cosine, edit) — edit distance
// catches near-miss typos that n-grams under-score, while n-grams catch
// reordering that edit distance under-scores.
func (m *Matcher) MatchOne(query string) *model.MatchResult {
	if m.ix.Len() == 0 || query == "" {
		return nil
	}

	best := m.ix.Best(query)
	if best.Pos < 0 || best.Score < m.cfg.CosineFloor {
		return nil
	}

	// Very high cosine needs no refinement.
	if best.Score >= m.cfg.FastAccept {
		return m.accept(query, best)
	}

	var editBest Candidate
	editBest.Pos = -1
	for _, cand := range m.ix.TopN(query, m.cfg.TopN) {
		score := levenshtein.Similarity(query, m.ix.Entry(cand.Pos).AddressNorm, levenshtein.NewParams())
		if score > editBest.Score {
			editBest = Candidate{Pos: cand.Pos, Score: score}
		}
	}
	if editBest.Pos < 0 {
		return nil
	}

	combined := editBest.Score
	if best.Score > combined {
		combined = best.Score
	}
	if combined < m.cfg.CombinedThreshold {
		return nil
	}
	return m.accept(query, Candidate{Pos: editBest.Pos, Score: combined})
}

// accept applies the geographic sanity check: the query and candidate must
// agree on at least one leading province/city token, regardless of score.
// Two addresses in different provinces can share neighborhood-name strings
// and score high on n-grams alone.
func (m *Matcher) accept(query string, cand Candidate) *model.MatchResult {
	entry := m.ix.Entry(cand.Pos)
	if !normalize.GeoTokensIntersect(query, entry.AddressNorm) {
		return nil
	}
	return &model.MatchResult{Assignment: &m.ix.corpus[cand.Pos], Score: cand.Score}
}
