// Package match resolves registry addresses to territory assignments using
// character n-gram similarity with a geographic sanity check.
package match

import (
	"math"
	"sort"

	"github.com/fieldops/territory-cli/internal/model"
)

// Candidate is one corpus entry scored against a query.
type Candidate struct {
	Pos   int
	Score float64
}

// Index is a character bigram+trigram TF-IDF vector index over the
// normalized territory-sheet addresses. It is built once per ingestion run
// and answers nearest-neighbor queries in bulk.
type Index struct {
	corpus []model.TerritoryAssignment

	vocab     map[string]int
	idf       []float64
	postings  [][]posting // term -> documents containing it
	chunkSize int
}

type posting struct {
	doc    int
	weight float64
}

const defaultChunkSize = 1000

// NewIndex builds the index over a de-duplicated territory corpus. The
// chunk size bounds peak memory of batch queries; zero selects the default.
func NewIndex(corpus []model.TerritoryAssignment, chunkSize int) *Index {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	ix := &Index{
		corpus:    corpus,
		vocab:     make(map[string]int),
		chunkSize: chunkSize,
	}

	// Pass 1: vocabulary and document frequencies.
	df := []int{}
	docTerms := make([]map[int]int, len(corpus))
	for d, entry := range corpus {
		counts := map[int]int{}
		for _, gram := range charNgrams(entry.AddressNorm) {
			term, ok := ix.vocab[gram]
			if !ok {
				term = len(ix.vocab)
				ix.vocab[gram] = term
				df = append(df, 0)
			}
			if counts[term] == 0 {
				df[term]++
			}
			counts[term]++
		}
		docTerms[d] = counts
	}

	// Smoothed IDF: ln((1+n)/(1+df)) + 1.
	n := float64(len(corpus))
	ix.idf = make([]float64, len(df))
	for term, f := range df {
		ix.idf[term] = math.Log((1+n)/(1+float64(f))) + 1
	}

	// Pass 2: L2-normalized document vectors, stored as posting lists.
	ix.postings = make([][]posting, len(df))
	for d, counts := range docTerms {
		var norm float64
		for term, tf := range counts {
			w := float64(tf) * ix.idf[term]
			norm += w * w
		}
		if norm == 0 {
			continue
		}
		norm = math.Sqrt(norm)
		for term, tf := range counts {
			w := float64(tf) * ix.idf[term] / norm
			ix.postings[term] = append(ix.postings[term], posting{doc: d, weight: w})
		}
	}

	return ix
}

// Len returns the corpus size.
func (ix *Index) Len() int { return len(ix.corpus) }

// Entry returns the corpus entry at pos.
func (ix *Index) Entry(pos int) model.TerritoryAssignment { return ix.corpus[pos] }

// sparseVec is an L2-normalized query vector in the corpus vocabulary.
type sparseVec struct {
	terms   []int
	weights []float64
}

// vectorize projects a normalized address onto the corpus vocabulary.
// N-grams unseen during indexing carry no signal and are dropped.
func (ix *Index) vectorize(addr string) sparseVec {
	counts := map[int]int{}
	for _, gram := range charNgrams(addr) {
		if term, ok := ix.vocab[gram]; ok {
			counts[term]++
		}
	}
	if len(counts) == 0 {
		return sparseVec{}
	}

	v := sparseVec{
		terms:   make([]int, 0, len(counts)),
		weights: make([]float64, 0, len(counts)),
	}
	var norm float64
	for term, tf := range counts {
		w := float64(tf) * ix.idf[term]
		v.terms = append(v.terms, term)
		v.weights = append(v.weights, w)
		norm += w * w
	}
	norm = math.Sqrt(norm)
	for i := range v.weights {
		v.weights[i] /= norm
	}
	return v
}

// Best returns the single best-matching corpus entry for one query, or
// Pos == -1 when nothing scores above zero.
func (ix *Index) Best(addr string) Candidate {
	scores := make([]float64, len(ix.corpus))
	return ix.bestInto(addr, scores)
}

// BestBatch scores a batch of queries, one candidate per query in input
// order. Queries are processed in fixed-size chunks so peak memory stays
// proportional to chunk_size regardless of batch length.
func (ix *Index) BestBatch(queries []string) []Candidate {
	out := make([]Candidate, len(queries))
	scores := make([]float64, len(ix.corpus))

	for start := 0; start < len(queries); start += ix.chunkSize {
		end := min(start+ix.chunkSize, len(queries))
		for i := start; i < end; i++ {
			out[i] = ix.bestInto(queries[i], scores)
		}
	}
	return out
}

// TopN returns the n highest-scoring corpus entries for one query, best
// first. Used by the single-record refinement path.
func (ix *Index) TopN(addr string, n int) []Candidate {
	scores := make([]float64, len(ix.corpus))
	touched := ix.accumulate(addr, scores)
	if len(touched) == 0 {
		return nil
	}

	cands := make([]Candidate, 0, len(touched))
	for _, doc := range touched {
		cands = append(cands, Candidate{Pos: doc, Score: scores[doc]})
		scores[doc] = 0
	}
	// Equal scores break toward the lower corpus position so results never
	// depend on accumulation order.
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].Score != cands[j].Score {
			return cands[i].Score > cands[j].Score
		}
		return cands[i].Pos < cands[j].Pos
	})
	if len(cands) > n {
		cands = cands[:n]
	}
	return cands
}

// bestInto scores one query using a reusable accumulator. An exact score tie
// goes to the lower corpus position, keeping results independent of
// accumulation order.
func (ix *Index) bestInto(addr string, scores []float64) Candidate {
	touched := ix.accumulate(addr, scores)
	best := Candidate{Pos: -1}
	for _, doc := range touched {
		s := scores[doc]
		if s > best.Score || (s == best.Score && best.Pos >= 0 && doc < best.Pos) {
			best = Candidate{Pos: doc, Score: s}
		}
		scores[doc] = 0
	}
	return best
}

// accumulate adds the query's cosine contributions into scores via the
// posting lists and returns the touched document ids. Callers must zero the
// touched entries before reuse.
func (ix *Index) accumulate(addr string, scores []float64) []int {
	v := ix.vectorize(addr)
	var touched []int
	for i, term := range v.terms {
		w := v.weights[i]
		for _, p := range ix.postings[term] {
			if scores[p.doc] == 0 {
				touched = append(touched, p.doc)
			}
			scores[p.doc] += w * p.weight
		}
	}
	return touched
}

// charNgrams returns all character bigrams and trigrams of s, spaces
// included, matching a char-analyzer with ngram range (2,3).
func charNgrams(s string) []string {
	runes := []rune(s)
	if len(runes) < 2 {
		return nil
	}
	grams := make([]string, 0, 2*len(runes))
	for i := 0; i+2 <= len(runes); i++ {
		grams = append(grams, string(runes[i:i+2]))
	}
	for i := 0; i+3 <= len(runes); i++ {
		grams = append(grams, string(runes[i:i+3]))
	}
	return grams
}
