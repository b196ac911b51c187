package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldops/territory-cli/internal/config"
	"github.com/fieldops/territory-cli/internal/model"
)

func testMatchCfg() config.MatchConfig {
	return config.MatchConfig{
		BatchThreshold:    0.5,
		CosineFloor:       0.4,
		FastAccept:        0.85,
		CombinedThreshold: 0.7,
		TopN:              5,
		ChunkSize:         1000,
	}
}

func TestMatchBatchExact(t *testing.T) {
	corpus := []model.TerritoryAssignment{
		{Address: "서울시 강남구 역삼동 12", AddressNorm: "서울시 강남구 역삼동 12", Branch: "강남지사", Owner: "홍길동"},
		{Address: "경기도 수원시 팔달구 56", AddressNorm: "경기도 수원시 팔달구 56", Branch: "수원지사", Owner: "김철수"},
	}
	m := NewMatcher(NewIndex(corpus, 0), testMatchCfg())

	got := m.MatchBatch([]string{
		"서울시 강남구 역삼동 12",
		"경기도 수원시 팔달구 56",
	})
	require.Len(t, got, 2)

	require.NotNil(t, got[0])
	assert.Equal(t, "강남지사", got[0].Assignment.Branch)
	assert.Equal(t, "홍길동", got[0].Assignment.Owner)
	assert.InDelta(t, 1.0, got[0].Score, 1e-9)

	require.NotNil(t, got[1])
	assert.Equal(t, "수원지사", got[1].Assignment.Branch)
}

func TestMatchBatchBelowThreshold(t *testing.T) {
	corpus := []model.TerritoryAssignment{
		{AddressNorm: "서울시 강남구 역삼동 12", Branch: "강남지사"},
	}
	m := NewMatcher(NewIndex(corpus, 0), testMatchCfg())

	got := m.MatchBatch([]string{"부산광역시 해운대구 우동 99"})
	require.Len(t, got, 1)
	assert.Nil(t, got[0])
}

func TestMatchBatchGeographicReject(t *testing.T) {
	// High n-gram similarity from a shared neighborhood/street string, but
	// the leading province/city tokens are disjoint: must reject.
	corpus := []model.TerritoryAssignment{
		{AddressNorm: "경상북도 포항시 강남동 중앙로 12", Branch: "포항지사"},
	}
	cfg := testMatchCfg()
	cfg.BatchThreshold = 0 // isolate the geographic check
	m := NewMatcher(NewIndex(corpus, 0), cfg)

	got := m.MatchBatch([]string{"전라남도 나주시 강남동 중앙로 12"})
	require.Len(t, got, 1)
	assert.Nil(t, got[0])

	// Same query with an agreeing province token is accepted.
	got = m.MatchBatch([]string{"경상북도 포항시 강남동 중앙로 12"})
	require.NotNil(t, got[0])
	assert.Equal(t, "포항지사", got[0].Assignment.Branch)
}

func TestMatchBatchEmptyCorpus(t *testing.T) {
	m := NewMatcher(NewIndex(nil, 0), testMatchCfg())
	got := m.MatchBatch([]string{"서울시 강남구 역삼동 12"})
	require.Len(t, got, 1)
	assert.Nil(t, got[0])
}

func TestMatchOneFastAccept(t *testing.T) {
	corpus := []model.TerritoryAssignment{
		{AddressNorm: "서울시 강남구 역삼동 테헤란로 152", Branch: "강남지사", Owner: "홍길동"},
		{AddressNorm: "경기도 수원시 팔달구 중부대로 56", Branch: "수원지사", Owner: "김철수"},
	}
	m := NewMatcher(NewIndex(corpus, 0), testMatchCfg())

	got := m.MatchOne("서울시 강남구 역삼동 테헤란로 152")
	require.NotNil(t, got)
	assert.Equal(t, "강남지사", got.Assignment.Branch)
	assert.GreaterOrEqual(t, got.Score, 0.85)
}

func TestMatchOneTypoRefinement(t *testing.T) {
	corpus := []model.TerritoryAssignment{
		{AddressNorm: "서울시 강남구 역삼동 테헤란로 152", Branch: "강남지사"},
		{AddressNorm: "경기도 수원시 팔달구 중부대로 56", Branch: "수원지사"},
	}
	m := NewMatcher(NewIndex(corpus, 0), testMatchCfg())

	// Transposed digits: edit distance stays high even when n-grams dip.
	got := m.MatchOne("서울시 강남구 역삼동 테헤란로 125")
	require.NotNil(t, got)
	assert.Equal(t, "강남지사", got.Assignment.Branch)
	assert.GreaterOrEqual(t, got.Score, 0.7)
}

func TestMatchOneBelowFloor(t *testing.T) {
	corpus := []model.TerritoryAssignment{
		{AddressNorm: "서울시 강남구 역삼동 테헤란로 152", Branch: "강남지사"},
	}
	m := NewMatcher(NewIndex(corpus, 0), testMatchCfg())

	assert.Nil(t, m.MatchOne("부산광역시 해운대구 우동 99"))
	assert.Nil(t, m.MatchOne(""))
}

func TestMatchDeterministic(t *testing.T) {
	corpus := []model.TerritoryAssignment{
		{AddressNorm: "서울시 강남구 역삼동 12", Branch: "강남지사"},
		{AddressNorm: "서울시 서초구 서초동 34", Branch: "서초지사"},
	}
	queries := []string{"서울시 강남구 역삼동 12", "서울시 서초구 서초동 3", "강원도 춘천시 중앙로 1"}

	a := NewMatcher(NewIndex(corpus, 0), testMatchCfg()).MatchBatch(queries)
	b := NewMatcher(NewIndex(corpus, 0), testMatchCfg()).MatchBatch(queries)
	require.Len(t, b, len(a))
	for i := range a {
		if a[i] == nil {
			assert.Nil(t, b[i])
			continue
		}
		require.NotNil(t, b[i])
		assert.Equal(t, a[i].Assignment.Branch, b[i].Assignment.Branch)
		assert.InDelta(t, a[i].Score, b[i].Score, 1e-12)
	}
}
