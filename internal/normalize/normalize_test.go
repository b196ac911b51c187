package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddress(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"trims whitespace", "  서울시 강남구 역삼동  ", "서울시 강남구 역삼동"},
		{"strips parenthetical", "서울시 강남구 역삼동 12 (1층 101호)", "서울시 강남구 역삼동 12"},
		{"rewrites gangwon", "강원특별자치도 춘천시 중앙로", "강원도 춘천시 중앙로"},
		{"rewrites sejong", "세종특별자치시 한누리대로", "세종시 한누리대로"},
		{"rewrites seoul", "서울특별시 종로구 세종대로", "서울시 종로구 세종대로"},
		{"collapses spaces", "경기도   수원시  팔달구", "경기도 수원시 팔달구"},
		{"strips hyphens", "서울시 강남구 역삼동 123-45", "서울시 강남구 역삼동 12345"},
		{"masked input rejected", "서울시 강남구 ***동", ""},
		{"too short rejected", "서울", ""},
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Address(tt.in))
		})
	}
}

func TestAddressRewriteStability(t *testing.T) {
	// The full and short administrative forms normalize identically.
	full := Address("강원특별자치도 춘천시 중앙로 1")
	short := Address("강원도 춘천시 중앙로 1")
	assert.Equal(t, short, full)
	assert.NotEmpty(t, full)
}

func TestAddressParentheticalStability(t *testing.T) {
	assert.Equal(t, Address("서울시 강남구 역삼동 12"), Address("서울시 강남구 역삼동 12 (지하 1층)"))
}

func TestGeoTokens(t *testing.T) {
	set := GeoTokens("서울시 강남구 역삼동")
	assert.Len(t, set, 2)
	assert.Contains(t, set, "서울시")
	assert.Contains(t, set, "강남구")

	single := GeoTokens("서울시")
	assert.Len(t, single, 1)

	assert.Nil(t, GeoTokens(""))
}

func TestGeoTokensIntersect(t *testing.T) {
	assert.True(t, GeoTokensIntersect("서울시 강남구 역삼동", "서울시 강남구 대치동"))
	// Same neighborhood-style name in different provinces must not intersect.
	assert.False(t, GeoTokensIntersect("경상북도 경주시 강남동", "전라남도 나주시 강남동"))
	assert.False(t, GeoTokensIntersect("", "서울시 강남구"))
}
