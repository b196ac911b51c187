package localdata

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldops/territory-cli/internal/config"
	"github.com/fieldops/territory-cli/internal/model"
)

func testConfig(baseURL string) config.APIConfig {
	return config.APIConfig{
		BaseURL:     baseURL,
		AuthKey:     "test-key",
		PageSize:    1000,
		TimeoutSecs: 5,
		RateLimit:   1000, // don't throttle tests
	}
}

func okResponse(rows string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<result>
  <header>
    <resultCode>00</resultCode>
    <resultMsg>NORMAL</resultMsg>
  </header>
  <body>
    <rows>` + rows + `</rows>
  </body>
</result>`
}

func TestFetchMapsRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("authKey"))
		assert.Equal(t, "6110000", r.URL.Query().Get("localCode"))
		fmt.Fprint(w, okResponse(`
      <row>
        <bplcNm>ABC식당</bplcNm>
        <siteWhlAddr>서울시 강남구 역삼동 12</siteWhlAddr>
        <rdnWhlAddr>서울시 강남구 테헤란로 5</rdnWhlAddr>
        <siteTel>02-123-4567</siteTel>
        <uptaeNm>일반음식점</uptaeNm>
        <trdStateNm>영업/정상</trdStateNm>
        <apvPermYmd>2020-03-01</apvPermYmd>
        <totArea>66.12</totArea>
        <x>203123.5</x>
        <y>452678.9</y>
      </row>`))
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL))
	records, err := c.Fetch(context.Background(), "6110000", "20200101", "20200131")
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "ABC식당", rec.Name)
	assert.Equal(t, "서울시 강남구 역삼동 12", rec.Address)
	assert.Equal(t, "서울시 강남구 테헤란로 5", rec.RoadAddress)
	assert.Equal(t, model.StatusOperating, rec.Status)
	require.NotNil(t, rec.PermitDate)
	assert.Equal(t, 2020, rec.PermitDate.Year())
	require.NotNil(t, rec.TotalArea)
	assert.InDelta(t, 66.12, *rec.TotalArea, 1e-9)
	require.NotNil(t, rec.X)
	assert.InDelta(t, 203123.5, *rec.X, 1e-9)
}

func TestFetchUpperSnakeTags(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, okResponse(`
      <row>
        <BPLC_NM>김밥천국</BPLC_NM>
        <SITE_WHL_ADDR>경기도 수원시 팔달구 56</SITE_WHL_ADDR>
        <TRD_STATE_NM>폐업</TRD_STATE_NM>
      </row>`))
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL))
	records, err := c.Fetch(context.Background(), "6410000", "20200101", "20200131")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "김밥천국", records[0].Name)
	assert.Equal(t, "경기도 수원시 팔달구 56", records[0].Address)
	assert.Equal(t, model.StatusClosed, records[0].Status)
}

func TestFetchPagination(t *testing.T) {
	var pages []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("pageIndex")
		pages = append(pages, page)
		if page == "1" {
			// Full page: client must ask for the next one.
			var b strings.Builder
			for i := 0; i < 2; i++ {
				fmt.Fprintf(&b, "<row><bplcNm>p1-%d</bplcNm></row>", i)
			}
			fmt.Fprint(w, okResponse(b.String()))
			return
		}
		fmt.Fprint(w, okResponse(`<row><bplcNm>p2-0</bplcNm></row>`))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.PageSize = 2
	c := New(cfg)

	records, err := c.Fetch(context.Background(), "6110000", "20200101", "20200131")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, pages)
	require.Len(t, records, 3)
	assert.Equal(t, "p2-0", records[2].Name)
}

func TestFetchAPILogicError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?>
<result>
  <header>
    <resultCode>30</resultCode>
    <resultMsg>인증키가 유효하지 않습니다</resultMsg>
  </header>
</result>`)
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL))
	_, err := c.Fetch(context.Background(), "6110000", "20200101", "20200131")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api error 30")
	assert.Contains(t, err.Error(), "인증키가 유효하지 않습니다")
}

func TestFetchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(testConfig(srv.URL))
	_, err := c.Fetch(context.Background(), "6110000", "20200101", "20200131")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 502")
}

func TestFetchMissingAuthKey(t *testing.T) {
	cfg := testConfig("http://unused.invalid")
	cfg.AuthKey = ""
	c := New(cfg)

	_, err := c.Fetch(context.Background(), "6110000", "20200101", "20200131")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth key")
}
