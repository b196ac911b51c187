package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldops/territory-cli/internal/config"
	"github.com/fieldops/territory-cli/internal/ingest"
	"github.com/fieldops/territory-cli/pkg/localdata"
)

func fetchTestClient(baseURL string) *localdata.Client {
	return localdata.New(config.APIConfig{
		BaseURL:     baseURL,
		AuthKey:     "test-key",
		PageSize:    1000,
		TimeoutSecs: 5,
		RateLimit:   1000,
	})
}

func TestFetchRowsHTTPErrorIsExternalAPIFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	rows, err := fetchRows(context.Background(), fetchTestClient(srv.URL), "6110000", "20260801", "20260831")
	assert.Nil(t, rows)
	require.Error(t, err)
	assert.Equal(t, ingest.ExternalAPIError, ingest.KindOf(err))
	assert.Equal(t, "open-data api request failed", failureMessage(err))
}

func TestFetchRowsLogicErrorIsExternalAPIFailure(t *testing.T) {
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

	rows, err := fetchRows(context.Background(), fetchTestClient(srv.URL), "6110000", "20260801", "20260831")
	assert.Nil(t, rows)
	require.Error(t, err)
	assert.Equal(t, ingest.ExternalAPIError, ingest.KindOf(err))
	assert.Contains(t, err.Error(), "api error 30")
}

func TestFetchRowsSuccessPassesThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?>
<result>
  <header><resultCode>00</resultCode><resultMsg>NORMAL</resultMsg></header>
  <body><rows>
    <row><bplcNm>ABC식당</bplcNm><siteWhlAddr>서울시 강남구 역삼동 12</siteWhlAddr></row>
  </rows></body>
</result>`)
	}))
	defer srv.Close()

	rows, err := fetchRows(context.Background(), fetchTestClient(srv.URL), "6110000", "20260801", "20260831")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "ABC식당", rows[0].Name)
}
