// Package localdata fetches business registration events from the
// localdata.go.kr open-data API and maps them onto the pipeline's record
// shape.
package localdata

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/time/rate"

	"github.com/fieldops/territory-cli/internal/config"
	"github.com/fieldops/territory-cli/internal/model"
)

// Fetcher abstracts the API for the ingest command and tests.
type Fetcher interface {
	Fetch(ctx context.Context, localCode, startYmd, endYmd string) ([]model.RawBusinessRecord, error)
}

// Client talks to the localdata open-data API.
type Client struct {
	cfg     config.APIConfig
	http    *http.Client
	limiter *rate.Limiter
}

var _ Fetcher = (*Client)(nil)

// New creates a Client from configuration.
func New(cfg config.APIConfig) *Client {
	rps := cfg.RateLimit
	if rps <= 0 {
		rps = 2
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: time.Duration(cfg.TimeoutSecs) * time.Second},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// Fetch retrieves all rows for a local authority and date window, following
// pagination until a short page. A non-2xx status or an API-reported logic
// error yields an error and zero rows.
func (c *Client) Fetch(ctx context.Context, localCode, startYmd, endYmd string) ([]model.RawBusinessRecord, error) {
	if c.cfg.AuthKey == "" {
		return nil, eris.New("localdata: auth key is required")
	}

	pageSize := c.cfg.PageSize
	if pageSize <= 0 {
		pageSize = 1000
	}

	var records []model.RawBusinessRecord
	for page := 1; ; page++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "localdata: rate limit wait")
		}

		rows, err := c.fetchPage(ctx, localCode, startYmd, endYmd, page, pageSize)
		if err != nil {
			return nil, err
		}

		for _, row := range rows {
			records = append(records, row.toRecord())
		}

		if len(rows) < pageSize {
			break
		}
	}

	zap.L().Info("localdata: fetch complete",
		zap.String("local_code", localCode),
		zap.Int("rows", len(records)),
	)
	return records, nil
}

func (c *Client) fetchPage(ctx context.Context, localCode, startYmd, endYmd string, page, pageSize int) ([]rowMap, error) {
	q := url.Values{}
	q.Set("authKey", c.cfg.AuthKey)
	q.Set("localCode", localCode)
	q.Set("bgnYmd", startYmd)
	q.Set("endYmd", endYmd)
	q.Set("resultType", "xml")
	q.Set("pageIndex", strconv.Itoa(page))
	q.Set("pageSize", strconv.Itoa(pageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "localdata: build request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "localdata: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, eris.Errorf("localdata: unexpected status %d", resp.StatusCode)
	}

	return parseResponse(resp.Body)
}

// parseResponse decodes one API response page, checking the logic-error
// header before collecting rows.
func parseResponse(r io.Reader) ([]rowMap, error) {
	decoder := xml.NewDecoder(r)
	decoder.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		enc, err := htmlindex.Get(charset)
		if err != nil {
			return nil, eris.Wrapf(err, "localdata: unsupported charset %q", charset)
		}
		return enc.NewDecoder().Reader(input), nil
	}

	var rows []rowMap
	var resultCode, resultMsg string

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "localdata: decode response")
		}

		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch se.Name.Local {
		case "resultCode":
			if err := decoder.DecodeElement(&resultCode, &se); err != nil {
				return nil, eris.Wrap(err, "localdata: decode result code")
			}
		case "resultMsg":
			if err := decoder.DecodeElement(&resultMsg, &se); err != nil {
				return nil, eris.Wrap(err, "localdata: decode result message")
			}
		case "row", "item":
			var row rowMap
			if err := decoder.DecodeElement(&row, &se); err != nil {
				return nil, eris.Wrap(err, "localdata: decode row")
			}
			rows = append(rows, row)
		}
	}

	if resultCode != "" && resultCode != "00" {
		msg := resultMsg
		if msg == "" {
			msg = "unknown"
		}
		return nil, eris.Errorf("localdata: api error %s: %s", resultCode, msg)
	}

	return rows, nil
}

// rowMap collects one row's child elements by tag name. The API spells tags
// in camelCase or UPPER_SNAKE depending on endpoint vintage, so lookups try
// both.
type rowMap map[string]string

func (m *rowMap) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	out := rowMap{}
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			var value string
			if err := d.DecodeElement(&value, &t); err != nil {
				return err
			}
			out[t.Name.Local] = value
		case xml.EndElement:
			if t.Name == start.Name {
				*m = out
				return nil
			}
		}
	}
}

func (m rowMap) pick(tags ...string) string {
	for _, tag := range tags {
		if v, ok := m[tag]; ok && v != "" {
			return v
		}
	}
	return ""
}

func (m rowMap) pickFloat(tags ...string) *float64 {
	raw := m.pick(tags...)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

func (m rowMap) toRecord() model.RawBusinessRecord {
	statusRaw := m.pick("trdStateNm", "TRD_STATE_NM")
	return model.RawBusinessRecord{
		Name:         m.pick("bplcNm", "BPLC_NM"),
		Address:      m.pick("siteWhlAddr", "SITE_WHL_ADDR"),
		RoadAddress:  m.pick("rdnWhlAddr", "RDN_WHL_ADDR"),
		Phone:        m.pick("siteTel", "SITE_TEL"),
		Category:     m.pick("uptaeNm", "UPTAE_NM"),
		StatusRaw:    statusRaw,
		Status:       model.ParseStatus(statusRaw),
		PermitDate:   model.ParseDate(m.pick("apvPermYmd", "APV_PERM_YMD")),
		CloseDate:    model.ParseDate(m.pick("dcbYmd", "DCB_YMD")),
		ReopenDate:   model.ParseDate(m.pick("ropnYmd", "ROPN_YMD")),
		LastModified: model.ParseDate(m.pick("updateDt", "UPDATE_DT", "lastModTs", "LAST_MOD_TS")),
		SiteArea:     m.pickFloat("siteArea", "SITE_AREA"),
		TotalArea:    m.pickFloat("totArea", "TOT_AREA"),
		X:            m.pickFloat("x", "X"),
		Y:            m.pickFloat("y", "Y"),
	}
}

// String renders the client target for diagnostics.
func (c *Client) String() string {
	return fmt.Sprintf("localdata(%s)", c.cfg.BaseURL)
}
