package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"

	"github.com/grndstats/backend/internal/domain/holder"
	"github.com/grndstats/backend/internal/domain/shared"
	"github.com/grndstats/backend/internal/infrastructure/config"
)

// DuneDefaultURL is the Dune API base URL
const DuneDefaultURL = "https://api.dune.com"

const (
	defaultDunePageSize = 1000
	maxDunePages        = 100
)

// DuneClient reads the latest result of a saved Dune query and maps its
// rows to holder records.
type DuneClient struct {
	client   *Client
	baseURL  string
	queryID  string
	pageSize int
	columns  duneColumns
}

type duneColumns struct {
	id, name, addresses, metric string
}

// NewDuneClient validates cfg and creates a client
func NewDuneClient(cfg config.DuneConfig, opts ...ClientOption) (*DuneClient, error) {
	if cfg.APIKey == "" {
		return nil, shared.ConfigError("dune", "dune.api_key")
	}
	if cfg.QueryID == "" {
		return nil, shared.ConfigError("dune", "dune.query_id")
	}
	if _, err := strconv.ParseUint(cfg.QueryID, 10, 64); err != nil {
		return nil, fmt.Errorf("%w: dune.query_id must be numeric, got %q", shared.ErrConfiguration, cfg.QueryID)
	}

	baseURL := strings.TrimRight(cfg.URL, "/")
	if baseURL == "" {
		baseURL = DuneDefaultURL
	}
	pageSize := cfg.Limit
	if pageSize <= 0 {
		pageSize = defaultDunePageSize
	}

	base := []ClientOption{
		WithTimeout(cfg.Timeout),
		WithHeader("X-Dune-API-Key", cfg.APIKey),
	}
	return &DuneClient{
		client:   NewClient("dune", append(base, opts...)...),
		baseURL:  baseURL,
		queryID:  cfg.QueryID,
		pageSize: pageSize,
		columns: duneColumns{
			id:        orDefault(cfg.IDColumn, "fid"),
			name:      orDefault(cfg.NameColumn, "fname"),
			addresses: orDefault(cfg.AddressColumn, "verified_addresses"),
			metric:    orDefault(cfg.MetricColumn, "total_grnd_spent"),
		},
	}, nil
}

// LoadDataset implements holder.Source. Rows are returned in query order;
// pages are followed until the result is exhausted.
func (c *DuneClient) LoadDataset(ctx context.Context) (holder.Dataset, error) {
	var records []holder.Record
	offset := 0
	for page := 0; ; page++ {
		if page == maxDunePages {
			return holder.Dataset{}, shared.NewUpstreamError("dune", "query_results", 0,
				fmt.Errorf("result still paging after %d pages (offset %d)", maxDunePages, offset))
		}
		body, err := c.client.GetJSON(ctx, "query_results", c.resultsURL(offset))
		if err != nil {
			return holder.Dataset{}, err
		}
		if !gjson.ValidBytes(body) {
			return holder.Dataset{}, shared.NewUpstreamError("dune", "query_results", 0, errors.New("invalid JSON response"))
		}

		res := gjson.ParseBytes(body)
		if msg := res.Get("error").String(); msg != "" {
			return holder.Dataset{}, shared.NewUpstreamError("dune", "query_results", 0, errors.New(msg))
		}

		for _, row := range res.Get("result.rows").Array() {
			rec, ok := c.record(row)
			if ok {
				records = append(records, rec)
			}
		}

		next := res.Get("next_offset")
		if !next.Exists() || int(next.Int()) <= offset {
			break
		}
		offset = int(next.Int())
	}

	ds, err := holder.NewDataset(dedupe(records))
	if err != nil {
		return holder.Dataset{}, shared.NewUpstreamError("dune", "query_results", 0, err)
	}
	return ds, nil
}

func (c *DuneClient) resultsURL(offset int) string {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(c.pageSize))
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	return fmt.Sprintf("%s/api/v1/query/%s/results?%s", c.baseURL, url.PathEscape(c.queryID), q.Encode())
}

// record maps one row. Rows without an id are skipped.
func (c *DuneClient) record(row gjson.Result) (holder.Record, bool) {
	id := strings.TrimSpace(row.Get(c.columns.id).String())
	if id == "" {
		return holder.Record{}, false
	}
	metric, err := parseAmount(row.Get(c.columns.metric))
	if err != nil {
		metric = decimal.Zero
	}
	return holder.NewRecord(id, row.Get(c.columns.name).String(), addressList(row.Get(c.columns.addresses)), metric), true
}

// addressList accepts a JSON array, a JSON-encoded array string, or a single
// address string.
func addressList(v gjson.Result) []string {
	if v.Type == gjson.String {
		s := strings.TrimSpace(v.String())
		if strings.HasPrefix(s, "[") && gjson.Valid(s) {
			v = gjson.Parse(s)
		} else if s != "" {
			return []string{s}
		}
	}
	var out []string
	for _, a := range v.Array() {
		out = append(out, a.String())
	}
	return out
}

// dedupe keeps the first row for each id
func dedupe(records []holder.Record) []holder.Record {
	seen := make(map[string]struct{}, len(records))
	out := records[:0]
	for _, r := range records {
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	return out
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

var _ holder.Source = (*DuneClient)(nil)
