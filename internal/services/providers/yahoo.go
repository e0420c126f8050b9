package providers

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"FinCast/internal/domain/models"
	xhttp "FinCast/pkg/http"
)

// Yahoo reads the v8 chart API. It is the secondary source.
type Yahoo struct {
	client  *xhttp.Client
	baseURL string
}

func NewYahoo(client *xhttp.Client, baseURL string) *Yahoo {
	return &Yahoo{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

func (y *Yahoo) Name() string          { return NameYahoo }
func (y *Yahoo) Source() models.Source { return models.SourceSecondary }
func (y *Yahoo) Label() string         { return "Yahoo Finance" }

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
		AdjClose []struct {
			AdjClose []*float64 `json:"adjclose"`
		} `json:"adjclose"`
	} `json:"indicators"`
}

// YahooSymbol drops the exchange suffix Stooq-style symbols carry.
func YahooSymbol(symbol string) string {
	return strings.TrimSuffix(strings.ToUpper(symbol), ".US")
}

func (y *Yahoo) Fetch(ctx context.Context, symbol string, start, end time.Time) (*models.RawTable, error) {
	var resp chartResponse
	err := y.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    y.baseURL + "/v8/finance/chart/" + url.PathEscape(YahooSymbol(symbol)),
		QueryParams: map[string][]string{
			"period1":  {strconv.FormatInt(start.Unix(), 10)},
			"period2":  {strconv.FormatInt(end.AddDate(0, 0, 1).Unix(), 10)},
			"interval": {"1d"},
		},
		Headers: map[string]string{"Accept": "application/json"},
	}, &resp)
	if err != nil {
		return nil, miss(ctx, y.Name(), err)
	}
	if e := resp.Chart.Error; e != nil {
		return nil, miss(ctx, y.Name(), fmt.Errorf("%s: %s", e.Code, e.Description))
	}
	if len(resp.Chart.Result) == 0 {
		return nil, miss(ctx, y.Name(), fmt.Errorf("empty chart result"))
	}

	t := chartTable(resp.Chart.Result[0])
	if t.Len() == 0 {
		return nil, miss(ctx, y.Name(), fmt.Errorf("no rows"))
	}
	return t, nil
}

// chartTable flattens the column arrays into rows. Days without a close are
// holidays or halts in this API and are skipped.
func chartTable(r chartResult) *models.RawTable {
	t := &models.RawTable{Columns: []string{models.ColDate, models.ColOpen, models.ColHigh, models.ColLow, models.ColClose}}
	if len(r.Indicators.Quote) == 0 {
		return t
	}
	q := r.Indicators.Quote[0]
	var adj []*float64
	if len(r.Indicators.AdjClose) > 0 {
		adj = r.Indicators.AdjClose[0].AdjClose
		t.AddColumn(models.ColAdjClose)
	}
	if len(q.Volume) > 0 {
		t.AddColumn(models.ColVolume)
	}

	for i, ts := range r.Timestamp {
		c := at(q.Close, i)
		if c == nil {
			continue
		}
		row := map[string]any{
			models.ColDate:  time.Unix(ts, 0).UTC(),
			models.ColClose: *c,
		}
		put(row, models.ColOpen, at(q.Open, i))
		put(row, models.ColHigh, at(q.High, i))
		put(row, models.ColLow, at(q.Low, i))
		put(row, models.ColAdjClose, at(adj, i))
		put(row, models.ColVolume, at(q.Volume, i))
		t.Rows = append(t.Rows, row)
	}
	return t
}

func at(s []*float64, i int) *float64 {
	if i < len(s) {
		return s[i]
	}
	return nil
}

func put(row map[string]any, col string, v *float64) {
	if v != nil {
		row[col] = *v
	}
}
