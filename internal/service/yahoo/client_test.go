package yahoo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	drepo "NSEScan/internal/domain/repository"
	pkghttp "NSEScan/pkg/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(pkghttp.NewClient(pkghttp.WithTimeout(2*time.Second)),
		WithBaseURLs(srv.URL+"/chart", srv.URL+"/quote", srv.URL+"/summary"))
}

const chartBody = `{"chart":{"result":[{"meta":{"regularMarketPrice":101},
"timestamp":[1741146300,1741146360,1741146420],
"indicators":{"quote":[{"open":[100,null,101],"high":[101,102,102],"low":[99,100,100.5],"close":[100.5,101,101.5],"volume":[1000,2000,null]}]}}],"error":null}}`

func TestTicker(t *testing.T) {
	c := New(pkghttp.NewClient())
	assert.Equal(t, "RELIANCE.NS", c.Ticker(" reliance "))
	assert.Equal(t, "^NSEI", c.Ticker("^NSEI"))
	assert.Equal(t, "TCS.BO", c.Ticker("TCS.BO"))
}

func TestFetchCandlesDropsIncompleteBars(t *testing.T) {
	var gotPath, gotRange, gotInterval string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotRange = r.URL.Query().Get("range")
		gotInterval = r.URL.Query().Get("interval")
		_, _ = w.Write([]byte(chartBody))
	})

	candles, err := c.FetchCandles(context.Background(), "INFY", 2, drepo.CandleQuery{Interval: drepo.Interval1m, Range: "5d"})
	require.NoError(t, err)

	assert.Equal(t, "/chart/INFY.NS", gotPath)
	assert.Equal(t, "5d", gotRange)
	assert.Equal(t, "1m", gotInterval)
	require.Len(t, candles, 2)
	assert.Equal(t, 100.0, candles[0].Open)
	assert.Equal(t, 0.0, candles[1].Volume, "missing volume reads as zero")
	assert.True(t, candles[0].Timestamp.Before(candles[1].Timestamp))
}

func TestFetchCandlesUsesPeriodWindow(t *testing.T) {
	var p1, p2, rng string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		p1, p2, rng = r.URL.Query().Get("period1"), r.URL.Query().Get("period2"), r.URL.Query().Get("range")
		_, _ = w.Write([]byte(chartBody))
	})
	from := time.Unix(1741146000, 0)
	_, err := c.FetchCandles(context.Background(), "INFY", 1, drepo.CandleQuery{
		Interval: drepo.Interval5m, From: from, To: from.Add(6 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, "1741146000", p1)
	assert.Equal(t, "1741167600", p2)
	assert.Empty(t, rng)
}

func TestFetchCandlesInsufficient(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(chartBody))
	})
	_, err := c.FetchCandles(context.Background(), "INFY", 30, drepo.CandleQuery{})
	assert.True(t, errors.Is(err, ErrInsufficientCandles))
}

func TestFetchCandlesEmptyWindow(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"chart":{"result":[{"meta":{"regularMarketPrice":101},"indicators":{"quote":[]}}],"error":null}}`))
	})
	from := time.Date(2025, 3, 14, 3, 45, 0, 0, time.UTC)
	candles, err := c.FetchCandles(context.Background(), "INFY", 0, drepo.CandleQuery{
		Interval: drepo.Interval1m,
		From:     from,
		To:       from.Add(6 * time.Hour),
	})
	require.NoError(t, err)
	assert.Empty(t, candles)
}

func TestFetchCandlesNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`))
	})
	_, err := c.FetchCandles(context.Background(), "NOPE", 1, drepo.CandleQuery{})
	assert.True(t, errors.Is(err, ErrSymbolNotFound))
}

func TestFetchPriceContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "TCS.NS", r.URL.Query().Get("symbols"))
		_, _ = w.Write([]byte(`{"quoteResponse":{"result":[{"symbol":"TCS.NS","shortName":"TCS",
"regularMarketPrice":3500.5,"regularMarketPreviousClose":3450,"regularMarketOpen":3460,
"regularMarketTime":1741160000,"marketCap":12700000000000}],"error":null}}`))
	})

	pc, err := c.FetchPriceContext(context.Background(), "tcs")
	require.NoError(t, err)
	assert.Equal(t, "TCS", pc.Symbol)
	assert.Equal(t, "TCS", pc.CompanyName)
	assert.Equal(t, 3500.5, pc.Price)
	assert.Equal(t, 3450.0, pc.PrevClose)
	assert.Equal(t, 3460.0, pc.DayOpen)
	assert.Equal(t, 1.27e13, pc.MarketCap)
	assert.Equal(t, int64(1741160000), pc.AsOf.Unix())
}

func TestFetchPriceContextEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"quoteResponse":{"result":[],"error":null}}`))
	})
	_, err := c.FetchPriceContext(context.Background(), "TCS")
	assert.True(t, errors.Is(err, ErrSymbolNotFound))
}

func TestFetchFundamentalsScalesUnits(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/summary/HDFCBANK.NS", r.URL.Path)
		assert.Equal(t, "financialData", r.URL.Query().Get("modules"))
		_, _ = w.Write([]byte(`{"quoteSummary":{"result":[{"financialData":{
"revenueGrowth":{"raw":0.12},"earningsGrowth":{"raw":0.2},"debtToEquity":{"raw":45},
"returnOnEquity":{},"recommendationKey":"buy"}}],"error":null}}`))
	})

	f, err := c.FetchFundamentals(context.Background(), "HDFCBANK")
	require.NoError(t, err)
	require.NotNil(t, f.RevenueGrowthPct)
	assert.InDelta(t, 12, *f.RevenueGrowthPct, 1e-9)
	assert.InDelta(t, 20, *f.ProfitGrowthPct, 1e-9)
	assert.InDelta(t, 0.45, *f.DebtToEquity, 1e-9)
	assert.Nil(t, f.ROEPct)
	assert.Equal(t, "positive", f.AnalystTone)
}

func TestFetchServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	_, err := c.FetchFundamentals(context.Background(), "TCS")
	var se *pkghttp.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusTooManyRequests, se.Code)
}

func TestAnalystTone(t *testing.T) {
	assert.Equal(t, "positive", AnalystTone("strong_buy"))
	assert.Equal(t, "neutral", AnalystTone("HOLD"))
	assert.Equal(t, "negative", AnalystTone("underperform"))
	assert.Equal(t, "", AnalystTone("none"))
}
