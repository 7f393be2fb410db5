// Package yahoo implements MarketData over the Yahoo Finance chart, quote and quoteSummary endpoints.
package yahoo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"NSEScan/internal/domain/models"
	drepo "NSEScan/internal/domain/repository"
	pkghttp "NSEScan/pkg/http"
)

// ErrInsufficientCandles is returned when the provider has fewer candles than requested.
var ErrInsufficientCandles = errors.New("insufficient candles")

// ErrSymbolNotFound is returned when the provider knows nothing about a symbol.
var ErrSymbolNotFound = errors.New("symbol not found")

// Client implements drepo.MarketData.
type Client struct {
	http       *pkghttp.Client
	chartURL   string
	quoteURL   string
	summaryURL string
	suffix     string
}

type Option func(*Client)

// WithBaseURLs overrides the chart, quote and quoteSummary endpoints.
func WithBaseURLs(chart, quote, summary string) Option {
	return func(c *Client) {
		if chart != "" {
			c.chartURL = strings.TrimRight(chart, "/")
		}
		if quote != "" {
			c.quoteURL = strings.TrimRight(quote, "/")
		}
		if summary != "" {
			c.summaryURL = strings.TrimRight(summary, "/")
		}
	}
}

// WithExchangeSuffix sets the suffix appended to bare NSE symbols.
func WithExchangeSuffix(s string) Option {
	return func(c *Client) { c.suffix = s }
}

func New(httpClient *pkghttp.Client, opts ...Option) *Client {
	c := &Client{
		http:       httpClient,
		chartURL:   "https://query1.finance.yahoo.com/v8/finance/chart",
		quoteURL:   "https://query1.finance.yahoo.com/v7/finance/quote",
		summaryURL: "https://query2.finance.yahoo.com/v10/finance/quoteSummary",
		suffix:     ".NS",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ drepo.MarketData = (*Client)(nil)

// Ticker maps an NSE symbol to the provider ticker. Index and already-suffixed symbols pass through.
func (c *Client) Ticker(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if s == "" || strings.HasPrefix(s, "^") || strings.Contains(s, ".") {
		return s
	}
	return s + c.suffix
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				ChartPreviousClose float64 `json:"chartPreviousClose"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *apiError `json:"error"`
	} `json:"chart"`
}

type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (e *apiError) err(symbol string) error {
	if strings.EqualFold(e.Code, "Not Found") {
		return fmt.Errorf("%s: %w", symbol, ErrSymbolNotFound)
	}
	return fmt.Errorf("%s: %s: %s", symbol, e.Code, e.Description)
}

// FetchCandles returns candles oldest first. Bars with missing fields are dropped.
func (c *Client) FetchCandles(ctx context.Context, symbol string, minPeriods int, q drepo.CandleQuery) ([]models.Candle, error) {
	iv := q.Interval
	if iv == "" {
		iv = drepo.Interval1d
	}
	params := map[string][]string{
		"interval":       {string(iv)},
		"includePrePost": {"false"},
	}
	if !q.From.IsZero() && !q.To.IsZero() {
		params["period1"] = []string{strconv.FormatInt(q.From.Unix(), 10)}
		params["period2"] = []string{strconv.FormatInt(q.To.Unix(), 10)}
	} else {
		rng := q.Range
		if rng == "" {
			rng = "6mo"
		}
		params["range"] = []string{rng}
	}

	var resp chartResponse
	err := c.http.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method:      pkghttp.MethodGet,
		URL:         c.chartURL + "/" + c.Ticker(symbol),
		QueryParams: params,
	}, &resp)
	if err != nil {
		return nil, c.wrap(symbol, "chart", err)
	}
	if resp.Chart.Error != nil {
		return nil, resp.Chart.Error.err(symbol)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrSymbolNotFound)
	}

	res := resp.Chart.Result[0]
	out := make([]models.Candle, 0, len(res.Timestamp))
	if len(res.Indicators.Quote) == 0 {
		// A window without trading, e.g. a holiday.
		res.Timestamp = nil
	}
	for i, ts := range res.Timestamp {
		quote := res.Indicators.Quote[0]
		o, okO := at(quote.Open, i)
		h, okH := at(quote.High, i)
		l, okL := at(quote.Low, i)
		cl, okC := at(quote.Close, i)
		if !okO || !okH || !okL || !okC {
			continue
		}
		v, _ := at(quote.Volume, i)
		out = append(out, models.Candle{
			Timestamp: time.Unix(ts, 0).UTC(),
			Open:      o,
			High:      h,
			Low:       l,
			Close:     cl,
			Volume:    v,
		})
	}

	if len(out) < minPeriods {
		return nil, fmt.Errorf("%s: got %d candles, need %d: %w", symbol, len(out), minPeriods, ErrInsufficientCandles)
	}
	return out, nil
}

func at(vals []*float64, i int) (float64, bool) {
	if i >= len(vals) || vals[i] == nil {
		return 0, false
	}
	v := *vals[i]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

type quoteResponse struct {
	QuoteResponse struct {
		Result []struct {
			Symbol                     string  `json:"symbol"`
			LongName                   string  `json:"longName"`
			ShortName                  string  `json:"shortName"`
			RegularMarketPrice         float64 `json:"regularMarketPrice"`
			RegularMarketPreviousClose float64 `json:"regularMarketPreviousClose"`
			RegularMarketOpen          float64 `json:"regularMarketOpen"`
			RegularMarketTime          int64   `json:"regularMarketTime"`
			MarketCap                  float64 `json:"marketCap"`
		} `json:"result"`
		Error *apiError `json:"error"`
	} `json:"quoteResponse"`
}

// FetchPriceContext returns the live quote of symbol.
func (c *Client) FetchPriceContext(ctx context.Context, symbol string) (models.PriceContext, error) {
	var resp quoteResponse
	err := c.http.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method:      pkghttp.MethodGet,
		URL:         c.quoteURL,
		QueryParams: map[string][]string{"symbols": {c.Ticker(symbol)}},
	}, &resp)
	if err != nil {
		return models.PriceContext{}, c.wrap(symbol, "quote", err)
	}
	if resp.QuoteResponse.Error != nil {
		return models.PriceContext{}, resp.QuoteResponse.Error.err(symbol)
	}
	if len(resp.QuoteResponse.Result) == 0 {
		return models.PriceContext{}, fmt.Errorf("%s: %w", symbol, ErrSymbolNotFound)
	}

	q := resp.QuoteResponse.Result[0]
	name := q.LongName
	if name == "" {
		name = q.ShortName
	}
	pc := models.PriceContext{
		Symbol:      strings.ToUpper(strings.TrimSpace(symbol)),
		CompanyName: name,
		Price:       q.RegularMarketPrice,
		PrevClose:   q.RegularMarketPreviousClose,
		DayOpen:     q.RegularMarketOpen,
		MarketCap:   q.MarketCap,
	}
	if q.RegularMarketTime > 0 {
		pc.AsOf = time.Unix(q.RegularMarketTime, 0).UTC()
	}
	return pc, nil
}

type rawValue struct {
	Raw *float64 `json:"raw"`
}

type summaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			FinancialData struct {
				RevenueGrowth     rawValue `json:"revenueGrowth"`
				EarningsGrowth    rawValue `json:"earningsGrowth"`
				DebtToEquity      rawValue `json:"debtToEquity"`
				ReturnOnEquity    rawValue `json:"returnOnEquity"`
				RecommendationKey string   `json:"recommendationKey"`
			} `json:"financialData"`
		} `json:"result"`
		Error *apiError `json:"error"`
	} `json:"quoteSummary"`
}

// FetchFundamentals returns growth, leverage and analyst inputs. Yahoo reports
// growth and ROE as fractions and debt/equity as a percentage.
func (c *Client) FetchFundamentals(ctx context.Context, symbol string) (*models.Fundamentals, error) {
	var resp summaryResponse
	err := c.http.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method:      pkghttp.MethodGet,
		URL:         c.summaryURL + "/" + c.Ticker(symbol),
		QueryParams: map[string][]string{"modules": {"financialData"}},
	}, &resp)
	if err != nil {
		return nil, c.wrap(symbol, "quoteSummary", err)
	}
	if resp.QuoteSummary.Error != nil {
		return nil, resp.QuoteSummary.Error.err(symbol)
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrSymbolNotFound)
	}

	fd := resp.QuoteSummary.Result[0].FinancialData
	return &models.Fundamentals{
		RevenueGrowthPct: scaled(fd.RevenueGrowth.Raw, 100),
		ProfitGrowthPct:  scaled(fd.EarningsGrowth.Raw, 100),
		DebtToEquity:     scaled(fd.DebtToEquity.Raw, 0.01),
		ROEPct:           scaled(fd.ReturnOnEquity.Raw, 100),
		AnalystTone:      AnalystTone(fd.RecommendationKey),
	}, nil
}

func scaled(p *float64, factor float64) *float64 {
	if p == nil || math.IsNaN(*p) || math.IsInf(*p, 0) {
		return nil
	}
	return models.Float(*p * factor)
}

// AnalystTone maps a Yahoo recommendation key to positive, neutral or negative.
func AnalystTone(key string) string {
	switch strings.ToLower(key) {
	case "strong_buy", "buy":
		return "positive"
	case "hold":
		return "neutral"
	case "underperform", "sell", "strong_sell":
		return "negative"
	default:
		return ""
	}
}

func (c *Client) wrap(symbol, endpoint string, err error) error {
	var se *pkghttp.StatusError
	if errors.As(err, &se) && se.Code == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", endpoint, symbol, ErrSymbolNotFound)
	}
	return fmt.Errorf("%s %s: %w", endpoint, symbol, err)
}
