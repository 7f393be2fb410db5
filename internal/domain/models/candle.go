package models

import (
	"math"
	"time"
)

// Candle is one OHLCV bar. Candles are read-only once produced.
type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// TypicalPrice is (high + low + close) / 3.
func (c Candle) TypicalPrice() float64 {
	return (c.High + c.Low + c.Close) / 3
}

// IsConsistent reports whether the bar has finite positive prices with open and close inside [low, high].
func (c Candle) IsConsistent() bool {
	for _, v := range [...]float64{c.Open, c.High, c.Low, c.Close, c.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	if c.Low <= 0 || c.High < c.Low || c.Volume < 0 {
		return false
	}
	return c.Open >= c.Low && c.Open <= c.High && c.Close >= c.Low && c.Close <= c.High
}

// Contains reports whether price lies inside [low, high].
func (c Candle) Contains(price float64) bool {
	return price >= c.Low && price <= c.High
}

// CandleColor is the body direction of the latest bar.
type CandleColor string

const (
	CandleGreen CandleColor = "green"
	CandleRed   CandleColor = "red"
	CandleDoji  CandleColor = "doji"
)

// ColorOf returns the body color of c.
func ColorOf(c Candle) CandleColor {
	switch {
	case c.Close > c.Open:
		return CandleGreen
	case c.Close < c.Open:
		return CandleRed
	default:
		return CandleDoji
	}
}

// PriceContext is the live quote used to derive gaps and liquidity.
type PriceContext struct {
	Symbol      string    `json:"symbol"`
	CompanyName string    `json:"companyName,omitempty"`
	Price       float64   `json:"price"`
	PrevClose   float64   `json:"prevClose"`
	DayOpen     float64   `json:"dayOpen"`
	MarketCap   float64   `json:"marketCap"`
	AsOf        time.Time `json:"asOf"`
}

// Fundamentals are the business-quality inputs of the long-term evaluator.
// Nil pointers mean the field was not reported.
type Fundamentals struct {
	RevenueGrowthPct *float64 `json:"revenueGrowthPct,omitempty"`
	ProfitGrowthPct  *float64 `json:"profitGrowthPct,omitempty"`
	DebtToEquity     *float64 `json:"debtToEquity,omitempty"`
	ROEPct           *float64 `json:"roePct,omitempty"`
	// MarketPosition is "leader", "challenger" or "niche".
	MarketPosition string `json:"marketPosition,omitempty"`
	// AnalystTone is "positive", "neutral" or "negative".
	AnalystTone string `json:"analystTone,omitempty"`
}
