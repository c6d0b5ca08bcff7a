// Package ticker describes tradable instruments and joins them to scraped
// financial records by symbol.
package ticker

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/use-agent/finscrape/financials"
	"github.com/use-agent/finscrape/models"
)

// Metadata is one row of the ticker registry. Numeric fields arrive as
// display strings ("$123.45", "2500000000.00").
type Metadata struct {
	Symbol    string `json:"symbol"`
	Name      string `json:"name"`
	LastSale  string `json:"lastsale"`
	MarketCap string `json:"marketCap"`
	Country   string `json:"country"`
	IPOYear   string `json:"ipoyear,omitempty"`
	Industry  string `json:"industry,omitempty"`
	Sector    string `json:"sector,omitempty"`
}

// NormalizeSymbol maps a record's stock identifier onto the registry's
// symbol convention, which separates share classes with "/" ("BRK.B" ->
// "BRK/B").
func NormalizeSymbol(symbol string) string {
	return strings.ReplaceAll(strings.TrimSpace(symbol), ".", "/")
}

// Match returns the first registry entry whose symbol equals the
// normalised symbol. Comparison is exact, matching the registry's casing.
func Match(tickers []Metadata, symbol string) (Metadata, error) {
	want := NormalizeSymbol(symbol)
	for _, t := range tickers {
		if t.Symbol == want {
			return t, nil
		}
	}
	return Metadata{}, models.NewNotFoundError("ticker", symbol)
}

const (
	// minHealthyMarketCap is the market capitalisation above which a company
	// counts as large enough.
	minHealthyMarketCap = 500_000_000

	// minHealthyPrice is the last sale price from which a stock counts as
	// liquid enough.
	minHealthyPrice = 30
)

// Summary is the presentation-ready view of Metadata.
type Summary struct {
	Symbol    string `json:"symbol"`
	Name      string `json:"name"`
	Sector    string `json:"sector,omitempty"`
	Industry  string `json:"industry,omitempty"`
	Country   string `json:"country"`
	IPOYear   string `json:"ipo_year,omitempty"`
	MarketCap string `json:"market_cap"`
	LastSale  string `json:"last_sale"`

	// MarketCapHealthy is true when the market cap exceeds 500M USD.
	MarketCapHealthy bool `json:"market_cap_healthy"`

	// PriceHealthy is true when the last sale is at least 30 USD.
	PriceHealthy bool `json:"price_healthy"`
}

// Summarize formats m for display and evaluates the size and price thresholds.
func Summarize(m Metadata) Summary {
	marketCap, _ := financials.ParseLenient(m.MarketCap)
	price, _ := financials.ParseLenient(m.LastSale)

	return Summary{
		Symbol:           m.Symbol,
		Name:             m.Name,
		Sector:           m.Sector,
		Industry:         m.Industry,
		Country:          m.Country,
		IPOYear:          m.IPOYear,
		MarketCap:        displayUSD(marketCap),
		LastSale:         m.LastSale,
		MarketCapHealthy: marketCap > minHealthyMarketCap,
		PriceHealthy:     price >= minHealthyPrice,
	}
}

// displayUSD renders amount as dollars with grouping and drops fraction
// digits that are zero: "$2,500,000", "$1,234,567.5".
func displayUSD(amount float64) string {
	s := money.NewFromFloat(amount, money.USD).Display()
	if strings.IndexByte(s, '.') < 0 {
		return s
	}
	return strings.TrimSuffix(strings.TrimRight(s, "0"), ".")
}
