package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/finscrape/financials"
	"github.com/use-agent/finscrape/models"
	"github.com/use-agent/finscrape/scraper"
	"github.com/use-agent/finscrape/ticker"
)

// DerivedResponse carries a derived record ready for listing.
type DerivedResponse struct {
	Success bool `json:"success"`

	Symbol string `json:"symbol,omitempty"`

	// Fields is the presentation view: raw fields minus ROE and the
	// hidden inputs, followed by the computed fields.
	Fields *financials.Record `json:"fields"`

	// Issues lists required fields that were absent and counted as 0.
	Issues []*models.ErrorDetail `json:"issues,omitempty"`

	// Ticker is omitted when the registry has no match.
	Ticker *ticker.Summary `json:"ticker,omitempty"`

	CacheStatus string            `json:"cache_status,omitempty"`
	Timing      models.TimingInfo `json:"timing"`
}

// Financials returns a handler for GET /api/v1/financials/:symbol.
//
//  1. Scrape (or serve from cache) the symbol's financials page.
//  2. Derive the valuation fields.
//  3. Join registry metadata; a miss is logged and leaves Ticker empty.
func Financials(src RecordSource, tickers TickerSource, cc *RecordCache, defaultMaxAge time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()
		symbol := symbolParam(c)

		path, err := src.PathFor(scraper.KindFinancials, symbol)
		if err != nil {
			respondError(c, err)
			return
		}

		scrapeStart := time.Now()
		raw, status, err := fetchRecord(c.Request.Context(), src, cc, scraper.KindFinancials, path, maxAgeParam(c, defaultMaxAge))
		if err != nil {
			respondError(c, err)
			return
		}
		scrapeMs := time.Since(scrapeStart).Milliseconds()

		resp := derivedResponse(financials.Derive(raw))
		resp.Symbol = symbol
		resp.CacheStatus = status

		if tickers != nil {
			meta, err := tickers.Lookup(c.Request.Context(), symbol)
			if err != nil {
				slog.Warn("ticker join failed", "symbol", symbol, "error", err)
			} else {
				sum := ticker.Summarize(meta)
				resp.Ticker = &sum
			}
		}

		resp.Timing = models.TimingInfo{
			TotalMs:  time.Since(totalStart).Milliseconds(),
			ScrapeMs: scrapeMs,
		}
		c.JSON(http.StatusOK, resp)
	}
}

// Derive returns a handler for POST /api/v1/derive. The body is a raw
// record as a JSON object; its key order is kept.
func Derive() gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		body, err := c.GetRawData()
		if err != nil {
			invalidInput(c, err.Error())
			return
		}
		raw := financials.NewRecord()
		if err := json.Unmarshal(body, raw); err != nil {
			invalidInput(c, "body must be a JSON object of field names to values")
			return
		}

		resp := derivedResponse(financials.Derive(raw))
		resp.Timing = models.TimingInfo{TotalMs: time.Since(totalStart).Milliseconds()}
		c.JSON(http.StatusOK, resp)
	}
}

func derivedResponse(d *financials.Derived) DerivedResponse {
	resp := DerivedResponse{Success: true, Fields: d.Presentation()}
	for _, issue := range d.Issues {
		resp.Issues = append(resp.Issues, models.AsScrapeError(issue).ToDetail())
	}
	if len(d.Issues) > 0 {
		slog.Warn("derived record has missing inputs", "count", len(d.Issues))
	}
	return resp
}
