package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/finscrape/financials"
	"github.com/use-agent/finscrape/models"
	"github.com/use-agent/finscrape/scraper"
)

// RecordResponse carries one raw scraped record.
type RecordResponse struct {
	Success     bool               `json:"success"`
	Kind        string             `json:"kind"`
	Path        string             `json:"path"`
	Fields      *financials.Record `json:"fields"`
	CacheStatus string             `json:"cache_status,omitempty"`
	Timing      models.TimingInfo  `json:"timing"`
}

// Scrape returns a handler for POST /api/v1/scrape.
func Scrape(src RecordSource, cc *RecordCache, maxTimeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		var req models.ScrapeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			invalidInput(c, err.Error())
			return
		}
		req.Defaults()

		kind, err := scraper.ParseKind(req.Kind)
		if err != nil {
			respondError(c, err)
			return
		}

		timeout := time.Duration(req.Timeout) * time.Second
		if maxTimeout > 0 && timeout > maxTimeout {
			timeout = maxTimeout
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		scrapeStart := time.Now()
		rec, status, err := fetchRecord(ctx, src, cc, kind, req.Path, time.Duration(req.MaxAge)*time.Millisecond)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, RecordResponse{
			Success:     true,
			Kind:        kind.String(),
			Path:        req.Path,
			Fields:      rec,
			CacheStatus: status,
			Timing: models.TimingInfo{
				TotalMs:  time.Since(totalStart).Milliseconds(),
				ScrapeMs: time.Since(scrapeStart).Milliseconds(),
			},
		})
	}
}

// PETTM returns a handler for GET /api/v1/pettm/:symbol, the raw fields of
// the symbol's P/E TTM page.
func PETTM(src RecordSource, cc *RecordCache, defaultMaxAge time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		path, err := src.PathFor(scraper.KindPETTM, symbolParam(c))
		if err != nil {
			respondError(c, err)
			return
		}

		rec, status, err := fetchRecord(c.Request.Context(), src, cc, scraper.KindPETTM, path, maxAgeParam(c, defaultMaxAge))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, RecordResponse{
			Success:     true,
			Kind:        scraper.KindPETTM.String(),
			Path:        path,
			Fields:      rec,
			CacheStatus: status,
			Timing:      models.TimingInfo{TotalMs: time.Since(totalStart).Milliseconds()},
		})
	}
}
