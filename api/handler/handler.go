// Package handler holds the gin handlers of the finscrape API.
package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/finscrape/cache"
	"github.com/use-agent/finscrape/financials"
	"github.com/use-agent/finscrape/models"
	"github.com/use-agent/finscrape/scraper"
	"github.com/use-agent/finscrape/ticker"
)

// RecordSource fetches raw financial records. *scraper.Scraper implements it.
type RecordSource interface {
	Fetch(ctx context.Context, kind scraper.Kind, path string) (*financials.Record, error)
	PathFor(kind scraper.Kind, symbol string) (string, error)
	Stats() models.PoolStats
}

// TickerSource resolves ticker metadata. *ticker.Registry implements it.
type TickerSource interface {
	Lookup(ctx context.Context, symbol string) (ticker.Metadata, error)
}

// RecordCache caches raw records per (kind, path).
type RecordCache = cache.Cache[*financials.Record]

// fetchRecord serves (kind, path) from cc when a result younger than maxAge
// exists, and scrapes otherwise. The returned status is "hit", "miss" or
// empty when caching is off.
func fetchRecord(ctx context.Context, src RecordSource, cc *RecordCache, kind scraper.Kind, path string, maxAge time.Duration) (*financials.Record, string, error) {
	key := cache.Key(kind.String(), path)
	if cc != nil && maxAge > 0 {
		if rec, hit := cc.Get(key, maxAge); hit {
			return rec, "hit", nil
		}
	}

	rec, err := src.Fetch(ctx, kind, path)
	if err != nil {
		return nil, "", err
	}

	if cc != nil && maxAge > 0 {
		cc.Set(key, rec)
		return rec, "miss", nil
	}
	return rec, "", nil
}

// maxAgeParam reads the max_age query in milliseconds. Absent or malformed
// values fall back to def; 0 disables the cache.
// symbolParam reads the :symbol path parameter in the registry's casing.
func symbolParam(c *gin.Context) string {
	return strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
}

func maxAgeParam(c *gin.Context, def time.Duration) time.Duration {
	v, ok := c.GetQuery("max_age")
	if !ok {
		return def
	}
	ms, err := strconv.Atoi(v)
	if err != nil || ms < 0 {
		return def
	}
	return time.Duration(ms) * time.Millisecond
}

// respondError maps a ScrapeError to the correct HTTP status code and writes
// a structured JSON error response.
func respondError(c *gin.Context, err error) {
	se := models.AsScrapeError(err)
	c.JSON(mapErrorToStatus(se), models.ErrorResponse{
		Success: false,
		Error:   se.ToDetail(),
	})
}

func invalidInput(c *gin.Context, msg string) {
	respondError(c, models.NewScrapeError(models.ErrCodeInvalidInput, msg, nil))
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.ScrapeError) int {
	switch e.Code {
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeNavigation, models.ErrCodeConnection, models.ErrCodeUpstream:
		return http.StatusBadGateway // 502
	case models.ErrCodeNotFound:
		return http.StatusNotFound // 404
	case models.ErrCodeDataShape:
		return http.StatusUnprocessableEntity // 422
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	default:
		return http.StatusInternalServerError // 500
	}
}
