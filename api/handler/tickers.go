package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/finscrape/ticker"
)

// TickerResponse carries one registry match.
type TickerResponse struct {
	Success  bool            `json:"success"`
	Metadata ticker.Metadata `json:"metadata"`
	Summary  ticker.Summary  `json:"summary"`
}

// Ticker returns a handler for GET /api/v1/tickers/:symbol.
func Ticker(tickers TickerSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		meta, err := tickers.Lookup(c.Request.Context(), symbolParam(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, TickerResponse{
			Success:  true,
			Metadata: meta,
			Summary:  ticker.Summarize(meta),
		})
	}
}
