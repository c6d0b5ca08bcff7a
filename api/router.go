package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/finscrape/api/handler"
	"github.com/use-agent/finscrape/api/middleware"
	"github.com/use-agent/finscrape/config"
	"github.com/use-agent/finscrape/expense"
)

// Deps are the collaborators the routes are served from. Tickers and
// Cache may be nil: ticker joins are then skipped and every request
// scrapes.
type Deps struct {
	Records   handler.RecordSource
	Tickers   handler.TickerSource
	Expenses  expense.Store
	Cache     *handler.RecordCache
	StartTime time.Time
}

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health stays outside auth so monitoring probes always work.
func NewRouter(cfg *config.Config, d Deps) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")
	v1.GET("/health", handler.Health(d.Records, d.StartTime))

	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	maxAge := cfg.Cache.DefaultMaxAge

	protected.GET("/financials/:symbol", handler.Financials(d.Records, d.Tickers, d.Cache, maxAge))
	protected.GET("/pettm/:symbol", handler.PETTM(d.Records, d.Cache, maxAge))
	protected.POST("/scrape", handler.Scrape(d.Records, d.Cache, cfg.Scraper.MaxTimeout))
	protected.POST("/derive", handler.Derive())

	if d.Tickers != nil {
		protected.GET("/tickers/:symbol", handler.Ticker(d.Tickers))
	}

	if d.Expenses != nil {
		h := handler.Expenses{Store: d.Expenses}
		protected.GET("/expenses", h.List)
		protected.POST("/expenses", h.Create)
		protected.GET("/expenses/:id", h.Get)
		protected.PUT("/expenses/:id", h.Update)
		protected.DELETE("/expenses/:id", h.Delete)
	}

	return r
}
