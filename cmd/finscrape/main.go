package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/use-agent/finscrape/api"
	"github.com/use-agent/finscrape/cache"
	"github.com/use-agent/finscrape/config"
	"github.com/use-agent/finscrape/expense"
	"github.com/use-agent/finscrape/financials"
	"github.com/use-agent/finscrape/scraper"
	"github.com/use-agent/finscrape/ticker"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to read .env: %v\n", err)
	}
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("finscrape starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"maxPages", cfg.Browser.MaxPages,
	)

	// ── 3. Browser session and scraper ──────────────────────────────
	session, err := openSession(cfg)
	if err != nil {
		slog.Error("failed to open browser session", "error", err)
		os.Exit(1)
	}
	sc, err := scraper.New(session, cfg.Browser, cfg.Scraper, cfg.Sources)
	if err != nil {
		_ = session.Close()
		slog.Error("failed to initialise scraper", "error", err)
		os.Exit(1)
	}
	defer sc.Close()

	// ── 4. Collaborators ────────────────────────────────────────────
	var tickers *ticker.Registry
	deps := api.Deps{Records: sc, StartTime: time.Now()}
	if cfg.Registry.URL != "" {
		tickers = ticker.NewRegistry(cfg.Registry)
		defer tickers.Close()
		deps.Tickers = tickers
	} else {
		slog.Warn("FINSCRAPE_TICKERS_URL not set, ticker joins disabled")
	}

	store, err := openStore(cfg.Store)
	if err != nil {
		slog.Error("failed to open expense store", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	deps.Expenses = store

	cc := cache.New[*financials.Record](cfg.Cache.MaxEntries, cfg.Cache.DefaultMaxAge)
	defer cc.Stop()
	deps.Cache = cc

	// ── 5. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: api.NewRouter(cfg, deps),
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 6. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}
	slog.Info("finscrape stopped")
}

func openSession(cfg *config.Config) (*scraper.Session, error) {
	cm := scraper.DefaultCountermeasures(cfg.Scraper.BlockAds)
	if cfg.Browser.ControlURL != "" {
		return scraper.Connect(cfg.Browser.ControlURL, cm)
	}
	return scraper.Launch(cfg.Browser, cm)
}

func openStore(cfg config.StoreConfig) (expense.Store, error) {
	if cfg.DatabaseURL == "" {
		slog.Info("DATABASE_URL not set, expenses kept in memory")
		return expense.NewMemoryStore(), nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return expense.OpenPG(ctx, cfg.DatabaseURL)
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
