package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func main() {
	_ = godotenv.Load()

	apiURL := os.Getenv("FINSCRAPE_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("FINSCRAPE_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "FINSCRAPE_API_KEY is required")
		os.Exit(1)
	}

	api := &apiClient{
		baseURL: apiURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 120 * time.Second},
	}

	s := server.NewMCPServer(
		"finscrape",
		"0.1.0",
		server.WithToolCapabilities(false),
	)

	s.AddTool(mcp.NewTool("get_financials",
		mcp.WithDescription("Scrape a stock's financials page and return its fields plus the derived 'Goodwill / Total Equity' ratio and 'ROIC > WACC' comparison, joined with ticker metadata when available."),
		mcp.WithString("symbol",
			mcp.Required(),
			mcp.Description("Ticker symbol, e.g. AAPL or BRK.B"),
		),
		mcp.WithNumber("max_age",
			mcp.Description("Accept a cached result up to this many milliseconds old (0 forces a fresh scrape)"),
		),
	), handleGetFinancials(api))

	s.AddTool(mcp.NewTool("derive_financials",
		mcp.WithDescription("Compute the derived valuation fields for a raw financial record supplied as a JSON object of field names to values."),
		mcp.WithString("record",
			mcp.Required(),
			mcp.Description(`Raw record as a JSON object, e.g. {"Goodwill":"120","Total Stockholders Equity":"1,000","ROIC %":"15.5","WACC %":"9.1"}`),
		),
	), handleDeriveFinancials(api))

	s.AddTool(mcp.NewTool("lookup_ticker",
		mcp.WithDescription("Look up a ticker's registry metadata: name, sector, industry, country, IPO year, market capitalisation and last sale price."),
		mcp.WithString("symbol",
			mcp.Required(),
			mcp.Description("Ticker symbol, e.g. MSFT"),
		),
	), handleLookupTicker(api))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}
