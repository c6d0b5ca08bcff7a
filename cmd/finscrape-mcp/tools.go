package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/use-agent/finscrape/financials"
)

// derivedResult mirrors the API's derived record response.
type derivedResult struct {
	Symbol string             `json:"symbol"`
	Fields *financials.Record `json:"fields"`
	Issues []apiError         `json:"issues"`
	Ticker *struct {
		Name      string `json:"name"`
		Sector    string `json:"sector"`
		Industry  string `json:"industry"`
		MarketCap string `json:"market_cap"`
		LastSale  string `json:"last_sale"`
	} `json:"ticker"`
	CacheStatus string `json:"cache_status"`
}

func handleGetFinancials(api *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		symbol, err := request.RequireString("symbol")
		if err != nil {
			return mcp.NewToolResultError("symbol is required"), nil
		}

		var query url.Values
		if maxAge := request.GetFloat("max_age", -1); maxAge >= 0 {
			query = url.Values{"max_age": {strconv.Itoa(int(maxAge))}}
		}

		raw, err := api.do(ctx, http.MethodGet, "/api/v1/financials/"+url.PathEscape(symbol), query, nil)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return renderDerived(raw)
	}
}

func handleDeriveFinancials(api *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		record, err := request.RequireString("record")
		if err != nil {
			return mcp.NewToolResultError("record is required"), nil
		}
		if !json.Valid([]byte(record)) {
			return mcp.NewToolResultError("record must be a JSON object"), nil
		}

		raw, err := api.do(ctx, http.MethodPost, "/api/v1/derive", nil, []byte(record))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return renderDerived(raw)
	}
}

func handleLookupTicker(api *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		symbol, err := request.RequireString("symbol")
		if err != nil {
			return mcp.NewToolResultError("symbol is required"), nil
		}

		raw, err := api.do(ctx, http.MethodGet, "/api/v1/tickers/"+url.PathEscape(symbol), nil, nil)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var resp struct {
			Summary struct {
				Symbol           string `json:"symbol"`
				Name             string `json:"name"`
				Sector           string `json:"sector"`
				Industry         string `json:"industry"`
				Country          string `json:"country"`
				IPOYear          string `json:"ipo_year"`
				MarketCap        string `json:"market_cap"`
				LastSale         string `json:"last_sale"`
				MarketCapHealthy bool   `json:"market_cap_healthy"`
				PriceHealthy     bool   `json:"price_healthy"`
			} `json:"summary"`
		}
		if err := json.Unmarshal(raw, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}

		s := resp.Summary
		var b strings.Builder
		fmt.Fprintf(&b, "%s (%s)\n", s.Name, s.Symbol)
		fmt.Fprintf(&b, "Sector: %s / %s\n", s.Sector, s.Industry)
		fmt.Fprintf(&b, "Country: %s, IPO: %s\n", s.Country, s.IPOYear)
		fmt.Fprintf(&b, "Market cap: %s%s\n", s.MarketCap, flag(s.MarketCapHealthy))
		fmt.Fprintf(&b, "Last sale: %s%s\n", s.LastSale, flag(s.PriceHealthy))
		return mcp.NewToolResultText(b.String()), nil
	}
}

// renderDerived formats a derived record as one "name: value" line per
// field, in record order.
func renderDerived(raw []byte) (*mcp.CallToolResult, error) {
	var resp derivedResult
	if err := json.Unmarshal(raw, &resp); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
	}

	var b bytes.Buffer
	if resp.Ticker != nil {
		fmt.Fprintf(&b, "%s (%s), %s / %s\nMarket cap: %s, last sale: %s\n\n",
			resp.Ticker.Name, resp.Symbol, resp.Ticker.Sector, resp.Ticker.Industry,
			resp.Ticker.MarketCap, resp.Ticker.LastSale)
	}
	if resp.Fields != nil {
		for _, f := range resp.Fields.Fields() {
			fmt.Fprintf(&b, "%s: %v\n", f.Name, f.Value)
		}
	}
	for _, issue := range resp.Issues {
		fmt.Fprintf(&b, "\nwarning: %s", issue.Message)
	}
	if resp.CacheStatus != "" {
		fmt.Fprintf(&b, "\n---\ncache: %s", resp.CacheStatus)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func flag(healthy bool) string {
	if healthy {
		return ""
	}
	return " (below threshold)"
}
