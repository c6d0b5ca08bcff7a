package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/finscrape/cache"
	"github.com/use-agent/finscrape/config"
	"github.com/use-agent/finscrape/expense"
	"github.com/use-agent/finscrape/financials"
	"github.com/use-agent/finscrape/models"
	"github.com/use-agent/finscrape/scraper"
	"github.com/use-agent/finscrape/ticker"
)

type fakeSource struct {
	mu      sync.Mutex
	records map[string]*financials.Record
	err     error
	calls   int
	router  scraper.Router
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		records: make(map[string]*financials.Record),
		router: scraper.NewRouter(config.SourceConfig{
			FundamentalsHost: "https://fundamentals.test/",
			StatementsHost:   "https://statements.test/",
			FinancialsPath:   "stock/%s/financials",
			PETTMPath:        "term/pettm/%s",
		}),
	}
}

func (f *fakeSource) Fetch(_ context.Context, _ scraper.Kind, path string) (*financials.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	rec, ok := f.records[path]
	if !ok {
		return nil, models.NewScrapeError(models.ErrCodeDataShape, "no label/value rows found on page", nil)
	}
	return rec, nil
}

func (f *fakeSource) PathFor(kind scraper.Kind, symbol string) (string, error) {
	return f.router.PathFor(kind, symbol)
}

func (f *fakeSource) Stats() models.PoolStats {
	return models.PoolStats{MaxPages: 10, ActivePages: 9}
}

type fakeTickers []ticker.Metadata

func (f fakeTickers) Lookup(_ context.Context, symbol string) (ticker.Metadata, error) {
	return ticker.Match(f, symbol)
}

func testEngine(src *fakeSource, tickers TickerSource, cc *RecordCache) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/health", Health(src, time.Now()))
	r.GET("/financials/:symbol", Financials(src, tickers, cc, time.Hour))
	r.GET("/pettm/:symbol", PETTM(src, cc, time.Hour))
	r.POST("/scrape", Scrape(src, cc, 2*time.Minute))
	r.POST("/derive", Derive())
	r.GET("/tickers/:symbol", Ticker(tickers))

	h := Expenses{Store: expense.NewMemoryStore()}
	r.GET("/expenses", h.List)
	r.POST("/expenses", h.Create)
	r.GET("/expenses/:id", h.Get)
	r.PUT("/expenses/:id", h.Update)
	r.DELETE("/expenses/:id", h.Delete)
	return r
}

func serve(r *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	var rd *bytes.Reader
	if body != "" {
		rd = bytes.NewReader([]byte(body))
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, rd)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeFields(t *testing.T, body []byte) *financials.Record {
	t.Helper()
	var resp struct {
		Fields *financials.Record `json:"fields"`
	}
	if err := json.Unmarshal(body, &resp); err != nil || resp.Fields == nil {
		t.Fatalf("decode fields: %v (%s)", err, body)
	}
	return resp.Fields
}

func aaplRecord() *financials.Record {
	return financials.RecordOf(
		financials.Field{Name: "Fiscal Year", Value: "TTM"},
		financials.Field{Name: "ROE", Value: "150"},
		financials.Field{Name: "Goodwill", Value: "120"},
		financials.Field{Name: "Total Stockholders Equity", Value: "1,000"},
		financials.Field{Name: "ROIC %", Value: "15.5"},
		financials.Field{Name: "WACC %", Value: "9.1"},
	)
}

func TestFinancials(t *testing.T) {
	src := newFakeSource()
	src.records["stock/AAPL/financials"] = aaplRecord()
	tickers := fakeTickers{{Symbol: "AAPL", Name: "Apple Inc.", LastSale: "$190.00", MarketCap: "3000000000000"}}

	w := serve(testEngine(src, tickers, nil), http.MethodGet, "/financials/aapl", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}

	fields := decodeFields(t, w.Body.Bytes())
	wantKeys := []string{"Fiscal Year", "Total Stockholders Equity", "Goodwill / Total Equity", "ROIC > WACC"}
	if got := fields.Keys(); strings.Join(got, "|") != strings.Join(wantKeys, "|") {
		t.Errorf("keys = %q, want %q", got, wantKeys)
	}
	if v, _ := fields.Get("Goodwill / Total Equity"); v != 0.12 {
		t.Errorf("ratio = %v, want 0.12", v)
	}
	if v, _ := fields.Get("ROIC > WACC"); v != "15.5 > 9.1" {
		t.Errorf("comparison = %v", v)
	}

	var resp struct {
		Ticker *ticker.Summary `json:"ticker"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Ticker == nil || resp.Ticker.Name != "Apple Inc." || !resp.Ticker.MarketCapHealthy {
		t.Errorf("ticker = %+v", resp.Ticker)
	}
}

func TestFinancials_LowercaseShareClassJoinsTicker(t *testing.T) {
	src := newFakeSource()
	src.records["stock/BRK.B/financials"] = aaplRecord()
	tickers := fakeTickers{{Symbol: "BRK/B", Name: "Berkshire Hathaway", LastSale: "$410.00", MarketCap: "880000000000"}}

	w := serve(testEngine(src, tickers, nil), http.MethodGet, "/financials/brk.b", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	var resp struct {
		Symbol string          `json:"symbol"`
		Ticker *ticker.Summary `json:"ticker"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Symbol != "BRK.B" {
		t.Errorf("symbol = %q, want BRK.B", resp.Symbol)
	}
	if resp.Ticker == nil || resp.Ticker.Symbol != "BRK/B" {
		t.Errorf("ticker = %+v, want BRK/B joined", resp.Ticker)
	}
}

func TestFinancials_TickerMissStillReturnsRecord(t *testing.T) {
	src := newFakeSource()
	src.records["stock/AAPL/financials"] = aaplRecord()

	w := serve(testEngine(src, fakeTickers{}, nil), http.MethodGet, "/financials/AAPL", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if strings.Contains(w.Body.String(), `"ticker"`) {
		t.Errorf("ticker should be omitted: %s", w.Body)
	}
}

func TestFinancials_Cache(t *testing.T) {
	src := newFakeSource()
	src.records["stock/AAPL/financials"] = aaplRecord()
	cc := cache.New[*financials.Record](10, time.Hour)
	defer cc.Stop()
	r := testEngine(src, nil, cc)

	first := serve(r, http.MethodGet, "/financials/AAPL", "")
	second := serve(r, http.MethodGet, "/financials/AAPL", "")
	if src.calls != 1 {
		t.Errorf("Fetch calls = %d, want 1", src.calls)
	}
	if !strings.Contains(first.Body.String(), `"cache_status":"miss"`) || !strings.Contains(second.Body.String(), `"cache_status":"hit"`) {
		t.Errorf("cache status: %s / %s", first.Body, second.Body)
	}

	serve(r, http.MethodGet, "/financials/AAPL?max_age=0", "")
	if src.calls != 2 {
		t.Errorf("max_age=0 should bypass the cache, calls = %d", src.calls)
	}
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"timeout", models.NewScrapeError(models.ErrCodeTimeout, "t", nil), http.StatusGatewayTimeout},
		{"navigation", models.NewScrapeError(models.ErrCodeNavigation, "n", nil), http.StatusBadGateway},
		{"connection", models.NewScrapeError(models.ErrCodeConnection, "c", nil), http.StatusBadGateway},
		{"data shape", models.NewDataShapeError("Goodwill"), http.StatusUnprocessableEntity},
		{"not found", models.NewNotFoundError("ticker", "X"), http.StatusNotFound},
		{"plain", context.Canceled, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newFakeSource()
			src.err = tt.err
			w := serve(testEngine(src, nil, nil), http.MethodGet, "/pettm/AAPL", "")
			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			var resp models.ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.Success || resp.Error == nil {
				t.Errorf("bad error body %s", w.Body)
			}
		})
	}
}

func TestScrape(t *testing.T) {
	src := newFakeSource()
	src.records["stocks/charts/AAPL/apple/income-statement"] = financials.RecordOf(financials.Field{Name: "Revenue", Value: "383,285"})
	r := testEngine(src, nil, nil)

	w := serve(r, http.MethodPost, "/scrape", `{"kind":"statement","path":"stocks/charts/AAPL/apple/income-statement"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	if v, _ := decodeFields(t, w.Body.Bytes()).Get("Revenue"); v != "383,285" {
		t.Errorf("Revenue = %v", v)
	}

	for _, body := range []string{
		`{"kind":"balance","path":"x"}`,
		`{"kind":"financials"}`,
		`{"kind":"pettm","path":"x","timeout":500}`,
		`not json`,
	} {
		if w := serve(r, http.MethodPost, "/scrape", body); w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", body, w.Code)
		}
	}
}

func TestDerive(t *testing.T) {
	r := testEngine(newFakeSource(), nil, nil)

	w := serve(r, http.MethodPost, "/derive", `{"Name":"X","Goodwill":"50","Total Stockholders Equity":"0","ROIC %":"5"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	fields := decodeFields(t, w.Body.Bytes())
	if v, _ := fields.Get("Goodwill / Total Equity"); v != "Infinity" {
		t.Errorf("ratio = %v, want Infinity", v)
	}
	if v, _ := fields.Get("ROIC > WACC"); v != "5 > 0" {
		t.Errorf("comparison = %v, want 5 > 0", v)
	}
	body := w.Body.String()
	if !strings.Contains(body, `"issues":[{"code":"DATA_SHAPE"`) {
		t.Errorf("missing WACC should be reported: %s", body)
	}

	if w := serve(r, http.MethodPost, "/derive", `[1,2]`); w.Code != http.StatusBadRequest {
		t.Errorf("array body: status = %d, want 400", w.Code)
	}
}

func TestTicker(t *testing.T) {
	tickers := fakeTickers{{Symbol: "BRK/B", Name: "Berkshire Hathaway", LastSale: "$410.00", MarketCap: "880000000000"}}
	r := testEngine(newFakeSource(), tickers, nil)

	for _, path := range []string{"/tickers/BRK.B", "/tickers/brk.b"} {
		if w := serve(r, http.MethodGet, path, ""); w.Code != http.StatusOK {
			t.Fatalf("%s: status = %d, body %s", path, w.Code, w.Body)
		}
	}
	if w := serve(r, http.MethodGet, "/tickers/ZZZZ", ""); w.Code != http.StatusNotFound {
		t.Errorf("miss: status = %d, want 404", w.Code)
	}
}

func TestHealth_Degraded(t *testing.T) {
	w := serve(testEngine(newFakeSource(), nil, nil), http.MethodGet, "/health", "")
	var resp models.HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "degraded" {
		t.Errorf("Status = %q, want degraded at 9/10 pages", resp.Status)
	}
}

func TestExpenses(t *testing.T) {
	r := testEngine(newFakeSource(), nil, nil)

	w := serve(r, http.MethodPost, "/expenses", `{"description":"Rent","date":"2024-02-01T00:00:00Z","amount":"1200.50"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: status = %d, body %s", w.Code, w.Body)
	}
	var created ExpenseResponse
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	id := created.Expense.ID.String()

	if w := serve(r, http.MethodGet, "/expenses/"+id, ""); w.Code != http.StatusOK {
		t.Errorf("get: status = %d", w.Code)
	}
	if w := serve(r, http.MethodPut, "/expenses/"+id, `{"description":"Rent","date":"2024-02-01T00:00:00Z","amount":1250}`); w.Code != http.StatusOK {
		t.Errorf("update: status = %d, body %s", w.Code, w.Body)
	}

	var list ExpenseListResponse
	w = serve(r, http.MethodGet, "/expenses", "")
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil || len(list.Expenses) != 1 {
		t.Fatalf("list = %s", w.Body)
	}
	if list.Expenses[0].Amount.String() != "1250" {
		t.Errorf("Amount = %s, want 1250", list.Expenses[0].Amount)
	}

	if w := serve(r, http.MethodDelete, "/expenses/"+id, ""); w.Code != http.StatusNoContent {
		t.Errorf("delete: status = %d", w.Code)
	}
	if w := serve(r, http.MethodGet, "/expenses/"+id, ""); w.Code != http.StatusNotFound {
		t.Errorf("get deleted: status = %d", w.Code)
	}
	if w := serve(r, http.MethodGet, "/expenses/not-a-uuid", ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad id: status = %d", w.Code)
	}
	if w := serve(r, http.MethodPost, "/expenses", `{"date":"2024-02-01T00:00:00Z","amount":1}`); w.Code != http.StatusBadRequest {
		t.Errorf("missing description: status = %d", w.Code)
	}
}
