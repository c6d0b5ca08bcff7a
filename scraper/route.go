package scraper

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/use-agent/finscrape/config"
	"github.com/use-agent/finscrape/models"
)

// Kind selects which upstream source serves a page.
type Kind int

const (
	KindFinancials Kind = iota + 1
	KindPETTM
	KindStatement
)

var kindNames = map[Kind]string{
	KindFinancials: "financials",
	KindPETTM:      "pettm",
	KindStatement:  "statement",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if strings.EqualFold(s, name) {
			return k, nil
		}
	}
	return 0, models.NewScrapeError(models.ErrCodeInvalidInput, fmt.Sprintf("unknown request kind %q", s), nil)
}

// Router maps a request kind and a host-relative path to an absolute URL.
// Financials and P/E TTM pages come from the fundamentals host, every
// statement page from the statements host.
type Router struct {
	fundamentals string
	statements   string
	financials   string
	pettm        string
}

// NewRouter creates a Router from the configured sources.
func NewRouter(cfg config.SourceConfig) Router {
	return Router{
		fundamentals: cfg.FundamentalsHost,
		statements:   cfg.StatementsHost,
		financials:   cfg.FinancialsPath,
		pettm:        cfg.PETTMPath,
	}
}

// Host returns the base URL serving kind.
func (r Router) Host(kind Kind) (string, error) {
	switch kind {
	case KindFinancials, KindPETTM:
		return r.fundamentals, nil
	case KindStatement:
		return r.statements, nil
	default:
		return "", models.NewScrapeError(models.ErrCodeInvalidInput, fmt.Sprintf("unroutable request kind %s", kind), nil)
	}
}

// Resolve joins the kind's host and relPath into an absolute http(s) URL.
func (r Router) Resolve(kind Kind, relPath string) (string, error) {
	host, err := r.Host(kind)
	if err != nil {
		return "", err
	}
	if host == "" {
		return "", models.NewScrapeError(models.ErrCodeInvalidInput, fmt.Sprintf("no host configured for %s pages", kind), nil)
	}
	if strings.Contains(relPath, "://") {
		return "", models.NewScrapeError(models.ErrCodeInvalidInput, "path must be relative to the source host", nil)
	}

	target := strings.TrimSuffix(host, "/") + "/" + strings.TrimPrefix(relPath, "/")
	u, err := url.Parse(target)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", models.NewScrapeError(models.ErrCodeInvalidInput, fmt.Sprintf("invalid target URL %q", target), err)
	}
	return u.String(), nil
}

// PathFor returns the host-relative path of the per-symbol page of kind.
// Statement pages have no per-symbol template and need an explicit path.
func (r Router) PathFor(kind Kind, symbol string) (string, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return "", models.NewScrapeError(models.ErrCodeInvalidInput, "symbol is required", nil)
	}
	// Share classes are dotted in page URLs: BRK/B -> BRK.B.
	symbol = url.PathEscape(strings.ReplaceAll(symbol, "/", "."))

	switch kind {
	case KindFinancials:
		return fmt.Sprintf(r.financials, symbol), nil
	case KindPETTM:
		return fmt.Sprintf(r.pettm, symbol), nil
	default:
		return "", models.NewScrapeError(models.ErrCodeInvalidInput, fmt.Sprintf("%s pages need an explicit path", kind), nil)
	}
}
