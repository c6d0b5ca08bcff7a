package scraper

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/use-agent/finscrape/financials"
	"github.com/use-agent/finscrape/models"
)

// CompileRowSelector parses a CSS selector group matching table rows.
func CompileRowSelector(selector string) (cascadia.Matcher, error) {
	sel, err := cascadia.ParseGroup(selector)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput, fmt.Sprintf("invalid row selector %q", selector), err)
	}
	return sel, nil
}

// ExtractFields reads label/value rows into a record in document order.
// The label is a row's first cell and the value its last non-empty cell,
// which skips the trailing blank columns some tables pad with. When a
// label repeats, the first occurrence wins.
func ExtractFields(rawHTML string, rows cascadia.Matcher) (*financials.Record, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeDataShape, "failed to parse page HTML", err)
	}

	rec := financials.NewRecord()
	if len(doc.Nodes) == 0 {
		return nil, models.NewScrapeError(models.ErrCodeDataShape, "page has no document", nil)
	}

	doc.FindNodes(cascadia.QueryAll(doc.Nodes[0], rows)...).Each(func(_ int, row *goquery.Selection) {
		cells := row.ChildrenFiltered("td, th")
		if cells.Length() < 2 {
			return
		}
		label := cleanText(cells.First().Text())
		if label == "" || rec.Has(label) {
			return
		}
		for i := cells.Length() - 1; i > 0; i-- {
			if v := cleanText(cells.Eq(i).Text()); v != "" {
				rec.Set(label, v)
				return
			}
		}
	})

	if rec.Len() == 0 {
		return nil, models.NewScrapeError(models.ErrCodeDataShape, "no label/value rows found on page", nil)
	}
	return rec, nil
}

// cleanText collapses whitespace runs; strings.Fields treats NBSP as space.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
