// File: internal/infra/adapters/sources/lolvvv.go
package sources

import (
	"bytes"
	"context"
	"net/http"
	"strings"

	"afk-code-redeemer/internal/domain/model"
	"afk-code-redeemer/internal/domain/ports/adapter"

	"golang.org/x/net/html"
)

var _ adapter.SourceScraper = (*LolvvvScraper)(nil)

// LolvvvScraper reads the lolvvv.com codes table. Only the table whose
// caption says "Active AFK Arena Codes" is trusted; the page also lists
// expired codes in a sibling table.
type LolvvvScraper struct {
	url    string
	client *http.Client
}

func NewLolvvvScraper(url string, client *http.Client) *LolvvvScraper {
	return &LolvvvScraper{url: url, client: client}
}

func (s *LolvvvScraper) Name() string { return "lolvvv.com" }

func (s *LolvvvScraper) Scrape(ctx context.Context) ([]model.CandidateCode, error) {
	body, err := fetch(ctx, s.client, s.url)
	if err != nil {
		return nil, err
	}
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	table := s.activeTable(doc)
	if table == nil {
		return nil, nil
	}

	var out []model.CandidateCode
	seen := make(map[string]struct{})
	for _, cell := range findAll(table, func(n *html.Node) bool {
		return isElement(n, "td") && hasClass(n, "select-all")
	}) {
		code := nodeText(cell)
		if len(code) < 3 {
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		if c, ok := model.NewCandidate(code, s.Name()); ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *LolvvvScraper) activeTable(doc *html.Node) *html.Node {
	for _, table := range findAll(doc, func(n *html.Node) bool { return isElement(n, "table") }) {
		caption := findFirst(table, func(n *html.Node) bool { return isElement(n, "caption") })
		if caption != nil && strings.Contains(nodeText(caption), "Active AFK Arena Codes") {
			return table
		}
	}
	return nil
}
