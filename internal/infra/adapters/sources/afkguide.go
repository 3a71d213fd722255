// File: internal/infra/adapters/sources/afkguide.go
package sources

import (
	"bytes"
	"context"
	"net/http"
	"regexp"
	"strings"

	"afk-code-redeemer/internal/domain/model"
	"afk-code-redeemer/internal/domain/ports/adapter"

	"golang.org/x/net/html"
)

var _ adapter.SourceScraper = (*AFKGuideScraper)(nil)

// AFKGuideScraper pulls codes from the afk.guide redemption-codes table. The
// page renders codes in the first column of a ninja_table; when the table is
// missing (site redesign) it falls back to pattern-scanning the page text.
type AFKGuideScraper struct {
	url    string
	client *http.Client
}

func NewAFKGuideScraper(url string, client *http.Client) *AFKGuideScraper {
	return &AFKGuideScraper{url: url, client: client}
}

func (s *AFKGuideScraper) Name() string { return "afk.guide" }

func (s *AFKGuideScraper) Scrape(ctx context.Context) ([]model.CandidateCode, error) {
	body, err := fetch(ctx, s.client, s.url)
	if err != nil {
		return nil, err
	}
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	codes := s.fromTable(doc)
	if len(codes) == 0 {
		codes = s.fromPageText(doc)
	}

	out := make([]model.CandidateCode, 0, len(codes))
	for _, raw := range codes {
		if c, ok := model.NewCandidate(raw, s.Name()); ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *AFKGuideScraper) fromTable(doc *html.Node) []string {
	table := findFirst(doc, func(n *html.Node) bool {
		return isElement(n, "table") && attrVal(n, "data-ninja_table_instance") == "ninja_table_instance_0"
	})
	if table == nil {
		table = findFirst(doc, func(n *html.Node) bool {
			return isElement(n, "table") && hasClass(n, "ninja_table")
		})
	}
	if table == nil {
		table = findFirst(doc, func(n *html.Node) bool { return isElement(n, "table") })
	}
	if table == nil {
		return nil
	}

	var codes []string
	seen := make(map[string]struct{})
	for _, row := range findAll(table, func(n *html.Node) bool { return isElement(n, "tr") }) {
		cell := findFirst(row, func(n *html.Node) bool {
			return isElement(n, "td") && hasClass(n, "ninja_column_0")
		})
		if cell == nil {
			cell = findFirst(row, func(n *html.Node) bool { return isElement(n, "td") })
		}
		if cell == nil {
			continue
		}
		code := nodeText(cell)
		if !looksLikeCode(code) {
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	return codes
}

var codePattern = regexp.MustCompile(`\b[A-Za-z0-9]{6,15}\b`)

// Page words that match the code pattern but are never codes.
var codeStopwords = map[string]struct{}{
	"redemption": {}, "codes": {}, "arena": {}, "guide": {},
	"table": {}, "column": {},
}

func (s *AFKGuideScraper) fromPageText(doc *html.Node) []string {
	var codes []string
	seen := make(map[string]struct{})
	for _, m := range codePattern.FindAllString(nodeText(doc), -1) {
		if _, stop := codeStopwords[strings.ToLower(m)]; stop {
			continue
		}
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		codes = append(codes, m)
	}
	return codes
}

// looksLikeCode accepts 3-20 alphanumeric characters, spaces ignored.
func looksLikeCode(s string) bool {
	if len(s) < 3 || len(s) > 20 {
		return false
	}
	for _, r := range s {
		if r == ' ' {
			continue
		}
		isAlnum := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		if !isAlnum {
			return false
		}
	}
	return true
}
