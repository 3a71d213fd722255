package adapter

import (
	"context"

	"afk-code-redeemer/internal/domain/model"
)

// SourceScraper pulls candidate codes from one listing site. Implementations
// must honor the context deadline; a failing scraper yields an error and is
// treated as zero codes from that source.
type SourceScraper interface {
	Name() string
	Scrape(ctx context.Context) ([]model.CandidateCode, error)
}
