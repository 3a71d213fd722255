// File: internal/usecase/aggregate_uc.go
package usecase

import (
	"context"
	"fmt"
	"sync"

	"afk-code-redeemer/internal/domain"
	"afk-code-redeemer/internal/domain/model"
	"afk-code-redeemer/internal/domain/ports/adapter"
	"afk-code-redeemer/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// AggregatorUseCase collects candidate codes from every configured listing
// source and merges them into one deduplicated list.
type AggregatorUseCase interface {
	// Collect scrapes all sources concurrently. A failing source is logged
	// and skipped; Collect only errors when the context dies. The merged
	// order is stable: sources in registration order, codes in the order
	// each source yielded them, first occurrence wins on duplicates.
	Collect(ctx context.Context) ([]model.CandidateCode, error)
	// CollectSource scrapes a single named source.
	CollectSource(ctx context.Context, name string) ([]model.CandidateCode, error)
	// Sources lists the registered source names in order.
	Sources() []string
}

type aggregatorUseCase struct {
	scrapers []adapter.SourceScraper
	log      *zerolog.Logger
}

var _ AggregatorUseCase = (*aggregatorUseCase)(nil)

func NewAggregatorUseCase(scrapers []adapter.SourceScraper, log *zerolog.Logger) AggregatorUseCase {
	return &aggregatorUseCase{scrapers: scrapers, log: log}
}

func (a *aggregatorUseCase) Collect(ctx context.Context) ([]model.CandidateCode, error) {
	results := make([][]model.CandidateCode, len(a.scrapers))

	var wg sync.WaitGroup
	for i, s := range a.scrapers {
		wg.Add(1)
		go func(i int, s adapter.SourceScraper) {
			defer wg.Done()
			codes, err := s.Scrape(ctx)
			if err != nil {
				metrics.IncScrapeError(s.Name())
				a.log.Warn().Err(err).Str("source", s.Name()).Msg("source scrape failed, skipping")
				return
			}
			metrics.AddScraped(s.Name(), len(codes))
			results[i] = codes
		}(i, s)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Merge in registration order so output is deterministic regardless of
	// which goroutine finished first.
	seen := make(map[string]struct{})
	var merged []model.CandidateCode
	for _, codes := range results {
		for _, c := range codes {
			key := model.NormalizeCode(c.Code)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, c)
		}
	}
	a.log.Info().Int("sources", len(a.scrapers)).Int("codes", len(merged)).Msg("candidate codes collected")
	return merged, nil
}

func (a *aggregatorUseCase) CollectSource(ctx context.Context, name string) ([]model.CandidateCode, error) {
	for _, s := range a.scrapers {
		if s.Name() != name {
			continue
		}
		codes, err := s.Scrape(ctx)
		if err != nil {
			metrics.IncScrapeError(name)
			return nil, err
		}
		metrics.AddScraped(name, len(codes))
		seen := make(map[string]struct{}, len(codes))
		out := codes[:0]
		for _, c := range codes {
			key := model.NormalizeCode(c.Code)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, c)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unknown source %q: %w", name, domain.ErrNotFound)
}

func (a *aggregatorUseCase) Sources() []string {
	names := make([]string, len(a.scrapers))
	for i, s := range a.scrapers {
		names[i] = s.Name()
	}
	return names
}
