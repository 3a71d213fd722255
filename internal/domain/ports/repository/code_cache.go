package repository

import (
	"context"

	"afk-code-redeemer/internal/domain/model"
)

// CodeCache stores the most recent parsed candidate list per account so a
// quick redeem run can reuse it without re-scraping. Keyed by account id,
// never process-global, so concurrent multi-account runs stay independent.
type CodeCache interface {
	Store(ctx context.Context, accountID string, codes []model.CandidateCode) error
	Get(ctx context.Context, accountID string) ([]model.CandidateCode, error)
	Delete(ctx context.Context, accountID string) error
}
