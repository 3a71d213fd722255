// File: internal/usecase/ledger_uc.go
package usecase

import (
	"context"

	"afk-code-redeemer/internal/domain/model"
	"afk-code-redeemer/internal/domain/ports/repository"
)

// LedgerUseCase wraps the durable per-account code ledger with the filtering
// and bookkeeping the redemption flow needs.
type LedgerUseCase interface {
	// FilterNew drops every candidate already present in either ledger set.
	// Comparison is case-insensitive. Idempotent: filtering twice with an
	// unchanged ledger returns the same list.
	FilterNew(ctx context.Context, accountID string, candidates []model.CandidateCode) ([]model.CandidateCode, error)
	RecordUsed(ctx context.Context, accountID string, codes []string) error
	RecordFailed(ctx context.Context, accountID string, codes []string) error
	ClearFailed(ctx context.Context, accountID string) error
	ClearAccount(ctx context.Context, accountID string) error
	Sets(ctx context.Context, accountID string) (repository.LedgerSets, error)
	Stats(ctx context.Context) (repository.LedgerStats, error)
}

type ledgerUseCase struct {
	repo repository.LedgerRepository
}

var _ LedgerUseCase = (*ledgerUseCase)(nil)

func NewLedgerUseCase(repo repository.LedgerRepository) LedgerUseCase {
	return &ledgerUseCase{repo: repo}
}

func (l *ledgerUseCase) FilterNew(ctx context.Context, accountID string, candidates []model.CandidateCode) ([]model.CandidateCode, error) {
	sets, err := l.repo.Find(ctx, accountID)
	if err != nil {
		return nil, err
	}
	known := make(map[string]struct{}, len(sets.Used)+len(sets.Failed))
	for _, c := range sets.Used {
		known[model.NormalizeCode(c)] = struct{}{}
	}
	for _, c := range sets.Failed {
		known[model.NormalizeCode(c)] = struct{}{}
	}
	out := make([]model.CandidateCode, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := known[model.NormalizeCode(c.Code)]; ok {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (l *ledgerUseCase) RecordUsed(ctx context.Context, accountID string, codes []string) error {
	if len(codes) == 0 {
		return nil
	}
	return l.repo.RecordUsed(ctx, accountID, normalizeAll(codes))
}

func (l *ledgerUseCase) RecordFailed(ctx context.Context, accountID string, codes []string) error {
	if len(codes) == 0 {
		return nil
	}
	return l.repo.RecordFailed(ctx, accountID, normalizeAll(codes))
}

func (l *ledgerUseCase) ClearFailed(ctx context.Context, accountID string) error {
	return l.repo.ClearFailed(ctx, accountID)
}

func (l *ledgerUseCase) ClearAccount(ctx context.Context, accountID string) error {
	return l.repo.ClearAccount(ctx, accountID)
}

func (l *ledgerUseCase) Sets(ctx context.Context, accountID string) (repository.LedgerSets, error) {
	return l.repo.Find(ctx, accountID)
}

func (l *ledgerUseCase) Stats(ctx context.Context) (repository.LedgerStats, error) {
	return l.repo.Stats(ctx)
}

func normalizeAll(codes []string) []string {
	out := make([]string, len(codes))
	for i, c := range codes {
		out[i] = model.NormalizeCode(c)
	}
	return out
}
