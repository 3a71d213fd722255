package repository

import "context"

// LedgerSets holds the two persisted code sets for one account. A code never
// appears in both: the store keeps a single row per (account, code).
type LedgerSets struct {
	Used   []string
	Failed []string
}

// LedgerStats aggregates the ledger across all accounts.
type LedgerStats struct {
	Accounts int
	Used     int
	Failed   int
}

// LedgerRepository is the durable per-account record of codes already
// confirmed redeemed and codes attempted without success. Writes must be
// durable before the call returns: losing a ledger update would make future
// runs re-attempt already-used codes.
type LedgerRepository interface {
	Find(ctx context.Context, accountID string) (LedgerSets, error)
	// RecordUsed idempotently marks codes as redeemed. Used is permanent
	// truth: it supersedes a prior failed record for the same code.
	RecordUsed(ctx context.Context, accountID string, codes []string) error
	// RecordFailed idempotently marks codes as attempted-and-rejected. It
	// never downgrades a code already recorded as used.
	RecordFailed(ctx context.Context, accountID string, codes []string) error
	// ClearFailed empties only the failed set, making those codes
	// retriable on the next run.
	ClearFailed(ctx context.Context, accountID string) error
	// ClearAccount is the administrative reset wiping both sets.
	ClearAccount(ctx context.Context, accountID string) error
	Stats(ctx context.Context) (LedgerStats, error)
}
