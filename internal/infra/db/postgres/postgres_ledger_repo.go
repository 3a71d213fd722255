package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"afk-code-redeemer/internal/domain/ports/repository"
)

var _ repository.LedgerRepository = (*PostgresLedgerRepo)(nil)

// PostgresLedgerRepo persists per-account code outcomes in a single table
// with one row per (account_id, code). That single-row shape is what keeps
// the used and failed sets disjoint: a code has exactly one status.
type PostgresLedgerRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresLedgerRepo(pool *pgxpool.Pool) *PostgresLedgerRepo {
	return &PostgresLedgerRepo{pool: pool}
}

func (r *PostgresLedgerRepo) Find(ctx context.Context, accountID string) (repository.LedgerSets, error) {
	const q = `
SELECT code, status FROM redemption_ledger
 WHERE account_id=$1
 ORDER BY recorded_at, code;`
	rows, err := r.pool.Query(ctx, q, accountID)
	if err != nil {
		return repository.LedgerSets{}, fmt.Errorf("query ledger: %w", err)
	}
	defer rows.Close()

	var sets repository.LedgerSets
	for rows.Next() {
		var code, status string
		if err := rows.Scan(&code, &status); err != nil {
			return repository.LedgerSets{}, err
		}
		switch status {
		case statusUsed:
			sets.Used = append(sets.Used, code)
		case statusFailed:
			sets.Failed = append(sets.Failed, code)
		}
	}
	return sets, rows.Err()
}

const (
	statusUsed   = "used"
	statusFailed = "failed"
)

// RecordUsed upserts: a redemption is permanent truth and overwrites any
// earlier failed record for the same code.
func (r *PostgresLedgerRepo) RecordUsed(ctx context.Context, accountID string, codes []string) error {
	const q = `
INSERT INTO redemption_ledger (account_id, code, status, recorded_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (account_id, code) DO UPDATE SET status=$3, recorded_at=now();`
	return r.execBatch(ctx, q, accountID, codes, statusUsed)
}

// RecordFailed inserts only when the code is unknown: it never downgrades a
// used row, and re-recording an already-failed code is a no-op.
func (r *PostgresLedgerRepo) RecordFailed(ctx context.Context, accountID string, codes []string) error {
	const q = `
INSERT INTO redemption_ledger (account_id, code, status, recorded_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (account_id, code) DO NOTHING;`
	return r.execBatch(ctx, q, accountID, codes, statusFailed)
}

func (r *PostgresLedgerRepo) execBatch(ctx context.Context, q, accountID string, codes []string, status string) error {
	if len(codes) == 0 {
		return nil
	}
	b := &pgx.Batch{}
	for _, code := range codes {
		b.Queue(q, accountID, code, status)
	}
	br := r.pool.SendBatch(ctx, b)
	defer br.Close()
	for range codes {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("record %s codes: %w", status, err)
		}
	}
	return nil
}

func (r *PostgresLedgerRepo) ClearFailed(ctx context.Context, accountID string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM redemption_ledger WHERE account_id=$1 AND status=$2;`, accountID, statusFailed)
	return err
}

func (r *PostgresLedgerRepo) ClearAccount(ctx context.Context, accountID string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM redemption_ledger WHERE account_id=$1;`, accountID)
	return err
}

func (r *PostgresLedgerRepo) Stats(ctx context.Context) (repository.LedgerStats, error) {
	const q = `
SELECT COUNT(DISTINCT account_id),
       COUNT(*) FILTER (WHERE status=$1),
       COUNT(*) FILTER (WHERE status=$2)
  FROM redemption_ledger;`
	var stats repository.LedgerStats
	err := r.pool.QueryRow(ctx, q, statusUsed, statusFailed).
		Scan(&stats.Accounts, &stats.Used, &stats.Failed)
	if err != nil {
		return repository.LedgerStats{}, fmt.Errorf("ledger stats: %w", err)
	}
	return stats, nil
}
