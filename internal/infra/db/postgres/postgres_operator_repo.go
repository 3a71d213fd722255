package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"afk-code-redeemer/internal/domain"
	"afk-code-redeemer/internal/domain/model"
	"afk-code-redeemer/internal/domain/ports/repository"
)

var _ repository.OperatorRepository = (*PostgresOperatorRepo)(nil)

type PostgresOperatorRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresOperatorRepo(pool *pgxpool.Pool) *PostgresOperatorRepo {
	return &PostgresOperatorRepo{pool: pool}
}

// Save upserts on telegram id. The UNIQUE constraint on account_id stops two
// operators from claiming the same game account; that conflict surfaces as
// domain.ErrAccountClaimed.
func (r *PostgresOperatorRepo) Save(ctx context.Context, op *model.Operator) error {
	const q = `
INSERT INTO operators (telegram_id, account_id, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (telegram_id) DO UPDATE SET account_id=$2, updated_at=now();`
	if _, err := r.pool.Exec(ctx, q, op.TelegramID, op.AccountID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrAccountClaimed
		}
		return err
	}
	return nil
}

func (r *PostgresOperatorRepo) FindByTelegramID(ctx context.Context, tgID int64) (*model.Operator, error) {
	const q = `SELECT telegram_id, account_id, updated_at FROM operators WHERE telegram_id=$1;`
	var op model.Operator
	if err := r.pool.QueryRow(ctx, q, tgID).Scan(&op.TelegramID, &op.AccountID, &op.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &op, nil
}

func (r *PostgresOperatorRepo) Delete(ctx context.Context, tgID int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM operators WHERE telegram_id=$1;`, tgID)
	return err
}
