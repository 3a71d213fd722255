package repository

import (
	"context"

	"afk-code-redeemer/internal/domain/model"
)

// OperatorRepository persists the chat-identity -> game-account link so a
// saved UID survives restarts.
type OperatorRepository interface {
	Save(ctx context.Context, op *model.Operator) error
	FindByTelegramID(ctx context.Context, tgID int64) (*model.Operator, error)
	Delete(ctx context.Context, tgID int64) error
}
