//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"

	"afk-code-redeemer/internal/domain"
	"afk-code-redeemer/internal/domain/model"
)

func TestOperatorRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	repo := NewPostgresOperatorRepo(testPool)
	ctx := context.Background()

	t.Run("save and find", func(t *testing.T) {
		cleanup(t)

		if err := repo.Save(ctx, &model.Operator{TelegramID: 42, AccountID: "12345678"}); err != nil {
			t.Fatalf("Save: %v", err)
		}

		op, err := repo.FindByTelegramID(ctx, 42)
		if err != nil {
			t.Fatalf("FindByTelegramID: %v", err)
		}
		if op.AccountID != "12345678" {
			t.Errorf("account_id = %q", op.AccountID)
		}
	})

	t.Run("save updates the linked account", func(t *testing.T) {
		cleanup(t)

		if err := repo.Save(ctx, &model.Operator{TelegramID: 42, AccountID: "11111111"}); err != nil {
			t.Fatalf("Save: %v", err)
		}
		if err := repo.Save(ctx, &model.Operator{TelegramID: 42, AccountID: "22222222"}); err != nil {
			t.Fatalf("re-Save: %v", err)
		}

		op, err := repo.FindByTelegramID(ctx, 42)
		if err != nil {
			t.Fatalf("FindByTelegramID: %v", err)
		}
		if op.AccountID != "22222222" {
			t.Errorf("account_id = %q, want updated", op.AccountID)
		}
	})

	t.Run("claiming a taken account fails", func(t *testing.T) {
		cleanup(t)

		if err := repo.Save(ctx, &model.Operator{TelegramID: 42, AccountID: "12345678"}); err != nil {
			t.Fatalf("Save: %v", err)
		}
		err := repo.Save(ctx, &model.Operator{TelegramID: 43, AccountID: "12345678"})
		if !errors.Is(err, domain.ErrAccountClaimed) {
			t.Fatalf("err = %v, want ErrAccountClaimed", err)
		}
	})

	t.Run("missing operator", func(t *testing.T) {
		cleanup(t)

		if _, err := repo.FindByTelegramID(ctx, 999); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		cleanup(t)

		if err := repo.Save(ctx, &model.Operator{TelegramID: 42, AccountID: "12345678"}); err != nil {
			t.Fatalf("Save: %v", err)
		}
		if err := repo.Delete(ctx, 42); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, err := repo.FindByTelegramID(ctx, 42); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	})
}
