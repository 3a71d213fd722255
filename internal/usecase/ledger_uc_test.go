// File: internal/usecase/ledger_uc_test.go
package usecase

import (
	"context"
	"sort"
	"testing"

	"afk-code-redeemer/internal/domain/model"

	"github.com/google/go-cmp/cmp"
)

func candidates(codes ...string) []model.CandidateCode {
	out := make([]model.CandidateCode, 0, len(codes))
	for _, raw := range codes {
		c, _ := model.NewCandidate(raw, "test")
		out = append(out, c)
	}
	return out
}

func codeStrings(in []model.CandidateCode) []string {
	out := make([]string, len(in))
	for i, c := range in {
		out[i] = c.Code
	}
	return out
}

func TestFilterNew_DropsKnownCodes(t *testing.T) {
	t.Parallel()

	repo := newMemLedgerRepo()
	uc := NewLedgerUseCase(repo)
	ctx := context.Background()

	if err := uc.RecordUsed(ctx, "acc1", []string{"USED1"}); err != nil {
		t.Fatal(err)
	}
	if err := uc.RecordFailed(ctx, "acc1", []string{"FAIL1"}); err != nil {
		t.Fatal(err)
	}

	got, err := uc.FilterNew(ctx, "acc1", candidates("used1", "FAIL1", "NEW1"))
	if err != nil {
		t.Fatalf("FilterNew: %v", err)
	}
	if diff := cmp.Diff([]string{"NEW1"}, codeStrings(got)); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestFilterNew_Idempotent(t *testing.T) {
	t.Parallel()

	repo := newMemLedgerRepo()
	uc := NewLedgerUseCase(repo)
	ctx := context.Background()

	if err := uc.RecordUsed(ctx, "acc1", []string{"A"}); err != nil {
		t.Fatal(err)
	}

	in := candidates("A", "B", "C")
	first, err := uc.FilterNew(ctx, "acc1", in)
	if err != nil {
		t.Fatal(err)
	}
	second, err := uc.FilterNew(ctx, "acc1", first)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("second filter changed the list (-first +second):\n%s", diff)
	}
}

func TestFilterNew_IsolatedPerAccount(t *testing.T) {
	t.Parallel()

	repo := newMemLedgerRepo()
	uc := NewLedgerUseCase(repo)
	ctx := context.Background()

	if err := uc.RecordUsed(ctx, "acc1", []string{"SHARED"}); err != nil {
		t.Fatal(err)
	}

	got, err := uc.FilterNew(ctx, "acc2", candidates("SHARED"))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("acc2 filtered out a code only acc1 used: %v", got)
	}
}

func TestRecordUsed_SupersedesFailed(t *testing.T) {
	t.Parallel()

	repo := newMemLedgerRepo()
	uc := NewLedgerUseCase(repo)
	ctx := context.Background()

	if err := uc.RecordFailed(ctx, "acc1", []string{"CODE1"}); err != nil {
		t.Fatal(err)
	}
	if err := uc.RecordUsed(ctx, "acc1", []string{"code1"}); err != nil {
		t.Fatal(err)
	}

	sets, err := uc.Sets(ctx, "acc1")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"CODE1"}, sets.Used); diff != "" {
		t.Fatalf("used mismatch (-want +got):\n%s", diff)
	}
	if len(sets.Failed) != 0 {
		t.Fatalf("code still in failed set after being used: %v", sets.Failed)
	}
}

func TestClearFailed_MakesCodesRetriable(t *testing.T) {
	t.Parallel()

	repo := newMemLedgerRepo()
	uc := NewLedgerUseCase(repo)
	ctx := context.Background()

	if err := uc.RecordUsed(ctx, "acc1", []string{"USED1"}); err != nil {
		t.Fatal(err)
	}
	if err := uc.RecordFailed(ctx, "acc1", []string{"FAIL1", "FAIL2"}); err != nil {
		t.Fatal(err)
	}
	if err := uc.ClearFailed(ctx, "acc1"); err != nil {
		t.Fatal(err)
	}

	got, err := uc.FilterNew(ctx, "acc1", candidates("USED1", "FAIL1", "FAIL2"))
	if err != nil {
		t.Fatal(err)
	}
	codes := codeStrings(got)
	sort.Strings(codes)
	if diff := cmp.Diff([]string{"FAIL1", "FAIL2"}, codes); diff != "" {
		t.Fatalf("retriable codes mismatch (-want +got):\n%s", diff)
	}
}

func TestClearAccount_WipesBothSets(t *testing.T) {
	t.Parallel()

	repo := newMemLedgerRepo()
	uc := NewLedgerUseCase(repo)
	ctx := context.Background()

	if err := uc.RecordUsed(ctx, "acc1", []string{"USED1"}); err != nil {
		t.Fatal(err)
	}
	if err := uc.RecordFailed(ctx, "acc1", []string{"FAIL1"}); err != nil {
		t.Fatal(err)
	}
	if err := uc.ClearAccount(ctx, "acc1"); err != nil {
		t.Fatal(err)
	}

	sets, err := uc.Sets(ctx, "acc1")
	if err != nil {
		t.Fatal(err)
	}
	if len(sets.Used) != 0 || len(sets.Failed) != 0 {
		t.Fatalf("ledger not empty after reset: %+v", sets)
	}
}
