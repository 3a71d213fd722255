// File: internal/usecase/redeem_uc_test.go
package usecase

import (
	"context"
	"errors"
	"testing"

	"afk-code-redeemer/internal/domain"
	"afk-code-redeemer/internal/domain/model"
	"afk-code-redeemer/internal/domain/ports/adapter"

	"github.com/google/go-cmp/cmp"
)

var twoRoles = []model.Role{
	{ID: "111", Name: "Main", ServerID: "s1", IsMain: true},
	{ID: "222", Name: "Alt", ServerID: "s42"},
}

func newRunUC(repo *memLedgerRepo, pacer Pacer) RedeemerUseCase {
	return NewRedeemerUseCase(NewLedgerUseCase(repo), pacer, 30, testLogger())
}

func TestRun_AllRedeemed(t *testing.T) {
	t.Parallel()

	repo := newMemLedgerRepo()
	pacer := &countingPacer{}
	sess := &fakeSession{def: scriptedResult{res: okResult}}

	report, err := newRunUC(repo, pacer).Run(context.Background(), sess, "acc1",
		candidates("WINTER2024", "BONUS100"), twoRoles)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if report.Success != 4 || report.Failed != 0 {
		t.Fatalf("success=%d failed=%d, want 4/0", report.Success, report.Failed)
	}
	if report.TotalProcessed != 2 {
		t.Fatalf("TotalProcessed = %d, want 2", report.TotalProcessed)
	}
	if diff := cmp.Diff([]string{"WINTER2024", "BONUS100"}, report.SuccessfulCodes); diff != "" {
		t.Fatalf("successful codes (-want +got):\n%s", diff)
	}
	if len(report.FailedCodes) != 0 {
		t.Fatalf("failed codes = %v, want none", report.FailedCodes)
	}
	// One pace before every submission, the first included.
	if pacer.count() != 4 {
		t.Fatalf("pacer waits = %d, want 4", pacer.count())
	}

	sets, _ := repo.Find(context.Background(), "acc1")
	if len(sets.Used) != 2 || len(sets.Failed) != 0 {
		t.Fatalf("ledger after run: %+v", sets)
	}
}

func TestRun_HaltsOnExpiredSession(t *testing.T) {
	t.Parallel()

	repo := newMemLedgerRepo()
	sess := &fakeSession{
		def: scriptedResult{res: okResult},
		script: map[string]scriptedResult{
			"C3": {res: adapter.AttemptResult{StatusCode: 401, Message: "Unauthorized"}},
		},
	}

	// Five codes, session dies on the third.
	report, err := newRunUC(repo, &countingPacer{}).Run(context.Background(), sess, "acc1",
		candidates("C1", "C2", "C3", "C4", "C5"), twoRoles)
	if !errors.Is(err, domain.ErrAuthExpired) {
		t.Fatalf("err = %v, want ErrAuthExpired", err)
	}
	if !report.Halted {
		t.Fatal("report.Halted = false")
	}
	if report.TotalProcessed != 3 {
		t.Fatalf("TotalProcessed = %d, want 3", report.TotalProcessed)
	}
	// C4 and C5 were never submitted.
	if got := sess.callCount(); got != 5 {
		t.Fatalf("submissions = %d, want 5 (2+2 for C1,C2 then 1 for C3)", got)
	}

	// The half-attempted C3 lands in neither set, so a later run retries it.
	sets, _ := repo.Find(context.Background(), "acc1")
	if len(sets.Used) != 2 {
		t.Fatalf("used = %v, want C1 C2", sets.Used)
	}
	for _, c := range append(sets.Used, sets.Failed...) {
		if c == "C3" {
			t.Fatal("halted code C3 leaked into the ledger")
		}
	}
}

func TestRun_MixedOutcomesPerRole(t *testing.T) {
	t.Parallel()

	repo := newMemLedgerRepo()
	// Redeemed for the first role, already used on the second: the code
	// still counts as successful.
	calls := 0
	sess := &seqSession{results: []scriptedResult{
		{res: okResult},
		rejected("already redeemed"),
	}, calls: &calls}

	report, err := newRunUC(repo, &countingPacer{}).Run(context.Background(), sess, "acc1",
		candidates("MIXED1"), twoRoles)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Success != 1 || report.Failed != 1 {
		t.Fatalf("success=%d failed=%d, want 1/1", report.Success, report.Failed)
	}
	if diff := cmp.Diff([]string{"MIXED1"}, report.SuccessfulCodes); diff != "" {
		t.Fatalf("successful codes (-want +got):\n%s", diff)
	}

	sets, _ := repo.Find(context.Background(), "acc1")
	if diff := cmp.Diff([]string{"MIXED1"}, sets.Used); diff != "" {
		t.Fatalf("used set (-want +got):\n%s", diff)
	}
}

func TestRun_RejectionGoesToFailedSet(t *testing.T) {
	t.Parallel()

	repo := newMemLedgerRepo()
	sess := &fakeSession{def: rejected("Invalid gift code")}

	report, err := newRunUC(repo, &countingPacer{}).Run(context.Background(), sess, "acc1",
		candidates("BAD1"), twoRoles)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Success != 0 || report.Failed != 2 {
		t.Fatalf("success=%d failed=%d, want 0/2", report.Success, report.Failed)
	}
	if diff := cmp.Diff([]string{"BAD1"}, report.FailedCodes); diff != "" {
		t.Fatalf("failed codes (-want +got):\n%s", diff)
	}

	sets, _ := repo.Find(context.Background(), "acc1")
	if diff := cmp.Diff([]string{"BAD1"}, sets.Failed); diff != "" {
		t.Fatalf("failed set (-want +got):\n%s", diff)
	}
}

func TestRun_NetworkErrorCountsAsFailure(t *testing.T) {
	t.Parallel()

	repo := newMemLedgerRepo()
	sess := &fakeSession{def: scriptedResult{err: errors.New("dial tcp: i/o timeout")}}

	report, err := newRunUC(repo, &countingPacer{}).Run(context.Background(), sess, "acc1",
		candidates("NET1"), twoRoles[:1])
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Failed != 1 {
		t.Fatalf("failed = %d, want 1", report.Failed)
	}
	if report.Attempts[0].Outcome != model.OutcomeNetworkError {
		t.Fatalf("outcome = %q, want network_error", report.Attempts[0].Outcome)
	}
}

func TestRun_CapsBatchAndReportsRemainder(t *testing.T) {
	t.Parallel()

	repo := newMemLedgerRepo()
	sess := &fakeSession{def: scriptedResult{res: okResult}}
	uc := NewRedeemerUseCase(NewLedgerUseCase(repo), &countingPacer{}, 2, testLogger())

	report, err := uc.Run(context.Background(), sess, "acc1",
		candidates("C1", "C2", "C3", "C4"), twoRoles[:1])
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.TotalProcessed != 2 || report.Remaining != 2 {
		t.Fatalf("processed=%d remaining=%d, want 2/2", report.TotalProcessed, report.Remaining)
	}
}

func TestRun_NoRoles(t *testing.T) {
	t.Parallel()

	repo := newMemLedgerRepo()
	sess := &fakeSession{def: scriptedResult{res: okResult}}

	report, err := newRunUC(repo, &countingPacer{}).Run(context.Background(), sess, "acc1",
		candidates("C1"), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.TotalProcessed != 0 || sess.callCount() != 0 {
		t.Fatalf("submissions happened with no roles: %+v", report)
	}
}

func TestRun_LedgerWriteFailureIsFatal(t *testing.T) {
	t.Parallel()

	repo := newMemLedgerRepo()
	sess := &fakeSession{def: scriptedResult{res: okResult}}
	uc := newRunUC(repo, &countingPacer{})

	repo.err = errors.New("pg down")
	// Find happens inside RecordUsed path only in the repo; the run itself
	// must surface the persistence failure.
	_, err := uc.Run(context.Background(), sess, "acc1", candidates("C1"), twoRoles[:1])
	if err == nil || errors.Is(err, domain.ErrAuthExpired) {
		t.Fatalf("err = %v, want persistence error", err)
	}
}

// seqSession replays results strictly in call order, ignoring code and role.
type seqSession struct {
	results []scriptedResult
	calls   *int
}

func (s *seqSession) Authenticate(context.Context) error { return nil }

func (s *seqSession) ListRoles(context.Context) ([]model.Role, error) { return nil, nil }

func (s *seqSession) Redeem(_ context.Context, _ string, _ model.Role) (adapter.AttemptResult, error) {
	r := s.results[*s.calls%len(s.results)]
	*s.calls++
	return r.res, r.err
}
