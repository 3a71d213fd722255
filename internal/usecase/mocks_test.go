// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"strings"
	"sync"

	"afk-code-redeemer/internal/domain/model"
	"afk-code-redeemer/internal/domain/ports/adapter"
	"afk-code-redeemer/internal/domain/ports/repository"

	"github.com/rs/zerolog"
)

func testLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// memLedgerRepo is an in-memory LedgerRepository keeping the single-set
// invariant: a code lives in used or failed, never both.
type memLedgerRepo struct {
	mu     sync.Mutex
	used   map[string]map[string]struct{} // accountID -> codes
	failed map[string]map[string]struct{}
	err    error // when set, every call fails with it
}

func newMemLedgerRepo() *memLedgerRepo {
	return &memLedgerRepo{
		used:   make(map[string]map[string]struct{}),
		failed: make(map[string]map[string]struct{}),
	}
}

var _ repository.LedgerRepository = (*memLedgerRepo)(nil)

func (m *memLedgerRepo) Find(_ context.Context, accountID string) (repository.LedgerSets, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return repository.LedgerSets{}, m.err
	}
	var sets repository.LedgerSets
	for c := range m.used[accountID] {
		sets.Used = append(sets.Used, c)
	}
	for c := range m.failed[accountID] {
		sets.Failed = append(sets.Failed, c)
	}
	return sets, nil
}

func (m *memLedgerRepo) RecordUsed(_ context.Context, accountID string, codes []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.used[accountID] == nil {
		m.used[accountID] = make(map[string]struct{})
	}
	for _, c := range codes {
		c = strings.ToUpper(c)
		m.used[accountID][c] = struct{}{}
		delete(m.failed[accountID], c)
	}
	return nil
}

func (m *memLedgerRepo) RecordFailed(_ context.Context, accountID string, codes []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.failed[accountID] == nil {
		m.failed[accountID] = make(map[string]struct{})
	}
	for _, c := range codes {
		c = strings.ToUpper(c)
		if _, isUsed := m.used[accountID][c]; isUsed {
			continue
		}
		m.failed[accountID][c] = struct{}{}
	}
	return nil
}

func (m *memLedgerRepo) ClearFailed(_ context.Context, accountID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	delete(m.failed, accountID)
	return nil
}

func (m *memLedgerRepo) ClearAccount(_ context.Context, accountID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	delete(m.used, accountID)
	delete(m.failed, accountID)
	return nil
}

func (m *memLedgerRepo) Stats(_ context.Context) (repository.LedgerStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return repository.LedgerStats{}, m.err
	}
	accounts := make(map[string]struct{})
	var stats repository.LedgerStats
	for id, codes := range m.used {
		accounts[id] = struct{}{}
		stats.Used += len(codes)
	}
	for id, codes := range m.failed {
		if len(codes) == 0 {
			continue
		}
		accounts[id] = struct{}{}
		stats.Failed += len(codes)
	}
	stats.Accounts = len(accounts)
	return stats, nil
}

// fakeScraper yields a fixed code list or a fixed error.
type fakeScraper struct {
	name  string
	codes []string
	err   error
}

var _ adapter.SourceScraper = (*fakeScraper)(nil)

func (f *fakeScraper) Name() string { return f.name }

func (f *fakeScraper) Scrape(_ context.Context) ([]model.CandidateCode, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]model.CandidateCode, 0, len(f.codes))
	for _, raw := range f.codes {
		if c, ok := model.NewCandidate(raw, f.name); ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// scriptedResult is one canned remote answer keyed by submitted code.
type scriptedResult struct {
	res adapter.AttemptResult
	err error
}

// fakeSession replays canned answers per code and records submission order.
type fakeSession struct {
	mu      sync.Mutex
	script  map[string]scriptedResult
	def     scriptedResult
	calls   []string // "CODE/roleID" in submission order
	authErr error
	roles   []model.Role
}

var _ adapter.RedemptionSession = (*fakeSession)(nil)

func (f *fakeSession) Authenticate(_ context.Context) error { return f.authErr }

func (f *fakeSession) ListRoles(_ context.Context) ([]model.Role, error) {
	return f.roles, nil
}

func (f *fakeSession) Redeem(_ context.Context, code string, role model.Role) (adapter.AttemptResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, code+"/"+role.ID)
	f.mu.Unlock()
	if r, ok := f.script[code]; ok {
		return r.res, r.err
	}
	return f.def.res, f.def.err
}

func (f *fakeSession) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// countingPacer counts waits without sleeping.
type countingPacer struct {
	mu    sync.Mutex
	waits int
}

var _ Pacer = (*countingPacer)(nil)

func (p *countingPacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	p.waits++
	p.mu.Unlock()
	return ctx.Err()
}

func (p *countingPacer) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.waits
}

var okResult = adapter.AttemptResult{StatusCode: 200, Success: true, Message: "ok"}

func rejected(msg string) scriptedResult {
	return scriptedResult{res: adapter.AttemptResult{StatusCode: 200, Success: false, Message: msg}}
}
