// File: internal/application/bot_facade.go
package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"afk-code-redeemer/internal/domain"
	"afk-code-redeemer/internal/domain/model"
	"afk-code-redeemer/internal/domain/ports/adapter"
	"afk-code-redeemer/internal/domain/ports/repository"
	"afk-code-redeemer/internal/usecase"

	"github.com/rs/zerolog"
)

// RunLocker serializes redemption runs per game account.
type RunLocker interface {
	TryLock(ctx context.Context, accountID string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, accountID, token string) error
}

// BotFacade composes usecases into high-level bot commands. Methods return
// ready-to-send strings so the Telegram adapter just forwards them.
type BotFacade struct {
	Aggregator    usecase.AggregatorUseCase
	Ledger        usecase.LedgerUseCase
	QuickRedeemer usecase.RedeemerUseCase
	BatchRedeemer usecase.RedeemerUseCase

	Sessions  adapter.SessionFactory
	Operators repository.OperatorRepository
	States    repository.StateRepository
	Codes     repository.CodeCache
	Locks     RunLocker

	log *zerolog.Logger
}

func NewBotFacade(
	aggregator usecase.AggregatorUseCase,
	ledger usecase.LedgerUseCase,
	quickRedeemer usecase.RedeemerUseCase,
	batchRedeemer usecase.RedeemerUseCase,
	sessions adapter.SessionFactory,
	operators repository.OperatorRepository,
	states repository.StateRepository,
	codes repository.CodeCache,
	locks RunLocker,
	log *zerolog.Logger,
) *BotFacade {
	return &BotFacade{
		Aggregator:    aggregator,
		Ledger:        ledger,
		QuickRedeemer: quickRedeemer,
		BatchRedeemer: batchRedeemer,
		Sessions:      sessions,
		Operators:     operators,
		States:        states,
		Codes:         codes,
		Locks:         locks,
		log:           log,
	}
}

// runLockTTL bounds a stuck run: 30 codes x several roles x 8s pacing.
const runLockTTL = 45 * time.Minute

// HandleStart greets the operator and reports whether an account is linked.
func (b *BotFacade) HandleStart(ctx context.Context, tgID int64) (string, error) {
	op, err := b.Operators.FindByTelegramID(ctx, tgID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "Welcome! Link your game account first: tap Setup Account and send your in-game UID.", nil
		}
		return "", fmt.Errorf("find operator: %w", err)
	}
	return fmt.Sprintf("Welcome back! Linked account UID: %s\nTap Parse Codes to fetch current promo codes, or Redeem to submit them.", op.AccountID), nil
}

// HandleSetupAccount starts the account-linking conversation.
func (b *BotFacade) HandleSetupAccount(ctx context.Context, tgID int64) (string, error) {
	if err := b.States.SetState(ctx, tgID, &repository.ConversationState{Step: repository.StepAwaitingAccountID}); err != nil {
		return "", fmt.Errorf("set state: %w", err)
	}
	return "Send your in-game UID (the number from Settings > Details).", nil
}

// HandleUpdateSecret asks for a fresh verification code before a redeem run.
func (b *BotFacade) HandleUpdateSecret(ctx context.Context, tgID int64) (string, error) {
	op, err := b.Operators.FindByTelegramID(ctx, tgID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "No account linked yet. Use Setup Account first.", nil
		}
		return "", fmt.Errorf("find operator: %w", err)
	}
	if err := b.States.SetState(ctx, tgID, &repository.ConversationState{
		Step:      repository.StepAwaitingSecret,
		AccountID: op.AccountID,
	}); err != nil {
		return "", fmt.Errorf("set state: %w", err)
	}
	return "Send the verification code from the in-game mail (Settings > Verification). It expires in about two minutes, so redeem right after.", nil
}

// HandleTextInput routes a plain message through the active conversation.
func (b *BotFacade) HandleTextInput(ctx context.Context, tgID int64, text string) (string, error) {
	state, err := b.States.GetState(ctx, tgID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "Use the menu buttons to get started (/start).", nil
		}
		return "", fmt.Errorf("get state: %w", err)
	}

	text = strings.TrimSpace(text)
	switch state.Step {
	case repository.StepAwaitingAccountID:
		return b.acceptAccountID(ctx, tgID, text)
	case repository.StepAwaitingSecret:
		return b.acceptSecret(ctx, tgID, state, text)
	default:
		return "Use the menu buttons to get started (/start).", nil
	}
}

func (b *BotFacade) acceptAccountID(ctx context.Context, tgID int64, text string) (string, error) {
	if !isGameUID(text) {
		return "That doesn't look like a UID. It is all digits, at least 8 of them. Try again.", nil
	}
	err := b.Operators.Save(ctx, &model.Operator{TelegramID: tgID, AccountID: text})
	if err != nil {
		if errors.Is(err, domain.ErrAccountClaimed) {
			_ = b.States.ClearState(ctx, tgID)
			return "That game account is already linked to another chat.", nil
		}
		return "", fmt.Errorf("save operator: %w", err)
	}
	if err := b.States.SetState(ctx, tgID, &repository.ConversationState{
		Step:      repository.StepAwaitingSecret,
		AccountID: text,
	}); err != nil {
		return "", fmt.Errorf("set state: %w", err)
	}
	return fmt.Sprintf("Account %s linked. Now send the verification code from the in-game mail.", text), nil
}

func (b *BotFacade) acceptSecret(ctx context.Context, tgID int64, state *repository.ConversationState, text string) (string, error) {
	if len(text) < 6 {
		return "Verification codes are at least 6 characters. Check the in-game mail and try again.", nil
	}
	state.Step = repository.StepReady
	state.Secret = text
	if err := b.States.SetState(ctx, tgID, state); err != nil {
		return "", fmt.Errorf("set state: %w", err)
	}
	return "Got it. The code expires in about two minutes — tap Redeem now.", nil
}

// HandleParse scrapes all sources, filters out codes this account has already
// been through, and caches the rest for a following redeem.
func (b *BotFacade) HandleParse(ctx context.Context, tgID int64) (string, error) {
	return b.parse(ctx, tgID, b.Aggregator.Collect)
}

// HandleParseSource scrapes a single listing source by name.
func (b *BotFacade) HandleParseSource(ctx context.Context, tgID int64, source string) (string, error) {
	return b.parse(ctx, tgID, func(ctx context.Context) ([]model.CandidateCode, error) {
		return b.Aggregator.CollectSource(ctx, source)
	})
}

// ParseSources lists the configured source names for the parse menu.
func (b *BotFacade) ParseSources() []string {
	return b.Aggregator.Sources()
}

func (b *BotFacade) parse(ctx context.Context, tgID int64, collect func(context.Context) ([]model.CandidateCode, error)) (string, error) {
	op, err := b.Operators.FindByTelegramID(ctx, tgID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "No account linked yet. Use Setup Account first.", nil
		}
		return "", fmt.Errorf("find operator: %w", err)
	}

	candidates, err := collect(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "Unknown source. Use the Parse menu buttons.", nil
		}
		return "", fmt.Errorf("collect codes: %w", err)
	}
	fresh, err := b.Ledger.FilterNew(ctx, op.AccountID, candidates)
	if err != nil {
		return "", fmt.Errorf("filter codes: %w", err)
	}
	if err := b.Codes.Store(ctx, op.AccountID, fresh); err != nil {
		return "", fmt.Errorf("cache codes: %w", err)
	}

	if len(fresh) == 0 {
		return fmt.Sprintf("Found %d codes across sources, but nothing new for this account.", len(candidates)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d new codes (of %d listed):\n", len(fresh), len(candidates))
	for _, c := range fresh {
		fmt.Fprintf(&sb, "  %s  (%s)\n", c.Code, c.Source)
	}
	sb.WriteString("\nSend a fresh verification code (Update Secret), then tap Redeem All.")
	return sb.String(), nil
}

// HandleRedeemAll runs the cached candidate list through the batch redeemer.
func (b *BotFacade) HandleRedeemAll(ctx context.Context, tgID int64) (string, error) {
	return b.redeem(ctx, tgID, b.BatchRedeemer, nil)
}

// HandleRedeemCode submits one manually supplied code through the quick
// redeemer.
func (b *BotFacade) HandleRedeemCode(ctx context.Context, tgID int64, raw string) (string, error) {
	cand, ok := model.NewCandidate(raw, "manual")
	if !ok {
		return "That doesn't look like a code.", nil
	}
	return b.redeem(ctx, tgID, b.QuickRedeemer, []model.CandidateCode{cand})
}

// redeem is the shared run path: resolve operator and secret, take the
// per-account lock, open a session, run, report.
func (b *BotFacade) redeem(ctx context.Context, tgID int64, redeemer usecase.RedeemerUseCase, manual []model.CandidateCode) (string, error) {
	op, err := b.Operators.FindByTelegramID(ctx, tgID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "No account linked yet. Use Setup Account first.", nil
		}
		return "", fmt.Errorf("find operator: %w", err)
	}

	state, err := b.States.GetState(ctx, tgID)
	if err != nil || state.Step != repository.StepReady || state.Secret == "" {
		return "I need a fresh verification code first. Tap Update Secret and send it.", nil
	}

	candidates := manual
	if candidates == nil {
		cached, err := b.Codes.Get(ctx, op.AccountID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return "No parsed codes on hand. Tap Parse Codes first.", nil
			}
			return "", fmt.Errorf("cached codes: %w", err)
		}
		candidates = cached
	}
	// Re-filter against the ledger: the cache may predate a previous run.
	candidates, err = b.Ledger.FilterNew(ctx, op.AccountID, candidates)
	if err != nil {
		return "", fmt.Errorf("filter codes: %w", err)
	}
	if len(candidates) == 0 {
		return "Every code on hand has already been attempted for this account.", nil
	}

	token, err := b.Locks.TryLock(ctx, op.AccountID, runLockTTL)
	if err != nil {
		if errors.Is(err, domain.ErrRunInProgress) {
			return "A redemption run is already in progress for this account. Wait for it to finish.", nil
		}
		return "", fmt.Errorf("acquire run lock: %w", err)
	}
	defer func() {
		if err := b.Locks.Unlock(ctx, op.AccountID, token); err != nil {
			b.log.Warn().Err(err).Str("account_id", op.AccountID).Msg("releasing run lock failed")
		}
	}()

	sess := b.Sessions.NewSession(op.AccountID, state.Secret)
	// The secret is single-use: burn it regardless of how the run goes.
	defer b.clearSecret(ctx, tgID)

	if err := sess.Authenticate(ctx); err != nil {
		if errors.Is(err, domain.ErrAuthFailed) {
			return "Verification failed. The code is wrong or expired — get a new one in-game and try Update Secret again.", nil
		}
		return "", fmt.Errorf("authenticate: %w", err)
	}

	roles, err := sess.ListRoles(ctx)
	if err != nil {
		return "", fmt.Errorf("list roles: %w", err)
	}
	if len(roles) == 0 {
		return "The account verified, but no game roles were found under it.", nil
	}

	report, err := redeemer.Run(ctx, sess, op.AccountID, candidates, roles)
	if err != nil && !usecase.IsHalt(err) {
		return "", fmt.Errorf("redemption run: %w", err)
	}

	// Drop redeemed/failed codes from the cache so a rerun starts clean.
	if manual == nil {
		if err := b.Codes.Delete(ctx, op.AccountID); err != nil {
			b.log.Warn().Err(err).Msg("clearing code cache failed")
		}
	}
	return formatReport(report), nil
}

func (b *BotFacade) clearSecret(ctx context.Context, tgID int64) {
	if err := b.States.ClearState(ctx, tgID); err != nil {
		b.log.Warn().Err(err).Int64("tg_id", tgID).Msg("clearing conversation state failed")
	}
}

// HandleStatus summarizes the ledger for the linked account.
func (b *BotFacade) HandleStatus(ctx context.Context, tgID int64) (string, error) {
	op, err := b.Operators.FindByTelegramID(ctx, tgID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "No account linked yet. Use Setup Account first.", nil
		}
		return "", fmt.Errorf("find operator: %w", err)
	}
	sets, err := b.Ledger.Sets(ctx, op.AccountID)
	if err != nil {
		return "", fmt.Errorf("ledger: %w", err)
	}
	return fmt.Sprintf("Account UID: %s\nRedeemed codes: %d\nFailed codes: %d", op.AccountID, len(sets.Used), len(sets.Failed)), nil
}

// HandleAccountInfo authenticates with the armed secret and lists the game
// roles under the linked account. Like a redeem run it consumes the secret.
func (b *BotFacade) HandleAccountInfo(ctx context.Context, tgID int64) (string, error) {
	op, err := b.Operators.FindByTelegramID(ctx, tgID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "No account linked yet. Use Setup Account first.", nil
		}
		return "", fmt.Errorf("find operator: %w", err)
	}
	state, err := b.States.GetState(ctx, tgID)
	if err != nil || state.Step != repository.StepReady || state.Secret == "" {
		return "I need a fresh verification code first. Tap Update Secret and send it.", nil
	}

	sess := b.Sessions.NewSession(op.AccountID, state.Secret)
	defer b.clearSecret(ctx, tgID)

	if err := sess.Authenticate(ctx); err != nil {
		if errors.Is(err, domain.ErrAuthFailed) {
			return "Verification failed. The code is wrong or expired — get a new one in-game and try Update Secret again.", nil
		}
		return "", fmt.Errorf("authenticate: %w", err)
	}
	roles, err := sess.ListRoles(ctx)
	if err != nil {
		return "", fmt.Errorf("list roles: %w", err)
	}
	if len(roles) == 0 {
		return "The account verified, but no game roles were found under it.", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Account UID %s has %d role(s):\n", op.AccountID, len(roles))
	for _, r := range roles {
		marker := ""
		if r.IsMain {
			marker = "  (main)"
		}
		fmt.Fprintf(&sb, "  %s — server %s, level %d%s\n", r.Name, r.ServerID, r.Level, marker)
	}
	sb.WriteString("\nNote: the verification code was consumed. Send a new one before redeeming.")
	return sb.String(), nil
}

// HandleViewUsed lists codes confirmed redeemed for this account.
func (b *BotFacade) HandleViewUsed(ctx context.Context, tgID int64) (string, error) {
	return b.viewSet(ctx, tgID, "Redeemed codes", func(s repository.LedgerSets) []string { return s.Used })
}

// HandleViewFailed lists codes attempted without success.
func (b *BotFacade) HandleViewFailed(ctx context.Context, tgID int64) (string, error) {
	return b.viewSet(ctx, tgID, "Failed codes", func(s repository.LedgerSets) []string { return s.Failed })
}

func (b *BotFacade) viewSet(ctx context.Context, tgID int64, title string, pick func(repository.LedgerSets) []string) (string, error) {
	op, err := b.Operators.FindByTelegramID(ctx, tgID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "No account linked yet. Use Setup Account first.", nil
		}
		return "", fmt.Errorf("find operator: %w", err)
	}
	sets, err := b.Ledger.Sets(ctx, op.AccountID)
	if err != nil {
		return "", fmt.Errorf("ledger: %w", err)
	}
	codes := pick(sets)
	if len(codes) == 0 {
		return title + ": none yet.", nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%d):\n", title, len(codes))
	for _, c := range codes {
		sb.WriteString("  " + c + "\n")
	}
	return sb.String(), nil
}

// HandleClearFailed empties the failed set so those codes get retried.
func (b *BotFacade) HandleClearFailed(ctx context.Context, tgID int64) (string, error) {
	op, err := b.Operators.FindByTelegramID(ctx, tgID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "No account linked yet. Use Setup Account first.", nil
		}
		return "", fmt.Errorf("find operator: %w", err)
	}
	if err := b.Ledger.ClearFailed(ctx, op.AccountID); err != nil {
		return "", fmt.Errorf("clear failed: %w", err)
	}
	return "Failed codes cleared. They will be attempted again on the next run.", nil
}

// HandleClearAccount wipes the whole ledger for the linked account.
func (b *BotFacade) HandleClearAccount(ctx context.Context, tgID int64) (string, error) {
	op, err := b.Operators.FindByTelegramID(ctx, tgID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "No account linked yet. Use Setup Account first.", nil
		}
		return "", fmt.Errorf("find operator: %w", err)
	}
	if err := b.Ledger.ClearAccount(ctx, op.AccountID); err != nil {
		return "", fmt.Errorf("clear account: %w", err)
	}
	return "Account history wiped: both redeemed and failed sets are empty.", nil
}

func isGameUID(s string) bool {
	if len(s) < 8 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func formatReport(r *model.BatchReport) string {
	var sb strings.Builder
	sb.WriteString("Run finished.\n")
	fmt.Fprintf(&sb, "Codes processed: %d (roles: %d)\n", r.TotalProcessed, r.Roles)
	fmt.Fprintf(&sb, "Successful submissions: %d\nFailed submissions: %d\n", r.Success, r.Failed)
	if len(r.SuccessfulCodes) > 0 {
		sb.WriteString("Redeemed: " + strings.Join(r.SuccessfulCodes, ", ") + "\n")
	}
	if len(r.FailedCodes) > 0 {
		sb.WriteString("Rejected: " + strings.Join(r.FailedCodes, ", ") + "\n")
	}
	if r.Remaining > 0 {
		fmt.Fprintf(&sb, "%d codes deferred to the next run (per-run cap).\n", r.Remaining)
	}
	if r.Halted {
		sb.WriteString("The session expired mid-run. Get a fresh verification code and redeem again to continue.\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
