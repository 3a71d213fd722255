// File: internal/usecase/redeem_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"afk-code-redeemer/internal/domain"
	"afk-code-redeemer/internal/domain/model"
	"afk-code-redeemer/internal/domain/ports/adapter"
	"afk-code-redeemer/internal/infra/logging"
	"afk-code-redeemer/internal/infra/metrics"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

// RedeemerUseCase orchestrates one run: submit each candidate code for every
// role through an authenticated session, pacing submissions, classifying
// outcomes and writing the result back to the durable ledger.
type RedeemerUseCase interface {
	// Run attempts the given candidates against every role. The session must
	// already be authenticated. It returns the batch report together with
	// domain.ErrAuthExpired when the session died mid-run; the report is
	// valid and the ledger consistent in that case too.
	Run(ctx context.Context, sess adapter.RedemptionSession, accountID string, candidates []model.CandidateCode, roles []model.Role) (*model.BatchReport, error)
}

type redeemerUseCase struct {
	ledger    LedgerUseCase
	pacer     Pacer
	maxPerRun int
	log       *zerolog.Logger
}

var _ RedeemerUseCase = (*redeemerUseCase)(nil)

func NewRedeemerUseCase(ledger LedgerUseCase, pacer Pacer, maxPerRun int, log *zerolog.Logger) RedeemerUseCase {
	return &redeemerUseCase{ledger: ledger, pacer: pacer, maxPerRun: maxPerRun, log: log}
}

func (r *redeemerUseCase) Run(ctx context.Context, sess adapter.RedemptionSession, accountID string, candidates []model.CandidateCode, roles []model.Role) (*model.BatchReport, error) {
	report := &model.BatchReport{
		RunID: ulid.Make().String(),
		Roles: len(roles),
	}
	ctx = logging.WithRunID(logging.WithAccountID(ctx, accountID), report.RunID)
	log := logging.With(ctx, r.log)
	started := time.Now()

	if len(roles) == 0 {
		log.Warn().Msg("no roles on account, nothing to redeem")
		return report, nil
	}

	batch := candidates
	if r.maxPerRun > 0 && len(batch) > r.maxPerRun {
		report.Remaining = len(batch) - r.maxPerRun
		batch = batch[:r.maxPerRun]
		log.Info().Int("cap", r.maxPerRun).Int("remaining", report.Remaining).Msg("batch capped, surplus deferred")
	}

	var usedCodes, failedCodes []string

codes:
	for _, cand := range batch {
		report.TotalProcessed++
		codeRedeemed := false
		attemptedAll := true

		for _, role := range roles {
			if err := r.pacer.Wait(ctx); err != nil {
				return report, err
			}

			res, err := sess.Redeem(ctx, cand.Code, role)
			var outcome model.Outcome
			var msg string
			if err != nil {
				if ctx.Err() != nil {
					return report, ctx.Err()
				}
				outcome = model.OutcomeNetworkError
				msg = err.Error()
			} else {
				outcome = Classify(res.StatusCode, res.Success, res.Message)
				msg = res.Message
			}

			report.Attempts = append(report.Attempts, model.Attempt{
				Code:     cand.Code,
				RoleID:   role.ID,
				RoleName: role.Name,
				Outcome:  outcome,
				Message:  msg,
			})
			metrics.IncAttempt(string(outcome))
			log.Debug().
				Str("code", cand.Code).
				Str("role", role.Name).
				Str("outcome", string(outcome)).
				Msg("submission classified")

			switch {
			case outcome == model.OutcomeRedeemed:
				report.Success++
				codeRedeemed = true
			case outcome.Halts():
				report.Failed++
				report.Halted = true
				attemptedAll = false
				log.Warn().Str("code", cand.Code).Msg("session expired mid-run, halting batch")
				// A redemption that landed before the session died is still
				// real; otherwise the half-attempted code stays out of both
				// ledger sets so the next run retries it from scratch.
				if codeRedeemed {
					usedCodes = append(usedCodes, cand.Code)
					report.SuccessfulCodes = append(report.SuccessfulCodes, cand.Code)
				}
				break codes
			default:
				report.Failed++
			}
		}

		if codeRedeemed {
			usedCodes = append(usedCodes, cand.Code)
			report.SuccessfulCodes = append(report.SuccessfulCodes, cand.Code)
		} else if attemptedAll {
			failedCodes = append(failedCodes, cand.Code)
			report.FailedCodes = append(report.FailedCodes, cand.Code)
		}
	}

	if err := r.ledger.RecordUsed(ctx, accountID, usedCodes); err != nil {
		metrics.IncRun("error")
		return report, fmt.Errorf("recording used codes: %w", err)
	}
	if err := r.ledger.RecordFailed(ctx, accountID, failedCodes); err != nil {
		metrics.IncRun("error")
		return report, fmt.Errorf("recording failed codes: %w", err)
	}

	metrics.ObserveRunDuration(time.Since(started).Seconds())
	log.Info().
		Int("processed", report.TotalProcessed).
		Int("success", report.Success).
		Int("failed", report.Failed).
		Bool("halted", report.Halted).
		Msg("redemption run finished")

	if report.Halted {
		metrics.IncRun("halted")
		return report, domain.ErrAuthExpired
	}
	metrics.IncRun("completed")
	return report, nil
}

// IsHalt reports whether a Run error is the expected mid-batch halt rather
// than an infrastructure failure.
func IsHalt(err error) bool {
	return errors.Is(err, domain.ErrAuthExpired)
}
