// File: internal/usecase/classify.go
package usecase

import (
	"strings"

	"afk-code-redeemer/internal/domain/model"
)

// classifyRule maps a remote response shape to an outcome. status 0 matches
// any status; an empty needle matches any message. Rules are evaluated in
// order, first match wins.
type classifyRule struct {
	status  int
	needle  string
	outcome model.Outcome
}

// The matching substrings come from observed service responses: 400s carry
// machine-distinguishable messages, and "verification code"/"expired" on a
// 400 means the single-use secret itself died mid-run, which is fatal for
// the whole batch.
var classifyRules = []classifyRule{
	{status: 401, outcome: model.OutcomeAuthExpired},
	{status: 400, needle: "verification code", outcome: model.OutcomeAuthExpired},
	{status: 400, needle: "expired", outcome: model.OutcomeAuthExpired},
	{needle: "err_freq_limit", outcome: model.OutcomeRateLimited},
	{needle: "frequen", outcome: model.OutcomeRateLimited},
	{needle: "rate limit", outcome: model.OutcomeRateLimited},
	{needle: "already", outcome: model.OutcomeAlreadyUsed},
	{needle: "not_found", outcome: model.OutcomeNotFound},
	{needle: "not found", outcome: model.OutcomeNotFound},
	{needle: "invalid", outcome: model.OutcomeInvalid},
	{needle: "expired", outcome: model.OutcomeExpired},
}

// Classify maps one remote response to a terminal outcome. Pure function so
// the matching table is testable without any network code.
func Classify(status int, success bool, message string) model.Outcome {
	if status >= 200 && status < 300 && success {
		return model.OutcomeRedeemed
	}
	msg := strings.ToLower(message)
	for _, r := range classifyRules {
		if r.status != 0 && r.status != status {
			continue
		}
		if r.needle != "" && !strings.Contains(msg, r.needle) {
			continue
		}
		return r.outcome
	}
	return model.OutcomeUnknown
}
