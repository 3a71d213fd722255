package adapter

import (
	"context"

	"afk-code-redeemer/internal/domain/model"
)

// AttemptResult is the raw remote answer to one submission, before outcome
// classification. Message carries whatever the service said, for diagnostics.
type AttemptResult struct {
	StatusCode int
	Success    bool
	Message    string
}

// RedemptionSession drives one authenticated exchange with the remote
// redemption service. Sessions are short-lived: the verification secret that
// opens them is single-use and expires within minutes, so a session is never
// persisted and never refreshed silently. Once the token dies the caller must
// build a new session from a fresh secret.
type RedemptionSession interface {
	// Authenticate performs the one-time verification exchange and stores
	// the bearer token for subsequent calls.
	Authenticate(ctx context.Context) error
	// ListRoles enumerates the in-game roles under this account. An empty
	// list is a valid result, not an error.
	ListRoles(ctx context.Context) ([]model.Role, error)
	// Redeem submits one code for one role. A returned error means the
	// request itself failed (network, timeout); a remote rejection comes
	// back inside AttemptResult.
	Redeem(ctx context.Context, code string, role model.Role) (AttemptResult, error)
}

// SessionFactory builds sessions bound to an account id and a fresh
// verification secret.
type SessionFactory interface {
	NewSession(accountID, verificationSecret string) RedemptionSession
}
