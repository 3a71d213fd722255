package model

// Outcome is the terminal classification of one (code, role) submission.
type Outcome string

const (
	OutcomeRedeemed     Outcome = "redeemed"
	OutcomeAlreadyUsed  Outcome = "already_used"
	OutcomeInvalid      Outcome = "invalid"
	OutcomeExpired      Outcome = "expired"
	OutcomeNotFound     Outcome = "not_found"
	OutcomeRateLimited  Outcome = "rate_limited"
	OutcomeAuthExpired  Outcome = "auth_expired"
	OutcomeNetworkError Outcome = "network_error"
	OutcomeUnknown      Outcome = "unknown_failure"
)

// Halts reports whether the outcome makes the rest of the batch pointless.
// An expired token cannot be refreshed mid-run: the verification secret that
// produced it is single-use.
func (o Outcome) Halts() bool {
	return o == OutcomeAuthExpired
}

// Attempt records one submission for diagnostics.
type Attempt struct {
	Code     string
	RoleID   string
	RoleName string
	Outcome  Outcome
	Message  string // raw remote message, kept for logs
}
