package model

// BatchReport aggregates one orchestrated run over codes x roles.
//
// Success/Failed count individual submissions; SuccessfulCodes holds codes
// redeemed for at least one role, FailedCodes codes that were attempted for
// every role without a single redemption. TotalProcessed counts codes whose
// first submission began, so a run halted mid-batch reports exactly how far
// it got.
type BatchReport struct {
	RunID           string
	Success         int
	Failed          int
	TotalProcessed  int
	SuccessfulCodes []string
	FailedCodes     []string
	Roles           int
	Remaining       int  // codes beyond the per-run cap, left for a future run
	Halted          bool // true when the batch stopped on an expired session
	Attempts        []Attempt
}
