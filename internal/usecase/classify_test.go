// File: internal/usecase/classify_test.go
package usecase

import (
	"testing"

	"afk-code-redeemer/internal/domain/model"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		status  int
		success bool
		message string
		want    model.Outcome
	}{
		{"success 200", 200, true, "Redeemed successfully", model.OutcomeRedeemed},
		{"success 201", 201, true, "", model.OutcomeRedeemed},
		{"unauthorized", 401, false, "Unauthorized", model.OutcomeAuthExpired},
		{"bad verification code", 400, false, "Verification code is invalid", model.OutcomeAuthExpired},
		{"token expired on 400", 400, false, "Session expired, please login again", model.OutcomeAuthExpired},
		{"frequency limit", 200, false, "err_freq_limit", model.OutcomeRateLimited},
		{"too frequent", 429, false, "Requests too frequent", model.OutcomeRateLimited},
		{"already used", 200, false, "This code was already redeemed", model.OutcomeAlreadyUsed},
		{"not found underscore", 200, false, "err_cdkey_record_not_found", model.OutcomeNotFound},
		{"not found words", 404, false, "code not found", model.OutcomeNotFound},
		{"invalid code", 200, false, "Invalid gift code", model.OutcomeInvalid},
		{"expired code", 200, false, "This gift code has expired", model.OutcomeExpired},
		{"unrecognized", 500, false, "internal error", model.OutcomeUnknown},
		{"empty message failure", 200, false, "", model.OutcomeUnknown},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Classify(tc.status, tc.success, tc.message); got != tc.want {
				t.Fatalf("Classify(%d, %v, %q) = %q, want %q", tc.status, tc.success, tc.message, got, tc.want)
			}
		})
	}
}

func TestClassifyStatusBeatsMessage(t *testing.T) {
	t.Parallel()

	// A 401 is an auth failure no matter what the body claims.
	if got := Classify(401, false, "Invalid gift code"); got != model.OutcomeAuthExpired {
		t.Fatalf("got %q, want %q", got, model.OutcomeAuthExpired)
	}
	// "expired" on a non-400 is the code expiring, not the session.
	if got := Classify(200, false, "expired"); got != model.OutcomeExpired {
		t.Fatalf("got %q, want %q", got, model.OutcomeExpired)
	}
}
