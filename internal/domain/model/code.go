package model

import "strings"

// CandidateCode is a redemption code discovered from a listing source, not
// yet attempted. The code string is uppercase-normalized on creation and
// never mutated; equality is case-insensitive by construction.
type CandidateCode struct {
	Code   string
	Source string
}

// NewCandidate normalizes a raw scraped string into a candidate. Returns
// ok=false for strings that cannot be a code (empty after trimming).
func NewCandidate(raw, source string) (CandidateCode, bool) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if code == "" {
		return CandidateCode{}, false
	}
	return CandidateCode{Code: code, Source: source}, true
}

// NormalizeCode folds a code string to the canonical form used for ledger
// keys and dedup comparisons.
func NormalizeCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
