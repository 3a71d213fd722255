package model

import "time"

// Operator links a chat identity to a game account. The verification secret
// is deliberately absent: it is single-use and time-limited, so it lives only
// in short-lived conversation state and is never persisted.
type Operator struct {
	TelegramID int64
	AccountID  string // game uid
	UpdatedAt  time.Time
}
