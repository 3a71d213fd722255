package repository

import "context"

// Conversation steps for the guided account setup flow.
const (
	StepAwaitingAccountID = "awaiting_account_id"
	StepAwaitingSecret    = "awaiting_secret"
	StepReady             = "ready"
)

// ConversationState tracks where an operator is in a multi-message flow.
// The verification secret is kept here (and only here) under a short TTL:
// the remote service invalidates it after roughly two minutes anyway.
type ConversationState struct {
	Step      string `json:"step"`
	AccountID string `json:"account_id,omitempty"`
	Secret    string `json:"secret,omitempty"`
}

type StateRepository interface {
	SetState(ctx context.Context, tgID int64, state *ConversationState) error
	GetState(ctx context.Context, tgID int64) (*ConversationState, error)
	ClearState(ctx context.Context, tgID int64) error
}
