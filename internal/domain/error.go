package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrAlreadyExists   = errors.New("entity already exists")
	ErrInvalidArgument = errors.New("invalid argument")

	// Session errors. A failed or expired verification secret cannot be
	// retried; the operator must generate a fresh one in-game.
	ErrAuthFailed   = errors.New("account verification failed")
	ErrUnauthorized = errors.New("session token invalid or expired")
	ErrAuthExpired  = errors.New("verification window exhausted, fresh secret required")

	// Run coordination
	ErrRunInProgress  = errors.New("a redemption run is already in progress for this account")
	ErrNoRoles        = errors.New("no game roles found for this account")
	ErrAccountClaimed = errors.New("game account is already linked to another operator")
)
