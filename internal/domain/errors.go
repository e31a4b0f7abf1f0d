package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors carry no infrastructure dependency.

var (
	// Ledger errors
	ErrInvalidAmount    = errors.New("amount must not be negative")
	ErrInvalidDate      = errors.New("activity date is before the last logged day")
	ErrUnknownChallenge = errors.New("challenge not found")

	// Unreachable while challenges roll over automatically.
	ErrChallengeExpired = errors.New("challenge period has ended")

	// Catalog errors
	ErrInvalidCatalog = errors.New("invalid catalog")

	// Host errors
	ErrUnauthenticated = errors.New("no authenticated user")

	// Notification errors
	ErrNotificationNotFound = errors.New("notification not found")
	ErrInvalidDevice        = errors.New("device token must not be empty")

	// Check-in errors
	ErrInvalidCheckIn = errors.New("invalid check-in")
)
