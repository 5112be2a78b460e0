package domain

import "time"

// AccountRegisteredEvent represents the payload for auth.account.registered messages.
type AccountRegisteredEvent struct {
	EventID      string
	AccountID    string
	Email        string
	RegisteredAt time.Time
	Metadata     map[string]any
}

// AccountLockedEvent represents the payload for auth.account.locked messages.
type AccountLockedEvent struct {
	EventID        string
	AccountID      string
	FailedAttempts int
	LockedAt       time.Time
	LockedUntil    time.Time
	Metadata       map[string]any
}

// PasswordChangedEvent represents the payload for auth.account.password_changed messages.
type PasswordChangedEvent struct {
	EventID   string
	AccountID string
	ChangedAt time.Time
	Metadata  map[string]any
}
