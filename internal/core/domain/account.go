package domain

import "time"

// LockState enumerates the derived lockout states of an account. The state is
// never stored; it is computed from the locked flag and locked_until timestamp.
type LockState string

const (
	// LockStateActive means the account accepts login attempts.
	LockStateActive LockState = "active"
	// LockStateLocked means the account rejects login attempts until locked_until.
	LockStateLocked LockState = "locked"
	// LockStateLockExpired means a stored lock has lapsed and must be cleared
	// before the next attempt is evaluated.
	LockStateLockExpired LockState = "lock_expired"
)

// Account mirrors the persisted representation in the accounts table.
type Account struct {
	ID             string
	FirstName      string
	LastName       string
	Email          string
	MobileNumber   string
	PasswordHash   string
	EmailVerified  bool
	FailedAttempts int
	LastFailedAt   *time.Time
	Locked         bool
	LockedUntil    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// LockStateAt derives the lockout state relative to the supplied instant.
// A stored lock whose locked_until has passed reports LockStateLockExpired,
// not LockStateActive: the caller is responsible for persisting the unlock.
func (a *Account) LockStateAt(now time.Time) LockState {
	if !a.Locked {
		return LockStateActive
	}
	if a.LockedUntil != nil && a.LockedUntil.After(now) {
		return LockStateLocked
	}
	return LockStateLockExpired
}

// ResetFailures clears the failure counters and any lock in place.
func (a *Account) ResetFailures() {
	a.FailedAttempts = 0
	a.LastFailedAt = nil
	a.Locked = false
	a.LockedUntil = nil
}

// OTPRecord is a short-lived one-time code bound to an email address.
type OTPRecord struct {
	Email     string
	Code      string
	Used      bool
	CreatedAt time.Time
	ExpiresAt time.Time
}

// ExpiredAt reports whether the code is past its expiry at the given instant.
// Storage-level TTL eviction is best-effort; callers must check this as well.
func (r *OTPRecord) ExpiredAt(now time.Time) bool {
	return !r.ExpiresAt.After(now)
}
