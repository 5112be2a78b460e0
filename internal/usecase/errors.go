// Package usecase implements the signup, login, and account services.
package usecase

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidCredentials covers unknown emails and wrong passwords alike.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrAccountLocked rejects attempts against an account inside its lock window.
	ErrAccountLocked = errors.New("account temporarily locked")
	// ErrLockoutTriggered marks the attempt that crossed the failure threshold.
	ErrLockoutTriggered = errors.New("too many failed attempts, account locked")
	// ErrEmailNotVerified rejects logins before signup verification completes.
	ErrEmailNotVerified = errors.New("email not verified")
	// ErrEmailAlreadyRegistered rejects OTP issuance for a verified account's email.
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	// ErrOTPInvalid covers missing records and code mismatches alike.
	ErrOTPInvalid = errors.New("invalid verification code")
	// ErrOTPExpired rejects codes past their TTL.
	ErrOTPExpired = errors.New("verification code expired")
	// ErrOTPUsed rejects codes that already verified once.
	ErrOTPUsed = errors.New("verification code already used")
	// ErrCurrentPasswordInvalid rejects password changes with a wrong current password.
	ErrCurrentPasswordInvalid = errors.New("current password is incorrect")
	// ErrSamePassword rejects password changes where nothing would change.
	ErrSamePassword = errors.New("new password must differ from current password")
	// ErrAccountNotFound is returned for operations against a missing account.
	ErrAccountNotFound = errors.New("account not found")
	// ErrMailDelivery signals a notification that could not be sent. The OTP
	// record is kept, so the caller may retry issuance without penalty.
	ErrMailDelivery = errors.New("could not send verification email")
)

// LoginRejection carries the attempt outcome context alongside the sentinel:
// how many attempts remain before lockout, or when an active lock lifts.
// Remaining is negative when no counter applies to the rejection.
type LoginRejection struct {
	Err         error
	Remaining   int
	LockedUntil *time.Time
}

func (r *LoginRejection) Error() string {
	if r.LockedUntil != nil {
		return fmt.Sprintf("%s until %s", r.Err, r.LockedUntil.UTC().Format(time.RFC3339))
	}
	if errors.Is(r.Err, ErrInvalidCredentials) && r.Remaining >= 0 {
		return fmt.Sprintf("%s, %d attempts remaining", r.Err, r.Remaining)
	}
	return r.Err.Error()
}

func (r *LoginRejection) Unwrap() error {
	return r.Err
}
