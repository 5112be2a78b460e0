package security

import (
	"errors"
	"fmt"

	zxcvbn "github.com/nbutton23/zxcvbn-go"
)

const (
	// MinPasswordLength is the minimum accepted password length.
	MinPasswordLength = 6
	// MaxPasswordLength guards against pathological hashing input.
	MaxPasswordLength = 128

	minPasswordScore = 2
)

// ErrWeakPassword is returned when a password fails the strength policy.
var ErrWeakPassword = errors.New("security: password does not meet requirements")

// ValidatePassword enforces length bounds and a zxcvbn strength floor.
// userInputs are values like email and names that the password must not resemble.
func ValidatePassword(password string, userInputs ...string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: must be at least %d characters", ErrWeakPassword, MinPasswordLength)
	}
	if len(password) > MaxPasswordLength {
		return fmt.Errorf("%w: must be at most %d characters", ErrWeakPassword, MaxPasswordLength)
	}

	result := zxcvbn.PasswordStrength(password, userInputs)
	if result.Score < minPasswordScore {
		return fmt.Errorf("%w: too easy to guess", ErrWeakPassword)
	}

	return nil
}
