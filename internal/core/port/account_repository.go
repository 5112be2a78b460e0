package port

import (
	"context"
	"time"

	"github.com/authline/authline/internal/core/domain"
)

// AccountRepository exposes persistence behavior for accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	// Update persists the mutable profile fields and the verification flag.
	Update(ctx context.Context, account *domain.Account) error
	UpdatePassword(ctx context.Context, id string, passwordHash string, changedAt time.Time) error
	// RecordFailure atomically increments the failure counter, locking the
	// account for lockFor when the new count reaches threshold, and returns
	// the resulting counter state. The increment and the lock decision happen
	// in a single statement so concurrent failures cannot lose updates.
	RecordFailure(ctx context.Context, id string, at time.Time, threshold int, lockFor time.Duration) (*domain.Account, error)
	// ResetFailures clears the failure counters and any lock for the account.
	ResetFailures(ctx context.Context, id string) error
	// ClearExpiredLock persists a lazy unlock: it clears the lock and counters
	// only when the stored locked_until has already passed.
	ClearExpiredLock(ctx context.Context, id string, now time.Time) error
	// SweepFailedAttempts resets the failure counter for every account with a
	// nonzero count and returns how many rows were touched.
	SweepFailedAttempts(ctx context.Context) (int64, error)
}
