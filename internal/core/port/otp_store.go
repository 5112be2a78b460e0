package port

import (
	"context"
	"time"

	"github.com/authline/authline/internal/core/domain"
)

// OTPStore persists short-lived one-time codes keyed by email.
type OTPStore interface {
	// Store replaces any existing record for the email with a fresh one bound
	// to the provided TTL. Replacement and insert are a single atomic step.
	Store(ctx context.Context, email, code string, ttl time.Duration) (*domain.OTPRecord, error)
	// Fetch returns the current record for the email or repository.ErrNotFound.
	Fetch(ctx context.Context, email string) (*domain.OTPRecord, error)
	// MarkUsed flags the record so the code cannot verify a second time.
	MarkUsed(ctx context.Context, email string) error
	Delete(ctx context.Context, email string) error
}
