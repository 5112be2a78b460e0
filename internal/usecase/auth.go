package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/authline/authline/internal/core/domain"
	"github.com/authline/authline/internal/core/port"
	"github.com/authline/authline/internal/infra/logger"
	"github.com/authline/authline/internal/infra/security"
	"github.com/authline/authline/internal/repository"
)

// LockoutPolicy configures the password lockout state machine.
type LockoutPolicy struct {
	MaxAttempts  int
	LockDuration time.Duration
}

// LoginResult is the outcome of an accepted login.
type LoginResult struct {
	Account   *domain.Account
	Token     string
	ExpiresAt time.Time
}

// AuthService runs the password login state machine.
type AuthService struct {
	accounts port.AccountRepository
	sessions *security.SessionIssuer
	events   port.EventPublisher
	policy   LockoutPolicy
	log      *zap.Logger
	now      func() time.Time
}

// NewAuthService wires the login flow.
func NewAuthService(
	accounts port.AccountRepository,
	sessions *security.SessionIssuer,
	events port.EventPublisher,
	policy LockoutPolicy,
	log *zap.Logger,
) *AuthService {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 3
	}
	if policy.LockDuration <= 0 {
		policy.LockDuration = 3 * time.Hour
	}

	return &AuthService{
		accounts: accounts,
		sessions: sessions,
		events:   events,
		policy:   policy,
		log:      log,
		now:      time.Now,
	}
}

// WithClock overrides the service clock. Intended for tests.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

// Login evaluates a password attempt against the account's lockout state.
//
// Lock status is always derived from the stored lock deadline at the moment
// of the attempt. An expired lock is cleared durably before the attempt is
// evaluated, and the attempt then sees a zero failure counter.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	now := s.now()

	// Accounts are stored with lowercased emails; normalize the same way
	// signup does so the lookup matches regardless of typed casing.
	email = strings.ToLower(strings.TrimSpace(email))

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &LoginRejection{Err: ErrInvalidCredentials, Remaining: -1}
		}
		return nil, fmt.Errorf("load account: %w", err)
	}

	switch account.LockStateAt(now) {
	case domain.LockStateLocked:
		s.log.Info("login rejected, account locked",
			zap.String("account_id", account.ID),
			zap.Timep("locked_until", account.LockedUntil),
		)
		return nil, &LoginRejection{Err: ErrAccountLocked, LockedUntil: account.LockedUntil}

	case domain.LockStateLockExpired:
		if err := s.accounts.ClearExpiredLock(ctx, account.ID, now); err != nil {
			return nil, fmt.Errorf("clear expired lock: %w", err)
		}
		account.ResetFailures()
	}

	if !account.EmailVerified {
		return nil, &LoginRejection{Err: ErrEmailNotVerified}
	}

	match, err := security.VerifyPassword(password, account.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}

	if !match {
		return nil, s.recordFailure(ctx, account, now)
	}

	if account.FailedAttempts > 0 || account.Locked {
		if err := s.accounts.ResetFailures(ctx, account.ID); err != nil {
			return nil, fmt.Errorf("reset failures: %w", err)
		}
		account.ResetFailures()
	}

	token, expiresAt, err := s.sessions.Issue(account.ID)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}

	s.log.Info("login accepted",
		zap.String("account_id", account.ID),
		zap.String("email", logger.MaskEmail(account.Email)),
	)

	return &LoginResult{Account: account, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *AuthService) recordFailure(ctx context.Context, account *domain.Account, now time.Time) error {
	updated, err := s.accounts.RecordFailure(ctx, account.ID, now, s.policy.MaxAttempts, s.policy.LockDuration)
	if err != nil {
		return fmt.Errorf("record failed attempt: %w", err)
	}

	if updated.LockStateAt(now) == domain.LockStateLocked {
		s.log.Warn("account locked after repeated failures",
			zap.String("account_id", updated.ID),
			zap.Int("failed_attempts", updated.FailedAttempts),
			zap.Timep("locked_until", updated.LockedUntil),
		)

		event := domain.AccountLockedEvent{
			EventID:        uuid.NewString(),
			AccountID:      updated.ID,
			FailedAttempts: updated.FailedAttempts,
			LockedAt:       now,
		}
		if updated.LockedUntil != nil {
			event.LockedUntil = *updated.LockedUntil
		}
		if err := s.events.PublishAccountLocked(ctx, event); err != nil {
			s.log.Error("publish account locked event", zap.Error(err))
		}

		return &LoginRejection{Err: ErrLockoutTriggered, LockedUntil: updated.LockedUntil}
	}

	remaining := s.policy.MaxAttempts - updated.FailedAttempts
	if remaining < 0 {
		remaining = 0
	}

	return &LoginRejection{Err: ErrInvalidCredentials, Remaining: remaining}
}
