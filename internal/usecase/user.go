package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/authline/authline/internal/core/domain"
	"github.com/authline/authline/internal/core/port"
	"github.com/authline/authline/internal/infra/security"
	"github.com/authline/authline/internal/repository"
)

// ProfilePatch carries optional profile field updates. Nil means unchanged.
type ProfilePatch struct {
	FirstName    *string
	LastName     *string
	MobileNumber *string
}

// UserService serves authenticated profile and credential updates.
type UserService struct {
	accounts port.AccountRepository
	events   port.EventPublisher
	log      *zap.Logger
	now      func() time.Time
}

// NewUserService wires the profile operations.
func NewUserService(accounts port.AccountRepository, events port.EventPublisher, log *zap.Logger) *UserService {
	return &UserService{
		accounts: accounts,
		events:   events,
		log:      log,
		now:      time.Now,
	}
}

// WithClock overrides the service clock. Intended for tests.
func (s *UserService) WithClock(now func() time.Time) *UserService {
	s.now = now
	return s
}

// Profile loads the account for an authenticated session.
func (s *UserService) Profile(ctx context.Context, accountID string) (*domain.Account, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("load account: %w", err)
	}
	return account, nil
}

// UpdatePassword replaces the credential after re-checking the current one.
// The new password must differ from the current password.
func (s *UserService) UpdatePassword(ctx context.Context, accountID, currentPassword, newPassword string) error {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("load account: %w", err)
	}

	match, err := security.VerifyPassword(currentPassword, account.PasswordHash)
	if err != nil {
		return fmt.Errorf("verify current password: %w", err)
	}
	if !match {
		return ErrCurrentPasswordInvalid
	}

	if newPassword == currentPassword {
		return ErrSamePassword
	}

	if err := security.ValidatePassword(newPassword, account.Email, account.FirstName, account.LastName); err != nil {
		return err
	}

	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	if err := s.accounts.UpdatePassword(ctx, accountID, hash, now); err != nil {
		return fmt.Errorf("persist password: %w", err)
	}

	event := domain.PasswordChangedEvent{
		EventID:   uuid.NewString(),
		AccountID: accountID,
		ChangedAt: now,
	}
	if err := s.events.PublishPasswordChanged(ctx, event); err != nil {
		s.log.Error("publish password changed event", zap.Error(err))
	}

	s.log.Info("password updated", zap.String("account_id", accountID))
	return nil
}

// UpdateProfile applies the non-nil patch fields and returns the result.
func (s *UserService) UpdateProfile(ctx context.Context, accountID string, patch ProfilePatch) (*domain.Account, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("load account: %w", err)
	}

	if patch.FirstName != nil {
		account.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		account.LastName = *patch.LastName
	}
	if patch.MobileNumber != nil {
		account.MobileNumber = *patch.MobileNumber
	}
	account.UpdatedAt = s.now()

	if err := s.accounts.Update(ctx, account); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("update account: %w", err)
	}

	return account, nil
}
