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

// OTPPolicy configures one-time code issuance.
type OTPPolicy struct {
	Length int
	TTL    time.Duration
}

// Registration carries the fields submitted at OTP verification time.
type Registration struct {
	Email        string
	Code         string
	FirstName    string
	LastName     string
	MobileNumber string
	Password     string
}

// SignupService drives the OTP-based signup flow.
type SignupService struct {
	accounts port.AccountRepository
	otps     port.OTPStore
	mailer   port.Mailer
	events   port.EventPublisher
	sessions *security.SessionIssuer
	policy   OTPPolicy
	log      *zap.Logger
	now      func() time.Time
}

// NewSignupService wires the signup flow.
func NewSignupService(
	accounts port.AccountRepository,
	otps port.OTPStore,
	mailer port.Mailer,
	events port.EventPublisher,
	sessions *security.SessionIssuer,
	policy OTPPolicy,
	log *zap.Logger,
) *SignupService {
	if policy.Length <= 0 {
		policy.Length = 6
	}
	if policy.TTL <= 0 {
		policy.TTL = 10 * time.Minute
	}

	return &SignupService{
		accounts: accounts,
		otps:     otps,
		mailer:   mailer,
		events:   events,
		sessions: sessions,
		policy:   policy,
		log:      log,
		now:      time.Now,
	}
}

// WithClock overrides the service clock. Intended for tests.
func (s *SignupService) WithClock(now func() time.Time) *SignupService {
	s.now = now
	return s
}

// SendOTP issues a fresh code for the email and dispatches it by mail.
// Issuing replaces any earlier unused code. A verified account already
// owning the email rejects the request before any code is stored.
//
// The stored code survives a failed mail dispatch; the caller sees
// ErrMailDelivery and may simply request a new code.
func (s *SignupService) SendOTP(ctx context.Context, email, firstName string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	existing, err := s.accounts.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("check existing account: %w", err)
	}
	if existing != nil && existing.EmailVerified {
		return ErrEmailAlreadyRegistered
	}

	code, err := security.GenerateNumericCode(s.policy.Length)
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}

	record, err := s.otps.Store(ctx, email, code, s.policy.TTL)
	if err != nil {
		return fmt.Errorf("store otp: %w", err)
	}

	if err := s.mailer.SendOTP(ctx, email, firstName, code, record.ExpiresAt); err != nil {
		s.log.Error("otp mail dispatch failed",
			zap.String("email", logger.MaskEmail(email)),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %w", ErrMailDelivery, err)
	}

	s.log.Info("otp issued",
		zap.String("email", logger.MaskEmail(email)),
		zap.Time("expires_at", record.ExpiresAt),
	)

	return nil
}

// VerifyOTP checks the submitted code and completes the registration.
// On acceptance the code is marked used, the account is created (or the
// unverified stub is updated) as verified, and a session is issued.
func (s *SignupService) VerifyOTP(ctx context.Context, reg Registration) (*LoginResult, error) {
	now := s.now()
	email := strings.ToLower(strings.TrimSpace(reg.Email))

	record, err := s.otps.Fetch(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOTPInvalid
		}
		return nil, fmt.Errorf("fetch otp: %w", err)
	}

	if record.Used {
		return nil, ErrOTPUsed
	}
	if record.ExpiredAt(now) {
		return nil, ErrOTPExpired
	}
	if record.Code != reg.Code {
		return nil, ErrOTPInvalid
	}

	if err := security.ValidatePassword(reg.Password, email, reg.FirstName, reg.LastName); err != nil {
		return nil, err
	}

	hash, err := security.HashPassword(reg.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account, err := s.materializeAccount(ctx, email, reg, hash, now)
	if err != nil {
		return nil, err
	}

	if err := s.otps.MarkUsed(ctx, email); err != nil {
		return nil, fmt.Errorf("mark otp used: %w", err)
	}

	event := domain.AccountRegisteredEvent{
		EventID:      uuid.NewString(),
		AccountID:    account.ID,
		Email:        account.Email,
		RegisteredAt: now,
	}
	if err := s.events.PublishAccountRegistered(ctx, event); err != nil {
		s.log.Error("publish account registered event", zap.Error(err))
	}

	token, expiresAt, err := s.sessions.Issue(account.ID)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}

	s.log.Info("signup completed",
		zap.String("account_id", account.ID),
		zap.String("email", logger.MaskEmail(account.Email)),
	)

	return &LoginResult{Account: account, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *SignupService) materializeAccount(ctx context.Context, email string, reg Registration, hash string, now time.Time) (*domain.Account, error) {
	existing, err := s.accounts.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("load account: %w", err)
	}

	if existing != nil {
		if existing.EmailVerified {
			return nil, ErrEmailAlreadyRegistered
		}

		existing.FirstName = reg.FirstName
		existing.LastName = reg.LastName
		existing.MobileNumber = reg.MobileNumber
		existing.PasswordHash = hash
		existing.EmailVerified = true
		existing.UpdatedAt = now

		if err := s.accounts.Update(ctx, existing); err != nil {
			return nil, fmt.Errorf("update account: %w", err)
		}
		return existing, nil
	}

	account := &domain.Account{
		ID:            uuid.NewString(),
		FirstName:     reg.FirstName,
		LastName:      reg.LastName,
		Email:         email,
		MobileNumber:  reg.MobileNumber,
		PasswordHash:  hash,
		EmailVerified: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}

	return account, nil
}
