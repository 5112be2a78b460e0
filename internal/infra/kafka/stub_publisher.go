package kafka

import (
	"context"

	"go.uber.org/zap"

	"github.com/authline/authline/internal/core/domain"
	"github.com/authline/authline/internal/infra/logger"
)

// StubPublisher logs events instead of producing them. Used when no
// brokers are configured, typically in local development and tests.
type StubPublisher struct {
	log *zap.Logger
}

// NewStubPublisher builds a logging publisher.
func NewStubPublisher(log *zap.Logger) *StubPublisher {
	return &StubPublisher{log: log}
}

// PublishAccountRegistered logs an account.registered event.
func (s *StubPublisher) PublishAccountRegistered(_ context.Context, event domain.AccountRegisteredEvent) error {
	s.log.Info("event published (stub)",
		zap.String("event_type", "account.registered"),
		zap.String("event_id", event.EventID),
		zap.String("account_id", event.AccountID),
		zap.String("email", logger.MaskEmail(event.Email)),
	)
	return nil
}

// PublishAccountLocked logs an account.locked event.
func (s *StubPublisher) PublishAccountLocked(_ context.Context, event domain.AccountLockedEvent) error {
	s.log.Info("event published (stub)",
		zap.String("event_type", "account.locked"),
		zap.String("event_id", event.EventID),
		zap.String("account_id", event.AccountID),
		zap.Int("failed_attempts", event.FailedAttempts),
		zap.Time("locked_until", event.LockedUntil),
	)
	return nil
}

// PublishPasswordChanged logs an account.password_changed event.
func (s *StubPublisher) PublishPasswordChanged(_ context.Context, event domain.PasswordChangedEvent) error {
	s.log.Info("event published (stub)",
		zap.String("event_type", "account.password_changed"),
		zap.String("event_id", event.EventID),
		zap.String("account_id", event.AccountID),
	)
	return nil
}
