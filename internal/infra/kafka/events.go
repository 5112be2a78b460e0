package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/authline/authline/internal/core/domain"
)

const (
	topicAccountRegistered = "account.registered"
	topicAccountLocked     = "account.locked"
	topicPasswordChanged   = "account.password_changed"

	envelopeVersion = "1.0"
)

type envelope struct {
	EventID   string         `json:"event_id"`
	EventType string         `json:"event_type"`
	AccountID string         `json:"account_id"`
	Timestamp time.Time      `json:"timestamp"`
	Version   string         `json:"version"`
	Payload   any            `json:"payload"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// EventPublisher serializes account events into versioned envelopes and
// hands them to the producer. With the async producer, publishing never
// blocks beyond the input channel; the sync producer waits for the ack.
type EventPublisher struct {
	producer *Producer
	service  string
	env      string
}

// NewEventPublisher builds a publisher tagged with service and environment metadata.
func NewEventPublisher(producer *Producer, service, env string) *EventPublisher {
	return &EventPublisher{
		producer: producer,
		service:  service,
		env:      env,
	}
}

func (p *EventPublisher) publish(topicSuffix, eventType, eventID, accountID string, ts time.Time, payload any, metadata map[string]any) error {
	meta := map[string]any{
		"service":     p.service,
		"environment": p.env,
	}
	for k, v := range metadata {
		meta[k] = v
	}

	body, err := json.Marshal(envelope{
		EventID:   eventID,
		EventType: eventType,
		AccountID: accountID,
		Timestamp: ts.UTC(),
		Version:   envelopeVersion,
		Payload:   payload,
		Metadata:  meta,
	})
	if err != nil {
		return fmt.Errorf("kafka: marshal %s event: %w", eventType, err)
	}

	return p.producer.Send(p.producer.TopicName(topicSuffix), accountID, body)
}

// PublishAccountRegistered emits an auth.account.registered event.
func (p *EventPublisher) PublishAccountRegistered(_ context.Context, event domain.AccountRegisteredEvent) error {
	payload := map[string]any{
		"email":         event.Email,
		"registered_at": event.RegisteredAt.UTC(),
	}
	return p.publish(topicAccountRegistered, "account.registered", event.EventID, event.AccountID, event.RegisteredAt, payload, event.Metadata)
}

// PublishAccountLocked emits an auth.account.locked event.
func (p *EventPublisher) PublishAccountLocked(_ context.Context, event domain.AccountLockedEvent) error {
	payload := map[string]any{
		"failed_attempts": event.FailedAttempts,
		"locked_at":       event.LockedAt.UTC(),
		"locked_until":    event.LockedUntil.UTC(),
	}
	return p.publish(topicAccountLocked, "account.locked", event.EventID, event.AccountID, event.LockedAt, payload, event.Metadata)
}

// PublishPasswordChanged emits an auth.account.password_changed event.
func (p *EventPublisher) PublishPasswordChanged(_ context.Context, event domain.PasswordChangedEvent) error {
	payload := map[string]any{
		"changed_at": event.ChangedAt.UTC(),
	}
	return p.publish(topicPasswordChanged, "account.password_changed", event.EventID, event.AccountID, event.ChangedAt, payload, event.Metadata)
}
