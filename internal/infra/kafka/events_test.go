package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/IBM/sarama/mocks"
	"go.uber.org/zap"

	"github.com/authline/authline/internal/core/domain"
)

func TestEventPublisherSyncMode(t *testing.T) {
	mock := mocks.NewSyncProducer(t, nil)
	defer func() { _ = mock.Close() }()

	lockedAt := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	lockedUntil := lockedAt.Add(3 * time.Hour)

	mock.ExpectSendMessageWithCheckerFunctionAndSucceed(func(value []byte) error {
		var env envelope
		if err := json.Unmarshal(value, &env); err != nil {
			return err
		}
		if env.EventType != "account.locked" {
			t.Errorf("EventType = %s, want account.locked", env.EventType)
		}
		if env.AccountID != "acc-1" {
			t.Errorf("AccountID = %s, want acc-1", env.AccountID)
		}
		if env.Version != envelopeVersion {
			t.Errorf("Version = %s, want %s", env.Version, envelopeVersion)
		}
		if env.Metadata["service"] != "authline" || env.Metadata["environment"] != "test" {
			t.Errorf("Metadata = %v, want service/environment tags", env.Metadata)
		}
		return nil
	})

	producer := &Producer{
		sync:        mock,
		topicPrefix: "authline",
		log:         zap.NewNop(),
	}
	publisher := NewEventPublisher(producer, "authline", "test")

	err := publisher.PublishAccountLocked(context.Background(), domain.AccountLockedEvent{
		EventID:        "evt-1",
		AccountID:      "acc-1",
		FailedAttempts: 3,
		LockedAt:       lockedAt,
		LockedUntil:    lockedUntil,
	})
	if err != nil {
		t.Fatalf("PublishAccountLocked returned error: %v", err)
	}
}

func TestEventPublisherAsyncMode(t *testing.T) {
	mock := mocks.NewAsyncProducer(t, nil)
	mock.ExpectInputAndSucceed()

	producer := &Producer{
		async:       mock,
		topicPrefix: "authline",
		log:         zap.NewNop(),
		done:        make(chan struct{}),
	}
	go producer.drainErrors()

	publisher := NewEventPublisher(producer, "authline", "test")
	err := publisher.PublishAccountRegistered(context.Background(), domain.AccountRegisteredEvent{
		EventID:      "evt-2",
		AccountID:    "acc-2",
		Email:        "ada@example.com",
		RegisteredAt: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("PublishAccountRegistered returned error: %v", err)
	}

	if err := producer.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
}

func TestProducerTopicName(t *testing.T) {
	withPrefix := &Producer{topicPrefix: "authline"}
	if got := withPrefix.TopicName("account.locked"); got != "authline.account.locked" {
		t.Fatalf("TopicName = %s, want authline.account.locked", got)
	}

	bare := &Producer{}
	if got := bare.TopicName("account.locked"); got != "account.locked" {
		t.Fatalf("TopicName = %s, want account.locked", got)
	}
}
