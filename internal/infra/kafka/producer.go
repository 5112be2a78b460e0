// Package kafka publishes account lifecycle events through Sarama.
package kafka

import (
	"fmt"
	"strings"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

// Producer wraps a Sarama producer. In async mode delivery errors surface on
// a drained error channel; in sync mode Send blocks until the broker acks.
type Producer struct {
	async       sarama.AsyncProducer
	sync        sarama.SyncProducer
	topicPrefix string
	log         *zap.Logger
	done        chan struct{}
}

// NewProducer connects to the brokers. async selects the fire-and-forget
// producer; otherwise Send waits for broker acknowledgement.
func NewProducer(brokers []string, topicPrefix string, async bool, log *zap.Logger) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka: at least one broker is required")
	}

	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForLocal
	cfg.Producer.Compression = sarama.CompressionSnappy

	p := &Producer{
		topicPrefix: strings.TrimSuffix(topicPrefix, "."),
		log:         log,
	}

	if async {
		cfg.Producer.Return.Errors = true
		cfg.Producer.Return.Successes = false

		producer, err := sarama.NewAsyncProducer(brokers, cfg)
		if err != nil {
			return nil, fmt.Errorf("kafka: create async producer: %w", err)
		}

		p.async = producer
		p.done = make(chan struct{})
		go p.drainErrors()
		return p, nil
	}

	// The sync producer requires both return channels.
	cfg.Producer.Return.Errors = true
	cfg.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("kafka: create sync producer: %w", err)
	}

	p.sync = producer
	return p, nil
}

func (p *Producer) drainErrors() {
	defer close(p.done)
	for err := range p.async.Errors() {
		p.log.Error("kafka produce failed",
			zap.String("topic", err.Msg.Topic),
			zap.Error(err.Err),
		)
	}
}

// TopicName joins the configured prefix with the event suffix.
func (p *Producer) TopicName(suffix string) string {
	if p.topicPrefix == "" {
		return suffix
	}
	return p.topicPrefix + "." + suffix
}

// Send publishes a message. In async mode it only enqueues; delivery errors
// land on the drain goroutine instead of the returned error.
func (p *Producer) Send(topic, key string, value []byte) error {
	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(value),
	}

	if p.sync != nil {
		if _, _, err := p.sync.SendMessage(msg); err != nil {
			return fmt.Errorf("kafka: send to %s: %w", topic, err)
		}
		return nil
	}

	p.async.Input() <- msg
	return nil
}

// Close shuts the producer down, waiting for the drain goroutine in async mode.
func (p *Producer) Close() error {
	if p.sync != nil {
		return p.sync.Close()
	}

	err := p.async.Close()
	<-p.done
	return err
}
