// Package kafka publishes audit events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	audit "clientele/pkg/platform/audit"
	"clientele/pkg/platform/circuit"
)

// ErrCircuitOpen is returned by Append while produce attempts are suspended.
var ErrCircuitOpen = errors.New("audit sink circuit open")

// Producer is the subset of *kgo.Client the sink uses.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

// Sink is an audit.Store that produces one JSON record per event, keyed by
// subject so a client's history stays ordered within a partition.
type Sink struct {
	producer Producer
	topic    string
	logger   *slog.Logger
	metrics  *Metrics
	breaker  *circuit.Breaker
}

type Option func(*Sink)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Sink) {
		s.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(s *Sink) {
		s.metrics = m
	}
}

// WithCircuitBreaker overrides the failure threshold and cooldown.
func WithCircuitBreaker(threshold int, cooldown time.Duration) Option {
	return func(s *Sink) {
		s.breaker = newBreaker(threshold, cooldown)
	}
}

const (
	defaultFailureThreshold = 5
	defaultCooldown         = 30 * time.Second
)

// newBreaker stops produce attempts while the brokers are unreachable. One
// attempt is let through per cooldown; its success closes the circuit.
func newBreaker(threshold int, cooldown time.Duration) *circuit.Breaker {
	return circuit.New("kafka-audit",
		circuit.WithFailureThreshold(threshold),
		circuit.WithCooldown(cooldown),
	)
}

// NewSink dials the brokers and returns a sink producing to topic.
func NewSink(brokers []string, topic, clientID string, opts ...Option) (*Sink, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ClientID(clientID),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerBatchMaxBytes(1<<20),
		kgo.RecordDeliveryTimeout(10*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return NewSinkWithProducer(client, topic, opts...), nil
}

func NewSinkWithProducer(producer Producer, topic string, opts ...Option) *Sink {
	s := &Sink{
		producer: producer,
		topic:    topic,
		logger:   slog.Default(),
		breaker:  newBreaker(defaultFailureThreshold, defaultCooldown),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Sink) Append(ctx context.Context, event audit.Event) error {
	if !s.breaker.Allow() {
		if s.metrics != nil {
			s.metrics.IncCircuitBreakerDropped()
		}
		return ErrCircuitOpen
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.Subject),
		Value: payload,
		Headers: []kgo.RecordHeader{
			{Key: "action", Value: []byte(event.Action)},
			{Key: "category", Value: []byte(event.Category)},
		},
	}

	if err := s.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		open, _ := s.breaker.RecordFailure()
		if s.metrics != nil {
			s.metrics.IncPublishFailures()
			s.metrics.SetCircuitBreakerState(open)
		}
		s.logger.ErrorContext(ctx, "failed to produce audit event",
			"error", err,
			"topic", s.topic,
			"action", event.Action,
			"circuit_open", open,
		)
		return fmt.Errorf("produce audit event: %w", err)
	}

	s.breaker.RecordSuccess()
	if s.metrics != nil {
		s.metrics.IncPublished()
		s.metrics.SetCircuitBreakerState(false)
	}
	return nil
}

func (s *Sink) Close() {
	s.producer.Close()
}
