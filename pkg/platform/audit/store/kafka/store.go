// Package kafka publishes audit events to a Kafka topic for downstream
// compliance tooling.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	audit "swiftpolicy/pkg/platform/audit"
	"swiftpolicy/pkg/platform/circuit"
	"swiftpolicy/pkg/platform/sentinel"
)

// Producer is the subset of *kgo.Client the store needs.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// Store writes each event as one JSON record keyed by target id, so all
// events for a policy land on the same partition in order. A circuit breaker
// short-circuits writes while the cluster is unreachable.
type Store struct {
	producer Producer
	topic    string
	breaker  *circuit.Breaker
}

type Option func(*Store)

func WithBreaker(b *circuit.Breaker) Option {
	return func(s *Store) { s.breaker = b }
}

func New(producer Producer, topic string, opts ...Option) *Store {
	s := &Store{
		producer: producer,
		topic:    topic,
		breaker:  circuit.New("audit-kafka", circuit.WithCooldown(30*time.Second)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type payload struct {
	ID        string `json:"id"`
	Category  string `json:"category"`
	Timestamp string `json:"timestamp"`
	ActorID   string `json:"actor_id"`
	Action    string `json:"action"`
	TargetID  string `json:"target_id"`
	Details   string `json:"details,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	if !s.breaker.Allow() {
		return fmt.Errorf("audit kafka circuit open: %w", sentinel.ErrUnavailable)
	}
	value, err := json.Marshal(payload{
		ID:        string(event.ID),
		Category:  string(event.Category),
		Timestamp: event.Timestamp.Format(time.RFC3339Nano),
		ActorID:   event.ActorID,
		Action:    event.Action,
		TargetID:  event.TargetID,
		Details:   event.Details,
		Reason:    event.Reason,
	})
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.TargetID),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "category", Value: []byte(event.Category)},
			{Key: "action", Value: []byte(event.Action)},
		},
	}
	if err := s.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		s.breaker.RecordFailure()
		return fmt.Errorf("produce audit record: %w", err)
	}
	s.breaker.RecordSuccess()
	return nil
}
