package service

import (
	"context"

	"github.com/IBM/sarama"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/bookshelf/library/internal/model"
	"github.com/Astemirdum/bookshelf/pkg/circuit_breaker"
	"github.com/Astemirdum/bookshelf/pkg/kafka"
)

// Enqueuer publishes borrowing events to Kafka behind a circuit breaker.
type Enqueuer struct {
	producer sarama.SyncProducer
	cb       circuit_breaker.CircuitBreaker
}

func NewEnqueuer(producer sarama.SyncProducer, cb circuit_breaker.CircuitBreaker) *Enqueuer {
	return &Enqueuer{
		producer: producer,
		cb:       cb,
	}
}

func (q *Enqueuer) Publish(_ context.Context, event kafka.BorrowingEvent) error {
	data, err := event.Encode()
	if err != nil {
		return errors.Wrap(err, "encode event")
	}
	msg := &sarama.ProducerMessage{
		Topic: kafka.BorrowingsTopic,
		Key:   sarama.StringEncoder(event.BorrowingID),
		Value: sarama.ByteEncoder(data),
	}
	return q.cb.Call(func() error {
		_, _, err := q.producer.SendMessage(msg)
		return err
	})
}

// publish runs after commit; a failed publish never undoes the borrowing change.
func (s *Service) publish(ctx context.Context, typ kafka.EventType, b model.Borrowing) {
	event := kafka.BorrowingEvent{
		Type:        typ,
		BorrowingID: b.ID.String(),
		UserID:      b.UserID.String(),
		BookID:      b.BookID.String(),
		OccurredAt:  s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Warn("publish borrowing event",
			zap.String("type", string(typ)),
			zap.String("borrowing_id", event.BorrowingID),
			zap.Error(err))
	}
}

// RecordEvent stores an event consumed from the borrowings topic.
func (s *Service) RecordEvent(ctx context.Context, event kafka.BorrowingEvent) error {
	return s.repo.RecordEvent(ctx, event)
}

func (s *Service) GetStats(ctx context.Context, p model.Principal) (model.StatsInfo, error) {
	if err := requireAdmin(p); err != nil {
		return model.StatsInfo{}, err
	}
	return s.repo.GetStats(ctx)
}
