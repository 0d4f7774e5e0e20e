package handler

import (
	"context"

	"github.com/IBM/sarama"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/bookshelf/library/internal/errs"
	"github.com/Astemirdum/bookshelf/pkg/kafka"
)

// Consumer feeds borrowing events from Kafka into the stats projection.
type Consumer struct {
	recorder StatsRecorder
	log      *zap.Logger
}

func NewConsumer(recorder StatsRecorder, log *zap.Logger) *Consumer {
	return &Consumer{
		recorder: recorder,
		log:      log.Named("consumer"),
	}
}

func (consumer *Consumer) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

// Cleanup is run at the end of a session, once all ConsumeClaim goroutines have exited.
func (consumer *Consumer) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

func (consumer *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				consumer.log.Warn("message channel was closed")
				return nil
			}
			event, err := kafka.DecodeBorrowingEvent(message.Value)
			if err != nil {
				consumer.log.Error("decode event", zap.Error(err))
				session.MarkMessage(message, "")
				continue
			}

			if err := consumer.recorder.RecordEvent(session.Context(), event); err != nil {
				if errors.Is(err, errs.ErrValidation) {
					consumer.log.Error("malformed event", zap.Error(err))
					session.MarkMessage(message, "")
					continue
				}
				// offsets commit cumulatively, so nothing past this message may be marked.
				// The session ends and the group resumes from the last committed offset.
				consumer.log.Error("record event", zap.Error(err), zap.String("borrowing_id", event.BorrowingID))
				return errors.Wrapf(err, "record event at offset %d", message.Offset)
			}

			consumer.log.Debug("Message claimed:",
				zap.String("type", string(event.Type)),
				zap.Time("timestamp", message.Timestamp),
				zap.String("topic", message.Topic))
			session.MarkMessage(message, "")
		case <-session.Context().Done():
			return nil
		}
	}
}

// Run blocks consuming the borrowings topic until ctx is done.
func (consumer *Consumer) Run(ctx context.Context, group sarama.ConsumerGroup) error {
	return kafka.Consume(ctx, group, consumer, kafka.BorrowingsTopic)
}
