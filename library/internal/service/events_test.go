package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/require"

	"github.com/Astemirdum/bookshelf/library/internal/service"
	"github.com/Astemirdum/bookshelf/pkg/circuit_breaker"
	"github.com/Astemirdum/bookshelf/pkg/kafka"
)

func TestEnqueuer_Publish(t *testing.T) {
	t.Parallel()

	event := kafka.BorrowingEvent{
		Type:        kafka.EventBorrowed,
		BorrowingID: "8d6f3a4e-8a6f-4b51-9d7e-0c1f1c3c2b10",
		UserID:      "1b7c0c57-0b0b-4c3e-8c55-52a4a1f2f0d1",
		BookID:      "f4f9a1c2-5e3d-4a7b-9c1d-2e3f4a5b6c7d",
		OccurredAt:  time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	t.Run("sends encoded event", func(t *testing.T) {
		t.Parallel()
		producer := mocks.NewSyncProducer(t, nil)
		producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
			require.Equal(t, kafka.BorrowingsTopic, msg.Topic)
			data, err := msg.Value.Encode()
			require.NoError(t, err)
			got, err := kafka.DecodeBorrowingEvent(data)
			require.NoError(t, err)
			require.Equal(t, event, got)
			return nil
		})

		q := service.NewEnqueuer(producer, circuit_breaker.New(circuit_breaker.Config{
			RecordLength: 10, Timeout: time.Second, Percentile: 0.5, RecoveryRequests: 1,
		}))
		require.NoError(t, q.Publish(context.Background(), event))
		require.NoError(t, producer.Close())
	})

	t.Run("breaker opens after broker failures", func(t *testing.T) {
		t.Parallel()
		producer := mocks.NewSyncProducer(t, nil)
		producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

		q := service.NewEnqueuer(producer, circuit_breaker.New(circuit_breaker.Config{
			RecordLength: 1, Timeout: time.Minute, Percentile: 1, RecoveryRequests: 1,
		}))
		require.ErrorIs(t, q.Publish(context.Background(), event), sarama.ErrOutOfBrokers)
		require.ErrorIs(t, q.Publish(context.Background(), event), circuit_breaker.ErrOpenCB)
		require.NoError(t, producer.Close())
	})
}
