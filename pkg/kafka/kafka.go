package kafka

import (
	"context"
	"time"

	"github.com/IBM/sarama"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

const (
	BorrowingsTopic    = "library.borrowings"
	StatsConsumerGroup = "library-stats"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Config struct {
	Addrs []string `envconfig:"KAFKA_ADDRS"`
}

func (c Config) Enabled() bool {
	return len(c.Addrs) > 0
}

type EventType string

const (
	EventBorrowed EventType = "BORROWED"
	EventReturned EventType = "RETURNED"
	EventDeleted  EventType = "DELETED"
)

type BorrowingEvent struct {
	Type        EventType `json:"type"`
	BorrowingID string    `json:"borrowingId"`
	UserID      string    `json:"userId"`
	BookID      string    `json:"bookId"`
	OccurredAt  time.Time `json:"occurredAt"`
}

func (e BorrowingEvent) Encode() ([]byte, error) {
	return json.Marshal(e)
}

func DecodeBorrowingEvent(data []byte) (BorrowingEvent, error) {
	var e BorrowingEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return BorrowingEvent{}, err
	}
	return e, nil
}

func NewProducer(cfg Config) (sarama.SyncProducer, error) {
	defaultCfg := sarama.NewConfig()

	defaultCfg.Producer.RequiredAcks = sarama.WaitForAll
	defaultCfg.Producer.Return.Successes = true
	defaultCfg.Producer.Timeout = 5 * time.Second

	return sarama.NewSyncProducer(cfg.Addrs, defaultCfg)
}

func NewConsumer(cfg Config, group string) (sarama.ConsumerGroup, error) {
	defaultCfg := sarama.NewConfig()
	defaultCfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	defaultCfg.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}

	return sarama.NewConsumerGroup(cfg.Addrs, group, defaultCfg)
}

// Consume serves the group session loop until ctx is done or the group is closed.
func Consume(ctx context.Context, group sarama.ConsumerGroup, handler sarama.ConsumerGroupHandler, topics ...string) error {
	for {
		if err := group.Consume(ctx, topics, handler); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			return errors.Wrap(err, "group.Consume")
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}
