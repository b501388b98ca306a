package kafka

import (
	"context"
	"fmt"

	"github.com/Shopify/sarama"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"max.ks1230/expense-tracker/internal/entity/event"
	"max.ks1230/expense-tracker/internal/logger"
)

type consumerConfig interface {
	producerConfig
	ConsumerGroup() string
}

type weekClosedHandler interface {
	HandleWeekClosed(ctx context.Context, e event.WeekClosed) error
}

type Consumer struct {
	consumerGroup sarama.ConsumerGroup
	topic         string
	handler       weekClosedHandler
}

func NewConsumer(cfg consumerConfig, handler weekClosedHandler) (*Consumer, error) {
	config := sarama.NewConfig()
	config.Version = sarama.V2_5_0_0
	config.Consumer.Offsets.Initial = sarama.OffsetOldest

	consumerGroup, err := sarama.NewConsumerGroup(cfg.Brokers(), cfg.ConsumerGroup(), config)
	return &Consumer{
		consumerGroup: consumerGroup,
		topic:         cfg.RolloverTopic(),
		handler:       handler,
	}, err
}

func (c *Consumer) StartConsuming(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
			err := c.consumerGroup.Consume(ctx, []string{c.topic}, c)
			if err != nil {
				return errors.Wrap(err, fmt.Sprintf("consume from %s", c.topic))
			}
		}
	}
}

func (c *Consumer) Close() error {
	return c.consumerGroup.Close()
}

func (c *Consumer) Setup(sarama.ConsumerGroupSession) error {
	logger.Info("consumer - setup")
	return nil
}

func (c *Consumer) Cleanup(sarama.ConsumerGroupSession) error {
	logger.Info("consumer - cleanup")
	return nil
}

func (c *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		c.process(session.Context(), message)
		session.MarkMessage(message, "")
	}
	return nil
}

// process never fails the claim: a bad message is logged and skipped.
func (c *Consumer) process(ctx context.Context, message *sarama.ConsumerMessage) {
	e, err := decodeWeekClosed(message.Value)
	if err != nil {
		logger.Error("cannot decode kafka message", zap.ByteString("key", message.Key), zap.Error(err))
		return
	}
	logger.Info("received week closed",
		zap.String("user", e.Username),
		zap.Int("closed", e.ClosedWeek),
		zap.Int("opened", e.OpenedWeek),
	)
	if err = c.handler.HandleWeekClosed(ctx, e); err != nil {
		logger.Error("failed to handle week closed", zap.String("user", e.Username), zap.Error(err))
	}
}
