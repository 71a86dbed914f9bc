package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"distribute-bank/internal/models"

	"github.com/IBM/sarama"
)

// Пауза перед повторным входом в Consume после ошибки обработчика,
// чтобы не крутить горячий цикл, пока зависимость этапа недоступна
const consumeRetryPause = time.Second

// EventHandler обработчик событий этапа конвейера.
// Каждый этап подписан на весь топик своей consumer group и сам
// отфильтровывает нужные ему типы событий (вернуть nil - пропустить).
type EventHandler interface {
	Handle(ctx context.Context, event models.TransferEvent) error
}

type EventHandlerFunc func(ctx context.Context, event models.TransferEvent) error

func (f EventHandlerFunc) Handle(ctx context.Context, event models.TransferEvent) error {
	return f(ctx, event)
}

type Consumer struct {
	consumerGroup sarama.ConsumerGroup
	handler       EventHandler
	topic         string
	workers       int
	log           *slog.Logger
	wg            sync.WaitGroup
}

func NewConsumer(brokers []string, groupID, topic string, workers int, handler EventHandler, log *slog.Logger) (*Consumer, error) {
	config := sarama.NewConfig()
	config.Version = sarama.V3_0_0_0
	config.Consumer.Group.Rebalance.Strategy = sarama.NewBalanceStrategyRoundRobin()
	config.Consumer.Offsets.Initial = sarama.OffsetOldest
	config.Consumer.Return.Errors = true

	consumerGroup, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	log.Info("kafka consumer создан",
		slog.String("group_id", groupID),
		slog.String("topic", topic),
		slog.Int("workers", workers))

	return &Consumer{
		consumerGroup: consumerGroup,
		handler:       handler,
		topic:         topic,
		workers:       workers,
		log:           log,
	}, nil
}

func (c *Consumer) Start(ctx context.Context) error {
	c.log.Info("запуск kafka consumer")

	handler := &consumerGroupHandler{
		handler: c.handler,
		log:     c.log,
	}

	for i := 0; i < c.workers; i++ {
		c.wg.Add(1)
		go func(workerID int) {
			defer c.wg.Done()
			c.log.Info("воркер запущен", slog.Int("worker_id", workerID))

			for {
				if err := c.consumerGroup.Consume(ctx, []string{c.topic}, handler); err != nil {
					if errors.Is(err, sarama.ErrClosedConsumerGroup) {
						return
					}
					c.log.Error("ошибка consume",
						slog.Int("worker_id", workerID),
						slog.String("error", err.Error()))

					select {
					case <-time.After(consumeRetryPause):
					case <-ctx.Done():
						return
					}
				}

				if ctx.Err() != nil {
					return
				}
			}
		}(i)
	}

	go func() {
		for err := range c.consumerGroup.Errors() {
			c.log.Error("ошибка consumer group", slog.String("error", err.Error()))
		}
	}()

	return nil
}

func (c *Consumer) Close(ctx context.Context) error {
	c.log.Info("закрытие kafka consumer")

	done := make(chan struct{})
	go func() {
		if err := c.consumerGroup.Close(); err != nil {
			c.log.Error("failed to close consumer group", slog.String("error", err.Error()))
		}
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.log.Info("kafka consumer закрыт")
		return nil
	case <-ctx.Done():
		c.log.Warn("kafka consumer close timeout")
		return ctx.Err()
	}
}

type consumerGroupHandler struct {
	handler EventHandler
	log     *slog.Logger
}

func (h *consumerGroupHandler) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

func (h *consumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

func (h *consumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		if err := h.processMessage(session.Context(), message); err != nil {
			h.log.Error("failed to process message",
				slog.String("topic", message.Topic),
				slog.Int64("offset", message.Offset),
				slog.String("error", err.Error()))

			// Выходим, не подтверждая: подтверждение любого более позднего
			// сообщения закоммитило бы оффсет мимо необработанного.
			// Сессия перезапустится с этого же смещения, обработчики
			// защищены маркерами идемпотентности
			return err
		}
		session.MarkMessage(message, "")
	}
	return nil
}

func (h *consumerGroupHandler) processMessage(ctx context.Context, message *sarama.ConsumerMessage) error {
	h.log.Debug("получено сообщение из kafka",
		slog.String("topic", message.Topic),
		slog.Int("partition", int(message.Partition)),
		slog.Int64("offset", message.Offset))

	var event models.TransferEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		h.log.Error("ошибка десериализации события",
			slog.String("error", err.Error()),
			slog.String("raw_message", string(message.Value)))

		// Битое сообщение ретраить бессмысленно
		return nil
	}

	return h.handler.Handle(ctx, event)
}
