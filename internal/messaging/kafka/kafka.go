package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	kafkaGo "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/aminasaas/storefront-backend/internal/entity"
	"github.com/aminasaas/storefront-backend/internal/messaging"
)

type kafkaBroker struct {
	brokers []string
	log     *zap.Logger
}

// NewBroker creates a Kafka-backed change-feed publisher and subscriber.
func NewBroker(brokers []string, log *zap.Logger) (messaging.Publisher, messaging.Subscriber) {
	kb := &kafkaBroker{brokers: brokers, log: log}
	return kb, kb
}

func (k *kafkaBroker) PublishChange(ctx context.Context, notice entity.ChangeNotice) error {
	w := &kafkaGo.Writer{
		Addr:     kafkaGo.TCP(k.brokers...),
		Topic:    messaging.ChangeTopic(notice.Collection),
		Balancer: &kafkaGo.LeastBytes{},
	}
	defer w.Close()

	payload, err := json.Marshal(notice)
	if err != nil {
		return fmt.Errorf("failed to marshal change notice: %w", err)
	}

	return w.WriteMessages(ctx, kafkaGo.Message{
		Key:   []byte(notice.DocID),
		Value: payload,
	})
}

func (k *kafkaBroker) Consume(ctx context.Context, topic string, groupID string, handler func(ctx context.Context, payload []byte) error) {
	reader := kafkaGo.NewReader(kafkaGo.ReaderConfig{
		Brokers: k.brokers,
		Topic:   topic,
		GroupID: groupID,
	})
	defer reader.Close()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				k.log.Info("consumer shutting down", zap.String("topic", topic))
				return
			}
			k.log.Error("error reading message", zap.String("topic", topic), zap.Error(err))
			continue
		}

		if err := handler(ctx, msg.Value); err != nil {
			k.log.Error("error handling message", zap.String("topic", topic), zap.Error(err))
		}
	}
}
