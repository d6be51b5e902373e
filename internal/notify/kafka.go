package notify

import (
	"context"

	"digitbot/internal/models"
	"digitbot/pkg/kafka"
)

type producer interface {
	Publish(ctx context.Context, key []byte, value interface{}) error
	Close() error
}

// KafkaSink пишет сигнал JSON'ом в топик, ключ — токен клиента:
// сигналы одного клиента попадают в одну партицию по порядку.
type KafkaSink struct {
	p producer
}

func NewKafkaSink(brokers []string, topic string) (*KafkaSink, error) {
	p, err := kafka.NewProducer(
		kafka.WithBrokers(brokers),
		kafka.WithTopic(topic),
		kafka.WithMaxAttempts(1),
	)
	if err != nil {
		return nil, err
	}
	return &KafkaSink{p: p}, nil
}

func (k *KafkaSink) Name() string { return "kafka" }

func (k *KafkaSink) Publish(ctx context.Context, token string, sig models.Signal) error {
	return k.p.Publish(ctx, []byte(token), sig)
}

func (k *KafkaSink) Close() error { return k.p.Close() }
