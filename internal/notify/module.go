package notify

import (
	"context"

	"digitbot/internal/modules/config"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewSink собирает fanout из того, что настроено: лог всегда, telegram и kafka — по конфигу.
func NewSink(cfg *config.Config, log *zap.Logger) (*Fanout, error) {
	sinks := []SignalSink{NewLogSink(log)}

	if cfg.Telegram.Token != "" && cfg.Telegram.ChatID != 0 {
		tg, err := NewTelegramSink(cfg.Telegram.Token, cfg.Telegram.ChatID, cfg.Telegram.RatePerSec)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, tg)
	}

	if len(cfg.Kafka.Brokers) > 0 {
		k, err := NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, k)
	}

	log.Info("signal sinks ready", zap.Int("count", len(sinks)))
	return NewFanout(sinks...), nil
}

func Module() fx.Option {
	return fx.Module("notify",
		fx.Provide(
			NewSink, // *Fanout
			func(f *Fanout) SignalSink { return f },
		),
		fx.Invoke(func(lc fx.Lifecycle, f *Fanout) {
			lc.Append(fx.Hook{
				// боты к этому моменту уже остановлены
				OnStop: func(context.Context) error { return f.Close() },
			})
		}),
	)
}
