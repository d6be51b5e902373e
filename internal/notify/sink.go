package notify

import (
	"context"
	"errors"
	"fmt"
	"io"

	"digitbot/internal/models"
	"digitbot/pkg/metrics"

	"go.uber.org/zap"
)

// SignalSink принимает сигнал на исполнение. Ретраев ядро не делает,
// поэтому реализация сама решает, что делать с ошибкой доставки.
type SignalSink interface {
	Publish(ctx context.Context, token string, sig models.Signal) error
}

type named interface {
	Name() string
}

func sinkName(s SignalSink) string {
	if n, ok := s.(named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", s)
}

// LogSink пишет сигнал в лог. Включён всегда.
type LogSink struct {
	log *zap.Logger
}

func NewLogSink(log *zap.Logger) *LogSink { return &LogSink{log: log.Named("signals")} }

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Publish(_ context.Context, token string, sig models.Signal) error {
	fields := []zap.Field{
		zap.String("signal_id", sig.ID),
		zap.String("token", tail(token)),
		zap.String("strategy", string(sig.Strategy)),
		zap.String("action", string(sig.Action)),
		zap.String("reason", sig.Reason),
	}
	for i, c := range sig.Contracts {
		fields = append(fields, zap.String(fmt.Sprintf("contract_%d", i),
			fmt.Sprintf("%s %d %s x%.2f/%dt", c.Type, c.Prediction, c.Symbol, c.Amount, c.Duration)))
	}
	s.log.Info("signal", fields...)
	return nil
}

// Fanout отдаёт сигнал во все синки; ошибки собирает, но до остальных всё равно доходит.
type Fanout struct {
	sinks []SignalSink
}

func NewFanout(sinks ...SignalSink) *Fanout { return &Fanout{sinks: sinks} }

func (f *Fanout) Name() string { return "fanout" }

func (f *Fanout) Len() int { return len(f.sinks) }

func (f *Fanout) Publish(ctx context.Context, token string, sig models.Signal) error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.Publish(ctx, token, sig); err != nil {
			name := sinkName(s)
			metrics.SinkErrors.WithLabelValues(name).Inc()
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// Close закрывает синки, которые держат соединения.
func (f *Fanout) Close() error {
	var errs []error
	for _, s := range f.sinks {
		if c, ok := s.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func tail(token string) string {
	if len(token) <= 4 {
		return "****"
	}
	return "****" + token[len(token)-4:]
}
