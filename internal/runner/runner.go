package runner

import (
	"context"
	"sync/atomic"
	"time"

	"digitbot/internal/models"
	strategy "digitbot/internal/modules/strategy/service"
	"digitbot/internal/notify"
	"digitbot/pkg/metrics"
	"digitbot/pkg/tracing"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// State — жизненный цикл бота: Created -> Running -> Stopped. Stopped конечный.
type State int32

const (
	StateCreated State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Snapshotter — откуда бот берёт цифры (history.History).
type Snapshotter interface {
	Snapshot() []models.Digit
}

// sinkTimeout — сколько даём синку на один сигнал, даже если бота уже гасят.
const sinkTimeout = 10 * time.Second

// Bot — одна стратегия одного клиента. Стратегию трогает только свой цикл.
type Bot struct {
	token     string
	strategy  strategy.Strategy
	startedAt time.Time

	history    Snapshotter
	sink       notify.SignalSink
	log        *zap.Logger
	cadence    time.Duration
	minHistory int

	running atomic.Bool
	state   atomic.Int32
	cancel  context.CancelFunc
	done    chan struct{}
}

func (b *Bot) Token() string                 { return b.token }
func (b *Bot) Strategy() models.StrategyName { return b.strategy.Name() }
func (b *Bot) StartedAt() time.Time          { return b.startedAt }
func (b *Bot) Running() bool                 { return b.running.Load() }
func (b *Bot) State() State                  { return State(b.state.Load()) }
func (b *Bot) Done() <-chan struct{}         { return b.done }

func (b *Bot) start(ctx context.Context) {
	ctx, b.cancel = context.WithCancel(ctx)
	b.startedAt = time.Now()
	b.running.Store(true)
	b.state.Store(int32(StateRunning))

	go b.loop(ctx)
}

// stop снимает флаг и отменяет ctx; дождаться выхода — через Done.
func (b *Bot) stop() {
	b.running.Store(false)
	if b.cancel != nil {
		b.cancel()
	}
}

func (b *Bot) loop(ctx context.Context) {
	defer close(b.done)
	defer b.state.Store(int32(StateStopped))

	t := time.NewTicker(b.cadence)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		if !b.running.Load() {
			return
		}
		b.evaluate(ctx)
	}
}

func (b *Bot) evaluate(ctx context.Context) {
	digits := b.history.Snapshot()
	if len(digits) < b.minHistory {
		return
	}

	name := string(b.strategy.Name())
	span, _ := tracing.StartSpan(ctx, "bot.evaluate", map[string]any{
		"strategy": name,
		"history":  len(digits),
	})
	began := time.Now()
	sig := b.strategy.Analyze(digits)
	metrics.EvalDurationSec.WithLabelValues(name).Observe(time.Since(began).Seconds())
	metrics.Evaluations.WithLabelValues(name).Inc()
	tracing.Finish(span, nil)

	if sig == nil {
		return
	}
	sig.ID = uuid.NewString()
	sig.CreatedAt = time.Now().UTC()
	metrics.SignalsEmitted.WithLabelValues(name, string(sig.Action)).Inc()

	// сигнал, отданный синку, не обрываем остановкой бота
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sinkTimeout)
	defer cancel()

	span, pubCtx = tracing.StartSpan(pubCtx, "sink.publish", map[string]any{
		"strategy":  name,
		"signal_id": sig.ID,
	})
	err := b.sink.Publish(pubCtx, b.token, *sig)
	tracing.Finish(span, err)

	if err != nil {
		// без ретраев: исполнение не наша забота
		b.log.Error("signal publish failed",
			zap.String("signal_id", sig.ID),
			zap.Error(err),
		)
		return
	}
	b.log.Info("signal emitted",
		zap.String("signal_id", sig.ID),
		zap.String("action", string(sig.Action)),
		zap.String("reason", sig.Reason),
	)
}
