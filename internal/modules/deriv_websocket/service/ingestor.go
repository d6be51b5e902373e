package service

import (
	"context"
	"fmt"
	"time"

	"digitbot/internal/models"
	history "digitbot/internal/modules/history/service"
	"digitbot/pkg/metrics"

	"go.uber.org/zap"
)

// StateReporter — куда отдаём состояние фида (health.State).
type StateReporter interface {
	SetWSConnected(v bool)
	SetReady(v bool)
	TouchTick(t time.Time)
	IncReconnects()
}

type IngestorConfig struct {
	Symbols []string
	Token   string // пустой — без authorize
	Backoff Backoff
}

// Ingestor — единственный писатель в историю цифр.
type Ingestor struct {
	src     TickSource
	history *history.History
	state   StateReporter
	log     *zap.Logger

	symbols []string
	token   string
	backoff Backoff

	sleep func(ctx context.Context, d time.Duration) bool
}

func NewIngestor(src TickSource, h *history.History, state StateReporter, log *zap.Logger, cfg IngestorConfig) *Ingestor {
	return &Ingestor{
		src:     src,
		history: h,
		state:   state,
		log:     log.Named("ingestor"),
		symbols: cfg.Symbols,
		token:   cfg.Token,
		backoff: cfg.Backoff,
		sleep:   sleepCtx,
	}
}

// Run крутит connect -> authorize -> subscribe -> receive, пока жив ctx.
// Любая ошибка сессии: закрыть, подождать паузу, начать заново. Итеративно, без рекурсии.
func (i *Ingestor) Run(ctx context.Context) {
	for {
		err := i.session(ctx)
		if ctx.Err() != nil {
			i.log.Info("ingestor stopped")
			return
		}

		delay := i.backoff.Next()
		i.log.Warn("feed session failed, reconnecting",
			zap.Error(err),
			zap.Duration("backoff", delay),
		)
		metrics.FeedReconnects.Inc()
		i.state.IncReconnects()

		if !i.sleep(ctx, delay) {
			i.log.Info("ingestor stopped")
			return
		}
	}
}

func (i *Ingestor) session(ctx context.Context) error {
	defer func() {
		_ = i.src.Close()
		i.state.SetWSConnected(false)
		metrics.FeedConnected.Set(0)
	}()

	if err := i.src.Connect(ctx); err != nil {
		return err
	}
	// отмена ctx рвёт блокирующее чтение
	stop := context.AfterFunc(ctx, func() { _ = i.src.Close() })
	defer stop()

	if i.token != "" {
		if err := i.src.Authorize(ctx, i.token); err != nil {
			return err
		}
	}
	for _, s := range i.symbols {
		if err := i.src.Subscribe(ctx, s); err != nil {
			return err
		}
	}

	i.log.Info("feed subscribed", zap.Strings("symbols", i.symbols))
	i.state.SetWSConnected(true)
	i.state.SetReady(true)
	metrics.FeedConnected.Set(1)
	i.backoff.Reset()

	for {
		tick, err := i.src.Next(ctx)
		if err != nil {
			return err
		}
		if err := i.ingest(tick); err != nil {
			metrics.DecodeErrors.Inc()
			return err
		}
	}
}

func (i *Ingestor) ingest(tick models.Tick) error {
	d, err := tick.LastDigit()
	if err != nil {
		return &FeedError{Op: "decode", Err: fmt.Errorf("tick %s: %w", tick.Symbol, err)}
	}
	if err := i.history.Append(d); err != nil {
		return &FeedError{Op: "decode", Err: err}
	}

	metrics.TicksIngested.Inc()
	metrics.HistoryLength.Set(float64(i.history.Len()))
	i.state.TouchTick(time.Now())

	i.log.Debug("tick",
		zap.String("symbol", tick.Symbol),
		zap.String("quote", tick.Quote.String()),
		zap.Uint8("digit", uint8(d)),
	)
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
