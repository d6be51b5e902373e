package runner

import (
	"context"

	"digitbot/internal/modules/config"
	"digitbot/internal/modules/health"
	history "digitbot/internal/modules/history/service"
	strategy "digitbot/internal/modules/strategy/service"
	"digitbot/internal/notify"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

func newManager(
	cfg *config.Config,
	auth Authorizer,
	factory *strategy.Factory,
	h *history.History,
	sink notify.SignalSink,
	log *zap.Logger,
) *Manager {
	return NewManager(auth, factory, h, sink, log, Options{
		Cadence:    cfg.Bots.Cadence,
		MinHistory: cfg.Bots.MinHistory,
	})
}

func Module() fx.Option {
	return fx.Module("runner",
		fx.Provide(
			newManager, // *Manager
			func(m *Manager) health.BotCounter { return m },
		),
		fx.Invoke(func(lc fx.Lifecycle, m *Manager) {
			lc.Append(fx.Hook{
				OnStop: func(ctx context.Context) error {
					return m.Shutdown(ctx)
				},
			})
		}),
	)
}
