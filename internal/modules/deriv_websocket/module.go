package deriv_websocket

import (
	"context"

	"digitbot/internal/modules/config"
	"digitbot/internal/modules/deriv_websocket/service"
	health "digitbot/internal/modules/health/service"
	history "digitbot/internal/modules/history/service"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

func newClient(cfg *config.Config) service.TickSource {
	return service.NewClient(service.ClientConfig{
		URL:          cfg.Deriv.WSURL,
		AppID:        cfg.Deriv.AppID,
		PingInterval: cfg.Deriv.PingInterval,
		ReadTimeout:  cfg.Deriv.ReadTimeout,
	})
}

func newIngestor(cfg *config.Config, src service.TickSource, h *history.History, st *health.State, log *zap.Logger) *service.Ingestor {
	return service.NewIngestor(src, h, st, log, service.IngestorConfig{
		Symbols: cfg.Deriv.Symbols,
		Token:   cfg.Deriv.APIToken,
		Backoff: service.Backoff{
			Initial: cfg.Deriv.Backoff.Initial,
			Max:     cfg.Deriv.Backoff.Max,
		},
	})
}

// Module поднимает фид тиков Deriv и пишет цифры в историю.
func Module() fx.Option {
	return fx.Module("deriv_websocket",
		fx.Provide(
			newClient,
			newIngestor,
		),
		fx.Invoke(func(lc fx.Lifecycle, ing *service.Ingestor) {
			// свой ctx: OnStart-ctx живёт только до конца старта
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan struct{})

			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					go func() {
						defer close(done)
						ing.Run(ctx)
					}()
					return nil
				},
				OnStop: func(stopCtx context.Context) error {
					cancel()
					select {
					case <-done:
						return nil
					case <-stopCtx.Done():
						return stopCtx.Err()
					}
				},
			})
		}),
	)
}
