package history

import (
	"digitbot/internal/modules/config"
	"digitbot/internal/modules/history/service"

	"go.uber.org/fx"
)

// Module — одна история цифр на процесс.
func Module() fx.Option {
	return fx.Module("history",
		fx.Provide(
			func(cfg *config.Config) *service.History {
				return service.New(cfg.History.Capacity, cfg.History.Recent)
			},
		),
	)
}
