package main

import (
	"context"

	"digitbot/internal/modules/api"
	"digitbot/internal/modules/auth"
	"digitbot/internal/modules/config"
	"digitbot/internal/modules/deriv_websocket"
	"digitbot/internal/modules/health"
	"digitbot/internal/modules/history"
	"digitbot/internal/modules/strategy"
	"digitbot/internal/notify"
	"digitbot/internal/runner"
	"digitbot/pkg/logger"
	"digitbot/pkg/tracing"

	"github.com/opentracing/opentracing-go"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	logger.SetServiceName(cfg.Service.Name)
	return logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
}

func newTracer(lc fx.Lifecycle, cfg *config.Config) (opentracing.Tracer, error) {
	tracer, closer, err := tracing.InitTracer(tracing.Config{
		Enabled: cfg.Tracing.Enabled,
		Service: cfg.Service.Name,
		Host:    cfg.Tracing.Host,
		Port:    cfg.Tracing.Port,
	})
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			closer()
			return nil
		},
	})
	return tracer, nil
}

func main() {
	app := fx.New(
		config.Module(),
		fx.Provide(newLogger),
		fx.WithLogger(func(l *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: l.Named("fx")}
		}),
		// порядок важен: OnStop идёт в обратную сторону,
		// api гасится первым, синки и трейсер — после ботов
		fx.Module("tracing",
			fx.Provide(newTracer),
			fx.Invoke(func(opentracing.Tracer) {}),
		),
		history.Module(),
		strategy.Module(),
		auth.Module(),
		notify.Module(),
		deriv_websocket.Module(),
		runner.Module(),
		health.Module(),
		api.Module(),
	)
	app.Run()
}
