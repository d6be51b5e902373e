package auth

import (
	"context"

	"digitbot/internal/modules/auth/service"
	"digitbot/internal/modules/config"
	"digitbot/internal/runner"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// newRegistry: redis, если задан адрес, иначе токены живут в памяти процесса.
func newRegistry(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) service.Registry {
	log = log.Named("auth")
	rc := cfg.Auth.Redis
	if rc.Addr == "" {
		log.Info("token registry: memory")
		return service.NewMemoryRegistry()
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     rc.Addr,
		Password: rc.Password,
		DB:       rc.DB,
	})
	reg := service.NewRedisRegistry(rdb, rc.Prefix)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := reg.Ping(ctx); err != nil {
				return err
			}
			log.Info("token registry: redis", zap.String("addr", rc.Addr))
			return nil
		},
		OnStop: func(context.Context) error { return rdb.Close() },
	})
	return reg
}

func Module() fx.Option {
	return fx.Module("auth",
		fx.Provide(
			newRegistry,
			func(r service.Registry) runner.Authorizer { return r },
		),
	)
}
