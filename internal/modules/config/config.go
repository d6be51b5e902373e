package config

import (
	"fmt"
	"os"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	configFilePathENV = "CONFIG_FILE"
	defaultConfigFile = "configs/values_local.yaml"
)

// envBindings — ключ конфига -> переменная окружения.
var envBindings = map[string]string{
	"log.level":           "LOG_LEVEL",
	"log.format":          "LOG_FORMAT",
	"deriv.app_id":        "DERIV_APP_ID",
	"deriv.api_token":     "DERIV_API_TOKEN",
	"deriv.ws_url":        "DERIV_WS_URL",
	"deriv.symbols":       "DERIV_SYMBOLS",
	"api.addr":            "API_ADDR",
	"api.redirect_uri":    "REDIRECT_URI",
	"api.dashboard_url":   "DASHBOARD_URL",
	"health.addr":         "HEALTH_ADDR",
	"auth.redis.addr":     "REDIS_ADDR",
	"auth.redis.password": "REDIS_PASSWORD",
	"telegram.token":      "TELEGRAM_TOKEN",
	"telegram.chat_id":    "TELEGRAM_CHAT_ID",
	"kafka.brokers":       "KAFKA_BROKERS",
	"kafka.topic":         "KAFKA_TOPIC",
	"tracing.enabled":     "TRACING_ENABLED",
	"tracing.host":        "JAEGER_HOST",
	"tracing.port":        "JAEGER_PORT",
}

// Config ...
type Config struct {
	Service struct {
		Name string `mapstructure:"name" default:"digitbot"`
	} `mapstructure:"service"`

	Log struct {
		Level  string `mapstructure:"level" default:"info" validate:"oneof=debug info warn error"`
		Format string `mapstructure:"format" default:"json" validate:"oneof=json console"`
	} `mapstructure:"log"`

	Deriv struct {
		AppID    string   `mapstructure:"app_id" default:"1089" validate:"required"`
		APIToken string   `mapstructure:"api_token"` // пустой — тики идут без authorize
		WSURL    string   `mapstructure:"ws_url" default:"wss://ws.derivws.com/websockets/v3" validate:"required,url"`
		OAuthURL string   `mapstructure:"oauth_url" default:"https://oauth.deriv.com/oauth2/authorize" validate:"required,url"`
		Symbols  []string `mapstructure:"symbols" default:"[\"R_10\"]" validate:"min=1,dive,required"`

		PingInterval time.Duration `mapstructure:"ping_interval" default:"20s"`
		ReadTimeout  time.Duration `mapstructure:"read_timeout" default:"60s"`

		// initial == max — фиксированная пауза (5s), max > initial — экспонента с потолком.
		Backoff struct {
			Initial time.Duration `mapstructure:"initial" default:"5s" validate:"gt=0"`
			Max     time.Duration `mapstructure:"max" default:"5s" validate:"gtefield=Initial"`
		} `mapstructure:"backoff"`
	} `mapstructure:"deriv"`

	History struct {
		Capacity int `mapstructure:"capacity" default:"1000" validate:"min=1"`
		Recent   int `mapstructure:"recent" default:"20" validate:"min=1"`
	} `mapstructure:"history"`

	Bots struct {
		Cadence    time.Duration `mapstructure:"cadence" default:"1s" validate:"gt=0"`
		MinHistory int           `mapstructure:"min_history" default:"2" validate:"min=2"`
		Stake      float64       `mapstructure:"stake" default:"1.0" validate:"gt=0"`
		Duration   int           `mapstructure:"duration" default:"5" validate:"min=1"`
		Symbol     string        `mapstructure:"symbol" default:"R_10" validate:"required"`
	} `mapstructure:"bots"`

	API struct {
		Addr         string `mapstructure:"addr" default:":8000"`
		RedirectURI  string `mapstructure:"redirect_uri" default:"http://localhost:8000/auth/callback"`
		DashboardURL string `mapstructure:"dashboard_url" default:"http://localhost:3000/dashboard"`
	} `mapstructure:"api"`

	Health struct {
		Addr string `mapstructure:"addr" default:":8080"`
	} `mapstructure:"health"`

	Auth struct {
		Redis struct {
			Addr     string `mapstructure:"addr"` // пустой — токены в памяти
			Password string `mapstructure:"password"`
			DB       int    `mapstructure:"db"`
			Prefix   string `mapstructure:"prefix" default:"digitbot:auth"`
		} `mapstructure:"redis"`
	} `mapstructure:"auth"`

	Telegram struct {
		Token      string  `mapstructure:"token"`
		ChatID     int64   `mapstructure:"chat_id"`
		RatePerSec float64 `mapstructure:"rate_per_sec" default:"1" validate:"gt=0"`
	} `mapstructure:"telegram"`

	Kafka struct {
		Brokers []string `mapstructure:"brokers"`
		Topic   string   `mapstructure:"topic" default:"digitbot.signals"`
	} `mapstructure:"kafka"`

	Tracing struct {
		Enabled bool   `mapstructure:"enabled"`
		Host    string `mapstructure:"host" default:"localhost"`
		Port    int    `mapstructure:"port" default:"6831"`
	} `mapstructure:"tracing"`
}

func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	path := os.Getenv(configFilePathENV)
	if path == "" {
		path = defaultConfigFile
	}
	return Load(path)
}

// Load: дефолты из тегов -> yaml-файл (если есть) -> переменные окружения -> валидация.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}

	v := viper.New()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Exponential — включена ли экспоненциальная пауза переподключения.
func (c *Config) Exponential() bool {
	return c.Deriv.Backoff.Max > c.Deriv.Backoff.Initial
}
