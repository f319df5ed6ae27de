package config

import (
	"fmt"
	"time"
)

type Config struct {
	Env              string                  `env:"ENV,default=local"`
	Logger           LoggerConfig            `env:",prefix=LOGGER_"`
	Observability    ObservabilityHTTPConfig `env:",prefix=OBSERVABILITY_"`
	ShutdownDuration time.Duration           `env:"SHUTDOWN_DURATION,default=30s"`
	DB               SQLiteConfig            `env:",prefix=DB_"`
	Telegram         TelegramConfig          `env:",prefix=TELEGRAM_"`
	Dispatch         DispatchConfig          `env:",prefix=DISPATCH_"`
	WarrantyPeriod   time.Duration           `env:"WARRANTY_PERIOD,default=1440h"`
	SessionTTL       time.Duration           `env:"SESSION_TTL,default=24h"`
	Workers          WorkersConfig           `env:",prefix=WORKERS_"`
}

type TelegramConfig struct {
	BotToken string        `env:"BOT_TOKEN,required"`
	Timeout  time.Duration `env:"TIMEOUT,default=60s"`
	// AdminUserIDs may use admin features, AdminChatIDs receive notifications.
	AdminUserIDs []int64 `env:"ADMIN_USER_IDS"`
	AdminChatIDs []int64 `env:"ADMIN_CHAT_IDS"`
	RateLimit    struct {
		Burst int     `env:"BURST,default=1"`
		RPS   float64 `env:"RPS,default=25.0"`
	} `env:",prefix=RATE_LIMIT_"`
}

type DispatchConfig struct {
	LocationFreshness time.Duration `env:"LOCATION_FRESHNESS,default=24h"`
}

type WorkersConfig struct {
	SessionSweepSchedule string        `env:"SESSION_SWEEP_SCHEDULE,default=*/15 * * * *"`
	StaleOrdersSchedule  string        `env:"STALE_ORDERS_SCHEDULE,default=0 * * * *"`
	StaleOrderAfter      time.Duration `env:"STALE_ORDER_AFTER,default=2h"`
}

type LoggerConfig struct {
	Level string `env:"LEVEL,default=debug"`
}

type ObservabilityHTTPConfig struct {
	Host         string        `env:"HOST,default=127.0.0.1"`
	Port         uint16        `env:"PORT,default=8383"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT,default=30s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT,default=30s"`
	IdleTimeout  time.Duration `env:"IDLE_TIMEOUT,default=1m"`
}

func (a ObservabilityHTTPConfig) ADDR() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

type SQLiteConfig struct {
	Path         string        `env:"PATH,default=./data/usta.db"`
	MaxOpenConns int           `env:"MAX_OPEN_CONNS,default=25"`
	MaxIdleConns int           `env:"MAX_IDLE_CONNS,default=5"`
	MaxLifetime  string        `env:"MAX_LIFETIME,default=5m"`
	BusyTimeout  time.Duration `env:"BUSY_TIMEOUT,default=5s"`
}
