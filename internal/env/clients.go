package environment

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"usta-bot/internal/config"
	"usta-bot/internal/infra/sqlite3"
	"usta-bot/internal/infra/telegram"
	"usta-bot/internal/storage"
)

type Clients struct {
	SQLiteDB    *sqlite3.DB
	TelegramBot *telegram.Client
}

func newClients(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Clients, error) {
	sqliteDB, err := provideSQLiteDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := storage.Migrate(sqliteDB.DB.DB); err != nil {
		_ = sqliteDB.Close()
		return nil, errors.Wrap(err, "migrate")
	}
	logger.Info("Database ready", slog.String("path", cfg.DB.Path))

	telegramBot, err := telegram.NewClient(cfg.Telegram.BotToken, telegram.Options{
		Timeout: cfg.Telegram.Timeout,
		RPS:     cfg.Telegram.RateLimit.RPS,
		Burst:   cfg.Telegram.RateLimit.Burst,
	}, logger.WithGroup("telegram"))
	if err != nil {
		_ = sqliteDB.Close()
		return nil, errors.Wrap(err, "telegram client")
	}

	return &Clients{
		SQLiteDB:    sqliteDB,
		TelegramBot: telegramBot,
	}, nil
}

func provideSQLiteDB(ctx context.Context, cfg config.Config) (*sqlite3.DB, error) {
	// Парсим max lifetime из строки, по умолчанию 5m
	maxLifetimeStr := cfg.DB.MaxLifetime
	if maxLifetimeStr == "" {
		maxLifetimeStr = "5m"
	}
	maxLifetime, err := time.ParseDuration(maxLifetimeStr)
	if err != nil {
		return nil, errors.Wrapf(err, "parse DB_MAX_LIFETIME %q", maxLifetimeStr)
	}

	opts := []sqlite3.Option{
		sqlite3.WithPath(cfg.DB.Path),
		sqlite3.WithBusyTimeout(cfg.DB.BusyTimeout),
		sqlite3.WithMaxOpenConns(cfg.DB.MaxOpenConns),
		sqlite3.WithMaxIdleConns(cfg.DB.MaxIdleConns),
		sqlite3.WithConnMaxLifetime(maxLifetime),
	}

	return sqlite3.New(ctx, opts...)
}
