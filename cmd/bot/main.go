package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	environment "usta-bot/internal/env"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize environment
	env, err := environment.Setup(ctx)
	if err != nil {
		log.Fatalf("Failed to setup environment: %v", err)
	}

	logger := env.Logger
	logger.Info("Starting usta-bot application", slog.String("env", env.Config.Env))

	// Start observability server in background
	if env.Servers.HTTP.Observability != nil {
		go func() {
			logger.Info("Starting observability server", slog.String("addr", env.Servers.HTTP.Observability.Addr))
			if err := env.Servers.HTTP.Observability.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Observability server error", slog.Any("error", err))
			}
		}()
	}

	// Start the Telegram bot
	done, err := startTelegramBot(ctx, env)
	if err != nil {
		logger.Error("Failed to start telegram bot", slog.Any("error", err))
		shutdown(env, nil)
		return
	}

	// Start workers
	if err := env.Services.WorkerService.Start(); err != nil {
		logger.Error("Failed to start workers", slog.Any("error", err))
		cancel()
		shutdown(env, done)
		return
	}

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Bot started successfully. Press Ctrl+C to stop.")
	<-quit

	logger.Info("Shutting down application...")
	cancel()

	env.Services.WorkerService.Stop()
	shutdown(env, done)

	logger.Info("Application stopped")
}

// shutdown waits for the update loop, stops the HTTP server and closes resources.
func shutdown(env *environment.Env, done <-chan struct{}) {
	logger := env.Logger

	shutdownCtx, cancel := context.WithTimeout(context.Background(), env.Config.ShutdownDuration)
	defer cancel()

	if done != nil {
		select {
		case <-done:
		case <-shutdownCtx.Done():
			logger.Warn("Update loop did not stop in time")
		}
	}

	if env.Servers.HTTP.Observability != nil {
		if err := env.Servers.HTTP.Observability.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Observability server shutdown error", slog.Any("error", err))
		}
	}

	// Close resources
	for _, closer := range env.Closers {
		closer()
	}
}

func startTelegramBot(ctx context.Context, env *environment.Env) (<-chan struct{}, error) {
	logger := env.Logger

	if env.Clients.TelegramBot == nil {
		return nil, errors.New("telegram bot не инициализирован - проверьте TELEGRAM_BOT_TOKEN")
	}
	if env.Services.TelegramRouter == nil {
		return nil, errors.New("telegram router не инициализирован")
	}

	// Start the telegram client
	if err := env.Clients.TelegramBot.Start(ctx); err != nil {
		return nil, errors.Wrap(err, "запуск telegram клиента")
	}

	// Register the bot menu commands
	if err := env.Services.TelegramRouter.SetupBotCommands(); err != nil {
		// Not fatal
		logger.Error("Failed to setup bot commands", slog.Any("error", err))
	} else {
		logger.Info("Bot commands set up successfully")
	}

	updates := env.Clients.TelegramBot.GetUpdates()
	done := make(chan struct{})

	logger.Info("Started listening for updates with router...")

	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				env.Clients.TelegramBot.Stop()
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				handleUpdate(ctx, env, &update)
			}
		}
	}()

	return done, nil
}

func handleUpdate(ctx context.Context, env *environment.Env, update *tgbotapi.Update) {
	logger := env.Logger.With(slog.String("request_id", uuid.NewString()))

	switch {
	case update.Message != nil:
		attrs := []any{
			slog.Int64("chat_id", update.Message.Chat.ID),
			slog.String("text", update.Message.Text),
		}
		if update.Message.From != nil {
			attrs = append(attrs, slog.Int64("user_id", update.Message.From.ID))
		}
		logger.Info("Получено сообщение", attrs...)
	case update.CallbackQuery != nil:
		logger.Info("Получен callback",
			slog.Int64("user_id", update.CallbackQuery.From.ID),
			slog.String("data", update.CallbackQuery.Data))
	}

	if err := env.Services.TelegramRouter.Route(ctx, update); err != nil {
		logger.Error("Ошибка обработки обновления", slog.Any("error", err))
	}
}
