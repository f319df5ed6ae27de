package cmds

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"usta-bot/internal/storage"
	"usta-bot/internal/stories/masters"
	"usta-bot/internal/stories/orders"
	"usta-bot/internal/stories/warehouse"
)

type (
	botApi interface {
		Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	}

	OrdersReader interface {
		ListByMaster(ctx context.Context, telegramID int64) ([]*orders.Order, error)
		ListRecent(ctx context.Context) ([]*orders.Order, error)
		ListForExport(ctx context.Context, masterTelegramID *int64) ([]*orders.Order, error)
	}

	MastersReader interface {
		ListAll(ctx context.Context) ([]*masters.Master, error)
	}

	StockReader interface {
		ListAll(ctx context.Context) ([]*warehouse.Item, error)
		ListForRegion(ctx context.Context, region string) ([]*warehouse.Item, error)
	}

	StatisticsStorage interface {
		GetStatistics(ctx context.Context) (*storage.StatisticsData, error)
	}
)
