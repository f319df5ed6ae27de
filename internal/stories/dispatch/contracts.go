package dispatch

import (
	"context"

	"usta-bot/internal/notify"
	"usta-bot/internal/stories/geo"
	"usta-bot/internal/stories/masters"
	"usta-bot/internal/stories/orders"
)

type (
	ordersService interface {
		Rejections(ctx context.Context, orderID int64) ([]int64, error)
		Reject(ctx context.Context, orderID, telegramID int64) (*orders.Order, *masters.Master, error)
	}

	mastersService interface {
		ListByRegion(ctx context.Context, region string, exclude []int64) ([]*masters.Master, error)
		RecordLiveLocation(ctx context.Context, telegramID int64, p geo.Point) (*masters.Master, error)
	}

	notifier interface {
		NotifyAdmins(ctx context.Context, text string, buttons notify.Buttons) int
		NotifyMaster(ctx context.Context, chatID int64, text string, buttons notify.Buttons) error
		RequestLocation(ctx context.Context, chatID int64, text string) error
		SendLocation(ctx context.Context, chatID int64, p geo.Point) error
	}
)
