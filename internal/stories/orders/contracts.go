package orders

import (
	"context"

	"usta-bot/internal/notify"
	"usta-bot/internal/stories/masters"
	"usta-bot/internal/stories/warehouse"
)

type (
	Storage interface {
		// CreateOrderWithStock decrements stock row stockID by the order quantity and inserts
		// the order in one transaction. It returns ErrInsufficientStock when the row no longer
		// holds enough.
		CreateOrderWithStock(ctx context.Context, order Order, stockID int64) (*Order, error)
		GetOrder(ctx context.Context, id int64) (*Order, error)
		// UpdateOrder writes params only while the order is in one of from and,
		// when params.Basis is set, still has that warranty and work type.
		// A nil order means no row matched.
		UpdateOrder(ctx context.Context, id int64, from []Status, params UpdateParams) (*Order, error)
		ListOrders(ctx context.Context, criteria ListCriteria) ([]*Order, error)
		CountOrdersByStatus(ctx context.Context) (map[Status]int, error)

		AddRejection(ctx context.Context, orderID, masterTelegramID int64) error
		ListRejections(ctx context.Context, orderID int64) ([]int64, error)
	}

	stockFinder interface {
		FindStock(ctx context.Context, name string, region *string) (*warehouse.Item, error)
	}

	mastersGetter interface {
		GetByTelegramID(ctx context.Context, telegramID int64) (*masters.Master, error)
	}

	notifier interface {
		NotifyAdmins(ctx context.Context, text string, buttons notify.Buttons) int
		NotifyAdminsPhoto(ctx context.Context, fileID, caption string, buttons notify.Buttons) int
		NotifyMaster(ctx context.Context, chatID int64, text string, buttons notify.Buttons) error
	}
)
