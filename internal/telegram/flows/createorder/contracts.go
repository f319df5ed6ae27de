package createorder

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"usta-bot/internal/stories/dispatch"
	"usta-bot/internal/stories/masters"
	"usta-bot/internal/stories/orders"
	"usta-bot/internal/stories/warehouse"
	"usta-bot/internal/telegram/states"
)

type (
	botApi interface {
		Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
		Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	}

	stateManager interface {
		GetState(chatID int64) states.State
		SetState(chatID int64, state states.State, data any)
		GetData(chatID int64) any
		Clear(chatID int64)
	}

	ordersService interface {
		Create(ctx context.Context, p orders.CreateParams, creator *masters.Master) (*orders.Order, error)
	}

	dispatcher interface {
		Dispatch(ctx context.Context, order *orders.Order) (dispatch.Result, error)
		OfferTo(ctx context.Context, order *orders.Order, m *masters.Master) (dispatch.Result, error)
	}

	mastersService interface {
		GetByID(ctx context.Context, id int64) (*masters.Master, error)
		GetByTelegramID(ctx context.Context, telegramID int64) (*masters.Master, error)
		ListByRegion(ctx context.Context, region string, exclude []int64) ([]*masters.Master, error)
		ListAll(ctx context.Context) ([]*masters.Master, error)
	}

	stockService interface {
		Get(ctx context.Context, id int64) (*warehouse.Item, error)
		ListByRegionAndCategory(ctx context.Context, region *string, category, subcategory *string, minQty int) ([]*warehouse.Item, error)
	}
)
