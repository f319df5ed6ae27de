package orderwork

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"usta-bot/internal/stories/dispatch"
	"usta-bot/internal/stories/geo"
	"usta-bot/internal/stories/orders"
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
		Accept(ctx context.Context, orderID, telegramID int64) (*orders.Order, error)
		Depart(ctx context.Context, orderID, telegramID int64) (*orders.Order, error)
		Arrive(ctx context.Context, orderID, telegramID int64, at geo.Point) (*orders.Order, error)
		RecordBeforePhoto(ctx context.Context, orderID, telegramID int64, fileID string) (*orders.Order, error)
		RecordAfterPhoto(ctx context.Context, orderID, telegramID int64, fileID string) (*orders.Order, error)
		RecordCompletionGPS(ctx context.Context, orderID, telegramID int64, at geo.Point) (*orders.Order, error)
		ClassifyWarranty(o *orders.Order) orders.Warranty
		DecideWarranty(ctx context.Context, orderID, telegramID int64, valid bool) (*orders.Order, error)
		SetWorkType(ctx context.Context, orderID, telegramID int64, wt geo.WorkType) (*orders.Order, error)
		SubmitSparePart(ctx context.Context, orderID, telegramID int64, fileID string) (*orders.Order, error)
		ConfirmSparePart(ctx context.Context, orderID int64) (*orders.Order, error)
		Finish(ctx context.Context, orderID, telegramID int64) (*orders.Order, error)
	}

	dispatcher interface {
		HandleRejection(ctx context.Context, orderID, telegramID int64) (dispatch.Result, error)
		ForgetOrder(orderID int64)
	}
)
