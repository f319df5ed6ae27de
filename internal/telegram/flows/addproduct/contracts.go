package addproduct

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"usta-bot/internal/stories/warehouse"
	"usta-bot/internal/telegram/states"
)

type (
	botApi interface {
		Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	}

	stateManager interface {
		GetState(chatID int64) states.State
		SetState(chatID int64, state states.State, data any)
		GetData(chatID int64) any
		Clear(chatID int64)
	}

	stockService interface {
		AddProduct(ctx context.Context, item warehouse.Item) (*warehouse.Item, error)
		Restock(ctx context.Context, item warehouse.Item) (*warehouse.Item, warehouse.UpsertOutcome, error)
	}
)
