package addmaster

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"usta-bot/internal/stories/masters"
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

	mastersService interface {
		Register(ctx context.Context, m masters.Master) (*masters.Master, error)
	}
)
