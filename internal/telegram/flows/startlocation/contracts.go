package startlocation

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"usta-bot/internal/stories/geo"
	"usta-bot/internal/stories/masters"
	"usta-bot/internal/telegram/states"
)

type (
	botApi interface {
		Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	}

	stateManager interface {
		GetState(chatID int64) states.State
		SetState(chatID int64, state states.State, data any)
		Clear(chatID int64)
	}

	mastersService interface {
		RecordLiveLocation(ctx context.Context, telegramID int64, p geo.Point) (*masters.Master, error)
		SetServiceCenter(ctx context.Context, telegramID int64, p geo.Point) (*masters.Master, error)
	}
)
