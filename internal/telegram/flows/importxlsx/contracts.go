package importxlsx

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"usta-bot/internal/stories/importer"
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

	fileDownloader interface {
		DownloadFile(ctx context.Context, fileID string) ([]byte, error)
	}

	stockImporter interface {
		Import(ctx context.Context, data []byte, region *string) (importer.Result, error)
	}
)
