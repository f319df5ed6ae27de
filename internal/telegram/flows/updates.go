package flows

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"usta-bot/internal/stories/geo"
	"usta-bot/internal/telegram/callbacks"
	"usta-bot/internal/telegram/states"
)

func ExtractChatID(update *tgbotapi.Update) int64 {
	if update.Message != nil {
		return update.Message.Chat.ID
	}
	if update.CallbackQuery != nil && update.CallbackQuery.Message != nil {
		return update.CallbackQuery.Message.Chat.ID
	}
	return 0
}

func ExtractUserID(update *tgbotapi.Update) int64 {
	if update.Message != nil && update.Message.From != nil {
		return update.Message.From.ID
	}
	if update.CallbackQuery != nil && update.CallbackQuery.From != nil {
		return update.CallbackQuery.From.ID
	}
	return 0
}

// InputKindOf classifies an update for the step input table. Zero means unsupported.
func InputKindOf(update *tgbotapi.Update) states.InputKind {
	if update.CallbackQuery != nil {
		return states.InputCallback
	}
	if update.Message == nil {
		return 0
	}

	m := update.Message
	switch {
	case m.Location != nil:
		return states.InputLocation
	case m.Contact != nil:
		return states.InputContact
	case len(m.Photo) > 0:
		return states.InputPhoto
	case m.Document != nil:
		return states.InputDocument
	case m.Text != "":
		return states.InputText
	}
	return 0
}

func LocationOf(update *tgbotapi.Update) (geo.Point, bool) {
	if update.Message == nil || update.Message.Location == nil {
		return geo.Point{}, false
	}
	return geo.Point{
		Lat: update.Message.Location.Latitude,
		Lng: update.Message.Location.Longitude,
	}, true
}

// LargestPhoto returns the file id of the biggest rendition of a photo message.
func LargestPhoto(update *tgbotapi.Update) (string, bool) {
	if update.Message == nil || len(update.Message.Photo) == 0 {
		return "", false
	}
	return update.Message.Photo[len(update.Message.Photo)-1].FileID, true
}

func IsCancel(update *tgbotapi.Update) bool {
	return update.CallbackQuery != nil && update.CallbackQuery.Data == callbacks.Cancel
}
