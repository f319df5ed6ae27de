package flows

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// MockBotApi records everything sent to the Telegram Bot API.
type MockBotApi struct {
	SentMessages []tgbotapi.Chattable
	Requests     []tgbotapi.Chattable
}

func (m *MockBotApi) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	m.SentMessages = append(m.SentMessages, c)
	return tgbotapi.Message{MessageID: len(m.SentMessages)}, nil
}

func (m *MockBotApi) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	m.Requests = append(m.Requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

// Texts returns the text of every sent message and edit, in order.
func (m *MockBotApi) Texts() []string {
	out := make([]string, 0, len(m.SentMessages))
	for _, c := range m.SentMessages {
		switch v := c.(type) {
		case tgbotapi.MessageConfig:
			out = append(out, v.Text)
		case tgbotapi.EditMessageTextConfig:
			out = append(out, v.Text)
		case tgbotapi.DocumentConfig:
			out = append(out, v.Caption)
		}
	}
	return out
}

func (m *MockBotApi) LastText() string {
	texts := m.Texts()
	if len(texts) == 0 {
		return ""
	}
	return texts[len(texts)-1]
}

func (m *MockBotApi) Reset() {
	m.SentMessages = nil
	m.Requests = nil
}

// Test update builders.

func TextUpdate(chatID int64, text string) *tgbotapi.Update {
	return &tgbotapi.Update{Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: chatID},
		Chat: &tgbotapi.Chat{ID: chatID},
		Text: text,
	}}
}

func LocationUpdate(chatID int64, lat, lng float64) *tgbotapi.Update {
	return &tgbotapi.Update{Message: &tgbotapi.Message{
		From:     &tgbotapi.User{ID: chatID},
		Chat:     &tgbotapi.Chat{ID: chatID},
		Location: &tgbotapi.Location{Latitude: lat, Longitude: lng},
	}}
}

func ContactUpdate(chatID int64, phone string) *tgbotapi.Update {
	return &tgbotapi.Update{Message: &tgbotapi.Message{
		From:    &tgbotapi.User{ID: chatID},
		Chat:    &tgbotapi.Chat{ID: chatID},
		Contact: &tgbotapi.Contact{PhoneNumber: phone},
	}}
}

func PhotoUpdate(chatID int64, fileIDs ...string) *tgbotapi.Update {
	photos := make([]tgbotapi.PhotoSize, 0, len(fileIDs))
	for _, id := range fileIDs {
		photos = append(photos, tgbotapi.PhotoSize{FileID: id})
	}
	return &tgbotapi.Update{Message: &tgbotapi.Message{
		From:  &tgbotapi.User{ID: chatID},
		Chat:  &tgbotapi.Chat{ID: chatID},
		Photo: photos,
	}}
}

func DocumentUpdate(chatID int64, fileID, fileName string) *tgbotapi.Update {
	return &tgbotapi.Update{Message: &tgbotapi.Message{
		From:     &tgbotapi.User{ID: chatID},
		Chat:     &tgbotapi.Chat{ID: chatID},
		Document: &tgbotapi.Document{FileID: fileID, FileName: fileName},
	}}
}

func CallbackUpdate(chatID int64, data string) *tgbotapi.Update {
	return &tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    &tgbotapi.User{ID: chatID},
		Message: &tgbotapi.Message{MessageID: 1, Chat: &tgbotapi.Chat{ID: chatID}},
		Data:    data,
	}}
}

func CommandUpdate(chatID int64, command string) *tgbotapi.Update {
	text := "/" + command
	return &tgbotapi.Update{Message: &tgbotapi.Message{
		From:     &tgbotapi.User{ID: chatID},
		Chat:     &tgbotapi.Chat{ID: chatID},
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(text)}},
	}}
}
