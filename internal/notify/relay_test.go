package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"usta-bot/internal/stories/geo"
)

type mockBot struct {
	failFor map[int64]bool
	sent    []tgbotapi.Chattable
}

func (m *mockBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	chatID := chatOf(c)
	if m.failFor[chatID] {
		return tgbotapi.Message{}, errors.New("Forbidden: bot was blocked by the user")
	}
	m.sent = append(m.sent, c)
	return tgbotapi.Message{MessageID: len(m.sent)}, nil
}

func chatOf(c tgbotapi.Chattable) int64 {
	switch v := c.(type) {
	case tgbotapi.MessageConfig:
		return v.ChatID
	case tgbotapi.PhotoConfig:
		return v.ChatID
	case tgbotapi.LocationConfig:
		return v.ChatID
	}
	return 0
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNotifyAdminsContinuesAfterFailure(t *testing.T) {
	bot := &mockBot{failFor: map[int64]bool{200: true}}
	relay := NewRelay(bot, []int64{100, 200, 300}, testLogger())

	delivered := relay.NotifyAdmins(context.Background(), "hello", nil)

	if delivered != 2 {
		t.Fatalf("delivered = %d, want 2", delivered)
	}
	if len(bot.sent) != 2 {
		t.Fatalf("sent %d messages, want 2", len(bot.sent))
	}
	if chatOf(bot.sent[0]) != 100 || chatOf(bot.sent[1]) != 300 {
		t.Errorf("unexpected recipients: %d, %d", chatOf(bot.sent[0]), chatOf(bot.sent[1]))
	}
}

func TestNotifyAdminsWithoutConfigReachesNobody(t *testing.T) {
	bot := &mockBot{}
	relay := NewRelay(bot, nil, testLogger())

	if delivered := relay.NotifyAdmins(context.Background(), "hello", nil); delivered != 0 {
		t.Errorf("delivered = %d, want 0", delivered)
	}
	if len(bot.sent) != 0 {
		t.Errorf("sent %d messages, want 0", len(bot.sent))
	}
}

func TestNotifyAdminsAttachesButtons(t *testing.T) {
	bot := &mockBot{}
	relay := NewRelay(bot, []int64{1}, testLogger())

	relay.NotifyAdmins(context.Background(), "spare part", Buttons{
		Row(Button{Text: "✅ Qabul qilish", Data: "accept_spare_part:9"}),
	})

	msg, ok := bot.sent[0].(tgbotapi.MessageConfig)
	if !ok {
		t.Fatalf("sent %T, want MessageConfig", bot.sent[0])
	}
	markup, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	if !ok {
		t.Fatalf("reply markup is %T, want InlineKeyboardMarkup", msg.ReplyMarkup)
	}
	data := markup.InlineKeyboard[0][0].CallbackData
	if data == nil || *data != "accept_spare_part:9" {
		t.Errorf("callback data = %v, want accept_spare_part:9", data)
	}
}

func TestNotifyAdminsPhoto(t *testing.T) {
	bot := &mockBot{failFor: map[int64]bool{1: true}}
	relay := NewRelay(bot, []int64{1, 2}, testLogger())

	delivered := relay.NotifyAdminsPhoto(context.Background(), "file-id", "caption", nil)
	if delivered != 1 {
		t.Fatalf("delivered = %d, want 1", delivered)
	}

	photo, ok := bot.sent[0].(tgbotapi.PhotoConfig)
	if !ok {
		t.Fatalf("sent %T, want PhotoConfig", bot.sent[0])
	}
	if photo.Caption != "caption" {
		t.Errorf("caption = %q, want %q", photo.Caption, "caption")
	}
}

func TestNotifyMasterReturnsError(t *testing.T) {
	bot := &mockBot{failFor: map[int64]bool{5: true}}
	relay := NewRelay(bot, nil, testLogger())

	if err := relay.NotifyMaster(context.Background(), 5, "offer", nil); err == nil {
		t.Error("expected an error for an unreachable technician")
	}
	if err := relay.NotifyMaster(context.Background(), 6, "offer", nil); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestSendLocation(t *testing.T) {
	bot := &mockBot{}
	relay := NewRelay(bot, nil, testLogger())

	if err := relay.SendLocation(context.Background(), 7, geo.Point{Lat: 41.5, Lng: 69.6}); err != nil {
		t.Fatalf("SendLocation: %v", err)
	}

	loc, ok := bot.sent[0].(tgbotapi.LocationConfig)
	if !ok {
		t.Fatalf("sent %T, want LocationConfig", bot.sent[0])
	}
	if loc.Latitude != 41.5 || loc.Longitude != 69.6 {
		t.Errorf("location = %f,%f", loc.Latitude, loc.Longitude)
	}
}

func TestCancelledContextStopsFanOut(t *testing.T) {
	bot := &mockBot{}
	relay := NewRelay(bot, []int64{1, 2}, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if delivered := relay.NotifyAdmins(ctx, "hello", nil); delivered != 0 {
		t.Errorf("delivered = %d, want 0", delivered)
	}
}
