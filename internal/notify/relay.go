package notify

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"usta-bot/internal/stories/geo"
)

var deliveries = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "usta_notifications_total",
	Help: "Outbound notifications by recipient kind and result.",
}, []string{"recipient", "result"})

type botApi interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Button is an inline button independent of the transport.
type Button struct {
	Text string
	Data string
}

type Buttons [][]Button

func Row(buttons ...Button) []Button {
	return buttons
}

func (b Buttons) markup() *tgbotapi.InlineKeyboardMarkup {
	if len(b) == 0 {
		return nil
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(b))
	for _, r := range b {
		row := make([]tgbotapi.InlineKeyboardButton, 0, len(r))
		for _, btn := range r {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(btn.Text, btn.Data))
		}
		rows = append(rows, row)
	}

	m := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &m
}

// Relay delivers best-effort messages to the admin chats and to technicians.
// A failed recipient is logged and skipped.
type Relay struct {
	bot          botApi
	adminChatIDs []int64
	logger       *slog.Logger
}

func NewRelay(bot botApi, adminChatIDs []int64, logger *slog.Logger) *Relay {
	return &Relay{
		bot:          bot,
		adminChatIDs: adminChatIDs,
		logger:       logger,
	}
}

// NotifyAdmins returns the number of admin chats reached.
func (r *Relay) NotifyAdmins(ctx context.Context, text string, buttons Buttons) int {
	delivered := 0
	for _, chatID := range r.adminChatIDs {
		if ctx.Err() != nil {
			break
		}
		if chatID == 0 {
			continue
		}

		msg := tgbotapi.NewMessage(chatID, text)
		if m := buttons.markup(); m != nil {
			msg.ReplyMarkup = *m
		}
		if r.send("admin", chatID, msg) == nil {
			delivered++
		}
	}
	return delivered
}

func (r *Relay) NotifyAdminsPhoto(ctx context.Context, fileID, caption string, buttons Buttons) int {
	delivered := 0
	for _, chatID := range r.adminChatIDs {
		if ctx.Err() != nil {
			break
		}
		if chatID == 0 {
			continue
		}

		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(fileID))
		photo.Caption = caption
		if m := buttons.markup(); m != nil {
			photo.ReplyMarkup = *m
		}
		if r.send("admin", chatID, photo) == nil {
			delivered++
		}
	}
	return delivered
}

func (r *Relay) NotifyMaster(ctx context.Context, chatID int64, text string, buttons Buttons) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(chatID, text)
	if m := buttons.markup(); m != nil {
		msg.ReplyMarkup = *m
	}
	return r.send("master", chatID, msg)
}

// RequestLocation sends text with a one-time keyboard asking for the user's location.
func (r *Relay) RequestLocation(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = LocationKeyboard()
	return r.send("master", chatID, msg)
}

func (r *Relay) SendLocation(ctx context.Context, chatID int64, p geo.Point) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.send("master", chatID, tgbotapi.NewLocation(chatID, p.Lat, p.Lng))
}

func (r *Relay) send(recipient string, chatID int64, c tgbotapi.Chattable) error {
	if _, err := r.bot.Send(c); err != nil {
		deliveries.WithLabelValues(recipient, "failed").Inc()
		r.logger.Error("Failed to deliver notification",
			slog.String("recipient", recipient),
			slog.Int64("chat_id", chatID),
			slog.Any("error", err))
		return fmt.Errorf("send to %d: %w", chatID, err)
	}
	deliveries.WithLabelValues(recipient, "delivered").Inc()
	return nil
}

// LocationKeyboard is a one-time reply keyboard with a single location-request button.
func LocationKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButtonLocation("📍 Joylashuvni yuborish"),
		),
	)
	kb.OneTimeKeyboard = true
	kb.ResizeKeyboard = true
	return kb
}
