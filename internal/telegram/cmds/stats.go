package cmds

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"usta-bot/internal/storage"
	"usta-bot/internal/stories/orders"
	"usta-bot/internal/telegram/callbacks"
	"usta-bot/internal/telegram/messages"
)

type StatsCommand struct {
	bot     botApi
	storage StatisticsStorage
}

func NewStatsCommand(bot botApi, storage StatisticsStorage) *StatsCommand {
	return &StatsCommand{
		bot:     bot,
		storage: storage,
	}
}

func (c *StatsCommand) Execute(ctx context.Context, chatID int64) error {
	stats, err := c.storage.GetStatistics(ctx)
	if err != nil {
		_ = sendText(c.bot, chatID, messages.Error)
		return fmt.Errorf("get statistics: %w", err)
	}

	keyboard := refreshKeyboard()
	msg := tgbotapi.NewMessage(chatID, formatStatistics(stats))
	msg.ParseMode = "Markdown"
	msg.ReplyMarkup = keyboard
	_, err = c.bot.Send(msg)
	return err
}

func (c *StatsCommand) Refresh(ctx context.Context, chatID int64, messageID int) error {
	stats, err := c.storage.GetStatistics(ctx)
	if err != nil {
		return fmt.Errorf("get statistics: %w", err)
	}

	keyboard := refreshKeyboard()
	edit := tgbotapi.NewEditMessageText(chatID, messageID, formatStatistics(stats))
	edit.ParseMode = "Markdown"
	edit.ReplyMarkup = &keyboard
	_, err = c.bot.Send(edit)
	if err != nil && strings.Contains(err.Error(), "message is not modified") {
		return nil
	}
	return err
}

func refreshKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Yangilash", callbacks.StatsRefresh),
		),
	)
}

func formatStatistics(stats *storage.StatisticsData) string {
	var text strings.Builder

	text.WriteString("📊 *Statistika*\n\n")
	text.WriteString(fmt.Sprintf("*Ustalar:* %d\n\n", stats.MastersCount))

	text.WriteString("📋 *Buyurtmalar holati:*\n")
	total := 0
	for _, s := range orders.Statuses() {
		n := stats.OrdersByStatus[s]
		total += n
		if n == 0 {
			continue
		}
		text.WriteString(fmt.Sprintf("• %s: *%d*\n", s.Label(), n))
	}
	text.WriteString(fmt.Sprintf("• Jami: *%d*\n\n", total))

	text.WriteString("📅 *Bugun:*\n")
	text.WriteString(fmt.Sprintf("• Yangi buyurtmalar: *%d*\n", stats.OrdersToday))
	text.WriteString(fmt.Sprintf("• Yetkazildi: *%d*\n", stats.DeliveredToday))
	text.WriteString(fmt.Sprintf("• To'lovlar: *%s*\n\n", orders.FormatSum(stats.PayoutToday)))

	text.WriteString("🗓 *Shu oy:*\n")
	text.WriteString(fmt.Sprintf("• Yetkazildi: *%d*\n", stats.DeliveredThisMonth))
	text.WriteString(fmt.Sprintf("• To'lovlar: *%s*\n\n", orders.FormatSum(stats.PayoutThisMonth)))

	text.WriteString("📦 *Ombor:*\n")
	text.WriteString(fmt.Sprintf("• Pozitsiyalar: *%d*\n", stats.WarehouseRows))
	text.WriteString(fmt.Sprintf("• Jami dona: *%d*\n", stats.WarehouseUnits))
	text.WriteString(fmt.Sprintf("• Tugaganlar: *%d*\n", stats.EmptyWarehouseRows))

	if len(stats.TopRegions) > 0 {
		text.WriteString("\n📍 *Faol hududlar:*\n")
		for _, r := range stats.TopRegions {
			text.WriteString(fmt.Sprintf("• %s: *%d*\n", r.Region, r.OrderCount))
		}
	}

	return text.String()
}
