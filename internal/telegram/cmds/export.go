package cmds

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/samber/lo"

	"usta-bot/internal/infra/xlsx"
	"usta-bot/internal/stories/orders"
	"usta-bot/internal/telegram/messages"
)

var exportHeaders = []string{
	"ID", "Mijoz ismi", "Telefon", "Manzil", "Mahsulot", "Miqdor", "Holat", "Shtrix kod", "Kafolat", "Sana",
}

// ExportCommand sends orders as an Excel file.
type ExportCommand struct {
	bot    botApi
	orders OrdersReader
	logger *slog.Logger
	now    func() time.Time
}

func NewExportCommand(bot botApi, orders OrdersReader, logger *slog.Logger, now func() time.Time) *ExportCommand {
	return &ExportCommand{
		bot:    bot,
		orders: orders,
		logger: logger,
		now:    now,
	}
}

// Execute exports every order for admins and only the technician's own orders otherwise.
func (c *ExportCommand) Execute(ctx context.Context, chatID int64, isAdmin bool, telegramID int64, masterName string) error {
	var scope *int64
	if !isAdmin {
		scope = lo.ToPtr(telegramID)
	}

	list, err := c.orders.ListForExport(ctx, scope)
	if err != nil {
		_ = sendText(c.bot, chatID, messages.ExportFailed)
		return fmt.Errorf("list orders for export: %w", err)
	}
	if len(list) == 0 {
		return sendText(c.bot, chatID, messages.OrdersNotFound)
	}

	if err := sendText(c.bot, chatID, messages.ExportPreparing); err != nil {
		return err
	}

	data, err := xlsx.Build("Buyurtmalar", exportHeaders, ExportRows(list))
	if err != nil {
		c.logger.Error("Failed to build export workbook", slog.Any("error", err))
		return sendText(c.bot, chatID, messages.ExportFailed)
	}

	owner := "admin"
	if !isAdmin {
		owner = strings.Join(strings.Fields(masterName), "_")
	}
	fileName := fmt.Sprintf("buyurtmalar_%s_%d.xlsx", owner, c.now().Unix())

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: fileName, Bytes: data})
	doc.Caption = exportCaption(isAdmin, masterName, len(list))
	doc.ReplyMarkup = messages.MenuFor(isAdmin)
	_, err = c.bot.Send(doc)
	return err
}

func exportCaption(isAdmin bool, masterName string, count int) string {
	if isAdmin {
		return fmt.Sprintf("📊 Barcha buyurtmalar\n\n📋 Jami: %d ta buyurtma", count)
	}
	return fmt.Sprintf("📊 Sizning buyurtmalaringiz\n\n👷 Usta: %s\n📋 Jami: %d ta buyurtma", masterName, count)
}

// ExportRows renders orders in the column order of the export sheet.
func ExportRows(list []*orders.Order) [][]any {
	return lo.Map(list, func(o *orders.Order, _ int) []any {
		warranty := "-"
		if o.Warranty != orders.WarrantyUnknown {
			warranty = o.Warranty.Label()
		}
		return []any{
			o.ID,
			orDash(o.ClientName),
			orDash(o.ClientPhone),
			orDash(o.Address),
			orDash(o.Product),
			o.Quantity,
			o.Status.Label(),
			orDash(lo.FromPtr(o.Barcode)),
			warranty,
			o.CreatedAt.Format(dateLayout),
		}
	})
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
