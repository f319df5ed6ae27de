package cmds

import (
	"context"
	"fmt"
	"strings"

	"usta-bot/internal/stories/orders"
	"usta-bot/internal/stories/warehouse"
	"usta-bot/internal/telegram/messages"
)

type StockCommand struct {
	bot   botApi
	stock StockReader
}

func NewStockCommand(bot botApi, stock StockReader) *StockCommand {
	return &StockCommand{
		bot:   bot,
		stock: stock,
	}
}

// Execute lists the whole ledger for admins and the technician's region plus
// region-less rows otherwise.
func (c *StockCommand) Execute(ctx context.Context, chatID int64, isAdmin bool, region string) error {
	var (
		items []*warehouse.Item
		err   error
	)
	if isAdmin {
		items, err = c.stock.ListAll(ctx)
	} else {
		items, err = c.stock.ListForRegion(ctx, region)
	}
	if err != nil {
		_ = sendText(c.bot, chatID, messages.Error)
		return fmt.Errorf("list stock: %w", err)
	}

	if len(items) == 0 {
		return sendText(c.bot, chatID, messages.StockEmpty)
	}

	var text strings.Builder
	text.WriteString(messages.StockTitle + "\n\n")
	for _, it := range items {
		regionText := ""
		if isAdmin && it.Region != nil {
			regionText = fmt.Sprintf(" (%s)", *it.Region)
		}
		text.WriteString(fmt.Sprintf("%s%s - %d dona - %s\n", it.Name, regionText, it.Quantity, orders.FormatSum(it.Price)))
	}

	for _, chunk := range splitMessage(text.String()) {
		if err := sendText(c.bot, chatID, chunk); err != nil {
			return err
		}
	}
	return nil
}
