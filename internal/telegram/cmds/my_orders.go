package cmds

import (
	"context"
	"fmt"
	"strings"

	"usta-bot/internal/telegram/messages"
)

type MyOrdersCommand struct {
	bot    botApi
	orders OrdersReader
}

func NewMyOrdersCommand(bot botApi, orders OrdersReader) *MyOrdersCommand {
	return &MyOrdersCommand{
		bot:    bot,
		orders: orders,
	}
}

// Execute shows the technician's latest orders.
func (c *MyOrdersCommand) Execute(ctx context.Context, telegramID int64, chatID int64) error {
	list, err := c.orders.ListByMaster(ctx, telegramID)
	if err != nil {
		_ = sendText(c.bot, chatID, messages.Error)
		return fmt.Errorf("list master orders: %w", err)
	}

	if len(list) == 0 {
		return sendText(c.bot, chatID, messages.OrdersNotFound)
	}

	var text strings.Builder
	text.WriteString(messages.MyOrdersTitle + "\n\n")
	for _, o := range list {
		text.WriteString(fmt.Sprintf("ID: %d\n", o.ID))
		text.WriteString(fmt.Sprintf("Mijoz: %s\n", o.ClientName))
		text.WriteString(fmt.Sprintf("Mahsulot: %s\n", o.Product))
		text.WriteString(fmt.Sprintf("Holat: %s\n\n", o.Status.Label()))
	}

	return sendText(c.bot, chatID, strings.TrimRight(text.String(), "\n"))
}
