package cmds

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"usta-bot/internal/stories/masters"
	"usta-bot/internal/telegram/messages"
)

const dateLayout = "02.01.2006 15:04"

type RecentOrdersCommand struct {
	bot     botApi
	orders  OrdersReader
	masters MastersReader
}

func NewRecentOrdersCommand(bot botApi, orders OrdersReader, masters MastersReader) *RecentOrdersCommand {
	return &RecentOrdersCommand{
		bot:     bot,
		orders:  orders,
		masters: masters,
	}
}

func (c *RecentOrdersCommand) Execute(ctx context.Context, chatID int64) error {
	list, err := c.orders.ListRecent(ctx)
	if err != nil {
		_ = sendText(c.bot, chatID, messages.Error)
		return fmt.Errorf("list recent orders: %w", err)
	}
	if len(list) == 0 {
		return sendText(c.bot, chatID, messages.OrdersNotFound)
	}

	all, err := c.masters.ListAll(ctx)
	if err != nil {
		_ = sendText(c.bot, chatID, messages.Error)
		return fmt.Errorf("list masters: %w", err)
	}
	byID := lo.KeyBy(all, func(m *masters.Master) int64 { return m.ID })

	var text strings.Builder
	text.WriteString(messages.RecentTitle + "\n\n")
	for _, o := range list {
		masterName := "-"
		if o.MasterID != nil {
			if m, ok := byID[*o.MasterID]; ok {
				masterName = m.Name
			}
		}
		text.WriteString(fmt.Sprintf("ID: %d\n", o.ID))
		text.WriteString(fmt.Sprintf("Usta: %s\n", masterName))
		text.WriteString(fmt.Sprintf("Mijoz: %s\n", o.ClientName))
		text.WriteString(fmt.Sprintf("Mahsulot: %s\n", o.Product))
		text.WriteString(fmt.Sprintf("Holat: %s\n", o.Status.Label()))
		text.WriteString(fmt.Sprintf("Sana: %s\n\n", o.CreatedAt.Format(dateLayout)))
	}

	for _, chunk := range splitMessage(strings.TrimRight(text.String(), "\n")) {
		if err := sendText(c.bot, chatID, chunk); err != nil {
			return err
		}
	}
	return nil
}
