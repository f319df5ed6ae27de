package cmds

import (
	"context"
	"fmt"
	"strings"

	"usta-bot/internal/telegram/messages"
)

type MastersCommand struct {
	bot     botApi
	masters MastersReader
}

func NewMastersCommand(bot botApi, masters MastersReader) *MastersCommand {
	return &MastersCommand{
		bot:     bot,
		masters: masters,
	}
}

func (c *MastersCommand) Execute(ctx context.Context, chatID int64) error {
	list, err := c.masters.ListAll(ctx)
	if err != nil {
		_ = sendText(c.bot, chatID, messages.Error)
		return fmt.Errorf("list masters: %w", err)
	}

	if len(list) == 0 {
		return sendText(c.bot, chatID, messages.MastersNotFound)
	}

	var text strings.Builder
	text.WriteString(messages.MastersTitle + "\n\n")
	for _, m := range list {
		text.WriteString(fmt.Sprintf("ID: %d\n", m.ID))
		text.WriteString(fmt.Sprintf("Ism: %s\n", m.Name))
		text.WriteString(fmt.Sprintf("Telefon: %s\n", m.Phone))
		text.WriteString(fmt.Sprintf("Hudud: %s\n", m.Region))
		if m.ServiceCenter != nil {
			text.WriteString("🏢 Servis markaz belgilangan\n")
		}
		text.WriteString("\n")
	}

	for _, chunk := range splitMessage(strings.TrimRight(text.String(), "\n")) {
		if err := sendText(c.bot, chatID, chunk); err != nil {
			return err
		}
	}
	return nil
}
