package staleorders

import (
	"context"
	"time"

	"usta-bot/internal/notify"
	"usta-bot/internal/stories/orders"
)

type (
	Orders interface {
		ListStaleNew(ctx context.Context, olderThan time.Duration) ([]*orders.Order, error)
	}

	Notifier interface {
		NotifyAdmins(ctx context.Context, text string, buttons notify.Buttons) int
	}
)
