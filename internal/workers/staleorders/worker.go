package staleorders

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"usta-bot/internal/stories/orders"
)

const runTimeout = time.Minute

// Worker reminds admins about orders nobody accepted in time.
type Worker struct {
	orders   Orders
	notifier Notifier
	schedule string
	after    time.Duration
	logger   *slog.Logger
	cron     *cron.Cron
}

func NewWorker(orders Orders, notifier Notifier, schedule string, after time.Duration, logger *slog.Logger) *Worker {
	return &Worker{
		orders:   orders,
		notifier: notifier,
		schedule: schedule,
		after:    after,
		logger:   logger,
		cron:     cron.New(),
	}
}

func (w *Worker) Name() string {
	return "staleorders"
}

func (w *Worker) Start() error {
	_, err := w.cron.AddFunc(w.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()

		if err := w.run(ctx); err != nil {
			w.logger.Error("Stale orders worker failed", "error", err)
		}
	})
	if err != nil {
		return errors.Wrapf(err, "schedule %q", w.schedule)
	}

	w.cron.Start()
	return nil
}

func (w *Worker) Stop() {
	w.logger.Info("Stopping stale orders worker")
	<-w.cron.Stop().Done()
}

func (w *Worker) run(ctx context.Context) error {
	stale, err := w.orders.ListStaleNew(ctx, w.after)
	if err != nil {
		return errors.Wrap(err, "list stale orders")
	}
	if len(stale) == 0 {
		return nil
	}

	delivered := w.notifier.NotifyAdmins(ctx, orders.StaleReminderText(stale), nil)
	w.logger.Info("Reminded admins about stale orders",
		"orders", len(stale),
		"delivered", delivered)
	return nil
}
