package sessionsweep

import (
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
)

// Worker drops conversation sessions nobody touched within the idle TTL.
type Worker struct {
	sessions Sessions
	schedule string
	ttl      time.Duration
	logger   *slog.Logger
	cron     *cron.Cron
}

func NewWorker(sessions Sessions, schedule string, ttl time.Duration, logger *slog.Logger) *Worker {
	return &Worker{
		sessions: sessions,
		schedule: schedule,
		ttl:      ttl,
		logger:   logger,
		cron:     cron.New(),
	}
}

func (w *Worker) Name() string {
	return "sessionsweep"
}

func (w *Worker) Start() error {
	_, err := w.cron.AddFunc(w.schedule, w.run)
	if err != nil {
		return errors.Wrapf(err, "schedule %q", w.schedule)
	}

	w.cron.Start()
	return nil
}

func (w *Worker) Stop() {
	w.logger.Info("Stopping session sweep worker")
	<-w.cron.Stop().Done()
}

func (w *Worker) run() {
	removed := w.sessions.Sweep(w.ttl)
	if removed > 0 {
		w.logger.Info("Expired idle sessions", "removed", removed, "ttl", w.ttl)
	}
}
