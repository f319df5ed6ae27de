package workers

import (
	"log/slog"

	"github.com/pkg/errors"
)

// Manager manages multiple workers
type Manager struct {
	workers []Worker
	logger  *slog.Logger
}

// NewManager creates a new worker manager
func NewManager(logger *slog.Logger, workers ...Worker) *Manager {
	return &Manager{
		workers: workers,
		logger:  logger,
	}
}

// Start starts all workers. Workers already started are stopped if a later one fails.
func (m *Manager) Start() error {
	m.logger.Info("Starting worker manager", "worker_count", len(m.workers))

	for i, worker := range m.workers {
		m.logger.Info("Starting worker", "name", worker.Name())
		if err := worker.Start(); err != nil {
			for _, started := range m.workers[:i] {
				started.Stop()
			}
			return errors.Wrapf(err, "start worker %s", worker.Name())
		}
		m.logger.Info("Worker started successfully", "name", worker.Name())
	}

	m.logger.Info("All workers started successfully")
	return nil
}

// Stop stops all workers
func (m *Manager) Stop() {
	m.logger.Info("Stopping all workers")

	for _, worker := range m.workers {
		m.logger.Info("Stopping worker", "name", worker.Name())
		worker.Stop()
	}

	m.logger.Info("All workers stopped")
}
