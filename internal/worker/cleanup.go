package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/jwalitptl/consult-api/pkg/logger"
)

type AuditCleaner interface {
	Cleanup(ctx context.Context, retentionDays int) (int64, error)
}

type OutboxCleaner interface {
	CleanupProcessedEvents(ctx context.Context, retention time.Duration) (int64, error)
}

type CleanupConfig struct {
	AuditRetentionDays  int
	OutboxRetentionDays int
	Interval            time.Duration
}

// CleanupWorker prunes old audit rows and processed outbox rows.
type CleanupWorker struct {
	audit  AuditCleaner
	outbox OutboxCleaner
	config CleanupConfig
	logger *logger.Logger
}

func NewCleanupWorker(audit AuditCleaner, outbox OutboxCleaner, config CleanupConfig, log *logger.Logger) *CleanupWorker {
	if config.Interval <= 0 {
		config.Interval = time.Hour
	}
	return &CleanupWorker{
		audit:  audit,
		outbox: outbox,
		config: config,
		logger: log,
	}
}

func (w *CleanupWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.RunOnce(ctx); err != nil {
				w.logger.Error(err, "cleanup failed")
			}
		}
	}
}

// RunOnce runs both cleanups. A zero retention disables that cleanup.
func (w *CleanupWorker) RunOnce(ctx context.Context) error {
	if w.config.AuditRetentionDays > 0 {
		rows, err := w.audit.Cleanup(ctx, w.config.AuditRetentionDays)
		if err != nil {
			return fmt.Errorf("failed to cleanup audit logs: %w", err)
		}
		w.logger.Info("cleaned up audit logs", "rows", rows, "retention_days", w.config.AuditRetentionDays)
	}

	if w.config.OutboxRetentionDays > 0 {
		retention := time.Duration(w.config.OutboxRetentionDays) * 24 * time.Hour
		rows, err := w.outbox.CleanupProcessedEvents(ctx, retention)
		if err != nil {
			return fmt.Errorf("failed to cleanup outbox events: %w", err)
		}
		w.logger.Info("cleaned up outbox events", "rows", rows, "retention_days", w.config.OutboxRetentionDays)
	}
	return nil
}
