package daemon

import (
	"context"
	"log/slog"
	"time"

	"eventhub/internal/service"
)

// Syncer runs one external event sync.
type Syncer interface {
	Sync(ctx context.Context, req service.SyncRequest) (service.SyncReport, error)
}

// SyncTask re-runs the external event sync every interval. A failed run is
// logged and retried at the next tick.
func SyncTask(syncer Syncer, interval time.Duration) DaemonFunc {
	return func(ctx context.Context, name string) error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				slog.Info("Daemon shutting down", "daemon", name)
				return nil
			case <-ticker.C:
				report, err := syncer.Sync(ctx, service.SyncRequest{})
				if err != nil {
					slog.ErrorContext(ctx, "Scheduled sync failed", "daemon", name, "error", err)
					continue
				}
				slog.InfoContext(ctx, "Scheduled sync finished",
					"daemon", name,
					"created", report.Created,
					"updated", report.Updated,
					"skipped", report.Skipped,
				)
			}
		}
	}
}
