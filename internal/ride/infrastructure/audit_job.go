package infrastructure

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/mateusmacedo/go-rideshare/internal/ride/application"
	pkgApp "github.com/mateusmacedo/go-rideshare/pkg/application"
)

const auditJobName = "inventory-audit"

// ScheduleInventoryAudit registers the auditor on scheduler. Overlapping runs
// are skipped rather than queued.
func ScheduleInventoryAudit(scheduler gocron.Scheduler, auditor *application.InventoryAuditor, interval time.Duration, timeout time.Duration, logger pkgApp.AppLogger) (gocron.Job, error) {
	return scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func(ctx context.Context) {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			if _, err := auditor.Audit(ctx); err != nil {
				pkgApp.LogError(ctx, logger, "inventory audit failed", err, nil)
			}
		}),
		gocron.WithName(auditJobName),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
}
