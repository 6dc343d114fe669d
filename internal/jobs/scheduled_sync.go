package jobs

import (
	"context"

	"github.com/robfig/cron/v3"

	"jirapulse/internal/constants"
	"jirapulse/internal/logging"
	"jirapulse/internal/services"
)

// StartScheduler launches the cron-driven sync. An empty schedule disables
// scheduled syncs entirely; manual syncs stay available either way.
func StartScheduler(schedule string, syncSvc *services.SyncService) (*cron.Cron, error) {
	if schedule == "" {
		logging.Info("scheduled sync disabled")
		return nil, nil
	}

	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		syncID, err := syncSvc.Start(context.Background(), constants.SyncTypeScheduled, "scheduler")
		if err != nil {
			logging.Error("scheduled sync failed to start", "error", err.Error())
			return
		}
		logging.Info("scheduled sync started", "sync_id", syncID)
	})
	if err != nil {
		return nil, err
	}

	c.Start()
	logging.Info("sync scheduler started", "schedule", schedule)
	return c, nil
}
