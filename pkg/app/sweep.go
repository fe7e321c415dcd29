package app

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"liyu1981.xyz/soil-monitor-service/pkg/common"
	"liyu1981.xyz/soil-monitor-service/pkg/iot"
)

var sweepParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// SweepJob runs one connectivity check. Failures are logged; the next tick
// tries again.
func SweepJob(connectivity iot.IConnectivity) func() {
	return func() {
		logger := common.GetCategoryLogger(common.LoggerNameIOTCore, common.LoggerCategoryIOTConnectivity)
		report, err := connectivity.CheckConnectivity(time.Now())
		if err != nil {
			logger.Error("Scheduled connectivity check failed", zap.Error(err))
			return
		}
		logger.Debug("Scheduled connectivity check done", zap.Int("checked", report.Checked))
	}
}

// StartSweep schedules the connectivity check. schedule is a five field cron
// expression or a descriptor such as "@every 1m"; an empty one schedules
// nothing and returns nil.
func (a *App) StartSweep(schedule string) (*cron.Cron, error) {
	if schedule == "" {
		return nil, nil
	}

	c := cron.New(cron.WithParser(sweepParser))
	if _, err := c.AddFunc(schedule, SweepJob(a.Iot.Connectivity)); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	c.Start()

	common.GetLogger().Info("Connectivity sweep scheduled", zap.String("schedule", schedule))
	return c, nil
}
