package cron

import (
	"context"

	"github.com/foodbridge/foodbridge/internal/jobs"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// StartListingCronJobs schedules the listing expiry sweep.
func StartListingCronJobs(sweeper *jobs.ExpirySweeper) *cron.Cron {
	c := cron.New()

	c.AddFunc("@every 5m", func() {
		if err := sweeper.Run(context.Background()); err != nil {
			logrus.WithError(err).Error("Listing expiry sweep failed")
		}
	})

	c.Start()
	return c
}
