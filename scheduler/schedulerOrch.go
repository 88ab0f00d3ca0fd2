package scheduler

import (
	"log"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/elliotttmiller/NSSPORTS-sub002/config"
	"github.com/elliotttmiller/NSSPORTS-sub002/scheduler/scheduler_jobs"
	"github.com/elliotttmiller/NSSPORTS-sub002/services/extService"
)

// SetupCron starts the settlement sweep. The caller owns the returned cron
// and stops it on shutdown.
func SetupCron(db *gorm.DB, cfg *config.Engine, feed extService.ScoreFeed) *cron.Cron {
	cronService := cron.New(cron.WithSeconds())

	_, err := cronService.AddFunc("0 */5 * * * *", func() {
		// Every 5 minutes: grade finished games and settle completed wagers
		if jobErr := scheduler_jobs.SettlePendingWagers(db, cfg, feed); jobErr != nil {
			log.Println(jobErr)
		}
	})
	if err != nil {
		log.Printf("Error scheduling settlement sweep: %v", err)
	}

	cronService.Start()
	return cronService
}
