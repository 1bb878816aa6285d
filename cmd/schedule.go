package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"etf-screener/pkg/logger"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Re-run the batch scan on a cron schedule until interrupted",
	Run:   Schedule,
}

func Schedule(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appDep, err := NewAppDependency()
	if err != nil {
		log.Fatalf("Failed to create app dependency: %v", err)
	}
	defer appDep.Close()

	c := cron.New()
	_, err = c.AddFunc(appDep.cfg.Scheduler.Cron, func() {
		// Cached price series belong to the previous run.
		appDep.cache.Flush()
		if err := runScan(ctx, appDep); err != nil {
			appDep.log.Error("Scheduled scan failed", logger.ErrorField(err))
		}
	})
	if err != nil {
		log.Fatalf("Invalid cron expression %q: %v", appDep.cfg.Scheduler.Cron, err)
	}

	appDep.log.Info("Scheduler started", logger.StringField("cron", appDep.cfg.Scheduler.Cron))
	c.Start()

	<-ctx.Done()
	appDep.log.Info("Shutting down scheduler")
	<-c.Stop().Done()
}
