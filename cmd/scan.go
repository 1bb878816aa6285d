package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"etf-screener/pkg/logger"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run one batch scan and write the decision, archive and performance tables",
	Run:   Scan,
}

func Scan(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appDep, err := NewAppDependency()
	if err != nil {
		log.Fatalf("Failed to create app dependency: %v", err)
	}
	defer appDep.Close()

	if err := runScan(ctx, appDep); err != nil {
		appDep.log.Error("Scan failed", logger.ErrorField(err))
		os.Exit(1)
	}
}

// runScan is one full batch: screen, report, track. All three output
// artifacts are written even when the scan finds nothing.
func runScan(ctx context.Context, appDep *AppDependency) error {
	records, summary, err := appDep.services.Screener.Scan(ctx)
	if err != nil {
		return err
	}

	current, archive, err := appDep.reports.WriteDecisionTable(records)
	if err != nil {
		return err
	}

	performance, err := appDep.services.Performance.Track(ctx, records)
	if err != nil {
		return err
	}

	performancePath, err := appDep.reports.WritePerformanceTable(performance)
	if err != nil {
		return err
	}

	appDep.log.Info("Reports written",
		logger.StringField("decision_table", current),
		logger.StringField("archive", archive),
		logger.StringField("performance_table", performancePath),
	)

	fmt.Printf("分析完成: 共 %d 个文件, %d 个入选, %d 个关注, %d 个强烈关注, 跟踪 %d 条历史信号\n",
		summary.Files, summary.Analyzed, summary.Flagged, summary.Strong, len(performance))
	return nil
}
