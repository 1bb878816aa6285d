package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"etf-screener/internal/model"
	"etf-screener/internal/repository"
)

func newTestPerformance(t *testing.T, outputDir string, historyFiles int) (PerformanceService, repository.ReportRepository) {
	t.Helper()
	log := testLogger(t)
	cfg := testConfig(t.TempDir(), outputDir)
	cfg.Report.HistoryFiles = historyFiles
	reports := repository.NewReportRepository(outputDir, log)
	return NewPerformanceService(cfg, log, reports), reports
}

func TestTrack_JoinsFlaggedRowsAgainstCurrentPrices(t *testing.T) {
	outputDir := t.TempDir()
	svc, reports := newTestPerformance(t, outputDir, 10)

	flagDate := time.Date(2025, 5, 28, 0, 0, 0, 0, time.UTC)
	archived := []model.AnalysisRecord{
		{Code: "159915", Name: "创业板ETF", Signal: model.SignalStrong, LastPrice: 1.000, Date: flagDate},
		{Code: "510300", Name: "沪深300ETF", Signal: model.SignalWait, LastPrice: 4.000, Date: flagDate},
		{Code: "588000", Name: "科创50ETF", Signal: model.SignalModerate, LastPrice: 2.000, Date: flagDate},
	}
	_, _, err := reports.WriteDecisionTable(archived)
	require.NoError(t, err)

	current := []model.AnalysisRecord{
		{Code: "159915", LastPrice: 1.100},
		{Code: "510300", LastPrice: 4.400},
		// 588000 has no current price and must not be tracked.
	}

	performance, err := svc.Track(context.Background(), current)
	require.NoError(t, err)
	require.Len(t, performance, 1, "only flagged rows with a current price qualify")

	rec := performance[0]
	assert.Equal(t, "159915", rec.Code)
	assert.Equal(t, model.SignalStrong, rec.Signal)
	assert.Equal(t, flagDate, rec.FlagDate)
	assert.InDelta(t, 1.0, rec.PriceAtFlag, 1e-9)
	assert.InDelta(t, 1.1, rec.CurrentPrice, 1e-9)
	assert.InDelta(t, 10.0, rec.RealizedReturnPct, 1e-9)
}

func TestTrack_NoArchives(t *testing.T) {
	svc, reports := newTestPerformance(t, t.TempDir(), 10)

	performance, err := svc.Track(context.Background(), []model.AnalysisRecord{{Code: "159915", LastPrice: 1}})
	require.NoError(t, err)
	assert.Empty(t, performance)

	// The artifact is still produced for downstream automation.
	path, err := reports.WritePerformanceTable(performance)
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestTrack_MultipleArchivesSortedByFlagDate(t *testing.T) {
	outputDir := t.TempDir()
	svc, reports := newTestPerformance(t, outputDir, 10)

	older := time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2025, 5, 28, 0, 0, 0, 0, time.UTC)

	_, _, err := reports.WriteDecisionTable([]model.AnalysisRecord{
		{Code: "159915", Signal: model.SignalModerate, LastPrice: 1.000, Date: older},
	})
	require.NoError(t, err)
	time.Sleep(1100 * time.Millisecond) // distinct archive timestamps
	_, _, err = reports.WriteDecisionTable([]model.AnalysisRecord{
		{Code: "159915", Signal: model.SignalStrong, LastPrice: 1.050, Date: newer},
	})
	require.NoError(t, err)

	performance, err := svc.Track(context.Background(), []model.AnalysisRecord{{Code: "159915", LastPrice: 1.155}})
	require.NoError(t, err)
	require.Len(t, performance, 2)

	assert.Equal(t, newer, performance[0].FlagDate)
	assert.Equal(t, older, performance[1].FlagDate)
	assert.InDelta(t, 10.0, performance[0].RealizedReturnPct, 0.01)
	assert.InDelta(t, 15.5, performance[1].RealizedReturnPct, 0.01)
}
