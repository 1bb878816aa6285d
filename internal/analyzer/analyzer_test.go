package analyzer

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"etf-screener/config"
	"etf-screener/internal/model"
	"etf-screener/internal/repository"
	"etf-screener/pkg/logger"
)

type stubPriceRepo struct {
	series model.PriceSeries
	err    error
}

func (s *stubPriceRepo) LoadSeries(_ context.Context, _ string) (model.PriceSeries, error) {
	return s.series, s.err
}

func testConfig() *config.Config {
	return &config.Config{
		Screener: config.Screener{
			MinBars:        30,
			MinTurnover:    5_000_000,
			MaxConcurrency: 2,
		},
	}
}

func newTestAnalyzer(t *testing.T, series model.PriceSeries, loadErr error) *Analyzer {
	t.Helper()
	log, err := logger.New("error", "console")
	require.NoError(t, err)
	symbols := repository.NewSymbolDirectory("does-not-exist.txt", log)
	return New(testConfig(), log, &stubPriceRepo{series: series, err: loadErr}, symbols)
}

// buildSeries constructs a newest-first series of n bars. pctChanges are
// applied to the newest bars (index 0 = most recent); older bars alternate
// small moves so no accidental decline run forms.
func buildSeries(n int, pctChanges []float64, turnover float64) model.PriceSeries {
	series := make(model.PriceSeries, n)
	day := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		pct := 0.5
		if i%2 == 1 {
			pct = -0.5
		}
		if i < len(pctChanges) {
			pct = pctChanges[i]
		}
		series[i] = model.PriceBar{
			Date:      day.AddDate(0, 0, -i),
			Close:     10 + float64(n-i)*0.01,
			Volume:    2000,
			Turnover:  turnover,
			PctChange: pct,
		}
	}
	return series
}

func TestAnalyze_ConsecutiveDeclineScenario(t *testing.T) {
	series := buildSeries(260, []float64{-1, -2, -1.5, -3, 0.5}, 8_000_000)
	a := newTestAnalyzer(t, series, nil)

	rec := a.Analyze(context.Background(), "fund_data/159915.csv")
	require.NotNil(t, rec)

	assert.Equal(t, "159915", rec.Code)
	assert.Equal(t, 4, rec.DeclineCount)
	assert.InDelta(t, -7.5, rec.CumulativeDeclinePct, 1e-9)
	assert.Equal(t, series[0].Close, rec.LastPrice)
	assert.Equal(t, series[0].Date, rec.Date)
	require.NotNil(t, rec.Return5)
	require.NotNil(t, rec.Return20)
	require.NotNil(t, rec.Return250)
}

func TestAnalyze_NoCodeInFilename(t *testing.T) {
	a := newTestAnalyzer(t, buildSeries(260, nil, 8_000_000), nil)
	assert.Nil(t, a.Analyze(context.Background(), "fund_data/notes.csv"))
}

func TestAnalyze_ShortHistorySkipped(t *testing.T) {
	a := newTestAnalyzer(t, buildSeries(10, nil, 8_000_000), nil)
	assert.Nil(t, a.Analyze(context.Background(), "fund_data/159915.csv"))
}

func TestAnalyze_IlliquidSkipped(t *testing.T) {
	series := buildSeries(260, []float64{-1, -2, -1.5, -3}, 900_000)
	a := newTestAnalyzer(t, series, nil)
	assert.Nil(t, a.Analyze(context.Background(), "fund_data/159915.csv"))
}

func TestAnalyze_LoadFailureSkipped(t *testing.T) {
	a := newTestAnalyzer(t, nil, fmt.Errorf("malformed csv"))
	assert.Nil(t, a.Analyze(context.Background(), "fund_data/159915.csv"))
}

func TestAnalyze_HorizonReturnsAbsentNotZero(t *testing.T) {
	series := buildSeries(100, nil, 8_000_000)
	a := newTestAnalyzer(t, series, nil)

	rec := a.Analyze(context.Background(), "fund_data/510300.csv")
	require.NotNil(t, rec)
	assert.NotNil(t, rec.Return5)
	assert.NotNil(t, rec.Return20)
	assert.Nil(t, rec.Return250, "100 bars cannot support a 250-bar horizon")
}

func TestAnalyze_HorizonReturnValue(t *testing.T) {
	series := buildSeries(40, nil, 8_000_000)
	a := newTestAnalyzer(t, series, nil)

	rec := a.Analyze(context.Background(), "fund_data/510300.csv")
	require.NotNil(t, rec)

	base := series[5].Close
	want := (series[0].Close - base) / base * 100
	assert.InDelta(t, want, *rec.Return5, 0.005)
}

func TestDeclineRun(t *testing.T) {
	tests := []struct {
		name      string
		changes   []float64
		wantCount int
		wantPct   float64
	}{
		{"no decline", []float64{0.5, -1, -2}, 0, 0},
		{"flat day breaks run", []float64{-1, 0, -2}, 1, -1},
		{"alternating", []float64{-1, 1, -1, 1}, 1, -1},
		{"full run", []float64{-1, -2, -3}, 3, -6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			series := make(model.PriceSeries, len(tt.changes))
			for i, c := range tt.changes {
				series[i] = model.PriceBar{PctChange: c}
			}
			count, pct := declineRun(series)
			assert.Equal(t, tt.wantCount, count)
			assert.InDelta(t, tt.wantPct, pct, 1e-9)
		})
	}
}
