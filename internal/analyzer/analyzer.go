package analyzer

import (
	"context"
	"math"
	"path/filepath"
	"regexp"

	"etf-screener/config"
	"etf-screener/internal/indicator"
	"etf-screener/internal/model"
	"etf-screener/internal/repository"
	"etf-screener/pkg/logger"
	"etf-screener/pkg/utils"
)

var codePattern = regexp.MustCompile(`\d{6}`)

type skipReason string

const (
	skipNoCode       skipReason = "no 6-digit code in filename"
	skipLoadFailed   skipReason = "price history unreadable"
	skipShortHistory skipReason = "insufficient history"
	skipIlliquid     skipReason = "turnover below threshold"
)

// Analyzer produces zero or one AnalysisRecord per input file. Failures are
// contained here: the batch only ever sees a record or nil.
type Analyzer struct {
	cfg     *config.Config
	log     *logger.Logger
	prices  repository.PriceRepository
	symbols *repository.SymbolDirectory
}

func New(cfg *config.Config, log *logger.Logger, prices repository.PriceRepository, symbols *repository.SymbolDirectory) *Analyzer {
	return &Analyzer{cfg: cfg, log: log, prices: prices, symbols: symbols}
}

// Analyze runs the full per-instrument pipeline for one price-history file.
// A nil result means the instrument was skipped; the reason is logged, never
// propagated.
func (a *Analyzer) Analyze(ctx context.Context, path string) *model.AnalysisRecord {
	rec, reason, err := a.analyze(ctx, path)
	if rec == nil {
		if err != nil {
			a.log.WarnContext(ctx, "Instrument skipped",
				logger.StringField("file", filepath.Base(path)),
				logger.StringField("reason", string(reason)),
				logger.ErrorField(err),
			)
		} else {
			a.log.Debug("Instrument skipped",
				logger.StringField("file", filepath.Base(path)),
				logger.StringField("reason", string(reason)),
			)
		}
	}
	return rec
}

func (a *Analyzer) analyze(ctx context.Context, path string) (*model.AnalysisRecord, skipReason, error) {
	code := codePattern.FindString(filepath.Base(path))
	if code == "" {
		return nil, skipNoCode, nil
	}

	series, err := a.prices.LoadSeries(ctx, path)
	if err != nil {
		return nil, skipLoadFailed, err
	}
	if len(series) < a.cfg.Screener.MinBars {
		return nil, skipShortHistory, nil
	}

	latest := series[0]
	if latest.Turnover < a.cfg.Screener.MinTurnover {
		return nil, skipIlliquid, nil
	}

	declineCount, declinePct := declineRun(series)
	snap := indicator.Snapshot(series)

	feat := features{
		declineCount: declineCount,
		rsi:          snap.RSI,
		j:            snap.J,
		bias:         snap.BiasPct,
		volumeRatio:  snap.VolumeRatio,
		return250:    horizonReturn(series, 250),
	}
	score := scoreFeatures(feat)
	signal, advice := decide(score, snap.VolumeRatio, latest.Close, snap.MA5)

	rec := &model.AnalysisRecord{
		Code:                 code,
		Name:                 a.symbols.Name(code),
		Signal:               signal,
		Advice:               advice,
		Score:                score,
		LastPrice:            latest.Close,
		DeclineCount:         declineCount,
		CumulativeDeclinePct: utils.RoundTo(declinePct, 2),
		Return5:              horizonReturn(series, 5),
		Return20:             horizonReturn(series, 20),
		Return250:            feat.return250,
		BiasPct:              utils.RoundTo(nanToZero(snap.BiasPct), 2),
		VolumeRatio:          utils.RoundTo(snap.VolumeRatio, 2),
		Turnover:             latest.Turnover,
		Date:                 latest.Date,
	}
	return rec, "", nil
}

// declineRun walks bars newest to oldest, counting consecutive losing days
// and accumulating their percent changes. The first non-negative day (or the
// end of the series) breaks the run.
func declineRun(series model.PriceSeries) (count int, cumulativePct float64) {
	for _, bar := range series {
		if bar.PctChange >= 0 {
			break
		}
		count++
		cumulativePct += bar.PctChange
	}
	return count, cumulativePct
}

// horizonReturn computes the percent change from the close `horizon` bars
// ago to the latest close. Nil when the series is not strictly longer than
// the horizon; absence and a true 0% move must stay distinguishable.
func horizonReturn(series model.PriceSeries, horizon int) *float64 {
	if len(series) <= horizon {
		return nil
	}
	base := series[horizon].Close
	if base == 0 {
		return nil
	}
	ret := (series[0].Close - base) / base * 100
	return utils.ToPointer(utils.RoundTo(ret, 2))
}

func nanToZero(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}
