package service

import (
	"context"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"etf-screener/config"
	"etf-screener/internal/model"
	"etf-screener/internal/repository"
	"etf-screener/pkg/logger"
	"etf-screener/pkg/utils"
)

// PerformanceService measures realized outcomes of previously flagged
// instruments by joining archived decisions against current prices.
type PerformanceService interface {
	Track(ctx context.Context, current []model.AnalysisRecord) ([]model.PerformanceRecord, error)
}

type performanceService struct {
	cfg     *config.Config
	log     *logger.Logger
	reports repository.ReportRepository
}

func NewPerformanceService(cfg *config.Config, log *logger.Logger, reports repository.ReportRepository) PerformanceService {
	return &performanceService{cfg: cfg, log: log, reports: reports}
}

// Track loads the newest archives, keeps their flagged rows and computes the
// return from the flag price to the current price. Unreadable archives are
// skipped one by one; an empty result is valid and still gets written by the
// caller.
func (s *performanceService) Track(ctx context.Context, current []model.AnalysisRecord) ([]model.PerformanceRecord, error) {
	currentPrice := make(map[string]float64, len(current))
	for _, rec := range current {
		currentPrice[rec.Code] = rec.LastPrice
	}

	archives, err := s.reports.ListArchives(s.cfg.Report.HistoryFiles)
	if err != nil {
		s.log.Warn("Archive listing failed", logger.ErrorField(err))
		return nil, nil
	}

	var (
		mu          sync.Mutex
		performance []model.PerformanceRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, archive := range archives {
		archive := archive
		g.Go(func() error {
			if !utils.ShouldContinue(gctx, s.log) {
				return nil
			}

			rows, err := s.reports.ReadArchive(archive)
			if err != nil {
				s.log.Warn("Skipping unreadable archive",
					logger.StringField("archive", archive),
					logger.ErrorField(err),
				)
				return nil
			}

			var matched []model.PerformanceRecord
			for _, row := range rows {
				if !row.Flagged() {
					continue
				}
				price, ok := currentPrice[row.Code]
				if !ok || row.LastPrice == 0 {
					continue
				}
				matched = append(matched, model.PerformanceRecord{
					FlagDate:          row.Date,
					Code:              row.Code,
					Name:              row.Name,
					Signal:            row.Signal,
					PriceAtFlag:       row.LastPrice,
					CurrentPrice:      price,
					RealizedReturnPct: utils.RoundTo((price-row.LastPrice)/row.LastPrice*100, 2),
				})
			}

			mu.Lock()
			performance = append(performance, matched...)
			mu.Unlock()
			return nil
		})
	}

	// Per-archive failures are contained above; Wait only orders completion.
	_ = g.Wait()

	sort.SliceStable(performance, func(i, j int) bool {
		if !performance[i].FlagDate.Equal(performance[j].FlagDate) {
			return performance[i].FlagDate.After(performance[j].FlagDate)
		}
		return strings.Compare(performance[i].Code, performance[j].Code) < 0
	})

	s.log.Info("Performance tracking completed",
		logger.IntField("archives", len(archives)),
		logger.IntField("tracked", len(performance)),
	)
	return performance, nil
}
