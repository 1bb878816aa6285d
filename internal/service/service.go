package service

import (
	"etf-screener/config"
	"etf-screener/internal/analyzer"
	"etf-screener/internal/repository"
	"etf-screener/pkg/logger"
)

// Service bundles the run-facing services behind one constructor.
type Service struct {
	Screener    ScreenerService
	Performance PerformanceService
}

func NewService(
	cfg *config.Config,
	log *logger.Logger,
	a *analyzer.Analyzer,
	symbols *repository.SymbolDirectory,
	reports repository.ReportRepository,
) *Service {
	return &Service{
		Screener:    NewScreenerService(cfg, log, a, symbols),
		Performance: NewPerformanceService(cfg, log, reports),
	}
}
