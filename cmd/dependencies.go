package cmd

import (
	"etf-screener/config"
	"etf-screener/internal/analyzer"
	"etf-screener/internal/repository"
	"etf-screener/internal/service"
	"etf-screener/pkg/cache"
	"etf-screener/pkg/logger"
)

type AppDependency struct {
	cfg      *config.Config
	log      *logger.Logger
	cache    cache.Cache
	reports  repository.ReportRepository
	services *service.Service
}

func NewAppDependency() (*AppDependency, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		return nil, err
	}

	c := cache.NewCache(cfg.Cache.DefaultExpiration, cfg.Cache.CleanupInterval)
	symbols := repository.NewSymbolDirectory(cfg.Data.SymbolFile, log)
	prices := repository.NewPriceRepository(c, log)
	reports := repository.NewReportRepository(cfg.Report.OutputDir, log)

	instrumentAnalyzer := analyzer.New(cfg, log, prices, symbols)
	services := service.NewService(cfg, log, instrumentAnalyzer, symbols, reports)

	return &AppDependency{
		cfg:      cfg,
		log:      log,
		cache:    c,
		reports:  reports,
		services: services,
	}, nil
}

func (d *AppDependency) Close() error {
	d.cache.Flush()
	return d.log.Sync()
}
