package service

import (
	"context"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"etf-screener/config"
	"etf-screener/internal/analyzer"
	"etf-screener/internal/model"
	"etf-screener/internal/repository"
	"etf-screener/pkg/logger"
	"etf-screener/pkg/utils"
)

var fileCodePattern = regexp.MustCompile(`\d{6}`)

// Summary is the console-facing tally of one batch run.
type Summary struct {
	Files    int
	Analyzed int
	Flagged  int
	Strong   int
}

// ScreenerService fans the per-instrument analyzer out across the input
// directory and ranks the collected records.
type ScreenerService interface {
	Scan(ctx context.Context) ([]model.AnalysisRecord, Summary, error)
}

type screenerService struct {
	cfg      *config.Config
	log      *logger.Logger
	analyzer *analyzer.Analyzer
	symbols  *repository.SymbolDirectory
}

func NewScreenerService(cfg *config.Config, log *logger.Logger, a *analyzer.Analyzer, symbols *repository.SymbolDirectory) ScreenerService {
	return &screenerService{cfg: cfg, log: log, analyzer: a, symbols: symbols}
}

// Scan discovers input files, analyzes them on a bounded worker pool and
// returns the qualifying records in deterministic rank order. A missing data
// directory degrades to an empty result, not an error.
func (s *screenerService) Scan(ctx context.Context) ([]model.AnalysisRecord, Summary, error) {
	files := s.discoverFiles()
	summary := Summary{Files: len(files)}
	if len(files) == 0 {
		s.log.Warn("No input files found", logger.StringField("dir", s.cfg.Data.Dir))
		return nil, summary, nil
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		records   []model.AnalysisRecord
		semaphore = make(chan struct{}, s.cfg.Screener.MaxConcurrency)
	)

	s.log.Debug("Start analyzing instruments", logger.IntField("total_files", len(files)))

	for _, file := range files {
		if !utils.ShouldContinue(ctx, s.log) {
			s.log.Info("Received stop signal, screener execution stopped")
			break
		}

		file := file
		wg.Add(1)
		semaphore <- struct{}{}

		utils.GoSafe(func() {
			defer func() {
				<-semaphore
				wg.Done()
			}()

			rec := s.analyzer.Analyze(ctx, file)
			if rec == nil {
				return
			}
			mu.Lock()
			records = append(records, *rec)
			mu.Unlock()
		})
	}

	wg.Wait()

	rankRecords(records)

	summary.Analyzed = len(records)
	for _, rec := range records {
		if rec.Flagged() {
			summary.Flagged++
		}
		if rec.Signal == model.SignalStrong {
			summary.Strong++
		}
	}

	s.log.Info("Screener completed",
		logger.IntField("files", summary.Files),
		logger.IntField("analyzed", summary.Analyzed),
		logger.IntField("flagged", summary.Flagged),
		logger.IntField("strong", summary.Strong),
	)
	return records, summary, nil
}

// discoverFiles lists candidate CSV files, filtered to the symbol directory's
// target set when one is loaded.
func (s *screenerService) discoverFiles() []string {
	matches, err := filepath.Glob(filepath.Join(s.cfg.Data.Dir, "*.csv"))
	if err != nil {
		s.log.Warn("File discovery failed", logger.ErrorField(err))
		return nil
	}
	if s.symbols.Empty() {
		return matches
	}

	filtered := matches[:0]
	for _, m := range matches {
		code := fileCodePattern.FindString(filepath.Base(m))
		if code != "" && s.symbols.Has(code) {
			filtered = append(filtered, m)
		}
	}
	return filtered
}

// rankRecords orders results score-descending, then by longer decline runs,
// then by deeper MA5 deviation; the stable sort keeps equal rows in code
// order so identical inputs always produce identical tables.
func rankRecords(records []model.AnalysisRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Score != records[j].Score {
			return records[i].Score > records[j].Score
		}
		if records[i].DeclineCount != records[j].DeclineCount {
			return records[i].DeclineCount > records[j].DeclineCount
		}
		if records[i].BiasPct != records[j].BiasPct {
			return records[i].BiasPct < records[j].BiasPct
		}
		return strings.Compare(records[i].Code, records[j].Code) < 0
	})
}
