package repository

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"etf-screener/internal/model"
	"etf-screener/pkg/cache"
	"etf-screener/pkg/logger"
)

// PriceRepository loads per-instrument price histories from CSV files.
type PriceRepository interface {
	LoadSeries(ctx context.Context, path string) (model.PriceSeries, error)
}

type priceRepository struct {
	cache cache.Cache
	log   *logger.Logger
}

func NewPriceRepository(c cache.Cache, log *logger.Logger) PriceRepository {
	return &priceRepository{cache: c, log: log}
}

// Column aliases: the data feeds ship Chinese headers, test fixtures and
// exported data may use English ones.
var columnAliases = map[string]string{
	"日期":           "date",
	"date":         "date",
	"收盘":           "close",
	"收盘价":          "close",
	"close":        "close",
	"成交量":          "volume",
	"volume":       "volume",
	"成交额":          "turnover",
	"turnover":     "turnover",
	"涨跌幅":          "pct_change",
	"pct_change":   "pct_change",
	"振幅":           "amplitude",
	"amplitude":    "amplitude",
	"换手率":          "turnover_rate",
	"turnover_rate": "turnover_rate",
}

var dateLayouts = []string{"2006-01-02", "2006/01/02", "20060102"}

// LoadSeries parses the CSV at path into a newest-first series. Rows with
// malformed dates or numbers are skipped, duplicate dates keep the first
// occurrence. Parsed series are cached by path for the duration of a run.
func (r *priceRepository) LoadSeries(ctx context.Context, path string) (model.PriceSeries, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	if series, ok := cache.GetTyped[model.PriceSeries](r.cache, abs); ok {
		return series, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open price history: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read price history: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("price history %s has no data rows", filepath.Base(path))
	}

	columns, err := mapColumns(rows[0])
	if err != nil {
		return nil, fmt.Errorf("price history %s: %w", filepath.Base(path), err)
	}

	series := make(model.PriceSeries, 0, len(rows)-1)
	seen := make(map[time.Time]struct{}, len(rows)-1)
	for _, row := range rows[1:] {
		bar, ok := parseBar(row, columns)
		if !ok {
			continue
		}
		if _, dup := seen[bar.Date]; dup {
			continue
		}
		seen[bar.Date] = struct{}{}
		series = append(series, bar)
	}

	// Newest first; indicator math reverses this view internally.
	sort.SliceStable(series, func(i, j int) bool {
		return series[i].Date.After(series[j].Date)
	})

	r.cache.Set(abs, series, 0)
	return series, nil
}

func mapColumns(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\uFEFF")))
		if canonical, ok := columnAliases[key]; ok {
			if _, exists := columns[canonical]; !exists {
				columns[canonical] = i
			}
		}
	}
	for _, required := range []string{"date", "close", "volume", "turnover", "pct_change"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}
	return columns, nil
}

func parseBar(row []string, columns map[string]int) (model.PriceBar, bool) {
	var bar model.PriceBar

	date, ok := parseDate(field(row, columns["date"]))
	if !ok {
		return bar, false
	}
	bar.Date = date

	values := map[string]*float64{
		"close":      &bar.Close,
		"volume":     &bar.Volume,
		"turnover":   &bar.Turnover,
		"pct_change": &bar.PctChange,
	}
	for name, dst := range values {
		v, err := strconv.ParseFloat(field(row, columns[name]), 64)
		if err != nil {
			return bar, false
		}
		*dst = v
	}

	// Optional columns, ignored when absent or malformed.
	if idx, ok := columns["amplitude"]; ok {
		bar.Amplitude, _ = strconv.ParseFloat(field(row, idx), 64)
	}
	if idx, ok := columns["turnover_rate"]; ok {
		bar.TurnoverRate, _ = strconv.ParseFloat(field(row, idx), 64)
	}
	return bar, true
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func field(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
