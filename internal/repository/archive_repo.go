package repository

import (
	"encoding/csv"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"etf-screener/internal/model"
	"etf-screener/pkg/logger"
)

const (
	decisionFileName    = "etf_analysis.csv"
	performanceFileName = "performance.csv"
	archivePrefix       = "etf_analysis_"
	historyDirName      = "history"
)

// utf8BOM makes the CSV open cleanly in spreadsheet applications.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var decisionHeader = []string{
	"代码", "名称", "信号", "操作建议", "评分", "最新价",
	"连跌天数", "累计跌幅(%)", "5日涨跌(%)", "20日涨跌(%)", "250日涨跌(%)",
	"MA5乖离(%)", "量比", "成交额", "日期",
}

var performanceHeader = []string{
	"标记日期", "代码", "名称", "当时信号", "标记价", "最新价", "收益(%)",
}

// ReportRepository persists decision tables, their dated archive copies and
// the performance table, and reads archives back for performance tracking.
type ReportRepository interface {
	WriteDecisionTable(records []model.AnalysisRecord) (current string, archive string, err error)
	WritePerformanceTable(records []model.PerformanceRecord) (string, error)
	ListArchives(limit int) ([]string, error)
	ReadArchive(path string) ([]model.AnalysisRecord, error)
}

type reportRepository struct {
	outputDir string
	log       *logger.Logger
	now       func() time.Time
}

func NewReportRepository(outputDir string, log *logger.Logger) ReportRepository {
	return &reportRepository{outputDir: outputDir, log: log, now: time.Now}
}

// WriteDecisionTable writes the current decision table and a timestamped
// archive copy under a year/month-partitioned history directory. Archive
// names carry date and time so runs never overwrite each other.
func (r *reportRepository) WriteDecisionTable(records []model.AnalysisRecord) (string, string, error) {
	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, decisionHeader)
	for _, rec := range records {
		rows = append(rows, decisionRow(rec))
	}

	current := filepath.Join(r.outputDir, decisionFileName)
	if err := writeCSV(current, rows); err != nil {
		return "", "", err
	}

	now := r.now()
	archiveDir := filepath.Join(r.outputDir, historyDirName, now.Format("2006"), now.Format("01"))
	archive := filepath.Join(archiveDir, archivePrefix+now.Format("20060102_150405")+".csv")
	if err := writeCSV(archive, rows); err != nil {
		return current, "", err
	}
	return current, archive, nil
}

// WritePerformanceTable always produces a file, header included, even with
// zero rows: downstream automation depends on the artifact existing.
func (r *reportRepository) WritePerformanceTable(records []model.PerformanceRecord) (string, error) {
	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, performanceHeader)
	for _, rec := range records {
		rows = append(rows, []string{
			rec.FlagDate.Format("2006-01-02"),
			rec.Code,
			rec.Name,
			rec.Signal,
			formatPrice(rec.PriceAtFlag),
			formatPrice(rec.CurrentPrice),
			formatFloat(rec.RealizedReturnPct),
		})
	}

	path := filepath.Join(r.outputDir, performanceFileName)
	if err := writeCSV(path, rows); err != nil {
		return "", err
	}
	return path, nil
}

// ListArchives returns up to limit archive paths, newest first. The archive
// filename carries the run timestamp, so a lexical sort on the base name is
// a chronological sort.
func (r *reportRepository) ListArchives(limit int) ([]string, error) {
	root := filepath.Join(r.outputDir, historyDirName)
	var archives []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasPrefix(d.Name(), archivePrefix) && strings.HasSuffix(d.Name(), ".csv") {
			archives = append(archives, path)
		}
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	sort.Slice(archives, func(i, j int) bool {
		return filepath.Base(archives[i]) > filepath.Base(archives[j])
	})
	if limit > 0 && len(archives) > limit {
		archives = archives[:limit]
	}
	return archives, nil
}

// ReadArchive parses an archived decision table back into records. Only the
// fields the performance tracker joins on are recovered.
func (r *reportRepository) ReadArchive(path string) ([]model.AnalysisRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) < 1 {
		return nil, fmt.Errorf("archive %s is empty", filepath.Base(path))
	}

	idx := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		idx[strings.TrimPrefix(strings.TrimSpace(name), "\uFEFF")] = i
	}
	for _, required := range []string{"代码", "信号", "最新价", "日期"} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("archive %s missing column %q", filepath.Base(path), required)
		}
	}

	records := make([]model.AnalysisRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		price, err := strconv.ParseFloat(field(row, idx["最新价"]), 64)
		if err != nil {
			continue
		}
		date, ok := parseDate(field(row, idx["日期"]))
		if !ok {
			continue
		}
		rec := model.AnalysisRecord{
			Code:      field(row, idx["代码"]),
			Signal:    field(row, idx["信号"]),
			LastPrice: price,
			Date:      date,
		}
		if nameIdx, ok := idx["名称"]; ok {
			rec.Name = field(row, nameIdx)
		}
		records = append(records, rec)
	}
	return records, nil
}

func decisionRow(rec model.AnalysisRecord) []string {
	return []string{
		rec.Code,
		rec.Name,
		rec.Signal,
		rec.Advice,
		strconv.Itoa(rec.Score),
		formatPrice(rec.LastPrice),
		strconv.Itoa(rec.DeclineCount),
		formatFloat(rec.CumulativeDeclinePct),
		formatOptional(rec.Return5),
		formatOptional(rec.Return20),
		formatOptional(rec.Return250),
		formatFloat(rec.BiasPct),
		formatFloat(rec.VolumeRatio),
		formatFloat(rec.Turnover),
		rec.Date.Format("2006-01-02"),
	}
}

func writeCSV(path string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(utf8BOM); err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// formatPrice keeps three decimals; fund NAV-style prices need the extra digit.
func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
