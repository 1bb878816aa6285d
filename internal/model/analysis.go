package model

import (
	"strings"
	"time"
)

// Signal labels for the decision table. The star markers double as the
// "flagged" pattern the performance tracker matches on.
const (
	SignalStrong   = "★★★ 强烈关注"
	SignalModerate = "★★ 关注"
	SignalWatch    = "★ 观察"
	SignalAvoid    = "⚠️ 回避"
	SignalWait     = "观望"
)

const (
	AdviceStrong   = "超跌明显，反弹概率大，可分批建仓"
	AdviceModerate = "接近超卖，继续观察"
	AdviceWatch    = "信号不足，暂不操作"
	AdviceAvoid    = "放量下跌，恐慌盘出逃"
	AdviceWait     = "无明显信号"
)

// IndicatorSnapshot holds the indicator values of the most recent bar.
// Values may be NaN when the trailing window is incomplete.
type IndicatorSnapshot struct {
	RSI         float64
	K           float64
	D           float64
	J           float64
	MA5         float64
	BiasPct     float64
	VolumeRatio float64
}

// AnalysisRecord is one row of the decision table, built once per run per
// qualifying instrument and never updated in place.
type AnalysisRecord struct {
	Code                 string
	Name                 string
	Signal               string
	Advice               string
	Score                int
	LastPrice            float64
	DeclineCount         int
	CumulativeDeclinePct float64
	Return5              *float64
	Return20             *float64
	Return250            *float64
	BiasPct              float64
	VolumeRatio          float64
	Turnover             float64
	Date                 time.Time
}

// Flagged reports whether the record's signal marks it for follow-up.
func (r AnalysisRecord) Flagged() bool {
	return strings.Contains(r.Signal, "★") || strings.Contains(r.Signal, "连跌")
}

// PerformanceRecord joins a historical flagged record against the current
// price of the same instrument. Recomputed every run.
type PerformanceRecord struct {
	FlagDate          time.Time
	Code              string
	Name              string
	Signal            string
	PriceAtFlag       float64
	CurrentPrice      float64
	RealizedReturnPct float64
}
