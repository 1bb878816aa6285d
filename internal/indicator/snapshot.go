package indicator

import (
	"math"

	"etf-screener/internal/model"
)

const (
	rsiPeriod    = 14
	kdjPeriod    = 9
	maPeriod     = 5
	volumeWindow = 5
)

// Snapshot computes the indicator values of the most recent bar of a
// newest-first price series. The caller's ordering is never mutated; the
// series is reversed internally for the rolling math. Values whose trailing
// window is incomplete come back as NaN and must be treated as "no signal".
func Snapshot(series model.PriceSeries) model.IndicatorSnapshot {
	chron := series.Chronological()
	closes := chron.Closes()
	volumes := chron.Volumes()

	snap := model.IndicatorSnapshot{
		RSI:     math.NaN(),
		K:       math.NaN(),
		D:       math.NaN(),
		J:       math.NaN(),
		MA5:     math.NaN(),
		BiasPct: math.NaN(),
	}
	if len(closes) == 0 {
		return snap
	}
	last := len(closes) - 1

	rsi := RSISeries(closes, rsiPeriod)
	k, d, j := KDJSeries(closes, kdjPeriod)
	ma5 := SMASeries(closes, maPeriod)

	snap.RSI = rsi[last]
	snap.K = k[last]
	snap.D = d[last]
	snap.J = j[last]
	snap.MA5 = ma5[last]
	snap.BiasPct = BiasPct(closes[last], ma5[last])
	snap.VolumeRatio = VolumeRatio(volumes, volumeWindow)
	return snap
}
