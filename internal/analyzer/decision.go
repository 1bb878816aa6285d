package analyzer

import (
	"math"

	"etf-screener/internal/model"
)

// Score weights for each independently satisfied condition. The total tops
// out at 100. NaN or absent features satisfy nothing, so incomplete
// indicator windows can only lower a score, never raise it.
const (
	pointsDeclineRun  = 20 // 3 to 5 consecutive losing days
	pointsRSIOversold = 20 // RSI(14) below 30
	pointsJNegative   = 20 // stochastic J below 0
	pointsYearDown    = 15 // 250-bar return below -10%
	pointsBiasDown    = 15 // MA5 deviation below -2.5%
	pointsVolumeDry   = 10 // volume ratio between 0.4 and 0.8
)

const (
	thresholdStrong   = 85
	thresholdModerate = 65
	thresholdWatch    = 40
)

type features struct {
	declineCount int
	rsi          float64
	j            float64
	bias         float64
	volumeRatio  float64
	return250    *float64
}

// scoreFeatures awards points per satisfied condition. It is a pure function
// of its inputs and monotonic: satisfying one more condition never lowers
// the total.
func scoreFeatures(f features) int {
	score := 0
	if f.declineCount >= 3 && f.declineCount <= 5 {
		score += pointsDeclineRun
	}
	if f.rsi < 30 { // false for NaN
		score += pointsRSIOversold
	}
	if f.j < 0 {
		score += pointsJNegative
	}
	if f.return250 != nil && *f.return250 < -10 {
		score += pointsYearDown
	}
	if f.bias < -2.5 {
		score += pointsBiasDown
	}
	if f.volumeRatio > 0.4 && f.volumeRatio < 0.8 {
		score += pointsVolumeDry
	}
	return score
}

// decide maps a score to its signal tier. Below the watch tier a panic-sell
// pattern (heavy volume under the 5-day average) overrides to an avoid
// signal before falling through to wait.
func decide(score int, volumeRatio, lastPrice, ma5 float64) (signal, advice string) {
	switch {
	case score >= thresholdStrong:
		return model.SignalStrong, model.AdviceStrong
	case score >= thresholdModerate:
		return model.SignalModerate, model.AdviceModerate
	case score >= thresholdWatch:
		return model.SignalWatch, model.AdviceWatch
	case volumeRatio > 2.0 && !math.IsNaN(ma5) && lastPrice < ma5:
		return model.SignalAvoid, model.AdviceAvoid
	default:
		return model.SignalWait, model.AdviceWait
	}
}
