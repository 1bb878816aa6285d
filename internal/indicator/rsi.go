package indicator

import "math"

// RSISeries computes the rolling-mean RSI over chronological (oldest-first)
// closes. The value at index i covers the trailing `period` day-over-day
// changes; indexes with an incomplete window are NaN. A window without any
// loss is reported as 100 (maximal strength) rather than left undefined.
func RSISeries(closes []float64, period int) []float64 {
	rsi := make([]float64, len(closes))
	for i := range rsi {
		rsi[i] = math.NaN()
	}
	if period <= 0 || len(closes) <= period {
		return rsi
	}

	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains[i] = change
		} else {
			losses[i] = -change
		}
	}

	var gainSum, lossSum float64
	for i := 1; i < len(closes); i++ {
		gainSum += gains[i]
		lossSum += losses[i]
		if i > period {
			gainSum -= gains[i-period]
			lossSum -= losses[i-period]
		}
		if i < period {
			continue
		}
		if lossSum == 0 {
			rsi[i] = 100
			continue
		}
		rs := gainSum / lossSum
		rsi[i] = 100 - 100/(1+rs)
	}
	return rsi
}
