package indicator

import "math"

// SMASeries computes the simple moving average over chronological values.
// Indexes with an incomplete window are NaN.
func SMASeries(values []float64, period int) []float64 {
	sma := nanSlice(len(values))
	if period <= 0 || len(values) < period {
		return sma
	}
	var sum float64
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			sma[i] = sum / float64(period)
		}
	}
	return sma
}

// BiasPct is the percent deviation of price from its moving average.
func BiasPct(price, ma float64) float64 {
	if ma == 0 || math.IsNaN(ma) {
		return math.NaN()
	}
	return (price - ma) / ma * 100
}

// VolumeRatio compares the most recent volume of a chronological series to
// the mean of the `window` volumes preceding it (the current bar excluded).
// A zero or incomplete trailing window yields 0, never a division error.
func VolumeRatio(volumes []float64, window int) float64 {
	n := len(volumes)
	if window <= 0 || n < window+1 {
		return 0
	}
	var sum float64
	for i := n - window - 1; i < n-1; i++ {
		sum += volumes[i]
	}
	avg := sum / float64(window)
	if avg == 0 {
		return 0
	}
	return volumes[n-1] / avg
}
