package indicator

import "math"

// KDJSeries computes the stochastic K, D and J lines over chronological
// (oldest-first) closes, using a rolling `period` min/max of the close and
// exponential smoothing with alpha = 1/3 for K and D (the classic 9,3,3
// parameterization). J = 3K - 2D and may leave the [0,100] range; that is
// expected. A flat window (max == min) yields a raw stochastic of 0 so the
// computation never divides by zero. Indexes before the first complete
// window are NaN.
func KDJSeries(closes []float64, period int) (k, d, j []float64) {
	n := len(closes)
	k = nanSlice(n)
	d = nanSlice(n)
	j = nanSlice(n)
	if period <= 0 || n < period {
		return k, d, j
	}

	const alpha = 1.0 / 3.0

	var prevK, prevD float64
	seeded := false
	for i := period - 1; i < n; i++ {
		low, high := closes[i], closes[i]
		for w := i - period + 1; w <= i; w++ {
			if closes[w] < low {
				low = closes[w]
			}
			if closes[w] > high {
				high = closes[w]
			}
		}

		rsv := 0.0
		if high != low {
			rsv = (closes[i] - low) / (high - low) * 100
		}

		if !seeded {
			prevK = rsv
			prevD = rsv
			seeded = true
		} else {
			prevK = prevK + alpha*(rsv-prevK)
			prevD = prevD + alpha*(prevK-prevD)
		}

		k[i] = prevK
		d[i] = prevD
		j[i] = 3*prevK - 2*prevD
	}
	return k, d, j
}

func nanSlice(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = math.NaN()
	}
	return s
}
