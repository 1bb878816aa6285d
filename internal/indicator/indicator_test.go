package indicator

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"etf-screener/internal/model"
)

func TestRSISeries_LeadingWindowIsNaN(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 10 + float64(i%3)
	}
	rsi := RSISeries(closes, 14)
	require.Len(t, rsi, 20)
	for i := 0; i < 14; i++ {
		assert.True(t, math.IsNaN(rsi[i]), "index %d should be NaN", i)
	}
	for i := 14; i < 20; i++ {
		assert.False(t, math.IsNaN(rsi[i]), "index %d should be defined", i)
	}
}

func TestRSISeries_Bounded(t *testing.T) {
	closes := []float64{10, 11, 9, 12, 8, 13, 7, 14, 6, 15, 5, 16, 4, 17, 3, 18, 2, 19, 1, 20}
	rsi := RSISeries(closes, 14)
	for i, v := range rsi {
		if math.IsNaN(v) {
			continue
		}
		assert.GreaterOrEqual(t, v, 0.0, "index %d", i)
		assert.LessOrEqual(t, v, 100.0, "index %d", i)
	}
}

func TestRSISeries_PureGainsClampTo100(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 10 + float64(i)
	}
	rsi := RSISeries(closes, 14)
	assert.Equal(t, 100.0, rsi[len(rsi)-1])
}

func TestRSISeries_PureLossesNearZero(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 - float64(i)
	}
	rsi := RSISeries(closes, 14)
	assert.InDelta(t, 0.0, rsi[len(rsi)-1], 1e-9)
}

func TestRSISeries_TooShort(t *testing.T) {
	rsi := RSISeries([]float64{1, 2, 3}, 14)
	for _, v := range rsi {
		assert.True(t, math.IsNaN(v))
	}
}

func TestKDJSeries_FlatMarketNoDivisionError(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 3.5
	}
	k, d, j := KDJSeries(closes, 9)
	last := len(closes) - 1
	assert.Equal(t, 0.0, k[last])
	assert.Equal(t, 0.0, d[last])
	assert.Equal(t, 0.0, j[last])
}

func TestKDJSeries_RisingMarketSaturates(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 1 + float64(i)*0.1
	}
	k, d, j := KDJSeries(closes, 9)
	last := len(closes) - 1
	// Close sits at the rolling max every day, so K and D saturate at 100.
	assert.InDelta(t, 100.0, k[last], 1e-9)
	assert.InDelta(t, 100.0, d[last], 1e-9)
	assert.InDelta(t, 100.0, j[last], 1e-9)
}

func TestKDJSeries_LeadingWindowIsNaN(t *testing.T) {
	closes := []float64{5, 6, 7, 8, 9, 10, 11, 12, 13, 14}
	k, _, _ := KDJSeries(closes, 9)
	for i := 0; i < 8; i++ {
		assert.True(t, math.IsNaN(k[i]), "index %d", i)
	}
	assert.False(t, math.IsNaN(k[8]))
}

func TestKDJSeries_JCanLeaveBounds(t *testing.T) {
	// A sharp drop after a long rise pushes J below zero.
	closes := []float64{10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 10, 9, 8}
	_, _, j := KDJSeries(closes, 9)
	assert.Less(t, j[len(j)-1], 0.0)
}

func TestSMASeries(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6}
	sma := SMASeries(values, 5)
	assert.True(t, math.IsNaN(sma[3]))
	assert.InDelta(t, 3.0, sma[4], 1e-9)
	assert.InDelta(t, 4.0, sma[5], 1e-9)
}

func TestBiasPct(t *testing.T) {
	assert.InDelta(t, -10.0, BiasPct(9, 10), 1e-9)
	assert.True(t, math.IsNaN(BiasPct(9, 0)))
	assert.True(t, math.IsNaN(BiasPct(9, math.NaN())))
}

func TestVolumeRatio(t *testing.T) {
	// Prior five volumes average 100, today is 50.
	volumes := []float64{100, 100, 100, 100, 100, 50}
	assert.InDelta(t, 0.5, VolumeRatio(volumes, 5), 1e-9)
}

func TestVolumeRatio_ZeroAverage(t *testing.T) {
	volumes := []float64{0, 0, 0, 0, 0, 50}
	assert.Equal(t, 0.0, VolumeRatio(volumes, 5))
}

func TestVolumeRatio_IncompleteWindow(t *testing.T) {
	volumes := []float64{100, 50}
	assert.Equal(t, 0.0, VolumeRatio(volumes, 5))
}

func TestSnapshot_DoesNotMutateCallerOrder(t *testing.T) {
	series := makeSeries(40)
	before := make(model.PriceSeries, len(series))
	copy(before, series)

	snap := Snapshot(series)

	assert.Equal(t, before, series)
	assert.False(t, math.IsNaN(snap.RSI))
	assert.False(t, math.IsNaN(snap.J))

	// MA5 is the mean of the five newest closes.
	var sum float64
	for i := 0; i < 5; i++ {
		sum += series[i].Close
	}
	assert.InDelta(t, sum/5, snap.MA5, 1e-9)
}

func TestSnapshot_EmptySeries(t *testing.T) {
	snap := Snapshot(nil)
	assert.True(t, math.IsNaN(snap.RSI))
	assert.True(t, math.IsNaN(snap.MA5))
	assert.Equal(t, 0.0, snap.VolumeRatio)
}

// makeSeries builds a newest-first series of n bars with mildly varying
// closes and constant volume.
func makeSeries(n int) model.PriceSeries {
	series := make(model.PriceSeries, n)
	day := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		// i counts back in time from the newest bar.
		series[i] = model.PriceBar{
			Date:   day.AddDate(0, 0, -i),
			Close:  10 + math.Sin(float64(n-i)/3),
			Volume: 1000,
		}
	}
	return series
}
