package model

import "time"

// PriceBar is one daily bar of an instrument's price history.
type PriceBar struct {
	Date         time.Time
	Close        float64
	Volume       float64
	Turnover     float64
	PctChange    float64
	Amplitude    float64
	TurnoverRate float64
}

// PriceSeries is the price history of one instrument, ordered newest-first.
type PriceSeries []PriceBar

// Chronological returns a copy of the series ordered oldest-first.
func (s PriceSeries) Chronological() PriceSeries {
	out := make(PriceSeries, len(s))
	for i, bar := range s {
		out[len(s)-1-i] = bar
	}
	return out
}

// Closes extracts the close prices in series order.
func (s PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s))
	for i, bar := range s {
		closes[i] = bar.Close
	}
	return closes
}

// Volumes extracts the traded volumes in series order.
func (s PriceSeries) Volumes() []float64 {
	volumes := make([]float64, len(s))
	for i, bar := range s {
		volumes[i] = bar.Volume
	}
	return volumes
}
