package app

import (
	"math"

	"github.com/roman-kulish/landsat-toa/internal/calibration"
)

const (
	stretchBins = 1024

	// For 20 samples:
	// - 2% percentile  = 0 samples
	// - 98% percentile = 19th sample
	minimumSampleCount = 20

	lowerPercentile = 2
	upperPercentile = 98
)

// Bounds is the value range a preview is stretched over
type Bounds struct {
	Min float64
	Max float64
}

// Span returns the width of the range
func (b Bounds) Span() float64 {
	return b.Max - b.Min
}

// ValueHistogram counts valid samples of a band in fixed width bins between
// the band minimum and maximum
type ValueHistogram struct {
	bins       []uint64
	totalCount uint64
	min        float64
	binWidth   float64
}

// NewValueHistogram creates a histogram covering stats.Min to stats.Max
func NewValueHistogram(stats calibration.Stats) *ValueHistogram {
	h := &ValueHistogram{
		bins: make([]uint64, stretchBins),
		min:  stats.Min,
	}
	if stats.Valid > 0 && stats.Max > stats.Min {
		h.binWidth = (stats.Max - stats.Min) / stretchBins
	}
	return h
}

func (h *ValueHistogram) binIndex(v float64) int {
	if h.binWidth == 0 {
		return 0
	}
	i := int((v - h.min) / h.binWidth)
	if i >= len(h.bins) {
		i = len(h.bins) - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

// Update adds the valid samples of data
func (h *ValueHistogram) Update(data []float64, nodata float64) {
	for _, v := range data {
		if v == nodata || math.IsNaN(v) {
			continue
		}
		h.bins[h.binIndex(v)]++
		h.totalCount++
	}
}

// PercentileBounds returns the 2nd to 98th percentile range, which clips
// outliers such as sun glint and cold cloud tops. Small samples fall back to
// the full range.
func (h *ValueHistogram) PercentileBounds(full Bounds) Bounds {
	if h.totalCount < minimumSampleCount || h.binWidth == 0 {
		return full
	}

	lowTarget := h.totalCount * lowerPercentile / 100
	highTarget := h.totalCount * (100 - upperPercentile) / 100

	var count uint64
	low := 0
	for i, n := range h.bins {
		count += n
		if count > lowTarget {
			low = i
			break
		}
	}

	count = 0
	high := len(h.bins) - 1
	for i := len(h.bins) - 1; i >= 0; i-- {
		count += h.bins[i]
		if count > highTarget {
			high = i
			break
		}
	}

	b := Bounds{
		Min: h.min + float64(low)*h.binWidth,
		Max: h.min + float64(high+1)*h.binWidth,
	}
	if b.Max <= b.Min {
		return full
	}
	return b
}
