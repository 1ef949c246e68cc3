package calibration

import "math"

// Stats summarises a calibrated band
type Stats struct {
	Valid  int     // Pixels holding a calibrated value
	NoData int     // Pixels set to the nodata sentinel
	Min    float64 // NaN when there are no valid pixels
	Max    float64 // NaN when there are no valid pixels
	Mean   float64 // NaN when there are no valid pixels
}

// Summarize computes pixel counts and value range of a calibrated band
func Summarize(data []float64, nodata float64) Stats {
	s := Stats{Min: math.Inf(1), Max: math.Inf(-1)}

	var sum float64
	for _, v := range data {
		if v == nodata || math.IsNaN(v) {
			s.NoData++
			continue
		}
		s.Valid++
		sum += v
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}

	if s.Valid == 0 {
		s.Min, s.Max, s.Mean = math.NaN(), math.NaN(), math.NaN()
		return s
	}
	s.Mean = sum / float64(s.Valid)
	return s
}

// ValidFraction returns the share of valid pixels in [0, 1]
func (s Stats) ValidFraction() float64 {
	total := s.Valid + s.NoData
	if total == 0 {
		return 0
	}
	return float64(s.Valid) / float64(total)
}
