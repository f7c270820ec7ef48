package furigana

import "fmt"

// Options holds the tunable thresholds of the classifier. The defaults are
// empirical; validate them against representative scans before changing.
type Options struct {
	HeightRatio         float64 // Furigana are smaller than this fraction of the body size
	TieMargin           float64 // Sizes within this margin below HeightRatio stay body
	OverlapRatio        float64 // Minimum share of a furigana span covered by its anchor
	Proximity           float64 // Maximum gap to the anchor, in anchor sizes
	BenchmarkPercentile float64 // Percentile of word sizes taken as a line's body size
	VerticalAspect      float64 // A line taller than this many widths is vertical text
}

// DefaultOptions returns the thresholds used when none are configured
func DefaultOptions() Options {
	return Options{
		HeightRatio:         0.5,
		TieMargin:           0.05,
		OverlapRatio:        0.5,
		Proximity:           0.5,
		BenchmarkPercentile: 90,
		VerticalAspect:      1.5,
	}
}

// Validate checks that every threshold is in range
func (o Options) Validate() error {
	if o.HeightRatio <= 0 || o.HeightRatio > 1 {
		return fmt.Errorf("height ratio must be in (0, 1], got %v", o.HeightRatio)
	}
	if o.TieMargin < 0 || o.TieMargin >= o.HeightRatio {
		return fmt.Errorf("tie margin must be in [0, height ratio), got %v", o.TieMargin)
	}
	if o.OverlapRatio <= 0 || o.OverlapRatio > 1 {
		return fmt.Errorf("overlap ratio must be in (0, 1], got %v", o.OverlapRatio)
	}
	if o.Proximity < 0 {
		return fmt.Errorf("proximity must not be negative, got %v", o.Proximity)
	}
	if o.BenchmarkPercentile <= 0 || o.BenchmarkPercentile > 100 {
		return fmt.Errorf("benchmark percentile must be in (0, 100], got %v", o.BenchmarkPercentile)
	}
	if o.VerticalAspect < 1 {
		return fmt.Errorf("vertical aspect must be at least 1, got %v", o.VerticalAspect)
	}
	return nil
}
