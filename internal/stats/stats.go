// Package stats holds the small descriptive statistics shared by the
// calibration, categorization, and inspection stages.
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Mean returns the arithmetic mean, or NaN for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	return stat.Mean(xs, nil)
}

// BoolMean returns the fraction of true values among the non-missing
// entries and the number of non-missing entries. The mean is NaN when every
// entry is missing.
func BoolMean(bs []*bool) (float64, int) {
	xs := make([]float64, 0, len(bs))
	for _, b := range bs {
		if b == nil {
			continue
		}
		if *b {
			xs = append(xs, 1)
		} else {
			xs = append(xs, 0)
		}
	}
	return Mean(xs), len(xs)
}

// Median returns the sample median, averaging the two middle values for an
// even count. It returns NaN for an empty slice and does not modify xs.
func Median(xs []float64) float64 {
	n := len(xs)
	if n == 0 {
		return math.NaN()
	}
	sorted := make([]float64, n)
	copy(sorted, xs)
	sort.Float64s(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// Description summarises a column the way a describe() table does.
type Description struct {
	Count   int     `json:"count" yaml:"count"`
	Missing int     `json:"missing" yaml:"missing"`
	Mean    float64 `json:"mean" yaml:"mean"`
	Std     float64 `json:"std" yaml:"std"`
	Min     float64 `json:"min" yaml:"min"`
	Max     float64 `json:"max" yaml:"max"`
}

// Describe computes count, mean, sample standard deviation, min, and max over
// the finite values of xs. NaN entries are counted as missing.
func Describe(xs []float64) Description {
	finite := make([]float64, 0, len(xs))
	for _, x := range xs {
		if !math.IsNaN(x) && !math.IsInf(x, 0) {
			finite = append(finite, x)
		}
	}
	d := Description{
		Count:   len(finite),
		Missing: len(xs) - len(finite),
		Mean:    math.NaN(),
		Std:     math.NaN(),
		Min:     math.NaN(),
		Max:     math.NaN(),
	}
	if len(finite) == 0 {
		return d
	}
	d.Min = floats.Min(finite)
	d.Max = floats.Max(finite)
	if len(finite) == 1 {
		d.Mean = finite[0]
		return d
	}
	d.Mean, d.Std = stat.MeanStdDev(finite, nil)
	return d
}
