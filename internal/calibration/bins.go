package calibration

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/sells-group/reliance-cli/internal/stats"
)

// Binning names a binning strategy.
type Binning string

// Supported binning strategies.
const (
	// BinDiscrete makes each distinct raw confidence value its own bin.
	BinDiscrete Binning = "discrete"
	// BinEqualWidth splits the observed normalized range into NBins
	// equal-width, right-closed intervals; the lowest edge is included.
	BinEqualWidth Binning = "equal_width"
)

// ParseBinning validates a binning name.
func ParseBinning(s string) (Binning, error) {
	switch b := Binning(s); b {
	case BinDiscrete, BinEqualWidth:
		return b, nil
	}
	return "", eris.Errorf("calibration: unknown binning %q", s)
}

// Bin holds the statistics of one non-empty confidence bin.
type Bin struct {
	// Key is the raw confidence value (discrete) or the bin index (equal width).
	Key            float64 `json:"bin" yaml:"bin"`
	Lower          float64 `json:"lower" yaml:"lower"`
	Upper          float64 `json:"upper" yaml:"upper"`
	MeanConfidence float64 `json:"mean_confidence" yaml:"mean_confidence"`
	Accuracy       float64 `json:"accuracy" yaml:"accuracy"`
	Count          int     `json:"count" yaml:"count"`
}

// sample is one non-missing (confidence, correctness) pair.
type sample struct {
	raw     float64
	norm    float64
	correct bool
}

type binAcc struct {
	lower, upper float64
	conf, acc    []float64
}

// binStatistics groups samples into bins and returns them sorted by key.
// Empty bins are omitted.
func binStatistics(samples []sample, opts Options) []Bin {
	groups := make(map[float64]*binAcc)
	add := func(key, lower, upper float64, s sample) {
		g, ok := groups[key]
		if !ok {
			g = &binAcc{lower: lower, upper: upper}
			groups[key] = g
		}
		g.conf = append(g.conf, s.norm)
		if s.correct {
			g.acc = append(g.acc, 1)
		} else {
			g.acc = append(g.acc, 0)
		}
	}

	switch opts.Binning {
	case BinEqualWidth:
		lo, hi, ok := finiteRange(samples)
		edges := binEdges(lo, hi, opts.NBins)
		for _, s := range samples {
			if !ok || math.IsNaN(s.norm) {
				add(0, math.NaN(), math.NaN(), s)
				continue
			}
			idx := edgeIndex(edges, s.norm)
			add(float64(idx), edges[idx], edges[idx+1], s)
		}
	default:
		for _, s := range samples {
			add(s.raw, s.raw, s.raw, s)
		}
	}

	keys := make([]float64, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Float64s(keys)

	bins := make([]Bin, 0, len(keys))
	for _, k := range keys {
		g := groups[k]
		bins = append(bins, Bin{
			Key:            k,
			Lower:          g.lower,
			Upper:          g.upper,
			MeanConfidence: stats.Mean(g.conf),
			Accuracy:       stats.Mean(g.acc),
			Count:          len(g.acc),
		})
	}
	return bins
}

// binEdges returns n+1 edges spaced evenly over [lo, hi]. The last edge is
// hi exactly so the maximum always falls in the top bin.
func binEdges(lo, hi float64, n int) []float64 {
	edges := make([]float64, n+1)
	step := (hi - lo) / float64(n)
	for k := range edges {
		edges[k] = lo + float64(k)*step
	}
	edges[n] = hi
	return edges
}

// edgeIndex returns the first right-closed bin (edges[k], edges[k+1]] that
// holds v. Values at or below the lowest edge go in bin 0. Comparing against
// the stored edges keeps a value sitting on an edge in the lower bin.
func edgeIndex(edges []float64, v float64) int {
	last := len(edges) - 2
	for k := 0; k < last; k++ {
		if v <= edges[k+1] {
			return k
		}
	}
	return last
}

func finiteRange(samples []sample) (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, s := range samples {
		if math.IsNaN(s.norm) {
			continue
		}
		ok = true
		lo = math.Min(lo, s.norm)
		hi = math.Max(hi, s.norm)
	}
	return lo, hi, ok
}

// ECE is the count-weighted mean absolute gap between accuracy and mean
// confidence: sum(count/total * |accuracy - mean_confidence|). total is the
// number of samples the bins were built from.
func ECE(bins []Bin, total int) float64 {
	if total == 0 {
		return math.NaN()
	}
	var ece float64
	for _, b := range bins {
		ece += float64(b.Count) / float64(total) * math.Abs(b.Accuracy-b.MeanConfidence)
	}
	return ece
}
