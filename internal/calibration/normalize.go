package calibration

import (
	"math"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/floats"
)

// Normalization names a confidence rescaling policy. ECE values computed
// under different policies are not comparable, so every result records the
// policy that produced it.
type Normalization string

// Supported normalization policies.
const (
	// NormalizeScale01 min-max scales within the current group: (c-min)/(max-min).
	NormalizeScale01 Normalization = "scale_0_1"
	// NormalizeDivideByMax divides by the group maximum: c/max.
	NormalizeDivideByMax Normalization = "divide_by_max"
	// NormalizeIdentity leaves confidence unchanged.
	NormalizeIdentity Normalization = "identity"
	// NormalizeLinear01 maps the fixed scale [ScaleMin, ScaleMax] onto [0, 1]:
	// (c-ScaleMin)/(ScaleMax-ScaleMin). For a 1..5 scale this is (c-1)/4.
	NormalizeLinear01 Normalization = "linear_0_1"
)

// ParseNormalization validates a normalization name.
func ParseNormalization(s string) (Normalization, error) {
	switch n := Normalization(s); n {
	case NormalizeScale01, NormalizeDivideByMax, NormalizeIdentity, NormalizeLinear01:
		return n, nil
	}
	return "", eris.Errorf("calibration: unknown normalization %q", s)
}

// normalize rescales values under the policy. degenerate is true when the
// policy divides by zero for this data (single-valued confidence for
// scale_0_1, zero maximum for divide_by_max); every output is then NaN.
func normalize(values []float64, opts Options) (out []float64, degenerate bool) {
	out = make([]float64, len(values))
	if len(values) == 0 {
		return out, false
	}

	var offset, scale float64
	switch opts.Normalization {
	case NormalizeIdentity:
		copy(out, values)
		return out, false
	case NormalizeScale01:
		lo, hi := floats.Min(values), floats.Max(values)
		offset, scale = lo, hi-lo
	case NormalizeDivideByMax:
		offset, scale = 0, floats.Max(values)
	case NormalizeLinear01:
		offset, scale = opts.ScaleMin, opts.ScaleMax-opts.ScaleMin
	}

	if scale == 0 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out, true
	}
	for i, v := range values {
		out[i] = (v - offset) / scale
	}
	return out, false
}
