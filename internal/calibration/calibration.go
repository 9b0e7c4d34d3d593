// Package calibration quantifies the gap between stated confidence and actual
// correctness: confidence normalization, binning, per-bin statistics, and the
// Expected Calibration Error (ECE) for a dataset or per participant.
//
// Rows with a missing confidence or correctness value are dropped once, before
// normalization. The engine never mutates its input.
package calibration

import (
	"fmt"
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/reliance-cli/internal/model"
)

// Options selects normalization and binning.
type Options struct {
	Normalization Normalization
	Binning       Binning
	NBins         int
	// ScaleMin and ScaleMax bound the fixed scale used by NormalizeLinear01.
	ScaleMin float64
	ScaleMax float64
}

// DefaultOptions returns divide_by_max normalization with discrete bins on a
// 1..5 scale.
func DefaultOptions() Options {
	return Options{
		Normalization: NormalizeDivideByMax,
		Binning:       BinDiscrete,
		NBins:         5,
		ScaleMin:      1,
		ScaleMax:      5,
	}
}

// ParticipantOptions returns the fixed linear (c-1)/4 rescale with discrete
// bins used for per-participant ECE.
func ParticipantOptions() Options {
	o := DefaultOptions()
	o.Normalization = NormalizeLinear01
	return o
}

// Validate checks that the options are usable.
func (o Options) Validate() error {
	if _, err := ParseNormalization(string(o.Normalization)); err != nil {
		return err
	}
	if _, err := ParseBinning(string(o.Binning)); err != nil {
		return err
	}
	if o.Binning == BinEqualWidth && o.NBins < 1 {
		return eris.Errorf("calibration: equal-width binning needs n_bins >= 1, got %d", o.NBins)
	}
	if o.Normalization == NormalizeLinear01 && o.ScaleMax <= o.ScaleMin {
		return eris.Errorf("calibration: linear scale [%g, %g] is empty", o.ScaleMin, o.ScaleMax)
	}
	return nil
}

// Stage picks which confidence/correctness pair to calibrate.
type Stage string

// Decision stages.
const (
	StageInitial Stage = "initial"
	StageFinal   Stage = "final"
)

// ParseStage validates a stage name.
func ParseStage(s string) (Stage, error) {
	switch st := Stage(s); st {
	case StageInitial, StageFinal:
		return st, nil
	}
	return "", eris.Errorf("calibration: unknown stage %q", s)
}

// Point is one (confidence, correctness) observation. Nil means missing.
type Point struct {
	Participant string
	Confidence  *float64
	Correct     *bool
}

// PointsFor extracts the stage's confidence and correctness columns from an
// enriched trial table.
func PointsFor(trials []model.Trial, stage Stage) []Point {
	out := make([]Point, len(trials))
	for i, t := range trials {
		conf, correct := t.InitialConfidence, t.InitialCorrect
		if stage == StageFinal {
			conf, correct = t.FinalConfidence, t.FinalCorrect
		}
		p := Point{Participant: t.ParticipantCode}
		if conf != nil {
			c := float64(*conf)
			p.Confidence = &c
		}
		if correct != nil {
			c := *correct
			p.Correct = &c
		}
		out[i] = p
	}
	return out
}

// Result is a dataset-level calibration analysis.
type Result struct {
	Bins          []Bin         `json:"bin_statistics" yaml:"bin_statistics"`
	ECE           float64       `json:"ece" yaml:"ece"`
	Normalization Normalization `json:"normalization" yaml:"normalization"`
	Binning       Binning       `json:"binning" yaml:"binning"`
	N             int           `json:"n" yaml:"n"`
	Dropped       int           `json:"dropped" yaml:"dropped"`
	// Degenerate is set when normalization divided by zero. ECE and every
	// mean_confidence are then NaN by definition, not by computation.
	Degenerate bool `json:"degenerate" yaml:"degenerate"`
}

// String renders the ECE with the policy that produced it.
func (r *Result) String() string {
	s := fmt.Sprintf("ECE=%.4f (%s, %s bins, n=%d)", r.ECE, r.Normalization, r.Binning, r.N)
	if r.Degenerate {
		s += " [degenerate normalization]"
	}
	return s
}

// Analyze runs the full reliability analysis: drop missing, normalize, bin,
// compute bin statistics and ECE.
func Analyze(points []Point, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	samples, dropped, degenerate := prepare(points, opts)
	bins := binStatistics(samples, opts)

	res := &Result{
		Bins:          bins,
		ECE:           ECE(bins, len(samples)),
		Normalization: opts.Normalization,
		Binning:       opts.Binning,
		N:             len(samples),
		Dropped:       dropped,
		Degenerate:    degenerate,
	}

	if dropped > 0 {
		zap.L().Debug("calibration: dropped rows with missing values", zap.Int("dropped", dropped))
	}
	if degenerate {
		zap.L().Warn("calibration: degenerate normalization, ECE is NaN",
			zap.String("normalization", string(opts.Normalization)),
			zap.Int("n", res.N),
		)
	}
	return res, nil
}

// prepare drops missing rows and normalizes the remaining confidence values
// across the whole set passed in.
func prepare(points []Point, opts Options) (samples []sample, dropped int, degenerate bool) {
	raw := make([]float64, 0, len(points))
	kept := make([]Point, 0, len(points))
	for _, p := range points {
		if p.Confidence == nil || p.Correct == nil || math.IsNaN(*p.Confidence) {
			continue
		}
		raw = append(raw, *p.Confidence)
		kept = append(kept, p)
	}
	norm, degenerate := normalize(raw, opts)

	samples = make([]sample, len(kept))
	for i, p := range kept {
		samples[i] = sample{raw: raw[i], norm: norm[i], correct: *p.Correct}
	}
	return samples, len(points) - len(kept), degenerate
}
