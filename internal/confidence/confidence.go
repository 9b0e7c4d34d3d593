// Package confidence derives confidence change and decision correctness for
// each trial. It has no regime branching.
package confidence

import (
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/reliance-cli/internal/model"
)

// Deriver computes delta_confidence, initial_correct, and final_correct.
type Deriver struct {
	lo, hi int
}

// NewDeriver creates a Deriver that enforces the [lo, hi] confidence scale.
func NewDeriver(lo, hi int) (*Deriver, error) {
	if hi <= lo {
		return nil, eris.Errorf("confidence: scale [%d, %d] is empty", lo, hi)
	}
	return &Deriver{lo: lo, hi: hi}, nil
}

// Derive returns a copy of trials with the confidence fields written.
func (d *Deriver) Derive(trials []model.Trial) ([]model.Trial, error) {
	out := make([]model.Trial, len(trials))
	missing := 0
	for i := range trials {
		t := trials[i].Clone()
		if err := d.checkScale(i, "initial_confidence", t.InitialConfidence); err != nil {
			return nil, err
		}
		if err := d.checkScale(i, "final_confidence", t.FinalConfidence); err != nil {
			return nil, err
		}

		t.DeltaConfidence = Delta(t.InitialConfidence, t.FinalConfidence)
		t.InitialCorrect = Correct(t.InitialDecision, t.YTrue)
		t.FinalCorrect = Correct(t.FinalDecision, t.YTrue)
		if t.DeltaConfidence == nil {
			missing++
		}
		out[i] = t
	}

	zap.L().Debug("confidence: metrics derived",
		zap.Int("trials", len(trials)),
		zap.Int("missing_confidence", missing),
	)
	return out, nil
}

func (d *Deriver) checkScale(row int, col string, v *int) error {
	if v == nil || (*v >= d.lo && *v <= d.hi) {
		return nil
	}
	return &model.DomainError{
		Row:    row,
		Column: col,
		Value:  strconv.Itoa(*v),
		Reason: "outside confidence scale [" + strconv.Itoa(d.lo) + ", " + strconv.Itoa(d.hi) + "]",
	}
}

// Delta returns final - initial, or nil when either is missing.
func Delta(initial, final *int) *int {
	if initial == nil || final == nil {
		return nil
	}
	return model.Int(*final - *initial)
}

// Correct reports whether a decision matches ground truth.
func Correct(decision, truth model.Label) *bool {
	if decision.Missing() || truth.Missing() {
		return nil
	}
	return model.Bool(decision == truth)
}
