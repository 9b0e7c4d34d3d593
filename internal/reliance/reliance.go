// Package reliance derives AI correctness, human-AI agreement, switching, and
// the over/under/appropriate reliance classification for each trial.
//
// Each trial's condition is resolved once to a decision regime, and every
// regime-specific field is computed through that regime's recommender. A
// point-prediction trial never reads set indicators and a set-prediction
// trial never reads point_pred_cal.
package reliance

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/reliance-cli/internal/model"
)

// Deriver computes the reliance metrics for a trial table.
type Deriver struct {
	exp   *model.Experiment
	point recommender
	set   recommender
}

// NewDeriver creates a Deriver for the given experiment vocabulary.
func NewDeriver(exp *model.Experiment) (*Deriver, error) {
	if exp == nil || exp.Labels == nil || exp.Conditions == nil {
		return nil, eris.New("reliance: experiment is required")
	}
	return &Deriver{
		exp:   exp,
		point: pointRecommender{},
		set:   setRecommender{labels: exp.Labels.Labels()},
	}, nil
}

// Summary counts trials per regime and reliance class.
type Summary struct {
	Trials        int
	PointTrials   int
	SetTrials     int
	Unresolved    int // missing condition
	Over          int
	Under         int
	Appropriate   int
	Unclassified  int // missing agreement or AI correctness
	SwitchedCount int
}

// Derive returns a copy of trials with the reliance fields written. The
// input slice is not modified. Any domain violation fails the whole batch.
func (d *Deriver) Derive(trials []model.Trial) ([]model.Trial, Summary, error) {
	out := make([]model.Trial, len(trials))
	sum := Summary{Trials: len(trials)}

	for i := range trials {
		t := trials[i].Clone()
		if err := d.validate(i, &t); err != nil {
			return nil, Summary{}, err
		}

		rec, err := d.resolve(i, &t)
		if err != nil {
			return nil, Summary{}, err
		}
		d.apply(&t, rec)
		out[i] = t

		switch {
		case rec == nil:
			sum.Unresolved++
		case rec.regime() == model.RegimePointPrediction:
			sum.PointTrials++
		default:
			sum.SetTrials++
		}
		switch {
		case t.OverReliance == nil:
			sum.Unclassified++
		case *t.OverReliance:
			sum.Over++
		case *t.UnderReliance:
			sum.Under++
		default:
			sum.Appropriate++
		}
		if t.Switched != nil && *t.Switched {
			sum.SwitchedCount++
		}
	}

	zap.L().Debug("reliance: metrics derived",
		zap.Int("trials", sum.Trials),
		zap.Int("point_trials", sum.PointTrials),
		zap.Int("set_trials", sum.SetTrials),
		zap.Int("unresolved", sum.Unresolved),
		zap.Int("over", sum.Over),
		zap.Int("under", sum.Under),
		zap.Int("appropriate", sum.Appropriate),
		zap.Int("unclassified", sum.Unclassified),
	)
	if sum.Unresolved > 0 {
		zap.L().Warn("reliance: trials with missing condition left underived",
			zap.Int("count", sum.Unresolved),
		)
	}

	return out, sum, nil
}

// Regime resolves the decision regime of a single trial.
func (d *Deriver) Regime(t model.Trial) (model.Regime, error) {
	rec, err := d.resolve(0, &t)
	if err != nil || rec == nil {
		return model.RegimeUnknown, err
	}
	return rec.regime(), nil
}

func (d *Deriver) resolve(row int, t *model.Trial) (recommender, error) {
	if t.Condition == "" {
		return nil, nil
	}
	r, ok := d.exp.Conditions.Resolve(t.Condition)
	if !ok {
		return nil, &model.DomainError{
			Row:    row,
			Column: "condition",
			Value:  string(t.Condition),
			Reason: "not in any regime group",
		}
	}
	if r == model.RegimeSetPrediction {
		return d.set, nil
	}
	return d.point, nil
}

func (d *Deriver) apply(t *model.Trial, rec recommender) {
	var (
		aiCorrect, initialAgree, finalAgree *bool
		setSize                             *int
	)
	if rec != nil {
		aiCorrect = rec.aiCorrect(t)
		initialAgree = rec.agrees(t, t.InitialDecision)
		finalAgree = rec.agrees(t, t.FinalDecision)
		setSize = rec.setSize(t)
	}

	t.AICorrect = aiCorrect
	t.InitialAgreeAI = initialAgree
	t.FinalAgreeAI = finalAgree
	t.SetSize = setSize
	t.Switched = Switched(t.InitialDecision, t.FinalDecision)
	t.SwitchedToAI = SwitchedToAI(initialAgree, finalAgree)
	t.OverReliance, t.UnderReliance, t.AppropriateReliance = Classify(finalAgree, aiCorrect)
}

func (d *Deriver) validate(row int, t *model.Trial) error {
	check := func(col string, l model.Label) error {
		if l.Missing() || d.exp.Labels.Contains(l) {
			return nil
		}
		return &model.DomainError{Row: row, Column: col, Value: string(l), Reason: "not in label set"}
	}
	if err := check("y_true", t.YTrue); err != nil {
		return err
	}
	if err := check("point_pred_cal", t.PointPredCal); err != nil {
		return err
	}
	if err := check("initial_decision", t.InitialDecision); err != nil {
		return err
	}
	if err := check("final_decision", t.FinalDecision); err != nil {
		return err
	}
	for l := range t.CPContains {
		if !d.exp.Labels.Contains(l) {
			return &model.DomainError{Row: row, Column: model.ContainsColumn(l), Value: string(l), Reason: "indicator for unknown label"}
		}
	}
	return nil
}

// Switched reports whether the final decision differs from the initial one.
func Switched(initial, final model.Label) *bool {
	if initial.Missing() || final.Missing() {
		return nil
	}
	return model.Bool(initial != final)
}

// SwitchedToAI is true when the participant initially disagreed with the AI
// and finally agreed.
func SwitchedToAI(initialAgree, finalAgree *bool) *bool {
	if initialAgree == nil || finalAgree == nil {
		return nil
	}
	return model.Bool(!*initialAgree && *finalAgree)
}

// Classify maps (final agreement, AI correctness) to exactly one reliance
// class:
//
//	agree    & correct   -> appropriate
//	agree    & incorrect -> over
//	disagree & correct   -> under
//	disagree & incorrect -> appropriate
//
// All three results are nil when either input is missing.
func Classify(finalAgree, aiCorrect *bool) (over, under, appropriate *bool) {
	if finalAgree == nil || aiCorrect == nil {
		return nil, nil, nil
	}
	a, c := *finalAgree, *aiCorrect
	return model.Bool(a && !c), model.Bool(!a && c), model.Bool(a == c)
}
