package reliance

import "github.com/sells-group/reliance-cli/internal/model"

// recommender evaluates the AI recommendation of one decision regime. A nil
// return means an input needed for the answer is missing.
type recommender interface {
	regime() model.Regime
	aiCorrect(t *model.Trial) *bool
	agrees(t *model.Trial, decision model.Label) *bool
	setSize(t *model.Trial) *int
}

// pointRecommender: the AI shows one label, point_pred_cal.
type pointRecommender struct{}

func (pointRecommender) regime() model.Regime { return model.RegimePointPrediction }

func (pointRecommender) aiCorrect(t *model.Trial) *bool {
	return labelsEqual(t.PointPredCal, t.YTrue)
}

func (pointRecommender) agrees(t *model.Trial, decision model.Label) *bool {
	return labelsEqual(decision, t.PointPredCal)
}

func (pointRecommender) setSize(*model.Trial) *int { return nil }

// setRecommender: the AI shows a set of labels, one cp_contains indicator each.
type setRecommender struct {
	labels []model.Label
}

func (setRecommender) regime() model.Regime { return model.RegimeSetPrediction }

// aiCorrect looks up the indicator named by the ground-truth label.
func (s setRecommender) aiCorrect(t *model.Trial) *bool {
	return member(t, t.YTrue)
}

func (s setRecommender) agrees(t *model.Trial, decision model.Label) *bool {
	return member(t, decision)
}

func (s setRecommender) setSize(t *model.Trial) *int {
	n := 0
	for _, l := range s.labels {
		in, ok := t.CPContains[l]
		if !ok {
			return nil
		}
		if in {
			n++
		}
	}
	return &n
}

func member(t *model.Trial, l model.Label) *bool {
	if l.Missing() {
		return nil
	}
	in, ok := t.CPContains[l]
	if !ok {
		return nil
	}
	return model.Bool(in)
}

func labelsEqual(a, b model.Label) *bool {
	if a.Missing() || b.Missing() {
		return nil
	}
	return model.Bool(a == b)
}
