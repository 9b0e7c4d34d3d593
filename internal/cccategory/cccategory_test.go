package cccategory

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/reliance-cli/internal/calibration"
	"github.com/sells-group/reliance-cli/internal/model"
)

func trial(participant string, conf int, correct bool) model.Trial {
	return model.Trial{
		ParticipantCode:   participant,
		InitialConfidence: model.Int(conf),
		Derived: model.Derived{
			InitialCorrect: model.Bool(correct),
			FinalCorrect:   model.Bool(correct),
		},
	}
}

func TestCategorizeMedianSplit(t *testing.T) {
	t.Parallel()

	// Confidences 1..5 give a median of 3.
	trials := []model.Trial{
		trial("p1", 1, false),
		trial("p1", 2, true),
		trial("p1", 3, true),
		trial("p1", 4, true),
		trial("p1", 5, false),
	}
	rows := Categorize(trials, calibration.StageInitial)
	require.Len(t, rows, 5)

	want := []Category{MatchedLowIncorrect, Underconfident, Underconfident, MatchedHighCorrect, Overconfident}
	for i, r := range rows {
		assert.Equal(t, 3.0, r.MedianConf)
		assert.Equal(t, want[i], r.Category, "row %d", i)
		require.NotNil(t, r.Matched)
	}
	assert.True(t, *rows[3].HighConf)
	assert.True(t, *rows[3].Matched)
	assert.False(t, *rows[1].Matched)
}

func TestCategorizeTiesGoLow(t *testing.T) {
	t.Parallel()

	rows := Categorize([]model.Trial{
		trial("p1", 3, true),
		trial("p1", 3, false),
		trial("p1", 3, true),
	}, calibration.StageInitial)

	for _, r := range rows {
		require.NotNil(t, r.HighConf)
		assert.False(t, *r.HighConf)
	}
	assert.Equal(t, Underconfident, rows[0].Category)
	assert.Equal(t, MatchedLowIncorrect, rows[1].Category)
}

func TestCategorizeEvenCountMedian(t *testing.T) {
	t.Parallel()

	rows := Categorize([]model.Trial{
		trial("p1", 2, true),
		trial("p1", 4, true),
	}, calibration.StageInitial)
	assert.Equal(t, 3.0, rows[0].MedianConf)
	assert.Equal(t, Underconfident, rows[0].Category)
	assert.Equal(t, MatchedHighCorrect, rows[1].Category)
}

func TestCategorizePerParticipant(t *testing.T) {
	t.Parallel()

	// The same confidence is high for one participant and low for another.
	rows := Categorize([]model.Trial{
		trial("p1", 2, true),
		trial("p1", 1, true),
		trial("p1", 1, true),
		trial("p2", 2, true),
		trial("p2", 5, true),
		trial("p2", 5, true),
	}, calibration.StageInitial)

	assert.True(t, *rows[0].HighConf)
	assert.False(t, *rows[3].HighConf)
}

func TestCategorizeMissingIsUnclassified(t *testing.T) {
	t.Parallel()

	noConf := trial("p1", 0, true)
	noConf.InitialConfidence = nil
	noCorrect := trial("p1", 4, true)
	noCorrect.InitialCorrect = nil
	empty := model.Trial{ParticipantCode: "p9"}

	rows := Categorize([]model.Trial{trial("p1", 2, true), noConf, noCorrect, empty}, calibration.StageInitial)
	require.Len(t, rows, 4)

	for _, r := range rows[1:] {
		assert.Equal(t, Unclassified, r.Category)
		assert.Nil(t, r.Matched)
		assert.Nil(t, r.HighConf)
	}
	// noCorrect still contributes its confidence to the median.
	assert.Equal(t, 3.0, rows[0].MedianConf)
	assert.True(t, math.IsNaN(rows[3].MedianConf))
}

func TestCategorizeFinalStage(t *testing.T) {
	t.Parallel()

	a := model.Trial{ParticipantCode: "p1", FinalConfidence: model.Int(5)}
	a.FinalCorrect = model.Bool(false)
	b := model.Trial{ParticipantCode: "p1", FinalConfidence: model.Int(1)}
	b.FinalCorrect = model.Bool(false)

	rows := Categorize([]model.Trial{a, b}, calibration.StageFinal)
	assert.Equal(t, Overconfident, rows[0].Category)
	assert.Equal(t, MatchedLowIncorrect, rows[1].Category)
}

func TestCategorizeDoesNotMutate(t *testing.T) {
	t.Parallel()

	trials := []model.Trial{trial("p1", 2, true)}
	rows := Categorize(trials, calibration.StageInitial)
	*rows[0].InitialConfidence = 5
	assert.Equal(t, 2, *trials[0].InitialConfidence)
}

func TestCounts(t *testing.T) {
	t.Parallel()

	rows := Categorize([]model.Trial{
		trial("p1", 1, false),
		trial("p1", 5, false),
		{ParticipantCode: "p1"},
	}, calibration.StageInitial)

	counts := Counts(rows)
	assert.Len(t, counts, len(Categories()))
	assert.Equal(t, 1, counts[MatchedLowIncorrect])
	assert.Equal(t, 1, counts[Overconfident])
	assert.Equal(t, 1, counts[Unclassified])
	assert.Equal(t, 0, counts[MatchedHighCorrect])
}

func classified(participant string, matched bool, finalCorrect *bool) Row {
	r := Row{Trial: model.Trial{ParticipantCode: participant}, Matched: model.Bool(matched)}
	r.FinalCorrect = finalCorrect
	return r
}

func TestErrorByMatch(t *testing.T) {
	t.Parallel()

	rows := []Row{
		classified("p1", true, model.Bool(true)),
		classified("p1", true, model.Bool(true)),
		classified("p1", true, model.Bool(false)),
		classified("p1", true, nil),
		classified("p2", false, model.Bool(false)),
		classified("p2", false, model.Bool(true)),
		{Trial: model.Trial{ParticipantCode: "p3"}, Category: Unclassified},
	}

	sum := ErrorByMatch(rows)
	assert.Equal(t, 3, sum.Matched.Count)
	assert.InDelta(t, 2.0/3, sum.Matched.Accuracy, 1e-12)
	assert.InDelta(t, 1.0/3, sum.Matched.ErrorRate, 1e-12)
	assert.Equal(t, 2, sum.Mismatched.Count)
	assert.InDelta(t, 0.5, sum.Mismatched.ErrorRate, 1e-12)
	assert.Equal(t, 1, sum.Unclassified)
}

func TestErrorByMatchEmptyGroup(t *testing.T) {
	t.Parallel()

	sum := ErrorByMatch([]Row{classified("p1", true, model.Bool(true))})
	assert.Equal(t, 0, sum.Mismatched.Count)
	assert.True(t, math.IsNaN(sum.Mismatched.ErrorRate))
}

func TestErrorByParticipant(t *testing.T) {
	t.Parallel()

	rows := []Row{
		classified("p2", true, model.Bool(false)),
		classified("p1", true, model.Bool(true)),
		classified("p1", false, model.Bool(false)),
		classified("p1", false, model.Bool(true)),
		{Trial: model.Trial{ParticipantCode: "p3"}, Category: Unclassified},
	}

	got := ErrorByParticipant(rows)
	require.Len(t, got, 2)
	assert.Equal(t, "p1", got[0].ParticipantID)
	assert.InDelta(t, 0.0, got[0].ErrorMatched, 1e-12)
	assert.InDelta(t, 0.5, got[0].ErrorMismatched, 1e-12)
	assert.Equal(t, "p2", got[1].ParticipantID)
	assert.InDelta(t, 1.0, got[1].ErrorMatched, 1e-12)
	assert.True(t, math.IsNaN(got[1].ErrorMismatched))
}
