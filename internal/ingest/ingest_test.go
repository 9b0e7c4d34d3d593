package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/reliance-cli/internal/fetcher"
	"github.com/sells-group/reliance-cli/internal/model"
)

const header = "participant_code,case_id,trial_index,phase,condition,y_true,point_pred_cal,cp_contains_poor,cp_contains_standard,cp_contains_good,initial_decision,final_decision,initial_confidence,final_confidence"

func newDecoder() *Decoder {
	return NewDecoder(model.DefaultExperiment(), map[string]model.Label{
		"1": model.LabelPoor,
		"2": model.LabelStandard,
		"3": model.LabelGood,
	})
}

func parse(t *testing.T, csv string) [][]string {
	t.Helper()
	var rows [][]string
	for _, line := range strings.Split(strings.TrimSpace(csv), "\n") {
		rows = append(rows, strings.Split(line, ","))
	}
	return rows
}

func TestDecode(t *testing.T) {
	t.Parallel()

	rows := parse(t, header+`
p1,case1,0,main,C1,good,good,,,,good,standard,4,3
p1,case2,1,main,3,Poor,,1,0,0.0,2,1,3.0,NA`)

	trials, err := newDecoder().Decode(rows)
	require.NoError(t, err)
	require.Len(t, trials, 2)

	a := trials[0]
	assert.Equal(t, "p1", a.ParticipantCode)
	assert.Equal(t, "case1", a.CaseID)
	assert.Equal(t, model.PhaseMain, a.Phase)
	assert.Equal(t, model.Condition("C1"), a.Condition)
	assert.Equal(t, model.LabelGood, a.PointPredCal)
	assert.Empty(t, a.CPContains)
	assert.Equal(t, 4, *a.InitialConfidence)
	assert.Equal(t, 3, *a.FinalConfidence)

	b := trials[1]
	assert.Equal(t, 1, b.TrialIndex)
	assert.Equal(t, model.Condition("C3"), b.Condition)
	assert.Equal(t, model.LabelPoor, b.YTrue)
	assert.True(t, b.PointPredCal.Missing())
	assert.Equal(t, map[model.Label]bool{
		model.LabelPoor:     true,
		model.LabelStandard: false,
		model.LabelGood:     false,
	}, b.CPContains)
	assert.Equal(t, model.LabelStandard, b.InitialDecision)
	assert.Equal(t, model.LabelPoor, b.FinalDecision)
	assert.Equal(t, 3, *b.InitialConfidence)
	assert.Nil(t, b.FinalConfidence)
	assert.Nil(t, b.AICorrect)
}

func TestDecodeHeaderCaseAndOrder(t *testing.T) {
	t.Parallel()

	rows := [][]string{
		{"FINAL_CONFIDENCE", "initial_confidence", "final_decision", "initial_decision", "cp_contains_good", "cp_contains_standard", "cp_contains_poor", "point_pred_cal", "y_true", "condition", "trial_index", "case_id", "Participant_Code", "extra"},
		{"5", "1", "good", "good", "", "", "", "good", "good", "C2", "7", "c9", "p3", "ignored"},
	}
	trials, err := newDecoder().Decode(rows)
	require.NoError(t, err)
	require.Len(t, trials, 1)
	assert.Equal(t, "p3", trials[0].ParticipantCode)
	assert.Equal(t, 7, trials[0].TrialIndex)
	assert.Equal(t, 5, *trials[0].FinalConfidence)
	assert.Empty(t, trials[0].Phase)
}

func TestDecodeSkipsBlankRows(t *testing.T) {
	t.Parallel()

	rows := parse(t, header+`
p1,case1,0,main,C1,good,good,,,,good,good,4,4`)
	rows = append(rows, []string{"", " ", ""})

	trials, err := newDecoder().Decode(rows)
	require.NoError(t, err)
	assert.Len(t, trials, 1)
}

func TestDecodeSchemaError(t *testing.T) {
	t.Parallel()

	rows := [][]string{{"participant_code", "case_id", "trial_index", "condition", "y_true"}}
	_, err := newDecoder().Decode(rows)
	require.Error(t, err)
	assert.True(t, eris.Is(err, model.ErrSchema))

	var se *model.SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, []string{
		"point_pred_cal",
		"cp_contains_poor",
		"cp_contains_standard",
		"cp_contains_good",
		"initial_decision",
		"final_decision",
		"initial_confidence",
		"final_confidence",
	}, se.Columns)
}

func TestDecodeEmptyTable(t *testing.T) {
	t.Parallel()

	_, err := newDecoder().Decode(nil)
	var se *model.SchemaError
	require.True(t, errors.As(err, &se))
	assert.Len(t, se.Columns, len(newDecoder().RequiredColumns()))
}

func TestDecodeDomainErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		row    string
		column string
	}{
		{"fractional confidence", "p1,c1,0,main,C1,good,good,,,,good,good,3.5,4", ColInitialConfidence},
		{"text confidence", "p1,c1,0,main,C1,good,good,,,,good,good,4,high", ColFinalConfidence},
		{"missing trial index", "p1,c1,,main,C1,good,good,,,,good,good,4,4", ColTrialIndex},
		{"bad indicator", "p1,c1,0,main,C3,good,,maybe,0,1,good,good,4,4", "cp_contains_poor"},
		{"bad phase", "p1,c1,0,practice,C1,good,good,,,,good,good,4,4", ColPhase},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := newDecoder().Decode(parse(t, header+"\n"+tt.row))
			require.Error(t, err)
			assert.True(t, eris.Is(err, model.ErrDomain))
			var de *model.DomainError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, tt.column, de.Column)
			assert.Equal(t, 0, de.Row)
		})
	}
}

func TestDecodeShortRowIsMissing(t *testing.T) {
	t.Parallel()

	rows := parse(t, header)
	rows = append(rows, []string{"p1", "c1", "0", "main", "C1", "good", "good", "", "", "", "good", "good", "4"})

	trials, err := newDecoder().Decode(rows)
	require.NoError(t, err)
	assert.Nil(t, trials[0].FinalConfidence)
}

func TestDecodeUnmappedLabelPassesThrough(t *testing.T) {
	t.Parallel()

	trials, err := newDecoder().Decode(parse(t, header+"\np1,c1,0,main,C1,excellent,good,,,,9,good,4,4"))
	require.NoError(t, err)
	assert.Equal(t, model.Label("excellent"), trials[0].YTrue)
	assert.Equal(t, model.Label("9"), trials[0].InitialDecision)
}

func writeCSV(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "trials.csv")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoaderCachesUntilFileChanges(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeCSV(t, dir, header+"\np1,c1,0,main,C1,good,good,,,,good,good,4,4\n")
	l := NewLoader(newDecoder(), fetcher.Options{})

	first, err := l.Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, 1, l.Cached())

	// Mutating a returned table must not leak into the cache.
	first[0].ParticipantCode = "changed"
	again, err := l.Load(context.Background(), filepath.Join(dir, ".", "trials.csv"))
	require.NoError(t, err)
	assert.Equal(t, "p1", again[0].ParticipantCode)
	assert.Equal(t, 1, l.Cached())

	writeCSV(t, dir, header+"\np1,c1,0,main,C1,good,good,,,,good,good,4,4\np2,c1,0,main,C1,good,good,,,,good,good,4,4\n")
	changed, err := l.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, changed, 2)
}

func TestLoaderInvalidateAndReset(t *testing.T) {
	t.Parallel()

	path := writeCSV(t, t.TempDir(), header+"\np1,c1,0,main,C1,good,good,,,,good,good,4,4\n")
	l := NewLoader(newDecoder(), fetcher.Options{})

	_, err := l.Load(context.Background(), path)
	require.NoError(t, err)
	l.Invalidate(path)
	assert.Equal(t, 0, l.Cached())

	_, err = l.Load(context.Background(), path)
	require.NoError(t, err)
	l.Reset()
	assert.Equal(t, 0, l.Cached())
}

func TestLoaderErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	l := NewLoader(newDecoder(), fetcher.Options{})

	_, err := l.Load(context.Background(), filepath.Join(dir, "missing.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ingest: stat")

	_, err = l.Load(context.Background(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is a directory")

	bad := writeCSV(t, dir, "participant_code\np1\n")
	_, err = l.Load(context.Background(), bad)
	require.Error(t, err)
	assert.True(t, eris.Is(err, model.ErrSchema))
	assert.Equal(t, 0, l.Cached())
}

func TestFilterPhase(t *testing.T) {
	t.Parallel()

	trials := []model.Trial{
		{ParticipantCode: "p1", Phase: model.PhaseExample},
		{ParticipantCode: "p2", Phase: model.PhaseMain},
		{ParticipantCode: "p3"},
	}

	main := FilterPhase(trials, model.PhaseMain)
	require.Len(t, main, 1)
	assert.Equal(t, "p2", main[0].ParticipantCode)

	assert.Len(t, FilterPhase(trials), 3)
	assert.Len(t, FilterPhase(trials, model.PhaseMain, model.PhaseExample), 2)
}
