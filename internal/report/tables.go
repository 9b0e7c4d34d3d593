package report

import (
	"github.com/sells-group/reliance-cli/internal/calibration"
	"github.com/sells-group/reliance-cli/internal/cccategory"
	"github.com/sells-group/reliance-cli/internal/inspect"
	"github.com/sells-group/reliance-cli/internal/model"
)

func trialColumns(labels []model.Label) []string {
	cols := []string{"participant_code", "case_id", "trial_index", "phase", "condition", "y_true", "point_pred_cal"}
	for _, l := range labels {
		cols = append(cols, model.ContainsColumn(l))
	}
	return append(cols,
		"initial_decision", "final_decision", "initial_confidence", "final_confidence",
		"ai_correct", "initial_agree_ai", "final_agree_ai", "switched", "switched_to_ai",
		"over_reliance", "under_reliance", "appropriate_reliance", "set_size",
		"delta_confidence", "initial_correct", "final_correct",
	)
}

func label(l model.Label) any {
	if l.Missing() {
		return nil
	}
	return string(l)
}

func trialCells(t model.Trial, labels []model.Label) []any {
	row := []any{
		t.ParticipantCode, t.CaseID, t.TrialIndex, string(t.Phase), string(t.Condition),
		label(t.YTrue), label(t.PointPredCal),
	}
	for _, l := range labels {
		if v, ok := t.CPContains[l]; ok {
			row = append(row, v)
		} else {
			row = append(row, nil)
		}
	}
	return append(row,
		label(t.InitialDecision), label(t.FinalDecision), t.InitialConfidence, t.FinalConfidence,
		t.AICorrect, t.InitialAgreeAI, t.FinalAgreeAI, t.Switched, t.SwitchedToAI,
		t.OverReliance, t.UnderReliance, t.AppropriateReliance, t.SetSize,
		t.DeltaConfidence, t.InitialCorrect, t.FinalCorrect,
	)
}

// Trials renders the enriched trial table: raw columns then derived ones, in
// input row order.
func Trials(trials []model.Trial, labels []model.Label) *Table {
	t := &Table{Columns: trialColumns(labels), Rows: make([][]any, len(trials))}
	for i, tr := range trials {
		t.Rows[i] = trialCells(tr, labels)
	}
	return t
}

// Categories renders the trial table plus the C-C columns.
func Categories(rows []cccategory.Row, labels []model.Label) *Table {
	cols := append(trialColumns(labels), "median_conf", "high_conf", "cc_category", "cc_matched")
	t := &Table{Columns: cols, Rows: make([][]any, len(rows))}
	for i, r := range rows {
		t.Rows[i] = append(trialCells(r.Trial, labels), r.MedianConf, r.HighConf, string(r.Category), r.Matched)
	}
	return t
}

// Bins renders bin statistics sorted by bin key.
func Bins(bins []calibration.Bin) *Table {
	t := &Table{Columns: []string{"bin", "lower", "upper", "mean_confidence", "accuracy", "count"}}
	for _, b := range bins {
		t.Rows = append(t.Rows, []any{b.Key, b.Lower, b.Upper, b.MeanConfidence, b.Accuracy, b.Count})
	}
	return t
}

// ParticipantECE renders the per-participant ECE table.
func ParticipantECE(rows []calibration.ParticipantECE) *Table {
	t := &Table{Columns: []string{"participant_id", "ece", "n_trials", "degenerate"}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []any{r.ParticipantID, r.ECE, r.NTrials, r.Degenerate})
	}
	return t
}

// StagePairs renders the merged initial/final per-participant ECE table.
func StagePairs(rows []calibration.StagePair) *Table {
	t := &Table{Columns: []string{
		"participant_id", "ece_initial", "ece_final", "n_trials_initial", "n_trials_final",
		"degenerate_initial", "degenerate_final",
	}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []any{
			r.ParticipantID, r.ECEInitial, r.ECEFinal, r.NTrialsInitial, r.NTrialsFinal,
			r.DegenerateInitial, r.DegenerateFinal,
		})
	}
	return t
}

// Accuracy renders grouped accuracy summaries.
func Accuracy(rows []inspect.Accuracy, by inspect.GroupBy) *Table {
	t := &Table{Columns: []string{
		string(by), "user_only_accuracy", "team_accuracy", "team_delta",
		"ai_accuracy", "appropriate_reliance_rate", "n_trials",
	}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []any{
			r.Key, r.UserOnlyAccuracy, r.TeamAccuracy, r.TeamDelta,
			r.AIAccuracy, r.AppropriateRelianceRate, r.NTrials,
		})
	}
	return t
}

// ParticipantError renders the per-participant error-by-match pivot.
func ParticipantError(rows []cccategory.ParticipantError) *Table {
	t := &Table{Columns: []string{"participant_id", "error_matched", "error_mismatched"}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []any{r.ParticipantID, r.ErrorMatched, r.ErrorMismatched})
	}
	return t
}

// ErrorByMatch renders the matched/mismatched error summary, with the
// unclassified count as its own row.
func ErrorByMatch(s cccategory.ErrorSummary) *Table {
	return &Table{
		Columns: []string{"cc_matched", "count", "accuracy", "error_rate"},
		Rows: [][]any{
			{"true", s.Matched.Count, s.Matched.Accuracy, s.Matched.ErrorRate},
			{"false", s.Mismatched.Count, s.Mismatched.Accuracy, s.Mismatched.ErrorRate},
			{string(cccategory.Unclassified), s.Unclassified, nil, nil},
		},
	}
}
