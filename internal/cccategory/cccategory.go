// Package cccategory classifies trials into confidence-correctness (C-C)
// categories by a per-participant median split on confidence, and summarises
// later-stage error rates by category match.
package cccategory

import (
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/sells-group/reliance-cli/internal/calibration"
	"github.com/sells-group/reliance-cli/internal/model"
	"github.com/sells-group/reliance-cli/internal/stats"
)

// Category is one of the four C-C categories, or Unclassified.
type Category string

// C-C categories.
const (
	MatchedHighCorrect  Category = "C-C Matched (High & Correct)"
	MatchedLowIncorrect Category = "C-C Matched (Low & Incorrect)"
	Overconfident       Category = "Overconfident (High & Incorrect)"
	Underconfident      Category = "Underconfident (Low & Correct)"
	Unclassified        Category = "Unclassified"
)

// Categories lists the categories in reporting order.
func Categories() []Category {
	return []Category{MatchedHighCorrect, MatchedLowIncorrect, Overconfident, Underconfident, Unclassified}
}

// Row is a trial with its C-C classification. MedianConf is NaN when the
// participant has no non-missing confidence. HighConf and Matched are nil for
// unclassified rows.
type Row struct {
	model.Trial
	MedianConf float64  `json:"median_conf"`
	HighConf   *bool    `json:"high_conf"`
	Category   Category `json:"cc_category"`
	Matched    *bool    `json:"cc_matched"`
}

// Categorize splits each participant's trials at the median of the stage's
// confidence. A trial is high confidence iff its confidence is strictly above
// the median, so ties go to low. Every input row appears in the output, in
// input order; rows missing confidence or correctness are Unclassified.
func Categorize(trials []model.Trial, stage calibration.Stage) []Row {
	confs := make(map[string][]float64)
	for _, t := range trials {
		if c, _ := stageValues(t, stage); c != nil {
			confs[t.ParticipantCode] = append(confs[t.ParticipantCode], float64(*c))
		}
	}
	medians := make(map[string]float64, len(confs))
	for p, xs := range confs {
		medians[p] = stats.Median(xs)
	}

	out := make([]Row, len(trials))
	unclassified := 0
	for i, t := range trials {
		median, ok := medians[t.ParticipantCode]
		if !ok {
			median = math.NaN()
		}
		row := Row{Trial: t.Clone(), MedianConf: median, Category: Unclassified}

		conf, correct := stageValues(t, stage)
		if conf != nil && correct != nil {
			high := float64(*conf) > median
			row.HighConf = model.Bool(high)
			row.Category = classify(high, *correct)
			row.Matched = model.Bool(row.Category == MatchedHighCorrect || row.Category == MatchedLowIncorrect)
		} else {
			unclassified++
		}
		out[i] = row
	}

	if unclassified > 0 {
		zap.L().Warn("cccategory: rows left unclassified",
			zap.Int("count", unclassified),
			zap.String("stage", string(stage)),
		)
	}
	return out
}

func classify(high, correct bool) Category {
	switch {
	case high && correct:
		return MatchedHighCorrect
	case !high && !correct:
		return MatchedLowIncorrect
	case high:
		return Overconfident
	default:
		return Underconfident
	}
}

func stageValues(t model.Trial, stage calibration.Stage) (*int, *bool) {
	if stage == calibration.StageFinal {
		return t.FinalConfidence, t.FinalCorrect
	}
	return t.InitialConfidence, t.InitialCorrect
}

// Counts tallies rows per category.
func Counts(rows []Row) map[Category]int {
	out := make(map[Category]int, len(Categories()))
	for _, c := range Categories() {
		out[c] = 0
	}
	for _, r := range rows {
		out[r.Category]++
	}
	return out
}

// GroupError is the final-stage accuracy of a group of rows. Count is the
// number of rows with a non-missing final correctness.
type GroupError struct {
	Count     int     `json:"count" yaml:"count"`
	Accuracy  float64 `json:"accuracy" yaml:"accuracy"`
	ErrorRate float64 `json:"error_rate" yaml:"error_rate"`
}

// ErrorSummary compares final error rates of matched and mismatched rows.
type ErrorSummary struct {
	Matched      GroupError `json:"matched" yaml:"matched"`
	Mismatched   GroupError `json:"mismatched" yaml:"mismatched"`
	Unclassified int        `json:"unclassified" yaml:"unclassified"`
}

// ErrorByMatch groups rows by C-C match and computes the final error rate
// (1 - mean final correctness) of each group.
func ErrorByMatch(rows []Row) ErrorSummary {
	var matched, mismatched []*bool
	var sum ErrorSummary
	for _, r := range rows {
		switch {
		case r.Matched == nil:
			sum.Unclassified++
		case *r.Matched:
			matched = append(matched, r.FinalCorrect)
		default:
			mismatched = append(mismatched, r.FinalCorrect)
		}
	}
	sum.Matched = groupError(matched)
	sum.Mismatched = groupError(mismatched)
	return sum
}

func groupError(bs []*bool) GroupError {
	acc, n := stats.BoolMean(bs)
	return GroupError{Count: n, Accuracy: acc, ErrorRate: 1 - acc}
}

// ParticipantError is one participant's final error rate split by C-C match.
// A rate is NaN when the participant has no rows in that group.
type ParticipantError struct {
	ParticipantID   string  `json:"participant_id" yaml:"participant_id"`
	ErrorMatched    float64 `json:"error_matched" yaml:"error_matched"`
	ErrorMismatched float64 `json:"error_mismatched" yaml:"error_mismatched"`
}

// ErrorByParticipant pivots final error rates to one row per participant,
// sorted by participant id. Unclassified rows are excluded.
func ErrorByParticipant(rows []Row) []ParticipantError {
	type split struct{ matched, mismatched []*bool }
	byID := make(map[string]*split)
	for _, r := range rows {
		if r.Matched == nil {
			continue
		}
		s, ok := byID[r.ParticipantCode]
		if !ok {
			s = &split{}
			byID[r.ParticipantCode] = s
		}
		if *r.Matched {
			s.matched = append(s.matched, r.FinalCorrect)
		} else {
			s.mismatched = append(s.mismatched, r.FinalCorrect)
		}
	}

	out := make([]ParticipantError, 0, len(byID))
	for id, s := range byID {
		out = append(out, ParticipantError{
			ParticipantID:   id,
			ErrorMatched:    groupError(s.matched).ErrorRate,
			ErrorMismatched: groupError(s.mismatched).ErrorRate,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ParticipantID < out[j].ParticipantID })
	return out
}
