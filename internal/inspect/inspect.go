// Package inspect produces grouped accuracy summaries over an enriched trial
// table.
package inspect

import (
	"sort"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/sells-group/reliance-cli/internal/model"
	"github.com/sells-group/reliance-cli/internal/stats"
)

// GroupBy names the column trials are grouped on.
type GroupBy string

// Supported groupings.
const (
	ByParticipant GroupBy = "participant"
	ByCase        GroupBy = "case"
	ByTrial       GroupBy = "trial"
	ByClass       GroupBy = "class"
	ByCondition   GroupBy = "condition"
)

// ParseGroupBy validates a grouping name.
func ParseGroupBy(s string) (GroupBy, error) {
	switch g := GroupBy(s); g {
	case ByParticipant, ByCase, ByTrial, ByClass, ByCondition:
		return g, nil
	}
	return "", eris.Errorf("inspect: unknown grouping %q", s)
}

// Accuracy is one group's summary. Means skip missing values and are NaN
// when a group has none.
type Accuracy struct {
	Key                     string  `json:"key" yaml:"key"`
	UserOnlyAccuracy        float64 `json:"user_only_accuracy" yaml:"user_only_accuracy"`
	TeamAccuracy            float64 `json:"team_accuracy" yaml:"team_accuracy"`
	TeamDelta               float64 `json:"team_delta" yaml:"team_delta"`
	AIAccuracy              float64 `json:"ai_accuracy" yaml:"ai_accuracy"`
	AppropriateRelianceRate float64 `json:"appropriate_reliance_rate" yaml:"appropriate_reliance_rate"`
	NTrials                 int     `json:"n_trials" yaml:"n_trials"`
}

// ByGroup summarises trials per group, sorted by key. Trial-index keys sort
// numerically; all others lexically.
func ByGroup(trials []model.Trial, by GroupBy) ([]Accuracy, error) {
	if _, err := ParseGroupBy(string(by)); err != nil {
		return nil, err
	}

	groups := make(map[string][]model.Trial)
	for _, t := range trials {
		k := key(t, by)
		groups[k] = append(groups[k], t)
	}

	out := make([]Accuracy, 0, len(groups))
	for k, ts := range groups {
		out = append(out, summarise(k, ts))
	}
	sort.Slice(out, func(i, j int) bool {
		if by == ByTrial {
			a, _ := strconv.Atoi(out[i].Key)
			b, _ := strconv.Atoi(out[j].Key)
			return a < b
		}
		return out[i].Key < out[j].Key
	})
	return out, nil
}

func key(t model.Trial, by GroupBy) string {
	switch by {
	case ByCase:
		return t.CaseID
	case ByTrial:
		return strconv.Itoa(t.TrialIndex)
	case ByClass:
		return string(t.YTrue)
	case ByCondition:
		return string(t.Condition)
	default:
		return t.ParticipantCode
	}
}

func summarise(k string, ts []model.Trial) Accuracy {
	initial := make([]*bool, len(ts))
	final := make([]*bool, len(ts))
	ai := make([]*bool, len(ts))
	appropriate := make([]*bool, len(ts))
	for i, t := range ts {
		initial[i] = t.InitialCorrect
		final[i] = t.FinalCorrect
		ai[i] = t.AICorrect
		appropriate[i] = t.AppropriateReliance
	}
	user, _ := stats.BoolMean(initial)
	team, _ := stats.BoolMean(final)
	aiAcc, _ := stats.BoolMean(ai)
	rate, _ := stats.BoolMean(appropriate)
	return Accuracy{
		Key:                     k,
		UserOnlyAccuracy:        user,
		TeamAccuracy:            team,
		TeamDelta:               team - user,
		AIAccuracy:              aiAcc,
		AppropriateRelianceRate: rate,
		NTrials:                 len(ts),
	}
}

// Global describes each accuracy column across the given group rows.
type Global struct {
	UserOnlyAccuracy        stats.Description `json:"user_only_accuracy" yaml:"user_only_accuracy"`
	TeamAccuracy            stats.Description `json:"team_accuracy" yaml:"team_accuracy"`
	TeamDelta               stats.Description `json:"team_delta" yaml:"team_delta"`
	AIAccuracy              stats.Description `json:"ai_accuracy" yaml:"ai_accuracy"`
	AppropriateRelianceRate stats.Description `json:"appropriate_reliance_rate" yaml:"appropriate_reliance_rate"`
}

// Describe summarises group rows, typically the per-participant ones.
func Describe(rows []Accuracy) Global {
	col := func(f func(Accuracy) float64) stats.Description {
		xs := make([]float64, len(rows))
		for i, r := range rows {
			xs[i] = f(r)
		}
		return stats.Describe(xs)
	}
	return Global{
		UserOnlyAccuracy:        col(func(a Accuracy) float64 { return a.UserOnlyAccuracy }),
		TeamAccuracy:            col(func(a Accuracy) float64 { return a.TeamAccuracy }),
		TeamDelta:               col(func(a Accuracy) float64 { return a.TeamDelta }),
		AIAccuracy:              col(func(a Accuracy) float64 { return a.AIAccuracy }),
		AppropriateRelianceRate: col(func(a Accuracy) float64 { return a.AppropriateRelianceRate }),
	}
}
