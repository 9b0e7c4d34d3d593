package calibration

import (
	"context"
	"math"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/reliance-cli/internal/stats"
)

// ParticipantECE is the calibration error of one participant.
type ParticipantECE struct {
	ParticipantID string  `json:"participant_id" yaml:"participant_id"`
	ECE           float64 `json:"ece" yaml:"ece"`
	NTrials       int     `json:"n_trials" yaml:"n_trials"`
	// Degenerate is set when the shared normalization had a zero scale and
	// ECE is NaN for that reason.
	Degenerate bool `json:"degenerate" yaml:"degenerate"`
}

// PerParticipant computes ECE independently for each participant.
// Normalization is applied once across the whole (missing-dropped) dataset,
// then bins are built within each participant. Participants are processed
// by up to workers goroutines; the result is sorted by participant id and
// does not depend on scheduling. Rows missing confidence or correctness are
// dropped; an empty participant code is kept as its own group.
func PerParticipant(ctx context.Context, points []Point, opts Options, workers int) ([]ParticipantECE, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	// Drop up front so kept[i] and samples[i] stay aligned.
	kept := make([]Point, 0, len(points))
	for _, p := range points {
		if p.Confidence != nil && p.Correct != nil && !math.IsNaN(*p.Confidence) {
			kept = append(kept, p)
		}
	}
	samples, _, degenerate := prepare(kept, opts)
	if degenerate {
		zap.L().Warn("calibration: degenerate normalization, per-participant ECE is NaN",
			zap.String("normalization", string(opts.Normalization)),
		)
	}

	groups := make(map[string][]sample)
	for i, p := range kept {
		groups[p.Participant] = append(groups[p.Participant], samples[i])
	}
	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]ParticipantECE, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return eris.Wrap(err, "calibration: per-participant ECE cancelled")
			}
			rows := groups[id]
			bins := binStatistics(rows, opts)
			out[i] = ParticipantECE{
				ParticipantID: id,
				ECE:           ECE(bins, len(rows)),
				NTrials:       len(rows),
				Degenerate:    degenerate,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	zap.L().Debug("calibration: per-participant ECE computed",
		zap.Int("participants", len(out)),
		zap.Int("dropped", len(points)-len(kept)),
	)
	return out, nil
}

// StagePair joins one participant's initial and final ECE.
type StagePair struct {
	ParticipantID  string  `json:"participant_id" yaml:"participant_id"`
	ECEInitial     float64 `json:"ece_initial" yaml:"ece_initial"`
	ECEFinal       float64 `json:"ece_final" yaml:"ece_final"`
	NTrialsInitial int     `json:"n_trials_initial" yaml:"n_trials_initial"`
	NTrialsFinal   int     `json:"n_trials_final" yaml:"n_trials_final"`

	DegenerateInitial bool `json:"degenerate_initial" yaml:"degenerate_initial"`
	DegenerateFinal   bool `json:"degenerate_final" yaml:"degenerate_final"`
}

// MergeStages outer-joins initial and final per-participant ECE on
// participant id. A participant absent from one stage gets NaN ECE and zero
// trials for that stage.
func MergeStages(initial, final []ParticipantECE) []StagePair {
	byID := make(map[string]*StagePair)
	get := func(id string) *StagePair {
		p, ok := byID[id]
		if !ok {
			p = &StagePair{ParticipantID: id, ECEInitial: math.NaN(), ECEFinal: math.NaN()}
			byID[id] = p
		}
		return p
	}
	for _, r := range initial {
		p := get(r.ParticipantID)
		p.ECEInitial, p.NTrialsInitial, p.DegenerateInitial = r.ECE, r.NTrials, r.Degenerate
	}
	for _, r := range final {
		p := get(r.ParticipantID)
		p.ECEFinal, p.NTrialsFinal, p.DegenerateFinal = r.ECE, r.NTrials, r.Degenerate
	}

	out := make([]StagePair, 0, len(byID))
	for _, p := range byID {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ParticipantID < out[j].ParticipantID })
	return out
}

// AnyDegenerate reports whether any row's ECE is NaN from a degenerate
// normalization.
func AnyDegenerate(rows []ParticipantECE) bool {
	for _, r := range rows {
		if r.Degenerate {
			return true
		}
	}
	return false
}

// DescribeECE summarises per-participant ECE values. NaN rows are counted as
// missing.
func DescribeECE(rows []ParticipantECE) stats.Description {
	xs := make([]float64, len(rows))
	for i, r := range rows {
		xs[i] = r.ECE
	}
	return stats.Describe(xs)
}
