// Package variables composes the reliance and confidence derivers into the
// single enriched trial table consumed by all downstream analysis.
package variables

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/reliance-cli/internal/confidence"
	"github.com/sells-group/reliance-cli/internal/model"
	"github.com/sells-group/reliance-cli/internal/reliance"
)

// Pipeline runs reliance then confidence derivation over a trial table.
type Pipeline struct {
	reliance   *reliance.Deriver
	confidence *confidence.Deriver
}

// Result is the enriched table plus the reliance breakdown.
type Result struct {
	Trials   []model.Trial
	Reliance reliance.Summary
}

// New builds a Pipeline for the experiment vocabulary.
func New(exp *model.Experiment) (*Pipeline, error) {
	rd, err := reliance.NewDeriver(exp)
	if err != nil {
		return nil, eris.Wrap(err, "variables: reliance deriver")
	}
	cd, err := confidence.NewDeriver(exp.ConfidenceMin, exp.ConfidenceMax)
	if err != nil {
		return nil, eris.Wrap(err, "variables: confidence deriver")
	}
	return &Pipeline{reliance: rd, confidence: cd}, nil
}

// Construct derives every trial variable. Output has the same row count and
// order as the input. Derived fields already present on the input are
// overwritten, so Construct(Construct(x)) == Construct(x).
func (p *Pipeline) Construct(trials []model.Trial) (*Result, error) {
	enriched, sum, err := p.reliance.Derive(trials)
	if err != nil {
		return nil, eris.Wrap(err, "variables: reliance metrics")
	}
	enriched, err = p.confidence.Derive(enriched)
	if err != nil {
		return nil, eris.Wrap(err, "variables: confidence metrics")
	}

	zap.L().Info("variables: trial table constructed",
		zap.Int("trials", len(enriched)),
		zap.Int("point_trials", sum.PointTrials),
		zap.Int("set_trials", sum.SetTrials),
	)
	return &Result{Trials: enriched, Reliance: sum}, nil
}
