package main

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/reliance-cli/internal/config"
	"github.com/sells-group/reliance-cli/internal/ingest"
	"github.com/sells-group/reliance-cli/internal/model"
	"github.com/sells-group/reliance-cli/internal/reliance"
	"github.com/sells-group/reliance-cli/internal/report"
	"github.com/sells-group/reliance-cli/internal/stats"
	"github.com/sells-group/reliance-cli/internal/variables"
)

// session is one loaded, phase-filtered and derived trial table. Every
// subcommand starts from one; derived columns are never read from the file.
type session struct {
	cfg      *config.Config
	exp      *model.Experiment
	trials   []model.Trial
	reliance reliance.Summary
}

func newSession(ctx context.Context, c *config.Config, path string) (*session, error) {
	if path == "" {
		return nil, eris.New("--input is required")
	}
	exp, err := c.Experiment.Build()
	if err != nil {
		return nil, eris.Wrap(err, "build experiment")
	}

	loader := ingest.NewLoader(ingest.NewDecoder(exp, c.Experiment.Codes()), c.FetcherOptions())
	raw, err := loader.Load(ctx, path)
	if err != nil {
		return nil, eris.Wrap(err, "load trials")
	}
	if phases := c.Phases(); len(phases) > 0 {
		before := len(raw)
		raw = ingest.FilterPhase(raw, phases...)
		zap.L().Info("phase filter applied",
			zap.Strings("phases", c.Input.Phases),
			zap.Int("kept", len(raw)),
			zap.Int("dropped", before-len(raw)),
		)
	}

	p, err := variables.New(exp)
	if err != nil {
		return nil, err
	}
	res, err := p.Construct(raw)
	if err != nil {
		return nil, eris.Wrap(err, "derive variables")
	}
	return &session{cfg: c, exp: exp, trials: res.Trials, reliance: res.Reliance}, nil
}

// write renders tbl into the configured output directory.
func (s *session) write(name string, tbl *report.Table) (string, error) {
	path, err := tbl.WriteFile(s.cfg.Output.Dir, name, report.Format(s.cfg.Output.Format))
	if err != nil {
		return "", eris.Wrapf(err, "write %s", name)
	}
	zap.L().Info("table written",
		zap.String("table", name),
		zap.String("path", path),
		zap.Int("rows", len(tbl.Rows)),
	)
	return path, nil
}

func describeLine(d stats.Description) string {
	return fmt.Sprintf("n=%d missing=%d mean=%.4f std=%.4f min=%.4f max=%.4f",
		d.Count, d.Missing, d.Mean, d.Std, d.Min, d.Max)
}
