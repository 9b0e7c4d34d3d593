package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/reliance-cli/internal/calibration"
	"github.com/sells-group/reliance-cli/internal/cccategory"
	"github.com/sells-group/reliance-cli/internal/config"
	"github.com/sells-group/reliance-cli/internal/inspect"
	"github.com/sells-group/reliance-cli/internal/report"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run every analysis and write a YAML run summary",
	RunE: func(cmd *cobra.Command, _ []string) error {
		sum, err := runAnalyze(cmd.Context(), cfg, inputPath, time.Now())
		if err != nil {
			return err
		}
		return sum.Encode(cmd.OutOrStdout())
	},
}

// runAnalyze derives the table once and runs calibration for both stages,
// the C-C categorizer and per-participant accuracy over it. Every table and
// the run summary are written to the output directory.
func runAnalyze(ctx context.Context, c *config.Config, input string, now time.Time) (*report.RunSummary, error) {
	s, err := newSession(ctx, c, input)
	if err != nil {
		return nil, err
	}

	sum := report.NewRunSummary(input, now)
	sum.Phases = c.Input.Phases
	sum.Config = configEcho(c)
	sum.Reliance = report.NewRelianceCounts(s.reliance)
	log := zap.L().With(zap.String("command", "analyze"), zap.String("run_id", sum.RunID))

	out := func(key, name string, tbl *report.Table) error {
		path, err := s.write(name, tbl)
		if err != nil {
			return err
		}
		sum.Outputs[key] = path
		return nil
	}

	if err := out("trials", "trials", report.Trials(s.trials, s.exp.Labels.Labels())); err != nil {
		return nil, err
	}

	var perStage [2][]calibration.ParticipantECE
	for i, stage := range []calibration.Stage{calibration.StageInitial, calibration.StageFinal} {
		points := calibration.PointsFor(s.trials, stage)
		res, err := calibration.Analyze(points, c.Options())
		if err != nil {
			return nil, err
		}
		rows, err := calibration.PerParticipant(ctx, points, c.ParticipantOptions(), c.Calibration.Workers)
		if err != nil {
			return nil, err
		}
		perStage[i] = rows
		sum.Calibration[string(stage)] = report.StageCalibration{
			Dataset:                  res,
			ParticipantNormalization: c.Calibration.ParticipantNormalization,
			ParticipantECE:           calibration.DescribeECE(rows),
			ParticipantDegenerate:    calibration.AnyDegenerate(rows),
		}
		if err := out("calibration_"+string(stage), "calibration_"+string(stage), report.Bins(res.Bins)); err != nil {
			return nil, err
		}
		log.Info("stage calibrated",
			zap.String("stage", string(stage)),
			zap.Float64("ece", res.ECE),
			zap.String("normalization", string(res.Normalization)),
			zap.Bool("degenerate", res.Degenerate),
		)
	}
	if err := out("participant_ece", "participant_ece_stages", report.StagePairs(calibration.MergeStages(perStage[0], perStage[1]))); err != nil {
		return nil, err
	}

	cc := cccategory.Categorize(s.trials, calibration.StageInitial)
	sum.Categories = cccategory.Counts(cc)
	sum.ErrorRates = cccategory.ErrorByMatch(cc)
	if err := out("cc_categories", "cc_categories", report.Categories(cc, s.exp.Labels.Labels())); err != nil {
		return nil, err
	}
	if err := out("cc_error_by_participant", "cc_error_by_participant", report.ParticipantError(cccategory.ErrorByParticipant(cc))); err != nil {
		return nil, err
	}

	acc, err := inspect.ByGroup(s.trials, inspect.ByParticipant)
	if err != nil {
		return nil, err
	}
	sum.Accuracy = inspect.Describe(acc)
	if err := out("accuracy", "accuracy_by_participant", report.Accuracy(acc, inspect.ByParticipant)); err != nil {
		return nil, err
	}

	path, err := sum.WriteFile(c.Output.Dir)
	if err != nil {
		return nil, eris.Wrap(err, "analyze: write run summary")
	}
	log.Info("analyze complete", zap.String("summary", path), zap.Int("tables", len(sum.Outputs)))
	return sum, nil
}

// configEcho records the settings that change numeric results.
func configEcho(c *config.Config) map[string]any {
	return map[string]any{
		"labels":                    c.Experiment.Labels,
		"point_conditions":          c.Experiment.PointConditions,
		"set_conditions":            c.Experiment.SetConditions,
		"confidence_scale":          []int{c.Experiment.ConfidenceMin, c.Experiment.ConfidenceMax},
		"normalization":             c.Calibration.Normalization,
		"binning":                   c.Calibration.Binning,
		"n_bins":                    c.Calibration.NBins,
		"participant_normalization": c.Calibration.ParticipantNormalization,
	}
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}
