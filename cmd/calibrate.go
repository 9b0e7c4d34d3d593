package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/reliance-cli/internal/calibration"
	"github.com/sells-group/reliance-cli/internal/config"
	"github.com/sells-group/reliance-cli/internal/report"
)

type calibrateFlags struct {
	stage          string
	normalization  string
	binning        string
	bins           int
	perParticipant bool
	bothStages     bool
}

var calFlags calibrateFlags

var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Compute bin statistics and ECE, overall or per participant",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runCalibrate(cmd.Context(), cfg, inputPath, calFlags, cmd.OutOrStdout())
	},
}

// options applies flag overrides to base.
func (f calibrateFlags) options(base calibration.Options) (calibration.Options, error) {
	if f.normalization != "" {
		n, err := calibration.ParseNormalization(f.normalization)
		if err != nil {
			return base, err
		}
		base.Normalization = n
	}
	if f.binning != "" {
		b, err := calibration.ParseBinning(f.binning)
		if err != nil {
			return base, err
		}
		base.Binning = b
	}
	if f.bins > 0 {
		base.NBins = f.bins
	}
	return base, base.Validate()
}

func runCalibrate(ctx context.Context, c *config.Config, input string, f calibrateFlags, w io.Writer) error {
	stage, err := calibration.ParseStage(f.stage)
	if err != nil {
		return err
	}
	s, err := newSession(ctx, c, input)
	if err != nil {
		return err
	}

	if f.bothStages {
		opts, err := f.options(c.ParticipantOptions())
		if err != nil {
			return err
		}
		initial, err := calibration.PerParticipant(ctx, calibration.PointsFor(s.trials, calibration.StageInitial), opts, c.Calibration.Workers)
		if err != nil {
			return err
		}
		final, err := calibration.PerParticipant(ctx, calibration.PointsFor(s.trials, calibration.StageFinal), opts, c.Calibration.Workers)
		if err != nil {
			return err
		}
		pairs := calibration.MergeStages(initial, final)
		if _, err := s.write("participant_ece_stages", report.StagePairs(pairs)); err != nil {
			return err
		}
		fmt.Fprintf(w, "participants=%d normalization=%s\n", len(pairs), opts.Normalization)
		fmt.Fprintf(w, "initial: %s%s\n", describeLine(calibration.DescribeECE(initial)), degenerateNote(initial))
		fmt.Fprintf(w, "final:   %s%s\n", describeLine(calibration.DescribeECE(final)), degenerateNote(final))
		return nil
	}

	points := calibration.PointsFor(s.trials, stage)
	if f.perParticipant {
		opts, err := f.options(c.ParticipantOptions())
		if err != nil {
			return err
		}
		rows, err := calibration.PerParticipant(ctx, points, opts, c.Calibration.Workers)
		if err != nil {
			return err
		}
		if _, err := s.write("participant_ece_"+string(stage), report.ParticipantECE(rows)); err != nil {
			return err
		}
		fmt.Fprintf(w, "%s ECE per participant (%s): %s%s\n", stage, opts.Normalization, describeLine(calibration.DescribeECE(rows)), degenerateNote(rows))
		return nil
	}

	opts, err := f.options(c.Options())
	if err != nil {
		return err
	}
	res, err := calibration.Analyze(points, opts)
	if err != nil {
		return err
	}
	if _, err := s.write("calibration_"+string(stage), report.Bins(res.Bins)); err != nil {
		return err
	}
	zap.L().Info("calibration complete",
		zap.String("stage", string(stage)),
		zap.Float64("ece", res.ECE),
		zap.String("normalization", string(res.Normalization)),
		zap.Int("n", res.N),
		zap.Int("dropped", res.Dropped),
	)
	fmt.Fprintf(w, "%s %s\n", stage, res.String())
	return nil
}

// degenerateNote marks output whose NaN ECE comes from a zero-scale
// normalization.
func degenerateNote(rows []calibration.ParticipantECE) string {
	if calibration.AnyDegenerate(rows) {
		return " [degenerate normalization]"
	}
	return ""
}

func init() {
	calibrateCmd.Flags().StringVar(&calFlags.stage, "stage", string(calibration.StageInitial), "decision stage: initial or final")
	calibrateCmd.Flags().StringVar(&calFlags.normalization, "normalization", "", "override normalization (scale_0_1, divide_by_max, identity, linear_0_1)")
	calibrateCmd.Flags().StringVar(&calFlags.binning, "binning", "", "override binning (discrete, equal_width)")
	calibrateCmd.Flags().IntVar(&calFlags.bins, "bins", 0, "override equal-width bin count")
	calibrateCmd.Flags().BoolVar(&calFlags.perParticipant, "per-participant", false, "compute ECE per participant")
	calibrateCmd.Flags().BoolVar(&calFlags.bothStages, "both-stages", false, "per-participant ECE for both stages, merged on participant")
	rootCmd.AddCommand(calibrateCmd)
}
