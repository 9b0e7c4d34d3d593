package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sells-group/reliance-cli/internal/calibration"
	"github.com/sells-group/reliance-cli/internal/cccategory"
	"github.com/sells-group/reliance-cli/internal/config"
	"github.com/sells-group/reliance-cli/internal/report"
)

var categorizeStage string

var categorizeCmd = &cobra.Command{
	Use:   "categorize",
	Short: "Classify trials into confidence-correctness categories",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runCategorize(cmd.Context(), cfg, inputPath, categorizeStage, cmd.OutOrStdout())
	},
}

func runCategorize(ctx context.Context, c *config.Config, input, stageName string, w io.Writer) error {
	stage, err := calibration.ParseStage(stageName)
	if err != nil {
		return err
	}
	s, err := newSession(ctx, c, input)
	if err != nil {
		return err
	}

	rows := cccategory.Categorize(s.trials, stage)
	byMatch := cccategory.ErrorByMatch(rows)

	if _, err := s.write("cc_categories", report.Categories(rows, s.exp.Labels.Labels())); err != nil {
		return err
	}
	if _, err := s.write("cc_error_by_match", report.ErrorByMatch(byMatch)); err != nil {
		return err
	}
	if _, err := s.write("cc_error_by_participant", report.ParticipantError(cccategory.ErrorByParticipant(rows))); err != nil {
		return err
	}

	counts := cccategory.Counts(rows)
	for _, cat := range cccategory.Categories() {
		fmt.Fprintf(w, "%-34s %d\n", cat, counts[cat])
	}
	fmt.Fprintf(w, "final error rate: matched=%.4f (n=%d) mismatched=%.4f (n=%d) unclassified=%d\n",
		byMatch.Matched.ErrorRate, byMatch.Matched.Count,
		byMatch.Mismatched.ErrorRate, byMatch.Mismatched.Count,
		byMatch.Unclassified)
	return nil
}

func init() {
	categorizeCmd.Flags().StringVar(&categorizeStage, "stage", string(calibration.StageInitial), "confidence stage for the median split: initial or final")
	rootCmd.AddCommand(categorizeCmd)
}
