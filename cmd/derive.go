package main

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/reliance-cli/internal/config"
	"github.com/sells-group/reliance-cli/internal/report"
)

var deriveOutput string

var deriveCmd = &cobra.Command{
	Use:   "derive",
	Short: "Write the enriched trial table",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, err := runDerive(cmd.Context(), cfg, inputPath, deriveOutput)
		return err
	},
}

// runDerive writes the enriched table to output, or to trials.<format> in
// the output directory when output is empty.
func runDerive(ctx context.Context, c *config.Config, input, output string) (string, error) {
	s, err := newSession(ctx, c, input)
	if err != nil {
		return "", err
	}
	tbl := report.Trials(s.trials, s.exp.Labels.Labels())

	zap.L().Info("derive complete",
		zap.Int("trials", s.reliance.Trials),
		zap.Int("over_reliance", s.reliance.Over),
		zap.Int("under_reliance", s.reliance.Under),
		zap.Int("appropriate_reliance", s.reliance.Appropriate),
		zap.Int("unclassified", s.reliance.Unclassified),
	)

	if output == "" {
		return s.write("trials", tbl)
	}
	f, err := os.Create(output)
	if err != nil {
		return "", eris.Wrap(err, "derive: create output file")
	}
	defer f.Close() //nolint:errcheck

	if err := tbl.Write(f, report.Format(c.Output.Format)); err != nil {
		return "", err
	}
	return output, nil
}

func init() {
	deriveCmd.Flags().StringVar(&deriveOutput, "output", "", "output file (default <output-dir>/trials.<format>)")
	rootCmd.AddCommand(deriveCmd)
}
