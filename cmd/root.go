package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/reliance-cli/internal/config"
	"github.com/sells-group/reliance-cli/internal/report"
)

var cfg *config.Config

var (
	inputPath    string
	phaseFilter  []string
	outputDir    string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "reliance-cli",
	Short: "Trial metrics for human-AI decision experiments",
	Long:  "Derives reliance, agreement, and confidence variables from long-format trial tables, then computes calibration (ECE), confidence-correctness categories, and accuracy summaries.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return applyOutputFlags(cfg)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// applyOutputFlags lets --output-dir, --format and --phase override config.
func applyOutputFlags(c *config.Config) error {
	if outputDir != "" {
		c.Output.Dir = outputDir
	}
	if outputFormat != "" {
		if _, err := report.ParseFormat(outputFormat); err != nil {
			return err
		}
		c.Output.Format = outputFormat
	}
	if len(phaseFilter) > 0 {
		c.Input.Phases = phaseFilter
	}
	return c.Validate()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&inputPath, "input", "", "long-format trial table (csv or xlsx)")
	rootCmd.PersistentFlags().StringSliceVar(&phaseFilter, "phase", nil, "keep only trials in these phases (example, main)")
	rootCmd.PersistentFlags().StringVar(&outputDir, "output-dir", "", "directory for result tables (overrides output.dir)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "", "result table format: csv or json (overrides output.format)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
