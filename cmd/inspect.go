package main

import (
	"context"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/reliance-cli/internal/config"
	"github.com/sells-group/reliance-cli/internal/inspect"
	"github.com/sells-group/reliance-cli/internal/report"
)

var inspectBy string

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Summarise accuracy and reliance by participant, case, trial, class, or condition",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runInspect(cmd.Context(), cfg, inputPath, inspectBy, cmd.OutOrStdout())
	},
}

// runInspect writes the grouped table and prints the describe() of its
// accuracy columns as YAML.
func runInspect(ctx context.Context, c *config.Config, input, by string, w io.Writer) error {
	group, err := inspect.ParseGroupBy(by)
	if err != nil {
		return err
	}
	s, err := newSession(ctx, c, input)
	if err != nil {
		return err
	}

	rows, err := inspect.ByGroup(s.trials, group)
	if err != nil {
		return err
	}
	if _, err := s.write("accuracy_by_"+string(group), report.Accuracy(rows, group)); err != nil {
		return err
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(map[string]any{"by": string(group), "groups": len(rows), "describe": inspect.Describe(rows)}); err != nil {
		return eris.Wrap(err, "inspect: encode summary")
	}
	return eris.Wrap(enc.Close(), "inspect: close encoder")
}

func init() {
	inspectCmd.Flags().StringVar(&inspectBy, "by", string(inspect.ByParticipant), "grouping: participant, case, trial, class, condition")
	rootCmd.AddCommand(inspectCmd)
}
