package report

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/reliance-cli/internal/calibration"
	"github.com/sells-group/reliance-cli/internal/cccategory"
	"github.com/sells-group/reliance-cli/internal/inspect"
	"github.com/sells-group/reliance-cli/internal/reliance"
	"github.com/sells-group/reliance-cli/internal/stats"
)

// RelianceCounts mirrors reliance.Summary for the run summary.
type RelianceCounts struct {
	Trials       int `yaml:"trials"`
	Point        int `yaml:"point_prediction"`
	Set          int `yaml:"set_prediction"`
	Unresolved   int `yaml:"unresolved"`
	Over         int `yaml:"over_reliance"`
	Under        int `yaml:"under_reliance"`
	Appropriate  int `yaml:"appropriate_reliance"`
	Unclassified int `yaml:"unclassified"`
	Switched     int `yaml:"switched"`
}

// NewRelianceCounts copies the deriver's counts.
func NewRelianceCounts(s reliance.Summary) RelianceCounts {
	return RelianceCounts{
		Trials:       s.Trials,
		Point:        s.PointTrials,
		Set:          s.SetTrials,
		Unresolved:   s.Unresolved,
		Over:         s.Over,
		Under:        s.Under,
		Appropriate:  s.Appropriate,
		Unclassified: s.Unclassified,
		Switched:     s.SwitchedCount,
	}
}

// StageCalibration is one stage's dataset and per-participant calibration.
// Normalization is always reported next to the ECE it produced.
type StageCalibration struct {
	Dataset                  *calibration.Result `yaml:"dataset"`
	ParticipantNormalization string              `yaml:"participant_normalization"`
	// ParticipantECE.Missing counts participants whose ECE is undefined.
	ParticipantECE stats.Description `yaml:"participant_ece"`
	// ParticipantDegenerate is set when that NaN comes from a zero-scale
	// normalization rather than from the data.
	ParticipantDegenerate bool `yaml:"participant_degenerate"`
}

// RunSummary is the YAML document written by analyze.
type RunSummary struct {
	RunID       string                      `yaml:"run_id"`
	GeneratedAt time.Time                   `yaml:"generated_at"`
	Input       string                      `yaml:"input"`
	Phases      []string                    `yaml:"phases,omitempty"`
	Config      map[string]any              `yaml:"config"`
	Reliance    RelianceCounts              `yaml:"reliance"`
	Calibration map[string]StageCalibration `yaml:"calibration"`
	Categories  map[cccategory.Category]int `yaml:"cc_categories"`
	ErrorRates  cccategory.ErrorSummary     `yaml:"cc_error_rates"`
	Accuracy    inspect.Global              `yaml:"participant_accuracy"`
	Outputs     map[string]string           `yaml:"outputs,omitempty"`
}

// NewRunSummary returns a summary stamped with a fresh run id.
func NewRunSummary(input string, now time.Time) *RunSummary {
	return &RunSummary{
		RunID:       uuid.NewString(),
		GeneratedAt: now.UTC(),
		Input:       input,
		Calibration: make(map[string]StageCalibration),
		Outputs:     make(map[string]string),
	}
}

// Encode writes the summary as YAML.
func (s *RunSummary) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return eris.Wrap(err, "report: encode run summary")
	}
	return eris.Wrap(enc.Close(), "report: close yaml encoder")
}

// WriteFile writes the summary to dir/run-<id>.yaml and returns the path.
func (s *RunSummary) WriteFile(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", eris.Wrapf(err, "report: create %s", dir)
	}
	path := filepath.Join(dir, "run-"+s.RunID+".yaml")
	f, err := os.Create(path)
	if err != nil {
		return "", eris.Wrap(err, "report: create summary file")
	}
	defer f.Close() //nolint:errcheck

	if err := s.Encode(f); err != nil {
		return "", err
	}
	return path, nil
}
