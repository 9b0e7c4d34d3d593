package config

import (
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/reliance-cli/internal/calibration"
	"github.com/sells-group/reliance-cli/internal/fetcher"
	"github.com/sells-group/reliance-cli/internal/model"
)

// Config holds the full application configuration.
type Config struct {
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
	Experiment  ExperimentConfig  `yaml:"experiment" mapstructure:"experiment"`
	Calibration CalibrationConfig `yaml:"calibration" mapstructure:"calibration"`
	Input       InputConfig       `yaml:"input" mapstructure:"input"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level" validate:"required"`
	Format string `yaml:"format" mapstructure:"format" validate:"oneof=json console"`
}

// ExperimentConfig describes the closed vocabularies of the experiment.
type ExperimentConfig struct {
	Labels          []string `yaml:"labels" mapstructure:"labels" validate:"required,min=2,unique,dive,required"`
	PointConditions []string `yaml:"point_conditions" mapstructure:"point_conditions" validate:"required,dive,required"`
	SetConditions   []string `yaml:"set_conditions" mapstructure:"set_conditions" validate:"required,dive,required"`
	ConfidenceMin   int      `yaml:"confidence_min" mapstructure:"confidence_min"`
	ConfidenceMax   int      `yaml:"confidence_max" mapstructure:"confidence_max" validate:"gtfield=ConfidenceMin"`
	// LabelCodes maps numeric decision codes in survey exports to labels.
	LabelCodes map[string]string `yaml:"label_codes" mapstructure:"label_codes" validate:"dive,keys,required,endkeys,required"`
}

// CalibrationConfig selects the calibration policies.
type CalibrationConfig struct {
	Normalization            string `yaml:"normalization" mapstructure:"normalization" validate:"oneof=scale_0_1 divide_by_max identity linear_0_1"`
	Binning                  string `yaml:"binning" mapstructure:"binning" validate:"oneof=discrete equal_width"`
	NBins                    int    `yaml:"n_bins" mapstructure:"n_bins" validate:"gte=1"`
	ParticipantNormalization string `yaml:"participant_normalization" mapstructure:"participant_normalization" validate:"oneof=scale_0_1 divide_by_max identity linear_0_1"`
	Workers                  int    `yaml:"workers" mapstructure:"workers" validate:"gte=1,lte=256"`
}

// InputConfig configures how trial files are read.
type InputConfig struct {
	Format    string   `yaml:"format" mapstructure:"format" validate:"omitempty,oneof=csv xlsx"`
	Sheet     string   `yaml:"sheet" mapstructure:"sheet"`
	Encoding  string   `yaml:"encoding" mapstructure:"encoding"`
	Delimiter string   `yaml:"delimiter" mapstructure:"delimiter" validate:"len=1"`
	Phases    []string `yaml:"phases" mapstructure:"phases" validate:"dive,oneof=example main"`
}

// OutputConfig configures where and how result tables are written.
type OutputConfig struct {
	Dir    string `yaml:"dir" mapstructure:"dir" validate:"required"`
	Format string `yaml:"format" mapstructure:"format" validate:"oneof=csv json"`
}

var validate = validator.New()

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("RELIANCE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("experiment.labels", []string{"poor", "standard", "good"})
	v.SetDefault("experiment.point_conditions", []string{"C1", "C2"})
	v.SetDefault("experiment.set_conditions", []string{"C3"})
	v.SetDefault("experiment.confidence_min", 1)
	v.SetDefault("experiment.confidence_max", 5)
	v.SetDefault("experiment.label_codes", map[string]string{"1": "poor", "2": "standard", "3": "good"})
	v.SetDefault("calibration.normalization", string(calibration.NormalizeDivideByMax))
	v.SetDefault("calibration.binning", string(calibration.BinDiscrete))
	v.SetDefault("calibration.n_bins", 5)
	v.SetDefault("calibration.participant_normalization", string(calibration.NormalizeLinear01))
	v.SetDefault("calibration.workers", 4)
	v.SetDefault("input.format", "")
	v.SetDefault("input.sheet", "")
	v.SetDefault("input.encoding", "utf-8")
	v.SetDefault("input.delimiter", ",")
	v.SetDefault("input.phases", []string{})
	v.SetDefault("output.dir", ".")
	v.SetDefault("output.format", "csv")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks field constraints and the cross-field rules tags cannot
// express: regime groups must be disjoint and every label code must name a
// configured label.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return eris.Wrap(err, "config: validate")
	}
	if _, err := c.Experiment.Build(); err != nil {
		return eris.Wrap(err, "config: experiment")
	}
	labels := make(map[string]bool, len(c.Experiment.Labels))
	for _, l := range c.Experiment.Labels {
		labels[strings.ToLower(strings.TrimSpace(l))] = true
	}
	for code, l := range c.Experiment.LabelCodes {
		if !labels[strings.ToLower(strings.TrimSpace(l))] {
			return eris.Errorf("config: label code %q maps to unknown label %q", code, l)
		}
	}
	return nil
}

// Build assembles the experiment vocabularies.
func (e ExperimentConfig) Build() (*model.Experiment, error) {
	labels := make([]model.Label, len(e.Labels))
	for i, l := range e.Labels {
		labels[i] = model.Label(l)
	}
	set, err := model.NewLabelSet(labels)
	if err != nil {
		return nil, err
	}

	conds, err := model.NewConditionMap(conditions(e.PointConditions), conditions(e.SetConditions))
	if err != nil {
		return nil, err
	}
	return model.NewExperiment(set, conds, e.ConfidenceMin, e.ConfidenceMax)
}

// Codes returns the decision code table.
func (e ExperimentConfig) Codes() map[string]model.Label {
	out := make(map[string]model.Label, len(e.LabelCodes))
	for k, v := range e.LabelCodes {
		out[k] = model.Label(v)
	}
	return out
}

func conditions(raw []string) []model.Condition {
	out := make([]model.Condition, len(raw))
	for i, c := range raw {
		out[i] = model.Condition(c)
	}
	return out
}

// Options returns the dataset-level calibration options.
func (c *Config) Options() calibration.Options {
	return calibration.Options{
		Normalization: calibration.Normalization(c.Calibration.Normalization),
		Binning:       calibration.Binning(c.Calibration.Binning),
		NBins:         c.Calibration.NBins,
		ScaleMin:      float64(c.Experiment.ConfidenceMin),
		ScaleMax:      float64(c.Experiment.ConfidenceMax),
	}
}

// ParticipantOptions returns the per-participant calibration options.
func (c *Config) ParticipantOptions() calibration.Options {
	o := c.Options()
	o.Normalization = calibration.Normalization(c.Calibration.ParticipantNormalization)
	return o
}

// FetcherOptions returns the file reader options.
func (c *Config) FetcherOptions() fetcher.Options {
	delim, _ := utf8.DecodeRuneInString(c.Input.Delimiter)
	return fetcher.Options{
		Format:    fetcher.Format(c.Input.Format),
		Sheet:     c.Input.Sheet,
		Encoding:  c.Input.Encoding,
		Delimiter: delim,
	}
}

// Phases returns the configured phase filter.
func (c *Config) Phases() []model.Phase {
	out := make([]model.Phase, len(c.Input.Phases))
	for i, p := range c.Input.Phases {
		out[i] = model.Phase(p)
	}
	return out
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
