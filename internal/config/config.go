// Package config loads process configuration from defaults, an optional YAML file,
// an optional .env file and LOANML_-prefixed environment variables, in increasing
// order of precedence.
package config

import (
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/YuminosukeSato/loanml/dataset"
	"github.com/YuminosukeSato/loanml/lifecycle"
	"github.com/YuminosukeSato/loanml/pkg/errors"
	"github.com/YuminosukeSato/loanml/pkg/log"
)

// EnvPrefix prefixes every environment override, e.g. LOANML_DATASET_PATH.
const EnvPrefix = "LOANML"

// Config is the complete process configuration.
type Config struct {
	Dataset  DatasetConfig             `mapstructure:"dataset"`
	Model    lifecycle.Hyperparameters `mapstructure:"model"`
	Training TrainingConfig            `mapstructure:"training"`
	Logging  LoggingConfig             `mapstructure:"logging"`
	Metrics  MetricsConfig             `mapstructure:"metrics"`
}

// DatasetConfig locates the labeled dataset and controls the split.
type DatasetConfig struct {
	Path         string  `mapstructure:"path"`
	Delimiter    string  `mapstructure:"delimiter"`
	HasHeader    bool    `mapstructure:"has_header"`
	TestFraction float64 `mapstructure:"test_fraction"`
	Seed         uint64  `mapstructure:"seed"`
}

// TrainingConfig bounds each boosting run. Zero disables a limit.
type TrainingConfig struct {
	// EarlyStoppingRounds stops boosting after this many rounds without a lower
	// training log loss.
	EarlyStoppingRounds int           `mapstructure:"early_stopping_rounds"`
	TimeLimit           time.Duration `mapstructure:"time_limit"`
}

// LoggingConfig selects the log backend.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

func setDefaults(v *viper.Viper) {
	hp := lifecycle.DefaultHyperparameters()

	v.SetDefault("dataset.path", "loan_approvals.csv")
	v.SetDefault("dataset.delimiter", ",")
	v.SetDefault("dataset.has_header", true)
	v.SetDefault("dataset.test_fraction", 0.2)
	v.SetDefault("dataset.seed", 0)

	v.SetDefault("model.number_of_leaves", hp.NumberOfLeaves)
	v.SetDefault("model.number_of_iterations", hp.NumberOfIterations)
	v.SetDefault("model.min_examples_per_leaf", hp.MinExamplesPerLeaf)
	v.SetDefault("model.learning_rate", hp.LearningRate)

	v.SetDefault("training.early_stopping_rounds", 0)
	v.SetDefault("training.time_limit", time.Duration(0))

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", log.FormatJSON)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.address", ":9090")
}

// Load reads the configuration. configPath may be empty, in which case loanml.yaml is
// looked up in the working directory and ./configs and its absence is not an error.
// envFiles are loaded with godotenv without overriding variables already set; when
// none are given, .env is tried.
func Load(configPath string, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, path := range envFiles {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return nil, errors.Wrapf(err, "load env file %s", path)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config file %s", configPath)
		}
	} else {
		v.SetConfigName("loanml")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.Wrap(err, "read config file")
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid setting as an InvalidArgumentError.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Dataset.Path) == "" {
		return errors.NewInvalidArgumentError("dataset.path", "must not be empty", c.Dataset.Path)
	}
	if utf8.RuneCountInString(c.Dataset.Delimiter) != 1 {
		return errors.NewInvalidArgumentError("dataset.delimiter", "must be a single character", c.Dataset.Delimiter)
	}
	if d := c.Delimiter(); d == '"' || d == '\r' || d == '\n' || d == utf8.RuneError {
		return errors.NewInvalidArgumentError("dataset.delimiter", "cannot be a quote or line break", c.Dataset.Delimiter)
	}
	if !(c.Dataset.TestFraction > 0 && c.Dataset.TestFraction < 1) {
		return errors.NewInvalidArgumentError("dataset.test_fraction", "must be in (0, 1)", c.Dataset.TestFraction)
	}
	if err := c.Model.Validate(); err != nil {
		return err
	}
	if c.Training.EarlyStoppingRounds < 0 {
		return errors.NewInvalidArgumentError("training.early_stopping_rounds", "must not be negative", c.Training.EarlyStoppingRounds)
	}
	if c.Training.TimeLimit < 0 {
		return errors.NewInvalidArgumentError("training.time_limit", "must not be negative", c.Training.TimeLimit)
	}
	if _, err := log.ParseLevel(c.Logging.Level); err != nil {
		return errors.NewInvalidArgumentError("logging.level", "unknown level", c.Logging.Level)
	}
	switch c.Logging.Format {
	case log.FormatJSON, log.FormatConsole, log.FormatCloud:
	default:
		return errors.NewInvalidArgumentError("logging.format", "must be json, console or cloud", c.Logging.Format)
	}
	if c.Metrics.Enabled && c.Metrics.Address == "" {
		return errors.NewInvalidArgumentError("metrics.address", "required when metrics are enabled", c.Metrics.Address)
	}
	return nil
}

// Delimiter returns the dataset delimiter as a rune.
func (c *Config) Delimiter() rune {
	r, _ := utf8.DecodeRuneInString(c.Dataset.Delimiter)
	return r
}

// DatasetOptions returns the loader options.
func (c *Config) DatasetOptions() dataset.Options {
	return dataset.Options{Delimiter: c.Delimiter(), HasHeader: c.Dataset.HasHeader}
}

// LogLevel returns the parsed log level. Validate has already accepted it.
func (c *Config) LogLevel() log.Level {
	level, err := log.ParseLevel(c.Logging.Level)
	if err != nil {
		return log.LevelInfo
	}
	return level
}
