// Package config loads run settings from defaults, an optional YAML file,
// EVERGREEN_* environment variables and command-line flags.
//
// Configuration hierarchy (highest to lowest priority):
//  1. CLI flags that were explicitly set
//  2. Environment variables (EVERGREEN_MODEL, EVERGREEN_MIN_DF, ...)
//  3. Config file (--config, or ./evergreen.yaml when present)
//  4. Defaults
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/chriscorrea/evergreen/internal/classify"
	"github.com/chriscorrea/evergreen/internal/termfilter"
	"github.com/chriscorrea/evergreen/internal/textnorm"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "EVERGREEN"

// ErrInvalid is returned by Validate for unusable settings.
var ErrInvalid = errors.New("invalid configuration")

// Config holds every setting of a run.
type Config struct {
	TrainPath     string `yaml:"train" mapstructure:"train"`
	TestPath      string `yaml:"test" mapstructure:"test"`
	OutputDir     string `yaml:"output_dir" mapstructure:"output_dir"`
	CheckpointDir string `yaml:"checkpoint_dir" mapstructure:"checkpoint_dir"`
	Checkpoints   bool   `yaml:"checkpoints" mapstructure:"checkpoints"`

	Model     string  `yaml:"model" mapstructure:"model"` // logit, svm or naive
	Stem      string  `yaml:"stem" mapstructure:"stem"`   // none, stem or lemmatize
	MinDF     int     `yaml:"min_df" mapstructure:"min_df"`
	Folds     int     `yaml:"folds" mapstructure:"folds"`
	IDColumn  int     `yaml:"id_column" mapstructure:"id_column"`
	Threshold float64 `yaml:"high_frequency_threshold" mapstructure:"high_frequency_threshold"`

	// VocabularyFromTrainOnly fits the vectorizer vocabulary on training
	// documents only instead of training and test documents together.
	VocabularyFromTrainOnly bool `yaml:"vocabulary_from_train_only" mapstructure:"vocabulary_from_train_only"`

	LogLevel string `yaml:"log_level" mapstructure:"log_level"`

	// File is the config file that was read, empty when none was found.
	File string `yaml:"-" mapstructure:"-"`
}

// Default returns the settings used when nothing else is configured.
func Default() Config {
	return Config{
		TrainPath:     "data/train.tsv",
		TestPath:      "data/test.tsv",
		OutputDir:     ".",
		CheckpointDir: "checkpoints",
		Checkpoints:   true,
		Model:         "logit",
		Stem:          "lemmatize",
		MinDF:         15,
		Folds:         10,
		IDColumn:      0,
		Threshold:     termfilter.Threshold,
		LogLevel:      "info",
	}
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"train":                      "train",
	"test":                       "test",
	"output-dir":                 "output_dir",
	"checkpoint-dir":             "checkpoint_dir",
	"model":                      "model",
	"stem":                       "stem",
	"min-df":                     "min_df",
	"folds":                      "folds",
	"id-column":                  "id_column",
	"threshold":                  "high_frequency_threshold",
	"vocabulary-from-train-only": "vocabulary_from_train_only",
	"log-level":                  "log_level",
}

// Load resolves the configuration. path names a YAML file and may be
// empty; flags may be nil.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()

	defaults := Default()
	v.SetDefault("train", defaults.TrainPath)
	v.SetDefault("test", defaults.TestPath)
	v.SetDefault("output_dir", defaults.OutputDir)
	v.SetDefault("checkpoint_dir", defaults.CheckpointDir)
	v.SetDefault("checkpoints", defaults.Checkpoints)
	v.SetDefault("model", defaults.Model)
	v.SetDefault("stem", defaults.Stem)
	v.SetDefault("min_df", defaults.MinDF)
	v.SetDefault("folds", defaults.Folds)
	v.SetDefault("id_column", defaults.IDColumn)
	v.SetDefault("high_frequency_threshold", defaults.Threshold)
	v.SetDefault("vocabulary_from_train_only", defaults.VocabularyFromTrainOnly)
	v.SetDefault("log_level", defaults.LogLevel)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("evergreen")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("failed to bind flag --%s: %w", name, err)
				}
			}
		}
		if f := flags.Lookup("no-checkpoints"); f != nil && f.Changed {
			disabled, err := flags.GetBool("no-checkpoints")
			if err != nil {
				return Config{}, fmt.Errorf("failed to read flag --no-checkpoints: %w", err)
			}
			if disabled {
				v.Set("checkpoints", false)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode configuration: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	return cfg, nil
}

// Validate reports the first unusable setting.
func (c Config) Validate() error {
	if strings.TrimSpace(c.TrainPath) == "" || strings.TrimSpace(c.TestPath) == "" {
		return fmt.Errorf("%w: train and test tables are required", ErrInvalid)
	}
	if _, err := classify.ParseKind(c.Model); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if _, err := textnorm.ParseStemMode(c.Stem); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if c.MinDF < 1 {
		return fmt.Errorf("%w: min_df must be at least 1, got %d", ErrInvalid, c.MinDF)
	}
	if c.Folds < 2 {
		return fmt.Errorf("%w: folds must be at least 2, got %d", ErrInvalid, c.Folds)
	}
	if c.IDColumn < 0 {
		return fmt.Errorf("%w: id_column must not be negative, got %d", ErrInvalid, c.IDColumn)
	}
	if c.Threshold <= 0 || c.Threshold >= 1 {
		return fmt.Errorf("%w: high_frequency_threshold must be in (0, 1), got %g", ErrInvalid, c.Threshold)
	}
	return nil
}

// Level returns the slog level named by LogLevel, Info when unrecognized.
func (c Config) Level() slog.Level {
	return parseLevel(c.LogLevel)
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
