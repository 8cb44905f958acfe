package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/chriscorrea/evergreen/internal/app"
	"github.com/chriscorrea/evergreen/internal/classify"
	"github.com/chriscorrea/evergreen/internal/config"
	"github.com/chriscorrea/evergreen/internal/textnorm"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

// loadSettings resolves the layered configuration for cmd
func loadSettings(cmd *cobra.Command) (config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")

	settings, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return config.Config{}, err
	}
	if err := settings.Validate(); err != nil {
		return config.Config{}, err
	}
	return settings, nil
}

// buildConfig constructs an app.Config from the resolved settings
func buildConfig(settings config.Config) (app.Config, error) {
	kind, err := classify.ParseKind(settings.Model)
	if err != nil {
		return app.Config{}, err
	}
	mode, err := textnorm.ParseStemMode(settings.Stem)
	if err != nil {
		return app.Config{}, err
	}

	return app.Config{
		TrainPath:               settings.TrainPath,
		TestPath:                settings.TestPath,
		OutputDir:               settings.OutputDir,
		CheckpointDir:           settings.CheckpointDir,
		Checkpoints:             settings.Checkpoints,
		Model:                   kind,
		Stem:                    mode,
		MinDF:                   settings.MinDF,
		Folds:                   settings.Folds,
		IDColumn:                settings.IDColumn,
		Threshold:               settings.Threshold,
		VocabularyFromTrainOnly: settings.VocabularyFromTrainOnly,
	}, nil
}

// setupLogger configures the default slog logger; debug and quiet override
// the configured level
func setupLogger(level slog.Level, debug, quiet bool) {
	switch {
	case debug:
		level = slog.LevelDebug
	case quiet:
		level = slog.LevelError
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}

var rootCmd = &cobra.Command{
	Use:   "evergreen",
	Short: "Classify web pages as evergreen or ephemeral",
	Long: `Evergreen is a batch classifier that predicts whether web pages stay relevant
over time (evergreen) or only briefly (ephemeral).

It reads a labeled training table and an unlabeled test table (tab-separated,
URL in column 0, page payload in column 2, label in the last column), and
writes the probability of the evergreen class for every record to
prediction_train_data.csv and prediction_test_data.csv.

Examples:
  evergreen
  evergreen --train data/train.tsv --test data/test.tsv --model svm
  evergreen --stem lemmatize --output-dir results`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := loadSettings(cmd)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		quiet, _ := cmd.Flags().GetBool("quiet")
		debug, _ := cmd.Flags().GetBool("debug")
		setupLogger(settings.Level(), debug, quiet)

		if settings.File != "" {
			slog.Debug("Using config file", "path", settings.File)
		}

		cfg, err := buildConfig(settings)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		// create context with signal handling for graceful shutdown
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		result, err := app.Run(ctx, cfg)
		if err != nil {
			return fmt.Errorf("evergreen failed: %w", err)
		}

		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s\n", result.TrainOutput, result.TestOutput)
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "evergreen %s\n", version)
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect configuration",
	Long: `Inspect the effective configuration.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (EVERGREEN_*)
3. Config file (--config, or ./evergreen.yaml)
4. Defaults`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := loadSettings(cmd)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		if settings.File != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "Configuration file: %s\n\n", settings.File)
		} else {
			fmt.Fprintf(cmd.ErrOrStderr(), "No configuration file found (using defaults)\n\n")
		}

		data, err := yaml.Marshal(settings)
		if err != nil {
			return fmt.Errorf("error marshaling config: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	defaults := config.Default()

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Path to a YAML config file (default: ./evergreen.yaml when present)")

	// data flags
	flags.String("train", defaults.TrainPath, "Training table (path or - for stdin)")
	flags.String("test", defaults.TestPath, "Test table (path or - for stdin)")
	flags.String("output-dir", defaults.OutputDir, "Directory for prediction tables")
	flags.String("checkpoint-dir", defaults.CheckpointDir, "Directory for intermediate artifacts")
	flags.Bool("no-checkpoints", false, "Do not write intermediate artifacts")
	flags.Int("id-column", defaults.IDColumn, "Column written as the prediction identifier")

	// model flags
	flags.String("model", defaults.Model, "Classifier: logit, svm or naive")
	flags.String("stem", defaults.Stem, "Token reduction: none, stem or lemmatize (default lemmatize)")
	flags.Int("min-df", defaults.MinDF, "Minimum document frequency of vocabulary terms")
	flags.Int("folds", defaults.Folds, "Cross-validation folds")
	flags.Float64("threshold", defaults.Threshold, "High-frequency term cutoff (fraction of class tokens)")
	flags.Bool("vocabulary-from-train-only", defaults.VocabularyFromTrainOnly, "Fit the vocabulary on training data only")

	// other flags
	flags.String("log-level", defaults.LogLevel, "Log level: debug, info, warn or error")
	flags.BoolP("quiet", "q", false, "Suppress output messages")
	flags.BoolP("debug", "D", false, "Enable debug logging")
	_ = flags.MarkHidden("debug")

	rootCmd.MarkFlagsMutuallyExclusive("quiet", "debug")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
