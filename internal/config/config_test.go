package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/chriscorrea/evergreen/internal/textnorm"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func testFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()

	defaults := Default()
	flags := pflag.NewFlagSet("evergreen", pflag.ContinueOnError)
	flags.String("train", defaults.TrainPath, "")
	flags.String("test", defaults.TestPath, "")
	flags.String("model", defaults.Model, "")
	flags.String("stem", defaults.Stem, "")
	flags.Int("min-df", defaults.MinDF, "")
	flags.Int("folds", defaults.Folds, "")
	flags.Bool("no-checkpoints", false, "")
	require.NoError(t, flags.Parse(args))
	return flags
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "evergreen.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	want := Default()
	require.Equal(t, want, cfg)
	require.NoError(t, cfg.Validate())
}

func TestDefaultLemmatizes(t *testing.T) {
	cfg, err := Load("", testFlags(t))
	require.NoError(t, err)
	require.Equal(t, "lemmatize", cfg.Stem)

	mode, err := textnorm.ParseStemMode(cfg.Stem)
	require.NoError(t, err)
	require.Equal(t, textnorm.Lemmatize, mode)
}

func TestLoadPrecedence(t *testing.T) {
	path := writeConfig(t, "model: naive\nstem: stem\nmin_df: 3\nfolds: 4\nvocabulary_from_train_only: true\n")
	t.Setenv("EVERGREEN_STEM", "lemmatize")
	t.Setenv("EVERGREEN_FOLDS", "5")

	cfg, err := Load(path, testFlags(t, "--folds", "7"))
	require.NoError(t, err)

	// file values
	require.Equal(t, "naive", cfg.Model)
	require.Equal(t, 3, cfg.MinDF)
	require.True(t, cfg.VocabularyFromTrainOnly)
	require.Equal(t, path, cfg.File)

	// env beats file, set flag beats env
	require.Equal(t, "lemmatize", cfg.Stem)
	require.Equal(t, 7, cfg.Folds)

	// an unset flag keeps the default
	require.Equal(t, "data/train.tsv", cfg.TrainPath)
}

func TestLoadNoCheckpoints(t *testing.T) {
	cfg, err := Load("", testFlags(t, "--no-checkpoints"))
	require.NoError(t, err)
	require.False(t, cfg.Checkpoints)

	cfg, err = Load("", testFlags(t))
	require.NoError(t, err)
	require.True(t, cfg.Checkpoints)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"unknown model", func(c *Config) { c.Model = "forest" }},
		{"unknown stem mode", func(c *Config) { c.Stem = "soundex" }},
		{"min_df zero", func(c *Config) { c.MinDF = 0 }},
		{"one fold", func(c *Config) { c.Folds = 1 }},
		{"negative id column", func(c *Config) { c.IDColumn = -1 }},
		{"threshold out of range", func(c *Config) { c.Threshold = 1.5 }},
		{"missing train table", func(c *Config) { c.TrainPath = " " }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			require.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}

func TestLevel(t *testing.T) {
	tests := []struct {
		raw  string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" WARN ", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		cfg := Config{LogLevel: tt.raw}
		require.Equal(t, tt.want, cfg.Level(), tt.raw)
	}
}
