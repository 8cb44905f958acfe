// Package checkpoint writes the intermediate artifacts of a run as JSON
// files so every stage can be inspected after the fact. Artifacts are
// write-only during a run.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Artifact file names
const (
	PreprocessedTrainTitle = "preprocessed_train_title.json"
	PreprocessedTrainBody  = "preprocessed_train_body.json"
	PreprocessedTestTitle  = "preprocessed_test_title.json"
	PreprocessedTestBody   = "preprocessed_test_body.json"
	PreprocessedTrainURL   = "preprocessed_train_url.json"
	PreprocessedTestURL    = "preprocessed_test_url.json"
	HighFrequencyWords     = "high_frequency_words.json"
	ModifiedTrain          = "modified_train_data_with_removed_high_frequency_words.json"
	ModifiedTest           = "modified_test_data_with_removed_high_frequency_words.json"
	ManifestFile           = "manifest.json"
)

// StageTiming records when a pipeline stage ran.
type StageTiming struct {
	Name      string        `json:"name"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`
}

// Manifest describes one run and the artifacts it produced.
type Manifest struct {
	RunID     string        `json:"run_id"`
	StartedAt time.Time     `json:"started_at"`
	Stages    []StageTiming `json:"stages"`
	Artifacts []string      `json:"artifacts"`
}

// Store writes artifacts into a directory. A disabled store only tracks
// stage timings.
type Store struct {
	dir      string
	enabled  bool
	manifest Manifest
}

// New creates a store for runID under dir. With enabled false nothing is
// written to disk.
func New(dir, runID string, enabled bool) (*Store, error) {
	if enabled {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create checkpoint directory %q: %w", dir, err)
		}
	}
	return &Store{
		dir:     dir,
		enabled: enabled,
		manifest: Manifest{
			RunID:     runID,
			StartedAt: time.Now().UTC(),
		},
	}, nil
}

// Path returns the file path of an artifact.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Save serializes v as indented JSON into the named artifact.
func (s *Store) Save(name string, v any) error {
	if !s.enabled {
		return nil
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint %s: %w", name, err)
	}
	if err := os.WriteFile(s.Path(name), data, 0o644); err != nil {
		return fmt.Errorf("failed to write checkpoint %s: %w", name, err)
	}

	s.manifest.Artifacts = append(s.manifest.Artifacts, name)
	slog.Debug("Saved checkpoint", "artifact", name, "bytes", len(data))
	return nil
}

// Begin logs the start of a stage and returns a function that records its
// duration when called.
//
// Usage Example:
//
//	done := store.Begin("vectorize")
//	// ... stage work ...
//	done()
func (s *Store) Begin(stage string) func() {
	start := time.Now()
	slog.Info("Stage started", "stage", stage, "started_at", start.Format(time.RFC3339))

	return func() {
		elapsed := time.Since(start)
		s.manifest.Stages = append(s.manifest.Stages, StageTiming{
			Name:      stage,
			StartedAt: start.UTC(),
			Duration:  elapsed,
		})
		slog.Debug("Stage finished", "stage", stage, "elapsed", elapsed)
	}
}

// Manifest returns a copy of the run manifest with artifacts sorted.
func (s *Store) Manifest() Manifest {
	m := s.manifest
	m.Stages = append([]StageTiming(nil), s.manifest.Stages...)
	m.Artifacts = append([]string(nil), s.manifest.Artifacts...)
	sort.Strings(m.Artifacts)
	return m
}

// WriteManifest saves the manifest alongside the artifacts.
func (s *Store) WriteManifest() error {
	if !s.enabled {
		return nil
	}

	data, err := json.MarshalIndent(s.Manifest(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(s.Path(ManifestFile), data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
