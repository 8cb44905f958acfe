package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// ResultHeader is the header row of prediction tables.
var ResultHeader = []string{"id", "label"}

// WriteResults writes one "id,label" row per prediction in the given order.
// Probabilities use the shortest representation that round-trips.
func WriteResults(path string, ids []string, predictions []float64) error {
	if len(ids) != len(predictions) {
		return fmt.Errorf("got %d ids for %d predictions", len(ids), len(predictions))
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory %q: %w", dir, err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %q: %w", path, err)
	}

	w := csv.NewWriter(file)
	if err := w.Write(ResultHeader); err != nil {
		file.Close()
		return fmt.Errorf("failed to write %q: %w", path, err)
	}
	for i, id := range ids {
		row := []string{id, strconv.FormatFloat(predictions[i], 'g', -1, 64)}
		if err := w.Write(row); err != nil {
			file.Close()
			return fmt.Errorf("failed to write %q: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		file.Close()
		return fmt.Errorf("failed to write %q: %w", path, err)
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close %q: %w", path, err)
	}
	return nil
}
