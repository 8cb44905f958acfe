package classify

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/chriscorrea/evergreen/internal/tfidf"
)

// Predictions holds the outcome of a classification run.
type Predictions struct {
	Train []float64 // probability of label 1 per training row
	Test  []float64 // probability of label 1 per test row

	// CVScore is the mean ROC AUC over folds; valid only when CVErr is nil.
	CVScore float64
	CVErr   error

	// Features is the number of columns the final model was fitted on.
	Features int
}

// Run fits the selected classifier on the training matrix, reports its
// cross-validated AUC and predicts both partitions.
//
// For Logit, an initial fit selects the columns whose absolute coefficient
// is at least the mean, and both matrices are reduced to those columns
// before cross-validation and the final fit.
//
// Parameters:
//   - kind: classifier family
//   - train, test: TF-IDF matrices with the same columns
//   - y: training labels in {0, 1}
//   - folds: number of stratified cross-validation folds
//
// Returns:
//   - *Predictions: probabilities for train and test rows plus the CV score
//   - error: fitting or prediction failure. A cross-validation failure is
//     reported in Predictions.CVErr instead.
func Run(kind Kind, train, test *tfidf.Matrix, y []int, folds int) (*Predictions, error) {
	if train.Cols != test.Cols {
		return nil, fmt.Errorf("train matrix has %d columns, test matrix has %d", train.Cols, test.Cols)
	}

	if kind == Logit {
		selector := NewLogistic()
		if err := selector.Fit(train, y); err != nil {
			return nil, fmt.Errorf("failed to fit feature selector: %w", err)
		}
		selection := SelectFeatures(selector)
		slog.Info("Selected features", "kept", len(selection.Columns), "total", selection.Total)
		train = selection.Apply(train)
		test = selection.Apply(test)
	}

	result := &Predictions{Features: train.Cols}

	result.CVScore, result.CVErr = CrossValidate(kind, train, y, folds)

	model, err := New(kind)
	if err != nil {
		return nil, err
	}
	if err := model.Fit(train, y); err != nil {
		return nil, fmt.Errorf("failed to fit %s model: %w", kind, err)
	}

	if result.Train, err = model.PredictProba(train); err != nil {
		return nil, fmt.Errorf("failed to predict training data: %w", err)
	}
	if result.Test, err = model.PredictProba(test); err != nil {
		return nil, fmt.Errorf("failed to predict test data: %w", err)
	}
	return result, nil
}

// IsCVUnavailable reports whether err means the data was too small or too
// one-sided to cross-validate.
func IsCVUnavailable(err error) bool {
	return errors.Is(err, ErrTooFewSamples) || errors.Is(err, ErrSingleClass)
}
