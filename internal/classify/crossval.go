package classify

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/chriscorrea/evergreen/internal/tfidf"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// ErrTooFewSamples is returned when a class has fewer members than folds.
var ErrTooFewSamples = errors.New("too few samples for cross-validation")

// Fold is one train/test split of row indices.
type Fold struct {
	Train []int
	Test  []int
}

// StratifiedFolds splits rows into k folds that preserve the class ratio.
// Members of each class are dealt to folds in order, so the split is
// deterministic. Every class must have at least k members.
func StratifiedFolds(y []int, k int) ([]Fold, error) {
	if k < 2 {
		return nil, fmt.Errorf("%w: need at least 2 folds, got %d", ErrTooFewSamples, k)
	}

	counts := make(map[int]int)
	for _, label := range y {
		counts[label]++
	}
	for label, n := range counts {
		if n < k {
			return nil, fmt.Errorf("%w: class %d has %d members for %d folds", ErrTooFewSamples, label, n, k)
		}
	}

	assignment := make([]int, len(y))
	seen := make(map[int]int)
	for i, label := range y {
		assignment[i] = seen[label] % k
		seen[label]++
	}

	folds := make([]Fold, k)
	for i, f := range assignment {
		for g := range folds {
			if g == f {
				folds[g].Test = append(folds[g].Test, i)
			} else {
				folds[g].Train = append(folds[g].Train, i)
			}
		}
	}
	return folds, nil
}

// AUC returns the area under the ROC curve of scores against labels.
func AUC(scores []float64, y []int) (float64, error) {
	if len(scores) != len(y) {
		return 0, fmt.Errorf("got %d scores for %d labels", len(scores), len(y))
	}

	var positives int
	for _, label := range y {
		if label == 1 {
			positives++
		}
	}
	if positives == 0 || positives == len(y) {
		return 0, fmt.Errorf("%w: AUC needs both classes", ErrSingleClass)
	}

	x := append([]float64(nil), scores...)
	classes := make([]bool, len(y))
	for i, label := range y {
		classes[i] = label == 1
	}

	stat.SortWeightedLabeled(x, classes, nil)
	tpr, fpr, _ := stat.ROC(nil, x, classes, nil)
	return integrate.Trapezoidal(fpr, tpr), nil
}

// CrossValidate fits a fresh classifier of the given kind on each of k
// stratified folds and returns the mean ROC AUC over the held-out folds.
func CrossValidate(kind Kind, x *tfidf.Matrix, y []int, k int) (float64, error) {
	scores, err := FoldScores(kind, x, y, k)
	if err != nil {
		return 0, err
	}
	return stat.Mean(scores, nil), nil
}

// FoldScores returns the ROC AUC of each cross-validation fold.
func FoldScores(kind Kind, x *tfidf.Matrix, y []int, k int) ([]float64, error) {
	if x.NumRows() != len(y) {
		return nil, fmt.Errorf("feature matrix has %d rows but %d labels", x.NumRows(), len(y))
	}

	folds, err := StratifiedFolds(y, k)
	if err != nil {
		return nil, err
	}

	scores := make([]float64, 0, len(folds))
	for i, fold := range folds {
		model, err := New(kind)
		if err != nil {
			return nil, err
		}
		if err := model.Fit(x.SelectRows(fold.Train), selectLabels(y, fold.Train)); err != nil {
			return nil, fmt.Errorf("failed to fit fold %d: %w", i+1, err)
		}

		probabilities, err := model.PredictProba(x.SelectRows(fold.Test))
		if err != nil {
			return nil, fmt.Errorf("failed to predict fold %d: %w", i+1, err)
		}

		auc, err := AUC(probabilities, selectLabels(y, fold.Test))
		if err != nil {
			return nil, fmt.Errorf("failed to score fold %d: %w", i+1, err)
		}
		slog.Debug("Cross-validation fold scored", "model", kind, "fold", i+1, "auc", auc)
		scores = append(scores, auc)
	}
	return scores, nil
}

func selectLabels(y []int, idx []int) []int {
	out := make([]int, len(idx))
	for k, i := range idx {
		out[k] = y[i]
	}
	return out
}

// Selection is the set of columns kept by feature selection.
type Selection struct {
	Columns []int // ascending
	Total   int   // columns before selection
}

// SelectFeatures keeps the columns whose absolute coefficient is at least
// the mean absolute coefficient of a fitted logistic model.
func SelectFeatures(model *Logistic) Selection {
	coef := model.Coef
	sel := Selection{Total: len(coef)}
	if len(coef) == 0 {
		return sel
	}

	importance := make([]float64, len(coef))
	for j, w := range coef {
		importance[j] = math.Abs(w)
	}
	threshold := stat.Mean(importance, nil)

	for j, w := range importance {
		if w >= threshold {
			sel.Columns = append(sel.Columns, j)
		}
	}
	return sel
}

// Apply projects m onto the selected columns.
func (s Selection) Apply(m *tfidf.Matrix) *tfidf.Matrix {
	return m.SelectColumns(s.Columns)
}
