// Package classify fits binary evergreen/ephemeral classifiers on TF-IDF
// features and predicts the probability of the evergreen class.
//
// Three model families are available, selected with a Kind:
//   - Logit: L2-regularized logistic regression (C = 1) fitted with L-BFGS
//   - SVM: C-support vector classifier with an RBF kernel, probabilities by
//     Platt scaling
//   - NaiveBayes: multinomial naive Bayes with Laplace smoothing
//
// Usage Example:
//
//	model, err := classify.New(classify.Logit)
//	err = model.Fit(trainMatrix, labels)
//	probabilities, err := model.PredictProba(testMatrix)
//
// Labels are 0 (ephemeral) or 1 (evergreen) and training data must contain
// both classes.
package classify

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/chriscorrea/evergreen/internal/tfidf"
)

// Kind identifies a classifier family.
type Kind int

const (
	// Logit is regularized logistic regression (default)
	Logit Kind = iota
	// SVM is a kernel support vector classifier
	SVM
	// NaiveBayes is multinomial naive Bayes
	NaiveBayes
)

// String returns the configuration name of the kind.
func (k Kind) String() string {
	switch k {
	case Logit:
		return "logit"
	case SVM:
		return "svm"
	case NaiveBayes:
		return "naive"
	default:
		return "unknown"
	}
}

var (
	// ErrUnknownModel is returned for a model selector that names no classifier.
	ErrUnknownModel = errors.New("unknown model")
	// ErrSingleClass is returned when training labels do not contain both classes.
	ErrSingleClass = errors.New("training labels must contain both classes")
	// ErrNotFitted is returned when predicting with a model that was never fitted.
	ErrNotFitted = errors.New("model is not fitted")
)

// ParseKind converts a model selector ("logit", "svm" or "naive") into a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "logit":
		return Logit, nil
	case "svm":
		return SVM, nil
	case "naive":
		return NaiveBayes, nil
	default:
		return 0, fmt.Errorf("%w %q (want logit, svm or naive)", ErrUnknownModel, s)
	}
}

// Classifier is a binary probabilistic classifier.
type Classifier interface {
	// Fit trains the model on x with labels y in {0, 1}.
	Fit(x *tfidf.Matrix, y []int) error

	// PredictProba returns the probability of label 1 for each row of x.
	PredictProba(x *tfidf.Matrix) ([]float64, error)
}

// New creates an unfitted classifier of the given kind with its default
// parameters.
func New(kind Kind) (Classifier, error) {
	switch kind {
	case Logit:
		return NewLogistic(), nil
	case SVM:
		return NewSVC(), nil
	case NaiveBayes:
		return NewMultinomialNB(), nil
	default:
		return nil, fmt.Errorf("%w: kind %d", ErrUnknownModel, int(kind))
	}
}

// checkTrainingData validates that x and y line up and y holds both classes.
func checkTrainingData(x *tfidf.Matrix, y []int) error {
	if x.NumRows() != len(y) {
		return fmt.Errorf("feature matrix has %d rows but %d labels", x.NumRows(), len(y))
	}

	var positives, negatives int
	for i, label := range y {
		switch label {
		case 1:
			positives++
		case 0:
			negatives++
		default:
			return fmt.Errorf("label %d at row %d is not 0 or 1", label, i)
		}
	}
	if positives == 0 || negatives == 0 {
		return fmt.Errorf("%w: %d positive, %d negative", ErrSingleClass, positives, negatives)
	}
	return nil
}

// signs maps labels {0, 1} to {-1, +1}.
func signs(y []int) []float64 {
	s := make([]float64, len(y))
	for i, label := range y {
		if label == 1 {
			s[i] = 1
		} else {
			s[i] = -1
		}
	}
	return s
}

// sigmoid is the logistic function, stable for large |z|.
func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// log1pExp computes ln(1 + e^z) without overflow.
func log1pExp(z float64) float64 {
	if z > 0 {
		return z + math.Log1p(math.Exp(-z))
	}
	return math.Log1p(math.Exp(z))
}
