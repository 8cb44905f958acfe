package classify

import (
	"fmt"
	"math"

	"github.com/chriscorrea/evergreen/internal/tfidf"
	"gonum.org/v1/gonum/floats"
)

// MultinomialNB is multinomial naive Bayes over non-negative feature weights.
type MultinomialNB struct {
	Alpha float64 // additive smoothing

	classLogPrior  [2]float64
	featureLogProb [2][]float64
	features       int
	fitted         bool
}

// NewMultinomialNB returns naive Bayes with Laplace smoothing (alpha = 1).
func NewMultinomialNB() *MultinomialNB {
	return &MultinomialNB{Alpha: 1.0}
}

// Fit estimates class priors from label frequencies and per-class feature
// distributions from smoothed feature sums.
func (nb *MultinomialNB) Fit(x *tfidf.Matrix, y []int) error {
	if err := checkTrainingData(x, y); err != nil {
		return err
	}

	var classCount [2]float64
	var featureCount [2][]float64
	featureCount[0] = make([]float64, x.Cols)
	featureCount[1] = make([]float64, x.Cols)

	for i, row := range x.Rows {
		c := y[i]
		classCount[c]++
		for k, j := range row.Indices {
			if row.Values[k] < 0 {
				return fmt.Errorf("negative feature value %g at row %d column %d", row.Values[k], i, j)
			}
			featureCount[c][j] += row.Values[k]
		}
	}

	n := float64(len(y))
	for c := 0; c < 2; c++ {
		nb.classLogPrior[c] = math.Log(classCount[c] / n)

		smoothed := make([]float64, x.Cols)
		for j, v := range featureCount[c] {
			smoothed[j] = v + nb.Alpha
		}
		logTotal := math.Log(floats.Sum(smoothed))
		for j, v := range smoothed {
			smoothed[j] = math.Log(v) - logTotal
		}
		nb.featureLogProb[c] = smoothed
	}

	nb.features = x.Cols
	nb.fitted = true
	return nil
}

// PredictProba returns the posterior of label 1 for each row.
func (nb *MultinomialNB) PredictProba(x *tfidf.Matrix) ([]float64, error) {
	if !nb.fitted {
		return nil, ErrNotFitted
	}
	if x.Cols != nb.features {
		return nil, fmt.Errorf("matrix has %d columns, model expects %d", x.Cols, nb.features)
	}

	out := make([]float64, x.NumRows())
	joint := make([]float64, 2)
	for i, row := range x.Rows {
		for c := 0; c < 2; c++ {
			joint[c] = nb.classLogPrior[c] + row.Dot(nb.featureLogProb[c])
		}
		out[i] = math.Exp(joint[1] - floats.LogSumExp(joint))
	}
	return out, nil
}
