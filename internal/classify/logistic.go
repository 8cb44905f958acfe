package classify

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/chriscorrea/evergreen/internal/tfidf"
	"gonum.org/v1/gonum/optimize"
)

// Logistic is L2-regularized logistic regression with an intercept. The
// intercept is regularized with the weights, as in liblinear.
type Logistic struct {
	C             float64 // inverse regularization strength
	Tol           float64 // gradient norm at which optimization stops
	MaxIterations int

	Coef      []float64
	Intercept float64
	fitted    bool
}

// NewLogistic returns logistic regression with C = 1 and tolerance 1e-4.
func NewLogistic() *Logistic {
	return &Logistic{
		C:             1.0,
		Tol:           1e-4,
		MaxIterations: 1000,
	}
}

// Fit minimizes 0.5*(|w|^2 + b^2) + C * sum(ln(1 + exp(-y_i (w.x_i + b)))).
func (l *Logistic) Fit(x *tfidf.Matrix, y []int) error {
	if err := checkTrainingData(x, y); err != nil {
		return err
	}

	s := signs(y)
	d := x.Cols
	margins := make([]float64, x.NumRows())

	// parameters: weights followed by the intercept
	computeMargins := func(params []float64) {
		w, b := params[:d], params[d]
		for i, row := range x.Rows {
			margins[i] = s[i] * (row.Dot(w) + b)
		}
	}

	problem := optimize.Problem{
		Func: func(params []float64) float64 {
			computeMargins(params)
			var loss float64
			for _, m := range margins {
				loss += log1pExp(-m)
			}
			var reg float64
			for _, p := range params {
				reg += p * p
			}
			return 0.5*reg + l.C*loss
		},
		Grad: func(grad, params []float64) {
			computeMargins(params)
			copy(grad, params)
			for i, row := range x.Rows {
				// d/dz ln(1 + exp(-s z)) = -s * sigmoid(-s z)
				g := -l.C * s[i] * sigmoid(-margins[i])
				for k, j := range row.Indices {
					grad[j] += g * row.Values[k]
				}
				grad[d] += g
			}
		},
	}

	settings := &optimize.Settings{
		GradientThreshold: l.Tol,
		MajorIterations:   l.MaxIterations,
	}

	result, err := optimize.Minimize(problem, make([]float64, d+1), settings, &optimize.LBFGS{})
	if result == nil {
		return fmt.Errorf("failed to fit logistic regression: %w", err)
	}
	if err != nil {
		slog.Debug("Logistic regression stopped early", "status", result.Status, "error", err)
	}
	for _, p := range result.X {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return fmt.Errorf("failed to fit logistic regression: non-finite parameters (status %v)", result.Status)
		}
	}

	l.Coef = append([]float64(nil), result.X[:d]...)
	l.Intercept = result.X[d]
	l.fitted = true

	slog.Debug("Logistic regression fitted", "features", d, "iterations", result.Stats.MajorIterations, "objective", result.F)
	return nil
}

// DecisionFunction returns w.x + b for each row.
func (l *Logistic) DecisionFunction(x *tfidf.Matrix) ([]float64, error) {
	if !l.fitted {
		return nil, ErrNotFitted
	}
	if x.Cols != len(l.Coef) {
		return nil, fmt.Errorf("matrix has %d columns, model expects %d", x.Cols, len(l.Coef))
	}

	out := make([]float64, x.NumRows())
	for i, row := range x.Rows {
		out[i] = row.Dot(l.Coef) + l.Intercept
	}
	return out, nil
}

// PredictProba returns sigmoid(w.x + b) for each row.
func (l *Logistic) PredictProba(x *tfidf.Matrix) ([]float64, error) {
	scores, err := l.DecisionFunction(x)
	if err != nil {
		return nil, err
	}
	for i, z := range scores {
		scores[i] = sigmoid(z)
	}
	return scores, nil
}
