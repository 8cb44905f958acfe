package classify

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"
)

// Platt is a sigmoid mapping decision values f to P(y=1) = 1/(1+exp(A*f+B)).
type Platt struct {
	A float64
	B float64
}

// FitPlatt fits the sigmoid by maximum likelihood against smoothed targets
// (N+ + 1)/(N+ + 2) and 1/(N- + 2), which keeps the fit finite on
// separable data.
func FitPlatt(decisions []float64, y []int) (*Platt, error) {
	if len(decisions) != len(y) {
		return nil, fmt.Errorf("got %d decision values for %d labels", len(decisions), len(y))
	}
	if len(y) == 0 {
		return nil, errors.New("no decision values to calibrate")
	}

	var prior1, prior0 float64
	for _, label := range y {
		if label == 1 {
			prior1++
		} else {
			prior0++
		}
	}
	hi := (prior1 + 1) / (prior1 + 2)
	lo := 1 / (prior0 + 2)
	targets := make([]float64, len(y))
	for i, label := range y {
		if label == 1 {
			targets[i] = hi
		} else {
			targets[i] = lo
		}
	}

	problem := optimize.Problem{
		Func: func(p []float64) float64 {
			var loss float64
			for i, f := range decisions {
				u := f*p[0] + p[1]
				t := targets[i]
				// -t*ln(sigmoid(-u)) - (1-t)*ln(sigmoid(u))
				loss += t*log1pExp(u) + (1-t)*log1pExp(-u)
			}
			return loss
		},
		Grad: func(grad, p []float64) {
			grad[0], grad[1] = 0, 0
			for i, f := range decisions {
				u := f*p[0] + p[1]
				g := targets[i] - sigmoid(-u)
				grad[0] += g * f
				grad[1] += g
			}
		},
	}

	start := []float64{0, math.Log((prior0 + 1) / (prior1 + 1))}
	settings := &optimize.Settings{GradientThreshold: 1e-5, MajorIterations: 100}
	result, err := optimize.Minimize(problem, start, settings, &optimize.LBFGS{})
	if result == nil {
		return nil, fmt.Errorf("failed to fit sigmoid: %w", err)
	}
	if math.IsNaN(result.X[0]) || math.IsNaN(result.X[1]) {
		return nil, fmt.Errorf("failed to fit sigmoid: non-finite parameters (status %v)", result.Status)
	}

	return &Platt{A: result.X[0], B: result.X[1]}, nil
}

// Probability returns P(y=1) for decision value f.
func (p *Platt) Probability(f float64) float64 {
	return sigmoid(-(f*p.A + p.B))
}
