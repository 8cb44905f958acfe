package classify

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/chriscorrea/evergreen/internal/tfidf"
)

// tau replaces a non-positive curvature in the pair update
const tau = 1e-12

// SVC is a C-support vector classifier with an RBF kernel solved by
// sequential minimal optimization using maximal violating pair selection.
// Probabilities come from a sigmoid fitted to decision values.
type SVC struct {
	C             float64 // box constraint
	Gamma         float64 // RBF width; 0 means 1/number of features
	Tol           float64 // stopping tolerance on the KKT violation
	MaxIterations int     // solver iteration cap, <= 0 for no limit
	CacheRows     int     // kernel rows kept between iterations

	// CalibrationFolds is the number of folds used to produce out-of-sample
	// decision values for Platt scaling.
	CalibrationFolds int

	supportVectors []tfidf.Vector
	supportNorms   []float64
	dualCoef       []float64 // alpha_i * y_i
	rho            float64
	gamma          float64
	features       int
	sigmoid        *Platt
}

// NewSVC returns an RBF classifier with C = 1, tolerance 1e-4, at most 1000
// solver iterations and 5-fold probability calibration.
func NewSVC() *SVC {
	return &SVC{
		C:                1.0,
		Tol:              1e-4,
		MaxIterations:    1000,
		CacheRows:        256,
		CalibrationFolds: 5,
	}
}

// Fit solves the dual problem on x and calibrates probabilities.
func (s *SVC) Fit(x *tfidf.Matrix, y []int) error {
	if err := checkTrainingData(x, y); err != nil {
		return err
	}

	s.features = x.Cols
	s.gamma = s.Gamma
	if s.gamma <= 0 {
		s.gamma = 1.0
		if x.Cols > 0 {
			s.gamma = 1.0 / float64(x.Cols)
		}
	}

	decisions := s.calibrationScores(x, y)

	if err := s.solve(x, y); err != nil {
		return err
	}
	if decisions == nil {
		// too few samples per class for held-out scores
		decisions = s.decide(x)
	}

	platt, err := FitPlatt(decisions, y)
	if err != nil {
		return fmt.Errorf("failed to calibrate probabilities: %w", err)
	}
	s.sigmoid = platt

	slog.Debug("SVC fitted", "support_vectors", len(s.supportVectors), "rho", s.rho, "gamma", s.gamma)
	return nil
}

// calibrationScores returns held-out decision values for every training row,
// or nil when the data cannot be split into CalibrationFolds stratified folds.
func (s *SVC) calibrationScores(x *tfidf.Matrix, y []int) []float64 {
	folds, err := StratifiedFolds(y, s.CalibrationFolds)
	if err != nil {
		return nil
	}

	scores := make([]float64, len(y))
	for _, fold := range folds {
		trainX := x.SelectRows(fold.Train)
		trainY := selectLabels(y, fold.Train)

		inner := &SVC{C: s.C, Tol: s.Tol, MaxIterations: s.MaxIterations, CacheRows: s.CacheRows, gamma: s.gamma}
		if err := inner.solve(trainX, trainY); err != nil {
			return nil
		}
		for k, v := range inner.decide(x.SelectRows(fold.Test)) {
			scores[fold.Test[k]] = v
		}
	}
	return scores
}

// kernelCache holds Q rows (y_i y_j K(x_i, x_j)) keyed by row index.
type kernelCache struct {
	x     *tfidf.Matrix
	s     []float64
	norms []float64
	gamma float64
	limit int
	rows  map[int][]float64
}

func (kc *kernelCache) row(i int) []float64 {
	if r, ok := kc.rows[i]; ok {
		return r
	}
	if len(kc.rows) >= kc.limit {
		clear(kc.rows)
	}

	r := make([]float64, kc.x.NumRows())
	xi := kc.x.Rows[i]
	for j, xj := range kc.x.Rows {
		k := rbf(kc.gamma, kc.norms[i], kc.norms[j], xi.DotVector(xj))
		r[j] = kc.s[i] * kc.s[j] * k
	}
	kc.rows[i] = r
	return r
}

func rbf(gamma, normA, normB, dot float64) float64 {
	dist := normA + normB - 2*dot
	if dist < 0 {
		dist = 0
	}
	return math.Exp(-gamma * dist)
}

// solve runs SMO on x and stores the support vectors and offset.
func (s *SVC) solve(x *tfidf.Matrix, y []int) error {
	n := x.NumRows()
	sign := signs(y)
	norms := make([]float64, n)
	for i, row := range x.Rows {
		norms[i] = row.SquaredNorm()
	}

	limit := s.CacheRows
	if limit <= 0 {
		limit = 2
	}
	cache := &kernelCache{x: x, s: sign, norms: norms, gamma: s.gamma, limit: limit, rows: make(map[int][]float64)}

	alpha := make([]float64, n)
	grad := make([]float64, n)
	for i := range grad {
		grad[i] = -1
	}

	c := s.C
	upper := func(t int) bool { return alpha[t] >= c }
	lower := func(t int) bool { return alpha[t] <= 0 }

	iterations := 0
	converged := false
	for {
		// maximal violating pair on -y_t * G_t
		i, j := -1, -1
		gmax, gmin := math.Inf(-1), math.Inf(1)
		for t := 0; t < n; t++ {
			v := -sign[t] * grad[t]
			inUp := (sign[t] > 0 && !upper(t)) || (sign[t] < 0 && !lower(t))
			inLow := (sign[t] > 0 && !lower(t)) || (sign[t] < 0 && !upper(t))
			if inUp && v >= gmax {
				gmax, i = v, t
			}
			if inLow && v <= gmin {
				gmin, j = v, t
			}
		}
		if i < 0 || j < 0 || gmax-gmin < s.Tol {
			converged = true
			break
		}
		if s.MaxIterations > 0 && iterations >= s.MaxIterations {
			break
		}
		iterations++

		qi := cache.row(i)
		qj := cache.row(j)
		oldI, oldJ := alpha[i], alpha[j]

		if sign[i] != sign[j] {
			quad := qi[i] + qj[j] + 2*qi[j]
			if quad <= 0 {
				quad = tau
			}
			delta := (-grad[i] - grad[j]) / quad
			diff := alpha[i] - alpha[j]
			alpha[i] += delta
			alpha[j] += delta
			if diff > 0 {
				if alpha[j] < 0 {
					alpha[j] = 0
					alpha[i] = diff
				}
			} else if alpha[i] < 0 {
				alpha[i] = 0
				alpha[j] = -diff
			}
			if diff > 0 {
				if alpha[i] > c {
					alpha[i] = c
					alpha[j] = c - diff
				}
			} else if alpha[j] > c {
				alpha[j] = c
				alpha[i] = c + diff
			}
		} else {
			quad := qi[i] + qj[j] - 2*qi[j]
			if quad <= 0 {
				quad = tau
			}
			delta := (grad[i] - grad[j]) / quad
			sum := alpha[i] + alpha[j]
			alpha[i] -= delta
			alpha[j] += delta
			if sum > c {
				if alpha[i] > c {
					alpha[i] = c
					alpha[j] = sum - c
				}
			} else if alpha[j] < 0 {
				alpha[j] = 0
				alpha[i] = sum
			}
			if sum > c {
				if alpha[j] > c {
					alpha[j] = c
					alpha[i] = sum - c
				}
			} else if alpha[i] < 0 {
				alpha[i] = 0
				alpha[j] = sum
			}
		}

		dI, dJ := alpha[i]-oldI, alpha[j]-oldJ
		for t := 0; t < n; t++ {
			grad[t] += qi[t]*dI + qj[t]*dJ
		}
	}

	if !converged {
		slog.Warn("SVC solver reached iteration limit before converging", "iterations", iterations, "tolerance", s.Tol)
	}

	s.rho = offset(alpha, grad, sign, c)
	s.supportVectors = s.supportVectors[:0]
	s.supportNorms = s.supportNorms[:0]
	s.dualCoef = s.dualCoef[:0]
	for t := 0; t < n; t++ {
		if alpha[t] > 0 {
			s.supportVectors = append(s.supportVectors, x.Rows[t])
			s.supportNorms = append(s.supportNorms, norms[t])
			s.dualCoef = append(s.dualCoef, alpha[t]*sign[t])
		}
	}
	return nil
}

// offset computes rho from the free support vectors, or the midpoint of
// the feasible interval when none are free.
func offset(alpha, grad, sign []float64, c float64) float64 {
	ub, lb := math.Inf(1), math.Inf(-1)
	var sumFree float64
	var free int
	for t := range alpha {
		yg := sign[t] * grad[t]
		switch {
		case alpha[t] >= c:
			if sign[t] < 0 {
				ub = math.Min(ub, yg)
			} else {
				lb = math.Max(lb, yg)
			}
		case alpha[t] <= 0:
			if sign[t] > 0 {
				ub = math.Min(ub, yg)
			} else {
				lb = math.Max(lb, yg)
			}
		default:
			free++
			sumFree += yg
		}
	}
	if free > 0 {
		return sumFree / float64(free)
	}
	return (ub + lb) / 2
}

// decide returns sum(alpha_i y_i K(sv_i, x)) - rho for each row.
func (s *SVC) decide(x *tfidf.Matrix) []float64 {
	out := make([]float64, x.NumRows())
	for r, row := range x.Rows {
		norm := row.SquaredNorm()
		v := -s.rho
		for k, sv := range s.supportVectors {
			v += s.dualCoef[k] * rbf(s.gamma, s.supportNorms[k], norm, sv.DotVector(row))
		}
		out[r] = v
	}
	return out
}

// DecisionFunction returns the signed distance of each row from the
// separating surface. Positive values favor label 1.
func (s *SVC) DecisionFunction(x *tfidf.Matrix) ([]float64, error) {
	if s.sigmoid == nil {
		return nil, ErrNotFitted
	}
	if x.Cols != s.features {
		return nil, fmt.Errorf("matrix has %d columns, model expects %d", x.Cols, s.features)
	}
	return s.decide(x), nil
}

// PredictProba maps decision values through the fitted sigmoid.
func (s *SVC) PredictProba(x *tfidf.Matrix) ([]float64, error) {
	scores, err := s.DecisionFunction(x)
	if err != nil {
		return nil, err
	}
	for i, f := range scores {
		scores[i] = s.sigmoid.Probability(f)
	}
	return scores, nil
}
