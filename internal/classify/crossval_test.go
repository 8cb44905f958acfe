package classify

import (
	"testing"

	"github.com/chriscorrea/evergreen/internal/tfidf"
	"github.com/stretchr/testify/require"
)

func TestStratifiedFolds(t *testing.T) {
	y := []int{1, 1, 1, 0, 0, 0}

	folds, err := StratifiedFolds(y, 3)
	require.NoError(t, err)
	require.Len(t, folds, 3)

	require.Equal(t, []int{0, 3}, folds[0].Test)
	require.Equal(t, []int{1, 2, 4, 5}, folds[0].Train)
	require.Equal(t, []int{1, 4}, folds[1].Test)
	require.Equal(t, []int{2, 5}, folds[2].Test)

	// every row is held out exactly once
	held := make(map[int]int)
	for _, f := range folds {
		require.Len(t, f.Train, len(y)-len(f.Test))
		for _, i := range f.Test {
			held[i]++
		}
	}
	require.Len(t, held, len(y))
}

func TestStratifiedFoldsTooFew(t *testing.T) {
	_, err := StratifiedFolds([]int{1, 0, 1}, 10)
	require.ErrorIs(t, err, ErrTooFewSamples)

	_, err = StratifiedFolds([]int{1, 0, 1, 0}, 1)
	require.ErrorIs(t, err, ErrTooFewSamples)
}

func TestAUC(t *testing.T) {
	tests := []struct {
		name   string
		scores []float64
		labels []int
		want   float64
	}{
		{"perfect", []float64{0.1, 0.2, 0.8, 0.9}, []int{0, 0, 1, 1}, 1},
		{"inverted", []float64{0.9, 0.8, 0.2, 0.1}, []int{0, 0, 1, 1}, 0},
		{"mixed", []float64{0.1, 0.35, 0.4, 0.8}, []int{1, 0, 1, 0}, 0.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AUC(tt.scores, tt.labels)
			require.NoError(t, err)
			require.InDelta(t, tt.want, got, 1e-12)
		})
	}

	_, err := AUC([]float64{0.1, 0.2}, []int{1, 1})
	require.ErrorIs(t, err, ErrSingleClass)
}

func TestAUCDoesNotReorderInput(t *testing.T) {
	scores := []float64{0.9, 0.1, 0.5}
	_, err := AUC(scores, []int{1, 0, 1})
	require.NoError(t, err)
	require.Equal(t, []float64{0.9, 0.1, 0.5}, scores)
}

func TestCrossValidate(t *testing.T) {
	x, y := separable(10)

	for _, kind := range []Kind{Logit, NaiveBayes} {
		score, err := CrossValidate(kind, x, y, 5)
		require.NoError(t, err, kind.String())
		require.InDelta(t, 1.0, score, 1e-9, kind.String())
	}

	_, err := CrossValidate(Logit, x, y, 11)
	require.ErrorIs(t, err, ErrTooFewSamples)
}

func TestSelectFeatures(t *testing.T) {
	model := &Logistic{Coef: []float64{0.5, -2, 0.1, 1.4}}

	sel := SelectFeatures(model)
	require.Equal(t, []int{1, 3}, sel.Columns)
	require.Equal(t, 4, sel.Total)

	m := tfidf.NewMatrix([]tfidf.Vector{
		{Indices: []int{0, 1, 3}, Values: []float64{1, 2, 3}},
		{Indices: []int{2}, Values: []float64{4}},
	}, 4)
	reduced := sel.Apply(m)
	require.Equal(t, 2, reduced.Cols)
	require.Equal(t, []float64{2, 3}, reduced.Dense(0))
	require.Equal(t, []float64{0, 0}, reduced.Dense(1))

	// equal weights are all at the mean
	require.Equal(t, []int{0, 1}, SelectFeatures(&Logistic{Coef: []float64{1, -1}}).Columns)
	require.Empty(t, SelectFeatures(&Logistic{}).Columns)
}

func TestRun(t *testing.T) {
	train, y := separable(10)
	test := tfidf.NewMatrix([]tfidf.Vector{
		{Indices: []int{0}, Values: []float64{1}},
		{Indices: []int{1}, Values: []float64{1}},
	}, 2)

	for _, kind := range []Kind{Logit, SVM, NaiveBayes} {
		t.Run(kind.String(), func(t *testing.T) {
			result, err := Run(kind, train, test, y, 5)
			require.NoError(t, err)
			require.NoError(t, result.CVErr)
			require.Len(t, result.Train, len(y))
			require.Len(t, result.Test, 2)
			require.Greater(t, result.Test[0], result.Test[1])
			require.Greater(t, result.CVScore, 0.5)
		})
	}
}

func TestRunWithoutCrossValidation(t *testing.T) {
	train := tfidf.NewMatrix([]tfidf.Vector{
		{Indices: []int{0}, Values: []float64{1}},
		{Indices: []int{1}, Values: []float64{1}},
		{Indices: []int{0}, Values: []float64{1}},
	}, 2)
	test := tfidf.NewMatrix([]tfidf.Vector{{}, {Indices: []int{0}, Values: []float64{1}}}, 2)

	result, err := Run(Logit, train, test, []int{1, 0, 1}, 10)
	require.NoError(t, err)
	require.True(t, IsCVUnavailable(result.CVErr))
	require.Len(t, result.Train, 3)
	require.Len(t, result.Test, 2)
}

func TestRunColumnMismatch(t *testing.T) {
	train, y := separable(3)
	_, err := Run(Logit, train, tfidf.NewMatrix(nil, 3), y, 2)
	require.Error(t, err)
}
