package tfidf

import "sort"

// Vector is a sparse row. Indices are strictly increasing column indices
// and Values holds the matching non-zero entries.
type Vector struct {
	Indices []int
	Values  []float64
}

// Dot returns the inner product of v with the dense vector w.
func (v Vector) Dot(w []float64) float64 {
	var sum float64
	for k, j := range v.Indices {
		sum += v.Values[k] * w[j]
	}
	return sum
}

// DotVector returns the inner product of two sparse vectors.
func (v Vector) DotVector(o Vector) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(v.Indices) && j < len(o.Indices) {
		switch {
		case v.Indices[i] == o.Indices[j]:
			sum += v.Values[i] * o.Values[j]
			i++
			j++
		case v.Indices[i] < o.Indices[j]:
			i++
		default:
			j++
		}
	}
	return sum
}

// SquaredNorm returns the squared Euclidean norm of v.
func (v Vector) SquaredNorm() float64 {
	var sum float64
	for _, x := range v.Values {
		sum += x * x
	}
	return sum
}

// Matrix is a sparse row-major matrix.
type Matrix struct {
	Rows []Vector
	Cols int
}

// NewMatrix returns a matrix with the given rows and column count.
func NewMatrix(rows []Vector, cols int) *Matrix {
	return &Matrix{Rows: rows, Cols: cols}
}

// NumRows returns the number of rows.
func (m *Matrix) NumRows() int {
	return len(m.Rows)
}

// Slice returns rows [from, to) sharing storage with m. It panics when the
// range is out of bounds, like slicing the rows directly.
func (m *Matrix) Slice(from, to int) *Matrix {
	return &Matrix{Rows: m.Rows[from:to], Cols: m.Cols}
}

// SelectRows returns the rows at idx, in that order.
func (m *Matrix) SelectRows(idx []int) *Matrix {
	rows := make([]Vector, len(idx))
	for i, r := range idx {
		rows[i] = m.Rows[r]
	}
	return &Matrix{Rows: rows, Cols: m.Cols}
}

// SelectColumns projects m onto cols, renumbering them 0..len(cols)-1.
// cols must be strictly increasing.
func (m *Matrix) SelectColumns(cols []int) *Matrix {
	remap := make(map[int]int, len(cols))
	for i, c := range cols {
		remap[c] = i
	}

	rows := make([]Vector, len(m.Rows))
	for r, row := range m.Rows {
		var out Vector
		for k, j := range row.Indices {
			if nj, ok := remap[j]; ok {
				out.Indices = append(out.Indices, nj)
				out.Values = append(out.Values, row.Values[k])
			}
		}
		rows[r] = out
	}
	return &Matrix{Rows: rows, Cols: len(cols)}
}

// Dense returns row r as a dense slice.
func (m *Matrix) Dense(r int) []float64 {
	out := make([]float64, m.Cols)
	for k, j := range m.Rows[r].Indices {
		out[j] = m.Rows[r].Values[k]
	}
	return out
}

// vectorFromCounts builds a sorted sparse vector from a column->value map.
func vectorFromCounts(counts map[int]float64) Vector {
	v := Vector{
		Indices: make([]int, 0, len(counts)),
		Values:  make([]float64, 0, len(counts)),
	}
	for j := range counts {
		v.Indices = append(v.Indices, j)
	}
	sort.Ints(v.Indices)
	for _, j := range v.Indices {
		v.Values = append(v.Values, counts[j])
	}
	return v
}
