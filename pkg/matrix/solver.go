// Package matrix wraps the sparse LU factorization used for the susceptance
// solves of the linear analyses. Indices are 0-based on the public API and
// translated to the library's 1-based convention internally.
package matrix

import (
	"fmt"

	"github.com/edp1096/sparse"
)

// SystemMatrix is a real square sparse matrix with an LU factorization.
// Elements accumulate: repeated AddElement calls on the same position sum.
type SystemMatrix struct {
	Size int

	matrix   *sparse.Matrix
	config   *sparse.Configuration
	factored bool
}

func NewSystemMatrix(size int) (*SystemMatrix, error) {
	config := &sparse.Configuration{
		Real:           true,
		Complex:        false,
		Expandable:     true,
		ModifiedNodal:  false,
		TiesMultiplier: 5,
		PrinterWidth:   140,
	}

	m, err := sparse.Create(int64(size), config)
	if err != nil {
		return nil, fmt.Errorf("creating sparse matrix: %w", err)
	}
	return &SystemMatrix{Size: size, matrix: m, config: config}, nil
}

// AddElement accumulates value at (i, j), 0-based.
func (m *SystemMatrix) AddElement(i, j int, value float64) {
	m.matrix.GetElement(int64(i+1), int64(j+1)).Real += value
	m.factored = false
}

// Factor computes the LU factorization. It runs implicitly on the first
// Solve; calling it separately lets the caller surface singularity early.
func (m *SystemMatrix) Factor() error {
	if err := m.matrix.Factor(); err != nil {
		return fmt.Errorf("matrix factorization failed: %w", err)
	}
	m.factored = true
	return nil
}

// Solve returns x with A x = b. b is 0-based with length Size; the
// factorization is reused across calls until the matrix changes.
func (m *SystemMatrix) Solve(b []float64) ([]float64, error) {
	if len(b) != m.Size {
		return nil, fmt.Errorf("rhs length %d, want %d", len(b), m.Size)
	}
	if !m.factored {
		if err := m.Factor(); err != nil {
			return nil, err
		}
	}

	rhs := make([]float64, m.Size+1) // 1-based
	copy(rhs[1:], b)

	sol, err := m.matrix.Solve(rhs)
	if err != nil {
		return nil, fmt.Errorf("matrix solve failed: %w", err)
	}

	x := make([]float64, m.Size)
	copy(x, sol[1:m.Size+1])
	return x, nil
}

// SolveMany solves A X = B column by column, reusing the factorization.
func (m *SystemMatrix) SolveMany(cols [][]float64) ([][]float64, error) {
	out := make([][]float64, len(cols))
	for k, b := range cols {
		x, err := m.Solve(b)
		if err != nil {
			return nil, err
		}
		out[k] = x
	}
	return out, nil
}

// Clear zeroes the matrix values while keeping the sparsity pattern.
func (m *SystemMatrix) Clear() {
	m.matrix.Clear()
	m.factored = false
}

// Destroy releases the underlying storage. The matrix is unusable afterwards.
func (m *SystemMatrix) Destroy() {
	m.matrix.Destroy()
}
