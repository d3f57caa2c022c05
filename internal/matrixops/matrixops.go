// Package matrixops provides the small set of dense linear-algebra
// primitives THE CORE needs: transpose, multiply, inverse, slicing, and
// row/column reductions. It is a thin, named wrapper over
// gonum.org/v1/gonum/mat so the rest of the engine depends on a narrow
// vocabulary instead of gonum's full surface.
package matrixops

import (
	"fmt"

	"github.com/aristath/quantport/internal/errs"
	"gonum.org/v1/gonum/mat"
)

// Matrix is a dense N-row by M-column real matrix.
type Matrix struct {
	d *mat.Dense
}

// Vector is a dense length-N real vector, represented as an N x 1 matrix so
// it composes directly with Matrix operations.
type Vector struct {
	d *mat.VecDense
}

// NewMatrix builds a Matrix from row-major data; len(data) must equal rows*cols.
func NewMatrix(rows, cols int, data []float64) (*Matrix, error) {
	if rows <= 0 || cols <= 0 {
		return nil, errs.New(errs.KindShape, "matrixops.NewMatrix", map[string]any{"rows": rows, "cols": cols})
	}
	if len(data) != rows*cols {
		return nil, errs.New(errs.KindShape, "matrixops.NewMatrix", map[string]any{
			"rows": rows, "cols": cols, "len_data": len(data),
		})
	}
	return &Matrix{d: mat.NewDense(rows, cols, append([]float64(nil), data...))}, nil
}

// NewVector builds a Vector from data.
func NewVector(data []float64) *Vector {
	return &Vector{d: mat.NewVecDense(len(data), append([]float64(nil), data...))}
}

// Zeros builds an rows x cols matrix of zeros.
func Zeros(rows, cols int) *Matrix {
	return &Matrix{d: mat.NewDense(rows, cols, nil)}
}

// Dims returns (rows, cols).
func (m *Matrix) Dims() (int, int) { return m.d.Dims() }

// Len returns the vector's length.
func (v *Vector) Len() int { return v.d.Len() }

// At returns element (i, j).
func (m *Matrix) At(i, j int) float64 { return m.d.At(i, j) }

// Set sets element (i, j).
func (m *Matrix) Set(i, j int, v float64) { m.d.Set(i, j, v) }

// AtVec returns element i of the vector.
func (v *Vector) AtVec(i int) float64 { return v.d.AtVec(i) }

// SetVec sets element i of the vector.
func (v *Vector) SetVec(i int, x float64) { v.d.SetVec(i, x) }

// Slice returns data as a flat row-major copy.
func (v *Vector) Slice() []float64 {
	out := make([]float64, v.d.Len())
	for i := range out {
		out[i] = v.d.AtVec(i)
	}
	return out
}

// Raw exposes the underlying gonum dense matrix for packages (covariance,
// solver) that need direct gonum interop without re-deriving it.
func (m *Matrix) Raw() *mat.Dense { return m.d }

// RawVec exposes the underlying gonum vector.
func (v *Vector) RawVec() *mat.VecDense { return v.d }

// Transpose returns the transpose of m.
func (m *Matrix) Transpose() *Matrix {
	r, c := m.d.Dims()
	out := mat.NewDense(c, r, nil)
	out.Copy(m.d.T())
	return &Matrix{d: out}
}

// Multiply returns m * other, failing with ShapeError on mismatched
// inner dimensions.
func (m *Matrix) Multiply(other *Matrix) (*Matrix, error) {
	_, mc := m.d.Dims()
	or, _ := other.d.Dims()
	if mc != or {
		return nil, errs.New(errs.KindShape, "matrixops.Multiply", map[string]any{
			"left_cols": mc, "right_rows": or,
		})
	}
	mr, _ := m.d.Dims()
	_, oc := other.d.Dims()
	out := mat.NewDense(mr, oc, nil)
	out.Mul(m.d, other.d)
	return &Matrix{d: out}, nil
}

// MulVec returns m * v as a length-rows(m) vector.
func (m *Matrix) MulVec(v *Vector) (*Vector, error) {
	_, mc := m.d.Dims()
	if mc != v.d.Len() {
		return nil, errs.New(errs.KindShape, "matrixops.MulVec", map[string]any{
			"cols": mc, "vec_len": v.d.Len(),
		})
	}
	mr, _ := m.d.Dims()
	out := mat.NewVecDense(mr, nil)
	out.MulVec(m.d, v.d)
	return &Vector{d: out}, nil
}

// Dot returns the inner product of two equal-length vectors.
func Dot(a, b *Vector) (float64, error) {
	if a.d.Len() != b.d.Len() {
		return 0, errs.New(errs.KindShape, "matrixops.Dot", map[string]any{
			"len_a": a.d.Len(), "len_b": b.d.Len(),
		})
	}
	return mat.Dot(a.d, b.d), nil
}

// QuadForm returns v^T * M * v for a square matrix M.
func QuadForm(v *Vector, M *Matrix) (float64, error) {
	r, c := M.d.Dims()
	if r != c || r != v.d.Len() {
		return 0, errs.New(errs.KindShape, "matrixops.QuadForm", map[string]any{
			"matrix_rows": r, "matrix_cols": c, "vec_len": v.d.Len(),
		})
	}
	var tmp mat.VecDense
	tmp.MulVec(M.d, v.d)
	return mat.Dot(v.d, &tmp), nil
}

// Inverse returns the matrix inverse, failing with NumericalError when the
// matrix is ill-conditioned (|det| < detFloor) or otherwise singular.
func (m *Matrix) Inverse(detFloor float64) (*Matrix, error) {
	r, c := m.d.Dims()
	if r != c {
		return nil, errs.New(errs.KindShape, "matrixops.Inverse", map[string]any{"rows": r, "cols": c})
	}
	det := mat.Det(m.d)
	if det == 0 || (det > -detFloor && det < detFloor) {
		return nil, errs.New(errs.KindNumerical, "matrixops.Inverse", map[string]any{
			"det": det, "floor": detFloor,
		})
	}
	out := mat.NewDense(r, c, nil)
	if err := out.Inverse(m.d); err != nil {
		return nil, errs.Wrap(errs.KindNumerical, "matrixops.Inverse", map[string]any{"det": det}, err)
	}
	return &Matrix{d: out}, nil
}

// Slice returns the rows [rowStart, rowEnd) and columns [colStart, colEnd) as
// a new matrix, copying the data.
func (m *Matrix) Slice(rowStart, rowEnd, colStart, colEnd int) (*Matrix, error) {
	r, c := m.d.Dims()
	if rowStart < 0 || rowEnd > r || rowStart >= rowEnd || colStart < 0 || colEnd > c || colStart >= colEnd {
		return nil, errs.New(errs.KindShape, "matrixops.Slice", map[string]any{
			"rows": r, "cols": c, "rowStart": rowStart, "rowEnd": rowEnd, "colStart": colStart, "colEnd": colEnd,
		})
	}
	sub := m.d.Slice(rowStart, rowEnd, colStart, colEnd)
	out := mat.NewDense(rowEnd-rowStart, colEnd-colStart, nil)
	out.Copy(sub)
	return &Matrix{d: out}, nil
}

// Column returns column j as a Vector, copying the data.
func (m *Matrix) Column(j int) (*Vector, error) {
	r, c := m.d.Dims()
	if j < 0 || j >= c {
		return nil, errs.New(errs.KindShape, "matrixops.Column", map[string]any{"col": j, "cols": c})
	}
	out := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		out.SetVec(i, m.d.At(i, j))
	}
	return &Vector{d: out}, nil
}

// Row returns row i as a Vector, copying the data.
func (m *Matrix) Row(i int) (*Vector, error) {
	r, c := m.d.Dims()
	if i < 0 || i >= r {
		return nil, errs.New(errs.KindShape, "matrixops.Row", map[string]any{"row": i, "rows": r})
	}
	out := mat.NewVecDense(c, nil)
	for j := 0; j < c; j++ {
		out.SetVec(j, m.d.At(i, j))
	}
	return &Vector{d: out}, nil
}

// ColumnMeans returns the arithmetic mean of each column.
func (m *Matrix) ColumnMeans() []float64 {
	r, c := m.d.Dims()
	means := make([]float64, c)
	for j := 0; j < c; j++ {
		var sum float64
		for i := 0; i < r; i++ {
			sum += m.d.At(i, j)
		}
		means[j] = sum / float64(r)
	}
	return means
}

// Symmetrize averages m with its transpose to absorb floating-point
// asymmetry, matching the covariance estimator's contract.
func (m *Matrix) Symmetrize() (*Matrix, error) {
	r, c := m.d.Dims()
	if r != c {
		return nil, errs.New(errs.KindShape, "matrixops.Symmetrize", map[string]any{"rows": r, "cols": c})
	}
	out := mat.NewDense(r, c, nil)
	out.Add(m.d, m.d.T())
	out.Scale(0.5, out)
	return &Matrix{d: out}, nil
}

// String renders the matrix for debugging/error context.
func (m *Matrix) String() string {
	return fmt.Sprintf("%v", mat.Formatted(m.d))
}
