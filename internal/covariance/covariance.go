// Package covariance estimates the sample covariance of a returns panel
// over a trailing window, and the excess-return covariance against a
// benchmark series.
package covariance

import (
	"github.com/aristath/quantport/internal/errs"
	"github.com/aristath/quantport/internal/matrixops"
	"gonum.org/v1/gonum/stat"
)

// Estimator computes unbiased sample covariance matrices over a window of
// daily returns. It is stateless with respect to data — it consumes the
// window slice by reference and allocates only the output matrix.
type Estimator struct{}

// New constructs an Estimator.
func New() *Estimator { return &Estimator{} }

// Estimate computes the N x N unbiased sample covariance (divisor T'-1,
// per-column mean subtracted) of a T' x N returns window. The result is
// symmetrized by averaging with its transpose to absorb floating-point
// asymmetry.
func (e *Estimator) Estimate(window *matrixops.Matrix) (*matrixops.Matrix, error) {
	t, n := window.Dims()
	if t < 2 {
		return nil, errs.New(errs.KindInput, "covariance.Estimate", map[string]any{"window_size": t})
	}

	cols := make([][]float64, n)
	for j := 0; j < n; j++ {
		col, err := window.Column(j)
		if err != nil {
			return nil, err
		}
		cols[j] = col.Slice()
	}

	cov := matrixops.Zeros(n, n)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			c := stat.Covariance(cols[i], cols[j], nil)
			cov.Set(i, j, c)
			cov.Set(j, i, c)
		}
	}

	return cov.Symmetrize()
}

// EstimateExcess computes the covariance of the excess returns
// window[t,a] - benchmark[t], over the same trailing window. benchmark must
// have length equal to window's row count.
func (e *Estimator) EstimateExcess(window *matrixops.Matrix, benchmark []float64) (*matrixops.Matrix, error) {
	t, n := window.Dims()
	if len(benchmark) != t {
		return nil, errs.New(errs.KindShape, "covariance.EstimateExcess", map[string]any{
			"window_rows": t, "benchmark_len": len(benchmark),
		})
	}

	excessData := make([]float64, 0, t*n)
	for i := 0; i < t; i++ {
		for j := 0; j < n; j++ {
			excessData = append(excessData, window.At(i, j)-benchmark[i])
		}
	}
	excess, err := matrixops.NewMatrix(t, n, excessData)
	if err != nil {
		return nil, err
	}
	return e.Estimate(excess)
}
