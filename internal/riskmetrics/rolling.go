package riskmetrics

import (
	"github.com/aristath/quantport/internal/errs"
	"gonum.org/v1/gonum/stat"
)

// RollingScalar is a scalar calculation that Rolling applies to each
// overlapping window of p; it sees only the portfolio-return window.
type RollingScalar func(pWindow []float64) (float64, error)

// Rolling applies fn to every overlapping window of size w in p. A metric
// that fails on one window (e.g. zero variance) is recorded as an error for
// that index rather than aborting the whole series.
func Rolling(p []float64, w int, fn RollingScalar) ([]float64, []error) {
	if w <= 0 || w > len(p) {
		return nil, []error{errs.New(errs.KindInput, "riskmetrics.Rolling", map[string]any{"window": w, "len": len(p)})}
	}
	n := len(p) - w + 1
	out := make([]float64, n)
	errsOut := make([]error, n)
	for i := 0; i < n; i++ {
		v, err := fn(p[i : i+w])
		out[i] = v
		errsOut[i] = err
	}
	return out, errsOut
}

// RollingVol computes rolling daily volatility (the sample standard
// deviation of portfolio returns) over overlapping windows of size
// windowSize.
func RollingVol(p []float64, windowSize int) ([]float64, []error) {
	return Rolling(p, windowSize, func(pWindow []float64) (float64, error) {
		if len(pWindow) < 2 {
			return 0, errs.New(errs.KindInput, "riskmetrics.RollingVol", map[string]any{"window": len(pWindow)})
		}
		return stat.StdDev(pWindow, nil), nil
	})
}

// RollingBeta computes rolling beta of the portfolio return series p
// against the aligned benchmark series b over overlapping windows of size
// windowSize, producing len(p)-windowSize+1 values. p is passed in
// explicitly (callers build it from fixed weights with PortfolioReturns);
// the function takes no weights and captures no ambient weights value.
func RollingBeta(p, b []float64, windowSize int) ([]float64, []error) {
	if len(p) != len(b) {
		return nil, []error{errs.New(errs.KindShape, "riskmetrics.RollingBeta", map[string]any{"p_len": len(p), "b_len": len(b)})}
	}
	if windowSize <= 0 || windowSize > len(p) {
		return nil, []error{errs.New(errs.KindInput, "riskmetrics.RollingBeta", map[string]any{"window": windowSize, "len": len(p)})}
	}
	n := len(p) - windowSize + 1
	out := make([]float64, n)
	errsOut := make([]error, n)
	for i := 0; i < n; i++ {
		beta, err := Beta(p[i:i+windowSize], b[i:i+windowSize])
		out[i] = beta
		errsOut[i] = err
	}
	return out, errsOut
}
