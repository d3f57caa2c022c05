// Package riskmetrics computes all portfolio risk/performance scalars used
// to validate and report optimiser outputs: tracking error, beta, alpha,
// Sharpe, Sortino, information ratio, maximum drawdown, VaR, expected
// shortfall, and risk contributions, plus rolling volatility, rolling beta
// and a generic Rolling helper for scalar metrics of the return series.
//
// Each metric is its own small function rather than one large calculator
// method; a denominator that can vanish (tracking error, beta variance,
// daily vol) surfaces a typed error instead of returning an undefined
// ratio.
package riskmetrics

import (
	"math"
	"sort"

	"github.com/aristath/quantport/internal/config"
	"github.com/aristath/quantport/internal/errs"
	"github.com/aristath/quantport/internal/matrixops"
	"gonum.org/v1/gonum/stat"
)

// Calculator computes risk/performance metrics for a fixed weight vector
// against a returns panel, covariance, excess returns, excess covariance
// and benchmark series. It is stateless with respect to data.
type Calculator struct {
	params config.RiskParameters
}

// New constructs a Calculator with the given risk parameters.
func New(params config.RiskParameters) *Calculator {
	return &Calculator{params: params}
}

// PortfolioReturns computes p[t] = sum_a w_a * R[t,a] for every day t.
func PortfolioReturns(w []float64, returns *matrixops.Matrix) ([]float64, error) {
	t, n := returns.Dims()
	if n != len(w) {
		return nil, errs.New(errs.KindShape, "riskmetrics.PortfolioReturns", map[string]any{
			"returns_cols": n, "weights_len": len(w),
		})
	}
	p := make([]float64, t)
	for i := 0; i < t; i++ {
		var sum float64
		for a := 0; a < n; a++ {
			sum += w[a] * returns.At(i, a)
		}
		p[i] = sum
	}
	return p, nil
}

// DailyVol returns sqrt(w^T Sigma w).
func (c *Calculator) DailyVol(w []float64, sigma *matrixops.Matrix) (float64, error) {
	v, err := matrixops.QuadForm(matrixops.NewVector(w), sigma)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		v = 0
	}
	return math.Sqrt(v), nil
}

// MonthlyVol scales dailyVol to a monthly figure using sqrt(21).
func MonthlyVol(dailyVol float64) float64 {
	return dailyVol * math.Sqrt(21)
}

// AnnualizedVol annualises dailyVol using sqrt(tradingDaysPerYear).
func AnnualizedVol(dailyVol float64, tradingDaysPerYear int) float64 {
	return dailyVol * math.Sqrt(float64(tradingDaysPerYear))
}

// TrackingError returns sqrt(w^T SigmaExcess w) annualised by
// sqrt(tradingDaysPerYear).
func (c *Calculator) TrackingError(w []float64, sigmaExcess *matrixops.Matrix) (float64, error) {
	v, err := matrixops.QuadForm(matrixops.NewVector(w), sigmaExcess)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		v = 0
	}
	return math.Sqrt(v) * math.Sqrt(float64(c.params.TradingDaysPerYear)), nil
}

// Beta returns cov(p, b)/var(b) using unbiased divisors.
func Beta(p, b []float64) (float64, error) {
	if len(p) != len(b) || len(p) < 2 {
		return 0, errs.New(errs.KindShape, "riskmetrics.Beta", map[string]any{"p_len": len(p), "b_len": len(b)})
	}
	varB := stat.Variance(b, nil)
	if varB == 0 {
		return 0, errs.New(errs.KindDegenerateMetric, "riskmetrics.Beta", map[string]any{"var_benchmark": varB})
	}
	return stat.Covariance(p, b, nil) / varB, nil
}

// Alpha returns p_bar - (riskFree + beta*(b_bar - riskFree)).
func Alpha(pMean, bMean, beta, riskFree float64) float64 {
	return pMean - (riskFree + beta*(bMean-riskFree))
}

// InformationRatio returns (p_bar - riskFree)/trackingError, failing when
// trackingError is non-positive.
func InformationRatio(pMean, riskFree, trackingError float64) (float64, error) {
	if trackingError <= 0 {
		return 0, errs.New(errs.KindDegenerateMetric, "riskmetrics.InformationRatio", map[string]any{"tracking_error": trackingError})
	}
	return (pMean - riskFree) / trackingError, nil
}

// Sharpe returns (p_bar - riskFree)/dailyVol, failing when dailyVol is
// non-positive.
func Sharpe(pMean, riskFree, dailyVol float64) (float64, error) {
	if dailyVol <= 0 {
		return 0, errs.New(errs.KindDegenerateMetric, "riskmetrics.Sharpe", map[string]any{"daily_vol": dailyVol})
	}
	return (pMean - riskFree) / dailyVol, nil
}

// Sortino returns (p_bar - target)/downsideDeviation(p, target).
func Sortino(p []float64, pMean, target float64) (float64, error) {
	dd, err := DownsideDeviation(p, target)
	if err != nil {
		return 0, err
	}
	if dd <= 0 {
		return 0, errs.New(errs.KindDegenerateMetric, "riskmetrics.Sortino", map[string]any{"downside_deviation": dd})
	}
	return (pMean - target) / dd, nil
}

// DownsideDeviation computes sqrt(mean over {p[t] < target} of (target-p[t])^2).
func DownsideDeviation(p []float64, target float64) (float64, error) {
	var sumSq float64
	var count int
	for _, x := range p {
		if x < target {
			d := target - x
			sumSq += d * d
			count++
		}
	}
	if count == 0 {
		return 0, nil
	}
	return math.Sqrt(sumSq / float64(count)), nil
}

// Treynor returns (p_bar - riskFree)/beta, failing when |beta| is too small.
func Treynor(pMean, riskFree, beta float64) (float64, error) {
	if math.Abs(beta) < 1e-6 {
		return 0, errs.New(errs.KindDegenerateMetric, "riskmetrics.Treynor", map[string]any{"beta": beta})
	}
	return (pMean - riskFree) / beta, nil
}

// MaxDrawdown iterates value(0)=1, value(t)=value(t-1)*(1+p[t]), tracking
// the running peak, and returns the maximum (peak-value)/peak observed.
func MaxDrawdown(p []float64) float64 {
	value := 1.0
	peak := 1.0
	maxDD := 0.0
	for _, r := range p {
		value *= 1 + r
		if value > peak {
			peak = value
		}
		if peak > 0 {
			dd := (peak - value) / peak
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// ValueAtRisk sorts p ascending and returns -p at index floor((1-alpha)*T).
// alpha=1 returns the worst observed loss; alpha=0 returns the best
// observation's negation.
func ValueAtRisk(p []float64, alpha float64) (float64, error) {
	if len(p) == 0 {
		return 0, errs.New(errs.KindInput, "riskmetrics.ValueAtRisk", map[string]any{"len": 0})
	}
	sorted := append([]float64(nil), p...)
	sort.Float64s(sorted)
	idx := int(math.Floor((1 - alpha) * float64(len(sorted))))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	if idx < 0 {
		idx = 0
	}
	return -sorted[idx], nil
}

// ExpectedShortfall returns the mean of the alpha-tail (the sorted
// observations from the worst up to and including the one ValueAtRisk
// returns), negated.
func ExpectedShortfall(p []float64, alpha float64) (float64, error) {
	if len(p) == 0 {
		return 0, errs.New(errs.KindInput, "riskmetrics.ExpectedShortfall", map[string]any{"len": 0})
	}
	sorted := append([]float64(nil), p...)
	sort.Float64s(sorted)
	idx := int(math.Floor((1 - alpha) * float64(len(sorted))))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	if idx < 0 {
		idx = 0
	}
	tail := sorted[:idx+1]
	return -stat.Mean(tail, nil), nil
}

// RiskContribution returns the scalar-normalised per-asset risk
// contribution vector (Sigma*w) elementwise-multiplied by w, divided by
// sqrt(w^T Sigma w) — the form used by this engine (as opposed to the
// un-normalised outer-product form).
func RiskContribution(w []float64, sigma *matrixops.Matrix) ([]float64, error) {
	wVec := matrixops.NewVector(w)
	sigW, err := sigma.MulVec(wVec)
	if err != nil {
		return nil, err
	}
	variance, err := matrixops.QuadForm(wVec, sigma)
	if err != nil {
		return nil, err
	}
	if variance <= 0 {
		return nil, errs.New(errs.KindDegenerateMetric, "riskmetrics.RiskContribution", map[string]any{"variance": variance})
	}
	vol := math.Sqrt(variance)
	out := make([]float64, len(w))
	for i := range w {
		out[i] = sigW.AtVec(i) * w[i] / vol
	}
	return out, nil
}
