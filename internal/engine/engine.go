// Package engine provides the PortfolioEngine facade: it owns the
// returns/excess/benchmark panels, the sector map and ADV vector, and
// wires the covariance estimator, solver, cost model, constraints
// projector and risk calculator into a single optimise(period) pipeline.
package engine

import (
	"github.com/aristath/quantport/internal/config"
	"github.com/aristath/quantport/internal/constraints"
	"github.com/aristath/quantport/internal/costmodel"
	"github.com/aristath/quantport/internal/covariance"
	"github.com/aristath/quantport/internal/errs"
	"github.com/aristath/quantport/internal/matrixops"
	"github.com/aristath/quantport/internal/riskmetrics"
	"github.com/aristath/quantport/internal/solver"
	"gonum.org/v1/gonum/floats"
)

// Metrics bundles the risk/performance scalars computed for one set of
// accepted weights. A metric whose calculation returns an error (for
// example a zero denominator) is left at zero.
type Metrics struct {
	DailyVol          float64
	MonthlyVol        float64
	AnnualizedVol     float64
	TrackingError     float64
	PortfolioMean     float64
	Beta              float64
	Alpha             float64
	InformationRatio  float64
	Sharpe            float64
	Sortino           float64
	Treynor           float64
	MaxDrawdown       float64
	ValueAtRisk95     float64
	ExpectedShortfall float64
	RiskContribution  []float64
}

// Result is the published, read-only outcome of one optimise(period) call.
type Result struct {
	Period         int
	WindowStart    int
	WindowEnd      int
	TEWeights      []float64
	MPTWeights     []float64
	Sigma          *matrixops.Matrix
	SigmaExcess    *matrixops.Matrix
	TEFrontier     []solver.FrontierPoint
	MPTFrontier    []solver.FrontierPoint
	TEMetrics      Metrics
	MPTMetrics     Metrics
	ConstraintInfo constraints.Status

	// MPTPortfolioReturns and BenchmarkWindow are the per-day series
	// underlying MPTMetrics, aligned index-for-index, exposed so that
	// rolling-window reports can be assembled outside the core.
	MPTPortfolioReturns []float64
	BenchmarkWindow     []float64
}

// Engine owns the panels and collaborators for one portfolio.
type Engine struct {
	returns     *matrixops.Matrix // T x N
	benchmark   []float64         // T
	excess      *matrixops.Matrix // T x N, E[t,a] = R[t,a] - b[t]
	sectorOf    map[int]string
	adv         []float64
	portfolioV  float64
	dates       []string

	engineCfg  config.EngineConfig
	costCfg    config.CostParameters
	limits     config.ConstraintLimits
	riskParams config.RiskParameters

	estimator *covariance.Estimator
	costs     *costmodel.Model
	projector *constraints.Projector
	risk      *riskmetrics.Calculator

	currentWeights []float64
	lastResult     *Result
}

// Params bundles everything needed to construct an Engine.
type Params struct {
	Returns    *matrixops.Matrix
	Benchmark  []float64
	Dates      []string
	SectorOf   map[int]string
	ADV        []float64
	PortfolioV float64

	EngineConfig     config.EngineConfig
	CostParameters   config.CostParameters
	ConstraintLimits config.ConstraintLimits
	RiskParameters   config.RiskParameters
}

// New constructs an Engine, deriving the excess-returns panel and
// initialising current weights to an equal-weight vector.
func New(p Params) (*Engine, error) {
	t, n := p.Returns.Dims()
	if len(p.Benchmark) != t {
		return nil, errs.New(errs.KindShape, "engine.New", map[string]any{"returns_rows": t, "benchmark_len": len(p.Benchmark)})
	}
	if len(p.Dates) != t {
		return nil, errs.New(errs.KindShape, "engine.New", map[string]any{"returns_rows": t, "dates_len": len(p.Dates)})
	}
	if len(p.ADV) != n {
		return nil, errs.New(errs.KindShape, "engine.New", map[string]any{"returns_cols": n, "adv_len": len(p.ADV)})
	}

	excess := matrixops.Zeros(t, n)
	for i := 0; i < t; i++ {
		for a := 0; a < n; a++ {
			excess.Set(i, a, p.Returns.At(i, a)-p.Benchmark[i])
		}
	}

	equalWeight := make([]float64, n)
	for i := range equalWeight {
		equalWeight[i] = 1.0 / float64(n)
	}

	return &Engine{
		returns:        p.Returns,
		benchmark:      p.Benchmark,
		excess:         excess,
		sectorOf:       p.SectorOf,
		adv:            p.ADV,
		portfolioV:     p.PortfolioV,
		dates:          p.Dates,
		engineCfg:      p.EngineConfig,
		costCfg:        p.CostParameters,
		limits:         p.ConstraintLimits,
		riskParams:     p.RiskParameters,
		estimator:      covariance.New(),
		costs:          costmodel.New(p.CostParameters),
		projector:      constraints.New(p.ConstraintLimits),
		risk:           riskmetrics.New(p.RiskParameters),
		currentWeights: equalWeight,
	}, nil
}

// CurrentWeights returns a copy of the engine's currently held weights.
func (e *Engine) CurrentWeights() []float64 {
	return append([]float64(nil), e.currentWeights...)
}

// SetCurrentWeights replaces the engine's held weights (used by the
// rebalancer after an accepted swap).
func (e *Engine) SetCurrentWeights(w []float64) {
	e.currentWeights = append([]float64(nil), w...)
}

// LastResult returns the most recent optimise() output, or nil if
// optimise has not yet been called.
func (e *Engine) LastResult() *Result {
	return e.lastResult
}

// DateAt returns the input date string for row i.
func (e *Engine) DateAt(i int) string {
	return e.dates[i]
}

// NumPeriods returns the number of complete TradingDaysPerMonth windows
// available in the returns panel.
func (e *Engine) NumPeriods() int {
	t, _ := e.returns.Dims()
	return t / e.engineCfg.TradingDaysPerMonth
}

// Optimise slices the trailing window ending at
// (period+1)*TradingDaysPerMonth (capped at the panel length), so period 0
// ends after the first month; it then refits covariances, solves both the
// tracking-error and mean-variance objectives, sweeps both frontiers,
// projects the MPT weights onto the feasible set, and computes metrics
// for both weight vectors. It does not mutate current weights — that is
// the rebalancer's decision.
func (e *Engine) Optimise(period int) (*Result, error) {
	t, n := e.returns.Dims()
	tdpm := e.engineCfg.TradingDaysPerMonth
	windowEnd := (period + 1) * tdpm
	if windowEnd > t {
		windowEnd = t
	}
	windowStart := windowEnd - e.engineCfg.WindowSize
	if windowStart < 0 {
		windowStart = 0
	}
	if windowStart >= windowEnd {
		return nil, errs.New(errs.KindInput, "engine.Optimise", map[string]any{"period": period, "window_start": windowStart, "window_end": windowEnd})
	}

	returnsWindow, err := e.returns.Slice(windowStart, windowEnd, 0, n)
	if err != nil {
		return nil, err
	}
	excessWindow, err := e.excess.Slice(windowStart, windowEnd, 0, n)
	if err != nil {
		return nil, err
	}
	benchmarkWindow := e.benchmark[windowStart:windowEnd]

	sigma, err := e.estimator.Estimate(returnsWindow)
	if err != nil {
		return nil, err
	}
	sigmaExcess, err := e.estimator.Estimate(excessWindow)
	if err != nil {
		return nil, err
	}

	muR := returnsWindow.ColumnMeans()
	muE := excessWindow.ColumnMeans()
	u := solver.UnitVector(n)

	teSolution, err := solver.Solve(muE, sigmaExcess, u, e.engineCfg.TargetDailyReturn)
	if err != nil {
		return nil, err
	}
	mptSolution, err := solver.Solve(muR, sigma, u, e.engineCfg.TargetDailyReturn)
	if err != nil {
		return nil, err
	}

	teFrontier := solver.Sweep(muE, sigmaExcess, nil, u, e.engineCfg.FrontierMin, e.engineCfg.FrontierMax, e.engineCfg.FrontierPoints)

	mptMin, mptMax := floats.Min(muR), floats.Max(muR)
	mptFrontier := solver.Sweep(muR, sigma, sigmaExcess, u, mptMin, mptMax, e.engineCfg.FrontierPoints)

	teReturns, err := riskmetrics.PortfolioReturns(teSolution.Weights, returnsWindow)
	if err != nil {
		return nil, err
	}
	projected, status, err := e.projector.Project(mptSolution.Weights, constraints.Inputs{
		Current:       e.currentWeights,
		Sigma:         sigma,
		SigmaExcess:   sigmaExcess,
		ReturnsWindow: returnsWindow,
		Benchmark:     benchmarkWindow,
		SectorOf:      e.sectorOf,
		ADV:           e.adv,
		PortfolioVal:  e.portfolioV,
	})
	if err != nil {
		return nil, err
	}
	mptReturns, err := riskmetrics.PortfolioReturns(projected, returnsWindow)
	if err != nil {
		return nil, err
	}

	teMetrics, err := e.computeMetrics(teSolution.Weights, teReturns, benchmarkWindow, sigma, sigmaExcess)
	if err != nil {
		return nil, err
	}
	mptMetrics, err := e.computeMetrics(projected, mptReturns, benchmarkWindow, sigma, sigmaExcess)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Period:              period,
		WindowStart:         windowStart,
		WindowEnd:           windowEnd,
		TEWeights:           teSolution.Weights,
		MPTWeights:          projected,
		Sigma:               sigma,
		SigmaExcess:         sigmaExcess,
		TEFrontier:          teFrontier,
		MPTFrontier:         mptFrontier,
		TEMetrics:           teMetrics,
		MPTMetrics:          mptMetrics,
		ConstraintInfo:      status,
		MPTPortfolioReturns: mptReturns,
		BenchmarkWindow:     benchmarkWindow,
	}
	e.lastResult = result
	return result, nil
}

// CostModel exposes the engine's configured transaction-cost model to
// collaborators (the rebalancer).
func (e *Engine) CostModel() *costmodel.Model {
	return e.costs
}

// ADV returns the engine's average daily volume vector.
func (e *Engine) ADV() []float64 {
	return e.adv
}

// PortfolioValue returns the portfolio notional used for cost estimation.
func (e *Engine) PortfolioValue() float64 {
	return e.portfolioV
}

func (e *Engine) computeMetrics(w, portfolioReturns, benchmarkWindow []float64, sigma, sigmaExcess *matrixops.Matrix) (Metrics, error) {
	var m Metrics

	dailyVol, err := e.risk.DailyVol(w, sigma)
	if err != nil {
		return m, err
	}
	m.DailyVol = dailyVol
	m.MonthlyVol = riskmetrics.MonthlyVol(dailyVol)
	m.AnnualizedVol = riskmetrics.AnnualizedVol(dailyVol, e.riskParams.TradingDaysPerYear)

	pMean := mean(portfolioReturns)
	bMean := mean(benchmarkWindow)
	m.PortfolioMean = pMean

	if te, err := e.risk.TrackingError(w, sigmaExcess); err == nil {
		m.TrackingError = te
	}

	if beta, err := riskmetrics.Beta(portfolioReturns, benchmarkWindow); err == nil {
		m.Beta = beta
		m.Alpha = riskmetrics.Alpha(pMean, bMean, beta, e.riskParams.RiskFreeRate)
		if treynor, err := riskmetrics.Treynor(pMean, e.riskParams.RiskFreeRate, beta); err == nil {
			m.Treynor = treynor
		}
	}

	if ir, err := riskmetrics.InformationRatio(pMean, e.riskParams.RiskFreeRate, m.TrackingError); err == nil {
		m.InformationRatio = ir
	}
	if sharpe, err := riskmetrics.Sharpe(pMean, e.riskParams.RiskFreeRate, dailyVol); err == nil {
		m.Sharpe = sharpe
	}
	if sortino, err := riskmetrics.Sortino(portfolioReturns, pMean, e.riskParams.TargetReturn); err == nil {
		m.Sortino = sortino
	}

	m.MaxDrawdown = riskmetrics.MaxDrawdown(portfolioReturns)
	if vAR, err := riskmetrics.ValueAtRisk(portfolioReturns, e.riskParams.VaRConfidence); err == nil {
		m.ValueAtRisk95 = vAR
	}
	if es, err := riskmetrics.ExpectedShortfall(portfolioReturns, e.riskParams.VaRConfidence); err == nil {
		m.ExpectedShortfall = es
	}
	if rc, err := riskmetrics.RiskContribution(w, sigma); err == nil {
		m.RiskContribution = rc
	}

	return m, nil
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return floats.Sum(xs) / float64(len(xs))
}
