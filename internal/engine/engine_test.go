package engine

import (
	"math"
	"testing"

	"github.com/aristath/quantport/internal/config"
	"github.com/aristath/quantport/internal/matrixops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func syntheticPanel(t *testing.T, rows, cols int) (*matrixops.Matrix, []float64, []string) {
	t.Helper()
	data := make([]float64, rows*cols)
	bench := make([]float64, rows)
	dates := make([]string, rows)
	for i := 0; i < rows; i++ {
		bench[i] = 0.0003 * float64((i%5)-2)
		dates[i] = "1/1/2020"
		for a := 0; a < cols; a++ {
			data[i*cols+a] = 0.0005*float64(a+1) + 0.0001*float64((i+a)%7-3)
		}
	}
	m, err := matrixops.NewMatrix(rows, cols, data)
	require.NoError(t, err)
	return m, bench, dates
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	n := 4
	rows := 120
	returns, bench, dates := syntheticPanel(t, rows, n)
	adv := []float64{1e9, 1e9, 1e9, 1e9}
	sectorOf := map[int]string{0: "tech", 1: "tech", 2: "health", 3: "health"}

	limits := config.DefaultConstraintLimits()
	limits.MaxPositionSize = 1
	limits.MinPositionSize = -1
	limits.MaxShortExposure = 1
	limits.MaxSectorExposure = 1
	limits.MaxVolatility = 1
	limits.MaxTurnover = 1
	limits.EnableTrackingErrorCheck = false
	limits.MinPositions = 1
	limits.MaxPositions = n

	eng, err := New(Params{
		Returns:          returns,
		Benchmark:        bench,
		Dates:            dates,
		SectorOf:         sectorOf,
		ADV:              adv,
		PortfolioV:       1e6,
		EngineConfig:     config.DefaultEngineConfig(),
		CostParameters:   config.DefaultCostParameters(),
		ConstraintLimits: limits,
		RiskParameters:   config.DefaultRiskParameters(),
	})
	require.NoError(t, err)
	return eng
}

func TestNewDerivesExcessReturnsAndEqualWeights(t *testing.T) {
	eng := newTestEngine(t)
	w := eng.CurrentWeights()
	require.Len(t, w, 4)
	for _, wi := range w {
		assert.InDelta(t, 0.25, wi, 1e-12)
	}
	assert.InDelta(t, eng.returns.At(3, 2)-eng.benchmark[3], eng.excess.At(3, 2), 1e-15)
}

func TestNewRejectsShapeMismatch(t *testing.T) {
	returns, bench, dates := syntheticPanel(t, 10, 3)
	_, err := New(Params{
		Returns:          returns,
		Benchmark:        bench[:5],
		Dates:            dates,
		SectorOf:         map[int]string{0: "a", 1: "a", 2: "a"},
		ADV:              []float64{1, 1, 1},
		EngineConfig:     config.DefaultEngineConfig(),
		CostParameters:   config.DefaultCostParameters(),
		ConstraintLimits: config.DefaultConstraintLimits(),
		RiskParameters:   config.DefaultRiskParameters(),
	})
	assert.Error(t, err)
}

func TestOptimiseProducesBothWeightVectorsSummingToOne(t *testing.T) {
	eng := newTestEngine(t)
	eng.engineCfg.WindowSize = 60

	result, err := eng.Optimise(4)
	require.NoError(t, err)

	var teSum, mptSum float64
	for _, w := range result.TEWeights {
		teSum += w
	}
	for _, w := range result.MPTWeights {
		mptSum += w
	}
	assert.InDelta(t, 1.0, teSum, 1e-6)
	assert.InDelta(t, 1.0, mptSum, 1e-6)
	require.Len(t, result.TEFrontier, eng.engineCfg.FrontierPoints)
	require.Len(t, result.MPTFrontier, eng.engineCfg.FrontierPoints)
	assert.True(t, result.ConstraintInfo.Feasible)
}

func TestOptimiseDoesNotMutateCurrentWeights(t *testing.T) {
	eng := newTestEngine(t)
	eng.engineCfg.WindowSize = 60
	before := eng.CurrentWeights()

	_, err := eng.Optimise(4)
	require.NoError(t, err)

	after := eng.CurrentWeights()
	assert.Equal(t, before, after)
}

func TestNumPeriodsDividesByTradingDaysPerMonth(t *testing.T) {
	eng := newTestEngine(t)
	assert.Equal(t, 120/eng.engineCfg.TradingDaysPerMonth, eng.NumPeriods())
}

// TestComputeMetricsRoutesSigmaAndSigmaExcessSeparately pins DailyVol to
// Sigma and TrackingError to SigmaExcess using two matrices with distinct,
// known quadratic forms against the same weight vector.
func TestComputeMetricsRoutesSigmaAndSigmaExcessSeparately(t *testing.T) {
	eng := newTestEngine(t)
	w := []float64{1, 0, 0, 0}

	sigma, err := matrixops.NewMatrix(4, 4, []float64{
		0.04, 0, 0, 0,
		0, 0.04, 0, 0,
		0, 0, 0.04, 0,
		0, 0, 0, 0.04,
	})
	require.NoError(t, err)
	sigmaExcess, err := matrixops.NewMatrix(4, 4, []float64{
		0.09, 0, 0, 0,
		0, 0.09, 0, 0,
		0, 0, 0.09, 0,
		0, 0, 0, 0.09,
	})
	require.NoError(t, err)

	portfolioReturns := []float64{0.01, -0.01, 0.02, -0.02, 0.01}
	benchmark := []float64{0.005, -0.005, 0.01, -0.01, 0.005}

	m, err := eng.computeMetrics(w, portfolioReturns, benchmark, sigma, sigmaExcess)
	require.NoError(t, err)

	assert.InDelta(t, 0.2, m.DailyVol, 1e-9)
	assert.InDelta(t, 0.3*math.Sqrt(float64(eng.riskParams.TradingDaysPerYear)), m.TrackingError, 1e-6)
}
