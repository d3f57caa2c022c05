package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aristath/quantport/internal/engine"
	"github.com/aristath/quantport/internal/solver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *engine.Result {
	return &engine.Result{
		Period:     3,
		TEWeights:  []float64{0.2, 0.3, 0.5},
		MPTWeights: []float64{0.25, 0.25, 0.5},
		TEFrontier: []solver.FrontierPoint{
			{TargetReturn: 0.001, PortfolioVolatility: 0.01, TrackingError: 0.02},
			{TargetReturn: 0.002, Err: assertErr()},
		},
		MPTFrontier: []solver.FrontierPoint{
			{TargetReturn: 0.001, PortfolioVolatility: 0.015},
		},
		TEMetrics:  engine.Metrics{DailyVol: 0.01, Sharpe: 1.2},
		MPTMetrics: engine.Metrics{DailyVol: 0.012, Sharpe: 1.1, Beta: 0.9, Alpha: 0.001},
	}
}

func assertErr() error {
	return os.ErrInvalid
}

func TestWritePortfolioCSVContainsWeightsAndMetrics(t *testing.T) {
	dir := t.TempDir()
	path, err := WritePortfolioCSV(dir, "1/2/2020", sampleResult(), nil)
	require.NoError(t, err)

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(contents)

	assert.Contains(t, text, "asset_1")
	assert.Contains(t, text, "mpt_daily_vol")
	assert.Contains(t, text, "tracking_error_daily_vol")
	assert.Contains(t, text, "frontier_kind")
	assert.True(t, strings.Contains(filepath.Base(path), "portfolio_1-2-2020.csv"))
}

func TestWritePortfolioCSVOmitsFailedFrontierPoints(t *testing.T) {
	dir := t.TempDir()
	path, err := WritePortfolioCSV(dir, "1/2/2020", sampleResult(), nil)
	require.NoError(t, err)

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	// The second TE frontier point carries an Err and must not appear.
	assert.NotContains(t, string(contents), "0.00200000")
}

func TestWriteRiskReportTxtIncludesSectorExposures(t *testing.T) {
	dir := t.TempDir()
	result := sampleResult()
	sectorOf := map[int]string{0: "tech", 1: "tech", 2: "health"}

	path, err := WriteRiskReportTxt(dir, "1/2/2020", result, sectorOf, 0.0005, nil)
	require.NoError(t, err)

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(contents)
	assert.Contains(t, text, "Sector exposures:")
	assert.Contains(t, text, "tech")
	assert.Contains(t, text, "health")
	assert.Contains(t, text, "Transaction cost est.")
}

func TestWriteFinalAnalysisCSVWritesFinalWeights(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteFinalAnalysisCSV(dir, sampleResult(), nil)
	require.NoError(t, err)
	assert.Equal(t, "final_portfolio_analysis.csv", filepath.Base(path))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(contents), "final_weight")
}

func TestDefaultAssetNamerIsOneIndexed(t *testing.T) {
	assert.Equal(t, "asset_1", DefaultAssetNamer(0))
	assert.Equal(t, "asset_3", DefaultAssetNamer(2))
}

func TestWriteRollingMetricsCSVWritesOneRowPerWindow(t *testing.T) {
	dir := t.TempDir()
	result := sampleResult()
	result.MPTPortfolioReturns = []float64{0.01, -0.01, 0.02, -0.02, 0.015, -0.005}
	result.BenchmarkWindow = []float64{0.008, -0.009, 0.018, -0.021, 0.012, -0.004}

	path, err := WriteRollingMetricsCSV(dir, "1/2/2020", result, 3)
	require.NoError(t, err)
	assert.Equal(t, "rolling_metrics_1-2-2020.csv", filepath.Base(path))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(contents)
	assert.Contains(t, text, "window_end_index")
	assert.Contains(t, text, "rolling_daily_vol")
	assert.Contains(t, text, "rolling_beta")
	// 6 observations, window 3 -> 4 overlapping windows of output.
	assert.Equal(t, 5, strings.Count(text, "\n"))
}
