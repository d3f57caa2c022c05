package constraints

import (
	"testing"

	"github.com/aristath/quantport/internal/config"
	"github.com/aristath/quantport/internal/matrixops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flatSectorMap(n int) map[int]string {
	m := make(map[int]string, n)
	for i := 0; i < n; i++ {
		m[i] = "sector_a"
	}
	return m
}

func TestProjectClipSeed(t *testing.T) {
	// Seed scenario 3: proposed w=(0.4, 0.4, 0.2), maxPos=0.25; after clip
	// w=(0.25, 0.25, 0.2), then sum-to-one restores it to (0.357, 0.357, 0.286).
	limits := config.DefaultConstraintLimits()
	limits.MaxPositionSize = 0.25
	limits.MinPositionSize = -1
	limits.MaxShortExposure = 1
	limits.MaxSectorExposure = 1
	limits.MaxVolatility = 1
	limits.MaxTurnover = 1
	limits.EnableTrackingErrorCheck = false
	limits.MinPositions = 1
	limits.MaxPositions = 3

	p := New(limits)
	sigma, err := matrixops.NewMatrix(3, 3, []float64{
		0.0001, 0, 0,
		0, 0.0001, 0,
		0, 0, 0.0001,
	})
	require.NoError(t, err)

	in := Inputs{
		Current:  []float64{0.4, 0.4, 0.2},
		Sigma:    sigma,
		SectorOf: flatSectorMap(3),
		ADV:      []float64{1e9, 1e9, 1e9},
	}

	out, status, err := p.Project([]float64{0.4, 0.4, 0.2}, in)
	require.NoError(t, err)
	require.True(t, status.Feasible)

	assert.InDelta(t, 0.357, out[0], 1e-2)
	assert.InDelta(t, 0.357, out[1], 1e-2)
	assert.InDelta(t, 0.286, out[2], 1e-2)

	var sum float64
	for _, wi := range out {
		sum += wi
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestProjectUnsatisfiableAfterIterationCap(t *testing.T) {
	limits := config.DefaultConstraintLimits()
	limits.MaxPositionSize = 0.01
	limits.MinPositionSize = -0.01
	limits.MaxSectorExposure = 0.01
	limits.MaxIterations = 2
	limits.MinPositions = 5
	limits.MaxPositions = 10

	p := New(limits)
	sigma, _ := matrixops.NewMatrix(2, 2, []float64{0.0001, 0, 0, 0.0001})
	in := Inputs{
		Current:  []float64{0.5, 0.5},
		Sigma:    sigma,
		SectorOf: flatSectorMap(2),
		ADV:      []float64{1e9, 1e9},
	}

	_, _, err := p.Project([]float64{0.5, 0.5}, in)
	assert.Error(t, err)
}

func TestProjectMissingSectorIsInvalidInput(t *testing.T) {
	limits := config.DefaultConstraintLimits()
	p := New(limits)
	sigma, _ := matrixops.NewMatrix(2, 2, []float64{0.0001, 0, 0, 0.0001})
	in := Inputs{
		Current:  []float64{0.5, 0.5},
		Sigma:    sigma,
		SectorOf: map[int]string{0: "sector_a"}, // missing index 1
		ADV:      []float64{1e9, 1e9},
	}
	_, _, err := p.Project([]float64{0.5, 0.5}, in)
	assert.Error(t, err)
}

func TestProjectShapeMismatch(t *testing.T) {
	p := New(config.DefaultConstraintLimits())
	sigma, _ := matrixops.NewMatrix(2, 2, []float64{0.0001, 0, 0, 0.0001})
	in := Inputs{
		Current:  []float64{0.5},
		Sigma:    sigma,
		SectorOf: flatSectorMap(2),
		ADV:      []float64{1e9, 1e9},
	}
	_, _, err := p.Project([]float64{0.5, 0.5}, in)
	assert.Error(t, err)
}

func TestProjectVolatilityScalePullsInCap(t *testing.T) {
	limits := config.DefaultConstraintLimits()
	limits.MaxPositionSize = 1
	limits.MinPositionSize = -1
	limits.MaxShortExposure = 1
	limits.MaxSectorExposure = 1
	limits.MaxVolatility = 0.01
	limits.MaxTurnover = 1
	limits.EnableTrackingErrorCheck = false
	limits.MinPositions = 1
	limits.MaxPositions = 2

	p := New(limits)
	sigma, _ := matrixops.NewMatrix(2, 2, []float64{0.09, 0, 0, 0.09})
	in := Inputs{
		Current:  []float64{0.5, 0.5},
		Sigma:    sigma,
		SectorOf: flatSectorMap(2),
		ADV:      []float64{1e9, 1e9},
	}

	out, status, err := p.Project([]float64{0.5, 0.5}, in)
	require.NoError(t, err)
	require.True(t, status.Feasible)

	variance, err := matrixops.QuadForm(matrixops.NewVector(out), sigma)
	require.NoError(t, err)
	assert.LessOrEqual(t, variance, limits.MaxVolatility*limits.MaxVolatility*(1+1e-6))
}

func TestProjectBetaDeviationRecomputedFromReturnsWindow(t *testing.T) {
	// asset 0 tracks the benchmark exactly (beta 1); asset 1 is twice as
	// volatile as the benchmark (beta 2). A pure-asset-1 proposal should
	// be flagged and, since nothing in the pass sequence corrects beta,
	// stays unsatisfiable through the iteration cap.
	benchmark := []float64{0.01, -0.01, 0.02}
	returnsWindow, err := matrixops.NewMatrix(3, 2, []float64{
		0.01, 0.02,
		-0.01, -0.02,
		0.02, 0.04,
	})
	require.NoError(t, err)

	limits := config.DefaultConstraintLimits()
	limits.MaxPositionSize = 1
	limits.MinPositionSize = -1
	limits.MaxShortExposure = 1
	limits.MaxSectorExposure = 1
	limits.MaxVolatility = 1
	limits.MaxTurnover = 1
	limits.EnableTrackingErrorCheck = false
	limits.EnableBetaCheck = true
	limits.MaxBetaDeviation = 0.1
	limits.MaxIterations = 3
	limits.MinPositions = 1
	limits.MaxPositions = 2

	p := New(limits)
	sigma, _ := matrixops.NewMatrix(2, 2, []float64{0.0001, 0, 0, 0.0001})
	in := Inputs{
		Current:       []float64{0, 1},
		Sigma:         sigma,
		ReturnsWindow: returnsWindow,
		Benchmark:     benchmark,
		SectorOf:      flatSectorMap(2),
		ADV:           []float64{1e9, 1e9},
	}

	_, status, err := p.Project([]float64{0, 1}, in)
	require.Error(t, err)
	assert.Contains(t, status.Violations, "beta_deviation")
}

func TestProjectBetaWithinToleranceIsFeasible(t *testing.T) {
	benchmark := []float64{0.01, -0.01, 0.02}
	returnsWindow, err := matrixops.NewMatrix(3, 2, []float64{
		0.01, 0.02,
		-0.01, -0.02,
		0.02, 0.04,
	})
	require.NoError(t, err)

	limits := config.DefaultConstraintLimits()
	limits.MaxPositionSize = 1
	limits.MinPositionSize = -1
	limits.MaxShortExposure = 1
	limits.MaxSectorExposure = 1
	limits.MaxVolatility = 1
	limits.MaxTurnover = 1
	limits.EnableTrackingErrorCheck = false
	limits.EnableBetaCheck = true
	limits.MaxBetaDeviation = 0.1
	limits.MinPositions = 1
	limits.MaxPositions = 2

	p := New(limits)
	sigma, _ := matrixops.NewMatrix(2, 2, []float64{0.0001, 0, 0, 0.0001})
	in := Inputs{
		Current:       []float64{1, 0},
		Sigma:         sigma,
		ReturnsWindow: returnsWindow,
		Benchmark:     benchmark,
		SectorOf:      flatSectorMap(2),
		ADV:           []float64{1e9, 1e9},
	}

	out, status, err := p.Project([]float64{1, 0}, in)
	require.NoError(t, err)
	assert.True(t, status.Feasible)
	assert.InDelta(t, 1.0, out[0], 1e-9)
}

func TestViolationsStringJoinsNames(t *testing.T) {
	s := Status{Violations: []string{"position_limits", "turnover"}}
	assert.Equal(t, "position_limits,turnover", ViolationsString(s))
}

func TestViolationsStringNoneWhenEmpty(t *testing.T) {
	assert.Equal(t, "none", ViolationsString(Status{}))
}
