package solver

import (
	"math"
	"sync"

	"github.com/aristath/quantport/internal/matrixops"
)

// FrontierPoint is one (target_return, tracking_error, portfolio_volatility)
// triple produced by sweeping K equally spaced target returns.
type FrontierPoint struct {
	TargetReturn        float64
	PortfolioVolatility float64
	TrackingError       float64
	Err                 error
}

// Sweep computes K equally spaced target returns between min and max and
// solves the closed-form problem at each one in parallel: each point only
// reads the shared mu/sigma/sigmaExcess inputs (every point runs its own
// Solve, inverting sigma itself), so points are independent and can be
// evaluated concurrently. Results are
// written into a pre-sized slice at each goroutine's own index, so the
// output order is identical to the serial case regardless of completion
// order. A numerical failure on one point is recorded in that point's Err
// field and does not abort the sweep — the failed point is simply omitted
// by the caller.
func Sweep(mu []float64, sigma *matrixops.Matrix, sigmaExcess *matrixops.Matrix, u []float64, min, max float64, k int) []FrontierPoint {
	points := make([]FrontierPoint, k)
	if k <= 0 {
		return points
	}

	step := 0.0
	if k > 1 {
		step = (max - min) / float64(k-1)
	}

	var wg sync.WaitGroup
	wg.Add(k)
	for idx := 0; idx < k; idx++ {
		go func(i int) {
			defer wg.Done()
			tau := min + float64(i)*step
			points[i] = solveFrontierPoint(mu, sigma, sigmaExcess, u, tau)
		}(idx)
	}
	wg.Wait()

	return points
}

func solveFrontierPoint(mu []float64, sigma, sigmaExcess *matrixops.Matrix, u []float64, tau float64) FrontierPoint {
	sol, err := Solve(mu, sigma, u, tau)
	if err != nil {
		return FrontierPoint{TargetReturn: tau, Err: err}
	}

	vol, err := PortfolioVariance(sol.Weights, sigma)
	if err != nil {
		return FrontierPoint{TargetReturn: tau, Err: err}
	}

	point := FrontierPoint{
		TargetReturn:        tau,
		PortfolioVolatility: sqrtNonNeg(vol),
	}

	if sigmaExcess != nil {
		teVar, err := PortfolioVariance(sol.Weights, sigmaExcess)
		if err != nil {
			point.Err = err
			return point
		}
		point.TrackingError = sqrtNonNeg(teVar)
	}

	return point
}

func sqrtNonNeg(x float64) float64 {
	if x < 0 {
		x = 0
	}
	return math.Sqrt(x)
}
