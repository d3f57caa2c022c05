// Package solver implements the closed-form mean-variance / tracking-error
// solver and its efficient-frontier sweep.
//
// Contract: given an N x 1 mean vector mu, an N x N covariance Sigma (must
// be invertible), a unit vector u of length N, and a target return tau,
// produce the length-N weight vector w minimising w^T Sigma w subject to
// mu^T w = tau and u^T w = 1.
//
// Closed-form scalars: A = mu^T Sigma^-1 mu, B = mu^T Sigma^-1 u,
// C = u^T Sigma^-1 u, D = A - B^2/C. The optimum is
//
//	w = [Sigma^-1 u (A - B tau) + Sigma^-1 mu (C tau - B)] / (C D)
//
// where C D = A C - B^2.
//
// This is the single-term closed form (preferred over an algebraically
// equivalent but less numerically stable two-term expansion when B is near
// zero).
package solver

import (
	"math"

	"github.com/aristath/quantport/internal/errs"
	"github.com/aristath/quantport/internal/matrixops"
)

const detFloor = 1e-12

// Scalars holds the closed-form intermediate quantities, returned alongside
// the solution so callers can report the unconstrained minimum-variance
// point and the frontier's analytic minimum.
type Scalars struct {
	A, B, C, D float64
	// MinVarianceReturn is mu* = B/C, the expected return of the
	// unconstrained minimum-variance portfolio.
	MinVarianceReturn float64
	// MinVariance is sigma^2* = 1/C.
	MinVariance float64
}

// Solution is the result of one closed-form solve.
type Solution struct {
	Weights []float64
	Scalars Scalars
}

// Solve computes the closed-form optimum for target return tau given mean
// vector mu and covariance sigma (both length/size N). u is conventionally
// the all-ones vector but is accepted explicitly so callers can express
// constrained variants of the unit constraint.
func Solve(mu []float64, sigma *matrixops.Matrix, u []float64, tau float64) (*Solution, error) {
	n := len(mu)
	sr, sc := sigma.Dims()
	if sr != sc || sr != n || len(u) != n {
		return nil, errs.New(errs.KindShape, "solver.Solve", map[string]any{
			"mu_len": n, "sigma_rows": sr, "sigma_cols": sc, "u_len": len(u),
		})
	}

	sigInv, err := sigma.Inverse(detFloor)
	if err != nil {
		return nil, errs.Wrap(errs.KindNumerical, "solver.Solve", map[string]any{"target_return": tau}, err)
	}

	muVec := matrixops.NewVector(mu)
	uVec := matrixops.NewVector(u)

	sigInvMu, err := sigInv.MulVec(muVec)
	if err != nil {
		return nil, err
	}
	sigInvU, err := sigInv.MulVec(uVec)
	if err != nil {
		return nil, err
	}

	A, err := matrixops.Dot(muVec, sigInvMu)
	if err != nil {
		return nil, err
	}
	B, err := matrixops.Dot(muVec, sigInvU)
	if err != nil {
		return nil, err
	}
	C, err := matrixops.Dot(uVec, sigInvU)
	if err != nil {
		return nil, err
	}
	D := A - B*B/C

	if math.Abs(D) < 1e-14 {
		return nil, errs.New(errs.KindDegenerateFrontier, "solver.Solve", map[string]any{
			"A": A, "B": B, "C": C, "D": D,
		})
	}

	coeffU := (A - B*tau) / (C * D)
	coeffMu := (C*tau - B) / (C * D)

	w := make([]float64, n)
	for i := 0; i < n; i++ {
		w[i] = coeffU*sigInvU.AtVec(i) + coeffMu*sigInvMu.AtVec(i)
	}

	return &Solution{
		Weights: w,
		Scalars: Scalars{
			A: A, B: B, C: C, D: D,
			MinVarianceReturn: B / C,
			MinVariance:       1 / C,
		},
	}, nil
}

// UnitVector returns an all-ones vector of length n, the conventional u for
// the fully-invested constraint sum(w) = 1.
func UnitVector(n int) []float64 {
	u := make([]float64, n)
	for i := range u {
		u[i] = 1
	}
	return u
}

// PortfolioVariance returns w^T Sigma w for the given weights.
func PortfolioVariance(w []float64, sigma *matrixops.Matrix) (float64, error) {
	return matrixops.QuadForm(matrixops.NewVector(w), sigma)
}
