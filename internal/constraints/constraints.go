// Package constraints implements the risk-constraint feasibility
// projector: an iterative clip/scale procedure that pulls a proposed
// weight vector back onto the feasible set defined by position, sector,
// volatility, tracking-error, beta, turnover, liquidity and
// diversification limits.
package constraints

import (
	"fmt"
	"math"

	"github.com/aristath/quantport/internal/config"
	"github.com/aristath/quantport/internal/errs"
	"github.com/aristath/quantport/internal/matrixops"
	"github.com/aristath/quantport/internal/riskmetrics"
	"gonum.org/v1/gonum/floats"
)

// Inputs bundles everything a Project call needs beyond the proposed
// weights: current weights (for turnover), the covariance and excess
// covariance, benchmark series (for beta), sector map and ADV vector.
type Inputs struct {
	Current       []float64
	Sigma         *matrixops.Matrix
	SigmaExcess   *matrixops.Matrix // nil if tracking-error check disabled
	ReturnsWindow *matrixops.Matrix // T x N window aligned with Benchmark, used to recompute beta under test each iteration
	Benchmark     []float64
	SectorOf      map[int]string // asset index -> sector; must cover every index
	ADV           []float64      // average daily volume (or notional), per asset
	PortfolioVal  float64        // V; not read by the checks or passes, which compare |w_i|*MinLiquidity with ADV[i]*MaxADVPercent directly
}

// Status reports, for the final accepted (or last-attempted) vector,
// which named checks failed and the iteration count consumed.
type Status struct {
	Feasible   bool
	Violations []string
	Iterations int
}

// Projector enforces ConstraintLimits via the fixed-order pass sequence.
type Projector struct {
	limits config.ConstraintLimits
}

// New constructs a Projector with the given limits.
func New(limits config.ConstraintLimits) *Projector {
	return &Projector{limits: limits}
}

// Project iteratively applies clip, sector-scale, volatility-scale and
// liquidity-clip passes to w until every enabled predicate holds or the
// iteration cap is reached. A vector that satisfies every predicate is
// returned as it stands, without renormalisation, so its weights need not
// sum to one. Only when the cap is reached without feasibility does it
// append one final sum-to-one projection and a last clip/recheck pass
// (outside the iteration cap).
func (p *Projector) Project(w []float64, in Inputs) ([]float64, Status, error) {
	n := len(w)
	if len(in.Current) != n {
		return nil, Status{}, errs.New(errs.KindShape, "constraints.Project", map[string]any{"w_len": n, "current_len": len(in.Current)})
	}
	if err := p.validateSectorMap(n, in.SectorOf); err != nil {
		return nil, Status{}, err
	}

	out := append([]float64(nil), w...)

	var status Status
	for iter := 0; iter < p.limits.MaxIterations; iter++ {
		status = p.check(out, in)
		if status.Feasible {
			status.Iterations = iter
			return out, status, nil
		}
		p.clipPass(out)
		p.sectorScalePass(out, in.SectorOf)
		if err := p.volatilityScalePass(out, in.Sigma); err != nil {
			return nil, Status{}, err
		}
		p.liquidityClipPass(out, in.ADV, in.PortfolioVal)
	}

	// Final sum-to-one projection, excluded from the iteration cap.
	p.sumToOnePass(out)
	p.clipPass(out)
	status = p.check(out, in)
	status.Iterations = p.limits.MaxIterations

	if !status.Feasible {
		return nil, status, errs.New(errs.KindConstraintsUnsatisfiable, "constraints.Project", map[string]any{
			"violations": status.Violations,
			"iterations": status.Iterations,
		})
	}
	return out, status, nil
}

func (p *Projector) validateSectorMap(n int, sectorOf map[int]string) error {
	for i := 0; i < n; i++ {
		if _, ok := sectorOf[i]; !ok {
			return errs.New(errs.KindInvalidInput, "constraints.validateSectorMap", map[string]any{"missing_asset": i})
		}
	}
	return nil
}

// check evaluates all eight predicates and reports which fail.
func (p *Projector) check(w []float64, in Inputs) Status {
	l := p.limits
	var violations []string

	for _, wi := range w {
		if wi < l.MinPositionSize || wi > l.MaxPositionSize {
			violations = append(violations, "position_limits")
			break
		}
	}
	shorts := make([]float64, 0, len(w))
	for _, wi := range w {
		if wi < 0 {
			shorts = append(shorts, -wi)
		}
	}
	shortExposure := floats.Sum(shorts)
	if shortExposure > l.MaxShortExposure {
		violations = append(violations, "short_exposure")
	}

	sectorSums := sectorSums(w, in.SectorOf)
	for _, sum := range sectorSums {
		if math.Abs(sum) > l.MaxSectorExposure {
			violations = append(violations, "sector_exposure")
			break
		}
	}

	if vol, err := matrixops.QuadForm(matrixops.NewVector(w), in.Sigma); err == nil {
		if vol < 0 {
			vol = 0
		}
		if math.Sqrt(vol) > l.MaxVolatility {
			violations = append(violations, "volatility")
		}
	}

	if l.EnableTrackingErrorCheck && in.SigmaExcess != nil {
		if te, err := matrixops.QuadForm(matrixops.NewVector(w), in.SigmaExcess); err == nil {
			if te < 0 {
				te = 0
			}
			if math.Sqrt(te) > l.MaxTrackingError {
				violations = append(violations, "tracking_error")
			}
		}
	}

	if l.EnableBetaCheck && in.ReturnsWindow != nil {
		if portfolioReturns, err := riskmetrics.PortfolioReturns(w, in.ReturnsWindow); err == nil {
			if beta, err := riskmetrics.Beta(portfolioReturns, in.Benchmark); err == nil {
				if math.Abs(beta-1) > l.MaxBetaDeviation {
					violations = append(violations, "beta_deviation")
				}
			}
		}
	}

	diffs := make([]float64, len(w))
	for i := range w {
		diffs[i] = math.Abs(w[i] - in.Current[i])
	}
	turnover := floats.Sum(diffs) / 2
	if turnover > l.MaxTurnover {
		violations = append(violations, "turnover")
	}

	for i, wi := range w {
		if i >= len(in.ADV) {
			break
		}
		if math.Abs(wi)*l.MinLiquidity > in.ADV[i]*l.MaxADVPercent {
			violations = append(violations, "liquidity")
			break
		}
	}

	active := 0
	for _, wi := range w {
		if math.Abs(wi) > l.MinTradeSize {
			active++
		}
	}
	if active < l.MinPositions || active > l.MaxPositions {
		violations = append(violations, "diversification")
	}

	return Status{Feasible: len(violations) == 0, Violations: violations}
}

func (p *Projector) clipPass(w []float64) {
	l := p.limits
	for i := range w {
		if w[i] < l.MinPositionSize {
			w[i] = l.MinPositionSize
		} else if w[i] > l.MaxPositionSize {
			w[i] = l.MaxPositionSize
		}
	}
}

func (p *Projector) sectorScalePass(w []float64, sectorOf map[int]string) {
	sums := sectorSums(w, sectorOf)
	cap := p.limits.MaxSectorExposure
	for sector, sum := range sums {
		if math.Abs(sum) > cap && sum != 0 {
			scale := cap / math.Abs(sum)
			for i, s := range sectorOf {
				if s == sector {
					w[i] *= scale
				}
			}
		}
	}
}

func (p *Projector) volatilityScalePass(w []float64, sigma *matrixops.Matrix) error {
	variance, err := matrixops.QuadForm(matrixops.NewVector(w), sigma)
	if err != nil {
		return err
	}
	if variance < 0 {
		variance = 0
	}
	vol := math.Sqrt(variance)
	if vol > p.limits.MaxVolatility && vol > 0 {
		scale := p.limits.MaxVolatility / vol
		for i := range w {
			w[i] *= scale
		}
	}
	return nil
}

func (p *Projector) liquidityClipPass(w []float64, adv []float64, portfolioVal float64) {
	l := p.limits
	if l.MinLiquidity <= 0 {
		return
	}
	for i := range w {
		if i >= len(adv) {
			continue
		}
		maxPos := adv[i] * l.MaxADVPercent / l.MinLiquidity
		if math.Abs(w[i]) > maxPos {
			sign := 1.0
			if w[i] < 0 {
				sign = -1.0
			}
			w[i] = sign * maxPos
		}
	}
	_ = portfolioVal
}

func (p *Projector) sumToOnePass(w []float64) {
	var sum float64
	for _, wi := range w {
		sum += wi
	}
	n := float64(len(w))
	delta := (1 - sum) / n
	for i := range w {
		w[i] += delta
	}
}

func sectorSums(w []float64, sectorOf map[int]string) map[string]float64 {
	sums := make(map[string]float64)
	for i, wi := range w {
		sector := sectorOf[i]
		sums[sector] += wi
	}
	return sums
}

// ViolationsString joins a Status's violations for logging.
func ViolationsString(s Status) string {
	if len(s.Violations) == 0 {
		return "none"
	}
	out := s.Violations[0]
	for _, v := range s.Violations[1:] {
		out = fmt.Sprintf("%s,%s", out, v)
	}
	return out
}
