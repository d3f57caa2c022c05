// Package costmodel implements the transaction cost model: fixed +
// variable commission, square-root slippage, and power-law market impact
// with multi-day decay.
//
package costmodel

import (
	"math"

	"github.com/aristath/quantport/internal/config"
	"github.com/aristath/quantport/internal/errs"
)

// Model computes trading cost estimates given cost parameters.
type Model struct {
	params config.CostParameters
}

// New constructs a Model with the given cost parameters.
func New(params config.CostParameters) *Model {
	return &Model{params: params}
}

// AssetCost is the per-asset cost breakdown for one rebalance.
type AssetCost struct {
	TradeNotional float64
	Commission    float64
	Impact        float64
	Slippage      float64
	Total         float64
}

// TotalCost computes the total estimated trading cost of moving from
// current weights w0 to target weights w1 over a portfolio of notional V,
// given per-asset average daily volume v (length N, aligned with w0/w1).
//
// For each asset i with trade notional s_i = |w1_i - w0_i| * V: if s_i > 0,
// add the fixed commission once, add s_i*variableCommission, add
// marketImpact(s_i, v_i, D), add slippage(s_i, v_i).
func (m *Model) TotalCost(w0, w1, adv []float64, v float64) (float64, []AssetCost, error) {
	n := len(w0)
	if len(w1) != n || len(adv) != n {
		return 0, nil, errs.New(errs.KindShape, "costmodel.TotalCost", map[string]any{
			"w0_len": n, "w1_len": len(w1), "adv_len": len(adv),
		})
	}
	if err := m.validateParams(); err != nil {
		return 0, nil, err
	}

	breakdown := make([]AssetCost, n)
	var total float64

	for i := 0; i < n; i++ {
		s := math.Abs(w1[i]-w0[i]) * v
		if adv[i] <= 0 {
			if s > 0 {
				return 0, nil, errs.New(errs.KindInvalidInput, "costmodel.TotalCost", map[string]any{
					"asset": i, "adv": adv[i],
				})
			}
			continue
		}

		var ac AssetCost
		ac.TradeNotional = s
		if s > 0 {
			ac.Commission = m.params.FixedCommission + s*m.params.VariableCommission
			impact, err := m.marketImpact(s, adv[i])
			if err != nil {
				return 0, nil, err
			}
			ac.Impact = impact
			ac.Slippage = m.slippage(s, adv[i])
			ac.Total = ac.Commission + ac.Impact + ac.Slippage
			total += ac.Total
		}
		breakdown[i] = ac
	}

	return total, breakdown, nil
}

// marketImpact splits trade notional s evenly across D days; on day d it
// contributes impactCoeff * (s/D/v)^1.5 * exp(-decayRate*d), summed over
// d in [0, D).
func (m *Model) marketImpact(s, v float64) (float64, error) {
	d := m.params.DaysToExecute
	if d <= 0 {
		return 0, errs.New(errs.KindInvalidInput, "costmodel.marketImpact", map[string]any{"days_to_execute": d})
	}
	perDay := s / float64(d) / v
	var impact float64
	for day := 0; day < d; day++ {
		impact += m.params.ImpactCoefficient * math.Pow(perDay, 1.5) * math.Exp(-m.params.ImpactDecayRate*float64(day))
	}
	return impact, nil
}

// slippage returns slippageCoeff * sqrt(s/v).
func (m *Model) slippage(s, v float64) float64 {
	return m.params.SlippageCoefficient * math.Sqrt(s/v)
}

func (m *Model) validateParams() error {
	p := m.params
	if p.FixedCommission < 0 || p.VariableCommission < 0 || p.SlippageCoefficient < 0 || p.ImpactCoefficient < 0 {
		return errs.New(errs.KindInvalidInput, "costmodel.validateParams", map[string]any{
			"fixed": p.FixedCommission, "variable": p.VariableCommission,
			"slippage": p.SlippageCoefficient, "impact": p.ImpactCoefficient,
		})
	}
	if p.DaysToExecute <= 0 {
		return errs.New(errs.KindInvalidInput, "costmodel.validateParams", map[string]any{"days_to_execute": p.DaysToExecute})
	}
	return nil
}

// Turnover returns the one-way turnover: 1/2 * sum |w1_i - w0_i|.
func Turnover(w0, w1 []float64) (float64, error) {
	if len(w0) != len(w1) {
		return 0, errs.New(errs.KindShape, "costmodel.Turnover", map[string]any{"w0_len": len(w0), "w1_len": len(w1)})
	}
	var sum float64
	for i := range w0 {
		sum += math.Abs(w1[i] - w0[i])
	}
	return sum / 2, nil
}

// RebalancingCostEstimate returns
// fixed*(1 if turnover>0 else 0) + turnover*V*variable + sum(impact_i) + sum(slippage_i),
// the aggregate estimate used by the rebalancer's accept/reject gate.
func (m *Model) RebalancingCostEstimate(w0, w1, adv []float64, v float64) (float64, error) {
	turnover, err := Turnover(w0, w1)
	if err != nil {
		return 0, err
	}
	_, breakdown, err := m.TotalCost(w0, w1, adv, v)
	if err != nil {
		return 0, err
	}
	if turnover == 0 {
		return 0, nil
	}
	estimate := m.params.FixedCommission + turnover*v*m.params.VariableCommission
	for _, ac := range breakdown {
		estimate += ac.Impact + ac.Slippage
	}
	return estimate, nil
}
