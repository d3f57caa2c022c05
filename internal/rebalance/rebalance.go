// Package rebalance implements the rebalancing controller: month-end
// calendar construction from an opaque date column, tick handling, and
// the cost/benefit accept-or-reject gate that decides whether a newly
// optimised weight vector replaces the engine's current weights.
package rebalance

import (
	"github.com/aristath/quantport/internal/engine"
	"github.com/aristath/quantport/internal/errs"
)

// Decision records the outcome of one tick.
type Decision struct {
	Date               string
	Period             int
	Rebalanced         bool
	Turnover           float64
	CostEstimate       float64
	ExpectedExcessReturn float64
	Reason             string
}

// Rebalancer holds a back-reference to the engine (never ownership of its
// panels) plus the rebalance calendar and the current period index.
type Rebalancer struct {
	eng      *engine.Engine
	calendar []string
	period   int
}

// BuildCalendar scans dates in input order and emits a date whenever its
// "month" substring changes, including the first row. Dates are compared
// by equality as opaque strings; monthOf extracts the comparable prefix
// (e.g. "M/D/YYYY" -> "M/YYYY").
func BuildCalendar(dates []string, monthOf func(string) string) []string {
	if len(dates) == 0 {
		return nil
	}
	var calendar []string
	lastMonth := ""
	for i, d := range dates {
		month := monthOf(d)
		if i == 0 || month != lastMonth {
			calendar = append(calendar, d)
			lastMonth = month
		}
	}
	return calendar
}

// New constructs a Rebalancer against an engine and a precomputed
// calendar (see BuildCalendar).
func New(eng *engine.Engine, calendar []string) *Rebalancer {
	return &Rebalancer{eng: eng, calendar: calendar}
}

// Period returns the current period index.
func (r *Rebalancer) Period() int {
	return r.period
}

// Tick processes an observed date. If the date is not on the calendar it
// no-ops (current weights unchanged, Decision.Rebalanced is false and
// Reason is "not_calendar_date"). Ticks must be delivered in
// non-decreasing date order by the caller; the rebalancer does not sort.
func (r *Rebalancer) Tick(date string) (Decision, error) {
	if !r.onCalendar(date) {
		return Decision{Date: date, Period: r.period, Reason: "not_calendar_date"}, nil
	}

	result, err := r.eng.Optimise(r.period)
	if err != nil {
		return Decision{}, errs.Wrap(errs.KindConstraintsUnsatisfiable, "rebalance.Tick", map[string]any{"period": r.period, "date": date}, err)
	}

	current := r.eng.CurrentWeights()
	proposed := result.MPTWeights

	turnover, err := turnoverOf(current, proposed)
	if err != nil {
		return Decision{}, err
	}

	cost, err := r.eng.CostModel().RebalancingCostEstimate(current, proposed, r.eng.ADV(), r.eng.PortfolioValue())
	if err != nil {
		return Decision{}, err
	}

	expectedExcessReturn := result.MPTMetrics.PortfolioMean - result.TEMetrics.PortfolioMean

	decision := Decision{
		Date:                 date,
		Period:               r.period,
		Turnover:             turnover,
		CostEstimate:         cost,
		ExpectedExcessReturn: expectedExcessReturn,
	}

	if accept(cost, expectedExcessReturn) {
		r.eng.SetCurrentWeights(proposed)
		decision.Rebalanced = true
		decision.Reason = "accepted"
	} else {
		decision.Rebalanced = false
		decision.Reason = "cost_exceeds_benefit"
	}

	r.period++
	return decision, nil
}

// accept implements the cost/benefit gate: a proposed rebalance is
// accepted iff its estimated cost is strictly less than the expected
// excess return over the period.
func accept(cost, expectedExcessReturn float64) bool {
	return cost < expectedExcessReturn
}

func (r *Rebalancer) onCalendar(date string) bool {
	for _, d := range r.calendar {
		if d == date {
			return true
		}
	}
	return false
}

func turnoverOf(current, proposed []float64) (float64, error) {
	if len(current) != len(proposed) {
		return 0, errs.New(errs.KindShape, "rebalance.turnoverOf", map[string]any{"current_len": len(current), "proposed_len": len(proposed)})
	}
	var sum float64
	for i := range current {
		d := proposed[i] - current[i]
		if d < 0 {
			d = -d
		}
		sum += d
	}
	return sum / 2, nil
}
