package rebalance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func monthOf(date string) string {
	// dates are "M/D/YYYY"; the month token is everything before the
	// first '/'.
	for i, c := range date {
		if c == '/' {
			return date[:i]
		}
	}
	return date
}

func TestBuildCalendarEmitsOnMonthChange(t *testing.T) {
	dates := []string{"1/2/2020", "1/15/2020", "2/1/2020", "2/20/2020", "3/1/2020"}
	calendar := BuildCalendar(dates, monthOf)
	require.Equal(t, []string{"1/2/2020", "2/1/2020", "3/1/2020"}, calendar)
}

func TestBuildCalendarEmptyInput(t *testing.T) {
	assert.Nil(t, BuildCalendar(nil, monthOf))
}

func TestBuildCalendarSingleMonthEmitsOnlyFirstRow(t *testing.T) {
	dates := []string{"1/2/2020", "1/3/2020", "1/4/2020"}
	calendar := BuildCalendar(dates, monthOf)
	assert.Equal(t, []string{"1/2/2020"}, calendar)
}

func TestAcceptanceGateSeed(t *testing.T) {
	// Seed scenario 5: expected excess return 0.0010, cost 0.0005 -> swap.
	assert.True(t, accept(0.0005, 0.0010))
	// cost 0.0020 -> no change.
	assert.False(t, accept(0.0020, 0.0010))
}

func TestTurnoverOfHalvesAbsoluteDifference(t *testing.T) {
	turnover, err := turnoverOf([]float64{0.5, 0.5}, []float64{0.6, 0.4})
	require.NoError(t, err)
	assert.InDelta(t, 0.1, turnover, 1e-9)
}

func TestTurnoverOfShapeMismatch(t *testing.T) {
	_, err := turnoverOf([]float64{0.5}, []float64{0.5, 0.5})
	assert.Error(t, err)
}

func TestTickNoOpOnNonCalendarDateLeavesWeightsBitwiseUnchanged(t *testing.T) {
	r := &Rebalancer{calendar: []string{"1/2/2020"}}
	decision, err := r.Tick("1/15/2020")
	require.NoError(t, err)
	assert.False(t, decision.Rebalanced)
	assert.Equal(t, "not_calendar_date", decision.Reason)
	assert.Equal(t, 0, r.Period())
}
