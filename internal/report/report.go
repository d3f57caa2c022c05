// Package report writes the output artifacts the engine's results drive:
// a per-period weights/metrics/frontier CSV, a human-readable risk text
// report, a rolling-window metrics CSV, and a final aggregate CSV. This is
// a boundary collaborator — the numerical core never touches a file handle.
//
// Grounded on the CSV-writing shape used elsewhere in the retrieval pack
// (encoding/csv.Writer, header row then data rows, Flush on defer).
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/aristath/quantport/internal/engine"
	"github.com/aristath/quantport/internal/errs"
	"github.com/aristath/quantport/internal/riskmetrics"
	"github.com/aristath/quantport/internal/solver"
)

// AssetNamer resolves an asset column index to a display name. Callers
// without named assets may pass DefaultAssetNamer.
type AssetNamer func(index int) string

// DefaultAssetNamer renders "asset_N" for column N (1-indexed).
func DefaultAssetNamer(index int) string {
	return fmt.Sprintf("asset_%d", index+1)
}

// WritePortfolioCSV writes portfolio_<date>.csv: the weights table
// (asset, tracking-error weight, MPT weight), a performance metrics
// block, and an efficient-frontier block.
func WritePortfolioCSV(outDir, date string, result *engine.Result, namer AssetNamer) (string, error) {
	if namer == nil {
		namer = DefaultAssetNamer
	}
	path := filepath.Join(outDir, fmt.Sprintf("portfolio_%s.csv", sanitizeDate(date)))
	f, err := os.Create(path)
	if err != nil {
		return "", errs.Wrap(errs.KindIO, "report.WritePortfolioCSV", map[string]any{"path": path}, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"asset", "tracking_error_weight", "mpt_weight"}); err != nil {
		return "", errs.Wrap(errs.KindIO, "report.WritePortfolioCSV", map[string]any{"path": path}, err)
	}
	for i := range result.MPTWeights {
		te := 0.0
		if i < len(result.TEWeights) {
			te = result.TEWeights[i]
		}
		row := []string{namer(i), formatFloat(te), formatFloat(result.MPTWeights[i])}
		if err := w.Write(row); err != nil {
			return "", errs.Wrap(errs.KindIO, "report.WritePortfolioCSV", map[string]any{"path": path}, err)
		}
	}

	if err := w.Write([]string{}); err != nil {
		return "", errs.Wrap(errs.KindIO, "report.WritePortfolioCSV", map[string]any{"path": path}, err)
	}
	if err := writeMetricsBlock(w, "mpt", result.MPTMetrics); err != nil {
		return "", err
	}
	if err := writeMetricsBlock(w, "tracking_error", result.TEMetrics); err != nil {
		return "", err
	}

	if err := w.Write([]string{}); err != nil {
		return "", errs.Wrap(errs.KindIO, "report.WritePortfolioCSV", map[string]any{"path": path}, err)
	}
	if err := w.Write([]string{"frontier_kind", "target_return", "portfolio_volatility", "tracking_error"}); err != nil {
		return "", errs.Wrap(errs.KindIO, "report.WritePortfolioCSV", map[string]any{"path": path}, err)
	}
	if err := writeFrontierBlock(w, "mpt", result.MPTFrontier); err != nil {
		return "", err
	}
	if err := writeFrontierBlock(w, "tracking_error", result.TEFrontier); err != nil {
		return "", err
	}

	return path, nil
}

func writeMetricsBlock(w *csv.Writer, label string, m engine.Metrics) error {
	rows := [][]string{
		{label + "_daily_vol", formatFloat(m.DailyVol)},
		{label + "_monthly_vol", formatFloat(m.MonthlyVol)},
		{label + "_annualized_vol", formatFloat(m.AnnualizedVol)},
		{label + "_tracking_error", formatFloat(m.TrackingError)},
		{label + "_beta", formatFloat(m.Beta)},
		{label + "_alpha", formatFloat(m.Alpha)},
		{label + "_sharpe", formatFloat(m.Sharpe)},
		{label + "_sortino", formatFloat(m.Sortino)},
		{label + "_information_ratio", formatFloat(m.InformationRatio)},
		{label + "_treynor", formatFloat(m.Treynor)},
		{label + "_max_drawdown", formatFloat(m.MaxDrawdown)},
		{label + "_var_95", formatFloat(m.ValueAtRisk95)},
		{label + "_expected_shortfall", formatFloat(m.ExpectedShortfall)},
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return errs.Wrap(errs.KindIO, "report.writeMetricsBlock", map[string]any{"label": label}, err)
		}
	}
	return nil
}

func writeFrontierBlock(w *csv.Writer, label string, points []solver.FrontierPoint) error {
	for _, p := range points {
		if p.Err != nil {
			continue
		}
		row := []string{label, formatFloat(p.TargetReturn), formatFloat(p.PortfolioVolatility), formatFloat(p.TrackingError)}
		if err := w.Write(row); err != nil {
			return errs.Wrap(errs.KindIO, "report.writeFrontierBlock", map[string]any{"label": label}, err)
		}
	}
	return nil
}

// WriteRiskReportTxt writes risk_report_<date>.txt: a human-readable
// block covering daily/monthly/annual vol, tracking error, information
// ratio, Sharpe, Sortino, max drawdown, beta, alpha, positions, sector
// exposures and the transaction-cost estimate for the period.
func WriteRiskReportTxt(outDir, date string, result *engine.Result, sectorOf map[int]string, costEstimate float64, namer AssetNamer) (string, error) {
	if namer == nil {
		namer = DefaultAssetNamer
	}
	path := filepath.Join(outDir, fmt.Sprintf("risk_report_%s.txt", sanitizeDate(date)))
	f, err := os.Create(path)
	if err != nil {
		return "", errs.Wrap(errs.KindIO, "report.WriteRiskReportTxt", map[string]any{"path": path}, err)
	}
	defer f.Close()

	m := result.MPTMetrics
	fmt.Fprintf(f, "Risk report for %s (period %d)\n\n", date, result.Period)
	fmt.Fprintf(f, "Daily volatility:      %.6f\n", m.DailyVol)
	fmt.Fprintf(f, "Monthly volatility:    %.6f\n", m.MonthlyVol)
	fmt.Fprintf(f, "Annualized volatility: %.6f\n", m.AnnualizedVol)
	fmt.Fprintf(f, "Tracking error:        %.6f\n", m.TrackingError)
	fmt.Fprintf(f, "Information ratio:     %.6f\n", m.InformationRatio)
	fmt.Fprintf(f, "Sharpe:                %.6f\n", m.Sharpe)
	fmt.Fprintf(f, "Sortino:               %.6f\n", m.Sortino)
	fmt.Fprintf(f, "Max drawdown:          %.6f\n", m.MaxDrawdown)
	fmt.Fprintf(f, "Beta:                  %.6f\n", m.Beta)
	fmt.Fprintf(f, "Alpha:                 %.6f\n", m.Alpha)
	fmt.Fprintf(f, "Transaction cost est.: %.6f\n\n", costEstimate)

	fmt.Fprintln(f, "Positions:")
	for i, w := range result.MPTWeights {
		fmt.Fprintf(f, "  %-12s %.6f\n", namer(i), w)
	}

	fmt.Fprintln(f, "\nSector exposures:")
	sectorSums := make(map[string]float64)
	for i, w := range result.MPTWeights {
		sectorSums[sectorOf[i]] += w
	}
	for sector, sum := range sectorSums {
		fmt.Fprintf(f, "  %-12s %.6f\n", sector, sum)
	}

	return path, nil
}

// WriteFinalAnalysisCSV writes final_portfolio_analysis.csv: the
// last-period aggregate of weights and headline metrics.
func WriteFinalAnalysisCSV(outDir string, result *engine.Result, namer AssetNamer) (string, error) {
	if namer == nil {
		namer = DefaultAssetNamer
	}
	path := filepath.Join(outDir, "final_portfolio_analysis.csv")
	f, err := os.Create(path)
	if err != nil {
		return "", errs.Wrap(errs.KindIO, "report.WriteFinalAnalysisCSV", map[string]any{"path": path}, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"asset", "final_weight"}); err != nil {
		return "", errs.Wrap(errs.KindIO, "report.WriteFinalAnalysisCSV", map[string]any{"path": path}, err)
	}
	for i, weight := range result.MPTWeights {
		if err := w.Write([]string{namer(i), formatFloat(weight)}); err != nil {
			return "", errs.Wrap(errs.KindIO, "report.WriteFinalAnalysisCSV", map[string]any{"path": path}, err)
		}
	}
	if err := w.Write([]string{}); err != nil {
		return "", errs.Wrap(errs.KindIO, "report.WriteFinalAnalysisCSV", map[string]any{"path": path}, err)
	}
	if err := writeMetricsBlock(w, "final", result.MPTMetrics); err != nil {
		return "", err
	}

	return path, nil
}

// WriteRollingMetricsCSV writes rolling_metrics_<date>.csv: rolling daily
// volatility and rolling beta of the projected MPT portfolio, computed over
// overlapping windows of size windowSize across the optimisation window. A
// window index whose metric could not be computed (too few observations,
// degenerate benchmark variance) is skipped rather than written as zero.
func WriteRollingMetricsCSV(outDir, date string, result *engine.Result, windowSize int) (string, error) {
	path := filepath.Join(outDir, fmt.Sprintf("rolling_metrics_%s.csv", sanitizeDate(date)))
	f, err := os.Create(path)
	if err != nil {
		return "", errs.Wrap(errs.KindIO, "report.WriteRollingMetricsCSV", map[string]any{"path": path}, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"window_end_index", "rolling_daily_vol", "rolling_beta"}); err != nil {
		return "", errs.Wrap(errs.KindIO, "report.WriteRollingMetricsCSV", map[string]any{"path": path}, err)
	}

	vols, volErrs := riskmetrics.RollingVol(result.MPTPortfolioReturns, windowSize)
	betas, betaErrs := riskmetrics.RollingBeta(result.MPTPortfolioReturns, result.BenchmarkWindow, windowSize)

	n := len(vols)
	if len(betas) < n {
		n = len(betas)
	}
	for i := 0; i < n; i++ {
		if volErrs[i] != nil || betaErrs[i] != nil {
			continue
		}
		windowEnd := i + windowSize - 1
		row := []string{strconv.Itoa(windowEnd), formatFloat(vols[i]), formatFloat(betas[i])}
		if err := w.Write(row); err != nil {
			return "", errs.Wrap(errs.KindIO, "report.WriteRollingMetricsCSV", map[string]any{"path": path}, err)
		}
	}

	return path, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 8, 64)
}

func sanitizeDate(date string) string {
	out := make([]byte, len(date))
	for i := 0; i < len(date); i++ {
		c := date[i]
		if c == '/' {
			c = '-'
		}
		out[i] = c
	}
	return string(out)
}
