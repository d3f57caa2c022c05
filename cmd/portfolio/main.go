// Command portfolio runs the portfolio construction engine end to end: it
// loads a returns CSV, builds the rebalance calendar, walks every
// calendar date through the engine and rebalancer, and writes the report
// artifacts for each rebalance date, accepted or not, plus a final
// aggregate.
//
// --watch adds an optional cron-scheduled repeat of the same run loop.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/aristath/quantport/internal/config"
	"github.com/aristath/quantport/internal/engine"
	"github.com/aristath/quantport/internal/ingest"
	"github.com/aristath/quantport/internal/rebalance"
	"github.com/aristath/quantport/internal/report"
	"github.com/aristath/quantport/pkg/logger"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("portfolio", flag.ContinueOnError)
	riskFreeRate := fs.Float64("risk-free-rate", 0.0, "daily risk-free rate used in Sharpe/alpha/Treynor")
	window := fs.Int("window", 0, "override the trailing covariance window size (rows); 0 uses the engine default")
	outDir := fs.String("out-dir", ".", "directory to write report artifacts to")
	watch := fs.String("watch", "", "cron expression; when set, re-runs the full walk on each schedule tick instead of exiting after one pass")
	envFile := fs.String("env-file", "", "optional .env file loaded into the environment after flags are parsed")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("usage: portfolio [flags] <returns.csv>")
	}
	csvPath := fs.Arg(0)

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			return fmt.Errorf("loading env file %s: %w", *envFile, err)
		}
	}

	log := logger.New(logger.Config{Level: "info", Pretty: true})
	log.Info().Str("csv", csvPath).Msg("starting portfolio run")

	execute := func() error {
		return runOnce(log, csvPath, *outDir, *riskFreeRate, *window)
	}

	if *watch == "" {
		return execute()
	}

	return runWatch(log, *watch, execute)
}

func runOnce(log zerolog.Logger, csvPath, outDir string, riskFreeRate float64, windowOverride int) error {
	ingestLog := logger.Component(log, "ingest")
	engineLog := logger.Component(log, "engine")
	reportLog := logger.Component(log, "report")

	panel, err := ingest.LoadCSV(csvPath)
	if err != nil {
		return fmt.Errorf("loading %s: %w", csvPath, err)
	}
	ingestLog.Info().Int("rows", len(panel.Dates)).Int("assets", panel.AssetCols).Msg("loaded returns panel")

	sectorOf := make(map[int]string, panel.AssetCols)
	for i := 0; i < panel.AssetCols; i++ {
		sectorOf[i] = "unassigned"
	}
	adv := make([]float64, panel.AssetCols)
	for i := range adv {
		adv[i] = 1e9
	}

	engineCfg := config.DefaultEngineConfig()
	if windowOverride > 0 {
		engineCfg.WindowSize = windowOverride
	}
	riskParams := config.DefaultRiskParameters()
	riskParams.RiskFreeRate = riskFreeRate

	eng, err := engine.New(engine.Params{
		Returns:          panel.Returns,
		Benchmark:        panel.Benchmark,
		Dates:            panel.Dates,
		SectorOf:         sectorOf,
		ADV:              adv,
		PortfolioV:       1e6,
		EngineConfig:     engineCfg,
		CostParameters:   config.DefaultCostParameters(),
		ConstraintLimits: config.DefaultConstraintLimits(),
		RiskParameters:   riskParams,
	})
	if err != nil {
		return fmt.Errorf("constructing engine: %w", err)
	}

	calendar := rebalance.BuildCalendar(panel.Dates, monthToken)
	rb := rebalance.New(eng, calendar)

	var lastResult *engine.Result
	var lastDate string
	var lastCost float64

	for _, date := range panel.Dates {
		decision, err := rb.Tick(date)
		if err != nil {
			engineLog.Warn().Err(err).Str("date", date).Msg("rebalance tick failed, retaining current weights")
			continue
		}
		if decision.Reason == "not_calendar_date" {
			continue
		}

		result := eng.LastResult()
		if result == nil {
			continue
		}
		lastResult = result
		lastDate = date
		lastCost = decision.CostEstimate

		path, err := report.WritePortfolioCSV(outDir, date, result, nil)
		if err != nil {
			return fmt.Errorf("writing portfolio report for %s: %w", date, err)
		}
		if _, err := report.WriteRiskReportTxt(outDir, date, result, sectorOf, decision.CostEstimate, nil); err != nil {
			return fmt.Errorf("writing risk report for %s: %w", date, err)
		}
		if len(result.MPTPortfolioReturns) > riskParams.RollingWindow {
			if _, err := report.WriteRollingMetricsCSV(outDir, date, result, riskParams.RollingWindow); err != nil {
				return fmt.Errorf("writing rolling metrics for %s: %w", date, err)
			}
		}
		reportLog.Info().Str("date", date).Bool("rebalanced", decision.Rebalanced).Str("portfolio_csv", path).Msg("period processed")
	}

	if lastResult == nil {
		return fmt.Errorf("no rebalance events occurred across the input calendar")
	}

	if _, err := report.WriteFinalAnalysisCSV(outDir, lastResult, nil); err != nil {
		return fmt.Errorf("writing final analysis: %w", err)
	}
	log.Info().Str("last_date", lastDate).Float64("last_cost_estimate", lastCost).Msg("portfolio run complete")

	return nil
}

func runWatch(log zerolog.Logger, expr string, execute func() error) error {
	c := cron.New()
	_, err := c.AddFunc(expr, func() {
		if err := execute(); err != nil {
			log.Error().Err(err).Msg("scheduled run failed")
		}
	})
	if err != nil {
		return fmt.Errorf("parsing --watch schedule %q: %w", expr, err)
	}
	log.Info().Str("schedule", expr).Msg("watching on cron schedule; press Ctrl+C to stop")
	c.Start()
	defer c.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("stopping watch loop")
	return nil
}

// monthToken extracts the comparable "month" prefix from an M/D/YYYY
// date string: everything up to and including the year, minus the day.
func monthToken(date string) string {
	parts := strings.SplitN(date, "/", 3)
	if len(parts) != 3 {
		return date
	}
	return parts[0] + "/" + parts[2]
}
