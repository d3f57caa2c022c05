// Package config holds the tunable parameters of the portfolio engine.
//
// Every value here is a plain struct populated by a Default constructor.
// There are no environment variables and no config files: configuration
// lives in struct-like records only.
package config

// EngineConfig holds the top-level knobs the engine needs to slice windows,
// run the solver, and annualise metrics.
type EngineConfig struct {
	// WindowSize is the trailing number of daily observations used to
	// refit covariances on each rebalance.
	WindowSize int
	// TradingDaysPerMonth resolves the duplicate 21-vs-22 constant found
	// across the source variants this was distilled from (see DESIGN.md): 21.
	TradingDaysPerMonth int
	// TradingDaysPerYear is used to annualise volatility and tracking error.
	TradingDaysPerYear int
	// TargetDailyReturn is the default tau passed to the tracking-error
	// objective when the caller does not override it.
	TargetDailyReturn float64
	// RiskFreeRate is not read by the engine; Sharpe, alpha, Treynor and
	// the information ratio use RiskParameters.RiskFreeRate.
	RiskFreeRate float64
	// FrontierPoints is K, the number of swept target returns.
	FrontierPoints int
	// FrontierMin/FrontierMax bound the tracking-error sweep range;
	// the MPT sweep instead uses [min(mu), max(mu)].
	FrontierMin float64
	FrontierMax float64
}

// DefaultEngineConfig reproduces the engine's published defaults.
func DefaultEngineConfig() EngineConfig {
	const frontierPoints = 50
	return EngineConfig{
		WindowSize:          252,
		TradingDaysPerMonth: 21,
		TradingDaysPerYear:  252,
		TargetDailyReturn:   0.0013,
		RiskFreeRate:        0.0,
		FrontierPoints:      frontierPoints,
		FrontierMin:         -0.001,
		FrontierMax:         -0.001 + float64(frontierPoints)*0.00005,
	}
}

// CostParameters configures the transaction cost model.
type CostParameters struct {
	FixedCommission     float64 // currency units per non-zero leg
	VariableCommission  float64 // fraction of trade notional
	SlippageCoefficient float64 // coefficient on sqrt(s/v)
	ImpactCoefficient   float64 // coefficient on (s/D/v)^1.5
	DaysToExecute       int     // D, number of days a trade is split across
	ImpactDecayRate     float64 // per-day exponential decay on impact contribution
}

// DefaultCostParameters reproduces the cost model's published defaults:
// fixed=1bp, variable=5bp, impact=0.1, slippage=2bp (expressed per unit
// notional, consistent with the rest of the engine's currency-free units).
func DefaultCostParameters() CostParameters {
	return CostParameters{
		FixedCommission:     0.0001,
		VariableCommission:  0.0005,
		SlippageCoefficient: 0.0002,
		ImpactCoefficient:   0.1,
		DaysToExecute:       1,
		ImpactDecayRate:     0.1,
	}
}

// ConstraintLimits enumerates the recognised constraint options. A limit is
// enabled unless its corresponding Enable flag is false where one exists;
// the hard bounds (position, sector, volatility, turnover, liquidity,
// diversification) are always checked.
type ConstraintLimits struct {
	MaxPositionSize  float64
	MinPositionSize  float64
	MaxShortExposure float64
	MaxSectorExposure float64
	MaxVolatility     float64

	MaxTrackingError         float64
	EnableTrackingErrorCheck bool

	MaxBetaDeviation float64
	EnableBetaCheck  bool

	MaxTurnover   float64
	MinTradeSize  float64
	MinLiquidity  float64
	MaxADVPercent float64
	MinPositions  int
	MaxPositions  int
	MaxIterations int
}

// DefaultConstraintLimits reproduces the constraint defaults:
// maxPos=0.15, minPos=-0.05, maxSector=0.25, maxVol=0.20, maxTE=0.06,
// maxTurnover=0.15.
func DefaultConstraintLimits() ConstraintLimits {
	return ConstraintLimits{
		MaxPositionSize:          0.15,
		MinPositionSize:          -0.05,
		MaxShortExposure:         0.30,
		MaxSectorExposure:        0.25,
		MaxVolatility:            0.20,
		MaxTrackingError:         0.06,
		EnableTrackingErrorCheck: true,
		MaxBetaDeviation:         0.30,
		EnableBetaCheck:          false,
		MaxTurnover:              0.15,
		MinTradeSize:             0.001,
		MinLiquidity:             0.0,
		MaxADVPercent:            0.10,
		MinPositions:             1,
		MaxPositions:             1 << 30, // effectively unbounded unless set
		MaxIterations:            100,
	}
}

// RiskParameters configures the risk metrics calculator.
type RiskParameters struct {
	RiskFreeRate       float64
	TargetReturn       float64 // MAR for Sortino
	TradingDaysPerYear int
	VaRConfidence      float64 // alpha in valueAtRisk(alpha)/expectedShortfall(alpha)
	RollingWindow      int
}

// DefaultRiskParameters mirrors EngineConfig's annualisation constants.
func DefaultRiskParameters() RiskParameters {
	return RiskParameters{
		RiskFreeRate:       0.0,
		TargetReturn:       0.0,
		TradingDaysPerYear: 252,
		VaRConfidence:      0.95,
		RollingWindow:      63,
	}
}
