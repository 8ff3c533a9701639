// Package engine executes a position-intent series against a price series,
// producing a per-bar portfolio ledger, a transaction log and performance
// metrics. The simulation is fully sequential: state at bar t depends on the
// outcome of bar t-1, so parallelism belongs across runs, never within one.
package engine

import (
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MihutMatei/quant-backtester/types"
)

var (
	ErrNoPriceData    = errors.New("no price data to backtest")
	ErrSeriesMismatch = errors.New("intent series does not cover the price series")
)

// Config holds the execution parameters for a single backtest run.
type Config struct {
	InitialCapital decimal.Decimal

	// Risk exits. A zero percentage disables the corresponding rule.
	StopLossPct        float64
	TakeProfitPct      float64
	TrailingStopPct    float64
	EnableTrailingStop bool

	EnableShorting bool

	// SpreadPct is the flat spread applied symmetrically around the bar
	// price on signal-driven fills.
	SpreadPct float64

	// DedupWindow is the minimum time between two signal-driven
	// transactions. Risk exits bypass it.
	DedupWindow time.Duration

	// PeriodsPerYear annualizes CAGR and Sharpe. It is a caller-supplied
	// constant (252 for daily bars); it is never inferred from timestamps,
	// so intraday runs must set it to match their bar interval.
	PeriodsPerYear float64

	ShowProgress bool
}

// Result is the complete output of one run.
type Result struct {
	RunID        uuid.UUID
	Ledger       []types.LedgerRow
	Transactions []types.Transaction
	Metrics      Metrics
}

// Engine runs backtests. It is stateless across runs; every Run call builds
// a fresh position state.
type Engine struct {
	cfg Config
	log *slog.Logger
}

func NewEngine(cfg Config, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{cfg: cfg, log: log}
}

// Run replays the intent series against the candles. The two series must be
// pre-aligned: one intent per candle, same order. Open positions are not
// force-closed at the last bar; final equity is mark-to-market.
func (e *Engine) Run(candles []types.Candle, intents []types.IntentBar) (*Result, error) {
	runID := uuid.New()
	log := e.log.With("run_id", runID.String())

	bt := newBacktester(e.cfg, log)
	ledger, transactions, err := bt.run(candles, intents)
	if err != nil {
		return nil, err
	}

	metrics := computeMetrics(ledger, transactions, candles, e.cfg)
	log.Info("backtest finished",
		"bars", len(ledger),
		"transactions", len(transactions),
		"final_equity", metrics.FinalEquity.StringFixed(2),
	)

	return &Result{
		RunID:        runID,
		Ledger:       ledger,
		Transactions: transactions,
		Metrics:      metrics,
	}, nil
}
