package engine

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/MihutMatei/quant-backtester/types"
)

// Metrics are pure reductions over the finished equity series.
type Metrics struct {
	CAGR        float64
	SharpeRatio float64
	// MaxDrawdown is the worst peak-to-trough equity move, expressed as a
	// negative fraction.
	MaxDrawdown float64

	FinalEquity    decimal.Decimal
	TotalReturnPct float64

	// BuyHoldEquity is what the initial capital would be worth holding the
	// asset over the same bars, for benchmark comparison.
	BuyHoldEquity decimal.Decimal

	TotalTransactions int
}

func computeMetrics(ledger []types.LedgerRow, transactions []types.Transaction, candles []types.Candle, cfg Config) Metrics {
	equity := make([]float64, len(ledger))
	for i, row := range ledger {
		equity[i] = row.Total.InexactFloat64()
	}

	m := Metrics{
		CAGR:              CAGR(equity, cfg.PeriodsPerYear),
		SharpeRatio:       Sharpe(equity, cfg.PeriodsPerYear),
		MaxDrawdown:       MaxDrawdown(equity),
		BuyHoldEquity:     buyHoldEquity(candles, cfg.InitialCapital),
		TotalTransactions: len(transactions),
	}
	if len(ledger) > 0 {
		m.FinalEquity = ledger[len(ledger)-1].Total
		if cfg.InitialCapital.IsPositive() {
			m.TotalReturnPct = m.FinalEquity.Div(cfg.InitialCapital).Sub(one).Mul(hundred).InexactFloat64()
		}
	}
	return m
}

// CAGR computes (end/start)^(1/years) - 1 with years = bars/periodsPerYear.
// Degenerate inputs (fewer than two bars, non-positive start or ratio) yield
// zero rather than a division error.
func CAGR(equity []float64, periodsPerYear float64) float64 {
	if len(equity) < 2 || periodsPerYear <= 0 {
		return 0
	}
	start := equity[0]
	end := equity[len(equity)-1]
	if start <= 0 {
		return 0
	}
	ratio := end / start
	if ratio <= 0 {
		return 0
	}
	years := float64(len(equity)) / periodsPerYear
	if years <= 0 {
		return 0
	}
	return math.Pow(ratio, 1/years) - 1
}

// Sharpe computes mean(return)/std(return) * sqrt(periodsPerYear) over the
// per-bar equity returns. Fewer than two returns, or zero deviation, yields
// zero.
func Sharpe(equity []float64, periodsPerYear float64) float64 {
	if len(equity) < 3 || periodsPerYear <= 0 {
		return 0
	}
	returns := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		if equity[i-1] == 0 {
			continue
		}
		returns = append(returns, equity[i]/equity[i-1]-1)
	}
	if len(returns) < 2 {
		return 0
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var varianceSum float64
	for _, r := range returns {
		d := r - mean
		varianceSum += d * d
	}
	std := math.Sqrt(varianceSum / float64(len(returns)-1))
	if std == 0 {
		return 0
	}
	return mean / std * math.Sqrt(periodsPerYear)
}

// MaxDrawdown returns min over time of equity/runningMax - 1, a value <= 0.
func MaxDrawdown(equity []float64) float64 {
	if len(equity) == 0 {
		return 0
	}
	peak := equity[0]
	maxDD := 0.0
	for _, v := range equity {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			dd := v/peak - 1
			if dd < maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// buyHoldEquity normalizes the close series to the initial capital: the
// benchmark a strategy has to beat.
func buyHoldEquity(candles []types.Candle, initialCapital decimal.Decimal) decimal.Decimal {
	if len(candles) == 0 {
		return initialCapital
	}
	first := candles[0].Close
	last := candles[len(candles)-1].Close
	if !first.IsPositive() {
		return initialCapital
	}
	return initialCapital.Mul(last).Div(first)
}
