package engine

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/MihutMatei/quant-backtester/types"
)

// riskRule is one (predicate, action) pair of the risk-exit cascade. Rules
// are evaluated top to bottom with first-match-wins semantics, which keeps
// the tie-break order between simultaneous triggers auditable.
type riskRule struct {
	name      string
	triggered func(b *backtester, price decimal.Decimal) bool
	apply     func(b *backtester, t time.Time, price decimal.Decimal)
}

// newRiskRules builds the exit cascade: stop-loss, then take-profit, then
// trailing-stop. Exit prices are derived from the configured thresholds, not
// the raw bar price, so the logged return equals the configured percentage
// even when the market gapped past the level.
func newRiskRules(cfg Config) []riskRule {
	var rules []riskRule

	if cfg.StopLossPct > 0 {
		stop := decimal.NewFromFloat(cfg.StopLossPct)
		rules = append(rules, riskRule{
			name: "stop-loss",
			triggered: func(b *backtester, price decimal.Decimal) bool {
				return b.positionReturn(price).LessThanOrEqual(stop.Neg())
			},
			apply: func(b *backtester, t time.Time, price decimal.Decimal) {
				if b.positionType == types.PositionLong {
					b.closeLongAt(t, b.entryPrice.Mul(one.Sub(stop)), price, types.ActionStopLossLong)
				} else {
					b.closeShortAt(t, b.entryPrice.Mul(one.Add(stop)), price, types.ActionStopLossShort)
				}
			},
		})
	}

	if cfg.TakeProfitPct > 0 {
		take := decimal.NewFromFloat(cfg.TakeProfitPct)
		rules = append(rules, riskRule{
			name: "take-profit",
			triggered: func(b *backtester, price decimal.Decimal) bool {
				return b.positionReturn(price).GreaterThanOrEqual(take)
			},
			apply: func(b *backtester, t time.Time, price decimal.Decimal) {
				if b.positionType == types.PositionLong {
					b.closeLongAt(t, b.entryPrice.Mul(one.Add(take)), price, types.ActionTakeProfitLong)
				} else {
					b.closeShortAt(t, b.entryPrice.Mul(one.Sub(take)), price, types.ActionTakeProfitShort)
				}
			},
		})
	}

	if cfg.EnableTrailingStop && cfg.TrailingStopPct > 0 {
		rules = append(rules, riskRule{
			name: "trailing-stop",
			triggered: func(b *backtester, price decimal.Decimal) bool {
				if !b.hasTrailing {
					return false
				}
				if b.positionType == types.PositionLong {
					return price.LessThanOrEqual(b.trailingStop)
				}
				return price.GreaterThanOrEqual(b.trailingStop)
			},
			apply: func(b *backtester, t time.Time, price decimal.Decimal) {
				if b.positionType == types.PositionLong {
					b.closeLongAt(t, b.trailingStop, price, types.ActionTrailingStopLong)
				} else {
					b.closeShortAt(t, b.trailingStop, price, types.ActionTrailingStopShort)
				}
			},
		})
	}

	return rules
}

// checkRiskExits runs the cascade against the current bar. The first rule
// satisfied fires the exit; the rest are not evaluated.
func (b *backtester) checkRiskExits(t time.Time, price decimal.Decimal) {
	for _, rule := range b.rules {
		if rule.triggered(b, price) {
			side := b.positionType
			rule.apply(b, t, price)
			b.log.Debug("risk exit fired",
				"rule", rule.name,
				"side", string(side),
				"time", t,
				"price", price.StringFixed(2),
			)
			return
		}
	}
}

// positionReturn is the signed return of the open position at the given
// price: (price-entry)/entry for longs, (entry-price)/entry for shorts.
func (b *backtester) positionReturn(price decimal.Decimal) decimal.Decimal {
	if !b.entryPrice.IsPositive() {
		return decimal.Zero
	}
	if b.positionType == types.PositionShort {
		return b.entryPrice.Sub(price).Div(b.entryPrice)
	}
	return price.Sub(b.entryPrice).Div(b.entryPrice)
}

// ratchetTrailingStop moves the trailing stop one way only: up for longs,
// down for shorts.
func (b *backtester) ratchetTrailingStop(price decimal.Decimal) {
	if !b.cfg.EnableTrailingStop || b.cfg.TrailingStopPct <= 0 || !b.hasTrailing {
		return
	}
	trail := decimal.NewFromFloat(b.cfg.TrailingStopPct)
	if b.positionType == types.PositionLong {
		candidate := price.Mul(one.Sub(trail))
		if candidate.GreaterThan(b.trailingStop) {
			b.trailingStop = candidate
		}
		return
	}
	candidate := price.Mul(one.Add(trail))
	if candidate.LessThan(b.trailingStop) {
		b.trailingStop = candidate
	}
}
