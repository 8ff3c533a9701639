package engine

import (
	"log/slog"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/shopspring/decimal"

	"github.com/MihutMatei/quant-backtester/types"
)

var one = decimal.NewFromInt(1)
var hundred = decimal.NewFromInt(100)

// backtester walks the bars in chronological order exactly once, executing
// intent transitions and risk exits against a single mutable position state.
// Each run owns its own instance; there is no sharing across runs.
type backtester struct {
	cfg   Config
	log   *slog.Logger
	rules []riskRule

	cash         decimal.Decimal
	shares       decimal.Decimal
	positionType types.PositionType
	entryPrice   decimal.Decimal
	entryTime    time.Time
	trailingStop decimal.Decimal
	hasTrailing  bool

	// dedup clock: time of the last signal-driven transaction
	lastSignalTx time.Time
	hasSignalTx  bool

	ledger       []types.LedgerRow
	transactions []types.Transaction
}

func newBacktester(cfg Config, log *slog.Logger) *backtester {
	if log == nil {
		log = slog.Default()
	}
	return &backtester{
		cfg:          cfg,
		log:          log,
		rules:        newRiskRules(cfg),
		cash:         cfg.InitialCapital,
		shares:       decimal.Zero,
		positionType: types.PositionNone,
	}
}

func (b *backtester) run(candles []types.Candle, intents []types.IntentBar) ([]types.LedgerRow, []types.Transaction, error) {
	if len(candles) == 0 {
		return nil, nil, ErrNoPriceData
	}
	if len(intents) != len(candles) {
		return nil, nil, ErrSeriesMismatch
	}

	var bar *progressbar.ProgressBar
	if b.cfg.ShowProgress {
		bar = initProgressBar(len(candles))
	}

	b.ledger = make([]types.LedgerRow, 0, len(candles))
	price := decimal.Zero
	for i, c := range candles {
		// Forward-fill missing prices.
		if c.Close.IsPositive() {
			price = c.Close
		}
		if price.IsZero() {
			// No price seen yet; nothing can trade.
			b.appendLedgerRow(c.Timestamp, price)
			continue
		}

		// Risk exits run before strategy transitions.
		if b.positionType != types.PositionNone {
			b.ratchetTrailingStop(price)
			b.checkRiskExits(c.Timestamp, price)
		}

		if i > 0 && intents[i].Changed && b.dedupOK(c.Timestamp) {
			b.applyIntent(c.Timestamp, price, intents[i].Intent)
		}

		b.appendLedgerRow(c.Timestamp, price)
		if bar != nil {
			bar.Add(1)
		}
	}
	return b.ledger, b.transactions, nil
}

// applyIntent dispatches on the (current position, new intent) pair. The
// caller has already checked the dedup gate; a transition counts as one
// gated event even when it logs two legs.
func (b *backtester) applyIntent(t time.Time, price decimal.Decimal, intent types.Intent) {
	executed := false
	switch {
	case intent == types.IntentLong && b.positionType != types.PositionLong:
		if b.positionType == types.PositionShort {
			b.closeShort(t, price, types.ActionCover)
		}
		b.openLong(t, price)
		executed = true

	case intent == types.IntentShort && b.positionType != types.PositionShort:
		if b.positionType == types.PositionLong {
			// SELL only as the closing leg of a reversal; without shorting
			// the sell signal is a plain exit.
			action := types.ActionExitLong
			if b.cfg.EnableShorting {
				action = types.ActionSell
			}
			b.closeLong(t, price, action)
			executed = true
		}
		if b.cfg.EnableShorting {
			b.openShort(t, price)
			executed = true
		}

	case intent == types.IntentFlat:
		switch b.positionType {
		case types.PositionLong:
			b.closeLong(t, price, types.ActionExitLong)
			executed = true
		case types.PositionShort:
			b.closeShort(t, price, types.ActionExitShort)
			executed = true
		}
	}
	if executed {
		b.lastSignalTx = t
		b.hasSignalTx = true
	}
}

func (b *backtester) dedupOK(t time.Time) bool {
	if !b.hasSignalTx || b.cfg.DedupWindow <= 0 {
		return true
	}
	return t.Sub(b.lastSignalTx) >= b.cfg.DedupWindow
}

// buyPrice and sellPrice apply the flat spread around the bar price.
func (b *backtester) buyPrice(price decimal.Decimal) decimal.Decimal {
	if b.cfg.SpreadPct == 0 {
		return price
	}
	return price.Mul(one.Add(decimal.NewFromFloat(b.cfg.SpreadPct / 2)))
}

func (b *backtester) sellPrice(price decimal.Decimal) decimal.Decimal {
	if b.cfg.SpreadPct == 0 {
		return price
	}
	return price.Mul(one.Sub(decimal.NewFromFloat(b.cfg.SpreadPct / 2)))
}

func (b *backtester) openLong(t time.Time, price decimal.Decimal) {
	fp := b.buyPrice(price)
	if !b.cash.IsPositive() || !fp.IsPositive() {
		return
	}
	b.shares = b.cash.Div(fp)
	b.cash = decimal.Zero
	b.positionType = types.PositionLong
	b.entryPrice = fp
	b.entryTime = t
	if b.cfg.EnableTrailingStop && b.cfg.TrailingStopPct > 0 {
		b.trailingStop = fp.Mul(one.Sub(decimal.NewFromFloat(b.cfg.TrailingStopPct)))
		b.hasTrailing = true
	}
	b.logTransaction(t, types.ActionBuy, fp, b.shares, decimal.Zero, decimal.Zero, price)
}

func (b *backtester) openShort(t time.Time, price decimal.Decimal) {
	fp := b.sellPrice(price)
	if !b.cash.IsPositive() || !fp.IsPositive() {
		return
	}
	qty := b.cash.Div(fp)
	b.shares = qty.Neg()
	b.positionType = types.PositionShort
	b.entryPrice = fp
	b.entryTime = t
	if b.cfg.EnableTrailingStop && b.cfg.TrailingStopPct > 0 {
		b.trailingStop = fp.Mul(one.Add(decimal.NewFromFloat(b.cfg.TrailingStopPct)))
		b.hasTrailing = true
	}
	b.logTransaction(t, types.ActionShort, fp, qty, decimal.Zero, decimal.Zero, price)
}

func (b *backtester) closeLong(t time.Time, price decimal.Decimal, action types.Action) {
	fp := b.sellPrice(price)
	b.closeLongAt(t, fp, price, action)
}

// closeLongAt realizes the long at the given fill price. Risk exits pass a
// threshold-derived price so the logged return matches the configured
// percentage exactly.
func (b *backtester) closeLongAt(t time.Time, fill, mark decimal.Decimal, action types.Action) {
	qty := b.shares
	pnl := fill.Sub(b.entryPrice).Mul(qty)
	ret := fill.Div(b.entryPrice).Sub(one).Mul(hundred)
	b.cash = qty.Mul(fill)
	b.clearPosition()
	b.logTransaction(t, action, fill, qty, pnl, ret, mark)
}

func (b *backtester) closeShort(t time.Time, price decimal.Decimal, action types.Action) {
	fp := b.buyPrice(price)
	b.closeShortAt(t, fp, price, action)
}

func (b *backtester) closeShortAt(t time.Time, fill, mark decimal.Decimal, action types.Action) {
	qty := b.shares.Abs()
	pnl := b.entryPrice.Sub(fill).Mul(qty)
	ret := b.entryPrice.Sub(fill).Div(b.entryPrice).Mul(hundred)
	b.cash = b.cash.Add(pnl)
	b.clearPosition()
	b.logTransaction(t, action, fill, qty, pnl, ret, mark)
}

func (b *backtester) clearPosition() {
	b.shares = decimal.Zero
	b.positionType = types.PositionNone
	b.entryPrice = decimal.Zero
	b.entryTime = time.Time{}
	b.trailingStop = decimal.Zero
	b.hasTrailing = false
}

// equity values a short position as cash plus unrealized PnL; there are no
// shares to mark to market.
func (b *backtester) equity(price decimal.Decimal) decimal.Decimal {
	switch b.positionType {
	case types.PositionLong:
		return b.cash.Add(b.shares.Mul(price))
	case types.PositionShort:
		return b.cash.Add(b.entryPrice.Sub(price).Mul(b.shares.Abs()))
	default:
		return b.cash
	}
}

func (b *backtester) appendLedgerRow(t time.Time, price decimal.Decimal) {
	total := b.equity(price)
	ret := decimal.Zero
	if n := len(b.ledger); n > 0 && b.ledger[n-1].Total.IsPositive() {
		ret = total.Div(b.ledger[n-1].Total).Sub(one)
	}
	b.ledger = append(b.ledger, types.LedgerRow{
		Timestamp: t,
		Cash:      b.cash,
		Shares:    b.shares,
		Total:     total,
		Return:    ret,
	})
}

func (b *backtester) logTransaction(t time.Time, action types.Action, fill, shares, pnl, ret, mark decimal.Decimal) {
	b.transactions = append(b.transactions, types.Transaction{
		Time:           t,
		Action:         action,
		Price:          fill,
		Shares:         shares,
		PnL:            pnl,
		ReturnPct:      ret,
		PortfolioValue: b.equity(mark),
	})
}

func initProgressBar(maxTicks int) *progressbar.ProgressBar {
	return progressbar.NewOptions(maxTicks,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetDescription("Backtesting in progress..."),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
