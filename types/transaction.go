package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type Action string

const (
	ActionBuy       Action = "BUY"
	ActionSell      Action = "SELL"
	ActionShort     Action = "SHORT"
	ActionCover     Action = "COVER"
	ActionExitLong  Action = "EXIT_LONG"
	ActionExitShort Action = "EXIT_SHORT"

	ActionStopLossLong      Action = "STOP_LOSS_LONG"
	ActionStopLossShort     Action = "STOP_LOSS_SHORT"
	ActionTakeProfitLong    Action = "TAKE_PROFIT_LONG"
	ActionTakeProfitShort   Action = "TAKE_PROFIT_SHORT"
	ActionTrailingStopLong  Action = "TRAILING_STOP_LONG"
	ActionTrailingStopShort Action = "TRAILING_STOP_SHORT"
)

// IsRiskExit reports whether the action was triggered by risk management
// rather than a strategy signal. Risk exits bypass the transaction
// deduplication window.
func (a Action) IsRiskExit() bool {
	switch a {
	case ActionStopLossLong, ActionStopLossShort,
		ActionTakeProfitLong, ActionTakeProfitShort,
		ActionTrailingStopLong, ActionTrailingStopShort:
		return true
	}
	return false
}

type PositionType string

const (
	PositionLong  PositionType = "LONG"
	PositionShort PositionType = "SHORT"
	PositionNone  PositionType = "NONE"
)

// Transaction is an immutable record of a single executed trade leg.
type Transaction struct {
	Time           time.Time
	Action         Action
	Price          decimal.Decimal
	Shares         decimal.Decimal
	PnL            decimal.Decimal
	ReturnPct      decimal.Decimal
	PortfolioValue decimal.Decimal
}
