package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerRow is the per-bar snapshot of the portfolio. Total values a short
// position as cash plus unrealized PnL, not mark-to-market of held shares.
type LedgerRow struct {
	Timestamp time.Time
	Cash      decimal.Decimal
	Shares    decimal.Decimal
	Total     decimal.Decimal
	Return    decimal.Decimal
}
