package types

import "time"

// Intent is the directional position a strategy wants to hold for a bar.
type Intent int

const (
	IntentLong  Intent = 1
	IntentShort Intent = -1
	IntentFlat  Intent = 0
)

// IntentBar is one element of the position-intent series a strategy produces.
// Changed flags bars where Intent differs from the previous bar, mirroring a
// first-difference column.
type IntentBar struct {
	Timestamp time.Time
	Intent    Intent
	Changed   bool
}
