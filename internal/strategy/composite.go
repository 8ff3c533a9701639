package strategy

import (
	"github.com/MihutMatei/quant-backtester/internal/indicators"
	"github.com/MihutMatei/quant-backtester/types"
)

// Compile-time interface check.
var _ Strategy = (*Composite)(nil)

// Composite combines RSI, Williams %R and rolling volatility. Entries are
// conjunctive (all three must agree, with volatility acting as a regime
// filter) and exits are disjunctive (any one condition fires). Exits are
// reversals: leaving a long immediately enters a short and vice versa.
// Until the longest look-back window has elapsed the intent is forced flat.
type Composite struct {
	RSIPeriod int
	RSILow    float64
	RSIHigh   float64

	WRPeriod     int
	WRLongEntry  float64
	WRLongExit   float64
	WRShortEntry float64
	WRShortExit  float64

	VolPeriod int
	VolMax    float64
}

func NewComposite(rsiPeriod int, rsiLow, rsiHigh float64, wrPeriod int, wrLongEntry, wrLongExit, wrShortEntry, wrShortExit float64, volPeriod int, volMax float64) *Composite {
	return &Composite{
		RSIPeriod:    rsiPeriod,
		RSILow:       rsiLow,
		RSIHigh:      rsiHigh,
		WRPeriod:     wrPeriod,
		WRLongEntry:  wrLongEntry,
		WRLongExit:   wrLongExit,
		WRShortEntry: wrShortEntry,
		WRShortExit:  wrShortExit,
		VolPeriod:    volPeriod,
		VolMax:       volMax,
	}
}

func (s *Composite) Name() string { return "composite" }

func (s *Composite) warmup() int {
	w := s.RSIPeriod + 1
	if s.WRPeriod > w {
		w = s.WRPeriod
	}
	if s.VolPeriod+1 > w {
		w = s.VolPeriod + 1
	}
	return w
}

func (s *Composite) Compute(candles []types.Candle) ([]types.IntentBar, error) {
	if len(candles) == 0 {
		return nil, ErrNoCandles
	}
	// RollingVolatility needs at least two returns in its window.
	if s.RSIPeriod <= 0 || s.WRPeriod <= 0 || s.VolPeriod <= 1 {
		return nil, ErrBadPeriod
	}
	cl := closes(candles)
	rsi := indicators.RSI(cl, s.RSIPeriod)
	wr := indicators.WilliamsR(highs(candles), lows(candles), cl, s.WRPeriod)
	vol := indicators.RollingVolatility(cl, s.VolPeriod)

	warmup := s.warmup()
	bars := make([]types.IntentBar, len(candles))
	prev := types.IntentFlat
	for i, c := range candles {
		if i < warmup {
			bars[i] = types.IntentBar{Timestamp: c.Timestamp, Intent: types.IntentFlat}
			prev = types.IntentFlat
			continue
		}

		cur := prev
		// NaN comparisons are false, so an undefined indicator never
		// satisfies a rule and the previous intent is held.
		switch {
		case rsi[i] <= s.RSILow && wr[i] <= s.WRLongEntry && vol[i] <= s.VolMax:
			cur = types.IntentLong
		case rsi[i] >= s.RSIHigh && wr[i] >= s.WRShortEntry && vol[i] <= s.VolMax:
			cur = types.IntentShort
		case prev == types.IntentLong && (rsi[i] >= s.RSIHigh || wr[i] >= s.WRLongExit):
			cur = types.IntentShort
		case prev == types.IntentShort && (rsi[i] <= s.RSILow || wr[i] <= s.WRShortExit):
			cur = types.IntentLong
		}
		bars[i] = types.IntentBar{Timestamp: c.Timestamp, Intent: cur}
		prev = cur
	}
	markChanged(bars)
	return bars, nil
}
