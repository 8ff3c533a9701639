package strategy

import (
	"math"

	"github.com/MihutMatei/quant-backtester/internal/indicators"
	"github.com/MihutMatei/quant-backtester/types"
)

// Compile-time interface check.
var _ Strategy = (*WilliamsR)(nil)

// WilliamsR is a stateful threshold strategy on the Williams %R oscillator.
// Transition rules are evaluated in fixed priority order each bar: long
// entry, long exit, short entry, short exit, hold. With overlapping threshold
// bands the long entry wins over the short entry; callers configuring
// overlapping bands get that long bias.
//
// %R lives in [-100, 0]. Typical thresholds: long entry at -80 (oversold),
// long exit at -20, short entry at -20 (overbought), short exit at -80.
type WilliamsR struct {
	Period     int
	LongEntry  float64
	LongExit   float64
	ShortEntry float64
	ShortExit  float64
}

func NewWilliamsR(period int, longEntry, longExit, shortEntry, shortExit float64) *WilliamsR {
	return &WilliamsR{
		Period:     period,
		LongEntry:  longEntry,
		LongExit:   longExit,
		ShortEntry: shortEntry,
		ShortExit:  shortExit,
	}
}

func (s *WilliamsR) Name() string { return "williams" }

func (s *WilliamsR) Compute(candles []types.Candle) ([]types.IntentBar, error) {
	if len(candles) == 0 {
		return nil, ErrNoCandles
	}
	if s.Period <= 0 {
		return nil, ErrBadPeriod
	}
	wr := indicators.WilliamsR(highs(candles), lows(candles), closes(candles), s.Period)

	bars := make([]types.IntentBar, len(candles))
	prev := types.IntentFlat
	for i, c := range candles {
		cur := prev
		v := wr[i]
		// Undefined indicator holds the previous intent, never defaults
		// to flat.
		if !math.IsNaN(v) {
			switch {
			case prev != types.IntentLong && v <= s.LongEntry:
				cur = types.IntentLong
			case prev == types.IntentLong && v >= s.LongExit:
				cur = types.IntentFlat
			case prev != types.IntentShort && v >= s.ShortEntry:
				cur = types.IntentShort
			case prev == types.IntentShort && v <= s.ShortExit:
				cur = types.IntentFlat
			}
		}
		bars[i] = types.IntentBar{Timestamp: c.Timestamp, Intent: cur}
		prev = cur
	}
	markChanged(bars)
	return bars, nil
}
