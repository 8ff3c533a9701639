package strategy

import (
	"math"

	"github.com/MihutMatei/quant-backtester/internal/indicators"
	"github.com/MihutMatei/quant-backtester/types"
)

// Compile-time interface checks.
var _ Strategy = (*MACross)(nil)
var _ Strategy = (*MeanReversion)(nil)

// MACross is a stateless moving-average crossover: long when the short
// average is above the long average, short otherwise. The first ShortWindow
// bars carry no signal. Averages use an expanding window during warmup so
// the long average is defined from the first bar.
type MACross struct {
	ShortWindow int
	LongWindow  int
}

func NewMACross(short, long int) *MACross {
	return &MACross{ShortWindow: short, LongWindow: long}
}

func (s *MACross) Name() string { return "ma-cross" }

func (s *MACross) Compute(candles []types.Candle) ([]types.IntentBar, error) {
	if len(candles) == 0 {
		return nil, ErrNoCandles
	}
	if s.ShortWindow <= 0 || s.LongWindow <= 0 {
		return nil, ErrBadPeriod
	}
	cl := closes(candles)
	short := expandingSMA(cl, s.ShortWindow)
	long := expandingSMA(cl, s.LongWindow)

	bars := make([]types.IntentBar, len(candles))
	for i, c := range candles {
		intent := types.IntentFlat
		if i >= s.ShortWindow {
			if short[i] > long[i] {
				intent = types.IntentLong
			} else {
				intent = types.IntentShort
			}
		}
		bars[i] = types.IntentBar{Timestamp: c.Timestamp, Intent: intent}
	}
	markChanged(bars)
	return bars, nil
}

// MeanReversion is a stateless z-score strategy: long when the price is more
// than Threshold deviations below its rolling mean, short when above, flat
// in between or while the z-score is undefined.
type MeanReversion struct {
	Window    int
	Threshold float64
}

func NewMeanReversion(window int, threshold float64) *MeanReversion {
	return &MeanReversion{Window: window, Threshold: threshold}
}

func (s *MeanReversion) Name() string { return "mean-reversion" }

func (s *MeanReversion) Compute(candles []types.Candle) ([]types.IntentBar, error) {
	if len(candles) == 0 {
		return nil, ErrNoCandles
	}
	// The rolling deviation needs a window of at least two.
	if s.Window <= 1 {
		return nil, ErrBadPeriod
	}
	z := indicators.ZScore(closes(candles), s.Window)

	bars := make([]types.IntentBar, len(candles))
	for i, c := range candles {
		intent := types.IntentFlat
		switch {
		case math.IsNaN(z[i]):
		case z[i] <= -s.Threshold:
			intent = types.IntentLong
		case z[i] >= s.Threshold:
			intent = types.IntentShort
		}
		bars[i] = types.IntentBar{Timestamp: c.Timestamp, Intent: intent}
	}
	markChanged(bars)
	return bars, nil
}

// expandingSMA is a rolling mean with an expanding window during warmup:
// the first p-1 values average what is available instead of being NaN.
func expandingSMA(x []float64, p int) []float64 {
	if p <= 0 {
		return nil
	}
	out := make([]float64, len(x))
	var sum float64
	for i := range x {
		sum += x[i]
		if i >= p {
			sum -= x[i-p]
		}
		n := i + 1
		if n > p {
			n = p
		}
		out[i] = sum / float64(n)
	}
	return out
}
