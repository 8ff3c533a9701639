// Package strategy turns candle series into position-intent series. A
// strategy decides, for every bar, whether it wants to be long, short or
// flat; the engine is responsible for actually executing those intents.
package strategy

import (
	"errors"
	"sort"

	"github.com/MihutMatei/quant-backtester/types"
)

var (
	ErrUnknownStrategy = errors.New("unknown strategy")
	ErrNoCandles       = errors.New("no candles to compute signals from")
	ErrBadPeriod       = errors.New("invalid look-back period")
)

// Strategy computes a position-intent series over a candle series. The
// returned slice has one IntentBar per input candle, in the same order.
type Strategy interface {
	Name() string
	Compute(candles []types.Candle) ([]types.IntentBar, error)
}

// Registry holds a named collection of strategies for lookup and enumeration.
type Registry struct {
	strategies map[string]Strategy
}

func NewRegistry() *Registry {
	return &Registry{strategies: make(map[string]Strategy)}
}

// Register adds a strategy to the registry, keyed by its Name().
func (r *Registry) Register(s Strategy) {
	r.strategies[s.Name()] = s
}

// Get retrieves a strategy by name. Returns ErrUnknownStrategy when the name
// is not registered.
func (r *Registry) Get(name string) (Strategy, error) {
	s, ok := r.strategies[name]
	if !ok {
		return nil, ErrUnknownStrategy
	}
	return s, nil
}

// List returns a sorted slice of all registered strategy names.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func closes(candles []types.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close.InexactFloat64()
	}
	return out
}

func highs(candles []types.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.High.InexactFloat64()
	}
	return out
}

func lows(candles []types.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Low.InexactFloat64()
	}
	return out
}

// markChanged fills the Changed flags from the first difference of the
// intent values. The first bar is never flagged.
func markChanged(bars []types.IntentBar) {
	for i := 1; i < len(bars); i++ {
		bars[i].Changed = bars[i].Intent != bars[i-1].Intent
	}
}
