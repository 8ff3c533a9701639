package strategy

import (
	"reflect"
	"testing"

	"github.com/MihutMatei/quant-backtester/types"
)

func TestMACross(t *testing.T) {
	tests := []struct {
		name   string
		closes []float64
		want   []types.Intent
	}{
		{
			name:   "uptrend",
			closes: []float64{10, 20, 30, 40, 50},
			want:   []types.Intent{0, 0, 1, 1, 1},
		},
		{
			name:   "downtrend",
			closes: []float64{50, 40, 30, 20, 10},
			want:   []types.Intent{0, 0, -1, -1, -1},
		},
		{
			name:   "reversal flips the signal",
			closes: []float64{10, 20, 30, 20, 10},
			want:   []types.Intent{0, 0, 1, 1, -1},
		},
	}

	s := NewMACross(2, 3)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bars, err := s.Compute(closeCandles(tt.closes...))
			if err != nil {
				t.Fatal(err)
			}
			assertIntents(t, bars, tt.want)
		})
	}
}

func TestMACross_WarmupCarriesNoSignal(t *testing.T) {
	s := NewMACross(3, 5)
	bars, err := s.Compute(closeCandles(10, 20, 30, 40, 50, 60))
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < s.ShortWindow; i++ {
		if bars[i].Intent != types.IntentFlat {
			t.Errorf("bar %d: intent = %d, want flat during warmup", i, bars[i].Intent)
		}
	}
	if bars[3].Intent != types.IntentLong {
		t.Errorf("bar 3: intent = %d, want long", bars[3].Intent)
	}
}

func TestExpandingSMA(t *testing.T) {
	got := expandingSMA([]float64{10, 20, 30, 40}, 3)
	want := []float64{10, 15, 20, 30}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expandingSMA = %v, want %v", got, want)
	}
	if expandingSMA([]float64{1, 2}, 0) != nil {
		t.Error("non-positive period must yield nil")
	}
}

func TestMeanReversion(t *testing.T) {
	tests := []struct {
		name   string
		closes []float64
		want   []types.Intent
	}{
		{
			name:   "stretch above the mean shorts",
			closes: []float64{1, 2, 3, 4, 5},
			want:   []types.Intent{0, 0, -1, -1, -1},
		},
		{
			name:   "stretch below the mean longs",
			closes: []float64{5, 4, 3, 2, 1},
			want:   []types.Intent{0, 0, 1, 1, 1},
		},
		{
			name:   "flat series is undefined, stays flat",
			closes: []float64{3, 3, 3, 3, 3},
			want:   []types.Intent{0, 0, 0, 0, 0},
		},
	}

	s := NewMeanReversion(3, 1)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bars, err := s.Compute(closeCandles(tt.closes...))
			if err != nil {
				t.Fatal(err)
			}
			assertIntents(t, bars, tt.want)
		})
	}
}
