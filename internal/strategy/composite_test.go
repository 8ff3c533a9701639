package strategy

import (
	"testing"

	"github.com/MihutMatei/quant-backtester/types"
)

func newTestComposite() *Composite {
	// Short look-backs so the interesting part of the series is not all
	// warmup. Volatility cap is loose: the regime filter passes everywhere.
	return NewComposite(2, 40, 60, 2, -80, -20, -20, -80, 2, 1.0)
}

func TestComposite_Warmup(t *testing.T) {
	s := newTestComposite()
	if got := s.warmup(); got != 3 {
		t.Fatalf("warmup = %d, want 3", got)
	}

	// A hard sell-off that satisfies the long entry from the start: the
	// intent must still be forced flat until the warmup has elapsed.
	bars, err := s.Compute(closeCandles(100, 90, 80, 70))
	if err != nil {
		t.Fatal(err)
	}
	assertIntents(t, bars, []types.Intent{0, 0, 0, 1})
	assertChanged(t, bars, []bool{false, false, false, true})
}

func TestComposite_EntriesAndReversals(t *testing.T) {
	// Sell-off, then a sharp rally: the long entry fires once RSI is
	// crushed and the close sits at the window low; the rally pushes RSI
	// past the high band with the close at the window top, which reverses
	// the position into a short.
	s := newTestComposite()

	bars, err := s.Compute(closeCandles(100, 90, 80, 70, 60, 80, 100, 120))
	if err != nil {
		t.Fatal(err)
	}
	assertIntents(t, bars, []types.Intent{0, 0, 0, 1, 1, -1, -1, -1})
	assertChanged(t, bars, []bool{false, false, false, true, false, true, false, false})
}

func TestComposite_DisjunctiveExit(t *testing.T) {
	// The bounce to 65 leaves RSI low (long entry RSI leg still true) but
	// lifts the close to the top of the window, so the %R exit leg alone
	// fires and reverses the long.
	s := newTestComposite()

	bars, err := s.Compute(closeCandles(100, 90, 80, 70, 60, 65))
	if err != nil {
		t.Fatal(err)
	}
	assertIntents(t, bars, []types.Intent{0, 0, 0, 1, 1, -1})
}

func TestComposite_VolFilterBlocksEntry(t *testing.T) {
	// Same sell-off with a tight volatility cap: the ~11% per-bar moves
	// exceed it, so no entry ever fires.
	s := newTestComposite()
	s.VolMax = 0.005

	bars, err := s.Compute(closeCandles(100, 90, 80, 70, 60))
	if err != nil {
		t.Fatal(err)
	}
	assertIntents(t, bars, []types.Intent{0, 0, 0, 0, 0})
}
