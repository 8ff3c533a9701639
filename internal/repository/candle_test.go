package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MihutMatei/quant-backtester/types"
)

func TestGetCandles_UnsupportedInterval(t *testing.T) {
	// The interval check runs before any query is issued.
	db := &Database{}
	_, err := db.GetCandles(context.Background(), 1, "AAPL", types.TwoHours, time.Time{}, time.Time{})
	if !errors.Is(err, ErrIntervalNotSupported) {
		t.Fatalf("err = %v, want ErrIntervalNotSupported", err)
	}
}

func TestBucketToInterval(t *testing.T) {
	tests := []struct {
		interval types.Interval
		want     string
	}{
		{types.OneMinute, "1 minute"},
		{types.Hour, "1 hour"},
		{types.Day, "1 day"},
		{types.Week, "1 week"},
	}
	for _, tt := range tests {
		got, ok := bucketToInterval[tt.interval]
		if !ok || got != tt.want {
			t.Errorf("bucket for %s = %q (%v), want %q", tt.interval, got, ok, tt.want)
		}
	}
	if _, ok := bucketToInterval[types.Month]; ok {
		t.Error("monthly buckets are not supported")
	}
}

func TestConvertCandles(t *testing.T) {
	bucket := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	daos := []candleRow{
		{
			Bucket: bucket,
			Open:   decimal.NewFromInt(100),
			High:   decimal.NewFromInt(105),
			Low:    decimal.NewFromInt(99),
			Close:  decimal.NewFromInt(104),
			Volume: decimal.NewFromInt(5000),
		},
		{
			Bucket: bucket.AddDate(0, 0, 1),
			Open:   decimal.NewFromInt(104),
			High:   decimal.NewFromInt(110),
			Low:    decimal.NewFromInt(103),
			Close:  decimal.NewFromInt(108),
			Volume: decimal.NewFromInt(6200),
		},
	}

	candles := convertCandles(daos, types.Day, 7, "AAPL")
	if len(candles) != 2 {
		t.Fatalf("candles = %d, want 2", len(candles))
	}

	first := candles[0]
	if first.AssetId != 7 || first.Ticker != "AAPL" || first.Interval != types.Day {
		t.Errorf("metadata = %+v", first)
	}
	if !first.Timestamp.Equal(bucket) {
		t.Errorf("timestamp = %s, want %s", first.Timestamp, bucket)
	}
	if !first.Close.Equal(decimal.NewFromInt(104)) {
		t.Errorf("close = %s, want 104", first.Close)
	}
	if !candles[1].Open.Equal(candles[0].Close) {
		t.Errorf("daily buckets should chain open to previous close in this fixture")
	}
}
