package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/MihutMatei/quant-backtester/types"
)

var bucketToInterval = map[types.Interval]string{
	types.OneMinute:     "1 minute",
	types.FiveMinutes:   "5 minutes",
	types.ThirtyMinutes: "30 minutes",
	types.Hour:          "1 hour",
	types.FourHours:     "4 hours",
	types.Day:           "1 day",
	types.Week:          "1 week",
}

const candlesQuery = `
SELECT time_bucket($1::interval, time) AS bucket,
       first(open, time)  AS open,
       max(high)          AS high,
       min(low)           AS low,
       last(close, time)  AS close,
       sum(volume)        AS volume
FROM candles
WHERE asset_id = $2 AND time >= $3 AND time < $4
GROUP BY bucket
ORDER BY bucket`

type candleRow struct {
	Bucket time.Time
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume decimal.Decimal
}

// GetCandles returns aggregated candles for the asset over [start, end) at
// the requested interval, in chronological order.
func (db *Database) GetCandles(ctx context.Context, assetID int, ticker string, interval types.Interval, start, end time.Time) ([]types.Candle, error) {
	bucket, ok := bucketToInterval[interval]
	if !ok {
		return nil, ErrIntervalNotSupported
	}

	rows, err := db.conn.Query(ctx, candlesQuery, bucket, assetID, start, end)
	if err != nil {
		return nil, err
	}
	daos, err := pgx.CollectRows(rows, pgx.RowToStructByPos[candleRow])
	if err != nil {
		return nil, err
	}
	// CollectRows yields an empty slice, not ErrNoRows.
	if len(daos) == 0 {
		return nil, ErrNoCandles
	}
	return convertCandles(daos, interval, assetID, ticker), nil
}

func convertCandles(daos []candleRow, interval types.Interval, assetID int, ticker string) []types.Candle {
	var candles []types.Candle
	for _, dao := range daos {
		candles = append(candles, types.Candle{
			AssetId:   assetID,
			Ticker:    ticker,
			Open:      dao.Open,
			Close:     dao.Close,
			High:      dao.High,
			Low:       dao.Low,
			Volume:    dao.Volume,
			Interval:  interval,
			Timestamp: dao.Bucket,
		})
	}
	return candles
}
