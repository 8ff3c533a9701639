package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/MihutMatei/quant-backtester/types"
)

const assetQuery = `
SELECT id, ticker, name, type, created_at, modified_at
FROM assets
WHERE ticker = $1`

// GetAssetByTicker retrieves a types.Asset by its ticker.
func (db *Database) GetAssetByTicker(ctx context.Context, ticker string) (*types.Asset, error) {
	row := db.conn.QueryRow(ctx, assetQuery, ticker)

	var asset types.Asset
	err := row.Scan(&asset.Id, &asset.Ticker, &asset.Name, &asset.Type, &asset.CreatedAt, &asset.ModifiedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("ticker %s %w", ticker, ErrAssetNotFound)
		}
		return nil, err
	}
	return &asset, nil
}
