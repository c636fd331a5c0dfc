package store

import (
	"context"
	"fmt"

	"filingsync/pkg/core/market"
)

// MarketRepo owns the daily_prices table.
type MarketRepo struct {
	db DB
}

func NewMarketRepo(db DB) *MarketRepo {
	return &MarketRepo{db: db}
}

// UpsertDailyBars writes a batch of daily candles for one company. Existing
// rows for the same date are overwritten. Returns the number of bars written.
func (r *MarketRepo) UpsertDailyBars(ctx context.Context, companyID int64, bars []market.Bar) (int, error) {
	for i, b := range bars {
		_, err := r.db.Exec(ctx, `
			INSERT INTO daily_prices (company_id, price_date, open_price, high_price, low_price, close_price, volume)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (company_id, price_date) DO UPDATE SET
				open_price = EXCLUDED.open_price,
				high_price = EXCLUDED.high_price,
				low_price = EXCLUDED.low_price,
				close_price = EXCLUDED.close_price,
				volume = EXCLUDED.volume`,
			companyID, b.Date, b.Open, b.High, b.Low, b.Close, b.Volume)
		if err != nil {
			return i, fmt.Errorf("upsert bar %s %s: %w", b.Symbol, b.Date, err)
		}
	}
	return len(bars), nil
}

// LatestBarDate returns the newest stored price date for a company, or ""
// when no bars exist.
func (r *MarketRepo) LatestBarDate(ctx context.Context, companyID int64) (string, error) {
	var date *string
	err := r.db.QueryRow(ctx, `
		SELECT MAX(price_date)::text FROM daily_prices WHERE company_id = $1`,
		companyID).Scan(&date)
	if err != nil {
		return "", fmt.Errorf("latest bar date: %w", err)
	}
	if date == nil {
		return "", nil
	}
	return *date, nil
}

// LatestBarDateOverall returns the newest price date across all companies.
func (r *MarketRepo) LatestBarDateOverall(ctx context.Context) (string, error) {
	var date *string
	err := r.db.QueryRow(ctx, `SELECT MAX(price_date)::text FROM daily_prices`).Scan(&date)
	if err != nil {
		return "", fmt.Errorf("latest bar date overall: %w", err)
	}
	if date == nil {
		return "", nil
	}
	return *date, nil
}

// BarCount returns the number of stored daily bars across all companies.
func (r *MarketRepo) BarCount(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM daily_prices`).Scan(&n); err != nil {
		return 0, fmt.Errorf("bar count: %w", err)
	}
	return n, nil
}

// CloseOnOrBefore returns the latest close price on or before date for a
// company, or nil when none exists.
func (r *MarketRepo) CloseOnOrBefore(ctx context.Context, companyID int64, date string) (*float64, error) {
	var price *float64
	err := r.db.QueryRow(ctx, `
		SELECT close_price FROM daily_prices
		WHERE company_id = $1 AND price_date <= $2
		ORDER BY price_date DESC
		LIMIT 1`, companyID, date).Scan(&price)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("close on or before %s: %w", date, err)
	}
	return price, nil
}
