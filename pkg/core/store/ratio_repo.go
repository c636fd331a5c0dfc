package store

import (
	"context"
	"fmt"
)

// Fundamentals is the per-company input slice the ratio calculator reads:
// the latest annual income statement joined with the balance sheet of the
// same report date.
type Fundamentals struct {
	CompanyID         int64
	Symbol            string
	ReportDate        string
	Revenue           *float64
	NetIncome         *float64
	SharesOutstanding *float64
	SharesDiluted     *float64
	TotalDebt         *float64
	Cash              *float64
}

// Ratio is one computed valuation row for a company on a date.
type Ratio struct {
	Date            string
	Price           float64
	MarketCap       *float64
	EnterpriseValue *float64
	PriceToSales    *float64
	EVToSales       *float64
}

// RatioRepo owns the valuation_ratios table and the fundamentals read the
// calculator depends on.
type RatioRepo struct {
	db DB
}

func NewRatioRepo(db DB) *RatioRepo {
	return &RatioRepo{db: db}
}

// LatestFundamentals returns each company's most recent annual fundamentals.
// Companies with no stored statements are absent from the result.
func (r *RatioRepo) LatestFundamentals(ctx context.Context) ([]Fundamentals, error) {
	rows, err := r.db.Query(ctx, `
		SELECT DISTINCT ON (c.id)
		       c.id, c.symbol, i.report_date::text,
		       i.revenue, i.net_income, b.shares_outstanding, i.shares_diluted,
		       b.total_debt, b.cash_and_equivalents
		FROM companies c
		JOIN income_statements i ON i.company_id = c.id
		LEFT JOIN balance_sheets b ON b.company_id = c.id AND b.report_date = i.report_date
		ORDER BY c.id, i.report_date DESC`)
	if err != nil {
		return nil, fmt.Errorf("latest fundamentals: %w", err)
	}
	defer rows.Close()

	var out []Fundamentals
	for rows.Next() {
		var f Fundamentals
		if err := rows.Scan(&f.CompanyID, &f.Symbol, &f.ReportDate,
			&f.Revenue, &f.NetIncome, &f.SharesOutstanding, &f.SharesDiluted,
			&f.TotalDebt, &f.Cash); err != nil {
			return nil, fmt.Errorf("scan fundamentals: %w", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("latest fundamentals: %w", err)
	}
	return out, nil
}

// UpsertRatio writes one valuation row, overwriting any existing row for
// the same company and date.
func (r *RatioRepo) UpsertRatio(ctx context.Context, companyID int64, ratio Ratio) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO valuation_ratios (company_id, ratio_date, price, market_cap, enterprise_value, ps_ratio, evs_ratio)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (company_id, ratio_date) DO UPDATE SET
			price = EXCLUDED.price,
			market_cap = EXCLUDED.market_cap,
			enterprise_value = EXCLUDED.enterprise_value,
			ps_ratio = EXCLUDED.ps_ratio,
			evs_ratio = EXCLUDED.evs_ratio`,
		companyID, ratio.Date, ratio.Price, ratio.MarketCap, ratio.EnterpriseValue,
		ratio.PriceToSales, ratio.EVToSales)
	if err != nil {
		return fmt.Errorf("upsert ratio %d %s: %w", companyID, ratio.Date, err)
	}
	return nil
}

// LatestRatioDate returns the newest ratio date across all companies, or ""
// when none exist.
func (r *RatioRepo) LatestRatioDate(ctx context.Context) (string, error) {
	var date *string
	err := r.db.QueryRow(ctx, `SELECT MAX(ratio_date)::text FROM valuation_ratios`).Scan(&date)
	if err != nil {
		return "", fmt.Errorf("latest ratio date: %w", err)
	}
	if date == nil {
		return "", nil
	}
	return *date, nil
}

// RatioCount returns the number of stored valuation rows.
func (r *RatioRepo) RatioCount(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM valuation_ratios`).Scan(&n); err != nil {
		return 0, fmt.Errorf("ratio count: %w", err)
	}
	return n, nil
}
