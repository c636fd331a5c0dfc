package store

import (
	"context"
	"fmt"
)

// Company is one tracked company. The lookup is built once per run and
// treated as immutable afterwards.
type Company struct {
	ID     int64
	CIK    string
	Symbol string
}

// CompanyRepo reads the company universe.
type CompanyRepo struct {
	db DB
}

func NewCompanyRepo(db DB) *CompanyRepo {
	return &CompanyRepo{db: db}
}

// ListCompanies returns all tracked companies with a usable regulator id,
// ordered by symbol.
func (r *CompanyRepo) ListCompanies(ctx context.Context) ([]Company, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, cik, symbol
		FROM companies
		WHERE cik IS NOT NULL AND cik <> ''
		ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	defer rows.Close()

	var companies []Company
	for rows.Next() {
		var c Company
		if err := rows.Scan(&c.ID, &c.CIK, &c.Symbol); err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		companies = append(companies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	return companies, nil
}
