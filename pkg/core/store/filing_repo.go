package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"filingsync/pkg/core/edgar"
)

// txExecer is the slice of pgx.Tx the statement inserts need.
type txExecer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// ErrEmptyStatementSet rejects a filing whose extraction produced zero
// fields. Storing it would create a fresh-looking empty shell.
var ErrEmptyStatementSet = errors.New("statement set has no extractable fields")

// StoreError is a transaction failure; the whole write was rolled back.
type StoreError struct {
	Accession string
	Err       error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store filing %s: %v", e.Accession, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// FilingRepo owns filings and their statement records. A filing and its
// three statements are written as one transactional unit; nothing else
// mutates these tables.
type FilingRepo struct {
	db DB
}

func NewFilingRepo(db DB) *FilingRepo {
	return &FilingRepo{db: db}
}

// Exists reports whether a filing with this accession id is already stored
// for the company.
func (r *FilingRepo) Exists(ctx context.Context, companyID int64, accession string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM sec_filings
			WHERE company_id = $1 AND accession_number = $2
		)`, companyID, accession).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("filing exists %s: %w", accession, err)
	}
	return exists, nil
}

// Store persists a filing and its three statement records in one
// transaction. Re-submitting an already-stored accession is an idempotent
// no-op; stored reports whether this call wrote anything. Any mid-write
// failure rolls the whole unit back and surfaces as *StoreError.
func (r *FilingRepo) Store(ctx context.Context, companyID int64, filing edgar.Filing, set edgar.StatementSet) (stored bool, err error) {
	if set.Empty() {
		return false, ErrEmptyStatementSet
	}

	exists, err := r.Exists(ctx, companyID, filing.AccessionNumber)
	if err != nil {
		return false, err
	}
	if exists {
		zerolog.Ctx(ctx).Debug().
			Str("accession", filing.AccessionNumber).
			Msg("filing already stored, skipping")
		return false, nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, &StoreError{Accession: filing.AccessionNumber, Err: err}
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var filingID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO sec_filings (company_id, accession_number, form_type, filed_date, report_date, fiscal_year)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (company_id, accession_number) DO NOTHING
		RETURNING id`,
		companyID, filing.AccessionNumber, filing.FormType,
		filing.FiledDate, filing.ReportDate, filing.FiscalYear,
	).Scan(&filingID)
	if errors.Is(err, pgx.ErrNoRows) {
		// Lost a race with an identical write; treat like the Exists hit.
		err = nil
		_ = tx.Rollback(ctx)
		return false, nil
	}
	if err != nil {
		return false, &StoreError{Accession: filing.AccessionNumber, Err: err}
	}

	if err = r.insertBalanceSheet(ctx, tx, companyID, filingID, filing, set.Balance); err != nil {
		return false, &StoreError{Accession: filing.AccessionNumber, Err: err}
	}
	if err = r.insertIncomeStatement(ctx, tx, companyID, filingID, filing, set.Income); err != nil {
		return false, &StoreError{Accession: filing.AccessionNumber, Err: err}
	}
	if err = r.insertCashFlow(ctx, tx, companyID, filingID, filing, set.CashFlow); err != nil {
		return false, &StoreError{Accession: filing.AccessionNumber, Err: err}
	}

	if err = tx.Commit(ctx); err != nil {
		return false, &StoreError{Accession: filing.AccessionNumber, Err: err}
	}
	return true, nil
}

func (r *FilingRepo) insertBalanceSheet(ctx context.Context, tx txExecer, companyID, filingID int64, filing edgar.Filing, bs edgar.BalanceSheet) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO balance_sheets (
			company_id, filing_id, report_date, fiscal_year,
			total_assets, total_liabilities, total_equity, cash_and_equivalents,
			short_term_debt, long_term_debt, total_debt,
			current_assets, current_liabilities, shares_outstanding
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		ON CONFLICT (company_id, report_date) DO UPDATE SET
			filing_id = EXCLUDED.filing_id,
			fiscal_year = EXCLUDED.fiscal_year,
			total_assets = EXCLUDED.total_assets,
			total_liabilities = EXCLUDED.total_liabilities,
			total_equity = EXCLUDED.total_equity,
			cash_and_equivalents = EXCLUDED.cash_and_equivalents,
			short_term_debt = EXCLUDED.short_term_debt,
			long_term_debt = EXCLUDED.long_term_debt,
			total_debt = EXCLUDED.total_debt,
			current_assets = EXCLUDED.current_assets,
			current_liabilities = EXCLUDED.current_liabilities,
			shares_outstanding = EXCLUDED.shares_outstanding`,
		companyID, filingID, filing.ReportDate, filing.FiscalYear,
		bs.TotalAssets, bs.TotalLiabilities, bs.TotalEquity, bs.CashAndEquivalents,
		bs.ShortTermDebt, bs.LongTermDebt, bs.TotalDebt,
		bs.CurrentAssets, bs.CurrentLiabilities, bs.SharesOutstanding)
	if err != nil {
		return fmt.Errorf("insert balance sheet: %w", err)
	}
	return nil
}

func (r *FilingRepo) insertIncomeStatement(ctx context.Context, tx txExecer, companyID, filingID int64, filing edgar.Filing, is edgar.IncomeStatement) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO income_statements (
			company_id, filing_id, report_date, fiscal_year,
			revenue, net_income, operating_income, gross_profit, cost_of_revenue,
			interest_expense, tax_expense, shares_basic, shares_diluted
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		ON CONFLICT (company_id, report_date) DO UPDATE SET
			filing_id = EXCLUDED.filing_id,
			fiscal_year = EXCLUDED.fiscal_year,
			revenue = EXCLUDED.revenue,
			net_income = EXCLUDED.net_income,
			operating_income = EXCLUDED.operating_income,
			gross_profit = EXCLUDED.gross_profit,
			cost_of_revenue = EXCLUDED.cost_of_revenue,
			interest_expense = EXCLUDED.interest_expense,
			tax_expense = EXCLUDED.tax_expense,
			shares_basic = EXCLUDED.shares_basic,
			shares_diluted = EXCLUDED.shares_diluted`,
		companyID, filingID, filing.ReportDate, filing.FiscalYear,
		is.Revenue, is.NetIncome, is.OperatingIncome, is.GrossProfit, is.CostOfRevenue,
		is.InterestExpense, is.TaxExpense, is.SharesBasic, is.SharesDiluted)
	if err != nil {
		return fmt.Errorf("insert income statement: %w", err)
	}
	return nil
}

func (r *FilingRepo) insertCashFlow(ctx context.Context, tx txExecer, companyID, filingID int64, filing edgar.Filing, cf edgar.CashFlowStatement) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO cash_flow_statements (
			company_id, filing_id, report_date, fiscal_year,
			operating_cash_flow, investing_cash_flow, financing_cash_flow,
			depreciation_expense, amortization_expense,
			dividends_paid, share_repurchases, capital_expenditures
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (company_id, report_date) DO UPDATE SET
			filing_id = EXCLUDED.filing_id,
			fiscal_year = EXCLUDED.fiscal_year,
			operating_cash_flow = EXCLUDED.operating_cash_flow,
			investing_cash_flow = EXCLUDED.investing_cash_flow,
			financing_cash_flow = EXCLUDED.financing_cash_flow,
			depreciation_expense = EXCLUDED.depreciation_expense,
			amortization_expense = EXCLUDED.amortization_expense,
			dividends_paid = EXCLUDED.dividends_paid,
			share_repurchases = EXCLUDED.share_repurchases,
			capital_expenditures = EXCLUDED.capital_expenditures`,
		companyID, filingID, filing.ReportDate, filing.FiscalYear,
		cf.OperatingCashFlow, cf.InvestingCashFlow, cf.FinancingCashFlow,
		cf.Depreciation, cf.Amortization,
		cf.DividendsPaid, cf.ShareRepurchases, cf.CapitalExpenditures)
	if err != nil {
		return fmt.Errorf("insert cash flow statement: %w", err)
	}
	return nil
}

// LatestFiledDates returns each company's newest stored filed date keyed by
// CIK. The orchestrator takes this snapshot once per step and hands it to
// workers as immutable input.
func (r *FilingRepo) LatestFiledDates(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT c.cik, MAX(f.filed_date)
		FROM companies c
		JOIN sec_filings f ON f.company_id = c.id
		GROUP BY c.cik`)
	if err != nil {
		return nil, fmt.Errorf("latest filed dates: %w", err)
	}
	defer rows.Close()

	latest := make(map[string]string)
	for rows.Next() {
		var cik, filed string
		if err := rows.Scan(&cik, &filed); err != nil {
			return nil, fmt.Errorf("scan filed date: %w", err)
		}
		latest[cik] = filed
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("latest filed dates: %w", err)
	}
	return latest, nil
}

// StoredAccessions returns the accession ids already stored for a company.
func (r *FilingRepo) StoredAccessions(ctx context.Context, companyID int64) (map[string]bool, error) {
	rows, err := r.db.Query(ctx, `
		SELECT accession_number FROM sec_filings WHERE company_id = $1`, companyID)
	if err != nil {
		return nil, fmt.Errorf("stored accessions: %w", err)
	}
	defer rows.Close()

	accessions := make(map[string]bool)
	for rows.Next() {
		var accn string
		if err := rows.Scan(&accn); err != nil {
			return nil, fmt.Errorf("scan accession: %w", err)
		}
		accessions[accn] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("stored accessions: %w", err)
	}
	return accessions, nil
}

// FilingCount returns the number of stored filings across all companies.
func (r *FilingRepo) FilingCount(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM sec_filings`).Scan(&n); err != nil {
		return 0, fmt.Errorf("filing count: %w", err)
	}
	return n, nil
}
