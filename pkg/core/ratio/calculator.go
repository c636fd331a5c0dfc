// Package ratio computes valuation multiples from stored fundamentals and
// the latest close price.
package ratio

import (
	"errors"

	"filingsync/pkg/core/store"
)

// ErrNoShares marks a company whose filings carry no usable share count.
// Callers treat it as a data gap, not a failure.
var ErrNoShares = errors.New("no usable share count")

// Compute derives one valuation row for a company. price is the latest
// close on or before date. Shares outstanding from the balance sheet win
// over diluted shares from the income statement. Sales ratios are left nil
// when revenue is missing or non-positive.
func Compute(f store.Fundamentals, price float64, date string) (store.Ratio, error) {
	shares := f.SharesOutstanding
	if shares == nil {
		shares = f.SharesDiluted
	}
	if shares == nil || *shares <= 0 {
		return store.Ratio{}, ErrNoShares
	}

	marketCap := price * *shares

	ev := marketCap
	if f.TotalDebt != nil {
		ev += *f.TotalDebt
	}
	if f.Cash != nil {
		ev -= *f.Cash
	}

	out := store.Ratio{
		Date:            date,
		Price:           price,
		MarketCap:       &marketCap,
		EnterpriseValue: &ev,
	}

	if f.Revenue != nil && *f.Revenue > 0 {
		ps := marketCap / *f.Revenue
		evs := ev / *f.Revenue
		out.PriceToSales = &ps
		out.EVToSales = &evs
	}

	return out, nil
}
