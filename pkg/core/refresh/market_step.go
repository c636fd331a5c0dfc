package refresh

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"filingsync/pkg/core/market"
	"filingsync/pkg/core/store"
)

// defaultLookbackYears bounds the first fetch for a company with no stored
// bars.
const defaultLookbackYears = 5

type marketTaskResult struct {
	records    int
	latestDate string
	err        error
}

// runMarketStep refreshes daily bars for every tracked company, one task
// per company bounded by the market worker pool. Tasks are independent;
// one company's failure never cancels the others.
func (o *Orchestrator) runMarketStep(ctx context.Context) (stepOutcome, error) {
	companies, err := o.companies.ListCompanies(ctx)
	if err != nil {
		return stepOutcome{}, fmt.Errorf("list companies: %w", err)
	}

	today := o.now().UTC().Format("2006-01-02")

	results := make([]marketTaskResult, len(companies))
	g := new(errgroup.Group)
	g.SetLimit(o.marketWorkers)

	for i, company := range companies {
		i, company := i, company
		g.Go(func() error {
			results[i] = o.refreshCompanyBars(ctx, company.ID, company.Symbol, today)
			return nil
		})
	}
	_ = g.Wait()

	return joinMarketResults(ctx, companies, results), nil
}

func (o *Orchestrator) refreshCompanyBars(ctx context.Context, companyID int64, symbol, today string) marketTaskResult {
	latest, err := o.market.LatestBarDate(ctx, companyID)
	if err != nil {
		return marketTaskResult{err: err}
	}

	from := latest
	if from == "" {
		from = o.now().UTC().AddDate(-defaultLookbackYears, 0, 0).Format("2006-01-02")
	} else if from >= today {
		return marketTaskResult{latestDate: latest}
	}

	var bars []market.Bar
	err = o.retry.do(ctx, "fetch daily bars "+symbol, func() error {
		fetched, err := o.quotes.FetchDailyBars(ctx, symbol, from, today)
		if err != nil {
			return err
		}
		bars = fetched
		return nil
	})
	if err != nil {
		return marketTaskResult{err: err}
	}
	if len(bars) == 0 {
		return marketTaskResult{latestDate: latest}
	}

	n, err := o.market.UpsertDailyBars(ctx, companyID, bars)
	if err != nil {
		return marketTaskResult{records: n, err: err}
	}

	newest := latest
	for _, b := range bars {
		if b.Date > newest {
			newest = b.Date
		}
	}
	return marketTaskResult{records: n, latestDate: newest}
}

// joinMarketResults aggregates per-company task results after all tasks
// have completed.
func joinMarketResults(ctx context.Context, companies []store.Company, results []marketTaskResult) stepOutcome {
	var out stepOutcome
	for i, r := range results {
		// Bars written before a task failed are still committed; count
		// them regardless of the error.
		out.records += int64(r.records)
		if r.latestDate > out.latestDate {
			out.latestDate = r.latestDate
		}
		if r.err != nil {
			zerolog.Ctx(ctx).Warn().
				Str("symbol", companies[i].Symbol).
				Err(r.err).
				Msg("market refresh failed for company")
			out.failures = append(out.failures, CompanyError{Symbol: companies[i].Symbol, Err: r.err.Error()})
		}
	}
	return out
}
