package refresh

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"filingsync/pkg/core/edgar"
	"filingsync/pkg/core/store"
)

type statementsTaskResult struct {
	stored     int
	skipped    int
	latestDate string
	err        error
}

// runStatementsStep synchronizes annual filings for every tracked company,
// one task per company bounded by the financials worker pool. Each task
// runs the full fetch, resolve, extract, store sequence.
func (o *Orchestrator) runStatementsStep(ctx context.Context) (stepOutcome, error) {
	companies, err := o.companies.ListCompanies(ctx)
	if err != nil {
		return stepOutcome{}, fmt.Errorf("list companies: %w", err)
	}

	results := make([]statementsTaskResult, len(companies))
	g := new(errgroup.Group)
	g.SetLimit(o.financialsWorkers)

	for i, company := range companies {
		i, company := i, company
		g.Go(func() error {
			results[i] = o.syncCompanyFilings(ctx, company)
			return nil
		})
	}
	_ = g.Wait()

	var out stepOutcome
	for i, r := range results {
		// Filings stored before a task failed are still committed; count
		// them regardless of the error.
		out.records += int64(r.stored)
		if r.latestDate > out.latestDate {
			out.latestDate = r.latestDate
		}
		if r.err != nil {
			zerolog.Ctx(ctx).Warn().
				Str("symbol", companies[i].Symbol).
				Err(r.err).
				Msg("filing sync failed for company")
			out.failures = append(out.failures, CompanyError{Symbol: companies[i].Symbol, Err: r.err.Error()})
		}
	}
	return out, nil
}

// syncCompanyFilings brings one company's stored filings up to date. The
// stored-accession snapshot is read once up front and treated as immutable;
// the store's own idempotency covers any filing that lands concurrently.
func (o *Orchestrator) syncCompanyFilings(ctx context.Context, company store.Company) statementsTaskResult {
	log := zerolog.Ctx(ctx).With().Str("symbol", company.Symbol).Logger()

	stored, err := o.filings.StoredAccessions(ctx, company.ID)
	if err != nil {
		return statementsTaskResult{err: err}
	}

	var subs *edgar.SubmissionsResponse
	err = o.retry.do(ctx, "fetch submissions "+company.Symbol, func() error {
		fetched, err := o.edgar.FetchSubmissions(ctx, company.CIK)
		if err != nil {
			return err
		}
		subs = fetched
		return nil
	})
	if err != nil {
		return statementsTaskResult{err: err}
	}

	filings, warnings := edgar.ResolveAnnualFilings(subs)
	for _, w := range warnings {
		log.Warn().
			Str("accession", w.AccessionNumber).
			Str("reason", w.Reason).
			Msg("discarded submission entry")
	}

	var pending []edgar.Filing
	for _, f := range filings {
		if !stored[f.AccessionNumber] {
			pending = append(pending, f)
		}
	}
	if len(pending) == 0 {
		return statementsTaskResult{}
	}

	var facts *edgar.CompanyFacts
	err = o.retry.do(ctx, "fetch company facts "+company.Symbol, func() error {
		fetched, err := o.edgar.FetchCompanyFacts(ctx, company.CIK)
		if err != nil {
			return err
		}
		facts = fetched
		return nil
	})
	if err != nil {
		return statementsTaskResult{err: err}
	}

	var result statementsTaskResult
	for _, filing := range pending {
		set := edgar.ExtractStatements(facts, filing.AccessionNumber)
		if set.Empty() {
			// The facts document does not know this accession, or it holds
			// nothing we map. Skip rather than store an empty shell.
			log.Warn().
				Str("accession", filing.AccessionNumber).
				Msg("no extractable fields, skipping filing")
			result.skipped++
			continue
		}

		wrote, err := o.filings.Store(ctx, company.ID, filing, set)
		if err != nil {
			return statementsTaskResult{
				stored:     result.stored,
				skipped:    result.skipped,
				latestDate: result.latestDate,
				err:        err,
			}
		}
		if wrote {
			result.stored++
			if filing.FiledDate > result.latestDate {
				result.latestDate = filing.FiledDate
			}
		}
	}

	log.Info().
		Int("stored", result.stored).
		Int("skipped", result.skipped).
		Msg("company filings synchronized")
	return result
}
