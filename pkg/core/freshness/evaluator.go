package freshness

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"filingsync/pkg/core/store"
)

// MarketStats is the slice of the market repo the evaluator reads.
type MarketStats interface {
	LatestBarDateOverall(ctx context.Context) (string, error)
	BarCount(ctx context.Context) (int64, error)
}

// FilingStats is the slice of the filing repo the evaluator reads.
type FilingStats interface {
	LatestFiledDates(ctx context.Context) (map[string]string, error)
	FilingCount(ctx context.Context) (int64, error)
}

// RatioStats is the slice of the ratio repo the evaluator reads.
type RatioStats interface {
	LatestRatioDate(ctx context.Context) (string, error)
	RatioCount(ctx context.Context) (int64, error)
}

// CompanyLister supplies the tracked universe for remote probing.
type CompanyLister interface {
	ListCompanies(ctx context.Context) ([]store.Company, error)
}

// RemoteProbe asks the regulator for a company's newest filed date.
type RemoteProbe interface {
	LatestFiledDate(ctx context.Context, cik string, now time.Time) (string, error)
}

// probeWorkers bounds concurrent filed-date probes. The fetch client's
// shared rate limiter caps the aggregate request rate.
const probeWorkers = 10

// Evaluator computes domain freshness. Age thresholds come from config.
type Evaluator struct {
	market    MarketStats
	filings   FilingStats
	ratios    RatioStats
	companies CompanyLister
	probe     RemoteProbe
	marketAge int // days
	ratiosAge int // days
	now       func() time.Time
}

func NewEvaluator(market MarketStats, filings FilingStats, ratios RatioStats, companies CompanyLister, probe RemoteProbe, marketMaxAgeDays, ratiosMaxAgeDays int) *Evaluator {
	return &Evaluator{
		market:    market,
		filings:   filings,
		ratios:    ratios,
		companies: companies,
		probe:     probe,
		marketAge: marketMaxAgeDays,
		ratiosAge: ratiosMaxAgeDays,
		now:       time.Now,
	}
}

// Check builds the full freshness report. A failing check marks only its
// own domain as error; the others still report.
func (e *Evaluator) Check(ctx context.Context) SystemReport {
	now := e.now().UTC()
	report := SystemReport{
		Market:     e.marketStatus(ctx, now),
		Statements: e.statementsStatus(ctx, now),
		Ratios:     e.ratiosStatus(ctx, now),
		CheckedAt:  now.Format(time.RFC3339),
	}
	report.Screening = ScreeningReadiness(report)
	return report
}

func (e *Evaluator) marketStatus(ctx context.Context, now time.Time) DomainStatus {
	count, err := e.market.BarCount(ctx)
	if err != nil {
		return errorStatus("count market bars", err)
	}
	if count == 0 {
		return DomainStatus{Status: Missing, Message: "no price bars stored"}
	}

	latest, err := e.market.LatestBarDateOverall(ctx)
	if err != nil {
		return errorStatus("read latest bar date", err)
	}

	st := DomainStatus{Status: Current, LatestDate: latest, RecordCount: count}
	if olderThan(latest, now, e.marketAge) {
		st.Status = Stale
		st.Message = fmt.Sprintf("latest bar %s is older than %d days", latest, e.marketAge)
	}
	return st
}

func (e *Evaluator) statementsStatus(ctx context.Context, now time.Time) DomainStatus {
	count, err := e.filings.FilingCount(ctx)
	if err != nil {
		return errorStatus("count filings", err)
	}
	if count == 0 {
		return DomainStatus{Status: Missing, Message: "no filings stored"}
	}

	stored, err := e.filings.LatestFiledDates(ctx)
	if err != nil {
		return errorStatus("read latest filed dates", err)
	}

	latest := ""
	for _, d := range stored {
		if d > latest {
			latest = d
		}
	}
	st := DomainStatus{Status: Current, LatestDate: latest, RecordCount: count}

	companies, err := e.companies.ListCompanies(ctx)
	if err != nil {
		return errorStatus("list companies", err)
	}

	type probeResult struct {
		remote string
		err    error
	}
	results := make([]probeResult, len(companies))
	g := new(errgroup.Group)
	g.SetLimit(probeWorkers)
	for i, c := range companies {
		i, c := i, c
		g.Go(func() error {
			remote, err := e.probe.LatestFiledDate(ctx, c.CIK, now)
			results[i] = probeResult{remote: remote, err: err}
			return nil
		})
	}
	_ = g.Wait()

	for i, r := range results {
		c := companies[i]
		if r.err != nil {
			// An unreachable regulator is not stale local data.
			zerolog.Ctx(ctx).Warn().
				Str("symbol", c.Symbol).
				Err(r.err).
				Msg("filed date probe failed, assuming current")
			continue
		}
		if r.remote != "" && r.remote > stored[c.CIK] {
			st.Status = Stale
			st.Message = fmt.Sprintf("%s has a filing filed %s newer than stored data", c.Symbol, r.remote)
			break
		}
	}
	return st
}

func (e *Evaluator) ratiosStatus(ctx context.Context, now time.Time) DomainStatus {
	count, err := e.ratios.RatioCount(ctx)
	if err != nil {
		return errorStatus("count ratios", err)
	}
	if count == 0 {
		return DomainStatus{Status: Missing, Message: "no valuation ratios stored"}
	}

	latest, err := e.ratios.LatestRatioDate(ctx)
	if err != nil {
		return errorStatus("read latest ratio date", err)
	}

	st := DomainStatus{Status: Current, LatestDate: latest, RecordCount: count}
	if olderThan(latest, now, e.ratiosAge) {
		st.Status = Stale
		st.Message = fmt.Sprintf("latest ratio %s is older than %d days", latest, e.ratiosAge)
	}
	return st
}

func errorStatus(op string, err error) DomainStatus {
	return DomainStatus{Status: StatusError, Message: fmt.Sprintf("%s: %v", op, err)}
}

// olderThan reports whether date (YYYY-MM-DD) is more than maxAgeDays
// before now. Unparseable dates count as old.
func olderThan(date string, now time.Time, maxAgeDays int) bool {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return true
	}
	return now.Sub(t) > time.Duration(maxAgeDays)*24*time.Hour
}
