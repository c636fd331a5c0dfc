package refresh

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"filingsync/pkg/core/edgar"
	"filingsync/pkg/core/freshness"
	"filingsync/pkg/core/market"
	"filingsync/pkg/core/store"
)

// FilingSource fetches regulator data for one company.
type FilingSource interface {
	FetchSubmissions(ctx context.Context, cik string) (*edgar.SubmissionsResponse, error)
	FetchCompanyFacts(ctx context.Context, cik string) (*edgar.CompanyFacts, error)
}

// BarSource fetches daily price history for one symbol.
type BarSource interface {
	FetchDailyBars(ctx context.Context, symbol, from, to string) ([]market.Bar, error)
}

// CompanyStore supplies the tracked company universe.
type CompanyStore interface {
	ListCompanies(ctx context.Context) ([]store.Company, error)
}

// FilingStore persists filings and answers coverage queries.
type FilingStore interface {
	Store(ctx context.Context, companyID int64, filing edgar.Filing, set edgar.StatementSet) (bool, error)
	StoredAccessions(ctx context.Context, companyID int64) (map[string]bool, error)
	LatestFiledDates(ctx context.Context) (map[string]string, error)
}

// MarketStore persists daily bars and answers price queries.
type MarketStore interface {
	UpsertDailyBars(ctx context.Context, companyID int64, bars []market.Bar) (int, error)
	LatestBarDate(ctx context.Context, companyID int64) (string, error)
	CloseOnOrBefore(ctx context.Context, companyID int64, date string) (*float64, error)
}

// RatioStore reads fundamentals and persists computed valuation rows.
type RatioStore interface {
	LatestFundamentals(ctx context.Context) ([]store.Fundamentals, error)
	UpsertRatio(ctx context.Context, companyID int64, ratio store.Ratio) error
}

// StatusStore persists per-source outcomes and session progress. This is
// the single write path the freshness evaluator reads from.
type StatusStore interface {
	MarkSourceStarted(ctx context.Context, source string) error
	MarkSourceComplete(ctx context.Context, source string, latestDataDate string, records int64) error
	MarkSourceError(ctx context.Context, source, message string) error
	CreateSession(ctx context.Context, mode string, totalSteps int) (uuid.UUID, error)
	StartSession(ctx context.Context, id uuid.UUID) error
	RecordStep(ctx context.Context, id uuid.UUID, stepName string, completed int) error
	FinishSession(ctx context.Context, id uuid.UUID, errorMessage string) error
	GetSession(ctx context.Context, id uuid.UUID) (*store.Session, error)
}

// FreshnessChecker evaluates domain freshness before planning and after
// execution.
type FreshnessChecker interface {
	Check(ctx context.Context) freshness.SystemReport
}

// Deps wires an Orchestrator. All collaborators are interfaces so tests
// substitute fakes.
type Deps struct {
	Edgar     FilingSource
	Quotes    BarSource
	Companies CompanyStore
	Filings   FilingStore
	Market    MarketStore
	Ratios    RatioStore
	Status    StatusStore
	Freshness FreshnessChecker

	MarketWorkers     int
	FinancialsWorkers int
	RetryAttempts     int
	RetryBackoff      time.Duration
}

// Orchestrator runs refresh sessions: plan steps for the requested mode,
// execute them in priority order, and record every outcome through the
// status store.
type Orchestrator struct {
	edgar     FilingSource
	quotes    BarSource
	companies CompanyStore
	filings   FilingStore
	market    MarketStore
	ratios    RatioStore
	status    StatusStore
	freshness FreshnessChecker

	marketWorkers     int
	financialsWorkers int
	retry             retryPolicy
	now               func() time.Time
}

func NewOrchestrator(d Deps) *Orchestrator {
	if d.MarketWorkers <= 0 {
		d.MarketWorkers = 10
	}
	if d.FinancialsWorkers <= 0 {
		d.FinancialsWorkers = 20
	}
	if d.RetryAttempts <= 0 {
		d.RetryAttempts = 3
	}
	if d.RetryBackoff <= 0 {
		d.RetryBackoff = 2 * time.Second
	}
	return &Orchestrator{
		edgar:             d.Edgar,
		quotes:            d.Quotes,
		companies:         d.Companies,
		filings:           d.Filings,
		market:            d.Market,
		ratios:            d.Ratios,
		status:            d.Status,
		freshness:         d.Freshness,
		marketWorkers:     d.MarketWorkers,
		financialsWorkers: d.FinancialsWorkers,
		retry:             retryPolicy{attempts: d.RetryAttempts, backoff: d.RetryBackoff},
		now:               time.Now,
	}
}

// stepOutcome is what one executed step reports back.
type stepOutcome struct {
	records    int64
	latestDate string
	failures   []CompanyError
}

// Run executes one refresh session. Partial success is an expected
// outcome: company-level failures are collected into the result, and only
// a critical step failure aborts the session.
func (o *Orchestrator) Run(ctx context.Context, mode Mode, forced []string) (*Result, error) {
	log := zerolog.Ctx(ctx)

	report := o.freshness.Check(ctx)
	if mode == ModeRatios && report.Statements.Status == freshness.Missing {
		return nil, ErrPrerequisiteMissing
	}

	plan, err := planSteps(mode, forced, report)
	if err != nil {
		return nil, err
	}

	sessionID, err := o.status.CreateSession(ctx, string(mode), len(plan))
	if err != nil {
		return nil, fmt.Errorf("create refresh session: %w", err)
	}

	result := &Result{SessionID: sessionID, Mode: mode}
	if len(plan) == 0 {
		_ = o.status.FinishSession(ctx, sessionID, "")
		result.Recommendations = []string{"all requested data sources are already current"}
		return result, nil
	}

	if err := o.status.StartSession(ctx, sessionID); err != nil {
		return nil, fmt.Errorf("start refresh session: %w", err)
	}

	log.Info().
		Stringer("session", sessionID).
		Str("mode", string(mode)).
		Int("steps", len(plan)).
		Msg("refresh session started")

	for i, step := range plan {
		// Cancellation is session-granular: checked between steps, never
		// mid-step.
		if err := ctx.Err(); err != nil {
			_ = o.status.FinishSession(ctx, sessionID, err.Error())
			return result, err
		}

		_ = o.status.RecordStep(ctx, sessionID, step.Name, i)
		_ = o.status.MarkSourceStarted(ctx, step.Source)

		outcome, err := o.runStep(ctx, step)
		if err != nil {
			_ = o.status.MarkSourceError(ctx, step.Source, err.Error())
			result.SourcesFailed = append(result.SourcesFailed, step.Source)

			if step.Critical() {
				crit := &CriticalStepError{Step: step.Name, Err: err}
				_ = o.status.FinishSession(ctx, sessionID, crit.Error())
				log.Error().Str("step", step.Name).Err(err).Msg("critical step failed, aborting session")
				return result, crit
			}

			log.Warn().Str("step", step.Name).Err(err).Msg("step failed, continuing session")
			continue
		}

		_ = o.status.MarkSourceComplete(ctx, step.Source, outcome.latestDate, outcome.records)
		_ = o.status.RecordStep(ctx, sessionID, step.Name, i+1)

		result.SourcesRefreshed = append(result.SourcesRefreshed, step.Source)
		result.TotalRecords += outcome.records
		result.CompanyErrors = append(result.CompanyErrors, outcome.failures...)

		log.Info().
			Str("step", step.Name).
			Int64("records", outcome.records).
			Int("company_errors", len(outcome.failures)).
			Msg("step complete")
	}

	_ = o.status.FinishSession(ctx, sessionID, "")
	result.Recommendations = recommendations(o.freshness.Check(ctx))
	return result, nil
}

func (o *Orchestrator) runStep(ctx context.Context, step Step) (stepOutcome, error) {
	switch step.Source {
	case SourceMarket:
		return o.runMarketStep(ctx)
	case SourceStatements:
		return o.runStatementsStep(ctx)
	case SourceRatios:
		return o.runRatiosStep(ctx)
	}
	return stepOutcome{}, fmt.Errorf("no executor for source %q", step.Source)
}

// GetProgress reports a session's state as a completion percentage.
func (o *Orchestrator) GetProgress(ctx context.Context, sessionID uuid.UUID) (*Progress, error) {
	session, err := o.status.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	p := &Progress{SessionID: session.ID, State: session.State}
	if session.TotalSteps > 0 {
		p.Percent = float64(session.CompletedSteps) / float64(session.TotalSteps) * 100
	}
	if session.State == "completed" {
		p.Percent = 100
	}
	if session.CurrentStep != nil {
		p.CurrentStep = *session.CurrentStep
	}
	if session.ErrorMessage != nil {
		p.Error = *session.ErrorMessage
	}
	return p, nil
}

// recommendations turns the post-refresh freshness picture into human
// guidance attached to the session result.
func recommendations(report freshness.SystemReport) []string {
	var recs []string
	if report.Market.Status != freshness.Current {
		recs = append(recs, "market data is not current, run a market refresh")
	}
	if report.Statements.Status != freshness.Current {
		recs = append(recs, "financial statements are not current, run a financials refresh")
	}
	if report.Ratios.Status != freshness.Current {
		recs = append(recs, "valuation ratios are not current, run a ratios refresh")
	}
	if len(recs) == 0 {
		recs = append(recs, "all data sources are current")
	}
	return recs
}
