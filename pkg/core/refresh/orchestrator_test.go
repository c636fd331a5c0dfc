package refresh

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filingsync/pkg/core/edgar"
	"filingsync/pkg/core/freshness"
	"filingsync/pkg/core/market"
	"filingsync/pkg/core/store"
)

func barsFor(symbol string, dates ...string) []market.Bar {
	bars := make([]market.Bar, 0, len(dates))
	for _, d := range dates {
		bars = append(bars, market.Bar{Symbol: symbol, Date: d, Close: 100, Volume: 1000})
	}
	return bars
}

func testDeps() Deps {
	return Deps{
		Edgar:     &fakeEdgar{},
		Quotes:    &fakeQuotes{},
		Companies: &fakeCompanies{},
		Filings:   &fakeFilings{},
		Market:    &fakeMarketStore{},
		Ratios:    &fakeRatioStore{},
		Status:    newFakeStatus(),
		Freshness: &fakeFreshness{report: allMissing()},

		RetryAttempts: 1,
		RetryBackoff:  time.Millisecond,
	}
}

func TestRunMarketModeRefreshesEveryCompany(t *testing.T) {
	deps := testDeps()
	deps.Companies = &fakeCompanies{companies: []store.Company{
		{ID: 1, CIK: "320193", Symbol: "AAPL"},
		{ID: 2, CIK: "789019", Symbol: "MSFT"},
	}}
	deps.Quotes = &fakeQuotes{BarsFunc: func(ctx context.Context, symbol, from, to string) ([]market.Bar, error) {
		return barsFor(symbol, "2024-06-03", "2024-06-04"), nil
	}}
	status := newFakeStatus()
	deps.Status = status

	o := NewOrchestrator(deps)
	result, err := o.Run(context.Background(), ModeMarket, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{SourceMarket}, result.SourcesRefreshed)
	assert.Empty(t, result.SourcesFailed)
	assert.Equal(t, int64(4), result.TotalRecords)
	assert.Empty(t, result.CompanyErrors)

	assert.Equal(t, "success", status.sourceStates[SourceMarket])
	session := status.sessions[result.SessionID]
	assert.Equal(t, "completed", session.State)
}

func TestRunCollectsCompanyFailuresWithoutAbortingStep(t *testing.T) {
	deps := testDeps()
	deps.Companies = &fakeCompanies{companies: []store.Company{
		{ID: 1, CIK: "320193", Symbol: "AAPL"},
		{ID: 2, CIK: "789019", Symbol: "MSFT"},
	}}
	deps.Quotes = &fakeQuotes{BarsFunc: func(ctx context.Context, symbol, from, to string) ([]market.Bar, error) {
		if symbol == "MSFT" {
			return nil, errors.New("quote provider unavailable")
		}
		return barsFor(symbol, "2024-06-04"), nil
	}}

	o := NewOrchestrator(deps)
	result, err := o.Run(context.Background(), ModeMarket, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{SourceMarket}, result.SourcesRefreshed)
	assert.Equal(t, int64(1), result.TotalRecords)
	require.Len(t, result.CompanyErrors, 1)
	assert.Equal(t, "MSFT", result.CompanyErrors[0].Symbol)
}

func TestRunCriticalStepFailureAbortsSession(t *testing.T) {
	deps := testDeps()
	deps.Companies = &fakeCompanies{err: errors.New("database down")}
	status := newFakeStatus()
	deps.Status = status

	o := NewOrchestrator(deps)
	result, err := o.Run(context.Background(), ModeMarket, nil)
	require.Error(t, err)

	var crit *CriticalStepError
	require.ErrorAs(t, err, &crit)
	assert.Equal(t, "refresh_market_data", crit.Step)

	assert.Equal(t, []string{SourceMarket}, result.SourcesFailed)
	assert.Equal(t, "error", status.sourceStates[SourceMarket])
	assert.Equal(t, "error", status.sessions[result.SessionID].State)
}

func TestRunNonCriticalFailureContinuesSession(t *testing.T) {
	deps := testDeps()
	report := allMissing()
	report.Statements.Status = freshness.Current // plan market + ratios only
	deps.Freshness = &fakeFreshness{report: report}
	deps.Companies = &fakeCompanies{}
	deps.Ratios = &fakeRatioStore{fundErr: errors.New("fundamentals query failed")}
	status := newFakeStatus()
	deps.Status = status

	o := NewOrchestrator(deps)
	result, err := o.Run(context.Background(), ModeRatios, nil)
	require.NoError(t, err)

	assert.Contains(t, result.SourcesRefreshed, SourceMarket)
	assert.Contains(t, result.SourcesFailed, SourceRatios)
	assert.Equal(t, "completed", status.sessions[result.SessionID].State)
}

func TestRunRatiosModeFailsFastWithoutStatements(t *testing.T) {
	deps := testDeps()

	o := NewOrchestrator(deps)
	_, err := o.Run(context.Background(), ModeRatios, nil)
	assert.ErrorIs(t, err, ErrPrerequisiteMissing)
}

func TestRunEmptyPlanWhenEverythingCurrent(t *testing.T) {
	deps := testDeps()
	current := freshness.SystemReport{
		Market:     freshness.DomainStatus{Status: freshness.Current},
		Statements: freshness.DomainStatus{Status: freshness.Current},
		Ratios:     freshness.DomainStatus{Status: freshness.Current},
	}
	deps.Freshness = &fakeFreshness{report: current}
	status := newFakeStatus()
	deps.Status = status

	o := NewOrchestrator(deps)
	result, err := o.Run(context.Background(), ModeRatios, nil)
	require.NoError(t, err)

	assert.Empty(t, result.SourcesRefreshed)
	assert.Equal(t, []string{"all requested data sources are already current"}, result.Recommendations)
	assert.Equal(t, "completed", status.sessions[result.SessionID].State)
}

func TestRunStatementsSyncStoresEffectiveFilingOnly(t *testing.T) {
	// Company 320193 filed a 10-K (accession A) and a 10-K/A (accession B)
	// for the same report date. Only the amendment must be extracted and
	// stored, with values pulled from its own accession.
	subs := &edgar.SubmissionsResponse{}
	recent := &subs.Filings.Recent
	recent.AccessionNumber = []string{"accn-A", "accn-B"}
	recent.Form = []string{"10-K", "10-K/A"}
	recent.FilingDate = []string{"2023-11-02", "2023-12-01"}
	recent.ReportDate = []string{"2023-09-30", "2023-09-30"}

	assets := 352583000000.0
	facts := &edgar.CompanyFacts{Facts: map[string]map[string]edgar.TagFacts{
		"us-gaap": {
			"Assets": {Units: map[string][]edgar.FactValue{
				"USD": {{Accession: "accn-B", Value: &assets}},
			}},
		},
	}}

	deps := testDeps()
	deps.Companies = &fakeCompanies{companies: []store.Company{{ID: 1, CIK: "0000320193", Symbol: "AAPL"}}}
	deps.Edgar = &fakeEdgar{
		SubmissionsFunc: func(ctx context.Context, cik string) (*edgar.SubmissionsResponse, error) {
			return subs, nil
		},
		FactsFunc: func(ctx context.Context, cik string) (*edgar.CompanyFacts, error) {
			return facts, nil
		},
	}
	filings := &fakeFilings{}
	deps.Filings = filings

	o := NewOrchestrator(deps)
	result, err := o.Run(context.Background(), ModeFinancials, []string{SourceStatements})
	require.NoError(t, err)

	assert.Equal(t, int64(1), result.TotalRecords)
	require.Len(t, filings.stored, 1)
	stored := filings.stored[0]
	assert.Equal(t, "accn-B", stored.Filing.AccessionNumber)
	assert.Equal(t, edgar.FormAmendment, stored.Filing.FormType)
	require.NotNil(t, stored.Set.Balance.TotalAssets)
	assert.Equal(t, assets, *stored.Set.Balance.TotalAssets)
}

func TestRunStatementsCountsFilingsStoredBeforeFailure(t *testing.T) {
	// Two annual filings are pending; the store fails on the second. The
	// first is already committed and must still be counted.
	subs := &edgar.SubmissionsResponse{}
	recent := &subs.Filings.Recent
	recent.AccessionNumber = []string{"accn-A", "accn-B"}
	recent.Form = []string{"10-K", "10-K"}
	recent.FilingDate = []string{"2022-11-04", "2023-11-02"}
	recent.ReportDate = []string{"2022-09-24", "2023-09-30"}

	assets := 352583000000.0
	facts := &edgar.CompanyFacts{Facts: map[string]map[string]edgar.TagFacts{
		"us-gaap": {
			"Assets": {Units: map[string][]edgar.FactValue{
				"USD": {
					{Accession: "accn-A", Value: &assets},
					{Accession: "accn-B", Value: &assets},
				},
			}},
		},
	}}

	deps := testDeps()
	deps.Companies = &fakeCompanies{companies: []store.Company{{ID: 1, CIK: "320193", Symbol: "AAPL"}}}
	deps.Edgar = &fakeEdgar{
		SubmissionsFunc: func(ctx context.Context, cik string) (*edgar.SubmissionsResponse, error) {
			return subs, nil
		},
		FactsFunc: func(ctx context.Context, cik string) (*edgar.CompanyFacts, error) {
			return facts, nil
		},
	}
	filings := &fakeFilings{storeErr: errors.New("deadlock detected"), failAfter: 1}
	deps.Filings = filings

	o := NewOrchestrator(deps)
	result, err := o.Run(context.Background(), ModeFinancials, []string{SourceStatements})
	require.NoError(t, err)

	assert.Equal(t, int64(1), result.TotalRecords)
	require.Len(t, result.CompanyErrors, 1)
	assert.Equal(t, "AAPL", result.CompanyErrors[0].Symbol)
	require.Len(t, filings.stored, 1)
	assert.Equal(t, "accn-A", filings.stored[0].Filing.AccessionNumber)
}

func TestRunStatementsSkipsAccessionsInSnapshot(t *testing.T) {
	subs := &edgar.SubmissionsResponse{}
	recent := &subs.Filings.Recent
	recent.AccessionNumber = []string{"accn-A"}
	recent.Form = []string{"10-K"}
	recent.FilingDate = []string{"2023-11-02"}
	recent.ReportDate = []string{"2023-09-30"}

	factsCalled := false
	deps := testDeps()
	deps.Companies = &fakeCompanies{companies: []store.Company{{ID: 1, CIK: "320193", Symbol: "AAPL"}}}
	deps.Edgar = &fakeEdgar{
		SubmissionsFunc: func(ctx context.Context, cik string) (*edgar.SubmissionsResponse, error) {
			return subs, nil
		},
		FactsFunc: func(ctx context.Context, cik string) (*edgar.CompanyFacts, error) {
			factsCalled = true
			return &edgar.CompanyFacts{}, nil
		},
	}
	deps.Filings = &fakeFilings{accessions: map[int64]map[string]bool{1: {"accn-A": true}}}

	o := NewOrchestrator(deps)
	result, err := o.Run(context.Background(), ModeFinancials, []string{SourceStatements})
	require.NoError(t, err)

	assert.Equal(t, int64(0), result.TotalRecords)
	assert.False(t, factsCalled, "facts fetch should be skipped when nothing is pending")
}

func TestRunRatiosStepComputesAndStoresRatios(t *testing.T) {
	price := 190.0
	revenue := 1000.0
	shares := 10.0

	deps := testDeps()
	report := allMissing()
	report.Statements.Status = freshness.Current
	report.Market.Status = freshness.Current
	deps.Freshness = &fakeFreshness{report: report}

	ratioStore := &fakeRatioStore{fundamentals: []store.Fundamentals{
		{CompanyID: 1, Symbol: "AAPL", ReportDate: "2023-09-30", Revenue: &revenue, SharesOutstanding: &shares},
	}}
	deps.Ratios = ratioStore
	deps.Market = &fakeMarketStore{closes: map[int64]*float64{1: &price}}

	o := NewOrchestrator(deps)
	result, err := o.Run(context.Background(), ModeRatios, nil)
	require.NoError(t, err)

	assert.Equal(t, int64(1), result.TotalRecords)
	require.Len(t, ratioStore.upserted, 1)
	got := ratioStore.upserted[0]
	assert.Equal(t, price, got.Price)
	require.NotNil(t, got.PriceToSales)
	assert.InDelta(t, price*shares/revenue, *got.PriceToSales, 1e-9)
}

func TestGetProgressPercent(t *testing.T) {
	status := newFakeStatus()
	deps := testDeps()
	deps.Status = status

	o := NewOrchestrator(deps)

	id, err := status.CreateSession(context.Background(), "market", 4)
	require.NoError(t, err)
	require.NoError(t, status.StartSession(context.Background(), id))
	require.NoError(t, status.RecordStep(context.Background(), id, "refresh_market_data", 1))

	progress, err := o.GetProgress(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 25.0, progress.Percent)
	assert.Equal(t, "running", progress.State)
	assert.Equal(t, "refresh_market_data", progress.CurrentStep)
}

func TestGetProgressUnknownSession(t *testing.T) {
	deps := testDeps()
	deps.Status = newFakeStatus()

	o := NewOrchestrator(deps)
	_, err := o.GetProgress(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRunCancelledBetweenSteps(t *testing.T) {
	deps := testDeps()
	deps.Companies = &fakeCompanies{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := NewOrchestrator(deps)
	_, err := o.Run(ctx, ModeMarket, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
