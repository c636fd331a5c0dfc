package refresh

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"filingsync/pkg/core/edgar"
	"filingsync/pkg/core/freshness"
	"filingsync/pkg/core/market"
	"filingsync/pkg/core/store"
)

type fakeEdgar struct {
	SubmissionsFunc func(ctx context.Context, cik string) (*edgar.SubmissionsResponse, error)
	FactsFunc       func(ctx context.Context, cik string) (*edgar.CompanyFacts, error)
}

func (f *fakeEdgar) FetchSubmissions(ctx context.Context, cik string) (*edgar.SubmissionsResponse, error) {
	return f.SubmissionsFunc(ctx, cik)
}

func (f *fakeEdgar) FetchCompanyFacts(ctx context.Context, cik string) (*edgar.CompanyFacts, error) {
	return f.FactsFunc(ctx, cik)
}

type fakeQuotes struct {
	BarsFunc func(ctx context.Context, symbol, from, to string) ([]market.Bar, error)
}

func (f *fakeQuotes) FetchDailyBars(ctx context.Context, symbol, from, to string) ([]market.Bar, error) {
	return f.BarsFunc(ctx, symbol, from, to)
}

type fakeCompanies struct {
	companies []store.Company
	err       error
}

func (f *fakeCompanies) ListCompanies(ctx context.Context) ([]store.Company, error) {
	return f.companies, f.err
}

type storedFiling struct {
	CompanyID int64
	Filing    edgar.Filing
	Set       edgar.StatementSet
}

type fakeFilings struct {
	mu         sync.Mutex
	stored     []storedFiling
	accessions map[int64]map[string]bool
	storeErr   error
	failAfter  int // with storeErr set, fail once this many filings are stored
}

func (f *fakeFilings) Store(ctx context.Context, companyID int64, filing edgar.Filing, set edgar.StatementSet) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.storeErr != nil && len(f.stored) >= f.failAfter {
		return false, f.storeErr
	}
	f.stored = append(f.stored, storedFiling{CompanyID: companyID, Filing: filing, Set: set})
	return true, nil
}

func (f *fakeFilings) StoredAccessions(ctx context.Context, companyID int64) (map[string]bool, error) {
	if f.accessions == nil {
		return map[string]bool{}, nil
	}
	return f.accessions[companyID], nil
}

func (f *fakeFilings) LatestFiledDates(ctx context.Context) (map[string]string, error) {
	return map[string]string{}, nil
}

type fakeMarketStore struct {
	mu        sync.Mutex
	upserted  map[int64]int
	latest    map[int64]string
	closes    map[int64]*float64
	latestErr error
	upsertErr error
}

func (f *fakeMarketStore) UpsertDailyBars(ctx context.Context, companyID int64, bars []market.Bar) (int, error) {
	if f.upsertErr != nil {
		return 0, f.upsertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upserted == nil {
		f.upserted = make(map[int64]int)
	}
	f.upserted[companyID] += len(bars)
	return len(bars), nil
}

func (f *fakeMarketStore) LatestBarDate(ctx context.Context, companyID int64) (string, error) {
	if f.latestErr != nil {
		return "", f.latestErr
	}
	return f.latest[companyID], nil
}

func (f *fakeMarketStore) CloseOnOrBefore(ctx context.Context, companyID int64, date string) (*float64, error) {
	return f.closes[companyID], nil
}

type fakeRatioStore struct {
	fundamentals []store.Fundamentals
	fundErr      error
	mu           sync.Mutex
	upserted     []store.Ratio
}

func (f *fakeRatioStore) LatestFundamentals(ctx context.Context) ([]store.Fundamentals, error) {
	return f.fundamentals, f.fundErr
}

func (f *fakeRatioStore) UpsertRatio(ctx context.Context, companyID int64, ratio store.Ratio) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserted = append(f.upserted, ratio)
	return nil
}

// fakeStatus records every session and source transition in memory.
type fakeStatus struct {
	mu           sync.Mutex
	sessions     map[uuid.UUID]*store.Session
	sourceStates map[string]string
	stepNames    []string
}

func newFakeStatus() *fakeStatus {
	return &fakeStatus{
		sessions:     make(map[uuid.UUID]*store.Session),
		sourceStates: make(map[string]string),
	}
}

func (f *fakeStatus) MarkSourceStarted(ctx context.Context, source string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sourceStates[source] = "running"
	return nil
}

func (f *fakeStatus) MarkSourceComplete(ctx context.Context, source, latestDataDate string, records int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sourceStates[source] = "success"
	return nil
}

func (f *fakeStatus) MarkSourceError(ctx context.Context, source, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sourceStates[source] = "error"
	return nil
}

func (f *fakeStatus) CreateSession(ctx context.Context, mode string, totalSteps int) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.New()
	f.sessions[id] = &store.Session{ID: id, Mode: mode, State: "created", TotalSteps: totalSteps, StartedAt: time.Now()}
	return id, nil
}

func (f *fakeStatus) StartSession(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[id].State = "running"
	return nil
}

func (f *fakeStatus) RecordStep(ctx context.Context, id uuid.UUID, stepName string, completed int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.sessions[id]
	s.CurrentStep = &stepName
	s.CompletedSteps = completed
	f.stepNames = append(f.stepNames, stepName)
	return nil
}

func (f *fakeStatus) FinishSession(ctx context.Context, id uuid.UUID, errorMessage string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.sessions[id]
	if errorMessage == "" {
		s.State = "completed"
	} else {
		s.State = "error"
		s.ErrorMessage = &errorMessage
	}
	return nil
}

func (f *fakeStatus) GetSession(ctx context.Context, id uuid.UUID) (*store.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessions[id], nil
}

type fakeFreshness struct {
	report freshness.SystemReport
}

func (f *fakeFreshness) Check(ctx context.Context) freshness.SystemReport {
	return f.report
}

// allMissing is the freshness picture of an empty database: every planned
// step runs.
func allMissing() freshness.SystemReport {
	return freshness.SystemReport{
		Market:     freshness.DomainStatus{Status: freshness.Missing},
		Statements: freshness.DomainStatus{Status: freshness.Missing},
		Ratios:     freshness.DomainStatus{Status: freshness.Missing},
	}
}
