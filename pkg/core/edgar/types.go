// Package edgar talks to the regulator's submissions and company-facts APIs
// and turns their responses into effective annual filings with extracted
// statement data.
package edgar

import (
	"fmt"
	"time"
)

const (
	// Annual report form types. Amendments supersede originals.
	FormAnnual    = "10-K"
	FormAmendment = "10-K/A"
)

// SubmissionsResponse is the per-company submission history. The regulator
// encodes filings as parallel arrays keyed by index.
type SubmissionsResponse struct {
	CIK     string `json:"cik"`
	Name    string `json:"name"`
	Filings struct {
		Recent RecentFilings `json:"recent"`
	} `json:"filings"`
}

// RecentFilings holds the parallel filing attribute arrays.
type RecentFilings struct {
	AccessionNumber []string `json:"accessionNumber"`
	FilingDate      []string `json:"filingDate"`
	ReportDate      []string `json:"reportDate"`
	Form            []string `json:"form"`
}

// Filing is one effective annual filing after resolution.
type Filing struct {
	AccessionNumber string
	FormType        string
	FiledDate       string // YYYY-MM-DD
	ReportDate      string // fiscal period end, YYYY-MM-DD
	FiscalYear      int
}

// CompanyFacts is the regulator's nested facts document:
// taxonomy -> tag -> units -> unit -> reported values.
type CompanyFacts struct {
	EntityName string                         `json:"entityName"`
	Facts      map[string]map[string]TagFacts `json:"facts"`
}

// TagFacts holds all reported values for one taxonomy tag.
type TagFacts struct {
	Label string                 `json:"label"`
	Units map[string][]FactValue `json:"units"`
}

// FactValue is a single reported data point.
type FactValue struct {
	Value        *float64 `json:"val"`
	Accession    string   `json:"accn"`
	FiscalYear   int      `json:"fy"`
	FiscalPeriod string   `json:"fp"`
	Start        string   `json:"start"`
	End          string   `json:"end"`
	Filed        string   `json:"filed"`
	Form         string   `json:"form"`
}

// ParseError reports a malformed or missing field in an API response.
type ParseError struct {
	CIK    string
	Detail string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cik %s: %s", e.CIK, e.Detail)
}

func fiscalYearOf(reportDate string) (int, error) {
	t, err := time.Parse("2006-01-02", reportDate)
	if err != nil {
		return 0, err
	}
	return t.Year(), nil
}
