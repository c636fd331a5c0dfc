// Package freshness evaluates how current each stored data domain is and
// derives readiness for the screening features built on top.
package freshness

// Status classifies one data domain.
type Status string

const (
	// Missing means the domain has no stored rows at all.
	Missing Status = "missing"
	// Stale means rows exist but newer upstream data is known or likely.
	Stale Status = "stale"
	// Current means the stored data matches what upstream offers.
	Current Status = "current"
	// StatusError means the check itself failed; the domain's real state
	// is unknown.
	StatusError Status = "error"
)

// DomainStatus is the evaluated state of one data domain.
type DomainStatus struct {
	Status      Status `json:"status"`
	LatestDate  string `json:"latest_date,omitempty"`
	RecordCount int64  `json:"record_count"`
	Message     string `json:"message,omitempty"`
}

// SystemReport is the full freshness picture across domains.
type SystemReport struct {
	Market     DomainStatus `json:"market"`
	Statements DomainStatus `json:"statements"`
	Ratios     DomainStatus `json:"ratios"`
	Screening  Readiness    `json:"screening"`
	CheckedAt  string       `json:"checked_at"`
}

// Readiness reports whether a user-facing feature has the data it needs.
type Readiness struct {
	Feature        string   `json:"feature"`
	Ready          bool     `json:"ready"`
	BlockingIssues []string `json:"blocking_issues,omitempty"`
}

// ScreeningReadiness gates the valuation screener on the report: every
// domain it reads must be current.
func ScreeningReadiness(report SystemReport) Readiness {
	r := Readiness{Feature: "valuation_screening", Ready: true}

	check := func(name string, d DomainStatus) {
		switch d.Status {
		case Current:
			return
		case Missing:
			r.BlockingIssues = append(r.BlockingIssues, name+" data is missing")
		case Stale:
			r.BlockingIssues = append(r.BlockingIssues, name+" data is stale")
		case StatusError:
			r.BlockingIssues = append(r.BlockingIssues, name+" freshness check failed: "+d.Message)
		}
		r.Ready = false
	}

	check("market", report.Market)
	check("statements", report.Statements)
	check("ratios", report.Ratios)
	return r
}
