// Package refresh orchestrates synchronization sessions across the market,
// statements, and ratios data sources.
package refresh

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Mode selects how deep a refresh session goes.
type Mode string

const (
	// ModeMarket refreshes daily price bars only.
	ModeMarket Mode = "market"
	// ModeFinancials refreshes price bars and financial statements.
	ModeFinancials Mode = "financials"
	// ModeRatios refreshes everything and recomputes valuation ratios.
	ModeRatios Mode = "ratios"
)

// ParseMode validates a mode string from the API or CLI.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeMarket, ModeFinancials, ModeRatios:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown refresh mode %q", s)
}

// Data source names. These key the data_refresh_status table and are the
// values accepted as forced sources.
const (
	SourceMarket     = "market"
	SourceStatements = "statements"
	SourceRatios     = "ratios"
)

// Step is one planned unit of a refresh session.
type Step struct {
	Name      string
	Source    string
	DependsOn []string
	Priority  int
}

// criticalPriority marks the cutoff below or at which a step failure
// aborts the whole session.
const criticalPriority = 2

// Critical reports whether this step's failure should abort the session.
func (s Step) Critical() bool { return s.Priority <= criticalPriority }

// CompanyError is one company's failure inside a step. Steps collect these
// instead of cancelling sibling tasks.
type CompanyError struct {
	Symbol string `json:"symbol"`
	Err    string `json:"error"`
}

// Result summarizes a finished refresh session.
type Result struct {
	SessionID        uuid.UUID      `json:"session_id"`
	Mode             Mode           `json:"mode"`
	SourcesRefreshed []string       `json:"sources_refreshed"`
	SourcesFailed    []string       `json:"sources_failed"`
	TotalRecords     int64          `json:"total_records"`
	CompanyErrors    []CompanyError `json:"company_errors,omitempty"`
	Recommendations  []string       `json:"recommendations,omitempty"`
}

// Progress is a point-in-time view of a running session.
type Progress struct {
	SessionID   uuid.UUID `json:"session_id"`
	State       string    `json:"state"`
	Percent     float64   `json:"percent"`
	CurrentStep string    `json:"current_step,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// CriticalStepError aborts a session when a critical step fails.
type CriticalStepError struct {
	Step string
	Err  error
}

func (e *CriticalStepError) Error() string {
	return fmt.Sprintf("critical step %s failed: %v", e.Step, e.Err)
}

func (e *CriticalStepError) Unwrap() error { return e.Err }

// ErrPrerequisiteMissing rejects a ratios refresh before any statements
// have ever been stored.
var ErrPrerequisiteMissing = errors.New("prerequisite missing: no financial statements stored, run a financials refresh first")

// ErrSessionNotFound is returned by GetProgress for an unknown session id.
var ErrSessionNotFound = errors.New("refresh session not found")
