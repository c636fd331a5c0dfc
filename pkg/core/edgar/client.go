package edgar

import (
	"context"
	"fmt"
	"strings"

	"filingsync/pkg/core/fetch"
)

const (
	submissionsURL  = "https://data.sec.gov/submissions/CIK%s.json"
	companyFactsURL = "https://data.sec.gov/api/xbrl/companyfacts/CIK%s.json"
)

// Client fetches regulator data through the shared rate-limited client.
type Client struct {
	http    *fetch.Client
	baseSub string
	baseCF  string
}

// NewClient creates a regulator API client on top of the shared fetcher.
func NewClient(httpClient *fetch.Client) *Client {
	return &Client{
		http:    httpClient,
		baseSub: submissionsURL,
		baseCF:  companyFactsURL,
	}
}

// WithBaseURLs overrides the API endpoints. Used by tests.
func (c *Client) WithBaseURLs(submissions, companyFacts string) *Client {
	c.baseSub = submissions
	c.baseCF = companyFacts
	return c
}

// PadCIK zero-pads a regulator company id to the canonical 10 digits.
func PadCIK(cik string) string {
	return fmt.Sprintf("%010s", strings.TrimLeft(cik, "0"))
}

// FetchSubmissions retrieves the submission history for one company.
func (c *Client) FetchSubmissions(ctx context.Context, cik string) (*SubmissionsResponse, error) {
	url := fmt.Sprintf(c.baseSub, PadCIK(cik))

	var subs SubmissionsResponse
	if err := c.http.GetJSON(ctx, url, &subs); err != nil {
		return nil, fmt.Errorf("fetch submissions: %w", err)
	}

	recent := subs.Filings.Recent
	n := len(recent.AccessionNumber)
	if len(recent.Form) != n || len(recent.FilingDate) != n || len(recent.ReportDate) != n {
		return nil, &ParseError{CIK: cik, Detail: "submission arrays have mismatched lengths"}
	}
	return &subs, nil
}

// FetchCompanyFacts retrieves the full nested facts document for one company.
func (c *Client) FetchCompanyFacts(ctx context.Context, cik string) (*CompanyFacts, error) {
	url := fmt.Sprintf(c.baseCF, PadCIK(cik))

	var facts CompanyFacts
	if err := c.http.GetJSON(ctx, url, &facts); err != nil {
		return nil, fmt.Errorf("fetch company facts: %w", err)
	}
	return &facts, nil
}
