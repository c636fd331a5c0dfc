package edgar

import (
	"context"
	"fmt"
	"time"
)

// Probe tags used to find the most recent filed date in a facts document.
// Any comprehensive annual report carries at least one of these.
var latestFiledProbeTags = []string{
	"Assets", "Revenues", "NetIncomeLoss", "OperatingIncomeLoss",
}

// LatestFiledDate returns the newest filed date (YYYY-MM-DD) reported in a
// facts document, ignoring dates in the future. Empty string when nothing
// usable is present.
func LatestFiledDate(facts *CompanyFacts, now time.Time) string {
	today := now.Format("2006-01-02")
	gaap := facts.Facts[taxonomyGAAP]

	latest := ""
	for _, tag := range latestFiledProbeTags {
		tagFacts, ok := gaap[tag]
		if !ok {
			continue
		}
		for _, v := range tagFacts.Units[unitUSD] {
			if v.Filed == "" || v.Filed > today {
				continue
			}
			if v.Filed > latest {
				latest = v.Filed
			}
		}
	}
	return latest
}

// LatestFiledDate fetches the company's facts document and reports its
// newest filed date. Freshness probing uses this against the stored dates.
func (c *Client) LatestFiledDate(ctx context.Context, cik string, now time.Time) (string, error) {
	facts, err := c.FetchCompanyFacts(ctx, cik)
	if err != nil {
		return "", fmt.Errorf("probe latest filed date: %w", err)
	}
	return LatestFiledDate(facts, now), nil
}
