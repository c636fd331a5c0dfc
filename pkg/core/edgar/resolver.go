package edgar

import (
	"sort"
)

// Warning describes a submission entry that was discarded during resolution.
type Warning struct {
	AccessionNumber string
	Reason          string
}

// ResolveAnnualFilings reduces a raw submission history to the effective
// annual filings: one per report date, amendments superseding originals,
// later filed dates superseding earlier ones of the same form. Entries with
// missing or malformed report dates are discarded with a warning rather
// than failing the batch. The result is ordered by report date ascending.
func ResolveAnnualFilings(subs *SubmissionsResponse) ([]Filing, []Warning) {
	recent := subs.Filings.Recent

	var warnings []Warning
	effective := make(map[string]Filing) // report date -> winner

	for i := range recent.AccessionNumber {
		form := recent.Form[i]
		if form != FormAnnual && form != FormAmendment {
			continue
		}

		reportDate := recent.ReportDate[i]
		fy, err := fiscalYearOf(reportDate)
		if err != nil {
			warnings = append(warnings, Warning{
				AccessionNumber: recent.AccessionNumber[i],
				Reason:          "missing or malformed report date: " + reportDate,
			})
			continue
		}

		candidate := Filing{
			AccessionNumber: recent.AccessionNumber[i],
			FormType:        form,
			FiledDate:       recent.FilingDate[i],
			ReportDate:      reportDate,
			FiscalYear:      fy,
		}

		current, ok := effective[reportDate]
		if !ok || supersedes(candidate, current) {
			effective[reportDate] = candidate
		}
	}

	filings := make([]Filing, 0, len(effective))
	for _, f := range effective {
		filings = append(filings, f)
	}
	sort.Slice(filings, func(i, j int) bool {
		return filings[i].ReportDate < filings[j].ReportDate
	})
	return filings, warnings
}

// supersedes reports whether a replaces b for the same report date.
// Amendments beat originals; within the same form type the later filed
// date wins. ISO dates compare correctly as strings.
func supersedes(a, b Filing) bool {
	if a.FormType != b.FormType {
		return a.FormType == FormAmendment
	}
	return a.FiledDate > b.FiledDate
}
