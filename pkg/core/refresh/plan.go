package refresh

import (
	"fmt"
	"sort"

	"filingsync/pkg/core/freshness"
)

var (
	marketStep = Step{
		Name:     "refresh_market_data",
		Source:   SourceMarket,
		Priority: 1,
	}
	statementsStep = Step{
		Name:      "refresh_financial_statements",
		Source:    SourceStatements,
		DependsOn: []string{SourceMarket},
		Priority:  2,
	}
	ratiosStep = Step{
		Name:      "calculate_valuation_ratios",
		Source:    SourceRatios,
		DependsOn: []string{SourceMarket, SourceStatements},
		Priority:  3,
	}
)

// stepsFor is the mode-specific step table. Deeper modes layer on top of
// shallower ones.
var stepsFor = map[Mode][]Step{
	ModeMarket:     {marketStep},
	ModeFinancials: {marketStep, statementsStep},
	ModeRatios:     {marketStep, statementsStep, ratiosStep},
}

// planSteps selects the steps a session will run. Forced sources restrict
// the plan to exactly those sources; otherwise every step whose domain is
// not current per the freshness report is included. The plan is ordered by
// ascending priority.
func planSteps(mode Mode, forced []string, report freshness.SystemReport) ([]Step, error) {
	candidates, ok := stepsFor[mode]
	if !ok {
		return nil, fmt.Errorf("unknown refresh mode %q", mode)
	}

	var plan []Step
	if len(forced) > 0 {
		want := make(map[string]bool, len(forced))
		for _, src := range forced {
			want[src] = true
		}
		for _, step := range candidates {
			if want[step.Source] {
				plan = append(plan, step)
				delete(want, step.Source)
			}
		}
		for src := range want {
			return nil, fmt.Errorf("forced source %q is not part of mode %q", src, mode)
		}
	} else {
		for _, step := range candidates {
			if domainStatus(step.Source, report) != freshness.Current {
				plan = append(plan, step)
			}
		}
	}

	sort.SliceStable(plan, func(i, j int) bool { return plan[i].Priority < plan[j].Priority })
	return plan, nil
}

func domainStatus(source string, report freshness.SystemReport) freshness.Status {
	switch source {
	case SourceMarket:
		return report.Market.Status
	case SourceStatements:
		return report.Statements.Status
	case SourceRatios:
		return report.Ratios.Status
	}
	return freshness.Missing
}
