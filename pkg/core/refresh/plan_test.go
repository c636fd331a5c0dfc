package refresh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filingsync/pkg/core/freshness"
)

func TestParseMode(t *testing.T) {
	mode, err := ParseMode("financials")
	require.NoError(t, err)
	assert.Equal(t, ModeFinancials, mode)

	_, err = ParseMode("everything")
	assert.Error(t, err)
}

func TestPlanIncludesAllStepsWhenEverythingMissing(t *testing.T) {
	plan, err := planSteps(ModeRatios, nil, allMissing())
	require.NoError(t, err)
	require.Len(t, plan, 3)
	assert.Equal(t, SourceMarket, plan[0].Source)
	assert.Equal(t, SourceStatements, plan[1].Source)
	assert.Equal(t, SourceRatios, plan[2].Source)
}

func TestPlanSkipsCurrentDomains(t *testing.T) {
	report := allMissing()
	report.Market.Status = freshness.Current

	plan, err := planSteps(ModeRatios, nil, report)
	require.NoError(t, err)
	require.Len(t, plan, 2)
	assert.Equal(t, SourceStatements, plan[0].Source)
	assert.Equal(t, SourceRatios, plan[1].Source)
}

func TestPlanIncludesStaleDomains(t *testing.T) {
	report := allMissing()
	report.Market.Status = freshness.Stale

	plan, err := planSteps(ModeMarket, nil, report)
	require.NoError(t, err)
	require.Len(t, plan, 1)
}

func TestForcedSourcesRestrictPlanExactly(t *testing.T) {
	report := allMissing()
	report.Statements.Status = freshness.Current // forced bypasses freshness

	plan, err := planSteps(ModeRatios, []string{SourceStatements}, report)
	require.NoError(t, err)
	require.Len(t, plan, 1)
	assert.Equal(t, SourceStatements, plan[0].Source)
}

func TestForcedSourceOutsideModeFails(t *testing.T) {
	_, err := planSteps(ModeMarket, []string{SourceRatios}, allMissing())
	assert.Error(t, err)
}

func TestPlanOrderedByAscendingPriority(t *testing.T) {
	plan, err := planSteps(ModeRatios, []string{SourceRatios, SourceMarket}, allMissing())
	require.NoError(t, err)
	require.Len(t, plan, 2)
	assert.Less(t, plan[0].Priority, plan[1].Priority)
	assert.Equal(t, SourceMarket, plan[0].Source)
}

func TestCriticalCutoff(t *testing.T) {
	assert.True(t, marketStep.Critical())
	assert.True(t, statementsStep.Critical())
	assert.False(t, ratiosStep.Critical())
}
