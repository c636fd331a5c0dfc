package edgar

// Canonical field names used by the extraction mapping tables.
const (
	fieldTotalAssets        = "total_assets"
	fieldTotalLiabilities   = "total_liabilities"
	fieldTotalEquity        = "total_equity"
	fieldCashAndEquivalents = "cash_and_equivalents"
	fieldShortTermDebt      = "short_term_debt"
	fieldLongTermDebt       = "long_term_debt"
	fieldTotalDebt          = "total_debt"
	fieldCurrentAssets      = "current_assets"
	fieldCurrentLiabilities = "current_liabilities"
	fieldSharesOutstanding  = "shares_outstanding"

	fieldRevenue         = "revenue"
	fieldNetIncome       = "net_income"
	fieldOperatingIncome = "operating_income"
	fieldGrossProfit     = "gross_profit"
	fieldCostOfRevenue   = "cost_of_revenue"
	fieldInterestExpense = "interest_expense"
	fieldTaxExpense      = "tax_expense"
	fieldSharesBasic     = "shares_basic"
	fieldSharesDiluted   = "shares_diluted"

	fieldOperatingCashFlow   = "operating_cash_flow"
	fieldInvestingCashFlow   = "investing_cash_flow"
	fieldFinancingCashFlow   = "financing_cash_flow"
	fieldDepreciation        = "depreciation_expense"
	fieldAmortization        = "amortization_expense"
	fieldDividendsPaid       = "dividends_paid"
	fieldShareRepurchases    = "share_repurchases"
	fieldCapitalExpenditures = "capital_expenditures"
)

const (
	taxonomyGAAP = "us-gaap"
	unitUSD      = "USD"
	unitShares   = "shares"
)

// FieldMapping maps one canonical field to its candidate taxonomy tags in
// priority order. The first tag carrying a value for the target accession
// wins; there is no cross-tag aggregation.
type FieldMapping struct {
	Field string
	Tags  []string
	Unit  string
}

var balanceSheetMappings = []FieldMapping{
	{fieldTotalAssets, []string{"Assets"}, unitUSD},
	{fieldTotalLiabilities, []string{"Liabilities"}, unitUSD},
	{fieldTotalEquity, []string{"StockholdersEquity", "StockholdersEquityIncludingPortionAttributableToNoncontrollingInterest"}, unitUSD},
	{fieldCashAndEquivalents, []string{"CashAndCashEquivalentsAtCarryingValue"}, unitUSD},
	{fieldShortTermDebt, []string{"ShortTermDebt", "DebtCurrent", "LongTermDebtCurrent"}, unitUSD},
	{fieldLongTermDebt, []string{"LongTermDebtNoncurrent", "LongTermDebt", "LongTermDebtAndCapitalLeaseObligations", "LongTermDebtAndCapitalLeaseObligationsNoncurrent"}, unitUSD},
	{fieldTotalDebt, []string{"Debt", "DebtAndCapitalLeaseObligations"}, unitUSD},
	{fieldCurrentAssets, []string{"AssetsCurrent"}, unitUSD},
	{fieldCurrentLiabilities, []string{"LiabilitiesCurrent"}, unitUSD},
	{fieldSharesOutstanding, []string{"CommonStockSharesOutstanding", "EntityCommonStockSharesOutstanding"}, unitShares},
}

var incomeStatementMappings = []FieldMapping{
	{fieldRevenue, []string{"Revenues", "RevenueFromContractWithCustomerExcludingAssessedTax", "SalesRevenueNet"}, unitUSD},
	{fieldNetIncome, []string{"NetIncomeLoss"}, unitUSD},
	{fieldOperatingIncome, []string{"OperatingIncomeLoss"}, unitUSD},
	{fieldGrossProfit, []string{"GrossProfit"}, unitUSD},
	{fieldCostOfRevenue, []string{"CostOfGoodsAndServicesSold", "CostOfRevenue"}, unitUSD},
	{fieldInterestExpense, []string{"InterestExpense"}, unitUSD},
	{fieldTaxExpense, []string{"IncomeTaxExpenseBenefit"}, unitUSD},
	{fieldSharesBasic, []string{"WeightedAverageNumberOfSharesOutstandingBasic"}, unitShares},
	{fieldSharesDiluted, []string{"WeightedAverageNumberOfDilutedSharesOutstanding", "WeightedAverageNumberOfSharesOutstandingDiluted"}, unitShares},
}

var cashFlowMappings = []FieldMapping{
	{fieldOperatingCashFlow, []string{"NetCashProvidedByUsedInOperatingActivities", "NetCashProvidedByUsedInOperatingActivitiesContinuingOperations"}, unitUSD},
	{fieldInvestingCashFlow, []string{"NetCashProvidedByUsedInInvestingActivities"}, unitUSD},
	{fieldFinancingCashFlow, []string{"NetCashProvidedByUsedInFinancingActivities"}, unitUSD},
	{fieldDepreciation, []string{"Depreciation", "DepreciationAndAmortization", "DepreciationDepletionAndAmortization"}, unitUSD},
	{fieldAmortization, []string{"AmortizationOfIntangibleAssets"}, unitUSD},
	{fieldDividendsPaid, []string{"PaymentsOfDividends", "PaymentsOfDividendsCommonStock"}, unitUSD},
	{fieldShareRepurchases, []string{"PaymentsForRepurchaseOfCommonStock"}, unitUSD},
	{fieldCapitalExpenditures, []string{"PaymentsToAcquirePropertyPlantAndEquipment"}, unitUSD},
}
