package edgar

// ExtractStatements pulls balance-sheet, income-statement and cash-flow
// fields for one filing out of a company's facts document. It is a pure
// function of (document, accession, mapping tables): no I/O, no mutation
// of the document. Fields with no candidate tag for the accession stay
// nil; partial statements are expected.
func ExtractStatements(facts *CompanyFacts, accession string) StatementSet {
	bal := extractFields(facts, accession, balanceSheetMappings)
	inc := extractFields(facts, accession, incomeStatementMappings)
	cf := extractFields(facts, accession, cashFlowMappings)

	set := StatementSet{
		Balance: BalanceSheet{
			TotalAssets:        bal[fieldTotalAssets],
			TotalLiabilities:   bal[fieldTotalLiabilities],
			TotalEquity:        bal[fieldTotalEquity],
			CashAndEquivalents: bal[fieldCashAndEquivalents],
			ShortTermDebt:      bal[fieldShortTermDebt],
			LongTermDebt:       bal[fieldLongTermDebt],
			TotalDebt:          bal[fieldTotalDebt],
			CurrentAssets:      bal[fieldCurrentAssets],
			CurrentLiabilities: bal[fieldCurrentLiabilities],
			SharesOutstanding:  bal[fieldSharesOutstanding],
		},
		Income: IncomeStatement{
			Revenue:         inc[fieldRevenue],
			NetIncome:       inc[fieldNetIncome],
			OperatingIncome: inc[fieldOperatingIncome],
			GrossProfit:     inc[fieldGrossProfit],
			CostOfRevenue:   inc[fieldCostOfRevenue],
			InterestExpense: inc[fieldInterestExpense],
			TaxExpense:      inc[fieldTaxExpense],
			SharesBasic:     inc[fieldSharesBasic],
			SharesDiluted:   inc[fieldSharesDiluted],
		},
		CashFlow: CashFlowStatement{
			OperatingCashFlow:   cf[fieldOperatingCashFlow],
			InvestingCashFlow:   cf[fieldInvestingCashFlow],
			FinancingCashFlow:   cf[fieldFinancingCashFlow],
			Depreciation:        cf[fieldDepreciation],
			Amortization:        cf[fieldAmortization],
			DividendsPaid:       cf[fieldDividendsPaid],
			ShareRepurchases:    cf[fieldShareRepurchases],
			CapitalExpenditures: cf[fieldCapitalExpenditures],
		},
	}

	// Total debt is derived from its components when the document carries
	// no direct tag. A missing operand skips the derivation; zero is never
	// assumed.
	if set.Balance.TotalDebt == nil && set.Balance.ShortTermDebt != nil && set.Balance.LongTermDebt != nil {
		sum := *set.Balance.ShortTermDebt + *set.Balance.LongTermDebt
		set.Balance.TotalDebt = &sum
	}

	return set
}

// extractFields resolves each canonical field in the table against the
// facts document. Candidate tags are scanned in priority order; within the
// first present tag, the value list is scanned for the target accession.
func extractFields(facts *CompanyFacts, accession string, mappings []FieldMapping) map[string]*float64 {
	out := make(map[string]*float64, len(mappings))
	gaap := facts.Facts[taxonomyGAAP]

	for _, m := range mappings {
		out[m.Field] = nil
		for _, tag := range m.Tags {
			tagFacts, ok := gaap[tag]
			if !ok {
				continue
			}
			if v := valueForAccession(tagFacts.Units[m.Unit], accession); v != nil {
				out[m.Field] = v
				break
			}
		}
	}
	return out
}

// valueForAccession returns the first value in the list reported under the
// target accession, or nil.
func valueForAccession(values []FactValue, accession string) *float64 {
	for i := range values {
		if values[i].Accession == accession && values[i].Value != nil {
			v := *values[i].Value
			return &v
		}
	}
	return nil
}
