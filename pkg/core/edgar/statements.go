package edgar

// BalanceSheet holds the optional balance-sheet fields extracted for one
// filing. Nil means the regulator reported no value for that field under
// the target accession.
type BalanceSheet struct {
	TotalAssets        *float64
	TotalLiabilities   *float64
	TotalEquity        *float64
	CashAndEquivalents *float64
	ShortTermDebt      *float64
	LongTermDebt       *float64
	TotalDebt          *float64
	CurrentAssets      *float64
	CurrentLiabilities *float64
	SharesOutstanding  *float64
}

// IncomeStatement holds the optional income-statement fields for one filing.
type IncomeStatement struct {
	Revenue         *float64
	NetIncome       *float64
	OperatingIncome *float64
	GrossProfit     *float64
	CostOfRevenue   *float64
	InterestExpense *float64
	TaxExpense      *float64
	SharesBasic     *float64
	SharesDiluted   *float64
}

// CashFlowStatement holds the optional cash-flow fields for one filing.
type CashFlowStatement struct {
	OperatingCashFlow   *float64
	InvestingCashFlow   *float64
	FinancingCashFlow   *float64
	Depreciation        *float64
	Amortization        *float64
	DividendsPaid       *float64
	ShareRepurchases    *float64
	CapitalExpenditures *float64
}

// StatementSet is the complete extraction output for one filing. It is
// stored atomically together with its filing metadata.
type StatementSet struct {
	Balance  BalanceSheet
	Income   IncomeStatement
	CashFlow CashFlowStatement
}

// FieldCount returns the number of resolved fields across all three
// statements. A set with zero fields is an empty shell and must not be
// stored.
func (s *StatementSet) FieldCount() int {
	n := 0
	for _, v := range []*float64{
		s.Balance.TotalAssets, s.Balance.TotalLiabilities, s.Balance.TotalEquity,
		s.Balance.CashAndEquivalents, s.Balance.ShortTermDebt, s.Balance.LongTermDebt,
		s.Balance.TotalDebt, s.Balance.CurrentAssets, s.Balance.CurrentLiabilities,
		s.Balance.SharesOutstanding,
		s.Income.Revenue, s.Income.NetIncome, s.Income.OperatingIncome,
		s.Income.GrossProfit, s.Income.CostOfRevenue, s.Income.InterestExpense,
		s.Income.TaxExpense, s.Income.SharesBasic, s.Income.SharesDiluted,
		s.CashFlow.OperatingCashFlow, s.CashFlow.InvestingCashFlow,
		s.CashFlow.FinancingCashFlow, s.CashFlow.Depreciation,
		s.CashFlow.Amortization, s.CashFlow.DividendsPaid,
		s.CashFlow.ShareRepurchases, s.CashFlow.CapitalExpenditures,
	} {
		if v != nil {
			n++
		}
	}
	return n
}

// Empty reports whether no field resolved at all.
func (s *StatementSet) Empty() bool { return s.FieldCount() == 0 }
