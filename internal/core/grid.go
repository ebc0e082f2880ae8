package core

// YearGrid is the income/expense overview of one calendar year.
type YearGrid struct {
	Year           int
	IncomeRows     []GridRow
	ExpenseRows    []GridRow
	IncomeColumns  [12]Money
	ExpenseColumns [12]Money
	NetColumns     [12]Money
	TotalIncome    Money
	TotalExpense   Money
	NetBalance     Money
}

// BuildYearGrid aggregates both record types and derives the column totals.
func BuildYearGrid(items []RecurringItem, records []OneOffRecord, year int) YearGrid {
	g := YearGrid{
		Year:        year,
		IncomeRows:  AggregateByRow(items, records, year, ModeIncome),
		ExpenseRows: AggregateByRow(items, records, year, ModeExpense),
	}
	for i := 0; i < 12; i++ {
		g.IncomeColumns[i] = ColumnTotal(g.IncomeRows, i)
		g.ExpenseColumns[i] = ColumnTotal(g.ExpenseRows, i)
		g.NetColumns[i] = NetColumn(g.IncomeRows, g.ExpenseRows, i)
	}
	g.TotalIncome = YearTotal(g.IncomeRows)
	g.TotalExpense = YearTotal(g.ExpenseRows)
	g.NetBalance = g.TotalIncome.Sub(g.TotalExpense)
	return g
}

// Rows returns income rows followed by expense rows.
func (g YearGrid) Rows() []GridRow {
	out := make([]GridRow, 0, len(g.IncomeRows)+len(g.ExpenseRows))
	out = append(out, g.IncomeRows...)
	return append(out, g.ExpenseRows...)
}

// YearView bundles everything the ledger pages render for one year.
type YearView struct {
	Grid                       YearGrid
	IncomeList                 []LedgerEntry
	ExpenseList                []LedgerEntry
	SubscriptionRows           []GridRow
	SubscriptionColumns        [12]Money
	AverageMonthlySubscription Money
}

// BuildYearView computes the full view from the raw inputs.
func BuildYearView(items []RecurringItem, records []OneOffRecord, year int) YearView {
	charges := ExpandYear(items, year)
	v := YearView{
		Grid:                       BuildYearGrid(items, records, year),
		IncomeList:                 MergeAndFilter(records, charges, year, Income),
		ExpenseList:                MergeAndFilter(records, charges, year, Expense),
		SubscriptionRows:           AggregateByRow(items, records, year, ModePureSubscription),
		AverageMonthlySubscription: AverageMonthlySubscriptionCost(items),
	}
	for i := 0; i < 12; i++ {
		v.SubscriptionColumns[i] = ColumnTotal(v.SubscriptionRows, i)
	}
	return v
}
