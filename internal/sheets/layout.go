package sheets

import (
	"fmt"
	"strconv"
	"strings"

	"ledger/internal/core"
)

// MonthHeaders are the twelve month column titles.
var MonthHeaders = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// Summary row labels.
const (
	LabelTotalIncome  = "Total income"
	LabelTotalExpense = "Total expense"
	LabelNet          = "Net"
)

// Header is the first row of a grid table: label, type, months, total.
func Header() []any {
	row := make([]any, 0, 15)
	row = append(row, "Label", "Type")
	for _, m := range MonthHeaders {
		row = append(row, m)
	}
	return append(row, "Total")
}

// GridTable lays out a year grid as a rectangular table. Income rows come
// first followed by their total, then expense rows, their total and the net row.
// Every row has the same width as Header.
func GridTable(g core.YearGrid) [][]any {
	out := [][]any{Header()}
	for _, r := range g.IncomeRows {
		out = append(out, tableRow(r.Label, string(core.Income), r.MonthlyAmounts, r.Total()))
	}
	out = append(out, tableRow(LabelTotalIncome, "", g.IncomeColumns, g.TotalIncome))
	for _, r := range g.ExpenseRows {
		out = append(out, tableRow(r.Label, string(core.Expense), r.MonthlyAmounts, r.Total()))
	}
	out = append(out, tableRow(LabelTotalExpense, "", g.ExpenseColumns, g.TotalExpense))
	out = append(out, tableRow(LabelNet, "", g.NetColumns, g.NetBalance))
	return out
}

func tableRow(label, kind string, months [12]core.Money, total core.Money) []any {
	row := make([]any, 0, 15)
	row = append(row, label, kind)
	for _, m := range months {
		row = append(row, m.Units)
	}
	return append(row, total.Units)
}

// TabName returns "<year> <base>" unless base already starts with a 4-digit year.
func TabName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return strconv.Itoa(year)
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
