package core

import (
	"fmt"
	"slices"
	"strings"
)

// AggregateMode selects which rows AggregateByRow produces.
type AggregateMode string

const (
	ModeIncome           AggregateMode = "income"
	ModeExpense          AggregateMode = "expense"
	ModePureSubscription AggregateMode = "subscription"
)

// ParseAggregateMode maps a query value to a mode.
func ParseAggregateMode(s string) (AggregateMode, error) {
	switch m := AggregateMode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeIncome, ModeExpense, ModePureSubscription:
		return m, nil
	default:
		return "", fmt.Errorf("unknown aggregate mode %q", s)
	}
}

// GridRow is one line of the 12-column year grid.
type GridRow struct {
	Label          string
	IsDerived      bool
	SourceID       string
	MonthlyAmounts [12]Money
}

// Total sums the row across the year.
func (r GridRow) Total() Money {
	var sum Money
	for _, m := range r.MonthlyAmounts {
		sum = sum.Add(m)
	}
	return sum
}

// ChargeForMonth returns what item bills in the given month (1-12).
// The active window is the half-open range [start month, start month + duration).
func ChargeForMonth(it RecurringItem, year, month int) Money {
	anchor := it.StartDate.monthStart()
	target := NewDate(year, month, 1)

	if target.Before(anchor.Time) {
		return Money{}
	}
	if it.HasDuration() {
		end := anchor.AddDate(0, it.DurationMonths, 0)
		if !target.Before(end) {
			return Money{}
		}
	}
	if it.BillingCycle == Yearly {
		if target.Month() == anchor.Month() {
			return it.Amount
		}
		return Money{}
	}
	return it.Amount
}

// ExpandYear projects every active item over the twelve months of year.
func ExpandYear(items []RecurringItem, year int) []ProjectedCharge {
	var out []ProjectedCharge
	for _, it := range items {
		if !it.IsActive() {
			continue
		}
		prefix := PrefixFor(it)
		for m := 1; m <= 12; m++ {
			amt := ChargeForMonth(it, year, m)
			if amt.Units <= 0 {
				continue
			}
			out = append(out, ProjectedCharge{
				SourceItemID: it.ID,
				Name:         it.Name,
				Category:     it.Category,
				RecordType:   it.RecordType,
				Amount:       amt,
				Date:         ClampedDate(year, m, it.StartDate.Day()),
				Prefix:       prefix,
			})
		}
	}
	return out
}

// MergeAndFilter builds the chronological ledger for one record type:
// records of the year first, then projections, stably sorted newest first.
func MergeAndFilter(records []OneOffRecord, charges []ProjectedCharge, year int, rt RecordType) []LedgerEntry {
	var out []LedgerEntry
	for _, r := range records {
		if r.RecordType == rt && r.TransactionDate.Year() == year {
			out = append(out, PersistedRecord{OneOffRecord: r})
		}
	}
	for _, c := range charges {
		if c.RecordType == rt {
			out = append(out, c)
		}
	}
	slices.SortStableFunc(out, func(a, b LedgerEntry) int {
		return b.EntryDate().Compare(a.EntryDate().Time)
	})
	return out
}

// IsPureSubscription reports whether an item belongs in the subscription-only view.
func IsPureSubscription(it RecurringItem) bool {
	return it.RecordType == Expense &&
		!it.HasDuration() &&
		!IsBillCategory(it.Category) &&
		it.Category != CategoryInstallment &&
		!IsInstallmentName(it.Name)
}

// PureSubscriptions filters active items down to plain subscriptions.
func PureSubscriptions(items []RecurringItem) []RecurringItem {
	var out []RecurringItem
	for _, it := range items {
		if it.IsActive() && IsPureSubscription(it) {
			out = append(out, it)
		}
	}
	return out
}

// AggregateByRow groups items and records into grid rows for year.
// Recurring rows come first in item order, then one-off rows grouped by
// exact title in first-occurrence order.
func AggregateByRow(items []RecurringItem, records []OneOffRecord, year int, mode AggregateMode) []GridRow {
	var rows []GridRow

	if mode == ModePureSubscription {
		for _, it := range PureSubscriptions(items) {
			row := GridRow{Label: it.Name, SourceID: it.ID}
			for i := range row.MonthlyAmounts {
				row.MonthlyAmounts[i] = ChargeForMonth(it, year, i+1)
			}
			rows = append(rows, row)
		}
		return rows
	}

	rt := Income
	if mode == ModeExpense {
		rt = Expense
	}

	for _, it := range items {
		if !it.IsActive() || it.RecordType != rt {
			continue
		}
		row := GridRow{
			Label:     prefixedLabel(PrefixFor(it), it.Name),
			IsDerived: true,
			SourceID:  it.ID,
		}
		hasCharge := false
		for i := range row.MonthlyAmounts {
			row.MonthlyAmounts[i] = ChargeForMonth(it, year, i+1)
			if row.MonthlyAmounts[i].Units > 0 {
				hasCharge = true
			}
		}
		if hasCharge {
			rows = append(rows, row)
		}
	}

	byTitle := make(map[string]int)
	for _, r := range records {
		if r.RecordType != rt || r.TransactionDate.Year() != year {
			continue
		}
		idx, ok := byTitle[r.Title]
		if !ok {
			rows = append(rows, GridRow{Label: r.Title, SourceID: r.ID})
			idx = len(rows) - 1
			byTitle[r.Title] = idx
		}
		m := r.TransactionDate.Month() - 1
		rows[idx].MonthlyAmounts[m] = rows[idx].MonthlyAmounts[m].Add(r.Amount)
	}
	return rows
}

// ColumnTotal sums one month column. Indexes outside 0-11 total to zero.
func ColumnTotal(rows []GridRow, monthIndex int) Money {
	var sum Money
	if monthIndex < 0 || monthIndex > 11 {
		return sum
	}
	for _, r := range rows {
		sum = sum.Add(r.MonthlyAmounts[monthIndex])
	}
	return sum
}

// NetColumn is income minus expense for one month column.
func NetColumn(incomeRows, expenseRows []GridRow, monthIndex int) Money {
	return ColumnTotal(incomeRows, monthIndex).Sub(ColumnTotal(expenseRows, monthIndex))
}

// YearTotal sums every row over the whole year.
func YearTotal(rows []GridRow) Money {
	var sum Money
	for _, r := range rows {
		sum = sum.Add(r.Total())
	}
	return sum
}

// AverageMonthlySubscriptionCost is the monthly cost of plain subscriptions,
// with yearly ones spread over twelve months and rounded half up.
func AverageMonthlySubscriptionCost(items []RecurringItem) Money {
	var sum Money
	for _, it := range PureSubscriptions(items) {
		if it.BillingCycle == Yearly {
			sum = sum.Add(Money{Units: (it.Amount.Units + 6) / 12})
			continue
		}
		sum = sum.Add(it.Amount)
	}
	return sum
}
