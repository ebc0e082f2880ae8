package core

import "fmt"

// LabelPrefix tags a projected charge with the nature of its source item.
type LabelPrefix string

const (
	PrefixInstallment     LabelPrefix = "installment"
	PrefixBill            LabelPrefix = "bill"
	PrefixRecurringIncome LabelPrefix = "recurring income"
	PrefixSubscription    LabelPrefix = "subscription"
)

// LedgerEntry is either a PersistedRecord or a ProjectedCharge.
// The unexported marker keeps the set of variants closed.
type LedgerEntry interface {
	EntryDate() Date
	EntryAmount() Money
	EntryType() RecordType
	EntryLabel() string
	ledgerEntry()
}

// PersistedRecord is a stored one-off record shown in a ledger.
// It can be edited and deleted directly.
type PersistedRecord struct {
	OneOffRecord
}

// ProjectedCharge is one month's occurrence of a recurring item.
// It is derived on every read and can only be changed through its source item.
type ProjectedCharge struct {
	SourceItemID string
	Name         string
	Category     string
	RecordType   RecordType
	Amount       Money
	Date         Date
	Prefix       LabelPrefix
}

func (p PersistedRecord) EntryDate() Date       { return p.TransactionDate }
func (p PersistedRecord) EntryAmount() Money    { return p.Amount }
func (p PersistedRecord) EntryType() RecordType { return p.RecordType }
func (p PersistedRecord) EntryLabel() string    { return p.Title }
func (PersistedRecord) ledgerEntry()            {}

func (c ProjectedCharge) EntryDate() Date       { return c.Date }
func (c ProjectedCharge) EntryAmount() Money    { return c.Amount }
func (c ProjectedCharge) EntryType() RecordType { return c.RecordType }
func (c ProjectedCharge) EntryLabel() string    { return c.Label() }
func (ProjectedCharge) ledgerEntry()            {}

// Label is the display title, e.g. "[subscription] Netflix".
func (c ProjectedCharge) Label() string {
	return prefixedLabel(c.Prefix, c.Name)
}

func prefixedLabel(p LabelPrefix, name string) string {
	return fmt.Sprintf("[%s] %s", p, name)
}

// PrefixFor classifies an item. The first matching rule wins.
func PrefixFor(it RecurringItem) LabelPrefix {
	switch {
	case it.HasDuration() && it.RecordType == Expense:
		return PrefixInstallment
	case IsBillCategory(it.Category) && it.RecordType == Expense:
		return PrefixBill
	case it.RecordType == Income:
		return PrefixRecurringIncome
	default:
		return PrefixSubscription
	}
}
