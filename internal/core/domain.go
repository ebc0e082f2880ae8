package core

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	Monthly BillingCycle = "monthly"
	Yearly  BillingCycle = "yearly"

	Income  RecordType = "income"
	Expense RecordType = "expense"

	Active   ItemStatus = "active"
	Inactive ItemStatus = "inactive"
)

// Categories with special meaning for labelling and the subscription view.
const (
	CategoryBills       = "bills"
	CategoryHousing     = "housing"
	CategoryInstallment = "installment"
	CategoryFixedIncome = "fixed income"
)

type (
	BillingCycle string
	RecordType   string
	ItemStatus   string

	Date struct {
		time.Time
	}

	// Money is an amount in whole currency units.
	Money struct {
		Units int64
	}

	// RecurringItem is a subscription, recurring income or installment plan.
	RecurringItem struct {
		ID              string
		Name            string
		Amount          Money
		BillingCycle    BillingCycle
		RecordType      RecordType
		Category        string
		StartDate       Date
		DurationMonths  int // 0 means open-ended
		Status          ItemStatus
		PaymentMethodID string
		LinkedAccountID string
	}

	// OneOffRecord is a manually entered income or expense.
	OneOffRecord struct {
		ID              string
		RecordType      RecordType
		Title           string
		Amount          Money
		Category        string
		TransactionDate Date
	}

	PaymentMethod struct {
		ID          string
		BankName    string
		Last4Digits string
	}

	LinkedAccount struct {
		ID    string
		Email string
		Label string
	}
)

var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidDuration     = errors.New("invalid duration")
	ErrInvalidInstallments = errors.New("invalid number of installments")
	ErrInvalidRate         = errors.New("invalid interest rate")
	ErrInvalidCycle        = errors.New("invalid billing cycle")
	ErrInvalidRecordType   = errors.New("invalid record type")
	ErrEmptyName           = errors.New("empty name")
	ErrEmptyTitle          = errors.New("empty title")
	ErrAlreadyInactive     = errors.New("recurring item already inactive")
)

var last4Pattern = regexp.MustCompile(`^[0-9]{4}$`)

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}

// NewDate creates a new Date from year, month, day.
// Out of range values are normalized by time.Date.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ClampedDate builds a date, clamping day to the last day of the month.
func ClampedDate(year, month, day int) Date {
	if last := DaysInMonth(year, month); day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	return NewDate(year, month, day)
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

// monthStart is the first day of d's month.
func (d Date) monthStart() Date {
	return NewDate(d.Year(), d.Month(), 1)
}

func (m Money) Validate() error {
	if m.Units <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) Add(o Money) Money {
	return Money{Units: m.Units + o.Units}
}

func (m Money) Sub(o Money) Money {
	return Money{Units: m.Units - o.Units}
}

func (m Money) IsZero() bool {
	return m.Units == 0
}

func (c BillingCycle) Valid() bool {
	return c == Monthly || c == Yearly
}

func (t RecordType) Valid() bool {
	return t == Income || t == Expense
}

// IsActive reports whether the item participates in projections.
func (it RecurringItem) IsActive() bool {
	return it.Status == Active
}

// HasDuration reports whether the item ends after a fixed number of months.
func (it RecurringItem) HasDuration() bool {
	return it.DurationMonths > 0
}

// EndDate is the last day the item is billed for, or false when open-ended.
func (it RecurringItem) EndDate() (Date, bool) {
	if !it.HasDuration() {
		return Date{}, false
	}
	end := it.StartDate.AddDate(0, it.DurationMonths, -1)
	return Date{Time: end}, true
}

// IsBillCategory reports whether the category marks a household bill.
func IsBillCategory(category string) bool {
	return category == CategoryBills || category == CategoryHousing
}

// Deactivate moves an item from ACTIVE to INACTIVE. The transition is one-way.
func Deactivate(it RecurringItem) (RecurringItem, error) {
	if it.Status == Inactive {
		return it, ErrAlreadyInactive
	}
	it.Status = Inactive
	return it, nil
}

func (it RecurringItem) Validate() error {
	if strings.TrimSpace(it.Name) == "" {
		return ErrEmptyName
	}
	if len(it.Name) > 200 {
		return errors.New("name too long (max 200 characters)")
	}
	if err := it.Amount.Validate(); err != nil {
		return err
	}
	if !it.BillingCycle.Valid() {
		return ErrInvalidCycle
	}
	if !it.RecordType.Valid() {
		return ErrInvalidRecordType
	}
	if err := it.StartDate.Validate(); err != nil {
		return errors.New("invalid start date: " + err.Error())
	}
	if it.DurationMonths < 0 {
		return ErrInvalidDuration
	}
	switch it.Status {
	case Active, Inactive:
	default:
		return errors.New("invalid status")
	}
	return nil
}

func (r OneOffRecord) Validate() error {
	if !r.RecordType.Valid() {
		return ErrInvalidRecordType
	}
	if strings.TrimSpace(r.Title) == "" {
		return ErrEmptyTitle
	}
	if len(r.Title) > 200 {
		return errors.New("title too long (max 200 characters)")
	}
	if err := r.Amount.Validate(); err != nil {
		return err
	}
	if err := r.TransactionDate.Validate(); err != nil {
		return errors.New("invalid transaction date: " + err.Error())
	}
	return nil
}

func (p PaymentMethod) Validate() error {
	if strings.TrimSpace(p.BankName) == "" {
		return errors.New("empty bank name")
	}
	if !last4Pattern.MatchString(p.Last4Digits) {
		return errors.New("last 4 digits must be exactly 4 digits")
	}
	return nil
}

func (a LinkedAccount) Validate() error {
	email := strings.TrimSpace(a.Email)
	at := strings.Index(email, "@")
	if at < 1 || at == len(email)-1 {
		return errors.New("invalid account email")
	}
	return nil
}
