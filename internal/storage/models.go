package storage

import "database/sql"

type RecurringItem struct {
	ID              string
	Name            string
	Amount          int64
	BillingCycle    string
	RecordType      string
	Category        string
	StartDate       string
	DurationMonths  sql.NullInt64
	Status          string
	PaymentMethodID sql.NullString
	LinkedAccountID sql.NullString
	CreatedAt       string
	UpdatedAt       string
}

type OneOffRecord struct {
	ID              string
	RecordType      string
	Title           string
	Amount          int64
	Category        string
	TransactionDate string
	CreatedAt       string
	UpdatedAt       string
}

type PaymentMethod struct {
	ID          string
	BankName    string
	Last4Digits string
	CreatedAt   string
}

type LinkedAccount struct {
	ID        string
	Email     string
	Label     string
	CreatedAt string
}

type Tool struct {
	Slug        string
	Name        string
	CategoryID  string
	KernelCode  string
	Hidden      bool
	Description string
	DefaultTab  string
}
