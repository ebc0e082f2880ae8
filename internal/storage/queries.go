package storage

import (
	"context"
	"database/sql"
)

const recurringItemColumns = `id, name, amount, billing_cycle, record_type, category, start_date, duration_months, status, payment_method_id, linked_account_id, created_at, updated_at`

func scanRecurringItem(row interface{ Scan(...interface{}) error }) (RecurringItem, error) {
	var i RecurringItem
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Amount,
		&i.BillingCycle,
		&i.RecordType,
		&i.Category,
		&i.StartDate,
		&i.DurationMonths,
		&i.Status,
		&i.PaymentMethodID,
		&i.LinkedAccountID,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createRecurringItem = `-- name: CreateRecurringItem :one
INSERT INTO recurring_items (id, name, amount, billing_cycle, record_type, category, start_date, duration_months, status, payment_method_id, linked_account_id)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + recurringItemColumns

type CreateRecurringItemParams struct {
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
}

func (q *Queries) CreateRecurringItem(ctx context.Context, arg CreateRecurringItemParams) (RecurringItem, error) {
	row := q.db.QueryRowContext(ctx, createRecurringItem,
		arg.ID,
		arg.Name,
		arg.Amount,
		arg.BillingCycle,
		arg.RecordType,
		arg.Category,
		arg.StartDate,
		arg.DurationMonths,
		arg.Status,
		arg.PaymentMethodID,
		arg.LinkedAccountID,
	)
	return scanRecurringItem(row)
}

const updateRecurringItem = `-- name: UpdateRecurringItem :execrows
UPDATE recurring_items
SET name = ?, amount = ?, billing_cycle = ?, record_type = ?, category = ?, start_date = ?,
    duration_months = ?, status = ?, payment_method_id = ?, linked_account_id = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?`

type UpdateRecurringItemParams struct {
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
	ID              string
}

func (q *Queries) UpdateRecurringItem(ctx context.Context, arg UpdateRecurringItemParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateRecurringItem,
		arg.Name,
		arg.Amount,
		arg.BillingCycle,
		arg.RecordType,
		arg.Category,
		arg.StartDate,
		arg.DurationMonths,
		arg.Status,
		arg.PaymentMethodID,
		arg.LinkedAccountID,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const getRecurringItem = `-- name: GetRecurringItem :one
SELECT ` + recurringItemColumns + ` FROM recurring_items WHERE id = ?`

func (q *Queries) GetRecurringItem(ctx context.Context, id string) (RecurringItem, error) {
	return scanRecurringItem(q.db.QueryRowContext(ctx, getRecurringItem, id))
}

const listRecurringItems = `-- name: ListRecurringItems :many
SELECT ` + recurringItemColumns + ` FROM recurring_items ORDER BY rowid`

func (q *Queries) ListRecurringItems(ctx context.Context) ([]RecurringItem, error) {
	return q.queryRecurringItems(ctx, listRecurringItems)
}

const listActiveRecurringItems = `-- name: ListActiveRecurringItems :many
SELECT ` + recurringItemColumns + ` FROM recurring_items WHERE status = 'active' ORDER BY rowid`

func (q *Queries) ListActiveRecurringItems(ctx context.Context) ([]RecurringItem, error) {
	return q.queryRecurringItems(ctx, listActiveRecurringItems)
}

func (q *Queries) queryRecurringItems(ctx context.Context, query string, args ...interface{}) ([]RecurringItem, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []RecurringItem
	for rows.Next() {
		i, err := scanRecurringItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const recordColumns = `id, record_type, title, amount, category, transaction_date, created_at, updated_at`

func scanOneOffRecord(row interface{ Scan(...interface{}) error }) (OneOffRecord, error) {
	var i OneOffRecord
	err := row.Scan(
		&i.ID,
		&i.RecordType,
		&i.Title,
		&i.Amount,
		&i.Category,
		&i.TransactionDate,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createOneOffRecord = `-- name: CreateOneOffRecord :one
INSERT INTO one_off_records (id, record_type, title, amount, category, transaction_date)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING ` + recordColumns

type CreateOneOffRecordParams struct {
	ID              string
	RecordType      string
	Title           string
	Amount          int64
	Category        string
	TransactionDate string
}

func (q *Queries) CreateOneOffRecord(ctx context.Context, arg CreateOneOffRecordParams) (OneOffRecord, error) {
	row := q.db.QueryRowContext(ctx, createOneOffRecord,
		arg.ID,
		arg.RecordType,
		arg.Title,
		arg.Amount,
		arg.Category,
		arg.TransactionDate,
	)
	return scanOneOffRecord(row)
}

const updateOneOffRecord = `-- name: UpdateOneOffRecord :execrows
UPDATE one_off_records
SET record_type = ?, title = ?, amount = ?, category = ?, transaction_date = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?`

type UpdateOneOffRecordParams struct {
	RecordType      string
	Title           string
	Amount          int64
	Category        string
	TransactionDate string
	ID              string
}

func (q *Queries) UpdateOneOffRecord(ctx context.Context, arg UpdateOneOffRecordParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateOneOffRecord,
		arg.RecordType,
		arg.Title,
		arg.Amount,
		arg.Category,
		arg.TransactionDate,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const getOneOffRecord = `-- name: GetOneOffRecord :one
SELECT ` + recordColumns + ` FROM one_off_records WHERE id = ?`

func (q *Queries) GetOneOffRecord(ctx context.Context, id string) (OneOffRecord, error) {
	return scanOneOffRecord(q.db.QueryRowContext(ctx, getOneOffRecord, id))
}

const deleteOneOffRecord = `-- name: DeleteOneOffRecord :execrows
DELETE FROM one_off_records WHERE id = ?`

func (q *Queries) DeleteOneOffRecord(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteOneOffRecord, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listOneOffRecordsBetween = `-- name: ListOneOffRecordsBetween :many
SELECT ` + recordColumns + ` FROM one_off_records
WHERE transaction_date >= ? AND transaction_date <= ?
ORDER BY transaction_date, rowid`

type ListOneOffRecordsBetweenParams struct {
	FromDate string
	ToDate   string
}

func (q *Queries) ListOneOffRecordsBetween(ctx context.Context, arg ListOneOffRecordsBetweenParams) ([]OneOffRecord, error) {
	rows, err := q.db.QueryContext(ctx, listOneOffRecordsBetween, arg.FromDate, arg.ToDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []OneOffRecord
	for rows.Next() {
		i, err := scanOneOffRecord(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createPaymentMethod = `-- name: CreatePaymentMethod :one
INSERT INTO payment_methods (id, bank_name, last_4_digits)
VALUES (?, ?, ?)
RETURNING id, bank_name, last_4_digits, created_at`

type CreatePaymentMethodParams struct {
	ID          string
	BankName    string
	Last4Digits string
}

func (q *Queries) CreatePaymentMethod(ctx context.Context, arg CreatePaymentMethodParams) (PaymentMethod, error) {
	row := q.db.QueryRowContext(ctx, createPaymentMethod, arg.ID, arg.BankName, arg.Last4Digits)
	var i PaymentMethod
	err := row.Scan(&i.ID, &i.BankName, &i.Last4Digits, &i.CreatedAt)
	return i, err
}

const listPaymentMethods = `-- name: ListPaymentMethods :many
SELECT id, bank_name, last_4_digits, created_at FROM payment_methods ORDER BY rowid`

func (q *Queries) ListPaymentMethods(ctx context.Context) ([]PaymentMethod, error) {
	rows, err := q.db.QueryContext(ctx, listPaymentMethods)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PaymentMethod
	for rows.Next() {
		var i PaymentMethod
		if err := rows.Scan(&i.ID, &i.BankName, &i.Last4Digits, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createLinkedAccount = `-- name: CreateLinkedAccount :one
INSERT INTO linked_accounts (id, email, label)
VALUES (?, ?, ?)
RETURNING id, email, label, created_at`

type CreateLinkedAccountParams struct {
	ID    string
	Email string
	Label string
}

func (q *Queries) CreateLinkedAccount(ctx context.Context, arg CreateLinkedAccountParams) (LinkedAccount, error) {
	row := q.db.QueryRowContext(ctx, createLinkedAccount, arg.ID, arg.Email, arg.Label)
	var i LinkedAccount
	err := row.Scan(&i.ID, &i.Email, &i.Label, &i.CreatedAt)
	return i, err
}

const listLinkedAccounts = `-- name: ListLinkedAccounts :many
SELECT id, email, label, created_at FROM linked_accounts ORDER BY rowid`

func (q *Queries) ListLinkedAccounts(ctx context.Context) ([]LinkedAccount, error) {
	rows, err := q.db.QueryContext(ctx, listLinkedAccounts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []LinkedAccount
	for rows.Next() {
		var i LinkedAccount
		if err := rows.Scan(&i.ID, &i.Email, &i.Label, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const toolColumns = `slug, name, category_id, kernel_code, hidden, description, default_tab`

func scanTool(row interface{ Scan(...interface{}) error }) (Tool, error) {
	var i Tool
	err := row.Scan(
		&i.Slug,
		&i.Name,
		&i.CategoryID,
		&i.KernelCode,
		&i.Hidden,
		&i.Description,
		&i.DefaultTab,
	)
	return i, err
}

const getTool = `-- name: GetTool :one
SELECT ` + toolColumns + ` FROM tools WHERE slug = ?`

func (q *Queries) GetTool(ctx context.Context, slug string) (Tool, error) {
	return scanTool(q.db.QueryRowContext(ctx, getTool, slug))
}

const listVisibleTools = `-- name: ListVisibleTools :many
SELECT ` + toolColumns + ` FROM tools WHERE hidden = 0 ORDER BY category_id, slug`

func (q *Queries) ListVisibleTools(ctx context.Context) ([]Tool, error) {
	rows, err := q.db.QueryContext(ctx, listVisibleTools)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Tool
	for rows.Next() {
		i, err := scanTool(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
