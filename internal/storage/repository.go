package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"ledger/internal/core"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a row with the requested key does not exist.
var ErrNotFound = errors.New("not found")

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func notFound(err error, what, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
	}
	return fmt.Errorf("get %s %s: %w", what, id, err)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullDuration(n int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(n), Valid: n > 0}
}

func toCoreItem(i RecurringItem) (core.RecurringItem, error) {
	start, err := core.ParseDate(i.StartDate)
	if err != nil {
		return core.RecurringItem{}, fmt.Errorf("recurring item %s: %w", i.ID, err)
	}
	return core.RecurringItem{
		ID:              i.ID,
		Name:            i.Name,
		Amount:          core.Money{Units: i.Amount},
		BillingCycle:    core.BillingCycle(i.BillingCycle),
		RecordType:      core.RecordType(i.RecordType),
		Category:        i.Category,
		StartDate:       start,
		DurationMonths:  int(i.DurationMonths.Int64),
		Status:          core.ItemStatus(i.Status),
		PaymentMethodID: i.PaymentMethodID.String,
		LinkedAccountID: i.LinkedAccountID.String,
	}, nil
}

func toCoreItems(rows []RecurringItem) ([]core.RecurringItem, error) {
	items := make([]core.RecurringItem, 0, len(rows))
	for _, row := range rows {
		it, err := toCoreItem(row)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}

func toCoreRecord(r OneOffRecord) (core.OneOffRecord, error) {
	d, err := core.ParseDate(r.TransactionDate)
	if err != nil {
		return core.OneOffRecord{}, fmt.Errorf("record %s: %w", r.ID, err)
	}
	return core.OneOffRecord{
		ID:              r.ID,
		RecordType:      core.RecordType(r.RecordType),
		Title:           r.Title,
		Amount:          core.Money{Units: r.Amount},
		Category:        r.Category,
		TransactionDate: d,
	}, nil
}

// CreateRecurringItem stores a new item. An empty ID is replaced with a fresh UUID.
func (r *SQLiteRepository) CreateRecurringItem(ctx context.Context, it core.RecurringItem) (core.RecurringItem, error) {
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	row, err := r.queries.CreateRecurringItem(ctx, CreateRecurringItemParams{
		ID:              it.ID,
		Name:            it.Name,
		Amount:          it.Amount.Units,
		BillingCycle:    string(it.BillingCycle),
		RecordType:      string(it.RecordType),
		Category:        it.Category,
		StartDate:       it.StartDate.String(),
		DurationMonths:  nullDuration(it.DurationMonths),
		Status:          string(it.Status),
		PaymentMethodID: nullString(it.PaymentMethodID),
		LinkedAccountID: nullString(it.LinkedAccountID),
	})
	if err != nil {
		return core.RecurringItem{}, fmt.Errorf("create recurring item: %w", err)
	}

	slog.InfoContext(ctx, "Recurring item saved to SQLite",
		"id", row.ID,
		"name", row.Name,
		"amount", row.Amount,
		"billing_cycle", row.BillingCycle,
		"record_type", row.RecordType)

	return toCoreItem(row)
}

func (r *SQLiteRepository) UpdateRecurringItem(ctx context.Context, it core.RecurringItem) error {
	n, err := r.queries.UpdateRecurringItem(ctx, UpdateRecurringItemParams{
		Name:            it.Name,
		Amount:          it.Amount.Units,
		BillingCycle:    string(it.BillingCycle),
		RecordType:      string(it.RecordType),
		Category:        it.Category,
		StartDate:       it.StartDate.String(),
		DurationMonths:  nullDuration(it.DurationMonths),
		Status:          string(it.Status),
		PaymentMethodID: nullString(it.PaymentMethodID),
		LinkedAccountID: nullString(it.LinkedAccountID),
		ID:              it.ID,
	})
	if err != nil {
		return fmt.Errorf("update recurring item %s: %w", it.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("recurring item %s: %w", it.ID, ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) GetRecurringItem(ctx context.Context, id string) (core.RecurringItem, error) {
	row, err := r.queries.GetRecurringItem(ctx, id)
	if err != nil {
		return core.RecurringItem{}, notFound(err, "recurring item", id)
	}
	return toCoreItem(row)
}

// ListRecurringItems returns every item, active or not, in insertion order.
func (r *SQLiteRepository) ListRecurringItems(ctx context.Context) ([]core.RecurringItem, error) {
	rows, err := r.queries.ListRecurringItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("list recurring items: %w", err)
	}
	return toCoreItems(rows)
}

func (r *SQLiteRepository) ListActiveRecurringItems(ctx context.Context) ([]core.RecurringItem, error) {
	rows, err := r.queries.ListActiveRecurringItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active recurring items: %w", err)
	}
	return toCoreItems(rows)
}

func (r *SQLiteRepository) CreateRecord(ctx context.Context, rec core.OneOffRecord) (core.OneOffRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	row, err := r.queries.CreateOneOffRecord(ctx, CreateOneOffRecordParams{
		ID:              rec.ID,
		RecordType:      string(rec.RecordType),
		Title:           rec.Title,
		Amount:          rec.Amount.Units,
		Category:        rec.Category,
		TransactionDate: rec.TransactionDate.String(),
	})
	if err != nil {
		return core.OneOffRecord{}, fmt.Errorf("create record: %w", err)
	}

	slog.InfoContext(ctx, "Record saved to SQLite",
		"id", row.ID,
		"title", row.Title,
		"amount", row.Amount,
		"record_type", row.RecordType,
		"date", row.TransactionDate)

	return toCoreRecord(row)
}

func (r *SQLiteRepository) UpdateRecord(ctx context.Context, rec core.OneOffRecord) error {
	n, err := r.queries.UpdateOneOffRecord(ctx, UpdateOneOffRecordParams{
		RecordType:      string(rec.RecordType),
		Title:           rec.Title,
		Amount:          rec.Amount.Units,
		Category:        rec.Category,
		TransactionDate: rec.TransactionDate.String(),
		ID:              rec.ID,
	})
	if err != nil {
		return fmt.Errorf("update record %s: %w", rec.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("record %s: %w", rec.ID, ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) GetRecord(ctx context.Context, id string) (core.OneOffRecord, error) {
	row, err := r.queries.GetOneOffRecord(ctx, id)
	if err != nil {
		return core.OneOffRecord{}, notFound(err, "record", id)
	}
	return toCoreRecord(row)
}

// DeleteRecord removes a one-off record for good.
func (r *SQLiteRepository) DeleteRecord(ctx context.Context, id string) error {
	n, err := r.queries.DeleteOneOffRecord(ctx, id)
	if err != nil {
		return fmt.Errorf("delete record %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("record %s: %w", id, ErrNotFound)
	}
	slog.InfoContext(ctx, "Record deleted", "id", id)
	return nil
}

// ListRecordsForYear returns the records dated within year, oldest first.
func (r *SQLiteRepository) ListRecordsForYear(ctx context.Context, year int) ([]core.OneOffRecord, error) {
	rows, err := r.queries.ListOneOffRecordsBetween(ctx, ListOneOffRecordsBetweenParams{
		FromDate: core.NewDate(year, 1, 1).String(),
		ToDate:   core.NewDate(year, 12, 31).String(),
	})
	if err != nil {
		return nil, fmt.Errorf("list records for %d: %w", year, err)
	}
	records := make([]core.OneOffRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := toCoreRecord(row)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func (r *SQLiteRepository) CreatePaymentMethod(ctx context.Context, p core.PaymentMethod) (core.PaymentMethod, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	row, err := r.queries.CreatePaymentMethod(ctx, CreatePaymentMethodParams{
		ID:          p.ID,
		BankName:    p.BankName,
		Last4Digits: p.Last4Digits,
	})
	if err != nil {
		return core.PaymentMethod{}, fmt.Errorf("create payment method: %w", err)
	}
	return core.PaymentMethod{ID: row.ID, BankName: row.BankName, Last4Digits: row.Last4Digits}, nil
}

func (r *SQLiteRepository) ListPaymentMethods(ctx context.Context) ([]core.PaymentMethod, error) {
	rows, err := r.queries.ListPaymentMethods(ctx)
	if err != nil {
		return nil, fmt.Errorf("list payment methods: %w", err)
	}
	out := make([]core.PaymentMethod, len(rows))
	for i, row := range rows {
		out[i] = core.PaymentMethod{ID: row.ID, BankName: row.BankName, Last4Digits: row.Last4Digits}
	}
	return out, nil
}

func (r *SQLiteRepository) CreateLinkedAccount(ctx context.Context, a core.LinkedAccount) (core.LinkedAccount, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	row, err := r.queries.CreateLinkedAccount(ctx, CreateLinkedAccountParams{
		ID:    a.ID,
		Email: a.Email,
		Label: a.Label,
	})
	if err != nil {
		return core.LinkedAccount{}, fmt.Errorf("create linked account: %w", err)
	}
	return core.LinkedAccount{ID: row.ID, Email: row.Email, Label: row.Label}, nil
}

func (r *SQLiteRepository) ListLinkedAccounts(ctx context.Context) ([]core.LinkedAccount, error) {
	rows, err := r.queries.ListLinkedAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list linked accounts: %w", err)
	}
	out := make([]core.LinkedAccount, len(rows))
	for i, row := range rows {
		out[i] = core.LinkedAccount{ID: row.ID, Email: row.Email, Label: row.Label}
	}
	return out, nil
}

func toCoreTool(t Tool) core.Tool {
	return core.Tool{
		Slug:        t.Slug,
		Name:        t.Name,
		CategoryID:  t.CategoryID,
		KernelCode:  core.KernelCode(t.KernelCode),
		Hidden:      t.Hidden,
		Description: t.Description,
		DefaultTab:  core.Tab(t.DefaultTab),
	}
}

// GetTool looks a tool up by slug, hidden ones included.
func (r *SQLiteRepository) GetTool(ctx context.Context, slug string) (core.Tool, error) {
	row, err := r.queries.GetTool(ctx, slug)
	if err != nil {
		return core.Tool{}, notFound(err, "tool", slug)
	}
	return toCoreTool(row), nil
}

func (r *SQLiteRepository) ListTools(ctx context.Context) ([]core.Tool, error) {
	rows, err := r.queries.ListVisibleTools(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tools: %w", err)
	}
	out := make([]core.Tool, len(rows))
	for i, row := range rows {
		out[i] = toCoreTool(row)
	}
	return out, nil
}
