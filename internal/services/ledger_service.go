package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"ledger/internal/amqp"
	"ledger/internal/core"

	"golang.org/x/sync/errgroup"
)

// Store is the persistence the ledger needs. storage.SQLiteRepository implements it.
type Store interface {
	ListActiveRecurringItems(ctx context.Context) ([]core.RecurringItem, error)
	ListRecurringItems(ctx context.Context) ([]core.RecurringItem, error)
	GetRecurringItem(ctx context.Context, id string) (core.RecurringItem, error)
	CreateRecurringItem(ctx context.Context, it core.RecurringItem) (core.RecurringItem, error)
	UpdateRecurringItem(ctx context.Context, it core.RecurringItem) error

	ListRecordsForYear(ctx context.Context, year int) ([]core.OneOffRecord, error)
	GetRecord(ctx context.Context, id string) (core.OneOffRecord, error)
	CreateRecord(ctx context.Context, rec core.OneOffRecord) (core.OneOffRecord, error)
	UpdateRecord(ctx context.Context, rec core.OneOffRecord) error
	DeleteRecord(ctx context.Context, id string) error

	CreatePaymentMethod(ctx context.Context, p core.PaymentMethod) (core.PaymentMethod, error)
	ListPaymentMethods(ctx context.Context) ([]core.PaymentMethod, error)
	CreateLinkedAccount(ctx context.Context, a core.LinkedAccount) (core.LinkedAccount, error)
	ListLinkedAccounts(ctx context.Context) ([]core.LinkedAccount, error)
}

// EventPublisher announces ledger changes. amqp.Client implements it.
type EventPublisher interface {
	PublishLedgerChanged(ctx context.Context, msg *amqp.LedgerChangedMessage) error
}

// ViewCache stores computed year views. cache.YearViews implements it.
// SetIfCurrent must refuse views whose generation predates an Invalidate.
type ViewCache interface {
	Get(year int) (core.YearView, bool)
	Generation() uint64
	SetIfCurrent(year int, v core.YearView, generation uint64) bool
	Invalidate()
}

// ValidationError marks input the caller must fix.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Err: err}
}

// LedgerService owns every ledger mutation and computes year views.
type LedgerService struct {
	store     Store
	publisher EventPublisher
	views     ViewCache
	now       func() time.Time
}

// NewLedgerService wires the service. publisher and views may be nil.
func NewLedgerService(store Store, publisher EventPublisher, views ViewCache) *LedgerService {
	return &LedgerService{
		store:     store,
		publisher: publisher,
		views:     views,
		now:       time.Now,
	}
}

// LoadYear returns the full view for year, loading items and records concurrently.
func (s *LedgerService) LoadYear(ctx context.Context, year int) (core.YearView, error) {
	var generation uint64
	if s.views != nil {
		if v, ok := s.views.Get(year); ok {
			return v, nil
		}
		generation = s.views.Generation()
	}

	var (
		items   []core.RecurringItem
		records []core.OneOffRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = s.store.ListActiveRecurringItems(gctx)
		if err != nil {
			return fmt.Errorf("load recurring items: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		records, err = s.store.ListRecordsForYear(gctx, year)
		if err != nil {
			return fmt.Errorf("load records: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return core.YearView{}, err
	}

	v := core.BuildYearView(items, records, year)
	if s.views != nil && !s.views.SetIfCurrent(year, v, generation) {
		slog.DebugContext(ctx, "Ledger changed while loading, view not cached", "year", year)
	}
	slog.DebugContext(ctx, "Year view computed",
		"year", year,
		"items", len(items),
		"records", len(records))
	return v, nil
}

// ListRecurringItems returns every item, including soft-deleted ones.
func (s *LedgerService) ListRecurringItems(ctx context.Context) ([]core.RecurringItem, error) {
	items, err := s.store.ListRecurringItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("list recurring items: %w", err)
	}
	return items, nil
}

func (s *LedgerService) CreateRecurringItem(ctx context.Context, it core.RecurringItem) (core.RecurringItem, error) {
	it.ID = ""
	if it.Status == "" {
		it.Status = core.Active
	}
	it.Name = strings.TrimSpace(it.Name)
	if err := it.Validate(); err != nil {
		return core.RecurringItem{}, invalid(err)
	}
	created, err := s.store.CreateRecurringItem(ctx, it)
	if err != nil {
		return core.RecurringItem{}, fmt.Errorf("save recurring item: %w", err)
	}
	s.changed(ctx, amqp.KindRecurringItem, amqp.OpCreate, created.ID, s.ChangeYear(created))
	return created, nil
}

// UpdateRecurringItem replaces an item's fields and returns what was stored.
// Status is never taken from it: only DeleteRecurringItem deactivates. A zero
// start date keeps the stored one.
func (s *LedgerService) UpdateRecurringItem(ctx context.Context, it core.RecurringItem) (core.RecurringItem, error) {
	current, err := s.store.GetRecurringItem(ctx, it.ID)
	if err != nil {
		return core.RecurringItem{}, fmt.Errorf("load recurring item: %w", err)
	}
	it.Status = current.Status
	if it.StartDate.IsZero() {
		it.StartDate = current.StartDate
	}
	it.Name = strings.TrimSpace(it.Name)
	if err := it.Validate(); err != nil {
		return core.RecurringItem{}, invalid(err)
	}
	if err := s.store.UpdateRecurringItem(ctx, it); err != nil {
		return core.RecurringItem{}, fmt.Errorf("update recurring item: %w", err)
	}
	s.changed(ctx, amqp.KindRecurringItem, amqp.OpUpdate, it.ID, s.ChangeYear(it))
	return it, nil
}

// DeleteRecurringItem soft deletes an item and returns it. Deleting twice is
// not an error.
func (s *LedgerService) DeleteRecurringItem(ctx context.Context, id string) (core.RecurringItem, error) {
	it, err := s.store.GetRecurringItem(ctx, id)
	if err != nil {
		return core.RecurringItem{}, fmt.Errorf("load recurring item: %w", err)
	}
	deactivated, err := core.Deactivate(it)
	if errors.Is(err, core.ErrAlreadyInactive) {
		slog.InfoContext(ctx, "Recurring item already inactive", "id", id)
		return it, nil
	}
	if err := s.store.UpdateRecurringItem(ctx, deactivated); err != nil {
		return core.RecurringItem{}, fmt.Errorf("deactivate recurring item: %w", err)
	}
	slog.InfoContext(ctx, "Recurring item deactivated", "id", id, "name", it.Name)
	s.changed(ctx, amqp.KindRecurringItem, amqp.OpDelete, id, s.ChangeYear(it))
	return deactivated, nil
}

// InstallmentRequest describes a purchase paid off in equal monthly payments.
type InstallmentRequest struct {
	Title             string
	Total             core.Money
	Installments      int
	AnnualRatePercent float64
	Category          string
	StartDate         core.Date
	PaymentMethodID   string
	LinkedAccountID   string
}

// CommitInstallment turns an installment request into a recurring expense
// that runs for exactly Installments months.
func (s *LedgerService) CommitInstallment(ctx context.Context, req InstallmentRequest) (core.RecurringItem, error) {
	if strings.TrimSpace(req.Title) == "" {
		return core.RecurringItem{}, invalid(core.ErrEmptyTitle)
	}
	if err := core.ValidateInstallmentInput(req.Total, req.Installments, req.AnnualRatePercent); err != nil {
		return core.RecurringItem{}, invalid(err)
	}
	category := req.Category
	if category == "" {
		category = core.CategoryInstallment
	}
	start := req.StartDate
	if start.IsZero() {
		start = s.today()
	}

	payment := core.ComputeInstallmentPayment(req.Total, req.Installments, req.AnnualRatePercent)
	slog.InfoContext(ctx, "Committing installment plan",
		"title", req.Title,
		"total", req.Total.Units,
		"installments", req.Installments,
		"rate", req.AnnualRatePercent,
		"payment", payment.Units)

	return s.CreateRecurringItem(ctx, core.RecurringItem{
		Name:            core.InstallmentName(req.Title, req.Installments),
		Amount:          payment,
		BillingCycle:    core.Monthly,
		RecordType:      core.Expense,
		Category:        category,
		StartDate:       start,
		DurationMonths:  req.Installments,
		Status:          core.Active,
		PaymentMethodID: req.PaymentMethodID,
		LinkedAccountID: req.LinkedAccountID,
	})
}

// CommitRecurringIncome stores an open-ended monthly income such as a salary.
func (s *LedgerService) CommitRecurringIncome(ctx context.Context, title string, amount core.Money, category string, start core.Date) (core.RecurringItem, error) {
	if category == "" {
		category = core.CategoryFixedIncome
	}
	if start.IsZero() {
		start = s.today()
	}
	return s.CreateRecurringItem(ctx, core.RecurringItem{
		Name:         title,
		Amount:       amount,
		BillingCycle: core.Monthly,
		RecordType:   core.Income,
		Category:     category,
		StartDate:    start,
		Status:       core.Active,
	})
}

// SaveRecord creates the record when it has no ID and updates it otherwise.
// On update a zero transaction date keeps the stored one.
func (s *LedgerService) SaveRecord(ctx context.Context, rec core.OneOffRecord) (core.OneOffRecord, error) {
	rec.Title = strings.TrimSpace(rec.Title)

	if rec.ID == "" {
		if err := rec.Validate(); err != nil {
			return core.OneOffRecord{}, invalid(err)
		}
		created, err := s.store.CreateRecord(ctx, rec)
		if err != nil {
			return core.OneOffRecord{}, fmt.Errorf("save record: %w", err)
		}
		s.changed(ctx, amqp.KindRecord, amqp.OpCreate, created.ID, created.TransactionDate.Year())
		return created, nil
	}

	previous, err := s.store.GetRecord(ctx, rec.ID)
	if err != nil {
		return core.OneOffRecord{}, fmt.Errorf("load record: %w", err)
	}
	if rec.TransactionDate.IsZero() {
		rec.TransactionDate = previous.TransactionDate
	}
	if err := rec.Validate(); err != nil {
		return core.OneOffRecord{}, invalid(err)
	}
	if err := s.store.UpdateRecord(ctx, rec); err != nil {
		return core.OneOffRecord{}, fmt.Errorf("update record: %w", err)
	}
	s.changed(ctx, amqp.KindRecord, amqp.OpUpdate, rec.ID, rec.TransactionDate.Year())
	if py := previous.TransactionDate.Year(); py != rec.TransactionDate.Year() {
		s.changed(ctx, amqp.KindRecord, amqp.OpUpdate, rec.ID, py)
	}
	return rec, nil
}

// DeleteRecord removes a one-off record permanently and returns it.
func (s *LedgerService) DeleteRecord(ctx context.Context, id string) (core.OneOffRecord, error) {
	rec, err := s.store.GetRecord(ctx, id)
	if err != nil {
		return core.OneOffRecord{}, fmt.Errorf("load record: %w", err)
	}
	if err := s.store.DeleteRecord(ctx, id); err != nil {
		return core.OneOffRecord{}, fmt.Errorf("delete record: %w", err)
	}
	s.changed(ctx, amqp.KindRecord, amqp.OpDelete, id, rec.TransactionDate.Year())
	return rec, nil
}

// DeleteEntry deletes what a ledger line stands for: the record itself, or
// for a projected charge its source item. It returns the year whose views
// changed.
func (s *LedgerService) DeleteEntry(ctx context.Context, e core.LedgerEntry) (int, error) {
	switch v := e.(type) {
	case core.PersistedRecord:
		rec, err := s.DeleteRecord(ctx, v.ID)
		if err != nil {
			return 0, err
		}
		return rec.TransactionDate.Year(), nil
	case core.ProjectedCharge:
		it, err := s.DeleteRecurringItem(ctx, v.SourceItemID)
		if err != nil {
			return 0, err
		}
		return s.ChangeYear(it), nil
	default:
		return 0, fmt.Errorf("unsupported ledger entry %T", e)
	}
}

func (s *LedgerService) CreatePaymentMethod(ctx context.Context, p core.PaymentMethod) (core.PaymentMethod, error) {
	p.ID = ""
	p.BankName = strings.TrimSpace(p.BankName)
	p.Last4Digits = strings.TrimSpace(p.Last4Digits)
	if err := p.Validate(); err != nil {
		return core.PaymentMethod{}, invalid(err)
	}
	created, err := s.store.CreatePaymentMethod(ctx, p)
	if err != nil {
		return core.PaymentMethod{}, fmt.Errorf("save payment method: %w", err)
	}
	s.changed(ctx, amqp.KindPaymentMethod, amqp.OpCreate, created.ID, s.now().Year())
	return created, nil
}

func (s *LedgerService) ListPaymentMethods(ctx context.Context) ([]core.PaymentMethod, error) {
	return s.store.ListPaymentMethods(ctx)
}

func (s *LedgerService) CreateLinkedAccount(ctx context.Context, a core.LinkedAccount) (core.LinkedAccount, error) {
	a.ID = ""
	a.Email = strings.TrimSpace(a.Email)
	a.Label = strings.TrimSpace(a.Label)
	if err := a.Validate(); err != nil {
		return core.LinkedAccount{}, invalid(err)
	}
	created, err := s.store.CreateLinkedAccount(ctx, a)
	if err != nil {
		return core.LinkedAccount{}, fmt.Errorf("save linked account: %w", err)
	}
	s.changed(ctx, amqp.KindLinkedAccount, amqp.OpCreate, created.ID, s.now().Year())
	return created, nil
}

func (s *LedgerService) ListLinkedAccounts(ctx context.Context) ([]core.LinkedAccount, error) {
	return s.store.ListLinkedAccounts(ctx)
}

// DefaultIncomeDate suggests the transaction date for a new income of the given type.
func (s *LedgerService) DefaultIncomeDate(incomeTypeID string) core.Date {
	return core.DefaultIncomeDate(incomeTypeID, s.now())
}

// ChangeYear is the year a change to it is announced for: its start year when
// that lies ahead, the current year otherwise.
func (s *LedgerService) ChangeYear(it core.RecurringItem) int {
	if y := it.StartDate.Year(); y > s.now().Year() {
		return y
	}
	return s.now().Year()
}

func (s *LedgerService) today() core.Date {
	n := s.now()
	return core.NewDate(n.Year(), int(n.Month()), n.Day())
}

// changed drops cached views and announces the change. Publish errors are
// logged only; the mutation is already stored.
func (s *LedgerService) changed(ctx context.Context, kind, op, id string, year int) {
	if s.views != nil {
		s.views.Invalidate()
	}
	if s.publisher == nil {
		slog.DebugContext(ctx, "Event publisher not configured, skipping change message", "kind", kind, "id", id)
		return
	}
	msg := amqp.NewLedgerChangedMessage(kind, op, id, year)
	if err := s.publisher.PublishLedgerChanged(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger changed message",
			"kind", kind,
			"op", op,
			"id", id,
			"year", year,
			"error", err)
	}
}
