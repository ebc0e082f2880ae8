package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"ledger/internal/amqp"
	"ledger/internal/cache"
	"ledger/internal/core"
	"ledger/internal/storage"
)

type memStore struct {
	mu        sync.Mutex
	items     []core.RecurringItem
	records   []core.OneOffRecord
	methods   []core.PaymentMethod
	accounts  []core.LinkedAccount
	nextID    int
	itemLoads int
	failLoad  error
}

func (m *memStore) id(prefix string) string {
	m.nextID++
	return fmt.Sprintf("%s-%d", prefix, m.nextID)
}

func (m *memStore) ListActiveRecurringItems(ctx context.Context) ([]core.RecurringItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.itemLoads++
	if m.failLoad != nil {
		return nil, m.failLoad
	}
	var out []core.RecurringItem
	for _, it := range m.items {
		if it.IsActive() {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *memStore) ListRecurringItems(ctx context.Context) ([]core.RecurringItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]core.RecurringItem(nil), m.items...), nil
}

func (m *memStore) GetRecurringItem(ctx context.Context, id string) (core.RecurringItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range m.items {
		if it.ID == id {
			return it, nil
		}
	}
	return core.RecurringItem{}, storage.ErrNotFound
}

func (m *memStore) CreateRecurringItem(ctx context.Context, it core.RecurringItem) (core.RecurringItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it.ID = m.id("item")
	m.items = append(m.items, it)
	return it, nil
}

func (m *memStore) UpdateRecurringItem(ctx context.Context, it core.RecurringItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].ID == it.ID {
			m.items[i] = it
			return nil
		}
	}
	return storage.ErrNotFound
}

func (m *memStore) ListRecordsForYear(ctx context.Context, year int) ([]core.OneOffRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.OneOffRecord
	for _, r := range m.records {
		if r.TransactionDate.Year() == year {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) GetRecord(ctx context.Context, id string) (core.OneOffRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.ID == id {
			return r, nil
		}
	}
	return core.OneOffRecord{}, storage.ErrNotFound
}

func (m *memStore) CreateRecord(ctx context.Context, rec core.OneOffRecord) (core.OneOffRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec.ID = m.id("rec")
	m.records = append(m.records, rec)
	return rec, nil
}

func (m *memStore) UpdateRecord(ctx context.Context, rec core.OneOffRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.records {
		if m.records[i].ID == rec.ID {
			m.records[i] = rec
			return nil
		}
	}
	return storage.ErrNotFound
}

func (m *memStore) DeleteRecord(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.records {
		if m.records[i].ID == id {
			m.records = append(m.records[:i], m.records[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (m *memStore) CreatePaymentMethod(ctx context.Context, p core.PaymentMethod) (core.PaymentMethod, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.id("pm")
	m.methods = append(m.methods, p)
	return p, nil
}

func (m *memStore) ListPaymentMethods(ctx context.Context) ([]core.PaymentMethod, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]core.PaymentMethod(nil), m.methods...), nil
}

func (m *memStore) CreateLinkedAccount(ctx context.Context, a core.LinkedAccount) (core.LinkedAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = m.id("acct")
	m.accounts = append(m.accounts, a)
	return a, nil
}

func (m *memStore) ListLinkedAccounts(ctx context.Context) ([]core.LinkedAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]core.LinkedAccount(nil), m.accounts...), nil
}

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []*amqp.LedgerChangedMessage
	err  error
}

func (p *recordingPublisher) PublishLedgerChanged(ctx context.Context, msg *amqp.LedgerChangedMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return p.err
}

func newTestService(t *testing.T) (*LedgerService, *memStore, *recordingPublisher) {
	t.Helper()
	store := &memStore{}
	pub := &recordingPublisher{}
	svc := NewLedgerService(store, pub, cache.NewYearViews(8, time.Minute))
	svc.now = func() time.Time { return time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC) }
	return svc, store, pub
}

func TestLoadYearUsesCacheUntilMutation(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)

	if _, err := svc.CreateRecurringItem(ctx, core.RecurringItem{
		Name:         "Netflix",
		Amount:       core.Money{Units: 270},
		BillingCycle: core.Monthly,
		RecordType:   core.Expense,
		Category:     "video",
		StartDate:    core.NewDate(2024, 1, 1),
	}); err != nil {
		t.Fatalf("CreateRecurringItem: %v", err)
	}

	v, err := svc.LoadYear(ctx, 2024)
	if err != nil {
		t.Fatalf("LoadYear: %v", err)
	}
	if v.Grid.TotalExpense.Units != 12*270 {
		t.Fatalf("total expense = %d", v.Grid.TotalExpense.Units)
	}
	if _, err := svc.LoadYear(ctx, 2024); err != nil {
		t.Fatalf("LoadYear: %v", err)
	}
	if store.itemLoads != 1 {
		t.Fatalf("expected cached second load, store hit %d times", store.itemLoads)
	}

	if _, err := svc.SaveRecord(ctx, core.OneOffRecord{
		RecordType:      core.Expense,
		Title:           "Coffee",
		Amount:          core.Money{Units: 300},
		TransactionDate: core.NewDate(2024, 3, 15),
	}); err != nil {
		t.Fatalf("SaveRecord: %v", err)
	}
	v, err = svc.LoadYear(ctx, 2024)
	if err != nil {
		t.Fatalf("LoadYear: %v", err)
	}
	if store.itemLoads != 2 {
		t.Fatalf("expected reload after mutation, store hit %d times", store.itemLoads)
	}
	if got := core.ColumnTotal(v.Grid.ExpenseRows, 2); got.Units != 570 {
		t.Fatalf("march expense = %d, want 570", got.Units)
	}
}

func TestLoadYearPropagatesStoreErrors(t *testing.T) {
	svc, store, _ := newTestService(t)
	store.failLoad = errors.New("disk on fire")

	if _, err := svc.LoadYear(context.Background(), 2024); err == nil {
		t.Fatalf("expected error")
	}
}

func TestCreateRecurringItemValidation(t *testing.T) {
	svc, store, pub := newTestService(t)

	_, err := svc.CreateRecurringItem(context.Background(), core.RecurringItem{
		Name:         "Broken",
		Amount:       core.Money{Units: 0},
		BillingCycle: core.Monthly,
		RecordType:   core.Expense,
		StartDate:    core.NewDate(2024, 1, 1),
	})
	var verr *ValidationError
	if !errors.As(err, &verr) || !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected validation error for amount, got %v", err)
	}
	if len(store.items) != 0 || len(pub.msgs) != 0 {
		t.Fatalf("invalid item must not be stored or announced")
	}
}

func TestCommitInstallment(t *testing.T) {
	ctx := context.Background()
	svc, _, pub := newTestService(t)

	it, err := svc.CommitInstallment(ctx, InstallmentRequest{
		Title:             "Laptop",
		Total:             core.Money{Units: 12000},
		Installments:      12,
		AnnualRatePercent: 12,
	})
	if err != nil {
		t.Fatalf("CommitInstallment: %v", err)
	}
	if it.Name != "Laptop (12 installments)" || it.Amount.Units != 1067 {
		t.Fatalf("unexpected item %+v", it)
	}
	if it.DurationMonths != 12 || it.BillingCycle != core.Monthly || it.RecordType != core.Expense || it.Category != core.CategoryInstallment {
		t.Fatalf("unexpected plan shape %+v", it)
	}
	if it.StartDate.String() != "2024-06-10" {
		t.Fatalf("start date should default to today, got %s", it.StartDate)
	}
	if len(pub.msgs) != 1 || pub.msgs[0].Kind != amqp.KindRecurringItem || pub.msgs[0].Op != amqp.OpCreate {
		t.Fatalf("unexpected messages %+v", pub.msgs)
	}

	v, err := svc.LoadYear(ctx, 2024)
	if err != nil {
		t.Fatalf("LoadYear: %v", err)
	}
	if len(v.SubscriptionRows) != 0 {
		t.Fatalf("installments must not show up as subscriptions")
	}
	if v.Grid.ExpenseRows[0].Label != "[installment] Laptop (12 installments)" {
		t.Fatalf("unexpected label %q", v.Grid.ExpenseRows[0].Label)
	}

	if _, err := svc.CommitInstallment(ctx, InstallmentRequest{Title: "Phone", Total: core.Money{Units: 100}, Installments: 0}); !errors.Is(err, core.ErrInvalidInstallments) {
		t.Fatalf("expected ErrInvalidInstallments, got %v", err)
	}
}

func TestCommitRecurringIncome(t *testing.T) {
	svc, _, _ := newTestService(t)

	it, err := svc.CommitRecurringIncome(context.Background(), "Salary", core.Money{Units: 5000}, "", core.Date{})
	if err != nil {
		t.Fatalf("CommitRecurringIncome: %v", err)
	}
	if it.HasDuration() || it.RecordType != core.Income || it.Category != core.CategoryFixedIncome {
		t.Fatalf("unexpected income item %+v", it)
	}
}

func TestDeleteEntry(t *testing.T) {
	ctx := context.Background()
	svc, store, pub := newTestService(t)

	item, err := svc.CreateRecurringItem(ctx, core.RecurringItem{
		Name:         "Spotify",
		Amount:       core.Money{Units: 149},
		BillingCycle: core.Monthly,
		RecordType:   core.Expense,
		Category:     "music",
		StartDate:    core.NewDate(2024, 1, 1),
	})
	if err != nil {
		t.Fatalf("CreateRecurringItem: %v", err)
	}
	rec, err := svc.SaveRecord(ctx, core.OneOffRecord{
		RecordType:      core.Expense,
		Title:           "Coffee",
		Amount:          core.Money{Units: 120},
		TransactionDate: core.NewDate(2024, 2, 1),
	})
	if err != nil {
		t.Fatalf("SaveRecord: %v", err)
	}

	v, err := svc.LoadYear(ctx, 2024)
	if err != nil {
		t.Fatalf("LoadYear: %v", err)
	}
	var projected core.ProjectedCharge
	var persisted core.PersistedRecord
	for _, e := range v.ExpenseList {
		switch x := e.(type) {
		case core.ProjectedCharge:
			projected = x
		case core.PersistedRecord:
			persisted = x
		}
	}

	if year, err := svc.DeleteEntry(ctx, projected); err != nil || year != 2024 {
		t.Fatalf("DeleteEntry(projected) = %d, %v", year, err)
	}
	got, _ := store.GetRecurringItem(ctx, item.ID)
	if got.Status != core.Inactive {
		t.Fatalf("source item should be inactive, got %s", got.Status)
	}
	if _, err := svc.DeleteEntry(ctx, projected); err != nil {
		t.Fatalf("deleting an inactive source again should succeed, got %v", err)
	}

	if year, err := svc.DeleteEntry(ctx, persisted); err != nil || year != 2024 {
		t.Fatalf("DeleteEntry(persisted) = %d, %v", year, err)
	}
	if _, err := store.GetRecord(ctx, rec.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("record should be gone, got %v", err)
	}

	v, err = svc.LoadYear(ctx, 2024)
	if err != nil {
		t.Fatalf("LoadYear: %v", err)
	}
	if len(v.ExpenseList) != 0 {
		t.Fatalf("expected empty expense list, got %d entries", len(v.ExpenseList))
	}
	// create item, create record, delete item, delete record
	if len(pub.msgs) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(pub.msgs))
	}
}

func TestUpdateKeepsInactiveItemsInactive(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)

	item, err := svc.CreateRecurringItem(ctx, core.RecurringItem{
		Name:         "Gym",
		Amount:       core.Money{Units: 500},
		BillingCycle: core.Monthly,
		RecordType:   core.Expense,
		StartDate:    core.NewDate(2024, 1, 1),
	})
	if err != nil {
		t.Fatalf("CreateRecurringItem: %v", err)
	}
	if _, err := svc.DeleteRecurringItem(ctx, item.ID); err != nil {
		t.Fatalf("DeleteRecurringItem: %v", err)
	}

	item.Status = core.Active
	item.Amount = core.Money{Units: 450}
	if _, err := svc.UpdateRecurringItem(ctx, item); err != nil {
		t.Fatalf("UpdateRecurringItem: %v", err)
	}
	got, _ := store.GetRecurringItem(ctx, item.ID)
	if got.Status != core.Inactive || got.Amount.Units != 450 {
		t.Fatalf("unexpected item after update %+v", got)
	}

	if _, err := svc.UpdateRecurringItem(ctx, core.RecurringItem{ID: "missing"}); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateRecurringItemIgnoresStatusAndKeepsStartDate(t *testing.T) {
	ctx := context.Background()
	svc, store, pub := newTestService(t)

	item, err := svc.CreateRecurringItem(ctx, core.RecurringItem{
		Name:         "Gym",
		Amount:       core.Money{Units: 500},
		BillingCycle: core.Monthly,
		RecordType:   core.Expense,
		StartDate:    core.NewDate(2023, 9, 1),
	})
	if err != nil {
		t.Fatalf("CreateRecurringItem: %v", err)
	}

	updated, err := svc.UpdateRecurringItem(ctx, core.RecurringItem{
		ID:           item.ID,
		Name:         "Gym",
		Amount:       core.Money{Units: 550},
		BillingCycle: core.Monthly,
		RecordType:   core.Expense,
		Status:       core.Inactive,
	})
	if err != nil {
		t.Fatalf("UpdateRecurringItem: %v", err)
	}
	if updated.Status != core.Active || updated.StartDate.String() != "2023-09-01" {
		t.Fatalf("unexpected returned item %+v", updated)
	}
	got, _ := store.GetRecurringItem(ctx, item.ID)
	if got.Status != core.Active || got.StartDate.String() != "2023-09-01" || got.Amount.Units != 550 {
		t.Fatalf("unexpected stored item %+v", got)
	}
	// create and update, nothing announced as a delete
	for _, msg := range pub.msgs {
		if msg.Op == amqp.OpDelete {
			t.Fatalf("update must not deactivate: %+v", msg)
		}
	}

	stopped, err := svc.DeleteRecurringItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("DeleteRecurringItem: %v", err)
	}
	if stopped.Status != core.Inactive {
		t.Fatalf("DeleteRecurringItem returned status %s", stopped.Status)
	}
}

func TestUpdateRecordKeepsStoredDate(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)

	rec, err := svc.SaveRecord(ctx, core.OneOffRecord{
		RecordType:      core.Expense,
		Title:           "Dinner",
		Amount:          core.Money{Units: 80},
		TransactionDate: core.NewDate(2023, 11, 4),
	})
	if err != nil {
		t.Fatalf("SaveRecord: %v", err)
	}

	saved, err := svc.SaveRecord(ctx, core.OneOffRecord{
		ID:         rec.ID,
		RecordType: core.Expense,
		Title:      "Dinner",
		Amount:     core.Money{Units: 95},
	})
	if err != nil {
		t.Fatalf("SaveRecord(update): %v", err)
	}
	got, _ := store.GetRecord(ctx, rec.ID)
	if saved.TransactionDate.String() != "2023-11-04" || got.TransactionDate.String() != "2023-11-04" || got.Amount.Units != 95 {
		t.Fatalf("unexpected record after update: returned %+v stored %+v", saved, got)
	}

	if _, err := svc.SaveRecord(ctx, core.OneOffRecord{RecordType: core.Expense, Title: "Lunch", Amount: core.Money{Units: 10}}); err == nil {
		t.Fatalf("a new record without a date must be rejected")
	}
}

func TestDeleteRecordAnnouncesItsYear(t *testing.T) {
	ctx := context.Background()
	svc, _, pub := newTestService(t)

	rec, err := svc.SaveRecord(ctx, core.OneOffRecord{
		RecordType:      core.Income,
		Title:           "Refund",
		Amount:          core.Money{Units: 40},
		TransactionDate: core.NewDate(2023, 12, 30),
	})
	if err != nil {
		t.Fatalf("SaveRecord: %v", err)
	}
	year, err := svc.DeleteEntry(ctx, core.PersistedRecord{OneOffRecord: core.OneOffRecord{ID: rec.ID}})
	if err != nil {
		t.Fatalf("DeleteEntry: %v", err)
	}
	if year != 2023 {
		t.Fatalf("DeleteEntry year = %d, want 2023", year)
	}
	if last := pub.msgs[len(pub.msgs)-1]; last.Op != amqp.OpDelete || last.Year != 2023 {
		t.Fatalf("unexpected delete message %+v", last)
	}
}

// gatedStore holds ListRecordsForYear after it has read, until release closes.
type gatedStore struct {
	*memStore
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedStore) ListRecordsForYear(ctx context.Context, year int) ([]core.OneOffRecord, error) {
	out, err := g.memStore.ListRecordsForYear(ctx, year)
	gated := false
	g.once.Do(func() { gated = true })
	if gated {
		close(g.entered)
		<-g.release
	}
	return out, err
}

func TestLoadYearDoesNotCacheViewsOverlappingAMutation(t *testing.T) {
	ctx := context.Background()
	store := &gatedStore{memStore: &memStore{}, entered: make(chan struct{}), release: make(chan struct{})}
	svc := NewLedgerService(store, nil, cache.NewYearViews(8, time.Minute))
	svc.now = func() time.Time { return time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC) }

	done := make(chan error, 1)
	go func() {
		_, err := svc.LoadYear(ctx, 2024)
		done <- err
	}()
	<-store.entered

	if _, err := svc.SaveRecord(ctx, core.OneOffRecord{
		RecordType:      core.Expense,
		Title:           "Coffee",
		Amount:          core.Money{Units: 300},
		TransactionDate: core.NewDate(2024, 3, 15),
	}); err != nil {
		t.Fatalf("SaveRecord: %v", err)
	}
	close(store.release)
	if err := <-done; err != nil {
		t.Fatalf("LoadYear: %v", err)
	}

	v, err := svc.LoadYear(ctx, 2024)
	if err != nil {
		t.Fatalf("LoadYear: %v", err)
	}
	if v.Grid.TotalExpense.Units != 300 {
		t.Fatalf("total expense = %d, want 300 from a fresh load", v.Grid.TotalExpense.Units)
	}
}

func TestPublishFailureDoesNotFailMutation(t *testing.T) {
	svc, store, pub := newTestService(t)
	pub.err = errors.New("broker down")

	if _, err := svc.CreatePaymentMethod(context.Background(), core.PaymentMethod{BankName: " Chase ", Last4Digits: "4242"}); err != nil {
		t.Fatalf("CreatePaymentMethod: %v", err)
	}
	if len(store.methods) != 1 || store.methods[0].BankName != "Chase" {
		t.Fatalf("payment method not stored: %+v", store.methods)
	}
}

func TestSaveRecordAcrossYearsAnnouncesBoth(t *testing.T) {
	ctx := context.Background()
	svc, _, pub := newTestService(t)

	rec, err := svc.SaveRecord(ctx, core.OneOffRecord{
		RecordType:      core.Income,
		Title:           "Bonus",
		Amount:          core.Money{Units: 1000},
		TransactionDate: core.NewDate(2024, 12, 31),
	})
	if err != nil {
		t.Fatalf("SaveRecord: %v", err)
	}
	rec.TransactionDate = core.NewDate(2025, 1, 2)
	if _, err := svc.SaveRecord(ctx, rec); err != nil {
		t.Fatalf("SaveRecord(update): %v", err)
	}

	years := map[int]bool{}
	for _, m := range pub.msgs[1:] {
		years[m.Year] = true
	}
	if !years[2024] || !years[2025] {
		t.Fatalf("expected both years to be announced, got %v", years)
	}
}

func TestLinkedAccounts(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	if _, err := svc.CreateLinkedAccount(ctx, core.LinkedAccount{Email: "nope"}); err == nil {
		t.Fatalf("expected validation error")
	}
	if _, err := svc.CreateLinkedAccount(ctx, core.LinkedAccount{Email: "me@example.com", Label: "main"}); err != nil {
		t.Fatalf("CreateLinkedAccount: %v", err)
	}
	accounts, err := svc.ListLinkedAccounts(ctx)
	if err != nil || len(accounts) != 1 {
		t.Fatalf("ListLinkedAccounts = %v, %v", accounts, err)
	}
}

func TestDefaultIncomeDate(t *testing.T) {
	svc, _, _ := newTestService(t)
	if got := svc.DefaultIncomeDate(core.IncomeTypeAdvance).String(); got != "2024-07-01" {
		t.Fatalf("advance default = %s, want 2024-07-01", got)
	}
	if got := svc.DefaultIncomeDate("bonus").String(); got != "2024-06-10" {
		t.Fatalf("bonus default = %s, want 2024-06-10", got)
	}
}
