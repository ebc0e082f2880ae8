package http

import (
	"errors"
	"net/http"
	"strconv"

	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/services"
	"ledger/internal/storage"
)

// writeServiceError maps a service error onto a status: validation problems
// are 422, missing rows 404, anything else is logged and reported as 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		UnprocessableEntityError("Invalid data: " + verr.Error()).Write(w)
	case errors.Is(err, storage.ErrNotFound):
		NotFoundError("Not found").Write(w)
	default:
		log.NewStructuredLogger(log.FromContext(r.Context())).
			LogError(r.Context(), "Ledger operation failed", err, operation,
				log.NewFields().WithComponent(log.ComponentLedger))
		InternalServerError("Internal error").Write(w)
	}
}

type itemDTO struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Label           string `json:"label"`
	Amount          int64  `json:"amount"`
	BillingCycle    string `json:"billing_cycle"`
	RecordType      string `json:"record_type"`
	Category        string `json:"category"`
	StartDate       string `json:"start_date"`
	DurationMonths  int    `json:"duration_months,omitempty"`
	EndDate         string `json:"end_date,omitempty"`
	Status          string `json:"status"`
	PaymentMethodID string `json:"payment_method_id,omitempty"`
	LinkedAccountID string `json:"linked_account_id,omitempty"`
}

func toItemDTO(it core.RecurringItem) itemDTO {
	dto := itemDTO{
		ID:              it.ID,
		Name:            it.Name,
		Label:           string(core.PrefixFor(it)),
		Amount:          it.Amount.Units,
		BillingCycle:    string(it.BillingCycle),
		RecordType:      string(it.RecordType),
		Category:        it.Category,
		StartDate:       it.StartDate.String(),
		DurationMonths:  it.DurationMonths,
		Status:          string(it.Status),
		PaymentMethodID: it.PaymentMethodID,
		LinkedAccountID: it.LinkedAccountID,
	}
	if end, ok := it.EndDate(); ok {
		dto.EndDate = end.String()
	}
	return dto
}

type recordDTO struct {
	ID              string `json:"id"`
	RecordType      string `json:"record_type"`
	Title           string `json:"title"`
	Amount          int64  `json:"amount"`
	Category        string `json:"category"`
	TransactionDate string `json:"transaction_date"`
}

func toRecordDTO(rec core.OneOffRecord) recordDTO {
	return recordDTO{
		ID:              rec.ID,
		RecordType:      string(rec.RecordType),
		Title:           rec.Title,
		Amount:          rec.Amount.Units,
		Category:        rec.Category,
		TransactionDate: rec.TransactionDate.String(),
	}
}

// entryDTO is one line of a merged ledger. Virtual lines are projected from a
// recurring item and carry its id as SourceItemID.
type entryDTO struct {
	ID           string `json:"id,omitempty"`
	Virtual      bool   `json:"virtual"`
	SourceItemID string `json:"source_item_id,omitempty"`
	Label        string `json:"label"`
	Amount       int64  `json:"amount"`
	RecordType   string `json:"record_type"`
	Category     string `json:"category"`
	Date         string `json:"date"`
}

func toEntryDTO(e core.LedgerEntry) entryDTO {
	dto := entryDTO{
		Label:      e.EntryLabel(),
		Amount:     e.EntryAmount().Units,
		RecordType: string(e.EntryType()),
		Date:       e.EntryDate().String(),
	}
	switch v := e.(type) {
	case core.PersistedRecord:
		dto.ID = v.ID
		dto.Category = v.Category
	case core.ProjectedCharge:
		dto.Virtual = true
		dto.SourceItemID = v.SourceItemID
		dto.Category = v.Category
	}
	return dto
}

func toEntryDTOs(entries []core.LedgerEntry) []entryDTO {
	out := make([]entryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryDTO(e))
	}
	return out
}

type rowDTO struct {
	Label     string    `json:"label"`
	IsDerived bool      `json:"is_derived"`
	SourceID  string    `json:"source_id,omitempty"`
	Months    [12]int64 `json:"months"`
	Total     int64     `json:"total"`
}

func toRowDTOs(rows []core.GridRow) []rowDTO {
	out := make([]rowDTO, 0, len(rows))
	for _, r := range rows {
		dto := rowDTO{
			Label:     r.Label,
			IsDerived: r.IsDerived,
			SourceID:  r.SourceID,
			Total:     r.Total().Units,
		}
		for i, m := range r.MonthlyAmounts {
			dto.Months[i] = m.Units
		}
		out = append(out, dto)
	}
	return out
}

func unitsOf(cols [12]core.Money) [12]int64 {
	var out [12]int64
	for i, m := range cols {
		out[i] = m.Units
	}
	return out
}

type gridDTO struct {
	Year    int       `json:"year"`
	Mode    string    `json:"mode"`
	Rows    []rowDTO  `json:"rows"`
	Columns [12]int64 `json:"columns"`
	Total   int64     `json:"total"`

	AverageMonthly *int64 `json:"average_monthly,omitempty"`
}

type overviewDTO struct {
	Year           int       `json:"year"`
	Mode           string    `json:"mode"`
	IncomeRows     []rowDTO  `json:"income_rows"`
	ExpenseRows    []rowDTO  `json:"expense_rows"`
	IncomeColumns  [12]int64 `json:"income_columns"`
	ExpenseColumns [12]int64 `json:"expense_columns"`
	NetColumns     [12]int64 `json:"net_columns"`
	TotalIncome    int64     `json:"total_income"`
	TotalExpense   int64     `json:"total_expense"`
	NetBalance     int64     `json:"net_balance"`
}

const modeOverview = "overview"

// modeRows picks the rows and column totals a single-mode grid shows.
func modeRows(v core.YearView, mode core.AggregateMode) ([]core.GridRow, [12]core.Money) {
	switch mode {
	case core.ModeIncome:
		return v.Grid.IncomeRows, v.Grid.IncomeColumns
	case core.ModeExpense:
		return v.Grid.ExpenseRows, v.Grid.ExpenseColumns
	default:
		return v.SubscriptionRows, v.SubscriptionColumns
	}
}

func toGridDTO(v core.YearView, mode core.AggregateMode) gridDTO {
	rows, cols := modeRows(v, mode)
	dto := gridDTO{
		Year:    v.Grid.Year,
		Mode:    string(mode),
		Rows:    toRowDTOs(rows),
		Columns: unitsOf(cols),
		Total:   core.YearTotal(rows).Units,
	}
	if mode == core.ModePureSubscription {
		avg := v.AverageMonthlySubscription.Units
		dto.AverageMonthly = &avg
	}
	return dto
}

func toOverviewDTO(g core.YearGrid) overviewDTO {
	return overviewDTO{
		Year:           g.Year,
		Mode:           modeOverview,
		IncomeRows:     toRowDTOs(g.IncomeRows),
		ExpenseRows:    toRowDTOs(g.ExpenseRows),
		IncomeColumns:  unitsOf(g.IncomeColumns),
		ExpenseColumns: unitsOf(g.ExpenseColumns),
		NetColumns:     unitsOf(g.NetColumns),
		TotalIncome:    g.TotalIncome.Units,
		TotalExpense:   g.TotalExpense.Units,
		NetBalance:     g.NetBalance.Units,
	}
}

// formatMoney renders units with thousands separators and the currency symbol.
func formatMoney(symbol string, m core.Money) string {
	if m.Units < 0 {
		return "-" + symbol + core.Money{Units: -m.Units}.Format()
	}
	return symbol + m.Format()
}

func queryBool(r *http.Request, key string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(key))
	return b
}
