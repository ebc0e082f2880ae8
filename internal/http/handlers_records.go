package http

import (
	"net/http"
	"strings"

	"ledger/internal/core"
	"ledger/internal/log"
)

// parseRecord reads a one-off record. For income, income_type picks the
// default category and date. With useDefaultDate false a missing
// transaction_date stays zero.
func (s *Server) parseRecord(p *RequestBodyParser, useDefaultDate bool) (core.OneOffRecord, core.IncomeType, *HTMXResponseBuilder) {
	rec := core.OneOffRecord{
		RecordType: core.RecordType(strings.ToLower(p.Get("record_type"))),
		Title:      p.Get("title"),
		Category:   p.Get("category"),
	}
	if rec.RecordType == "" {
		rec.RecordType = core.Expense
	}

	var incomeType core.IncomeType
	if id := p.Get("income_type"); id != "" && rec.RecordType == core.Income {
		var ok bool
		if incomeType, ok = core.IncomeTypeByID(id); !ok {
			return rec, incomeType, UnprocessableEntityError("Unknown income type: " + id)
		}
		if rec.Category == "" {
			rec.Category = incomeType.Category
		}
	}

	amount, err := p.Amount("amount")
	if err != nil {
		return rec, incomeType, UnprocessableEntityError("Invalid amount")
	}
	rec.Amount = amount

	var fallback core.Date
	if useDefaultDate {
		fallback = s.ledger.DefaultIncomeDate(incomeType.ID)
	}
	date, err := p.Date("transaction_date", fallback)
	if err != nil {
		return rec, incomeType, UnprocessableEntityError(err.Error())
	}
	rec.TransactionDate = date
	return rec, incomeType, nil
}

// handleCreateRecord stores a one-off record. A recurring income type becomes
// an open-ended monthly item instead.
func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request body").Write(w)
		return
	}
	rec, incomeType, resp := s.parseRecord(p, true)
	if resp != nil {
		resp.Write(w)
		return
	}
	sl := log.NewStructuredLogger(log.FromContext(r.Context()))

	if incomeType.IsRecurring {
		if rec.Title == "" {
			rec.Title = incomeType.Label
		}
		item, err := s.ledger.CommitRecurringIncome(r.Context(), rec.Title, rec.Amount, rec.Category, rec.TransactionDate)
		if err != nil {
			writeServiceError(w, r, err, log.OpCreate)
			return
		}
		sl.LogEntrySaved(r.Context(), "recurring_item", item.ID, item.Name, item.Amount.Units, string(item.RecordType), item.Category)
		NewHTMXResponse().
			Status(http.StatusCreated).
			TriggerLedgerChanged(s.ledger.ChangeYear(item)).
			TriggerFormReset().
			TriggerSuccessNotification("Recurring income saved").
			JSON(toItemDTO(item)).
			Write(w)
		return
	}

	created, err := s.ledger.SaveRecord(r.Context(), rec)
	if err != nil {
		writeServiceError(w, r, err, log.OpCreate)
		return
	}
	sl.LogEntrySaved(r.Context(), "record", created.ID, created.Title, created.Amount.Units, string(created.RecordType), created.Category)
	NewHTMXResponse().
		Status(http.StatusCreated).
		TriggerLedgerChanged(created.TransactionDate.Year()).
		TriggerFormReset().
		TriggerSuccessNotification("Saved " + created.Title).
		JSON(toRecordDTO(created)).
		Write(w)
}

func (s *Server) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePUTOrPOST(r); resp != nil {
		resp.Write(w)
		return
	}
	id := r.URL.Query().Get("id")
	if id == "" {
		BadRequestError("Missing id").Write(w)
		return
	}
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request body").Write(w)
		return
	}
	rec, _, resp := s.parseRecord(p, false)
	if resp != nil {
		resp.Write(w)
		return
	}
	rec.ID = id
	saved, err := s.ledger.SaveRecord(r.Context(), rec)
	if err != nil {
		writeServiceError(w, r, err, log.OpUpdate)
		return
	}
	NewHTMXResponse().
		TriggerLedgerChanged(saved.TransactionDate.Year()).
		TriggerSuccessNotification("Updated " + saved.Title).
		JSON(toRecordDTO(saved)).
		Write(w)
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	if resp := RequireDeleteOrPOST(r); resp != nil {
		resp.Write(w)
		return
	}
	id := r.URL.Query().Get("id")
	if id == "" {
		BadRequestError("Missing id").Write(w)
		return
	}
	deleted, err := s.ledger.DeleteRecord(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, log.OpDelete)
		return
	}
	NewHTMXResponse().
		TriggerLedgerChanged(deleted.TransactionDate.Year()).
		TriggerSuccessNotification("Deleted").
		Write(w)
}

// handleDeleteEntry deletes a ledger line. A virtual line stands for its
// source item, which is deactivated rather than removed.
func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	if resp := RequireDeleteOrPOST(r); resp != nil {
		resp.Write(w)
		return
	}
	var entry core.LedgerEntry
	if queryBool(r, "virtual") {
		source := r.URL.Query().Get("source")
		if source == "" {
			BadRequestError("Missing source").Write(w)
			return
		}
		entry = core.ProjectedCharge{SourceItemID: source}
	} else {
		id := r.URL.Query().Get("id")
		if id == "" {
			BadRequestError("Missing id").Write(w)
			return
		}
		entry = core.PersistedRecord{OneOffRecord: core.OneOffRecord{ID: id}}
	}

	year, err := s.ledger.DeleteEntry(r.Context(), entry)
	if err != nil {
		writeServiceError(w, r, err, log.OpDelete)
		return
	}
	NewHTMXResponse().
		TriggerLedgerChanged(year).
		TriggerSuccessNotification("Deleted").
		Write(w)
}
