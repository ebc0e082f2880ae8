package http

import (
	"net/http"
	"strings"

	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/services"
)

// parseRecurringItem reads an item from the body. A template_id fills the
// name, category and amount the form left empty. A missing start_date becomes
// startFallback.
func (s *Server) parseRecurringItem(p *RequestBodyParser, startFallback core.Date) (core.RecurringItem, *HTMXResponseBuilder) {
	it := core.RecurringItem{
		Name:            p.Get("name"),
		BillingCycle:    core.BillingCycle(strings.ToLower(p.Get("billing_cycle"))),
		RecordType:      core.RecordType(strings.ToLower(p.Get("record_type"))),
		Category:        p.Get("category"),
		Status:          core.ItemStatus(strings.ToLower(p.Get("status"))),
		PaymentMethodID: p.Get("payment_method_id"),
		LinkedAccountID: p.Get("linked_account_id"),
	}
	if it.BillingCycle == "" {
		it.BillingCycle = core.Monthly
	}
	if it.RecordType == "" {
		it.RecordType = core.Expense
	}

	var tmpl core.SubscriptionTemplate
	if id := p.Get("template_id"); id != "" {
		var ok bool
		if tmpl, ok = core.TemplateByID(id); !ok {
			return it, UnprocessableEntityError("Unknown template: " + id)
		}
		if it.Name == "" {
			it.Name = tmpl.Name
		}
		if it.Category == "" {
			it.Category = tmpl.Category
		}
	}

	if p.Get("amount") == "" && tmpl.DefaultMonthlyPrice > 0 {
		it.Amount = core.Money{Units: tmpl.DefaultMonthlyPrice}
	} else {
		amount, err := p.Amount("amount")
		if err != nil {
			return it, UnprocessableEntityError("Invalid amount")
		}
		it.Amount = amount
	}

	start, err := p.Date("start_date", startFallback)
	if err != nil {
		return it, UnprocessableEntityError(err.Error())
	}
	it.StartDate = start

	duration, err := p.Int("duration_months", 0)
	if err != nil {
		return it, UnprocessableEntityError(err.Error())
	}
	it.DurationMonths = duration
	return it, nil
}

func (s *Server) today() core.Date {
	n := s.now()
	return core.NewDate(n.Year(), int(n.Month()), n.Day())
}

// handleRecurring lists items on GET and creates one on POST.
func (s *Server) handleRecurring(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet, http.MethodPost); resp != nil {
		resp.Write(w)
		return
	}
	if r.Method == http.MethodGet {
		items, err := s.ledger.ListRecurringItems(r.Context())
		if err != nil {
			writeServiceError(w, r, err, log.OpList)
			return
		}
		out := make([]itemDTO, 0, len(items))
		for _, it := range items {
			out = append(out, toItemDTO(it))
		}
		NewHTMXResponse().JSON(out).Write(w)
		return
	}

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request body").Write(w)
		return
	}
	it, resp := s.parseRecurringItem(p, s.today())
	if resp != nil {
		resp.Write(w)
		return
	}
	created, err := s.ledger.CreateRecurringItem(r.Context(), it)
	if err != nil {
		writeServiceError(w, r, err, log.OpCreate)
		return
	}
	log.NewStructuredLogger(log.FromContext(r.Context())).LogEntrySaved(r.Context(), "recurring_item",
		created.ID, created.Name, created.Amount.Units, string(created.RecordType), created.Category)

	NewHTMXResponse().
		Status(http.StatusCreated).
		TriggerLedgerChanged(s.ledger.ChangeYear(created)).
		TriggerFormReset().
		TriggerSuccessNotification("Saved " + created.Name).
		JSON(toItemDTO(created)).
		Write(w)
}

func (s *Server) handleUpdateRecurring(w http.ResponseWriter, r *http.Request) {
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
	// zero start date: the service keeps the stored one
	it, resp := s.parseRecurringItem(p, core.Date{})
	if resp != nil {
		resp.Write(w)
		return
	}
	it.ID = id
	updated, err := s.ledger.UpdateRecurringItem(r.Context(), it)
	if err != nil {
		writeServiceError(w, r, err, log.OpUpdate)
		return
	}
	NewHTMXResponse().
		TriggerLedgerChanged(s.ledger.ChangeYear(updated)).
		TriggerSuccessNotification("Updated " + updated.Name).
		JSON(toItemDTO(updated)).
		Write(w)
}

// handleDeleteRecurring soft deletes an item; its history stays in past grids.
func (s *Server) handleDeleteRecurring(w http.ResponseWriter, r *http.Request) {
	if resp := RequireDeleteOrPOST(r); resp != nil {
		resp.Write(w)
		return
	}
	id := r.URL.Query().Get("id")
	if id == "" {
		BadRequestError("Missing id").Write(w)
		return
	}
	stopped, err := s.ledger.DeleteRecurringItem(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, log.OpDelete)
		return
	}
	NewHTMXResponse().
		TriggerLedgerChanged(s.ledger.ChangeYear(stopped)).
		TriggerSuccessNotification("Stopped").
		Write(w)
}

// parseInstallment reads total, n and rate. rate is an annual percentage.
func parseInstallment(p *RequestBodyParser) (core.Money, int, float64, *HTMXResponseBuilder) {
	total, err := p.Amount("total")
	if err != nil {
		return core.Money{}, 0, 0, UnprocessableEntityError("Invalid total")
	}
	n, err := p.Int("installments", 0)
	if err != nil {
		return core.Money{}, 0, 0, UnprocessableEntityError(err.Error())
	}
	rate, err := p.Float("rate", 0)
	if err != nil {
		return core.Money{}, 0, 0, UnprocessableEntityError(err.Error())
	}
	return total, n, rate, nil
}

func (s *Server) handleCreateInstallment(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request body").Write(w)
		return
	}
	total, n, rate, resp := parseInstallment(p)
	if resp != nil {
		resp.Write(w)
		return
	}
	start, err := p.Date("start_date", s.today())
	if err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}

	created, err := s.ledger.CommitInstallment(r.Context(), services.InstallmentRequest{
		Title:             p.Get("title"),
		Total:             total,
		Installments:      n,
		AnnualRatePercent: rate,
		Category:          p.Get("category"),
		StartDate:         start,
		PaymentMethodID:   p.Get("payment_method_id"),
		LinkedAccountID:   p.Get("linked_account_id"),
	})
	if err != nil {
		writeServiceError(w, r, err, log.OpCreate)
		return
	}
	log.NewStructuredLogger(log.FromContext(r.Context())).LogEntrySaved(r.Context(), "installment",
		created.ID, created.Name, created.Amount.Units, string(created.RecordType), created.Category)

	NewHTMXResponse().
		Status(http.StatusCreated).
		TriggerLedgerChanged(s.ledger.ChangeYear(created)).
		TriggerFormReset().
		TriggerSuccessNotification("Installment plan saved").
		JSON(toItemDTO(created)).
		Write(w)
}

type scheduleLineDTO struct {
	Number    int    `json:"number"`
	DueDate   string `json:"due_date"`
	Payment   int64  `json:"payment"`
	Principal int64  `json:"principal"`
	Interest  int64  `json:"interest"`
	Remaining int64  `json:"remaining"`
}

// handleInstallmentQuote previews the monthly payment and the amortization
// schedule without saving anything.
func (s *Server) handleInstallmentQuote(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	p := NewQueryParser(r.URL.Query())
	amount, err := p.Amount("total")
	if err != nil {
		UnprocessableEntityError("Invalid total").Write(w)
		return
	}
	n, err := p.Int("n", 0)
	if err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}
	rate, err := p.Float("rate", 0)
	if err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}
	start, err := p.Date("start_date", s.today())
	if err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}
	if err := core.ValidateInstallmentInput(amount, n, rate); err != nil {
		UnprocessableEntityError("Invalid data: " + err.Error()).Write(w)
		return
	}

	payment := core.ComputeInstallmentPayment(amount, n, rate)
	schedule := core.InstallmentSchedule(amount, n, rate, start)
	lines := make([]scheduleLineDTO, 0, len(schedule))
	var paid int64
	for _, sp := range schedule {
		paid += sp.Payment.Units
		lines = append(lines, scheduleLineDTO{
			Number:    sp.Number,
			DueDate:   sp.DueDate.String(),
			Payment:   sp.Payment.Units,
			Principal: sp.Principal.Units,
			Interest:  sp.Interest.Units,
			Remaining: sp.Remaining.Units,
		})
	}
	NewHTMXResponse().JSON(map[string]any{
		"total":          amount.Units,
		"installments":   n,
		"rate":           rate,
		"payment":        payment.Units,
		"total_paid":     paid,
		"total_interest": paid - amount.Units,
		"schedule":       lines,
	}).Write(w)
}
