package http

import (
	"net/http"

	"ledger/internal/core"
	"ledger/internal/log"
)

type paymentMethodDTO struct {
	ID          string `json:"id"`
	BankName    string `json:"bank_name"`
	Last4Digits string `json:"last4_digits"`
}

type linkedAccountDTO struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Label string `json:"label"`
}

func (s *Server) handlePaymentMethods(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet, http.MethodPost); resp != nil {
		resp.Write(w)
		return
	}
	if r.Method == http.MethodGet {
		methods, err := s.ledger.ListPaymentMethods(r.Context())
		if err != nil {
			writeServiceError(w, r, err, log.OpList)
			return
		}
		out := make([]paymentMethodDTO, 0, len(methods))
		for _, m := range methods {
			out = append(out, paymentMethodDTO(m))
		}
		NewHTMXResponse().JSON(out).Write(w)
		return
	}

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request body").Write(w)
		return
	}
	created, err := s.ledger.CreatePaymentMethod(r.Context(), core.PaymentMethod{
		BankName:    p.Get("bank_name"),
		Last4Digits: p.Get("last4_digits"),
	})
	if err != nil {
		writeServiceError(w, r, err, log.OpCreate)
		return
	}
	NewHTMXResponse().
		Status(http.StatusCreated).
		TriggerFormReset().
		JSON(paymentMethodDTO(created)).
		Write(w)
}

func (s *Server) handleLinkedAccounts(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet, http.MethodPost); resp != nil {
		resp.Write(w)
		return
	}
	if r.Method == http.MethodGet {
		accounts, err := s.ledger.ListLinkedAccounts(r.Context())
		if err != nil {
			writeServiceError(w, r, err, log.OpList)
			return
		}
		out := make([]linkedAccountDTO, 0, len(accounts))
		for _, a := range accounts {
			out = append(out, linkedAccountDTO(a))
		}
		NewHTMXResponse().JSON(out).Write(w)
		return
	}

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request body").Write(w)
		return
	}
	created, err := s.ledger.CreateLinkedAccount(r.Context(), core.LinkedAccount{
		Email: p.Get("email"),
		Label: p.Get("label"),
	})
	if err != nil {
		writeServiceError(w, r, err, log.OpCreate)
		return
	}
	NewHTMXResponse().
		Status(http.StatusCreated).
		TriggerFormReset().
		JSON(linkedAccountDTO(created)).
		Write(w)
}

// handleTemplates returns the static catalogs the entry forms are built from.
func (s *Server) handleTemplates(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	NewHTMXResponse().JSON(map[string]any{
		"subscriptions":      core.SubscriptionTemplates(),
		"income_types":       core.IncomeTypes(),
		"expense_categories": core.ExpenseCategories(),
	}).Write(w)
}
