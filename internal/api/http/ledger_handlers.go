package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"reconledger-backend/internal/domain"
)

type createAccountRequest struct {
	Name           string          `json:"name"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
}

func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	acc, err := h.svc.Ledger.CreateAccount(r.Context(), tenantID(r), req.Name, req.OpeningBalance)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, acc)
}

func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	acc, err := h.svc.Ledger.GetAccount(r.Context(), tenantID(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.svc.Ledger.ListAccounts(r.Context(), tenantID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

type createCounterpartyRequest struct {
	Name     string `json:"name"`
	Document string `json:"document"`
}

func (h *Handler) CreateCounterparty(w http.ResponseWriter, r *http.Request) {
	var req createCounterpartyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	cp, err := h.svc.Counterparties.CreateCounterparty(r.Context(), tenantID(r), req.Name, req.Document)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, cp)
}

func (h *Handler) GetCounterparty(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	cp, err := h.svc.Counterparties.GetCounterparty(r.Context(), tenantID(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cp)
}

func (h *Handler) ListCounterparties(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Counterparties.ListCounterparties(r.Context(), tenantID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

type rulesBody struct {
	Rules []domain.CommissionRule `json:"rules"`
}

// ruleHandler serves the commission rules of a counterparty or a receivable.
// PUT replaces the whole list.
func (h *Handler) ruleHandler(kind domain.RuleOwnerKind, replace bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			writeError(w, r, err)
			return
		}
		owner := domain.RuleOwner{Kind: kind, ID: id}

		if replace {
			var req rulesBody
			if err := decodeJSON(r, &req); err != nil {
				writeError(w, r, err)
				return
			}
			if err := h.svc.Commissions.SetRules(r.Context(), tenantID(r), owner, req.Rules); err != nil {
				writeError(w, r, err)
				return
			}
		}

		rules, err := h.svc.Commissions.GetRules(r.Context(), tenantID(r), owner)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if rules == nil {
			rules = []domain.CommissionRule{}
		}
		writeJSON(w, http.StatusOK, rulesBody{Rules: rules})
	}
}
