package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"reconledger-backend/internal/domain"
)

type obligationRequest struct {
	CounterpartyID int32           `json:"counterparty_id"`
	Description    string          `json:"description"`
	Amount         decimal.Decimal `json:"amount"`
	DueDate        Date            `json:"due_date"`
}

func (req obligationRequest) input() domain.ObligationInput {
	return domain.ObligationInput{
		CounterpartyID: req.CounterpartyID,
		Description:    req.Description,
		Amount:         req.Amount,
		DueDate:        req.DueDate.Time,
	}
}

func (h *Handler) createObligation(kind domain.ObligationKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req obligationRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		o, err := h.svc.Obligations.CreateObligation(r.Context(), tenantID(r), kind, req.input())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, o)
	}
}

func (h *Handler) getObligation(kind domain.ObligationKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			writeError(w, r, err)
			return
		}
		o, err := h.svc.Obligations.GetObligation(r.Context(), tenantID(r), kind, id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, o)
	}
}

// listObligations accepts a comma separated status filter.
func (h *Handler) listObligations(kind domain.ObligationKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var statuses []domain.ObligationStatus
		for _, s := range queryList(r, "status") {
			status := domain.ObligationStatus(s)
			switch status {
			case domain.ObligationOpen, domain.ObligationOverdue, domain.ObligationPaid:
				statuses = append(statuses, status)
			default:
				writeError(w, r, domain.NewValidationError("status", "unknown obligation status %q", s))
				return
			}
		}
		list, err := h.svc.Obligations.ListObligations(r.Context(), tenantID(r), kind, statuses)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if list == nil {
			list = []domain.Obligation{}
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func (h *Handler) updateObligation(kind domain.ObligationKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			writeError(w, r, err)
			return
		}
		var req obligationRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		o, err := h.svc.Obligations.UpdateObligation(r.Context(), tenantID(r), kind, id, req.input())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, o)
	}
}

func (h *Handler) deleteObligation(kind domain.ObligationKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			writeError(w, r, err)
			return
		}
		if err := h.svc.Obligations.DeleteObligation(r.Context(), tenantID(r), kind, id); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) SweepOverdue(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Obligations.SweepOverdue(r.Context(), tenantID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"marked_overdue": n})
}

func (h *Handler) CreateCustody(w http.ResponseWriter, r *http.Request) {
	var req domain.CustodyInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.svc.Custodies.CreateCustody(r.Context(), tenantID(r), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *Handler) GetCustody(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.svc.Custodies.GetCustody(r.Context(), tenantID(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) ListCustodies(w http.ResponseWriter, r *http.Request) {
	var statuses []domain.CustodyStatus
	for _, s := range queryList(r, "status") {
		statuses = append(statuses, domain.CustodyStatus(s))
	}
	list, err := h.svc.Custodies.ListCustodies(r.Context(), tenantID(r), statuses)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []domain.Custody{}
	}
	writeJSON(w, http.StatusOK, list)
}

type createTransferRequest struct {
	FromAccountID int32           `json:"from_account_id"`
	ToAccountID   int32           `json:"to_account_id"`
	Amount        decimal.Decimal `json:"amount"`
	Date          Date            `json:"date"`
}

func (h *Handler) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	var req createTransferRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	t, err := h.svc.Transfers.CreateTransfer(r.Context(), tenantID(r), domain.TransferInput{
		FromAccountID: req.FromAccountID,
		ToAccountID:   req.ToAccountID,
		Amount:        req.Amount,
		Date:          req.Date.Time,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *Handler) GetTransfer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	t, err := h.svc.Transfers.GetTransfer(r.Context(), tenantID(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *Handler) ListTransfers(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Transfers.ListTransfers(r.Context(), tenantID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []domain.Transfer{}
	}
	writeJSON(w, http.StatusOK, list)
}
