package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"reconledger-backend/internal/domain"
)

type createPaymentRequest struct {
	AccountID int32            `json:"account_id"`
	Direction domain.Direction `json:"direction"`
	Amount    decimal.Decimal  `json:"amount"`
	Date      Date             `json:"date"`
	Memo      string           `json:"memo"`
}

func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req createPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.svc.Payments.CreatePayment(r.Context(), tenantID(r), domain.PaymentInput{
		AccountID: req.AccountID,
		Direction: req.Direction,
		Amount:    req.Amount,
		Date:      req.Date.Time,
		Memo:      req.Memo,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.svc.Payments.GetPayment(r.Context(), tenantID(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ListPayments accepts account_id, direction and period (YYYY-MM) filters.
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	var filter domain.PaymentFilter
	var err error
	if filter.AccountID, err = queryID(r, "account_id"); err != nil {
		writeError(w, r, err)
		return
	}
	if d := domain.Direction(r.URL.Query().Get("direction")); d != "" {
		if !d.Valid() {
			writeError(w, r, domain.NewValidationError("direction", "must be inflow or outflow, got %q", d))
			return
		}
		filter.Direction = d
	}
	if raw := r.URL.Query().Get("period"); raw != "" {
		period, err := domain.ParsePeriod(raw)
		if err != nil {
			writeError(w, r, err)
			return
		}
		filter.Period = &period
	}

	payments, err := h.svc.Payments.ListPayments(r.Context(), tenantID(r), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if payments == nil {
		payments = []domain.Payment{}
	}
	writeJSON(w, http.StatusOK, payments)
}

type updatePaymentRequest struct {
	AccountID *int32            `json:"account_id"`
	Direction *domain.Direction `json:"direction"`
	Amount    *decimal.Decimal  `json:"amount"`
	Date      *Date             `json:"date"`
	Memo      *string           `json:"memo"`
}

func (h *Handler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req updatePaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.svc.Payments.UpdatePayment(r.Context(), tenantID(r), id, domain.PaymentUpdate{
		AccountID: req.AccountID,
		Direction: req.Direction,
		Amount:    req.Amount,
		Date:      req.Date.ptr(),
		Memo:      req.Memo,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.svc.Payments.DeletePayment(r.Context(), tenantID(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListAllocations(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := h.svc.Allocations.ListAllocations(r.Context(), tenantID(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []domain.Allocation{}
	}
	writeJSON(w, http.StatusOK, list)
}

// Allocation requests name their target with exactly one of receivable_id,
// payable_id, custody_id or transfer_id.
type createAllocationRequest struct {
	PaymentID int32           `json:"payment_id"`
	Amount    decimal.Decimal `json:"amount"`
	domain.TargetRefs
}

func (h *Handler) CreateAllocation(w http.ResponseWriter, r *http.Request) {
	var req createAllocationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	target, err := req.TargetRefs.Target()
	if err != nil {
		writeError(w, r, err)
		return
	}
	a, err := h.svc.Allocations.CreateAllocation(r.Context(), tenantID(r), domain.AllocationInput{
		PaymentID: req.PaymentID,
		Target:    target,
		Amount:    req.Amount,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

type updateAllocationRequest struct {
	Amount *decimal.Decimal `json:"amount"`
	domain.TargetRefs
}

func (h *Handler) UpdateAllocation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req updateAllocationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	upd := domain.AllocationUpdate{Amount: req.Amount}
	if !req.TargetRefs.IsEmpty() {
		target, err := req.TargetRefs.Target()
		if err != nil {
			writeError(w, r, err)
			return
		}
		upd.Target = &target
	}
	a, err := h.svc.Allocations.UpdateAllocation(r.Context(), tenantID(r), id, upd)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *Handler) DeleteAllocation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.svc.Allocations.DeleteAllocation(r.Context(), tenantID(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
