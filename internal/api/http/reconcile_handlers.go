package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"reconledger-backend/internal/domain"
	"reconledger-backend/internal/statement"
)

type periodRequest struct {
	Period string `json:"period"` // YYYY-MM
}

func (req periodRequest) parse() (domain.Period, error) {
	if req.Period == "" {
		return domain.Period{}, domain.NewValidationError("period", "is required")
	}
	return domain.ParsePeriod(req.Period)
}

func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	var req periodRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	period, err := req.parse()
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.svc.Reconciliation.Reconcile(r.Context(), tenantID(r), period)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type confirmSuggestionRequest struct {
	PaymentID int32 `json:"payment_id"`
	domain.TargetRefs
}

func (h *Handler) ConfirmSuggestion(w http.ResponseWriter, r *http.Request) {
	var req confirmSuggestionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.PaymentID <= 0 {
		writeError(w, r, domain.NewValidationError("payment_id", "is required"))
		return
	}
	target, err := req.TargetRefs.Target()
	if err != nil {
		writeError(w, r, err)
		return
	}
	a, err := h.svc.Reconciliation.ConfirmSuggestion(r.Context(), tenantID(r), req.PaymentID, target)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// ImportStatement takes a multipart form with an account_id field and the
// statement in a file field (.csv or .xlsx).
func (h *Handler) ImportStatement(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, domain.NewValidationError("file", "exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, r, domain.NewValidationError("body", "expected a multipart form: %v", err))
		return
	}

	accountID, err := strconv.ParseInt(r.FormValue("account_id"), 10, 32)
	if err != nil || accountID <= 0 {
		writeError(w, r, domain.NewValidationError("account_id", "must be a positive integer"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, domain.NewValidationError("file", "is required"))
		return
	}
	defer file.Close()

	rows, err := statement.Read(header.Filename, file)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.svc.Imports.ImportStatement(r.Context(), tenantID(r), int32(accountID), rows)
	if err != nil {
		writeError(w, r, err)
		return
	}

	status := http.StatusOK
	if res.Status == domain.ImportRequiresConfirmation {
		status = http.StatusAccepted
	}
	writeJSON(w, status, res)
}

type confirmImportRequest struct {
	ForceRows []int `json:"force_rows"`
}

func (h *Handler) ConfirmImport(w http.ResponseWriter, r *http.Request) {
	var req confirmImportRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
	}
	res, err := h.svc.Imports.ConfirmImport(r.Context(), tenantID(r), mux.Vars(r)["token"], req.ForceRows)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) CalculateCommissions(w http.ResponseWriter, r *http.Request) {
	var req periodRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	period, err := req.parse()
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.svc.Commissions.Calculate(r.Context(), tenantID(r), period)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
