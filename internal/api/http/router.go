package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"reconledger-backend/internal/config"
	"reconledger-backend/internal/domain"
	"reconledger-backend/internal/logger"
	"reconledger-backend/internal/security"
	"reconledger-backend/internal/service"
)

// Services are the ledger operations exposed over REST.
type Services struct {
	Ledger         service.LedgerService
	Counterparties service.CounterpartyService
	Payments       service.PaymentService
	Allocations    service.AllocationService
	Obligations    service.ObligationService
	Custodies      service.CustodyService
	Transfers      service.TransferService
	Reconciliation service.ReconciliationService
	Imports        service.ImportService
	Commissions    service.CommissionService
}

type Handler struct {
	svc            Services
	maxUploadBytes int64
}

type claimsKey struct{}

// tenantID returns the tenant of the authenticated request. The auth
// middleware guarantees it for every non-public route.
func tenantID(r *http.Request) int32 {
	claims, _ := r.Context().Value(claimsKey{}).(*security.TenantClaims)
	if claims == nil {
		return 0
	}
	return claims.TenantID
}

// NewRouter registers every route under /v1 plus /healthz.
func NewRouter(svc Services, tm security.TokenManager, maxUploadBytes int64) *mux.Router {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 10 << 20
	}
	h := &Handler{svc: svc, maxUploadBytes: maxUploadBytes}
	router := mux.NewRouter()
	router.Use(requestIDMiddleware, authMiddleware(tm))

	router.HandleFunc("/healthz", h.Healthz).Methods(http.MethodGet).Name("healthz")

	v1 := router.PathPrefix("/v1").Subrouter()

	v1.HandleFunc("/accounts", h.CreateAccount).Methods(http.MethodPost).Name("accounts.create")
	v1.HandleFunc("/accounts", h.ListAccounts).Methods(http.MethodGet).Name("accounts.list")
	v1.HandleFunc("/accounts/{id}", h.GetAccount).Methods(http.MethodGet).Name("accounts.get")

	v1.HandleFunc("/counterparties", h.CreateCounterparty).Methods(http.MethodPost).Name("counterparties.create")
	v1.HandleFunc("/counterparties", h.ListCounterparties).Methods(http.MethodGet).Name("counterparties.list")
	v1.HandleFunc("/counterparties/{id}", h.GetCounterparty).Methods(http.MethodGet).Name("counterparties.get")
	v1.HandleFunc("/counterparties/{id}/rules", h.ruleHandler(domain.RuleOwnerCounterparty, true)).Methods(http.MethodPut).Name("counterparties.rules.set")
	v1.HandleFunc("/counterparties/{id}/rules", h.ruleHandler(domain.RuleOwnerCounterparty, false)).Methods(http.MethodGet).Name("counterparties.rules.get")

	v1.HandleFunc("/payments", h.CreatePayment).Methods(http.MethodPost).Name("payments.create")
	v1.HandleFunc("/payments", h.ListPayments).Methods(http.MethodGet).Name("payments.list")
	v1.HandleFunc("/payments/{id}", h.GetPayment).Methods(http.MethodGet).Name("payments.get")
	v1.HandleFunc("/payments/{id}", h.UpdatePayment).Methods(http.MethodPatch).Name("payments.update")
	v1.HandleFunc("/payments/{id}", h.DeletePayment).Methods(http.MethodDelete).Name("payments.delete")
	v1.HandleFunc("/payments/{id}/allocations", h.ListAllocations).Methods(http.MethodGet).Name("payments.allocations")

	v1.HandleFunc("/allocations", h.CreateAllocation).Methods(http.MethodPost).Name("allocations.create")
	v1.HandleFunc("/allocations/{id}", h.UpdateAllocation).Methods(http.MethodPatch).Name("allocations.update")
	v1.HandleFunc("/allocations/{id}", h.DeleteAllocation).Methods(http.MethodDelete).Name("allocations.delete")

	for _, kind := range []domain.ObligationKind{domain.ObligationReceivable, domain.ObligationPayable} {
		base := "/" + string(kind) + "s"
		name := string(kind) + "s"
		v1.HandleFunc(base, h.createObligation(kind)).Methods(http.MethodPost).Name(name + ".create")
		v1.HandleFunc(base, h.listObligations(kind)).Methods(http.MethodGet).Name(name + ".list")
		v1.HandleFunc(base+"/{id}", h.getObligation(kind)).Methods(http.MethodGet).Name(name + ".get")
		v1.HandleFunc(base+"/{id}", h.updateObligation(kind)).Methods(http.MethodPut).Name(name + ".update")
		v1.HandleFunc(base+"/{id}", h.deleteObligation(kind)).Methods(http.MethodDelete).Name(name + ".delete")
	}
	v1.HandleFunc("/receivables/{id}/rules", h.ruleHandler(domain.RuleOwnerReceivable, true)).Methods(http.MethodPut).Name("receivables.rules.set")
	v1.HandleFunc("/receivables/{id}/rules", h.ruleHandler(domain.RuleOwnerReceivable, false)).Methods(http.MethodGet).Name("receivables.rules.get")
	v1.HandleFunc("/obligations/sweep", h.SweepOverdue).Methods(http.MethodPost).Name("obligations.sweep")

	v1.HandleFunc("/custodies", h.CreateCustody).Methods(http.MethodPost).Name("custodies.create")
	v1.HandleFunc("/custodies", h.ListCustodies).Methods(http.MethodGet).Name("custodies.list")
	v1.HandleFunc("/custodies/{id}", h.GetCustody).Methods(http.MethodGet).Name("custodies.get")

	v1.HandleFunc("/transfers", h.CreateTransfer).Methods(http.MethodPost).Name("transfers.create")
	v1.HandleFunc("/transfers", h.ListTransfers).Methods(http.MethodGet).Name("transfers.list")
	v1.HandleFunc("/transfers/{id}", h.GetTransfer).Methods(http.MethodGet).Name("transfers.get")

	v1.HandleFunc("/reconciliations", h.Reconcile).Methods(http.MethodPost).Name("reconciliations.run")
	v1.HandleFunc("/reconciliations/confirm", h.ConfirmSuggestion).Methods(http.MethodPost).Name("reconciliations.confirm")

	v1.HandleFunc("/statements/import", h.ImportStatement).Methods(http.MethodPost).Name("statements.import")
	v1.HandleFunc("/statements/import/{token}/confirm", h.ConfirmImport).Methods(http.MethodPost).Name("statements.confirm")

	v1.HandleFunc("/commissions/calculate", h.CalculateCommissions).Methods(http.MethodPost).Name("commissions.calculate")

	return router
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		start := time.Now()
		ctx := logger.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
		logger.DebugContext(ctx, "Request served", "method", r.Method, "path", r.URL.Path, "elapsed", time.Since(start))
	})
}

// authMiddleware validates the bearer token against the route's security
// level and puts the claims on the request context.
func authMiddleware(tm security.TokenManager) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := ""
			if current := mux.CurrentRoute(r); current != nil {
				route = current.GetName()
			}
			level := config.GetSecurityLevel(route)

			// Public endpoint - skip auth
			if level == config.SecurityPublic {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := bearerToken(r)
			if !ok {
				writeJSON(w, http.StatusUnauthorized, errorBody{Error: "authorization token is not provided"})
				return
			}
			claims, err := tm.ValidateToken(token)
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid token: " + err.Error()})
				return
			}
			if level == config.SecurityService && claims.Type != security.TokenTypeService {
				writeJSON(w, http.StatusForbidden, errorBody{Error: "service token required"})
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey{}, claims)
			ctx = logger.WithTenant(ctx, claims.TenantID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	// Remove Bearer prefix if present
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		header = header[7:]
	}
	return header, header != ""
}
