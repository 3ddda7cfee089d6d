package memory

import (
	"context"
	"sort"

	"reconledger-backend/internal/domain"
)

type allocationRepo struct{ v view }

func (r allocationRepo) Create(ctx context.Context, a *domain.Allocation) error {
	return r.v.with(func(st *state) error {
		a.ID = st.id()
		a.CreatedAt = r.v.timeNow()
		a.UpdatedAt = a.CreatedAt
		st.allocations[a.ID] = *a
		return nil
	})
}

func (r allocationRepo) GetByID(ctx context.Context, tenantID, id int32) (*domain.Allocation, error) {
	var out domain.Allocation
	err := r.v.with(func(st *state) error {
		a, ok := st.allocations[id]
		if !ok || a.TenantID != tenantID {
			return domain.NewNotFoundError("allocation", id)
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r allocationRepo) Update(ctx context.Context, a *domain.Allocation) error {
	return r.v.with(func(st *state) error {
		cur, ok := st.allocations[a.ID]
		if !ok || cur.TenantID != a.TenantID {
			return domain.NewNotFoundError("allocation", a.ID)
		}
		a.CreatedAt = cur.CreatedAt
		a.UpdatedAt = r.v.timeNow()
		st.allocations[a.ID] = *a
		return nil
	})
}

func (r allocationRepo) Delete(ctx context.Context, tenantID, id int32) error {
	return r.v.with(func(st *state) error {
		a, ok := st.allocations[id]
		if !ok || a.TenantID != tenantID {
			return domain.NewNotFoundError("allocation", id)
		}
		delete(st.allocations, id)
		return nil
	})
}

func (r allocationRepo) ListByPayment(ctx context.Context, tenantID, paymentID int32) ([]domain.Allocation, error) {
	var out []domain.Allocation
	err := r.v.with(func(st *state) error {
		for _, a := range st.allocations {
			if a.TenantID == tenantID && a.PaymentID == paymentID {
				out = append(out, a)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func (r allocationRepo) DeleteByPayment(ctx context.Context, tenantID, paymentID int32) error {
	return r.v.with(func(st *state) error {
		for id, a := range st.allocations {
			if a.TenantID == tenantID && a.PaymentID == paymentID {
				delete(st.allocations, id)
			}
		}
		return nil
	})
}

func (r allocationRepo) CountByTarget(ctx context.Context, tenantID int32, target domain.Target) (int, error) {
	n := 0
	err := r.v.with(func(st *state) error {
		for _, a := range st.allocations {
			if a.TenantID == tenantID && a.Target == target {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r allocationRepo) TotalsByTarget(ctx context.Context, tenantID int32, target domain.Target) (domain.TargetTotals, error) {
	var t domain.TargetTotals
	err := r.v.with(func(st *state) error {
		t = st.totals(tenantID, target)
		return nil
	})
	return t, err
}

func (r allocationRepo) ListCommissionable(ctx context.Context, tenantID int32, period domain.Period) ([]domain.CommissionableAllocation, error) {
	var out []domain.CommissionableAllocation
	err := r.v.with(func(st *state) error {
		for _, a := range st.allocations {
			if a.TenantID != tenantID || a.Target.Kind != domain.TargetReceivable {
				continue
			}
			rec, ok := st.receivables[a.Target.ID]
			if !ok || rec.Status != domain.ObligationPaid {
				continue
			}
			p, ok := st.payments[a.PaymentID]
			if !ok || !period.Contains(p.Date) {
				continue
			}
			out = append(out, domain.CommissionableAllocation{
				AllocationID:   a.ID,
				ReceivableID:   rec.ID,
				CounterpartyID: rec.CounterpartyID,
				Amount:         a.Amount,
			})
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].AllocationID < out[j].AllocationID })
	return out, err
}
