package memory

import (
	"context"
	"sort"
	"time"

	"reconledger-backend/internal/domain"
)

type obligationRepo struct{ v view }

func (r obligationRepo) Create(ctx context.Context, o *domain.Obligation) error {
	if !o.Kind.Valid() {
		return domain.NewValidationError("kind", "unknown obligation kind %q", o.Kind)
	}
	return r.v.with(func(st *state) error {
		o.ID = st.id()
		o.CreatedAt = r.v.timeNow()
		o.UpdatedAt = o.CreatedAt
		if o.Status == "" {
			o.Status = domain.ObligationOpen
		}
		st.obligations(o.Kind)[o.ID] = *o
		return nil
	})
}

func (r obligationRepo) GetByID(ctx context.Context, tenantID int32, kind domain.ObligationKind, id int32) (*domain.Obligation, error) {
	var out domain.Obligation
	err := r.v.with(func(st *state) error {
		o, ok := st.obligations(kind)[id]
		if !ok || o.TenantID != tenantID {
			return domain.NewNotFoundError(string(kind), id)
		}
		out = st.readObligation(o)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r obligationRepo) List(ctx context.Context, tenantID int32, kind domain.ObligationKind, statuses []domain.ObligationStatus) ([]domain.Obligation, error) {
	var out []domain.Obligation
	err := r.v.with(func(st *state) error {
		for _, o := range st.obligations(kind) {
			if o.TenantID != tenantID {
				continue
			}
			if len(statuses) > 0 && !containsStatus(statuses, o.Status) {
				continue
			}
			out = append(out, st.readObligation(o))
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueDate.Equal(out[j].DueDate) {
			return out[i].DueDate.Before(out[j].DueDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, err
}

func (r obligationRepo) Update(ctx context.Context, o *domain.Obligation) error {
	return r.v.with(func(st *state) error {
		rows := st.obligations(o.Kind)
		cur, ok := rows[o.ID]
		if !ok || cur.TenantID != o.TenantID {
			return domain.NewNotFoundError(string(o.Kind), o.ID)
		}
		cur.Description = o.Description
		cur.Amount = o.Amount
		cur.DueDate = o.DueDate
		cur.Status = o.Status
		cur.PaidDate = o.PaidDate
		cur.UpdatedAt = r.v.timeNow()
		rows[o.ID] = cur
		o.UpdatedAt = cur.UpdatedAt
		return nil
	})
}

func (r obligationRepo) UpdateStatus(ctx context.Context, tenantID int32, kind domain.ObligationKind, id int32, status domain.ObligationStatus, paidDate *time.Time) error {
	return r.v.with(func(st *state) error {
		rows := st.obligations(kind)
		cur, ok := rows[id]
		if !ok || cur.TenantID != tenantID {
			return domain.NewNotFoundError(string(kind), id)
		}
		cur.Status = status
		cur.PaidDate = paidDate
		cur.UpdatedAt = r.v.timeNow()
		rows[id] = cur
		return nil
	})
}

func (r obligationRepo) Delete(ctx context.Context, tenantID int32, kind domain.ObligationKind, id int32) error {
	return r.v.with(func(st *state) error {
		rows := st.obligations(kind)
		cur, ok := rows[id]
		if !ok || cur.TenantID != tenantID {
			return domain.NewNotFoundError(string(kind), id)
		}
		delete(rows, id)
		return nil
	})
}

func (r obligationRepo) MarkOverdue(ctx context.Context, tenantID int32, kind domain.ObligationKind, today time.Time) (int64, error) {
	var n int64
	day := domain.Today(today)
	err := r.v.with(func(st *state) error {
		rows := st.obligations(kind)
		for id, o := range rows {
			if o.TenantID == tenantID && o.Status == domain.ObligationOpen && domain.Today(o.DueDate).Before(day) {
				o.Status = domain.ObligationOverdue
				o.UpdatedAt = r.v.timeNow()
				rows[id] = o
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r obligationRepo) ListCommissionPayables(ctx context.Context, tenantID int32, period string) ([]domain.Obligation, error) {
	var out []domain.Obligation
	err := r.v.with(func(st *state) error {
		for _, o := range st.payables {
			if o.TenantID == tenantID && o.Category == domain.CategoryCommission && o.Period == period {
				out = append(out, st.readObligation(o))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

// readObligation fills the read-model fields of a stored row.
func (s *state) readObligation(o domain.Obligation) domain.Obligation {
	if c, ok := s.counterparties[o.CounterpartyID]; ok && c.TenantID == o.TenantID {
		o.CounterpartyName = c.Name
	}
	o.PaidTotal = s.totals(o.TenantID, o.Target()).Total()
	return o
}

func containsStatus[S comparable](statuses []S, s S) bool {
	for _, x := range statuses {
		if x == s {
			return true
		}
	}
	return false
}
