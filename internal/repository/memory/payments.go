package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"reconledger-backend/internal/domain"
)

type paymentRepo struct{ v view }

func (r paymentRepo) Create(ctx context.Context, p *domain.Payment) error {
	return r.v.with(func(st *state) error {
		p.ID = st.id()
		p.CreatedAt = r.v.timeNow()
		p.UpdatedAt = p.CreatedAt
		st.payments[p.ID] = *p
		return nil
	})
}

func (r paymentRepo) GetByID(ctx context.Context, tenantID, id int32) (*domain.Payment, error) {
	var out domain.Payment
	err := r.v.with(func(st *state) error {
		p, ok := st.payments[id]
		if !ok || p.TenantID != tenantID {
			return domain.NewNotFoundError("payment", id)
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetForUpdate needs no extra locking: transactions are serialized.
func (r paymentRepo) GetForUpdate(ctx context.Context, tenantID, id int32) (*domain.Payment, error) {
	return r.GetByID(ctx, tenantID, id)
}

func (r paymentRepo) Update(ctx context.Context, p *domain.Payment) error {
	return r.v.with(func(st *state) error {
		cur, ok := st.payments[p.ID]
		if !ok || cur.TenantID != p.TenantID {
			return domain.NewNotFoundError("payment", p.ID)
		}
		p.CreatedAt = cur.CreatedAt
		p.UpdatedAt = r.v.timeNow()
		st.payments[p.ID] = *p
		return nil
	})
}

func (r paymentRepo) Delete(ctx context.Context, tenantID, id int32) error {
	return r.v.with(func(st *state) error {
		p, ok := st.payments[id]
		if !ok || p.TenantID != tenantID {
			return domain.NewNotFoundError("payment", id)
		}
		delete(st.payments, id)
		return nil
	})
}

func (r paymentRepo) List(ctx context.Context, tenantID int32, filter domain.PaymentFilter) ([]domain.Payment, error) {
	var out []domain.Payment
	err := r.v.with(func(st *state) error {
		for _, p := range st.payments {
			if p.TenantID != tenantID {
				continue
			}
			if filter.AccountID != 0 && p.AccountID != filter.AccountID {
				continue
			}
			if filter.Direction != "" && p.Direction != filter.Direction {
				continue
			}
			if filter.Period != nil && !filter.Period.Contains(p.Date) {
				continue
			}
			out = append(out, p)
		}
		return nil
	})
	sortPayments(out)
	return out, err
}

func (r paymentRepo) ListUnallocated(ctx context.Context, tenantID int32, period domain.Period) ([]domain.Payment, error) {
	var out []domain.Payment
	err := r.v.with(func(st *state) error {
		allocated := make(map[int32]bool)
		for _, a := range st.allocations {
			allocated[a.PaymentID] = true
		}
		for _, p := range st.payments {
			if p.TenantID == tenantID && period.Contains(p.Date) && !allocated[p.ID] {
				out = append(out, p)
			}
		}
		return nil
	})
	sortPayments(out)
	return out, err
}

func (r paymentRepo) FindSimilar(ctx context.Context, tenantID, accountID int32, date time.Time, amount decimal.Decimal, direction domain.Direction) ([]domain.Payment, error) {
	var out []domain.Payment
	day := domain.Today(date)
	err := r.v.with(func(st *state) error {
		for _, p := range st.payments {
			if p.TenantID == tenantID && p.AccountID == accountID && p.Direction == direction &&
				p.Amount.Equal(amount) && domain.Today(p.Date).Equal(day) {
				out = append(out, p)
			}
		}
		return nil
	})
	sortPayments(out)
	return out, err
}

func sortPayments(ps []domain.Payment) {
	sort.Slice(ps, func(i, j int) bool {
		if !ps[i].Date.Equal(ps[j].Date) {
			return ps[i].Date.Before(ps[j].Date)
		}
		return ps[i].ID < ps[j].ID
	})
}
