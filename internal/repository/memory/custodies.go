package memory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"reconledger-backend/internal/domain"
)

type custodyRepo struct{ v view }

func (r custodyRepo) Create(ctx context.Context, c *domain.Custody) error {
	return r.v.with(func(st *state) error {
		c.ID = st.id()
		c.CreatedAt = r.v.timeNow()
		c.UpdatedAt = c.CreatedAt
		if c.Status == "" {
			c.Status = domain.CustodyOpen
		}
		st.custodies[c.ID] = *c
		return nil
	})
}

func (r custodyRepo) GetByID(ctx context.Context, tenantID, id int32) (*domain.Custody, error) {
	var out domain.Custody
	err := r.v.with(func(st *state) error {
		c, ok := st.custodies[id]
		if !ok || c.TenantID != tenantID {
			return domain.NewNotFoundError("custody", id)
		}
		out = st.readCustody(c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r custodyRepo) List(ctx context.Context, tenantID int32, statuses []domain.CustodyStatus) ([]domain.Custody, error) {
	var out []domain.Custody
	err := r.v.with(func(st *state) error {
		for _, c := range st.custodies {
			if c.TenantID != tenantID {
				continue
			}
			if len(statuses) > 0 && !containsStatus(statuses, c.Status) {
				continue
			}
			out = append(out, st.readCustody(c))
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func (r custodyRepo) UpdateSettlement(ctx context.Context, tenantID, id int32, settled decimal.Decimal, status domain.CustodyStatus) error {
	return r.v.with(func(st *state) error {
		c, ok := st.custodies[id]
		if !ok || c.TenantID != tenantID {
			return domain.NewNotFoundError("custody", id)
		}
		c.SettledAmount = settled
		c.Status = status
		c.UpdatedAt = r.v.timeNow()
		st.custodies[id] = c
		return nil
	})
}

func (s *state) readCustody(c domain.Custody) domain.Custody {
	if cp, ok := s.counterparties[c.CounterpartyID]; ok && cp.TenantID == c.TenantID {
		c.CounterpartyName = cp.Name
	}
	t := s.totals(c.TenantID, c.Target())
	c.InflowTotal = t.Inflow
	c.OutflowTotal = t.Outflow
	return c
}

type transferRepo struct{ v view }

func (r transferRepo) Create(ctx context.Context, t *domain.Transfer) error {
	return r.v.with(func(st *state) error {
		t.ID = st.id()
		t.CreatedAt = r.v.timeNow()
		t.UpdatedAt = t.CreatedAt
		if t.Status == "" {
			t.Status = domain.TransferPending
		}
		st.transfers[t.ID] = *t
		return nil
	})
}

func (r transferRepo) GetByID(ctx context.Context, tenantID, id int32) (*domain.Transfer, error) {
	var out domain.Transfer
	err := r.v.with(func(st *state) error {
		t, ok := st.transfers[id]
		if !ok || t.TenantID != tenantID {
			return domain.NewNotFoundError("transfer", id)
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r transferRepo) List(ctx context.Context, tenantID int32) ([]domain.Transfer, error) {
	var out []domain.Transfer
	err := r.v.with(func(st *state) error {
		for _, t := range st.transfers {
			if t.TenantID == tenantID {
				out = append(out, t)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func (r transferRepo) UpdateStatus(ctx context.Context, tenantID, id int32, status domain.TransferStatus) error {
	return r.v.with(func(st *state) error {
		t, ok := st.transfers[id]
		if !ok || t.TenantID != tenantID {
			return domain.NewNotFoundError("transfer", id)
		}
		t.Status = status
		t.UpdatedAt = r.v.timeNow()
		st.transfers[id] = t
		return nil
	})
}
