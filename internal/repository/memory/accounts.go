package memory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"reconledger-backend/internal/domain"
)

type accountRepo struct{ v view }

func (r accountRepo) Create(ctx context.Context, acc *domain.BankAccount) error {
	return r.v.with(func(st *state) error {
		acc.ID = st.id()
		acc.CreatedAt = r.v.timeNow()
		st.accounts[acc.ID] = *acc
		return nil
	})
}

func (r accountRepo) GetByID(ctx context.Context, tenantID, id int32) (*domain.BankAccount, error) {
	var out domain.BankAccount
	err := r.v.with(func(st *state) error {
		acc, ok := st.accounts[id]
		if !ok || acc.TenantID != tenantID {
			return domain.NewNotFoundError("bank account", id)
		}
		out = acc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r accountRepo) List(ctx context.Context, tenantID int32) ([]domain.BankAccount, error) {
	var out []domain.BankAccount
	err := r.v.with(func(st *state) error {
		for _, acc := range st.accounts {
			if acc.TenantID == tenantID {
				out = append(out, acc)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func (r accountRepo) ApplyDelta(ctx context.Context, tenantID, id int32, delta decimal.Decimal) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := r.v.with(func(st *state) error {
		acc, ok := st.accounts[id]
		if !ok || acc.TenantID != tenantID {
			return domain.NewNotFoundError("bank account", id)
		}
		acc.Balance = acc.Balance.Add(delta)
		st.accounts[id] = acc
		balance = acc.Balance
		return nil
	})
	return balance, err
}

func (r accountRepo) ListTenants(ctx context.Context) ([]int32, error) {
	seen := make(map[int32]bool)
	var out []int32
	err := r.v.with(func(st *state) error {
		for _, acc := range st.accounts {
			if !seen[acc.TenantID] {
				seen[acc.TenantID] = true
				out = append(out, acc.TenantID)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, err
}

type counterpartyRepo struct{ v view }

func (r counterpartyRepo) Create(ctx context.Context, c *domain.Counterparty) error {
	return r.v.with(func(st *state) error {
		c.ID = st.id()
		c.CreatedAt = r.v.timeNow()
		st.counterparties[c.ID] = *c
		return nil
	})
}

func (r counterpartyRepo) GetByID(ctx context.Context, tenantID, id int32) (*domain.Counterparty, error) {
	var out domain.Counterparty
	err := r.v.with(func(st *state) error {
		c, ok := st.counterparties[id]
		if !ok || c.TenantID != tenantID {
			return domain.NewNotFoundError("counterparty", id)
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r counterpartyRepo) List(ctx context.Context, tenantID int32) ([]domain.Counterparty, error) {
	var out []domain.Counterparty
	err := r.v.with(func(st *state) error {
		for _, c := range st.counterparties {
			if c.TenantID == tenantID {
				out = append(out, c)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

type ruleRepo struct{ v view }

func (r ruleRepo) Replace(ctx context.Context, tenantID int32, owner domain.RuleOwner, rules []domain.CommissionRule) error {
	return r.v.with(func(st *state) error {
		key := ruleKey{tenantID: tenantID, owner: owner}
		if len(rules) == 0 {
			delete(st.rules, key)
			return nil
		}
		st.rules[key] = append([]domain.CommissionRule(nil), rules...)
		return nil
	})
}

func (r ruleRepo) List(ctx context.Context, tenantID int32, owner domain.RuleOwner) ([]domain.CommissionRule, error) {
	var out []domain.CommissionRule
	err := r.v.with(func(st *state) error {
		out = append(out, st.rules[ruleKey{tenantID: tenantID, owner: owner}]...)
		return nil
	})
	return out, err
}
