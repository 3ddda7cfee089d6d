// Package memory is an in-process implementation of the ledger repositories.
//
// Transactions are copy-on-write: WithinTx runs against a private copy of the
// state and swaps it in only when the callback succeeds, so a failed
// operation leaves no partial writes behind. One transaction runs at a time.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"reconledger-backend/internal/domain"
	"reconledger-backend/internal/repository"
)

type ruleKey struct {
	tenantID int32
	owner    domain.RuleOwner
}

type state struct {
	nextID         int32
	accounts       map[int32]domain.BankAccount
	payments       map[int32]domain.Payment
	allocations    map[int32]domain.Allocation
	receivables    map[int32]domain.Obligation
	payables       map[int32]domain.Obligation
	custodies      map[int32]domain.Custody
	transfers      map[int32]domain.Transfer
	counterparties map[int32]domain.Counterparty
	rules          map[ruleKey][]domain.CommissionRule
}

func newState() *state {
	return &state{
		accounts:       make(map[int32]domain.BankAccount),
		payments:       make(map[int32]domain.Payment),
		allocations:    make(map[int32]domain.Allocation),
		receivables:    make(map[int32]domain.Obligation),
		payables:       make(map[int32]domain.Obligation),
		custodies:      make(map[int32]domain.Custody),
		transfers:      make(map[int32]domain.Transfer),
		counterparties: make(map[int32]domain.Counterparty),
		rules:          make(map[ruleKey][]domain.CommissionRule),
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *state) clone() *state {
	rules := make(map[ruleKey][]domain.CommissionRule, len(s.rules))
	for k, v := range s.rules {
		rules[k] = append([]domain.CommissionRule(nil), v...)
	}
	return &state{
		nextID:         s.nextID,
		accounts:       cloneMap(s.accounts),
		payments:       cloneMap(s.payments),
		allocations:    cloneMap(s.allocations),
		receivables:    cloneMap(s.receivables),
		payables:       cloneMap(s.payables),
		custodies:      cloneMap(s.custodies),
		transfers:      cloneMap(s.transfers),
		counterparties: cloneMap(s.counterparties),
		rules:          rules,
	}
}

func (s *state) id() int32 {
	s.nextID++
	return s.nextID
}

func (s *state) obligations(kind domain.ObligationKind) map[int32]domain.Obligation {
	if kind == domain.ObligationPayable {
		return s.payables
	}
	return s.receivables
}

// Store implements repository.Store.
type Store struct {
	mu    sync.Mutex
	st    *state
	repos *repository.Repositories
	now   func() time.Time
}

func NewStore() *Store {
	s := &Store{st: newState(), now: time.Now}
	s.repos = newRepositories(view{store: s})
	return s
}

func (s *Store) Repos() *repository.Repositories {
	return s.repos
}

func (s *Store) WithinTx(ctx context.Context, fn func(r *repository.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	working := s.st.clone()
	if err := fn(newRepositories(view{st: working, now: s.now})); err != nil {
		return err
	}
	s.st = working
	return nil
}

// view resolves the state a repository call works on: the live state under
// the store lock, or the private copy of a running transaction.
type view struct {
	store *Store
	st    *state
	now   func() time.Time
}

func (v view) with(fn func(st *state) error) error {
	if v.store == nil {
		return fn(v.st)
	}
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	return fn(v.store.st)
}

func (v view) timeNow() time.Time {
	if v.store != nil {
		return v.store.now()
	}
	return v.now()
}

func newRepositories(v view) *repository.Repositories {
	return &repository.Repositories{
		Accounts:        accountRepo{v},
		Payments:        paymentRepo{v},
		Allocations:     allocationRepo{v},
		Obligations:     obligationRepo{v},
		Custodies:       custodyRepo{v},
		Transfers:       transferRepo{v},
		Counterparties:  counterpartyRepo{v},
		CommissionRules: ruleRepo{v},
	}
}

// totals sums the allocations on a target. Callers hold the state.
func (s *state) totals(tenantID int32, target domain.Target) domain.TargetTotals {
	t := domain.TargetTotals{Inflow: decimal.Zero, Outflow: decimal.Zero}
	for _, a := range s.allocations {
		if a.TenantID != tenantID || a.Target != target {
			continue
		}
		p, ok := s.payments[a.PaymentID]
		if !ok {
			continue
		}
		if p.Direction == domain.DirectionOutflow {
			t.Outflow = t.Outflow.Add(a.Amount)
		} else {
			t.Inflow = t.Inflow.Add(a.Amount)
		}
		if t.LastPaymentDate == nil || p.Date.After(*t.LastPaymentDate) {
			d := p.Date
			t.LastPaymentDate = &d
		}
	}
	return t
}
