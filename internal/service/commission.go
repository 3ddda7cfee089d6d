package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"reconledger-backend/internal/domain"
	"reconledger-backend/internal/events"
	"reconledger-backend/internal/logger"
	"reconledger-backend/internal/repository"
	"reconledger-backend/internal/settlement"
)

// DefaultCommissionDueDay is the day of the following month commission
// payables fall due.
const DefaultCommissionDueDay = 10

var hundred = decimal.NewFromInt(100)

type commissionService struct {
	store     repository.Store
	publisher events.Publisher
	status    statusEngine
	dueDay    int
}

func NewCommissionService(store repository.Store, publisher events.Publisher, clock Clock, dueDay int) CommissionService {
	if dueDay < 1 || dueDay > 28 {
		dueDay = DefaultCommissionDueDay
	}
	return &commissionService{store: store, publisher: publisher, status: statusEngine{clock: clock}, dueDay: dueDay}
}

func (s *commissionService) SetRules(ctx context.Context, tenantID int32, owner domain.RuleOwner, rules []domain.CommissionRule) error {
	logger.EnterMethod("commissionService.SetRules", "tenantID", tenantID, "owner", owner.Kind, "ownerID", owner.ID, "count", len(rules))

	if err := domain.ValidateRules(rules); err != nil {
		logger.ExitMethodWithError("commissionService.SetRules", err, "ownerID", owner.ID)
		return err
	}
	err := s.store.WithinTx(ctx, func(r *repository.Repositories) error {
		if err := checkRuleOwner(ctx, r, tenantID, owner); err != nil {
			return err
		}
		for _, rule := range rules {
			if _, err := r.Counterparties.GetByID(ctx, tenantID, rule.BeneficiaryID); err != nil {
				return err
			}
		}
		return r.CommissionRules.Replace(ctx, tenantID, owner, rules)
	})
	if err != nil {
		logger.ExitMethodWithError("commissionService.SetRules", err, "ownerID", owner.ID)
		return err
	}

	logger.ExitMethod("commissionService.SetRules", "ownerID", owner.ID)
	return nil
}

func (s *commissionService) GetRules(ctx context.Context, tenantID int32, owner domain.RuleOwner) ([]domain.CommissionRule, error) {
	repos := s.store.Repos()
	if err := checkRuleOwner(ctx, repos, tenantID, owner); err != nil {
		return nil, err
	}
	return repos.CommissionRules.List(ctx, tenantID, owner)
}

func checkRuleOwner(ctx context.Context, r *repository.Repositories, tenantID int32, owner domain.RuleOwner) error {
	switch owner.Kind {
	case domain.RuleOwnerCounterparty:
		_, err := r.Counterparties.GetByID(ctx, tenantID, owner.ID)
		return err
	case domain.RuleOwnerReceivable:
		_, err := r.Obligations.GetByID(ctx, tenantID, domain.ObligationReceivable, owner.ID)
		return err
	}
	return domain.NewValidationError("owner", "kind must be counterparty or receivable, got %q", owner.Kind)
}

// Calculate derives the period's commission payables from allocations on paid
// receivables and replaces the previous result for the period.
func (s *commissionService) Calculate(ctx context.Context, tenantID int32, period domain.Period) (*domain.CommissionResult, error) {
	logger.EnterMethod("commissionService.Calculate", "tenantID", tenantID, "period", period.Label())

	result := &domain.CommissionResult{Period: period.Label()}
	err := s.store.WithinTx(ctx, func(r *repository.Repositories) error {
		amounts, err := s.accumulate(ctx, r, tenantID, period)
		if err != nil {
			return err
		}

		existing, err := r.Obligations.ListCommissionPayables(ctx, tenantID, period.Label())
		if err != nil {
			return err
		}
		byBeneficiary := make(map[int32]domain.Obligation, len(existing))
		var stale []domain.Obligation
		for _, o := range existing {
			if _, dup := byBeneficiary[o.CounterpartyID]; dup {
				stale = append(stale, o)
				continue
			}
			byBeneficiary[o.CounterpartyID] = o
		}

		beneficiaries := make([]int32, 0, len(amounts))
		for b := range amounts {
			beneficiaries = append(beneficiaries, b)
		}
		sort.Slice(beneficiaries, func(i, j int) bool { return beneficiaries[i] < beneficiaries[j] })

		for _, b := range beneficiaries {
			amount := amounts[b]
			payableID, err := s.upsertPayable(ctx, r, tenantID, period, b, amount, byBeneficiary)
			if err != nil {
				return err
			}
			delete(byBeneficiary, b)
			result.Lines = append(result.Lines, domain.CommissionLine{BeneficiaryID: b, Amount: amount, PayableID: payableID})
		}

		for _, o := range byBeneficiary {
			stale = append(stale, o)
		}
		sort.Slice(stale, func(i, j int) bool { return stale[i].ID < stale[j].ID })
		for _, o := range stale {
			n, err := r.Allocations.CountByTarget(ctx, tenantID, o.Target())
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Warn("Commission payable already paid, keeping it", "payableID", o.ID, "allocations", n)
				result.Retained = append(result.Retained, o.ID)
				continue
			}
			if err := r.Obligations.Delete(ctx, tenantID, domain.ObligationPayable, o.ID); err != nil {
				return err
			}
			result.Removed = append(result.Removed, o.ID)
		}
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("commissionService.Calculate", err, "period", period.Label())
		return nil, err
	}

	publish(ctx, s.publisher, events.New(tenantID, events.CommissionCalculated, result))
	logger.ExitMethod("commissionService.Calculate", "period", period.Label(),
		"lines", len(result.Lines), "removed", len(result.Removed), "retained", len(result.Retained))
	return result, nil
}

// accumulate sums commission per beneficiary. The receivable's own rules win
// over its counterparty's; amounts are rounded to cents only at the end.
func (s *commissionService) accumulate(ctx context.Context, r *repository.Repositories, tenantID int32, period domain.Period) (map[int32]decimal.Decimal, error) {
	allocations, err := r.Allocations.ListCommissionable(ctx, tenantID, period)
	if err != nil {
		return nil, err
	}

	cache := make(map[domain.RuleOwner][]domain.CommissionRule)
	rulesOf := func(owner domain.RuleOwner) ([]domain.CommissionRule, error) {
		if rules, ok := cache[owner]; ok {
			return rules, nil
		}
		rules, err := r.CommissionRules.List(ctx, tenantID, owner)
		if err != nil {
			return nil, err
		}
		cache[owner] = rules
		return rules, nil
	}

	raw := make(map[int32]decimal.Decimal)
	for _, a := range allocations {
		rules, err := rulesOf(domain.RuleOwner{Kind: domain.RuleOwnerReceivable, ID: a.ReceivableID})
		if err != nil {
			return nil, err
		}
		if len(rules) == 0 {
			rules, err = rulesOf(domain.RuleOwner{Kind: domain.RuleOwnerCounterparty, ID: a.CounterpartyID})
			if err != nil {
				return nil, err
			}
		}
		for _, rule := range rules {
			raw[rule.BeneficiaryID] = raw[rule.BeneficiaryID].Add(a.Amount.Mul(rule.Percentage).Div(hundred))
		}
	}

	out := make(map[int32]decimal.Decimal, len(raw))
	for b, amount := range raw {
		if rounded := amount.Round(2); rounded.IsPositive() {
			out[b] = rounded
		}
	}
	return out, nil
}

func (s *commissionService) upsertPayable(ctx context.Context, r *repository.Repositories, tenantID int32, period domain.Period, beneficiaryID int32, amount decimal.Decimal, existing map[int32]domain.Obligation) (int32, error) {
	if o, ok := existing[beneficiaryID]; ok {
		if o.Amount.Equal(amount) {
			return o.ID, nil
		}
		o.Amount = amount
		if err := r.Obligations.Update(ctx, &o); err != nil {
			return 0, err
		}
		return o.ID, s.status.recompute(ctx, r, tenantID, o.Target())
	}

	due := s.dueDate(period)
	o := &domain.Obligation{
		TenantID:       tenantID,
		Kind:           domain.ObligationPayable,
		CounterpartyID: beneficiaryID,
		Description:    fmt.Sprintf("Commission %s", period.Label()),
		Amount:         amount,
		DueDate:        due,
		Status:         settlement.ObligationStatus(amount, decimal.Zero, due, s.status.clock()),
		Category:       domain.CategoryCommission,
		Period:         period.Label(),
	}
	if err := r.Obligations.Create(ctx, o); err != nil {
		return 0, err
	}
	return o.ID, nil
}

func (s *commissionService) dueDate(period domain.Period) time.Time {
	return period.End.AddDate(0, 0, s.dueDay-1)
}
