package domain

import (
	"github.com/shopspring/decimal"
)

type RuleOwnerKind string

const (
	RuleOwnerCounterparty RuleOwnerKind = "counterparty"
	RuleOwnerReceivable   RuleOwnerKind = "receivable"
)

// RuleOwner is the entity a set of commission rules is attached to.
type RuleOwner struct {
	Kind RuleOwnerKind `json:"kind"`
	ID   int32         `json:"id"`
}

type CommissionRule struct {
	BeneficiaryID int32           `json:"beneficiary_id"`
	Percentage    decimal.Decimal `json:"percentage"`
}

func ValidateRules(rules []CommissionRule) error {
	seen := make(map[int32]bool, len(rules))
	hundred := decimal.NewFromInt(100)
	for _, r := range rules {
		if r.BeneficiaryID <= 0 {
			return NewValidationError("beneficiary_id", "is required")
		}
		if !r.Percentage.IsPositive() || r.Percentage.GreaterThan(hundred) {
			return NewValidationError("percentage", "must be in (0, 100], got %s", r.Percentage)
		}
		if seen[r.BeneficiaryID] {
			return NewValidationError("beneficiary_id", "%d listed more than once", r.BeneficiaryID)
		}
		seen[r.BeneficiaryID] = true
	}
	return nil
}

// CommissionableAllocation is an allocation paying a receivable that is
// already paid, as read by the commission calculator.
type CommissionableAllocation struct {
	AllocationID   int32
	ReceivableID   int32
	CounterpartyID int32
	Amount         decimal.Decimal
}

type CommissionLine struct {
	BeneficiaryID int32           `json:"beneficiary_id"`
	Amount        decimal.Decimal `json:"amount"`
	PayableID     int32           `json:"payable_id"`
}

type CommissionResult struct {
	Period   string           `json:"period"`
	Lines    []CommissionLine `json:"lines"`
	Removed  []int32          `json:"removed_payable_ids"`
	Retained []int32          `json:"retained_payable_ids"`
}
