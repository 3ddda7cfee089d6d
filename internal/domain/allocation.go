package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type TargetKind string

const (
	TargetReceivable TargetKind = "receivable"
	TargetPayable    TargetKind = "payable"
	TargetCustody    TargetKind = "custody"
	TargetTransfer   TargetKind = "transfer"
)

func (k TargetKind) Valid() bool {
	switch k {
	case TargetReceivable, TargetPayable, TargetCustody, TargetTransfer:
		return true
	}
	return false
}

// Target identifies the one ledger entry an allocation pays down.
type Target struct {
	Kind TargetKind `json:"kind"`
	ID   int32      `json:"id"`
}

func (t Target) String() string {
	return fmt.Sprintf("%s:%d", t.Kind, t.ID)
}

func (t Target) Validate() error {
	if !t.Kind.Valid() {
		return NewValidationError("target", "kind %q is not a valid allocation target", t.Kind)
	}
	if t.ID <= 0 {
		return NewValidationError("target", "id is required")
	}
	return nil
}

// TargetRefs is the wire form of a target: exactly one id must be set.
type TargetRefs struct {
	ReceivableID *int32 `json:"receivable_id,omitempty"`
	PayableID    *int32 `json:"payable_id,omitempty"`
	CustodyID    *int32 `json:"custody_id,omitempty"`
	TransferID   *int32 `json:"transfer_id,omitempty"`
}

func (r TargetRefs) IsEmpty() bool {
	return r.ReceivableID == nil && r.PayableID == nil && r.CustodyID == nil && r.TransferID == nil
}

// Target resolves the refs into a single target.
func (r TargetRefs) Target() (Target, error) {
	var found []Target
	if r.ReceivableID != nil {
		found = append(found, Target{Kind: TargetReceivable, ID: *r.ReceivableID})
	}
	if r.PayableID != nil {
		found = append(found, Target{Kind: TargetPayable, ID: *r.PayableID})
	}
	if r.CustodyID != nil {
		found = append(found, Target{Kind: TargetCustody, ID: *r.CustodyID})
	}
	if r.TransferID != nil {
		found = append(found, Target{Kind: TargetTransfer, ID: *r.TransferID})
	}
	switch len(found) {
	case 0:
		return Target{}, NewValidationError("target", "exactly one target must be set, got none")
	case 1:
		return found[0], found[0].Validate()
	default:
		return Target{}, NewValidationError("target", "exactly one target must be set, got %d", len(found))
	}
}

type Allocation struct {
	ID        int32           `json:"id"`
	TenantID  int32           `json:"tenant_id"`
	PaymentID int32           `json:"payment_id"`
	Target    Target          `json:"target"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type AllocationInput struct {
	PaymentID int32           `json:"payment_id"`
	Target    Target          `json:"target"`
	Amount    decimal.Decimal `json:"amount"`
}

type AllocationUpdate struct {
	Target *Target          `json:"target,omitempty"`
	Amount *decimal.Decimal `json:"amount,omitempty"`
}

// TargetTotals aggregates the allocations pointing at one target, split by
// the direction of the payments behind them.
type TargetTotals struct {
	Inflow          decimal.Decimal
	Outflow         decimal.Decimal
	LastPaymentDate *time.Time
}

func (t TargetTotals) Total() decimal.Decimal {
	return t.Inflow.Add(t.Outflow)
}

func (t TargetTotals) Leg(d Direction) decimal.Decimal {
	if d == DirectionOutflow {
		return t.Outflow
	}
	return t.Inflow
}
