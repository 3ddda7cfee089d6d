package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type CustodyKind string

const (
	CustodyAsset     CustodyKind = "asset"
	CustodyLiability CustodyKind = "liability"
)

func (k CustodyKind) Valid() bool {
	return k == CustodyAsset || k == CustodyLiability
}

// CustodyKindFor is the custody kind the matcher pairs with a payment direction.
func CustodyKindFor(d Direction) CustodyKind {
	if d == DirectionOutflow {
		return CustodyLiability
	}
	return CustodyAsset
}

type CustodyStatus string

const (
	CustodyOpen    CustodyStatus = "open"
	CustodyPartial CustodyStatus = "partial"
	CustodySettled CustodyStatus = "settled"
)

// Custody tracks third-party funds in transit; it settles only when both the
// inflow and the outflow leg have been recorded.
type Custody struct {
	ID               int32           `json:"id"`
	TenantID         int32           `json:"tenant_id"`
	Kind             CustodyKind     `json:"kind"`
	CounterpartyID   int32           `json:"counterparty_id"`
	CounterpartyName string          `json:"counterparty_name,omitempty"`
	Description      string          `json:"description"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	SettledAmount    decimal.Decimal `json:"settled_amount"`
	InflowTotal      decimal.Decimal `json:"inflow_total"`
	OutflowTotal     decimal.Decimal `json:"outflow_total"`
	Status           CustodyStatus   `json:"status"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func (c *Custody) Target() Target {
	return Target{Kind: TargetCustody, ID: c.ID}
}

// LegRemaining is what is still missing on the given leg.
func (c *Custody) LegRemaining(d Direction) decimal.Decimal {
	if d == DirectionOutflow {
		return c.TotalAmount.Sub(c.OutflowTotal)
	}
	return c.TotalAmount.Sub(c.InflowTotal)
}

type CustodyInput struct {
	Kind           CustodyKind     `json:"kind"`
	CounterpartyID int32           `json:"counterparty_id"`
	Description    string          `json:"description"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
}

func (in CustodyInput) Validate() error {
	if !in.Kind.Valid() {
		return NewValidationError("kind", "must be asset or liability, got %q", in.Kind)
	}
	if in.CounterpartyID <= 0 {
		return NewValidationError("counterparty_id", "is required")
	}
	if !in.TotalAmount.IsPositive() {
		return NewValidationError("total_amount", "must be greater than zero")
	}
	return nil
}
