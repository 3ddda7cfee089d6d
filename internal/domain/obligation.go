package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ObligationKind string

const (
	ObligationReceivable ObligationKind = "receivable"
	ObligationPayable    ObligationKind = "payable"
)

func (k ObligationKind) Valid() bool {
	return k == ObligationReceivable || k == ObligationPayable
}

func (k ObligationKind) TargetKind() TargetKind {
	if k == ObligationPayable {
		return TargetPayable
	}
	return TargetReceivable
}

// Direction is the payment direction that normally settles this kind.
func (k ObligationKind) Direction() Direction {
	if k == ObligationPayable {
		return DirectionOutflow
	}
	return DirectionInflow
}

type ObligationStatus string

const (
	ObligationOpen    ObligationStatus = "open"
	ObligationOverdue ObligationStatus = "overdue"
	ObligationPaid    ObligationStatus = "paid"
)

// CategoryCommission marks payables generated by the commission calculator.
const CategoryCommission = "commission"

// Obligation is a receivable or payable tracked against a due date.
type Obligation struct {
	ID               int32            `json:"id"`
	TenantID         int32            `json:"tenant_id"`
	Kind             ObligationKind   `json:"kind"`
	CounterpartyID   int32            `json:"counterparty_id"`
	CounterpartyName string           `json:"counterparty_name,omitempty"`
	Description      string           `json:"description"`
	Amount           decimal.Decimal  `json:"amount"`
	PaidTotal        decimal.Decimal  `json:"paid_total"`
	DueDate          time.Time        `json:"due_date"`
	PaidDate         *time.Time       `json:"paid_date,omitempty"`
	Status           ObligationStatus `json:"status"`
	Category         string           `json:"category,omitempty"`
	Period           string           `json:"period,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

func (o *Obligation) Target() Target {
	return Target{Kind: o.Kind.TargetKind(), ID: o.ID}
}

func (o *Obligation) Remaining() decimal.Decimal {
	return o.Amount.Sub(o.PaidTotal)
}

type ObligationInput struct {
	CounterpartyID int32           `json:"counterparty_id"`
	Description    string          `json:"description"`
	Amount         decimal.Decimal `json:"amount"`
	DueDate        time.Time       `json:"due_date"`
}

func (in ObligationInput) Validate() error {
	if in.CounterpartyID <= 0 {
		return NewValidationError("counterparty_id", "is required")
	}
	if !in.Amount.IsPositive() {
		return NewValidationError("amount", "must be greater than zero")
	}
	if in.DueDate.IsZero() {
		return NewValidationError("due_date", "is required")
	}
	return nil
}
