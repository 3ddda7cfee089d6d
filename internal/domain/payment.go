package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment is a single cash movement on one bank account.
type Payment struct {
	ID        int32           `json:"id"`
	TenantID  int32           `json:"tenant_id"`
	AccountID int32           `json:"account_id"`
	Direction Direction       `json:"direction"`
	Amount    decimal.Decimal `json:"amount"`
	Date      time.Time       `json:"date"`
	Memo      string          `json:"memo"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// SignedAmount is the balance delta this payment applies to its account.
func (p *Payment) SignedAmount() decimal.Decimal {
	return p.Amount.Mul(p.Direction.Sign())
}

type PaymentInput struct {
	AccountID int32           `json:"account_id"`
	Direction Direction       `json:"direction"`
	Amount    decimal.Decimal `json:"amount"`
	Date      time.Time       `json:"date"`
	Memo      string          `json:"memo"`
}

func (in PaymentInput) Validate() error {
	if in.AccountID <= 0 {
		return NewValidationError("account_id", "is required")
	}
	if !in.Direction.Valid() {
		return NewValidationError("direction", "must be inflow or outflow, got %q", in.Direction)
	}
	if !in.Amount.IsPositive() {
		return NewValidationError("amount", "must be greater than zero")
	}
	if in.Date.IsZero() {
		return NewValidationError("date", "is required")
	}
	return nil
}

// PaymentUpdate carries the editable fields; nil means unchanged.
type PaymentUpdate struct {
	AccountID *int32           `json:"account_id,omitempty"`
	Direction *Direction       `json:"direction,omitempty"`
	Amount    *decimal.Decimal `json:"amount,omitempty"`
	Date      *time.Time       `json:"date,omitempty"`
	Memo      *string          `json:"memo,omitempty"`
}

func (u PaymentUpdate) Apply(p Payment) Payment {
	if u.AccountID != nil {
		p.AccountID = *u.AccountID
	}
	if u.Direction != nil {
		p.Direction = *u.Direction
	}
	if u.Amount != nil {
		p.Amount = *u.Amount
	}
	if u.Date != nil {
		p.Date = *u.Date
	}
	if u.Memo != nil {
		p.Memo = *u.Memo
	}
	return p
}

type PaymentFilter struct {
	AccountID int32
	Direction Direction
	Period    *Period
}
