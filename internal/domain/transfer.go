package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransferStatus string

const (
	TransferPending    TransferStatus = "pending"
	TransferMismatched TransferStatus = "mismatched"
	TransferComplete   TransferStatus = "complete"
)

// Transfer is an internal movement between two of the tenant's accounts,
// expected to net as one outflow plus one matching inflow.
type Transfer struct {
	ID            int32           `json:"id"`
	TenantID      int32           `json:"tenant_id"`
	FromAccountID int32           `json:"from_account_id"`
	ToAccountID   int32           `json:"to_account_id"`
	Amount        decimal.Decimal `json:"amount"`
	Date          time.Time       `json:"date"`
	Status        TransferStatus  `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (t *Transfer) Target() Target {
	return Target{Kind: TargetTransfer, ID: t.ID}
}

// LegAccount is the account a payment must belong to for the given leg.
func (t *Transfer) LegAccount(d Direction) int32 {
	if d == DirectionOutflow {
		return t.FromAccountID
	}
	return t.ToAccountID
}

type TransferInput struct {
	FromAccountID int32           `json:"from_account_id"`
	ToAccountID   int32           `json:"to_account_id"`
	Amount        decimal.Decimal `json:"amount"`
	Date          time.Time       `json:"date"`
}

func (in TransferInput) Validate() error {
	if in.FromAccountID <= 0 || in.ToAccountID <= 0 {
		return NewValidationError("accounts", "from_account_id and to_account_id are required")
	}
	if in.FromAccountID == in.ToAccountID {
		return NewValidationError("to_account_id", "must differ from from_account_id")
	}
	if !in.Amount.IsPositive() {
		return NewValidationError("amount", "must be greater than zero")
	}
	return nil
}
