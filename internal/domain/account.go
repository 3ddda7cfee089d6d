package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type BankAccount struct {
	ID        int32           `json:"id"`
	TenantID  int32           `json:"tenant_id"`
	Name      string          `json:"name"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
}

type Counterparty struct {
	ID        int32     `json:"id"`
	TenantID  int32     `json:"tenant_id"`
	Name      string    `json:"name"`
	Document  string    `json:"document,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
