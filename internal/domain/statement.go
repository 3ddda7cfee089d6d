package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// StatementRow is one line of a bank statement; Amount is signed.
type StatementRow struct {
	Line   int             `json:"line"`
	Date   time.Time       `json:"date"`
	Amount decimal.Decimal `json:"amount"`
	Memo   string          `json:"memo"`
}

func (r StatementRow) Direction() Direction {
	if r.Amount.IsNegative() {
		return DirectionOutflow
	}
	return DirectionInflow
}

type ImportStatus string

const (
	ImportCompleted            ImportStatus = "completed"
	ImportRequiresConfirmation ImportStatus = "requires_confirmation"
)

type PotentialDuplicate struct {
	Index        int          `json:"index"`
	Row          StatementRow `json:"row"`
	ExistingID   int32        `json:"existing_payment_id"`
	ExistingMemo string       `json:"existing_memo"`
}

type ImportResult struct {
	Status              ImportStatus         `json:"status"`
	Token               string               `json:"token,omitempty"`
	Imported            []int32              `json:"imported_payment_ids"`
	Skipped             []int                `json:"skipped_rows"`
	PotentialDuplicates []PotentialDuplicate `json:"potential_duplicates,omitempty"`
}

// StagedImport is a statement batch waiting for duplicate confirmation.
type StagedImport struct {
	Token     string         `json:"token"`
	TenantID  int32          `json:"tenant_id"`
	AccountID int32          `json:"account_id"`
	Rows      []StatementRow `json:"rows"`
	CreatedAt time.Time      `json:"created_at"`
}
