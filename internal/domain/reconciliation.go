package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Evidence records why the matcher linked a payment to a target.
type Evidence struct {
	FullName    bool     `json:"full_name"`
	SharedWords []string `json:"shared_words,omitempty"`
}

type ReconciliationMatch struct {
	PaymentID    int32           `json:"payment_id"`
	Target       Target          `json:"target"`
	Amount       decimal.Decimal `json:"amount"`
	Evidence     Evidence        `json:"evidence"`
	AllocationID int32           `json:"allocation_id,omitempty"`
}

type SuggestionCandidate struct {
	Target      Target          `json:"target"`
	Name        string          `json:"name"`
	Amount      decimal.Decimal `json:"amount"`
	DueDate     *time.Time      `json:"due_date,omitempty"`
	SharedWords int             `json:"shared_words"`
}

type ReconciliationSuggestion struct {
	PaymentID  int32                 `json:"payment_id"`
	Candidates []SuggestionCandidate `json:"candidates"`
}

type ReconciliationResult struct {
	Period      string                     `json:"period"`
	Scanned     int                        `json:"scanned"`
	Matches     []ReconciliationMatch      `json:"matches"`
	Suggestions []ReconciliationSuggestion `json:"suggestions"`
	Unmatched   []int32                    `json:"unmatched"`
}
