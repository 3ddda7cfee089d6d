// Package settlement derives the settlement status of ledger targets from the
// allocations recorded against them. Every function here is pure.
package settlement

import (
	"time"

	"github.com/shopspring/decimal"

	"reconledger-backend/internal/domain"
)

// ObligationStatus derives the status of a receivable or payable.
func ObligationStatus(amount, paidTotal decimal.Decimal, dueDate, today time.Time) domain.ObligationStatus {
	if paidTotal.GreaterThanOrEqual(amount) {
		return domain.ObligationPaid
	}
	if domain.Today(dueDate).Before(domain.Today(today)) {
		return domain.ObligationOverdue
	}
	return domain.ObligationOpen
}

// CustodySettled is the amount of a custody covered by both legs. A one-sided
// movement never counts as settlement, whatever the custody kind.
func CustodySettled(inflowTotal, outflowTotal decimal.Decimal) decimal.Decimal {
	return decimal.Min(inflowTotal, outflowTotal)
}

// CustodyStatus derives the custody status from its settled amount.
func CustodyStatus(totalAmount, settledAmount decimal.Decimal) domain.CustodyStatus {
	switch {
	case settledAmount.GreaterThanOrEqual(totalAmount):
		return domain.CustodySettled
	case settledAmount.IsPositive():
		return domain.CustodyPartial
	default:
		return domain.CustodyOpen
	}
}

// TransferStatus compares both legs with strict equality.
func TransferStatus(outTotal, inTotal decimal.Decimal) domain.TransferStatus {
	if outTotal.IsZero() && inTotal.IsZero() {
		return domain.TransferPending
	}
	if outTotal.Equal(inTotal) {
		return domain.TransferComplete
	}
	return domain.TransferMismatched
}
