package settlement

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"reconledger-backend/internal/domain"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestObligationStatus(t *testing.T) {
	today := time.Date(2026, 10, 16, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		amount  string
		paid    string
		dueDate time.Time
		want    domain.ObligationStatus
	}{
		{"fully paid", "1000", "1000", today.AddDate(0, 0, 5), domain.ObligationPaid},
		{"overpaid and late", "1000", "1200", today.AddDate(0, 0, -5), domain.ObligationPaid},
		{"partial and on time", "1000", "500", today.AddDate(0, 0, 5), domain.ObligationOpen},
		{"partial and late", "1000", "500", today.AddDate(0, 0, -1), domain.ObligationOverdue},
		{"due today is not overdue", "1000", "0", time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC), domain.ObligationOpen},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ObligationStatus(d(tt.amount), d(tt.paid), tt.dueDate, today))
		})
	}
}

func TestCustodySettlement(t *testing.T) {
	t.Run("one-sided movement never settles", func(t *testing.T) {
		settled := CustodySettled(d("12600"), decimal.Zero)
		assert.True(t, settled.IsZero())
		assert.Equal(t, domain.CustodyOpen, CustodyStatus(d("12600"), settled))
	})

	t.Run("both legs settle", func(t *testing.T) {
		settled := CustodySettled(d("12600"), d("12600"))
		assert.True(t, settled.Equal(d("12600")))
		assert.Equal(t, domain.CustodySettled, CustodyStatus(d("12600"), settled))
	})

	t.Run("smaller leg bounds settlement", func(t *testing.T) {
		settled := CustodySettled(d("12600"), d("4000"))
		assert.True(t, settled.Equal(d("4000")))
		assert.Equal(t, domain.CustodyPartial, CustodyStatus(d("12600"), settled))
	})
}

func TestTransferStatus(t *testing.T) {
	assert.Equal(t, domain.TransferPending, TransferStatus(decimal.Zero, decimal.Zero))
	assert.Equal(t, domain.TransferComplete, TransferStatus(d("250.00"), d("250")))
	assert.Equal(t, domain.TransferMismatched, TransferStatus(d("250"), d("249.99")))
	assert.Equal(t, domain.TransferMismatched, TransferStatus(d("250"), decimal.Zero))
	assert.Equal(t, domain.TransferMismatched, TransferStatus(decimal.Zero, d("10")))
}
