package staging

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reconledger-backend/internal/domain"
)

func TestMemoryStager_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStager(time.Minute)
	batch := domain.StagedImport{
		Token:     "abc",
		TenantID:  1,
		AccountID: 2,
		Rows:      []domain.StatementRow{{Line: 3, Amount: decimal.NewFromInt(10), Memo: "x"}},
	}
	require.NoError(t, s.Save(ctx, batch))

	got, err := s.Load(ctx, 1, "abc")
	require.NoError(t, err)
	assert.Equal(t, int32(2), got.AccountID)
	assert.Len(t, got.Rows, 1)

	require.NoError(t, s.Delete(ctx, "abc"))
	_, err = s.Load(ctx, 1, "abc")
	var nf *domain.NotFoundError
	assert.True(t, errors.As(err, &nf))
}

func TestMemoryStager_ForeignTenant(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStager(time.Minute)
	require.NoError(t, s.Save(ctx, domain.StagedImport{Token: "abc", TenantID: 1}))

	_, err := s.Load(ctx, 2, "abc")
	assert.Error(t, err)
}

func TestMemoryStager_Expires(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStager(time.Minute)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	require.NoError(t, s.Save(ctx, domain.StagedImport{Token: "abc", TenantID: 1}))

	now = now.Add(2 * time.Minute)
	_, err := s.Load(ctx, 1, "abc")
	assert.Error(t, err)
}
