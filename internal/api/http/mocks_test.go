package http

import (
	"context"

	"github.com/stretchr/testify/mock"

	"reconledger-backend/internal/domain"
)

// MockReconciliationService
type MockReconciliationService struct {
	mock.Mock
}

func (m *MockReconciliationService) Reconcile(ctx context.Context, tenantID int32, period domain.Period) (*domain.ReconciliationResult, error) {
	args := m.Called(ctx, tenantID, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReconciliationResult), args.Error(1)
}

func (m *MockReconciliationService) ConfirmSuggestion(ctx context.Context, tenantID, paymentID int32, target domain.Target) (*domain.Allocation, error) {
	args := m.Called(ctx, tenantID, paymentID, target)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Allocation), args.Error(1)
}
