package postgres

import (
	"context"
	"time"

	"reconledger-backend/internal/domain"
	"reconledger-backend/internal/logger"
	"reconledger-backend/internal/repository"
)

const transferColumns = `id, tenant_id, from_account_id, to_account_id, amount, date, status, created_at, updated_at`

func scanTransfer(s scanner, t *domain.Transfer) error {
	return s.Scan(&t.ID, &t.TenantID, &t.FromAccountID, &t.ToAccountID, &t.Amount, &t.Date, &t.Status, &t.CreatedAt, &t.UpdatedAt)
}

type transferRepository struct {
	db DBTX
}

func NewTransferRepository(db DBTX) repository.TransferRepository {
	return &transferRepository{db: db}
}

func (r *transferRepository) Create(ctx context.Context, t *domain.Transfer) error {
	logger.EnterMethod("transferRepository.Create", "from", t.FromAccountID, "to", t.ToAccountID)

	if t.Status == "" {
		t.Status = domain.TransferPending
	}
	query := `INSERT INTO transfers (tenant_id, from_account_id, to_account_id, amount, date, status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id, created_at, updated_at`
	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		t.TenantID, t.FromAccountID, t.ToAccountID, t.Amount, t.Date, t.Status, now, now,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		logger.ExitMethodWithError("transferRepository.Create", err)
		return err
	}

	logger.ExitMethod("transferRepository.Create", "transferID", t.ID)
	return nil
}

func (r *transferRepository) GetByID(ctx context.Context, tenantID, id int32) (*domain.Transfer, error) {
	t := &domain.Transfer{}
	query := `SELECT ` + transferColumns + ` FROM transfers WHERE id = $1 AND tenant_id = $2`
	if err := scanTransfer(r.db.QueryRowContext(ctx, query, id, tenantID), t); err != nil {
		return nil, notFound(err, "transfer", id)
	}
	return t, nil
}

func (r *transferRepository) List(ctx context.Context, tenantID int32) ([]domain.Transfer, error) {
	query := `SELECT ` + transferColumns + ` FROM transfers WHERE tenant_id = $1 ORDER BY date DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Transfer
	for rows.Next() {
		var t domain.Transfer
		if err := scanTransfer(rows, &t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *transferRepository) UpdateStatus(ctx context.Context, tenantID, id int32, status domain.TransferStatus) error {
	query := `UPDATE transfers SET status = $1, updated_at = $2 WHERE id = $3 AND tenant_id = $4`
	res, err := r.db.ExecContext(ctx, query, status, time.Now(), id, tenantID)
	if err != nil {
		return err
	}
	return expectRow(res, "transfer", id)
}
