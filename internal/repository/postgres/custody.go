package postgres

import (
	"context"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"reconledger-backend/internal/domain"
	"reconledger-backend/internal/logger"
	"reconledger-backend/internal/repository"
)

const custodySelect = `
	SELECT c.id, c.tenant_id, c.kind, c.counterparty_id, COALESCE(cp.name, ''), c.description,
	       c.total_amount, c.settled_amount,
	       COALESCE(t.inflow, 0), COALESCE(t.outflow, 0),
	       c.status, c.created_at, c.updated_at
	FROM custodies c
	LEFT JOIN counterparties cp ON cp.id = c.counterparty_id
	LEFT JOIN LATERAL (
		SELECT SUM(a.amount) FILTER (WHERE p.direction = 'inflow')  AS inflow,
		       SUM(a.amount) FILTER (WHERE p.direction = 'outflow') AS outflow
		FROM allocations a
		JOIN payments p ON p.id = a.payment_id
		WHERE a.tenant_id = c.tenant_id AND a.target_kind = 'custody' AND a.target_id = c.id
	) t ON TRUE
`

func scanCustody(s scanner, c *domain.Custody) error {
	return s.Scan(&c.ID, &c.TenantID, &c.Kind, &c.CounterpartyID, &c.CounterpartyName, &c.Description,
		&c.TotalAmount, &c.SettledAmount, &c.InflowTotal, &c.OutflowTotal, &c.Status, &c.CreatedAt, &c.UpdatedAt)
}

type custodyRepository struct {
	db DBTX
}

func NewCustodyRepository(db DBTX) repository.CustodyRepository {
	return &custodyRepository{db: db}
}

func (r *custodyRepository) Create(ctx context.Context, c *domain.Custody) error {
	logger.EnterMethod("custodyRepository.Create", "tenantID", c.TenantID, "kind", c.Kind)

	if c.Status == "" {
		c.Status = domain.CustodyOpen
	}
	query := `INSERT INTO custodies (tenant_id, kind, counterparty_id, description, total_amount, settled_amount,
	                                 status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id, created_at, updated_at`
	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		c.TenantID, c.Kind, c.CounterpartyID, c.Description, c.TotalAmount, c.SettledAmount, c.Status, now, now,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		logger.ExitMethodWithError("custodyRepository.Create", err, "tenantID", c.TenantID)
		return err
	}

	logger.ExitMethod("custodyRepository.Create", "custodyID", c.ID)
	return nil
}

func (r *custodyRepository) GetByID(ctx context.Context, tenantID, id int32) (*domain.Custody, error) {
	c := &domain.Custody{}
	err := scanCustody(r.db.QueryRowContext(ctx, custodySelect+` WHERE c.id = $1 AND c.tenant_id = $2`, id, tenantID), c)
	if err != nil {
		return nil, notFound(err, "custody", id)
	}
	return c, nil
}

func (r *custodyRepository) List(ctx context.Context, tenantID int32, statuses []domain.CustodyStatus) ([]domain.Custody, error) {
	query := custodySelect + ` WHERE c.tenant_id = $1`
	args := []interface{}{tenantID}
	if len(statuses) > 0 {
		statusStrs := make([]string, len(statuses))
		for i, s := range statuses {
			statusStrs[i] = string(s)
		}
		query += " AND c.status = ANY($2)"
		args = append(args, pq.Array(statusStrs))
	}
	query += " ORDER BY c.id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Custody
	for rows.Next() {
		var c domain.Custody
		if err := scanCustody(rows, &c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *custodyRepository) UpdateSettlement(ctx context.Context, tenantID, id int32, settled decimal.Decimal, status domain.CustodyStatus) error {
	query := `UPDATE custodies SET settled_amount = $1, status = $2, updated_at = $3 WHERE id = $4 AND tenant_id = $5`
	res, err := r.db.ExecContext(ctx, query, settled, status, time.Now(), id, tenantID)
	if err != nil {
		return err
	}
	return expectRow(res, "custody", id)
}
