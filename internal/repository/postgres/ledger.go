package postgres

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"reconledger-backend/internal/domain"
	"reconledger-backend/internal/logger"
	"reconledger-backend/internal/repository"
)

type bankAccountRepository struct {
	db DBTX
}

func NewBankAccountRepository(db DBTX) repository.BankAccountRepository {
	return &bankAccountRepository{db: db}
}

func (r *bankAccountRepository) Create(ctx context.Context, acc *domain.BankAccount) error {
	logger.EnterMethod("bankAccountRepository.Create", "tenantID", acc.TenantID, "name", acc.Name)

	query := `INSERT INTO bank_accounts (tenant_id, name, balance, created_at)
	          VALUES ($1, $2, $3, $4) RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, acc.TenantID, acc.Name, acc.Balance, time.Now()).Scan(&acc.ID, &acc.CreatedAt)
	if err != nil {
		logger.ExitMethodWithError("bankAccountRepository.Create", err, "tenantID", acc.TenantID)
		return err
	}

	logger.ExitMethod("bankAccountRepository.Create", "accountID", acc.ID)
	return nil
}

func (r *bankAccountRepository) GetByID(ctx context.Context, tenantID, id int32) (*domain.BankAccount, error) {
	query := `SELECT id, tenant_id, name, balance, created_at FROM bank_accounts WHERE id = $1 AND tenant_id = $2`
	acc := &domain.BankAccount{}
	err := r.db.QueryRowContext(ctx, query, id, tenantID).Scan(&acc.ID, &acc.TenantID, &acc.Name, &acc.Balance, &acc.CreatedAt)
	if err != nil {
		return nil, notFound(err, "bank account", id)
	}
	return acc, nil
}

func (r *bankAccountRepository) List(ctx context.Context, tenantID int32) ([]domain.BankAccount, error) {
	query := `SELECT id, tenant_id, name, balance, created_at FROM bank_accounts WHERE tenant_id = $1 ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []domain.BankAccount
	for rows.Next() {
		var acc domain.BankAccount
		if err := rows.Scan(&acc.ID, &acc.TenantID, &acc.Name, &acc.Balance, &acc.CreatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, acc)
	}
	return accounts, rows.Err()
}

// ApplyDelta increments in the UPDATE itself; the row lock it takes is held
// until the caller's transaction ends.
func (r *bankAccountRepository) ApplyDelta(ctx context.Context, tenantID, id int32, delta decimal.Decimal) (decimal.Decimal, error) {
	logger.EnterMethod("bankAccountRepository.ApplyDelta", "accountID", id, "delta", delta.String())

	query := `UPDATE bank_accounts SET balance = balance + $1 WHERE id = $2 AND tenant_id = $3 RETURNING balance`
	logger.DatabaseCall("update", query, "accountID", id)
	var balance decimal.Decimal
	err := r.db.QueryRowContext(ctx, query, delta, id, tenantID).Scan(&balance)
	if err != nil {
		err = notFound(err, "bank account", id)
		logger.ExitMethodWithError("bankAccountRepository.ApplyDelta", err, "accountID", id)
		return decimal.Zero, err
	}

	logger.ExitMethod("bankAccountRepository.ApplyDelta", "accountID", id, "balance", balance.String())
	return balance, nil
}

func (r *bankAccountRepository) ListTenants(ctx context.Context) ([]int32, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT tenant_id FROM bank_accounts ORDER BY tenant_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenants []int32
	for rows.Next() {
		var id int32
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		tenants = append(tenants, id)
	}
	return tenants, rows.Err()
}

type counterpartyRepository struct {
	db DBTX
}

func NewCounterpartyRepository(db DBTX) repository.CounterpartyRepository {
	return &counterpartyRepository{db: db}
}

func (r *counterpartyRepository) Create(ctx context.Context, c *domain.Counterparty) error {
	query := `INSERT INTO counterparties (tenant_id, name, document, created_at)
	          VALUES ($1, $2, $3, $4) RETURNING id, created_at`
	return r.db.QueryRowContext(ctx, query, c.TenantID, c.Name, c.Document, time.Now()).Scan(&c.ID, &c.CreatedAt)
}

func (r *counterpartyRepository) GetByID(ctx context.Context, tenantID, id int32) (*domain.Counterparty, error) {
	query := `SELECT id, tenant_id, name, document, created_at FROM counterparties WHERE id = $1 AND tenant_id = $2`
	c := &domain.Counterparty{}
	err := r.db.QueryRowContext(ctx, query, id, tenantID).Scan(&c.ID, &c.TenantID, &c.Name, &c.Document, &c.CreatedAt)
	if err != nil {
		return nil, notFound(err, "counterparty", id)
	}
	return c, nil
}

func (r *counterpartyRepository) List(ctx context.Context, tenantID int32) ([]domain.Counterparty, error) {
	query := `SELECT id, tenant_id, name, document, created_at FROM counterparties WHERE tenant_id = $1 ORDER BY name, id`
	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Counterparty
	for rows.Next() {
		var c domain.Counterparty
		if err := rows.Scan(&c.ID, &c.TenantID, &c.Name, &c.Document, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type commissionRuleRepository struct {
	db DBTX
}

func NewCommissionRuleRepository(db DBTX) repository.CommissionRuleRepository {
	return &commissionRuleRepository{db: db}
}

// Replace must run inside a transaction for the swap to be atomic.
func (r *commissionRuleRepository) Replace(ctx context.Context, tenantID int32, owner domain.RuleOwner, rules []domain.CommissionRule) error {
	logger.EnterMethod("commissionRuleRepository.Replace", "tenantID", tenantID, "owner", owner.Kind, "ownerID", owner.ID, "count", len(rules))

	_, err := r.db.ExecContext(ctx,
		`DELETE FROM commission_rules WHERE tenant_id = $1 AND owner_kind = $2 AND owner_id = $3`,
		tenantID, owner.Kind, owner.ID)
	if err != nil {
		logger.ExitMethodWithError("commissionRuleRepository.Replace", err, "ownerID", owner.ID)
		return err
	}

	insert := `INSERT INTO commission_rules (tenant_id, owner_kind, owner_id, beneficiary_id, percentage)
	           VALUES ($1, $2, $3, $4, $5)`
	for _, rule := range rules {
		if _, err := r.db.ExecContext(ctx, insert, tenantID, owner.Kind, owner.ID, rule.BeneficiaryID, rule.Percentage); err != nil {
			logger.ExitMethodWithError("commissionRuleRepository.Replace", err, "beneficiaryID", rule.BeneficiaryID)
			return err
		}
	}

	logger.ExitMethod("commissionRuleRepository.Replace", "ownerID", owner.ID)
	return nil
}

func (r *commissionRuleRepository) List(ctx context.Context, tenantID int32, owner domain.RuleOwner) ([]domain.CommissionRule, error) {
	query := `SELECT beneficiary_id, percentage FROM commission_rules
	          WHERE tenant_id = $1 AND owner_kind = $2 AND owner_id = $3 ORDER BY beneficiary_id`
	rows, err := r.db.QueryContext(ctx, query, tenantID, owner.Kind, owner.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []domain.CommissionRule
	for rows.Next() {
		var rule domain.CommissionRule
		if err := rows.Scan(&rule.BeneficiaryID, &rule.Percentage); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}
