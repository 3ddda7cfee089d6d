package service

import (
	"context"

	"github.com/google/uuid"

	"reconledger-backend/internal/domain"
	"reconledger-backend/internal/events"
	"reconledger-backend/internal/logger"
	"reconledger-backend/internal/reconcile"
	"reconledger-backend/internal/repository"
	"reconledger-backend/internal/staging"
)

type importService struct {
	store     repository.Store
	stager    staging.Stager
	publisher events.Publisher
	clock     Clock
}

func NewImportService(store repository.Store, stager staging.Stager, publisher events.Publisher, clock Clock) ImportService {
	return &importService{store: store, stager: stager, publisher: publisher, clock: clock}
}

// rowClass is the dedup verdict for one statement row.
type rowClass int

const (
	rowNew rowClass = iota
	rowDuplicate
	rowPotentialDuplicate
)

type classified struct {
	class    rowClass
	existing *domain.Payment
}

// classify compares each row with the account's payments of the same date,
// amount and direction. A matching memo makes the row an exact duplicate; any
// other memo makes it a potential duplicate. Rows of one batch are not
// compared with each other.
func classify(ctx context.Context, r *repository.Repositories, tenantID, accountID int32, rows []domain.StatementRow) ([]classified, error) {
	out := make([]classified, len(rows))
	for i, row := range rows {
		similar, err := r.Payments.FindSimilar(ctx, tenantID, accountID, row.Date, row.Amount.Abs(), row.Direction())
		if err != nil {
			return nil, err
		}
		if len(similar) == 0 {
			continue
		}
		memo := reconcile.Normalize(row.Memo)
		out[i] = classified{class: rowPotentialDuplicate, existing: &similar[0]}
		for j := range similar {
			if reconcile.Normalize(similar[j].Memo) == memo {
				out[i] = classified{class: rowDuplicate, existing: &similar[j]}
				break
			}
		}
	}
	return out, nil
}

func validateRows(rows []domain.StatementRow) error {
	for i, row := range rows {
		if row.Date.IsZero() {
			return domain.NewValidationError("rows", "row %d (line %d) has no date", i, row.Line)
		}
		if row.Amount.IsZero() {
			return domain.NewValidationError("rows", "row %d (line %d) has a zero amount", i, row.Line)
		}
	}
	return nil
}

func (s *importService) ImportStatement(ctx context.Context, tenantID, accountID int32, rows []domain.StatementRow) (*domain.ImportResult, error) {
	logger.EnterMethod("importService.ImportStatement", "tenantID", tenantID, "accountID", accountID, "rows", len(rows))

	if err := validateRows(rows); err != nil {
		logger.ExitMethodWithError("importService.ImportStatement", err, "accountID", accountID)
		return nil, err
	}
	if _, err := s.store.Repos().Accounts.GetByID(ctx, tenantID, accountID); err != nil {
		logger.ExitMethodWithError("importService.ImportStatement", err, "accountID", accountID)
		return nil, err
	}

	result := &domain.ImportResult{Status: domain.ImportCompleted}
	err := s.store.WithinTx(ctx, func(r *repository.Repositories) error {
		classes, err := classify(ctx, r, tenantID, accountID, rows)
		if err != nil {
			return err
		}
		for i, c := range classes {
			switch c.class {
			case rowDuplicate:
				result.Skipped = append(result.Skipped, i)
			case rowPotentialDuplicate:
				result.PotentialDuplicates = append(result.PotentialDuplicates, domain.PotentialDuplicate{
					Index:        i,
					Row:          rows[i],
					ExistingID:   c.existing.ID,
					ExistingMemo: c.existing.Memo,
				})
			}
		}
		// Anything ambiguous holds back the whole batch.
		if len(result.PotentialDuplicates) > 0 {
			return nil
		}
		result.Imported, err = s.insertRows(ctx, r, tenantID, accountID, rows, classes, nil)
		return err
	})
	if err != nil {
		logger.ExitMethodWithError("importService.ImportStatement", err, "accountID", accountID)
		return nil, err
	}

	if len(result.PotentialDuplicates) > 0 {
		result.Status = domain.ImportRequiresConfirmation
		result.Token = uuid.NewString()
		batch := domain.StagedImport{
			Token:     result.Token,
			TenantID:  tenantID,
			AccountID: accountID,
			Rows:      rows,
			CreatedAt: s.clock(),
		}
		if err := s.stager.Save(ctx, batch); err != nil {
			logger.ExitMethodWithError("importService.ImportStatement", err, "accountID", accountID)
			return nil, err
		}
		logger.ExitMethod("importService.ImportStatement", "accountID", accountID,
			"status", result.Status, "potentialDuplicates", len(result.PotentialDuplicates))
		return result, nil
	}

	s.announce(ctx, tenantID, accountID, result)
	logger.ExitMethod("importService.ImportStatement", "accountID", accountID,
		"imported", len(result.Imported), "skipped", len(result.Skipped))
	return result, nil
}

func (s *importService) ConfirmImport(ctx context.Context, tenantID int32, token string, forceRows []int) (*domain.ImportResult, error) {
	logger.EnterMethod("importService.ConfirmImport", "tenantID", tenantID, "token", token, "forced", len(forceRows))

	batch, err := s.stager.Load(ctx, tenantID, token)
	if err != nil {
		logger.ExitMethodWithError("importService.ConfirmImport", err, "token", token)
		return nil, err
	}
	forced := make(map[int]bool, len(forceRows))
	for _, i := range forceRows {
		if i < 0 || i >= len(batch.Rows) {
			return nil, domain.NewValidationError("force_rows", "row %d is outside the batch of %d rows", i, len(batch.Rows))
		}
		forced[i] = true
	}

	result := &domain.ImportResult{Status: domain.ImportCompleted}
	err = s.store.WithinTx(ctx, func(r *repository.Repositories) error {
		// Classify again: payments may have changed since the batch was staged.
		classes, err := classify(ctx, r, tenantID, batch.AccountID, batch.Rows)
		if err != nil {
			return err
		}
		for i, c := range classes {
			if c.class == rowDuplicate || (c.class == rowPotentialDuplicate && !forced[i]) {
				result.Skipped = append(result.Skipped, i)
			}
		}
		result.Imported, err = s.insertRows(ctx, r, tenantID, batch.AccountID, batch.Rows, classes, forced)
		return err
	})
	if err != nil {
		logger.ExitMethodWithError("importService.ConfirmImport", err, "token", token)
		return nil, err
	}

	if err := s.stager.Delete(ctx, token); err != nil {
		logger.Warn("Failed to delete staged import", "token", token, "error", err)
	}
	s.announce(ctx, tenantID, batch.AccountID, result)
	logger.ExitMethod("importService.ConfirmImport", "token", token,
		"imported", len(result.Imported), "skipped", len(result.Skipped))
	return result, nil
}

// insertRows creates a payment for every new row and every forced potential
// duplicate.
func (s *importService) insertRows(ctx context.Context, r *repository.Repositories, tenantID, accountID int32, rows []domain.StatementRow, classes []classified, forced map[int]bool) ([]int32, error) {
	var ids []int32
	for i, row := range rows {
		switch classes[i].class {
		case rowDuplicate:
			continue
		case rowPotentialDuplicate:
			if !forced[i] {
				continue
			}
		}
		p := &domain.Payment{
			TenantID:  tenantID,
			AccountID: accountID,
			Direction: row.Direction(),
			Amount:    row.Amount.Abs(),
			Date:      domain.Today(row.Date),
			Memo:      row.Memo,
		}
		if err := createPayment(ctx, r, p); err != nil {
			return nil, err
		}
		ids = append(ids, p.ID)
	}
	return ids, nil
}

func (s *importService) announce(ctx context.Context, tenantID, accountID int32, result *domain.ImportResult) {
	if len(result.Imported) == 0 {
		return
	}
	publish(ctx, s.publisher, events.New(tenantID, events.StatementImported, map[string]any{
		"account_id":  accountID,
		"payment_ids": result.Imported,
	}))
}
