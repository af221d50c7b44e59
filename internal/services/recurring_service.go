package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "pocketplan/internal/errors"
	"pocketplan/internal/logger"
	"pocketplan/internal/models"
	"pocketplan/internal/pagination"
)

// recurringService handles recurring-transaction templates and their
// periodic materialization into concrete transactions.
type recurringService struct {
	db             *gorm.DB
	accountService AccountServicer
}

// NewRecurringService creates a new RecurringServicer.
func NewRecurringService(db *gorm.DB, accountService AccountServicer) RecurringServicer {
	return &recurringService{
		db:             db,
		accountService: accountService,
	}
}

func validFrequency(f models.Frequency) bool {
	switch f {
	case models.FrequencyDaily, models.FrequencyWeekly, models.FrequencyMonthly:
		return true
	}
	return false
}

// CreateRecurringTransaction creates a new recurring-transaction template.
func (s *recurringService) CreateRecurringTransaction(
	userID string,
	accountID string,
	categoryID *string,
	amount int64,
	description string,
	frequency models.Frequency,
	nextExecutionDate time.Time,
	endDate *time.Time,
) (*models.RecurringTransaction, error) {
	if amount == 0 {
		return nil, apperrors.ErrZeroAmount
	}
	if !validFrequency(frequency) {
		return nil, apperrors.ErrInvalidFrequency
	}
	if nextExecutionDate.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "next execution date is required")
	}

	if _, err := s.accountService.GetAccountByID(userID, accountID); err != nil {
		return nil, err
	}
	if categoryID != nil {
		var count int64
		if err := s.db.Model(&models.Category{}).
			Where("id = ? AND user_id = ?", *categoryID, userID).
			Count(&count).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count == 0 {
			return nil, apperrors.ErrCategoryNotFound
		}
	}

	recurring := &models.RecurringTransaction{
		UserID:            userID,
		AccountID:         accountID,
		CategoryID:        categoryID,
		Amount:            amount,
		Description:       description,
		Frequency:         frequency,
		NextExecutionDate: nextExecutionDate,
		EndDate:           endDate,
		IsActive:          true,
	}

	if err := s.db.Create(recurring).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return recurring, nil
}

// GetUserRecurringTransactions retrieves a paginated list of the user's templates.
func (s *recurringService) GetUserRecurringTransactions(userID string, page pagination.PageRequest, isActive *bool) (*pagination.PageResponse[models.RecurringTransaction], error) {
	page.Defaults()

	base := s.db.Model(&models.RecurringTransaction{}).Where("user_id = ?", userID)
	if isActive != nil {
		base = base.Where("is_active = ?", *isActive)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var recurrings []models.RecurringTransaction
	if err := base.Scopes(pagination.Paginate(page)).
		Order("next_execution_date ASC").
		Find(&recurrings).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(recurrings, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetRecurringTransactionByID retrieves a template by ID for a specific user
func (s *recurringService) GetRecurringTransactionByID(userID, recurringID string) (*models.RecurringTransaction, error) {
	var recurring models.RecurringTransaction
	if err := s.db.Where("id = ? AND user_id = ?", recurringID, userID).First(&recurring).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrRecurringNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &recurring, nil
}

// UpdateRecurringTransaction updates an existing template
func (s *recurringService) UpdateRecurringTransaction(userID, recurringID string, fields RecurringUpdateFields) (*models.RecurringTransaction, error) {
	recurring, err := s.GetRecurringTransactionByID(userID, recurringID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if fields.AccountID != nil {
		if _, err := s.accountService.GetAccountByID(userID, *fields.AccountID); err != nil {
			return nil, err
		}
		updates["account_id"] = *fields.AccountID
	}
	if fields.ClearCategory {
		updates["category_id"] = nil
	} else if fields.CategoryID != nil {
		var count int64
		if err := s.db.Model(&models.Category{}).
			Where("id = ? AND user_id = ?", *fields.CategoryID, userID).
			Count(&count).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count == 0 {
			return nil, apperrors.ErrCategoryNotFound
		}
		updates["category_id"] = *fields.CategoryID
	}
	if fields.Amount != nil {
		if *fields.Amount == 0 {
			return nil, apperrors.ErrZeroAmount
		}
		updates["amount"] = *fields.Amount
	}
	if fields.Description != nil {
		updates["description"] = *fields.Description
	}
	if fields.Frequency != nil {
		if !validFrequency(*fields.Frequency) {
			return nil, apperrors.ErrInvalidFrequency
		}
		updates["frequency"] = *fields.Frequency
	}
	if fields.NextExecutionDate != nil {
		updates["next_execution_date"] = *fields.NextExecutionDate
	}
	if fields.ClearEndDate {
		updates["end_date"] = nil
	} else if fields.EndDate != nil {
		updates["end_date"] = *fields.EndDate
	}
	if fields.IsActive != nil {
		updates["is_active"] = *fields.IsActive
	}

	if len(updates) == 0 {
		return recurring, nil
	}

	if err := s.db.Model(recurring).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	// Reload to get fresh data
	if err := s.db.Where("id = ?", recurringID).First(recurring).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return recurring, nil
}

// DeleteRecurringTransaction deletes a template. Transactions already
// generated from it are kept.
func (s *recurringService) DeleteRecurringTransaction(userID, recurringID string) error {
	recurring, err := s.GetRecurringTransactionByID(userID, recurringID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(recurring).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// ProcessDue runs one processing pass over every active template whose next
// execution date has passed. Each template is handled in isolation: one
// failure is collected into the result and never blocks the others.
//
// A template fires at most once per pass regardless of how many periods
// have elapsed, and its next execution date advances by one frequency unit
// from the previous scheduled date, never from the processing time.
func (s *recurringService) ProcessDue(now time.Time) (*ProcessResult, error) {
	var due []models.RecurringTransaction
	if err := s.db.Where("is_active = ? AND next_execution_date <= ?", true, now).
		Find(&due).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := &ProcessResult{Errors: []ProcessError{}}
	log := logger.Get()

	for i := range due {
		template := &due[i]
		result.Processed++

		created, err := s.processTemplate(template, now)
		if err != nil {
			log.Errorw("failed to process recurring transaction",
				"recurring_id", template.ID,
				"user_id", template.UserID,
				"error", err,
			)
			result.Errors = append(result.Errors, ProcessError{
				RecurringTransactionID: template.ID,
				Message:                err.Error(),
			})
			continue
		}
		if created {
			result.Created++
		}
	}

	log.Infow("recurring transaction pass complete",
		"processed", result.Processed,
		"created", result.Created,
		"errors", len(result.Errors),
	)
	return result, nil
}

// processTemplate handles a single due template: deactivation past the end
// date, or transaction creation plus schedule advance. Returns whether a
// transaction was created.
func (s *recurringService) processTemplate(template *models.RecurringTransaction, now time.Time) (bool, error) {
	// Past the end date: deactivate without a final partial-period transaction.
	if template.EndDate != nil && now.After(*template.EndDate) {
		if err := s.db.Model(template).Update("is_active", false).Error; err != nil {
			return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return false, nil
	}

	transaction := &models.Transaction{
		UserID:                 template.UserID,
		AccountID:              template.AccountID,
		CategoryID:             template.CategoryID,
		Amount:                 template.Amount,
		Description:            template.Description,
		Date:                   now,
		IsRecurring:            true,
		RecurringTransactionID: &template.ID,
	}

	err := s.accountService.WithAccountLocks(func() error {
		return s.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(transaction).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if _, err := s.accountService.RecomputeBalance(tx, template.AccountID); err != nil {
				return err
			}
			next := template.NextAfter(template.NextExecutionDate)
			if err := tx.Model(template).Update("next_execution_date", next).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			return nil
		})
	}, template.AccountID)
	if err != nil {
		return false, err
	}
	return true, nil
}
