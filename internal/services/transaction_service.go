package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "pocketplan/internal/errors"
	"pocketplan/internal/models"
	"pocketplan/internal/pagination"
)

// transactionService handles transaction-related business logic.
type transactionService struct {
	db              *gorm.DB
	accountService  AccountServicer
	categoryService CategoryServicer
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, accountService AccountServicer, categoryService CategoryServicer) TransactionServicer {
	return &transactionService{
		db:              db,
		accountService:  accountService,
		categoryService: categoryService,
	}
}

// CreateTransaction creates a new transaction for a user's account and
// recomputes the account's cached balance in the same DB transaction.
func (s *transactionService) CreateTransaction(
	userID string,
	accountID string,
	categoryID *string,
	amount int64,
	description string,
	date time.Time,
) (*models.Transaction, error) {
	if amount == 0 {
		return nil, apperrors.ErrZeroAmount
	}
	if accountID == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account ID is required")
	}

	if date.IsZero() {
		date = time.Now()
	}

	// Ownership checks before any write
	if _, err := s.accountService.GetAccountByID(userID, accountID); err != nil {
		return nil, err
	}
	if categoryID != nil {
		if _, err := s.categoryService.GetCategoryByID(userID, *categoryID); err != nil {
			return nil, err
		}
	}

	transaction := &models.Transaction{
		UserID:      userID,
		AccountID:   accountID,
		CategoryID:  categoryID,
		Amount:      amount,
		Description: description,
		Date:        date,
	}

	err := s.accountService.WithAccountLocks(func() error {
		return s.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(transaction).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			_, err := s.accountService.RecomputeBalance(tx, accountID)
			return err
		})
	}, accountID)
	if err != nil {
		return nil, err
	}

	return transaction, nil
}

// GetUserTransactions retrieves a paginated, filtered list of the user's transactions.
func (s *transactionService) GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	base := s.db.Model(&models.Transaction{}).Where("user_id = ?", userID)
	base = applyTransactionFilters(base, filter)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := base.Scopes(pagination.Paginate(page)).
		Order("date DESC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetAccountTransactions retrieves a paginated, filtered list of transactions for a specific account.
func (s *transactionService) GetAccountTransactions(userID, accountID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	// First verify the account belongs to the user
	if _, err := s.accountService.GetAccountByID(userID, accountID); err != nil {
		return nil, err
	}

	filter.AccountID = &accountID
	return s.GetUserTransactions(userID, page, filter)
}

func applyTransactionFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.FromDate != nil {
		q = q.Where("date >= ?", *f.FromDate)
	}
	if f.ToDate != nil {
		q = q.Where("date <= ?", *f.ToDate)
	}
	if f.AccountID != nil {
		q = q.Where("account_id = ?", *f.AccountID)
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.MinAmount != nil {
		q = q.Where("amount >= ?", *f.MinAmount)
	}
	if f.MaxAmount != nil {
		q = q.Where("amount <= ?", *f.MaxAmount)
	}
	if f.IsRecurring != nil {
		q = q.Where("is_recurring = ?", *f.IsRecurring)
	}
	return q
}

// GetTransactionByID retrieves a transaction by ID for a specific user
func (s *transactionService) GetTransactionByID(userID, transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.Where("id = ? AND user_id = ?", transactionID, userID).First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// UpdateTransaction updates an existing transaction. When the account
// reference changes, both the old and the new account are recomputed in
// the same DB transaction.
func (s *transactionService) UpdateTransaction(userID, transactionID string, fields TransactionUpdateFields) (*models.Transaction, error) {
	transaction, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return nil, err
	}

	oldAccountID := transaction.AccountID
	newAccountID := oldAccountID

	updates := make(map[string]interface{})
	if fields.AccountID != nil && *fields.AccountID != oldAccountID {
		if _, err := s.accountService.GetAccountByID(userID, *fields.AccountID); err != nil {
			return nil, err
		}
		newAccountID = *fields.AccountID
		updates["account_id"] = newAccountID
	}
	if fields.ClearCategory {
		updates["category_id"] = nil
	} else if fields.CategoryID != nil {
		if _, err := s.categoryService.GetCategoryByID(userID, *fields.CategoryID); err != nil {
			return nil, err
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
	if fields.Date != nil {
		updates["date"] = *fields.Date
	}

	if len(updates) == 0 {
		return transaction, nil
	}

	err = s.accountService.WithAccountLocks(func() error {
		return s.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(transaction).Updates(updates).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if _, err := s.accountService.RecomputeBalance(tx, oldAccountID); err != nil {
				return err
			}
			if newAccountID != oldAccountID {
				if _, err := s.accountService.RecomputeBalance(tx, newAccountID); err != nil {
					return err
				}
			}
			return nil
		})
	}, oldAccountID, newAccountID)
	if err != nil {
		return nil, err
	}

	// Reload to get fresh data
	if err := s.db.Where("id = ?", transactionID).First(transaction).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return transaction, nil
}

// DeleteTransaction deletes a transaction and recomputes the account balance
func (s *transactionService) DeleteTransaction(userID, transactionID string) error {
	transaction, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return err
	}

	accountID := transaction.AccountID
	return s.accountService.WithAccountLocks(func() error {
		return s.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Delete(transaction).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			_, err := s.accountService.RecomputeBalance(tx, accountID)
			return err
		})
	}, accountID)
}

// GetBalanceSummary aggregates income, expense, and net over a trailing
// window of the given number of days.
func (s *transactionService) GetBalanceSummary(userID string, days int) (*BalanceSummary, error) {
	if days <= 0 {
		days = 30
	}

	to := time.Now()
	from := to.AddDate(0, 0, -days)

	var income int64
	if err := s.db.Model(&models.Transaction{}).
		Where("user_id = ? AND date >= ? AND date <= ? AND amount > 0", userID, from, to).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&income).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var expense int64
	if err := s.db.Model(&models.Transaction{}).
		Where("user_id = ? AND date >= ? AND date <= ? AND amount < 0", userID, from, to).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&expense).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return &BalanceSummary{
		FromDate: from,
		ToDate:   to,
		Income:   income,
		Expense:  -expense,
		Net:      income + expense,
	}, nil
}

// GetFinanceDashboard builds the aggregate view for the mobile home screen.
func (s *transactionService) GetFinanceDashboard(userID string) (*FinanceDashboard, error) {
	total, err := s.accountService.GetUserTotalBalance(userID)
	if err != nil {
		return nil, err
	}

	var accounts []models.Account
	if err := s.db.Where("user_id = ?", userID).
		Order("display_order ASC").
		Find(&accounts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	balances := make([]AccountBalance, 0, len(accounts))
	for _, a := range accounts {
		balances = append(balances, AccountBalance{
			AccountID: a.ID,
			Name:      a.Name,
			Currency:  a.Currency,
			Balance:   a.CurrentAmount,
		})
	}

	summary, err := s.GetBalanceSummary(userID, 30)
	if err != nil {
		return nil, err
	}

	var recent []models.Transaction
	if err := s.db.Where("user_id = ?", userID).
		Order("date DESC").
		Limit(10).
		Find(&recent).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var activeRecurring int64
	if err := s.db.Model(&models.RecurringTransaction{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Count(&activeRecurring).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return &FinanceDashboard{
		TotalBalance:       total,
		Accounts:           balances,
		Summary:            *summary,
		RecentTransactions: recent,
		ActiveRecurring:    activeRecurring,
	}, nil
}
