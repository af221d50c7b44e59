package services

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"gorm.io/gorm"

	apperrors "pocketplan/internal/errors"
	"pocketplan/internal/models"
	"pocketplan/internal/pagination"
)

// accountService handles account-related business logic, including the
// cached running balance on every account.
type accountService struct {
	db    *gorm.DB
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewAccountService creates a new AccountServicer.
func NewAccountService(db *gorm.DB) AccountServicer {
	return &accountService{
		db:    db,
		locks: make(map[string]*sync.Mutex),
	}
}

// CreateAccount creates a new account for a user. The cached balance starts
// at the opening value since no transactions reference the account yet.
func (s *accountService) CreateAccount(userID, name, icon, currency string, defaultValue int64, isDefault bool) (*models.Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account name is required")
	}

	if currency == "" {
		currency = "USD"
	}
	if currency != "USD" && currency != "EUR" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "currency must be USD or EUR")
	}

	var displayOrder int64
	if err := s.db.Model(&models.Account{}).Where("user_id = ?", userID).Count(&displayOrder).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	account := &models.Account{
		UserID:        userID,
		Name:          name,
		Icon:          icon,
		Currency:      currency,
		DefaultValue:  defaultValue,
		CurrentAmount: defaultValue,
		IsDefault:     isDefault,
		DisplayOrder:  int(displayOrder),
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if isDefault {
			if err := clearDefaultFlag(tx, &models.Account{}, userID); err != nil {
				return err
			}
		}
		if err := tx.Create(account).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return account, nil
}

// GetUserAccounts retrieves a paginated list of accounts for a user.
func (s *accountService) GetUserAccounts(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error) {
	page.Defaults()

	var totalItems int64
	base := s.db.Model(&models.Account{}).Where("user_id = ?", userID)
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var accounts []models.Account
	if err := base.Scopes(pagination.Paginate(page)).
		Order("display_order ASC").
		Find(&accounts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(accounts, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetAccountByID retrieves an account by ID for a specific user
func (s *accountService) GetAccountByID(userID, accountID string) (*models.Account, error) {
	var account models.Account
	if err := s.db.Where("id = ? AND user_id = ?", accountID, userID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &account, nil
}

// UpdateAccount updates an existing account. Changing the opening value
// recomputes the cached balance so the invariant keeps holding.
func (s *accountService) UpdateAccount(userID, accountID string, fields AccountUpdateFields) (*models.Account, error) {
	account, err := s.GetAccountByID(userID, accountID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if fields.Name != nil {
		name := strings.TrimSpace(*fields.Name)
		if name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account name is required")
		}
		updates["name"] = name
	}
	if fields.Icon != nil {
		updates["icon"] = *fields.Icon
	}
	if fields.Currency != nil {
		if *fields.Currency != "USD" && *fields.Currency != "EUR" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "currency must be USD or EUR")
		}
		updates["currency"] = *fields.Currency
	}
	if fields.DefaultValue != nil {
		updates["default_value"] = *fields.DefaultValue
	}
	if fields.IsDefault != nil {
		updates["is_default"] = *fields.IsDefault
	}

	if len(updates) == 0 {
		return account, nil
	}

	err = s.WithAccountLocks(func() error {
		return s.db.Transaction(func(tx *gorm.DB) error {
			if fields.IsDefault != nil && *fields.IsDefault {
				if err := clearDefaultFlag(tx, &models.Account{}, userID); err != nil {
					return err
				}
			}
			if err := tx.Model(account).Updates(updates).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if fields.DefaultValue != nil {
				if _, err := s.RecomputeBalance(tx, accountID); err != nil {
					return err
				}
			}
			return nil
		})
	}, accountID)
	if err != nil {
		return nil, err
	}

	// Reload to get fresh data
	if err := s.db.Where("id = ?", accountID).First(account).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return account, nil
}

// DeleteAccount deletes an account. The delete is refused while any
// transaction or recurring transaction still references the account; the
// caller must move or remove those first.
func (s *accountService) DeleteAccount(userID, accountID string) error {
	account, err := s.GetAccountByID(userID, accountID)
	if err != nil {
		return err
	}

	var txCount int64
	if err := s.db.Model(&models.Transaction{}).Where("account_id = ?", accountID).Count(&txCount).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if txCount > 0 {
		return apperrors.ErrAccountInUse
	}

	var recurringCount int64
	if err := s.db.Model(&models.RecurringTransaction{}).Where("account_id = ?", accountID).Count(&recurringCount).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if recurringCount > 0 {
		return apperrors.ErrAccountInUse
	}

	if err := s.db.Delete(account).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// ReorderAccounts assigns sequential display order following the given ID
// list. Every ID must reference an account owned by the caller.
func (s *accountService) ReorderAccounts(userID string, orderedIDs []string) error {
	if len(orderedIDs) == 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "account IDs are required")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		for i, id := range orderedIDs {
			res := tx.Model(&models.Account{}).
				Where("id = ? AND user_id = ?", id, userID).
				Update("display_order", i)
			if res.Error != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
			}
			if res.RowsAffected == 0 {
				return apperrors.ErrAccountNotFound
			}
		}
		return nil
	})
}

// GetAccountBalance returns the cached running balance of an account.
func (s *accountService) GetAccountBalance(userID, accountID string) (int64, error) {
	account, err := s.GetAccountByID(userID, accountID)
	if err != nil {
		return 0, err
	}
	return account.CurrentAmount, nil
}

// GetUserTotalBalance sums the cached balances of all the user's accounts.
func (s *accountService) GetUserTotalBalance(userID string) (int64, error) {
	var total int64
	if err := s.db.Model(&models.Account{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(current_amount), 0)").
		Scan(&total).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return total, nil
}

// RecomputeBalance performs a full-scan recomputation of the account's
// cached balance: default value plus the sum of all live transaction
// amounts. Returns ErrAccountNotFound when the account no longer exists,
// which aborts the enclosing DB transaction.
func (s *accountService) RecomputeBalance(tx *gorm.DB, accountID string) (int64, error) {
	var account models.Account
	if err := tx.Where("id = ?", accountID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, apperrors.ErrAccountNotFound
		}
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var sum int64
	if err := tx.Model(&models.Transaction{}).
		Where("account_id = ?", accountID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sum).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	balance := account.DefaultValue + sum
	if err := tx.Model(&account).Update("current_amount", balance).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return balance, nil
}

// WithAccountLocks serializes balance-affecting work per account. Locks are
// acquired in sorted ID order so two callers touching the same pair of
// accounts cannot deadlock.
func (s *accountService) WithAccountLocks(fn func() error, accountIDs ...string) error {
	ids := make([]string, 0, len(accountIDs))
	seen := make(map[string]struct{}, len(accountIDs))
	for _, id := range accountIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		s.lockFor(id).Lock()
	}
	defer func() {
		for i := len(ids) - 1; i >= 0; i-- {
			s.lockFor(ids[i]).Unlock()
		}
	}()

	return fn()
}

func (s *accountService) lockFor(accountID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[accountID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[accountID] = l
	}
	return l
}

// clearDefaultFlag removes the is_default flag from all of the user's
// records of the given model. Used when another record becomes the default.
func clearDefaultFlag(tx *gorm.DB, model interface{}, userID string) error {
	if err := tx.Model(model).
		Where("user_id = ? AND is_default = ?", userID, true).
		Update("is_default", false).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
