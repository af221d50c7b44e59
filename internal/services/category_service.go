package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "pocketplan/internal/errors"
	"pocketplan/internal/models"
	"pocketplan/internal/pagination"
)

// categoryService handles category-related business logic.
type categoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB) CategoryServicer {
	return &categoryService{db: db}
}

// CreateCategory creates a new category
func (s *categoryService) CreateCategory(userID, name, icon, color string, isDefault bool) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}

	// Category names are unique per user
	var count int64
	if err := s.db.Model(&models.Category{}).
		Where("user_id = ? AND name = ?", userID, name).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.WithMessage(apperrors.ErrDuplicateName, "category with this name already exists")
	}

	category := &models.Category{
		UserID:    userID,
		Name:      name,
		Icon:      icon,
		Color:     color,
		IsDefault: isDefault,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if isDefault {
			if err := clearDefaultFlag(tx, &models.Category{}, userID); err != nil {
				return err
			}
		}
		if err := tx.Create(category).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return category, nil
}

// GetUserCategories retrieves a paginated list of categories for a user.
func (s *categoryService) GetUserCategories(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error) {
	page.Defaults()

	var totalItems int64
	base := s.db.Model(&models.Category{}).Where("user_id = ?", userID)
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var categories []models.Category
	if err := base.Scopes(pagination.Paginate(page)).
		Order("name ASC").
		Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(categories, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetCategoryByID retrieves a category by ID for a specific user
func (s *categoryService) GetCategoryByID(userID, categoryID string) (*models.Category, error) {
	var category models.Category
	if err := s.db.Where("id = ? AND user_id = ?", categoryID, userID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// UpdateCategory updates an existing category
func (s *categoryService) UpdateCategory(userID, categoryID string, fields CategoryUpdateFields) (*models.Category, error) {
	category, err := s.GetCategoryByID(userID, categoryID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if fields.Name != nil {
		name := strings.TrimSpace(*fields.Name)
		if name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
		}
		if name != category.Name {
			var count int64
			if err := s.db.Model(&models.Category{}).
				Where("user_id = ? AND name = ? AND id <> ?", userID, name, categoryID).
				Count(&count).Error; err != nil {
				return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if count > 0 {
				return nil, apperrors.WithMessage(apperrors.ErrDuplicateName, "category with this name already exists")
			}
		}
		updates["name"] = name
	}
	if fields.Icon != nil {
		updates["icon"] = *fields.Icon
	}
	if fields.Color != nil {
		updates["color"] = *fields.Color
	}
	if fields.IsDefault != nil {
		updates["is_default"] = *fields.IsDefault
	}

	if len(updates) == 0 {
		return category, nil
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if fields.IsDefault != nil && *fields.IsDefault {
			if err := clearDefaultFlag(tx, &models.Category{}, userID); err != nil {
				return err
			}
		}
		if err := tx.Model(category).Updates(updates).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return category, nil
}

// DeleteCategory deletes a category after reassigning every transaction and
// recurring transaction that references it. With no explicit fallback the
// references move to the user's "Other" category, created on demand.
func (s *categoryService) DeleteCategory(userID, categoryID string, fallbackID *string) error {
	category, err := s.GetCategoryByID(userID, categoryID)
	if err != nil {
		return err
	}

	if fallbackID != nil && *fallbackID == categoryID {
		return apperrors.ErrSelfFallback
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var fallback *models.Category
		if fallbackID != nil {
			var fb models.Category
			if err := tx.Where("id = ? AND user_id = ?", *fallbackID, userID).First(&fb).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperrors.WithMessage(apperrors.ErrCategoryNotFound, "fallback category not found")
				}
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			fallback = &fb
		} else {
			fb, err := s.ensureOtherCategory(tx, userID, categoryID)
			if err != nil {
				return err
			}
			fallback = fb
		}

		if err := tx.Model(&models.Transaction{}).
			Where("user_id = ? AND category_id = ?", userID, categoryID).
			Update("category_id", fallback.ID).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Model(&models.RecurringTransaction{}).
			Where("user_id = ? AND category_id = ?", userID, categoryID).
			Update("category_id", fallback.ID).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if err := tx.Delete(category).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// ensureOtherCategory finds or creates the user's "Other" fallback category.
// The category being deleted is excluded from the lookup so "Other" itself
// can be deleted (a fresh one is created to absorb its references).
func (s *categoryService) ensureOtherCategory(tx *gorm.DB, userID, excludeID string) (*models.Category, error) {
	var other models.Category
	err := tx.Where("user_id = ? AND name = ? AND id <> ?", userID, models.OtherCategoryName, excludeID).
		First(&other).Error
	if err == nil {
		return &other, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	other = models.Category{
		UserID: userID,
		Name:   models.OtherCategoryName,
		Icon:   "folder",
	}
	if err := tx.Create(&other).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &other, nil
}
