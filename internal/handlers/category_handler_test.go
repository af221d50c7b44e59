package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "pocketplan/internal/errors"
	"pocketplan/internal/models"
	"pocketplan/internal/pagination"
	"pocketplan/internal/services"
)

const (
	testCategoryID = "0192d3a0-7777-7000-8000-000000000007"
	testFallbackID = "0192d3a0-8888-7000-8000-000000000008"
)

// --- mock category service ---

type mockCategoryService struct {
	createCategoryFn    func(userID, name, icon, color string, isDefault bool) (*models.Category, error)
	getUserCategoriesFn func(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	getCategoryByIDFn   func(userID, categoryID string) (*models.Category, error)
	updateCategoryFn    func(userID, categoryID string, fields services.CategoryUpdateFields) (*models.Category, error)
	deleteCategoryFn    func(userID, categoryID string, fallbackID *string) error
}

func (m *mockCategoryService) CreateCategory(userID, name, icon, color string, isDefault bool) (*models.Category, error) {
	if m.createCategoryFn != nil {
		return m.createCategoryFn(userID, name, icon, color, isDefault)
	}
	return &models.Category{}, nil
}

func (m *mockCategoryService) GetUserCategories(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error) {
	if m.getUserCategoriesFn != nil {
		return m.getUserCategoriesFn(userID, page)
	}
	resp := pagination.NewPageResponse([]models.Category{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockCategoryService) GetCategoryByID(userID, categoryID string) (*models.Category, error) {
	if m.getCategoryByIDFn != nil {
		return m.getCategoryByIDFn(userID, categoryID)
	}
	return &models.Category{}, nil
}

func (m *mockCategoryService) UpdateCategory(userID, categoryID string, fields services.CategoryUpdateFields) (*models.Category, error) {
	if m.updateCategoryFn != nil {
		return m.updateCategoryFn(userID, categoryID, fields)
	}
	return &models.Category{}, nil
}

func (m *mockCategoryService) DeleteCategory(userID, categoryID string, fallbackID *string) error {
	if m.deleteCategoryFn != nil {
		return m.deleteCategoryFn(userID, categoryID, fallbackID)
	}
	return nil
}

// verify interface compliance
var _ services.CategoryServicer = (*mockCategoryService)(nil)

func setupCategoryRouter(handler *CategoryHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.POST("/categories", handler.CreateCategory)
	auth.GET("/categories", handler.GetUserCategories)
	auth.GET("/categories/:id", handler.GetCategory)
	auth.PUT("/categories/:id", handler.UpdateCategory)
	auth.DELETE("/categories/:id", handler.DeleteCategory)
	return r
}

func TestCategoryHandler_CreateCategory(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		catSvc := &mockCategoryService{
			createCategoryFn: func(userID, name, icon, color string, isDefault bool) (*models.Category, error) {
				return &models.Category{
					Base:   models.Base{ID: testCategoryID},
					UserID: userID,
					Name:   name,
					Color:  color,
				}, nil
			},
		}
		handler := NewCategoryHandler(catSvc, &mockAuditService{})
		r := setupCategoryRouter(handler)

		rec := doRequest(r, "POST", "/categories", `{"name":"Groceries","color":"#22c55e"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		cat := result["category"].(map[string]interface{})
		if cat["name"] != "Groceries" {
			t.Errorf("expected Groceries, got %v", cat["name"])
		}
	})

	t.Run("returns 409 on duplicate name", func(t *testing.T) {
		catSvc := &mockCategoryService{
			createCategoryFn: func(_, _, _, _ string, _ bool) (*models.Category, error) {
				return nil, apperrors.ErrDuplicateName
			},
		}
		handler := NewCategoryHandler(catSvc, &mockAuditService{})
		r := setupCategoryRouter(handler)

		rec := doRequest(r, "POST", "/categories", `{"name":"Groceries"}`)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "DUPLICATE_NAME")
	})

	t.Run("returns 400 on bad color", func(t *testing.T) {
		handler := NewCategoryHandler(&mockCategoryService{}, &mockAuditService{})
		r := setupCategoryRouter(handler)

		rec := doRequest(r, "POST", "/categories", `{"name":"Groceries","color":"green"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestCategoryHandler_DeleteCategory(t *testing.T) {
	t.Run("forwards explicit fallback", func(t *testing.T) {
		var captured *string
		catSvc := &mockCategoryService{
			deleteCategoryFn: func(_, _ string, fallbackID *string) error {
				captured = fallbackID
				return nil
			},
		}
		handler := NewCategoryHandler(catSvc, &mockAuditService{})
		r := setupCategoryRouter(handler)

		rec := doRequest(r, "DELETE", "/categories/"+testCategoryID+"?fallback_id="+testFallbackID, "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if captured == nil || *captured != testFallbackID {
			t.Errorf("expected fallback forwarded, got %v", captured)
		}
	})

	t.Run("omits fallback when absent", func(t *testing.T) {
		var called bool
		catSvc := &mockCategoryService{
			deleteCategoryFn: func(_, _ string, fallbackID *string) error {
				called = true
				if fallbackID != nil {
					t.Errorf("expected nil fallback, got %v", *fallbackID)
				}
				return nil
			},
		}
		handler := NewCategoryHandler(catSvc, &mockAuditService{})
		r := setupCategoryRouter(handler)

		rec := doRequest(r, "DELETE", "/categories/"+testCategoryID, "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !called {
			t.Error("expected delete to be called")
		}
	})

	t.Run("returns 400 on malformed fallback", func(t *testing.T) {
		handler := NewCategoryHandler(&mockCategoryService{}, &mockAuditService{})
		r := setupCategoryRouter(handler)

		rec := doRequest(r, "DELETE", "/categories/"+testCategoryID+"?fallback_id=nope", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on self fallback from service", func(t *testing.T) {
		catSvc := &mockCategoryService{
			deleteCategoryFn: func(_, _ string, _ *string) error {
				return apperrors.ErrSelfFallback
			},
		}
		handler := NewCategoryHandler(catSvc, &mockAuditService{})
		r := setupCategoryRouter(handler)

		rec := doRequest(r, "DELETE", "/categories/"+testCategoryID+"?fallback_id="+testCategoryID, "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "SELF_FALLBACK_CATEGORY")
	})
}

func TestCategoryHandler_UpdateCategory(t *testing.T) {
	t.Run("forwards partial update", func(t *testing.T) {
		var captured services.CategoryUpdateFields
		catSvc := &mockCategoryService{
			updateCategoryFn: func(_, categoryID string, fields services.CategoryUpdateFields) (*models.Category, error) {
				captured = fields
				return &models.Category{Base: models.Base{ID: categoryID}}, nil
			},
		}
		handler := NewCategoryHandler(catSvc, &mockAuditService{})
		r := setupCategoryRouter(handler)

		rec := doRequest(r, "PUT", "/categories/"+testCategoryID, `{"name":"Food"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if captured.Name == nil || *captured.Name != "Food" {
			t.Errorf("expected name forwarded, got %v", captured.Name)
		}
		if captured.Color != nil {
			t.Error("untouched fields should stay nil")
		}
	})
}
