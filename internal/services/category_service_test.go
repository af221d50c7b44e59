package services

import (
	"testing"
	"time"

	"pocketplan/internal/models"
	"pocketplan/internal/testutil"
)

func TestCreateCategory(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)

		category, err := svc.CreateCategory(user.ID, "Groceries", "cart", "#22c55e", false)
		testutil.AssertNoError(t, err)
		if category.Name != "Groceries" {
			t.Errorf("expected name Groceries, got %s", category.Name)
		}
	})

	t.Run("duplicate_name_same_user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateCategory(user.ID, "Rent", "", "", false)
		testutil.AssertNoError(t, err)
		_, err = svc.CreateCategory(user.ID, "Rent", "", "", false)
		testutil.AssertAppError(t, err, "DUPLICATE_NAME")
	})

	t.Run("same_name_different_users", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		alice := testutil.CreateTestUser(t, db)
		bob := testutil.CreateTestUser(t, db)

		_, err := svc.CreateCategory(alice.ID, "Rent", "", "", false)
		testutil.AssertNoError(t, err)
		_, err = svc.CreateCategory(bob.ID, "Rent", "", "", false)
		testutil.AssertNoError(t, err)
	})
}

func TestUpdateCategory(t *testing.T) {
	t.Run("rename_collision", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateCategory(user.ID, "Food", "", "", false)
		testutil.AssertNoError(t, err)
		second, err := svc.CreateCategory(user.ID, "Travel", "", "", false)
		testutil.AssertNoError(t, err)

		name := "Food"
		_, err = svc.UpdateCategory(user.ID, second.ID, CategoryUpdateFields{Name: &name})
		testutil.AssertAppError(t, err, "DUPLICATE_NAME")
	})
}

func TestDeleteCategory(t *testing.T) {
	t.Run("explicit_fallback_reassigns_references", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)
		doomed := testutil.CreateTestCategory(t, db, user.ID)
		fallback := testutil.CreateTestCategory(t, db, user.ID)

		tx := testutil.CreateTestTransaction(t, db, user.ID, account.ID, -100)
		testutil.AssertNoError(t, db.Model(tx).Update("category_id", doomed.ID).Error)
		rt := testutil.CreateTestRecurringTransaction(t, db, user.ID, account.ID, -100, models.FrequencyMonthly, time.Now())
		testutil.AssertNoError(t, db.Model(rt).Update("category_id", doomed.ID).Error)

		testutil.AssertNoError(t, svc.DeleteCategory(user.ID, doomed.ID, &fallback.ID))

		var reloadedTx models.Transaction
		testutil.AssertNoError(t, db.First(&reloadedTx, "id = ?", tx.ID).Error)
		if reloadedTx.CategoryID == nil || *reloadedTx.CategoryID != fallback.ID {
			t.Error("expected transaction reassigned to the fallback category")
		}

		var reloadedRt models.RecurringTransaction
		testutil.AssertNoError(t, db.First(&reloadedRt, "id = ?", rt.ID).Error)
		if reloadedRt.CategoryID == nil || *reloadedRt.CategoryID != fallback.ID {
			t.Error("expected recurring template reassigned to the fallback category")
		}

		_, err := svc.GetCategoryByID(user.ID, doomed.ID)
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})

	t.Run("no_fallback_creates_other", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)
		doomed := testutil.CreateTestCategory(t, db, user.ID)

		tx := testutil.CreateTestTransaction(t, db, user.ID, account.ID, -100)
		testutil.AssertNoError(t, db.Model(tx).Update("category_id", doomed.ID).Error)

		testutil.AssertNoError(t, svc.DeleteCategory(user.ID, doomed.ID, nil))

		var other models.Category
		testutil.AssertNoError(t, db.Where("user_id = ? AND name = ?", user.ID, models.OtherCategoryName).First(&other).Error)

		var reloadedTx models.Transaction
		testutil.AssertNoError(t, db.First(&reloadedTx, "id = ?", tx.ID).Error)
		if reloadedTx.CategoryID == nil || *reloadedTx.CategoryID != other.ID {
			t.Error("expected transaction reassigned to the Other category")
		}
	})

	t.Run("self_fallback_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)
		category := testutil.CreateTestCategory(t, db, user.ID)

		err := svc.DeleteCategory(user.ID, category.ID, &category.ID)
		testutil.AssertAppError(t, err, "SELF_FALLBACK_CATEGORY")
	})

	t.Run("foreign_fallback_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)
		category := testutil.CreateTestCategory(t, db, user.ID)
		foreign := testutil.CreateTestCategory(t, db, other.ID)

		err := svc.DeleteCategory(user.ID, category.ID, &foreign.ID)
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})

	t.Run("deleting_other_does_not_resurrect_itself", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)

		otherCat, err := svc.CreateCategory(user.ID, models.OtherCategoryName, "folder", "", false)
		testutil.AssertNoError(t, err)
		tx := testutil.CreateTestTransaction(t, db, user.ID, account.ID, -100)
		testutil.AssertNoError(t, db.Model(tx).Update("category_id", otherCat.ID).Error)

		testutil.AssertNoError(t, svc.DeleteCategory(user.ID, otherCat.ID, nil))

		// A fresh fallback was created, distinct from the deleted one.
		var reloadedTx models.Transaction
		testutil.AssertNoError(t, db.First(&reloadedTx, "id = ?", tx.ID).Error)
		if reloadedTx.CategoryID == nil || *reloadedTx.CategoryID == otherCat.ID {
			t.Error("expected transaction reassigned to a fresh fallback category")
		}
	})
}
