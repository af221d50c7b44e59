package testutil_test

import (
	"testing"
	"time"

	"pocketplan/internal/errors"
	"pocketplan/internal/models"
	"pocketplan/internal/testutil"
)

func TestSetupTestDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	// Verify all tables exist by doing a simple count query on each model.
	var count int64
	for _, table := range []string{"users", "accounts", "categories", "transactions", "recurring_transactions", "projects", "tasks", "audit_logs"} {
		if err := db.Table(table).Count(&count).Error; err != nil {
			t.Errorf("table %q should exist after migration: %v", table, err)
		}
	}
}

func TestFixtures(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	user := testutil.CreateTestUser(t, db)
	if user.ID == "" {
		t.Fatal("user should have a generated ID")
	}

	account := testutil.CreateTestAccountWithDefault(t, db, user.ID, 5000)
	if account.CurrentAmount != 5000 {
		t.Errorf("expected current amount 5000, got %d", account.CurrentAmount)
	}

	category := testutil.CreateTestCategory(t, db, user.ID)
	if category.UserID != user.ID {
		t.Errorf("expected category owner %s, got %s", user.ID, category.UserID)
	}

	tx := testutil.CreateTestTransaction(t, db, user.ID, account.ID, 1000)
	if tx.Amount != 1000 {
		t.Errorf("expected amount 1000, got %d", tx.Amount)
	}

	rt := testutil.CreateTestRecurringTransaction(t, db, user.ID, account.ID, -500, models.FrequencyMonthly, time.Now())
	if !rt.IsActive {
		t.Error("recurring template should start active")
	}

	project := testutil.CreateTestProject(t, db, user.ID)
	if project.Status != models.ProjectStatusActive {
		t.Errorf("expected active project, got %s", project.Status)
	}

	task := testutil.CreateTestTask(t, db, user.ID, project.ID)
	if task.Status != models.TaskStatusTodo {
		t.Errorf("expected todo task, got %s", task.Status)
	}
}

func TestAssertAppError(t *testing.T) {
	err := errors.WithMessage(errors.ErrAccountNotFound, "custom message")
	testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")
}

func TestAssertNoError(t *testing.T) {
	testutil.AssertNoError(t, nil)
}
