package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"pocketplan/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestAccount creates an account with a zero default value.
func CreateTestAccount(t *testing.T, db *gorm.DB, userID string) *models.Account {
	t.Helper()
	return CreateTestAccountWithDefault(t, db, userID, 0)
}

// CreateTestAccountWithDefault creates an account with the given default
// value (in cents). The cached balance starts equal to the default value.
func CreateTestAccountWithDefault(t *testing.T, db *gorm.DB, userID string, defaultValue int64) *models.Account {
	t.Helper()

	account := &models.Account{
		UserID:        userID,
		Name:          fmt.Sprintf("Test Account %d", nextID()),
		Currency:      "USD",
		DefaultValue:  defaultValue,
		CurrentAmount: defaultValue,
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create test account: %v", err)
	}
	return account
}

// CreateTestCategory creates a category with a unique name.
func CreateTestCategory(t *testing.T, db *gorm.DB, userID string) *models.Category {
	t.Helper()

	category := &models.Category{
		UserID: userID,
		Name:   fmt.Sprintf("Test Category %d", nextID()),
		Icon:   "tag",
		Color:  "#3b82f6",
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestTransaction creates a transaction with the given signed amount
// (in cents) dated now. The account's cached balance is not touched; callers
// exercising balance maintenance go through the services instead.
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID, accountID string, amount int64) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		UserID:      userID,
		AccountID:   accountID,
		Amount:      amount,
		Description: fmt.Sprintf("Test Transaction %d", nextID()),
		Date:        time.Now().UTC(),
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// CreateTestRecurringTransaction creates an active recurring template with
// the given frequency and next execution date.
func CreateTestRecurringTransaction(t *testing.T, db *gorm.DB, userID, accountID string, amount int64, frequency models.Frequency, next time.Time) *models.RecurringTransaction {
	t.Helper()

	rt := &models.RecurringTransaction{
		UserID:            userID,
		AccountID:         accountID,
		Amount:            amount,
		Description:       fmt.Sprintf("Test Recurring %d", nextID()),
		Frequency:         frequency,
		NextExecutionDate: next,
		IsActive:          true,
	}
	if err := db.Create(rt).Error; err != nil {
		t.Fatalf("failed to create test recurring transaction: %v", err)
	}
	return rt
}

// CreateTestProject creates an active project with a unique name.
func CreateTestProject(t *testing.T, db *gorm.DB, userID string) *models.Project {
	t.Helper()

	project := &models.Project{
		UserID: userID,
		Name:   fmt.Sprintf("Test Project %d", nextID()),
		Status: models.ProjectStatusActive,
	}
	if err := db.Create(project).Error; err != nil {
		t.Fatalf("failed to create test project: %v", err)
	}
	return project
}

// CreateTestTask creates a todo task with medium priority.
func CreateTestTask(t *testing.T, db *gorm.DB, userID, projectID string) *models.Task {
	t.Helper()

	task := &models.Task{
		UserID:    userID,
		ProjectID: projectID,
		Title:     fmt.Sprintf("Test Task %d", nextID()),
		Status:    models.TaskStatusTodo,
		Priority:  models.TaskPriorityMedium,
	}
	if err := db.Create(task).Error; err != nil {
		t.Fatalf("failed to create test task: %v", err)
	}
	return task
}

// CreateTestCompletedTask creates a completed task with the given completion
// time, for exercising cleanup cutoffs.
func CreateTestCompletedTask(t *testing.T, db *gorm.DB, userID, projectID string, completedAt time.Time) *models.Task {
	t.Helper()

	task := &models.Task{
		UserID:         userID,
		ProjectID:      projectID,
		Title:          fmt.Sprintf("Test Task %d", nextID()),
		Status:         models.TaskStatusCompleted,
		PreviousStatus: models.TaskStatusTodo,
		Priority:       models.TaskPriorityMedium,
		CompletedAt:    &completedAt,
	}
	if err := db.Create(task).Error; err != nil {
		t.Fatalf("failed to create test completed task: %v", err)
	}
	return task
}
