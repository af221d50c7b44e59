package services

import (
	"time"

	"gorm.io/gorm"

	"pocketplan/internal/models"
	"pocketplan/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	StoreRefreshTokenHash(userID, tokenHash string) error
	GetRefreshTokenHash(userID string) (string, error)
	ResetUserData(userID, confirmation string) error
}

// AccountUpdateFields holds optional fields for updating an account.
// Nil fields are left unchanged.
type AccountUpdateFields struct {
	Name         *string
	Icon         *string
	Currency     *string
	DefaultValue *int64
	IsDefault    *bool
}

// AccountServicer defines the contract for account-related business logic.
type AccountServicer interface {
	CreateAccount(userID, name, icon, currency string, defaultValue int64, isDefault bool) (*models.Account, error)
	GetUserAccounts(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error)
	GetAccountByID(userID, accountID string) (*models.Account, error)
	UpdateAccount(userID, accountID string, fields AccountUpdateFields) (*models.Account, error)
	DeleteAccount(userID, accountID string) error
	ReorderAccounts(userID string, orderedIDs []string) error
	GetAccountBalance(userID, accountID string) (int64, error)
	GetUserTotalBalance(userID string) (int64, error)

	// RecomputeBalance recalculates current_amount from the account's live
	// transactions plus its default value, inside the given DB transaction.
	RecomputeBalance(tx *gorm.DB, accountID string) (int64, error)

	// WithAccountLocks runs fn while holding the per-account write locks for
	// the given account IDs, serializing balance recomputation per account.
	WithAccountLocks(fn func() error, accountIDs ...string) error
}

// CategoryUpdateFields holds optional fields for updating a category.
type CategoryUpdateFields struct {
	Name      *string
	Icon      *string
	Color     *string
	IsDefault *bool
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(userID, name, icon, color string, isDefault bool) (*models.Category, error)
	GetUserCategories(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetCategoryByID(userID, categoryID string) (*models.Category, error)
	UpdateCategory(userID, categoryID string, fields CategoryUpdateFields) (*models.Category, error)

	// DeleteCategory reassigns every transaction and recurring transaction
	// referencing the category to fallbackID (or an auto-created "Other"
	// category when nil) before deleting, so no dangling references remain.
	DeleteCategory(userID, categoryID string, fallbackID *string) error
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate    *time.Time
	ToDate      *time.Time
	AccountID   *string
	CategoryID  *string
	MinAmount   *int64
	MaxAmount   *int64
	IsRecurring *bool
}

// TransactionUpdateFields holds optional fields for updating a transaction.
type TransactionUpdateFields struct {
	AccountID     *string
	CategoryID    *string
	ClearCategory bool
	Amount        *int64
	Description   *string
	Date          *time.Time
}

// BalanceSummary aggregates income, expense, and net over a trailing window.
type BalanceSummary struct {
	FromDate time.Time `json:"from_date"`
	ToDate   time.Time `json:"to_date"`
	Income   int64     `json:"income"`
	Expense  int64     `json:"expense"`
	Net      int64     `json:"net"`
}

// AccountBalance pairs an account with its cached balance for dashboards.
type AccountBalance struct {
	AccountID string `json:"account_id"`
	Name      string `json:"name"`
	Currency  string `json:"currency"`
	Balance   int64  `json:"balance"`
}

// FinanceDashboard is the aggregate view served to the mobile home screen.
type FinanceDashboard struct {
	TotalBalance       int64                `json:"total_balance"`
	Accounts           []AccountBalance     `json:"accounts"`
	Summary            BalanceSummary       `json:"summary"`
	RecentTransactions []models.Transaction `json:"recent_transactions"`
	ActiveRecurring    int64                `json:"active_recurring"`
}

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	CreateTransaction(userID, accountID string, categoryID *string, amount int64, description string, date time.Time) (*models.Transaction, error)
	GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetAccountTransactions(userID, accountID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(userID, transactionID string) (*models.Transaction, error)
	UpdateTransaction(userID, transactionID string, fields TransactionUpdateFields) (*models.Transaction, error)
	DeleteTransaction(userID, transactionID string) error
	GetBalanceSummary(userID string, days int) (*BalanceSummary, error)
	GetFinanceDashboard(userID string) (*FinanceDashboard, error)
}

// RecurringUpdateFields holds optional fields for updating a recurring transaction.
type RecurringUpdateFields struct {
	AccountID         *string
	CategoryID        *string
	ClearCategory     bool
	Amount            *int64
	Description       *string
	Frequency         *models.Frequency
	NextExecutionDate *time.Time
	EndDate           *time.Time
	ClearEndDate      bool
	IsActive          *bool
}

// ProcessError records a single template failure during a processing pass.
type ProcessError struct {
	RecurringTransactionID string `json:"recurring_transaction_id"`
	Message                string `json:"message"`
}

// ProcessResult summarizes one recurring-transaction processing pass.
type ProcessResult struct {
	Processed int            `json:"processed"`
	Created   int            `json:"created"`
	Errors    []ProcessError `json:"errors"`
}

// RecurringServicer defines the contract for recurring-transaction business logic.
type RecurringServicer interface {
	CreateRecurringTransaction(userID, accountID string, categoryID *string, amount int64, description string, frequency models.Frequency, nextExecutionDate time.Time, endDate *time.Time) (*models.RecurringTransaction, error)
	GetUserRecurringTransactions(userID string, page pagination.PageRequest, isActive *bool) (*pagination.PageResponse[models.RecurringTransaction], error)
	GetRecurringTransactionByID(userID, recurringID string) (*models.RecurringTransaction, error)
	UpdateRecurringTransaction(userID, recurringID string, fields RecurringUpdateFields) (*models.RecurringTransaction, error)
	DeleteRecurringTransaction(userID, recurringID string) error

	// ProcessDue materializes one transaction for every active template whose
	// next execution date has passed, deactivating templates past their end
	// date. Failures are isolated per template.
	ProcessDue(now time.Time) (*ProcessResult, error)
}

// ProjectUpdateFields holds optional fields for updating a project.
type ProjectUpdateFields struct {
	Name        *string
	Description *string
	Status      *models.ProjectStatus
	Icon        *string
	Color       *string
	IsDefault   *bool
}

// ProjectSummary aggregates task counts for one project over the past week.
type ProjectSummary struct {
	ProjectID         string `json:"project_id"`
	Name              string `json:"name"`
	OpenTasks         int64  `json:"open_tasks"`
	InProgressTasks   int64  `json:"in_progress_tasks"`
	CompletedThisWeek int64  `json:"completed_this_week"`
	OverdueTasks      int64  `json:"overdue_tasks"`
}

// UserProjectSummary groups weekly project summaries per user for the scheduler.
type UserProjectSummary struct {
	UserID   string           `json:"user_id"`
	Projects []ProjectSummary `json:"projects"`
}

// ProjectServicer defines the contract for project-related business logic.
type ProjectServicer interface {
	CreateProject(userID, name, description, icon, color string, isDefault bool) (*models.Project, error)
	GetUserProjects(userID string, page pagination.PageRequest, status *models.ProjectStatus) (*pagination.PageResponse[models.Project], error)
	GetProjectByID(userID, projectID string) (*models.Project, error)
	UpdateProject(userID, projectID string, fields ProjectUpdateFields) (*models.Project, error)
	DeleteProject(userID, projectID string) error
	ReorderProjects(userID string, orderedIDs []string) error
	GetWeeklySummary(userID string, now time.Time) ([]ProjectSummary, error)
	GetAllWeeklySummaries(now time.Time) ([]UserProjectSummary, error)
}

// TaskCreateFields holds the fields for creating a task.
type TaskCreateFields struct {
	Title       string
	Description string
	Status      models.TaskStatus
	Priority    models.TaskPriority
	DueDate     *time.Time
	Tags        []string
}

// TaskUpdateFields holds optional fields for updating a task.
type TaskUpdateFields struct {
	Title        *string
	Description  *string
	Status       *models.TaskStatus
	Priority     *models.TaskPriority
	DueDate      *time.Time
	ClearDueDate bool
	Tags         *[]string
}

// TaskFilter holds optional filter parameters for listing tasks.
type TaskFilter struct {
	ProjectID *string
	Status    *models.TaskStatus
	Priority  *models.TaskPriority
	Tag       *string
}

// TaskStats aggregates task counts by status, priority, and overdue state.
type TaskStats struct {
	Total      int64                         `json:"total"`
	ByStatus   map[models.TaskStatus]int64   `json:"by_status"`
	ByPriority map[models.TaskPriority]int64 `json:"by_priority"`
	Overdue    int64                         `json:"overdue"`
}

// TaskServicer defines the contract for task-related business logic.
type TaskServicer interface {
	CreateTask(userID, projectID string, fields TaskCreateFields) (*models.Task, error)
	GetUserTasks(userID string, page pagination.PageRequest, filter TaskFilter) (*pagination.PageResponse[models.Task], error)
	GetTaskByID(userID, taskID string) (*models.Task, error)
	UpdateTask(userID, taskID string, fields TaskUpdateFields) (*models.Task, error)
	ToggleTaskCompletion(userID, taskID string) (*models.Task, error)
	DeleteTask(userID, taskID string) error
	ReorderTasks(userID, projectID string, orderedIDs []string) error
	GetTaskStats(userID string, projectID *string) (*TaskStats, error)

	// CleanupCompletedTasks hard-deletes tasks completed before the cutoff.
	// Returns the number of tasks removed.
	CleanupCompletedTasks(olderThan time.Time) (int64, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
