package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"pocketplan/internal/config"
	"pocketplan/internal/database"
	"pocketplan/internal/handlers"
	"pocketplan/internal/logger"
	"pocketplan/internal/middleware"
	"pocketplan/internal/services"
	"pocketplan/internal/validator"

	_ "pocketplan/internal/docs" // Import swagger docs
)

// @title           PocketPlan API
// @version         1.0
// @description     PocketPlan is the backend for a personal task and finance app: projects and tasks on one side, accounts, categories, and transactions on the other.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Register custom request validators
	validator.Register()

	// Initialize services
	db := dbManager.DB()
	userService := services.NewUserService(db)
	accountService := services.NewAccountService(db)
	categoryService := services.NewCategoryService(db)
	transactionService := services.NewTransactionService(db, accountService, categoryService)
	recurringService := services.NewRecurringService(db, accountService)
	projectService := services.NewProjectService(db)
	taskService := services.NewTaskService(db, projectService)
	auditService := services.NewAuditService(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService, auditService)
	accountHandler := handlers.NewAccountHandler(accountService, auditService)
	categoryHandler := handlers.NewCategoryHandler(categoryService, auditService)
	transactionHandler := handlers.NewTransactionHandler(transactionService, auditService)
	recurringHandler := handlers.NewRecurringHandler(recurringService, auditService)
	projectHandler := handlers.NewProjectHandler(projectService, taskService, auditService)
	taskHandler := handlers.NewTaskHandler(taskService, auditService)
	jobHandler := handlers.NewJobHandler(taskService, projectService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.RefreshToken)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	// User profile and settings
	protected.GET("/profile", authHandler.GetProfile)
	protected.POST("/settings/reset", authHandler.ResetData)

	// Account routes
	accounts := protected.Group("/accounts")
	accounts.POST("", accountHandler.CreateAccount)
	accounts.GET("", accountHandler.GetUserAccounts)
	accounts.PUT("/reorder", accountHandler.ReorderAccounts)
	accounts.GET("/balance/total", accountHandler.GetTotalBalance)
	accounts.GET("/:id", accountHandler.GetAccount)
	accounts.PUT("/:id", accountHandler.UpdateAccount)
	accounts.DELETE("/:id", accountHandler.DeleteAccount)
	accounts.GET("/:id/balance", accountHandler.GetAccountBalance)
	accounts.GET("/:id/transactions", transactionHandler.GetAccountTransactions)

	// Category routes
	categories := protected.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetUserCategories)
	categories.GET("/:id", categoryHandler.GetCategory)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	// Transaction routes
	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetUserTransactions)
	transactions.GET("/summary", transactionHandler.GetBalanceSummary)
	transactions.GET("/:id", transactionHandler.GetTransaction)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	// Finance dashboard
	protected.GET("/dashboard", transactionHandler.GetFinanceDashboard)

	// Recurring transaction routes
	recurring := protected.Group("/recurring-transactions")
	recurring.POST("", recurringHandler.CreateRecurringTransaction)
	recurring.GET("", recurringHandler.GetUserRecurringTransactions)
	recurring.GET("/:id", recurringHandler.GetRecurringTransaction)
	recurring.PUT("/:id", recurringHandler.UpdateRecurringTransaction)
	recurring.DELETE("/:id", recurringHandler.DeleteRecurringTransaction)

	// Project routes
	projects := protected.Group("/projects")
	projects.POST("", projectHandler.CreateProject)
	projects.GET("", projectHandler.GetUserProjects)
	projects.PUT("/reorder", projectHandler.ReorderProjects)
	projects.GET("/summary", projectHandler.GetWeeklySummary)
	projects.GET("/:id", projectHandler.GetProject)
	projects.PUT("/:id", projectHandler.UpdateProject)
	projects.DELETE("/:id", projectHandler.DeleteProject)
	projects.GET("/:id/tasks", projectHandler.GetProjectTasks)

	// Task routes
	tasks := protected.Group("/tasks")
	tasks.POST("", taskHandler.CreateTask)
	tasks.GET("", taskHandler.GetUserTasks)
	tasks.PUT("/reorder", taskHandler.ReorderTasks)
	tasks.GET("/stats", taskHandler.GetTaskStats)
	tasks.GET("/:id", taskHandler.GetTask)
	tasks.PUT("/:id", taskHandler.UpdateTask)
	tasks.DELETE("/:id", taskHandler.DeleteTask)
	tasks.POST("/:id/toggle", taskHandler.ToggleTaskCompletion)

	// Internal job triggers, for operations and cron fallbacks
	jobs := v1.Group("/internal/jobs")
	jobs.Use(middleware.JobAuthMiddleware(appConfig.JobAPIKey))
	jobs.POST("/recurring", recurringHandler.ProcessRecurringTransactions)
	jobs.POST("/task-cleanup", jobHandler.CleanupCompletedTasks)
	jobs.POST("/project-summary", jobHandler.ProjectSummaries)

	log.Infof("Starting PocketPlan backend server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
