package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"pocketplan/internal/config"
	"pocketplan/internal/database"
	"pocketplan/internal/logger"
	"pocketplan/internal/scheduler"
	"pocketplan/internal/services"
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	db := dbManager.DB()
	accountService := services.NewAccountService(db)
	recurringService := services.NewRecurringService(db, accountService)
	projectService := services.NewProjectService(db)
	taskService := services.NewTaskService(db, projectService)

	sched := scheduler.New(recurringService, taskService, projectService, appConfig.RecurringInterval)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Infow("scheduler started", "recurring_interval", appConfig.RecurringInterval.String())
	if err := sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Infow("scheduler stopped")
	return nil
}
