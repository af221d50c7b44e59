package services

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "pocketplan/internal/errors"
	"pocketplan/internal/models"
	"pocketplan/internal/pagination"
)

// maxTaskTags caps the number of tags a task can carry.
const maxTaskTags = 10

// taskService handles task-related business logic.
type taskService struct {
	db             *gorm.DB
	projectService ProjectServicer
}

// NewTaskService creates a new TaskServicer.
func NewTaskService(db *gorm.DB, projectService ProjectServicer) TaskServicer {
	return &taskService{
		db:             db,
		projectService: projectService,
	}
}

func validTaskStatus(s models.TaskStatus) bool {
	switch s {
	case models.TaskStatusTodo, models.TaskStatusInProgress, models.TaskStatusCompleted:
		return true
	}
	return false
}

func validTaskPriority(p models.TaskPriority) bool {
	switch p {
	case models.TaskPriorityLow, models.TaskPriorityMedium, models.TaskPriorityHigh:
		return true
	}
	return false
}

// normalizeTags trims and lower-cases tags, drops empties, de-duplicates,
// and caps the list at maxTaskTags.
func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	normalized := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		normalized = append(normalized, tag)
		if len(normalized) == maxTaskTags {
			break
		}
	}
	if len(normalized) == 0 {
		return nil
	}
	return normalized
}

// validateDueDate rejects due dates before the start of today.
func validateDueDate(due time.Time) error {
	today := time.Now().Truncate(24 * time.Hour)
	if due.Before(today) {
		return apperrors.ErrPastDueDate
	}
	return nil
}

// CreateTask creates a new task in one of the user's projects.
func (s *taskService) CreateTask(userID, projectID string, fields TaskCreateFields) (*models.Task, error) {
	title := strings.TrimSpace(fields.Title)
	if title == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "task title is required")
	}

	if _, err := s.projectService.GetProjectByID(userID, projectID); err != nil {
		return nil, err
	}

	status := fields.Status
	if status == "" {
		status = models.TaskStatusTodo
	}
	if !validTaskStatus(status) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid task status")
	}

	priority := fields.Priority
	if priority == "" {
		priority = models.TaskPriorityMedium
	}
	if !validTaskPriority(priority) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid task priority")
	}

	if fields.DueDate != nil {
		if err := validateDueDate(*fields.DueDate); err != nil {
			return nil, err
		}
	}

	var displayOrder int64
	if err := s.db.Model(&models.Task{}).Where("project_id = ?", projectID).Count(&displayOrder).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	task := &models.Task{
		UserID:       userID,
		ProjectID:    projectID,
		Title:        title,
		Description:  fields.Description,
		Status:       status,
		Priority:     priority,
		DueDate:      fields.DueDate,
		Tags:         normalizeTags(fields.Tags),
		DisplayOrder: int(displayOrder),
	}
	if status == models.TaskStatusCompleted {
		now := time.Now()
		task.CompletedAt = &now
	}

	if err := s.db.Create(task).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return task, nil
}

// GetUserTasks retrieves a paginated, filtered list of the user's tasks.
func (s *taskService) GetUserTasks(userID string, page pagination.PageRequest, filter TaskFilter) (*pagination.PageResponse[models.Task], error) {
	page.Defaults()

	base := s.db.Model(&models.Task{}).Where("user_id = ?", userID)
	if filter.ProjectID != nil {
		base = base.Where("project_id = ?", *filter.ProjectID)
	}
	if filter.Status != nil {
		base = base.Where("status = ?", *filter.Status)
	}
	if filter.Priority != nil {
		base = base.Where("priority = ?", *filter.Priority)
	}
	if filter.Tag != nil {
		// Tags are stored as a JSON array; match the quoted element.
		base = base.Where("tags LIKE ?", "%\""+strings.ToLower(strings.TrimSpace(*filter.Tag))+"\"%")
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var tasks []models.Task
	if err := base.Scopes(pagination.Paginate(page)).
		Order("display_order ASC").
		Find(&tasks).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(tasks, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetTaskByID retrieves a task by ID for a specific user
func (s *taskService) GetTaskByID(userID, taskID string) (*models.Task, error) {
	var task models.Task
	if err := s.db.Where("id = ? AND user_id = ?", taskID, userID).First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTaskNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &task, nil
}

// UpdateTask updates an existing task. CompletedAt is set exactly when the
// status transitions into completed and cleared on any transition out.
func (s *taskService) UpdateTask(userID, taskID string, fields TaskUpdateFields) (*models.Task, error) {
	task, err := s.GetTaskByID(userID, taskID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if fields.Title != nil {
		title := strings.TrimSpace(*fields.Title)
		if title == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "task title is required")
		}
		updates["title"] = title
	}
	if fields.Description != nil {
		updates["description"] = *fields.Description
	}
	if fields.Status != nil && *fields.Status != task.Status {
		if !validTaskStatus(*fields.Status) {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid task status")
		}
		updates["status"] = *fields.Status
		if *fields.Status == models.TaskStatusCompleted {
			updates["completed_at"] = time.Now()
			updates["previous_status"] = task.Status
		} else {
			updates["completed_at"] = nil
			updates["previous_status"] = ""
		}
	}
	if fields.Priority != nil {
		if !validTaskPriority(*fields.Priority) {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid task priority")
		}
		updates["priority"] = *fields.Priority
	}
	if fields.ClearDueDate {
		updates["due_date"] = nil
	} else if fields.DueDate != nil {
		if err := validateDueDate(*fields.DueDate); err != nil {
			return nil, err
		}
		updates["due_date"] = *fields.DueDate
	}
	if fields.Tags != nil {
		updates["tags"] = normalizeTags(*fields.Tags)
	}

	if len(updates) == 0 {
		return task, nil
	}

	if err := s.db.Model(task).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	// Reload to get fresh data
	if err := s.db.Where("id = ?", taskID).First(task).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return task, nil
}

// ToggleTaskCompletion flips a task between completed and its previous
// status. Toggling twice returns the task to where it started.
func (s *taskService) ToggleTaskCompletion(userID, taskID string) (*models.Task, error) {
	task, err := s.GetTaskByID(userID, taskID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if task.Status == models.TaskStatusCompleted {
		restored := task.PreviousStatus
		if restored == "" || restored == models.TaskStatusCompleted {
			restored = models.TaskStatusTodo
		}
		updates["status"] = restored
		updates["previous_status"] = ""
		updates["completed_at"] = nil
	} else {
		updates["status"] = models.TaskStatusCompleted
		updates["previous_status"] = task.Status
		updates["completed_at"] = time.Now()
	}

	if err := s.db.Model(task).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := s.db.Where("id = ?", taskID).First(task).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return task, nil
}

// DeleteTask deletes a task
func (s *taskService) DeleteTask(userID, taskID string) error {
	task, err := s.GetTaskByID(userID, taskID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(task).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// ReorderTasks assigns sequential display order within a project.
func (s *taskService) ReorderTasks(userID, projectID string, orderedIDs []string) error {
	if len(orderedIDs) == 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "task IDs are required")
	}

	if _, err := s.projectService.GetProjectByID(userID, projectID); err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		for i, id := range orderedIDs {
			res := tx.Model(&models.Task{}).
				Where("id = ? AND user_id = ? AND project_id = ?", id, userID, projectID).
				Update("display_order", i)
			if res.Error != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
			}
			if res.RowsAffected == 0 {
				return apperrors.ErrTaskNotFound
			}
		}
		return nil
	})
}

// GetTaskStats aggregates the user's task counts by status, priority, and
// overdue state, optionally scoped to one project.
func (s *taskService) GetTaskStats(userID string, projectID *string) (*TaskStats, error) {
	base := func() *gorm.DB {
		q := s.db.Model(&models.Task{}).Where("user_id = ?", userID)
		if projectID != nil {
			q = q.Where("project_id = ?", *projectID)
		}
		return q
	}

	stats := &TaskStats{
		ByStatus:   make(map[models.TaskStatus]int64),
		ByPriority: make(map[models.TaskPriority]int64),
	}

	if err := base().Count(&stats.Total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	for _, status := range []models.TaskStatus{models.TaskStatusTodo, models.TaskStatusInProgress, models.TaskStatusCompleted} {
		var count int64
		if err := base().Where("status = ?", status).Count(&count).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		stats.ByStatus[status] = count
	}

	for _, priority := range []models.TaskPriority{models.TaskPriorityLow, models.TaskPriorityMedium, models.TaskPriorityHigh} {
		var count int64
		if err := base().Where("priority = ?", priority).Count(&count).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		stats.ByPriority[priority] = count
	}

	if err := base().
		Where("status <> ? AND due_date IS NOT NULL AND due_date < ?", models.TaskStatusCompleted, time.Now()).
		Count(&stats.Overdue).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return stats, nil
}

// CleanupCompletedTasks hard-deletes tasks that were completed before the
// cutoff. Soft-deleted rows are purged as well.
func (s *taskService) CleanupCompletedTasks(olderThan time.Time) (int64, error) {
	res := s.db.Unscoped().
		Where("status = ? AND completed_at IS NOT NULL AND completed_at < ?", models.TaskStatusCompleted, olderThan).
		Delete(&models.Task{})
	if res.Error != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	return res.RowsAffected, nil
}
