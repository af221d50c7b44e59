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

// projectService handles project-related business logic.
type projectService struct {
	db *gorm.DB
}

// NewProjectService creates a new ProjectServicer.
func NewProjectService(db *gorm.DB) ProjectServicer {
	return &projectService{db: db}
}

// CreateProject creates a new project. Names are unique per user; the same
// name is fine across users.
func (s *projectService) CreateProject(userID, name, description, icon, color string, isDefault bool) (*models.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "project name is required")
	}

	var count int64
	if err := s.db.Model(&models.Project{}).
		Where("user_id = ? AND name = ?", userID, name).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.WithMessage(apperrors.ErrDuplicateName, "project with this name already exists")
	}

	var displayOrder int64
	if err := s.db.Model(&models.Project{}).Where("user_id = ?", userID).Count(&displayOrder).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	project := &models.Project{
		UserID:       userID,
		Name:         name,
		Description:  description,
		Status:       models.ProjectStatusActive,
		Icon:         icon,
		Color:        color,
		IsDefault:    isDefault,
		DisplayOrder: int(displayOrder),
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if isDefault {
			if err := clearDefaultFlag(tx, &models.Project{}, userID); err != nil {
				return err
			}
		}
		if err := tx.Create(project).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return project, nil
}

// GetUserProjects retrieves a paginated list of projects for a user,
// optionally filtered by status.
func (s *projectService) GetUserProjects(userID string, page pagination.PageRequest, status *models.ProjectStatus) (*pagination.PageResponse[models.Project], error) {
	page.Defaults()

	base := s.db.Model(&models.Project{}).Where("user_id = ?", userID)
	if status != nil {
		base = base.Where("status = ?", *status)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var projects []models.Project
	if err := base.Scopes(pagination.Paginate(page)).
		Order("display_order ASC").
		Find(&projects).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(projects, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetProjectByID retrieves a project by ID for a specific user
func (s *projectService) GetProjectByID(userID, projectID string) (*models.Project, error) {
	var project models.Project
	if err := s.db.Where("id = ? AND user_id = ?", projectID, userID).First(&project).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrProjectNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &project, nil
}

// UpdateProject updates an existing project
func (s *projectService) UpdateProject(userID, projectID string, fields ProjectUpdateFields) (*models.Project, error) {
	project, err := s.GetProjectByID(userID, projectID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if fields.Name != nil {
		name := strings.TrimSpace(*fields.Name)
		if name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "project name is required")
		}
		if name != project.Name {
			var count int64
			if err := s.db.Model(&models.Project{}).
				Where("user_id = ? AND name = ? AND id <> ?", userID, name, projectID).
				Count(&count).Error; err != nil {
				return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if count > 0 {
				return nil, apperrors.WithMessage(apperrors.ErrDuplicateName, "project with this name already exists")
			}
		}
		updates["name"] = name
	}
	if fields.Description != nil {
		updates["description"] = *fields.Description
	}
	if fields.Status != nil {
		switch *fields.Status {
		case models.ProjectStatusActive, models.ProjectStatusCompleted, models.ProjectStatusArchived:
		default:
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid project status")
		}
		updates["status"] = *fields.Status
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
		return project, nil
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if fields.IsDefault != nil && *fields.IsDefault {
			if err := clearDefaultFlag(tx, &models.Project{}, userID); err != nil {
				return err
			}
		}
		if err := tx.Model(project).Updates(updates).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return project, nil
}

// DeleteProject deletes a project and cascades to its tasks.
func (s *projectService) DeleteProject(userID, projectID string) error {
	project, err := s.GetProjectByID(userID, projectID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", projectID).Delete(&models.Task{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(project).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// ReorderProjects assigns sequential display order following the given ID list.
func (s *projectService) ReorderProjects(userID string, orderedIDs []string) error {
	if len(orderedIDs) == 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "project IDs are required")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		for i, id := range orderedIDs {
			res := tx.Model(&models.Project{}).
				Where("id = ? AND user_id = ?", id, userID).
				Update("display_order", i)
			if res.Error != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
			}
			if res.RowsAffected == 0 {
				return apperrors.ErrProjectNotFound
			}
		}
		return nil
	})
}

// GetWeeklySummary aggregates per-project task counts for the past week.
func (s *projectService) GetWeeklySummary(userID string, now time.Time) ([]ProjectSummary, error) {
	weekAgo := now.AddDate(0, 0, -7)

	var projects []models.Project
	if err := s.db.Where("user_id = ? AND status = ?", userID, models.ProjectStatusActive).
		Order("display_order ASC").
		Find(&projects).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	summaries := make([]ProjectSummary, 0, len(projects))
	for _, p := range projects {
		summary := ProjectSummary{ProjectID: p.ID, Name: p.Name}

		counts := []struct {
			dest  *int64
			query *gorm.DB
		}{
			{&summary.OpenTasks, s.db.Model(&models.Task{}).
				Where("project_id = ? AND status = ?", p.ID, models.TaskStatusTodo)},
			{&summary.InProgressTasks, s.db.Model(&models.Task{}).
				Where("project_id = ? AND status = ?", p.ID, models.TaskStatusInProgress)},
			{&summary.CompletedThisWeek, s.db.Model(&models.Task{}).
				Where("project_id = ? AND status = ? AND completed_at >= ?", p.ID, models.TaskStatusCompleted, weekAgo)},
			{&summary.OverdueTasks, s.db.Model(&models.Task{}).
				Where("project_id = ? AND status <> ? AND due_date IS NOT NULL AND due_date < ?", p.ID, models.TaskStatusCompleted, now)},
		}
		for _, c := range counts {
			if err := c.query.Count(c.dest).Error; err != nil {
				return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}

		summaries = append(summaries, summary)
	}

	return summaries, nil
}

// GetAllWeeklySummaries builds weekly summaries for every user that owns at
// least one active project. Used by the weekly scheduler job.
func (s *projectService) GetAllWeeklySummaries(now time.Time) ([]UserProjectSummary, error) {
	var userIDs []string
	if err := s.db.Model(&models.Project{}).
		Where("status = ?", models.ProjectStatusActive).
		Distinct("user_id").
		Pluck("user_id", &userIDs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	summaries := make([]UserProjectSummary, 0, len(userIDs))
	for _, userID := range userIDs {
		projects, err := s.GetWeeklySummary(userID, now)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, UserProjectSummary{UserID: userID, Projects: projects})
	}
	return summaries, nil
}
