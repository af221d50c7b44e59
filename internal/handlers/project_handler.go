package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "pocketplan/internal/errors"
	"pocketplan/internal/models"
	"pocketplan/internal/pagination"
	"pocketplan/internal/services"
)

// ProjectHandler handles project-related requests.
type ProjectHandler struct {
	projectService services.ProjectServicer
	taskService    services.TaskServicer
	auditService   services.AuditServicer
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(projectService services.ProjectServicer, taskService services.TaskServicer, auditService services.AuditServicer) *ProjectHandler {
	return &ProjectHandler{projectService: projectService, taskService: taskService, auditService: auditService}
}

// CreateProjectRequest represents the request payload for creating a project
type CreateProjectRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=100"`
	Description string `json:"description" binding:"max=500"`
	Icon        string `json:"icon" binding:"max=50"`
	Color       string `json:"color" binding:"omitempty,hex_color"`
	IsDefault   bool   `json:"is_default"`
}

// UpdateProjectRequest represents the request payload for updating a project.
type UpdateProjectRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=100"`
	Description *string `json:"description" binding:"omitempty,max=500"`
	Status      *string `json:"status" binding:"omitempty,project_status"`
	Icon        *string `json:"icon" binding:"omitempty,max=50"`
	Color       *string `json:"color" binding:"omitempty,hex_color"`
	IsDefault   *bool   `json:"is_default"`
}

// CreateProject handles the creation of a new project
// @Summary     Create a project
// @Description Create a new project for the authenticated user
// @Tags        projects
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateProjectRequest true "Project details"
// @Success     201 {object} models.Project "Project created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     409 {object} ErrorResponse "Name already in use"
// @Router      /projects [post]
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	project, err := h.projectService.CreateProject(userID, req.Name, req.Description, req.Icon, req.Color, req.IsDefault)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_PROJECT", "project", project.ID, c.ClientIP(),
		map[string]interface{}{"name": req.Name})

	c.JSON(http.StatusCreated, gin.H{"project": project})
}

// GetUserProjects handles the retrieval of projects for a user
// @Summary     Get user projects
// @Description Get a paginated list of projects for the authenticated user
// @Tags        projects
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Param       status    query string false "Filter by status (active, completed, archived)"
// @Success     200 {object} pagination.PageResponse[models.Project] "Paginated projects"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /projects [get]
func (h *ProjectHandler) GetUserProjects(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var status *models.ProjectStatus
	if raw := c.Query("status"); raw != "" {
		s := models.ProjectStatus(raw)
		if s != models.ProjectStatusActive && s != models.ProjectStatusCompleted && s != models.ProjectStatusArchived {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid status"))
			return
		}
		status = &s
	}

	result, err := h.projectService.GetUserProjects(userID, page, status)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetProject handles the retrieval of a single project
// @Summary     Get a project
// @Description Get a single project owned by the authenticated user
// @Tags        projects
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Project ID"
// @Success     200 {object} models.Project "Project"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Project not found"
// @Router      /projects/{id} [get]
func (h *ProjectHandler) GetProject(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	projectID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	project, err := h.projectService.GetProjectByID(userID, projectID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"project": project})
}

// UpdateProject handles project updates
// @Summary     Update a project
// @Description Update a project's fields
// @Tags        projects
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string               true "Project ID"
// @Param       request body UpdateProjectRequest true "Fields to update"
// @Success     200 {object} models.Project "Updated project"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Project not found"
// @Failure     409 {object} ErrorResponse "Name already in use"
// @Router      /projects/{id} [put]
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	projectID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var status *models.ProjectStatus
	if req.Status != nil {
		s := models.ProjectStatus(*req.Status)
		status = &s
	}

	project, err := h.projectService.UpdateProject(userID, projectID, services.ProjectUpdateFields{
		Name:        req.Name,
		Description: req.Description,
		Status:      status,
		Icon:        req.Icon,
		Color:       req.Color,
		IsDefault:   req.IsDefault,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_PROJECT", "project", project.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"project": project})
}

// DeleteProject handles project deletion
// @Summary     Delete a project
// @Description Delete a project and every task it contains
// @Tags        projects
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Project ID"
// @Success     200 {object} MessageResponse "Project deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Project not found"
// @Router      /projects/{id} [delete]
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	projectID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.projectService.DeleteProject(userID, projectID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_PROJECT", "project", projectID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Project deleted"})
}

// ReorderProjects handles display-order updates
// @Summary     Reorder projects
// @Description Persist a new display order for the user's projects
// @Tags        projects
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body ReorderRequest true "Ordered project IDs"
// @Success     200 {object} MessageResponse "Order updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Project not found"
// @Router      /projects/reorder [put]
func (h *ProjectHandler) ReorderProjects(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	if err := h.projectService.ReorderProjects(userID, req.OrderedIDs); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Projects reordered"})
}

// GetProjectTasks lists the tasks belonging to one project
// @Summary     Get project tasks
// @Description Get a paginated list of tasks in one project
// @Tags        projects
// @Produce     json
// @Security    BearerAuth
// @Param       id        path  string true  "Project ID"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Param       status    query string false "Filter by task status"
// @Param       priority  query string false "Filter by task priority"
// @Success     200 {object} pagination.PageResponse[models.Task] "Paginated tasks"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Project not found"
// @Router      /projects/{id}/tasks [get]
func (h *ProjectHandler) GetProjectTasks(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	projectID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	// Ownership check before delegating to the task service.
	if _, err := h.projectService.GetProjectByID(userID, projectID); err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter := services.TaskFilter{ProjectID: &projectID}
	if raw := c.Query("status"); raw != "" {
		s := models.TaskStatus(raw)
		filter.Status = &s
	}
	if raw := c.Query("priority"); raw != "" {
		p := models.TaskPriority(raw)
		filter.Priority = &p
	}

	result, err := h.taskService.GetUserTasks(userID, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetWeeklySummary returns per-project task counts for the past week
// @Summary     Get weekly project summary
// @Description Get open, in-progress, completed-this-week, and overdue task counts per active project
// @Tags        projects
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} []services.ProjectSummary "Per-project summaries"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /projects/summary [get]
func (h *ProjectHandler) GetWeeklySummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summaries, err := h.projectService.GetWeeklySummary(userID, time.Now().UTC())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"projects": summaries})
}
