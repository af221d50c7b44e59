package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "pocketplan/internal/errors"
	"pocketplan/internal/models"
	"pocketplan/internal/pagination"
	"pocketplan/internal/services"
	"pocketplan/internal/uuid"
)

// TaskHandler handles task-related requests.
type TaskHandler struct {
	taskService  services.TaskServicer
	auditService services.AuditServicer
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService services.TaskServicer, auditService services.AuditServicer) *TaskHandler {
	return &TaskHandler{taskService: taskService, auditService: auditService}
}

// CreateTaskRequest represents the request payload for creating a task
type CreateTaskRequest struct {
	ProjectID   string   `json:"project_id" binding:"required,uuid"`
	Title       string   `json:"title" binding:"required,min=1,max=200"`
	Description string   `json:"description" binding:"max=2000"`
	Status      string   `json:"status" binding:"omitempty,task_status"`
	Priority    string   `json:"priority" binding:"omitempty,task_priority"`
	DueDate     *string  `json:"due_date"`
	Tags        []string `json:"tags" binding:"omitempty,max=10,dive,max=50"`
}

// UpdateTaskRequest represents the request payload for updating a task.
type UpdateTaskRequest struct {
	Title        *string   `json:"title" binding:"omitempty,min=1,max=200"`
	Description  *string   `json:"description" binding:"omitempty,max=2000"`
	Status       *string   `json:"status" binding:"omitempty,task_status"`
	Priority     *string   `json:"priority" binding:"omitempty,task_priority"`
	DueDate      *string   `json:"due_date"`
	ClearDueDate bool      `json:"clear_due_date"`
	Tags         *[]string `json:"tags" binding:"omitempty,max=10,dive,max=50"`
}

// ReorderTasksRequest represents an ordered list of task IDs within one project.
type ReorderTasksRequest struct {
	ProjectID  string   `json:"project_id" binding:"required,uuid"`
	OrderedIDs []string `json:"ordered_ids" binding:"required,min=1,dive,uuid"`
}

// CreateTask handles the creation of a new task
// @Summary     Create a task
// @Description Create a new task inside one of the authenticated user's projects
// @Tags        tasks
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateTaskRequest true "Task details"
// @Success     201 {object} models.Task "Task created"
// @Failure     400 {object} ErrorResponse "Invalid input or past due date"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Project not found"
// @Router      /tasks [post]
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	dueDate, err := parseOptionalDate(req.DueDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	task, err := h.taskService.CreateTask(userID, req.ProjectID, services.TaskCreateFields{
		Title:       req.Title,
		Description: req.Description,
		Status:      models.TaskStatus(req.Status),
		Priority:    models.TaskPriority(req.Priority),
		DueDate:     dueDate,
		Tags:        req.Tags,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_TASK", "task", task.ID, c.ClientIP(),
		map[string]interface{}{"project_id": req.ProjectID, "title": req.Title})

	c.JSON(http.StatusCreated, gin.H{"task": task})
}

// GetUserTasks handles the retrieval of tasks for a user
// @Summary     Get user tasks
// @Description Get a paginated, filterable list of tasks across all of the user's projects
// @Tags        tasks
// @Produce     json
// @Security    BearerAuth
// @Param       page       query int    false "Page number (default 1)"
// @Param       page_size  query int    false "Items per page (default 20, max 100)"
// @Param       project_id query string false "Filter by project"
// @Param       status     query string false "Filter by status"
// @Param       priority   query string false "Filter by priority"
// @Param       tag        query string false "Filter by tag"
// @Success     200 {object} pagination.PageResponse[models.Task] "Paginated tasks"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /tasks [get]
func (h *TaskHandler) GetUserTasks(c *gin.Context) {
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

	var filter services.TaskFilter
	if raw := c.Query("project_id"); raw != "" {
		if !uuid.IsValid(raw) {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid project_id"))
			return
		}
		filter.ProjectID = &raw
	}
	if raw := c.Query("status"); raw != "" {
		s := models.TaskStatus(raw)
		filter.Status = &s
	}
	if raw := c.Query("priority"); raw != "" {
		p := models.TaskPriority(raw)
		filter.Priority = &p
	}
	if raw := c.Query("tag"); raw != "" {
		filter.Tag = &raw
	}

	result, err := h.taskService.GetUserTasks(userID, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetTask handles the retrieval of a single task
// @Summary     Get a task
// @Description Get a single task owned by the authenticated user
// @Tags        tasks
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Task ID"
// @Success     200 {object} models.Task "Task"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Task not found"
// @Router      /tasks/{id} [get]
func (h *TaskHandler) GetTask(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	taskID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	task, err := h.taskService.GetTaskByID(userID, taskID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"task": task})
}

// UpdateTask handles task updates
// @Summary     Update a task
// @Description Update a task. Moving into or out of the completed status maintains the completion timestamp.
// @Tags        tasks
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string            true "Task ID"
// @Param       request body UpdateTaskRequest true "Fields to update"
// @Success     200 {object} models.Task "Updated task"
// @Failure     400 {object} ErrorResponse "Invalid input or past due date"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Task not found"
// @Router      /tasks/{id} [put]
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	taskID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	dueDate, err := parseOptionalDate(req.DueDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var status *models.TaskStatus
	if req.Status != nil {
		s := models.TaskStatus(*req.Status)
		status = &s
	}
	var priority *models.TaskPriority
	if req.Priority != nil {
		p := models.TaskPriority(*req.Priority)
		priority = &p
	}

	task, err := h.taskService.UpdateTask(userID, taskID, services.TaskUpdateFields{
		Title:        req.Title,
		Description:  req.Description,
		Status:       status,
		Priority:     priority,
		DueDate:      dueDate,
		ClearDueDate: req.ClearDueDate,
		Tags:         req.Tags,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_TASK", "task", task.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"task": task})
}

// ToggleTaskCompletion flips a task between completed and its previous status
// @Summary     Toggle task completion
// @Description Mark a task completed, or restore its previous status if it is already completed
// @Tags        tasks
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Task ID"
// @Success     200 {object} models.Task "Updated task"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Task not found"
// @Router      /tasks/{id}/toggle [post]
func (h *TaskHandler) ToggleTaskCompletion(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	taskID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	task, err := h.taskService.ToggleTaskCompletion(userID, taskID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "TOGGLE_TASK", "task", task.ID, c.ClientIP(),
		map[string]interface{}{"status": task.Status})

	c.JSON(http.StatusOK, gin.H{"task": task})
}

// DeleteTask handles task deletion
// @Summary     Delete a task
// @Description Delete a task owned by the authenticated user
// @Tags        tasks
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Task ID"
// @Success     200 {object} MessageResponse "Task deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Task not found"
// @Router      /tasks/{id} [delete]
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	taskID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.taskService.DeleteTask(userID, taskID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_TASK", "task", taskID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Task deleted"})
}

// ReorderTasks handles display-order updates within a project
// @Summary     Reorder tasks
// @Description Persist a new display order for the tasks of one project
// @Tags        tasks
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body ReorderTasksRequest true "Ordered task IDs"
// @Success     200 {object} MessageResponse "Order updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Project or task not found"
// @Router      /tasks/reorder [put]
func (h *TaskHandler) ReorderTasks(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ReorderTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	if err := h.taskService.ReorderTasks(userID, req.ProjectID, req.OrderedIDs); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Tasks reordered"})
}

// GetTaskStats returns aggregate task counts
// @Summary     Get task statistics
// @Description Get task counts by status, priority, and overdue state, optionally scoped to one project
// @Tags        tasks
// @Produce     json
// @Security    BearerAuth
// @Param       project_id query string false "Scope stats to one project"
// @Success     200 {object} services.TaskStats "Task statistics"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /tasks/stats [get]
func (h *TaskHandler) GetTaskStats(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var projectID *string
	if raw := c.Query("project_id"); raw != "" {
		if !uuid.IsValid(raw) {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid project_id"))
			return
		}
		projectID = &raw
	}

	stats, err := h.taskService.GetTaskStats(userID, projectID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
