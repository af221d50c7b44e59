package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pocketplan/internal/services"
)

// Retention window for completed tasks before cleanup removes them.
const taskRetention = 30 * 24 * time.Hour

// JobHandler exposes manual triggers for the periodic jobs. The scheduler
// binary runs the same service methods on a timer; these endpoints exist for
// operations and tests, guarded by the job API key.
type JobHandler struct {
	taskService    services.TaskServicer
	projectService services.ProjectServicer
}

// NewJobHandler creates a new JobHandler.
func NewJobHandler(taskService services.TaskServicer, projectService services.ProjectServicer) *JobHandler {
	return &JobHandler{taskService: taskService, projectService: projectService}
}

// CleanupCompletedTasks removes tasks completed more than 30 days ago
// @Summary     Clean up old completed tasks
// @Description Hard-delete tasks that have been completed for more than 30 days. Internal endpoint guarded by the job API key.
// @Tags        internal
// @Produce     json
// @Param       X-API-Key header string true "Job API key"
// @Success     200 {object} map[string]int64 "Number of tasks removed"
// @Failure     401 {object} ErrorResponse "Missing or invalid API key"
// @Router      /internal/jobs/task-cleanup [post]
func (h *JobHandler) CleanupCompletedTasks(c *gin.Context) {
	removed, err := h.taskService.CleanupCompletedTasks(time.Now().UTC().Add(-taskRetention))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

// ProjectSummaries computes the weekly summary for every user
// @Summary     Compute weekly project summaries
// @Description Compute per-project task counts for the past week across all users. Internal endpoint guarded by the job API key.
// @Tags        internal
// @Produce     json
// @Param       X-API-Key header string true "Job API key"
// @Success     200 {object} []services.UserProjectSummary "Per-user summaries"
// @Failure     401 {object} ErrorResponse "Missing or invalid API key"
// @Router      /internal/jobs/project-summary [post]
func (h *JobHandler) ProjectSummaries(c *gin.Context) {
	summaries, err := h.projectService.GetAllWeeklySummaries(time.Now().UTC())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"summaries": summaries})
}
