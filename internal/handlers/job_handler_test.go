package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"pocketplan/internal/middleware"
	"pocketplan/internal/services"
)

func setupJobRouter(handler *JobHandler, jobAPIKey string) *gin.Engine {
	r := gin.New()
	jobs := r.Group("/internal/jobs", middleware.JobAuthMiddleware(jobAPIKey))
	jobs.POST("/task-cleanup", handler.CleanupCompletedTasks)
	jobs.POST("/project-summary", handler.ProjectSummaries)
	return r
}

func TestCleanupCompletedTasksJob(t *testing.T) {
	t.Run("returns 200 with removed count", func(t *testing.T) {
		var gotCutoff time.Time
		taskSvc := &mockTaskService{
			cleanupFn: func(olderThan time.Time) (int64, error) {
				gotCutoff = olderThan
				return 7, nil
			},
		}
		handler := NewJobHandler(taskSvc, &mockProjectService{})
		router := setupJobRouter(handler, "secret-key")

		rec := doRequestWithHeader(router, http.MethodPost, "/internal/jobs/task-cleanup", "", "X-API-Key", "secret-key")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		body := parseJSON(t, rec)
		if body["removed"].(float64) != 7 {
			t.Errorf("expected 7 removed tasks, got %v", body["removed"])
		}
		wantCutoff := time.Now().UTC().Add(-taskRetention)
		if diff := wantCutoff.Sub(gotCutoff); diff < 0 || diff > time.Minute {
			t.Errorf("cutoff %v not close to 30 days ago", gotCutoff)
		}
	})

	t.Run("returns 401 with wrong api key", func(t *testing.T) {
		handler := NewJobHandler(&mockTaskService{}, &mockProjectService{})
		router := setupJobRouter(handler, "secret-key")

		rec := doRequestWithHeader(router, http.MethodPost, "/internal/jobs/task-cleanup", "", "X-API-Key", "wrong")

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_API_KEY")
	})

	t.Run("returns 503 when no api key is configured", func(t *testing.T) {
		handler := NewJobHandler(&mockTaskService{}, &mockProjectService{})
		router := setupJobRouter(handler, "")

		rec := doRequestWithHeader(router, http.MethodPost, "/internal/jobs/task-cleanup", "", "X-API-Key", "anything")

		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "JOBS_NOT_CONFIGURED")
	})
}

func TestProjectSummariesJob(t *testing.T) {
	t.Run("returns 200 with per-user summaries", func(t *testing.T) {
		projectSvc := &mockProjectService{
			getAllWeeklySummariesFn: func(now time.Time) ([]services.UserProjectSummary, error) {
				return []services.UserProjectSummary{
					{
						UserID: testUserID,
						Projects: []services.ProjectSummary{
							{ProjectID: testProjectID, Name: "Home", OpenTasks: 2, CompletedThisWeek: 1},
						},
					},
				}, nil
			},
		}
		handler := NewJobHandler(&mockTaskService{}, projectSvc)
		router := setupJobRouter(handler, "secret-key")

		rec := doRequestWithHeader(router, http.MethodPost, "/internal/jobs/project-summary", "", "X-API-Key", "secret-key")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		body := parseJSON(t, rec)
		summaries := body["summaries"].([]interface{})
		if len(summaries) != 1 {
			t.Fatalf("expected 1 summary, got %d", len(summaries))
		}
		first := summaries[0].(map[string]interface{})
		if first["user_id"] != testUserID {
			t.Errorf("expected user %s, got %v", testUserID, first["user_id"])
		}
		projects := first["projects"].([]interface{})
		if len(projects) != 1 {
			t.Fatalf("expected 1 project summary, got %d", len(projects))
		}
	})
}
