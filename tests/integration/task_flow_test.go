package integration

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"pocketplan/internal/models"
)

func TestTaskFlow_ProjectTasksToggle(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "tasks@test.com", "password123")

	// Create a project
	rec := app.request("POST", "/api/v1/projects",
		`{"name":"Kitchen Renovation","color":"#336699"}`, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create project failed: %d %s", rec.Code, rec.Body.String())
	}
	project := parseJSON(t, rec)["project"].(map[string]interface{})
	projectID := project["id"].(string)
	if project["status"] != "active" {
		t.Errorf("expected new project to be active, got %v", project["status"])
	}

	// Duplicate project names are rejected per user
	rec = app.request("POST", "/api/v1/projects",
		`{"name":"Kitchen Renovation"}`, token)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate project name, got %d: %s", rec.Code, rec.Body.String())
	}

	// Create two tasks in the project
	rec = app.request("POST", "/api/v1/tasks",
		fmt.Sprintf(`{"project_id":%q,"title":"Order cabinets","priority":"high","tags":["shopping"]}`, projectID), token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create task failed: %d %s", rec.Code, rec.Body.String())
	}
	firstTaskID := parseJSON(t, rec)["task"].(map[string]interface{})["id"].(string)

	rec = app.request("POST", "/api/v1/tasks",
		fmt.Sprintf(`{"project_id":%q,"title":"Paint walls"}`, projectID), token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create task failed: %d %s", rec.Code, rec.Body.String())
	}
	secondTaskID := parseJSON(t, rec)["task"].(map[string]interface{})["id"].(string)

	// A due date in the past is rejected
	rec = app.request("POST", "/api/v1/tasks",
		fmt.Sprintf(`{"project_id":%q,"title":"Time travel","due_date":"2020-01-01"}`, projectID), token)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for past due date, got %d: %s", rec.Code, rec.Body.String())
	}
	errObj := parseJSON(t, rec)["error"].(map[string]interface{})
	if errObj["code"] != "PAST_DUE_DATE" {
		t.Errorf("expected PAST_DUE_DATE, got %v", errObj["code"])
	}

	// Toggle the first task to completed and back
	rec = app.request("POST", "/api/v1/tasks/"+firstTaskID+"/toggle", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle failed: %d %s", rec.Code, rec.Body.String())
	}
	task := parseJSON(t, rec)["task"].(map[string]interface{})
	if task["status"] != "completed" {
		t.Errorf("expected completed after toggle, got %v", task["status"])
	}
	if task["completed_at"] == nil {
		t.Error("expected completed_at to be set after toggle")
	}

	rec = app.request("POST", "/api/v1/tasks/"+firstTaskID+"/toggle", "", token)
	task = parseJSON(t, rec)["task"].(map[string]interface{})
	if task["status"] != "todo" {
		t.Errorf("expected todo after second toggle, got %v", task["status"])
	}

	// Reorder tasks within the project
	rec = app.request("PUT", "/api/v1/tasks/reorder",
		fmt.Sprintf(`{"project_id":%q,"ordered_ids":[%q,%q]}`, projectID, secondTaskID, firstTaskID), token)
	if rec.Code != http.StatusOK {
		t.Fatalf("reorder failed: %d %s", rec.Code, rec.Body.String())
	}

	// Stats reflect the two open tasks
	rec = app.request("GET", "/api/v1/tasks/stats", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats failed: %d %s", rec.Code, rec.Body.String())
	}
	stats := parseJSON(t, rec)
	if stats["total"].(float64) != 2 {
		t.Errorf("expected 2 total tasks, got %v", stats["total"])
	}

	// Project task listing is scoped to the project
	rec = app.request("GET", "/api/v1/projects/"+projectID+"/tasks", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("project tasks failed: %d %s", rec.Code, rec.Body.String())
	}
	if got := parseJSON(t, rec)["total_items"].(float64); got != 2 {
		t.Errorf("expected 2 project tasks, got %v", got)
	}

	// Deleting the project cascades to its tasks
	rec = app.request("DELETE", "/api/v1/projects/"+projectID, "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete project failed: %d %s", rec.Code, rec.Body.String())
	}
	rec = app.request("GET", "/api/v1/tasks/"+firstTaskID, "", token)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for task of deleted project, got %d", rec.Code)
	}
}

func TestTaskFlow_CleanupJob(t *testing.T) {
	app := setupApp(t)
	token, _, userID := app.registerUser(t, "cleanup@test.com", "password123")

	rec := app.request("POST", "/api/v1/projects", `{"name":"Backlog"}`, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create project failed: %d %s", rec.Code, rec.Body.String())
	}
	projectID := parseJSON(t, rec)["project"].(map[string]interface{})["id"].(string)

	rec = app.request("POST", "/api/v1/tasks",
		fmt.Sprintf(`{"project_id":%q,"title":"Old chore"}`, projectID), token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create task failed: %d %s", rec.Code, rec.Body.String())
	}
	taskID := parseJSON(t, rec)["task"].(map[string]interface{})["id"].(string)

	rec = app.request("POST", "/api/v1/tasks/"+taskID+"/toggle", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle failed: %d %s", rec.Code, rec.Body.String())
	}

	// Backdate completion beyond the retention window
	backdated := time.Now().UTC().Add(-40 * 24 * time.Hour)
	if err := app.DB.Model(&models.Task{}).
		Where("id = ? AND user_id = ?", taskID, userID).
		Update("completed_at", backdated).Error; err != nil {
		t.Fatalf("failed to backdate task: %v", err)
	}

	rec = app.jobRequest("POST", "/api/v1/internal/jobs/task-cleanup")
	if rec.Code != http.StatusOK {
		t.Fatalf("cleanup job failed: %d %s", rec.Code, rec.Body.String())
	}
	if got := parseJSON(t, rec)["removed"].(float64); got != 1 {
		t.Errorf("expected 1 removed task, got %v", got)
	}

	rec = app.request("GET", "/api/v1/tasks/"+taskID, "", token)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 after cleanup, got %d", rec.Code)
	}
}
