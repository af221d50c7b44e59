package services

import (
	"testing"
	"time"

	"pocketplan/internal/models"
	"pocketplan/internal/testutil"
)

func TestCreateProject(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewProjectService(db)
		user := testutil.CreateTestUser(t, db)

		project, err := svc.CreateProject(user.ID, "Home Renovation", "Kitchen first", "hammer", "#f59e0b", false)
		testutil.AssertNoError(t, err)
		if project.Status != models.ProjectStatusActive {
			t.Errorf("expected active status, got %s", project.Status)
		}
	})

	t.Run("duplicate_name_same_user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewProjectService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateProject(user.ID, "Work", "", "", "", false)
		testutil.AssertNoError(t, err)
		_, err = svc.CreateProject(user.ID, "Work", "", "", "", false)
		testutil.AssertAppError(t, err, "DUPLICATE_NAME")
	})

	t.Run("same_name_different_users", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewProjectService(db)
		alice := testutil.CreateTestUser(t, db)
		bob := testutil.CreateTestUser(t, db)

		_, err := svc.CreateProject(alice.ID, "Work", "", "", "", false)
		testutil.AssertNoError(t, err)
		_, err = svc.CreateProject(bob.ID, "Work", "", "", "", false)
		testutil.AssertNoError(t, err)
	})
}

func TestDeleteProjectCascades(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewProjectService(db)
	user := testutil.CreateTestUser(t, db)
	project := testutil.CreateTestProject(t, db, user.ID)
	task := testutil.CreateTestTask(t, db, user.ID, project.ID)

	testutil.AssertNoError(t, svc.DeleteProject(user.ID, project.ID))

	var count int64
	db.Model(&models.Task{}).Where("id = ?", task.ID).Count(&count)
	if count != 0 {
		t.Error("expected project deletion to remove its tasks")
	}
}

func TestGetWeeklySummary(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewProjectService(db)
	user := testutil.CreateTestUser(t, db)
	project := testutil.CreateTestProject(t, db, user.ID)

	now := time.Now()

	// Two open, one in progress, one completed this week, one completed long
	// ago, one overdue.
	testutil.CreateTestTask(t, db, user.ID, project.ID)
	testutil.CreateTestTask(t, db, user.ID, project.ID)
	inProgress := testutil.CreateTestTask(t, db, user.ID, project.ID)
	testutil.AssertNoError(t, db.Model(inProgress).Update("status", models.TaskStatusInProgress).Error)
	testutil.CreateTestCompletedTask(t, db, user.ID, project.ID, now.AddDate(0, 0, -2))
	testutil.CreateTestCompletedTask(t, db, user.ID, project.ID, now.AddDate(0, 0, -20))
	overdue := testutil.CreateTestTask(t, db, user.ID, project.ID)
	testutil.AssertNoError(t, db.Model(overdue).Update("due_date", now.AddDate(0, 0, -3)).Error)

	summaries, err := svc.GetWeeklySummary(user.ID, now)
	testutil.AssertNoError(t, err)

	if len(summaries) != 1 {
		t.Fatalf("expected 1 project summary, got %d", len(summaries))
	}
	s := summaries[0]
	if s.OpenTasks != 3 {
		t.Errorf("expected 3 open tasks, got %d", s.OpenTasks)
	}
	if s.InProgressTasks != 1 {
		t.Errorf("expected 1 in-progress task, got %d", s.InProgressTasks)
	}
	if s.CompletedThisWeek != 1 {
		t.Errorf("expected 1 completed this week, got %d", s.CompletedThisWeek)
	}
	if s.OverdueTasks != 1 {
		t.Errorf("expected 1 overdue task, got %d", s.OverdueTasks)
	}
}

func TestGetAllWeeklySummaries(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewProjectService(db)
	alice := testutil.CreateTestUser(t, db)
	bob := testutil.CreateTestUser(t, db)
	testutil.CreateTestProject(t, db, alice.ID)
	testutil.CreateTestProject(t, db, bob.ID)

	summaries, err := svc.GetAllWeeklySummaries(time.Now())
	testutil.AssertNoError(t, err)
	if len(summaries) != 2 {
		t.Errorf("expected summaries for 2 users, got %d", len(summaries))
	}
}

func TestUpdateProjectStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewProjectService(db)
	user := testutil.CreateTestUser(t, db)
	project := testutil.CreateTestProject(t, db, user.ID)

	archived := models.ProjectStatusArchived
	updated, err := svc.UpdateProject(user.ID, project.ID, ProjectUpdateFields{Status: &archived})
	testutil.AssertNoError(t, err)
	if updated.Status != models.ProjectStatusArchived {
		t.Errorf("expected archived, got %s", updated.Status)
	}

	bogus := models.ProjectStatus("haunted")
	_, err = svc.UpdateProject(user.ID, project.ID, ProjectUpdateFields{Status: &bogus})
	testutil.AssertAppError(t, err, "INVALID_INPUT")
}
