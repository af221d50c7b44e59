package services

import (
	"testing"
	"time"

	"pocketplan/internal/models"
	"pocketplan/internal/testutil"
)

func TestCreateRecurringTransaction(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRecurringService(db, NewAccountService(db))
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)

		next := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
		rt, err := svc.CreateRecurringTransaction(user.ID, account.ID, nil, -1500, "Netflix", models.FrequencyMonthly, next, nil)
		testutil.AssertNoError(t, err)

		if !rt.IsActive {
			t.Error("expected new template to be active")
		}
		if !rt.NextExecutionDate.Equal(next) {
			t.Errorf("expected next execution %v, got %v", next, rt.NextExecutionDate)
		}
	})

	t.Run("zero_amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRecurringService(db, NewAccountService(db))
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)

		_, err := svc.CreateRecurringTransaction(user.ID, account.ID, nil, 0, "Zero", models.FrequencyDaily, time.Now(), nil)
		testutil.AssertAppError(t, err, "ZERO_AMOUNT")
	})

	t.Run("bad_frequency", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRecurringService(db, NewAccountService(db))
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)

		_, err := svc.CreateRecurringTransaction(user.ID, account.ID, nil, 100, "Odd", models.Frequency("yearly"), time.Now(), nil)
		testutil.AssertAppError(t, err, "INVALID_FREQUENCY")
	})
}

func TestNextAfter(t *testing.T) {
	base := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		frequency models.Frequency
		want      time.Time
	}{
		{models.FrequencyDaily, time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC)},
		{models.FrequencyWeekly, time.Date(2024, 1, 22, 0, 0, 0, 0, time.UTC)},
		{models.FrequencyMonthly, time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)},
	}

	for _, tc := range cases {
		rt := models.RecurringTransaction{Frequency: tc.frequency}
		got := rt.NextAfter(base)
		if !got.Equal(tc.want) {
			t.Errorf("%s: expected %v, got %v", tc.frequency, tc.want, got)
		}
	}
}

func TestProcessDue(t *testing.T) {
	t.Run("creates_one_transaction_and_advances", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		accountSvc := NewAccountService(db)
		svc := NewRecurringService(db, accountSvc)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)

		scheduled := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
		rt := testutil.CreateTestRecurringTransaction(t, db, user.ID, account.ID, -1500, models.FrequencyMonthly, scheduled)

		// The pass runs days late; the schedule must not drift.
		now := time.Date(2024, 1, 20, 9, 0, 0, 0, time.UTC)
		result, err := svc.ProcessDue(now)
		testutil.AssertNoError(t, err)

		if result.Processed != 1 || result.Created != 1 {
			t.Fatalf("expected 1 processed and 1 created, got %d/%d", result.Processed, result.Created)
		}
		if len(result.Errors) != 0 {
			t.Fatalf("expected no errors, got %v", result.Errors)
		}

		var tx models.Transaction
		testutil.AssertNoError(t, db.Where("recurring_transaction_id = ?", rt.ID).First(&tx).Error)
		if !tx.IsRecurring {
			t.Error("generated transaction should be flagged recurring")
		}
		if tx.Amount != -1500 {
			t.Errorf("expected amount -1500, got %d", tx.Amount)
		}

		reloaded, err := svc.GetRecurringTransactionByID(user.ID, rt.ID)
		testutil.AssertNoError(t, err)
		want := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)
		if !reloaded.NextExecutionDate.Equal(want) {
			t.Errorf("expected next execution %v, got %v", want, reloaded.NextExecutionDate)
		}

		acc, err := accountSvc.GetAccountByID(user.ID, account.ID)
		testutil.AssertNoError(t, err)
		if acc.CurrentAmount != -1500 {
			t.Errorf("expected balance -1500 after processing, got %d", acc.CurrentAmount)
		}
	})

	t.Run("single_fire_per_pass_even_when_far_behind", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRecurringService(db, NewAccountService(db))
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)

		// Three daily periods behind, still only one transaction per pass.
		scheduled := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
		rt := testutil.CreateTestRecurringTransaction(t, db, user.ID, account.ID, -100, models.FrequencyDaily, scheduled)

		now := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
		result, err := svc.ProcessDue(now)
		testutil.AssertNoError(t, err)
		if result.Created != 1 {
			t.Fatalf("expected 1 created, got %d", result.Created)
		}

		var count int64
		db.Model(&models.Transaction{}).Where("recurring_transaction_id = ?", rt.ID).Count(&count)
		if count != 1 {
			t.Errorf("expected 1 generated transaction, got %d", count)
		}
	})

	t.Run("not_due_is_noop", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRecurringService(db, NewAccountService(db))
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)

		future := time.Now().AddDate(0, 0, 7)
		testutil.CreateTestRecurringTransaction(t, db, user.ID, account.ID, -100, models.FrequencyWeekly, future)

		result, err := svc.ProcessDue(time.Now())
		testutil.AssertNoError(t, err)
		if result.Processed != 0 {
			t.Errorf("expected 0 processed, got %d", result.Processed)
		}
	})

	t.Run("past_end_date_deactivates_without_firing", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRecurringService(db, NewAccountService(db))
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)

		scheduled := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
		rt := testutil.CreateTestRecurringTransaction(t, db, user.ID, account.ID, -100, models.FrequencyMonthly, scheduled)
		endDate := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
		testutil.AssertNoError(t, db.Model(rt).Update("end_date", endDate).Error)

		now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
		result, err := svc.ProcessDue(now)
		testutil.AssertNoError(t, err)

		if result.Created != 0 {
			t.Errorf("expected no transaction for an expired template, got %d", result.Created)
		}

		reloaded, err := svc.GetRecurringTransactionByID(user.ID, rt.ID)
		testutil.AssertNoError(t, err)
		if reloaded.IsActive {
			t.Error("expected expired template to be deactivated")
		}

		var count int64
		db.Model(&models.Transaction{}).Where("recurring_transaction_id = ?", rt.ID).Count(&count)
		if count != 0 {
			t.Errorf("expected no generated transactions, got %d", count)
		}
	})

	t.Run("failure_is_isolated_per_template", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRecurringService(db, NewAccountService(db))
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)

		scheduled := time.Now().AddDate(0, 0, -1)
		broken := testutil.CreateTestRecurringTransaction(t, db, user.ID, account.ID, -100, models.FrequencyDaily, scheduled)
		healthy := testutil.CreateTestRecurringTransaction(t, db, user.ID, account.ID, -200, models.FrequencyDaily, scheduled)

		// Point the first template at a missing account so it fails.
		testutil.AssertNoError(t, db.Model(broken).Update("account_id", "0192d3a0-0000-7000-8000-000000000000").Error)

		result, err := svc.ProcessDue(time.Now())
		testutil.AssertNoError(t, err)

		if result.Processed != 2 {
			t.Fatalf("expected 2 processed, got %d", result.Processed)
		}
		if result.Created != 1 {
			t.Errorf("expected 1 created despite the failure, got %d", result.Created)
		}
		if len(result.Errors) != 1 {
			t.Fatalf("expected 1 error, got %d", len(result.Errors))
		}
		if result.Errors[0].RecurringTransactionID != broken.ID {
			t.Errorf("expected error for %s, got %s", broken.ID, result.Errors[0].RecurringTransactionID)
		}

		var count int64
		db.Model(&models.Transaction{}).Where("recurring_transaction_id = ?", healthy.ID).Count(&count)
		if count != 1 {
			t.Errorf("expected healthy template to fire, got %d transactions", count)
		}
	})
}

func TestDeleteRecurringTransactionKeepsHistory(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewRecurringService(db, NewAccountService(db))
	user := testutil.CreateTestUser(t, db)
	account := testutil.CreateTestAccount(t, db, user.ID)

	rt := testutil.CreateTestRecurringTransaction(t, db, user.ID, account.ID, -100, models.FrequencyDaily, time.Now().AddDate(0, 0, -1))
	_, err := svc.ProcessDue(time.Now())
	testutil.AssertNoError(t, err)

	testutil.AssertNoError(t, svc.DeleteRecurringTransaction(user.ID, rt.ID))

	var count int64
	db.Model(&models.Transaction{}).Where("recurring_transaction_id = ?", rt.ID).Count(&count)
	if count != 1 {
		t.Errorf("expected generated transaction to survive template deletion, got %d", count)
	}
}
