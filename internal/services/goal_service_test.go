package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"lasyfinance/internal/models"
	"lasyfinance/internal/pagination"
	"lasyfinance/internal/testutil"
)

func TestCreateGoal(t *testing.T) {
	t.Run("starts_not_started", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGoalService(db, fixedClock())
		user := testutil.CreateTestUser(t, db)

		goal, err := svc.CreateGoal(user.ID, GoalInput{Name: "Reserva", TargetAmount: decimal.NewFromInt(10000)})
		testutil.AssertNoError(t, err)

		if goal.Status != models.GoalStatusNotStarted {
			t.Errorf("expected not_started, got %s", goal.Status)
		}
	})

	t.Run("starting_amount_sets_status", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGoalService(db, fixedClock())
		user := testutil.CreateTestUser(t, db)

		goal, err := svc.CreateGoal(user.ID, GoalInput{
			Name:          "Viagem",
			TargetAmount:  decimal.NewFromInt(5000),
			CurrentAmount: decimal.NewFromInt(500),
		})
		testutil.AssertNoError(t, err)

		if goal.Status != models.GoalStatusInProgress {
			t.Errorf("expected in_progress, got %s", goal.Status)
		}
	})

	t.Run("invalid_target", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGoalService(db, fixedClock())
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateGoal(user.ID, GoalInput{Name: "X", TargetAmount: decimal.Zero})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestContribute(t *testing.T) {
	t.Run("accumulates_and_completes", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGoalService(db, fixedClock())
		user := testutil.CreateTestUser(t, db)
		goal := testutil.CreateTestGoal(t, db, user.ID, "1000")

		updated, contribution, err := svc.Contribute(user.ID, goal.ID, decimal.NewFromInt(400), "primeiro aporte", time.Time{})
		testutil.AssertNoError(t, err)

		testutil.AssertDecimal(t, updated.CurrentAmount, "400")
		if updated.Status != models.GoalStatusInProgress {
			t.Errorf("expected in_progress, got %s", updated.Status)
		}
		if !contribution.Date.Equal(testutil.Day(2026, time.March, 15)) {
			t.Errorf("expected contribution dated today, got %s", contribution.Date)
		}

		updated, _, err = svc.Contribute(user.ID, goal.ID, decimal.NewFromInt(600), "", testutil.Day(2026, time.March, 20))
		testutil.AssertNoError(t, err)

		testutil.AssertDecimal(t, updated.CurrentAmount, "1000")
		if updated.Status != models.GoalStatusCompleted {
			t.Errorf("expected completed, got %s", updated.Status)
		}

		if n := testutil.CountRows(t, db, &models.GoalContribution{}, "goal_id = ?", goal.ID); n != 2 {
			t.Errorf("expected 2 contributions, got %d", n)
		}
	})

	t.Run("keeps_concurrent_contribution", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGoalService(db, fixedClock())
		user := testutil.CreateTestUser(t, db)
		goal := testutil.CreateTestGoal(t, db, user.ID, "1000")

		// Another contribution commits after this one has read the goal.
		fired := false
		err := db.Callback().Create().After("gorm:create").Register("test:interleaved_contribution", func(tx *gorm.DB) {
			if fired || tx.Statement.Table != "goal_contributions" || tx.Error != nil {
				return
			}
			fired = true
			tx.Session(&gorm.Session{NewDB: true}).Exec("UPDATE financial_goals SET current_amount = current_amount + 100 WHERE id = ?", goal.ID)
		})
		testutil.AssertNoError(t, err)

		got, _, err := svc.Contribute(user.ID, goal.ID, decimal.NewFromInt(50), "", time.Time{})
		testutil.AssertNoError(t, err)

		if !fired {
			t.Fatal("expected interleaved update to run")
		}
		testutil.AssertDecimal(t, got.CurrentAmount, "150")
		if got.Status != models.GoalStatusInProgress {
			t.Errorf("expected in_progress, got %s", got.Status)
		}

		var stored models.FinancialGoal
		if err := db.First(&stored, "id = ?", goal.ID).Error; err != nil {
			t.Fatalf("failed to reload goal: %v", err)
		}
		testutil.AssertDecimal(t, stored.CurrentAmount, "150")
	})

	t.Run("rejects_non_positive", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGoalService(db, fixedClock())
		user := testutil.CreateTestUser(t, db)
		goal := testutil.CreateTestGoal(t, db, user.ID, "1000")

		_, _, err := svc.Contribute(user.ID, goal.ID, decimal.NewFromInt(-50), "", time.Time{})
		testutil.AssertAppError(t, err, "INVALID_CONTRIBUTION")

		if n := testutil.CountRows(t, db, &models.GoalContribution{}, "goal_id = ?", goal.ID); n != 0 {
			t.Errorf("expected no contributions, got %d", n)
		}
	})

	t.Run("other_users_goal", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewGoalService(db, fixedClock())
		user := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)
		goal := testutil.CreateTestGoal(t, db, user.ID, "1000")

		_, _, err := svc.Contribute(other.ID, goal.ID, decimal.NewFromInt(10), "", time.Time{})
		testutil.AssertAppError(t, err, "GOAL_NOT_FOUND")
	})
}

func TestUpdateGoal(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewGoalService(db, fixedClock())
	user := testutil.CreateTestUser(t, db)
	goal := testutil.CreateTestGoal(t, db, user.ID, "1000")

	_, _, err := svc.Contribute(user.ID, goal.ID, decimal.NewFromInt(500), "", time.Time{})
	testutil.AssertNoError(t, err)

	updated, err := svc.UpdateGoal(user.ID, goal.ID, GoalUpdate{TargetAmount: ptr(decimal.NewFromInt(500))})
	testutil.AssertNoError(t, err)

	if updated.Status != models.GoalStatusCompleted {
		t.Errorf("expected lowering the target to complete the goal, got %s", updated.Status)
	}
	testutil.AssertDecimal(t, updated.CurrentAmount, "500")
}

func TestGoalListingAndDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewGoalService(db, fixedClock())
	user := testutil.CreateTestUser(t, db)
	goal := testutil.CreateTestGoal(t, db, user.ID, "1000")
	testutil.CreateTestGoal(t, db, user.ID, "2000")

	_, _, err := svc.Contribute(user.ID, goal.ID, decimal.NewFromInt(100), "", time.Time{})
	testutil.AssertNoError(t, err)

	page := pagination.PageRequest{Page: 1, PageSize: 20}

	t.Run("filter_by_status", func(t *testing.T) {
		result, err := svc.GetUserGoals(user.ID, ptr(models.GoalStatusInProgress), page)
		testutil.AssertNoError(t, err)
		if result.TotalItems != 1 || result.Data[0].ID != goal.ID {
			t.Errorf("expected only the funded goal, got %d", result.TotalItems)
		}
	})

	t.Run("contributions", func(t *testing.T) {
		result, err := svc.GetContributions(user.ID, goal.ID, page)
		testutil.AssertNoError(t, err)
		if result.TotalItems != 1 {
			t.Errorf("expected 1 contribution, got %d", result.TotalItems)
		}
	})

	t.Run("delete_removes_contributions", func(t *testing.T) {
		testutil.AssertNoError(t, svc.DeleteGoal(user.ID, goal.ID))

		_, err := svc.GetGoalByID(user.ID, goal.ID)
		testutil.AssertAppError(t, err, "GOAL_NOT_FOUND")
		if n := testutil.CountRows(t, db, &models.GoalContribution{}, "goal_id = ?", goal.ID); n != 0 {
			t.Errorf("expected contributions removed, got %d", n)
		}
	})
}
