package services

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"lasyfinance/internal/clock"
	apperrors "lasyfinance/internal/errors"
	"lasyfinance/internal/models"
	"lasyfinance/internal/money"
	"lasyfinance/internal/pagination"
)

type goalService struct {
	db    *gorm.DB
	clock clock.Clock
}

// NewGoalService creates a new GoalServicer.
func NewGoalService(db *gorm.DB, clk clock.Clock) GoalServicer {
	return &goalService{db: db, clock: clk}
}

// CreateGoal creates a savings goal. Status follows the starting amount.
func (s *goalService) CreateGoal(userID string, in GoalInput) (*models.FinancialGoal, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "goal name is required")
	}
	if !in.TargetAmount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "target amount must be greater than zero")
	}
	if in.CurrentAmount.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "current amount cannot be negative")
	}

	goal := &models.FinancialGoal{
		UserID:        userID,
		Name:          name,
		TargetAmount:  money.Round(in.TargetAmount),
		CurrentAmount: money.Round(in.CurrentAmount),
		Category:      in.Category,
		TargetDate:    in.TargetDate,
	}
	if err := s.db.Create(goal).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return goal, nil
}

// GetUserGoals lists goals, optionally by status.
func (s *goalService) GetUserGoals(userID string, status *models.GoalStatus, page pagination.PageRequest) (*pagination.PageResponse[models.FinancialGoal], error) {
	page.Defaults()

	base := s.db.Model(&models.FinancialGoal{}).Where("user_id = ?", userID)
	if status != nil {
		base = base.Where("status = ?", *status)
	}
	base = base.Session(&gorm.Session{})

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var goals []models.FinancialGoal
	if err := base.Scopes(pagination.Paginate(page)).Order("created_at DESC").Find(&goals).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(goals, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetGoalByID retrieves a goal owned by the user.
func (s *goalService) GetGoalByID(userID, goalID string) (*models.FinancialGoal, error) {
	return s.load(s.db, userID, goalID)
}

func (s *goalService) load(db *gorm.DB, userID, goalID string) (*models.FinancialGoal, error) {
	var goal models.FinancialGoal
	if err := findOne(db.Where("id = ? AND user_id = ?", goalID, userID), &goal, apperrors.ErrGoalNotFound); err != nil {
		return nil, err
	}
	return &goal, nil
}

// UpdateGoal edits the goal definition; status is recomputed on save.
func (s *goalService) UpdateGoal(userID, goalID string, upd GoalUpdate) (*models.FinancialGoal, error) {
	goal, err := s.GetGoalByID(userID, goalID)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "goal name is required")
		}
		goal.Name = name
	}
	if upd.TargetAmount != nil {
		if !upd.TargetAmount.IsPositive() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "target amount must be greater than zero")
		}
		goal.TargetAmount = money.Round(*upd.TargetAmount)
	}
	if upd.Category != nil {
		goal.Category = *upd.Category
	}
	if upd.TargetDate != nil {
		goal.TargetDate = upd.TargetDate
	}

	if err := s.db.Save(goal).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return goal, nil
}

// DeleteGoal removes a goal and its contributions.
func (s *goalService) DeleteGoal(userID, goalID string) error {
	goal, err := s.GetGoalByID(userID, goalID)
	if err != nil {
		return err
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("goal_id = ?", goal.ID).Delete(&models.GoalContribution{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(goal).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// Contribute appends a contribution and raises the saved amount in one transaction.
func (s *goalService) Contribute(userID, goalID string, amount decimal.Decimal, note string, date time.Time) (*models.FinancialGoal, *models.GoalContribution, error) {
	if !amount.IsPositive() {
		return nil, nil, apperrors.ErrInvalidContribution
	}
	if date.IsZero() {
		date = clock.Today(s.clock)
	}

	var goal *models.FinancialGoal
	var contribution *models.GoalContribution
	err := s.db.Transaction(func(tx *gorm.DB) error {
		g, err := s.load(tx, userID, goalID)
		if err != nil {
			return err
		}

		c := &models.GoalContribution{
			GoalID: g.ID,
			UserID: userID,
			Amount: money.Round(amount),
			Note:   note,
			Date:   date,
		}
		if err := tx.Create(c).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		// Increment in SQL so concurrent contributions both land.
		if err := tx.Model(&models.FinancialGoal{}).Where("id = ?", g.ID).UpdateColumns(map[string]interface{}{
			"current_amount": gorm.Expr("current_amount + ?", c.Amount),
			"updated_at":     s.clock.Now(),
		}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		g, err = s.load(tx, userID, goalID)
		if err != nil {
			return err
		}
		if status := g.ComputeStatus(); status != g.Status {
			if err := tx.Model(g).UpdateColumn("status", status).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			g.Status = status
		}
		goal, contribution = g, c
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return goal, contribution, nil
}

// GetContributions lists a goal's contributions, newest first.
func (s *goalService) GetContributions(userID, goalID string, page pagination.PageRequest) (*pagination.PageResponse[models.GoalContribution], error) {
	if _, err := s.GetGoalByID(userID, goalID); err != nil {
		return nil, err
	}
	page.Defaults()

	base := s.db.Model(&models.GoalContribution{}).Where("goal_id = ? AND user_id = ?", goalID, userID).Session(&gorm.Session{})

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var contributions []models.GoalContribution
	if err := base.Scopes(pagination.Paginate(page)).Order("date DESC, created_at DESC").Find(&contributions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(contributions, page.Page, page.PageSize, totalItems)
	return &result, nil
}
