package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GoalStatus follows the saved amount.
type GoalStatus string

const (
	GoalStatusNotStarted GoalStatus = "not_started"
	GoalStatusInProgress GoalStatus = "in_progress"
	GoalStatusCompleted  GoalStatus = "completed"
)

// FinancialGoal is a savings target.
type FinancialGoal struct {
	Base
	UserID        string          `gorm:"type:uuid;not null;index" json:"user_id"`
	Name          string          `gorm:"not null" json:"name"`
	TargetAmount  decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"target_amount"`
	CurrentAmount decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"current_amount"`
	Category      string          `json:"category"`
	TargetDate    *time.Time      `json:"target_date,omitempty"`
	Status        GoalStatus      `gorm:"not null;default:'not_started'" json:"status"`
}

// BeforeSave normalizes the target date and recomputes status from the amounts.
func (g *FinancialGoal) BeforeSave(tx *gorm.DB) error {
	g.TargetDate = dateOfPtr(g.TargetDate)
	g.Status = g.ComputeStatus()
	return nil
}

// ComputeStatus derives the goal status from current and target amounts.
func (g *FinancialGoal) ComputeStatus() GoalStatus {
	switch {
	case g.TargetAmount.IsPositive() && g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount):
		return GoalStatusCompleted
	case g.CurrentAmount.IsPositive():
		return GoalStatusInProgress
	default:
		return GoalStatusNotStarted
	}
}

// GoalContribution is an append-only deposit towards a goal.
type GoalContribution struct {
	Base
	GoalID string          `gorm:"type:uuid;not null;index" json:"goal_id"`
	UserID string          `gorm:"type:uuid;not null;index" json:"user_id"`
	Amount decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	Note   string          `json:"note,omitempty"`
	Date   time.Time       `gorm:"not null" json:"date"`
}

// BeforeSave keeps the contribution date on a calendar-day boundary.
func (c *GoalContribution) BeforeSave(tx *gorm.DB) error {
	c.Date = DateOf(c.Date)
	return nil
}
