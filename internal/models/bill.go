package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BillKind distinguishes money owed by the user from money owed to them.
type BillKind string

const (
	BillKindPayable    BillKind = "payable"
	BillKindReceivable BillKind = "receivable"
)

// BillStatus is the stored status. Overdue is never stored; see EffectiveStatus.
type BillStatus string

const (
	BillStatusPending BillStatus = "pending"
	BillStatusPaid    BillStatus = "paid"
	BillStatusOverdue BillStatus = "overdue"
)

// RecurrenceInterval is the period between occurrences of a recurring bill.
type RecurrenceInterval string

const (
	RecurrenceWeekly  RecurrenceInterval = "weekly"
	RecurrenceMonthly RecurrenceInterval = "monthly"
	RecurrenceYearly  RecurrenceInterval = "yearly"
)

// Next returns the due date one interval after t.
func (r RecurrenceInterval) Next(t time.Time) time.Time {
	switch r {
	case RecurrenceWeekly:
		return t.AddDate(0, 0, 7)
	case RecurrenceYearly:
		return t.AddDate(1, 0, 0)
	default:
		return t.AddDate(0, 1, 0)
	}
}

// Bill is an account payable or receivable.
type Bill struct {
	Base
	UserID      string          `gorm:"type:uuid;not null;index" json:"user_id"`
	Kind        BillKind        `gorm:"not null;index" json:"kind"`
	PartyName   string          `gorm:"not null" json:"party_name"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	DueDate     time.Time       `gorm:"not null;index" json:"due_date"`
	Status      BillStatus      `gorm:"not null;default:'pending'" json:"-"`
	PaidAt      *time.Time      `json:"paid_at,omitempty"`

	IsRecurring        bool               `gorm:"default:false" json:"is_recurring"`
	RecurrenceInterval RecurrenceInterval `json:"recurrence_interval,omitempty"`
	RecurrenceCount    *int               `json:"recurrence_count,omitempty"`
	RecurrenceEndDate  *time.Time         `json:"recurrence_end_date,omitempty"`
	SeriesID           *string            `gorm:"type:uuid;index" json:"series_id,omitempty"`

	// EffectiveStatus is filled on read; it is not a column.
	EffectiveStatus BillStatus `gorm:"-" json:"status"`
}

// BeforeSave keeps due dates on calendar-day boundaries.
func (b *Bill) BeforeSave(tx *gorm.DB) error {
	b.DueDate = DateOf(b.DueDate)
	b.RecurrenceEndDate = dateOfPtr(b.RecurrenceEndDate)
	return nil
}

// StatusAt derives the status shown to users on the given day: a pending bill
// whose due date is strictly before today is overdue. Paid bills never are.
func (b *Bill) StatusAt(today time.Time) BillStatus {
	if b.Status == BillStatusPending && b.DueDate.Before(DateOf(today)) {
		return BillStatusOverdue
	}
	return b.Status
}

// Derive sets EffectiveStatus for the given day.
func (b *Bill) Derive(today time.Time) {
	b.EffectiveStatus = b.StatusAt(today)
}

// NextOccurrence returns the unpaid follow-up of a recurring bill, or false
// when the series is exhausted by count or end date.
func (b *Bill) NextOccurrence() (*Bill, bool) {
	if !b.IsRecurring || b.RecurrenceInterval == "" {
		return nil, false
	}

	var count *int
	if b.RecurrenceCount != nil {
		remaining := *b.RecurrenceCount - 1
		if remaining <= 0 {
			return nil, false
		}
		count = &remaining
	}

	due := b.RecurrenceInterval.Next(b.DueDate)
	if b.RecurrenceEndDate != nil && due.After(*b.RecurrenceEndDate) {
		return nil, false
	}

	series := b.ID
	if b.SeriesID != nil {
		series = *b.SeriesID
	}

	return &Bill{
		UserID:             b.UserID,
		Kind:               b.Kind,
		PartyName:          b.PartyName,
		Description:        b.Description,
		Amount:             b.Amount,
		DueDate:            due,
		Status:             BillStatusPending,
		IsRecurring:        true,
		RecurrenceInterval: b.RecurrenceInterval,
		RecurrenceCount:    count,
		RecurrenceEndDate:  b.RecurrenceEndDate,
		SeriesID:           &series,
	}, true
}
