package models

import (
	"time"

	"gorm.io/gorm"
)

// ReminderType tags what a reminder is about.
type ReminderType string

const (
	ReminderTypeBill    ReminderType = "bill"
	ReminderTypeMeeting ReminderType = "meeting"
	ReminderTypePayment ReminderType = "payment"
	ReminderTypeOther   ReminderType = "other"
)

// ReminderStatus is pending until the user completes it.
type ReminderStatus string

const (
	ReminderStatusPending   ReminderStatus = "pending"
	ReminderStatusCompleted ReminderStatus = "completed"
)

// Reminder is a dated to-do owned by a user.
type Reminder struct {
	Base
	UserID      string         `gorm:"type:uuid;not null;index" json:"user_id"`
	Title       string         `gorm:"not null" json:"title"`
	Description string         `json:"description"`
	Type        ReminderType   `gorm:"not null;default:'other'" json:"type"`
	DueDate     time.Time      `gorm:"not null;index" json:"due_date"`
	Status      ReminderStatus `gorm:"not null;default:'pending'" json:"status"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
}

// BeforeSave keeps due dates on calendar-day boundaries.
func (r *Reminder) BeforeSave(tx *gorm.DB) error {
	r.DueDate = DateOf(r.DueDate)
	return nil
}
