package services

import (
	"strings"

	"gorm.io/gorm"

	"lasyfinance/internal/clock"
	apperrors "lasyfinance/internal/errors"
	"lasyfinance/internal/models"
	"lasyfinance/internal/pagination"
)

type reminderService struct {
	db    *gorm.DB
	clock clock.Clock
}

// NewReminderService creates a new ReminderServicer.
func NewReminderService(db *gorm.DB, clk clock.Clock) ReminderServicer {
	return &reminderService{db: db, clock: clk}
}

// CreateReminder creates a pending reminder.
func (s *reminderService) CreateReminder(userID string, in ReminderInput) (*models.Reminder, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "title is required")
	}
	if in.DueDate.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "due date is required")
	}
	if in.Type == "" {
		in.Type = models.ReminderTypeOther
	}

	reminder := &models.Reminder{
		UserID:      userID,
		Title:       title,
		Description: in.Description,
		Type:        in.Type,
		DueDate:     in.DueDate,
		Status:      models.ReminderStatusPending,
	}
	if err := s.db.Create(reminder).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return reminder, nil
}

// GetUserReminders lists reminders by due date.
func (s *reminderService) GetUserReminders(userID string, page pagination.PageRequest, filter ReminderFilter) (*pagination.PageResponse[models.Reminder], error) {
	if err := validRange(filter.FromDate, filter.ToDate); err != nil {
		return nil, err
	}
	page.Defaults()

	base := s.db.Model(&models.Reminder{}).Where("user_id = ?", userID)
	if filter.Status != nil {
		base = base.Where("status = ?", *filter.Status)
	}
	if filter.FromDate != nil {
		base = base.Where("due_date >= ?", models.DateOf(*filter.FromDate))
	}
	if filter.ToDate != nil {
		base = base.Where("due_date <= ?", models.DateOf(*filter.ToDate))
	}
	base = base.Session(&gorm.Session{})

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var reminders []models.Reminder
	if err := base.Scopes(pagination.Paginate(page)).Order("due_date ASC, created_at ASC").Find(&reminders).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(reminders, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetReminderByID retrieves a reminder owned by the user.
func (s *reminderService) GetReminderByID(userID, reminderID string) (*models.Reminder, error) {
	var reminder models.Reminder
	q := s.db.Where("id = ? AND user_id = ?", reminderID, userID)
	if err := findOne(q, &reminder, apperrors.ErrReminderNotFound); err != nil {
		return nil, err
	}
	return &reminder, nil
}

// UpdateReminder applies user edits. Moving back to pending clears completed_at.
func (s *reminderService) UpdateReminder(userID, reminderID string, upd ReminderUpdate) (*models.Reminder, error) {
	reminder, err := s.GetReminderByID(userID, reminderID)
	if err != nil {
		return nil, err
	}

	if upd.Title != nil {
		title := strings.TrimSpace(*upd.Title)
		if title == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "title is required")
		}
		reminder.Title = title
	}
	if upd.Description != nil {
		reminder.Description = *upd.Description
	}
	if upd.Type != nil {
		reminder.Type = *upd.Type
	}
	if upd.DueDate != nil {
		reminder.DueDate = *upd.DueDate
	}
	if upd.Status != nil && *upd.Status != reminder.Status {
		reminder.Status = *upd.Status
		if reminder.Status == models.ReminderStatusCompleted {
			now := s.clock.Now()
			reminder.CompletedAt = &now
		} else {
			reminder.CompletedAt = nil
		}
	}

	if err := s.db.Save(reminder).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return reminder, nil
}

// DeleteReminder soft-deletes a reminder.
func (s *reminderService) DeleteReminder(userID, reminderID string) error {
	reminder, err := s.GetReminderByID(userID, reminderID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(reminder).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// CompleteReminder marks a reminder completed. Completing twice keeps the
// first completion time.
func (s *reminderService) CompleteReminder(userID, reminderID string) (*models.Reminder, error) {
	completed := models.ReminderStatusCompleted
	return s.UpdateReminder(userID, reminderID, ReminderUpdate{Status: &completed})
}
