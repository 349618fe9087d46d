package services

import (
	"gorm.io/gorm"

	apperrors "lasyfinance/internal/errors"
	"lasyfinance/internal/models"
	"lasyfinance/internal/pagination"
)

// messageLogService keeps the chat audit trail. Entries are never updated.
type messageLogService struct {
	db *gorm.DB
}

// NewMessageLogService creates a new MessageLogServicer.
func NewMessageLogService(db *gorm.DB) MessageLogServicer {
	return &messageLogService{db: db}
}

// RecordTx appends an entry using the caller's transaction. A channel
// message id that was already logged yields ErrDuplicateMessage.
func (s *messageLogService) RecordTx(tx *gorm.DB, entry *models.MessageLog) error {
	if entry.UserID == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "message log requires a user")
	}
	if entry.MessageType == "" {
		entry.MessageType = models.MessageTypeText
	}
	if err := tx.Create(entry).Error; err != nil {
		if isDuplicateKey(err) {
			return apperrors.Wrap(apperrors.ErrDuplicateMessage, err)
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetByChannelMessageID returns the entry logged for a provider message id.
func (s *messageLogService) GetByChannelMessageID(channelMessageID string) (*models.MessageLog, error) {
	if channelMessageID == "" {
		return nil, apperrors.ErrMessageNotFound
	}
	var entry models.MessageLog
	if err := findOne(s.db.Where("channel_message_id = ?", channelMessageID), &entry, apperrors.ErrMessageNotFound); err != nil {
		return nil, err
	}
	return &entry, nil
}

// GetUserMessages lists the user's chat history, newest first.
func (s *messageLogService) GetUserMessages(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.MessageLog], error) {
	page.Defaults()

	base := s.db.Model(&models.MessageLog{}).Where("user_id = ?", userID).Session(&gorm.Session{})

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var entries []models.MessageLog
	if err := base.Scopes(pagination.Paginate(page)).Order("created_at DESC").Find(&entries).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(entries, page.Page, page.PageSize, totalItems)
	return &result, nil
}
