package services

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "lasyfinance/internal/errors"
)

// isDuplicateKey reports a unique-constraint violation. gorm translates the
// driver error when TranslateError is set; the string checks cover drivers
// that it does not translate.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}

// findOne loads the first row matching the scope into dest, mapping a missing
// row to notFound.
func findOne(q *gorm.DB, dest interface{}, notFound *apperrors.AppError) error {
	if err := q.First(dest).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// dateRange applies a half-open [from, to) filter on column.
func dateRange(q *gorm.DB, column string, from, to *time.Time) *gorm.DB {
	if from != nil {
		q = q.Where(column+" >= ?", *from)
	}
	if to != nil {
		q = q.Where(column+" < ?", *to)
	}
	return q
}

func validRange(from, to *time.Time) error {
	if from != nil && to != nil && from.After(*to) {
		return apperrors.ErrInvalidDateRange
	}
	return nil
}
