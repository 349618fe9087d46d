package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"gorm.io/gorm"

	"lasyfinance/internal/clock"
	apperrors "lasyfinance/internal/errors"
	"lasyfinance/internal/logger"
	"lasyfinance/internal/models"
	"lasyfinance/internal/whatsapp"
)

const (
	otpDigits          = 6
	defaultOTPTTL      = 10 * time.Minute
	deliveryOffNotice  = "Verification code generated; WhatsApp delivery is not configured on the server"
	provisionedDefault = "WhatsApp user"
)

type provisioningService struct {
	db        *gorm.DB
	users     UserServicer
	messenger whatsapp.Client
	clock     clock.Clock
	ttl       time.Duration
}

// NewProvisioningService creates a new ProvisioningServicer. A zero ttl
// means ten minutes.
func NewProvisioningService(db *gorm.DB, users UserServicer, messenger whatsapp.Client, clk clock.Clock, ttl time.Duration) ProvisioningServicer {
	if ttl <= 0 {
		ttl = defaultOTPTTL
	}
	return &provisioningService{db: db, users: users, messenger: messenger, clock: clk, ttl: ttl}
}

// RequestCode finds or creates the user, stores a fresh code for the phone
// number and sends it over WhatsApp when delivery is configured. Emails of
// registered accounts are refused; those users link through
// RequestCodeForUser after signing in.
func (s *provisioningService) RequestCode(ctx context.Context, phone, email, name string) (*ProvisionResult, error) {
	number := whatsapp.NormalizeNumber(phone)
	if number == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "phone is required")
	}
	return s.issue(ctx, number, func(tx *gorm.DB) (*models.User, error) {
		return provisionUser(tx, number, email, name)
	})
}

// RequestCodeForUser issues a code that links the number to an
// authenticated user.
func (s *provisioningService) RequestCodeForUser(ctx context.Context, userID, phone string) (*ProvisionResult, error) {
	number := whatsapp.NormalizeNumber(phone)
	if number == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "phone is required")
	}
	return s.issue(ctx, number, func(tx *gorm.DB) (*models.User, error) {
		var user models.User
		if err := findOne(tx.Where("id = ?", userID), &user, apperrors.ErrUserNotFound); err != nil {
			return nil, err
		}
		return &user, nil
	})
}

func (s *provisioningService) issue(ctx context.Context, number string, resolve func(tx *gorm.DB) (*models.User, error)) (*ProvisionResult, error) {
	code, err := generateOTP()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	expiresAt := s.clock.Now().Add(s.ttl)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		user, err := resolve(tx)
		if err != nil {
			return err
		}
		verification := &models.PhoneVerification{
			UserID:         user.ID,
			WhatsAppNumber: number,
			OTPCode:        code,
			ExpiresAt:      expiresAt,
		}
		if err := tx.Create(verification).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &ProvisionResult{ExpiresAt: expiresAt}
	if s.messenger == nil || !s.messenger.Available() {
		logger.Named("provision").Warnw("verification code not delivered, WhatsApp not configured", "whatsapp_number", number)
		result.Notice = deliveryOffNotice
		return result, nil
	}

	body := fmt.Sprintf("Seu código de verificação é %s. Vai expirar em %d minutos.", code, int(s.ttl.Minutes()))
	if err := s.messenger.SendText(ctx, number, body); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	result.Sent = true
	return result, nil
}

// provisionUser returns the user for email, creating it when absent. Without
// an email a placeholder keyed by the number is used. Only chat-origin users
// that are unlinked or already linked to this number can be reused.
func provisionUser(tx *gorm.DB, number, email, name string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)
	if email == "" {
		email = number + chatEmailDomain
	}

	var user models.User
	err := tx.Where("email = ?", email).First(&user).Error
	if err == nil {
		if user.HasPassword() || (user.WhatsAppNumber != nil && *user.WhatsAppNumber != number) {
			return nil, apperrors.ErrEmailInUse
		}
		if name != "" && name != user.Name {
			if err := tx.Model(&user).Update("name", name).Error; err != nil {
				return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if name == "" {
		name = provisionedDefault
	}
	user = models.User{
		Email:    email,
		Name:     name,
		Password: models.ChatPasswordMarker,
		IsActive: true,
	}
	if err := tx.Create(&user).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, apperrors.ErrDuplicateEmail
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := seedDefaultCategories(tx, user.ID); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// VerifyCode checks the most recent outstanding code for the number and, on
// a match, links the number to the code's user.
func (s *provisioningService) VerifyCode(phone, code string) (*models.User, error) {
	number := whatsapp.NormalizeNumber(phone)
	code = strings.TrimSpace(code)
	if number == "" || code == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "phone and code are required")
	}

	var verification models.PhoneVerification
	q := s.db.Where("whatsapp_number = ? AND verified_at IS NULL", number).Order("created_at DESC")
	if err := findOne(q, &verification, apperrors.ErrInvalidVerificationCode); err != nil {
		return nil, err
	}

	if subtle.ConstantTimeCompare([]byte(verification.OTPCode), []byte(code)) != 1 {
		return nil, apperrors.ErrInvalidVerificationCode
	}
	now := s.clock.Now()
	if verification.Expired(now) {
		return nil, apperrors.ErrVerificationCodeExpired
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&verification).Update("verified_at", now).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return s.users.LinkWhatsAppNumber(tx, verification.UserID, number)
	})
	if err != nil {
		return nil, err
	}

	return s.users.GetUserByID(verification.UserID)
}

// generateOTP returns a uniformly random six-digit code without a leading zero.
func generateOTP() (string, error) {
	low := int64(100000)
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", otpDigits, n.Int64()+low), nil
}
