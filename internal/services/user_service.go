package services

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "lasyfinance/internal/errors"
	"lasyfinance/internal/logger"
	"lasyfinance/internal/models"
)

const (
	maxFailedLogins = 5
	lockoutDuration = 15 * time.Minute
	minPasswordLen  = 8
	chatEmailDomain = "@whatsapp.local"
)

// userService handles user-related business logic.
type userService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewUserService creates a new UserServicer.
func NewUserService(db *gorm.DB) UserServicer {
	return &userService{db: db, now: time.Now}
}

// CreateUser registers a new user and seeds the default categories.
func (s *userService) CreateUser(email, password, name string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "email and password are required")
	}
	if len(password) < minPasswordLen {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "password must be at least 8 characters")
	}

	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateEmail
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	user := &models.User{
		Email:    email,
		Name:     strings.TrimSpace(name),
		Password: string(hashedPassword),
		IsActive: true,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		return seedDefaultCategories(tx, user.ID)
	})
	if err != nil {
		if isDuplicateKey(err) {
			return nil, apperrors.ErrDuplicateEmail
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return user, nil
}

// GetUserByEmail retrieves an active user by email
func (s *userService) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	q := s.db.Where("email = ? AND is_active = ?", strings.ToLower(strings.TrimSpace(email)), true)
	if err := findOne(q, &user, apperrors.ErrUserNotFound); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByID retrieves a user by ID
func (s *userService) GetUserByID(id string) (*models.User, error) {
	var user models.User
	if err := findOne(s.db.Where("id = ?", id), &user, apperrors.ErrUserNotFound); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByWhatsApp retrieves the user linked to a WhatsApp number.
func (s *userService) GetUserByWhatsApp(number string) (*models.User, error) {
	if number == "" {
		return nil, apperrors.ErrUserNotFound
	}
	var user models.User
	if err := findOne(s.db.Where("whatsapp_number = ?", number), &user, apperrors.ErrUserNotFound); err != nil {
		return nil, err
	}
	return &user, nil
}

// VerifyPassword checks if the provided password matches the stored hash
func (s *userService) VerifyPassword(user *models.User, password string) bool {
	if !user.HasPassword() {
		return false
	}
	err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password))
	return err == nil
}

// AttemptLogin checks credentials and applies the lockout policy: after
// maxFailedLogins consecutive failures the account is locked for lockoutDuration.
func (s *userService) AttemptLogin(email, password string) (*models.User, error) {
	user, err := s.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	now := s.now()
	if user.LockedUntil != nil && now.Before(*user.LockedUntil) {
		return nil, apperrors.ErrAccountLocked
	}

	if !s.VerifyPassword(user, password) {
		updates := map[string]interface{}{"failed_login_attempts": user.FailedLoginAttempts + 1}
		if user.FailedLoginAttempts+1 >= maxFailedLogins {
			updates["locked_until"] = now.Add(lockoutDuration)
			updates["failed_login_attempts"] = 0
			logger.Get().Warnw("account locked after failed logins", "user_id", user.ID)
		}
		if err := s.db.Model(user).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil, apperrors.ErrInvalidCredentials
	}

	if err := s.db.Model(user).Updates(map[string]interface{}{
		"failed_login_attempts": 0,
		"locked_until":          nil,
		"last_login_at":         now,
	}).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return user, nil
}

// StoreRefreshTokenHash saves the digest of the user's current refresh token.
func (s *userService) StoreRefreshTokenHash(userID, tokenHash string) error {
	result := s.db.Model(&models.User{}).Where("id = ?", userID).Update("refresh_token_hash", tokenHash)
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// GetRefreshTokenHash returns the stored refresh token digest.
func (s *userService) GetRefreshTokenHash(userID string) (string, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return "", err
	}
	return user.RefreshTokenHash, nil
}

// ResolveChatUser finds or creates the user for a WhatsApp number. Creation
// and category seeding share one transaction; when a concurrent request wins
// the insert, the unique index rejects ours and the winner is re-read.
func (s *userService) ResolveChatUser(number, profileName string) (*models.User, bool, error) {
	if number == "" {
		return nil, false, apperrors.WithMessage(apperrors.ErrInvalidInput, "sender number is required")
	}

	user, err := s.GetUserByWhatsApp(number)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, apperrors.ErrUserNotFound) {
		return nil, false, err
	}

	name := strings.TrimSpace(profileName)
	if name == "" {
		name = "User " + number
	}
	user = &models.User{
		Email:          number + chatEmailDomain,
		Name:           name,
		WhatsAppNumber: &number,
		Password:       models.ChatPasswordMarker,
		IsActive:       true,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		return seedDefaultCategories(tx, user.ID)
	})
	if err == nil {
		return user, true, nil
	}
	if !isDuplicateKey(err) {
		return nil, false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if existing, err := s.GetUserByWhatsApp(number); err == nil {
		return existing, false, nil
	}

	// The placeholder email exists without the number; relink it.
	var existing models.User
	if err := findOne(s.db.Where("email = ?", number+chatEmailDomain), &existing, apperrors.ErrUserNotFound); err != nil {
		return nil, false, err
	}
	if err := s.LinkWhatsAppNumber(s.db, existing.ID, number); err != nil {
		return nil, false, err
	}
	existing.WhatsAppNumber = &number
	return &existing, false, nil
}

// LinkWhatsAppNumber attaches number to the user, failing if another user holds it.
func (s *userService) LinkWhatsAppNumber(tx *gorm.DB, userID, number string) error {
	var holder models.User
	err := tx.Where("whatsapp_number = ? AND id <> ?", number, userID).First(&holder).Error
	if err == nil {
		return apperrors.ErrDuplicatePhoneNumber
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := tx.Model(&models.User{}).Where("id = ?", userID).Update("whatsapp_number", number)
	if result.Error != nil {
		if isDuplicateKey(result.Error) {
			return apperrors.ErrDuplicatePhoneNumber
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// seedDefaultCategories creates the default category set for a new user.
func seedDefaultCategories(tx *gorm.DB, userID string) error {
	categories := make([]models.Category, len(models.DefaultCategories))
	for i, c := range models.DefaultCategories {
		categories[i] = models.Category{UserID: userID, Name: c.Name, Type: c.Type}
	}
	return tx.Create(&categories).Error
}
