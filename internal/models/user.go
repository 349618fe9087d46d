package models

import "time"

// ChatPasswordMarker is stored as the password of users created from the chat
// channel. It is not a valid bcrypt hash, so password login always fails.
const ChatPasswordMarker = "!"

// User represents the user model in the database
type User struct {
	Base
	Email               string     `gorm:"uniqueIndex;not null" json:"email"`
	Name                string     `json:"name"`
	WhatsAppNumber      *string    `gorm:"column:whatsapp_number;uniqueIndex" json:"whatsapp_number,omitempty"`
	Password            string     `gorm:"not null" json:"-"`
	IsActive            bool       `gorm:"default:true" json:"is_active"`
	RefreshTokenHash    string     `gorm:"size:64" json:"-"`
	FailedLoginAttempts int        `gorm:"default:0" json:"-"`
	LockedUntil         *time.Time `json:"-"`
	LastLoginAt         *time.Time `json:"last_login_at,omitempty"`
}

// HasPassword reports whether the user can log in with a password.
func (u *User) HasPassword() bool {
	return u.Password != "" && u.Password != ChatPasswordMarker
}
