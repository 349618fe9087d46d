package models

import "time"

// PhoneVerification is a one-time code sent to link a WhatsApp number to a user.
type PhoneVerification struct {
	Base
	UserID         string     `gorm:"type:uuid;not null;index" json:"user_id"`
	WhatsAppNumber string     `gorm:"column:whatsapp_number;not null;index" json:"whatsapp_number"`
	OTPCode        string     `gorm:"size:6;not null" json:"-"`
	ExpiresAt      time.Time  `gorm:"not null" json:"expires_at"`
	VerifiedAt     *time.Time `json:"verified_at,omitempty"`
}

// Expired reports whether the code can no longer be used at now.
func (p *PhoneVerification) Expired(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}
