package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TransactionType represents the direction of a transaction
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

// Valid reports whether t is a known direction.
func (t TransactionType) Valid() bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}

// PaymentMethod is how a transaction was settled.
type PaymentMethod string

const (
	PaymentMethodPix      PaymentMethod = "pix"
	PaymentMethodCard     PaymentMethod = "card"
	PaymentMethodCash     PaymentMethod = "cash"
	PaymentMethodTransfer PaymentMethod = "transfer"
)

// TransactionSource records which channel created a transaction.
type TransactionSource string

const (
	TransactionSourceWeb      TransactionSource = "web"
	TransactionSourceWhatsApp TransactionSource = "whatsapp"
)

// Transaction represents a realized income or expense.
type Transaction struct {
	Base
	UserID        string            `gorm:"type:uuid;not null;index" json:"user_id"`
	Type          TransactionType   `gorm:"not null" json:"type"`
	Amount        decimal.Decimal   `gorm:"type:numeric(14,2);not null" json:"amount"`
	CategoryID    *string           `gorm:"type:uuid" json:"category_id,omitempty"`
	Category      string            `json:"category"`
	Description   string            `json:"description"`
	Date          time.Time         `gorm:"not null;index" json:"date"`
	PaymentMethod PaymentMethod     `gorm:"not null;default:'cash'" json:"payment_method"`
	Counterparty  string            `json:"counterparty,omitempty"`
	Source        TransactionSource `gorm:"not null;default:'web'" json:"source"`
}

// BeforeSave keeps Date on a calendar-day boundary.
func (t *Transaction) BeforeSave(tx *gorm.DB) error {
	t.Date = DateOf(t.Date)
	return nil
}
