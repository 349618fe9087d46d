package services

import (
	"gorm.io/gorm"

	"lasyfinance/internal/clock"
	apperrors "lasyfinance/internal/errors"
	"lasyfinance/internal/models"
	"lasyfinance/internal/money"
	"lasyfinance/internal/pagination"
)

// transactionService handles transaction-related business logic.
type transactionService struct {
	db    *gorm.DB
	clock clock.Clock
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, clk clock.Clock) TransactionServicer {
	return &transactionService{db: db, clock: clk}
}

// CreateTransaction records a new income or expense.
func (s *transactionService) CreateTransaction(userID string, in TransactionInput) (*models.Transaction, error) {
	var result *models.Transaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		result, txErr = s.CreateTransactionTx(tx, userID, in)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CreateTransactionTx records a transaction using the given database handle,
// so callers can commit it together with other writes.
func (s *transactionService) CreateTransactionTx(tx *gorm.DB, userID string, in TransactionInput) (*models.Transaction, error) {
	if !in.Amount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if !in.Type.Valid() {
		return nil, apperrors.ErrInvalidTransactionType
	}

	if in.Date.IsZero() {
		in.Date = clock.Today(s.clock)
	}
	if in.PaymentMethod == "" {
		in.PaymentMethod = models.PaymentMethodCash
	}
	if in.Source == "" {
		in.Source = models.TransactionSourceWeb
	}

	if in.CategoryID != nil {
		category, err := s.ownedCategory(tx, userID, *in.CategoryID)
		if err != nil {
			return nil, err
		}
		if string(category.Type) != string(in.Type) {
			return nil, apperrors.ErrCategoryTypeMismatch
		}
		in.Category = category.Name
	}

	transaction := &models.Transaction{
		UserID:        userID,
		Type:          in.Type,
		Amount:        money.Round(in.Amount),
		CategoryID:    in.CategoryID,
		Category:      in.Category,
		Description:   in.Description,
		Date:          in.Date,
		PaymentMethod: in.PaymentMethod,
		Counterparty:  in.Counterparty,
		Source:        in.Source,
	}
	if err := tx.Create(transaction).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return transaction, nil
}

func (s *transactionService) ownedCategory(tx *gorm.DB, userID, categoryID string) (*models.Category, error) {
	var category models.Category
	if err := findOne(tx.Where("id = ? AND user_id = ?", categoryID, userID), &category, apperrors.ErrCategoryNotFound); err != nil {
		return nil, err
	}
	return &category, nil
}

// GetUserTransactions retrieves a paginated, filtered list of transactions, newest first.
func (s *transactionService) GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	if err := validRange(filter.FromDate, filter.ToDate); err != nil {
		return nil, err
	}
	page.Defaults()

	base := s.db.Model(&models.Transaction{}).Where("user_id = ?", userID)
	base = applyTransactionFilters(base, filter).Session(&gorm.Session{})

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := base.Scopes(pagination.Paginate(page)).
		Order("date DESC, created_at DESC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// applyTransactionFilters narrows q. Both date bounds are inclusive calendar days.
func applyTransactionFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.FromDate != nil {
		q = q.Where("date >= ?", models.DateOf(*f.FromDate))
	}
	if f.ToDate != nil {
		q = q.Where("date <= ?", models.DateOf(*f.ToDate))
	}
	if f.Type != nil {
		q = q.Where("type = ?", *f.Type)
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.PaymentMethod != nil {
		q = q.Where("payment_method = ?", *f.PaymentMethod)
	}
	if f.MinAmount != nil {
		q = q.Where("amount >= ?", *f.MinAmount)
	}
	if f.MaxAmount != nil {
		q = q.Where("amount <= ?", *f.MaxAmount)
	}
	return q
}

// GetTransactionByID retrieves a transaction by ID for a specific user
func (s *transactionService) GetTransactionByID(userID, transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	q := s.db.Where("id = ? AND user_id = ?", transactionID, userID)
	if err := findOne(q, &transaction, apperrors.ErrTransactionNotFound); err != nil {
		return nil, err
	}
	return &transaction, nil
}

// UpdateTransaction applies an explicit user edit.
func (s *transactionService) UpdateTransaction(userID, transactionID string, upd TransactionUpdate) (*models.Transaction, error) {
	transaction, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return nil, err
	}

	if upd.Amount != nil {
		if !upd.Amount.IsPositive() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
		}
		transaction.Amount = money.Round(*upd.Amount)
	}
	if upd.Type != nil {
		if !upd.Type.Valid() {
			return nil, apperrors.ErrInvalidTransactionType
		}
		transaction.Type = *upd.Type
	}
	if upd.Description != nil {
		transaction.Description = *upd.Description
	}
	if upd.Date != nil {
		transaction.Date = *upd.Date
	}
	if upd.PaymentMethod != nil {
		transaction.PaymentMethod = *upd.PaymentMethod
	}
	if upd.Counterparty != nil {
		transaction.Counterparty = *upd.Counterparty
	}
	if upd.CategoryID != nil {
		if *upd.CategoryID == "" {
			transaction.CategoryID = nil
		} else {
			category, err := s.ownedCategory(s.db, userID, *upd.CategoryID)
			if err != nil {
				return nil, err
			}
			transaction.CategoryID = &category.ID
			transaction.Category = category.Name
		}
	}
	if transaction.CategoryID != nil {
		category, err := s.ownedCategory(s.db, userID, *transaction.CategoryID)
		if err == nil && string(category.Type) != string(transaction.Type) {
			return nil, apperrors.ErrCategoryTypeMismatch
		}
	}

	if err := s.db.Save(transaction).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return transaction, nil
}

// DeleteTransaction soft-deletes a transaction.
func (s *transactionService) DeleteTransaction(userID, transactionID string) error {
	transaction, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(transaction).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
