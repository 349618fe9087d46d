package services

import (
	"time"

	"gorm.io/gorm"

	"lasyfinance/internal/clock"
	apperrors "lasyfinance/internal/errors"
	"lasyfinance/internal/models"
	"lasyfinance/internal/money"
	"lasyfinance/internal/pagination"
)

// billService handles payables and receivables.
type billService struct {
	db    *gorm.DB
	clock clock.Clock
}

// NewBillService creates a new BillServicer.
func NewBillService(db *gorm.DB, clk clock.Clock) BillServicer {
	return &billService{db: db, clock: clk}
}

func validKind(kind models.BillKind) error {
	if kind != models.BillKindPayable && kind != models.BillKindReceivable {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "bill kind must be payable or receivable")
	}
	return nil
}

func validRecurrence(recurring bool, interval models.RecurrenceInterval, count *int) error {
	if !recurring {
		return nil
	}
	switch interval {
	case models.RecurrenceWeekly, models.RecurrenceMonthly, models.RecurrenceYearly:
	default:
		return apperrors.ErrInvalidRecurrence
	}
	if count != nil && *count <= 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidRecurrence, "recurrence count must be positive")
	}
	return nil
}

// CreateBill creates a pending payable or receivable.
func (s *billService) CreateBill(userID string, kind models.BillKind, in BillInput) (*models.Bill, error) {
	if err := validKind(kind); err != nil {
		return nil, err
	}
	if in.PartyName == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "party name is required")
	}
	if !in.Amount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if in.DueDate.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "due date is required")
	}
	if err := validRecurrence(in.IsRecurring, in.RecurrenceInterval, in.RecurrenceCount); err != nil {
		return nil, err
	}

	bill := &models.Bill{
		UserID:      userID,
		Kind:        kind,
		PartyName:   in.PartyName,
		Description: in.Description,
		Amount:      money.Round(in.Amount),
		DueDate:     in.DueDate,
		Status:      models.BillStatusPending,
		IsRecurring: in.IsRecurring,
	}
	if in.IsRecurring {
		bill.RecurrenceInterval = in.RecurrenceInterval
		bill.RecurrenceCount = in.RecurrenceCount
		bill.RecurrenceEndDate = in.RecurrenceEndDate
	}

	if err := s.db.Create(bill).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	bill.Derive(s.clock.Now())
	return bill, nil
}

// GetUserBills lists bills of one kind ordered by due date. Status filters
// are evaluated against today: overdue means stored pending with a past due
// date, pending means stored pending and not yet due.
func (s *billService) GetUserBills(userID string, kind models.BillKind, page pagination.PageRequest, filter BillFilter) (*pagination.PageResponse[models.Bill], error) {
	if err := validKind(kind); err != nil {
		return nil, err
	}
	if err := validRange(filter.FromDate, filter.ToDate); err != nil {
		return nil, err
	}
	page.Defaults()
	today := clock.Today(s.clock)

	base := s.db.Model(&models.Bill{}).Where("user_id = ? AND kind = ?", userID, kind)
	if filter.Status != nil {
		switch *filter.Status {
		case models.BillStatusPaid:
			base = base.Where("status = ?", models.BillStatusPaid)
		case models.BillStatusOverdue:
			base = base.Where("status = ? AND due_date < ?", models.BillStatusPending, today)
		case models.BillStatusPending:
			base = base.Where("status = ? AND due_date >= ?", models.BillStatusPending, today)
		default:
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown bill status")
		}
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

	var bills []models.Bill
	if err := base.Scopes(pagination.Paginate(page)).Order("due_date ASC, created_at ASC").Find(&bills).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for i := range bills {
		bills[i].Derive(today)
	}

	result := pagination.NewPageResponse(bills, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetBillByID retrieves one bill of the given kind with its derived status.
func (s *billService) GetBillByID(userID string, kind models.BillKind, billID string) (*models.Bill, error) {
	bill, err := s.load(s.db, userID, kind, billID)
	if err != nil {
		return nil, err
	}
	bill.Derive(s.clock.Now())
	return bill, nil
}

func (s *billService) load(db *gorm.DB, userID string, kind models.BillKind, billID string) (*models.Bill, error) {
	var bill models.Bill
	q := db.Where("id = ? AND user_id = ? AND kind = ?", billID, userID, kind)
	if err := findOne(q, &bill, apperrors.ErrBillNotFound); err != nil {
		return nil, err
	}
	return &bill, nil
}

// UpdateBill applies user edits. Paid status only changes through MarkPaid.
func (s *billService) UpdateBill(userID string, kind models.BillKind, billID string, upd BillUpdate) (*models.Bill, error) {
	bill, err := s.load(s.db, userID, kind, billID)
	if err != nil {
		return nil, err
	}

	if upd.PartyName != nil {
		if *upd.PartyName == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "party name is required")
		}
		bill.PartyName = *upd.PartyName
	}
	if upd.Description != nil {
		bill.Description = *upd.Description
	}
	if upd.Amount != nil {
		if !upd.Amount.IsPositive() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
		}
		bill.Amount = money.Round(*upd.Amount)
	}
	if upd.DueDate != nil {
		bill.DueDate = *upd.DueDate
	}
	if upd.IsRecurring != nil {
		bill.IsRecurring = *upd.IsRecurring
	}
	if upd.RecurrenceInterval != nil {
		bill.RecurrenceInterval = *upd.RecurrenceInterval
	}
	if upd.RecurrenceCount != nil {
		bill.RecurrenceCount = upd.RecurrenceCount
	}
	if upd.RecurrenceEndDate != nil {
		bill.RecurrenceEndDate = upd.RecurrenceEndDate
	}
	if err := validRecurrence(bill.IsRecurring, bill.RecurrenceInterval, bill.RecurrenceCount); err != nil {
		return nil, err
	}
	if !bill.IsRecurring {
		bill.RecurrenceInterval = ""
		bill.RecurrenceCount = nil
		bill.RecurrenceEndDate = nil
	}

	if err := s.db.Save(bill).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	bill.Derive(s.clock.Now())
	return bill, nil
}

// DeleteBill soft-deletes a bill.
func (s *billService) DeleteBill(userID string, kind models.BillKind, billID string) error {
	bill, err := s.load(s.db, userID, kind, billID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(bill).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// MarkPaid settles a bill and, for a recurring one, materializes the next
// occurrence in the same transaction. Paying an already paid bill changes nothing.
func (s *billService) MarkPaid(userID string, kind models.BillKind, billID string) (*models.Bill, *models.Bill, error) {
	now := s.clock.Now()
	var paid, next *models.Bill

	err := s.db.Transaction(func(tx *gorm.DB) error {
		bill, err := s.load(tx, userID, kind, billID)
		if err != nil {
			return err
		}
		paid = bill
		if bill.Status == models.BillStatusPaid {
			return nil
		}

		paidAt := now
		bill.Status = models.BillStatusPaid
		bill.PaidAt = &paidAt
		if err := tx.Save(bill).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		following, ok := bill.NextOccurrence()
		if !ok {
			return nil
		}
		if err := tx.Create(following).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		next = following
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	paid.Derive(now)
	if next != nil {
		next.Derive(now)
	}
	return paid, next, nil
}

// PendingPayables returns up to limit unpaid payables, soonest due first.
func (s *billService) PendingPayables(userID string, limit int) ([]models.Bill, error) {
	var bills []models.Bill
	q := s.db.Where("user_id = ? AND kind = ? AND status = ?", userID, models.BillKindPayable, models.BillStatusPending).
		Order("due_date ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&bills).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	today := s.clock.Now()
	for i := range bills {
		bills[i].Derive(today)
	}
	return bills, nil
}

// openBillTotals sums pending bills of a kind, splitting out the overdue ones.
func openBillTotals(db *gorm.DB, userID string, kind models.BillKind, today time.Time) (BillTotals, error) {
	var bills []models.Bill
	err := db.Select("amount", "due_date", "status").
		Where("user_id = ? AND kind = ? AND status = ?", userID, kind, models.BillStatusPending).
		Find(&bills).Error
	if err != nil {
		return BillTotals{}, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	totals := BillTotals{PendingAmount: money.Sum(), OverdueAmount: money.Sum()}
	for i := range bills {
		totals.PendingAmount = totals.PendingAmount.Add(bills[i].Amount)
		totals.PendingCount++
		if bills[i].StatusAt(today) == models.BillStatusOverdue {
			totals.OverdueAmount = totals.OverdueAmount.Add(bills[i].Amount)
			totals.OverdueCount++
		}
	}
	return totals, nil
}
