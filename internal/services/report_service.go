package services

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"lasyfinance/internal/clock"
	apperrors "lasyfinance/internal/errors"
	"lasyfinance/internal/models"
)

// reportService aggregates transactions and bills. Sums are taken in Go over
// decimal amounts so results match across postgres and sqlite.
type reportService struct {
	db    *gorm.DB
	clock clock.Clock
}

// NewReportService creates a new ReportServicer.
func NewReportService(db *gorm.DB, clk clock.Clock) ReportServicer {
	return &reportService{db: db, clock: clk}
}

func (s *reportService) transactions(userID string, from, to *time.Time) ([]models.Transaction, error) {
	if err := validRange(from, to); err != nil {
		return nil, err
	}
	var rows []models.Transaction
	q := s.db.Select("type", "amount", "category", "date").Where("user_id = ?", userID)
	if err := dateRange(q, "date", from, to).Find(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return rows, nil
}

func totalsOf(rows []models.Transaction) Totals {
	t := Totals{Income: decimal.Zero, Expense: decimal.Zero}
	for i := range rows {
		switch rows[i].Type {
		case models.TransactionTypeIncome:
			t.Income = t.Income.Add(rows[i].Amount)
		case models.TransactionTypeExpense:
			t.Expense = t.Expense.Add(rows[i].Amount)
		}
	}
	t.Balance = t.Income.Sub(t.Expense)
	t.TransactionCount = len(rows)
	return t
}

// GetTotals returns income, expense and balance over [from, to).
func (s *reportService) GetTotals(userID string, from, to *time.Time) (*Totals, error) {
	rows, err := s.transactions(userID, from, to)
	if err != nil {
		return nil, err
	}
	totals := totalsOf(rows)
	return &totals, nil
}

// GetSummary returns period totals plus the open payables and receivables.
func (s *reportService) GetSummary(userID string, from, to *time.Time) (*Summary, error) {
	rows, err := s.transactions(userID, from, to)
	if err != nil {
		return nil, err
	}

	today := clock.Today(s.clock)
	payables, err := openBillTotals(s.db, userID, models.BillKindPayable, today)
	if err != nil {
		return nil, err
	}
	receivables, err := openBillTotals(s.db, userID, models.BillKindReceivable, today)
	if err != nil {
		return nil, err
	}

	return &Summary{
		Totals:      totalsOf(rows),
		Payables:    payables,
		Receivables: receivables,
	}, nil
}

// GetMonthly groups totals by calendar month, oldest first.
func (s *reportService) GetMonthly(userID string, from, to *time.Time) ([]MonthlyTotals, error) {
	rows, err := s.transactions(userID, from, to)
	if err != nil {
		return nil, err
	}

	byMonth := make(map[string][]models.Transaction)
	for i := range rows {
		key := rows[i].Date.UTC().Format("2006-01")
		byMonth[key] = append(byMonth[key], rows[i])
	}

	result := make([]MonthlyTotals, 0, len(byMonth))
	for month, monthRows := range byMonth {
		t := totalsOf(monthRows)
		result = append(result, MonthlyTotals{
			Month:   month,
			Income:  t.Income,
			Expense: t.Expense,
			Balance: t.Balance,
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Month < result[j].Month })
	return result, nil
}

// GetByCategory totals one transaction type per category name, largest first.
// Uncategorized rows are reported under the fallback category.
func (s *reportService) GetByCategory(userID string, txType models.TransactionType, from, to *time.Time) ([]CategoryTotal, error) {
	if !txType.Valid() {
		return nil, apperrors.ErrInvalidTransactionType
	}
	rows, err := s.transactions(userID, from, to)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int)
	var result []CategoryTotal
	for i := range rows {
		if rows[i].Type != txType {
			continue
		}
		name := strings.TrimSpace(rows[i].Category)
		if name == "" {
			name = models.FallbackCategoryName
		}
		pos, ok := index[name]
		if !ok {
			pos = len(result)
			index[name] = pos
			result = append(result, CategoryTotal{Category: name, Total: decimal.Zero})
		}
		result[pos].Total = result[pos].Total.Add(rows[i].Amount)
		result[pos].Count++
	}

	sort.SliceStable(result, func(i, j int) bool {
		if c := result[i].Total.Cmp(result[j].Total); c != 0 {
			return c > 0
		}
		return result[i].Category < result[j].Category
	})
	if result == nil {
		result = []CategoryTotal{}
	}
	return result, nil
}
