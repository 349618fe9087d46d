package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"lasyfinance/internal/models"
	"lasyfinance/internal/pagination"
	"lasyfinance/internal/whatsapp"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, name string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	GetUserByWhatsApp(number string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	StoreRefreshTokenHash(userID, tokenHash string) error
	GetRefreshTokenHash(userID string) (string, error)
	// ResolveChatUser returns the user linked to a WhatsApp number, creating
	// it with the default categories when absent. created reports which.
	ResolveChatUser(number, profileName string) (user *models.User, created bool, err error)
	LinkWhatsAppNumber(tx *gorm.DB, userID, number string) error
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(userID, name string, categoryType models.CategoryType) (*models.Category, error)
	GetUserCategories(userID string, categoryType *models.CategoryType, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	ListAllCategories(userID string) ([]models.Category, error)
	GetCategoryByID(userID, categoryID string) (*models.Category, error)
	FindCategoryByName(userID, name string) (*models.Category, error)
	UpdateCategory(userID, categoryID, name string, categoryType *models.CategoryType) (*models.Category, error)
	DeleteCategory(userID, categoryID string) error
}

// TransactionInput holds the fields of a new transaction.
type TransactionInput struct {
	Type          models.TransactionType
	Amount        decimal.Decimal
	CategoryID    *string
	Category      string
	Description   string
	Date          time.Time
	PaymentMethod models.PaymentMethod
	Counterparty  string
	Source        models.TransactionSource
}

// TransactionUpdate holds optional changes to a transaction. Nil fields are left alone.
type TransactionUpdate struct {
	Type          *models.TransactionType
	Amount        *decimal.Decimal
	CategoryID    *string
	Description   *string
	Date          *time.Time
	PaymentMethod *models.PaymentMethod
	Counterparty  *string
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate      *time.Time
	ToDate        *time.Time
	Type          *models.TransactionType
	CategoryID    *string
	PaymentMethod *models.PaymentMethod
	MinAmount     *decimal.Decimal
	MaxAmount     *decimal.Decimal
}

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	CreateTransaction(userID string, in TransactionInput) (*models.Transaction, error)
	CreateTransactionTx(tx *gorm.DB, userID string, in TransactionInput) (*models.Transaction, error)
	GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(userID, transactionID string) (*models.Transaction, error)
	UpdateTransaction(userID, transactionID string, upd TransactionUpdate) (*models.Transaction, error)
	DeleteTransaction(userID, transactionID string) error
}

// BillInput holds the fields of a new payable or receivable.
type BillInput struct {
	PartyName          string
	Description        string
	Amount             decimal.Decimal
	DueDate            time.Time
	IsRecurring        bool
	RecurrenceInterval models.RecurrenceInterval
	RecurrenceCount    *int
	RecurrenceEndDate  *time.Time
}

// BillUpdate holds optional changes to a bill.
type BillUpdate struct {
	PartyName          *string
	Description        *string
	Amount             *decimal.Decimal
	DueDate            *time.Time
	IsRecurring        *bool
	RecurrenceInterval *models.RecurrenceInterval
	RecurrenceCount    *int
	RecurrenceEndDate  *time.Time
}

// BillFilter narrows bill listings. Status may be pending, paid or overdue;
// overdue and pending are evaluated against the current date.
type BillFilter struct {
	Status   *models.BillStatus
	FromDate *time.Time
	ToDate   *time.Time
}

// BillServicer defines the contract for payables and receivables.
type BillServicer interface {
	CreateBill(userID string, kind models.BillKind, in BillInput) (*models.Bill, error)
	GetUserBills(userID string, kind models.BillKind, page pagination.PageRequest, filter BillFilter) (*pagination.PageResponse[models.Bill], error)
	GetBillByID(userID string, kind models.BillKind, billID string) (*models.Bill, error)
	UpdateBill(userID string, kind models.BillKind, billID string, upd BillUpdate) (*models.Bill, error)
	DeleteBill(userID string, kind models.BillKind, billID string) error
	// MarkPaid settles a bill. It is idempotent; for recurring bills the
	// next occurrence is returned the first time it is created.
	MarkPaid(userID string, kind models.BillKind, billID string) (paid *models.Bill, next *models.Bill, err error)
	PendingPayables(userID string, limit int) ([]models.Bill, error)
}

// ReminderInput holds the fields of a new reminder.
type ReminderInput struct {
	Title       string
	Description string
	Type        models.ReminderType
	DueDate     time.Time
}

// ReminderUpdate holds optional changes to a reminder.
type ReminderUpdate struct {
	Title       *string
	Description *string
	Type        *models.ReminderType
	DueDate     *time.Time
	Status      *models.ReminderStatus
}

// ReminderFilter narrows reminder listings.
type ReminderFilter struct {
	Status   *models.ReminderStatus
	FromDate *time.Time
	ToDate   *time.Time
}

// ReminderServicer defines the contract for reminders.
type ReminderServicer interface {
	CreateReminder(userID string, in ReminderInput) (*models.Reminder, error)
	GetUserReminders(userID string, page pagination.PageRequest, filter ReminderFilter) (*pagination.PageResponse[models.Reminder], error)
	GetReminderByID(userID, reminderID string) (*models.Reminder, error)
	UpdateReminder(userID, reminderID string, upd ReminderUpdate) (*models.Reminder, error)
	DeleteReminder(userID, reminderID string) error
	CompleteReminder(userID, reminderID string) (*models.Reminder, error)
}

// GoalInput holds the fields of a new savings goal.
type GoalInput struct {
	Name          string
	TargetAmount  decimal.Decimal
	CurrentAmount decimal.Decimal
	Category      string
	TargetDate    *time.Time
}

// GoalUpdate holds optional changes to a goal. The saved amount only moves
// through contributions.
type GoalUpdate struct {
	Name         *string
	TargetAmount *decimal.Decimal
	Category     *string
	TargetDate   *time.Time
}

// GoalServicer defines the contract for savings goals.
type GoalServicer interface {
	CreateGoal(userID string, in GoalInput) (*models.FinancialGoal, error)
	GetUserGoals(userID string, status *models.GoalStatus, page pagination.PageRequest) (*pagination.PageResponse[models.FinancialGoal], error)
	GetGoalByID(userID, goalID string) (*models.FinancialGoal, error)
	UpdateGoal(userID, goalID string, upd GoalUpdate) (*models.FinancialGoal, error)
	DeleteGoal(userID, goalID string) error
	Contribute(userID, goalID string, amount decimal.Decimal, note string, date time.Time) (*models.FinancialGoal, *models.GoalContribution, error)
	GetContributions(userID, goalID string, page pagination.PageRequest) (*pagination.PageResponse[models.GoalContribution], error)
}

// Totals is income, expense and their difference over a period.
type Totals struct {
	Income           decimal.Decimal `json:"income"`
	Expense          decimal.Decimal `json:"expense"`
	Balance          decimal.Decimal `json:"balance"`
	TransactionCount int             `json:"transaction_count"`
}

// BillTotals summarizes open bills of one kind.
type BillTotals struct {
	PendingAmount decimal.Decimal `json:"pending_amount"`
	PendingCount  int             `json:"pending_count"`
	OverdueAmount decimal.Decimal `json:"overdue_amount"`
	OverdueCount  int             `json:"overdue_count"`
}

// Summary is the dashboard view for a period.
type Summary struct {
	Totals
	Payables    BillTotals `json:"payables"`
	Receivables BillTotals `json:"receivables"`
}

// MonthlyTotals is income and expense for one calendar month (YYYY-MM).
type MonthlyTotals struct {
	Month   string          `json:"month"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Balance decimal.Decimal `json:"balance"`
}

// CategoryTotal is the amount spent or received under one category name.
type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
	Count    int             `json:"count"`
}

// ReportServicer defines the contract for aggregated reports. Ranges are
// half-open: from is inclusive, to is exclusive; nil means unbounded.
type ReportServicer interface {
	GetTotals(userID string, from, to *time.Time) (*Totals, error)
	GetSummary(userID string, from, to *time.Time) (*Summary, error)
	GetMonthly(userID string, from, to *time.Time) ([]MonthlyTotals, error)
	GetByCategory(userID string, txType models.TransactionType, from, to *time.Time) ([]CategoryTotal, error)
}

// MessageLogServicer defines the contract for the chat audit trail.
type MessageLogServicer interface {
	RecordTx(tx *gorm.DB, entry *models.MessageLog) error
	GetByChannelMessageID(channelMessageID string) (*models.MessageLog, error)
	GetUserMessages(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.MessageLog], error)
}

// ProvisionResult reports whether the verification code reached the user.
type ProvisionResult struct {
	Sent      bool
	Notice    string
	ExpiresAt time.Time
}

// ProvisioningServicer issues and checks one-time codes that link a
// WhatsApp number to a user.
type ProvisioningServicer interface {
	RequestCode(ctx context.Context, phone, email, name string) (*ProvisionResult, error)
	RequestCodeForUser(ctx context.Context, userID, phone string) (*ProvisionResult, error)
	VerifyCode(phone, code string) (*models.User, error)
}

// QueryResponder answers balance and summary questions from stored transactions.
type QueryResponder interface {
	Match(text string) QueryKind
	Respond(ctx context.Context, userID, text string) (string, error)
}

// ChatServicer processes inbound chat messages end to end.
type ChatServicer interface {
	HandleInbound(ctx context.Context, msg whatsapp.InboundMessage) string
}
