package models

// CategoryType represents the type of category
type CategoryType string

const (
	CategoryTypeIncome  CategoryType = "income"
	CategoryTypeExpense CategoryType = "expense"
)

// Category is a user-owned label for transactions.
type Category struct {
	Base
	UserID string       `gorm:"type:uuid;not null;uniqueIndex:idx_categories_user_name" json:"user_id"`
	Name   string       `gorm:"not null;uniqueIndex:idx_categories_user_name" json:"name"`
	Type   CategoryType `gorm:"not null" json:"type"`
}

// DefaultCategories is the set seeded for every new user.
var DefaultCategories = []Category{
	{Name: "Salário", Type: CategoryTypeIncome},
	{Name: "Vendas", Type: CategoryTypeIncome},
	{Name: "Alimentação", Type: CategoryTypeExpense},
	{Name: "Aluguel", Type: CategoryTypeExpense},
	{Name: "Internet", Type: CategoryTypeExpense},
	{Name: "Transporte", Type: CategoryTypeExpense},
	{Name: "Outros", Type: CategoryTypeExpense},
}

// FallbackCategoryName labels transactions without a category in reports.
const FallbackCategoryName = "Outros"
