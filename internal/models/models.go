// Package models defines the gorm models persisted by the API.
package models

// All lists every model, in dependency order, for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Category{},
		&Transaction{},
		&Bill{},
		&Reminder{},
		&FinancialGoal{},
		&GoalContribution{},
		&MessageLog{},
		&PhoneVerification{},
	}
}
