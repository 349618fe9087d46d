// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"reflect"
	"regexp"
	"strings"

	"lasyfinance/internal/models"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// phoneRegex accepts E.164 digits with an optional leading "+".
var phoneRegex = regexp.MustCompile(`^\+?[1-9][0-9]{7,14}$`)

// phoneFormatting is stripped before matching, so "+55 (11) 99999-0000" passes.
var phoneFormatting = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
		_ = v.RegisterValidation("transaction_type", oneOf(models.TransactionTypeIncome, models.TransactionTypeExpense))
		_ = v.RegisterValidation("category_type", oneOf(models.CategoryTypeIncome, models.CategoryTypeExpense))
		_ = v.RegisterValidation("payment_method", oneOf(models.PaymentMethodPix, models.PaymentMethodCard, models.PaymentMethodCash, models.PaymentMethodTransfer))
		_ = v.RegisterValidation("bill_status", oneOf(models.BillStatusPending, models.BillStatusPaid, models.BillStatusOverdue))
		_ = v.RegisterValidation("recurrence_interval", oneOf(models.RecurrenceWeekly, models.RecurrenceMonthly, models.RecurrenceYearly))
		_ = v.RegisterValidation("reminder_status", oneOf(models.ReminderStatusPending, models.ReminderStatusCompleted))
		_ = v.RegisterValidation("reminder_type", oneOf(models.ReminderTypeBill, models.ReminderTypeMeeting, models.ReminderTypePayment, models.ReminderTypeOther))
		_ = v.RegisterValidation("goal_status", oneOf(models.GoalStatusNotStarted, models.GoalStatusInProgress, models.GoalStatusCompleted))
		_ = v.RegisterValidation("decimal_positive", validateDecimalPositive)
		_ = v.RegisterValidation("phone", validatePhone)
	}
}

// oneOf builds a validator accepting exactly the given string-typed values.
func oneOf[T ~string](allowed ...T) validator.Func {
	set := make(map[string]bool, len(allowed))
	for _, a := range allowed {
		set[string(a)] = true
	}
	return func(fl validator.FieldLevel) bool {
		return set[fl.Field().String()]
	}
}

// decimalValue exposes decimal.Decimal to the validator as its string form.
func decimalValue(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		return d.String()
	}
	return nil
}

func validateDecimalPositive(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(fl.Field().String())
	return err == nil && d.IsPositive()
}

func validatePhone(fl validator.FieldLevel) bool {
	return phoneRegex.MatchString(phoneFormatting.Replace(fl.Field().String()))
}
