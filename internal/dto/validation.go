package dto

import (
	"errors"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/quartzmarket/ledger/internal/utils/qz"
)

// RegisterValidations installs the custom binding rules used by the request
// DTOs. "qzamount" accepts only positive amounts in whole multiples of 0.5 QZ,
// so malformed amounts are rejected at the HTTP boundary before any service
// logic runs.
func RegisterValidations() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin binding validator engine is not *validator.Validate")
	}
	return v.RegisterValidation("qzamount", func(fl validator.FieldLevel) bool {
		amount, ok := fl.Field().Interface().(decimal.Decimal)
		if !ok {
			return false
		}
		if !amount.IsPositive() {
			return false
		}
		_, err := qz.FromDecimal(amount)
		return err == nil
	})
}
