package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	minAmount = decimal.RequireFromString("0.01")
	// maxAmount is the first value a NUMERIC(10,2) column cannot hold.
	maxAmount = decimal.New(1, 8)
)

// ValidateAmount rejects money values the amount columns would round or
// overflow: fewer than one cent, more than two decimal places, or 10^8 and up.
func ValidateAmount(field string, amount decimal.Decimal) error {
	if amount.LessThan(minAmount) {
		return fmt.Errorf("%w: %s must be at least 0.01", ErrValidation, field)
	}
	if !amount.Round(2).Equal(amount) {
		return fmt.Errorf("%w: %s must have at most 2 decimal places", ErrValidation, field)
	}
	if amount.GreaterThanOrEqual(maxAmount) {
		return fmt.Errorf("%w: %s must be less than 100000000", ErrValidation, field)
	}
	return nil
}
