package domain

import "github.com/shopspring/decimal"

// MoneyScale is the number of fractional digits of the smallest currency unit.
const MoneyScale = 2

var minorUnit = decimal.New(1, -MoneyScale)

// ValidateAmount checks that amount is positive, representable in whole
// minor units and, when max is positive, not above max.
func ValidateAmount(amount, max decimal.Decimal) error {
	if amount.LessThan(minorUnit) {
		return ErrInvalidAmount
	}
	if !amount.Equal(amount.Round(MoneyScale)) {
		return ErrInvalidAmount
	}
	if max.IsPositive() && amount.GreaterThan(max) {
		return ErrInvalidAmount
	}
	return nil
}
