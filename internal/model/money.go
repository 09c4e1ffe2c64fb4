package model

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// MinorUnitDigits is the number of decimal digits kept in stored amounts.
const MinorUnitDigits = 2

// maxMajorAmount bounds amounts so their minor-unit form fits comfortably in an int64.
const maxMajorAmount = 1e15

// Money errors.
var (
	ErrNegativeAmount = errors.New("amount cannot be negative")
	ErrInvalidAmount  = errors.New("invalid amount")
)

// ToMinorUnits converts a non-negative major-unit amount into minor units.
//
// Rounding is half away from zero, applied to the shortest decimal representation
// of the float (1.005 becomes 101, not 100). Every conversion from float to stored
// integer goes through this function so the balance never drifts.
func ToMinorUnits(amount float64) (int64, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || math.Abs(amount) > maxMajorAmount {
		return 0, fmt.Errorf("%w: %v", ErrInvalidAmount, amount)
	}
	if amount < 0 {
		return 0, fmt.Errorf("%w: %v", ErrNegativeAmount, amount)
	}
	return decimal.NewFromFloat(amount).Shift(MinorUnitDigits).Round(0).IntPart(), nil
}

// FromMinorUnits converts minor units back into a major-unit float for display and reporting.
func FromMinorUnits(minor int64) float64 {
	return decimal.New(minor, -MinorUnitDigits).InexactFloat64()
}

// RoundCents rounds v to two decimals, half away from zero.
func RoundCents(v float64) float64 {
	return decimal.NewFromFloat(v).Round(MinorUnitDigits).InexactFloat64()
}

// FormatMoney renders a signed major-unit amount in the given currency, using the
// currency's own symbol, separators and number of decimals when it is known.
func FormatMoney(amount float64, currency string) string {
	code := strings.ToUpper(currency)
	cur := money.GetCurrency(code)
	if cur == nil {
		minor := decimal.NewFromFloat(amount).Shift(MinorUnitDigits).Round(0).IntPart()
		return fmt.Sprintf("%.2f %s", FromMinorUnits(minor), code)
	}
	// go-money counts in the currency's own minor units: 0 decimals for JPY, 3 for KWD.
	minor := decimal.NewFromFloat(amount).Shift(int32(cur.Fraction)).Round(0).IntPart()
	return cur.Formatter().Format(minor)
}
