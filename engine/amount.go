package engine

import (
	"github.com/shopspring/decimal"

	"github.com/attimo/absence-engine/catalog"
)

// =============================================================================
// FIXED-POINT AMOUNT ARITHMETIC
// =============================================================================
// Entitlement amounts are int64 fixed point: hundredths of a day for
// AmountUnits, minutes for AmountMinutes. Proportional adjustments
// truncate remainders; a prorated 21.01-day quota is 21 whole days, never
// 22.

// DefaultWorkingDayMinutes is the conventional 7h12m working day, used to
// charge all-day absences under minute-counted groups that carry no
// per-type cap.
const DefaultWorkingDayMinutes = 432

// Prorate scales base by numerator/denominator in fixed point, truncating.
func Prorate(base int64, numerator, denominator int) int64 {
	if denominator == 0 || numerator <= 0 {
		return 0
	}
	return decimal.NewFromInt(base).
		Mul(decimal.NewFromInt(int64(numerator))).
		Div(decimal.NewFromInt(int64(denominator))).
		Truncate(0).
		IntPart()
}

// UnitsToDays converts a units fixed-point amount to whole days, truncating.
func UnitsToDays(units int64) int {
	return int(units / 100)
}

// DaysToUnits converts whole days to units fixed point.
func DaysToUnits(days int) int64 {
	return int64(days) * 100
}

// FormatAmount renders an amount in its natural unit: days with two
// decimals for units, plain minutes otherwise.
func FormatAmount(at catalog.AmountType, v int64) string {
	if at == catalog.AmountUnits {
		return decimal.NewFromInt(v).Div(decimal.NewFromInt(100)).StringFixed(2)
	}
	return decimal.NewFromInt(v).String()
}
