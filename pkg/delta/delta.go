// Package delta computes the signed percentage change between two observed prices.
package delta

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrDivisionByZero is returned when the previous price is zero and no
// percentage can be expressed relative to it.
var ErrDivisionByZero = errors.New("previous price is zero: division by zero")

var hundred = decimal.NewFromInt(100)

// PercentDrop returns round((previous - current) / previous * 100).
//
// A positive result means the price went down, zero or negative means it held
// or went up. Halves are rounded to the nearest even integer, so a 12.5% drop
// reports 12 and a 1.5% drop reports 2.
func PercentDrop(previous, current int64) (int64, error) {
	if previous == 0 {
		return 0, ErrDivisionByZero
	}

	prev := decimal.NewFromInt(previous)
	diff := prev.Sub(decimal.NewFromInt(current))

	// multiply before dividing so ties stay exact
	pct := diff.Mul(hundred).Div(prev)
	return pct.RoundBank(0).IntPart(), nil
}

// Compare applies PercentDrop to current against previous. When there is no
// previous observation the current price stands in for it, which yields 0.
func Compare(previous int64, hasPrevious bool, current int64) (int64, error) {
	if !hasPrevious {
		previous = current
	}
	return PercentDrop(previous, current)
}
