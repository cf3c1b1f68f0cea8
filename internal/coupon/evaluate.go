package coupon

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	ReasonNotYetValid  = "Coupon not yet valid"
	ReasonExpired      = "Coupon expired"
	ReasonLimitReached = "Coupon limit reached"
	ReasonNotFound     = "Coupon not found"
)

var hundred = decimal.NewFromInt(100)

// Evaluate applies c to subtotal as of now. It has no side effects; checkout preview
// and order creation both call it so they always agree.
func Evaluate(c Coupon, subtotal int64, now time.Time) Result {
	if c.ValidFrom != nil && now.Before(*c.ValidFrom) {
		return invalid(subtotal, ReasonNotYetValid)
	}
	if c.ValidUntil != nil && now.After(*c.ValidUntil) {
		return invalid(subtotal, ReasonExpired)
	}
	if c.MaxUses != nil && c.UsedCount >= *c.MaxUses {
		return invalid(subtotal, ReasonLimitReached)
	}
	if c.MinOrderAmount != nil && subtotal < *c.MinOrderAmount {
		return invalid(subtotal, fmt.Sprintf("Minimum order amount is %d", *c.MinOrderAmount))
	}

	var discount int64
	switch c.Type {
	case TypePercent:
		// half away from zero, same as rounding a non-negative amount to the nearest unit
		discount = decimal.NewFromInt(subtotal).
			Mul(decimal.NewFromInt(c.Value)).
			Div(hundred).
			Round(0).
			IntPart()
	default:
		discount = min(c.Value, subtotal)
	}

	return Result{
		Valid:         true,
		Discount:      discount,
		FinalSubtotal: max(0, subtotal-discount),
	}
}

func invalid(subtotal int64, reason string) Result {
	return Result{Valid: false, Discount: 0, FinalSubtotal: subtotal, Error: reason}
}
