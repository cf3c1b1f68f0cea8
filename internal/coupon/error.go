package coupon

import "errors"

var (
	ErrCouponNotFound = errors.New("coupon not found")
	ErrDuplicateCode  = errors.New("coupon code already exists")
)
