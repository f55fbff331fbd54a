package domain

import "github.com/shopspring/decimal"

// coupons is the fixed table of recognized coupon codes and their percentage
// discounts.
var coupons = map[string]int64{
	"DISCOUNT10": 10,
	"WELCOME5":   5,
}

// CouponDiscount resolves a coupon code to its discount percentage.
// Unrecognized codes fail with ErrInvalidCoupon; there is no silent no-op.
func CouponDiscount(code string) (decimal.Decimal, error) {
	pct, ok := coupons[code]
	if !ok {
		return decimal.Decimal{}, ErrInvalidCoupon
	}
	return decimal.NewFromInt(pct), nil
}
