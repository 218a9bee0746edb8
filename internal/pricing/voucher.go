package pricing

import (
	"time"

	"restoran-web/internal/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Result is the outcome of applying a voucher to a basket.
type Result struct {
	Discount    decimal.Decimal
	DeliveryFee decimal.Decimal
	FreeShip    bool
}

// Applied reports whether the voucher changed anything.
func (r Result) Applied() bool {
	return r.FreeShip || r.Discount.IsPositive()
}

// Round2 quantizes to cents with banker's rounding (half to even).
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(2)
}

// ApplyVoucher computes the discount and effective delivery fee. A nil,
// inactive, out-of-window, exhausted or under-min-spend voucher leaves the
// basket unchanged.
func ApplyVoucher(v *models.Voucher, subtotal, deliveryFee decimal.Decimal, now time.Time) Result {
	res := Result{Discount: decimal.Zero, DeliveryFee: deliveryFee}
	if v == nil || !v.Active {
		return res
	}
	if v.StartAt != nil && v.StartAt.After(now) {
		return res
	}
	if v.EndAt != nil && v.EndAt.Before(now) {
		return res
	}
	if v.Exhausted() {
		return res
	}
	if subtotal.LessThan(v.MinSpend) {
		return res
	}

	switch v.DiscountType {
	case models.DiscountPercent:
		res.Discount = Round2(subtotal.Mul(v.Amount).Div(hundred))
	case models.DiscountFixed:
		res.Discount = v.Amount
	case models.DiscountFreeShip:
		res.FreeShip = true
	}

	if v.MaxDiscount.IsPositive() && res.Discount.GreaterThan(v.MaxDiscount) {
		res.Discount = v.MaxDiscount
	}
	if res.FreeShip {
		res.DeliveryFee = decimal.Zero
	}
	if res.Discount.IsNegative() {
		res.Discount = decimal.Zero
	}
	return res
}

// OrderTotal is subtotal - discount + delivery fee, rounded to cents.
func OrderTotal(subtotal, discount, deliveryFee decimal.Decimal) decimal.Decimal {
	return Round2(subtotal.Sub(discount).Add(deliveryFee))
}

// Money formats an amount the way the JSON API reports it, e.g. "50.00".
func Money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
