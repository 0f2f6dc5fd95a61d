package usecase

import (
	"math"
	"time"

	"rental-booking/internal/data/entity"

	"github.com/google/uuid"
)

const (
	serviceFeeRate = 0.10
	taxRate        = 0.15
)

type PricingBreakdown struct {
	Nights           int
	NightlyRate      float64
	Subtotal         float64
	ServiceFee       float64
	TaxAmount        float64
	Total            float64
	DiscountAmount   float64
	FinalTotal       float64
	CommissionRate   float64
	CommissionAmount float64
	OwnerEarnings    float64
	CouponID         *uuid.UUID
	CouponCode       string
	// CouponRejected explains why a supplied coupon was not applied.
	CouponRejected string
}

// Price computes the charges for a stay. It has no side effects; coupon
// usage is only counted once the owner accepts the booking.
func Price(property *entity.Property, nights, guestCount int, coupon *entity.Coupon, defaultCommissionRate float64, now time.Time) PricingBreakdown {
	lodging := property.BasePrice * float64(nights)
	extraGuests := max(0, guestCount-1)

	p := PricingBreakdown{
		Nights:      nights,
		NightlyRate: property.BasePrice,
		Subtotal: roundMoney(lodging + property.CleaningFee + property.SecurityDeposit +
			property.ExtraGuestFee*float64(extraGuests)),
		ServiceFee: roundMoney(lodging * serviceFeeRate),
		TaxAmount:  roundMoney(lodging * taxRate),
	}
	p.Total = roundMoney(p.Subtotal + p.ServiceFee + p.TaxAmount)

	if coupon != nil {
		p.CouponCode = coupon.Code
		if reason := couponRejection(coupon, p.Total, now); reason != "" {
			p.CouponRejected = reason
		} else {
			id := coupon.ID
			p.CouponID = &id
			p.DiscountAmount = couponDiscount(coupon, p.Total)
		}
	}

	p.FinalTotal = roundMoney(math.Max(0, p.Total-p.DiscountAmount))

	p.CommissionRate = property.CommissionRate
	if p.CommissionRate <= 0 {
		p.CommissionRate = defaultCommissionRate
	}
	p.CommissionAmount, p.OwnerEarnings = splitCommission(p.FinalTotal, p.CommissionRate)

	return p
}

// splitCommission divides amount into the platform's cut and the owner's.
func splitCommission(amount, rate float64) (commission, owner float64) {
	commission = roundMoney(amount * rate / 100)
	return commission, roundMoney(amount - commission)
}

func couponRejection(c *entity.Coupon, total float64, now time.Time) string {
	switch {
	case !c.IsActive:
		return "coupon is not active"
	case now.Before(c.ValidFrom):
		return "coupon is not yet valid"
	case now.After(c.ValidUntil):
		return "coupon has expired"
	case c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit:
		return "coupon usage limit reached"
	case total < c.MinimumAmount:
		return "booking total is below the coupon minimum"
	}
	return ""
}

func couponDiscount(c *entity.Coupon, total float64) float64 {
	var discount float64
	switch c.DiscountType {
	case entity.DiscountTypePercentage:
		discount = total * c.DiscountValue / 100
		if c.MaxDiscount > 0 {
			discount = math.Min(discount, c.MaxDiscount)
		}
	case entity.DiscountTypeFixed:
		discount = c.DiscountValue
	}
	return roundMoney(discount)
}

func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

// sameAmount compares money values at cent precision.
func sameAmount(a, b float64) bool {
	return math.Abs(a-b) < 0.005
}
