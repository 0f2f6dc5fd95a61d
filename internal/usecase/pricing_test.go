package usecase

import (
	"testing"
	"time"

	"rental-booking/internal/data/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestPrice_TwoNightStay(t *testing.T) {
	property := &entity.Property{BasePrice: 1000, CleaningFee: 200}

	p := Price(property, 2, 1, nil, 10, time.Now())

	assert.Equal(t, 2200.0, p.Subtotal)
	assert.Equal(t, 200.0, p.ServiceFee)
	assert.Equal(t, 300.0, p.TaxAmount)
	assert.Equal(t, 2700.0, p.Total)
	assert.Equal(t, 2700.0, p.FinalTotal)
	assert.Zero(t, p.DiscountAmount)
	assert.Equal(t, 10.0, p.CommissionRate)
	assert.Equal(t, 270.0, p.CommissionAmount)
	assert.Equal(t, 2430.0, p.OwnerEarnings)
}

func TestPrice_FeesAndExtraGuests(t *testing.T) {
	property := &entity.Property{
		BasePrice:       1500,
		CleaningFee:     300,
		SecurityDeposit: 1000,
		ExtraGuestFee:   250,
		CommissionRate:  12.5,
	}

	p := Price(property, 3, 3, nil, 10, time.Now())

	// 4500 lodging + 300 + 1000 + 2 extra guests * 250
	assert.Equal(t, 6300.0, p.Subtotal)
	assert.Equal(t, 450.0, p.ServiceFee)
	assert.Equal(t, 675.0, p.TaxAmount)
	assert.Equal(t, 7425.0, p.Total)
	assert.Equal(t, 12.5, p.CommissionRate)
	assert.Equal(t, 928.13, p.CommissionAmount)
	assert.Equal(t, 6496.87, p.OwnerEarnings)
}

func TestPrice_Coupons(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	property := &entity.Property{BasePrice: 1000, CleaningFee: 200}

	valid := func(mutate func(*entity.Coupon)) *entity.Coupon {
		c := &entity.Coupon{
			ID:            uuid.New(),
			Code:          "SPRING",
			DiscountType:  entity.DiscountTypePercentage,
			DiscountValue: 10,
			ValidFrom:     now.AddDate(0, 0, -1),
			ValidUntil:    now.AddDate(0, 0, 30),
			IsActive:      true,
		}
		if mutate != nil {
			mutate(c)
		}
		return c
	}

	tests := []struct {
		name         string
		coupon       *entity.Coupon
		wantDiscount float64
		wantRejected string
	}{
		{
			name:         "percentage",
			coupon:       valid(nil),
			wantDiscount: 270,
		},
		{
			name:         "percentage capped",
			coupon:       valid(func(c *entity.Coupon) { c.MaxDiscount = 150 }),
			wantDiscount: 150,
		},
		{
			name: "fixed",
			coupon: valid(func(c *entity.Coupon) {
				c.DiscountType = entity.DiscountTypeFixed
				c.DiscountValue = 500
			}),
			wantDiscount: 500,
		},
		{
			name:         "inactive",
			coupon:       valid(func(c *entity.Coupon) { c.IsActive = false }),
			wantRejected: "coupon is not active",
		},
		{
			name:         "not started",
			coupon:       valid(func(c *entity.Coupon) { c.ValidFrom = now.Add(time.Hour) }),
			wantRejected: "coupon is not yet valid",
		},
		{
			name:         "expired",
			coupon:       valid(func(c *entity.Coupon) { c.ValidUntil = now.Add(-time.Hour) }),
			wantRejected: "coupon has expired",
		},
		{
			name: "usage exhausted",
			coupon: valid(func(c *entity.Coupon) {
				c.UsageLimit = 5
				c.UsedCount = 5
			}),
			wantRejected: "coupon usage limit reached",
		},
		{
			name:         "below minimum",
			coupon:       valid(func(c *entity.Coupon) { c.MinimumAmount = 5000 }),
			wantRejected: "booking total is below the coupon minimum",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Price(property, 2, 1, tt.coupon, 10, now)

			assert.Equal(t, tt.coupon.Code, p.CouponCode)
			assert.Equal(t, tt.wantRejected, p.CouponRejected)
			assert.Equal(t, tt.wantDiscount, p.DiscountAmount)
			assert.Equal(t, 2700-tt.wantDiscount, p.FinalTotal)
			if tt.wantRejected != "" {
				assert.Nil(t, p.CouponID)
			} else {
				assert.Equal(t, tt.coupon.ID, *p.CouponID)
			}
		})
	}
}

func TestPrice_FixedCouponNeverGoesNegative(t *testing.T) {
	now := time.Now()
	property := &entity.Property{BasePrice: 100}
	coupon := &entity.Coupon{
		Code:          "BIG",
		DiscountType:  entity.DiscountTypeFixed,
		DiscountValue: 1000,
		ValidFrom:     now.Add(-time.Hour),
		ValidUntil:    now.Add(time.Hour),
		IsActive:      true,
	}

	p := Price(property, 1, 1, coupon, 10, now)

	assert.Equal(t, 125.0, p.Total)
	assert.Equal(t, 0.0, p.FinalTotal)
	assert.Equal(t, 0.0, p.CommissionAmount)
	assert.Equal(t, 0.0, p.OwnerEarnings)
}
