package entity

import (
	"time"

	"github.com/google/uuid"
)

type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
)

type Coupon struct {
	ID            uuid.UUID    `db:"id"`
	Code          string       `db:"code"`
	DiscountType  DiscountType `db:"discount_type"`
	DiscountValue float64      `db:"discount_value"`
	MaxDiscount   float64      `db:"max_discount"` // 0 = uncapped
	MinimumAmount float64      `db:"minimum_amount"`
	UsageLimit    int          `db:"usage_limit"` // 0 = unlimited
	UsedCount     int          `db:"used_count"`
	ValidFrom     time.Time    `db:"valid_from"`
	ValidUntil    time.Time    `db:"valid_until"`
	IsActive      bool         `db:"is_active"`
}
