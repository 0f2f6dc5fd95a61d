package request

type CreateBookingRequest struct {
	PropertyID string `json:"property_id" validate:"required,uuid"`
	CheckIn    string `json:"check_in" validate:"required,datetime=2006-01-02"`
	CheckOut   string `json:"check_out" validate:"required,datetime=2006-01-02"`
	GuestCount int    `json:"guest_count" validate:"required,min=1,max=50"`
	CouponCode string `json:"coupon_code,omitempty" validate:"omitempty,max=64"`
}

type RecordPaymentRequest struct {
	Method         string   `json:"method" validate:"required,max=32"`
	PointsToRedeem int64    `json:"points_to_redeem" validate:"gte=0"`
	Amount         *float64 `json:"amount,omitempty" validate:"omitempty,gte=0"`
	TransactionRef *string  `json:"transaction_ref,omitempty" validate:"omitempty,max=128"`
}

type CancelBookingRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type AvailabilityRequest struct {
	CheckIn  string `validate:"required,datetime=2006-01-02"`
	CheckOut string `validate:"required,datetime=2006-01-02"`
}
