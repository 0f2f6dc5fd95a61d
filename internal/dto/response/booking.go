package response

import (
	"time"

	"rental-booking/internal/data/entity"
	"rental-booking/pkg/utils"
)

type BookingResponse struct {
	ID                 string               `json:"id"`
	Reference          string               `json:"reference"`
	PropertyID         string               `json:"property_id"`
	GuestID            string               `json:"guest_id"`
	OwnerID            string               `json:"owner_id"`
	CheckIn            string               `json:"check_in"`
	CheckOut           string               `json:"check_out"`
	Nights             int                  `json:"nights"`
	GuestCount         int                  `json:"guest_count"`
	Status             entity.BookingStatus `json:"status"`
	PaymentStatus      entity.PaymentStatus `json:"payment_status"`
	PaymentMethod      *string              `json:"payment_method,omitempty"`
	ResponseDeadline   *time.Time           `json:"response_deadline,omitempty"`
	AcceptedAt         *time.Time           `json:"accepted_at,omitempty"`
	PaymentDeadline    *time.Time           `json:"payment_deadline,omitempty"`
	TotalAmount        float64              `json:"total_amount"`
	DiscountAmount     float64              `json:"discount_amount"`
	CommissionRate     float64              `json:"commission_rate"`
	CommissionAmount   float64              `json:"commission_amount"`
	OwnerEarnings      float64              `json:"owner_earnings"`
	PointsRedeemed     int64                `json:"points_redeemed"`
	PointsDiscount     float64              `json:"points_discount"`
	CancellationReason *string              `json:"cancellation_reason,omitempty"`
	CancelledAt        *time.Time           `json:"cancelled_at,omitempty"`
	CreatedAt          time.Time            `json:"created_at"`
}

type PricingResponse struct {
	Nights           int     `json:"nights"`
	NightlyRate      float64 `json:"nightly_rate"`
	Subtotal         float64 `json:"subtotal"`
	ServiceFee       float64 `json:"service_fee"`
	TaxAmount        float64 `json:"tax_amount"`
	Total            float64 `json:"total"`
	DiscountAmount   float64 `json:"discount_amount"`
	FinalTotal       float64 `json:"final_total"`
	CommissionRate   float64 `json:"commission_rate"`
	CommissionAmount float64 `json:"commission_amount"`
	OwnerEarnings    float64 `json:"owner_earnings"`
	CouponCode       string  `json:"coupon_code,omitempty"`
	CouponRejected   string  `json:"coupon_rejected,omitempty"`
}

type CreateBookingResponse struct {
	Booking BookingResponse `json:"booking"`
	Pricing PricingResponse `json:"pricing"`
}

type QuoteResponse struct {
	Available bool            `json:"available"`
	Pricing   PricingResponse `json:"pricing"`
}

type AvailabilityResponse struct {
	PropertyID string `json:"property_id"`
	CheckIn    string `json:"check_in"`
	CheckOut   string `json:"check_out"`
	Available  bool   `json:"available"`
}

type LedgerEntryResponse struct {
	ID        string              `json:"id"`
	Kind      entity.LedgerKind   `json:"kind"`
	Amount    float64             `json:"amount"`
	Status    entity.LedgerStatus `json:"status"`
	Reference string              `json:"reference"`
	CreatedAt time.Time           `json:"created_at"`
}

type SettlementResponse struct {
	BookingID string                `json:"booking_id"`
	Debits    float64               `json:"debits"`
	Credits   float64               `json:"credits"`
	Balance   float64               `json:"balance"`
	Refunds   float64               `json:"refunds"`
	Entries   []LedgerEntryResponse `json:"entries"`
}

// Helper converters
func BookingToResponse(b *entity.Booking) BookingResponse {
	return BookingResponse{
		ID:                 b.ID.String(),
		Reference:          b.Reference,
		PropertyID:         b.PropertyID.String(),
		GuestID:            b.GuestID.String(),
		OwnerID:            b.OwnerID.String(),
		CheckIn:            b.CheckInDate.Format(utils.DateLayout),
		CheckOut:           b.CheckOutDate.Format(utils.DateLayout),
		Nights:             b.Nights(),
		GuestCount:         b.GuestCount,
		Status:             b.Status,
		PaymentStatus:      b.PaymentStatus,
		PaymentMethod:      b.PaymentMethod,
		ResponseDeadline:   b.ResponseDeadline,
		AcceptedAt:         b.AcceptedAt,
		PaymentDeadline:    b.PaymentDeadline,
		TotalAmount:        b.TotalAmount,
		DiscountAmount:     b.DiscountAmount,
		CommissionRate:     b.CommissionRate,
		CommissionAmount:   b.CommissionAmount,
		OwnerEarnings:      b.OwnerEarnings,
		PointsRedeemed:     b.PointsRedeemed,
		PointsDiscount:     b.PointsDiscount,
		CancellationReason: b.CancellationReason,
		CancelledAt:        b.CancelledAt,
		CreatedAt:          b.CreatedAt,
	}
}

func LedgerEntryToResponse(e *entity.LedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
		ID:        e.ID.String(),
		Kind:      e.Kind,
		Amount:    e.Amount,
		Status:    e.Status,
		Reference: e.Reference,
		CreatedAt: e.CreatedAt,
	}
}
