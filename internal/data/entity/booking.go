package entity

import (
	"bytes"
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending    BookingStatus = "pending"
	BookingStatusAccepted   BookingStatus = "accepted"
	BookingStatusConfirmed  BookingStatus = "confirmed"
	BookingStatusCheckedIn  BookingStatus = "checked_in"
	BookingStatusCheckedOut BookingStatus = "checked_out"
	BookingStatusCancelled  BookingStatus = "cancelled"
)

// IsTerminal reports whether no further transition can leave the status.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusCheckedOut || s == BookingStatusCancelled
}

// Commits reports whether the status blocks the calendar unconditionally.
func (s BookingStatus) Commits() bool {
	switch s {
	case BookingStatusAccepted, BookingStatusConfirmed, BookingStatusCheckedIn:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusUnpaid   PaymentStatus = "unpaid"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

type Booking struct {
	Base
	Reference          string        `db:"reference"`
	PropertyID         uuid.UUID     `db:"property_id"`
	GuestID            uuid.UUID     `db:"guest_id"`
	OwnerID            uuid.UUID     `db:"owner_id"`
	CheckInDate        time.Time     `db:"check_in_date"`
	CheckOutDate       time.Time     `db:"check_out_date"`
	GuestCount         int           `db:"guest_count"`
	Status             BookingStatus `db:"status"`
	PaymentStatus      PaymentStatus `db:"payment_status"`
	PaymentMethod      *string       `db:"payment_method"`
	ResponseDeadline   *time.Time    `db:"response_deadline"`
	AcceptedAt         *time.Time    `db:"accepted_at"`
	PaymentDeadline    *time.Time    `db:"payment_deadline"`
	TotalAmount        float64       `db:"total_amount"`
	DiscountAmount     float64       `db:"discount_amount"`
	CouponID           *uuid.UUID    `db:"coupon_id"`
	CommissionRate     float64       `db:"commission_rate"`
	CommissionAmount   float64       `db:"commission_amount"`
	OwnerEarnings      float64       `db:"owner_earnings"`
	PointsRedeemed     int64         `db:"points_redeemed"`
	PointsDiscount     float64       `db:"points_discount"`
	CancellationReason *string       `db:"cancellation_reason"`
	CancelledAt        *time.Time    `db:"cancelled_at"`
}

// Nights is the length of the half-open stay [CheckInDate, CheckOutDate).
func (b *Booking) Nights() int {
	return int(b.CheckOutDate.Sub(b.CheckInDate).Hours() / 24)
}

// Overlaps reports whether the stay intersects [checkIn, checkOut).
func (b *Booking) Overlaps(checkIn, checkOut time.Time) bool {
	return b.CheckInDate.Before(checkOut) && b.CheckOutDate.After(checkIn)
}

// HoldsCalendar reports whether the booking blocks its dates at now. A
// committed booking always does. A pending one does while the owner's
// response window or the granted payment window is still open.
func (b *Booking) HoldsCalendar(now time.Time) bool {
	if b.Status.Commits() {
		return true
	}
	if b.Status != BookingStatusPending {
		return false
	}
	if b.AcceptedAt != nil {
		return b.PaymentDeadline != nil && b.PaymentDeadline.After(now)
	}
	return b.ResponseDeadline != nil && b.ResponseDeadline.After(now)
}

// HoldLapsed reports whether an unpaid hold has reached its deadline:
// the payment deadline once accepted, the response deadline before that.
func (b *Booking) HoldLapsed(now time.Time) bool {
	if b.Status != BookingStatusPending && b.Status != BookingStatusAccepted {
		return false
	}
	if b.PaymentStatus != PaymentStatusUnpaid {
		return false
	}
	if deadline := b.HoldDeadline(); deadline != nil {
		return !deadline.After(now)
	}
	return false
}

// HoldDeadline is the deadline currently governing an open booking.
func (b *Booking) HoldDeadline() *time.Time {
	if b.AcceptedAt != nil {
		return b.PaymentDeadline
	}
	if b.Status == BookingStatusPending {
		return b.ResponseDeadline
	}
	return nil
}

// HoldCursor is a position in the (deadline, id) order the sweeper pages
// lapsed holds in.
type HoldCursor struct {
	Deadline time.Time
	ID       uuid.UUID
}

// Before orders cursors by deadline, then by id bytes.
func (c HoldCursor) Before(o HoldCursor) bool {
	if !c.Deadline.Equal(o.Deadline) {
		return c.Deadline.Before(o.Deadline)
	}
	return bytes.Compare(c.ID[:], o.ID[:]) < 0
}

// HoldCursor returns b's position, or nil when no deadline governs b.
func (b *Booking) HoldCursor() *HoldCursor {
	deadline := b.HoldDeadline()
	if deadline == nil {
		return nil
	}
	return &HoldCursor{Deadline: *deadline, ID: b.ID}
}
