package entity

import (
	"time"

	"github.com/google/uuid"
)

type EarningsStatus string

const (
	EarningsStatusPending   EarningsStatus = "pending"
	EarningsStatusPaid      EarningsStatus = "paid"
	EarningsStatusCancelled EarningsStatus = "cancelled"
	EarningsStatusRefunded  EarningsStatus = "refunded"
)

// AdminEarnings is the platform commission recorded for one booking.
type AdminEarnings struct {
	Base
	BookingID        uuid.UUID      `db:"booking_id"`
	CommissionRate   float64        `db:"commission_rate"`
	CommissionAmount float64        `db:"commission_amount"`
	OwnerEarnings    float64        `db:"owner_earnings"`
	Status           EarningsStatus `db:"status"`
	PaidAt           *time.Time     `db:"paid_at"`
}
