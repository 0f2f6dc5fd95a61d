package entity

import "github.com/google/uuid"

type Property struct {
	ID              uuid.UUID `db:"id"`
	OwnerID         uuid.UUID `db:"owner_id"`
	BasePrice       float64   `db:"base_price"`
	CleaningFee     float64   `db:"cleaning_fee"`
	SecurityDeposit float64   `db:"security_deposit"`
	ExtraGuestFee   float64   `db:"extra_guest_fee"`
	MaxGuests       int       `db:"max_guests"`
	MinimumStay     int       `db:"minimum_stay"`
	CommissionRate  float64   `db:"commission_rate"`
	IsActive        bool      `db:"is_active"`
}
