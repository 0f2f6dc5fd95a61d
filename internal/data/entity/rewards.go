package entity

import (
	"time"

	"github.com/google/uuid"
)

type RewardsAccount struct {
	UserID         uuid.UUID `db:"user_id"`
	CurrentBalance int64     `db:"current_balance"`
	TotalEarned    int64     `db:"total_earned"`
	LifetimeSpent  int64     `db:"lifetime_spent"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

type RewardsTransactionType string

const (
	RewardsTransactionEarned   RewardsTransactionType = "earned"
	RewardsTransactionRedeemed RewardsTransactionType = "redeemed"
	RewardsTransactionAdjusted RewardsTransactionType = "adjusted"
)

// RewardsTransaction is one append-only wallet movement. Points are signed.
type RewardsTransaction struct {
	BaseSimple
	UserID       uuid.UUID              `db:"user_id"`
	Type         RewardsTransactionType `db:"type"`
	Points       int64                  `db:"points"`
	BalanceAfter int64                  `db:"balance_after"`
	BookingID    *uuid.UUID             `db:"booking_id"`
	Description  string                 `db:"description"`
}
