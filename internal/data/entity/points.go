package entity

import "github.com/google/uuid"

// PointsSlot maps a paid amount band to an earn rate.
type PointsSlot struct {
	ID                uuid.UUID `db:"id"`
	MinAmount         float64   `db:"min_amount"`
	MaxAmount         float64   `db:"max_amount"` // 0 = open-ended
	PointsPerThousand float64   `db:"points_per_thousand"`
	IsActive          bool      `db:"is_active"`
}

// Contains reports whether amount falls within [MinAmount, MaxAmount].
func (s *PointsSlot) Contains(amount float64) bool {
	if amount < s.MinAmount {
		return false
	}
	return s.MaxAmount == 0 || amount <= s.MaxAmount
}

type PointsSettings struct {
	PointsPerTaka       float64 `db:"points_per_taka"`
	MinPointsToRedeem   int64   `db:"min_points_to_redeem"`
	MaxPointsPerBooking int64   `db:"max_points_per_booking"`
	IsActive            bool    `db:"is_active"`
}
