package repository

import (
	"context"
	"errors"

	"rental-booking/pkg/database"

	"go.uber.org/zap"
)

// ErrEntryNotPending is returned when a ledger entry is moved out of a
// status other than pending. Completed and cancelled entries are immutable.
var ErrEntryNotPending = errors.New("ledger entry is not pending")

// Transactor runs fn as one atomic unit of work. Repository calls made with
// the ctx handed to fn take part in the same transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Repository struct {
	Tx         Transactor
	Booking    BookingRepository
	Ledger     LedgerRepository
	Earnings   EarningsRepository
	Rewards    RewardsRepository
	Property   PropertyRepository
	Coupon     CouponRepository
	PointsConf PointsConfigRepository
	Contact    ContactRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		Tx:         database.NewTxRunner(db, log),
		Booking:    NewBookingRepository(db, log),
		Ledger:     NewLedgerRepository(db, log),
		Earnings:   NewEarningsRepository(db, log),
		Rewards:    NewRewardsRepository(db, log),
		Property:   NewPropertyRepository(db, log),
		Coupon:     NewCouponRepository(db, log),
		PointsConf: NewPointsConfigRepository(db, log),
		Contact:    NewContactRepository(db, log),
	}
}
