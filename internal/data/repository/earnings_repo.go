package repository

import (
	"context"
	"errors"
	"fmt"

	"rental-booking/internal/data/entity"
	"rental-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type EarningsRepository interface {
	Create(ctx context.Context, earnings *entity.AdminEarnings) error
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*entity.AdminEarnings, error)
	Update(ctx context.Context, earnings *entity.AdminEarnings) error
}

type earningsRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewEarningsRepository(db database.PgxIface, log *zap.Logger) EarningsRepository {
	return &earningsRepository{
		db:  db,
		log: log.With(zap.String("repository", "earnings")),
	}
}

func (r *earningsRepository) Create(ctx context.Context, earnings *entity.AdminEarnings) error {
	query := `
		INSERT INTO admin_earnings (id, booking_id, commission_rate, commission_amount, owner_earnings, status, paid_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := database.Conn(ctx, r.db).Exec(ctx, query,
		earnings.ID,
		earnings.BookingID,
		earnings.CommissionRate,
		earnings.CommissionAmount,
		earnings.OwnerEarnings,
		earnings.Status,
		earnings.PaidAt,
		earnings.CreatedAt,
		earnings.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create admin earnings",
			zap.Error(err),
			zap.String("booking_id", earnings.BookingID.String()),
		)
		return fmt.Errorf("create earnings for booking %s: %w", earnings.BookingID.String(), err)
	}

	return nil
}

func (r *earningsRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*entity.AdminEarnings, error) {
	query := `
		SELECT id, booking_id, commission_rate, commission_amount, owner_earnings, status, paid_at, created_at, updated_at
		FROM admin_earnings
		WHERE booking_id = $1
	`

	var e entity.AdminEarnings
	err := database.Conn(ctx, r.db).QueryRow(ctx, query, bookingID).Scan(
		&e.ID,
		&e.BookingID,
		&e.CommissionRate,
		&e.CommissionAmount,
		&e.OwnerEarnings,
		&e.Status,
		&e.PaidAt,
		&e.CreatedAt,
		&e.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find admin earnings",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return nil, fmt.Errorf("find earnings for booking %s: %w", bookingID.String(), err)
	}

	return &e, nil
}

func (r *earningsRepository) Update(ctx context.Context, earnings *entity.AdminEarnings) error {
	query := `
		UPDATE admin_earnings
		SET commission_amount = $2, owner_earnings = $3, status = $4, paid_at = $5, updated_at = $6
		WHERE id = $1
	`

	result, err := database.Conn(ctx, r.db).Exec(ctx, query,
		earnings.ID,
		earnings.CommissionAmount,
		earnings.OwnerEarnings,
		earnings.Status,
		earnings.PaidAt,
		earnings.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to update admin earnings",
			zap.Error(err),
			zap.String("earnings_id", earnings.ID.String()),
			zap.String("status", string(earnings.Status)),
		)
		return fmt.Errorf("update earnings %s: %w", earnings.ID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("earnings %s not found", earnings.ID.String())
	}

	return nil
}
