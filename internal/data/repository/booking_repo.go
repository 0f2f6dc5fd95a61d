package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rental-booking/internal/data/entity"
	"rental-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *entity.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindByReference(ctx context.Context, reference string) (*entity.Booking, error)
	FindByGuestID(ctx context.Context, guestID uuid.UUID, limit, offset int) ([]*entity.Booking, error)
	CountByGuestID(ctx context.Context, guestID uuid.UUID) (int64, error)
	Update(ctx context.Context, booking *entity.Booking) error

	// Conflict queries
	LockProperty(ctx context.Context, propertyID uuid.UUID) error
	FindActiveOverlapping(ctx context.Context, propertyID uuid.UUID, checkIn, checkOut, now time.Time, excludeID uuid.UUID) ([]*entity.Booking, error)
	FindExpiredHolds(ctx context.Context, now time.Time, after *entity.HoldCursor, limit int) ([]*entity.Booking, error)
}

const bookingColumns = `id, reference, property_id, guest_id, owner_id, check_in_date, check_out_date,
		guest_count, status, payment_status, payment_method, response_deadline, accepted_at, payment_deadline,
		total_amount, discount_amount, coupon_id, commission_rate, commission_amount, owner_earnings,
		points_redeemed, points_discount, cancellation_reason, cancelled_at, created_at, updated_at`

type bookingRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewBookingRepository(db database.PgxIface, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

func scanBooking(row pgx.Row) (*entity.Booking, error) {
	var b entity.Booking
	err := row.Scan(
		&b.ID,
		&b.Reference,
		&b.PropertyID,
		&b.GuestID,
		&b.OwnerID,
		&b.CheckInDate,
		&b.CheckOutDate,
		&b.GuestCount,
		&b.Status,
		&b.PaymentStatus,
		&b.PaymentMethod,
		&b.ResponseDeadline,
		&b.AcceptedAt,
		&b.PaymentDeadline,
		&b.TotalAmount,
		&b.DiscountAmount,
		&b.CouponID,
		&b.CommissionRate,
		&b.CommissionAmount,
		&b.OwnerEarnings,
		&b.PointsRedeemed,
		&b.PointsDiscount,
		&b.CancellationReason,
		&b.CancelledAt,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *bookingRepository) Create(ctx context.Context, booking *entity.Booking) error {
	query := `
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
		        $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26)
	`

	_, err := database.Conn(ctx, r.db).Exec(ctx, query,
		booking.ID,
		booking.Reference,
		booking.PropertyID,
		booking.GuestID,
		booking.OwnerID,
		booking.CheckInDate,
		booking.CheckOutDate,
		booking.GuestCount,
		booking.Status,
		booking.PaymentStatus,
		booking.PaymentMethod,
		booking.ResponseDeadline,
		booking.AcceptedAt,
		booking.PaymentDeadline,
		booking.TotalAmount,
		booking.DiscountAmount,
		booking.CouponID,
		booking.CommissionRate,
		booking.CommissionAmount,
		booking.OwnerEarnings,
		booking.PointsRedeemed,
		booking.PointsDiscount,
		booking.CancellationReason,
		booking.CancelledAt,
		booking.CreatedAt,
		booking.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create booking",
			zap.Error(err),
			zap.String("reference", booking.Reference),
			zap.String("property_id", booking.PropertyID.String()),
		)
		return fmt.Errorf("create booking %s: %w", booking.Reference, err)
	}

	return nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	return r.findOne(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id.String(), id)
}

// FindByIDForUpdate locks the booking row until the surrounding
// transaction ends.
func (r *bookingRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	if !database.InTx(ctx) {
		return nil, fmt.Errorf("lock booking %s: no transaction in context", id.String())
	}
	return r.findOne(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, id.String(), id)
}

func (r *bookingRepository) FindByReference(ctx context.Context, reference string) (*entity.Booking, error) {
	return r.findOne(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE reference = $1`, reference, reference)
}

func (r *bookingRepository) findOne(ctx context.Context, query, key string, arg any) (*entity.Booking, error) {
	booking, err := scanBooking(database.Conn(ctx, r.db).QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking",
			zap.Error(err),
			zap.String("key", key),
		)
		return nil, fmt.Errorf("find booking %s: %w", key, err)
	}

	return booking, nil
}

func (r *bookingRepository) FindByGuestID(ctx context.Context, guestID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE guest_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := database.Conn(ctx, r.db).Query(ctx, query, guestID, limit, offset)
	if err != nil {
		r.log.Error("Failed to find bookings by guest ID",
			zap.Error(err),
			zap.String("guest_id", guestID.String()),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("find bookings by guest ID %s: %w", guestID.String(), err)
	}

	return r.collect(rows)
}

func (r *bookingRepository) CountByGuestID(ctx context.Context, guestID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM bookings WHERE guest_id = $1`

	var count int64
	err := database.Conn(ctx, r.db).QueryRow(ctx, query, guestID).Scan(&count)
	if err != nil {
		r.log.Error("Failed to count bookings by guest ID",
			zap.Error(err),
			zap.String("guest_id", guestID.String()),
		)
		return 0, fmt.Errorf("count bookings by guest ID %s: %w", guestID.String(), err)
	}

	return count, nil
}

func (r *bookingRepository) Update(ctx context.Context, booking *entity.Booking) error {
	query := `
		UPDATE bookings
		SET status = $2, payment_status = $3, payment_method = $4, accepted_at = $5,
		    payment_deadline = $6, total_amount = $7, discount_amount = $8,
		    commission_amount = $9, owner_earnings = $10, points_redeemed = $11,
		    points_discount = $12, cancellation_reason = $13, cancelled_at = $14, updated_at = $15
		WHERE id = $1
	`

	result, err := database.Conn(ctx, r.db).Exec(ctx, query,
		booking.ID,
		booking.Status,
		booking.PaymentStatus,
		booking.PaymentMethod,
		booking.AcceptedAt,
		booking.PaymentDeadline,
		booking.TotalAmount,
		booking.DiscountAmount,
		booking.CommissionAmount,
		booking.OwnerEarnings,
		booking.PointsRedeemed,
		booking.PointsDiscount,
		booking.CancellationReason,
		booking.CancelledAt,
		booking.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to update booking",
			zap.Error(err),
			zap.String("booking_id", booking.ID.String()),
			zap.String("status", string(booking.Status)),
		)
		return fmt.Errorf("update booking %s: %w", booking.ID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("booking %s not found", booking.ID.String())
	}

	return nil
}

// LockProperty serializes calendar writes for one property until the
// surrounding transaction ends.
func (r *bookingRepository) LockProperty(ctx context.Context, propertyID uuid.UUID) error {
	if !database.InTx(ctx) {
		return fmt.Errorf("lock property %s: no transaction in context", propertyID.String())
	}

	_, err := database.Conn(ctx, r.db).Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, propertyID.String())
	if err != nil {
		r.log.Error("Failed to lock property calendar",
			zap.Error(err),
			zap.String("property_id", propertyID.String()),
		)
		return fmt.Errorf("lock property %s: %w", propertyID.String(), err)
	}

	return nil
}

func (r *bookingRepository) FindActiveOverlapping(ctx context.Context, propertyID uuid.UUID, checkIn, checkOut, now time.Time, excludeID uuid.UUID) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE property_id = $1
		  AND check_in_date < $3
		  AND check_out_date > $2
		  AND id <> $5
		  AND (
		      status IN ('accepted', 'confirmed', 'checked_in')
		      OR (status = 'pending' AND accepted_at IS NOT NULL AND payment_deadline > $4)
		      OR (status = 'pending' AND accepted_at IS NULL AND response_deadline > $4)
		  )
		ORDER BY check_in_date
	`

	rows, err := database.Conn(ctx, r.db).Query(ctx, query, propertyID, checkIn, checkOut, now, excludeID)
	if err != nil {
		r.log.Error("Failed to find overlapping bookings",
			zap.Error(err),
			zap.String("property_id", propertyID.String()),
			zap.Time("check_in", checkIn),
			zap.Time("check_out", checkOut),
		)
		return nil, fmt.Errorf("find overlapping bookings for property %s: %w", propertyID.String(), err)
	}

	return r.collect(rows)
}

// FindExpiredHolds returns unpaid open bookings whose governing deadline
// (payment once accepted, owner response before that) is not after now,
// ordered by (deadline, id) and starting past after when it is set.
func (r *bookingRepository) FindExpiredHolds(ctx context.Context, now time.Time, after *entity.HoldCursor, limit int) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE status IN ('pending', 'accepted')
		  AND payment_status = 'unpaid'
		  AND (
		      (accepted_at IS NOT NULL AND payment_deadline <= $1)
		      OR (status = 'pending' AND accepted_at IS NULL AND response_deadline <= $1)
		  )
		  AND NOT EXISTS (
		      SELECT 1 FROM ledger_entries l
		      WHERE l.booking_id = bookings.id
		        AND l.kind = 'guest_payment'
		        AND l.status = 'completed'
		  )
		  AND ($2::timestamptz IS NULL
		       OR (COALESCE(payment_deadline, response_deadline), id) > ($2::timestamptz, $3::uuid))
		ORDER BY COALESCE(payment_deadline, response_deadline), id
		LIMIT $4
	`

	var afterDeadline *time.Time
	afterID := uuid.Nil
	if after != nil {
		afterDeadline = &after.Deadline
		afterID = after.ID
	}

	rows, err := database.Conn(ctx, r.db).Query(ctx, query, now, afterDeadline, afterID, limit)
	if err != nil {
		r.log.Error("Failed to find expired holds", zap.Error(err))
		return nil, fmt.Errorf("find expired holds: %w", err)
	}

	return r.collect(rows)
}

func (r *bookingRepository) collect(rows pgx.Rows) ([]*entity.Booking, error) {
	defer rows.Close()

	var bookings []*entity.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			r.log.Error("Failed to scan booking row", zap.Error(err))
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate booking rows: %w", err)
	}

	return bookings, nil
}
