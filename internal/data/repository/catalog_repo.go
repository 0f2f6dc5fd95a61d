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

// Read models owned by the listing, promotion and identity services.

type PropertyRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Property, error)
}

type CouponRepository interface {
	FindByCode(ctx context.Context, code string) (*entity.Coupon, error)
	// IncrementUsage bumps the usage counter unless the limit is reached.
	// It reports whether a use was recorded.
	IncrementUsage(ctx context.Context, id uuid.UUID) (bool, error)
}

type PointsConfigRepository interface {
	FindSlotForAmount(ctx context.Context, amount float64) (*entity.PointsSlot, error)
	GetSettings(ctx context.Context) (*entity.PointsSettings, error)
}

type ContactRepository interface {
	FindEmailByUserID(ctx context.Context, userID uuid.UUID) (string, error)
}

type propertyRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewPropertyRepository(db database.PgxIface, log *zap.Logger) PropertyRepository {
	return &propertyRepository{
		db:  db,
		log: log.With(zap.String("repository", "property")),
	}
}

func (r *propertyRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Property, error) {
	query := `
		SELECT id, owner_id, base_price, cleaning_fee, security_deposit, extra_guest_fee,
		       max_guests, minimum_stay, commission_rate, is_active
		FROM properties
		WHERE id = $1
	`

	var p entity.Property
	err := database.Conn(ctx, r.db).QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.OwnerID,
		&p.BasePrice,
		&p.CleaningFee,
		&p.SecurityDeposit,
		&p.ExtraGuestFee,
		&p.MaxGuests,
		&p.MinimumStay,
		&p.CommissionRate,
		&p.IsActive,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find property by ID",
			zap.Error(err),
			zap.String("property_id", id.String()),
		)
		return nil, fmt.Errorf("find property by ID %s: %w", id.String(), err)
	}

	return &p, nil
}

type couponRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewCouponRepository(db database.PgxIface, log *zap.Logger) CouponRepository {
	return &couponRepository{
		db:  db,
		log: log.With(zap.String("repository", "coupon")),
	}
}

func (r *couponRepository) FindByCode(ctx context.Context, code string) (*entity.Coupon, error) {
	query := `
		SELECT id, code, discount_type, discount_value, max_discount, minimum_amount,
		       usage_limit, used_count, valid_from, valid_until, is_active
		FROM coupons
		WHERE code = $1
	`

	var c entity.Coupon
	err := database.Conn(ctx, r.db).QueryRow(ctx, query, code).Scan(
		&c.ID,
		&c.Code,
		&c.DiscountType,
		&c.DiscountValue,
		&c.MaxDiscount,
		&c.MinimumAmount,
		&c.UsageLimit,
		&c.UsedCount,
		&c.ValidFrom,
		&c.ValidUntil,
		&c.IsActive,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find coupon by code",
			zap.Error(err),
			zap.String("code", code),
		)
		return nil, fmt.Errorf("find coupon by code %s: %w", code, err)
	}

	return &c, nil
}

func (r *couponRepository) IncrementUsage(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE coupons
		SET used_count = used_count + 1
		WHERE id = $1 AND (usage_limit = 0 OR used_count < usage_limit)
	`

	result, err := database.Conn(ctx, r.db).Exec(ctx, query, id)
	if err != nil {
		r.log.Error("Failed to increment coupon usage",
			zap.Error(err),
			zap.String("coupon_id", id.String()),
		)
		return false, fmt.Errorf("increment coupon %s usage: %w", id.String(), err)
	}

	return result.RowsAffected() > 0, nil
}

type pointsConfigRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewPointsConfigRepository(db database.PgxIface, log *zap.Logger) PointsConfigRepository {
	return &pointsConfigRepository{
		db:  db,
		log: log.With(zap.String("repository", "points_config")),
	}
}

func (r *pointsConfigRepository) FindSlotForAmount(ctx context.Context, amount float64) (*entity.PointsSlot, error) {
	query := `
		SELECT id, min_amount, max_amount, points_per_thousand, is_active
		FROM points_slots
		WHERE is_active AND min_amount <= $1 AND (max_amount = 0 OR max_amount >= $1)
		ORDER BY min_amount DESC
		LIMIT 1
	`

	var s entity.PointsSlot
	err := database.Conn(ctx, r.db).QueryRow(ctx, query, amount).Scan(
		&s.ID,
		&s.MinAmount,
		&s.MaxAmount,
		&s.PointsPerThousand,
		&s.IsActive,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find points slot",
			zap.Error(err),
			zap.Float64("amount", amount),
		)
		return nil, fmt.Errorf("find points slot for %.2f: %w", amount, err)
	}

	return &s, nil
}

func (r *pointsConfigRepository) GetSettings(ctx context.Context) (*entity.PointsSettings, error) {
	query := `
		SELECT points_per_taka, min_points_to_redeem, max_points_per_booking, is_active
		FROM points_settings
		WHERE id = 1
	`

	var s entity.PointsSettings
	err := database.Conn(ctx, r.db).QueryRow(ctx, query).Scan(
		&s.PointsPerTaka,
		&s.MinPointsToRedeem,
		&s.MaxPointsPerBooking,
		&s.IsActive,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to load points settings", zap.Error(err))
		return nil, fmt.Errorf("load points settings: %w", err)
	}

	return &s, nil
}

type contactRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewContactRepository(db database.PgxIface, log *zap.Logger) ContactRepository {
	return &contactRepository{
		db:  db,
		log: log.With(zap.String("repository", "contact")),
	}
}

func (r *contactRepository) FindEmailByUserID(ctx context.Context, userID uuid.UUID) (string, error) {
	var email string
	err := database.Conn(ctx, r.db).QueryRow(ctx, `SELECT email FROM user_contacts WHERE user_id = $1`, userID).Scan(&email)

	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		r.log.Error("Failed to find contact email",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return "", fmt.Errorf("find email for user %s: %w", userID.String(), err)
	}

	return email, nil
}
