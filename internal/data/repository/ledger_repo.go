package repository

import (
	"context"
	"fmt"
	"time"

	"rental-booking/internal/data/entity"
	"rental-booking/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LedgerRepository is append-only apart from moving pending entries.
type LedgerRepository interface {
	Create(ctx context.Context, entry *entity.LedgerEntry) error
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.LedgerEntry, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status entity.LedgerStatus, now time.Time) error
	CancelPendingByBookingID(ctx context.Context, bookingID uuid.UUID, now time.Time) (int64, error)
}

type ledgerRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewLedgerRepository(db database.PgxIface, log *zap.Logger) LedgerRepository {
	return &ledgerRepository{
		db:  db,
		log: log.With(zap.String("repository", "ledger")),
	}
}

func (r *ledgerRepository) Create(ctx context.Context, entry *entity.LedgerEntry) error {
	query := `
		INSERT INTO ledger_entries (id, booking_id, kind, amount, status, reference, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := database.Conn(ctx, r.db).Exec(ctx, query,
		entry.ID,
		entry.BookingID,
		entry.Kind,
		entry.Amount,
		entry.Status,
		entry.Reference,
		entry.CreatedAt,
		entry.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create ledger entry",
			zap.Error(err),
			zap.String("booking_id", entry.BookingID.String()),
			zap.String("kind", string(entry.Kind)),
		)
		return fmt.Errorf("create %s entry for booking %s: %w", entry.Kind, entry.BookingID.String(), err)
	}

	return nil
}

func (r *ledgerRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.LedgerEntry, error) {
	query := `
		SELECT id, booking_id, kind, amount, status, reference, created_at, updated_at
		FROM ledger_entries
		WHERE booking_id = $1
		ORDER BY created_at, seq
	`

	rows, err := database.Conn(ctx, r.db).Query(ctx, query, bookingID)
	if err != nil {
		r.log.Error("Failed to find ledger entries",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return nil, fmt.Errorf("find ledger entries for booking %s: %w", bookingID.String(), err)
	}
	defer rows.Close()

	var entries []*entity.LedgerEntry
	for rows.Next() {
		var e entity.LedgerEntry
		err := rows.Scan(
			&e.ID,
			&e.BookingID,
			&e.Kind,
			&e.Amount,
			&e.Status,
			&e.Reference,
			&e.CreatedAt,
			&e.UpdatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan ledger entry row", zap.Error(err))
			return nil, fmt.Errorf("scan ledger entry row: %w", err)
		}
		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger entry rows: %w", err)
	}

	return entries, nil
}

func (r *ledgerRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.LedgerStatus, now time.Time) error {
	query := `UPDATE ledger_entries SET status = $2, updated_at = $3 WHERE id = $1 AND status = 'pending'`

	result, err := database.Conn(ctx, r.db).Exec(ctx, query, id, status, now)
	if err != nil {
		r.log.Error("Failed to update ledger entry status",
			zap.Error(err),
			zap.String("entry_id", id.String()),
			zap.String("status", string(status)),
		)
		return fmt.Errorf("update ledger entry %s status to %s: %w", id.String(), status, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("update ledger entry %s: %w", id.String(), ErrEntryNotPending)
	}

	return nil
}

func (r *ledgerRepository) CancelPendingByBookingID(ctx context.Context, bookingID uuid.UUID, now time.Time) (int64, error) {
	query := `
		UPDATE ledger_entries
		SET status = 'cancelled', updated_at = $2
		WHERE booking_id = $1 AND status = 'pending' AND kind <> 'refund'
	`

	result, err := database.Conn(ctx, r.db).Exec(ctx, query, bookingID, now)
	if err != nil {
		r.log.Error("Failed to cancel pending ledger entries",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return 0, fmt.Errorf("cancel pending entries for booking %s: %w", bookingID.String(), err)
	}

	return result.RowsAffected(), nil
}
