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

type RewardsRepository interface {
	FindAccount(ctx context.Context, userID uuid.UUID) (*entity.RewardsAccount, error)
	GetOrCreateAccountForUpdate(ctx context.Context, userID uuid.UUID, now time.Time) (*entity.RewardsAccount, error)
	UpdateAccount(ctx context.Context, account *entity.RewardsAccount) error

	CreateTransaction(ctx context.Context, txn *entity.RewardsTransaction) error
	FindTransactions(ctx context.Context, userID uuid.UUID) ([]*entity.RewardsTransaction, error)
	FindTransactionsByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.RewardsTransaction, error)
}

const rewardsTransactionColumns = `id, user_id, type, points, balance_after, booking_id, description, created_at`

type rewardsRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewRewardsRepository(db database.PgxIface, log *zap.Logger) RewardsRepository {
	return &rewardsRepository{
		db:  db,
		log: log.With(zap.String("repository", "rewards")),
	}
}

func scanAccount(row pgx.Row) (*entity.RewardsAccount, error) {
	var a entity.RewardsAccount
	err := row.Scan(
		&a.UserID,
		&a.CurrentBalance,
		&a.TotalEarned,
		&a.LifetimeSpent,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *rewardsRepository) FindAccount(ctx context.Context, userID uuid.UUID) (*entity.RewardsAccount, error) {
	query := `
		SELECT user_id, current_balance, total_earned, lifetime_spent, created_at, updated_at
		FROM rewards_accounts
		WHERE user_id = $1
	`

	account, err := scanAccount(database.Conn(ctx, r.db).QueryRow(ctx, query, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find rewards account",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return nil, fmt.Errorf("find rewards account %s: %w", userID.String(), err)
	}

	return account, nil
}

// GetOrCreateAccountForUpdate returns the wallet row locked for the rest of
// the surrounding transaction, creating an empty one on first use.
func (r *rewardsRepository) GetOrCreateAccountForUpdate(ctx context.Context, userID uuid.UUID, now time.Time) (*entity.RewardsAccount, error) {
	if !database.InTx(ctx) {
		return nil, fmt.Errorf("lock rewards account %s: no transaction in context", userID.String())
	}

	conn := database.Conn(ctx, r.db)

	insert := `
		INSERT INTO rewards_accounts (user_id, current_balance, total_earned, lifetime_spent, created_at, updated_at)
		VALUES ($1, 0, 0, 0, $2, $2)
		ON CONFLICT (user_id) DO NOTHING
	`
	if _, err := conn.Exec(ctx, insert, userID, now); err != nil {
		r.log.Error("Failed to create rewards account",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return nil, fmt.Errorf("create rewards account %s: %w", userID.String(), err)
	}

	query := `
		SELECT user_id, current_balance, total_earned, lifetime_spent, created_at, updated_at
		FROM rewards_accounts
		WHERE user_id = $1
		FOR UPDATE
	`
	account, err := scanAccount(conn.QueryRow(ctx, query, userID))
	if err != nil {
		r.log.Error("Failed to lock rewards account",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return nil, fmt.Errorf("lock rewards account %s: %w", userID.String(), err)
	}

	return account, nil
}

func (r *rewardsRepository) UpdateAccount(ctx context.Context, account *entity.RewardsAccount) error {
	query := `
		UPDATE rewards_accounts
		SET current_balance = $2, total_earned = $3, lifetime_spent = $4, updated_at = $5
		WHERE user_id = $1
	`

	result, err := database.Conn(ctx, r.db).Exec(ctx, query,
		account.UserID,
		account.CurrentBalance,
		account.TotalEarned,
		account.LifetimeSpent,
		account.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to update rewards account",
			zap.Error(err),
			zap.String("user_id", account.UserID.String()),
		)
		return fmt.Errorf("update rewards account %s: %w", account.UserID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("rewards account %s not found", account.UserID.String())
	}

	return nil
}

func (r *rewardsRepository) CreateTransaction(ctx context.Context, txn *entity.RewardsTransaction) error {
	query := `
		INSERT INTO rewards_transactions (` + rewardsTransactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := database.Conn(ctx, r.db).Exec(ctx, query,
		txn.ID,
		txn.UserID,
		txn.Type,
		txn.Points,
		txn.BalanceAfter,
		txn.BookingID,
		txn.Description,
		txn.CreatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create rewards transaction",
			zap.Error(err),
			zap.String("user_id", txn.UserID.String()),
			zap.String("type", string(txn.Type)),
			zap.Int64("points", txn.Points),
		)
		return fmt.Errorf("create %s transaction for user %s: %w", txn.Type, txn.UserID.String(), err)
	}

	return nil
}

func (r *rewardsRepository) FindTransactions(ctx context.Context, userID uuid.UUID) ([]*entity.RewardsTransaction, error) {
	query := `
		SELECT ` + rewardsTransactionColumns + `
		FROM rewards_transactions
		WHERE user_id = $1
		ORDER BY created_at, seq
	`

	rows, err := database.Conn(ctx, r.db).Query(ctx, query, userID)
	if err != nil {
		r.log.Error("Failed to find rewards transactions",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return nil, fmt.Errorf("find rewards transactions for user %s: %w", userID.String(), err)
	}

	return r.collect(rows)
}

func (r *rewardsRepository) FindTransactionsByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.RewardsTransaction, error) {
	query := `
		SELECT ` + rewardsTransactionColumns + `
		FROM rewards_transactions
		WHERE booking_id = $1
		ORDER BY created_at, seq
	`

	rows, err := database.Conn(ctx, r.db).Query(ctx, query, bookingID)
	if err != nil {
		r.log.Error("Failed to find rewards transactions by booking",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return nil, fmt.Errorf("find rewards transactions for booking %s: %w", bookingID.String(), err)
	}

	return r.collect(rows)
}

func (r *rewardsRepository) collect(rows pgx.Rows) ([]*entity.RewardsTransaction, error) {
	defer rows.Close()

	var txns []*entity.RewardsTransaction
	for rows.Next() {
		var t entity.RewardsTransaction
		err := rows.Scan(
			&t.ID,
			&t.UserID,
			&t.Type,
			&t.Points,
			&t.BalanceAfter,
			&t.BookingID,
			&t.Description,
			&t.CreatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan rewards transaction row", zap.Error(err))
			return nil, fmt.Errorf("scan rewards transaction row: %w", err)
		}
		txns = append(txns, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rewards transaction rows: %w", err)
	}

	return txns, nil
}
