package usecase

import (
	"context"
	"fmt"
	"math"

	"rental-booking/internal/data/entity"
	"rental-booking/internal/data/repository"
	"rental-booking/internal/dto/response"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RewardsService manages the loyalty wallet. The transaction log is the
// source of truth; the account balance is a cache of its sum.
type RewardsService interface {
	Award(ctx context.Context, userID uuid.UUID, paidAmount float64, bookingID uuid.UUID) (int64, error)
	MaxRedeemable(ctx context.Context, userID uuid.UUID, bookingAmount float64) (int64, error)
	Redeem(ctx context.Context, userID uuid.UUID, points int64, bookingID uuid.UUID) (float64, error)
	Refund(ctx context.Context, userID, bookingID uuid.UUID) (int64, error)

	Wallet(ctx context.Context, userID uuid.UUID) (*response.WalletResponse, error)
	Transactions(ctx context.Context, userID uuid.UUID) ([]response.RewardsTransactionResponse, error)
	Redeemable(ctx context.Context, userID uuid.UUID, bookingAmount float64) (*response.RedeemableResponse, error)
	Reconcile(ctx context.Context, userID uuid.UUID) (*response.ReconcileResponse, error)
}

type rewardsService struct {
	repo *repository.Repository
	log  *zap.Logger
	now  Clock
}

func NewRewardsService(repo *repository.Repository, log *zap.Logger, clock Clock) RewardsService {
	return &rewardsService{
		repo: repo,
		log:  log.With(zap.String("service", "rewards")),
		now:  clock,
	}
}

// Award credits points for a paid amount using the matching points slot.
// A booking earns at most once; repeat calls return zero.
func (s *rewardsService) Award(ctx context.Context, userID uuid.UUID, paidAmount float64, bookingID uuid.UUID) (int64, error) {
	var awarded int64
	err := s.repo.Tx.WithinTx(ctx, func(ctx context.Context) error {
		txns, err := s.repo.Rewards.FindTransactionsByBookingID(ctx, bookingID)
		if err != nil {
			return err
		}
		for _, t := range txns {
			if t.UserID == userID && t.Type == entity.RewardsTransactionEarned {
				return nil
			}
		}

		slot, err := s.repo.PointsConf.FindSlotForAmount(ctx, paidAmount)
		if err != nil {
			return err
		}
		if slot == nil {
			s.log.Debug("No points slot for amount", zap.Float64("amount", paidAmount))
			return nil
		}

		points := int64(math.Floor(paidAmount / 1000 * slot.PointsPerThousand))
		if points <= 0 {
			return nil
		}

		_, err = s.apply(ctx, userID, entity.RewardsTransactionEarned, points, &bookingID,
			fmt.Sprintf("Earned on payment of %.2f", paidAmount))
		if err != nil {
			return err
		}
		awarded = points
		return nil
	})
	if err != nil {
		return 0, err
	}

	if awarded > 0 {
		s.log.Info("Points awarded",
			zap.String("user_id", userID.String()),
			zap.String("booking_id", bookingID.String()),
			zap.Int64("points", awarded),
		)
	}
	return awarded, nil
}

// MaxRedeemable is the most points the user may spend on a booking of the
// given amount, or zero when that falls under the redemption minimum.
func (s *rewardsService) MaxRedeemable(ctx context.Context, userID uuid.UUID, bookingAmount float64) (int64, error) {
	settings, err := s.repo.PointsConf.GetSettings(ctx)
	if err != nil {
		return 0, err
	}
	if !redemptionEnabled(settings) {
		return 0, nil
	}

	account, err := s.repo.Rewards.FindAccount(ctx, userID)
	if err != nil {
		return 0, err
	}
	if account == nil {
		return 0, nil
	}

	return maxRedeemable(account.CurrentBalance, bookingAmount, settings), nil
}

func maxRedeemable(balance int64, bookingAmount float64, settings *entity.PointsSettings) int64 {
	limit := min(balance, int64(math.Floor(bookingAmount*settings.PointsPerTaka)))
	if settings.MaxPointsPerBooking > 0 {
		limit = min(limit, settings.MaxPointsPerBooking)
	}
	if limit < settings.MinPointsToRedeem || limit < 0 {
		return 0
	}
	return limit
}

// Redeem spends points and returns the money they are worth.
func (s *rewardsService) Redeem(ctx context.Context, userID uuid.UUID, points int64, bookingID uuid.UUID) (float64, error) {
	if points <= 0 {
		return 0, &ValidationError{Message: "points to redeem must be positive"}
	}

	var discount float64
	err := s.repo.Tx.WithinTx(ctx, func(ctx context.Context) error {
		settings, err := s.repo.PointsConf.GetSettings(ctx)
		if err != nil {
			return err
		}
		if !redemptionEnabled(settings) {
			return &ValidationError{Message: "points redemption is not available"}
		}

		account, err := s.repo.Rewards.GetOrCreateAccountForUpdate(ctx, userID, s.now())
		if err != nil {
			return err
		}
		if points < settings.MinPointsToRedeem || points > account.CurrentBalance {
			return &InsufficientPointsError{
				Requested: points,
				Available: account.CurrentBalance,
				Minimum:   settings.MinPointsToRedeem,
			}
		}

		if _, err := s.applyTo(ctx, account, entity.RewardsTransactionRedeemed, -points, &bookingID, "Redeemed for booking discount"); err != nil {
			return err
		}
		discount = roundMoney(float64(points) / settings.PointsPerTaka)
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.log.Info("Points redeemed",
		zap.String("user_id", userID.String()),
		zap.String("booking_id", bookingID.String()),
		zap.Int64("points", points),
		zap.Float64("discount", discount),
	)
	return discount, nil
}

// Refund returns the points most recently redeemed on a booking. It is a
// no-op when nothing was redeemed or the redemption was already refunded.
func (s *rewardsService) Refund(ctx context.Context, userID, bookingID uuid.UUID) (int64, error) {
	var refunded int64
	err := s.repo.Tx.WithinTx(ctx, func(ctx context.Context) error {
		account, err := s.repo.Rewards.GetOrCreateAccountForUpdate(ctx, userID, s.now())
		if err != nil {
			return err
		}

		txns, err := s.repo.Rewards.FindTransactionsByBookingID(ctx, bookingID)
		if err != nil {
			return err
		}

		var redeemed *entity.RewardsTransaction
		for _, t := range txns {
			if t.UserID != userID {
				continue
			}
			switch {
			case t.Type == entity.RewardsTransactionRedeemed:
				redeemed = t
			case t.Type == entity.RewardsTransactionAdjusted && t.Points > 0:
				redeemed = nil
			}
		}
		if redeemed == nil {
			return nil
		}

		points := -redeemed.Points
		if _, err := s.applyTo(ctx, account, entity.RewardsTransactionAdjusted, points, &bookingID, "Refund of points redeemed on cancelled booking"); err != nil {
			return err
		}
		refunded = points
		return nil
	})
	if err != nil {
		return 0, err
	}

	if refunded > 0 {
		s.log.Info("Points refunded",
			zap.String("user_id", userID.String()),
			zap.String("booking_id", bookingID.String()),
			zap.Int64("points", refunded),
		)
	}
	return refunded, nil
}

func (s *rewardsService) apply(ctx context.Context, userID uuid.UUID, kind entity.RewardsTransactionType, points int64, bookingID *uuid.UUID, description string) (*entity.RewardsTransaction, error) {
	account, err := s.repo.Rewards.GetOrCreateAccountForUpdate(ctx, userID, s.now())
	if err != nil {
		return nil, err
	}
	return s.applyTo(ctx, account, kind, points, bookingID, description)
}

// applyTo appends a transaction and moves the locked account with it.
func (s *rewardsService) applyTo(ctx context.Context, account *entity.RewardsAccount, kind entity.RewardsTransactionType, points int64, bookingID *uuid.UUID, description string) (*entity.RewardsTransaction, error) {
	now := s.now()

	account.CurrentBalance += points
	switch kind {
	case entity.RewardsTransactionEarned:
		account.TotalEarned += points
	case entity.RewardsTransactionRedeemed, entity.RewardsTransactionAdjusted:
		account.LifetimeSpent = max(0, account.LifetimeSpent-points)
	}
	account.UpdatedAt = now

	txn := &entity.RewardsTransaction{
		BaseSimple: entity.BaseSimple{
			ID:        uuid.New(),
			CreatedAt: now,
		},
		UserID:       account.UserID,
		Type:         kind,
		Points:       points,
		BalanceAfter: account.CurrentBalance,
		BookingID:    bookingID,
		Description:  description,
	}

	if err := s.repo.Rewards.CreateTransaction(ctx, txn); err != nil {
		return nil, err
	}
	if err := s.repo.Rewards.UpdateAccount(ctx, account); err != nil {
		return nil, err
	}
	return txn, nil
}

func (s *rewardsService) Wallet(ctx context.Context, userID uuid.UUID) (*response.WalletResponse, error) {
	account, err := s.repo.Rewards.FindAccount(ctx, userID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		account = &entity.RewardsAccount{UserID: userID}
	}

	resp := response.WalletToResponse(account)
	return &resp, nil
}

func (s *rewardsService) Transactions(ctx context.Context, userID uuid.UUID) ([]response.RewardsTransactionResponse, error) {
	txns, err := s.repo.Rewards.FindTransactions(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]response.RewardsTransactionResponse, 0, len(txns))
	for _, t := range txns {
		out = append(out, response.RewardsTransactionToResponse(t))
	}
	return out, nil
}

func (s *rewardsService) Redeemable(ctx context.Context, userID uuid.UUID, bookingAmount float64) (*response.RedeemableResponse, error) {
	if bookingAmount <= 0 {
		return nil, &ValidationError{Message: "amount must be positive"}
	}

	points, err := s.MaxRedeemable(ctx, userID, bookingAmount)
	if err != nil {
		return nil, err
	}

	resp := &response.RedeemableResponse{Amount: bookingAmount, MaxRedeemable: points}
	if points > 0 {
		settings, err := s.repo.PointsConf.GetSettings(ctx)
		if err != nil {
			return nil, err
		}
		resp.DiscountAmount = roundMoney(float64(points) / settings.PointsPerTaka)
	}
	return resp, nil
}

// Reconcile replays the user's transaction log and rewrites the cached
// account totals when they have drifted from it.
func (s *rewardsService) Reconcile(ctx context.Context, userID uuid.UUID) (*response.ReconcileResponse, error) {
	result := &response.ReconcileResponse{UserID: userID.String()}

	err := s.repo.Tx.WithinTx(ctx, func(ctx context.Context) error {
		account, err := s.repo.Rewards.GetOrCreateAccountForUpdate(ctx, userID, s.now())
		if err != nil {
			return err
		}

		txns, err := s.repo.Rewards.FindTransactions(ctx, userID)
		if err != nil {
			return err
		}

		replayed := replay(txns)
		result.CachedBalance = account.CurrentBalance
		result.ReplayedBalance = replayed.CurrentBalance
		result.Drift = account.CurrentBalance - replayed.CurrentBalance
		result.TransactionCount = len(txns)

		if account.CurrentBalance == replayed.CurrentBalance &&
			account.TotalEarned == replayed.TotalEarned &&
			account.LifetimeSpent == replayed.LifetimeSpent {
			return nil
		}

		account.CurrentBalance = replayed.CurrentBalance
		account.TotalEarned = replayed.TotalEarned
		account.LifetimeSpent = replayed.LifetimeSpent
		account.UpdatedAt = s.now()
		if err := s.repo.Rewards.UpdateAccount(ctx, account); err != nil {
			return err
		}
		result.Repaired = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Repaired {
		s.log.Warn("Rewards account repaired from log",
			zap.String("user_id", userID.String()),
			zap.Int64("cached_balance", result.CachedBalance),
			zap.Int64("replayed_balance", result.ReplayedBalance),
		)
	}
	return result, nil
}

// replay folds a user's log, in creation order, into account totals.
func replay(txns []*entity.RewardsTransaction) entity.RewardsAccount {
	var a entity.RewardsAccount
	for _, t := range txns {
		a.CurrentBalance += t.Points
		switch t.Type {
		case entity.RewardsTransactionEarned:
			a.TotalEarned += t.Points
		case entity.RewardsTransactionRedeemed, entity.RewardsTransactionAdjusted:
			a.LifetimeSpent = max(0, a.LifetimeSpent-t.Points)
		}
	}
	return a
}

func redemptionEnabled(settings *entity.PointsSettings) bool {
	return settings != nil && settings.IsActive && settings.PointsPerTaka > 0
}
