package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"rental-booking/internal/data/entity"

	"github.com/google/uuid"
)

type rewardsRepo struct{ s *Store }

func (r *rewardsRepo) FindAccount(ctx context.Context, userID uuid.UUID) (*entity.RewardsAccount, error) {
	defer r.s.lock(ctx)()

	a, ok := r.s.data.accounts[userID]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *rewardsRepo) GetOrCreateAccountForUpdate(ctx context.Context, userID uuid.UUID, now time.Time) (*entity.RewardsAccount, error) {
	if err := requireTx(ctx, "lock rewards account "+userID.String()); err != nil {
		return nil, err
	}

	a, ok := r.s.data.accounts[userID]
	if !ok {
		a = &entity.RewardsAccount{UserID: userID, CreatedAt: now, UpdatedAt: now}
		r.s.data.accounts[userID] = a
	}
	cp := *a
	return &cp, nil
}

func (r *rewardsRepo) UpdateAccount(ctx context.Context, account *entity.RewardsAccount) error {
	defer r.s.lock(ctx)()

	if _, ok := r.s.data.accounts[account.UserID]; !ok {
		return fmt.Errorf("rewards account %s not found", account.UserID.String())
	}
	cp := *account
	r.s.data.accounts[account.UserID] = &cp
	return nil
}

func (r *rewardsRepo) CreateTransaction(ctx context.Context, txn *entity.RewardsTransaction) error {
	defer r.s.lock(ctx)()

	cp := *txn
	r.s.data.rewardTxns = append(r.s.data.rewardTxns, &cp)
	return nil
}

func (r *rewardsRepo) FindTransactions(ctx context.Context, userID uuid.UUID) ([]*entity.RewardsTransaction, error) {
	defer r.s.lock(ctx)()

	return r.filter(func(t *entity.RewardsTransaction) bool { return t.UserID == userID }), nil
}

func (r *rewardsRepo) FindTransactionsByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.RewardsTransaction, error) {
	defer r.s.lock(ctx)()

	return r.filter(func(t *entity.RewardsTransaction) bool {
		return t.BookingID != nil && *t.BookingID == bookingID
	}), nil
}

func (r *rewardsRepo) filter(keep func(*entity.RewardsTransaction) bool) []*entity.RewardsTransaction {
	var out []*entity.RewardsTransaction
	for _, t := range r.s.data.rewardTxns {
		if keep(t) {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
