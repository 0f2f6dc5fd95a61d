package memory

import (
	"context"
	"sort"

	"rental-booking/internal/data/entity"

	"github.com/google/uuid"
)

type propertyRepo struct{ s *Store }

func (r *propertyRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Property, error) {
	defer r.s.lock(ctx)()

	p, ok := r.s.data.properties[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

type couponRepo struct{ s *Store }

func (r *couponRepo) FindByCode(ctx context.Context, code string) (*entity.Coupon, error) {
	defer r.s.lock(ctx)()

	c, ok := r.s.data.coupons[code]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *couponRepo) IncrementUsage(ctx context.Context, id uuid.UUID) (bool, error) {
	defer r.s.lock(ctx)()

	for _, c := range r.s.data.coupons {
		if c.ID != id {
			continue
		}
		if c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit {
			return false, nil
		}
		c.UsedCount++
		return true, nil
	}
	return false, nil
}

type pointsConfigRepo struct{ s *Store }

func (r *pointsConfigRepo) FindSlotForAmount(ctx context.Context, amount float64) (*entity.PointsSlot, error) {
	defer r.s.lock(ctx)()

	var candidates []*entity.PointsSlot
	for _, slot := range r.s.data.slots {
		if slot.IsActive && slot.Contains(amount) {
			candidates = append(candidates, slot)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].MinAmount > candidates[j].MinAmount
	})
	cp := *candidates[0]
	return &cp, nil
}

func (r *pointsConfigRepo) GetSettings(ctx context.Context) (*entity.PointsSettings, error) {
	defer r.s.lock(ctx)()

	if r.s.data.settings == nil {
		return nil, nil
	}
	cp := *r.s.data.settings
	return &cp, nil
}

type contactRepo struct{ s *Store }

func (r *contactRepo) FindEmailByUserID(ctx context.Context, userID uuid.UUID) (string, error) {
	defer r.s.lock(ctx)()

	return r.s.data.contacts[userID], nil
}
