package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"rental-booking/internal/data/entity"
	"rental-booking/internal/data/repository"

	"github.com/google/uuid"
)

type ledgerRepo struct{ s *Store }

func (r *ledgerRepo) Create(ctx context.Context, entry *entity.LedgerEntry) error {
	defer r.s.lock(ctx)()

	if _, ok := r.s.data.bookings[entry.BookingID]; !ok {
		return fmt.Errorf("create %s entry: booking %s not found", entry.Kind, entry.BookingID.String())
	}
	cp := *entry
	r.s.data.ledger = append(r.s.data.ledger, &cp)
	return nil
}

func (r *ledgerRepo) FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.LedgerEntry, error) {
	defer r.s.lock(ctx)()

	var entries []*entity.LedgerEntry
	for _, e := range r.s.data.ledger {
		if e.BookingID == bookingID {
			cp := *e
			entries = append(entries, &cp)
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
	return entries, nil
}

func (r *ledgerRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.LedgerStatus, now time.Time) error {
	defer r.s.lock(ctx)()

	for _, e := range r.s.data.ledger {
		if e.ID != id {
			continue
		}
		if e.Status != entity.LedgerStatusPending {
			return fmt.Errorf("update ledger entry %s: %w", id.String(), repository.ErrEntryNotPending)
		}
		e.Status = status
		e.UpdatedAt = now
		return nil
	}
	return fmt.Errorf("update ledger entry %s: %w", id.String(), repository.ErrEntryNotPending)
}

func (r *ledgerRepo) CancelPendingByBookingID(ctx context.Context, bookingID uuid.UUID, now time.Time) (int64, error) {
	defer r.s.lock(ctx)()

	var n int64
	for _, e := range r.s.data.ledger {
		if e.BookingID == bookingID && e.Status == entity.LedgerStatusPending && e.Kind != entity.LedgerKindRefund {
			e.Status = entity.LedgerStatusCancelled
			e.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

type earningsRepo struct{ s *Store }

func (r *earningsRepo) Create(ctx context.Context, earnings *entity.AdminEarnings) error {
	defer r.s.lock(ctx)()

	if _, ok := r.s.data.earnings[earnings.BookingID]; ok {
		return fmt.Errorf("create earnings for booking %s: already exists", earnings.BookingID.String())
	}
	cp := *earnings
	r.s.data.earnings[earnings.BookingID] = &cp
	return nil
}

func (r *earningsRepo) FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*entity.AdminEarnings, error) {
	defer r.s.lock(ctx)()

	e, ok := r.s.data.earnings[bookingID]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (r *earningsRepo) Update(ctx context.Context, earnings *entity.AdminEarnings) error {
	defer r.s.lock(ctx)()

	if _, ok := r.s.data.earnings[earnings.BookingID]; !ok {
		return fmt.Errorf("earnings %s not found", earnings.ID.String())
	}
	cp := *earnings
	r.s.data.earnings[earnings.BookingID] = &cp
	return nil
}
