package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"rental-booking/internal/data/entity"

	"github.com/google/uuid"
)

type bookingRepo struct{ s *Store }

func (r *bookingRepo) Create(ctx context.Context, booking *entity.Booking) error {
	defer r.s.lock(ctx)()

	if _, ok := r.s.data.bookings[booking.ID]; ok {
		return fmt.Errorf("create booking %s: duplicate id", booking.Reference)
	}
	for _, b := range r.s.data.bookings {
		if b.Reference == booking.Reference {
			return fmt.Errorf("create booking %s: duplicate reference", booking.Reference)
		}
	}

	cp := *booking
	r.s.data.bookings[booking.ID] = &cp
	return nil
}

func (r *bookingRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	defer r.s.lock(ctx)()

	b, ok := r.s.data.bookings[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (r *bookingRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	if err := requireTx(ctx, "lock booking "+id.String()); err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

func (r *bookingRepo) FindByReference(ctx context.Context, reference string) (*entity.Booking, error) {
	defer r.s.lock(ctx)()

	for _, b := range r.s.data.bookings {
		if b.Reference == reference {
			cp := *b
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *bookingRepo) FindByGuestID(ctx context.Context, guestID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	defer r.s.lock(ctx)()

	matches := r.filter(func(b *entity.Booking) bool { return b.GuestID == guestID })
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})

	if offset >= len(matches) {
		return nil, nil
	}
	end := offset + limit
	if end > len(matches) {
		end = len(matches)
	}
	return matches[offset:end], nil
}

func (r *bookingRepo) CountByGuestID(ctx context.Context, guestID uuid.UUID) (int64, error) {
	defer r.s.lock(ctx)()

	return int64(len(r.filter(func(b *entity.Booking) bool { return b.GuestID == guestID }))), nil
}

func (r *bookingRepo) Update(ctx context.Context, booking *entity.Booking) error {
	defer r.s.lock(ctx)()

	if _, ok := r.s.data.bookings[booking.ID]; !ok {
		return fmt.Errorf("booking %s not found", booking.ID.String())
	}
	cp := *booking
	r.s.data.bookings[booking.ID] = &cp
	return nil
}

// LockProperty is satisfied by the store-wide transaction lock.
func (r *bookingRepo) LockProperty(ctx context.Context, propertyID uuid.UUID) error {
	return requireTx(ctx, "lock property "+propertyID.String())
}

func (r *bookingRepo) FindActiveOverlapping(ctx context.Context, propertyID uuid.UUID, checkIn, checkOut, now time.Time, excludeID uuid.UUID) ([]*entity.Booking, error) {
	defer r.s.lock(ctx)()

	matches := r.filter(func(b *entity.Booking) bool {
		return b.PropertyID == propertyID &&
			b.ID != excludeID &&
			b.Overlaps(checkIn, checkOut) &&
			b.HoldsCalendar(now)
	})
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CheckInDate.Before(matches[j].CheckInDate)
	})
	return matches, nil
}

func (r *bookingRepo) FindExpiredHolds(ctx context.Context, now time.Time, after *entity.HoldCursor, limit int) ([]*entity.Booking, error) {
	defer r.s.lock(ctx)()

	paid := make(map[uuid.UUID]bool)
	for _, e := range r.s.data.ledger {
		if e.Kind == entity.LedgerKindGuestPayment && e.Status == entity.LedgerStatusCompleted {
			paid[e.BookingID] = true
		}
	}

	matches := r.filter(func(b *entity.Booking) bool {
		return b.HoldLapsed(now) && !paid[b.ID] &&
			(after == nil || after.Before(*b.HoldCursor()))
	})
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].HoldCursor().Before(*matches[j].HoldCursor())
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (r *bookingRepo) filter(keep func(*entity.Booking) bool) []*entity.Booking {
	var out []*entity.Booking
	for _, b := range r.s.data.bookings {
		if keep(b) {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out
}
