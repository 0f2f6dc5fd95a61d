package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"rental-booking/internal/data/entity"
	"rental-booking/internal/data/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newBooking(propertyID uuid.UUID, checkIn time.Time, nights int, status entity.BookingStatus) *entity.Booking {
	return &entity.Booking{
		Base:          entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Reference:     "BK-" + uuid.NewString()[:8],
		PropertyID:    propertyID,
		GuestID:       uuid.New(),
		OwnerID:       uuid.New(),
		CheckInDate:   checkIn,
		CheckOutDate:  checkIn.AddDate(0, 0, nights),
		GuestCount:    1,
		Status:        status,
		PaymentStatus: entity.PaymentStatusUnpaid,
		TotalAmount:   1000,
	}
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	store := NewStore(zaptest.NewLogger(t))
	repo := store.Repository()
	ctx := context.Background()

	kept := newBooking(uuid.New(), now.AddDate(0, 0, 5), 2, entity.BookingStatusAccepted)
	require.NoError(t, repo.Booking.Create(ctx, kept))

	boom := errors.New("boom")
	dropped := newBooking(kept.PropertyID, now.AddDate(0, 0, 10), 2, entity.BookingStatusPending)
	err := repo.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := repo.Booking.Create(ctx, dropped); err != nil {
			return err
		}
		b, err := repo.Booking.FindByIDForUpdate(ctx, kept.ID)
		if err != nil {
			return err
		}
		b.Status = entity.BookingStatusCancelled
		if err := repo.Booking.Update(ctx, b); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := repo.Booking.FindByID(ctx, dropped.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = repo.Booking.FindByID(ctx, kept.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusAccepted, got.Status)
}

func TestWithinTx_RollsBackOnPanic(t *testing.T) {
	store := NewStore(zaptest.NewLogger(t))
	repo := store.Repository()
	ctx := context.Background()

	b := newBooking(uuid.New(), now, 1, entity.BookingStatusPending)
	assert.Panics(t, func() {
		_ = repo.Tx.WithinTx(ctx, func(ctx context.Context) error {
			_ = repo.Booking.Create(ctx, b)
			panic("boom")
		})
	})

	got, err := repo.Booking.FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLocksRequireTransaction(t *testing.T) {
	store := NewStore(zaptest.NewLogger(t))
	repo := store.Repository()
	ctx := context.Background()

	_, err := repo.Booking.FindByIDForUpdate(ctx, uuid.New())
	assert.Error(t, err)
	assert.Error(t, repo.Booking.LockProperty(ctx, uuid.New()))
	_, err = repo.Rewards.GetOrCreateAccountForUpdate(ctx, uuid.New(), now)
	assert.Error(t, err)

	err = repo.Tx.WithinTx(ctx, func(ctx context.Context) error {
		return repo.Booking.LockProperty(ctx, uuid.New())
	})
	assert.NoError(t, err)
}

func TestReturnedEntitiesAreCopies(t *testing.T) {
	store := NewStore(zaptest.NewLogger(t))
	repo := store.Repository()
	ctx := context.Background()

	b := newBooking(uuid.New(), now, 1, entity.BookingStatusPending)
	require.NoError(t, repo.Booking.Create(ctx, b))
	b.Status = entity.BookingStatusCancelled

	got, err := repo.Booking.FindByID(ctx, b.ID)
	require.NoError(t, err)
	got.TotalAmount = 1

	again, err := repo.Booking.FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusPending, again.Status)
	assert.Equal(t, 1000.0, again.TotalAmount)
}

func TestFindActiveOverlapping(t *testing.T) {
	store := NewStore(zaptest.NewLogger(t))
	repo := store.Repository()
	ctx := context.Background()
	property := uuid.New()
	day := func(n int) time.Time { return now.Truncate(24*time.Hour).AddDate(0, 0, n) }

	confirmed := newBooking(property, day(10), 3, entity.BookingStatusConfirmed)
	cancelled := newBooking(property, day(10), 3, entity.BookingStatusCancelled)
	other := newBooking(uuid.New(), day(10), 3, entity.BookingStatusConfirmed)

	openWindow := now.Add(time.Hour)
	waiting := newBooking(property, day(20), 2, entity.BookingStatusPending)
	waiting.ResponseDeadline = &openWindow

	closedWindow := now.Add(-time.Minute)
	ignored := newBooking(property, day(20), 2, entity.BookingStatusPending)
	ignored.ResponseDeadline = &closedWindow

	for _, b := range []*entity.Booking{confirmed, cancelled, other, waiting, ignored} {
		require.NoError(t, repo.Booking.Create(ctx, b))
	}

	tests := []struct {
		name     string
		checkIn  time.Time
		checkOut time.Time
		exclude  uuid.UUID
		want     []uuid.UUID
	}{
		{"inside committed stay", day(11), day(12), uuid.Nil, []uuid.UUID{confirmed.ID}},
		{"ends on check-in day", day(8), day(10), uuid.Nil, nil},
		{"starts on check-out day", day(13), day(15), uuid.Nil, nil},
		{"excluded id", day(10), day(13), confirmed.ID, nil},
		{"pending inside response window", day(21), day(22), uuid.Nil, []uuid.UUID{waiting.ID}},
		{"spans both", day(9), day(25), uuid.Nil, []uuid.UUID{confirmed.ID, waiting.ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.Booking.FindActiveOverlapping(ctx, property, tt.checkIn, tt.checkOut, now, tt.exclude)
			require.NoError(t, err)

			ids := make([]uuid.UUID, 0, len(got))
			for _, b := range got {
				ids = append(ids, b.ID)
			}
			if tt.want == nil {
				assert.Empty(t, ids)
				return
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestFindExpiredHolds(t *testing.T) {
	store := NewStore(zaptest.NewLogger(t))
	repo := store.Repository()
	ctx := context.Background()

	lapsed := func(minutesAgo int) *entity.Booking {
		b := newBooking(uuid.New(), now.AddDate(0, 0, 5), 2, entity.BookingStatusAccepted)
		accepted := now.Add(-time.Hour)
		deadline := now.Add(-time.Duration(minutesAgo) * time.Minute)
		b.AcceptedAt = &accepted
		b.PaymentDeadline = &deadline
		return b
	}

	older := lapsed(30)
	newer := lapsed(5)
	paidLate := lapsed(10)
	dueNow := lapsed(0)

	open := newBooking(uuid.New(), now.AddDate(0, 0, 5), 2, entity.BookingStatusAccepted)
	deadline := now.Add(time.Minute)
	open.AcceptedAt = &now
	open.PaymentDeadline = &deadline

	for _, b := range []*entity.Booking{newer, older, paidLate, open, dueNow} {
		require.NoError(t, repo.Booking.Create(ctx, b))
	}
	require.NoError(t, repo.Ledger.Create(ctx, &entity.LedgerEntry{
		Base:      entity.Base{ID: uuid.New(), CreatedAt: now},
		BookingID: paidLate.ID,
		Kind:      entity.LedgerKindGuestPayment,
		Amount:    1000,
		Status:    entity.LedgerStatusCompleted,
	}))

	got, err := repo.Booking.FindExpiredHolds(ctx, now, nil, 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, older.ID, got[0].ID, "oldest deadline first")
	assert.Equal(t, newer.ID, got[1].ID)
	assert.Equal(t, dueNow.ID, got[2].ID, "a deadline equal to now has lapsed")

	got, err = repo.Booking.FindExpiredHolds(ctx, now, nil, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)

	got, err = repo.Booking.FindExpiredHolds(ctx, now, got[0].HoldCursor(), 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, newer.ID, got[0].ID, "paging resumes after the cursor")
	assert.Equal(t, dueNow.ID, got[1].ID)
}

func TestHoldCursor_OrdersByDeadlineThenID(t *testing.T) {
	a := entity.HoldCursor{Deadline: now, ID: uuid.MustParse("00000000-0000-0000-0000-000000000002")}
	b := entity.HoldCursor{Deadline: now, ID: uuid.MustParse("00000000-0000-0000-0000-000000000010")}
	c := entity.HoldCursor{Deadline: now.Add(time.Second), ID: uuid.MustParse("00000000-0000-0000-0000-000000000001")}

	assert.True(t, a.Before(b))
	assert.False(t, b.Before(a))
	assert.True(t, b.Before(c))
	assert.False(t, a.Before(a))
}

func TestLedgerUpdateStatus_OnlyFromPending(t *testing.T) {
	store := NewStore(zaptest.NewLogger(t))
	repo := store.Repository()
	ctx := context.Background()

	b := newBooking(uuid.New(), now, 1, entity.BookingStatusAccepted)
	require.NoError(t, repo.Booking.Create(ctx, b))

	entry := &entity.LedgerEntry{
		Base:      entity.Base{ID: uuid.New(), CreatedAt: now},
		BookingID: b.ID,
		Kind:      entity.LedgerKindOwnerAccepted,
		Amount:    1000,
		Status:    entity.LedgerStatusPending,
	}
	require.NoError(t, repo.Ledger.Create(ctx, entry))
	require.NoError(t, repo.Ledger.UpdateStatus(ctx, entry.ID, entity.LedgerStatusCompleted, now))

	err := repo.Ledger.UpdateStatus(ctx, entry.ID, entity.LedgerStatusCancelled, now)
	assert.ErrorIs(t, err, repository.ErrEntryNotPending)

	orphan := &entity.LedgerEntry{
		Base:      entity.Base{ID: uuid.New(), CreatedAt: now},
		BookingID: uuid.New(),
		Kind:      entity.LedgerKindGuestPayment,
		Amount:    1,
	}
	assert.Error(t, repo.Ledger.Create(ctx, orphan))
}

func TestCouponIncrementUsage(t *testing.T) {
	store := NewStore(zaptest.NewLogger(t))
	repo := store.Repository()
	ctx := context.Background()

	coupon := &entity.Coupon{ID: uuid.New(), Code: "ONCE", UsageLimit: 1, IsActive: true}
	store.AddCoupon(coupon)

	ok, err := repo.Coupon.IncrementUsage(ctx, coupon.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Coupon.IncrementUsage(ctx, coupon.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.Coupon.FindByCode(ctx, "ONCE")
	require.NoError(t, err)
	assert.Equal(t, 1, got.UsedCount)
}

func TestLoadSeed(t *testing.T) {
	store := NewStore(zaptest.NewLogger(t))
	repo := store.Repository()
	ctx := context.Background()

	propertyID := uuid.New()
	ownerID := uuid.New()
	seed := `{
		"properties": [{"id": "` + propertyID.String() + `", "owner_id": "` + ownerID.String() + `", "base_price": 1000, "max_guests": 2}],
		"coupons": [{"id": "` + uuid.NewString() + `", "code": "SPRING", "discount_type": "percentage", "discount_value": 10}],
		"points_slots": [{"min_amount": 0, "points_per_thousand": 50}],
		"points_settings": {"points_per_taka": 10, "min_points_to_redeem": 100},
		"contacts": {"` + ownerID.String() + `": "owner@example.com"}
	}`
	path := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(path, []byte(seed), 0o600))

	require.NoError(t, store.LoadSeed(path))

	property, err := repo.Property.FindByID(ctx, propertyID)
	require.NoError(t, err)
	require.NotNil(t, property)
	assert.True(t, property.IsActive)
	assert.Equal(t, ownerID, property.OwnerID)

	coupon, err := repo.Coupon.FindByCode(ctx, "SPRING")
	require.NoError(t, err)
	require.NotNil(t, coupon)
	assert.Equal(t, entity.DiscountTypePercentage, coupon.DiscountType)

	slot, err := repo.PointsConf.FindSlotForAmount(ctx, 2500)
	require.NoError(t, err)
	require.NotNil(t, slot)
	assert.Equal(t, 50.0, slot.PointsPerThousand)

	email, err := repo.Contact.FindEmailByUserID(ctx, ownerID)
	require.NoError(t, err)
	assert.Equal(t, "owner@example.com", email)

	assert.Error(t, store.LoadSeed(filepath.Join(t.TempDir(), "missing.json")))
}
