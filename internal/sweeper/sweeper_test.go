package sweeper

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"rental-booking/internal/data/entity"
	"rental-booking/internal/data/memory"
	"rental-booking/internal/dto/request"
	"rental-booking/internal/usecase"
	"rental-booking/pkg/notify"
	"rental-booking/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestRunOnce_ReleasesLapsedHolds(t *testing.T) {
	log := zaptest.NewLogger(t)
	store := memory.NewStore(log)
	c := &clock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}

	owner := uuid.New()
	property := &entity.Property{ID: uuid.New(), OwnerID: owner, BasePrice: 1000, CleaningFee: 200, MaxGuests: 2, IsActive: true}
	store.AddProperty(property)

	repo := store.Repository()
	svc := usecase.NewService(repo, &utils.Config{Booking: utils.BookingConfig{
		PaymentDeadlineMinutes: 15,
		OwnerResponseHours:     24,
		DefaultCommissionRate:  10,
	}}, notify.Nop{}, log, c.Now)

	stay := func(daysAhead int) *request.CreateBookingRequest {
		checkIn := utils.StartOfDay(c.Now()).AddDate(0, 0, daysAhead)
		return &request.CreateBookingRequest{
			PropertyID: property.ID.String(),
			CheckIn:    checkIn.Format(utils.DateLayout),
			CheckOut:   checkIn.AddDate(0, 0, 2).Format(utils.DateLayout),
			GuestCount: 1,
		}
	}
	ctx := context.Background()
	guest := uuid.NewString()

	accepted, err := svc.Booking.CreateBooking(ctx, guest, stay(10))
	require.NoError(t, err)
	_, err = svc.Booking.Accept(ctx, owner.String(), accepted.Booking.ID)
	require.NoError(t, err)

	paid, err := svc.Booking.CreateBooking(ctx, guest, stay(20))
	require.NoError(t, err)
	_, err = svc.Booking.Accept(ctx, owner.String(), paid.Booking.ID)
	require.NoError(t, err)
	_, err = svc.Booking.RecordPayment(ctx, guest, paid.Booking.ID, &request.RecordPaymentRequest{Method: "card"})
	require.NoError(t, err)

	sw := New(repo.Booking, svc.Booking, utils.SweeperConfig{BatchSize: 1}, nil, log, c.Now)

	summary, err := sw.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, Summary{}, summary, "nothing lapsed yet")

	c.Advance(16 * time.Minute)

	summary, err = sw.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, Summary{Scanned: 1, Expired: 1}, summary)

	b, err := repo.Booking.FindByID(ctx, uuid.MustParse(accepted.Booking.ID))
	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusCancelled, b.Status)
	require.NotNil(t, b.CancellationReason)
	assert.Equal(t, "payment deadline expired", *b.CancellationReason)

	entries, err := repo.Ledger.FindByBookingID(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entity.LedgerStatusCancelled, entries[0].Status)

	b, err = repo.Booking.FindByID(ctx, uuid.MustParse(paid.Booking.ID))
	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusConfirmed, b.Status)

	// Released dates can be booked again.
	_, err = svc.Booking.CreateBooking(ctx, uuid.NewString(), stay(10))
	require.NoError(t, err)

	summary, err = sw.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, summary.Scanned)
}

type staticFinder struct {
	holds []*entity.Booking
	err   error
}

func (f staticFinder) FindExpiredHolds(context.Context, time.Time, *entity.HoldCursor, int) ([]*entity.Booking, error) {
	return f.holds, f.err
}

type expirerFunc func(ctx context.Context, id uuid.UUID) (bool, error)

func (f expirerFunc) Expire(ctx context.Context, id uuid.UUID) (bool, error) { return f(ctx, id) }

func TestRunOnce_ContinuesPastFailures(t *testing.T) {
	failing := uuid.New()
	skipped := uuid.New()
	holds := []*entity.Booking{
		{Base: entity.Base{ID: failing}},
		{Base: entity.Base{ID: skipped}},
		{Base: entity.Base{ID: uuid.New()}},
	}

	var calls []uuid.UUID
	expirer := expirerFunc(func(_ context.Context, id uuid.UUID) (bool, error) {
		calls = append(calls, id)
		switch id {
		case failing:
			return false, errors.New("connection reset")
		case skipped:
			return false, nil
		}
		return true, nil
	})

	sw := New(staticFinder{holds: holds}, expirer, utils.SweeperConfig{BatchSize: 10}, nil, zaptest.NewLogger(t), nil)

	summary, err := sw.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Summary{Scanned: 3, Expired: 1, Skipped: 1, Failed: 1}, summary)
	assert.Len(t, calls, 3)
}

func TestRunOnce_FailuresDoNotBlockLaterHolds(t *testing.T) {
	log := zaptest.NewLogger(t)
	store := memory.NewStore(log)
	repo := store.Repository()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	// Three stuck holds fill the first two batches ahead of two good ones.
	failing := make(map[uuid.UUID]bool)
	var good []uuid.UUID
	for i := 0; i < 5; i++ {
		b := lapsedHold(now, time.Duration(50-i*10)*time.Minute)
		require.NoError(t, repo.Booking.Create(ctx, b))
		if i < 3 {
			failing[b.ID] = true
		} else {
			good = append(good, b.ID)
		}
	}

	var expired []uuid.UUID
	expirer := expirerFunc(func(_ context.Context, id uuid.UUID) (bool, error) {
		if failing[id] {
			return false, errors.New("row locked")
		}
		expired = append(expired, id)
		return true, nil
	})

	sw := New(repo.Booking, expirer, utils.SweeperConfig{BatchSize: 2}, nil, log, func() time.Time { return now })

	summary, err := sw.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, Summary{Scanned: 5, Expired: 2, Failed: 3}, summary)
	assert.ElementsMatch(t, good, expired)
}

func lapsedHold(now time.Time, ago time.Duration) *entity.Booking {
	accepted := now.Add(-ago - 15*time.Minute)
	deadline := now.Add(-ago)
	checkIn := now.AddDate(0, 0, 10)
	return &entity.Booking{
		Base:            entity.Base{ID: uuid.New(), CreatedAt: accepted, UpdatedAt: accepted},
		Reference:       "BK-" + uuid.NewString()[:8],
		PropertyID:      uuid.New(),
		GuestID:         uuid.New(),
		OwnerID:         uuid.New(),
		CheckInDate:     checkIn,
		CheckOutDate:    checkIn.AddDate(0, 0, 2),
		GuestCount:      1,
		Status:          entity.BookingStatusAccepted,
		PaymentStatus:   entity.PaymentStatusUnpaid,
		TotalAmount:     1000,
		AcceptedAt:      &accepted,
		PaymentDeadline: &deadline,
	}
}

func TestRunOnce_DoesNotRevisitWithinRun(t *testing.T) {
	// A finder that ignores the cursor and keeps returning the same full
	// batch must not loop forever.
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	holds := []*entity.Booking{lapsedHold(now, 2*time.Minute), lapsedHold(now, time.Minute)}

	var calls atomic.Int32
	expirer := expirerFunc(func(context.Context, uuid.UUID) (bool, error) {
		calls.Add(1)
		return true, nil
	})

	sw := New(staticFinder{holds: holds}, expirer, utils.SweeperConfig{BatchSize: 2}, nil, zaptest.NewLogger(t), nil)

	summary, err := sw.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Expired)
	assert.EqualValues(t, 2, calls.Load())
}

func TestRunOnce_FinderError(t *testing.T) {
	sw := New(staticFinder{err: errors.New("db down")}, expirerFunc(nil), utils.SweeperConfig{}, nil, zaptest.NewLogger(t), nil)

	_, err := sw.RunOnce(context.Background())
	assert.ErrorContains(t, err, "db down")
}

func TestStartStop(t *testing.T) {
	ran := make(chan struct{}, 1)
	finder := staticFinder{}
	expirer := expirerFunc(func(context.Context, uuid.UUID) (bool, error) { return true, nil })

	sw := New(finder, expirer, utils.SweeperConfig{Interval: 0}, nil, zaptest.NewLogger(t), nil)
	assert.Error(t, sw.Start(context.Background()), "zero interval")

	sw = New(notifyingFinder{ran: ran}, expirer, utils.SweeperConfig{Interval: time.Hour}, nil, zaptest.NewLogger(t), nil)
	require.NoError(t, sw.Start(context.Background()))
	assert.Error(t, sw.Start(context.Background()), "already started")

	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("sweep did not run on start")
	}

	require.NoError(t, sw.Stop())
	require.NoError(t, sw.Stop())
}

type notifyingFinder struct {
	ran chan struct{}
}

func (f notifyingFinder) FindExpiredHolds(context.Context, time.Time, *entity.HoldCursor, int) ([]*entity.Booking, error) {
	select {
	case f.ran <- struct{}{}:
	default:
	}
	return nil, nil
}
