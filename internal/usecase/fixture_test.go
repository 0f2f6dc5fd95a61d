package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"rental-booking/internal/data/entity"
	"rental-booking/internal/data/memory"
	"rental-booking/internal/dto/request"
	"rental-booking/internal/dto/response"
	"rental-booking/pkg/notify"
	"rental-booking/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type sentMessage struct {
	UserID uuid.UUID
	Msg    notify.Message
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, userID uuid.UUID, msg notify.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMessage{UserID: userID, Msg: msg})
	return n.err
}

func (n *recordingNotifier) events() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.sent))
	for _, s := range n.sent {
		out = append(out, s.Msg.Event)
	}
	return out
}

type fixture struct {
	t        *testing.T
	store    *memory.Store
	clock    *fakeClock
	notifier *recordingNotifier
	svc      *Service
	config   *utils.Config

	owner    uuid.UUID
	guest    uuid.UUID
	property *entity.Property
}

type fixtureOption func(*utils.Config)

func withResponseHours(h int) fixtureOption {
	return func(c *utils.Config) { c.Booking.OwnerResponseHours = h }
}

// newFixture wires the services over a memory store seeded with one
// property (1000/night, 200 cleaning fee) owned by f.owner.
func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()

	log := zaptest.NewLogger(t)
	store := memory.NewStore(log)
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	notifier := &recordingNotifier{}

	config := &utils.Config{
		Booking: utils.BookingConfig{
			PaymentDeadlineMinutes: 15,
			OwnerResponseHours:     24,
			DefaultCommissionRate:  10,
		},
	}
	for _, opt := range opts {
		opt(config)
	}

	property := &entity.Property{
		ID:          uuid.New(),
		OwnerID:     uuid.New(),
		BasePrice:   1000,
		CleaningFee: 200,
		MaxGuests:   4,
		MinimumStay: 1,
		IsActive:    true,
	}
	store.AddProperty(property)

	return &fixture{
		t:        t,
		store:    store,
		clock:    clock,
		notifier: notifier,
		svc:      NewService(store.Repository(), config, notifier, log, clock.Now),
		config:   config,
		owner:    property.OwnerID,
		guest:    uuid.New(),
		property: property,
	}
}

func (f *fixture) ctx() context.Context {
	return context.Background()
}

// stay returns a request for nights nights starting daysAhead days from now.
func (f *fixture) stay(daysAhead, nights int) *request.CreateBookingRequest {
	checkIn := utils.StartOfDay(f.clock.Now()).AddDate(0, 0, daysAhead)
	return &request.CreateBookingRequest{
		PropertyID: f.property.ID.String(),
		CheckIn:    checkIn.Format(utils.DateLayout),
		CheckOut:   checkIn.AddDate(0, 0, nights).Format(utils.DateLayout),
		GuestCount: 1,
	}
}

func (f *fixture) create(req *request.CreateBookingRequest) *response.CreateBookingResponse {
	f.t.Helper()
	resp, err := f.svc.Booking.CreateBooking(f.ctx(), f.guest.String(), req)
	require.NoError(f.t, err)
	return resp
}

func (f *fixture) accepted(req *request.CreateBookingRequest) *response.BookingResponse {
	f.t.Helper()
	created := f.create(req)
	booking, err := f.svc.Booking.Accept(f.ctx(), f.owner.String(), created.Booking.ID)
	require.NoError(f.t, err)
	return booking
}

func (f *fixture) paid(req *request.CreateBookingRequest) *response.BookingResponse {
	f.t.Helper()
	booking := f.accepted(req)
	paid, err := f.svc.Booking.RecordPayment(f.ctx(), f.guest.String(), booking.ID, &request.RecordPaymentRequest{Method: "card"})
	require.NoError(f.t, err)
	return paid
}

func (f *fixture) booking(id string) *entity.Booking {
	f.t.Helper()
	b, err := f.store.Repository().Booking.FindByID(f.ctx(), uuid.MustParse(id))
	require.NoError(f.t, err)
	require.NotNil(f.t, b)
	return b
}

func (f *fixture) ledger(id string) []*entity.LedgerEntry {
	f.t.Helper()
	entries, err := f.store.Repository().Ledger.FindByBookingID(f.ctx(), uuid.MustParse(id))
	require.NoError(f.t, err)
	return entries
}

func (f *fixture) enableRewards() {
	f.store.AddPointsSlot(&entity.PointsSlot{
		ID:                uuid.New(),
		MinAmount:         0,
		PointsPerThousand: 100,
		IsActive:          true,
	})
	f.store.SetPointsSettings(&entity.PointsSettings{
		PointsPerTaka:     10,
		MinPointsToRedeem: 100,
		IsActive:          true,
	})
}

// grantPoints gives the guest points through a booking-less earn entry.
func (f *fixture) grantPoints(user uuid.UUID, points int64) {
	f.t.Helper()
	repo := f.store.Repository()
	err := repo.Tx.WithinTx(f.ctx(), func(ctx context.Context) error {
		account, err := repo.Rewards.GetOrCreateAccountForUpdate(ctx, user, f.clock.Now())
		if err != nil {
			return err
		}
		account.CurrentBalance += points
		account.TotalEarned += points
		if err := repo.Rewards.CreateTransaction(ctx, &entity.RewardsTransaction{
			BaseSimple:   entity.BaseSimple{ID: uuid.New(), CreatedAt: f.clock.Now()},
			UserID:       user,
			Type:         entity.RewardsTransactionEarned,
			Points:       points,
			BalanceAfter: account.CurrentBalance,
			Description:  "welcome bonus",
		}); err != nil {
			return err
		}
		return repo.Rewards.UpdateAccount(ctx, account)
	})
	require.NoError(f.t, err)
}
